package scheduler

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

const (
	TriggerManual    = "manual"
	TriggerScheduled = "scheduled"

	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// ErrSyncInProgress means another run holds the sync lock.
var ErrSyncInProgress = errors.New("sync_in_progress")

// SyncRun is the persisted audit trail of one sync execution.
type SyncRun struct {
	ID          snowflake.ID      `gorm:"column:id;primaryKey" json:"id"`
	PrincipalID string            `gorm:"column:principal_id" json:"principal_id"`
	TriggerKind string            `gorm:"column:trigger_kind" json:"trigger"`
	Status      string            `gorm:"column:status" json:"status"`
	SyncedCount int               `gorm:"column:synced_count" json:"synced_count"`
	LastError   string            `gorm:"column:last_error" json:"last_error,omitempty"`
	Metadata    datatypes.JSONMap `gorm:"column:metadata" json:"metadata,omitempty"`
	StartedAt   time.Time         `gorm:"column:started_at" json:"started_at"`
	FinishedAt  *time.Time        `gorm:"column:finished_at" json:"finished_at,omitempty"`
}

func (SyncRun) TableName() string {
	return "sync_runs"
}

// SyncResult is what a completed run reports back to its trigger.
type SyncResult struct {
	RunID       snowflake.ID `json:"run_id"`
	SyncedCount int          `json:"synced_count"`
}
