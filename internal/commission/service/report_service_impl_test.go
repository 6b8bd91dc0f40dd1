package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/clustersystems/commission-tracker/internal/commission/domain"
	"github.com/clustersystems/commission-tracker/internal/commission/repository"
	"github.com/clustersystems/commission-tracker/internal/config"
	"github.com/clustersystems/commission-tracker/internal/identity"
)

var adminActor = identity.Actor{Email: "admin@example.com", IsAdmin: true}

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.CommissionRecord{}))

	svc := New(Params{
		DB:     db,
		Log:    zap.NewNop(),
		Repo:   repository.Provide(),
		Policy: config.NewStaticCommissionConfigHolder(config.DefaultCommissionConfig()),
	}).(*Service)
	return svc, db
}

func seed(t *testing.T, db *gorm.DB, id int64, number, rep string, commission int64, day int) {
	t.Helper()
	require.NoError(t, db.Create(&domain.CommissionRecord{
		ID:              snowflake.ID(id),
		InvoiceNumber:   number,
		InvoiceID:       "zoho-" + number,
		OrganizationID:  "org-1",
		SalespersonName: rep,
		CustomerName:    "Customer",
		Total:           decimal.NewFromInt(commission * 10),
		Commission:      decimal.NewFromInt(commission),
		Status:          "paid",
		InvoiceDate:     time.Date(2026, 1, day, 0, 0, 0, 0, time.UTC),
		SyncedAt:        time.Now().UTC(),
	}).Error)
}

func TestCommissionsForRangeAggregates(t *testing.T) {
	svc, db := newTestService(t)
	seed(t, db, 1, "INV-001", "Alice", 100, 10)
	seed(t, db, 2, "INV-002", "Bob", 50, 15)
	seed(t, db, 3, "INV-003", "Bob", 30, 20)

	report, records, err := svc.CommissionsForRange(context.Background(), adminActor, "2026-01-01", "2026-01-31", "")
	require.NoError(t, err)
	require.Len(t, records, 3)
	require.Len(t, report, 2)
	assert.Equal(t, "Alice", report[0].RepName)
	assert.True(t, report[0].TotalCommission.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, "Bob", report[1].RepName)
	assert.Equal(t, 2, report[1].InvoiceCount)
}

func TestCommissionsForRangeEndInclusive(t *testing.T) {
	svc, db := newTestService(t)
	seed(t, db, 1, "INV-001", "Alice", 100, 31)

	report, _, err := svc.CommissionsForRange(context.Background(), adminActor, "2026-01-01", "2026-01-31", "")
	require.NoError(t, err)
	require.Len(t, report, 1)
}

func TestCommissionsForRangeValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, _, err := svc.CommissionsForRange(ctx, adminActor, "not-a-date", "2026-01-31", "")
	require.ErrorIs(t, err, domain.ErrInvalidDateRange)

	_, _, err = svc.CommissionsForRange(ctx, adminActor, "2026-01-31", "", "")
	require.ErrorIs(t, err, domain.ErrInvalidDateRange)

	_, _, err = svc.CommissionsForRange(ctx, adminActor, "2026-02-01", "2026-01-01", "")
	require.ErrorIs(t, err, domain.ErrInvalidDateRange)
}

func TestNonAdminSeesOnlyOwnRows(t *testing.T) {
	svc, db := newTestService(t)
	seed(t, db, 1, "INV-001", "alice", 100, 10)
	seed(t, db, 2, "INV-002", "Bob", 50, 15)

	actor := identity.Actor{Email: "Alice@example.com"}
	report, records, err := svc.CommissionsForRange(context.Background(), actor, "2026-01-01", "2026-01-31", "Bob")
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Len(t, report, 1)
	assert.Equal(t, "alice", report[0].RepName)
}

func TestUnassignedRowsGetLabel(t *testing.T) {
	svc, db := newTestService(t)
	seed(t, db, 1, "INV-001", "", 100, 10)

	report, _, err := svc.CommissionsForRange(context.Background(), adminActor, "2026-01-01", "2026-01-31", "")
	require.NoError(t, err)
	require.Len(t, report, 1)
	assert.Equal(t, "Unassigned", report[0].RepName)
}

func TestStatsVisibility(t *testing.T) {
	svc, db := newTestService(t)
	seed(t, db, 1, "INV-001", "alice", 100, 10)
	seed(t, db, 2, "INV-002", "Bob", 50, 15)

	stats, err := svc.Stats(context.Background(), identity.Actor{Email: "alice@example.com"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.InvoiceCount)

	all, err := svc.Stats(context.Background(), adminActor)
	require.NoError(t, err)
	assert.EqualValues(t, 2, all.InvoiceCount)
}
