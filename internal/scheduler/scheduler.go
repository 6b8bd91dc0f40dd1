// Package scheduler orchestrates sync runs: it pulls invoices from the
// upstream API, computes commissions and persists one record per invoice
// number, on a fixed interval and on demand.
package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/clustersystems/commission-tracker/internal/auth"
	"github.com/clustersystems/commission-tracker/internal/clock"
	commissiondomain "github.com/clustersystems/commission-tracker/internal/commission/domain"
	"github.com/clustersystems/commission-tracker/internal/commission/engine"
	"github.com/clustersystems/commission-tracker/internal/config"
	credentialdomain "github.com/clustersystems/commission-tracker/internal/credential/domain"
	"github.com/clustersystems/commission-tracker/internal/identity"
	invoicedomain "github.com/clustersystems/commission-tracker/internal/invoice/domain"
	"github.com/clustersystems/commission-tracker/internal/observability/metrics"
	"github.com/clustersystems/commission-tracker/internal/salesperson"
)

type Params struct {
	fx.In

	Cfg         Config
	AppCfg      config.Config
	DB          *gorm.DB
	Log         *zap.Logger
	Clock       clock.Clock
	GenID       *snowflake.Node
	Credentials credentialdomain.Service
	Fetcher     invoicedomain.Fetcher
	Resolver    *salesperson.Service
	Records     commissiondomain.Repository
	Policy      *config.CommissionConfigHolder
	Locker      *Locker `optional:"true"`
}

type Scheduler struct {
	cfg         Config
	orgID       string
	db          *gorm.DB
	log         *zap.Logger
	clock       clock.Clock
	genID       *snowflake.Node
	credentials credentialdomain.Service
	fetcher     invoicedomain.Fetcher
	resolver    *salesperson.Service
	records     commissiondomain.Repository
	policy      *config.CommissionConfigHolder
	locker      *Locker

	running atomic.Bool
}

func New(p Params) *Scheduler {
	return &Scheduler{
		cfg:         p.Cfg.withDefaults(),
		orgID:       p.AppCfg.Zoho.OrganizationID,
		db:          p.DB,
		log:         p.Log.Named("scheduler"),
		clock:       p.Clock,
		genID:       p.GenID,
		credentials: p.Credentials,
		fetcher:     p.Fetcher,
		resolver:    p.Resolver,
		records:     p.Records,
		policy:      p.Policy,
		locker:      p.Locker,
	}
}

// TriggerSync starts a manual run for the actor. Only admins may trigger.
func (s *Scheduler) TriggerSync(ctx context.Context, actor identity.Actor) (SyncResult, error) {
	if !actor.IsAdmin {
		return SyncResult{}, auth.ErrForbidden
	}
	return s.Run(ctx, actor.Email, TriggerManual)
}

// Run executes one full sync for the principal. At most one run is in
// flight per process and per principal across processes.
func (s *Scheduler) Run(ctx context.Context, principalID, trigger string) (SyncResult, error) {
	if !s.running.CompareAndSwap(false, true) {
		return SyncResult{}, ErrSyncInProgress
	}
	defer s.running.Store(false)

	lockKey := "commission:sync:" + principalID
	token, acquired, err := s.locker.TryLock(ctx, lockKey, s.cfg.LockTTL)
	if err != nil {
		return SyncResult{}, err
	}
	if !acquired {
		return SyncResult{}, ErrSyncInProgress
	}
	defer func() {
		if err := s.locker.Release(context.WithoutCancel(ctx), lockKey, token); err != nil {
			s.log.Warn("sync lock release failed", zap.Error(err))
		}
	}()

	startedAt := s.clock.Now()
	run := &SyncRun{
		ID:          s.genID.Generate(),
		PrincipalID: principalID,
		TriggerKind: trigger,
		Status:      RunStatusRunning,
		Metadata:    datatypes.JSONMap{},
		StartedAt:   startedAt,
	}
	if err := s.db.WithContext(ctx).Create(run).Error; err != nil {
		return SyncResult{}, err
	}

	s.log.Info("sync run started",
		zap.Int64("run_id", run.ID.Int64()),
		zap.String("trigger", trigger),
		zap.String("principal_id", principalID),
	)

	count, runErr := s.runPipeline(ctx, principalID)
	finishedAt := s.clock.Now()

	run.SyncedCount = count
	run.FinishedAt = &finishedAt
	if runErr != nil {
		run.Status = RunStatusFailed
		run.LastError = runErr.Error()
	} else {
		run.Status = RunStatusCompleted
	}

	if err := s.finishRun(ctx, run); err != nil {
		s.log.Error("sync run bookkeeping failed", zap.Error(err))
	}

	metrics.Sync().IncRun(trigger, run.Status)
	metrics.Sync().ObserveRunDuration(finishedAt.Sub(startedAt))

	if runErr != nil {
		s.log.Warn("sync run failed",
			zap.Int64("run_id", run.ID.Int64()),
			zap.Int("synced_count", count),
			zap.Error(runErr),
		)
		return SyncResult{}, runErr
	}

	s.log.Info("sync run completed",
		zap.Int64("run_id", run.ID.Int64()),
		zap.Int("synced_count", count),
	)
	return SyncResult{RunID: run.ID, SyncedCount: count}, nil
}

// runPipeline is the actual sync. It returns how many records were upserted
// before any failure; earlier upserts stay in place on error.
func (s *Scheduler) runPipeline(ctx context.Context, principalID string) (int, error) {
	cred, err := s.credentials.EnsureValid(ctx, principalID)
	if err != nil {
		return 0, err
	}

	directory := s.resolver.BeginRun(ctx, cred)
	policy := s.policy.Get()
	now := s.clock.Now()

	count := 0
	for _, status := range policy.TrackedStatuses {
		invoices, err := s.fetcher.FetchByStatus(ctx, principalID, status)
		if err != nil {
			return count, err
		}
		for _, inv := range invoices {
			if err := s.upsertInvoice(ctx, directory, policy, inv, cred, now); err != nil {
				return count, err
			}
			count++
		}
	}
	return count, nil
}

func (s *Scheduler) upsertInvoice(
	ctx context.Context,
	directory *salesperson.Directory,
	policy config.CommissionConfig,
	inv invoicedomain.Invoice,
	cred *credentialdomain.Credential,
	now time.Time,
) error {
	if inv.SalespersonName == "" && inv.SalespersonID != "" {
		if name, ok := directory.ResolveName(ctx, inv.SalespersonID); ok {
			inv.SalespersonName = name
		}
	}

	rec := &commissiondomain.CommissionRecord{
		ID:              s.genID.Generate(),
		InvoiceNumber:   inv.Number,
		InvoiceID:       inv.ID,
		OrganizationID:  s.orgID,
		SalespersonName: inv.SalespersonName,
		CustomerName:    inv.CustomerName,
		Total:           inv.Total,
		Commission:      engine.CommissionFor(inv, policy),
		Status:          inv.Status,
		InvoiceDate:     inv.Date,
		SyncedAt:        now,
	}
	if err := s.records.Upsert(ctx, s.db, rec); err != nil {
		return err
	}
	metrics.Sync().IncUpsert()
	return nil
}

// RunScheduled performs one unattended tick. Missing admin credentials skip
// the tick instead of failing the loop.
func (s *Scheduler) RunScheduled(ctx context.Context) {
	cred, err := s.credentials.EnsureValidAdmin(ctx)
	if err != nil {
		if errors.Is(err, credentialdomain.ErrNoCredential) {
			s.log.Info("no admin credential connected, skipping scheduled sync")
			return
		}
		s.log.Warn("scheduled sync could not obtain credential", zap.Error(err))
		return
	}

	if _, err := s.Run(ctx, cred.PrincipalID, TriggerScheduled); err != nil {
		if errors.Is(err, ErrSyncInProgress) {
			s.log.Info("scheduled sync skipped, another run in progress")
			return
		}
		s.log.Warn("scheduled sync failed", zap.Error(err))
	}
}

// RunForever ticks until the context is canceled. In-flight runs finish on
// their own; cancellation only stops the next tick.
func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunScheduled(ctx)
		}
	}
}

func (s *Scheduler) finishRun(ctx context.Context, run *SyncRun) error {
	return s.db.WithContext(context.WithoutCancel(ctx)).Exec(
		`UPDATE sync_runs SET status = ?, synced_count = ?, last_error = ?, finished_at = ? WHERE id = ?`,
		run.Status,
		run.SyncedCount,
		run.LastError,
		run.FinishedAt,
		run.ID,
	).Error
}
