package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/clustersystems/commission-tracker/internal/commission/domain"
	"github.com/clustersystems/commission-tracker/internal/commission/engine"
	"github.com/clustersystems/commission-tracker/internal/config"
	"github.com/clustersystems/commission-tracker/internal/identity"
)

const dateLayout = "2006-01-02"

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	Repo   domain.Repository
	Policy *config.CommissionConfigHolder
}

type Service struct {
	db     *gorm.DB
	log    *zap.Logger
	repo   domain.Repository
	policy *config.CommissionConfigHolder
}

func New(p Params) domain.ReportService {
	return &Service{
		db:     p.DB,
		log:    p.Log.Named("commission.report"),
		repo:   p.Repo,
		policy: p.Policy,
	}
}

func (s *Service) CommissionsForRange(ctx context.Context, actor identity.Actor, start, end, rep string) (domain.Report, []domain.CommissionRecord, error) {
	from, to, err := parseRange(start, end)
	if err != nil {
		return nil, nil, err
	}
	rep = s.effectiveRep(actor, rep)

	records, err := s.repo.List(ctx, s.db, domain.ListFilter{
		Rep:   rep,
		Start: from,
		End:   engine.EndOfDay(to),
	})
	if err != nil {
		return nil, nil, err
	}

	label := s.policy.Get().UnassignedLabel
	builder := domain.NewReportBuilder()
	for _, rec := range records {
		name := rec.SalespersonName
		if name == "" {
			name = label
		}
		builder.Add(name, domain.InvoiceDetail{
			ID:         rec.InvoiceID,
			Number:     rec.InvoiceNumber,
			Customer:   rec.CustomerName,
			Amount:     rec.Total,
			Commission: rec.Commission,
			Date:       rec.InvoiceDate,
			Status:     rec.Status,
		})
	}
	return builder.Build(), records, nil
}

func (s *Service) ListInvoices(ctx context.Context, actor identity.Actor, filter domain.ListFilter) ([]domain.CommissionRecord, error) {
	filter.Rep = s.effectiveRep(actor, filter.Rep)
	if !filter.End.IsZero() {
		filter.End = engine.EndOfDay(filter.End)
	}
	return s.repo.List(ctx, s.db, filter)
}

func (s *Service) Stats(ctx context.Context, actor identity.Actor) (domain.Stats, error) {
	return s.repo.Stats(ctx, s.db, s.effectiveRep(actor, ""))
}

// effectiveRep pins non-admin actors to their own rep name regardless of the
// requested filter.
func (s *Service) effectiveRep(actor identity.Actor, requested string) string {
	if actor.IsAdmin {
		return requested
	}
	return actor.RepName()
}

func parseRange(start, end string) (time.Time, time.Time, error) {
	from, err := time.Parse(dateLayout, start)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: start %q", domain.ErrInvalidDateRange, start)
	}
	to, err := time.Parse(dateLayout, end)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: end %q", domain.ErrInvalidDateRange, end)
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: start after end", domain.ErrInvalidDateRange)
	}
	return from.UTC(), to.UTC(), nil
}
