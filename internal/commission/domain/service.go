package domain

import (
	"context"

	"github.com/clustersystems/commission-tracker/internal/identity"
)

type ReportService interface {
	// CommissionsForRange aggregates persisted records for [start, end]
	// (dates in 2006-01-02 form, end inclusive) into a report plus the
	// flat record list. Non-admin actors only see their own rows.
	CommissionsForRange(ctx context.Context, actor identity.Actor, start, end, rep string) (Report, []CommissionRecord, error)

	// ListInvoices returns persisted records with optional filters.
	ListInvoices(ctx context.Context, actor identity.Actor, filter ListFilter) ([]CommissionRecord, error)

	// Stats returns per-status invoice totals.
	Stats(ctx context.Context, actor identity.Actor) (Stats, error)
}
