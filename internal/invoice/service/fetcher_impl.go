package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"

	credentialdomain "github.com/clustersystems/commission-tracker/internal/credential/domain"
	"github.com/clustersystems/commission-tracker/internal/invoice/domain"
	"github.com/clustersystems/commission-tracker/internal/observability/metrics"
	"github.com/clustersystems/commission-tracker/internal/zoho"
)

const maxAttempts = 3

type Params struct {
	fx.In

	Log         *zap.Logger
	Credentials credentialdomain.Service
	Zoho        *zoho.Client
}

type Fetcher struct {
	log         *zap.Logger
	credentials credentialdomain.Service
	zoho        *zoho.Client

	// backoffBase scales the exponential retry delay. One second in
	// production, compressed in tests.
	backoffBase time.Duration
}

func New(p Params) domain.Fetcher {
	return &Fetcher{
		log:         p.Log.Named("invoice.fetcher"),
		credentials: p.Credentials,
		zoho:        p.Zoho,
		backoffBase: time.Second,
	}
}

func (f *Fetcher) FetchByStatus(ctx context.Context, principalID, status string) ([]domain.Invoice, error) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			if err := f.backoff(ctx, attempt); err != nil {
				return nil, err
			}
		}

		cred, err := f.credentials.EnsureValid(ctx, principalID)
		if err != nil {
			if errors.Is(err, credentialdomain.ErrNoCredential) || errors.Is(err, credentialdomain.ErrCredentialExpired) {
				return nil, err
			}
			lastErr = err
			f.noteFailure(ctx, status, attempt, err)
			continue
		}

		raw, err := f.zoho.ListInvoices(ctx, cred.APIDomain, cred.AccessToken, status)
		if err != nil {
			lastErr = err
			f.noteFailure(ctx, status, attempt, err)
			continue
		}

		invoices, err := normalize(raw, status)
		if err != nil {
			// Shape defects never heal on retry.
			return nil, err
		}

		metrics.Sync().IncFetchAttempt(status, "ok")
		return invoices, nil
	}

	return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, lastErr)
}

// backoff sleeps 2^(attempt-1) base units before the given attempt, bailing
// out when the context is canceled.
func (f *Fetcher) backoff(ctx context.Context, attempt int) error {
	delay := f.backoffBase * time.Duration(1<<(attempt-1))
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (f *Fetcher) noteFailure(ctx context.Context, status string, attempt int, err error) {
	metrics.Sync().IncFetchAttempt(status, "error")
	if attempt < maxAttempts {
		metrics.Sync().IncFetchRetry()
	}
	f.log.Warn("invoice fetch attempt failed",
		zap.String("status", status),
		zap.Int("attempt", attempt),
		zap.Error(err),
	)
}

func normalize(raw []zoho.RawInvoice, status string) ([]domain.Invoice, error) {
	invoices := make([]domain.Invoice, 0, len(raw))
	for _, r := range raw {
		inv, err := normalizeInvoice(r, status)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, inv)
	}
	return invoices, nil
}

func normalizeInvoice(r zoho.RawInvoice, status string) (domain.Invoice, error) {
	number := strings.TrimSpace(r.InvoiceNumber)
	if number == "" {
		return domain.Invoice{}, fmt.Errorf("%w: invoice_id=%q", domain.ErrMissingInvoiceNumber, r.InvoiceID)
	}

	total := decimal.NewFromFloat(r.Total)
	if total.IsNegative() {
		total = decimal.Zero
	}

	items := make([]domain.LineItem, 0, len(r.LineItems))
	for _, li := range r.LineItems {
		qty := decimal.NewFromFloat(li.Quantity)
		if qty.LessThanOrEqual(decimal.Zero) {
			qty = decimal.NewFromInt(1)
		}
		price := decimal.NewFromFloat(li.UnitPrice)
		if price.IsNegative() {
			price = decimal.Zero
		}
		items = append(items, domain.LineItem{
			Name:      li.Name,
			UnitPrice: price,
			Quantity:  qty,
		})
	}

	return domain.Invoice{
		ID:                 r.InvoiceID,
		Number:             number,
		SalespersonID:      r.SalespersonID,
		SalespersonName:    strings.TrimSpace(r.SalespersonName),
		CustomerName:       r.CustomerName,
		Date:               parseDate(r.Date),
		Total:              total,
		Status:             status,
		RecurringInvoiceID: r.RecurringInvoiceID,
		PreviousInvoiceID:  r.PreviousInvoiceID,
		LineItems:          items,
	}, nil
}

func parseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.UTC()
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC()
	}
	return time.Time{}
}
