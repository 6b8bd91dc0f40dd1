// Package engine computes commissions from normalized invoices. It performs
// no I/O and is deterministic for a given input order.
package engine

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/clustersystems/commission-tracker/internal/commission/domain"
	"github.com/clustersystems/commission-tracker/internal/config"
	"github.com/clustersystems/commission-tracker/internal/identity"
	invoicedomain "github.com/clustersystems/commission-tracker/internal/invoice/domain"
)

// Compute filters invoices by actor visibility and date range, applies the
// active policy per invoice and aggregates by rep display name.
func Compute(invoices []invoicedomain.Invoice, actor identity.Actor, start, end time.Time, cfg config.CommissionConfig) domain.Report {
	endOfDay := EndOfDay(end)
	builder := domain.NewReportBuilder()

	for _, inv := range invoices {
		if !Visible(inv, actor) {
			continue
		}
		if !inRange(inv.Date, start, endOfDay) {
			continue
		}
		builder.Add(DisplayRep(inv, cfg), domain.InvoiceDetail{
			ID:         inv.ID,
			Number:     inv.Number,
			Customer:   inv.CustomerName,
			Amount:     inv.Total,
			Commission: CommissionFor(inv, cfg),
			Date:       inv.Date,
			Status:     inv.Status,
		})
	}

	return builder.Build()
}

// CommissionFor applies the active policy to a single invoice.
func CommissionFor(inv invoicedomain.Invoice, cfg config.CommissionConfig) decimal.Decimal {
	switch cfg.Policy {
	case config.PolicyFlat:
		return flatCommission(inv, cfg)
	default:
		return lineItemCommission(inv, cfg)
	}
}

// lineItemCommission pays subscription items in full on the first invoice of
// a series and nothing on renewals; every other item pays the base rate.
func lineItemCommission(inv invoicedomain.Invoice, cfg config.CommissionConfig) decimal.Decimal {
	rate := cfg.RateDecimal()
	total := decimal.Zero
	for _, item := range inv.LineItems {
		if isSubscriptionItem(item.Name, cfg.SubscriptionPrefix) {
			if inv.FirstInSeries() {
				total = total.Add(item.Amount())
			}
			continue
		}
		total = total.Add(item.Amount().Mul(rate))
	}
	return total
}

func flatCommission(inv invoicedomain.Invoice, cfg config.CommissionConfig) decimal.Decimal {
	if !cfg.QualifiesForFlat(inv.Status) {
		return decimal.Zero
	}
	if cfg.RequireSalesperson && inv.SalespersonName == "" {
		return decimal.Zero
	}
	return inv.Total.Mul(cfg.RateDecimal())
}

// Visible reports whether the actor may see the invoice. Admins see
// everything; everyone else only their own rep name.
func Visible(inv invoicedomain.Invoice, actor identity.Actor) bool {
	if actor.IsAdmin {
		return true
	}
	return strings.EqualFold(inv.SalespersonName, actor.RepName())
}

// DisplayRep is the aggregation key for an invoice's salesperson.
func DisplayRep(inv invoicedomain.Invoice, cfg config.CommissionConfig) string {
	if inv.SalespersonName == "" {
		return cfg.UnassignedLabel
	}
	return inv.SalespersonName
}

// EndOfDay extends a date to the last instant of that day, making range
// ends inclusive.
func EndOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}

func inRange(t, start, end time.Time) bool {
	return !t.Before(start) && !t.After(end)
}

func isSubscriptionItem(name, prefix string) bool {
	return strings.HasPrefix(strings.ToUpper(strings.TrimSpace(name)), strings.ToUpper(prefix))
}
