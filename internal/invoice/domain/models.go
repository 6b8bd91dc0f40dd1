package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	StatusPaid    = "paid"
	StatusOverdue = "overdue"
	StatusPending = "pending"
	StatusDraft   = "draft"
	StatusVoid    = "void"
)

// Invoice is the normalized upstream invoice. All money fields are decimal
// and all defaults are applied here so downstream code never deals with
// missing or malformed upstream data.
type Invoice struct {
	ID                 string          `json:"invoice_id"`
	Number             string          `json:"invoice_number"`
	SalespersonID      string          `json:"salesperson_id"`
	SalespersonName    string          `json:"salesperson_name"`
	CustomerName       string          `json:"customer_name"`
	Date               time.Time       `json:"date"`
	Total              decimal.Decimal `json:"total"`
	Status             string          `json:"status"`
	RecurringInvoiceID string          `json:"recurring_invoice_id,omitempty"`
	PreviousInvoiceID  string          `json:"previous_invoice_id,omitempty"`
	LineItems          []LineItem      `json:"line_items,omitempty"`
}

type LineItem struct {
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// FirstInSeries reports whether the invoice is the first of a recurring
// series. Standalone invoices count as first.
func (i Invoice) FirstInSeries() bool {
	if i.RecurringInvoiceID == "" {
		return true
	}
	return i.PreviousInvoiceID == ""
}

// Amount returns the line total with the quantity default applied.
func (l LineItem) Amount() decimal.Decimal {
	qty := l.Quantity
	if qty.LessThanOrEqual(decimal.Zero) {
		qty = decimal.NewFromInt(1)
	}
	price := l.UnitPrice
	if price.IsNegative() {
		price = decimal.Zero
	}
	return price.Mul(qty)
}
