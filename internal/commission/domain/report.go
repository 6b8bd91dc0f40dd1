package domain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceDetail is one invoice line inside a rep's report entry.
type InvoiceDetail struct {
	ID         string          `json:"invoice_id"`
	Number     string          `json:"invoice_number"`
	Customer   string          `json:"customer_name"`
	Amount     decimal.Decimal `json:"amount"`
	Commission decimal.Decimal `json:"commission"`
	Date       time.Time       `json:"date"`
	Status     string          `json:"status"`
}

// RepEntry aggregates one salesperson's commissions.
type RepEntry struct {
	RepName         string          `json:"salesperson_name"`
	InvoiceCount    int             `json:"invoice_count"`
	TotalCommission decimal.Decimal `json:"total_commission"`
	Invoices        []InvoiceDetail `json:"invoices"`
}

// Report lists rep entries ordered by total commission descending, ties in
// first-seen order.
type Report []RepEntry

// ReportBuilder accumulates invoice details per rep preserving first-seen
// order, so the final descending sort breaks ties deterministically.
type ReportBuilder struct {
	order  []string
	byName map[string]*RepEntry
}

func NewReportBuilder() *ReportBuilder {
	return &ReportBuilder{byName: make(map[string]*RepEntry)}
}

func (b *ReportBuilder) Add(repName string, detail InvoiceDetail) {
	entry, ok := b.byName[repName]
	if !ok {
		entry = &RepEntry{RepName: repName, TotalCommission: decimal.Zero}
		b.byName[repName] = entry
		b.order = append(b.order, repName)
	}
	entry.InvoiceCount++
	entry.TotalCommission = entry.TotalCommission.Add(detail.Commission)
	entry.Invoices = append(entry.Invoices, detail)
}

func (b *ReportBuilder) Build() Report {
	report := make(Report, 0, len(b.order))
	for _, name := range b.order {
		report = append(report, *b.byName[name])
	}
	sort.SliceStable(report, func(i, j int) bool {
		return report[i].TotalCommission.GreaterThan(report[j].TotalCommission)
	})
	return report
}
