package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// CommissionRecord is one synced invoice with its computed commission.
// InvoiceNumber is the idempotency key: re-syncing the same invoice
// overwrites the row instead of duplicating it.
type CommissionRecord struct {
	ID              snowflake.ID    `gorm:"column:id;primaryKey" json:"id"`
	InvoiceNumber   string          `gorm:"column:invoice_number;uniqueIndex:ux_commission_records_invoice_number" json:"invoice_number"`
	InvoiceID       string          `gorm:"column:invoice_id" json:"invoice_id"`
	OrganizationID  string          `gorm:"column:organization_id" json:"organization_id"`
	SalespersonName string          `gorm:"column:salesperson_name" json:"salesperson_name"`
	CustomerName    string          `gorm:"column:customer_name" json:"customer_name"`
	Total           decimal.Decimal `gorm:"column:total;type:decimal(18,4)" json:"total"`
	Commission      decimal.Decimal `gorm:"column:commission;type:decimal(18,4)" json:"commission"`
	Status          string          `gorm:"column:status" json:"status"`
	InvoiceDate     time.Time       `gorm:"column:invoice_date" json:"invoice_date"`
	SyncedAt        time.Time       `gorm:"column:synced_at" json:"synced_at"`
}

func (CommissionRecord) TableName() string {
	return "commission_records"
}

// ListFilter narrows record listings. Zero values mean no constraint.
type ListFilter struct {
	Status string
	Rep    string
	Start  time.Time
	End    time.Time
}

// StatusStat is one row of the per-status totals block.
type StatusStat struct {
	Status          string          `json:"status"`
	InvoiceCount    int64           `json:"invoice_count"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	TotalCommission decimal.Decimal `json:"total_commission"`
}

type Stats struct {
	ByStatus        []StatusStat    `json:"by_status"`
	InvoiceCount    int64           `json:"invoice_count"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	TotalCommission decimal.Decimal `json:"total_commission"`
}
