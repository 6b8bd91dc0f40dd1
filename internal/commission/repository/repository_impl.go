package repository

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/clustersystems/commission-tracker/internal/commission/domain"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Upsert(ctx context.Context, db *gorm.DB, rec *domain.CommissionRecord) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO commission_records (id, invoice_number, invoice_id, organization_id, salesperson_name, customer_name, total, commission, status, invoice_date, synced_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (invoice_number) DO UPDATE SET
		   invoice_id = excluded.invoice_id,
		   organization_id = excluded.organization_id,
		   salesperson_name = excluded.salesperson_name,
		   customer_name = excluded.customer_name,
		   total = excluded.total,
		   commission = excluded.commission,
		   status = excluded.status,
		   invoice_date = excluded.invoice_date,
		   synced_at = excluded.synced_at`,
		rec.ID,
		rec.InvoiceNumber,
		rec.InvoiceID,
		rec.OrganizationID,
		rec.SalespersonName,
		rec.CustomerName,
		rec.Total,
		rec.Commission,
		rec.Status,
		rec.InvoiceDate,
		rec.SyncedAt,
	).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]domain.CommissionRecord, error) {
	var records []domain.CommissionRecord
	stmt := db.WithContext(ctx).Model(&domain.CommissionRecord{})
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}
	if filter.Rep != "" {
		stmt = stmt.Where("LOWER(salesperson_name) = LOWER(?)", filter.Rep)
	}
	if !filter.Start.IsZero() {
		stmt = stmt.Where("invoice_date >= ?", filter.Start)
	}
	if !filter.End.IsZero() {
		stmt = stmt.Where("invoice_date <= ?", filter.End)
	}
	err := stmt.
		Order("invoice_date asc, invoice_number asc").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *repo) Stats(ctx context.Context, db *gorm.DB, rep string) (domain.Stats, error) {
	stmt := db.WithContext(ctx).
		Model(&domain.CommissionRecord{}).
		Select(`status,
			COUNT(*) AS invoice_count,
			COALESCE(SUM(total), 0) AS total_amount,
			COALESCE(SUM(commission), 0) AS total_commission`).
		Group("status").
		Order("status asc")
	if rep != "" {
		stmt = stmt.Where("LOWER(salesperson_name) = LOWER(?)", rep)
	}

	var rows []domain.StatusStat
	if err := stmt.Scan(&rows).Error; err != nil {
		return domain.Stats{}, err
	}

	stats := domain.Stats{
		ByStatus:        rows,
		TotalAmount:     decimal.Zero,
		TotalCommission: decimal.Zero,
	}
	for _, row := range rows {
		stats.InvoiceCount += row.InvoiceCount
		stats.TotalAmount = stats.TotalAmount.Add(row.TotalAmount)
		stats.TotalCommission = stats.TotalCommission.Add(row.TotalCommission)
	}
	return stats, nil
}
