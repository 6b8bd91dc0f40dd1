package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	// Upsert writes one record keyed by invoice_number in a single
	// statement, so concurrent readers never observe a missing row.
	Upsert(ctx context.Context, db *gorm.DB, rec *CommissionRecord) error
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]CommissionRecord, error)
	Stats(ctx context.Context, db *gorm.DB, rep string) (Stats, error)
}
