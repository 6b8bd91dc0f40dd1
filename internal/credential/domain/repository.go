package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	FindByPrincipal(ctx context.Context, db *gorm.DB, principalID string) (*Credential, error)
	FindActiveAdmin(ctx context.Context, db *gorm.DB) (*Credential, error)
	Upsert(ctx context.Context, db *gorm.DB, cred *Credential) error
	UpdateAccessToken(ctx context.Context, db *gorm.DB, principalID, accessToken string, expiresAt int64) error
}
