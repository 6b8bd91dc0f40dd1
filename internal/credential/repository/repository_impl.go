package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/clustersystems/commission-tracker/internal/credential/domain"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindByPrincipal(ctx context.Context, db *gorm.DB, principalID string) (*domain.Credential, error) {
	var cred domain.Credential
	err := db.WithContext(ctx).Raw(
		`SELECT principal_id, access_token, refresh_token, api_domain, expires_at, is_admin, created_at, updated_at
		 FROM user_tokens WHERE principal_id = ?`,
		principalID,
	).Scan(&cred).Error
	if err != nil {
		return nil, err
	}
	if cred.PrincipalID == "" {
		return nil, nil
	}
	return &cred, nil
}

func (r *repo) FindActiveAdmin(ctx context.Context, db *gorm.DB) (*domain.Credential, error) {
	var cred domain.Credential
	err := db.WithContext(ctx).Raw(
		`SELECT principal_id, access_token, refresh_token, api_domain, expires_at, is_admin, created_at, updated_at
		 FROM user_tokens WHERE is_admin = ? ORDER BY updated_at DESC LIMIT 1`,
		true,
	).Scan(&cred).Error
	if err != nil {
		return nil, err
	}
	if cred.PrincipalID == "" {
		return nil, nil
	}
	return &cred, nil
}

func (r *repo) Upsert(ctx context.Context, db *gorm.DB, cred *domain.Credential) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO user_tokens (principal_id, access_token, refresh_token, api_domain, expires_at, is_admin, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (principal_id) DO UPDATE SET
		   access_token = excluded.access_token,
		   refresh_token = CASE WHEN excluded.refresh_token <> '' THEN excluded.refresh_token ELSE user_tokens.refresh_token END,
		   api_domain = excluded.api_domain,
		   expires_at = excluded.expires_at,
		   is_admin = excluded.is_admin,
		   updated_at = excluded.updated_at`,
		cred.PrincipalID,
		cred.AccessToken,
		cred.RefreshToken,
		cred.APIDomain,
		cred.ExpiresAt,
		cred.IsAdmin,
		cred.CreatedAt,
		cred.UpdatedAt,
	).Error
}

func (r *repo) UpdateAccessToken(ctx context.Context, db *gorm.DB, principalID, accessToken string, expiresAt int64) error {
	return db.WithContext(ctx).Exec(
		`UPDATE user_tokens SET access_token = ?, expires_at = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE principal_id = ?`,
		accessToken,
		expiresAt,
		principalID,
	).Error
}
