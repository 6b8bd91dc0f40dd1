package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/clustersystems/commission-tracker/internal/clock"
	"github.com/clustersystems/commission-tracker/internal/credential/domain"
	"github.com/clustersystems/commission-tracker/internal/observability/metrics"
	"github.com/clustersystems/commission-tracker/internal/zoho"
)

// refreshWindow is how close to expiry a token may get before it is
// refreshed ahead of use.
const refreshWindow = 5 * time.Minute

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
	Repo  domain.Repository
	Zoho  *zoho.Client
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
	repo  domain.Repository
	zoho  *zoho.Client
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("credential.service"),
		clock: p.Clock,
		repo:  p.Repo,
		zoho:  p.Zoho,
	}
}

func (s *Service) EnsureValid(ctx context.Context, principalID string) (*domain.Credential, error) {
	cred, err := s.repo.FindByPrincipal(ctx, s.db, principalID)
	if err != nil {
		return nil, err
	}
	if cred == nil {
		return nil, domain.ErrNoCredential
	}
	return s.ensureFresh(ctx, cred)
}

func (s *Service) EnsureValidAdmin(ctx context.Context) (*domain.Credential, error) {
	cred, err := s.repo.FindActiveAdmin(ctx, s.db)
	if err != nil {
		return nil, err
	}
	if cred == nil {
		return nil, domain.ErrNoCredential
	}
	return s.ensureFresh(ctx, cred)
}

func (s *Service) Store(ctx context.Context, principalID string, isAdmin bool, token zoho.TokenResponse) (*domain.Credential, error) {
	now := s.clock.Now()
	cred := &domain.Credential{
		PrincipalID:  principalID,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		APIDomain:    token.APIDomain,
		ExpiresAt:    now.Add(time.Duration(token.ExpiresInSeconds()) * time.Second).UnixMilli(),
		IsAdmin:      isAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Upsert(ctx, s.db, cred); err != nil {
		return nil, err
	}
	return cred, nil
}

// ensureFresh refreshes the access token when less than refreshWindow of its
// lifetime remains. A valid token is returned untouched without any network
// traffic.
func (s *Service) ensureFresh(ctx context.Context, cred *domain.Credential) (*domain.Credential, error) {
	remaining := cred.ExpiresAtTime().Sub(s.clock.Now())
	if remaining >= refreshWindow {
		return cred, nil
	}

	if cred.RefreshToken == "" {
		return nil, domain.ErrCredentialExpired
	}

	token, err := s.zoho.RefreshAccessToken(ctx, cred.RefreshToken)
	if err != nil {
		var apiErr *zoho.APIError
		if errors.As(err, &apiErr) {
			s.log.Warn("refresh grant rejected, reauthorization required",
				zap.String("principal_id", cred.PrincipalID),
				zap.Int("status", apiErr.StatusCode),
			)
			return nil, fmt.Errorf("%w: %v", domain.ErrCredentialExpired, err)
		}
		return nil, err
	}

	expiresAt := s.clock.Now().Add(time.Duration(token.ExpiresInSeconds()) * time.Second).UnixMilli()
	if err := s.repo.UpdateAccessToken(ctx, s.db, cred.PrincipalID, token.AccessToken, expiresAt); err != nil {
		return nil, err
	}

	metrics.Sync().IncTokenRefresh()
	s.log.Info("access token refreshed",
		zap.String("principal_id", cred.PrincipalID),
		zap.Duration("remaining", remaining),
	)

	refreshed := *cred
	refreshed.AccessToken = token.AccessToken
	refreshed.ExpiresAt = expiresAt
	return &refreshed, nil
}
