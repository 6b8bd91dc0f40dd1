package domain

import (
	"context"
	"errors"

	"github.com/clustersystems/commission-tracker/internal/zoho"
)

var (
	// ErrNoCredential means the principal has never connected an account.
	ErrNoCredential = errors.New("no_credential")

	// ErrCredentialExpired means the stored tokens cannot be made valid
	// without the principal re-authorizing.
	ErrCredentialExpired = errors.New("credential_expired")
)

type Service interface {
	// EnsureValid returns a credential whose access token is good for at
	// least the refresh window, refreshing it first when it is not.
	EnsureValid(ctx context.Context, principalID string) (*Credential, error)

	// EnsureValidAdmin is EnsureValid for the most recently updated admin
	// credential, used by unattended runs.
	EnsureValidAdmin(ctx context.Context) (*Credential, error)

	// Store persists the token pair obtained from an authorization grant.
	Store(ctx context.Context, principalID string, isAdmin bool, token zoho.TokenResponse) (*Credential, error)
}
