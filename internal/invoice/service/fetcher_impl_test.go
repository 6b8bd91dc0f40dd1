package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/clustersystems/commission-tracker/internal/config"
	credentialdomain "github.com/clustersystems/commission-tracker/internal/credential/domain"
	"github.com/clustersystems/commission-tracker/internal/invoice/domain"
	"github.com/clustersystems/commission-tracker/internal/zoho"
)

type staticCredentials struct {
	cred *credentialdomain.Credential
	err  error
}

func (s staticCredentials) EnsureValid(ctx context.Context, principalID string) (*credentialdomain.Credential, error) {
	return s.cred, s.err
}

func (s staticCredentials) EnsureValidAdmin(ctx context.Context) (*credentialdomain.Credential, error) {
	return s.cred, s.err
}

func (s staticCredentials) Store(ctx context.Context, principalID string, isAdmin bool, token zoho.TokenResponse) (*credentialdomain.Credential, error) {
	return s.cred, s.err
}

func newTestFetcher(creds credentialdomain.Service) *Fetcher {
	f := New(Params{
		Log:         zap.NewNop(),
		Credentials: creds,
		Zoho:        zoho.New(config.Config{Zoho: config.ZohoConfig{OrganizationID: "org-1"}}),
	}).(*Fetcher)
	f.backoffBase = time.Millisecond
	return f
}

func credFor(apiDomain string) credentialdomain.Service {
	return staticCredentials{cred: &credentialdomain.Credential{
		PrincipalID: "admin@example.com",
		AccessToken: "at-1",
		APIDomain:   apiDomain,
	}}
}

func TestFetchRetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"code":0,"invoices":[{"invoice_id":"inv-1","invoice_number":"INV-001","total":1000,"status":"sent","date":"2026-01-15"}]}`))
	}))
	defer srv.Close()

	f := newTestFetcher(credFor(srv.URL))
	start := time.Now()
	invoices, err := f.FetchByStatus(context.Background(), "admin@example.com", "paid")
	require.NoError(t, err)
	assert.EqualValues(t, 3, calls.Load())
	require.Len(t, invoices, 1)
	assert.Equal(t, "INV-001", invoices[0].Number)
	// Two backoff sleeps: 2 and 4 base units.
	assert.GreaterOrEqual(t, time.Since(start), 6*time.Millisecond)
}

func TestFetchExhaustsAttempts(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	f := newTestFetcher(credFor(srv.URL))
	_, err := f.FetchByStatus(context.Background(), "admin@example.com", "overdue")
	require.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
	assert.EqualValues(t, 3, calls.Load())
}

func TestFetchTagsQueriedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":0,"invoices":[{"invoice_id":"inv-1","invoice_number":"INV-001","status":"partially_paid"}]}`))
	}))
	defer srv.Close()

	f := newTestFetcher(credFor(srv.URL))
	invoices, err := f.FetchByStatus(context.Background(), "admin@example.com", "overdue")
	require.NoError(t, err)
	require.Len(t, invoices, 1)
	assert.Equal(t, "overdue", invoices[0].Status)
}

func TestFetchMissingInvoiceNumberFailsWithoutRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"code":0,"invoices":[{"invoice_id":"inv-1","total":100}]}`))
	}))
	defer srv.Close()

	f := newTestFetcher(credFor(srv.URL))
	_, err := f.FetchByStatus(context.Background(), "admin@example.com", "paid")
	require.ErrorIs(t, err, domain.ErrMissingInvoiceNumber)
	assert.EqualValues(t, 1, calls.Load())
}

func TestFetchExpiredCredentialNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	f := newTestFetcher(staticCredentials{err: credentialdomain.ErrCredentialExpired})
	_, err := f.FetchByStatus(context.Background(), "admin@example.com", "paid")
	require.ErrorIs(t, err, credentialdomain.ErrCredentialExpired)
	assert.EqualValues(t, 0, calls.Load())
}

func TestNormalizeDefaults(t *testing.T) {
	inv, err := normalizeInvoice(zoho.RawInvoice{
		InvoiceID:     "inv-1",
		InvoiceNumber: " INV-001 ",
		Total:         -50,
		Date:          "2026-01-15T10:30:00Z",
		LineItems: []zoho.RawLineItem{
			{Name: "SUB Gold", UnitPrice: 100},
			{Name: "Setup", UnitPrice: -10, Quantity: 3},
		},
	}, "paid")
	require.NoError(t, err)

	assert.Equal(t, "INV-001", inv.Number)
	assert.True(t, inv.Total.IsZero())
	assert.Equal(t, time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC), inv.Date)
	require.Len(t, inv.LineItems, 2)
	assert.Equal(t, "100", inv.LineItems[0].Amount().String())
	assert.True(t, inv.LineItems[1].Amount().IsZero())
}

func TestFirstInSeries(t *testing.T) {
	assert.True(t, domain.Invoice{}.FirstInSeries())
	assert.True(t, domain.Invoice{RecurringInvoiceID: "rec-1"}.FirstInSeries())
	assert.False(t, domain.Invoice{RecurringInvoiceID: "rec-1", PreviousInvoiceID: "inv-0"}.FirstInSeries())
}
