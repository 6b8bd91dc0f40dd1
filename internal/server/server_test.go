package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/clustersystems/commission-tracker/internal/auth"
	"github.com/clustersystems/commission-tracker/internal/clock"
	commissiondomain "github.com/clustersystems/commission-tracker/internal/commission/domain"
	commissionrepo "github.com/clustersystems/commission-tracker/internal/commission/repository"
	commissionservice "github.com/clustersystems/commission-tracker/internal/commission/service"
	"github.com/clustersystems/commission-tracker/internal/config"
	credentialdomain "github.com/clustersystems/commission-tracker/internal/credential/domain"
	"github.com/clustersystems/commission-tracker/internal/identity"
	invoicedomain "github.com/clustersystems/commission-tracker/internal/invoice/domain"
	"github.com/clustersystems/commission-tracker/internal/observability"
	"github.com/clustersystems/commission-tracker/internal/salesperson"
	"github.com/clustersystems/commission-tracker/internal/scheduler"
	"github.com/clustersystems/commission-tracker/internal/zoho"
)

const testSecret = "test-secret"

type stubCredentials struct {
	cred *credentialdomain.Credential
}

func (s stubCredentials) EnsureValid(ctx context.Context, principalID string) (*credentialdomain.Credential, error) {
	return s.cred, nil
}

func (s stubCredentials) EnsureValidAdmin(ctx context.Context) (*credentialdomain.Credential, error) {
	return s.cred, nil
}

func (s stubCredentials) Store(ctx context.Context, principalID string, isAdmin bool, token zoho.TokenResponse) (*credentialdomain.Credential, error) {
	return &credentialdomain.Credential{
		PrincipalID: principalID,
		AccessToken: token.AccessToken,
		APIDomain:   token.APIDomain,
		IsAdmin:     isAdmin,
	}, nil
}

type fixedFetcher struct {
	invoices []invoicedomain.Invoice
}

func (f fixedFetcher) FetchByStatus(ctx context.Context, principalID, status string) ([]invoicedomain.Invoice, error) {
	if status != invoicedomain.StatusPaid {
		return nil, nil
	}
	return f.invoices, nil
}

type fixture struct {
	engine *gin.Engine
	db     *gorm.DB
}

func newFixture(t *testing.T, invoices []invoicedomain.Invoice) fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&commissiondomain.CommissionRecord{},
		&scheduler.SyncRun{},
	))

	// Every resolver endpoint 404s: salesperson names come from invoices.
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(upstream.Close)

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	appCfg := config.Config{
		HTTPAddr:      ":0",
		AuthJWTSecret: testSecret,
		Zoho: config.ZohoConfig{
			AccountsURL:    upstream.URL,
			OrganizationID: "org-1",
		},
	}
	zohoClient := zoho.New(appCfg)
	policy := config.NewStaticCommissionConfigHolder(func() config.CommissionConfig {
		cfg := config.DefaultCommissionConfig()
		cfg.Policy = config.PolicyFlat
		return cfg
	}())

	creds := stubCredentials{cred: &credentialdomain.Credential{
		PrincipalID: "admin@example.com",
		AccessToken: "at-1",
		APIDomain:   upstream.URL,
		IsAdmin:     true,
	}}

	sched := scheduler.New(scheduler.Params{
		Cfg:         scheduler.Config{Interval: time.Hour, LockTTL: time.Minute},
		AppCfg:      appCfg,
		DB:          db,
		Log:         zap.NewNop(),
		Clock:       clock.NewFakeClock(time.Date(2026, 1, 31, 12, 0, 0, 0, time.UTC)),
		GenID:       node,
		Credentials: creds,
		Fetcher:     fixedFetcher{invoices: invoices},
		Resolver:    salesperson.New(salesperson.Params{Log: zap.NewNop(), Zoho: zohoClient}),
		Records:     commissionrepo.Provide(),
		Policy:      policy,
	})

	reports := commissionservice.New(commissionservice.Params{
		DB:     db,
		Log:    zap.NewNop(),
		Repo:   commissionrepo.Provide(),
		Policy: policy,
	})

	engine := NewEngine(observability.Config{}, nil)
	srv := NewServer(ServerParams{
		Gin:         engine,
		Cfg:         appCfg,
		Log:         zap.NewNop(),
		Reports:     reports,
		Credentials: creds,
		Scheduler:   sched,
		Zoho:        zohoClient,
	})
	srv.RegisterRoutes()

	return fixture{engine: engine, db: db}
}

func doRequest(t *testing.T, engine *gin.Engine, method, target string, actor *identity.Actor) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	if actor != nil {
		token, err := auth.SignToken(testSecret, *actor, time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func seedRecord(t *testing.T, db *gorm.DB, id int64, number, rep string, commission int64) {
	t.Helper()
	require.NoError(t, db.Create(&commissiondomain.CommissionRecord{
		ID:              snowflake.ID(id),
		InvoiceNumber:   number,
		InvoiceID:       "zoho-" + number,
		OrganizationID:  "org-1",
		SalespersonName: rep,
		CustomerName:    "Customer",
		Total:           decimal.NewFromInt(commission * 10),
		Commission:      decimal.NewFromInt(commission),
		Status:          "paid",
		InvoiceDate:     time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
		SyncedAt:        time.Now().UTC(),
	}).Error)
}

func TestHealth(t *testing.T) {
	f := newFixture(t, nil)
	rec := doRequest(t, f.engine, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAPIRequiresToken(t *testing.T) {
	f := newFixture(t, nil)
	rec := doRequest(t, f.engine, http.MethodGet, "/api/user", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetUserEchoesActor(t *testing.T) {
	f := newFixture(t, nil)
	actor := identity.Actor{Email: "alice@example.com"}
	rec := doRequest(t, f.engine, http.MethodGet, "/api/user", &actor)
	require.Equal(t, http.StatusOK, rec.Code)

	var got identity.Actor
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "alice@example.com", got.Email)
	assert.False(t, got.IsAdmin)
}

func TestGetCommissions(t *testing.T) {
	f := newFixture(t, nil)
	seedRecord(t, f.db, 1, "INV-001", "Alice", 100)
	seedRecord(t, f.db, 2, "INV-002", "Bob", 50)

	admin := identity.Actor{Email: "admin@example.com", IsAdmin: true}
	rec := doRequest(t, f.engine, http.MethodGet, "/api/commissions?start=2026-01-01&end=2026-01-31", &admin)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Commissions commissiondomain.Report             `json:"commissions"`
		Invoices    []commissiondomain.CommissionRecord `json:"invoices"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Commissions, 2)
	assert.Equal(t, "Alice", body.Commissions[0].RepName)
	assert.Len(t, body.Invoices, 2)
}

func TestGetCommissionsInvalidRange(t *testing.T) {
	f := newFixture(t, nil)
	admin := identity.Actor{Email: "admin@example.com", IsAdmin: true}
	rec := doRequest(t, f.engine, http.MethodGet, "/api/commissions?start=bogus&end=2026-01-31", &admin)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "validation_error")
}

func TestPostSyncForbiddenForNonAdmin(t *testing.T) {
	f := newFixture(t, nil)
	actor := identity.Actor{Email: "bob@example.com"}
	rec := doRequest(t, f.engine, http.MethodPost, "/api/sync", &actor)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestPostSyncRunsPipeline(t *testing.T) {
	f := newFixture(t, []invoicedomain.Invoice{{
		ID:              "zoho-INV-001",
		Number:          "INV-001",
		SalespersonName: "Alice",
		CustomerName:    "Customer",
		Date:            time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
		Total:           decimal.NewFromInt(1000),
		Status:          invoicedomain.StatusPaid,
	}})

	admin := identity.Actor{Email: "admin@example.com", IsAdmin: true}
	rec := doRequest(t, f.engine, http.MethodPost, "/api/sync", &admin)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		SyncedCount int `json:"synced_count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.SyncedCount)

	var count int64
	require.NoError(t, f.db.Model(&commissiondomain.CommissionRecord{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestGetInvoiceStats(t *testing.T) {
	f := newFixture(t, nil)
	seedRecord(t, f.db, 1, "INV-001", "Alice", 100)

	admin := identity.Actor{Email: "admin@example.com", IsAdmin: true}
	rec := doRequest(t, f.engine, http.MethodGet, "/api/invoices/stats", &admin)
	require.Equal(t, http.StatusOK, rec.Code)

	var stats commissiondomain.Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.EqualValues(t, 1, stats.InvoiceCount)
}
