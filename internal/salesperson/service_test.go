package salesperson

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/clustersystems/commission-tracker/internal/config"
	credentialdomain "github.com/clustersystems/commission-tracker/internal/credential/domain"
	"github.com/clustersystems/commission-tracker/internal/zoho"
)

func newTestService() *Service {
	return New(Params{
		Log:  zap.NewNop(),
		Zoho: zoho.New(config.Config{Zoho: config.ZohoConfig{OrganizationID: "org-1"}}),
	})
}

func testCred(apiDomain string) *credentialdomain.Credential {
	return &credentialdomain.Credential{
		PrincipalID: "admin@example.com",
		AccessToken: "at-1",
		APIDomain:   apiDomain,
	}
}

func TestResolveFromPrefetch(t *testing.T) {
	var contactCalls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/books/v3/salespersons":
			w.Write([]byte(`{"code":0,"salespersons":[{"salesperson_id":"sp-1","salesperson_name":"Alice"}]}`))
		case strings.HasPrefix(r.URL.Path, "/books/v3/contacts/"):
			contactCalls.Add(1)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	dir := newTestService().BeginRun(context.Background(), testCred(srv.URL))
	name, ok := dir.ResolveName(context.Background(), "sp-1")
	require.True(t, ok)
	assert.Equal(t, "Alice", name)
	assert.EqualValues(t, 0, contactCalls.Load())
}

func TestPrefetchDegradesOnUnsupportedPlan(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/books/v3/salespersons":
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"code":5,"message":"not available"}`))
		case strings.HasPrefix(r.URL.Path, "/books/v3/contacts/"):
			w.Write([]byte(`{"code":0,"contact":{"contact_id":"sp-1","contact_name":"Alice Contact"}}`))
		}
	}))
	defer srv.Close()

	dir := newTestService().BeginRun(context.Background(), testCred(srv.URL))
	name, ok := dir.ResolveName(context.Background(), "sp-1")
	require.True(t, ok)
	assert.Equal(t, "Alice Contact", name)
}

func TestFallbackCachedPerID(t *testing.T) {
	var contactCalls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/books/v3/salespersons":
			w.Write([]byte(`{"code":0,"salespersons":[]}`))
		case strings.HasPrefix(r.URL.Path, "/books/v3/contacts/"):
			contactCalls.Add(1)
			w.Write([]byte(`{"code":0,"contact":{"contact_id":"sp-2","company_name":"Acme"}}`))
		}
	}))
	defer srv.Close()

	dir := newTestService().BeginRun(context.Background(), testCred(srv.URL))
	for i := 0; i < 3; i++ {
		name, ok := dir.ResolveName(context.Background(), "sp-2")
		require.True(t, ok)
		assert.Equal(t, "Acme", name)
	}
	assert.EqualValues(t, 1, contactCalls.Load())
}

func TestFailedLookupCachedAsNotFound(t *testing.T) {
	var contactCalls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/books/v3/salespersons":
			w.Write([]byte(`{"code":0,"salespersons":[]}`))
		default:
			contactCalls.Add(1)
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	dir := newTestService().BeginRun(context.Background(), testCred(srv.URL))
	for i := 0; i < 3; i++ {
		_, ok := dir.ResolveName(context.Background(), "sp-3")
		assert.False(t, ok)
	}
	assert.EqualValues(t, 1, contactCalls.Load())
}

func TestEmptyIDIsNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/books/v3/salespersons" {
			w.Write([]byte(`{"code":0,"salespersons":[]}`))
			return
		}
		t.Fatal("no contact lookup expected for an empty id")
	}))
	defer srv.Close()

	dir := newTestService().BeginRun(context.Background(), testCred(srv.URL))
	_, ok := dir.ResolveName(context.Background(), "")
	assert.False(t, ok)
}

func TestDisplayNamePrecedence(t *testing.T) {
	assert.Equal(t, "Contact", displayName(&zoho.RawContact{ContactName: "Contact", CompanyName: "Co", SalespersonName: "Sales"}))
	assert.Equal(t, "Co", displayName(&zoho.RawContact{CompanyName: "Co", SalespersonName: "Sales"}))
	assert.Equal(t, "Sales", displayName(&zoho.RawContact{SalespersonName: "Sales"}))
	assert.Empty(t, displayName(nil))
}
