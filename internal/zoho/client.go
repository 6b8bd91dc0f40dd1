// Package zoho is a thin HTTP client for the Zoho Books and accounts APIs.
// It translates wire responses into raw structs and non-2xx statuses into
// *APIError; business normalization lives with the callers.
package zoho

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/clustersystems/commission-tracker/internal/config"
	"github.com/clustersystems/commission-tracker/internal/observability/logger"
	"github.com/clustersystems/commission-tracker/internal/observability/tracing"
)

const (
	tokenTimeout   = 10 * time.Second
	booksTimeout   = 15 * time.Second
	contactTimeout = 10 * time.Second

	invoicePageLimit = 200
)

type Client struct {
	cfg        config.ZohoConfig
	httpClient *http.Client
}

func New(cfg config.Config) *Client {
	return &Client{
		cfg:        cfg.Zoho,
		httpClient: tracing.WrapHTTPClient(&http.Client{}),
	}
}

// RefreshAccessToken exchanges a refresh token for a fresh access token.
func (c *Client) RefreshAccessToken(ctx context.Context, refreshToken string) (TokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)
	form.Set("client_id", c.cfg.ClientID)
	form.Set("client_secret", c.cfg.ClientSecret)
	return c.token(ctx, form)
}

// ExchangeCode exchanges an authorization code for the initial token pair.
func (c *Client) ExchangeCode(ctx context.Context, code string) (TokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("client_id", c.cfg.ClientID)
	form.Set("client_secret", c.cfg.ClientSecret)
	form.Set("redirect_uri", c.cfg.RedirectURI)
	return c.token(ctx, form)
}

func (c *Client) token(ctx context.Context, form url.Values) (TokenResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, tokenTimeout)
	defer cancel()

	endpoint := strings.TrimSuffix(c.cfg.AccountsURL, "/") + "/oauth/v2/token"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return TokenResponse{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return TokenResponse{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return TokenResponse{}, err
	}

	var token TokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return TokenResponse{}, fmt.Errorf("decode token response: %w", err)
	}
	if resp.StatusCode >= 300 || token.Error != "" {
		logger.FromContext(ctx).Warn("token grant rejected",
			zap.Int("status", resp.StatusCode),
			zap.String("error", token.Error),
		)
		return TokenResponse{}, &APIError{StatusCode: resp.StatusCode, Message: token.Error}
	}
	if token.AccessToken == "" {
		return TokenResponse{}, &APIError{StatusCode: resp.StatusCode, Message: "empty access_token"}
	}
	return token, nil
}

// ListInvoices fetches invoices with the given status, newest page first.
func (c *Client) ListInvoices(ctx context.Context, apiDomain, accessToken, status string) ([]RawInvoice, error) {
	ctx, cancel := context.WithTimeout(ctx, booksTimeout)
	defer cancel()

	query := url.Values{}
	query.Set("organization_id", c.cfg.OrganizationID)
	query.Set("status", status)
	query.Set("limit", fmt.Sprintf("%d", invoicePageLimit))
	query.Set("sort_column", "date")

	var out invoicesResponse
	if err := c.get(ctx, apiDomain, accessToken, "/books/v3/invoices", query, &out); err != nil {
		return nil, err
	}
	return out.Invoices, nil
}

// ListSalespersons fetches the organization's salesperson directory. Lower
// plan tiers do not expose the endpoint; a 404 maps to ErrUnsupportedFeature
// so callers can degrade instead of failing the run.
func (c *Client) ListSalespersons(ctx context.Context, apiDomain, accessToken string) ([]RawSalesperson, error) {
	ctx, cancel := context.WithTimeout(ctx, booksTimeout)
	defer cancel()

	query := url.Values{}
	query.Set("organization_id", c.cfg.OrganizationID)

	var out salespersonsResponse
	if err := c.get(ctx, apiDomain, accessToken, "/books/v3/salespersons", query, &out); err != nil {
		if IsNotFound(err) {
			return nil, fmt.Errorf("%w: salespersons endpoint", ErrUnsupportedFeature)
		}
		return nil, err
	}
	return out.Salespersons, nil
}

// GetContact fetches a single contact by id.
func (c *Client) GetContact(ctx context.Context, apiDomain, accessToken, contactID string) (*RawContact, error) {
	ctx, cancel := context.WithTimeout(ctx, contactTimeout)
	defer cancel()

	query := url.Values{}
	query.Set("organization_id", c.cfg.OrganizationID)

	var out contactResponse
	path := "/books/v3/contacts/" + url.PathEscape(contactID)
	if err := c.get(ctx, apiDomain, accessToken, path, query, &out); err != nil {
		return nil, err
	}
	return out.Contact, nil
}

func (c *Client) get(ctx context.Context, apiDomain, accessToken, path string, query url.Values, out any) error {
	endpoint := strings.TrimSuffix(apiDomain, "/") + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Zoho-oauthtoken "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var envelope struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		}
		if json.Unmarshal(body, &envelope) == nil {
			apiErr.Code = envelope.Code
			apiErr.Message = envelope.Message
		}
		return apiErr
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
