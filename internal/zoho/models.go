package zoho

import "encoding/json"

// TokenResponse is the token endpoint payload for both the refresh_token and
// authorization_code grants.
type TokenResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	APIDomain    string      `json:"api_domain"`
	ExpiresIn    json.Number `json:"expires_in"`
	Error        string      `json:"error"`
}

// ExpiresInSeconds returns the token lifetime, defaulting to one hour when
// the field is absent or malformed.
func (t TokenResponse) ExpiresInSeconds() int64 {
	seconds, err := t.ExpiresIn.Int64()
	if err != nil || seconds <= 0 {
		return 3600
	}
	return seconds
}

// RawInvoice is the upstream invoice shape. Fields are heterogeneous across
// plan tiers; normalization into the fixed internal shape happens at the
// fetcher boundary, not here.
type RawInvoice struct {
	InvoiceID          string        `json:"invoice_id"`
	InvoiceNumber      string        `json:"invoice_number"`
	SalespersonID      string        `json:"salesperson_id"`
	SalespersonName    string        `json:"salesperson_name"`
	CustomerName       string        `json:"customer_name"`
	Date               string        `json:"date"`
	Total              float64       `json:"total"`
	Status             string        `json:"status"`
	RecurringInvoiceID string        `json:"recurring_invoice_id"`
	PreviousInvoiceID  string        `json:"previous_invoice_id"`
	LineItems          []RawLineItem `json:"line_items"`
}

type RawLineItem struct {
	Name      string  `json:"item_name"`
	UnitPrice float64 `json:"item_price"`
	Quantity  float64 `json:"quantity"`
}

type RawSalesperson struct {
	SalespersonID   string `json:"salesperson_id"`
	SalespersonName string `json:"salesperson_name"`
}

type RawContact struct {
	ContactID       string `json:"contact_id"`
	ContactName     string `json:"contact_name"`
	CompanyName     string `json:"company_name"`
	SalespersonName string `json:"salesperson_name"`
}

type invoicesResponse struct {
	Code     int          `json:"code"`
	Message  string       `json:"message"`
	Invoices []RawInvoice `json:"invoices"`
}

type salespersonsResponse struct {
	Code         int              `json:"code"`
	Message      string           `json:"message"`
	Salespersons []RawSalesperson `json:"salespersons"`
}

type contactResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Contact *RawContact `json:"contact"`
}
