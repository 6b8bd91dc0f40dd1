package domain

import "errors"

var (
	// ErrUpstreamUnavailable means all fetch attempts were exhausted.
	ErrUpstreamUnavailable = errors.New("upstream_unavailable")

	// ErrMissingInvoiceNumber means the upstream returned an invoice
	// without a number. The number keys idempotent persistence, so the
	// fetch fails loudly rather than silently dropping the row.
	ErrMissingInvoiceNumber = errors.New("missing_invoice_number")
)
