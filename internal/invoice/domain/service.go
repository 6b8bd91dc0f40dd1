package domain

import "context"

type Fetcher interface {
	// FetchByStatus returns all normalized invoices with the given status,
	// retrying transient upstream failures. Every returned invoice is
	// tagged with the queried status.
	FetchByStatus(ctx context.Context, principalID, status string) ([]Invoice, error)
}
