package zoho

import (
	"errors"
	"fmt"
)

// ErrUnsupportedFeature marks optional endpoints the upstream plan tier does
// not expose (the salespersons listing returns 404 on lower tiers).
var ErrUnsupportedFeature = errors.New("unsupported_feature")

// APIError is a non-2xx response from the upstream API.
type APIError struct {
	StatusCode int
	Code       int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("zoho api: status %d code %d: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("zoho api: status %d", e.StatusCode)
}

// IsNotFound reports whether err is an upstream 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == 404
}
