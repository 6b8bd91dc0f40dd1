package domain

import "errors"

// ErrInvalidDateRange means a report range was malformed or inverted.
var ErrInvalidDateRange = errors.New("invalid_date_range")
