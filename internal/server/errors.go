package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clustersystems/commission-tracker/internal/auth"
	commissiondomain "github.com/clustersystems/commission-tracker/internal/commission/domain"
	credentialdomain "github.com/clustersystems/commission-tracker/internal/credential/domain"
	invoicedomain "github.com/clustersystems/commission-tracker/internal/invoice/domain"
	"github.com/clustersystems/commission-tracker/internal/scheduler"
)

// ErrInvalidRequest covers malformed request parameters outside the domain
// sentinels.
var ErrInvalidRequest = errors.New("invalid_request")

type errorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

// ErrorHandlingMiddleware turns errors recorded on the context into one
// JSON error response after the handler chain runs.
func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, errorPayload) {
	switch {
	case errors.Is(err, credentialdomain.ErrNoCredential):
		return http.StatusUnauthorized, errorPayload{
			Type:    "auth_error",
			Message: "no connected account, authorization required",
		}
	case errors.Is(err, credentialdomain.ErrCredentialExpired):
		return http.StatusUnauthorized, errorPayload{
			Type:    "credential_expired",
			Message: "stored credentials expired, reauthorization required",
		}
	case errors.Is(err, auth.ErrUnauthorized):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, auth.ErrForbidden):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case errors.Is(err, commissiondomain.ErrInvalidDateRange), errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "invalid date range",
		}
	case errors.Is(err, scheduler.ErrSyncInProgress):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "a sync run is already in progress",
		}
	case errors.Is(err, invoicedomain.ErrUpstreamUnavailable):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "upstream_unavailable",
			Message: "upstream API unavailable",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

// classifyErrorForLog labels request errors for the access log.
func classifyErrorForLog(err error) (string, string) {
	status, payload := mapError(err)
	severity := "warn"
	if status >= http.StatusInternalServerError {
		severity = "error"
	}
	return payload.Type, severity
}
