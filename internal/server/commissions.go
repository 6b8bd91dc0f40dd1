package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/clustersystems/commission-tracker/internal/auth"
	commissiondomain "github.com/clustersystems/commission-tracker/internal/commission/domain"
)

func (s *Server) getCommissions(c *gin.Context) {
	actor, ok := auth.ActorFrom(c)
	if !ok {
		AbortWithError(c, auth.ErrUnauthorized)
		return
	}

	report, records, err := s.reports.CommissionsForRange(
		c.Request.Context(),
		actor,
		c.Query("start"),
		c.Query("end"),
		c.Query("rep"),
	)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"commissions": report,
		"invoices":    records,
	})
}

func (s *Server) getInvoices(c *gin.Context) {
	actor, ok := auth.ActorFrom(c)
	if !ok {
		AbortWithError(c, auth.ErrUnauthorized)
		return
	}

	filter := commissiondomain.ListFilter{
		Status: c.Query("status"),
		Rep:    c.Query("rep"),
	}
	var err error
	if filter.Start, err = parseDateParam(c.Query("start")); err != nil {
		AbortWithError(c, err)
		return
	}
	if filter.End, err = parseDateParam(c.Query("end")); err != nil {
		AbortWithError(c, err)
		return
	}

	records, err := s.reports.ListInvoices(c.Request.Context(), actor, filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"invoices": records})
}

func (s *Server) getInvoiceStats(c *gin.Context) {
	actor, ok := auth.ActorFrom(c)
	if !ok {
		AbortWithError(c, auth.ErrUnauthorized)
		return
	}

	stats, err := s.reports.Stats(c.Request.Context(), actor)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// parseDateParam parses an optional 2006-01-02 query value.
func parseDateParam(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, commissiondomain.ErrInvalidDateRange
	}
	return parsed.UTC(), nil
}
