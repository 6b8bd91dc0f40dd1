package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clustersystems/commission-tracker/internal/auth"
)

func (s *Server) postSync(c *gin.Context) {
	actor, ok := auth.ActorFrom(c)
	if !ok {
		AbortWithError(c, auth.ErrUnauthorized)
		return
	}

	result, err := s.scheduler.TriggerSync(c.Request.Context(), actor)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"run_id":       result.RunID,
		"synced_count": result.SyncedCount,
	})
}

func (s *Server) getUser(c *gin.Context) {
	actor, ok := auth.ActorFrom(c)
	if !ok {
		AbortWithError(c, auth.ErrUnauthorized)
		return
	}
	c.JSON(http.StatusOK, actor)
}
