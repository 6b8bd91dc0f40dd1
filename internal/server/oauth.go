package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// authCallback finishes the authorization-code flow: it exchanges the code
// and stores the credential for the principal named in the state parameter.
// The first connected principal is treated as the admin account.
func (s *Server) authCallback(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	principalID := strings.TrimSpace(c.Query("state"))
	if principalID == "" {
		principalID = "admin"
	}

	token, err := s.zoho.ExchangeCode(c.Request.Context(), code)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	cred, err := s.credentials.Store(c.Request.Context(), principalID, true, token)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.log.Info("account connected", zap.String("principal_id", cred.PrincipalID))
	c.JSON(http.StatusOK, gin.H{
		"status":       "connected",
		"principal_id": cred.PrincipalID,
		"api_domain":   cred.APIDomain,
	})
}
