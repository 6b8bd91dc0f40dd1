package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/clustersystems/commission-tracker/internal/identity"
	"github.com/clustersystems/commission-tracker/internal/observability/obsctx"
)

// Middleware rejects requests without a valid bearer token and stores the
// actor in the request context.
func Middleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		claims, err := parseToken(secret, token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		actor := identity.Actor{Email: claims.Email, IsAdmin: claims.IsAdmin}
		ctx := identity.WithActor(c.Request.Context(), actor)
		ctx = obsctx.WithActor(ctx, actor.Email)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// ActorFrom returns the authenticated actor for a request.
func ActorFrom(c *gin.Context) (identity.Actor, bool) {
	return identity.ActorFromContext(c.Request.Context())
}
