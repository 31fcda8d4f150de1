package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/orris-inc/helpdesk/internal/shared/logger"
	"github.com/orris-inc/helpdesk/internal/shared/utils"
)

// TokenVerifier checks admin tokens. A disabled verifier lets every request
// through.
type TokenVerifier interface {
	Enabled() bool
	Verify(token string) bool
}

// RequireToken checks the request's Bearer token.
func RequireToken(verifier TokenVerifier, log logger.Interface) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !verifier.Enabled() {
			c.Next()
			return
		}

		var token string
		if parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2); len(parts) == 2 && parts[0] == "Bearer" {
			token = parts[1]
		}

		if token == "" {
			utils.ErrorResponse(c, http.StatusUnauthorized, "missing authorization token")
			c.Abort()
			return
		}
		if !verifier.Verify(token) {
			log.Warnw("admin token rejected", "ip", c.ClientIP(), "path", c.Request.URL.Path)
			utils.ErrorResponse(c, http.StatusUnauthorized, "invalid authorization token")
			c.Abort()
			return
		}

		c.Next()
	}
}
