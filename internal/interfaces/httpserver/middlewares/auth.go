package middlewares

import (
	"crypto/subtle"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"conversiq-server/internal/interfaces/httpserver/responses"
	"conversiq-server/internal/utils/platformerrors"
)

const apiKeyHeader = "X-API-Key"

// APIKeyMiddleware requires the configured key as a bearer token or X-API-Key
// header. An empty key disables the check.
func APIKeyMiddleware(apiKey string, logger zerolog.Logger) gin.HandlerFunc {
	expected := []byte(apiKey)

	return func(c *gin.Context) {
		if apiKey == "" {
			c.Next()
			return
		}

		presented := c.GetHeader(apiKeyHeader)
		if presented == "" {
			if token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer "); ok {
				presented = strings.TrimSpace(token)
			}
		}

		if presented == "" || subtle.ConstantTimeCompare([]byte(presented), expected) != 1 {
			logger.Warn().
				Str("path", c.FullPath()).
				Str("method", c.Request.Method).
				Str("request_id", RequestIDFromContext(c)).
				Msg("unauthenticated request")
			responses.HandleNewError(c, platformerrors.ErrorTypeUnauthorized, "authentication required")
			return
		}

		c.Next()
	}
}
