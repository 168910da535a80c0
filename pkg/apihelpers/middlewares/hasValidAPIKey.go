package middlewares

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/assistant-support/web-sale-sub000/pkg/utils"
)

// HasValidAPIKey aborts the request unless one of the Api-Key header values
// matches a configured key.
func HasValidAPIKey(validKeys []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		keysInHeader, ok := c.Request.Header["Api-Key"]
		if !ok || len(keysInHeader) < 1 {
			slog.Error("A valid API key missing")
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "A valid API key missing"})
			return
		}

		for _, k := range keysInHeader {
			if utils.ContainsString(validKeys, k) {
				c.Next()
				return
			}
		}

		slog.Error("A valid API key missing")
		slog.Debug("Received API keys", slog.String("receivedKeys", strings.Join(keysInHeader, ",")))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "A valid API key missing"})
	}
}
