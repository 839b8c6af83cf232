package httpapi

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// requireBearer gates every mutating endpoint behind bearer auth. An empty
// token list is bootstrap/dev mode: any caller (including one presenting no
// token at all) is accepted.
func requireBearer(tokens []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if len(tokens) == 0 {
			c.Next()
			return
		}
		header := c.GetHeader("Authorization")
		const prefix = "Bearer "
		if !strings.HasPrefix(header, prefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		presented := strings.TrimPrefix(header, prefix)
		for _, token := range tokens {
			if subtle.ConstantTimeCompare([]byte(token), []byte(presented)) == 1 {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid bearer token"})
	}
}
