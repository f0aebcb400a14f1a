package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"IslandWar/internal/shared/security"
)

// CtxAccountID is the gin context key the verified account id is stored
// under.
const CtxAccountID = "accountId"

// Auth verifies the bearer token and stores the account id on the context.
func Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token := strings.TrimPrefix(header, "Bearer ")
		if token == "" || token == header {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code": "AUTH_TOKEN_MISSING", "msg": "missing bearer token",
			})
			return
		}

		claims, err := security.ParseToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code": "AUTH_TOKEN_INVALID", "msg": "invalid or expired token",
			})
			return
		}

		c.Set(CtxAccountID, claims.AccountID)
		c.Next()
	}
}

// AccountID reads the verified account id off the context.
func AccountID(c *gin.Context) string {
	return c.GetString(CtxAccountID)
}
