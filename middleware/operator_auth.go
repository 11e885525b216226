package middleware

import (
	"net/http"
	"strings"

	"bookline/utils"

	"github.com/gin-gonic/gin"
)

// Context keys set by OperatorAuth for downstream handlers.
const (
	CtxOperatorName = "operatorName"
	CtxTenantID     = "tenantID"
)

// OperatorAuth verifies the operator bearer token and injects the
// operator name and tenant scope into the request context.
func OperatorAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			utils.JSONError(c, http.StatusUnauthorized, "missing bearer token", "")
			c.Abort()
			return
		}
		operator, tenantID, err := utils.OperatorClaims(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			utils.JSONError(c, http.StatusUnauthorized, "invalid token", "")
			c.Abort()
			return
		}
		c.Set(CtxOperatorName, operator)
		c.Set(CtxTenantID, tenantID)
		c.Next()
	}
}
