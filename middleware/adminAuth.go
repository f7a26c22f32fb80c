package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kishan2613/Sarthi/apperror"
	"github.com/kishan2613/Sarthi/utils"
)

// JWTAuthAdminMiddleware admits requests bearing a valid admin token and
// stores the admin subject under utils.AdminKey.
func JWTAuthAdminMiddleware(tokens *utils.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			utils.JSONError(c, http.StatusUnauthorized, apperror.CodeUnauthorized,
				"Unauthorized", "Missing or invalid Authorization header")
			return
		}
		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))

		subject, err := tokens.SubjectWithRole(tokenString, utils.RoleAdmin)
		if err != nil {
			utils.GetLogger().Debug("admin token rejected", zap.Error(err))
			utils.JSONError(c, http.StatusUnauthorized, apperror.CodeUnauthorized,
				"Unauthorized", "Unauthorized admin access")
			return
		}

		c.Set(utils.AdminKey, subject)
		c.Next()
	}
}
