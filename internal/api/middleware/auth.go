package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Shubhams-here/Dabba-Drop/internal/auth"
	"github.com/Shubhams-here/Dabba-Drop/internal/models"
)

// Context keys set by AuthRequired.
const (
	CtxUserID  = "userID"
	CtxRole    = "role"
	CtxIsAdmin = "isAdmin"
)

// tokenCookieName is the cookie the browser client carries its JWT in.
const tokenCookieName = "token"

// AuthRequired authenticates the request from the "token" cookie, with
// an Authorization: Bearer fallback for non-browser clients, and puts
// the caller's identity into the gin context.
func AuthRequired(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "Authentication required",
			})
			return
		}

		claims, err := auth.ValidateJWT(tokenString, jwtSecret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "Invalid or expired token",
			})
			return
		}

		c.Set(CtxUserID, claims.UserID)
		c.Set(CtxRole, claims.Role)
		c.Set(CtxIsAdmin, claims.IsAdmin)
		c.Next()
	}
}

// AdminRequired allows only admin users past. Must run after AuthRequired.
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if isAdmin, ok := c.Get(CtxIsAdmin); !ok || isAdmin != true {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"message": "Admin access required",
			})
			return
		}
		c.Next()
	}
}

// RoleRequired allows only the named roles past. Must run after AuthRequired.
func RoleRequired(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		current, ok := c.Get(CtxRole)
		if ok {
			for _, role := range roles {
				if current == role {
					c.Next()
					return
				}
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"success": false,
			"message": "Insufficient permissions",
		})
	}
}

func extractToken(c *gin.Context) string {
	if cookie, err := c.Cookie(tokenCookieName); err == nil && cookie != "" {
		return cookie
	}
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}
