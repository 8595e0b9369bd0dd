package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Shubhams-here/Dabba-Drop/internal/config"
)

// CORS allows the configured frontend origins with credentials, which
// the cookie-based auth and the websocket upgrade both rely on.
func CORS(cfg *config.Config) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     cfg.CorsOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Captcha-Response"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}
