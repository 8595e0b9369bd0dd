package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Shubhams-here/Dabba-Drop/internal/captcha"
	"github.com/Shubhams-here/Dabba-Drop/internal/config"
)

const captchaCookieName = "captcha_token"

// CaptchaRequired gates anonymous form posts behind Cloudflare
// Turnstile. A visitor who solved the challenge carries a short-lived
// pass cookie and skips the round trip to siteverify on later posts.
func CaptchaRequired(cfg *config.Config, verifier captcha.IVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if pass, err := c.Cookie(captchaCookieName); err == nil && pass != "" {
			if captcha.ValidateCaptchaToken(pass, cfg.JwtSecret) == nil {
				c.Next()
				return
			}
		}

		response := c.GetHeader("X-Captcha-Response")
		if response == "" {
			response = c.Query("captcha")
		}

		if err := verifier.Verify(c.Request.Context(), response, c.ClientIP()); err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"message": "Captcha verification failed",
			})
			return
		}

		if pass, err := captcha.GenerateCaptchaToken(cfg.JwtSecret, cfg.CaptchaTokenTTL); err == nil {
			c.SetCookie(captchaCookieName, pass, int(cfg.CaptchaTokenTTL.Seconds()), "/", "", cfg.CookieSecure, true)
		}
		c.Next()
	}
}
