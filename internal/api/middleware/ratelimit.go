package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/Shubhams-here/Dabba-Drop/internal/config"
	"github.com/Shubhams-here/Dabba-Drop/internal/models"
	"github.com/Shubhams-here/Dabba-Drop/internal/services"
)

// visitor tracks the token buckets for one client IP on one endpoint.
type visitor struct {
	soft     *rate.Limiter
	hard     *rate.Limiter
	lastSeen time.Time
}

// RateLimiter applies a two-tier token bucket per client IP. Exceeding
// the soft bucket flags the response so the frontend can slow down;
// exceeding the hard bucket rejects with 429. Per-endpoint overrides
// come from the settings service.
type RateLimiter struct {
	cfg      *config.Config
	settings services.ISettingsService

	mu       sync.Mutex
	visitors map[string]*visitor
}

// NewRateLimiter creates a RateLimiter and starts its janitor.
func NewRateLimiter(cfg *config.Config, settings services.ISettingsService) *RateLimiter {
	rl := &RateLimiter{
		cfg:      cfg,
		settings: settings,
		visitors: make(map[string]*visitor),
	}
	go rl.cleanup()
	return rl
}

// Handler returns the gin middleware for one endpoint path.
func (rl *RateLimiter) Handler(endpoint string) gin.HandlerFunc {
	return func(c *gin.Context) {
		v := rl.visitorFor(c.Request.Context(), endpoint, c.ClientIP())

		if !v.hard.Allow() {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"message": "Too many requests",
			})
			return
		}
		if !v.soft.Allow() {
			c.Header("X-RateLimit-Warning", "slow down")
		}
		c.Next()
	}
}

func (rl *RateLimiter) visitorFor(ctx context.Context, endpoint, ip string) *visitor {
	key := endpoint + "|" + ip

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if v, ok := rl.visitors[key]; ok {
		v.lastSeen = time.Now()
		return v
	}

	soft := models.RateLimitConfig{
		BucketSize:      rl.cfg.RateLimitSoftBucketSize,
		TokenRefillRate: rl.cfg.RateLimitSoftRefillRate,
	}
	hard := models.RateLimitConfig{
		BucketSize:      rl.cfg.RateLimitHardBucketSize,
		TokenRefillRate: rl.cfg.RateLimitHardRefillRate,
	}
	if override := rl.settings.GetEndpointConfig(ctx, endpoint); override != nil {
		if override.RateLimitSoft != nil {
			soft = *override.RateLimitSoft
		}
		if override.RateLimitHard != nil {
			hard = *override.RateLimitHard
		}
	}

	v := &visitor{
		soft:     rate.NewLimiter(rate.Limit(soft.TokenRefillRate), soft.BucketSize),
		hard:     rate.NewLimiter(rate.Limit(hard.TokenRefillRate), hard.BucketSize),
		lastSeen: time.Now(),
	}
	rl.visitors[key] = v
	return v
}

// cleanup drops buckets for IPs idle longer than ten minutes.
func (rl *RateLimiter) cleanup() {
	for range time.Tick(time.Minute) {
		rl.mu.Lock()
		for key, v := range rl.visitors {
			if time.Since(v.lastSeen) > 10*time.Minute {
				delete(rl.visitors, key)
			}
		}
		rl.mu.Unlock()
	}
}
