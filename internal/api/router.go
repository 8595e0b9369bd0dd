package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/Shubhams-here/Dabba-Drop/internal/api/handlers"
	"github.com/Shubhams-here/Dabba-Drop/internal/api/middleware"
	"github.com/Shubhams-here/Dabba-Drop/internal/auth"
	"github.com/Shubhams-here/Dabba-Drop/internal/captcha"
	"github.com/Shubhams-here/Dabba-Drop/internal/config"
	"github.com/Shubhams-here/Dabba-Drop/internal/hub"
	"github.com/Shubhams-here/Dabba-Drop/internal/models"
	"github.com/Shubhams-here/Dabba-Drop/internal/services"
	"github.com/Shubhams-here/Dabba-Drop/internal/storage"
)

// Deps bundles everything the HTTP surface needs.
type Deps struct {
	Cfg        *config.Config
	Users      services.IUserService
	Contacts   services.IContactService
	Orders     services.IOrderService
	Shops      services.IShopService
	Settings   services.ISettingsService
	Notifier   services.INotifier
	Store      storage.Storage
	TaskClient *asynq.Client
	Hub        *hub.Hub
	Verifier   captcha.IVerifier
}

// SetupRouter builds the public API router.
func SetupRouter(d Deps) *gin.Engine {
	r := gin.Default()
	r.Use(middleware.CORS(d.Cfg))

	rl := middleware.NewRateLimiter(d.Cfg, d.Settings)

	authHandler := handlers.NewAuthHandler(d.Cfg, d.Users)
	contactHandler := handlers.NewContactHandler(d.Cfg, d.Contacts, d.Notifier)
	orderHandler := handlers.NewOrderHandler(d.Orders)
	shopHandler := handlers.NewShopHandler(d.Cfg, d.Shops, d.Store, d.TaskClient)

	authed := middleware.AuthRequired(d.Cfg.JwtSecret)

	authGroup := r.Group("/api/auth")
	{
		authGroup.POST("/signup", rl.Handler("/api/auth/signup"), authHandler.SignUp)
		authGroup.POST("/signin", rl.Handler("/api/auth/signin"), authHandler.SignIn)
		authGroup.POST("/signout", authHandler.SignOut)
	}

	contact := r.Group("/api/contact")
	{
		// The submit endpoint is the only anonymous write surface, so
		// it alone carries the captcha and rate limit gauntlet.
		contact.POST("/submit",
			rl.Handler("/api/contact/submit"),
			middleware.CaptchaRequired(d.Cfg, d.Verifier),
			contactHandler.Submit)

		contact.GET("", authed, middleware.AdminRequired(), contactHandler.List)
		contact.GET("/:id", authed, middleware.AdminRequired(), contactHandler.Get)
		contact.PUT("/:id", authed, middleware.AdminRequired(), contactHandler.Update)
		contact.DELETE("/:id", authed, middleware.AdminRequired(), contactHandler.Delete)
	}

	order := r.Group("/api/order", authed)
	{
		order.POST("/place-order", orderHandler.Place)
		order.GET("/my-orders", orderHandler.MyOrders)
		order.POST("/update-status/:orderId/:shopId", orderHandler.UpdateStatus)
		order.POST("/verify-delivery-otp/:orderId/:shopId",
			middleware.RoleRequired(models.RoleDeliveryBoy, models.RoleOwner),
			orderHandler.VerifyDeliveryOtp)
	}

	shop := r.Group("/api/shop", authed)
	{
		shop.POST("/:id/image-upload-url", shopHandler.ImageUploadURL)
		shop.POST("/:id/image-uploaded", shopHandler.ImageUploaded)
	}

	// Websocket upgrade. Identity comes from the same cookie JWT as the
	// REST endpoints; the hub only ever pushes events to this identity.
	r.GET("/ws", func(c *gin.Context) {
		tokenString, err := c.Cookie("token")
		if err != nil || tokenString == "" {
			if h := c.GetHeader("Authorization"); len(h) > 7 && h[:7] == "Bearer " {
				tokenString = h[7:]
			}
		}
		claims, err := auth.ValidateJWT(tokenString, d.Cfg.JwtSecret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "Authentication required",
			})
			return
		}
		d.Hub.ServeWS(c.Writer, c.Request, claims.UserID)
	})

	return r
}

// SetupServiceRouter builds the private service API used by operators
// and end-to-end tests. It must never be exposed publicly.
func SetupServiceRouter(redisClient *redis.Client, shutdown chan<- struct{}) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.POST("/shutdown", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Shutting down"})
		select {
		case shutdown <- struct{}{}:
		default:
		}
	})

	// getTestEmail surfaces mails captured by the Redis mock sender so
	// end-to-end tests can assert on outbound mail without SMTP.
	r.GET("/getTestEmail", func(c *gin.Context) {
		to := c.Query("to")
		mailType := c.Query("type")
		if to == "" || mailType == "" {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "to and type are required"})
			return
		}

		key := fmt.Sprintf("mockemail:%s:%s", to, mailType)
		body, err := redisClient.Get(context.Background(), key).Result()
		if err == redis.Nil {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "No such email captured"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"email": body}})
	})

	return r
}
