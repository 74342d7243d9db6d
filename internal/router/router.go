package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/bizmarket-backend/config"
	"github.com/ikkim/bizmarket-backend/internal/app/controller"
	"github.com/ikkim/bizmarket-backend/internal/app/model"
	"github.com/ikkim/bizmarket-backend/internal/middleware"
	"github.com/ikkim/bizmarket-backend/pkg/metrics"
)

// Controllers groups the HTTP handlers mounted by the router.
type Controllers struct {
	Auth     *controller.AuthController
	Business *controller.BusinessController
	Cart     *controller.CartController
	Quote    *controller.QuoteController
	Owner    *controller.OwnerController
	Admin    *controller.AdminController
	Upload   *controller.UploadController
	WS       *controller.WSController
}

type Router struct {
	controllers    Controllers
	authMiddleware *middleware.AuthMiddleware
	metrics        *metrics.Metrics
	config         *config.Config
}

func NewRouter(
	controllers Controllers,
	authMiddleware *middleware.AuthMiddleware,
	m *metrics.Metrics,
	cfg *config.Config,
) *Router {
	return &Router{
		controllers:    controllers,
		authMiddleware: authMiddleware,
		metrics:        m,
		config:         cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.Metrics(r.metrics))
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"message": "Marketplace API is running",
		})
	})
	router.GET("/metrics", gin.WrapH(r.metrics.Handler()))

	ctrl := r.controllers
	auth := r.authMiddleware
	session := middleware.Session(r.config.Session)

	v1 := router.Group("/api/v1")
	{
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/signup", ctrl.Auth.Signup)
			authGroup.POST("/login", ctrl.Auth.Login)
			authGroup.GET("/me", auth.Authenticate(), ctrl.Auth.GetMe)
			authGroup.POST("/logout", auth.Authenticate(), ctrl.Auth.Logout)
		}

		v1.GET("/categories", ctrl.Business.ListCategories)
		v1.GET("/businesses", ctrl.Business.ListBusinesses)
		v1.GET("/directory/:category_slug/:slug", session, auth.OptionalAuthenticate(), ctrl.Business.GetBusinessDetail)

		businesses := v1.Group("/businesses/:id")
		businesses.Use(session)
		{
			businesses.GET("/cart", auth.OptionalAuthenticate(), ctrl.Cart.GetCart)

			shopper := businesses.Group("")
			shopper.Use(auth.Authenticate())
			shopper.POST("/cart", ctrl.Cart.AddToCart)
			shopper.DELETE("/cart", ctrl.Cart.ClearCart)
			shopper.DELETE("/cart/:service_id", ctrl.Cart.RemoveFromCart)
			shopper.GET("/quote-form", ctrl.Quote.GetQuoteForm)
			shopper.POST("/quotes", ctrl.Quote.SubmitQuote)
		}

		v1.GET("/quotes/:id", auth.Authenticate(), ctrl.Quote.GetQuote)
		v1.POST("/partner/register", auth.Authenticate(), ctrl.Business.RegisterPartner)

		owner := v1.Group("/owner")
		owner.Use(auth.Authenticate())
		{
			owner.GET("/dashboard", ctrl.Owner.Dashboard)
			owner.GET("/quotes/export", ctrl.Owner.ExportQuotes)
			owner.GET("/quotes/:id", ctrl.Owner.GetQuote)
			owner.PUT("/quotes/:id", ctrl.Owner.UpdateQuote)
			owner.POST("/businesses/:id/services", ctrl.Business.AddService)
			owner.POST("/businesses/:id/locations", ctrl.Business.AddLocation)
			owner.POST("/businesses/:id/images/presign", ctrl.Upload.PresignWorkImage)
			owner.POST("/businesses/:id/images", ctrl.Business.AddWorkImage)
		}

		admin := v1.Group("/admin")
		admin.Use(auth.Authenticate(), auth.RequireRole(model.RoleAdmin))
		{
			admin.PUT("/businesses/:id/approval", ctrl.Admin.SetApproval)
			admin.PUT("/businesses/:id/lock", ctrl.Admin.SetLock)
			admin.POST("/categories", ctrl.Admin.CreateCategory)
		}
	}

	router.GET("/ws/owner", auth.Authenticate(), ctrl.WS.Connect)

	return router
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin || allowedOrigin == "*" {
				allowed = true
				break
			}
		}

		if allowed {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, X-Request-ID, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
