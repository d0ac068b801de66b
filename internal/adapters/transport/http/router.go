package http

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/usiug6/auth-service/internal/adapters/transport/http/middleware"
	"go.uber.org/zap"
)

type RouterConfig struct {
	AllowedOrigins   []string
	AllowCredentials bool
	StaticDir        string
	// Metrics is both registerer and gatherer for /metrics; nil disables it.
	Metrics *prometheus.Registry
}

func NewRouter(h *Handler, cfg RouterConfig, log *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(log))
	if cfg.Metrics != nil {
		router.Use(middleware.NewMetrics(cfg.Metrics).Handler())
	}
	router.Use(cors.New(corsConfig(cfg)))

	api := router.Group("/api")
	{
		api.POST("/register", h.Register)
		api.POST("/login", h.Login)
		api.POST("/forgot-password", h.ForgotPassword)
		api.POST("/reset-password", h.ResetPassword)
		api.GET("/verify-token", h.VerifyToken)

		authed := api.Group("", middleware.BearerToken())
		authed.POST("/logout", h.Logout)
		authed.GET("/user", h.CurrentUser)
	}

	router.GET("/health", h.Health)
	if cfg.Metrics != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Metrics, promhttp.HandlerOpts{})))
	}

	router.NoRoute(spa(cfg.StaticDir))
	return router
}

func corsConfig(cfg RouterConfig) cors.Config {
	c := cors.Config{
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Accept",
			"Authorization",
			"X-Requested-With",
		},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 0 || (len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*") {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = cfg.AllowedOrigins
	}
	return c
}
