package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/layer-3/xamanauth/metrics"
	"github.com/layer-3/xamanauth/ports"
	"github.com/layer-3/xamanauth/service"
	"golang.org/x/time/rate"
)

// RouterConfig holds the dependencies of the HTTP API
type RouterConfig struct {
	Controller *service.AuthController
	Tokenizer  ports.Tokenizer
	Metrics    *metrics.PairingMetrics

	TokenTTL     time.Duration
	ConnectRate  float64
	ConnectBurst int
}

// SetupRouter sets up the Gin router
func SetupRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	// Create handlers
	handlers := NewAuthHandlers(cfg.Controller, cfg.Tokenizer, cfg.TokenTTL)
	connectLimiter := rate.NewLimiter(rate.Limit(cfg.ConnectRate), cfg.ConnectBurst)

	// Auth routes
	auth := router.Group("/auth")
	{
		auth.GET("/state", handlers.State)
		auth.POST("/connect", RateLimit(connectLimiter), handlers.Connect)
		auth.POST("/cancel", handlers.Cancel)
		auth.POST("/disconnect", handlers.Disconnect)
		auth.GET("/token", handlers.Token)
	}

	// Protected API routes
	api := router.Group("/api")
	api.Use(AuthMiddleware(cfg.Tokenizer, connectedWallet(cfg.Controller)))
	{
		api.GET("/me", handlers.Me)
	}

	if cfg.Metrics != nil {
		router.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	return router
}

func connectedWallet(controller *service.AuthController) ConnectedWallet {
	return func() (string, bool) {
		state := controller.State()
		if !state.Connected || state.Session == nil {
			return "", false
		}
		return state.Session.WalletAddress, true
	}
}
