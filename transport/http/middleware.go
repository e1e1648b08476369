package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/layer-3/xamanauth/core"
	"github.com/layer-3/xamanauth/logging"
	"github.com/layer-3/xamanauth/ports"
	"golang.org/x/time/rate"
)

const walletAddressKey = "walletAddress"

// ConnectedWallet reports the address of the wallet currently connected, if any
type ConnectedWallet func() (string, bool)

// AuthMiddleware validates bearer access tokens. A token is only accepted
// while the wallet it was issued to is still the connected one.
func AuthMiddleware(tokenizer ports.Tokenizer, connected ConnectedWallet) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")

		token, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header"})
			return
		}

		claims, err := tokenizer.AccessTokenToClaims(token)
		if err != nil {
			if errors.Is(err, core.ErrTokenExpired) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token expired"})
			} else {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			}
			return
		}

		if address, ok := connected(); !ok || address != claims.Address {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Wallet disconnected"})
			return
		}

		c.Set(walletAddressKey, claims.Address)

		c.Next()
	}
}

// RateLimit rejects requests beyond the limiter's budget with 429
func RateLimit(limiter *rate.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests"})
			return
		}
		c.Next()
	}
}

// requestLogger logs one line per request through the process logger
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logging.Debug("http request",
			logging.Component("http"),
			slog.String("method", c.Request.Method),
			slog.String("path", c.FullPath()),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("latency", time.Since(start)),
		)
	}
}
