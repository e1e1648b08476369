package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/layer-3/xamanauth/core"
	"github.com/layer-3/xamanauth/logging"
	"github.com/layer-3/xamanauth/ports"
	"github.com/layer-3/xamanauth/service"
)

// AuthHandlers contains HTTP handlers for the wallet pairing endpoints
type AuthHandlers struct {
	controller *service.AuthController
	tokenizer  ports.Tokenizer
	tokenTTL   time.Duration
}

// NewAuthHandlers creates new auth handlers
func NewAuthHandlers(controller *service.AuthController, tokenizer ports.Tokenizer, tokenTTL time.Duration) *AuthHandlers {
	return &AuthHandlers{
		controller: controller,
		tokenizer:  tokenizer,
		tokenTTL:   tokenTTL,
	}
}

// State returns the presentation view of the pairing state
func (h *AuthHandlers) State(c *gin.Context) {
	c.JSON(http.StatusOK, h.controller.State().View())
}

// Connect starts a pairing attempt and returns the view with the QR code
func (h *AuthHandlers) Connect(c *gin.Context) {
	// the attempt outlives this request
	ctx := context.WithoutCancel(c.Request.Context())

	err := h.controller.Connect(ctx)
	if err != nil {
		statusCode := http.StatusBadGateway
		errorMsg := h.controller.State().Error

		switch {
		case errors.Is(err, core.ErrAlreadyConnected):
			statusCode = http.StatusConflict
			errorMsg = "Wallet already connected"
		case errors.Is(err, core.ErrNotConfigured):
			statusCode = http.StatusServiceUnavailable
		case errors.Is(err, service.ErrControllerClosed):
			statusCode = http.StatusServiceUnavailable
			errorMsg = "Service shutting down"
		}
		if errorMsg == "" {
			errorMsg = service.MsgConnectFailed
		}

		c.JSON(statusCode, gin.H{"error": errorMsg})
		return
	}

	c.JSON(http.StatusAccepted, h.controller.State().View())
}

// Cancel abandons the outstanding pairing attempt
func (h *AuthHandlers) Cancel(c *gin.Context) {
	h.controller.CancelConnection()
	c.JSON(http.StatusOK, h.controller.State().View())
}

// Disconnect forgets the connected wallet
func (h *AuthHandlers) Disconnect(c *gin.Context) {
	if err := h.controller.Disconnect(c.Request.Context()); err != nil {
		logging.Warn("disconnect failed", logging.Component("http"), logging.Err(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to disconnect"})
		return
	}
	c.JSON(http.StatusOK, h.controller.State().View())
}

// Token mints a site access token for the connected wallet
func (h *AuthHandlers) Token(c *gin.Context) {
	state := h.controller.State()
	if !state.Connected || state.Session == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Wallet not connected"})
		return
	}

	accessToken, err := h.tokenizer.SessionToAccessToken(*state.Session, h.tokenTTL)
	if err != nil {
		logging.Error("failed to mint access token", logging.Component("http"), logging.Err(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create access token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": accessToken,
		"token_type":   "Bearer",
		"expires_in":   int(h.tokenTTL.Seconds()),
	})
}

// Me returns the wallet the access token was issued to
func (h *AuthHandlers) Me(c *gin.Context) {
	// set by the auth middleware
	address, exists := c.Get(walletAddressKey)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Wallet not found in context"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"address": address,
	})
}
