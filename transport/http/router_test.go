package http

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/layer-3/xamanauth/adapters/store"
	"github.com/layer-3/xamanauth/adapters/tokenizer"
	"github.com/layer-3/xamanauth/core"
	"github.com/layer-3/xamanauth/metrics"
	"github.com/layer-3/xamanauth/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type stubClient struct {
	mu         sync.Mutex
	configured bool
	createErr  error
	status     core.StatusResult
}

func (s *stubClient) Configured() bool { return s.configured }

func (s *stubClient) CreateSignInRequest(ctx context.Context) (core.PairingRequest, error) {
	if s.createErr != nil {
		return core.PairingRequest{}, s.createErr
	}
	return core.PairingRequest{RequestID: "abc", QRImageRef: "img://x", DeepLink: "link://y"}, nil
}

func (s *stubClient) FetchStatus(ctx context.Context, requestID string) (core.StatusResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status, nil
}

func (s *stubClient) sign(address string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = core.StatusResult{Signed: true, Resolved: true, WalletAddress: address}
}

type testServer struct {
	router     *gin.Engine
	controller *service.AuthController
	client     *stubClient
}

func newTestServer(t *testing.T, client *stubClient, burst int) *testServer {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	m := metrics.New()
	controller := service.NewAuthController(context.Background(), store.NewMemoryStore(), client,
		service.WithPollInterval(10*time.Millisecond), service.WithMetrics(m))
	t.Cleanup(controller.Close)

	router := SetupRouter(RouterConfig{
		Controller:   controller,
		Tokenizer:    tokenizer.NewJWTTokenizer(key, "xamanauth-test"),
		Metrics:      m,
		TokenTTL:     5 * time.Minute,
		ConnectRate:  0.001,
		ConnectBurst: burst,
	})
	return &testServer{router: router, controller: controller, client: client}
}

func (s *testServer) do(method, path, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decodeView(t *testing.T, w *httptest.ResponseRecorder) core.View {
	t.Helper()
	var view core.View
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	return view
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error
}

func TestStateInitiallyDisconnected(t *testing.T) {
	s := newTestServer(t, &stubClient{configured: true}, 5)

	w := s.do(http.MethodGet, "/auth/state", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"isConnecting": false,
		"isConnected": false,
		"walletAddress": null,
		"userToken": null,
		"error": null,
		"qrCode": null,
		"deepLink": null
	}`, w.Body.String())
}

func TestConnectFlow(t *testing.T) {
	s := newTestServer(t, &stubClient{configured: true}, 5)

	w := s.do(http.MethodPost, "/auth/connect", "")
	require.Equal(t, http.StatusAccepted, w.Code)
	view := decodeView(t, w)
	assert.True(t, view.IsConnecting)
	require.NotNil(t, view.QRCode)
	assert.Equal(t, "img://x", *view.QRCode)
	require.NotNil(t, view.DeepLink)
	assert.Equal(t, "link://y", *view.DeepLink)

	w = s.do(http.MethodGet, "/auth/token", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code, "no token while pairing")

	s.client.sign("rADDR123")
	require.Eventually(t, func() bool { return s.controller.State().Connected }, 2*time.Second, 5*time.Millisecond)

	w = s.do(http.MethodGet, "/auth/state", "")
	view = decodeView(t, w)
	assert.True(t, view.IsConnected)
	require.NotNil(t, view.WalletAddress)
	assert.Equal(t, "rADDR123", *view.WalletAddress)
	assert.Nil(t, view.QRCode)

	w = s.do(http.MethodPost, "/auth/connect", "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(http.MethodGet, "/auth/token", "")
	require.Equal(t, http.StatusOK, w.Code)
	var tokenBody struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int    `json:"expires_in"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tokenBody))
	assert.Equal(t, "Bearer", tokenBody.TokenType)
	assert.Equal(t, 300, tokenBody.ExpiresIn)
	require.NotEmpty(t, tokenBody.AccessToken)

	w = s.do(http.MethodGet, "/api/me", tokenBody.AccessToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"address":"rADDR123"}`, w.Body.String())

	w = s.do(http.MethodPost, "/auth/disconnect", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decodeView(t, w).IsConnected)

	w = s.do(http.MethodGet, "/api/me", tokenBody.AccessToken)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Wallet disconnected", decodeError(t, w))
}

func TestConnectErrors(t *testing.T) {
	tests := []struct {
		name   string
		client *stubClient
		status int
		msg    string
	}{
		{
			name:   "not configured",
			client: &stubClient{},
			status: http.StatusServiceUnavailable,
			msg:    service.MsgNotConfigured,
		},
		{
			name:   "custodian rejected request",
			client: &stubClient{configured: true, createErr: &core.ServiceError{StatusCode: 403, Message: "forbidden"}},
			status: http.StatusBadGateway,
			msg:    service.MsgCreateFailed,
		},
		{
			name:   "custodian unreachable",
			client: &stubClient{configured: true, createErr: core.ErrNetwork},
			status: http.StatusBadGateway,
			msg:    service.MsgConnectFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, tt.client, 5)

			w := s.do(http.MethodPost, "/auth/connect", "")
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.msg, decodeError(t, w))

			view := decodeView(t, s.do(http.MethodGet, "/auth/state", ""))
			assert.False(t, view.IsConnecting)
			require.NotNil(t, view.Error)
			assert.Equal(t, tt.msg, *view.Error)
		})
	}
}

func TestConnectRateLimited(t *testing.T) {
	s := newTestServer(t, &stubClient{configured: true}, 1)

	w := s.do(http.MethodPost, "/auth/connect", "")
	require.Equal(t, http.StatusAccepted, w.Code)

	w = s.do(http.MethodPost, "/auth/connect", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
}

func TestCancel(t *testing.T) {
	s := newTestServer(t, &stubClient{configured: true}, 5)

	require.Equal(t, http.StatusAccepted, s.do(http.MethodPost, "/auth/connect", "").Code)

	w := s.do(http.MethodPost, "/auth/cancel", "")
	require.Equal(t, http.StatusOK, w.Code)
	view := decodeView(t, w)
	assert.False(t, view.IsConnecting)
	assert.Nil(t, view.QRCode)
	assert.Nil(t, view.Error)
}

func TestDisconnectWhenNotConnected(t *testing.T) {
	s := newTestServer(t, &stubClient{configured: true}, 5)

	for i := 0; i < 2; i++ {
		w := s.do(http.MethodPost, "/auth/disconnect", "")
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestProtectedRoutesRejectBadTokens(t *testing.T) {
	s := newTestServer(t, &stubClient{configured: true}, 5)

	tests := []struct {
		name   string
		header string
		msg    string
	}{
		{name: "missing header", header: "", msg: "Invalid authorization header"},
		{name: "wrong scheme", header: "Basic abc", msg: "Invalid authorization header"},
		{name: "empty bearer", header: "Bearer ", msg: "Invalid authorization header"},
		{name: "garbage token", header: "Bearer not-a-jwt", msg: "Invalid token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			s.router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, tt.msg, decodeError(t, w))
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, &stubClient{configured: true}, 5)

	w := s.do(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "xamanauth_wallet_connected"))
}
