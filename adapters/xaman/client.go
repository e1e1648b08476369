package xaman

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/layer-3/xamanauth/core"
	"github.com/layer-3/xamanauth/ports"
)

// DefaultBaseURL is the public Xaman platform API
const DefaultBaseURL = "https://xumm.app/api/v1"

// Config holds the credential and endpoint of the Xaman platform API
type Config struct {
	APIKey    string
	APISecret string
	BaseURL   string
	Timeout   time.Duration
}

// Client implements ports.PairingClient against the Xaman payload API
type Client struct {
	apiKey     string
	apiSecret  string
	baseURL    string
	httpClient *http.Client
}

var _ ports.PairingClient = (*Client)(nil)

// NewClient creates a Xaman client. A missing API key is not an error here;
// every call reports core.ErrNotConfigured instead.
func NewClient(cfg Config) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		apiKey:    strings.TrimSpace(cfg.APIKey),
		apiSecret: strings.TrimSpace(cfg.APISecret),
		baseURL:   baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Configured reports whether an API key is set
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// CreateSignInRequest registers a SignIn payload and returns its QR and deep link
func (c *Client) CreateSignInRequest(ctx context.Context) (core.PairingRequest, error) {
	var created createdPayload
	if err := c.do(ctx, http.MethodPost, "/platform/payload", newSignInPayload(), &created); err != nil {
		return core.PairingRequest{}, err
	}

	deepLink := created.Next.Always
	if deepLink == "" {
		deepLink = created.Refs.QRURI
	}
	if created.UUID == "" || created.Refs.QRPNG == "" {
		return core.PairingRequest{}, &core.ServiceError{
			StatusCode: http.StatusOK,
			Message:    "payload response is missing uuid or qr reference",
		}
	}

	return core.PairingRequest{
		RequestID:  created.UUID,
		QRImageRef: created.Refs.QRPNG,
		DeepLink:   deepLink,
	}, nil
}

// FetchStatus reads the current state of a payload
func (c *Client) FetchStatus(ctx context.Context, requestID string) (core.StatusResult, error) {
	if requestID == "" {
		return core.StatusResult{}, fmt.Errorf("request id is required")
	}

	var status payloadStatus
	if err := c.do(ctx, http.MethodGet, "/platform/payload/"+url.PathEscape(requestID), nil, &status); err != nil {
		return core.StatusResult{}, err
	}

	return core.StatusResult{
		Signed:        status.Meta.Signed,
		Resolved:      status.Meta.Resolved,
		Expired:       status.Meta.Expired,
		Cancelled:     status.Meta.Cancelled,
		WalletAddress: strings.TrimSpace(status.Response.Account),
		AuthToken:     status.Application.IssuedUserToken,
	}, nil
}

// do performs an authenticated request and decodes the JSON response into out
func (c *Client) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	if !c.Configured() {
		return core.ErrNotConfigured
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)
	if c.apiSecret != "" {
		req.Header.Set("X-API-Secret", c.apiSecret)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrNetwork, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: failed to read response: %w", core.ErrNetwork, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &core.ServiceError{
			StatusCode: resp.StatusCode,
			Message:    errorMessage(respBody, resp.StatusCode),
		}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return &core.ServiceError{
			StatusCode: resp.StatusCode,
			Message:    "failed to parse response: " + err.Error(),
		}
	}
	return nil
}

func errorMessage(body []byte, status int) string {
	var e errorBody
	if json.Unmarshal(body, &e) == nil {
		switch {
		case e.Error.Message != "":
			return e.Error.Message
		case e.Message != "":
			return e.Message
		case e.Error.Code != 0:
			return fmt.Sprintf("code %d (reference %s)", e.Error.Code, e.Error.Reference)
		}
	}
	return http.StatusText(status)
}
