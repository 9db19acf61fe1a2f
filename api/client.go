// Package api is the client for the RBW-Tech licensing server.
//
// Errors are classified for the verification session: connectivity
// failures, timeouts, rate limiting and 5xx responses wrap
// common.ErrTransient; an explicit rejection of the key is
// common.ErrKeyRejected.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rbwtech/ovpn-client/common"
)

// HeaderAPIKey carries the licensing key on authenticated requests.
const HeaderAPIKey = "X-API-KEY"

// maxBodySize bounds responses read into memory; generated configs are a few KiB.
const maxBodySize = 1 << 20

// Server is a VPN endpoint offered by the licensing server.
type Server struct {
	Code    string `json:"code"`
	Name    string `json:"name"`
	IP      string `json:"ip"`
	UDPPort uint16 `json:"udp_port"`
	TCPPort uint16 `json:"tcp_port"`
}

// GenerateRequest asks the server to issue a client configuration.
type GenerateRequest struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	ServerCode string `json:"server_code"`
	Protocol   string `json:"protocol"`
	ExpiryDays *int   `json:"expiry_days"`
}

type verifyResponse struct {
	Valid          bool   `json:"valid"`
	Username       string `json:"username"`
	ServerLocation string `json:"server_location"`
}

// StatusError is a non-success HTTP response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("server returned %d %s", e.Code, http.StatusText(e.Code))
	}
	return fmt.Sprintf("server returned %d: %s", e.Code, e.Body)
}

// Client talks to the licensing server.
type Client struct {
	baseURL string
	http    *http.Client
	log     common.Logger
}

// NewClient creates a client for baseURL with a per-request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		log:     common.GetLogger().With("api"),
	}
}

// Verify checks apiKey and returns the account it belongs to.
func (c *Client) Verify(ctx context.Context, apiKey string) (common.User, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/v1/app/verify", nil)
	if err != nil {
		return common.User{}, err
	}
	req.Header.Set(HeaderAPIKey, apiKey)

	body, err := c.do(req)
	if err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) && (statusErr.Code == http.StatusUnauthorized || statusErr.Code == http.StatusForbidden) {
			return common.User{}, fmt.Errorf("%w: %v", common.ErrKeyRejected, err)
		}
		return common.User{}, err
	}

	var resp verifyResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return common.User{}, fmt.Errorf("decode verify response: %w", err)
	}
	if !resp.Valid {
		return common.User{}, common.ErrKeyRejected
	}

	return common.User{Username: resp.Username, ServerLocation: resp.ServerLocation}, nil
}

// ListServers returns the available VPN servers.
func (c *Client) ListServers(ctx context.Context) ([]Server, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/servers", nil)
	if err != nil {
		return nil, err
	}

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var servers []Server
	if err := json.Unmarshal(body, &servers); err != nil {
		return nil, fmt.Errorf("decode server list: %w", err)
	}
	return servers, nil
}

// GenerateConfig issues a new OpenVPN configuration and returns its text.
func (c *Client) GenerateConfig(ctx context.Context, apiKey string, gen GenerateRequest) (string, error) {
	payload, err := json.Marshal(gen)
	if err != nil {
		return "", err
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/generate", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set(HeaderAPIKey, apiKey)
	req.Header.Set("Content-Type", "application/json")

	body, err := c.do(req)
	if err != nil {
		return "", fmt.Errorf("generate config: %w", err)
	}
	return string(body), nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", common.BinaryName)
	return req, nil
}

// do sends req and returns the body of a 2xx response.
func (c *Client) do(req *http.Request) ([]byte, error) {
	c.log.Debug("%s %s", req.Method, req.URL.Path)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrTransient, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", common.ErrTransient, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
		if len(statusErr.Body) > 200 {
			statusErr.Body = statusErr.Body[:200]
		}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return nil, fmt.Errorf("%w: %w", common.ErrTransient, statusErr)
		}
		return nil, statusErr
	}

	return body, nil
}
