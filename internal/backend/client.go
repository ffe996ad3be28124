// Package backend is the HTTP client for the shop backend. Every endpoint the
// terminal consumes is a method on Client returning a typed payload or *Error.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eterno/pos-terminal/internal/config"
)

type ctxKey int

const ctxKeyRequestID ctxKey = iota

// WithRequestID returns a context whose backend calls carry id as X-Request-Id
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID, id)
}

// RequestIDFromContext returns the request id stored by WithRequestID
func RequestIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(ctxKeyRequestID).(string)
	return v
}

// Client talks to the shop backend and tracks whether it is reachable
type Client struct {
	baseURL string
	cookie  string
	client  *http.Client
	logger  *zap.Logger
	mu      sync.Mutex

	connected bool
	lastError error
	lastSeen  time.Time
}

// NewClient creates a backend client from configuration
func NewClient(cfg config.BackendConfig, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		cookie:  cfg.Cookie,
		client:  &http.Client{Timeout: timeout},
		logger:  logger.Named("backend"),
	}
}

// Status returns the current connection status
func (c *Client) Status() ConnectionStatus {
	c.mu.Lock()
	defer c.mu.Unlock()

	errStr := ""
	if c.lastError != nil {
		errStr = c.lastError.Error()
	}

	return ConnectionStatus{
		Connected: c.connected,
		LastError: errStr,
		LastSeen:  c.lastSeen,
	}
}

// envelope is the status part every backend JSON response may carry.
type envelope struct {
	Success *bool  `json:"success"`
	Error   string `json:"error"`
}

// doJSON sends body (if non-nil) as JSON and decodes the response into out.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := c.newRequest(ctx, method, path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, transportError(err)
	}
	req.Header.Set("Accept", "application/json")
	reqID := RequestIDFromContext(ctx)
	if reqID == "" {
		reqID = uuid.NewString()
	}
	req.Header.Set("X-Request-Id", reqID)
	if c.cookie != "" {
		req.Header.Set("Cookie", c.cookie)
	}
	return req, nil
}

// do executes req and applies the envelope rule: a 4xx/5xx status or
// success:false is a business error carrying the server's message.
func (c *Client) do(req *http.Request, out any) error {
	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.setError(err)
		c.logger.Warn("backend request failed",
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.Error(err))
		return transportError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.setError(err)
		return transportError(err)
	}
	c.setSeen()

	c.logger.Debug("backend request",
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)))

	var env envelope
	jsonErr := json.Unmarshal(data, &env)
	if resp.StatusCode >= http.StatusBadRequest {
		return businessError(resp.StatusCode, env.Error)
	}
	if jsonErr != nil {
		return businessError(resp.StatusCode, fmt.Sprintf("request failed with status %d: invalid response body", resp.StatusCode))
	}
	if env.Success != nil && !*env.Success {
		msg := env.Error
		if msg == "" {
			msg = "request was not successful"
		}
		return &Error{Kind: KindBusiness, Status: resp.StatusCode, Message: msg}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &Error{Kind: KindBusiness, Status: resp.StatusCode, Message: "invalid response body", Err: err}
	}
	return nil
}

func (c *Client) setSeen() {
	c.mu.Lock()
	c.connected = true
	c.lastError = nil
	c.lastSeen = time.Now()
	c.mu.Unlock()
}

func (c *Client) setError(err error) {
	c.mu.Lock()
	c.connected = false
	c.lastError = err
	c.mu.Unlock()
}
