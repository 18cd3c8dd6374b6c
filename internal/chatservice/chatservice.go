// Package chatservice implements the HTTP JSON client for the chat and
// chat-log endpoints. The conversation engine talks to the backend only
// through this client, keeping the endpoints an opaque request/response API.
package chatservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/capshealth/healthbot/internal/models"
)

// Endpoint paths on the chat backend.
const (
	ChatPath    = "/api/chat"
	ChatLogPath = "/api/chatlog"
)

// Opts holds client configuration options.
type Opts struct {
	BaseURL    string
	HTTPClient *http.Client
}

// Option configures the chat service client.
type Option func(*Opts)

// WithBaseURL sets the backend base URL, e.g. "http://localhost:8080".
func WithBaseURL(baseURL string) Option {
	return func(o *Opts) { o.BaseURL = baseURL }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(o *Opts) { o.HTTPClient = c }
}

// Client speaks the chat backend's wire protocol.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a chat service client for the given base URL.
func NewClient(opts ...Option) (*Client, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.BaseURL == "" {
		slog.Error("chatservice.NewClient: base URL not set")
		return nil, fmt.Errorf("chat service base URL not set")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		http:    httpClient,
	}, nil
}

// Chat posts one user message and returns the bot reply. Any non-2xx status
// maps to the error message "HTTP error! status: <code>"; a 2xx response
// without a reply field maps to the response's error field when present.
func (c *Client) Chat(ctx context.Context, req models.ChatRequest) (string, error) {
	var reply models.ChatReply
	status, err := c.postJSON(ctx, ChatPath, req, &reply)
	if err != nil {
		return "", err
	}
	if status < 200 || status >= 300 {
		slog.Warn("chatservice.Chat: non-2xx status", "status", status)
		return "", fmt.Errorf("HTTP error! status: %d", status)
	}
	if reply.Reply == "" {
		message := reply.Error
		if message == "" {
			message = "Failed to get response"
		}
		slog.Warn("chatservice.Chat: response missing reply", "error", reply.Error)
		return "", fmt.Errorf("%s", message)
	}
	return reply.Reply, nil
}

// AppendLog posts one exchange to the chat log endpoint. The response body is
// ignored beyond the status code.
func (c *Client) AppendLog(ctx context.Context, req models.ChatLogRequest) error {
	status, err := c.postJSON(ctx, ChatLogPath, req, nil)
	if err != nil {
		return err
	}
	if status < 200 || status >= 300 {
		return fmt.Errorf("HTTP error! status: %d", status)
	}
	return nil
}

// postJSON posts the request body and decodes the response into out when the
// caller wants it. Returns the HTTP status code.
func (c *Client) postJSON(ctx context.Context, path string, body, out interface{}) (int, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return 0, fmt.Errorf("chat service request failed: %w", err)
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}
