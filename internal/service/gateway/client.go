package gateway

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

	"github.com/healthchat/backend/internal/config"
	"github.com/healthchat/backend/internal/model/chat"
)

var (
	ErrGatewayDisabled = errors.New("gateway endpoint not configured")
	ErrEmptyReply      = errors.New("gateway returned an empty message")
)

// StatusError reports a non-2xx answer from the gateway.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("gateway request failed with status %d", e.StatusCode)
}

// Client posts chat messages to a remote `{endpoint}/chat` route.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// NewClient builds a client from cfg. It returns ErrGatewayDisabled when the
// endpoint is still the placeholder.
func NewClient(cfg config.GatewayConfig) (*Client, error) {
	if !cfg.Enabled() {
		return nil, ErrGatewayDisabled
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &Client{
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// Send makes a single attempt; callers fall back on any error.
func (c *Client) Send(ctx context.Context, req chat.Request) (chat.Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return chat.Response{}, fmt.Errorf("marshal gateway request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/chat", bytes.NewReader(body))
	if err != nil {
		return chat.Response{}, fmt.Errorf("build gateway request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return chat.Response{}, fmt.Errorf("gateway request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return chat.Response{}, &StatusError{StatusCode: resp.StatusCode}
	}

	var out chat.Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return chat.Response{}, fmt.Errorf("decode gateway response: %w", err)
	}
	if strings.TrimSpace(out.Message) == "" {
		return chat.Response{}, ErrEmptyReply
	}
	if out.SessionID == "" {
		out.SessionID = req.SessionID
	}
	return out, nil
}
