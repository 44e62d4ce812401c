package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/healthchat/backend/internal/model/chat"
)

const (
	chatTimeout   = 5 * time.Second
	healthTimeout = 2 * time.Second
)

// Fallback answers locally when the backend cannot.
type Fallback interface {
	Resolve(ctx context.Context, text, sessionID string) (chat.Response, error)
}

// Health is the subset of /api/health the client cares about.
type Health struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp,omitempty"`
	Message   string `json:"message,omitempty"`
}

// Client talks to the backend chat API and falls back to a local resolver
// whenever the backend is unreachable or answers with an error.
type Client struct {
	baseURL    string
	httpClient *http.Client
	fallback   Fallback
}

// New returns a client for the backend at baseURL. fallback may be nil, in
// which case backend failures are returned to the caller.
func New(baseURL string, fallback Fallback) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		fallback:   fallback,
	}
}

// Resolve sends text to POST /api/chat, falling back on any failure.
func (c *Client) Resolve(ctx context.Context, text, sessionID string) (chat.Response, error) {
	resp, err := c.postChat(ctx, chat.Request{Message: text, SessionID: sessionID})
	if err == nil {
		return resp, nil
	}
	if c.fallback == nil {
		return chat.Response{}, err
	}

	log.Printf("[client] server API unavailable, using fallback: %v", err)
	return c.fallback.Resolve(ctx, text, sessionID)
}

// CheckHealth probes GET /api/health and reports "unhealthy" on any failure.
func (c *Client) CheckHealth(ctx context.Context) Health {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/health", nil)
	if err != nil {
		return Health{Status: "unhealthy"}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("[client] health check failed: %v", err)
		return Health{Status: "unhealthy"}
	}
	defer resp.Body.Close()

	var health Health
	if resp.StatusCode != http.StatusOK || json.NewDecoder(resp.Body).Decode(&health) != nil || health.Status == "" {
		return Health{Status: "unhealthy"}
	}
	return health
}

func (c *Client) postChat(ctx context.Context, payload chat.Request) (chat.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, chatTimeout)
	defer cancel()

	body, err := json.Marshal(payload)
	if err != nil {
		return chat.Response{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return chat.Response{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return chat.Response{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return chat.Response{}, fmt.Errorf("chat API returned status %d", resp.StatusCode)
	}

	var out chat.Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return chat.Response{}, fmt.Errorf("decode chat response: %w", err)
	}
	return out, nil
}
