// Package party hands freshly created sessions to the realtime room host.
package party

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
)

const DefaultTimeout = 3 * time.Second

type Settings struct {
	MaxPlayers      int  `json:"maxPlayers"`
	TurnTimeLimit   *int `json:"turnTimeLimit"`
	AllowSpectators bool `json:"allowSpectators"`
	IsPrivate       bool `json:"isPrivate"`
}

// Handoff is the body of POST /party/{roomCode}. The room host must accept
// the same handoff more than once.
type Handoff struct {
	GameConfig   map[string]any `json:"gameConfig"`
	TemplateSlug *string        `json:"templateSlug"`
	Settings     Settings       `json:"settings"`
}

// Client posts handoffs to the room host. A zero BaseURL disables it.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Timeout time.Duration
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
		Timeout: timeout,
	}
}

func (c *Client) Enabled() bool {
	return c != nil && c.BaseURL != ""
}

// Initialize sends the handoff for roomCode. Any non-2xx status is an error.
func (c *Client) Initialize(ctx context.Context, roomCode string, handoff Handoff) error {
	if !c.Enabled() {
		return nil
	}
	payload, err := json.Marshal(handoff)
	if err != nil {
		return fmt.Errorf("encode handoff: %w", err)
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	endpoint := c.BaseURL + "/party/" + url.PathEscape(roomCode)
	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build handoff request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("reach room host: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("room host rejected handoff (%d)", resp.StatusCode)
	}
	return nil
}
