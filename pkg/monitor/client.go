package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"digital.vasic.metassert/pkg/report"
)

// ClientOption configures a Client via functional options.
type ClientOption func(*Client)

// Client reads from a monitor Server: the snapshot endpoint and the
// live failure stream.
type Client struct {
	baseURL    string
	httpClient *http.Client
	dialer     *websocket.Dialer
}

// NewClient creates a client for the server at baseURL, e.g.
// "http://localhost:8089".
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		dialer: &websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// WithTimeout overrides the HTTP request and handshake timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
		c.dialer.HandshakeTimeout = d
	}
}

// WithHTTPClient replaces the HTTP client used for snapshots.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// Health reports whether the server answers its health check.
func (c *Client) Health(ctx context.Context) error {
	status, _, err := c.get(ctx, "/health")
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("health returned HTTP %d", status)
	}
	return nil
}

// Snapshot fetches the current statistics and retained failures.
func (c *Client) Snapshot(ctx context.Context) (Snapshot, error) {
	status, data, err := c.get(ctx, "/failures")
	if err != nil {
		return Snapshot{}, err
	}
	if status != http.StatusOK {
		return Snapshot{}, fmt.Errorf(
			"failures returned HTTP %d: %s", status, string(data),
		)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("parse snapshot: %w", err)
	}
	return snap, nil
}

// Subscribe streams failures to handler until ctx is cancelled or
// the connection ends. Cancellation and a normal close return nil.
func (c *Client) Subscribe(ctx context.Context, handler func(report.Record)) error {
	url := "ws" + strings.TrimPrefix(c.baseURL, "http") + "/ws"
	conn, resp, err := c.dialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", url, err)
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	defer conn.Close()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-stop:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			var ce *websocket.CloseError
			if errors.As(err, &ce) && ce.Code == websocket.CloseNormalClosure {
				return nil
			}
			return fmt.Errorf("read failure stream: %w", err)
		}

		var rec report.Record
		if err := json.Unmarshal(data, &rec); err != nil {
			return fmt.Errorf("parse failure record: %w", err)
		}
		handler(rec)
	}
}

func (c *Client) get(ctx context.Context, path string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodGet, c.baseURL+path, nil,
	)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, data, nil
}
