// Package discovery implements the bootstrap list and tracker adapters used
// to fill the peer set at startup. Every failure here is non-fatal, the
// node proceeds with whatever peers it already has.
package discovery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// defaultTimeout bounds each discovery request.
const defaultTimeout = 5 * time.Second

// Client provides access to the external discovery services.
type Client struct {
	http *http.Client
}

// New constructs a discovery client.
func New() *Client {
	return &Client{
		http: &http.Client{Timeout: defaultTimeout},
	}
}

// FetchBootstrapPeers retrieves the static bootstrap list, a JSON array of
// peer endpoints.
func (c *Client) FetchBootstrapPeers(ctx context.Context, url string) ([]string, error) {
	return c.fetchPeers(ctx, url)
}

// RegisterWithTracker registers this node's endpoint with the tracker so
// other nodes can discover it.
func (c *Client) RegisterWithTracker(ctx context.Context, trackerURL string, self string) error {
	body, err := json.Marshal(struct {
		Host string `json:"host"`
	}{Host: self})
	if err != nil {
		return fmt.Errorf("encode registration: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, trackerURL+"/register", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build registration request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("register with tracker: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("register with tracker: status %d", resp.StatusCode)
	}

	return nil
}

// FetchTrackerPeers retrieves the peer endpoints known to the tracker.
func (c *Client) FetchTrackerPeers(ctx context.Context, trackerURL string) ([]string, error) {
	return c.fetchPeers(ctx, trackerURL+"/peers")
}

// fetchPeers performs a GET and decodes a JSON array of endpoints.
func (c *Client) fetchPeers(ctx context.Context, url string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build peers request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch peers: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch peers: status %d", resp.StatusCode)
	}

	var peers []string
	if err := json.NewDecoder(resp.Body).Decode(&peers); err != nil {
		return nil, fmt.Errorf("decode peers: %w", err)
	}

	return peers, nil
}
