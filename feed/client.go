package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// ErrNotFound is returned when the trajectory source does not exist.
var ErrNotFound = errors.New("trajectory source not found")

// Fetcher retrieves raw trajectories. Implementations must stop and return
// the context error when ctx is canceled.
type Fetcher interface {
	FetchTrajectories(ctx context.Context, url string) ([]Record, error)
}

// Client fetches GeoJSON trajectories from HTTP URLs or local files.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a client whose requests give up after timeout. A zero
// timeout waits for the context only.
func NewClient(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Fetch returns the raw bytes at urlOrPath, which is either an http(s) URL
// or a local file path.
func (c *Client) Fetch(ctx context.Context, urlOrPath string) ([]byte, error) {
	if urlOrPath == "" {
		return nil, fmt.Errorf("%w: empty location", ErrNotFound)
	}

	if !strings.HasPrefix(urlOrPath, "http://") && !strings.HasPrefix(urlOrPath, "https://") {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := os.ReadFile(urlOrPath)
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, urlOrPath)
		}
		return data, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlOrPath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", urlOrPath, err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", urlOrPath, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, urlOrPath)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, urlOrPath)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", urlOrPath, err)
	}
	return data, nil
}

// FetchTrajectories fetches and decodes the GeoJSON at url.
func (c *Client) FetchTrajectories(ctx context.Context, url string) ([]Record, error) {
	data, err := c.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}
