package viwanda

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"
)

// ErrFetch marks a failed retrieval of a listing page or a bulletin.
var ErrFetch = errors.New("fetch failed")

const userAgent = "cropprice-harvester/1.0"

// HTTPClient performs the harvester's GET requests. Every failure wraps
// ErrFetch; nothing is retried.
type HTTPClient struct {
	client    *http.Client
	userAgent string
}

// NewHTTPClient creates an HTTPClient whose requests may take up to timeout
// end to end, body included.
func NewHTTPClient(timeout time.Duration) *HTTPClient {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        20,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	return &HTTPClient{
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		userAgent: userAgent,
	}
}

// Get fetches rawURL and returns the open body with its Content-Type.
// Statuses outside 2xx are failures. The caller closes the body.
func (h *HTTPClient) Get(ctx context.Context, rawURL string) (io.ReadCloser, string, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, "", fmt.Errorf("%w: invalid url %q", ErrFetch, rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %s: %w", ErrFetch, rawURL, err)
	}
	req.Header.Set("User-Agent", h.userAgent)

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %s: %w", ErrFetch, rawURL, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, "", fmt.Errorf("%w: %s: http status %d", ErrFetch, rawURL, resp.StatusCode)
	}

	return resp.Body, resp.Header.Get("Content-Type"), nil
}
