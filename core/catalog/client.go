package catalog

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"
)

var (
	// ErrCatalogNotFound means the playlist does not exist upstream.
	ErrCatalogNotFound = errors.New("catalog: playlist not found")
	// ErrCatalogUnavailable covers transport failures and non-2xx answers.
	ErrCatalogUnavailable = errors.New("catalog: upstream unavailable")
)

// Client talks to a Deezer-compatible catalog API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
}

// NewClient creates an API client for baseURL, e.g. "https://api.deezer.com".
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		userAgent: "blindtest/1.0",
	}
}

// SetBaseURL changes the API base URL.
func (c *Client) SetBaseURL(url string) {
	c.baseURL = strings.TrimRight(url, "/")
}

// SetTimeout changes the per-request timeout.
func (c *Client) SetTimeout(timeout time.Duration) {
	c.httpClient.Timeout = timeout
}

func (c *Client) createRequest(ctx context.Context, method, url string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "*/*")
	req.Header.Set("User-Agent", c.userAgent)
	return req, nil
}
