// Package httpclient provides the HTTP client the snapshot fetcher downloads through
package httpclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	// DefaultTimeout bounds a whole request including the body transfer
	DefaultTimeout = 10 * time.Minute

	// MaxPageSize is the largest page body Get accepts (10MB)
	MaxPageSize = 10 * 1024 * 1024

	// MaxDownloadSize is the largest body Download accepts (2GB)
	MaxDownloadSize = 2 * 1024 * 1024 * 1024

	// UserAgent is the user agent string for HTTP requests
	UserAgent = "accreg-sync/1.0"
)

//go:generate mockgen -destination=mocks/mock_client.go -package=mocks github.com/stacklok/accreg-sync/internal/httpclient Client

// Client is an interface for HTTP operations
type Client interface {
	// Get performs an HTTP GET request and returns the response body
	Get(ctx context.Context, url string) ([]byte, error)

	// Download streams the body of url into w and returns the number of bytes written
	Download(ctx context.Context, url string, w io.Writer) (int64, error)
}

// DefaultClient is the default HTTP client implementation
type DefaultClient struct {
	client          *http.Client
	maxDownloadSize int64
}

// NewDefaultClient creates a client with the given timeout, or DefaultTimeout when zero
func NewDefaultClient(timeout time.Duration) *DefaultClient {
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &DefaultClient{
		client:          &http.Client{Timeout: timeout},
		maxDownloadSize: MaxDownloadSize,
	}
}

func (c *DefaultClient) do(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, NewHTTPError(resp.StatusCode, url, resp.Status)
	}
	return resp, nil
}

// Get performs an HTTP GET request
func (c *DefaultClient) Get(ctx context.Context, url string) ([]byte, error) {
	resp, err := c.do(ctx, url)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.ContentLength > MaxPageSize {
		return nil, fmt.Errorf("response size %d bytes exceeds maximum allowed size of %d bytes",
			resp.ContentLength, MaxPageSize)
	}

	// one extra byte tells an oversized body from one that fits exactly
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxPageSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(body)) > MaxPageSize {
		return nil, fmt.Errorf("response size exceeds maximum allowed size of %d bytes", MaxPageSize)
	}
	return body, nil
}

// Download streams the response body into w
func (c *DefaultClient) Download(ctx context.Context, url string, w io.Writer) (int64, error) {
	resp, err := c.do(ctx, url)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.ContentLength > c.maxDownloadSize {
		return 0, fmt.Errorf("download size %d bytes exceeds maximum allowed size of %d bytes",
			resp.ContentLength, c.maxDownloadSize)
	}

	n, err := io.Copy(w, io.LimitReader(resp.Body, c.maxDownloadSize+1))
	if err != nil {
		return n, fmt.Errorf("failed to read response body: %w", err)
	}
	if n > c.maxDownloadSize {
		return n, fmt.Errorf("download exceeds maximum allowed size of %d bytes", c.maxDownloadSize)
	}
	return n, nil
}
