package sources

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/stacklok/accreg-sync/internal/config"
	"github.com/stacklok/accreg-sync/internal/httpclient"
)

const (
	// DefaultMaxAttempts bounds the download attempts of one fetch
	DefaultMaxAttempts = 4

	defaultInitialRetryWait = 2 * time.Second
	defaultMaxRetryWait     = 30 * time.Second
)

// ErrNoArchiveLink is returned when the configured page links to no zip archive
var ErrNoArchiveLink = errors.New("no archive link found on page")

var archiveLinkPattern = regexp.MustCompile(`(?i)href\s*=\s*["']([^"']+\.zip(?:\?[^"']*)?)["']`)

// apiSourceHandler downloads snapshots over HTTP
type apiSourceHandler struct {
	newClient   func(timeout time.Duration) httpclient.Client
	maxAttempts uint
	backOff     func() backoff.BackOff
}

// APIOption configures the API source handler
type APIOption func(*apiSourceHandler)

// WithHTTPClient replaces the HTTP client, mostly for tests
func WithHTTPClient(client httpclient.Client) APIOption {
	return func(h *apiSourceHandler) {
		h.newClient = func(time.Duration) httpclient.Client { return client }
	}
}

// WithRetry sets the attempt budget and the backoff between attempts
func WithRetry(maxAttempts uint, b func() backoff.BackOff) APIOption {
	return func(h *apiSourceHandler) {
		h.maxAttempts = maxAttempts
		h.backOff = b
	}
}

// NewAPISourceHandler creates a new API source handler
func NewAPISourceHandler(opts ...APIOption) SourceHandler {
	h := &apiSourceHandler{
		newClient: func(timeout time.Duration) httpclient.Client {
			return httpclient.NewDefaultClient(timeout)
		},
		maxAttempts: DefaultMaxAttempts,
		backOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = defaultInitialRetryWait
			b.MaxInterval = defaultMaxRetryWait
			return b
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Validate validates the API source configuration
func (*apiSourceHandler) Validate(source *config.SourceConfig) error {
	if source == nil {
		return fmt.Errorf("source configuration cannot be nil")
	}
	u, err := url.Parse(source.GetURL())
	if err != nil {
		return fmt.Errorf("invalid api url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("api url must use http or https, got %q", u.Scheme)
	}
	return nil
}

// Fetch downloads the configured URL. An HTML page is searched for the archive link,
// which is downloaded in turn.
func (h *apiSourceHandler) Fetch(ctx context.Context, source *config.SourceConfig) (*FetchResult, error) {
	if err := h.Validate(source); err != nil {
		return nil, err
	}

	ws, err := NewWorkspace(source.GetDownloadDir())
	if err != nil {
		return nil, err
	}
	unlock, err := ws.Lock(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	client := h.newClient(source.API.GetTimeout())
	target := source.GetURL()

	path, err := h.download(ctx, client, ws, target)
	if err != nil {
		return nil, err
	}

	page, err := isHTML(path)
	if err != nil {
		return nil, err
	}
	if page {
		link, err := findArchiveLink(path, target)
		if err != nil {
			return nil, err
		}
		slog.InfoContext(ctx, "Discovered snapshot archive", "page", target, "archive", link)
		target = link
		if path, err = h.download(ctx, client, ws, target); err != nil {
			return nil, err
		}
	}

	xmlPath, err := placeSnapshot(path, ws.Dir())
	if err != nil {
		return nil, err
	}
	return NewFetchResult(xmlPath, target)
}

// download fetches target into the workspace, retrying transient failures
func (h *apiSourceHandler) download(
	ctx context.Context, client httpclient.Client, ws *Workspace, target string,
) (string, error) {
	attempt := 0
	op := func() (string, error) {
		attempt++
		tmp, err := ws.TempFile(archiveFileName)
		if err != nil {
			return "", backoff.Permanent(fmt.Errorf("failed to create download file: %w", err))
		}

		n, err := client.Download(ctx, target, tmp)
		if closeErr := tmp.Close(); err == nil {
			err = closeErr
		}
		if err != nil {
			_ = os.Remove(tmp.Name())
			if !httpclient.IsRetryable(err) || ctx.Err() != nil {
				return "", backoff.Permanent(err)
			}
			slog.WarnContext(ctx, "Download attempt failed", "url", target, "attempt", attempt, "error", err)
			return "", err
		}

		slog.DebugContext(ctx, "Downloaded", "url", target, "bytes", n)
		return ws.Commit(tmp.Name(), archiveFileName)
	}

	path, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(h.backOff()),
		backoff.WithMaxTries(h.maxAttempts),
	)
	if err != nil {
		return "", fmt.Errorf("failed to download %s: %w", target, err)
	}
	return path, nil
}

// isHTML sniffs the head of a downloaded file for an HTML document
func isHTML(path string) (bool, error) {
	f, err := os.Open(path) // #nosec G304 -- inside the download dir
	if err != nil {
		return false, err
	}
	defer func() {
		_ = f.Close()
	}()

	head := make([]byte, 512)
	n, _ := f.Read(head)
	text := strings.ToLower(strings.TrimSpace(string(head[:n])))
	return strings.HasPrefix(text, "<!doctype html") || strings.HasPrefix(text, "<html") ||
		(!strings.HasPrefix(text, "<?xml") && strings.Contains(text, "<html")), nil
}

// findArchiveLink returns the first zip link of the page at path, resolved against pageURL
func findArchiveLink(path, pageURL string) (string, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- inside the download dir
	if err != nil {
		return "", err
	}
	m := archiveLinkPattern.FindSubmatch(data)
	if m == nil {
		return "", fmt.Errorf("%w: %s", ErrNoArchiveLink, pageURL)
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(html.UnescapeString(string(m[1])))
	if err != nil {
		return "", fmt.Errorf("invalid archive link %q: %w", m[1], err)
	}
	return base.ResolveReference(ref).String(), nil
}
