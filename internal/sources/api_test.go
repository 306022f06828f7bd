package sources

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/cenkalti/backoff/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/stacklok/accreg-sync/internal/config"
	"github.com/stacklok/accreg-sync/internal/httpclient"
	"github.com/stacklok/accreg-sync/internal/httpclient/mocks"
)

func noWait() backoff.BackOff {
	return &backoff.ZeroBackOff{}
}

func apiSource(t *testing.T, url string) *config.SourceConfig {
	t.Helper()
	return &config.SourceConfig{
		Type:        config.SourceTypeAPI,
		API:         &config.APIConfig{URL: url},
		DownloadDir: t.TempDir(),
	}
}

func TestAPISourceHandler_Validate(t *testing.T) {
	t.Parallel()

	h := NewAPISourceHandler()
	tests := []struct {
		name    string
		source  *config.SourceConfig
		wantErr bool
	}{
		{name: "nil source", source: nil, wantErr: true},
		{name: "default url", source: &config.SourceConfig{Type: config.SourceTypeAPI}},
		{name: "https url", source: &config.SourceConfig{API: &config.APIConfig{URL: "https://example.com/data.zip"}}},
		{name: "ftp url", source: &config.SourceConfig{API: &config.APIConfig{URL: "ftp://example.com/data.zip"}}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := h.Validate(tt.source)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAPISourceHandler_Fetch(t *testing.T) {
	t.Parallel()

	archive := zipBytes(t, map[string]string{"data-20250301.xml": testSnapshot})

	mux := http.NewServeMux()
	mux.HandleFunc("/opendata/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<!DOCTYPE html><html><body>
			<a href="/docs/readme.pdf">Readme</a>
			<a href="files/data-20250301.zip?v=2&amp;x=1">Archive</a>
		</body></html>`))
	})
	mux.HandleFunc("/opendata/files/data-20250301.zip", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2", r.URL.Query().Get("v"))
		_, _ = w.Write(archive)
	})
	mux.HandleFunc("/plain.xml", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(testSnapshot))
	})
	mux.HandleFunc("/nolinks/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body>nothing here</body></html>`))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	tests := []struct {
		name       string
		path       string
		wantOrigin string
		wantErr    error
	}{
		{name: "page linking to archive", path: "/opendata/", wantOrigin: "/opendata/files/data-20250301.zip?v=2&x=1"},
		{name: "direct xml", path: "/plain.xml", wantOrigin: "/plain.xml"},
		{name: "page without archive", path: "/nolinks/", wantErr: ErrNoArchiveLink},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := NewAPISourceHandler(WithRetry(2, noWait))
			res, err := h.Fetch(context.Background(), apiSource(t, server.URL+tt.path))
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, server.URL+tt.wantOrigin, res.Origin)

			data, err := os.ReadFile(res.Path)
			require.NoError(t, err)
			assert.Equal(t, testSnapshot, string(data))
			assert.Len(t, res.Hash, 64)
		})
	}
}

func TestAPISourceHandler_Retries(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		failures  int32
		status    int
		wantCalls int32
		wantErr   bool
	}{
		{name: "recovers after server errors", failures: 2, status: http.StatusServiceUnavailable, wantCalls: 3},
		{name: "gives up after the attempt budget", failures: 10, status: http.StatusBadGateway, wantCalls: 3, wantErr: true},
		{name: "does not retry not found", failures: 10, status: http.StatusNotFound, wantCalls: 1, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var calls atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				if calls.Add(1) <= tt.failures {
					w.WriteHeader(tt.status)
					return
				}
				_, _ = w.Write([]byte(testSnapshot))
			}))
			defer server.Close()

			h := NewAPISourceHandler(WithRetry(3, noWait))
			_, err := h.Fetch(context.Background(), apiSource(t, server.URL+"/data.xml"))
			if tt.wantErr {
				require.Error(t, err)
				var httpErr *httpclient.HTTPError
				assert.ErrorAs(t, err, &httpErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantCalls, calls.Load())
		})
	}
}

func TestAPISourceHandler_WithHTTPClient(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	client := mocks.NewMockClient(ctrl)
	client.EXPECT().
		Download(gomock.Any(), "https://example.com/data.zip", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, w io.Writer) (int64, error) {
			n, err := w.Write(zipBytes(t, map[string]string{"x.xml": testSnapshot}))
			return int64(n), err
		})

	h := NewAPISourceHandler(WithHTTPClient(client), WithRetry(1, noWait))
	res, err := h.Fetch(context.Background(), apiSource(t, "https://example.com/data.zip"))
	require.NoError(t, err)
	assert.Equal(t, "x.xml", filepath.Base(res.Path))
}

func TestFindArchiveLink(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		page    string
		pageURL string
		want    string
	}{
		{
			name:    "relative link",
			page:    `<a href="data.zip">x</a>`,
			pageURL: "https://example.com/opendata/",
			want:    "https://example.com/opendata/data.zip",
		},
		{
			name:    "absolute path with single quotes",
			page:    `<A HREF='/files/Data.ZIP'>x</A>`,
			pageURL: "https://example.com/opendata/",
			want:    "https://example.com/files/Data.ZIP",
		},
		{
			name:    "first of several links",
			page:    `<a href="https://cdn.example.com/a.zip">a</a><a href="b.zip">b</a>`,
			pageURL: "https://example.com/",
			want:    "https://cdn.example.com/a.zip",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := t.TempDir() + "/page.html"
			require.NoError(t, os.WriteFile(path, []byte(tt.page), 0o600))

			got, err := findArchiveLink(path, tt.pageURL)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
