package sources

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/stacklok/accreg-sync/internal/config"
)

//go:generate mockgen -destination=mocks/mock_source_handler.go -package=mocks -source=types.go SourceHandler,SourceHandlerFactory

// SourceHandler fetches snapshots from one kind of origin
type SourceHandler interface {
	// Fetch retrieves the current snapshot and returns where it was placed
	Fetch(ctx context.Context, source *config.SourceConfig) (*FetchResult, error)

	// Validate validates the source configuration
	Validate(source *config.SourceConfig) error
}

// SourceHandlerFactory creates source handlers based on source type
type SourceHandlerFactory interface {
	// CreateHandler creates a source handler for the given source type
	CreateHandler(sourceType string) (SourceHandler, error)
}

// FetchResult describes a snapshot available on local disk
type FetchResult struct {
	// Path is the XML document
	Path string

	// Hash is the hex SHA256 of the document
	Hash string

	// Size is the document size in bytes
	Size int64

	// Origin names where the snapshot came from, e.g. a URL or s3://bucket/key
	Origin string
}

// NewFetchResult hashes the document at path
func NewFetchResult(path, origin string) (*FetchResult, error) {
	hash, size, err := hashFile(path)
	if err != nil {
		return nil, err
	}
	return &FetchResult{Path: path, Hash: hash, Size: size, Origin: origin}, nil
}

func hashFile(path string) (string, int64, error) {
	f, err := os.Open(path) // #nosec G304 -- path comes from configuration or our own download dir
	if err != nil {
		return "", 0, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return "", 0, fmt.Errorf("failed to hash snapshot: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}
