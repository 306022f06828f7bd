package sources

import (
	"context"
	"fmt"
	"os"

	"github.com/stacklok/accreg-sync/internal/config"
)

// fileSourceHandler reads snapshots from the local filesystem
type fileSourceHandler struct{}

// NewFileSourceHandler creates a new file source handler
func NewFileSourceHandler() SourceHandler {
	return &fileSourceHandler{}
}

// Validate validates the file source configuration
func (*fileSourceHandler) Validate(source *config.SourceConfig) error {
	if source == nil {
		return fmt.Errorf("source configuration cannot be nil")
	}
	if source.File == nil {
		return fmt.Errorf("file configuration is required")
	}
	if source.File.Path == "" {
		return fmt.Errorf("file path cannot be empty")
	}
	return nil
}

// Fetch returns the configured XML file, extracting it first when it is an archive
func (h *fileSourceHandler) Fetch(ctx context.Context, source *config.SourceConfig) (*FetchResult, error) {
	if err := h.Validate(source); err != nil {
		return nil, err
	}

	path := source.File.Path
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		xmlPath, err := firstXML(path)
		if err != nil {
			return nil, err
		}
		return NewFetchResult(xmlPath, path)
	}

	archive, err := isZip(path)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect %s: %w", path, err)
	}
	if !archive {
		return NewFetchResult(path, path)
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

	xmlPath, err := extractArchive(path, ws.Dir())
	if err != nil {
		return nil, err
	}
	return NewFetchResult(xmlPath, path)
}
