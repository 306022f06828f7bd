package sources

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

const (
	archiveFileName  = "data.zip"
	snapshotFileName = "snapshot.xml"
	extractDirName   = "extracted"

	// maxExtractedSize bounds a single archive member (4GB)
	maxExtractedSize = 4 << 30
)

var zipMagic = []byte("PK\x03\x04")

// ErrNoSnapshot is returned when an archive or directory holds no XML document
var ErrNoSnapshot = errors.New("no XML snapshot found")

// isZip reports whether the file at path starts with the zip local file header
func isZip(path string) (bool, error) {
	f, err := os.Open(path) // #nosec G304 -- path is inside the download dir or configured
	if err != nil {
		return false, err
	}
	defer func() {
		_ = f.Close()
	}()

	head := make([]byte, len(zipMagic))
	if _, err := io.ReadFull(f, head); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return false, nil
		}
		return false, err
	}
	return bytes.Equal(head, zipMagic), nil
}

// extractArchive unpacks the zip at archivePath into a fresh extracted/ directory
// under dir and returns the first XML document in it
func extractArchive(archivePath, dir string) (string, error) {
	dest := filepath.Join(dir, extractDirName)
	if err := os.RemoveAll(dest); err != nil {
		return "", fmt.Errorf("failed to clear %s: %w", dest, err)
	}
	if err := os.MkdirAll(dest, 0o750); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dest, err)
	}

	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return "", fmt.Errorf("failed to open archive %s: %w", archivePath, err)
	}
	defer func() {
		_ = r.Close()
	}()

	for _, f := range r.File {
		if err := extractMember(f, dest); err != nil {
			return "", err
		}
	}
	return firstXML(dest)
}

func extractMember(f *zip.File, dest string) error {
	target := filepath.Join(dest, filepath.FromSlash(f.Name)) // #nosec G305 -- checked below
	if !strings.HasPrefix(target, filepath.Clean(dest)+string(os.PathSeparator)) {
		return fmt.Errorf("archive member %q escapes the extraction directory", f.Name)
	}

	if f.FileInfo().IsDir() {
		return os.MkdirAll(target, 0o750)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return err
	}

	src, err := f.Open()
	if err != nil {
		return fmt.Errorf("failed to open archive member %s: %w", f.Name, err)
	}
	defer func() {
		_ = src.Close()
	}()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600) // #nosec G304
	if err != nil {
		return err
	}
	n, err := io.Copy(out, io.LimitReader(src, maxExtractedSize+1))
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("failed to extract %s: %w", f.Name, err)
	}
	if n > maxExtractedSize {
		return fmt.Errorf("archive member %s exceeds %d bytes", f.Name, int64(maxExtractedSize))
	}
	return nil
}

// firstXML walks dir and returns the lexically first *.xml file
func firstXML(dir string) (string, error) {
	var found []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".xml") {
			found = append(found, path)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if len(found) == 0 {
		return "", fmt.Errorf("%w in %s", ErrNoSnapshot, dir)
	}
	slices.Sort(found)
	return found[0], nil
}

// placeSnapshot turns a download in dir into an XML document path: archives are
// extracted, anything else is renamed to snapshot.xml
func placeSnapshot(path, dir string) (string, error) {
	archive, err := isZip(path)
	if err != nil {
		return "", fmt.Errorf("failed to inspect %s: %w", path, err)
	}
	if archive {
		return extractArchive(path, dir)
	}
	target := filepath.Join(dir, snapshotFileName)
	if err := os.Rename(path, target); err != nil {
		return "", fmt.Errorf("failed to move snapshot into place: %w", err)
	}
	return target, nil
}
