package remote

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// textExtensions are the result-archive entries we accept as extracted
// text, in no particular order; entries are scanned in archive order and
// the first match wins.
var textExtensions = map[string]struct{}{
	".md":   {},
	".txt":  {},
	".json": {},
	".html": {},
}

// packPayload wraps a raster image into a single-entry zip. The service
// only accepts its native document format or archives, so images travel
// inside one.
func packPayload(name string, data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	w, err := zw.Create(name)
	if err != nil {
		zw.Close()
		return nil, fmt.Errorf("failed to create archive entry: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		zw.Close()
		return nil, fmt.Errorf("failed to write archive entry: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize archive: %w", err)
	}
	return buf.Bytes(), nil
}

// extractText returns the contents of the first text-bearing entry in a
// result archive, decoded as UTF-8.
func extractText(archive []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return "", fmt.Errorf("result is not a readable archive: %w", err)
	}

	for _, f := range zr.File {
		ext := strings.ToLower(filepath.Ext(f.Name))
		if _, ok := textExtensions[ext]; !ok {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("failed to open archive entry %s: %w", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", fmt.Errorf("failed to read archive entry %s: %w", f.Name, err)
		}
		if !utf8.Valid(data) {
			return "", fmt.Errorf("archive entry %s is not valid UTF-8", f.Name)
		}
		return string(data), nil
	}
	return "", fmt.Errorf("no text entry found among %d archive entries", len(zr.File))
}
