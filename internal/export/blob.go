package export

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
)

var dispositionFilename = regexp.MustCompile(`(?i)filename="([^"]*)"`)

// FilenameFromHeader extracts the suggested filename from the
// content-disposition header. A missing or malformed header is silently
// recovered with the tool's default name, never surfaced as an error.
func FilenameFromHeader(header http.Header, fallback string) string {
	value := header.Get("Content-Disposition")
	if value == "" {
		return fallback
	}
	match := dispositionFilename.FindStringSubmatch(value)
	if match == nil || match[1] == "" {
		return fallback
	}
	return filepath.Base(match[1])
}

// SaveBlob writes an opaque server payload into dir under the filename
// suggested by the response headers, and returns the written path.
func SaveBlob(dir string, data []byte, header http.Header, fallback string) (string, error) {
	name := FilenameFromHeader(header, fallback)
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}
