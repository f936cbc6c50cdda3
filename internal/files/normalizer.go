// Package files normalizes heterogeneous file-handle representations into
// one canonical shape before a request is built.
package files

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pmarinho/analisador-fiscal/internal/model"
)

// ErrEmptyInput is returned when an input carries no handle at all.
var ErrEmptyInput = errors.New("file input carries no handle")

// AddFile appends candidate to list unless an equivalent handle is already
// present. Repeated add events for the same physical file never produce
// duplicates; the original slice is returned unchanged in that case.
func AddFile(list []model.FileHandle, candidate model.FileHandle) []model.FileHandle {
	for _, h := range list {
		if h.Equivalent(candidate) {
			return list
		}
	}
	return append(list, candidate)
}

// Unwrap collapses the raw-or-wrapped input union into a plain handle.
// Downstream code only ever sees the canonical shape.
func Unwrap(in model.Input) (model.FileHandle, error) {
	switch {
	case in.Wrapped != nil:
		return in.Wrapped.OriginFile, nil
	case in.Raw != nil:
		return *in.Raw, nil
	default:
		return model.FileHandle{}, ErrEmptyInput
	}
}

// EnsureFilename returns the handle's name, synthesizing a deterministic
// one from the slot role and ordinal index when it is empty. The remote
// service parses filenames to route content, so a name is mandatory.
func EnsureFilename(h model.FileHandle, role string, index int) string {
	if h.Name != "" {
		return h.Name
	}
	ext := filepath.Ext(h.Path)
	return fmt.Sprintf("%s_%d%s", role, index+1, ext)
}

// FromPath builds a handle from a file on disk, capturing the metadata
// used for deduplication.
func FromPath(path string) (model.FileHandle, error) {
	info, err := os.Stat(path)
	if err != nil {
		return model.FileHandle{}, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return model.FileHandle{}, fmt.Errorf("%s is a directory", path)
	}
	return model.FileHandle{
		Name:         info.Name(),
		Path:         path,
		Size:         info.Size(),
		LastModified: info.ModTime().UnixMilli(),
	}, nil
}
