package files

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pmarinho/analisador-fiscal/internal/model"
)

func TestAddFileDeduplicates(t *testing.T) {
	a := model.FileHandle{Name: "nota.xml", Size: 1024, LastModified: 1700000000000}
	sameMetadata := model.FileHandle{Name: "nota.xml", Size: 1024, LastModified: 1700000000000, Path: "/elsewhere/nota.xml"}

	list := AddFile(nil, a)
	list = AddFile(list, sameMetadata)

	assert.Len(t, list, 1, "re-adding the same physical file must be idempotent")
}

func TestAddFileDistinguishesMetadata(t *testing.T) {
	tests := []struct {
		name      string
		first     model.FileHandle
		second    model.FileHandle
		wantCount int
	}{
		{
			name:      "different name",
			first:     model.FileHandle{Name: "a.xml", Size: 10, LastModified: 1},
			second:    model.FileHandle{Name: "b.xml", Size: 10, LastModified: 1},
			wantCount: 2,
		},
		{
			name:      "different size",
			first:     model.FileHandle{Name: "a.xml", Size: 10, LastModified: 1},
			second:    model.FileHandle{Name: "a.xml", Size: 11, LastModified: 1},
			wantCount: 2,
		},
		{
			name:      "different modification time",
			first:     model.FileHandle{Name: "a.xml", Size: 10, LastModified: 1},
			second:    model.FileHandle{Name: "a.xml", Size: 10, LastModified: 2},
			wantCount: 2,
		},
		{
			name:      "all three equal",
			first:     model.FileHandle{Name: "a.xml", Size: 10, LastModified: 1},
			second:    model.FileHandle{Name: "a.xml", Size: 10, LastModified: 1},
			wantCount: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list := AddFile(AddFile(nil, tt.first), tt.second)
			assert.Len(t, list, tt.wantCount)
		})
	}
}

func TestUnwrap(t *testing.T) {
	raw := model.FileHandle{Name: "nota.xml", Size: 5, LastModified: 9}

	got, err := Unwrap(model.RawInput(raw))
	require.NoError(t, err)
	assert.Equal(t, raw, got)

	got, err = Unwrap(model.WrappedInput(model.Envelope{UID: "rc-1", OriginFile: raw}))
	require.NoError(t, err)
	assert.Equal(t, raw, got)

	_, err = Unwrap(model.Input{})
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestEnsureFilename(t *testing.T) {
	tests := []struct {
		name   string
		handle model.FileHandle
		role   string
		index  int
		want   string
	}{
		{
			name:   "existing name kept",
			handle: model.FileHandle{Name: "nota.xml"},
			role:   "nfe",
			index:  3,
			want:   "nota.xml",
		},
		{
			name:   "empty name synthesized",
			handle: model.FileHandle{Path: "/tmp/upload.xml"},
			role:   "nfe",
			index:  0,
			want:   "nfe_1.xml",
		},
		{
			name:   "index is ordinal",
			handle: model.FileHandle{Path: "/tmp/upload.xml"},
			role:   "nfe",
			index:  4,
			want:   "nfe_5.xml",
		},
		{
			name:   "no extension available",
			handle: model.FileHandle{},
			role:   "sped",
			index:  0,
			want:   "sped_1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EnsureFilename(tt.handle, tt.role, tt.index))
		})
	}
}

func TestFromPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sped.txt")
	require.NoError(t, os.WriteFile(path, []byte("|0000|"), 0600))

	handle, err := FromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "sped.txt", handle.Name)
	assert.Equal(t, path, handle.Path)
	assert.Equal(t, int64(6), handle.Size)
	assert.Positive(t, handle.LastModified)

	_, err = FromPath(filepath.Join(dir, "missing.txt"))
	assert.Error(t, err)

	_, err = FromPath(dir)
	assert.Error(t, err)
}
