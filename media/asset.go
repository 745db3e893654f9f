package media

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Asset is a library item that can be exported.
type Asset interface {
	Identifier() string
	// Open returns the asset's data. It returns ErrNoRepresentation (or an
	// error wrapping fs.ErrNotExist) when there is nothing to read.
	Open() (io.ReadCloser, error)
}

// FileAsset is an asset backed by a file under a library root.
type FileAsset struct {
	root string
	rel  string
}

// NewFileAsset resolves rel inside root. Paths escaping root are rejected.
func NewFileAsset(root, rel string) (*FileAsset, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("invalid library root '%s': %w", root, err)
	}
	cleanRel := filepath.Clean("/" + filepath.FromSlash(rel))
	full := filepath.Join(absRoot, cleanRel)
	if full != absRoot && !strings.HasPrefix(full, absRoot+string(filepath.Separator)) {
		return nil, fmt.Errorf("invalid path: access denied for '%s'", rel)
	}
	return &FileAsset{root: absRoot, rel: filepath.ToSlash(strings.TrimPrefix(cleanRel, string(filepath.Separator)))}, nil
}

func (a *FileAsset) Identifier() string {
	return a.rel
}

// Path returns the absolute path of the backing file.
func (a *FileAsset) Path() string {
	return filepath.Join(a.root, filepath.FromSlash(a.rel))
}

func (a *FileAsset) Open() (io.ReadCloser, error) {
	info, err := os.Stat(a.Path())
	if err != nil {
		return nil, fmt.Errorf("stat asset '%s': %w", a.rel, err)
	}
	if info.IsDir() || info.Size() == 0 {
		return nil, ErrNoRepresentation
	}
	return os.Open(a.Path())
}

// BytesAsset is an in-memory asset. A nil Data has no representation.
type BytesAsset struct {
	ID   string
	Data []byte
}

func (a *BytesAsset) Identifier() string {
	return a.ID
}

func (a *BytesAsset) Open() (io.ReadCloser, error) {
	if len(a.Data) == 0 {
		return nil, ErrNoRepresentation
	}
	return io.NopCloser(bytes.NewReader(a.Data)), nil
}

func isMissing(err error) bool {
	return errors.Is(err, ErrNoRepresentation) || errors.Is(err, fs.ErrNotExist)
}
