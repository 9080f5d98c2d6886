package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// Source is where definition files come from.
type Source interface {
	// LoadIndex returns the catalog index.
	LoadIndex(ctx context.Context) (*Index, error)
	// ReadFile returns the raw bytes of a definition file named by an index
	// entry. Missing files yield an error wrapping ErrNotFound.
	ReadFile(ctx context.Context, file string) ([]byte, error)
}

// FileSource reads definitions from a directory tree laid out as
// <namespace>/<group>/<Name>.json with an optional index/resources.json.
type FileSource struct {
	fsys fs.FS
}

// NewFileSource reads from the directory dir.
func NewFileSource(dir string) *FileSource {
	return &FileSource{fsys: os.DirFS(dir)}
}

// NewFSSource reads from any fs.FS.
func NewFSSource(fsys fs.FS) *FileSource {
	return &FileSource{fsys: fsys}
}

// LoadIndex reads index/resources.json, falling back to scanning the tree when
// the index is absent.
func (s *FileSource) LoadIndex(ctx context.Context) (*Index, error) {
	data, err := fs.ReadFile(s.fsys, IndexPath)
	if err == nil {
		return ParseIndex(data)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read index: %w", err)
	}

	var paths []string
	err = fs.WalkDir(s.fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if !d.IsDir() {
			paths = append(paths, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan definitions: %w", err)
	}
	return buildIndex(paths), nil
}

func (s *FileSource) ReadFile(_ context.Context, file string) ([]byte, error) {
	data, err := fs.ReadFile(s.fsys, file)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: file %s", ErrNotFound, file)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", file, err)
	}
	return data, nil
}
