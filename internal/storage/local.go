package storage

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/leapstack-labs/songlake/pkg/core"
)

// LocalBackend manages directories on the local filesystem.
type LocalBackend struct{}

// NewLocalBackend creates a local filesystem backend.
func NewLocalBackend() *LocalBackend {
	return &LocalBackend{}
}

// Reset removes the directory tree at location and recreates it empty.
func (b *LocalBackend) Reset(_ context.Context, location string) error {
	if location == "" || location == "/" {
		return &core.StorageError{Location: location, Op: "reset", Err: fmt.Errorf("refusing to reset %q", location)}
	}
	if err := os.RemoveAll(location); err != nil {
		return &core.StorageError{Location: location, Op: "reset", Err: err}
	}
	if err := os.MkdirAll(location, 0o750); err != nil {
		return &core.StorageError{Location: location, Op: "reset", Err: err}
	}
	return nil
}

// List returns the regular files under location. A missing location lists as empty.
func (b *LocalBackend) List(ctx context.Context, location string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(location, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && p == location {
				return fs.SkipAll
			}
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.Type().IsRegular() {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, &core.StorageError{Location: location, Op: "list", Err: err}
	}
	sort.Strings(files)
	return files, nil
}
