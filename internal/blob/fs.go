package blob

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FSBucket stores objects as files under a root directory. Writes go to a
// temp file that is renamed into place, so readers never observe a torn
// document. Concurrent writers to the same key are last-rename-wins.
type FSBucket struct {
	root string
}

// NewFS returns a filesystem bucket rooted at root, creating it if needed.
func NewFS(root string) (*FSBucket, error) {
	if root == "" {
		root = "./data"
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create bucket root: %w", err)
	}
	return &FSBucket{root: root}, nil
}

func (b *FSBucket) Driver() Driver { return DriverFilesystem }

// Root returns the directory objects are stored under.
func (b *FSBucket) Root() string { return b.root }

func (b *FSBucket) pathFor(key string) (string, error) {
	k, err := sanitizeKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(b.root, filepath.FromSlash(k)), nil
}

func (b *FSBucket) Read(_ context.Context, key string) ([]byte, error) {
	p, err := b.pathFor(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotExist
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

func (b *FSBucket) Write(_ context.Context, key string, data []byte) error {
	p, err := b.pathFor(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("create dirs: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(p), ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return fmt.Errorf("rename %s: %w", key, err)
	}
	return nil
}
