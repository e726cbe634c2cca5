// Package blob stores whole documents under string keys. The document storage
// variant keeps its JSON collections in a Bucket.
package blob

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
)

// ErrNotExist is returned by Read when no object is stored under the key.
var ErrNotExist = errors.New("blob: object does not exist")

// Driver identifies a Bucket implementation.
type Driver string

const (
	DriverFilesystem Driver = "fs"
	DriverS3         Driver = "s3"
	DriverMemory     Driver = "memory"
)

// Bucket reads and overwrites whole objects. Writes replace the previous
// object entirely; there are no partial updates.
type Bucket interface {
	Driver() Driver
	Read(ctx context.Context, key string) ([]byte, error)
	Write(ctx context.Context, key string, data []byte) error
}

// sanitizeKey rejects keys that are empty, absolute or escape the bucket root.
func sanitizeKey(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("empty key")
	}
	if strings.HasPrefix(key, "/") {
		return "", fmt.Errorf("invalid absolute key %q", key)
	}
	clean := path.Clean(key)
	if clean == ".." || strings.HasPrefix(clean, "../") || strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid key %q contains '..'", key)
	}
	return clean, nil
}
