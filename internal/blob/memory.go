package blob

import (
	"context"
	"sync"
)

// MemoryBucket keeps objects in process memory. It is used for ephemeral runs
// and tests.
type MemoryBucket struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemory returns an empty in-memory bucket.
func NewMemory() *MemoryBucket {
	return &MemoryBucket{objects: make(map[string][]byte)}
}

func (b *MemoryBucket) Driver() Driver { return DriverMemory }

func (b *MemoryBucket) Read(_ context.Context, key string) ([]byte, error) {
	k, err := sanitizeKey(key)
	if err != nil {
		return nil, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	data, ok := b.objects[k]
	if !ok {
		return nil, ErrNotExist
	}
	return append([]byte(nil), data...), nil
}

func (b *MemoryBucket) Write(_ context.Context, key string, data []byte) error {
	k, err := sanitizeKey(key)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[k] = append([]byte(nil), data...)
	return nil
}
