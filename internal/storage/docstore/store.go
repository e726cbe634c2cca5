// Package docstore implements the document storage variant: two JSON
// documents, one holding the product list and one holding the newest-first
// activity log, each rewritten in full on every write.
//
// Writes are persisted as they are issued (storage.Ordered). A Store
// serialises its own Update calls, but separate Store instances or processes
// sharing the same bucket each load-modify-save the whole document and can
// lose each other's writes.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/fairyhunter13/inventory-service/internal/activitylog"
	"github.com/fairyhunter13/inventory-service/internal/blob"
	"github.com/fairyhunter13/inventory-service/internal/model"
	"github.com/fairyhunter13/inventory-service/internal/obs"
	"github.com/fairyhunter13/inventory-service/internal/storage"
)

var _ storage.Backend = (*Store)(nil)

const (
	ProductsKey   = "products.json"
	ActivitiesKey = "activities.json"
)

// Store is a document storage.Backend over a blob.Bucket.
type Store struct {
	bucket    blob.Bucket
	retention int
	mu        sync.Mutex
}

// New returns a Store keeping at most retention activity entries. A
// non-positive retention falls back to activitylog.DefaultCapacity.
func New(bucket blob.Bucket, retention int) *Store {
	if retention <= 0 {
		retention = activitylog.DefaultCapacity
	}
	return &Store{bucket: bucket, retention: retention}
}

func (s *Store) Name() string                 { return "document-" + string(s.bucket.Driver()) }
func (s *Store) Guarantee() storage.Guarantee { return storage.Ordered }
func (s *Store) Identity() storage.Identity   { return storage.ByName }
func (s *Store) Close() error                 { return nil }

// Retention returns the activity log capacity.
func (s *Store) Retention() int { return s.retention }

// Update runs fn with exclusive access among callers of this Store.
func (s *Store) Update(ctx context.Context, fn func(storage.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&docTx{s: s})
}

// View runs fn without taking the write lock; reads see whatever documents
// are current when each one is loaded.
func (s *Store) View(ctx context.Context, fn func(storage.Tx) error) error {
	return fn(&docTx{s: s})
}

// docTx loads the product document at most once and writes it back in full
// after each product mutation. The activity document is loaded fresh for
// every append.
type docTx struct {
	s        *Store
	products []model.Product
	loaded   bool
}

func (t *docTx) loadProducts(ctx context.Context) ([]model.Product, error) {
	if !t.loaded {
		ps, err := loadDoc[model.Product](ctx, t.s.bucket, ProductsKey)
		if err != nil {
			return nil, err
		}
		t.products = ps
		t.loaded = true
	}
	return t.products, nil
}

func (t *docTx) index(ps []model.Product, name string) int {
	for i, p := range ps {
		if p.Name == name {
			return i
		}
	}
	return -1
}

func (t *docTx) GetProduct(ctx context.Context, key storage.Key) (model.Product, error) {
	ps, err := t.loadProducts(ctx)
	if err != nil {
		return model.Product{}, err
	}
	i := t.index(ps, key.Name)
	if i < 0 {
		return model.Product{}, storage.ErrNotFound
	}
	return ps[i], nil
}

func (t *docTx) FindProductByName(ctx context.Context, name string) (model.Product, bool, error) {
	p, err := t.GetProduct(ctx, storage.Key{Name: name})
	if errors.Is(err, storage.ErrNotFound) {
		return model.Product{}, false, nil
	}
	if err != nil {
		return model.Product{}, false, err
	}
	return p, true, nil
}

func (t *docTx) ListProducts(ctx context.Context) ([]model.Product, error) {
	ps, err := t.loadProducts(ctx)
	if err != nil {
		return nil, err
	}
	return append([]model.Product{}, ps...), nil
}

func (t *docTx) PutProduct(ctx context.Context, key storage.Key, p model.Product) (model.Product, error) {
	ps, err := t.loadProducts(ctx)
	if err != nil {
		return model.Product{}, err
	}
	p.ID = 0
	next := append([]model.Product{}, ps...)
	if key == (storage.Key{}) {
		next = append(next, p)
	} else {
		i := t.index(next, key.Name)
		if i < 0 {
			return model.Product{}, storage.ErrNotFound
		}
		next[i] = p
	}
	if err := t.s.save(ctx, ProductsKey, next); err != nil {
		return model.Product{}, err
	}
	t.products = next
	return p, nil
}

func (t *docTx) RemoveProduct(ctx context.Context, key storage.Key) error {
	ps, err := t.loadProducts(ctx)
	if err != nil {
		return err
	}
	i := t.index(ps, key.Name)
	if i < 0 {
		return storage.ErrNotFound
	}
	next := make([]model.Product, 0, len(ps)-1)
	next = append(next, ps[:i]...)
	next = append(next, ps[i+1:]...)
	if err := t.s.save(ctx, ProductsKey, next); err != nil {
		return err
	}
	t.products = next
	return nil
}

func (t *docTx) AppendActivity(ctx context.Context, a model.Activity) error {
	entries, err := loadDoc[model.Activity](ctx, t.s.bucket, ActivitiesKey)
	if err != nil {
		return err
	}
	a.ID = 0
	ring := activitylog.FromNewestFirst(t.s.retention, entries)
	if old, evicted := ring.Push(a); evicted {
		obs.Logger.Debug("activity_evicted", "action", old.Action, "timestamp", old.Timestamp)
	}
	return t.s.save(ctx, ActivitiesKey, ring.NewestFirst())
}

func (t *docTx) ListActivities(ctx context.Context) ([]model.Activity, error) {
	entries, err := loadDoc[model.Activity](ctx, t.s.bucket, ActivitiesKey)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []model.Activity{}
	}
	return entries, nil
}

// loadDoc decodes the JSON array stored under key. A missing document is an
// empty collection. A malformed document is logged and also treated as empty
// so the service stays available; the next write replaces it and the old
// contents are lost.
func loadDoc[T any](ctx context.Context, bucket blob.Bucket, key string) ([]T, error) {
	data, err := bucket.Read(ctx, key)
	if errors.Is(err, blob.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	var out []T
	if err := json.Unmarshal(data, &out); err != nil {
		obs.Logger.Warn("document_malformed", "key", key, "error", err)
		return nil, nil
	}
	return out, nil
}

func (s *Store) save(ctx context.Context, key string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.bucket.Write(ctx, key, data); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}
