package inventory

import (
	"context"
	"time"

	"github.com/fairyhunter13/inventory-service/internal/model"
	"github.com/fairyhunter13/inventory-service/internal/obs"
	"github.com/fairyhunter13/inventory-service/internal/storage"
)

// Service runs each product mutation and its activity entry as one unit
// against the injected backend. The product write is always issued first and
// the activity append second, inside a single Backend.Update:
//
//   - on an Atomic backend both commit together or not at all;
//   - on an Ordered backend the product write is already durable when the
//     append runs, so a failed append leaves a mutation without its entry,
//     but an entry is never written for a mutation that did not happen.
type Service struct {
	backend storage.Backend
	repo    *Repository
	rec     *Recorder
}

type options struct {
	now   func() time.Time
	names NamePolicy
}

// Option configures a Service.
type Option func(*options)

// WithClock sets the time source used to stamp activities.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithNamePolicy overrides the backend's default update name policy.
func WithNamePolicy(p NamePolicy) Option {
	return func(o *options) { o.names = p }
}

// NewService builds a Service over b.
func NewService(b storage.Backend, opts ...Option) *Service {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return &Service{
		backend: b,
		repo:    NewRepository(b.Identity(), o.names),
		rec:     NewRecorder(o.now),
	}
}

// Backend returns the backend the service writes to.
func (s *Service) Backend() storage.Backend { return s.backend }

// NamePolicy returns the update name policy in effect.
func (s *Service) NamePolicy() NamePolicy { return s.repo.NamePolicy() }

// ParseKey interprets a raw path key for the backend's identity scheme.
func (s *Service) ParseKey(raw string) (storage.Key, error) { return s.repo.ParseKey(raw) }

// ListProducts returns every live product.
func (s *Service) ListProducts(ctx context.Context) ([]model.Product, error) {
	var out []model.Product
	err := s.backend.View(ctx, func(tx storage.Tx) error {
		var err error
		out, err = s.repo.List(ctx, tx)
		return err
	})
	return out, classify(err)
}

// GetProduct returns the product under key.
func (s *Service) GetProduct(ctx context.Context, key storage.Key) (model.Product, error) {
	var out model.Product
	err := s.backend.View(ctx, func(tx storage.Tx) error {
		var err error
		out, err = s.repo.Get(ctx, tx, key)
		return err
	})
	return out, classify(err)
}

// ListActivities returns retained activity entries, newest first.
func (s *Service) ListActivities(ctx context.Context) ([]model.Activity, error) {
	var out []model.Activity
	err := s.backend.View(ctx, func(tx storage.Tx) error {
		var err error
		out, err = s.rec.List(ctx, tx)
		return err
	})
	return out, classify(err)
}

// CreateProduct adds a product and records an Added activity.
func (s *Service) CreateProduct(ctx context.Context, name string, quantity int) (model.Product, error) {
	var out model.Product
	err := s.mutate(ctx, model.ActionAdded, func(tx storage.Tx) (string, error) {
		p, err := s.repo.Create(ctx, tx, name, quantity)
		if err != nil {
			return "", err
		}
		out = p
		return addedDetails(p), nil
	})
	if err != nil {
		return model.Product{}, err
	}
	obs.Logger.Info("product_created", "id", out.ID, "name", out.Name, "quantity", out.Quantity)
	return out, nil
}

// UpdateProduct overwrites the product under key and records an Updated
// activity describing the change.
func (s *Service) UpdateProduct(ctx context.Context, key storage.Key, name string, quantity int) (model.Product, error) {
	var out model.Product
	err := s.mutate(ctx, model.ActionUpdated, func(tx storage.Tx) (string, error) {
		before, after, err := s.repo.Update(ctx, tx, key, name, quantity)
		if err != nil {
			return "", err
		}
		out = after
		return updatedDetails(before, after), nil
	})
	if err != nil {
		return model.Product{}, err
	}
	obs.Logger.Info("product_updated", "id", out.ID, "name", out.Name, "quantity", out.Quantity)
	return out, nil
}

// DeleteProduct removes the product under key, records a Deleted activity
// and returns the removed product.
func (s *Service) DeleteProduct(ctx context.Context, key storage.Key) (model.Product, error) {
	var out model.Product
	err := s.mutate(ctx, model.ActionDeleted, func(tx storage.Tx) (string, error) {
		p, err := s.repo.Delete(ctx, tx, key)
		if err != nil {
			return "", err
		}
		out = p
		return deletedDetails(p), nil
	})
	if err != nil {
		return model.Product{}, err
	}
	obs.Logger.Info("product_deleted", "id", out.ID, "name", out.Name)
	return out, nil
}

// mutate applies write and then records its activity in one backend update.
func (s *Service) mutate(ctx context.Context, action model.Action, write func(storage.Tx) (string, error)) error {
	written := false
	err := s.backend.Update(ctx, func(tx storage.Tx) error {
		details, err := write(tx)
		if err != nil {
			return err
		}
		written = true
		return s.rec.Record(ctx, tx, action, details)
	})
	err = classify(err)
	if err != nil && written && s.backend.Guarantee() == storage.Ordered {
		obs.ActivityOrphans.Inc()
		obs.Logger.Error("activity_append_failed",
			"action", string(action),
			"backend", s.backend.Name(),
			"error", err,
		)
	}
	obs.Mutations.WithLabelValues(string(action), resultLabel(err)).Inc()
	return err
}
