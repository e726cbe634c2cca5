package inventory

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/fairyhunter13/inventory-service/internal/model"
	"github.com/fairyhunter13/inventory-service/internal/storage"
)

// NamePolicy decides what Update does with the name it is given.
type NamePolicy string

const (
	// NameApply overwrites the stored name.
	NameApply NamePolicy = "apply"
	// NameIgnore keeps the stored name and applies the quantity only.
	NameIgnore NamePolicy = "ignore"
)

// DefaultNamePolicy returns the policy each identity scheme has historically
// used: id-keyed stores rename, name-keyed stores do not.
func DefaultNamePolicy(id storage.Identity) NamePolicy {
	if id == storage.ByName {
		return NameIgnore
	}
	return NameApply
}

// ParseNamePolicy parses a configured policy. The empty string is returned
// unchanged and means "use the backend default".
func ParseNamePolicy(s string) (NamePolicy, error) {
	switch p := NamePolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "", NameApply, NameIgnore:
		return p, nil
	default:
		return "", fmt.Errorf("unknown update name policy %q", s)
	}
}

// Repository validates product input and applies it through a storage.Tx.
type Repository struct {
	identity storage.Identity
	names    NamePolicy
}

// NewRepository returns a Repository for a backend keyed by identity. An
// empty names policy selects DefaultNamePolicy(identity).
func NewRepository(identity storage.Identity, names NamePolicy) *Repository {
	if names == "" {
		names = DefaultNamePolicy(identity)
	}
	return &Repository{identity: identity, names: names}
}

// NamePolicy returns the policy in effect.
func (r *Repository) NamePolicy() NamePolicy { return r.names }

// ParseKey interprets a raw key as an id or a name according to the backend's
// identity scheme.
func (r *Repository) ParseKey(raw string) (storage.Key, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return storage.Key{}, validationf("product key is required")
	}
	if r.identity == storage.ByName {
		return storage.Key{Name: raw}, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return storage.Key{}, validationf("product id %q must be a positive integer", raw)
	}
	return storage.Key{ID: id}, nil
}

func validateQuantity(q int) error {
	if q < 0 {
		return validationf("quantity must be >= 0")
	}
	return nil
}

func normalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", validationf("name is required")
	}
	return name, nil
}

// Create inserts a new product. Names are unique among live products.
func (r *Repository) Create(ctx context.Context, tx storage.Tx, name string, quantity int) (model.Product, error) {
	name, err := normalizeName(name)
	if err != nil {
		return model.Product{}, err
	}
	if err := validateQuantity(quantity); err != nil {
		return model.Product{}, err
	}
	if _, exists, err := tx.FindProductByName(ctx, name); err != nil {
		return model.Product{}, storageErr("find product", err)
	} else if exists {
		return model.Product{}, fmt.Errorf("%w: product %q already exists", ErrConflict, name)
	}
	p, err := tx.PutProduct(ctx, storage.Key{}, model.Product{Name: name, Quantity: quantity})
	if err != nil {
		return model.Product{}, storageErr("insert product", err)
	}
	return p, nil
}

// Get returns the product stored under key.
func (r *Repository) Get(ctx context.Context, tx storage.Tx, key storage.Key) (model.Product, error) {
	p, err := tx.GetProduct(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return model.Product{}, ErrNotFound
	}
	if err != nil {
		return model.Product{}, storageErr("get product", err)
	}
	return p, nil
}

// List returns every live product.
func (r *Repository) List(ctx context.Context, tx storage.Tx) ([]model.Product, error) {
	ps, err := tx.ListProducts(ctx)
	if err != nil {
		return nil, storageErr("list products", err)
	}
	return ps, nil
}

// Update overwrites the product under key and returns its state before and
// after the write. Under NameApply on a name-keyed backend, renaming onto
// another live product's name is a conflict; id-keyed backends do not check.
func (r *Repository) Update(ctx context.Context, tx storage.Tx, key storage.Key, name string, quantity int) (before, after model.Product, err error) {
	if err := validateQuantity(quantity); err != nil {
		return before, after, err
	}
	if r.names == NameApply {
		if name, err = normalizeName(name); err != nil {
			return before, after, err
		}
	}
	if before, err = r.Get(ctx, tx, key); err != nil {
		return before, after, err
	}
	after = before
	after.Quantity = quantity
	if r.names == NameApply {
		after.Name = name
	}
	if r.identity == storage.ByName && after.Name != before.Name {
		if _, exists, err := tx.FindProductByName(ctx, after.Name); err != nil {
			return before, model.Product{}, storageErr("find product", err)
		} else if exists {
			return before, model.Product{}, fmt.Errorf("%w: product %q already exists", ErrConflict, after.Name)
		}
	}
	if after, err = tx.PutProduct(ctx, key, after); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return before, model.Product{}, ErrNotFound
		}
		return before, model.Product{}, storageErr("update product", err)
	}
	return before, after, nil
}

// Delete removes the product under key and returns its prior state.
func (r *Repository) Delete(ctx context.Context, tx storage.Tx, key storage.Key) (model.Product, error) {
	before, err := r.Get(ctx, tx, key)
	if err != nil {
		return model.Product{}, err
	}
	if err := tx.RemoveProduct(ctx, key); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return model.Product{}, ErrNotFound
		}
		return model.Product{}, storageErr("delete product", err)
	}
	return before, nil
}
