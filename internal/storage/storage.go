// Package storage defines the backend contract shared by the relational and
// document persistence variants.
package storage

import (
	"context"
	"errors"

	"github.com/fairyhunter13/inventory-service/internal/model"
)

// ErrNotFound is returned by Tx lookups and removals when no product matches.
var ErrNotFound = errors.New("storage: product not found")

// Guarantee declares how a backend's Update relates its individual writes.
type Guarantee int

const (
	// Atomic backends commit every write issued inside one Update together,
	// or none of them.
	Atomic Guarantee = iota + 1
	// Ordered backends persist each write as it is issued. Writes become
	// durable in issue order, but an earlier write is not undone when a later
	// one fails.
	Ordered
)

func (g Guarantee) String() string {
	switch g {
	case Atomic:
		return "atomic"
	case Ordered:
		return "ordered"
	default:
		return "unknown"
	}
}

// Identity declares how a backend keys products.
type Identity int

const (
	// ByID backends assign a surrogate integer id on insert.
	ByID Identity = iota + 1
	// ByName backends use the product name as the key.
	ByName
)

func (i Identity) String() string {
	switch i {
	case ByID:
		return "id"
	case ByName:
		return "name"
	default:
		return "unknown"
	}
}

// Key addresses a single product. Only the field matching the backend's
// Identity is consulted.
type Key struct {
	ID   int64
	Name string
}

// Tx is the capability set available inside a backend transaction. Values
// returned are copies; mutating them does not affect stored state.
type Tx interface {
	GetProduct(ctx context.Context, key Key) (model.Product, error)
	FindProductByName(ctx context.Context, name string) (model.Product, bool, error)
	ListProducts(ctx context.Context) ([]model.Product, error)
	// PutProduct inserts p when key is the zero Key, otherwise overwrites the
	// product stored under key. It returns the stored record.
	PutProduct(ctx context.Context, key Key, p model.Product) (model.Product, error)
	RemoveProduct(ctx context.Context, key Key) error
	AppendActivity(ctx context.Context, a model.Activity) error
	// ListActivities returns retained entries, newest first.
	ListActivities(ctx context.Context) ([]model.Activity, error)
}

// Backend is a durable store for products and activities.
type Backend interface {
	// Name identifies the backend driver for logs and health output.
	Name() string
	Guarantee() Guarantee
	Identity() Identity
	// Update runs fn with a writable Tx. A non-nil error from fn aborts the
	// transaction to the extent the backend's Guarantee allows.
	Update(ctx context.Context, fn func(Tx) error) error
	// View runs fn with a Tx intended for reads only.
	View(ctx context.Context, fn func(Tx) error) error
	Close() error
}
