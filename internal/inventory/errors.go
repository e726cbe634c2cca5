// Package inventory holds the product repository, the activity recorder and
// the service that pairs every product mutation with exactly one activity
// entry.
package inventory

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation reports bad input: a blank name, a negative quantity or a
	// malformed key. Nothing is written.
	ErrValidation = errors.New("validation failed")
	// ErrConflict reports a product name that is already taken.
	ErrConflict = errors.New("conflict")
	// ErrNotFound reports an update or delete of a key with no product.
	ErrNotFound = errors.New("product not found")
	// ErrStorage wraps backend failures. The core does not retry them.
	ErrStorage = errors.New("storage failure")
)

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}

// classify makes sure every error leaving the package matches one of the
// sentinels above.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrValidation), errors.Is(err, ErrConflict),
		errors.Is(err, ErrNotFound), errors.Is(err, ErrStorage):
		return err
	default:
		return storageErr("backend", err)
	}
}

// resultLabel names err for metrics.
func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}
