package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/fairyhunter13/inventory-service/internal/model"
	"github.com/fairyhunter13/inventory-service/internal/storage"
)

// Recorder appends activity entries stamped with its clock.
type Recorder struct {
	now func() time.Time
}

// NewRecorder returns a Recorder using now, or time.Now when now is nil.
func NewRecorder(now func() time.Time) *Recorder {
	if now == nil {
		now = time.Now
	}
	return &Recorder{now: now}
}

// Record appends one entry. Retention, if any, is enforced by the backend in
// the same write.
func (r *Recorder) Record(ctx context.Context, tx storage.Tx, action model.Action, details string) error {
	a := model.Activity{Action: action, Details: details, Timestamp: r.now().UTC()}
	if err := tx.AppendActivity(ctx, a); err != nil {
		return storageErr("append activity", err)
	}
	return nil
}

// List returns retained entries, newest first.
func (r *Recorder) List(ctx context.Context, tx storage.Tx) ([]model.Activity, error) {
	as, err := tx.ListActivities(ctx)
	if err != nil {
		return nil, storageErr("list activities", err)
	}
	return as, nil
}

func addedDetails(p model.Product) string {
	return fmt.Sprintf("Added product '%s' (quantity %d)", p.Name, p.Quantity)
}

func updatedDetails(before, after model.Product) string {
	s := fmt.Sprintf("Updated product '%s': quantity %d -> %d", after.Name, before.Quantity, after.Quantity)
	if before.Name != after.Name {
		s += fmt.Sprintf(", name '%s' -> '%s'", before.Name, after.Name)
	}
	return s
}

func deletedDetails(p model.Product) string {
	return fmt.Sprintf("Deleted product '%s' (quantity %d)", p.Name, p.Quantity)
}
