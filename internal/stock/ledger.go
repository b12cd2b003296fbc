package stock

import (
	"context"
	"errors"
	"time"
)

// ApplyAdjustment applies a relative quantity change to the ledger row for
// (product, location), clamped at zero. The row is created lazily on the first
// positive adjustment; reducing stock that was never recorded fails with
// ErrNoSuchStock. Returns the quantity before and after the change.
//
// Callers are expected to pair every adjustment with a movement or correction
// record inside the same transaction; the ledger itself does not log.
func ApplyAdjustment(ctx context.Context, tx TxRepository, productID, locationID, delta int64, now time.Time) (int64, int64, error) {
	level, err := tx.GetLevelForUpdate(ctx, productID, locationID)
	if err != nil {
		if !errors.Is(err, ErrLevelNotFound) {
			return 0, 0, err
		}
		if delta <= 0 {
			return 0, 0, ErrNoSuchStock
		}
		level = Level{ProductID: productID, LocationID: locationID, Quantity: delta, LastUpdated: now}
		if err := tx.UpsertLevel(ctx, level); err != nil {
			return 0, 0, err
		}
		return 0, delta, nil
	}

	old := level.Quantity
	level.Quantity = old + delta
	if level.Quantity < 0 {
		level.Quantity = 0
	}
	level.LastUpdated = now
	if err := tx.UpsertLevel(ctx, level); err != nil {
		return 0, 0, err
	}
	return old, level.Quantity, nil
}
