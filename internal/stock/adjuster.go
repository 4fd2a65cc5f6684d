package stock

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/greenloop-app/greenloop-backend/pkg/errors"
)

// Delta is a signed quantity change for one inventory item.
type Delta struct {
	ItemID uuid.UUID
	Qty    int
}

// Adjuster applies signed quantity deltas to inventory rows. Stock is touched
// only for buyer-role orders: decremented at creation, restored at completion.
// Customer-role orders never call into this package.
type Adjuster interface {
	Adjust(ctx context.Context, tx *gorm.DB, deltas []Delta) error
}

type adjuster struct{}

// NewAdjuster exposes the default inventory adjuster.
func NewAdjuster() Adjuster {
	return adjuster{}
}

func (adjuster) Adjust(ctx context.Context, tx *gorm.DB, deltas []Delta) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for stock adjustment")
	}

	for _, delta := range deltas {
		if delta.Qty == 0 {
			continue
		}
		if delta.Qty > 0 {
			res := tx.WithContext(ctx).Exec(`
				UPDATE inventory_items
				SET available_qty = available_qty + ?,
					updated_at = CURRENT_TIMESTAMP
				WHERE id = ?
			`, delta.Qty, delta.ItemID)
			if res.Error != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "restore inventory")
			}
			continue
		}

		// Decrement is guarded so concurrent orders cannot oversell the row.
		qty := -delta.Qty
		res := tx.WithContext(ctx).Exec(`
			UPDATE inventory_items
			SET available_qty = available_qty - ?,
				updated_at = CURRENT_TIMESTAMP
			WHERE id = ? AND available_qty >= ?
		`, qty, delta.ItemID, qty)
		if res.Error != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "decrement inventory")
		}
		if res.RowsAffected == 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock for item")
		}
	}
	return nil
}
