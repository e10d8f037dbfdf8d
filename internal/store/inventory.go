package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/shivam1108-06/jalaram-sweet-shop/internal/model"
)

// InventoryLedger owns the stock counter per item. The only writers are
// admin restocks (SetQuantity) and the purchase engine's decrement, and
// both serialize per item through the database row: the check-and-decrement
// is a single conditional UPDATE, so no interleaving of concurrent callers
// can drive a counter negative or lose an update. Different items never
// serialize against each other.
type InventoryLedger struct {
	db *gorm.DB
}

// NewInventoryLedger returns a ledger bound to the given database handle.
// The purchase engine constructs one over its transaction so the decrement
// and the order write commit or roll back together.
func NewInventoryLedger(db *gorm.DB) *InventoryLedger {
	return &InventoryLedger{db: db}
}

// SetQuantity overwrites an item's stock counter. This is an authoritative
// admin reset, not a delta; concurrent corrections are last-writer-wins.
func (l *InventoryLedger) SetQuantity(ctx context.Context, itemID uint, quantity int) (*model.InventoryRecord, error) {
	if quantity < 0 {
		return nil, ErrInvalidQuantity
	}
	result := l.db.WithContext(ctx).Model(&model.InventoryRecord{}).
		Where("item_id = ?", itemID).
		Updates(map[string]interface{}{
			"quantity":        quantity,
			"last_updated_at": time.Now(),
		})
	if result.Error != nil {
		if isBusy(result.Error) {
			return nil, fmt.Errorf("%w: %v", ErrBusy, result.Error)
		}
		return nil, fmt.Errorf("set quantity: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrItemNotFound
	}
	return l.Get(ctx, itemID)
}

// ReserveAndDecrement atomically checks that at least amount stock remains
// and decrements it, returning the new quantity. The check and the
// decrement are one conditional UPDATE: if the guard fails nothing is
// mutated and ErrInsufficientStock is returned.
func (l *InventoryLedger) ReserveAndDecrement(ctx context.Context, itemID uint, amount int) (int, error) {
	if amount <= 0 {
		return 0, ErrInvalidQuantity
	}
	result := l.db.WithContext(ctx).Model(&model.InventoryRecord{}).
		Where("item_id = ? AND quantity >= ?", itemID, amount).
		Updates(map[string]interface{}{
			"quantity":        gorm.Expr("quantity - ?", amount),
			"last_updated_at": time.Now(),
		})
	if result.Error != nil {
		if isBusy(result.Error) {
			return 0, fmt.Errorf("%w: %v", ErrBusy, result.Error)
		}
		return 0, fmt.Errorf("reserve stock: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		// Guard failed: either the item has no counter or the stock
		// does not cover the request.
		if _, err := l.Get(ctx, itemID); err != nil {
			return 0, err
		}
		return 0, ErrInsufficientStock
	}
	record, err := l.Get(ctx, itemID)
	if err != nil {
		return 0, err
	}
	return record.Quantity, nil
}

// Get fetches the inventory record for an item
func (l *InventoryLedger) Get(ctx context.Context, itemID uint) (*model.InventoryRecord, error) {
	var record model.InventoryRecord
	err := l.db.WithContext(ctx).Where("item_id = ?", itemID).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("load inventory: %w", err)
	}
	return &record, nil
}
