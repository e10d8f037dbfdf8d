package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shivam1108-06/jalaram-sweet-shop/internal/model"
)

// PurchaseEngine orchestrates a purchase: it validates the SKU and
// quantity, reserves stock through the inventory ledger and records the
// order, the last two inside one database transaction. From any external
// reader's view a purchase is either fully applied (stock down, order
// present) or not applied at all.
type PurchaseEngine struct {
	db *gorm.DB
}

// NewPurchaseEngine returns a purchase engine bound to the given database
func NewPurchaseEngine(db *gorm.DB) *PurchaseEngine {
	return &PurchaseEngine{db: db}
}

// Purchase buys quantity units of a SKU on behalf of buyerID.
//
// The SKU price and unit value are snapshotted before the reservation and
// never re-read, so a concurrent admin price edit cannot change what this
// buyer pays. Stock required is unit value times quantity, in the item's
// inventory unit. Cancellation via ctx is honored up to the reservation;
// once the reserve/record transaction starts the purchase runs to commit
// or rolls back whole.
func (e *PurchaseEngine) Purchase(ctx context.Context, buyerID uint, skuID uint, quantity int) (*model.Order, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	// Resolve the SKU and its owning item; both must be active. This is
	// the price snapshot point.
	var sku model.SKU
	if err := e.db.WithContext(ctx).First(&sku, skuID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSKUNotFound
		}
		return nil, fmt.Errorf("load sku: %w", err)
	}
	if !sku.IsActive {
		return nil, ErrSKUInactive
	}
	var item model.Item
	if err := e.db.WithContext(ctx).First(&item, sku.ItemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSKUNotFound
		}
		return nil, fmt.Errorf("load item: %w", err)
	}
	if !item.IsActive {
		return nil, ErrSKUInactive
	}

	required := sku.UnitValue * quantity

	// Last cancellation point before stock is touched
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var order *model.Order
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ledger := NewInventoryLedger(tx)
		if _, err := ledger.ReserveAndDecrement(ctx, sku.ItemID, required); err != nil {
			return err
		}
		o := &model.Order{
			SKUID:      sku.ID,
			BuyerID:    buyerID,
			Quantity:   quantity,
			UnitPrice:  sku.Price,
			TotalPrice: sku.Price.Mul(decimal.NewFromInt(int64(quantity))),
			Status:     model.OrderStatusCommitted,
		}
		// A failed order write aborts the transaction, undoing the
		// decrement: the two halves are never visible separately.
		if err := tx.Create(o).Error; err != nil {
			return fmt.Errorf("record order: %w", err)
		}
		order = o
		return nil
	})
	if err != nil {
		if isBusy(err) && !errors.Is(err, ErrBusy) {
			return nil, fmt.Errorf("%w: %v", ErrBusy, err)
		}
		return nil, err
	}
	return order, nil
}
