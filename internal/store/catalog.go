package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shivam1108-06/jalaram-sweet-shop/internal/model"
)

// Catalog owns Item and SKU rows and enforces their uniqueness and
// referential rules. Uniqueness is backed by database unique indexes, so
// two concurrent creators of the same name or code race safely: exactly
// one insert wins, the other surfaces ErrDuplicateName/ErrDuplicateCode.
type Catalog struct {
	db *gorm.DB
}

// NewCatalog returns a catalog store bound to the given database handle
func NewCatalog(db *gorm.DB) *Catalog {
	return &Catalog{db: db}
}

// CreateItem creates an item together with its zero-quantity inventory
// record. The inventory unit is derived from the sale type.
func (s *Catalog) CreateItem(ctx context.Context, name string, category model.ItemCategory, saleType model.SaleType) (*model.Item, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidName
	}
	if !category.Valid() {
		return nil, ErrInvalidCategory
	}
	if !saleType.Valid() {
		return nil, ErrInvalidSaleType
	}

	item := &model.Item{
		Name:          name,
		NameKey:       model.NormalizeName(name),
		Category:      category,
		SaleType:      saleType,
		InventoryUnit: saleType.InventoryUnit(),
		IsActive:      true,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(item).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicateName
			}
			return fmt.Errorf("create item: %w", err)
		}
		record := &model.InventoryRecord{
			ItemID:        item.ID,
			Quantity:      0,
			LastUpdatedAt: time.Now(),
		}
		if err := tx.Create(record).Error; err != nil {
			return fmt.Errorf("create inventory record: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// CreateSKU creates a priced unit variant for an active item. The display
// unit label is derived from the unit value and the item's sale type.
func (s *Catalog) CreateSKU(ctx context.Context, itemID uint, code string, unitValue int, price decimal.Decimal) (*model.SKU, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrInvalidCode
	}
	if unitValue <= 0 {
		return nil, ErrInvalidUnitValue
	}
	if !price.IsPositive() {
		return nil, ErrInvalidPrice
	}

	var item model.Item
	if err := s.db.WithContext(ctx).First(&item, itemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("load item: %w", err)
	}
	if !item.IsActive {
		return nil, ErrItemNotFound
	}

	sku := &model.SKU{
		ItemID:      item.ID,
		Code:        code,
		UnitValue:   unitValue,
		Price:       price,
		DisplayUnit: model.DisplayUnitFor(item.SaleType, unitValue),
		IsActive:    true,
	}
	if err := s.db.WithContext(ctx).Create(sku).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateCode
		}
		return nil, fmt.Errorf("create sku: %w", err)
	}
	return sku, nil
}

// GetItem fetches a single item by id
func (s *Catalog) GetItem(ctx context.Context, id uint) (*model.Item, error) {
	var item model.Item
	if err := s.db.WithContext(ctx).First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("load item: %w", err)
	}
	return &item, nil
}

// GetItemWithSKUs fetches an item with its SKUs preloaded and the current
// inventory quantity attached.
func (s *Catalog) GetItemWithSKUs(ctx context.Context, id uint) (*model.Item, error) {
	var item model.Item
	err := s.db.WithContext(ctx).Preload("SKUs").First(&item, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("load item: %w", err)
	}
	var record model.InventoryRecord
	err = s.db.WithContext(ctx).Where("item_id = ?", item.ID).First(&record).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("load inventory: %w", err)
		}
	} else {
		item.InventoryQty = &record.Quantity
	}
	return &item, nil
}

// ListItems returns all items, optionally restricted to active ones
func (s *Catalog) ListItems(ctx context.Context, activeOnly bool) ([]model.Item, error) {
	query := s.db.WithContext(ctx)
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	var items []model.Item
	if err := query.Order("id").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return items, nil
}

// GetSKUsForItem returns the SKUs owned by an item
func (s *Catalog) GetSKUsForItem(ctx context.Context, itemID uint) ([]model.SKU, error) {
	var skus []model.SKU
	err := s.db.WithContext(ctx).Where("item_id = ?", itemID).Order("id").Find(&skus).Error
	if err != nil {
		return nil, fmt.Errorf("list skus: %w", err)
	}
	return skus, nil
}

// SetItemActive activates or deactivates an item. Items are never
// hard-deleted; this is the only retirement path.
func (s *Catalog) SetItemActive(ctx context.Context, id uint, active bool) error {
	result := s.db.WithContext(ctx).Model(&model.Item{}).
		Where("id = ?", id).
		Update("is_active", active)
	if result.Error != nil {
		return fmt.Errorf("update item: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrItemNotFound
	}
	return nil
}

// UpdateSKUPrice changes a SKU's price. In-flight purchases that already
// snapshotted the old price are unaffected.
func (s *Catalog) UpdateSKUPrice(ctx context.Context, skuID uint, price decimal.Decimal) (*model.SKU, error) {
	if !price.IsPositive() {
		return nil, ErrInvalidPrice
	}
	result := s.db.WithContext(ctx).Model(&model.SKU{}).
		Where("id = ?", skuID).
		Update("price", price)
	if result.Error != nil {
		return nil, fmt.Errorf("update sku: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrSKUNotFound
	}
	var sku model.SKU
	if err := s.db.WithContext(ctx).First(&sku, skuID).Error; err != nil {
		return nil, fmt.Errorf("load sku: %w", err)
	}
	return &sku, nil
}
