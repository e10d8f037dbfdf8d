package model

import (
	"fmt"
	"strings"
	"time"
)

// ItemCategory classifies a sweet item
type ItemCategory string

const (
	CategoryDry   ItemCategory = "dry"
	CategoryMilk  ItemCategory = "milk"
	CategoryOther ItemCategory = "other"
)

// Valid reports whether the category is one of the known values
func (c ItemCategory) Valid() bool {
	switch c {
	case CategoryDry, CategoryMilk, CategoryOther:
		return true
	}
	return false
}

// SaleType describes how an item is sold
type SaleType string

const (
	SaleTypeWeight SaleType = "weight"
	SaleTypeCount  SaleType = "count"
)

// Valid reports whether the sale type is one of the known values
func (s SaleType) Valid() bool {
	return s == SaleTypeWeight || s == SaleTypeCount
}

// InventoryUnit returns the stock unit implied by the sale type:
// grams for weight, pieces for count.
func (s SaleType) InventoryUnit() string {
	if s == SaleTypeWeight {
		return "grams"
	}
	return "pieces"
}

// Item represents a sellable sweet. Items are never hard-deleted;
// deactivation clears IsActive instead.
type Item struct {
	ID            uint         `json:"id" gorm:"primarykey"`
	Name          string       `json:"name" gorm:"type:varchar(255);not null"`
	NameKey       string       `json:"-" gorm:"type:varchar(255);uniqueIndex;not null"`
	Category      ItemCategory `json:"category" gorm:"type:varchar(20);not null"`
	SaleType      SaleType     `json:"sale_type" gorm:"type:varchar(20);not null"`
	InventoryUnit string       `json:"inventory_unit" gorm:"type:varchar(20);not null"`
	IsActive      bool         `json:"is_active" gorm:"default:true"`
	// InventoryQty mirrors the item's InventoryRecord counter on detail
	// responses; the public listing leaves it unset so no stock leaks there.
	InventoryQty *int  `json:"inventory_qty,omitempty" gorm:"-"`
	SKUs         []SKU `json:"skus,omitempty" gorm:"foreignKey:ItemID"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// NormalizeName produces the uniqueness key for an item name.
// Names differing only in case or surrounding whitespace collide.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// DisplayUnitFor renders a SKU unit value as a human-readable label.
// Weight values of a kilogram or more render in kg with one decimal.
func DisplayUnitFor(saleType SaleType, unitValue int) string {
	if saleType == SaleTypeWeight {
		if unitValue >= 1000 {
			return fmt.Sprintf("%.1fkg", float64(unitValue)/1000)
		}
		return fmt.Sprintf("%dg", unitValue)
	}
	return fmt.Sprintf("%d pcs", unitValue)
}
