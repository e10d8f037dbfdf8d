package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// SKU is a priced unit-size variant of an Item, e.g. a 250g pack.
// UnitValue is denominated in the owning item's inventory unit.
type SKU struct {
	ID          uint            `json:"id" gorm:"primarykey"`
	ItemID      uint            `json:"item_id" gorm:"index;not null"`
	Code        string          `json:"code" gorm:"type:varchar(50);uniqueIndex;not null"`
	UnitValue   int             `json:"unit_value" gorm:"not null"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(10,2);not null"`
	DisplayUnit string          `json:"display_unit" gorm:"type:varchar(20);not null"`
	IsActive    bool            `json:"is_active" gorm:"default:true"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
