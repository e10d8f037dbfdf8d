package model

import "time"

// InventoryRecord is the single authoritative stock counter for an Item,
// denominated in the item's inventory unit. Quantity never goes negative
// in any committed state.
type InventoryRecord struct {
	ID            uint      `json:"id" gorm:"primarykey"`
	ItemID        uint      `json:"item_id" gorm:"uniqueIndex;not null"`
	Quantity      int       `json:"quantity" gorm:"not null;default:0"`
	LastUpdatedAt time.Time `json:"last_updated_at"`
}
