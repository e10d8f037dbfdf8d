package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatusCommitted is the only status a recorded order carries;
// purchases are not cancellable or refundable once committed.
const OrderStatusCommitted = "committed"

// Order is the immutable record of a completed purchase. UnitPrice is
// the SKU price snapshotted at purchase time and is immune to later
// price edits.
type Order struct {
	ID         uint            `json:"id" gorm:"primarykey"`
	SKUID      uint            `json:"sku_id" gorm:"index;not null"`
	BuyerID    uint            `json:"buyer_id" gorm:"index;not null"`
	Quantity   int             `json:"quantity" gorm:"not null"`
	UnitPrice  decimal.Decimal `json:"unit_price" gorm:"type:decimal(10,2);not null"`
	TotalPrice decimal.Decimal `json:"total_price" gorm:"type:decimal(12,2);not null"`
	Status     string          `json:"status" gorm:"type:varchar(20);not null"`
	CreatedAt  time.Time       `json:"created_at"`
}
