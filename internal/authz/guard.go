package authz

import (
	"github.com/shivam1108-06/jalaram-sweet-shop/internal/model"
	"github.com/shivam1108-06/jalaram-sweet-shop/pkg/config"
)

// Capability tags the operations the guard can gate. Role checks happen
// once at this boundary, independent of how the operations are
// implemented.
type Capability string

const (
	CapCreateItem      Capability = "create_item"
	CapCreateSKU       Capability = "create_sku"
	CapCreateCashier   Capability = "create_cashier"
	CapAdjustInventory Capability = "adjust_inventory"
	CapPurchase        Capability = "purchase"
	CapBrowse          Capability = "browse"
)

// Guard holds the role to capability-set table. Admin holds every
// capability; which roles may adjust inventory comes from deployment
// configuration rather than being hardcoded.
type Guard struct {
	allowed map[model.Role]map[Capability]bool
}

// NewGuard builds the capability table from the configured role policy
func NewGuard(cfg *config.AuthzConfig) *Guard {
	allowed := map[model.Role]map[Capability]bool{
		model.RoleAdmin: {
			CapCreateItem:      true,
			CapCreateSKU:       true,
			CapCreateCashier:   true,
			CapAdjustInventory: true,
			CapPurchase:        true,
			CapBrowse:          true,
		},
		model.RoleCashier: {
			CapPurchase: true,
			CapBrowse:   true,
		},
		model.RoleCustomer: {
			CapPurchase: true,
			CapBrowse:   true,
		},
	}
	for _, name := range cfg.InventoryAdjustRoles {
		role := model.Role(name)
		if !role.Valid() || role == model.RoleCustomer {
			continue
		}
		allowed[role][CapAdjustInventory] = true
	}
	// The policy can only ever widen cashier rights; admin keeps
	// adjust_inventory regardless of configuration.
	allowed[model.RoleAdmin][CapAdjustInventory] = true
	return &Guard{allowed: allowed}
}

// Allows reports whether the role holds the capability
func (g *Guard) Allows(role model.Role, cap Capability) bool {
	caps, ok := g.allowed[role]
	if !ok {
		return false
	}
	return caps[cap]
}
