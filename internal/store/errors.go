package store

import (
	"context"
	"errors"
	"strings"
)

// Sentinel errors returned by the catalog store, inventory ledger and
// purchase engine. Handlers map these onto HTTP statuses; nothing in
// this package knows about transport.
var (
	// Validation failures, recoverable by the caller with corrected input
	ErrInvalidName      = errors.New("item name must not be empty")
	ErrInvalidCategory  = errors.New("invalid item category")
	ErrInvalidSaleType  = errors.New("invalid sale type")
	ErrInvalidCode      = errors.New("sku code must not be empty")
	ErrInvalidUnitValue = errors.New("unit value must be a positive integer")
	ErrInvalidPrice     = errors.New("price must be positive")
	ErrInvalidQuantity  = errors.New("quantity must be a positive integer")

	// Lookup failures
	ErrItemNotFound = errors.New("item not found")
	ErrSKUNotFound  = errors.New("sku not found")

	// Conflicts
	ErrDuplicateName = errors.New("item with this name already exists")
	ErrDuplicateCode = errors.New("sku with this code already exists")

	// Purchase failures
	ErrSKUInactive       = errors.New("sku is not available for purchase")
	ErrInsufficientStock = errors.New("insufficient stock")

	// Lock contention; safe for the caller to retry a bounded number of times
	ErrBusy = errors.New("inventory is busy, retry the request")
)

// isBusy reports whether a database error is a transient lock-contention
// failure that should surface as ErrBusy rather than a storage failure.
func isBusy(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "lock timeout") ||
		strings.Contains(msg, "deadlock detected")
}
