package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/shivam1108-06/jalaram-sweet-shop/internal/store"
	"github.com/shivam1108-06/jalaram-sweet-shop/pkg/database"
	"github.com/shivam1108-06/jalaram-sweet-shop/pkg/logger"
	"github.com/shivam1108-06/jalaram-sweet-shop/prometheus"
)

// InventoryRequest defines the structure for stock overwrite requests
type InventoryRequest struct {
	Quantity int `json:"quantity"`
}

// SetInventory handles an admin/cashier stock correction. The quantity is
// an authoritative overwrite, not a delta.
func SetInventory(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid item id"})
	}

	var req InventoryRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	log.Info("Inventory overwrite request",
		zap.Uint64("item_id", id),
		zap.Int("quantity", req.Quantity))

	defer prometheus.TrackDBOperation("set_inventory")(time.Now())

	ledger := store.NewInventoryLedger(database.GetDB())
	record, err := ledger.SetQuantity(c.Request().Context(), uint(id), req.Quantity)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrInvalidQuantity):
			return c.JSON(http.StatusBadRequest, echo.Map{"quantity": []string{err.Error()}})
		case errors.Is(err, store.ErrItemNotFound):
			log.Warn("Item not found for inventory update", zap.Uint64("item_id", id))
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Item not found"})
		case errors.Is(err, store.ErrBusy):
			log.Warn("Inventory row busy", zap.Uint64("item_id", id), zap.Error(err))
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "inventory is busy, retry the request"})
		}
		log.Error("Failed to set inventory", zap.Uint64("item_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to update inventory"})
	}

	prometheus.UpdateItemInventory(strconv.FormatUint(id, 10), float64(record.Quantity))
	log.Info("Inventory updated successfully",
		zap.Uint64("item_id", id),
		zap.Int("inventory_qty", record.Quantity))
	return c.JSON(http.StatusOK, echo.Map{
		"item_id":       record.ItemID,
		"inventory_qty": record.Quantity,
	})
}
