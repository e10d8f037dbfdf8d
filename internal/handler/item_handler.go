package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/shivam1108-06/jalaram-sweet-shop/internal/model"
	"github.com/shivam1108-06/jalaram-sweet-shop/internal/store"
	"github.com/shivam1108-06/jalaram-sweet-shop/pkg/database"
	"github.com/shivam1108-06/jalaram-sweet-shop/pkg/logger"
	"github.com/shivam1108-06/jalaram-sweet-shop/prometheus"
)

// ItemRequest defines the structure for item creation requests
type ItemRequest struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	SaleType string `json:"sale_type"`
}

// CreateItem handles creating a new item with its inventory record
func CreateItem(c echo.Context) error {
	log := logger.FromContext(c)

	var req ItemRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	log.Info("Item creation request",
		zap.String("name", req.Name),
		zap.String("category", req.Category),
		zap.String("sale_type", req.SaleType))

	defer prometheus.TrackDBOperation("create_item")(time.Now())

	catalog := store.NewCatalog(database.GetDB())
	item, err := catalog.CreateItem(c.Request().Context(), req.Name, model.ItemCategory(req.Category), model.SaleType(req.SaleType))
	if err != nil {
		switch {
		case errors.Is(err, store.ErrDuplicateName):
			log.Warn("Item with this name already exists", zap.String("name", req.Name))
			return c.JSON(http.StatusBadRequest, echo.Map{"name": []string{err.Error()}})
		case errors.Is(err, store.ErrInvalidName):
			return c.JSON(http.StatusBadRequest, echo.Map{"name": []string{err.Error()}})
		case errors.Is(err, store.ErrInvalidCategory):
			return c.JSON(http.StatusBadRequest, echo.Map{"category": []string{err.Error()}})
		case errors.Is(err, store.ErrInvalidSaleType):
			return c.JSON(http.StatusBadRequest, echo.Map{"sale_type": []string{err.Error()}})
		}
		log.Error("Failed to create item", zap.String("name", req.Name), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create item"})
	}

	prometheus.RecordCatalogOperation("create_item")
	log.Info("Item created successfully",
		zap.Uint("item_id", item.ID),
		zap.String("name", item.Name),
		zap.String("inventory_unit", item.InventoryUnit))
	return c.JSON(http.StatusCreated, item)
}

// ListItems handles the public catalog listing. Only active items are
// returned and the response carries no stock or price data.
func ListItems(c echo.Context) error {
	log := logger.FromContext(c)

	catalog := store.NewCatalog(database.GetDB())
	items, err := catalog.ListItems(c.Request().Context(), true)
	if err != nil {
		log.Error("Failed to list items", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve items"})
	}

	log.Info("Items retrieved successfully", zap.Int("count", len(items)))
	return c.JSON(http.StatusOK, items)
}

// GetItem handles the public item detail view with nested SKUs
func GetItem(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid item id"})
	}

	catalog := store.NewCatalog(database.GetDB())
	item, err := catalog.GetItemWithSKUs(c.Request().Context(), uint(id))
	if err != nil {
		if errors.Is(err, store.ErrItemNotFound) {
			log.Warn("Item not found", zap.Uint64("item_id", id))
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Item not found"})
		}
		log.Error("Failed to load item", zap.Uint64("item_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve item"})
	}

	return c.JSON(http.StatusOK, item)
}

// ItemActiveRequest defines the structure for activation toggles
type ItemActiveRequest struct {
	IsActive bool `json:"is_active"`
}

// SetItemActive handles activating or deactivating an item
func SetItemActive(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid item id"})
	}

	var req ItemActiveRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	catalog := store.NewCatalog(database.GetDB())
	if err := catalog.SetItemActive(c.Request().Context(), uint(id), req.IsActive); err != nil {
		if errors.Is(err, store.ErrItemNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Item not found"})
		}
		log.Error("Failed to update item", zap.Uint64("item_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to update item"})
	}

	prometheus.RecordCatalogOperation("set_item_active")
	log.Info("Item active flag updated",
		zap.Uint64("item_id", id),
		zap.Bool("is_active", req.IsActive))
	return c.JSON(http.StatusOK, echo.Map{"item_id": uint(id), "is_active": req.IsActive})
}
