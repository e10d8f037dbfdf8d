package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/shivam1108-06/jalaram-sweet-shop/internal/store"
	"github.com/shivam1108-06/jalaram-sweet-shop/pkg/database"
	"github.com/shivam1108-06/jalaram-sweet-shop/pkg/logger"
	"github.com/shivam1108-06/jalaram-sweet-shop/prometheus"
)

// SKURequest defines the structure for SKU creation requests
type SKURequest struct {
	ItemID    uint            `json:"item_id"`
	Code      string          `json:"code"`
	UnitValue int             `json:"unit_value"`
	Price     decimal.Decimal `json:"price"`
}

// CreateSKU handles creating a priced unit variant for an item
func CreateSKU(c echo.Context) error {
	log := logger.FromContext(c)

	var req SKURequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	log.Info("SKU creation request",
		zap.Uint("item_id", req.ItemID),
		zap.String("code", req.Code),
		zap.Int("unit_value", req.UnitValue),
		zap.String("price", req.Price.String()))

	defer prometheus.TrackDBOperation("create_sku")(time.Now())

	catalog := store.NewCatalog(database.GetDB())
	sku, err := catalog.CreateSKU(c.Request().Context(), req.ItemID, req.Code, req.UnitValue, req.Price)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrItemNotFound):
			log.Warn("Item not found for SKU", zap.Uint("item_id", req.ItemID))
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Item not found"})
		case errors.Is(err, store.ErrDuplicateCode):
			log.Warn("SKU with this code already exists", zap.String("code", req.Code))
			return c.JSON(http.StatusBadRequest, echo.Map{"code": []string{err.Error()}})
		case errors.Is(err, store.ErrInvalidCode):
			return c.JSON(http.StatusBadRequest, echo.Map{"code": []string{err.Error()}})
		case errors.Is(err, store.ErrInvalidUnitValue):
			return c.JSON(http.StatusBadRequest, echo.Map{"unit_value": []string{err.Error()}})
		case errors.Is(err, store.ErrInvalidPrice):
			return c.JSON(http.StatusBadRequest, echo.Map{"price": []string{err.Error()}})
		}
		log.Error("Failed to create SKU", zap.String("code", req.Code), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create SKU"})
	}

	prometheus.RecordCatalogOperation("create_sku")
	log.Info("SKU created successfully",
		zap.Uint("sku_id", sku.ID),
		zap.String("code", sku.Code),
		zap.String("display_unit", sku.DisplayUnit))
	return c.JSON(http.StatusCreated, sku)
}

// SKUPriceRequest defines the structure for price update requests
type SKUPriceRequest struct {
	Price decimal.Decimal `json:"price"`
}

// UpdateSKUPrice handles an admin price edit. Purchases already in flight
// keep the price they snapshotted.
func UpdateSKUPrice(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid sku id"})
	}

	var req SKUPriceRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	catalog := store.NewCatalog(database.GetDB())
	sku, err := catalog.UpdateSKUPrice(c.Request().Context(), uint(id), req.Price)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrSKUNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "SKU not found"})
		case errors.Is(err, store.ErrInvalidPrice):
			return c.JSON(http.StatusBadRequest, echo.Map{"price": []string{err.Error()}})
		}
		log.Error("Failed to update SKU price", zap.Uint64("sku_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to update SKU"})
	}

	prometheus.RecordCatalogOperation("update_sku_price")
	log.Info("SKU price updated",
		zap.Uint("sku_id", sku.ID),
		zap.String("price", sku.Price.String()))
	return c.JSON(http.StatusOK, sku)
}
