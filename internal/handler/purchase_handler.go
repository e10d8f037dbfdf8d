package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/shivam1108-06/jalaram-sweet-shop/internal/middleware"
	"github.com/shivam1108-06/jalaram-sweet-shop/internal/store"
	"github.com/shivam1108-06/jalaram-sweet-shop/pkg/database"
	"github.com/shivam1108-06/jalaram-sweet-shop/pkg/logger"
	"github.com/shivam1108-06/jalaram-sweet-shop/prometheus"
)

// PurchaseRequest defines the structure for purchase requests
type PurchaseRequest struct {
	SKUID    uint `json:"sku_id"`
	Quantity int  `json:"quantity"`
}

// Purchase handles an authenticated buyer purchasing a SKU. The stock
// decrement and the order record commit or roll back as one unit.
func Purchase(c echo.Context) error {
	log := logger.FromContext(c)

	buyerID, ok := middleware.SubjectID(c)
	if !ok {
		log.Warn("Purchase attempted without authenticated subject")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req PurchaseRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	log.Info("Purchase request",
		zap.Uint("buyer_id", buyerID),
		zap.Uint("sku_id", req.SKUID),
		zap.Int("quantity", req.Quantity))

	defer prometheus.TrackDBOperation("purchase")(time.Now())

	engine := store.NewPurchaseEngine(database.GetDB())
	order, err := engine.Purchase(c.Request().Context(), buyerID, req.SKUID, req.Quantity)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrInvalidQuantity):
			prometheus.RecordPurchase("rejected")
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "quantity must be a positive integer"})
		case errors.Is(err, store.ErrSKUNotFound):
			prometheus.RecordPurchase("rejected")
			log.Warn("SKU not found", zap.Uint("sku_id", req.SKUID))
			return c.JSON(http.StatusNotFound, echo.Map{"error": "SKU not found"})
		case errors.Is(err, store.ErrSKUInactive):
			prometheus.RecordPurchase("rejected")
			log.Warn("SKU not available", zap.Uint("sku_id", req.SKUID))
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "this SKU is no longer available"})
		case errors.Is(err, store.ErrInsufficientStock):
			prometheus.RecordPurchase("insufficient_stock")
			log.Warn("Insufficient stock",
				zap.Uint("sku_id", req.SKUID),
				zap.Int("quantity", req.Quantity))
			return c.JSON(http.StatusConflict, echo.Map{"error": "insufficient stock"})
		case errors.Is(err, store.ErrBusy):
			prometheus.RecordPurchase("busy")
			log.Warn("Inventory row busy", zap.Uint("sku_id", req.SKUID), zap.Error(err))
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "inventory is busy, retry the request"})
		}
		prometheus.RecordPurchase("failure")
		log.Error("Purchase failed",
			zap.Uint("buyer_id", buyerID),
			zap.Uint("sku_id", req.SKUID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Purchase failed"})
	}

	prometheus.RecordPurchase("committed")
	log.Info("Purchase committed",
		zap.Uint("order_id", order.ID),
		zap.Uint("buyer_id", buyerID),
		zap.Uint("sku_id", order.SKUID),
		zap.Int("quantity", order.Quantity),
		zap.String("total_price", order.TotalPrice.String()))
	return c.JSON(http.StatusCreated, echo.Map{
		"order_id":    order.ID,
		"total_price": order.TotalPrice,
	})
}
