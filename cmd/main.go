package main

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/shivam1108-06/jalaram-sweet-shop/internal/authz"
	"github.com/shivam1108-06/jalaram-sweet-shop/internal/handler"
	mid "github.com/shivam1108-06/jalaram-sweet-shop/internal/middleware"
	"github.com/shivam1108-06/jalaram-sweet-shop/pkg/config"
	"github.com/shivam1108-06/jalaram-sweet-shop/pkg/database"
	"github.com/shivam1108-06/jalaram-sweet-shop/pkg/jwtutil"
	"github.com/shivam1108-06/jalaram-sweet-shop/pkg/logger"
	"github.com/shivam1108-06/jalaram-sweet-shop/prometheus"
)

func main() {
	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		// Can't use structured logger yet since it's not initialized
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	logger.InitLogger(appConfig)
	log := logger.GetLogger()
	defer log.Sync()

	log.Info("Starting sweet shop service",
		zap.String("environment", appConfig.Server.Env),
		zap.String("port", appConfig.Server.Port))

	// Initialize JWT utility
	jwtutil.Initialize(&appConfig.JWT)
	log.Info("JWT utility initialized")

	// Initialize Prometheus metrics
	prometheus.InitMetrics(appConfig)
	log.Info("Prometheus metrics initialized",
		zap.String("metrics_prefix", appConfig.Metrics.Prefix))

	// Initialize database
	if err := database.InitDB(appConfig); err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established")

	// Build the authorization guard from the configured role policy
	guard := authz.NewGuard(&appConfig.Authz)
	log.Info("Authorization guard initialized",
		zap.Strings("inventory_adjust_roles", appConfig.Authz.InventoryAdjustRoles))

	// Initialize Echo instance
	e := echo.New()

	// Middleware
	e.Use(echomiddleware.Recover())
	e.Use(mid.RequestIDMiddleware)
	e.Use(mid.MetricsMiddleware)

	// Metrics endpoint
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Health check endpoint
	e.GET("/health", handler.HealthCheck)

	// Auth routes
	authAPI := e.Group("/api/auth")
	authAPI.POST("/register", handler.Register)
	authAPI.POST("/login", handler.Login)
	authAPI.POST("/cashiers", handler.CreateCashier,
		mid.AuthMiddleware, mid.RequireCapability(guard, authz.CapCreateCashier))

	// Public catalog routes
	itemAPI := e.Group("/api/items")
	itemAPI.GET("/list", handler.ListItems)
	itemAPI.GET("/:id", handler.GetItem)

	// Catalog mutations - admin only, gated by the authorization guard
	itemAPI.POST("", handler.CreateItem,
		mid.AuthMiddleware, mid.RequireCapability(guard, authz.CapCreateItem))
	itemAPI.PUT("/:id/active", handler.SetItemActive,
		mid.AuthMiddleware, mid.RequireCapability(guard, authz.CapCreateItem))
	itemAPI.POST("/skus", handler.CreateSKU,
		mid.AuthMiddleware, mid.RequireCapability(guard, authz.CapCreateSKU))
	itemAPI.PUT("/skus/:id/price", handler.UpdateSKUPrice,
		mid.AuthMiddleware, mid.RequireCapability(guard, authz.CapCreateSKU))

	// Inventory overwrite - role set comes from deployment policy
	itemAPI.POST("/:id/inventory", handler.SetInventory,
		mid.AuthMiddleware, mid.RequireCapability(guard, authz.CapAdjustInventory))

	// Purchase - any authenticated subject with purchasing rights
	itemAPI.POST("/purchase", handler.Purchase,
		mid.AuthMiddleware, mid.RequireCapability(guard, authz.CapPurchase))

	// Start server
	port := appConfig.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
		log.Fatal("Server error", zap.Error(err))
	}
}
