package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/shivam1108-06/jalaram-sweet-shop/internal/authz"
	"github.com/shivam1108-06/jalaram-sweet-shop/internal/middleware"
	"github.com/shivam1108-06/jalaram-sweet-shop/internal/model"
	"github.com/shivam1108-06/jalaram-sweet-shop/pkg/config"
	"github.com/shivam1108-06/jalaram-sweet-shop/pkg/database"
	"github.com/shivam1108-06/jalaram-sweet-shop/pkg/jwtutil"
	"github.com/shivam1108-06/jalaram-sweet-shop/prometheus"
)

func TestMain(m *testing.M) {
	// Metrics registration is process-global, so it happens exactly once
	prometheus.InitMetrics(&config.Config{
		Metrics: config.MetricsConfig{Prefix: "sweetshop_test"},
	})
	os.Exit(m.Run())
}

// newTestServer wires the full route table over a fresh in-memory
// database, mirroring cmd/main.go.
func newTestServer(t *testing.T) *echo.Echo {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:handler_%s?mode=memory&cache=shared", name)
	newTestDatabase(t, dsn, 1)
	return newRouter()
}

// newTestDatabase opens a sqlite database for the given DSN, migrates the
// schema, and installs it as the process database.
func newTestDatabase(t *testing.T, dsn string, maxConns int) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(maxConns)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Item{},
		&model.SKU{},
		&model.InventoryRecord{},
		&model.Order{},
	))
	database.SetDB(db)
	return db
}

func newRouter() *echo.Echo {
	guard := authz.NewGuard(&config.AuthzConfig{InventoryAdjustRoles: []string{"admin", "cashier"}})

	e := echo.New()
	e.GET("/health", HealthCheck)

	authAPI := e.Group("/api/auth")
	authAPI.POST("/register", Register)
	authAPI.POST("/login", Login)
	authAPI.POST("/cashiers", CreateCashier,
		middleware.AuthMiddleware, middleware.RequireCapability(guard, authz.CapCreateCashier))

	itemAPI := e.Group("/api/items")
	itemAPI.GET("/list", ListItems)
	itemAPI.GET("/:id", GetItem)
	itemAPI.POST("", CreateItem,
		middleware.AuthMiddleware, middleware.RequireCapability(guard, authz.CapCreateItem))
	itemAPI.PUT("/:id/active", SetItemActive,
		middleware.AuthMiddleware, middleware.RequireCapability(guard, authz.CapCreateItem))
	itemAPI.POST("/skus", CreateSKU,
		middleware.AuthMiddleware, middleware.RequireCapability(guard, authz.CapCreateSKU))
	itemAPI.PUT("/skus/:id/price", UpdateSKUPrice,
		middleware.AuthMiddleware, middleware.RequireCapability(guard, authz.CapCreateSKU))
	itemAPI.POST("/:id/inventory", SetInventory,
		middleware.AuthMiddleware, middleware.RequireCapability(guard, authz.CapAdjustInventory))
	itemAPI.POST("/purchase", Purchase,
		middleware.AuthMiddleware, middleware.RequireCapability(guard, authz.CapPurchase))

	return e
}

func token(t *testing.T, role model.Role, userID uint) string {
	t.Helper()
	tok, err := jwtutil.GenerateToken(string(role)+"@test.com", "Test User", userID, string(role))
	require.NoError(t, err)
	return tok
}

func perform(e *echo.Echo, method, path, bearer string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if bearer != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}

func seedCatalog(t *testing.T, e *echo.Echo, stock int) (itemID uint, skuID uint) {
	t.Helper()
	admin := token(t, model.RoleAdmin, 1)

	rec := perform(e, http.MethodPost, "/api/items", admin, echo.Map{
		"name": "Kaju Katli", "category": "dry", "sale_type": "weight",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var item model.Item
	decode(t, rec, &item)

	rec = perform(e, http.MethodPost, "/api/items/skus", admin, echo.Map{
		"item_id": item.ID, "code": "KK-250", "unit_value": 250, "price": "450.00",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var sku model.SKU
	decode(t, rec, &sku)

	rec = perform(e, http.MethodPost, fmt.Sprintf("/api/items/%d/inventory", item.ID), admin, echo.Map{
		"quantity": stock,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	return item.ID, sku.ID
}

func TestCreateItemRequiresAuth(t *testing.T) {
	e := newTestServer(t)

	rec := perform(e, http.MethodPost, "/api/items", "", echo.Map{
		"name": "Kaju Katli", "category": "dry", "sale_type": "weight",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateItemForbiddenForCustomer(t *testing.T) {
	e := newTestServer(t)

	rec := perform(e, http.MethodPost, "/api/items", token(t, model.RoleCustomer, 5), echo.Map{
		"name": "Kaju Katli", "category": "dry", "sale_type": "weight",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCreateItemAsAdmin(t *testing.T) {
	e := newTestServer(t)

	rec := perform(e, http.MethodPost, "/api/items", token(t, model.RoleAdmin, 1), echo.Map{
		"name": "Kaju Katli", "category": "dry", "sale_type": "weight",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var item model.Item
	decode(t, rec, &item)
	assert.Equal(t, "Kaju Katli", item.Name)
	assert.Equal(t, "grams", item.InventoryUnit)
	assert.True(t, item.IsActive)
}

func TestCreateItemDuplicateFieldError(t *testing.T) {
	e := newTestServer(t)
	admin := token(t, model.RoleAdmin, 1)

	body := echo.Map{"name": "Rasgulla", "category": "milk", "sale_type": "count"}
	rec := perform(e, http.MethodPost, "/api/items", admin, body)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = perform(e, http.MethodPost, "/api/items", admin, body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var fieldErrors map[string][]string
	decode(t, rec, &fieldErrors)
	assert.NotEmpty(t, fieldErrors["name"])
}

func TestCreateSKUFieldErrors(t *testing.T) {
	e := newTestServer(t)
	itemID, _ := seedCatalog(t, e, 0)
	admin := token(t, model.RoleAdmin, 1)

	rec := perform(e, http.MethodPost, "/api/items/skus", admin, echo.Map{
		"item_id": itemID, "code": "KK-500", "unit_value": 500, "price": "0",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var fieldErrors map[string][]string
	decode(t, rec, &fieldErrors)
	assert.NotEmpty(t, fieldErrors["price"])

	// Duplicate code from the seeded SKU
	rec = perform(e, http.MethodPost, "/api/items/skus", admin, echo.Map{
		"item_id": itemID, "code": "KK-250", "unit_value": 500, "price": "880.00",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	fieldErrors = nil
	decode(t, rec, &fieldErrors)
	assert.NotEmpty(t, fieldErrors["code"])
}

func TestPublicCatalogBrowsing(t *testing.T) {
	e := newTestServer(t)
	itemID, _ := seedCatalog(t, e, 1000)

	rec := perform(e, http.MethodGet, "/api/items/list", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var items []model.Item
	decode(t, rec, &items)
	require.Len(t, items, 1)
	assert.Empty(t, items[0].SKUs)
	assert.NotContains(t, rec.Body.String(), "inventory_qty")

	rec = perform(e, http.MethodGet, fmt.Sprintf("/api/items/%d", itemID), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var detail model.Item
	decode(t, rec, &detail)
	require.Len(t, detail.SKUs, 1)
	assert.Equal(t, "250g", detail.SKUs[0].DisplayUnit)
	require.NotNil(t, detail.InventoryQty)
	assert.Equal(t, 1000, *detail.InventoryQty)

	rec = perform(e, http.MethodGet, "/api/items/9999", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestItemDetailReportsZeroStock(t *testing.T) {
	e := newTestServer(t)
	itemID, _ := seedCatalog(t, e, 0)

	rec := perform(e, http.MethodGet, fmt.Sprintf("/api/items/%d", itemID), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var detail model.Item
	decode(t, rec, &detail)
	require.NotNil(t, detail.InventoryQty)
	assert.Equal(t, 0, *detail.InventoryQty)
}

func TestSetInventoryBusyReturns503(t *testing.T) {
	// A file-backed database with two connections and no busy wait lets a
	// held write lock surface SQLITE_BUSY on the handler's connection.
	dsn := filepath.Join(t.TempDir(), "busy.db") + "?_busy_timeout=0"
	db := newTestDatabase(t, dsn, 2)
	e := newRouter()
	itemID, _ := seedCatalog(t, e, 100)

	hold := db.Begin()
	require.NoError(t, hold.Error)
	require.NoError(t, hold.Exec("UPDATE inventory_records SET quantity = quantity").Error)
	defer hold.Rollback()

	rec := perform(e, http.MethodPost, fmt.Sprintf("/api/items/%d/inventory", itemID),
		token(t, model.RoleAdmin, 1), echo.Map{"quantity": 50})
	require.Equal(t, http.StatusServiceUnavailable, rec.Code, rec.Body.String())
	var errResp map[string]string
	decode(t, rec, &errResp)
	assert.Contains(t, errResp["error"], "busy")
}

func TestSetInventoryRolePolicy(t *testing.T) {
	e := newTestServer(t)
	itemID, _ := seedCatalog(t, e, 0)
	path := fmt.Sprintf("/api/items/%d/inventory", itemID)

	rec := perform(e, http.MethodPost, path, token(t, model.RoleCashier, 2), echo.Map{"quantity": 500})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp struct {
		ItemID       uint `json:"item_id"`
		InventoryQty int  `json:"inventory_qty"`
	}
	decode(t, rec, &resp)
	assert.Equal(t, itemID, resp.ItemID)
	assert.Equal(t, 500, resp.InventoryQty)

	rec = perform(e, http.MethodPost, path, token(t, model.RoleCustomer, 5), echo.Map{"quantity": 9000})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = perform(e, http.MethodPost, path, token(t, model.RoleAdmin, 1), echo.Map{"quantity": -5})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPurchaseFlow(t *testing.T) {
	e := newTestServer(t)
	_, skuID := seedCatalog(t, e, 1000)
	customer := token(t, model.RoleCustomer, 5)

	rec := perform(e, http.MethodPost, "/api/items/purchase", customer, echo.Map{
		"sku_id": skuID, "quantity": 2,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp struct {
		OrderID    uint            `json:"order_id"`
		TotalPrice decimal.Decimal `json:"total_price"`
	}
	decode(t, rec, &resp)
	assert.NotZero(t, resp.OrderID)
	assert.True(t, resp.TotalPrice.Equal(decimal.RequireFromString("900.00")))

	// 500g remain; a 3-pack needs 750g
	rec = perform(e, http.MethodPost, "/api/items/purchase", customer, echo.Map{
		"sku_id": skuID, "quantity": 3,
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	var errResp map[string]string
	decode(t, rec, &errResp)
	assert.Equal(t, "insufficient stock", errResp["error"])

	rec = perform(e, http.MethodPost, "/api/items/purchase", "", echo.Map{
		"sku_id": skuID, "quantity": 1,
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = perform(e, http.MethodPost, "/api/items/purchase", customer, echo.Map{
		"sku_id": skuID, "quantity": 0,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = perform(e, http.MethodPost, "/api/items/purchase", customer, echo.Map{
		"sku_id": 9999, "quantity": 1,
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPurchaseInactiveSKURejected(t *testing.T) {
	e := newTestServer(t)
	_, skuID := seedCatalog(t, e, 1000)

	require.NoError(t, database.GetDB().Model(&model.SKU{}).
		Where("id = ?", skuID).
		Update("is_active", false).Error)

	rec := perform(e, http.MethodPost, "/api/items/purchase", token(t, model.RoleCustomer, 5), echo.Map{
		"sku_id": skuID, "quantity": 1,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var errResp map[string]string
	decode(t, rec, &errResp)
	assert.Contains(t, errResp["error"], "no longer available")
}

func TestRegisterAndLogin(t *testing.T) {
	e := newTestServer(t)

	rec := perform(e, http.MethodPost, "/api/auth/register", "", echo.Map{
		"email": "meera@test.com", "name": "Meera", "password": "Sweet123!",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "Sweet123!")

	var user model.User
	decode(t, rec, &user)
	assert.Equal(t, model.RoleCustomer, user.Role)

	rec = perform(e, http.MethodPost, "/api/auth/login", "", echo.Map{
		"email": "meera@test.com", "password": "Sweet123!",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var login struct {
		Token string     `json:"token"`
		User  model.User `json:"user"`
	}
	decode(t, rec, &login)
	require.NotEmpty(t, login.Token)

	claims, err := jwtutil.ValidateToken(login.Token)
	require.NoError(t, err)
	assert.Equal(t, "customer", claims.Role)

	rec = perform(e, http.MethodPost, "/api/auth/login", "", echo.Map{
		"email": "meera@test.com", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegisterValidation(t *testing.T) {
	e := newTestServer(t)

	rec := perform(e, http.MethodPost, "/api/auth/register", "", echo.Map{
		"email": "not-an-email", "name": "", "password": "short",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var fieldErrors map[string][]string
	decode(t, rec, &fieldErrors)
	assert.NotEmpty(t, fieldErrors["email"])
	assert.NotEmpty(t, fieldErrors["name"])
	assert.NotEmpty(t, fieldErrors["password"])
}

func TestCreateCashierRequiresAdmin(t *testing.T) {
	e := newTestServer(t)

	body := echo.Map{"email": "cashier@test.com", "name": "Casheer", "password": "Sweet123!"}

	rec := perform(e, http.MethodPost, "/api/auth/cashiers", token(t, model.RoleCustomer, 5), body)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = perform(e, http.MethodPost, "/api/auth/cashiers", token(t, model.RoleAdmin, 1), body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var user model.User
	decode(t, rec, &user)
	assert.Equal(t, model.RoleCashier, user.Role)
}

func TestItemActiveToggleHidesFromList(t *testing.T) {
	e := newTestServer(t)
	itemID, _ := seedCatalog(t, e, 0)
	admin := token(t, model.RoleAdmin, 1)

	rec := perform(e, http.MethodPut, fmt.Sprintf("/api/items/%d/active", itemID), admin, echo.Map{
		"is_active": false,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = perform(e, http.MethodGet, "/api/items/list", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var items []model.Item
	decode(t, rec, &items)
	assert.Empty(t, items)
}

func TestUpdateSKUPriceEndpoint(t *testing.T) {
	e := newTestServer(t)
	_, skuID := seedCatalog(t, e, 1000)
	admin := token(t, model.RoleAdmin, 1)

	rec := perform(e, http.MethodPut, fmt.Sprintf("/api/items/skus/%d/price", skuID), admin, echo.Map{
		"price": "475.00",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var sku model.SKU
	decode(t, rec, &sku)
	assert.True(t, sku.Price.Equal(decimal.RequireFromString("475.00")))

	rec = perform(e, http.MethodPut, fmt.Sprintf("/api/items/skus/%d/price", skuID), admin, echo.Map{
		"price": "-1",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
