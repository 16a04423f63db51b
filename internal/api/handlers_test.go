package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/plantshop/internal/audit"
	"github.com/example/plantshop/internal/auth"
	"github.com/example/plantshop/internal/domain"
	"github.com/example/plantshop/internal/infrastructure/store"
	"github.com/example/plantshop/internal/order"
	"github.com/example/plantshop/internal/repository"
	"github.com/example/plantshop/internal/role"
	"github.com/example/plantshop/internal/stock"
)

// memoryReplayCache stands in for the Redis idempotency cache.
type memoryReplayCache struct {
	entries map[string]string
}

func newMemoryReplayCache() *memoryReplayCache {
	return &memoryReplayCache{entries: make(map[string]string)}
}

func (c *memoryReplayCache) Lookup(_ context.Context, key string) string {
	return c.entries[key]
}

func (c *memoryReplayCache) Remember(_ context.Context, key, orderID string) {
	if key == "" {
		return
	}
	c.entries[key] = orderID
}

type testAPI struct {
	store      *store.MemoryStore
	router     http.Handler
	jwtService *auth.JWTService
	products   *repository.Products
	orders     *repository.Orders
	auditLogs  *repository.AuditLogs
	replay     *memoryReplayCache
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	s := store.NewMemoryStore()

	users := repository.NewUsers(s)
	products := repository.NewProducts(s)
	orders := repository.NewOrders(s)
	deliveries := repository.NewDeliveries(s)
	finances := repository.NewFinances(s)
	production := repository.NewProduction(s)
	auditLogs := repository.NewAuditLogs(s)

	recorder := audit.NewRecorder(auditLogs)
	placer := order.NewService(orders, stock.NewLedger(s), deliveries, finances, recorder, nil)
	jwtService := auth.NewJWTService("test-secret-key-for-handler-tests!!", 15*time.Minute, 24*time.Hour)

	replay := newMemoryReplayCache()
	handlers := NewHandlers(users, products, orders, deliveries, finances, production, placer, recorder, auditLogs, replay)
	authHandlers := NewAuthHandlers(users, jwtService)

	return &testAPI{
		store:      s,
		router:     NewRouter(RouterConfig{Handlers: handlers, AuthHandlers: authHandlers, JWTService: jwtService}),
		jwtService: jwtService,
		products:   products,
		orders:     orders,
		auditLogs:  auditLogs,
		replay:     replay,
	}
}

func (a *testAPI) token(t *testing.T, userID string, r role.Role) string {
	t.Helper()
	token, _, err := a.jwtService.GenerateAccessToken(userID, userID+"@example.com", r)
	require.NoError(t, err)
	return token
}

func (a *testAPI) do(t *testing.T, method, path, token string, body any, headers ...http.Header) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for _, h := range headers {
		for k, vs := range h {
			for _, v := range vs {
				req.Header.Set(k, v)
			}
		}
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func (a *testAPI) seedProduct(t *testing.T, id string, stockLevel int, price float64) {
	t.Helper()
	p := domain.Product{ID: id, Title: id, Slug: id, Price: price, Stock: stockLevel, Status: domain.ProductStatusActive}
	require.NoError(t, a.store.Insert(context.Background(), store.CollectionProducts, id, p))
}

func TestHealth(t *testing.T) {
	a := newTestAPI(t)
	rec := a.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRegisterAndLogin(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodPost, "/auth/register", "", RegisterRequest{
		Email:    "buyer@example.com",
		Password: "greenhouse1",
		Name:     "Buyer",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp AuthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, string(role.Customer), resp.User.Role)
	assert.Empty(t, resp.User.PasswordHash)
	assert.NotEmpty(t, resp.Tokens.AccessToken)

	// Duplicate email is rejected.
	rec = a.do(t, http.MethodPost, "/auth/register", "", RegisterRequest{
		Email:    "buyer@example.com",
		Password: "greenhouse1",
		Name:     "Other",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = a.do(t, http.MethodPost, "/auth/login", "", LoginRequest{Email: "buyer@example.com", Password: "greenhouse1"})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(t, http.MethodPost, "/auth/login", "", LoginRequest{Email: "buyer@example.com", Password: "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRefresh(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodPost, "/auth/register", "", RegisterRequest{
		Email:    "buyer@example.com",
		Password: "greenhouse1",
		Name:     "Buyer",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var resp AuthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))

	rec = a.do(t, http.MethodPost, "/auth/refresh", "", RefreshRequest{RefreshToken: resp.Tokens.RefreshToken})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(t, http.MethodPost, "/auth/refresh", "", RefreshRequest{RefreshToken: "bogus"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateProduct_RoleGate(t *testing.T) {
	a := newTestAPI(t)
	body := domain.Product{Title: "Snake Plant", Slug: "snake-plant", Price: 15, Stock: 10}

	tests := []struct {
		name     string
		role     role.Role
		wantCode int
	}{
		{"admin allowed", role.Admin, http.StatusCreated},
		{"moderator allowed", role.Moderator, http.StatusCreated},
		{"customer denied", role.Customer, http.StatusForbidden},
		{"finance denied", role.Finance, http.StatusForbidden},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := body
			b.Slug = fmt.Sprintf("%s-%d", body.Slug, i)
			rec := a.do(t, http.MethodPost, "/products/", a.token(t, "user-1", tt.role), b)
			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
		})
	}
}

func TestCreateProduct_DeniedWritesNothing(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodPost, "/products/", a.token(t, "user-1", role.Customer),
		domain.Product{Title: "Fern", Slug: "fern", Price: 9, Stock: 3})
	require.Equal(t, http.StatusForbidden, rec.Code)

	products, err := a.products.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, products)

	entries, err := a.auditLogs.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCreateProduct_Unauthenticated(t *testing.T) {
	a := newTestAPI(t)
	rec := a.do(t, http.MethodPost, "/products/", "", domain.Product{Title: "Fern", Slug: "fern"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProductLookup(t *testing.T) {
	a := newTestAPI(t)
	a.seedProduct(t, "monstera", 5, 30)

	rec := a.do(t, http.MethodGet, "/products/monstera", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(t, http.MethodGet, "/products/slug/monstera", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(t, http.MethodGet, "/products/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateOrder(t *testing.T) {
	a := newTestAPI(t)
	a.seedProduct(t, "monstera", 5, 30)

	rec := a.do(t, http.MethodPost, "/orders/", a.token(t, "buyer-1", role.Customer), CreateOrderRequest{
		Items: []domain.OrderItem{{ProductID: "monstera", Quantity: 2, Price: 30}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var placed domain.Order
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&placed))
	assert.Equal(t, domain.OrderStatusConfirmed, placed.Status)
	assert.Equal(t, "buyer-1", placed.UserID)

	var p domain.Product
	require.NoError(t, a.store.Get(context.Background(), store.CollectionProducts, "monstera", &p))
	assert.Equal(t, 3, p.Stock)
}

func TestCreateOrder_IdempotencyKeyReplay(t *testing.T) {
	a := newTestAPI(t)
	a.seedProduct(t, "monstera", 10, 30)

	body := CreateOrderRequest{
		Items: []domain.OrderItem{{ProductID: "monstera", Quantity: 2, Price: 30}},
	}
	headers := http.Header{"Idempotency-Key": []string{"retry-abc"}}

	rec := a.do(t, http.MethodPost, "/orders/", a.token(t, "buyer-1", role.Customer), body, headers)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var first domain.Order
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&first))

	rec = a.do(t, http.MethodPost, "/orders/", a.token(t, "buyer-1", role.Customer), body, headers)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var replayed domain.Order
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&replayed))
	assert.Equal(t, first.ID, replayed.ID)

	// Stock was decremented by the first attempt only.
	var p domain.Product
	require.NoError(t, a.store.Get(context.Background(), store.CollectionProducts, "monstera", &p))
	assert.Equal(t, 8, p.Stock)

	all, err := a.orders.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 1)

	// A different key places a fresh order.
	rec = a.do(t, http.MethodPost, "/orders/", a.token(t, "buyer-1", role.Customer), body,
		http.Header{"Idempotency-Key": []string{"retry-def"}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// No key means no deduplication; every call creates a new order.
	rec = a.do(t, http.MethodPost, "/orders/", a.token(t, "buyer-1", role.Customer), body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Empty(t, a.replay.entries[""])
}

func TestCreateOrder_InsufficientStock(t *testing.T) {
	a := newTestAPI(t)
	a.seedProduct(t, "monstera", 1, 30)

	rec := a.do(t, http.MethodPost, "/orders/", a.token(t, "buyer-1", role.Customer), CreateOrderRequest{
		Items: []domain.OrderItem{{ProductID: "monstera", Quantity: 2, Price: 30}},
	})
	assert.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())
}

func TestCreateOrder_UnknownProduct(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodPost, "/orders/", a.token(t, "buyer-1", role.Customer), CreateOrderRequest{
		Items: []domain.OrderItem{{ProductID: "ghost", Quantity: 1, Price: 5}},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
}

func TestCreateOrder_ValidationError(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodPost, "/orders/", a.token(t, "buyer-1", role.Customer), CreateOrderRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListOrders_RoleGate(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodGet, "/orders/", a.token(t, "user-1", role.Finance), nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(t, http.MethodGet, "/orders/", a.token(t, "user-1", role.Customer), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestListUserOrders_Ownership(t *testing.T) {
	a := newTestAPI(t)
	a.seedProduct(t, "monstera", 5, 30)

	rec := a.do(t, http.MethodPost, "/orders/", a.token(t, "buyer-1", role.Customer), CreateOrderRequest{
		Items: []domain.OrderItem{{ProductID: "monstera", Quantity: 1, Price: 30}},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	// Own orders are visible.
	rec = a.do(t, http.MethodGet, "/orders/user/buyer-1", a.token(t, "buyer-1", role.Customer), nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Someone else's are not.
	rec = a.do(t, http.MethodGet, "/orders/user/buyer-1", a.token(t, "buyer-2", role.Customer), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Admin sees everyone's.
	rec = a.do(t, http.MethodGet, "/orders/user/buyer-1", a.token(t, "admin-1", role.Admin), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUsersRoutes_AdminOnly(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodGet, "/users/", a.token(t, "admin-1", role.Admin), nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(t, http.MethodGet, "/users/", a.token(t, "user-1", role.Moderator), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestUpdateUserRole(t *testing.T) {
	a := newTestAPI(t)

	users := repository.NewUsers(a.store)
	u, err := users.Create(context.Background(), domain.User{Email: "x@example.com", Name: "X", Role: string(role.Customer)})
	require.NoError(t, err)

	rec := a.do(t, http.MethodPost, "/users/role", a.token(t, "admin-1", role.Admin),
		UpdateRoleRequest{UserID: u.ID, Role: string(role.Delivery)})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	updated, err := users.Get(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, string(role.Delivery), updated.Role)

	entries, err := a.auditLogs.List(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.AuditUserRoleUpdated, entries[0].Action)

	// Unknown target role is rejected before any write.
	rec = a.do(t, http.MethodPost, "/users/role", a.token(t, "admin-1", role.Admin),
		UpdateRoleRequest{UserID: u.ID, Role: "superuser"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeliveryStatusUpdate(t *testing.T) {
	a := newTestAPI(t)

	deliveries := repository.NewDeliveries(a.store)
	d, err := deliveries.Create(context.Background(), domain.Delivery{OrderID: "order-1"})
	require.NoError(t, err)

	rec := a.do(t, http.MethodPost, "/deliveries/"+d.ID+"/status", a.token(t, "courier-1", role.Delivery),
		UpdateDeliveryStatusRequest{Status: "in_transit"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	updated, err := deliveries.Get(context.Background(), d.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DeliveryStatusInTransit, updated.Status)

	// Bad status string.
	rec = a.do(t, http.MethodPost, "/deliveries/"+d.ID+"/status", a.token(t, "courier-1", role.Delivery),
		UpdateDeliveryStatusRequest{Status: "teleported"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Customers cannot touch deliveries.
	rec = a.do(t, http.MethodPost, "/deliveries/"+d.ID+"/status", a.token(t, "buyer-1", role.Customer),
		UpdateDeliveryStatusRequest{Status: "delivered"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestFinanceRoutes_RoleGate(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodGet, "/finance/", a.token(t, "fin-1", role.Finance), nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(t, http.MethodGet, "/finance/", a.token(t, "courier-1", role.Delivery), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestProductionCreate(t *testing.T) {
	a := newTestAPI(t)
	a.seedProduct(t, "monstera", 5, 30)

	rec := a.do(t, http.MethodPost, "/production/", a.token(t, "grower-1", role.Production),
		CreateProductionRecordRequest{ProductID: "monstera", Activity: "received", Quantity: 20, Location: "greenhouse-2"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = a.do(t, http.MethodPost, "/production/", a.token(t, "grower-1", role.Production),
		CreateProductionRecordRequest{ProductID: "ghost", Activity: "received", Quantity: 1})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = a.do(t, http.MethodPost, "/production/", a.token(t, "grower-1", role.Production),
		CreateProductionRecordRequest{ProductID: "monstera", Activity: "vanished", Quantity: 1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(t, http.MethodPost, "/production/", a.token(t, "buyer-1", role.Customer),
		CreateProductionRecordRequest{ProductID: "monstera", Activity: "moved", Quantity: 1})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestListAuditEntries_AdminOnly(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodPost, "/products/", a.token(t, "mod-1", role.Moderator),
		domain.Product{Title: "Fern", Slug: "fern", Price: 9, Stock: 3})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = a.do(t, http.MethodGet, "/audit", a.token(t, "admin-1", role.Admin), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var entries []domain.AuditEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, domain.AuditProductCreated, entries[0].Action)
	assert.Equal(t, "mod-1", entries[0].UserID)

	rec = a.do(t, http.MethodGet, "/audit", a.token(t, "fin-1", role.Finance), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
