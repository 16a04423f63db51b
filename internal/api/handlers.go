package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/example/plantshop/internal/api/middleware"
	"github.com/example/plantshop/internal/audit"
	"github.com/example/plantshop/internal/domain"
	"github.com/example/plantshop/internal/infrastructure/store"
	"github.com/example/plantshop/internal/order"
	"github.com/example/plantshop/internal/repository"
	"github.com/example/plantshop/internal/role"
)

// ReplayCache remembers which order an Idempotency-Key already created, so a
// retried POST /orders returns the first attempt's order instead of placing a
// second one. *redisx.IdempotencyCache implements it.
type ReplayCache interface {
	Lookup(ctx context.Context, key string) string
	Remember(ctx context.Context, key, orderID string)
}

// Handlers carries the dependencies for every non-auth route.
type Handlers struct {
	users       *repository.Users
	products    *repository.Products
	orders      *repository.Orders
	deliveries  *repository.Deliveries
	finances    *repository.Finances
	production  *repository.Production
	placer      *order.Service
	recorder    *audit.Recorder
	auditLogs   *repository.AuditLogs
	idempotency ReplayCache // nil disables replay detection
}

func NewHandlers(
	users *repository.Users,
	products *repository.Products,
	orders *repository.Orders,
	deliveries *repository.Deliveries,
	finances *repository.Finances,
	production *repository.Production,
	placer *order.Service,
	recorder *audit.Recorder,
	auditLogs *repository.AuditLogs,
	idempotency ReplayCache,
) *Handlers {
	return &Handlers{
		users:       users,
		products:    products,
		orders:      orders,
		deliveries:  deliveries,
		finances:    finances,
		production:  production,
		placer:      placer,
		recorder:    recorder,
		auditLogs:   auditLogs,
		idempotency: idempotency,
	}
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// record emits a best-effort audit entry with the request's caller context.
func (h *Handlers) record(r *http.Request, action, resourceID, resourceType string, details map[string]any) {
	_ = h.recorder.Record(r.Context(), domain.AuditEntry{
		Action:       action,
		UserID:       middleware.GetUserID(r.Context()),
		ResourceID:   resourceID,
		ResourceType: resourceType,
		Details:      details,
		IPAddress:    r.RemoteAddr,
		UserAgent:    r.UserAgent(),
	})
}

// --- Products ---

func (h *Handlers) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *Handlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handlers) GetProductBySlug(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handlers) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var p domain.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if p.Title == "" || p.Slug == "" {
		writeError(w, http.StatusBadRequest, "title and slug are required")
		return
	}
	if p.Price < 0 || p.Stock < 0 {
		writeError(w, http.StatusBadRequest, "price and stock must not be negative")
		return
	}
	if existing, err := h.products.GetBySlug(r.Context(), p.Slug); err == nil && existing != nil {
		writeError(w, http.StatusConflict, "slug already in use")
		return
	}

	created, err := h.products.Create(r.Context(), p)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	h.record(r, domain.AuditProductCreated, created.ID, "product", map[string]any{"slug": created.Slug})
	writeJSON(w, http.StatusCreated, created)
}

// --- Orders ---

type CreateOrderRequest struct {
	Items            []domain.OrderItem `json:"items"`
	ShippingAddress  string             `json:"shipping_address"`
	ShippingLocation string             `json:"shipping_location"`
	ShippingCost     float64            `json:"shipping_cost"`
	Tax              float64            `json:"tax"`
	PaymentMethod    string             `json:"payment_method"`
}

// CreateOrder runs the placement workflow for the authenticated caller. An
// optional Idempotency-Key header makes retries return the order created by
// the first attempt instead of placing a second one.
func (h *Handlers) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	idemKey := r.Header.Get("Idempotency-Key")
	if h.idempotency != nil {
		if orderID := h.idempotency.Lookup(r.Context(), idemKey); orderID != "" {
			if existing, err := h.orders.Get(r.Context(), orderID); err == nil {
				writeJSON(w, http.StatusOK, existing)
				return
			}
		}
	}

	placed, err := h.placer.PlaceOrder(r.Context(), order.PlaceOrderInput{
		UserID:           middleware.GetUserID(r.Context()),
		Items:            req.Items,
		ShippingAddress:  req.ShippingAddress,
		ShippingLocation: req.ShippingLocation,
		ShippingCost:     req.ShippingCost,
		Tax:              req.Tax,
		PaymentMethod:    req.PaymentMethod,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if h.idempotency != nil {
		h.idempotency.Remember(r.Context(), idemKey, placed.ID)
	}
	writeJSON(w, http.StatusCreated, placed)
}

func (h *Handlers) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.List(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

// ListUserOrders returns one user's orders. Callers may read their own; Admin
// may read anyone's.
func (h *Handlers) ListUserOrders(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	claims, _ := middleware.GetUserFromContext(r.Context())
	if claims == nil || (claims.UserID != userID && claims.Role != role.Admin) {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	orders, err := h.orders.ListByUser(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

// GetOrder returns one order to its owner or to Admin/Finance.
func (h *Handlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	claims, _ := middleware.GetUserFromContext(r.Context())
	if claims == nil || (claims.UserID != o.UserID && claims.Role != role.Admin && claims.Role != role.Finance) {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// --- Users ---

func (h *Handlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	public := make([]domain.User, 0, len(users))
	for _, u := range users {
		public = append(public, u.Public())
	}
	writeJSON(w, http.StatusOK, public)
}

type UpdateRoleRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

func (h *Handlers) UpdateUserRole(w http.ResponseWriter, r *http.Request) {
	var req UpdateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	newRole, ok := role.Parse(req.Role)
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown role")
		return
	}

	u, err := h.users.Get(r.Context(), req.UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if err := h.users.UpdateRole(r.Context(), u.ID, string(newRole)); err != nil {
		writeDomainError(w, err)
		return
	}

	h.record(r, domain.AuditUserRoleUpdated, u.ID, "user", map[string]any{
		"old_role": u.Role,
		"new_role": string(newRole),
	})
	writeJSON(w, http.StatusOK, map[string]string{"user_id": u.ID, "role": string(newRole)})
}

// --- Deliveries ---

func (h *Handlers) ListDeliveries(w http.ResponseWriter, r *http.Request) {
	deliveries, err := h.deliveries.List(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, deliveries)
}

func (h *Handlers) ListOrderDeliveries(w http.ResponseWriter, r *http.Request) {
	deliveries, err := h.deliveries.ListByOrder(r.Context(), chi.URLParam(r, "orderID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, deliveries)
}

type UpdateDeliveryStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handlers) UpdateDeliveryStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateDeliveryStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	status, err := domain.ParseDeliveryStatus(req.Status)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id := chi.URLParam(r, "id")
	if _, err := h.deliveries.Get(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}

	if err := h.deliveries.SetStatus(r.Context(), id, status); err != nil {
		writeDomainError(w, err)
		return
	}

	h.record(r, domain.AuditDeliveryStatusUpdated, id, "delivery", map[string]any{"status": string(status)})
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": string(status)})
}

// --- Finance ---

func (h *Handlers) ListFinanceRecords(w http.ResponseWriter, r *http.Request) {
	records, err := h.finances.List(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *Handlers) ListOrderFinanceRecords(w http.ResponseWriter, r *http.Request) {
	records, err := h.finances.ListByOrder(r.Context(), chi.URLParam(r, "orderID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// --- Production ---

func (h *Handlers) ListProductionRecords(w http.ResponseWriter, r *http.Request) {
	records, err := h.production.List(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *Handlers) ListProductProductionRecords(w http.ResponseWriter, r *http.Request) {
	records, err := h.production.ListByProduct(r.Context(), chi.URLParam(r, "productID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

type CreateProductionRecordRequest struct {
	ProductID string `json:"product_id"`
	Activity  string `json:"activity"`
	Quantity  int    `json:"quantity"`
	Location  string `json:"location"`
	Notes     string `json:"notes"`
}

func (h *Handlers) CreateProductionRecord(w http.ResponseWriter, r *http.Request) {
	var req CreateProductionRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	activity, err := domain.ParseProductionActivity(req.Activity)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Quantity <= 0 {
		writeError(w, http.StatusBadRequest, "quantity must be positive")
		return
	}

	if _, err := h.products.Get(r.Context(), req.ProductID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		writeDomainError(w, err)
		return
	}

	created, err := h.production.Create(r.Context(), domain.ProductionRecord{
		ProductID: req.ProductID,
		Activity:  activity,
		Quantity:  req.Quantity,
		Location:  req.Location,
		Notes:     req.Notes,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	h.record(r, domain.AuditProductionRecorded, created.ID, "production", map[string]any{
		"product_id": created.ProductID,
		"activity":   string(created.Activity),
	})
	writeJSON(w, http.StatusCreated, created)
}

// --- Audit ---

func (h *Handlers) ListAuditEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := h.auditLogs.List(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
