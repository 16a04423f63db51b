package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/example/plantshop/internal/api/middleware"
	"github.com/example/plantshop/internal/auth"
	"github.com/example/plantshop/internal/role"
)

type RouterConfig struct {
	Handlers     *Handlers
	AuthHandlers *AuthHandlers
	JWTService   *auth.JWTService
}

// NewRouter wires every route. Writes sit behind the operation gate; public
// reads are the product catalog and the auth endpoints.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID, chimw.RealIP, chimw.Logger, chimw.Recoverer)
	r.Use(chimw.Timeout(15 * time.Second))

	h := cfg.Handlers
	authn := middleware.Authenticate(cfg.JWTService)

	r.Get("/health", h.Health)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", cfg.AuthHandlers.Register)
		r.Post("/login", cfg.AuthHandlers.Login)
		r.Post("/refresh", cfg.AuthHandlers.Refresh)
	})

	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.ListProducts)
		r.Get("/{id}", h.GetProduct)
		r.Get("/slug/{slug}", h.GetProductBySlug)
		r.With(authn, middleware.RequireOperation(role.OpProductCreate)).Post("/", h.CreateProduct)
	})

	r.Route("/users", func(r chi.Router) {
		r.Use(authn)
		r.With(middleware.RequireOperation(role.OpUsersList)).Get("/", h.ListUsers)
		r.With(middleware.RequireOperation(role.OpUserRoleUpdate)).Post("/role", h.UpdateUserRole)
	})

	r.Route("/orders", func(r chi.Router) {
		r.Use(authn)
		r.With(middleware.RequireOperation(role.OpOrderCreate)).Post("/", h.CreateOrder)
		r.With(middleware.RequireOperation(role.OpOrdersList)).Get("/", h.ListOrders)
		r.Get("/user/{userID}", h.ListUserOrders)
		r.Get("/{id}", h.GetOrder)
	})

	r.Route("/deliveries", func(r chi.Router) {
		r.Use(authn)
		r.With(middleware.RequireOperation(role.OpDeliveriesList)).Get("/", h.ListDeliveries)
		r.Get("/order/{orderID}", h.ListOrderDeliveries)
		r.With(middleware.RequireOperation(role.OpDeliveryStatusUpdate)).Post("/{id}/status", h.UpdateDeliveryStatus)
	})

	r.Route("/finance", func(r chi.Router) {
		r.Use(authn, middleware.RequireOperation(role.OpFinanceList))
		r.Get("/", h.ListFinanceRecords)
		r.Get("/order/{orderID}", h.ListOrderFinanceRecords)
	})

	r.Route("/production", func(r chi.Router) {
		r.Use(authn)
		r.With(middleware.RequireOperation(role.OpProductionList)).Get("/", h.ListProductionRecords)
		r.With(middleware.RequireOperation(role.OpProductionList)).Get("/product/{productID}", h.ListProductProductionRecords)
		r.With(middleware.RequireOperation(role.OpProductionCreate)).Post("/", h.CreateProductionRecord)
	})

	r.With(authn, middleware.RequireOperation(role.OpAuditList)).Get("/audit", h.ListAuditEntries)

	return r
}
