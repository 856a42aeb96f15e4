// Package handler exposes the order lifecycle over HTTP. Routing is chi,
// bodies are plain JSON, and caller identity arrives pre-resolved in trusted
// headers set by the upstream auth layer.
package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/plateful/orders-api/internal/domain/order"
)

// OrderService is the slice of the order service the HTTP layer needs.
type OrderService interface {
	PlaceOrder(ctx context.Context, userID string, req order.PlaceOrderRequest) (*order.PlaceOrderResult, error)
	ConfirmPayment(ctx context.Context, sessionID string) (*order.Order, error)
	GetOrder(ctx context.Context, userID, orderID string) (*order.Order, error)
	ListUserOrders(ctx context.Context, userID string) ([]order.Order, error)
	UpdateOrder(ctx context.Context, userID, orderID string, upd order.Update) (*order.Order, error)
	ListAllOrders(ctx context.Context) ([]order.Order, error)
	AdminUpdateOrder(ctx context.Context, orderID string, upd order.Update) (*order.Order, error)
}

// Handler holds the HTTP endpoints of the orders API.
type Handler struct {
	orders OrderService
}

// NewHandler constructs a Handler around the order service.
func NewHandler(orders OrderService) *Handler {
	return &Handler{orders: orders}
}

// Routes returns the API router. Every route requires a resolved user
// identity except the admin subtree, which additionally requires the admin
// role.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(RequireUser)
		r.Post("/orders", h.PlaceOrder)
		r.Get("/orders", h.ListOrders)
		r.Get("/orders/confirm", h.ConfirmPayment)
		r.Get("/orders/{id}", h.GetOrder)
		r.Put("/orders/{id}", h.UpdateOrder)
	})

	r.Group(func(r chi.Router) {
		r.Use(RequireUser, RequireAdmin)
		r.Get("/admin/orders", h.ListAllOrders)
		r.Put("/admin/orders/{id}", h.AdminUpdateOrder)
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorResponse is the error envelope of every non-2xx response.
type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Code: status, Message: msg})
}
