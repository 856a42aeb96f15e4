package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/plateful/orders-api/internal/domain/order"
	"github.com/plateful/orders-api/internal/domain/payment"
)

// placeOrderRequest is the checkout submission body. Amounts accept JSON
// numbers or numeric strings; items keep their raw shape for the normalizer.
type placeOrderRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	Address   string `json:"address"`
	City      string `json:"city"`
	ZipCode   string `json:"zipCode"`

	PaymentMethod string          `json:"paymentMethod"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Tax           decimal.Decimal `json:"tax"`
	Total         decimal.Decimal `json:"total"`

	Items []order.RawItem `json:"items"`
}

// updateOrderRequest is a partial update body; absent fields stay untouched.
type updateOrderRequest struct {
	FirstName     *string `json:"firstName"`
	LastName      *string `json:"lastName"`
	Phone         *string `json:"phone"`
	Email         *string `json:"email"`
	Address       *string `json:"address"`
	City          *string `json:"city"`
	ZipCode       *string `json:"zipCode"`
	PaymentStatus *string `json:"paymentStatus"`
}

func (r updateOrderRequest) toUpdate() order.Update {
	upd := order.Update{
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Phone:     r.Phone,
		Email:     r.Email,
		Address:   r.Address,
		City:      r.City,
		ZipCode:   r.ZipCode,
	}
	if r.PaymentStatus != nil {
		status := order.PaymentStatus(*r.PaymentStatus)
		upd.PaymentStatus = &status
	}
	return upd
}

type lineItemResponse struct {
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unitPrice"`
	ImageURL  string  `json:"imageUrl"`
	Quantity  int     `json:"quantity"`
}

type orderResponse struct {
	ID              string             `json:"id"`
	UserID          string             `json:"user"`
	FirstName       string             `json:"firstName"`
	LastName        string             `json:"lastName"`
	Phone           string             `json:"phone"`
	Email           string             `json:"email"`
	Address         string             `json:"address"`
	City            string             `json:"city"`
	ZipCode         string             `json:"zipCode"`
	PaymentMethod   string             `json:"paymentMethod"`
	Items           []lineItemResponse `json:"items"`
	Subtotal        float64            `json:"subtotal"`
	Tax             float64            `json:"tax"`
	Total           float64            `json:"total"`
	Shipping        float64            `json:"shipping"`
	PaymentStatus   string             `json:"paymentStatus"`
	PaymentIntentID string             `json:"paymentIntentId,omitempty"`
	SessionID       string             `json:"sessionId,omitempty"`
	CreatedAt       time.Time          `json:"createdAt"`
}

type placeOrderResponse struct {
	Order       orderResponse `json:"order"`
	CheckoutURL *string       `json:"checkoutUrl"`
}

func toOrderResponse(o *order.Order) orderResponse {
	items := make([]lineItemResponse, len(o.Items))
	for i, it := range o.Items {
		items[i] = lineItemResponse{
			Name:      it.Name,
			UnitPrice: it.UnitPrice.InexactFloat64(),
			ImageURL:  it.ImageURL,
			Quantity:  it.Quantity,
		}
	}
	return orderResponse{
		ID:              o.ID,
		UserID:          o.UserID,
		FirstName:       o.FirstName,
		LastName:        o.LastName,
		Phone:           o.Phone,
		Email:           o.Email,
		Address:         o.Address,
		City:            o.City,
		ZipCode:         o.ZipCode,
		PaymentMethod:   string(o.PaymentMethod),
		Items:           items,
		Subtotal:        o.Subtotal.InexactFloat64(),
		Tax:             o.Tax.InexactFloat64(),
		Total:           o.Total.InexactFloat64(),
		Shipping:        o.Shipping.InexactFloat64(),
		PaymentStatus:   string(o.PaymentStatus),
		PaymentIntentID: o.PaymentIntentID,
		SessionID:       o.SessionID,
		CreatedAt:       o.CreatedAt,
	}
}

func toOrderListResponse(orders []order.Order) []orderResponse {
	out := make([]orderResponse, len(orders))
	for i := range orders {
		out[i] = toOrderResponse(&orders[i])
	}
	return out
}

// PlaceOrder handles POST /orders.
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	result, err := h.orders.PlaceOrder(r.Context(), UserID(r.Context()), order.PlaceOrderRequest{
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Phone:         req.Phone,
		Email:         req.Email,
		Address:       req.Address,
		City:          req.City,
		ZipCode:       req.ZipCode,
		PaymentMethod: order.PaymentMethod(req.PaymentMethod),
		Subtotal:      req.Subtotal,
		Tax:           req.Tax,
		Total:         req.Total,
		Items:         req.Items,
	})
	if err != nil {
		h.mapOrderError(w, r, err)
		return
	}

	resp := placeOrderResponse{Order: toOrderResponse(result.Order)}
	if result.CheckoutURL != "" {
		resp.CheckoutURL = &result.CheckoutURL
	}
	writeJSON(w, http.StatusCreated, resp)
}

// ConfirmPayment handles GET /orders/confirm?session_id=...
func (h *Handler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.ConfirmPayment(r.Context(), r.URL.Query().Get("session_id"))
	if err != nil {
		h.mapOrderError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

// ListOrders handles GET /orders, returning the caller's orders.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListUserOrders(r.Context(), UserID(r.Context()))
	if err != nil {
		h.mapOrderError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderListResponse(orders))
}

// GetOrder handles GET /orders/{id} with an ownership check.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.GetOrder(r.Context(), UserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.mapOrderError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

// UpdateOrder handles PUT /orders/{id} with an ownership check.
func (h *Handler) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	var req updateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	o, err := h.orders.UpdateOrder(r.Context(), UserID(r.Context()), chi.URLParam(r, "id"), req.toUpdate())
	if err != nil {
		h.mapOrderError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

// ListAllOrders handles GET /admin/orders.
func (h *Handler) ListAllOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListAllOrders(r.Context())
	if err != nil {
		h.mapOrderError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderListResponse(orders))
}

// AdminUpdateOrder handles PUT /admin/orders/{id} without an ownership check.
func (h *Handler) AdminUpdateOrder(w http.ResponseWriter, r *http.Request) {
	var req updateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	o, err := h.orders.AdminUpdateOrder(r.Context(), chi.URLParam(r, "id"), req.toUpdate())
	if err != nil {
		h.mapOrderError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

// mapOrderError converts domain errors to HTTP error responses. The mapping
// distinguishes "fix your input" (4xx), "retry later" (502/503), and "nothing
// to do yet" (402) for the storefront.
func (h *Handler) mapOrderError(w http.ResponseWriter, r *http.Request, err error) {
	var unsupported *order.UnsupportedPaymentMethodError
	var provider *payment.ProviderError

	switch {
	case errors.Is(err, order.ErrEmptyItems),
		errors.Is(err, order.ErrMissingSessionID),
		errors.Is(err, order.ErrEmptyUpdate),
		errors.As(err, &unsupported):
		writeError(w, http.StatusBadRequest, err.Error())

	case errors.Is(err, order.ErrAccessDenied):
		writeError(w, http.StatusForbidden, "access denied")

	case errors.Is(err, order.ErrNotFound),
		errors.Is(err, payment.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, err.Error())

	case errors.Is(err, order.ErrPaymentNotCompleted):
		writeError(w, http.StatusPaymentRequired, "payment not completed")

	case errors.Is(err, payment.ErrNotConfigured):
		writeError(w, http.StatusServiceUnavailable, "payment provider not configured")

	case errors.As(err, &provider):
		zctx.From(r.Context()).Error("payment provider call failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "payment provider unavailable, retry later")

	default:
		zctx.From(r.Context()).Error("order operation failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
