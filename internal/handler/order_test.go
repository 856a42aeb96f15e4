package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plateful/orders-api/internal/domain/order"
	"github.com/plateful/orders-api/internal/domain/payment"
)

// --- Mock implementations ---

type mockOrderService struct {
	placeResult *order.PlaceOrderResult
	placeErr    error

	confirmOrder *order.Order
	confirmErr   error

	getOrder *order.Order
	getErr   error

	listOrders []order.Order
	listErr    error

	updateOrder *order.Order
	updateErr   error

	lastUserID    string
	lastSessionID string
}

func (m *mockOrderService) PlaceOrder(_ context.Context, userID string, _ order.PlaceOrderRequest) (*order.PlaceOrderResult, error) {
	m.lastUserID = userID
	if m.placeErr != nil {
		return nil, m.placeErr
	}
	return m.placeResult, nil
}

func (m *mockOrderService) ConfirmPayment(_ context.Context, sessionID string) (*order.Order, error) {
	m.lastSessionID = sessionID
	if m.confirmErr != nil {
		return nil, m.confirmErr
	}
	return m.confirmOrder, nil
}

func (m *mockOrderService) GetOrder(_ context.Context, userID, _ string) (*order.Order, error) {
	m.lastUserID = userID
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.getOrder, nil
}

func (m *mockOrderService) ListUserOrders(_ context.Context, userID string) ([]order.Order, error) {
	m.lastUserID = userID
	return m.listOrders, m.listErr
}

func (m *mockOrderService) UpdateOrder(_ context.Context, userID, _ string, _ order.Update) (*order.Order, error) {
	m.lastUserID = userID
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	return m.updateOrder, nil
}

func (m *mockOrderService) ListAllOrders(_ context.Context) ([]order.Order, error) {
	return m.listOrders, m.listErr
}

func (m *mockOrderService) AdminUpdateOrder(_ context.Context, _ string, _ order.Update) (*order.Order, error) {
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	return m.updateOrder, nil
}

// --- Helpers ---

func testOrder() *order.Order {
	return &order.Order{
		ID:            "o1",
		UserID:        "u1",
		PaymentMethod: order.PaymentMethodCashOnDelivery,
		Items: []order.LineItem{
			{Name: "Pizza", UnitPrice: decimal.RequireFromString("12.5"), Quantity: 2},
		},
		Total:         decimal.RequireFromString("25"),
		PaymentStatus: order.PaymentStatusSucceeded,
	}
}

func doRequest(t *testing.T, svc OrderService, method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	NewHandler(svc).Routes().ServeHTTP(rec, req)
	return rec
}

func userHeaders() map[string]string {
	return map[string]string{HeaderUserID: "u1"}
}

func adminHeaders() map[string]string {
	return map[string]string{HeaderUserID: "root", HeaderUserRole: "admin"}
}

// --- Tests ---

func TestPlaceOrder_RequiresIdentity(t *testing.T) {
	rec := doRequest(t, &mockOrderService{}, http.MethodPost, "/orders", `{}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPlaceOrder_CashOrder(t *testing.T) {
	svc := &mockOrderService{
		placeResult: &order.PlaceOrderResult{Order: testOrder()},
	}
	rec := doRequest(t, svc, http.MethodPost, "/orders",
		`{"paymentMethod":"cashOnDelivery","items":[{"name":"Pizza","price":12.5,"quantity":2}]}`,
		userHeaders())

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "u1", svc.lastUserID)

	var resp struct {
		Order       map[string]any `json:"order"`
		CheckoutURL *string        `json:"checkoutUrl"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Nil(t, resp.CheckoutURL, "cash orders have no checkout URL")
	assert.Equal(t, "succeeded", resp.Order["paymentStatus"])
}

func TestPlaceOrder_OnlineOrder(t *testing.T) {
	o := testOrder()
	o.PaymentMethod = order.PaymentMethodOnline
	o.PaymentStatus = order.PaymentStatusPending
	o.SessionID = "sess_1"
	o.PaymentIntentID = "pi_1"
	svc := &mockOrderService{
		placeResult: &order.PlaceOrderResult{Order: o, CheckoutURL: "https://pay.example/s/sess_1"},
	}
	rec := doRequest(t, svc, http.MethodPost, "/orders",
		`{"paymentMethod":"online","items":[{"name":"Pizza","price":12.5,"quantity":2}]}`,
		userHeaders())

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Order       map[string]any `json:"order"`
		CheckoutURL *string        `json:"checkoutUrl"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.CheckoutURL)
	assert.Equal(t, "https://pay.example/s/sess_1", *resp.CheckoutURL)
	assert.Equal(t, "pending", resp.Order["paymentStatus"])
	assert.Equal(t, "sess_1", resp.Order["sessionId"])
}

func TestPlaceOrder_InvalidBody(t *testing.T) {
	rec := doRequest(t, &mockOrderService{}, http.MethodPost, "/orders",
		`{"items": "not-a-sequence"}`, userHeaders())
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPlaceOrder_EmptyItems(t *testing.T) {
	svc := &mockOrderService{placeErr: order.ErrEmptyItems}
	rec := doRequest(t, svc, http.MethodPost, "/orders",
		`{"paymentMethod":"online","items":[]}`, userHeaders())
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPlaceOrder_ProviderNotConfigured(t *testing.T) {
	svc := &mockOrderService{placeErr: payment.ErrNotConfigured}
	rec := doRequest(t, svc, http.MethodPost, "/orders",
		`{"paymentMethod":"online","items":[{"name":"Pizza"}]}`, userHeaders())
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestPlaceOrder_ProviderFailure(t *testing.T) {
	svc := &mockOrderService{
		placeErr: &payment.ProviderError{Op: "create checkout session", Err: errors.New("timeout")},
	}
	rec := doRequest(t, svc, http.MethodPost, "/orders",
		`{"paymentMethod":"online","items":[{"name":"Pizza"}]}`, userHeaders())
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestConfirmPayment_OK(t *testing.T) {
	o := testOrder()
	o.PaymentStatus = order.PaymentStatusSucceeded
	svc := &mockOrderService{confirmOrder: o}
	rec := doRequest(t, svc, http.MethodGet, "/orders/confirm?session_id=sess_1", "", userHeaders())

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "sess_1", svc.lastSessionID)
}

func TestConfirmPayment_Missing(t *testing.T) {
	svc := &mockOrderService{confirmErr: order.ErrMissingSessionID}
	rec := doRequest(t, svc, http.MethodGet, "/orders/confirm", "", userHeaders())
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConfirmPayment_NotCompleted(t *testing.T) {
	svc := &mockOrderService{confirmErr: order.ErrPaymentNotCompleted}
	rec := doRequest(t, svc, http.MethodGet, "/orders/confirm?session_id=sess_1", "", userHeaders())
	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
}

func TestConfirmPayment_UnknownSession(t *testing.T) {
	svc := &mockOrderService{confirmErr: order.ErrNotFound}
	rec := doRequest(t, svc, http.MethodGet, "/orders/confirm?session_id=sess_ghost", "", userHeaders())
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetOrder_Forbidden(t *testing.T) {
	svc := &mockOrderService{getErr: order.ErrAccessDenied}
	rec := doRequest(t, svc, http.MethodGet, "/orders/o1", "", userHeaders())

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.NotContains(t, rec.Body.String(), `"items"`, "forbidden responses must not leak order data")
}

func TestListOrders_ScopedToCaller(t *testing.T) {
	svc := &mockOrderService{listOrders: []order.Order{*testOrder()}}
	rec := doRequest(t, svc, http.MethodGet, "/orders", "", userHeaders())

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u1", svc.lastUserID)

	var resp []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, "o1", resp[0]["id"])
}

func TestUpdateOrder_OK(t *testing.T) {
	svc := &mockOrderService{updateOrder: testOrder()}
	rec := doRequest(t, svc, http.MethodPut, "/orders/o1",
		`{"address":"12 New Street"}`, userHeaders())
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminRoutes_RequireAdminRole(t *testing.T) {
	svc := &mockOrderService{listOrders: []order.Order{}}

	rec := doRequest(t, svc, http.MethodGet, "/admin/orders", "", userHeaders())
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doRequest(t, svc, http.MethodGet, "/admin/orders", "", adminHeaders())
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminUpdateOrder_OK(t *testing.T) {
	svc := &mockOrderService{updateOrder: testOrder()}
	rec := doRequest(t, svc, http.MethodPut, "/admin/orders/o1",
		`{"paymentStatus":"succeeded"}`, adminHeaders())
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminUpdateOrder_NotFound(t *testing.T) {
	svc := &mockOrderService{updateErr: order.ErrNotFound}
	rec := doRequest(t, svc, http.MethodPut, "/admin/orders/ghost",
		`{"paymentStatus":"succeeded"}`, adminHeaders())
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
