package order

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/plateful/orders-api/internal/domain/payment"
)

// PlaceOrderRequest holds the checkout submission for a single order. The
// amounts are supplied by the storefront and trusted as authoritative inputs;
// price integrity against the catalog is enforced upstream.
type PlaceOrderRequest struct {
	FirstName string
	LastName  string
	Phone     string
	Email     string
	Address   string
	City      string
	ZipCode   string

	PaymentMethod PaymentMethod
	Subtotal      decimal.Decimal
	Tax           decimal.Decimal
	Total         decimal.Decimal

	Items []RawItem
}

// PlaceOrderResult is the outcome of a placed order. CheckoutURL is empty for
// cash orders and a provider-hosted URL for online orders.
type PlaceOrderResult struct {
	Order       *Order
	CheckoutURL string
}

// ServiceConfig holds the non-dependency knobs of the order service.
type ServiceConfig struct {
	// Currency is the ISO code sent to the payment provider.
	Currency string
	// SuccessURL and CancelURL are the redirect targets for hosted checkout.
	// SuccessURL carries the provider's {CHECKOUT_SESSION_ID} placeholder.
	SuccessURL string
	CancelURL  string
}

// Service orchestrates the order lifecycle: creation down either payment
// path, payment confirmation, and ownership-checked reads and updates.
type Service struct {
	orders  Repository
	gateway payment.Gateway
	cfg     ServiceConfig
}

// NewService creates an order Service with the required dependencies.
func NewService(orders Repository, gateway payment.Gateway, cfg ServiceConfig) *Service {
	return &Service{
		orders:  orders,
		gateway: gateway,
		cfg:     cfg,
	}
}

// PlaceOrder normalizes the submitted cart, branches on the payment method,
// and persists the order.
//
// For online payment the provider session is created before anything is
// written: if session creation fails, no order exists. The inverse risk (a
// live provider session whose local persist failed) is accepted and surfaced
// to operations via the persistence error; it is never silently patched.
func (s *Service) PlaceOrder(ctx context.Context, userID string, req PlaceOrderRequest) (*PlaceOrderResult, error) {
	items, err := NormalizeItems(req.Items)
	if err != nil {
		return nil, err
	}

	o := &Order{
		ID:            uuid.New().String(),
		UserID:        userID,
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Phone:         req.Phone,
		Email:         req.Email,
		Address:       req.Address,
		City:          req.City,
		ZipCode:       req.ZipCode,
		PaymentMethod: req.PaymentMethod,
		Items:         items,
		Subtotal:      req.Subtotal,
		Tax:           req.Tax,
		Total:         req.Total,
		Shipping:      decimal.Zero,
	}

	switch req.PaymentMethod {
	case PaymentMethodCashOnDelivery:
		o.PaymentStatus = PaymentStatusSucceeded
		if err := s.orders.Create(ctx, o); err != nil {
			return nil, errors.Wrap(err, "create order")
		}
		return &PlaceOrderResult{Order: o}, nil

	case PaymentMethodOnline:
		session, err := s.gateway.CreateCheckoutSession(ctx, payment.CreateSessionRequest{
			Items:         toPaymentItems(items),
			Currency:      s.cfg.Currency,
			CustomerEmail: req.Email,
			SuccessURL:    s.cfg.SuccessURL,
			CancelURL:     s.cfg.CancelURL,
			Metadata: map[string]string{
				"firstName": req.FirstName,
				"lastName":  req.LastName,
				"email":     req.Email,
				"phone":     req.Phone,
			},
		})
		if err != nil {
			return nil, errors.Wrap(err, "create checkout session")
		}

		o.PaymentStatus = PaymentStatusPending
		o.SessionID = session.ID
		o.PaymentIntentID = session.PaymentIntentID
		if err := s.orders.Create(ctx, o); err != nil {
			return nil, errors.Wrap(err, "create order")
		}
		return &PlaceOrderResult{Order: o, CheckoutURL: session.URL}, nil

	default:
		return nil, &UnsupportedPaymentMethodError{Method: string(req.PaymentMethod)}
	}
}

// ConfirmPayment reconciles a provider session onto the persisted order. It
// is idempotent: the update is a value-set to succeeded, so re-confirming an
// already-confirmed session returns the current record unchanged. An unpaid
// session returns ErrPaymentNotCompleted and leaves the order untouched. A
// paid session with no matching order is a data-integrity anomaly and is
// surfaced as ErrNotFound.
func (s *Service) ConfirmPayment(ctx context.Context, sessionID string) (*Order, error) {
	if sessionID == "" {
		return nil, ErrMissingSessionID
	}

	status, err := s.gateway.GetSessionStatus(ctx, sessionID)
	if err != nil {
		return nil, errors.Wrap(err, "get session status")
	}
	if !status.Paid {
		return nil, ErrPaymentNotCompleted
	}

	o, err := s.orders.SetPaymentStatusBySession(ctx, sessionID, PaymentStatusSucceeded)
	if err != nil {
		return nil, errors.Wrap(err, "update payment status")
	}
	return o, nil
}

// GetOrder fetches one order with an ownership check: callers only ever see
// their own orders, a mismatch is ErrAccessDenied.
func (s *Service) GetOrder(ctx context.Context, userID, orderID string) (*Order, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, ErrAccessDenied
	}
	return o, nil
}

// ListUserOrders returns the caller's orders, newest first.
func (s *Service) ListUserOrders(ctx context.Context, userID string) ([]Order, error) {
	return s.orders.ListByUser(ctx, userID)
}

// UpdateOrder applies an owner-checked partial update.
func (s *Service) UpdateOrder(ctx context.Context, userID, orderID string, upd Update) (*Order, error) {
	if upd.IsZero() {
		return nil, ErrEmptyUpdate
	}
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, ErrAccessDenied
	}
	return s.orders.Update(ctx, orderID, upd)
}

// ListAllOrders returns every order, newest first. Administrative operation,
// no ownership scoping; the caller is trusted by the boundary.
func (s *Service) ListAllOrders(ctx context.Context) ([]Order, error) {
	return s.orders.ListAll(ctx)
}

// AdminUpdateOrder applies an unconstrained partial update to any order.
// Administrative operation outside the lifecycle invariants.
func (s *Service) AdminUpdateOrder(ctx context.Context, orderID string, upd Update) (*Order, error) {
	if upd.IsZero() {
		return nil, ErrEmptyUpdate
	}
	return s.orders.Update(ctx, orderID, upd)
}

// toPaymentItems converts line items to the provider's minor-unit integer
// representation. Conversion stays in decimal arithmetic end to end: the
// price is shifted two places and rounded to the nearest integer, never run
// through a float.
func toPaymentItems(items []LineItem) []payment.LineItem {
	out := make([]payment.LineItem, len(items))
	for i, it := range items {
		out[i] = payment.LineItem{
			Name:       it.Name,
			UnitAmount: it.UnitPrice.Shift(2).Round(0).IntPart(),
			Quantity:   it.Quantity,
		}
	}
	return out
}
