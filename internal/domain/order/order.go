package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// PaymentMethod selects how an order is paid for.
type PaymentMethod string

const (
	// PaymentMethodOnline routes the order through a hosted provider checkout.
	PaymentMethodOnline PaymentMethod = "online"
	// PaymentMethodCashOnDelivery settles on delivery, no provider involved.
	PaymentMethodCashOnDelivery PaymentMethod = "cashOnDelivery"
)

// PaymentStatus tracks the payment state of an order. Cash orders are created
// succeeded; online orders start pending and move to succeeded exactly once,
// via confirmation against the provider session.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusSucceeded PaymentStatus = "succeeded"
)

// LineItem is a priced, quantified product entry frozen into the order at
// checkout time. Later catalog changes never affect a placed order.
type LineItem struct {
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	ImageURL  string          `json:"imageUrl"`
	Quantity  int             `json:"quantity"`
}

// Order is the central entity of the checkout core.
type Order struct {
	ID     string
	UserID string

	FirstName string
	LastName  string
	Phone     string
	Email     string
	Address   string
	City      string
	ZipCode   string

	PaymentMethod PaymentMethod
	Items         []LineItem
	Subtotal      decimal.Decimal
	Tax           decimal.Decimal
	Total         decimal.Decimal
	Shipping      decimal.Decimal

	PaymentStatus PaymentStatus

	// Provider correlation identifiers, populated only for online orders.
	PaymentIntentID string
	SessionID       string

	CreatedAt time.Time
}

// Update holds optional fields for a partial order update. Nil fields are
// left untouched.
type Update struct {
	FirstName     *string
	LastName      *string
	Phone         *string
	Email         *string
	Address       *string
	City          *string
	ZipCode       *string
	PaymentStatus *PaymentStatus
}

// IsZero reports whether the update changes nothing.
func (u Update) IsZero() bool {
	return u.FirstName == nil && u.LastName == nil && u.Phone == nil &&
		u.Email == nil && u.Address == nil && u.City == nil &&
		u.ZipCode == nil && u.PaymentStatus == nil
}

// Sentinel errors shared across the order core.
var (
	ErrEmptyItems          = errors.New("items required")
	ErrNotFound            = errors.New("order not found")
	ErrAccessDenied        = errors.New("access denied")
	ErrMissingSessionID    = errors.New("session_id required")
	ErrPaymentNotCompleted = errors.New("payment not completed")
	ErrEmptyUpdate         = errors.New("no fields to update")
)

// UnsupportedPaymentMethodError indicates a checkout request carried a
// payment method the core does not know.
type UnsupportedPaymentMethodError struct {
	Method string
}

func (e *UnsupportedPaymentMethodError) Error() string {
	return "unsupported payment method " + e.Method
}

// Repository defines persistence operations for orders. Implementations must
// be safe for concurrent use; every mutation is a single-row operation.
type Repository interface {
	// Create persists a new order and fills in CreatedAt.
	Create(ctx context.Context, o *Order) error
	// GetByID returns one order, or ErrNotFound.
	GetByID(ctx context.Context, id string) (*Order, error)
	// GetBySessionID returns the order correlated to a provider session,
	// or ErrNotFound.
	GetBySessionID(ctx context.Context, sessionID string) (*Order, error)
	// ListByUser returns a user's orders, newest first.
	ListByUser(ctx context.Context, userID string) ([]Order, error)
	// ListAll returns every order, newest first.
	ListAll(ctx context.Context) ([]Order, error)
	// SetPaymentStatusBySession atomically updates the payment status of the
	// order matching sessionID and returns the updated record, or ErrNotFound.
	// It must not touch any other column.
	SetPaymentStatusBySession(ctx context.Context, sessionID string, status PaymentStatus) (*Order, error)
	// Update applies a partial update to one order and returns the updated
	// record, or ErrNotFound.
	Update(ctx context.Context, id string, upd Update) (*Order, error)
}
