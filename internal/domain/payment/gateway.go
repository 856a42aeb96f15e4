// Package payment defines the outbound capability to an external payment
// provider. The order service depends only on the Gateway interface; the
// Stripe-backed implementation lives in internal/stripe, and tests substitute
// a double that simulates paid, unpaid, and error outcomes without network
// access.
package payment

import (
	"context"

	"github.com/go-faster/errors"
)

// LineItem is one priced entry of a checkout session, with the unit amount
// already converted to the provider's minor-unit integer representation
// (e.g. paise for INR, cents for USD).
type LineItem struct {
	Name       string
	UnitAmount int64
	Quantity   int
}

// CreateSessionRequest carries everything needed to open a hosted checkout
// session at the provider.
type CreateSessionRequest struct {
	Items         []LineItem
	Currency      string
	CustomerEmail string
	// SuccessURL may contain the provider-defined {CHECKOUT_SESSION_ID}
	// placeholder, substituted by the provider on redirect.
	SuccessURL string
	CancelURL  string
	Metadata   map[string]string
}

// Session identifies a created checkout session.
type Session struct {
	ID              string
	PaymentIntentID string
	// URL is the provider-hosted checkout page the customer is sent to.
	URL string
}

// SessionStatus is the provider's view of a session's payment state.
type SessionStatus struct {
	Paid            bool
	PaymentIntentID string
}

// Sentinel errors returned by Gateway implementations.
var (
	// ErrNotConfigured means provider credentials are absent or malformed.
	// It is detected before any network call is made.
	ErrNotConfigured = errors.New("payment provider not configured")
	// ErrSessionNotFound means the provider has no record of the session.
	ErrSessionNotFound = errors.New("checkout session not found")
)

// ProviderError wraps a failure of the provider call itself (network,
// timeout, provider-side validation). It is transient from the caller's
// point of view: retrying the operation is safe.
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string { return "payment provider: " + e.Op + ": " + e.Err.Error() }
func (e *ProviderError) Unwrap() error { return e.Err }

// Gateway is the two-operation boundary to the payment provider. It holds no
// local state and performs no retries; retry policy belongs to the caller.
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, req CreateSessionRequest) (*Session, error)
	GetSessionStatus(ctx context.Context, sessionID string) (*SessionStatus, error)
}
