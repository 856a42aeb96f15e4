// Package stripe implements payment.Gateway on top of the Stripe hosted
// checkout API.
package stripe

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-faster/errors"
	stripesdk "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"

	"github.com/plateful/orders-api/internal/domain/payment"
)

var _ payment.Gateway = (*Gateway)(nil)

// Config holds the Stripe credentials and client limits.
type Config struct {
	// SecretKey is the Stripe secret API key (sk_...). An empty or malformed
	// key makes every gateway call fail with payment.ErrNotConfigured before
	// any network traffic.
	SecretKey string
	// Timeout bounds each provider call. A timed-out call surfaces as a
	// payment.ProviderError; nothing is persisted or updated on timeout.
	Timeout time.Duration
}

// Gateway talks to Stripe through an explicitly constructed client. It is
// injected into the order service at wiring time; there is no package-level
// key or shared singleton.
type Gateway struct {
	sessions session.Client
	key      string
}

// NewGateway builds a Gateway from config. Construction never fails: a
// missing key is a per-call ErrNotConfigured so a cash-only deployment can
// still boot.
func NewGateway(cfg Config) *Gateway {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	backend := stripesdk.GetBackendWithConfig(stripesdk.APIBackend, &stripesdk.BackendConfig{
		HTTPClient: &http.Client{Timeout: timeout},
	})
	return &Gateway{
		sessions: session.Client{B: backend, Key: cfg.SecretKey},
		key:      cfg.SecretKey,
	}
}

// configured reports whether the secret key looks like a Stripe secret key.
func (g *Gateway) configured() bool {
	return g.key != "" && strings.HasPrefix(g.key, "sk_")
}

// CreateCheckoutSession opens a hosted checkout session for card payment.
func (g *Gateway) CreateCheckoutSession(ctx context.Context, req payment.CreateSessionRequest) (*payment.Session, error) {
	if !g.configured() {
		return nil, payment.ErrNotConfigured
	}

	lineItems := make([]*stripesdk.CheckoutSessionLineItemParams, len(req.Items))
	for i, it := range req.Items {
		lineItems[i] = &stripesdk.CheckoutSessionLineItemParams{
			PriceData: &stripesdk.CheckoutSessionLineItemPriceDataParams{
				Currency: stripesdk.String(req.Currency),
				ProductData: &stripesdk.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripesdk.String(it.Name),
				},
				UnitAmount: stripesdk.Int64(it.UnitAmount),
			},
			Quantity: stripesdk.Int64(int64(it.Quantity)),
		}
	}

	params := &stripesdk.CheckoutSessionParams{
		Params:             stripesdk.Params{Context: ctx},
		Mode:               stripesdk.String(string(stripesdk.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripesdk.StringSlice([]string{"card"}),
		LineItems:          lineItems,
		CustomerEmail:      stripesdk.String(req.CustomerEmail),
		SuccessURL:         stripesdk.String(req.SuccessURL),
		CancelURL:          stripesdk.String(req.CancelURL),
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	s, err := g.sessions.New(params)
	if err != nil {
		return nil, &payment.ProviderError{Op: "create checkout session", Err: err}
	}

	out := &payment.Session{ID: s.ID, URL: s.URL}
	if s.PaymentIntent != nil {
		out.PaymentIntentID = s.PaymentIntent.ID
	}
	return out, nil
}

// GetSessionStatus retrieves the paid/unpaid state of a session.
func (g *Gateway) GetSessionStatus(ctx context.Context, sessionID string) (*payment.SessionStatus, error) {
	if !g.configured() {
		return nil, payment.ErrNotConfigured
	}

	params := &stripesdk.CheckoutSessionParams{
		Params: stripesdk.Params{Context: ctx},
	}
	s, err := g.sessions.Get(sessionID, params)
	if err != nil {
		var apiErr *stripesdk.Error
		if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusNotFound {
			return nil, payment.ErrSessionNotFound
		}
		return nil, &payment.ProviderError{Op: "get checkout session", Err: err}
	}

	out := &payment.SessionStatus{
		Paid: s.PaymentStatus == stripesdk.CheckoutSessionPaymentStatusPaid,
	}
	if s.PaymentIntent != nil {
		out.PaymentIntentID = s.PaymentIntent.ID
	}
	return out, nil
}
