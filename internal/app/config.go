package app

import (
	"os"
	"strings"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the complete application configuration, loadable from
// environment variables (PLATEFUL_ prefix), flags, or YAML config files.
type Config struct {
	Addr        string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL string `usage:"PostgreSQL connection URL (PLATEFUL_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	// StorefrontURL is the public base URL of the storefront; checkout
	// success/cancel redirects are built from it.
	StorefrontURL string `default:"http://localhost:5173" usage:"Public storefront base URL" flag:"storefront-url"`
	Stripe        StripeConfig
	RateLimit     RateLimitConfig
	CORS          CORSConfig
	Graceful      GracefulConfig
}

// StripeConfig holds payment provider settings.
type StripeConfig struct {
	SecretKey string        `usage:"Stripe secret key (PLATEFUL_STRIPE_SECRET_KEY)" flag:"stripe-secret-key"`
	Timeout   time.Duration `default:"10s" usage:"Per-call timeout for provider requests" flag:"stripe-timeout"`
	Currency  string        `default:"inr" usage:"ISO currency code for checkout sessions" flag:"stripe-currency"`
}

// RateLimitConfig controls the per-client rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// SuccessURL returns the checkout success redirect. The session placeholder
// is substituted by the provider on redirect, so confirmation can pick the
// session id back up from the query string.
func (c *Config) SuccessURL() string {
	return strings.TrimRight(c.StorefrontURL, "/") + "/myorder/verify?success=true&session_id={CHECKOUT_SESSION_ID}"
}

// CancelURL returns the checkout cancel redirect.
func (c *Config) CancelURL() string {
	return strings.TrimRight(c.StorefrontURL, "/") + "/checkout?payment_status=cancel"
}

// LoadConfig loads configuration from environment variables, YAML config
// files, and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "PLATEFUL",
		Files:     []string{"config.yaml", "/etc/plateful/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.DatabaseURL == "" {
		return nil, errors.New("database URL is required: set PLATEFUL_DATABASE_URL or DATABASE_URL")
	}

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables
// (Railway, Render, etc.) that use standard names like DATABASE_URL, PORT,
// and STRIPE_SECRET_KEY to the PLATEFUL_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if c.Stripe.SecretKey == "" {
		if v := os.Getenv("STRIPE_SECRET_KEY"); v != "" {
			c.Stripe.SecretKey = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
