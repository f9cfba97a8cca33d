package payment

import (
	"context"
	"errors"

	"github.com/diagnosis/tourhub/internal/domain"
	"github.com/diagnosis/tourhub/pkg/config"
)

var (
	ErrBadSignature  = errors.New("payment webhook signature mismatch")
	ErrNotConfigured = errors.New("payment gateway not configured: set STRIPE_SECRET_KEY or PAYMENTS_DEV=true")
)

type CheckoutInput struct {
	OrderCode   string
	Email       string
	Description string
	Amount      int64
	SuccessURL  string
	CancelURL   string
}

// Session is a hosted checkout page as seen by this service.
type Session struct {
	ID        string
	URL       string
	OrderCode string
	State     domain.GatewayState
}

// Event is a webhook notification relevant to an order. Gateways return a
// nil Event for notifications this service does not act on.
type Event struct {
	OrderCode string
	SessionID string
	State     domain.GatewayState
}

type Gateway interface {
	CreateCheckout(ctx context.Context, in CheckoutInput) (*Session, error)
	Lookup(ctx context.Context, sessionID string) (*Session, error)
	Expire(ctx context.Context, sessionID string) error
	ParseWebhook(payload []byte, signature string) (*Event, error)
}

// New picks the gateway for cfg. The development gateway marks every order
// paid, so it is only used when explicitly enabled and no secret key is set.
func New(cfg config.StripeConfig) (Gateway, error) {
	switch {
	case cfg.SecretKey != "":
		return NewStripeGateway(cfg.SecretKey, cfg.WebhookSecret, cfg.Currency), nil
	case cfg.DevMode:
		return NewDevGateway(), nil
	default:
		return nil, ErrNotConfigured
	}
}
