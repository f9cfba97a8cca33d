package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/diagnosis/tourhub/internal/domain"
	"github.com/diagnosis/tourhub/pkg/logger"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

const metadataOrderCode = "order_code"

type StripeGateway struct {
	api           *client.API
	webhookSecret string
	currency      string
}

func NewStripeGateway(secretKey, webhookSecret, currency string) *StripeGateway {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeGateway{api: api, webhookSecret: webhookSecret, currency: currency}
}

func (g *StripeGateway) CreateCheckout(ctx context.Context, in CheckoutInput) (*Session, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(in.SuccessURL),
		CancelURL:         stripe.String(in.CancelURL),
		ClientReferenceID: stripe.String(in.OrderCode),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(g.currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(in.Description),
					},
					UnitAmount: stripe.Int64(in.Amount),
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	if in.Email != "" {
		params.CustomerEmail = stripe.String(in.Email)
	}
	params.Context = ctx
	params.AddMetadata(metadataOrderCode, in.OrderCode)

	s, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	return toSession(s), nil
}

func (g *StripeGateway) Lookup(ctx context.Context, sessionID string) (*Session, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	s, err := g.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		return nil, fmt.Errorf("get checkout session: %w", err)
	}
	return toSession(s), nil
}

func (g *StripeGateway) Expire(ctx context.Context, sessionID string) error {
	params := &stripe.CheckoutSessionExpireParams{}
	params.Context = ctx

	_, err := g.api.CheckoutSessions.Expire(sessionID, params)
	var serr *stripe.Error
	if errors.As(err, &serr) && serr.HTTPStatusCode == 400 {
		// Already completed or expired.
		return nil
	}
	return err
}

func (g *StripeGateway) ParseWebhook(payload []byte, signature string) (*Event, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadSignature, err)
	}

	switch string(event.Type) {
	case "checkout.session.completed",
		"checkout.session.async_payment_succeeded",
		"checkout.session.async_payment_failed",
		"checkout.session.expired":
	default:
		logger.Debug("Ignoring payment event", "type", event.Type, "id", event.ID)
		return nil, nil
	}

	var s stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &s); err != nil {
		return nil, fmt.Errorf("decode checkout session: %w", err)
	}
	sess := toSession(&s)
	if string(event.Type) == "checkout.session.async_payment_failed" {
		sess.State = domain.GatewayUnpaid
	}
	return &Event{OrderCode: sess.OrderCode, SessionID: sess.ID, State: sess.State}, nil
}

func toSession(s *stripe.CheckoutSession) *Session {
	code := s.ClientReferenceID
	if code == "" && s.Metadata != nil {
		code = s.Metadata[metadataOrderCode]
	}
	return &Session{ID: s.ID, URL: s.URL, OrderCode: code, State: stateOf(s)}
}

func stateOf(s *stripe.CheckoutSession) domain.GatewayState {
	switch {
	case s.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
		s.PaymentStatus == stripe.CheckoutSessionPaymentStatusNoPaymentRequired:
		return domain.GatewayPaid
	case s.Status == stripe.CheckoutSessionStatusExpired:
		return domain.GatewayExpired
	case s.Status == stripe.CheckoutSessionStatusOpen:
		return domain.GatewayOpen
	case s.Status == stripe.CheckoutSessionStatusComplete:
		return domain.GatewayProcessing
	default:
		return domain.GatewayUnpaid
	}
}
