package payment

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/diagnosis/tourhub/internal/domain"
	"github.com/diagnosis/tourhub/pkg/logger"
)

const devPrefix = "dev_"

// DevGateway approves every checkout without leaving the API. The payment URL
// is the success URL itself, so following it completes the order.
type DevGateway struct{}

func NewDevGateway() *DevGateway { return &DevGateway{} }

func (DevGateway) CreateCheckout(ctx context.Context, in CheckoutInput) (*Session, error) {
	id := devPrefix + in.OrderCode
	url := strings.ReplaceAll(in.SuccessURL, "{CHECKOUT_SESSION_ID}", id)
	logger.InfoContext(ctx, "Dev payment session created", "order_code", in.OrderCode, "amount", in.Amount)
	return &Session{ID: id, URL: url, OrderCode: in.OrderCode, State: domain.GatewayOpen}, nil
}

func (DevGateway) Lookup(_ context.Context, sessionID string) (*Session, error) {
	code := strings.TrimPrefix(sessionID, devPrefix)
	return &Session{ID: sessionID, OrderCode: code, State: domain.GatewayPaid}, nil
}

func (DevGateway) Expire(context.Context, string) error { return nil }

// ParseWebhook accepts an unsigned {"orderCode","state"} body.
func (DevGateway) ParseWebhook(payload []byte, _ string) (*Event, error) {
	var body struct {
		OrderCode string              `json:"orderCode"`
		State     domain.GatewayState `json:"state"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, err
	}
	return &Event{OrderCode: body.OrderCode, SessionID: devPrefix + body.OrderCode, State: body.State}, nil
}
