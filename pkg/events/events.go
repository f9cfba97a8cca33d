package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/diagnosis/tourhub/pkg/logger"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
}

type Subscriber interface {
	QueueSubscribe(subject, queue string, handler func(msg *Message)) error
}

type EventBus interface {
	Publisher
	Subscriber
	Close() error
}

// Header names carried on every published message.
const (
	headerMsgID       = nats.MsgIdHdr
	headerRequestID   = "Tourhub-Request-Id"
	headerPublishedAt = "Tourhub-Published-At"
)

type Message struct {
	Subject   string
	Data      []byte
	Timestamp time.Time
	ID        string
	// RequestID is the id of the HTTP request that published the event, if any.
	RequestID string
}

// Context derives a context that logs under the publishing request's id.
func (m *Message) Context(parent context.Context) context.Context {
	if m.RequestID == "" {
		return parent
	}
	return context.WithValue(parent, logger.RequestIDKey, m.RequestID)
}

// Decode unmarshals the JSON payload into v.
func (m *Message) Decode(v interface{}) error {
	return json.Unmarshal(m.Data, v)
}

type NATSEventBus struct {
	conn *nats.Conn
}

func NewNATSEventBus(url string) (*NATSEventBus, error) {
	conn, err := nats.Connect(url,
		nats.Name("tourhub-api"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("NATS reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSEventBus{conn: conn}, nil
}

func (n *NATSEventBus) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	msg := nats.NewMsg(subject)
	msg.Data = payload
	msg.Header.Set(headerMsgID, uuid.NewString())
	msg.Header.Set(headerPublishedAt, time.Now().UTC().Format(time.RFC3339Nano))
	if rid, ok := ctx.Value(logger.RequestIDKey).(string); ok {
		msg.Header.Set(headerRequestID, rid)
	}

	logger.DebugContext(ctx, "Publishing event", "subject", subject, "id", msg.Header.Get(headerMsgID), "bytes", len(payload))
	return n.conn.PublishMsg(msg)
}

func (n *NATSEventBus) QueueSubscribe(subject, queue string, handler func(msg *Message)) error {
	_, err := n.conn.QueueSubscribe(subject, queue, func(msg *nats.Msg) {
		handler(fromNATS(msg))
	})
	return err
}

func fromNATS(msg *nats.Msg) *Message {
	m := &Message{Subject: msg.Subject, Data: msg.Data, Timestamp: time.Now()}
	if msg.Header == nil {
		return m
	}
	m.ID = msg.Header.Get(headerMsgID)
	m.RequestID = msg.Header.Get(headerRequestID)
	if at, err := time.Parse(time.RFC3339Nano, msg.Header.Get(headerPublishedAt)); err == nil {
		m.Timestamp = at
	}
	return m
}

// Close drains pending messages before closing the connection.
func (n *NATSEventBus) Close() error {
	return n.conn.Drain()
}

// NopBus drops every event. Used when NATS is not reachable at startup so the
// API can still serve requests.
type NopBus struct{}

func (NopBus) Publish(context.Context, string, interface{}) error  { return nil }
func (NopBus) QueueSubscribe(string, string, func(*Message)) error { return nil }
func (NopBus) Close() error                                        { return nil }

const (
	UserRegistered = "user.registered"

	OrderCreated  = "order.created"
	OrderPaid     = "order.paid"
	OrderFailed   = "order.failed"
	OrderCanceled = "order.canceled"
)

type UserRegisteredEvent struct {
	UserID    int64     `json:"user_id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	CreatedAt time.Time `json:"created_at"`
}

// OrderEvent is the payload of every order.* subject.
type OrderEvent struct {
	OrderCode string    `json:"order_code"`
	UserID    int64     `json:"user_id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Total     int64     `json:"total"`
	Status    string    `json:"status"`
	At        time.Time `json:"at"`
}
