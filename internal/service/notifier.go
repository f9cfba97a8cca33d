package service

import (
	"context"
	"fmt"
	"time"

	"github.com/diagnosis/tourhub/internal/mailer"
	"github.com/diagnosis/tourhub/pkg/events"
	"github.com/diagnosis/tourhub/pkg/logger"
)

const sendTimeout = 15 * time.Second

// Notifier turns user and order events into customer emails.
type Notifier struct {
	bus    events.Subscriber
	sender mailer.Sender
	queue  string
}

func NewNotifier(bus events.Subscriber, sender mailer.Sender, queue string) *Notifier {
	return &Notifier{bus: bus, sender: sender, queue: queue}
}

// Run registers the subscriptions and blocks until ctx is done.
func (n *Notifier) Run(ctx context.Context) error {
	subs := map[string]func(*events.Message){
		events.UserRegistered: n.onUserRegistered,
		events.OrderPaid:      n.onOrder(mailer.OrderPaid),
		events.OrderFailed:    n.onOrder(mailer.OrderFailed),
	}
	for subject, handler := range subs {
		if err := n.bus.QueueSubscribe(subject, n.queue, handler); err != nil {
			return fmt.Errorf("subscribe %s: %w", subject, err)
		}
	}
	logger.Info("Notifier listening", "queue", n.queue)

	<-ctx.Done()
	return nil
}

func (n *Notifier) onUserRegistered(msg *events.Message) {
	var e events.UserRegisteredEvent
	if err := msg.Decode(&e); err != nil {
		logger.ErrorContext(msg.Context(context.Background()), "Bad user.registered payload", "error", err)
		return
	}
	n.send(msg, mailer.Welcome(e))
}

func (n *Notifier) onOrder(render func(events.OrderEvent) mailer.Message) func(*events.Message) {
	return func(msg *events.Message) {
		var e events.OrderEvent
		if err := msg.Decode(&e); err != nil {
			logger.ErrorContext(msg.Context(context.Background()), "Bad order event payload", "error", err, "subject", msg.Subject)
			return
		}
		if e.Email == "" {
			return
		}
		n.send(msg, render(e))
	}
}

func (n *Notifier) send(msg *events.Message, m mailer.Message) {
	ctx, cancel := context.WithTimeout(msg.Context(context.Background()), sendTimeout)
	defer cancel()
	if err := n.sender.Send(ctx, m); err != nil {
		logger.ErrorContext(ctx, "Failed to send email", "error", err, "subject", msg.Subject, "event_id", msg.ID, "to", m.ToEmail)
		return
	}
	logger.InfoContext(ctx, "Email sent", "subject", msg.Subject, "event_id", msg.ID, "to", m.ToEmail)
}
