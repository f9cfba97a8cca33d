package mailer

import (
	"fmt"
	"html"

	"github.com/diagnosis/tourhub/pkg/events"
)

func Welcome(e events.UserRegisteredEvent) Message {
	name := e.FullName
	return Message{
		ToEmail: e.Email,
		ToName:  name,
		Subject: "Welcome to TourHub",
		Tag:     "welcome",
		Text:    fmt.Sprintf("Hi %s,\n\nYour TourHub account is ready. Happy travels!", name),
		HTML: fmt.Sprintf(`
		<h2>Welcome to TourHub!</h2>
		<p>Hi %s,</p>
		<p>Your account is ready. Browse tours and hotels and book your next trip.</p>
	`, html.EscapeString(name)),
	}
}

func OrderPaid(e events.OrderEvent) Message {
	amount := FormatAmount(e.Total)
	return Message{
		ToEmail: e.Email,
		ToName:  e.FullName,
		Subject: fmt.Sprintf("Order %s confirmed", e.OrderCode),
		Tag:     "order-paid",
		Text:    fmt.Sprintf("Hi %s,\n\nWe received your payment of %s for order %s.", e.FullName, amount, e.OrderCode),
		HTML: fmt.Sprintf(`
		<h2>Payment received</h2>
		<p>Hi %s,</p>
		<p>We received your payment of <strong>%s</strong> for order <strong>%s</strong>.</p>
	`, html.EscapeString(e.FullName), amount, html.EscapeString(e.OrderCode)),
	}
}

func OrderFailed(e events.OrderEvent) Message {
	return Message{
		ToEmail: e.Email,
		ToName:  e.FullName,
		Subject: fmt.Sprintf("Order %s was not completed", e.OrderCode),
		Tag:     "order-failed",
		Text:    fmt.Sprintf("Hi %s,\n\nPayment for order %s did not go through and the booking was released.", e.FullName, e.OrderCode),
	}
}

// FormatAmount renders minor units with two decimals.
func FormatAmount(minor int64) string {
	sign := ""
	if minor < 0 {
		sign, minor = "-", -minor
	}
	return fmt.Sprintf("%s%d.%02d", sign, minor/100, minor%100)
}
