package mailer

import (
	"context"

	"github.com/diagnosis/tourhub/pkg/config"
	"github.com/diagnosis/tourhub/pkg/logger"
)

type Message struct {
	ToEmail string
	ToName  string
	Subject string
	Text    string
	HTML    string
	// Tag groups messages of one kind in provider analytics.
	Tag string
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// New picks MailerSend when an API key is configured, SMTP otherwise, and the
// console mailer in dev mode.
func New(cfg config.EmailConfig) Sender {
	switch {
	case cfg.DevMode:
		logger.Info("Using dev mailer")
		return NewDevMailer()
	case cfg.MailerSendKey != "":
		logger.Info("Using MailerSend mailer")
		return NewMailerSend(cfg)
	default:
		logger.Info("Using SMTP mailer", "host", cfg.SMTPHost, "port", cfg.SMTPPort)
		return NewSMTPMailer(cfg)
	}
}
