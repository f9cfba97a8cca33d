package mailer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mailersend/mailersend-go"

	"github.com/diagnosis/tourhub/pkg/config"
	"github.com/diagnosis/tourhub/pkg/logger"
)

const mailerSendTimeout = 10 * time.Second

// MailerSendClient delivers through the MailerSend HTTP API.
type MailerSendClient struct {
	client *mailersend.Mailersend
	from   mailersend.From
}

func NewMailerSend(cfg config.EmailConfig) *MailerSendClient {
	return &MailerSendClient{
		client: mailersend.NewMailersend(cfg.MailerSendKey),
		from:   mailersend.From{Name: cfg.FromName, Email: strings.TrimSpace(cfg.SMTPFrom)},
	}
}

func (m *MailerSendClient) Send(ctx context.Context, msg Message) error {
	if m.from.Email == "" {
		return errors.New("mailersend: sender address is not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, mailerSendTimeout)
	defer cancel()

	out := m.client.Email.NewMessage()
	out.SetFrom(m.from)
	out.SetRecipients([]mailersend.Recipient{{Name: msg.ToName, Email: msg.ToEmail}})
	out.SetSubject(msg.Subject)
	if strings.TrimSpace(msg.Text) != "" {
		out.SetText(msg.Text)
	}
	if strings.TrimSpace(msg.HTML) != "" {
		out.SetHTML(msg.HTML)
	}
	if msg.Tag != "" {
		out.SetTags([]string{msg.Tag})
	}

	res, err := m.client.Email.Send(ctx, out)
	if err != nil {
		return fmt.Errorf("mailersend: %w", err)
	}
	logger.DebugContext(ctx, "MailerSend accepted message", "message_id", res.Header.Get("X-Message-Id"), "tag", msg.Tag)
	return nil
}
