package mailer

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/mail"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/diagnosis/tourhub/pkg/config"
)

// SMTPMailer delivers through a plain SMTP relay. Without credentials and TLS
// it talks to a local catcher such as Mailpit.
type SMTPMailer struct {
	addr   string
	host   string
	from   mail.Address
	auth   smtp.Auth
	useTLS bool
}

func NewSMTPMailer(cfg config.EmailConfig) *SMTPMailer {
	host := strings.TrimSpace(cfg.SMTPHost)
	m := &SMTPMailer{
		addr:   net.JoinHostPort(host, strconv.Itoa(cfg.SMTPPort)),
		host:   host,
		from:   mail.Address{Name: cfg.FromName, Address: strings.TrimSpace(cfg.SMTPFrom)},
		useTLS: cfg.SMTPUseTLS,
	}
	if user := strings.TrimSpace(cfg.SMTPUser); user != "" {
		m.auth = smtp.PlainAuth("", user, strings.TrimSpace(cfg.SMTPPass), host)
	}
	return m
}

func (s *SMTPMailer) Send(_ context.Context, msg Message) error {
	to := strings.TrimSpace(msg.ToEmail)
	if to == "" {
		return errors.New("empty recipient email")
	}
	body := buildMIME(s.from, mail.Address{Name: msg.ToName, Address: to}, msg)

	// SendMail upgrades with STARTTLS when the server advertises it.
	err := smtp.SendMail(s.addr, s.auth, s.from.Address, []string{to}, body)
	if err == nil || !s.useTLS {
		return err
	}
	return s.sendImplicitTLS(to, body)
}

// sendImplicitTLS covers relays that only accept TLS from the first byte (port 465).
func (s *SMTPMailer) sendImplicitTLS(to string, body []byte) error {
	conn, err := tls.Dial("tcp", s.addr, &tls.Config{ServerName: s.host})
	if err != nil {
		return fmt.Errorf("smtp tls dial: %w", err)
	}
	c, err := smtp.NewClient(conn, s.host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp client: %w", err)
	}
	defer c.Close()

	if s.auth != nil {
		if err := c.Auth(s.auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}
	if err := c.Mail(s.from.Address); err != nil {
		return err
	}
	if err := c.Rcpt(to); err != nil {
		return err
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(body); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.Quit()
}

const mimeBoundary = "tourhub-alt-boundary"

func buildMIME(from, to mail.Address, msg Message) []byte {
	var buf bytes.Buffer
	header := func(k, v string) { buf.WriteString(k + ": " + v + "\r\n") }
	part := func(contentType, content string) {
		buf.WriteString("--" + mimeBoundary + "\r\n")
		header("Content-Type", contentType+"; charset=utf-8")
		buf.WriteString("\r\n" + content + "\r\n\r\n")
	}

	header("From", from.String())
	header("To", to.String())
	header("Subject", mime.QEncoding.Encode("utf-8", msg.Subject))
	header("MIME-Version", "1.0")
	header("Content-Type", "multipart/alternative; boundary="+mimeBoundary)
	buf.WriteString("\r\n")

	part("text/plain", msg.Text)
	if msg.HTML != "" {
		part("text/html", msg.HTML)
	}
	buf.WriteString("--" + mimeBoundary + "--\r\n")
	return buf.Bytes()
}
