package mailer

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/diagnosis/tourhub/pkg/logger"
)

type DevMailer struct {
	out io.Writer
}

func NewDevMailer() *DevMailer {
	return &DevMailer{out: os.Stdout}
}

func (d *DevMailer) Send(ctx context.Context, msg Message) error {
	logger.InfoContext(ctx, "[DEV MAIL]", "to", msg.ToEmail, "subject", msg.Subject)

	fmt.Fprintf(d.out, "\n"+
		"━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n"+
		"EMAIL (DEV MODE)\n"+
		"━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n"+
		"To: %s (%s)\n"+
		"Subject: %s\n"+
		"\n"+
		"%s\n"+
		"━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n",
		msg.ToEmail, msg.ToName, msg.Subject, msg.Text)

	return nil
}
