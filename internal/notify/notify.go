// Package notify delivers messages to users. Used for one-time login codes
package notify

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/nkiryanov/jobboard/internal/logger"
)

type Message struct {
	To      string
	Subject string
	HTML    string
}

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// dialer is satisfied by *gomail.Dialer
type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTP mailer. Opens new connection on every message
type Mailer struct {
	from   string
	dialer dialer
}

func NewMailer(cfg SMTPConfig) *Mailer {
	from := cfg.From
	if from == "" {
		from = cfg.User
	}

	return &Mailer{
		from:   from,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
	}
}

func (m *Mailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	gm := gomail.NewMessage()
	gm.SetHeader("From", m.from)
	gm.SetHeader("To", msg.To)
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/html", msg.HTML)

	if err := m.dialer.DialAndSend(gm); err != nil {
		return fmt.Errorf("smtp send to %s. Err: %w", msg.To, err)
	}

	return nil
}

// LogSender writes messages to log instead of sending them. For local development
type LogSender struct {
	Logger logger.Logger
}

func (s LogSender) Send(_ context.Context, msg Message) error {
	s.Logger.Info("notification", "to", msg.To, "subject", msg.Subject, "body", msg.HTML)
	return nil
}
