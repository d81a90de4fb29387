// internal/app/system/mailer/mailer.go
package mailer

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/dalemusser/waffle/pantry/email"
	"go.uber.org/zap"
)

// Email is one outgoing message. HTMLBody is optional.
type Email struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

// Sender delivers email.
type Sender interface {
	Send(ctx context.Context, e Email) error
}

// Config holds SMTP settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string // address
	FromName string
}

// sendTimeout bounds one SMTP conversation.
const sendTimeout = 15 * time.Second

// Mailer sends through an SMTP relay. Port 465 uses implicit TLS; other
// ports require STARTTLS.
type Mailer struct {
	sender *email.Sender
}

// New returns an SMTP sender, or a LogOnly sender when no host is configured.
func New(cfg Config, log *zap.Logger) Sender {
	if cfg.Host == "" {
		return LogOnly{Log: log}
	}
	return &Mailer{sender: email.NewSender(SMTPConfig(cfg))}
}

// SMTPConfig maps cfg onto the SMTP client settings. A zero port means 465.
func SMTPConfig(cfg Config) email.Config {
	if cfg.Port == 0 {
		cfg.Port = 465
	}
	return email.Config{
		Host:        cfg.Host,
		Port:        cfg.Port,
		Username:    cfg.Username,
		Password:    cfg.Password,
		FromAddress: cfg.From,
		FromName:    cfg.FromName,
		UseSSL:      cfg.Port == 465,
		UseTLS:      cfg.Port != 465,
		Timeout:     sendTimeout,
	}
}

func (m *Mailer) Send(ctx context.Context, e Email) error {
	msg, err := Message(e)
	if err != nil {
		return err
	}
	return m.sender.Send(ctx, msg)
}

// Message converts e into a single-recipient SMTP message.
func Message(e Email) (email.Message, error) {
	if _, err := mail.ParseAddress(e.To); err != nil {
		return email.Message{}, fmt.Errorf("invalid recipient %q: %w", e.To, err)
	}
	return email.Message{
		To:       []string{e.To},
		Subject:  e.Subject,
		TextBody: e.TextBody,
		HTMLBody: e.HTMLBody,
	}, nil
}

// LogOnly writes messages to the log instead of sending them. Used in
// development when no SMTP host is configured.
type LogOnly struct {
	Log *zap.Logger
}

func (l LogOnly) Send(_ context.Context, e Email) error {
	if l.Log != nil {
		l.Log.Info("email (not sent, no smtp host)",
			zap.String("to", e.To),
			zap.String("subject", e.Subject),
			zap.String("body", e.TextBody))
	}
	return nil
}
