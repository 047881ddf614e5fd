// Package mailer sends transactional email over SMTP.
package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

// Email is one outgoing message. HTMLBody is sent as an alternative to
// TextBody.
type Email struct {
	To       string
	Subject  string
	HTMLBody string
	TextBody string
}

// Sender delivers an Email.
type Sender interface {
	Send(ctx context.Context, e Email) error
}

// Config holds SMTP settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
	Timeout  time.Duration
}

// Mailer sends through an SMTP relay.
type Mailer struct {
	client   *mail.Client
	from     string
	fromName string
	log      *zap.Logger
}

// New builds an SMTP Mailer. Authentication is used only when a username is
// configured. TLS is opportunistic so local relays without STARTTLS work.
func New(cfg Config, logger *zap.Logger) (*Mailer, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("mailer: smtp host is empty")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("mailer: from address is empty")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	opts := []mail.Option{
		mail.WithTimeout(cfg.Timeout),
		mail.WithTLSPortPolicy(mail.TLSOpportunistic),
	}
	if cfg.Port > 0 {
		opts = append(opts, mail.WithPort(cfg.Port))
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("mailer: new client: %w", err)
	}
	return &Mailer{client: client, from: cfg.From, fromName: cfg.FromName, log: logger}, nil
}

// Send delivers e. It dials per message; volumes here are low.
func (m *Mailer) Send(ctx context.Context, e Email) error {
	msg := mail.NewMsg()
	if m.fromName != "" {
		if err := msg.FromFormat(m.fromName, m.from); err != nil {
			return fmt.Errorf("mailer: from: %w", err)
		}
	} else if err := msg.From(m.from); err != nil {
		return fmt.Errorf("mailer: from: %w", err)
	}
	if err := msg.To(e.To); err != nil {
		return fmt.Errorf("mailer: to: %w", err)
	}
	msg.Subject(e.Subject)
	msg.SetBodyString(mail.TypeTextPlain, e.TextBody)
	if e.HTMLBody != "" {
		msg.AddAlternativeString(mail.TypeTextHTML, e.HTMLBody)
	}

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("mailer: send to %s: %w", e.To, err)
	}
	m.log.Info("email sent", zap.String("to", e.To), zap.String("subject", e.Subject))
	return nil
}

// LogSender writes emails to the log instead of sending them. It is used
// when no SMTP host is configured (local development).
type LogSender struct {
	Log *zap.Logger
}

func (l LogSender) Send(_ context.Context, e Email) error {
	l.Log.Info("email (not sent; smtp disabled)",
		zap.String("to", e.To),
		zap.String("subject", e.Subject),
		zap.String("text", e.TextBody))
	return nil
}
