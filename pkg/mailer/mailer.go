// Package mailer renders the transactional HTML templates and delivers them
// over SMTP.
package mailer

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/urbancart/urbancart-backend/pkg/config"
	gopkgmail "gopkg.in/gomail.v2"
)

// Template names.
const (
	TemplateOrderConfirmation = "order_confirmation"
	TemplateOrderStatus       = "order_status"
	TemplatePasswordReset     = "password_reset"
)

//go:embed templates/*.html
var templateFS embed.FS

// Message is one outgoing email.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Render loads the named template and replaces each [[TOKEN]] key in tokens
// literally. Values are inserted as given; callers escape user content.
func Render(name string, tokens map[string]string) (string, error) {
	raw, err := templateFS.ReadFile("templates/" + name + ".html")
	if err != nil {
		return "", fmt.Errorf("email template %q not found: %w", name, err)
	}
	pairs := make([]string, 0, len(tokens)*2)
	for key, value := range tokens {
		pairs = append(pairs, "[["+key+"]]", value)
	}
	return strings.NewReplacer(pairs...).Replace(string(raw)), nil
}

type dialer interface {
	DialAndSend(m ...*gopkgmail.Message) error
}

// SMTPSender sends through an SMTP relay via gomail.
type SMTPSender struct {
	from    string
	timeout time.Duration
	dialer  dialer
}

func NewSMTPSender(cfg config.EmailConfig) (*SMTPSender, error) {
	if strings.TrimSpace(cfg.SMTPHost) == "" {
		return nil, errors.New("smtp host is required")
	}
	if strings.TrimSpace(cfg.FromEmail) == "" {
		return nil, errors.New("sender email is required")
	}
	d := gopkgmail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword)
	d.SSL = cfg.SSL

	from := cfg.FromEmail
	if cfg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", cfg.FromName, cfg.FromEmail)
	}
	return &SMTPSender{from: from, timeout: cfg.Timeout, dialer: d}, nil
}

// Send delivers msg, giving up when ctx ends or the configured timeout passes.
// An abandoned dial keeps running in the background until the relay answers.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if strings.TrimSpace(msg.To) == "" {
		return errors.New("recipient is required")
	}

	m := gopkgmail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	if msg.Text != "" {
		m.SetBody("text/plain", msg.Text)
		m.AddAlternative("text/html", msg.HTML)
	} else {
		m.SetBody("text/html", msg.HTML)
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	done := make(chan error, 1)
	go func() { done <- s.dialer.DialAndSend(m) }()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("smtp send: %w", ctx.Err())
	}
}
