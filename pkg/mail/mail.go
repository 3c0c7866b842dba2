// Package mail sends transactional email through a pluggable Sender.
//
// MAIL_DRIVER selects the implementation: "log" (default, writes to the
// logger), "smtp" or "sendgrid".
//
//	sender, err := mail.FromConfig()
//	err = sender.Send(ctx, mail.Message{
//	    To:      []string{"user@example.com"},
//	    Subject: "Reset your password",
//	    HTML:    body,
//	})
package mail

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"sync"

	"github.com/shashiranjanraj/grinfood/config"
	"github.com/shashiranjanraj/grinfood/pkg/logger"
)

// Message is one outgoing email.
type Message struct {
	To      []string
	Subject string
	HTML    string
}

func (m Message) validate() error {
	if len(m.To) == 0 {
		return errors.New("mail: message has no recipient")
	}
	if m.Subject == "" {
		return errors.New("mail: message has no subject")
	}
	return nil
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, m Message) error
}

// FromConfig returns the Sender selected by MAIL_DRIVER.
func FromConfig() (Sender, error) {
	switch d := config.MailDriver(); d {
	case "log", "":
		return LogSender{}, nil
	case "smtp":
		return NewSMTP(DefaultSMTP()), nil
	case "sendgrid":
		if config.SendGridAPIKey() == "" {
			return nil, errors.New("mail: SENDGRID_API_KEY not configured")
		}
		return NewSendGrid(config.SendGridAPIKey(), config.MailFrom(), config.SendGridBaseURL()), nil
	default:
		return nil, fmt.Errorf("mail: unknown MAIL_DRIVER %q", d)
	}
}

// Render executes tmpl with data into an HTML body.
func Render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("mail: render %s: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}

// ------------------- Log driver -------------------

// LogSender writes messages to the logger instead of delivering them.
type LogSender struct{}

func (LogSender) Send(ctx context.Context, m Message) error {
	if err := m.validate(); err != nil {
		return err
	}
	logger.WithCtx(ctx).Info("mail: message", "to", m.To, "subject", m.Subject, "bytes", len(m.HTML))
	return nil
}

// ------------------- Recorder -------------------

// Recorder keeps sent messages in memory. Used by tests.
type Recorder struct {
	mu   sync.Mutex
	sent []Message
	Err  error
}

func (r *Recorder) Send(_ context.Context, m Message) error {
	if err := m.validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.sent = append(r.sent, m)
	return nil
}

// Sent returns a copy of the recorded messages.
func (r *Recorder) Sent() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.sent...)
}
