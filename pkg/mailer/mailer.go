// Package mailer renders markdown email templates and hands them to a Sender.
//
// Templates are markdown files with optional YAML frontmatter:
//
//	---
//	subject: Verify your email, {{.Username}}
//	---
//	Hi {{.Username}}, please [verify your address]({{.Link}}).
//
// The body is executed with text/template, converted to HTML with goldmark and
// wrapped in an html/template layout that receives .Content and .Metadata.
package mailer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	texttemplate "text/template"
)

var (
	ErrNoRecipient        = errors.New("mailer: no recipient")
	ErrNoSubject          = errors.New("mailer: no subject")
	ErrNoContent          = errors.New("mailer: no content")
	ErrTemplateNotFound   = errors.New("mailer: template not found")
	ErrLayoutNotFound     = errors.New("mailer: layout not found")
	ErrRenderFailed       = errors.New("mailer: render failed")
	ErrSendFailed         = errors.New("mailer: send failed")
	ErrInvalidFrontmatter = errors.New("mailer: invalid frontmatter")
)

// Email is a message ready for delivery.
type Email struct {
	Subject string
	HTML    string
	Text    string
	From    string
	ReplyTo string
	To      []string
}

// Address formats "Name <email>", or the bare email when name is empty.
func Address(name, email string) string {
	if name == "" {
		return email
	}
	return fmt.Sprintf("%s <%s>", name, email)
}

// Sender delivers prepared messages.
type Sender interface {
	Send(ctx context.Context, email *Email) error
}

// Config holds the mailer defaults.
type Config struct {
	FallbackSubject string `mapstructure:"mailer_fallback_subject"`
	Layout          string `mapstructure:"mailer_layout"`
}

// Mailer renders templates and sends the result.
type Mailer struct {
	sender   Sender
	renderer *Renderer
	config   Config
}

// New creates a Mailer.
func New(sender Sender, renderer *Renderer, cfg Config) *Mailer {
	if cfg.FallbackSubject == "" {
		cfg.FallbackSubject = "Notification"
	}
	if cfg.Layout == "" {
		cfg.Layout = "base.html"
	}
	return &Mailer{sender: sender, renderer: renderer, config: cfg}
}

// Send renders template with data and mails it to a single recipient. The
// subject comes from the template's "subject" frontmatter key and may use
// template actions.
func (m *Mailer) Send(ctx context.Context, to, template string, data any) error {
	if to == "" {
		return ErrNoRecipient
	}

	result, err := m.renderer.Render(m.config.Layout, template, data)
	if err != nil {
		return err
	}

	subject, _ := result.Metadata["subject"].(string)
	if subject == "" {
		subject = m.config.FallbackSubject
	}
	subject, err = executeSubject(subject, data)
	if err != nil {
		return errors.Join(ErrRenderFailed, err)
	}

	return m.SendRaw(ctx, &Email{
		To:      []string{to},
		Subject: subject,
		HTML:    result.HTML,
		Text:    result.Text,
	})
}

// SendRaw delivers a prepared message.
func (m *Mailer) SendRaw(ctx context.Context, email *Email) error {
	switch {
	case len(email.To) == 0:
		return ErrNoRecipient
	case email.Subject == "":
		return ErrNoSubject
	case email.HTML == "":
		return ErrNoContent
	}
	if err := m.sender.Send(ctx, email); err != nil {
		return errors.Join(ErrSendFailed, err)
	}
	return nil
}

func executeSubject(subject string, data any) (string, error) {
	tmpl, err := texttemplate.New("subject").Parse(subject)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// LogSender writes messages to a logger instead of delivering them.
// It stands in for a real provider during development.
type LogSender struct {
	Logger *slog.Logger
}

func (s LogSender) Send(ctx context.Context, email *Email) error {
	if s.Logger == nil {
		return fmt.Errorf("%w: log sender without logger", ErrSendFailed)
	}
	s.Logger.InfoContext(ctx, "email not delivered",
		slog.Any("to", email.To),
		slog.String("subject", email.Subject),
		slog.String("text", email.Text),
	)
	return nil
}
