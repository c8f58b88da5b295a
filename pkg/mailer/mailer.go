package mailer

import (
	"context"
	"errors"
	"fmt"
	"io"

	"gopkg.in/gomail.v2"
)

var ErrNoRecipients = errors.New("message has no recipients")

type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

type Message struct {
	To          []string
	Subject     string
	HTML        string
	Attachments []Attachment
}

// Sender delivers a message. Implementations must be safe for concurrent use.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	FromName string
}

type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
	name   string
}

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.Username,
		name:   cfg.FromName,
	}
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return ErrNoRecipients
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	gm := Build(m.from, m.name, msg)
	if err := m.dialer.DialAndSend(gm); err != nil {
		return fmt.Errorf("smtp send failed: %w", err)
	}
	return nil
}

// Build converts msg into a gomail message with in-memory attachments.
func Build(from, fromName string, msg Message) *gomail.Message {
	gm := gomail.NewMessage()
	gm.SetAddressHeader("From", from, fromName)
	gm.SetHeader("To", msg.To...)
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/html", msg.HTML)

	for _, a := range msg.Attachments {
		content := a.Content
		settings := []gomail.FileSetting{
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(content)
				return err
			}),
		}
		if a.ContentType != "" {
			settings = append(settings, gomail.SetHeader(map[string][]string{
				"Content-Type": {a.ContentType},
			}))
		}
		gm.Attach(a.Filename, settings...)
	}
	return gm
}
