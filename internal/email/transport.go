// Package email renders portal emails and delivers them through SendGrid.
package email

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/angelmondragon/sprinklerhub-backend/pkg/config"
)

// Message is a rendered email ready for delivery.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// ProviderError carries the HTTP status returned by the email provider.
type ProviderError struct {
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("email provider responded %d: %s", e.StatusCode, e.Body)
}

// Retryable reports whether the provider failed server-side.
func (e *ProviderError) Retryable() bool {
	return e.StatusCode >= 500
}

// Transport delivers one message.
type Transport interface {
	Send(ctx context.Context, msg Message) error
}

type sendgridTransport struct {
	client   *sendgrid.Client
	from     string
	fromName string
}

// NewSendgridTransport builds the SendGrid v3 transport.
func NewSendgridTransport(cfg config.SendgridConfig) Transport {
	return &sendgridTransport{
		client:   sendgrid.NewSendClient(cfg.APIKey),
		from:     cfg.DefaultFrom,
		fromName: cfg.FromName,
	}
}

func (t *sendgridTransport) Send(ctx context.Context, msg Message) error {
	from := mail.NewEmail(t.fromName, t.from)
	to := mail.NewEmail("", msg.To)
	payload := mail.NewSingleEmail(from, msg.Subject, to, msg.Text, msg.HTML)

	resp, err := t.client.SendWithContext(ctx, payload)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return &ProviderError{StatusCode: resp.StatusCode, Body: resp.Body}
	}
	return nil
}
