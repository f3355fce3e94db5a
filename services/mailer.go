package services

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"
)

// Email is a single transactional message
type Email struct {
	From    string
	To      []string
	Subject string
	HTML    string
}

// Mailer sends transactional email through a provider
type Mailer interface {
	// Send delivers one email and returns the provider's message ID
	Send(ctx context.Context, email Email) (string, error)
}

// ResendMailer implements Mailer with the Resend email API
type ResendMailer struct {
	client *resend.Client
}

// NewResendMailer creates a Resend-backed mailer
func NewResendMailer(apiKey string) *ResendMailer {
	return &ResendMailer{client: resend.NewClient(apiKey)}
}

// Send delivers email through Resend
func (m *ResendMailer) Send(ctx context.Context, email Email) (string, error) {
	sent, err := m.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    email.From,
		To:      email.To,
		Subject: email.Subject,
		Html:    email.HTML,
	})
	if err != nil {
		return "", fmt.Errorf("resend: %w", err)
	}
	return sent.Id, nil
}
