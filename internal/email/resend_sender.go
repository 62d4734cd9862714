package email

import (
	"context"
	"fmt"
	"strings"

	"github.com/resend/resend-go/v2"
)

// resendEmails es el subconjunto del cliente de Resend que usamos.
type resendEmails interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// ResendSender envia correos por la API de Resend.
type ResendSender struct {
	emails resendEmails
	from   string
}

func NewResendSender(apiKey, from, fromName string) (*ResendSender, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("resend api key is required")
	}
	client := resend.NewClient(apiKey)
	return newResendSender(client.Emails, from, fromName)
}

func newResendSender(emails resendEmails, from, fromName string) (*ResendSender, error) {
	if strings.TrimSpace(from) == "" {
		return nil, fmt.Errorf("email from is required")
	}
	if strings.TrimSpace(fromName) != "" {
		from = fmt.Sprintf("%s <%s>", fromName, from)
	}
	return &ResendSender{emails: emails, from: from}, nil
}

func (s *ResendSender) Send(ctx context.Context, m Message) error {
	if strings.TrimSpace(m.To) == "" {
		return fmt.Errorf("to email is required")
	}
	_, err := s.emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{m.To},
		Subject: m.Subject,
		Html:    m.HTML,
		Text:    m.Text,
	})
	if err != nil {
		return fmt.Errorf("resend send: %w", err)
	}
	return nil
}
