package email

import (
	"context"
	"errors"
)

// Message es un correo ya renderizado.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Sender define la interfaz para envio de correos.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// ErrSenderDisabled se devuelve cuando no hay proveedor configurado.
var ErrSenderDisabled = errors.New("email sender disabled")

type disabledSender struct {
	reason string
}

func NewDisabledSender(reason string) Sender {
	return &disabledSender{reason: reason}
}

func (s *disabledSender) Send(_ context.Context, _ Message) error {
	if s.reason == "" {
		return ErrSenderDisabled
	}
	return errors.Join(ErrSenderDisabled, errors.New(s.reason))
}
