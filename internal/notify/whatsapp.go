package notify

import (
	"context"
	"errors"
	"fmt"
)

// WhatsAppClient is the part of whatsapp.Service the sender needs.
type WhatsAppClient interface {
	SendMessage(ctx context.Context, phoneNumber, message string) error
}

// WhatsAppSender messages each host phone number with the plain text body.
type WhatsAppSender struct {
	client WhatsAppClient
	hosts  []string
}

func NewWhatsAppSender(client WhatsAppClient, hosts []string) *WhatsAppSender {
	return &WhatsAppSender{client: client, hosts: hosts}
}

func (s *WhatsAppSender) Channel() string {
	return "whatsapp"
}

func (s *WhatsAppSender) Send(ctx context.Context, msg Message) error {
	if len(s.hosts) == 0 {
		return errors.New("no host phone numbers configured")
	}
	var errs []error
	for _, host := range s.hosts {
		if err := s.client.SendMessage(ctx, host, msg.Text); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", host, err))
		}
	}
	return errors.Join(errs...)
}
