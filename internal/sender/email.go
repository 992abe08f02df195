package sender

import (
	"context"
	"net/mail"

	"gopkg.in/gomail.v2"

	"github.com/jhrabal/linewatch/internal/model"
)

type EmailSender struct {
	dialer *gomail.Dialer
	from   string
}

func NewEmailSender(host string, port int, user, password, from string) *EmailSender {
	return &EmailSender{
		dialer: gomail.NewDialer(host, port, user, password),
		from:   from,
	}
}

func (s *EmailSender) Send(ctx context.Context, address string, content model.NotificationContent) error {
	if _, err := mail.ParseAddress(address); err != nil {
		return Permanent(err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", address)
	m.SetHeader("Subject", content.Title)
	m.SetBody("text/plain", content.Body)

	// gomail has no context support; run the send aside so the per-delivery
	// timeout still applies.
	done := make(chan error, 1)
	go func() {
		done <- s.dialer.DialAndSend(m)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}
