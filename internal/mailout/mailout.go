// Package mailout wraps the outbound-mail boundary.
package mailout

import (
	"context"
	"fmt"

	gomail "github.com/wneessen/go-mail"
)

// Sender forwards a to/subject/body triple to an outbound mail service.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPSender implements Sender over SMTP with go-mail.
type SMTPSender struct {
	client *gomail.Client
	from   string
}

// Options configures the SMTP connection.
type Options struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

func NewSMTP(opts Options) (*SMTPSender, error) {
	clientOpts := []gomail.Option{gomail.WithPort(opts.Port)}
	if opts.Username != "" {
		clientOpts = append(clientOpts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(opts.Username),
			gomail.WithPassword(opts.Password),
		)
	}
	client, err := gomail.NewClient(opts.Host, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return &SMTPSender{client: client, from: opts.From}, nil
}

func (s *SMTPSender) Send(ctx context.Context, to, subject, body string) error {
	msg := gomail.NewMsg()
	if err := msg.From(s.from); err != nil {
		return fmt.Errorf("sender address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("recipient address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextPlain, body)
	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}
