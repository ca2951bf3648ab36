package services

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/avclabs/faxdesk/internal/mailout"
	"github.com/avclabs/faxdesk/internal/model"
)

// MailService forwards composed messages to the outbound mail sender.
type MailService struct {
	sender mailout.Sender
	logger zerolog.Logger
}

func NewMailService(sender mailout.Sender, logger zerolog.Logger) *MailService {
	return &MailService{sender: sender, logger: logger}
}

func (s *MailService) Send(ctx context.Context, to, subject, body string) error {
	if strings.TrimSpace(to) == "" {
		return errors.Wrap(model.ErrValidation, "to is required")
	}
	if strings.TrimSpace(subject) == "" {
		return errors.Wrap(model.ErrValidation, "subject is required")
	}
	if err := s.sender.Send(ctx, to, subject, body); err != nil {
		return errors.Wrap(err, "send mail")
	}
	s.logger.Info().Str("to", to).Msg("mail sent")
	return nil
}
