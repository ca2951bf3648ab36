package services

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avclabs/faxdesk/internal/model"
)

func TestMailSend(t *testing.T) {
	sender := &fakeSender{}
	svc := NewMailService(sender, zerolog.Nop())

	require.NoError(t, svc.Send(context.Background(), "ops@example.com", "weekly report", "body"))
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "ops@example.com|weekly report", sender.sent[0])
}

func TestMailSendValidation(t *testing.T) {
	svc := NewMailService(&fakeSender{}, zerolog.Nop())

	err := svc.Send(context.Background(), "", "subject", "body")
	assert.ErrorIs(t, err, model.ErrValidation)

	err = svc.Send(context.Background(), "ops@example.com", " ", "body")
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestMailSendFailure(t *testing.T) {
	svc := NewMailService(&fakeSender{err: errors.New("smtp down")}, zerolog.Nop())
	err := svc.Send(context.Background(), "ops@example.com", "subject", "body")
	assert.Error(t, err)
}
