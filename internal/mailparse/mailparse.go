// Package mailparse wraps the MIME-parsing boundary for inbound email.
package mailparse

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/jhillyerd/enmime"
)

// Attachment is one decoded attachment blob.
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// ParsedEmail is the provider-neutral parse result.
type ParsedEmail struct {
	MessageID   string
	From        string
	To          []string
	Cc          []string
	Subject     string
	Date        time.Time
	Text        string
	Attachments []Attachment
}

// Parser turns a raw RFC 5322 message into a ParsedEmail.
type Parser interface {
	Parse(ctx context.Context, raw []byte) (*ParsedEmail, error)
}

// EnmimeParser implements Parser with enmime.
type EnmimeParser struct{}

func NewEnmime() *EnmimeParser { return &EnmimeParser{} }

func (p *EnmimeParser) Parse(ctx context.Context, raw []byte) (*ParsedEmail, error) {
	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse message: %w", err)
	}

	out := &ParsedEmail{
		MessageID: trimAngles(env.GetHeader("Message-Id")),
		From:      env.GetHeader("From"),
		Subject:   env.GetHeader("Subject"),
		Text:      env.Text,
	}
	if addrs, err := env.AddressList("To"); err == nil {
		for _, a := range addrs {
			out.To = append(out.To, a.Address)
		}
	}
	if addrs, err := env.AddressList("Cc"); err == nil {
		for _, a := range addrs {
			out.Cc = append(out.Cc, a.Address)
		}
	}
	if t, err := env.Date(); err == nil {
		out.Date = t
	} else {
		out.Date = time.Now().UTC()
	}
	for _, att := range env.Attachments {
		out.Attachments = append(out.Attachments, Attachment{
			Filename:    att.FileName,
			ContentType: att.ContentType,
			Content:     att.Content,
		})
	}
	return out, nil
}

func trimAngles(s string) string {
	if len(s) >= 2 && s[0] == '<' && s[len(s)-1] == '>' {
		return s[1 : len(s)-1]
	}
	return s
}
