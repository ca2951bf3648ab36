package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/avclabs/faxdesk/internal/blob"
	"github.com/avclabs/faxdesk/internal/mailparse"
	"github.com/avclabs/faxdesk/internal/model"
	"github.com/avclabs/faxdesk/internal/store"
)

// EmailPipeline processes one raw inbound message: parse, store the
// attachments, create the record and queue its classification.
type EmailPipeline struct {
	blobs  blob.Store
	parser mailparse.Parser
	store  store.Store
	log    zerolog.Logger
}

func NewEmailPipeline(blobs blob.Store, parser mailparse.Parser, s store.Store, log zerolog.Logger) *EmailPipeline {
	return &EmailPipeline{blobs: blobs, parser: parser, store: s, log: log}
}

// Handle ingests the raw message stored at key. The classification
// enqueue is fire-and-forget: its failure is logged but the ingestion
// still succeeds.
func (p *EmailPipeline) Handle(ctx context.Context, key string) (*model.Document, error) {
	raw, err := p.blobs.Get(ctx, key)
	if err != nil {
		return nil, errors.Wrapf(err, "fetch raw message %s", key)
	}
	parsed, err := p.parser.Parse(ctx, raw)
	if err != nil {
		return nil, errors.Wrapf(err, "parse message %s", key)
	}

	messageID := parsed.MessageID
	if messageID == "" {
		messageID = uuid.NewString()
	}

	var attachmentKeys []string
	for i, att := range parsed.Attachments {
		name := att.Filename
		if name == "" {
			name = fmt.Sprintf("attachment-%d", i+1)
		}
		attKey := fmt.Sprintf("emails/%s/%s", messageID, name)
		if err := p.blobs.Put(ctx, attKey, att.Content, att.ContentType); err != nil {
			return nil, errors.Wrapf(err, "store attachment %s", attKey)
		}
		attachmentKeys = append(attachmentKeys, attKey)
	}

	receivedAt := parsed.Date
	if receivedAt.IsZero() {
		receivedAt = time.Now().UTC()
	}
	now := time.Now().UTC()
	doc := &model.Document{
		ID:            uuid.NewString(),
		Type:          model.DocumentTypeEmail,
		Subject:       parsed.Subject,
		Sender:        parsed.From,
		ReceivedAt:    receivedAt,
		ExtractedText: parsed.Text,
		Tags:          []string{},
		Metadata: map[string]interface{}{
			"messageId": messageID,
			"rawKey":    key,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if len(parsed.To) > 0 {
		doc.Metadata["to"] = parsed.To
	}
	if len(parsed.Cc) > 0 {
		doc.Metadata["cc"] = parsed.Cc
	}
	if len(attachmentKeys) > 0 {
		doc.Metadata["attachments"] = attachmentKeys
	}

	created, err := p.store.Documents().Create(ctx, doc)
	if err != nil {
		return nil, errors.Wrap(err, "create email document")
	}

	if err := p.store.Outbox().Enqueue(ctx, store.OpClassifyDocument, created.ID, nil); err != nil {
		p.log.Warn().Err(err).Str("documentId", created.ID).Msg("classification enqueue failed")
	}

	p.log.Info().Str("documentId", created.ID).Str("messageId", messageID).Int("attachments", len(attachmentKeys)).Msg("email ingested")
	return created, nil
}
