// Package ingest turns uploaded artifacts (FAX page images, raw emails)
// into document records.
package ingest

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/avclabs/faxdesk/internal/blob"
	"github.com/avclabs/faxdesk/internal/extract"
	"github.com/avclabs/faxdesk/internal/model"
	"github.com/avclabs/faxdesk/internal/pdfrender"
	"github.com/avclabs/faxdesk/internal/store"
)

// FaxPipeline processes one uploaded FAX page image: OCR, a text
// artifact, an A4-normalized PDF, and finally the document record.
type FaxPipeline struct {
	blobs    blob.Store
	ocr      extract.Extractor
	renderer pdfrender.Renderer
	store    store.Store
	bucket   string
	log      zerolog.Logger
}

func NewFaxPipeline(blobs blob.Store, ocr extract.Extractor, renderer pdfrender.Renderer, s store.Store, bucket string, log zerolog.Logger) *FaxPipeline {
	return &FaxPipeline{blobs: blobs, ocr: ocr, renderer: renderer, store: s, bucket: bucket, log: log}
}

// Handle ingests the image stored at key. OCR failure degrades to a
// record without extracted text; a render failure fails the event since
// the PDF is the document's primary artifact.
func (p *FaxPipeline) Handle(ctx context.Context, key string) (*model.Document, error) {
	img, err := p.blobs.Get(ctx, key)
	if err != nil {
		return nil, errors.Wrapf(err, "fetch image %s", key)
	}
	base := artifactBase(key)

	var text, textKey string
	if extracted, err := p.ocr.ExtractText(ctx, img); err != nil {
		p.log.Warn().Err(err).Str("key", key).Msg("ocr failed, ingesting without text")
	} else {
		text = extracted
		textKey = fmt.Sprintf("fax/text/%s.txt", base)
		if err := p.blobs.Put(ctx, textKey, []byte(text), "text/plain; charset=utf-8"); err != nil {
			return nil, errors.Wrapf(err, "store text artifact %s", textKey)
		}
	}

	pdf, err := p.renderer.RenderPDF(ctx, [][]byte{img})
	if err != nil {
		return nil, errors.Wrapf(err, "render pdf for %s", key)
	}
	pdfKey := fmt.Sprintf("fax/pdf/%s.pdf", base)
	if err := p.blobs.Put(ctx, pdfKey, pdf, "application/pdf"); err != nil {
		return nil, errors.Wrapf(err, "store pdf artifact %s", pdfKey)
	}

	now := time.Now().UTC()
	doc := &model.Document{
		ID:            uuid.NewString(),
		Type:          model.DocumentTypeFax,
		Sender:        "fax",
		ReceivedAt:    now,
		S3Key:         pdfKey,
		ExtractedText: text,
		Tags:          []string{},
		Metadata: map[string]interface{}{
			"bucket":           p.bucket,
			"originalImageKey": key,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if textKey != "" {
		doc.Metadata["textKey"] = textKey
	}

	created, err := p.store.Documents().Create(ctx, doc)
	if err != nil {
		return nil, errors.Wrap(err, "create fax document")
	}
	p.log.Info().Str("documentId", created.ID).Str("pdfKey", pdfKey).Msg("fax ingested")
	return created, nil
}

// artifactBase strips the prefix directories and extension from an
// object key (fax/incoming/123-scan.png -> 123-scan).
func artifactBase(key string) string {
	name := path.Base(key)
	return strings.TrimSuffix(name, path.Ext(name))
}
