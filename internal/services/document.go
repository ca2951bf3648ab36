// Package services orchestrates document-management use cases on top of
// the store and collaborator boundaries.
package services

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/avclabs/faxdesk/internal/blob"
	"github.com/avclabs/faxdesk/internal/classify"
	"github.com/avclabs/faxdesk/internal/extract"
	"github.com/avclabs/faxdesk/internal/model"
	"github.com/avclabs/faxdesk/internal/store"
)

// DocumentService orchestrates document read, label and classification
// use cases.
type DocumentService struct {
	store      store.Store
	blobs      blob.Store
	classifier classify.Classifier
	presignTTL time.Duration
	logger     zerolog.Logger
}

func NewDocumentService(s store.Store, blobs blob.Store, classifier classify.Classifier, presignTTL time.Duration, logger zerolog.Logger) *DocumentService {
	return &DocumentService{
		store:      s,
		blobs:      blobs,
		classifier: classifier,
		presignTTL: presignTTL,
		logger:     logger,
	}
}

// List returns document projections for list views: memos are omitted,
// the latest-memo projection stays.
func (s *DocumentService) List(ctx context.Context, req model.ListDocumentsRequest) ([]*model.Document, error) {
	docs, err := s.store.Documents().List(ctx, req)
	if err != nil {
		return nil, err
	}
	for _, d := range docs {
		d.Memos = nil
	}
	return docs, nil
}

// Get returns the full record plus a presigned download URL for its
// primary artifact. Presign failures degrade to a nil URL instead of
// failing the read; logically-deleted memos are filtered out and the
// cleaned sequence written back best-effort.
func (s *DocumentService) Get(ctx context.Context, id string) (*model.Document, *string, error) {
	doc, err := s.store.Documents().Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	s.healMemos(ctx, doc)

	var fileURL *string
	if doc.S3Key != "" {
		url, err := s.blobs.PresignGet(ctx, doc.S3Key, s.presignTTL)
		if err != nil {
			s.logger.Warn().Err(err).Str("documentId", id).Msg("presign download url failed")
		} else {
			fileURL = &url
		}
	}
	return doc, fileURL, nil
}

// UpdateLabels applies a partial tags/folder/category update. An update
// carrying no fields is a validation error; tags are deduplicated.
func (s *DocumentService) UpdateLabels(ctx context.Context, id string, upd model.LabelUpdate) (*model.Document, error) {
	if upd.Empty() {
		return nil, errors.Wrap(model.ErrValidation, "at least one of tags, folder, category is required")
	}
	if upd.Tags != nil {
		deduped := model.DedupeTags(*upd.Tags)
		upd.Tags = &deduped
	}
	return s.store.Documents().UpdateLabels(ctx, id, upd)
}

// Classify runs the classifier synchronously against the document's text
// and persists the result. The record is left untouched when the
// classifier fails.
func (s *DocumentService) Classify(ctx context.Context, id string) (*model.Document, *model.Classification, error) {
	doc, err := s.store.Documents().Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	text, err := s.resolveText(ctx, doc)
	if err != nil {
		return nil, nil, err
	}

	result, err := s.classifier.Classify(ctx, text)
	if err != nil {
		return nil, nil, errors.Wrap(err, "classify document")
	}
	cls := model.Classification{
		Tags:       model.DedupeTags(result.Tags),
		Category:   model.Category(result.Category),
		Confidence: result.Confidence,
	}
	updated, err := s.store.Documents().UpdateClassification(ctx, id, cls)
	if err != nil {
		return nil, nil, err
	}
	s.logger.Info().
		Str("documentId", id).
		Str("category", string(cls.Category)).
		Float64("confidence", cls.Confidence).
		Msg("document classified")
	return updated, &cls, nil
}

// resolveText finds text to classify: the stored extractedText, else the
// sibling text artifact derived from the PDF key, else plain text pulled
// out of the PDF itself. No text at all is a precondition failure.
func (s *DocumentService) resolveText(ctx context.Context, doc *model.Document) (string, error) {
	if strings.TrimSpace(doc.ExtractedText) != "" {
		return doc.ExtractedText, nil
	}
	if doc.S3Key == "" {
		return "", errors.Wrap(model.ErrPrecondition, "document has no extracted text")
	}
	if key := TextKeyFor(doc.S3Key); key != doc.S3Key {
		if data, err := s.blobs.Get(ctx, key); err == nil && strings.TrimSpace(string(data)) != "" {
			return string(data), nil
		}
	}
	data, err := s.blobs.Get(ctx, doc.S3Key)
	if err == nil {
		if text, perr := extract.PDFText(data); perr == nil && strings.TrimSpace(text) != "" {
			return text, nil
		}
	}
	return "", errors.Wrap(model.ErrPrecondition, "no text available for classification")
}

// TextKeyFor maps a PDF artifact key to its sibling extracted-text key
// (fax/pdf/x.pdf -> fax/text/x.txt).
func TextKeyFor(pdfKey string) string {
	key := strings.Replace(pdfKey, "/pdf/", "/text/", 1)
	if strings.HasSuffix(key, ".pdf") {
		key = strings.TrimSuffix(key, ".pdf") + ".txt"
	}
	return key
}

// healMemos drops logically-deleted memos from the record and persists
// the compacted sequence. Losing the race to another writer is fine; the
// next reader cleans again.
func (s *DocumentService) healMemos(ctx context.Context, doc *model.Document) {
	clean, dirty := model.CleanMemos(doc.Memos)
	if !dirty {
		return
	}
	latest := model.LatestMemo(clean)
	if updated, err := s.store.Documents().ReplaceMemos(ctx, doc.ID, doc.Version, clean, latest); err != nil {
		s.logger.Debug().Err(err).Str("documentId", doc.ID).Msg("memo compaction skipped")
		doc.Memos = clean
		doc.LatestMemo = latest
	} else {
		*doc = *updated
	}
}
