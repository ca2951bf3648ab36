package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/avclabs/faxdesk/internal/model"
	"github.com/avclabs/faxdesk/internal/store"
)

// MemoService manages the memo sequence embedded in a document record.
// Every mutation rewrites the whole cleaned sequence together with the
// latest-memo projection, guarded by the record version; a lost race is
// retried once against fresh state.
type MemoService struct {
	store  store.Store
	logger zerolog.Logger
}

func NewMemoService(s store.Store, logger zerolog.Logger) *MemoService {
	return &MemoService{store: s, logger: logger}
}

// List returns the document's live memos. Logically-deleted entries are
// filtered out and the compacted sequence is persisted best-effort so
// dirty records heal on read.
func (s *MemoService) List(ctx context.Context, docID string) ([]model.Memo, error) {
	doc, err := s.store.Documents().Get(ctx, docID)
	if err != nil {
		return nil, err
	}
	clean, dirty := model.CleanMemos(doc.Memos)
	if dirty {
		latest := model.LatestMemo(clean)
		if _, err := s.store.Documents().ReplaceMemos(ctx, docID, doc.Version, clean, latest); err != nil {
			s.logger.Debug().Err(err).Str("documentId", docID).Msg("memo compaction skipped")
		}
	}
	return clean, nil
}

// Create appends a memo. Blank text is a cleanup request: deleted memos
// are compacted but no memo is created and nil is returned.
func (s *MemoService) Create(ctx context.Context, docID, text string, page *int) (*model.Memo, error) {
	if strings.TrimSpace(text) == "" {
		_, err := s.mutate(ctx, docID, func(memos []model.Memo) ([]model.Memo, error) {
			return memos, nil
		})
		return nil, err
	}

	now := time.Now().UTC()
	memo := model.Memo{
		MemoID:    uuid.NewString(),
		Text:      text,
		Page:      page,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.mutate(ctx, docID, func(memos []model.Memo) ([]model.Memo, error) {
		return append(memos, memo), nil
	}); err != nil {
		return nil, err
	}
	return &memo, nil
}

// Update rewrites an existing memo's text and page in place, preserving
// its position and createdAt. Blank text logically deletes the memo and
// returns nil.
func (s *MemoService) Update(ctx context.Context, docID, memoID, text string, page *int) (*model.Memo, error) {
	deleting := strings.TrimSpace(text) == ""
	var updated *model.Memo
	_, err := s.mutate(ctx, docID, func(memos []model.Memo) ([]model.Memo, error) {
		idx := indexOfMemo(memos, memoID)
		if idx < 0 {
			return nil, errors.Wrap(model.ErrNotFound, "memo not found")
		}
		if deleting {
			return append(memos[:idx], memos[idx+1:]...), nil
		}
		memos[idx].Text = text
		memos[idx].Page = page
		memos[idx].UpdatedAt = time.Now().UTC()
		m := memos[idx]
		updated = &m
		return memos, nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes a memo. Deleting an already-absent memo succeeds so the
// operation stays idempotent.
func (s *MemoService) Delete(ctx context.Context, docID, memoID string) error {
	_, err := s.mutate(ctx, docID, func(memos []model.Memo) ([]model.Memo, error) {
		idx := indexOfMemo(memos, memoID)
		if idx < 0 {
			return memos, nil
		}
		return append(memos[:idx], memos[idx+1:]...), nil
	})
	return err
}

// mutate loads the document, compacts deleted memos, applies fn and
// writes the result back under the record version. One conflict retry
// covers the common concurrent-writer case.
func (s *MemoService) mutate(ctx context.Context, docID string, fn func([]model.Memo) ([]model.Memo, error)) (*model.Document, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		doc, err := s.store.Documents().Get(ctx, docID)
		if err != nil {
			return nil, err
		}
		clean, _ := model.CleanMemos(doc.Memos)
		next, err := fn(clean)
		if err != nil {
			return nil, err
		}
		latest := model.LatestMemo(next)
		updated, err := s.store.Documents().ReplaceMemos(ctx, docID, doc.Version, next, latest)
		if err == nil {
			return updated, nil
		}
		if !errors.Is(err, model.ErrConflict) {
			return nil, err
		}
		lastErr = err
		s.logger.Debug().Str("documentId", docID).Int("attempt", attempt+1).Msg("memo write conflict, retrying")
	}
	return nil, lastErr
}

func indexOfMemo(memos []model.Memo, memoID string) int {
	for i, m := range memos {
		if m.MemoID == memoID {
			return i
		}
	}
	return -1
}
