package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/avclabs/faxdesk/internal/model"
	"github.com/avclabs/faxdesk/internal/store"
)

// Run exercises a compliance suite against a store.Store implementation.
// Implementations should provide a clean, isolated store from makeStore.
func Run(t *testing.T, makeStore func(t *testing.T) store.Store) {
	t.Helper()

	s := makeStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	newDoc := func(typ model.DocumentType, received time.Time) *model.Document {
		return &model.Document{
			ID:         uuid.New().String(),
			Type:       typ,
			Subject:    "subject",
			Sender:     "someone@example.test",
			ReceivedAt: received,
			Tags:       []string{},
			CreatedAt:  received,
			UpdatedAt:  received,
		}
	}

	// Create + Get
	fax := newDoc(model.DocumentTypeFax, now)
	fax.Subject = ""
	fax.Sender = "fax"
	fax.S3Key = "fax/pdf/scan-1.pdf"
	fax.ExtractedText = "invoice total 42"
	fax.Metadata = map[string]interface{}{"originalImageKey": "fax/incoming/scan-1.png"}
	created, err := s.Documents().Create(ctx, fax)
	if err != nil {
		t.Fatalf("Create fax: %v", err)
	}
	if created.ID != fax.ID || created.Type != model.DocumentTypeFax {
		t.Fatalf("Create fax: got %+v", created)
	}
	got, err := s.Documents().Get(ctx, fax.ID)
	if err != nil || got.S3Key != fax.S3Key || got.ExtractedText != fax.ExtractedText {
		t.Fatalf("Get fax: got=%+v err=%v", got, err)
	}
	if got.Metadata["originalImageKey"] != "fax/incoming/scan-1.png" {
		t.Fatalf("Get fax metadata: %+v", got.Metadata)
	}

	// Missing id maps to ErrNotFound
	if _, err := s.Documents().Get(ctx, "missing"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("Get missing: want ErrNotFound, got %v", err)
	}

	// Duplicate tags are never persisted
	email := newDoc(model.DocumentTypeEmail, now.Add(time.Minute))
	email.Tags = []string{"urgent", "invoice", "urgent"}
	email.Folder = "inbox"
	email.Category = model.CategoryInvoice
	if _, err := s.Documents().Create(ctx, email); err != nil {
		t.Fatalf("Create email: %v", err)
	}
	if got, err := s.Documents().Get(ctx, email.ID); err != nil || len(got.Tags) != 2 {
		t.Fatalf("Get email tags: got=%v err=%v", got.Tags, err)
	}

	// List filters
	if lst, err := s.Documents().List(ctx, model.ListDocumentsRequest{Type: "fax"}); err != nil || len(lst) != 1 {
		t.Fatalf("List type=fax: n=%d err=%v", len(lst), err)
	}
	if lst, err := s.Documents().List(ctx, model.ListDocumentsRequest{Tag: "invoice"}); err != nil || len(lst) != 1 || lst[0].ID != email.ID {
		t.Fatalf("List tag=invoice: n=%d err=%v", len(lst), err)
	}
	if lst, err := s.Documents().List(ctx, model.ListDocumentsRequest{Folder: "inbox"}); err != nil || len(lst) != 1 {
		t.Fatalf("List folder=inbox: n=%d err=%v", len(lst), err)
	}
	if lst, err := s.Documents().List(ctx, model.ListDocumentsRequest{Category: "invoice"}); err != nil || len(lst) != 1 {
		t.Fatalf("List category=invoice: n=%d err=%v", len(lst), err)
	}
	if lst, err := s.Documents().List(ctx, model.ListDocumentsRequest{SortByReceived: true}); err != nil || len(lst) != 2 || lst[0].ID != email.ID {
		t.Fatalf("List sorted: n=%d err=%v", len(lst), err)
	}

	// Partial label update leaves untouched fields alone
	newTags := []string{"paid"}
	upd, err := s.Documents().UpdateLabels(ctx, email.ID, model.LabelUpdate{Tags: &newTags})
	if err != nil {
		t.Fatalf("UpdateLabels: %v", err)
	}
	if len(upd.Tags) != 1 || upd.Tags[0] != "paid" || upd.Folder != "inbox" || upd.Category != model.CategoryInvoice {
		t.Fatalf("UpdateLabels partial: %+v", upd)
	}
	if !upd.UpdatedAt.After(email.UpdatedAt) && !upd.UpdatedAt.Equal(email.UpdatedAt) {
		t.Fatalf("UpdateLabels updatedAt not stamped: %v", upd.UpdatedAt)
	}
	if _, err := s.Documents().UpdateLabels(ctx, email.ID, model.LabelUpdate{}); !errors.Is(err, model.ErrValidation) {
		t.Fatalf("UpdateLabels empty: want ErrValidation, got %v", err)
	}
	if _, err := s.Documents().UpdateLabels(ctx, "missing", model.LabelUpdate{Tags: &newTags}); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("UpdateLabels missing: want ErrNotFound, got %v", err)
	}

	// Classification overwrite
	cls := model.Classification{Tags: []string{"invoice", "important"}, Category: model.CategoryInvoice, Confidence: 0.87}
	clsDoc, err := s.Documents().UpdateClassification(ctx, fax.ID, cls)
	if err != nil {
		t.Fatalf("UpdateClassification: %v", err)
	}
	if clsDoc.Category != model.CategoryInvoice || clsDoc.ClassificationConfidence == nil || *clsDoc.ClassificationConfidence != 0.87 {
		t.Fatalf("UpdateClassification result: %+v", clsDoc)
	}

	// Memo replace with version check
	page := 3
	memo := model.Memo{MemoID: uuid.New().String(), Text: "hello", Page: &page, CreatedAt: now, UpdatedAt: now}
	memoDoc, err := s.Documents().ReplaceMemos(ctx, fax.ID, clsDoc.Version, []model.Memo{memo}, &model.MemoSummary{Text: memo.Text, UpdatedAt: memo.UpdatedAt})
	if err != nil {
		t.Fatalf("ReplaceMemos: %v", err)
	}
	if len(memoDoc.Memos) != 1 || memoDoc.Memos[0].Text != "hello" || memoDoc.Memos[0].Page == nil || *memoDoc.Memos[0].Page != 3 {
		t.Fatalf("ReplaceMemos memos: %+v", memoDoc.Memos)
	}
	if memoDoc.LatestMemo == nil || memoDoc.LatestMemo.Text != "hello" {
		t.Fatalf("ReplaceMemos latest: %+v", memoDoc.LatestMemo)
	}
	if memoDoc.Version != clsDoc.Version+1 {
		t.Fatalf("ReplaceMemos version: got %d want %d", memoDoc.Version, clsDoc.Version+1)
	}

	// Stale version loses
	if _, err := s.Documents().ReplaceMemos(ctx, fax.ID, clsDoc.Version, nil, nil); !errors.Is(err, model.ErrConflict) {
		t.Fatalf("ReplaceMemos stale: want ErrConflict, got %v", err)
	}
	if _, err := s.Documents().ReplaceMemos(ctx, "missing", 0, nil, nil); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("ReplaceMemos missing: want ErrNotFound, got %v", err)
	}

	// Clearing memos removes the projection entirely
	cleared, err := s.Documents().ReplaceMemos(ctx, fax.ID, memoDoc.Version, nil, nil)
	if err != nil {
		t.Fatalf("ReplaceMemos clear: %v", err)
	}
	if len(cleared.Memos) != 0 || cleared.LatestMemo != nil {
		t.Fatalf("ReplaceMemos clear: memos=%v latest=%+v", cleared.Memos, cleared.LatestMemo)
	}

	// Outbox round trip
	if err := s.Outbox().Enqueue(ctx, store.OpClassifyDocument, fax.ID, map[string]interface{}{"documentId": fax.ID}); err != nil {
		t.Fatalf("Outbox.Enqueue: %v", err)
	}
	jobs, err := s.Outbox().Lease(ctx, 10)
	if err != nil || len(jobs) != 1 {
		t.Fatalf("Outbox.Lease: n=%d err=%v", len(jobs), err)
	}
	if jobs[0].Op != store.OpClassifyDocument || jobs[0].AggregateID != fax.ID {
		t.Fatalf("Outbox job: %+v", jobs[0])
	}
	// Leased jobs are not handed out twice
	if again, err := s.Outbox().Lease(ctx, 10); err != nil || len(again) != 0 {
		t.Fatalf("Outbox.Lease leased twice: n=%d err=%v", len(again), err)
	}
	// A failed job becomes leaseable again after its backoff elapses;
	// MarkDone retires it for good.
	if err := s.Outbox().MarkDone(ctx, jobs[0].ID); err != nil {
		t.Fatalf("Outbox.MarkDone: %v", err)
	}
	if again, err := s.Outbox().Lease(ctx, 10); err != nil || len(again) != 0 {
		t.Fatalf("Outbox.Lease after done: n=%d err=%v", len(again), err)
	}
}
