package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avclabs/faxdesk/internal/classify"
	"github.com/avclabs/faxdesk/internal/model"
	"github.com/avclabs/faxdesk/internal/store/storetest"
)

func newDocumentService(t *testing.T, st *storetest.Fake, blobs *fakeBlob, cls classify.Classifier) *DocumentService {
	t.Helper()
	return NewDocumentService(st, blobs, cls, 15*time.Minute, zerolog.Nop())
}

func seedDoc(t *testing.T, st *storetest.Fake, doc *model.Document) *model.Document {
	t.Helper()
	created, err := st.Documents().Create(context.Background(), doc)
	require.NoError(t, err)
	return created
}

func TestDocumentGetWithFileURL(t *testing.T) {
	st := storetest.NewFake()
	blobs := newFakeBlob()
	svc := newDocumentService(t, st, blobs, &fakeClassifier{})
	seedDoc(t, st, &model.Document{ID: "d1", Type: model.DocumentTypeFax, S3Key: "fax/pdf/a.pdf"})

	doc, fileURL, err := svc.Get(context.Background(), "d1")
	require.NoError(t, err)
	assert.Equal(t, "d1", doc.ID)
	require.NotNil(t, fileURL)
	assert.Equal(t, "https://blob.test/get/fax/pdf/a.pdf", *fileURL)
}

func TestDocumentGetPresignFailureDegrades(t *testing.T) {
	st := storetest.NewFake()
	blobs := newFakeBlob()
	blobs.presignErr = errors.New("endpoint down")
	svc := newDocumentService(t, st, blobs, &fakeClassifier{})
	seedDoc(t, st, &model.Document{ID: "d1", Type: model.DocumentTypeFax, S3Key: "fax/pdf/a.pdf"})

	doc, fileURL, err := svc.Get(context.Background(), "d1")
	require.NoError(t, err)
	assert.Equal(t, "d1", doc.ID)
	assert.Nil(t, fileURL)
}

func TestDocumentGetHealsDeletedMemos(t *testing.T) {
	st := storetest.NewFake()
	svc := newDocumentService(t, st, newFakeBlob(), &fakeClassifier{})
	created := seedDoc(t, st, &model.Document{ID: "d1", Type: model.DocumentTypeEmail})
	now := time.Now().UTC()
	memos := []model.Memo{
		{MemoID: "m1", Text: "keep", CreatedAt: now, UpdatedAt: now},
		{MemoID: "m2", Text: "   ", CreatedAt: now, UpdatedAt: now},
	}
	_, err := st.Documents().ReplaceMemos(context.Background(), "d1", created.Version, memos, &model.MemoSummary{Text: "keep", UpdatedAt: now})
	require.NoError(t, err)

	doc, _, err := svc.Get(context.Background(), "d1")
	require.NoError(t, err)
	require.Len(t, doc.Memos, 1)
	assert.Equal(t, "m1", doc.Memos[0].MemoID)

	// Compaction persisted: a raw store read no longer sees the blank memo.
	raw, err := st.Documents().Get(context.Background(), "d1")
	require.NoError(t, err)
	assert.Len(t, raw.Memos, 1)
}

func TestDocumentListOmitsMemos(t *testing.T) {
	st := storetest.NewFake()
	svc := newDocumentService(t, st, newFakeBlob(), &fakeClassifier{})
	created := seedDoc(t, st, &model.Document{ID: "d1", Type: model.DocumentTypeFax})
	now := time.Now().UTC()
	_, err := st.Documents().ReplaceMemos(context.Background(), "d1", created.Version,
		[]model.Memo{{MemoID: "m1", Text: "note", CreatedAt: now, UpdatedAt: now}},
		&model.MemoSummary{Text: "note", UpdatedAt: now})
	require.NoError(t, err)

	docs, err := svc.List(context.Background(), model.ListDocumentsRequest{})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Nil(t, docs[0].Memos)
	require.NotNil(t, docs[0].LatestMemo)
	assert.Equal(t, "note", docs[0].LatestMemo.Text)
}

func TestDocumentUpdateLabels(t *testing.T) {
	st := storetest.NewFake()
	svc := newDocumentService(t, st, newFakeBlob(), &fakeClassifier{})
	seedDoc(t, st, &model.Document{ID: "d1", Type: model.DocumentTypeFax})

	_, err := svc.UpdateLabels(context.Background(), "d1", model.LabelUpdate{})
	assert.ErrorIs(t, err, model.ErrValidation)

	tags := []string{"a", "b", "a"}
	doc, err := svc.UpdateLabels(context.Background(), "d1", model.LabelUpdate{Tags: &tags})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, doc.Tags)
}

func TestClassifyMissingDocument(t *testing.T) {
	st := storetest.NewFake()
	svc := newDocumentService(t, st, newFakeBlob(), &fakeClassifier{})

	_, _, err := svc.Classify(context.Background(), "missing")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestClassifyUsesExtractedText(t *testing.T) {
	st := storetest.NewFake()
	cls := &fakeClassifier{result: &classify.Result{Tags: []string{"billing"}, Category: "invoice", Confidence: 0.9}}
	svc := newDocumentService(t, st, newFakeBlob(), cls)
	seedDoc(t, st, &model.Document{ID: "d1", Type: model.DocumentTypeEmail, ExtractedText: "invoice total 100"})

	doc, result, err := svc.Classify(context.Background(), "d1")
	require.NoError(t, err)
	assert.Equal(t, "invoice total 100", cls.lastText)
	assert.Equal(t, model.CategoryInvoice, doc.Category)
	assert.Equal(t, []string{"billing"}, doc.Tags)
	require.NotNil(t, doc.ClassificationConfidence)
	assert.Equal(t, 0.9, *doc.ClassificationConfidence)
	assert.Equal(t, model.CategoryInvoice, result.Category)
}

func TestClassifyFallsBackToTextArtifact(t *testing.T) {
	st := storetest.NewFake()
	blobs := newFakeBlob()
	require.NoError(t, blobs.Put(context.Background(), "fax/text/a.txt", []byte("contract terms"), "text/plain"))
	cls := &fakeClassifier{result: &classify.Result{Tags: []string{"legal"}, Category: "contract", Confidence: 0.8}}
	svc := newDocumentService(t, st, blobs, cls)
	seedDoc(t, st, &model.Document{ID: "d1", Type: model.DocumentTypeFax, S3Key: "fax/pdf/a.pdf"})

	_, _, err := svc.Classify(context.Background(), "d1")
	require.NoError(t, err)
	assert.Equal(t, "contract terms", cls.lastText)
}

func TestClassifyNoTextIsPrecondition(t *testing.T) {
	st := storetest.NewFake()
	cls := &fakeClassifier{result: &classify.Result{Category: "other"}}
	svc := newDocumentService(t, st, newFakeBlob(), cls)
	seedDoc(t, st, &model.Document{ID: "d1", Type: model.DocumentTypeFax, S3Key: "fax/pdf/a.pdf"})

	_, _, err := svc.Classify(context.Background(), "d1")
	assert.ErrorIs(t, err, model.ErrPrecondition)
	assert.Zero(t, cls.calls)
}

func TestClassifyFailureLeavesRecordUntouched(t *testing.T) {
	st := storetest.NewFake()
	cls := &fakeClassifier{err: errors.New("model offline")}
	svc := newDocumentService(t, st, newFakeBlob(), cls)
	seedDoc(t, st, &model.Document{ID: "d1", Type: model.DocumentTypeEmail, ExtractedText: "hello", Tags: []string{"inbox"}})

	_, _, err := svc.Classify(context.Background(), "d1")
	require.Error(t, err)

	doc, err := st.Documents().Get(context.Background(), "d1")
	require.NoError(t, err)
	assert.Equal(t, []string{"inbox"}, doc.Tags)
	assert.Empty(t, doc.Category)
	assert.Nil(t, doc.ClassificationConfidence)
}

func TestTextKeyFor(t *testing.T) {
	assert.Equal(t, "fax/text/a.txt", TextKeyFor("fax/pdf/a.pdf"))
	assert.Equal(t, "emails/raw/a.eml", TextKeyFor("emails/raw/a.eml"))
}
