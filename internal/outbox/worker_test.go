package outbox

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avclabs/faxdesk/internal/blob"
	"github.com/avclabs/faxdesk/internal/classify"
	"github.com/avclabs/faxdesk/internal/model"
	"github.com/avclabs/faxdesk/internal/services"
	"github.com/avclabs/faxdesk/internal/store"
	"github.com/avclabs/faxdesk/internal/store/storetest"
)

type nopBlob struct{}

func (nopBlob) Get(ctx context.Context, key string) ([]byte, error) {
	return nil, context.Canceled
}
func (nopBlob) Put(ctx context.Context, key string, data []byte, contentType string) error {
	return nil
}
func (nopBlob) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return "", context.Canceled
}
func (nopBlob) PresignPut(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return "", context.Canceled
}
func (nopBlob) Listen(ctx context.Context, prefix string) (<-chan blob.ObjectEvent, error) {
	ch := make(chan blob.ObjectEvent)
	close(ch)
	return ch, nil
}

type fixedClassifier struct{ calls int }

func (c *fixedClassifier) Classify(ctx context.Context, text string) (*classify.Result, error) {
	c.calls++
	return &classify.Result{Tags: []string{"billing"}, Category: "invoice", Confidence: 0.9}, nil
}

func newWorker(st *storetest.Fake, cls classify.Classifier) *Worker {
	log := zerolog.Nop()
	docs := services.NewDocumentService(st, nopBlob{}, cls, time.Minute, log)
	return NewWorker(st, docs, Config{BatchSize: 10, Interval: time.Second}, log)
}

func TestWorkerClassifiesQueuedDocument(t *testing.T) {
	st := storetest.NewFake()
	cls := &fixedClassifier{}
	w := newWorker(st, cls)
	ctx := context.Background()

	_, err := st.Documents().Create(ctx, &model.Document{ID: "d1", Type: model.DocumentTypeEmail, ExtractedText: "invoice"})
	require.NoError(t, err)
	require.NoError(t, st.Outbox().Enqueue(ctx, store.OpClassifyDocument, "d1", nil))

	require.NoError(t, w.ProcessOnce(ctx))

	assert.Equal(t, 1, cls.calls)
	doc, err := st.Documents().Get(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, model.CategoryInvoice, doc.Category)
	assert.Empty(t, st.PendingJobs())
}

func TestWorkerFailureBacksOffJob(t *testing.T) {
	st := storetest.NewFake()
	w := newWorker(st, &fixedClassifier{})
	ctx := context.Background()

	// No such document: the job fails and goes back to pending with a
	// bumped attempt count.
	require.NoError(t, st.Outbox().Enqueue(ctx, store.OpClassifyDocument, "ghost", nil))
	require.NoError(t, w.ProcessOnce(ctx))

	jobs := st.PendingJobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, 1, jobs[0].Attempts)
}

func TestWorkerUnknownOpFails(t *testing.T) {
	st := storetest.NewFake()
	w := newWorker(st, &fixedClassifier{})
	ctx := context.Background()

	require.NoError(t, st.Outbox().Enqueue(ctx, "reticulate_splines", "x", nil))
	require.NoError(t, w.ProcessOnce(ctx))

	jobs := st.PendingJobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, 1, jobs[0].Attempts)
}
