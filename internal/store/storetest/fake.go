package storetest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/avclabs/faxdesk/internal/model"
	"github.com/avclabs/faxdesk/internal/store"
)

// Fake is an in-memory store.Store used by service and handler tests.
// It honors the same contract as the SQL drivers, including the
// optimistic version check on ReplaceMemos.
type Fake struct {
	mu      sync.Mutex
	docs    map[string]*model.Document
	order   []string
	jobs    []*fakeJob
	nextJob int64

	// FailNext forces the next Documents call to return this error.
	FailNext error
}

type fakeJob struct {
	job    model.OutboxJob
	status string
}

// NewFake returns an empty in-memory store.
func NewFake() *Fake {
	return &Fake{docs: make(map[string]*model.Document), nextJob: 1}
}

func (f *Fake) Documents() store.Documents { return (*fakeDocuments)(f) }
func (f *Fake) Outbox() store.Outbox       { return (*fakeOutbox)(f) }

func (f *Fake) takeErr() error {
	err := f.FailNext
	f.FailNext = nil
	return err
}

func copyDoc(d *model.Document) *model.Document {
	out := *d
	out.Tags = append([]string(nil), d.Tags...)
	out.Memos = append([]model.Memo(nil), d.Memos...)
	if d.LatestMemo != nil {
		lm := *d.LatestMemo
		out.LatestMemo = &lm
	}
	if d.Metadata != nil {
		out.Metadata = make(map[string]interface{}, len(d.Metadata))
		for k, v := range d.Metadata {
			out.Metadata[k] = v
		}
	}
	return &out
}

type fakeDocuments Fake

func (f *fakeDocuments) Create(ctx context.Context, d *model.Document) (*model.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := (*Fake)(f).takeErr(); err != nil {
		return nil, err
	}
	if _, ok := f.docs[d.ID]; ok {
		return nil, fmt.Errorf("%w: duplicate id %s", model.ErrConflict, d.ID)
	}
	stored := copyDoc(d)
	stored.Tags = model.DedupeTags(stored.Tags)
	stored.Version = 0
	f.docs[d.ID] = stored
	f.order = append(f.order, d.ID)
	return copyDoc(stored), nil
}

func (f *fakeDocuments) Get(ctx context.Context, id string) (*model.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := (*Fake)(f).takeErr(); err != nil {
		return nil, err
	}
	d, ok := f.docs[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return copyDoc(d), nil
}

func (f *fakeDocuments) List(ctx context.Context, req model.ListDocumentsRequest) ([]*model.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := (*Fake)(f).takeErr(); err != nil {
		return nil, err
	}
	var res []*model.Document
	for _, id := range f.order {
		d := f.docs[id]
		if req.Type != "" && string(d.Type) != req.Type {
			continue
		}
		if req.Folder != "" && d.Folder != req.Folder {
			continue
		}
		if req.Category != "" && string(d.Category) != req.Category {
			continue
		}
		if req.Tag != "" {
			found := false
			for _, t := range d.Tags {
				if t == req.Tag {
					found = true
					break
				}
			}
			if !found {
				continue
			}
		}
		res = append(res, copyDoc(d))
	}
	if req.SortByReceived {
		sort.SliceStable(res, func(i, j int) bool { return res[i].ReceivedAt.After(res[j].ReceivedAt) })
	}
	return res, nil
}

func (f *fakeDocuments) UpdateLabels(ctx context.Context, id string, upd model.LabelUpdate) (*model.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := (*Fake)(f).takeErr(); err != nil {
		return nil, err
	}
	if upd.Empty() {
		return nil, fmt.Errorf("%w: no fields to update", model.ErrValidation)
	}
	d, ok := f.docs[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	if upd.Tags != nil {
		d.Tags = model.DedupeTags(*upd.Tags)
	}
	if upd.Folder != nil {
		d.Folder = *upd.Folder
	}
	if upd.Category != nil {
		d.Category = *upd.Category
	}
	d.UpdatedAt = time.Now().UTC()
	return copyDoc(d), nil
}

func (f *fakeDocuments) UpdateClassification(ctx context.Context, id string, c model.Classification) (*model.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := (*Fake)(f).takeErr(); err != nil {
		return nil, err
	}
	d, ok := f.docs[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	d.Tags = model.DedupeTags(c.Tags)
	d.Category = c.Category
	conf := c.Confidence
	d.ClassificationConfidence = &conf
	d.UpdatedAt = time.Now().UTC()
	return copyDoc(d), nil
}

func (f *fakeDocuments) ReplaceMemos(ctx context.Context, id string, expectedVersion int64, memos []model.Memo, latest *model.MemoSummary) (*model.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := (*Fake)(f).takeErr(); err != nil {
		return nil, err
	}
	d, ok := f.docs[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	if d.Version != expectedVersion {
		return nil, model.ErrConflict
	}
	d.Memos = append([]model.Memo(nil), memos...)
	if latest != nil {
		lm := *latest
		d.LatestMemo = &lm
	} else {
		d.LatestMemo = nil
	}
	d.UpdatedAt = time.Now().UTC()
	d.Version++
	return copyDoc(d), nil
}

type fakeOutbox Fake

func (f *fakeOutbox) Enqueue(ctx context.Context, op, aggregateID string, payload map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := (*Fake)(f).takeErr(); err != nil {
		return err
	}
	if payload == nil {
		payload = map[string]interface{}{}
	}
	f.jobs = append(f.jobs, &fakeJob{
		job:    model.OutboxJob{ID: f.nextJob, Op: op, AggregateID: aggregateID, Payload: payload},
		status: "pending",
	})
	f.nextJob++
	return nil
}

func (f *fakeOutbox) Lease(ctx context.Context, limit int) ([]*model.OutboxJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.OutboxJob
	for _, j := range f.jobs {
		if len(out) >= limit {
			break
		}
		if j.status != "pending" {
			continue
		}
		j.status = "processing"
		job := j.job
		out = append(out, &job)
	}
	return out, nil
}

func (f *fakeOutbox) MarkDone(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, j := range f.jobs {
		if j.job.ID == id {
			j.status = "done"
		}
	}
	return nil
}

func (f *fakeOutbox) MarkFailed(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, j := range f.jobs {
		if j.job.ID == id {
			j.job.Attempts++
			if j.job.Attempts >= store.MaxAttempts {
				j.status = "failed"
			} else {
				j.status = "pending"
			}
		}
	}
	return nil
}

// PendingJobs returns the ops of jobs still pending, for assertions.
func (f *Fake) PendingJobs() []model.OutboxJob {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.OutboxJob
	for _, j := range f.jobs {
		if j.status == "pending" {
			out = append(out, j.job)
		}
	}
	return out
}
