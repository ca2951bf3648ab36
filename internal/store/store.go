package store

import (
	"context"

	"github.com/avclabs/faxdesk/internal/model"
)

// Outbox operation names (idempotent targets).
const OpClassifyDocument = "classify_document"

// MaxAttempts is the retry ceiling for outbox jobs. A job that fails
// this many times is parked as failed and never leased again.
const MaxAttempts = 10

// Store exposes persistence operations required by services.
// Implementations live under internal/store/<driver>/ (postgres, sqlite).
type Store interface {
	Documents() Documents
	Outbox() Outbox
}

// Documents persists document records. Memos live embedded in the record;
// ReplaceMemos writes the whole sequence guarded by the record version so
// concurrent memo mutations cannot silently drop a writer's change.
type Documents interface {
	Create(ctx context.Context, d *model.Document) (*model.Document, error)
	Get(ctx context.Context, id string) (*model.Document, error)
	List(ctx context.Context, req model.ListDocumentsRequest) ([]*model.Document, error)

	// UpdateLabels overwrites only the supplied fields and stamps
	// updatedAt. Returns model.ErrNotFound for unknown ids.
	UpdateLabels(ctx context.Context, id string, upd model.LabelUpdate) (*model.Document, error)

	// UpdateClassification overwrites tags, category and confidence.
	UpdateClassification(ctx context.Context, id string, c model.Classification) (*model.Document, error)

	// ReplaceMemos writes the full memo sequence and the latest-memo
	// projection. Returns model.ErrConflict when expectedVersion no
	// longer matches the stored record.
	ReplaceMemos(ctx context.Context, id string, expectedVersion int64, memos []model.Memo, latest *model.MemoSummary) (*model.Document, error)
}

// Outbox queues asynchronous operations decoupled from the caller's
// success path.
type Outbox interface {
	Enqueue(ctx context.Context, op, aggregateID string, payload map[string]interface{}) error
	// Lease returns up to limit jobs that are ready to run.
	Lease(ctx context.Context, limit int) ([]*model.OutboxJob, error)
	MarkDone(ctx context.Context, id int64) error
	// MarkFailed bumps the attempt count and schedules a backed-off
	// retry; once the count reaches MaxAttempts the job is terminal.
	MarkFailed(ctx context.Context, id int64) error
}
