package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/avclabs/faxdesk/internal/model"
	"github.com/avclabs/faxdesk/internal/store"
)

// Open opens a PostgreSQL connection using the pgx stdlib driver and verifies connectivity.
func Open(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// NewWithDB constructs a native Postgres store backed directly by database/sql.
func NewWithDB(db *sql.DB) store.Store { return &pgStore{db: db} }

type pgStore struct{ db *sql.DB }

func (s *pgStore) Documents() store.Documents { return &documents{db: s.db} }
func (s *pgStore) Outbox() store.Outbox       { return &outbox{db: s.db} }

// HealthPing implements health.HealthPinger for the Postgres-backed store.
func (s *pgStore) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// EnsureSchema creates the documents and outbox tables when absent.
// Statements run one at a time; pgx's extended protocol rejects batches.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

var schemaStatements = []string{`
CREATE TABLE IF NOT EXISTS documents (
    id                        TEXT PRIMARY KEY,
    doc_type                  TEXT NOT NULL,
    subject                   TEXT NOT NULL DEFAULT '',
    sender                    TEXT NOT NULL DEFAULT '',
    received_at               TIMESTAMPTZ NOT NULL,
    s3_key                    TEXT NOT NULL DEFAULT '',
    extracted_text            TEXT NOT NULL DEFAULT '',
    metadata                  JSONB,
    tags                      JSONB NOT NULL DEFAULT '[]'::jsonb,
    folder                    TEXT NOT NULL DEFAULT '',
    category                  TEXT NOT NULL DEFAULT '',
    classification_confidence DOUBLE PRECISION,
    memos                     JSONB NOT NULL DEFAULT '[]'::jsonb,
    latest_memo               JSONB,
    created_at                TIMESTAMPTZ NOT NULL,
    updated_at                TIMESTAMPTZ NOT NULL,
    version                   BIGINT NOT NULL DEFAULT 0
)`, `
CREATE TABLE IF NOT EXISTS outbox (
    id              BIGSERIAL PRIMARY KEY,
    op              TEXT NOT NULL,
    aggregate_id    TEXT NOT NULL,
    payload         JSONB NOT NULL,
    status          TEXT NOT NULL DEFAULT 'pending',
    attempt_count   INT NOT NULL DEFAULT 0,
    next_attempt_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    creation_time   TIMESTAMPTZ NOT NULL DEFAULT now(),
    update_time     TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
}

const documentColumns = `id, doc_type, subject, sender, received_at, s3_key, extracted_text,
       metadata, tags, folder, category, classification_confidence, memos, latest_memo,
       created_at, updated_at, version`

type rowScanner interface{ Scan(dest ...interface{}) error }

func scanDocument(row rowScanner) (*model.Document, error) {
	var d model.Document
	var metadata, tags, memos []byte
	var latest []byte
	if err := row.Scan(
		&d.ID, &d.Type, &d.Subject, &d.Sender, &d.ReceivedAt, &d.S3Key, &d.ExtractedText,
		&metadata, &tags, &d.Folder, &d.Category, &d.ClassificationConfidence, &memos, &latest,
		&d.CreatedAt, &d.UpdatedAt, &d.Version,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &d.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata for %s: %w", d.ID, err)
		}
	}
	if err := json.Unmarshal(tags, &d.Tags); err != nil {
		return nil, fmt.Errorf("decode tags for %s: %w", d.ID, err)
	}
	if err := json.Unmarshal(memos, &d.Memos); err != nil {
		return nil, fmt.Errorf("decode memos for %s: %w", d.ID, err)
	}
	if len(latest) > 0 {
		d.LatestMemo = &model.MemoSummary{}
		if err := json.Unmarshal(latest, d.LatestMemo); err != nil {
			return nil, fmt.Errorf("decode latest memo for %s: %w", d.ID, err)
		}
	}
	if d.Tags == nil {
		d.Tags = []string{}
	}
	return &d, nil
}

func marshalMemoFields(memos []model.Memo, latest *model.MemoSummary) ([]byte, []byte, error) {
	if memos == nil {
		memos = []model.Memo{}
	}
	mb, err := json.Marshal(memos)
	if err != nil {
		return nil, nil, err
	}
	var lb []byte
	if latest != nil {
		lb, err = json.Marshal(latest)
		if err != nil {
			return nil, nil, err
		}
	}
	return mb, lb, nil
}

// --- Documents ---

type documents struct{ db *sql.DB }

func (r *documents) Create(ctx context.Context, d *model.Document) (*model.Document, error) {
	tags, err := json.Marshal(model.DedupeTags(d.Tags))
	if err != nil {
		return nil, err
	}
	var metadata []byte
	if d.Metadata != nil {
		if metadata, err = json.Marshal(d.Metadata); err != nil {
			return nil, err
		}
	}
	memos, latest, err := marshalMemoFields(d.Memos, d.LatestMemo)
	if err != nil {
		return nil, err
	}
	row := r.db.QueryRowContext(ctx, `
        INSERT INTO documents (`+documentColumns+`)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,0)
        RETURNING `+documentColumns+`
    `, d.ID, d.Type, d.Subject, d.Sender, d.ReceivedAt, d.S3Key, d.ExtractedText,
		nullable(metadata), tags, d.Folder, d.Category, d.ClassificationConfidence,
		memos, nullable(latest), d.CreatedAt, d.UpdatedAt)
	return scanDocument(row)
}

func (r *documents) Get(ctx context.Context, id string) (*model.Document, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id=$1`, id)
	return scanDocument(row)
}

func (r *documents) List(ctx context.Context, req model.ListDocumentsRequest) ([]*model.Document, error) {
	var where []string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if req.Type != "" {
		where = append(where, "doc_type = "+arg(req.Type))
	}
	if req.Tag != "" {
		where = append(where, "tags @> "+arg(fmt.Sprintf("%q", req.Tag))+"::jsonb")
	}
	if req.Folder != "" {
		where = append(where, "folder = "+arg(req.Folder))
	}
	if req.Category != "" {
		where = append(where, "category = "+arg(req.Category))
	}
	q := `SELECT ` + documentColumns + ` FROM documents`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	if req.SortByReceived {
		q += " ORDER BY received_at DESC"
	} else {
		q += " ORDER BY created_at ASC"
	}
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var res []*model.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, d)
	}
	return res, rows.Err()
}

func (r *documents) UpdateLabels(ctx context.Context, id string, upd model.LabelUpdate) (*model.Document, error) {
	if upd.Empty() {
		return nil, fmt.Errorf("%w: no fields to update", model.ErrValidation)
	}
	set := []string{}
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if upd.Tags != nil {
		tags, err := json.Marshal(model.DedupeTags(*upd.Tags))
		if err != nil {
			return nil, err
		}
		set = append(set, "tags = "+arg(tags))
	}
	if upd.Folder != nil {
		set = append(set, "folder = "+arg(*upd.Folder))
	}
	if upd.Category != nil {
		set = append(set, "category = "+arg(*upd.Category))
	}
	set = append(set, "updated_at = "+arg(time.Now().UTC()))
	row := r.db.QueryRowContext(ctx, `
        UPDATE documents SET `+strings.Join(set, ", ")+`
        WHERE id = `+arg(id)+`
        RETURNING `+documentColumns,
		args...)
	return scanDocument(row)
}

func (r *documents) UpdateClassification(ctx context.Context, id string, c model.Classification) (*model.Document, error) {
	tags, err := json.Marshal(model.DedupeTags(c.Tags))
	if err != nil {
		return nil, err
	}
	row := r.db.QueryRowContext(ctx, `
        UPDATE documents
        SET tags=$2, category=$3, classification_confidence=$4, updated_at=$5
        WHERE id=$1
        RETURNING `+documentColumns,
		id, tags, c.Category, c.Confidence, time.Now().UTC())
	return scanDocument(row)
}

func (r *documents) ReplaceMemos(ctx context.Context, id string, expectedVersion int64, memos []model.Memo, latest *model.MemoSummary) (*model.Document, error) {
	mb, lb, err := marshalMemoFields(memos, latest)
	if err != nil {
		return nil, err
	}
	row := r.db.QueryRowContext(ctx, `
        UPDATE documents
        SET memos=$3, latest_memo=$4, updated_at=$5, version=version+1
        WHERE id=$1 AND version=$2
        RETURNING `+documentColumns,
		id, expectedVersion, mb, nullable(lb), time.Now().UTC())
	out, err := scanDocument(row)
	if errors.Is(err, model.ErrNotFound) {
		// Distinguish a missing record from a lost version race.
		if _, getErr := r.Get(ctx, id); getErr == nil {
			return nil, model.ErrConflict
		}
		return nil, model.ErrNotFound
	}
	return out, err
}

// nullable maps empty JSON payloads to SQL NULL.
func nullable(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return b
}

// --- Outbox ---

type outbox struct{ db *sql.DB }

func (o *outbox) Enqueue(ctx context.Context, op, aggregateID string, payload map[string]interface{}) error {
	if payload == nil {
		payload = map[string]interface{}{}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = o.db.ExecContext(ctx, `
        INSERT INTO outbox (op, aggregate_id, payload) VALUES ($1,$2,$3)
    `, op, aggregateID, raw)
	return err
}

func (o *outbox) Lease(ctx context.Context, limit int) ([]*model.OutboxJob, error) {
	rows, err := o.db.QueryContext(ctx, `
        UPDATE outbox SET status='processing', update_time=now()
        WHERE id IN (
            SELECT id FROM outbox
            WHERE status='pending' AND next_attempt_at <= now()
            ORDER BY id ASC
            LIMIT $1
            FOR UPDATE SKIP LOCKED
        )
        RETURNING id, op, aggregate_id, payload, attempt_count
    `, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var jobs []*model.OutboxJob
	for rows.Next() {
		var j model.OutboxJob
		var raw []byte
		if err := rows.Scan(&j.ID, &j.Op, &j.AggregateID, &raw, &j.Attempts); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &j.Payload); err != nil {
			// Poison pill: leave it in processing limbo for MarkFailed by id.
			j.Payload = map[string]interface{}{}
		}
		jobs = append(jobs, &j)
	}
	return jobs, rows.Err()
}

func (o *outbox) MarkDone(ctx context.Context, id int64) error {
	_, err := o.db.ExecContext(ctx, `UPDATE outbox SET status='done', update_time=now() WHERE id=$1`, id)
	return err
}

func (o *outbox) MarkFailed(ctx context.Context, id int64) error {
	_, err := o.db.ExecContext(ctx, `
        UPDATE outbox
        SET status = CASE WHEN attempt_count + 1 >= $2 THEN 'failed' ELSE 'pending' END,
            attempt_count = attempt_count + 1,
            next_attempt_at = now() + make_interval(secs => LEAST(POWER(2, attempt_count+1), 300)),
            update_time = now()
        WHERE id=$1
    `, id, store.MaxAttempts)
	return err
}
