package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/avclabs/faxdesk/internal/model"
	"github.com/avclabs/faxdesk/internal/store"
)

// Open opens (or creates) a SQLite database at the given path, enables WAL
// journal mode and ensures the schema exists.
func Open(path string) (*sql.DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func ensureSchema(db *sql.DB) error {
	_, err := db.Exec(`
CREATE TABLE IF NOT EXISTS documents (
    id                        TEXT PRIMARY KEY,
    doc_type                  TEXT NOT NULL,
    subject                   TEXT NOT NULL DEFAULT '',
    sender                    TEXT NOT NULL DEFAULT '',
    received_at               TEXT NOT NULL,
    s3_key                    TEXT NOT NULL DEFAULT '',
    extracted_text            TEXT NOT NULL DEFAULT '',
    metadata                  TEXT,
    tags                      TEXT NOT NULL DEFAULT '[]',
    folder                    TEXT NOT NULL DEFAULT '',
    category                  TEXT NOT NULL DEFAULT '',
    classification_confidence REAL,
    memos                     TEXT NOT NULL DEFAULT '[]',
    latest_memo               TEXT,
    created_at                TEXT NOT NULL,
    updated_at                TEXT NOT NULL,
    version                   INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS outbox (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    op              TEXT NOT NULL,
    aggregate_id    TEXT NOT NULL,
    payload         TEXT NOT NULL,
    status          TEXT NOT NULL DEFAULT 'pending',
    attempt_count   INTEGER NOT NULL DEFAULT 0,
    next_attempt_at TEXT NOT NULL,
    creation_time   TEXT NOT NULL,
    update_time     TEXT NOT NULL
);
`)
	return err
}

// New constructs a SQLite-backed store for local and test use.
func New(path string) (store.Store, error) {
	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	return NewWithDB(db), nil
}

// NewWithDB wires an existing connection (used by the factory and tests).
func NewWithDB(db *sql.DB) store.Store { return &liteStore{db: db} }

type liteStore struct{ db *sql.DB }

func (s *liteStore) Documents() store.Documents { return &documents{db: s.db} }
func (s *liteStore) Outbox() store.Outbox       { return &outbox{db: s.db} }

// HealthPing implements health.HealthPinger.
func (s *liteStore) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

const timeLayout = time.RFC3339Nano

const documentColumns = `id, doc_type, subject, sender, received_at, s3_key, extracted_text,
       metadata, tags, folder, category, classification_confidence, memos, latest_memo,
       created_at, updated_at, version`

type rowScanner interface{ Scan(dest ...interface{}) error }

func scanDocument(row rowScanner) (*model.Document, error) {
	var d model.Document
	var received, created, updated string
	var metadata, latest sql.NullString
	var tags, memos string
	if err := row.Scan(
		&d.ID, &d.Type, &d.Subject, &d.Sender, &received, &d.S3Key, &d.ExtractedText,
		&metadata, &tags, &d.Folder, &d.Category, &d.ClassificationConfidence, &memos, &latest,
		&created, &updated, &d.Version,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	var err error
	if d.ReceivedAt, err = time.Parse(timeLayout, received); err != nil {
		return nil, err
	}
	if d.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
		return nil, err
	}
	if d.UpdatedAt, err = time.Parse(timeLayout, updated); err != nil {
		return nil, err
	}
	if metadata.Valid && metadata.String != "" {
		if err := json.Unmarshal([]byte(metadata.String), &d.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata for %s: %w", d.ID, err)
		}
	}
	if err := json.Unmarshal([]byte(tags), &d.Tags); err != nil {
		return nil, fmt.Errorf("decode tags for %s: %w", d.ID, err)
	}
	if err := json.Unmarshal([]byte(memos), &d.Memos); err != nil {
		return nil, fmt.Errorf("decode memos for %s: %w", d.ID, err)
	}
	if latest.Valid && latest.String != "" {
		d.LatestMemo = &model.MemoSummary{}
		if err := json.Unmarshal([]byte(latest.String), d.LatestMemo); err != nil {
			return nil, fmt.Errorf("decode latest memo for %s: %w", d.ID, err)
		}
	}
	if d.Tags == nil {
		d.Tags = []string{}
	}
	return &d, nil
}

func marshalMemoFields(memos []model.Memo, latest *model.MemoSummary) (string, interface{}, error) {
	if memos == nil {
		memos = []model.Memo{}
	}
	mb, err := json.Marshal(memos)
	if err != nil {
		return "", nil, err
	}
	var lb interface{}
	if latest != nil {
		b, err := json.Marshal(latest)
		if err != nil {
			return "", nil, err
		}
		lb = string(b)
	}
	return string(mb), lb, nil
}

// --- Documents ---

type documents struct{ db *sql.DB }

func (r *documents) Create(ctx context.Context, d *model.Document) (*model.Document, error) {
	tags, err := json.Marshal(model.DedupeTags(d.Tags))
	if err != nil {
		return nil, err
	}
	var metadata interface{}
	if d.Metadata != nil {
		b, err := json.Marshal(d.Metadata)
		if err != nil {
			return nil, err
		}
		metadata = string(b)
	}
	memos, latest, err := marshalMemoFields(d.Memos, d.LatestMemo)
	if err != nil {
		return nil, err
	}
	_, err = r.db.ExecContext(ctx, `
        INSERT INTO documents (`+documentColumns+`)
        VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,0)
    `, d.ID, d.Type, d.Subject, d.Sender, d.ReceivedAt.UTC().Format(timeLayout), d.S3Key, d.ExtractedText,
		metadata, string(tags), d.Folder, d.Category, d.ClassificationConfidence,
		memos, latest, d.CreatedAt.UTC().Format(timeLayout), d.UpdatedAt.UTC().Format(timeLayout))
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, d.ID)
}

func (r *documents) Get(ctx context.Context, id string) (*model.Document, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id=?`, id)
	return scanDocument(row)
}

func (r *documents) List(ctx context.Context, req model.ListDocumentsRequest) ([]*model.Document, error) {
	var where []string
	var args []interface{}
	if req.Type != "" {
		where = append(where, "doc_type = ?")
		args = append(args, req.Type)
	}
	if req.Tag != "" {
		where = append(where, "EXISTS (SELECT 1 FROM json_each(documents.tags) WHERE json_each.value = ?)")
		args = append(args, req.Tag)
	}
	if req.Folder != "" {
		where = append(where, "folder = ?")
		args = append(args, req.Folder)
	}
	if req.Category != "" {
		where = append(where, "category = ?")
		args = append(args, req.Category)
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
	if upd.Tags != nil {
		tags, err := json.Marshal(model.DedupeTags(*upd.Tags))
		if err != nil {
			return nil, err
		}
		set = append(set, "tags = ?")
		args = append(args, string(tags))
	}
	if upd.Folder != nil {
		set = append(set, "folder = ?")
		args = append(args, *upd.Folder)
	}
	if upd.Category != nil {
		set = append(set, "category = ?")
		args = append(args, string(*upd.Category))
	}
	set = append(set, "updated_at = ?")
	args = append(args, time.Now().UTC().Format(timeLayout))
	args = append(args, id)

	res, err := r.db.ExecContext(ctx, `UPDATE documents SET `+strings.Join(set, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return nil, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, model.ErrNotFound
	}
	return r.Get(ctx, id)
}

func (r *documents) UpdateClassification(ctx context.Context, id string, c model.Classification) (*model.Document, error) {
	tags, err := json.Marshal(model.DedupeTags(c.Tags))
	if err != nil {
		return nil, err
	}
	res, err := r.db.ExecContext(ctx, `
        UPDATE documents
        SET tags=?, category=?, classification_confidence=?, updated_at=?
        WHERE id=?
    `, string(tags), string(c.Category), c.Confidence, time.Now().UTC().Format(timeLayout), id)
	if err != nil {
		return nil, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, model.ErrNotFound
	}
	return r.Get(ctx, id)
}

func (r *documents) ReplaceMemos(ctx context.Context, id string, expectedVersion int64, memos []model.Memo, latest *model.MemoSummary) (*model.Document, error) {
	mb, lb, err := marshalMemoFields(memos, latest)
	if err != nil {
		return nil, err
	}
	res, err := r.db.ExecContext(ctx, `
        UPDATE documents
        SET memos=?, latest_memo=?, updated_at=?, version=version+1
        WHERE id=? AND version=?
    `, mb, lb, time.Now().UTC().Format(timeLayout), id, expectedVersion)
	if err != nil {
		return nil, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		if _, getErr := r.Get(ctx, id); getErr == nil {
			return nil, model.ErrConflict
		}
		return nil, model.ErrNotFound
	}
	return r.Get(ctx, id)
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
	now := time.Now().UTC().Format(timeLayout)
	_, err = o.db.ExecContext(ctx, `
        INSERT INTO outbox (op, aggregate_id, payload, next_attempt_at, creation_time, update_time)
        VALUES (?,?,?,?,?,?)
    `, op, aggregateID, string(raw), now, now, now)
	return err
}

// Lease marks up to limit ready jobs as processing and returns them.
// SQLite serializes writers, so a single UPDATE keeps leasing race-free
// within one process, which is all the local driver targets.
func (o *outbox) Lease(ctx context.Context, limit int) ([]*model.OutboxJob, error) {
	now := time.Now().UTC().Format(timeLayout)
	rows, err := o.db.QueryContext(ctx, `
        UPDATE outbox SET status='processing', update_time=?
        WHERE id IN (
            SELECT id FROM outbox
            WHERE status='pending' AND next_attempt_at <= ?
            ORDER BY id ASC
            LIMIT ?
        )
        RETURNING id, op, aggregate_id, payload, attempt_count
    `, now, now, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var jobs []*model.OutboxJob
	for rows.Next() {
		var j model.OutboxJob
		var raw string
		if err := rows.Scan(&j.ID, &j.Op, &j.AggregateID, &raw, &j.Attempts); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(raw), &j.Payload); err != nil {
			j.Payload = map[string]interface{}{}
		}
		jobs = append(jobs, &j)
	}
	return jobs, rows.Err()
}

func (o *outbox) MarkDone(ctx context.Context, id int64) error {
	_, err := o.db.ExecContext(ctx, `UPDATE outbox SET status='done', update_time=? WHERE id=?`,
		time.Now().UTC().Format(timeLayout), id)
	return err
}

func (o *outbox) MarkFailed(ctx context.Context, id int64) error {
	var attempts int
	if err := o.db.QueryRowContext(ctx, `SELECT attempt_count FROM outbox WHERE id=?`, id).Scan(&attempts); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return err
	}
	backoff := time.Duration(1<<uint(min(attempts+1, 8))) * time.Second
	if backoff > 5*time.Minute {
		backoff = 5 * time.Minute
	}
	status := "pending"
	if attempts+1 >= store.MaxAttempts {
		status = "failed"
	}
	now := time.Now().UTC()
	_, err := o.db.ExecContext(ctx, `
        UPDATE outbox
        SET status=?, attempt_count=attempt_count+1, next_attempt_at=?, update_time=?
        WHERE id=?
    `, status, now.Add(backoff).Format(timeLayout), now.Format(timeLayout), id)
	return err
}
