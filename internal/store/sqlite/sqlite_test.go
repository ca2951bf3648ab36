package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/avclabs/faxdesk/internal/store"
	"github.com/avclabs/faxdesk/internal/store/storetest"
)

func TestSQLiteCompliance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		s, err := New(filepath.Join(t.TempDir(), "faxdesk.db"))
		if err != nil {
			t.Fatalf("open sqlite store: %v", err)
		}
		return s
	})
}

func TestSQLiteOutboxRetryCeiling(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "faxdesk.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer func() { _ = db.Close() }()
	s := NewWithDB(db)
	ctx := context.Background()

	if err := s.Outbox().Enqueue(ctx, store.OpClassifyDocument, "d1", nil); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	jobs, err := s.Outbox().Lease(ctx, 1)
	if err != nil || len(jobs) != 1 {
		t.Fatalf("Lease: n=%d err=%v", len(jobs), err)
	}
	for i := 0; i < store.MaxAttempts; i++ {
		if err := s.Outbox().MarkFailed(ctx, jobs[0].ID); err != nil {
			t.Fatalf("MarkFailed: %v", err)
		}
	}

	var status string
	var attempts int
	if err := db.QueryRow(`SELECT status, attempt_count FROM outbox WHERE id=?`, jobs[0].ID).Scan(&status, &attempts); err != nil {
		t.Fatalf("read job row: %v", err)
	}
	if status != "failed" || attempts != store.MaxAttempts {
		t.Fatalf("job not parked at the ceiling: status=%s attempts=%d", status, attempts)
	}
}
