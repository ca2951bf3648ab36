package storetest

import (
	"context"
	"testing"

	"github.com/avclabs/faxdesk/internal/store"
)

func TestFakeCompliance(t *testing.T) {
	Run(t, func(t *testing.T) store.Store { return NewFake() })
}

func TestFakeOutboxRetryCeiling(t *testing.T) {
	f := NewFake()
	ctx := context.Background()

	if err := f.Outbox().Enqueue(ctx, store.OpClassifyDocument, "d1", nil); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	jobs, err := f.Outbox().Lease(ctx, 1)
	if err != nil || len(jobs) != 1 {
		t.Fatalf("Lease: n=%d err=%v", len(jobs), err)
	}
	for i := 0; i < store.MaxAttempts-1; i++ {
		if err := f.Outbox().MarkFailed(ctx, jobs[0].ID); err != nil {
			t.Fatalf("MarkFailed: %v", err)
		}
	}
	// One attempt left: still retryable.
	if again, _ := f.Outbox().Lease(ctx, 1); len(again) != 1 {
		t.Fatalf("job not leaseable below the retry ceiling")
	}
	if err := f.Outbox().MarkFailed(ctx, jobs[0].ID); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}
	if again, _ := f.Outbox().Lease(ctx, 1); len(again) != 0 {
		t.Fatalf("job leased past the retry ceiling")
	}
}
