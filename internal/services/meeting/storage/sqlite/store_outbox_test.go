package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/louisbranch/cadence.team/internal/services/meeting/storage"
)

func dispatchFixture(id, eventID string) storage.DispatchRecord {
	return storage.DispatchRecord{
		ID:            id,
		EventID:       eventID,
		OrgID:         "org-1",
		MeetingID:     "meet-1",
		EventType:     "agenda.item.started",
		PayloadJSON:   `{"item_id":"item-1"}`,
		NextAttemptAt: storeNow,
		CreatedAt:     storeNow,
		UpdatedAt:     storeNow,
	}
}

func TestEnqueueAndGetDispatch(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	if err := store.EnqueueDispatch(ctx, dispatchFixture("disp-1", "evt-1")); err != nil {
		t.Fatalf("enqueue dispatch: %v", err)
	}

	got, err := store.GetDispatch(ctx, "disp-1")
	if err != nil {
		t.Fatalf("get dispatch: %v", err)
	}
	if got.Status != storage.DispatchStatusPending {
		t.Fatalf("status = %s, want pending", got.Status)
	}
	if got.EventID != "evt-1" || got.AttemptCount != 0 {
		t.Fatalf("unexpected dispatch %+v", got)
	}
	if got.LeaseOwner != "" || got.LeaseExpiresAt != nil {
		t.Fatal("new dispatch must not carry a lease")
	}
}

func TestEnqueueDispatchOncePerEvent(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	if err := store.EnqueueDispatch(ctx, dispatchFixture("disp-1", "evt-1")); err != nil {
		t.Fatalf("enqueue dispatch: %v", err)
	}
	if err := store.EnqueueDispatch(ctx, dispatchFixture("disp-2", "evt-1")); !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate event, got %v", err)
	}
}

func TestLeaseDispatchesClaimsDueRows(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	if err := store.EnqueueDispatch(ctx, dispatchFixture("disp-1", "evt-1")); err != nil {
		t.Fatalf("enqueue disp-1: %v", err)
	}
	if err := store.EnqueueDispatch(ctx, dispatchFixture("disp-2", "evt-2")); err != nil {
		t.Fatalf("enqueue disp-2: %v", err)
	}
	future := dispatchFixture("disp-3", "evt-3")
	future.NextAttemptAt = storeNow.Add(time.Hour)
	if err := store.EnqueueDispatch(ctx, future); err != nil {
		t.Fatalf("enqueue disp-3: %v", err)
	}

	leased, err := store.LeaseDispatches(ctx, "worker-a", 10, storeNow, 30*time.Second)
	if err != nil {
		t.Fatalf("lease dispatches: %v", err)
	}
	if len(leased) != 2 {
		t.Fatalf("expected 2 leased dispatches, got %d", len(leased))
	}
	for _, record := range leased {
		if record.Status != storage.DispatchStatusLeased {
			t.Fatalf("status = %s, want leased", record.Status)
		}
		if record.LeaseOwner != "worker-a" {
			t.Fatalf("lease owner = %q, want worker-a", record.LeaseOwner)
		}
		if record.LeaseExpiresAt == nil || !record.LeaseExpiresAt.Equal(storeNow.Add(30*time.Second)) {
			t.Fatalf("lease expiry = %v", record.LeaseExpiresAt)
		}
	}
}

func TestLeaseDispatchesSkipsHeldLeases(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	if err := store.EnqueueDispatch(ctx, dispatchFixture("disp-1", "evt-1")); err != nil {
		t.Fatalf("enqueue dispatch: %v", err)
	}
	if _, err := store.LeaseDispatches(ctx, "worker-a", 10, storeNow, 30*time.Second); err != nil {
		t.Fatalf("first lease: %v", err)
	}

	leased, err := store.LeaseDispatches(ctx, "worker-b", 10, storeNow.Add(time.Second), 30*time.Second)
	if err != nil {
		t.Fatalf("second lease: %v", err)
	}
	if len(leased) != 0 {
		t.Fatalf("expected no dispatches while the lease is held, got %d", len(leased))
	}
}

func TestLeaseDispatchesReclaimsExpiredLease(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	if err := store.EnqueueDispatch(ctx, dispatchFixture("disp-1", "evt-1")); err != nil {
		t.Fatalf("enqueue dispatch: %v", err)
	}
	if _, err := store.LeaseDispatches(ctx, "worker-a", 10, storeNow, 30*time.Second); err != nil {
		t.Fatalf("first lease: %v", err)
	}

	leased, err := store.LeaseDispatches(ctx, "worker-b", 10, storeNow.Add(31*time.Second), 30*time.Second)
	if err != nil {
		t.Fatalf("reclaim lease: %v", err)
	}
	if len(leased) != 1 {
		t.Fatalf("expected to reclaim the expired lease, got %d", len(leased))
	}
	if leased[0].LeaseOwner != "worker-b" {
		t.Fatalf("lease owner = %q, want worker-b", leased[0].LeaseOwner)
	}
}

func TestMarkDispatchSucceeded(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	if err := store.EnqueueDispatch(ctx, dispatchFixture("disp-1", "evt-1")); err != nil {
		t.Fatalf("enqueue dispatch: %v", err)
	}
	if _, err := store.LeaseDispatches(ctx, "worker-a", 10, storeNow, 30*time.Second); err != nil {
		t.Fatalf("lease: %v", err)
	}

	processedAt := storeNow.Add(time.Second)
	if err := store.MarkDispatchSucceeded(ctx, "disp-1", "worker-a", processedAt); err != nil {
		t.Fatalf("mark succeeded: %v", err)
	}

	got, err := store.GetDispatch(ctx, "disp-1")
	if err != nil {
		t.Fatalf("get dispatch: %v", err)
	}
	if got.Status != storage.DispatchStatusSucceeded {
		t.Fatalf("status = %s, want succeeded", got.Status)
	}
	if got.ProcessedAt == nil || !got.ProcessedAt.Equal(processedAt) {
		t.Fatalf("processed_at = %v, want %v", got.ProcessedAt, processedAt)
	}
	if got.LeaseOwner != "" || got.LeaseExpiresAt != nil {
		t.Fatal("ack must clear the lease")
	}
}

func TestMarkDispatchAckRequiresLeaseOwner(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	if err := store.EnqueueDispatch(ctx, dispatchFixture("disp-1", "evt-1")); err != nil {
		t.Fatalf("enqueue dispatch: %v", err)
	}
	if _, err := store.LeaseDispatches(ctx, "worker-a", 10, storeNow, 30*time.Second); err != nil {
		t.Fatalf("lease: %v", err)
	}

	if err := store.MarkDispatchSucceeded(ctx, "disp-1", "worker-b", storeNow); !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("foreign ack: expected ErrConflict, got %v", err)
	}
	if err := store.MarkDispatchRetry(ctx, "disp-1", "worker-b", storeNow, "boom"); !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("foreign retry: expected ErrConflict, got %v", err)
	}
}

func TestMarkDispatchRetry(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	if err := store.EnqueueDispatch(ctx, dispatchFixture("disp-1", "evt-1")); err != nil {
		t.Fatalf("enqueue dispatch: %v", err)
	}
	if _, err := store.LeaseDispatches(ctx, "worker-a", 10, storeNow, 30*time.Second); err != nil {
		t.Fatalf("lease: %v", err)
	}

	nextAttempt := storeNow.Add(10 * time.Second)
	if err := store.MarkDispatchRetry(ctx, "disp-1", "worker-a", nextAttempt, "connection refused"); err != nil {
		t.Fatalf("mark retry: %v", err)
	}

	got, err := store.GetDispatch(ctx, "disp-1")
	if err != nil {
		t.Fatalf("get dispatch: %v", err)
	}
	if got.Status != storage.DispatchStatusPending {
		t.Fatalf("status = %s, want pending", got.Status)
	}
	if got.AttemptCount != 1 {
		t.Fatalf("attempt_count = %d, want 1", got.AttemptCount)
	}
	if !got.NextAttemptAt.Equal(nextAttempt) {
		t.Fatalf("next_attempt_at = %v, want %v", got.NextAttemptAt, nextAttempt)
	}
	if got.LastError != "connection refused" {
		t.Fatalf("last_error = %q", got.LastError)
	}

	// The retried row is not due yet.
	leased, err := store.LeaseDispatches(ctx, "worker-a", 10, storeNow.Add(time.Second), 30*time.Second)
	if err != nil {
		t.Fatalf("lease before due: %v", err)
	}
	if len(leased) != 0 {
		t.Fatalf("expected no leases before the next attempt, got %d", len(leased))
	}
}

func TestMarkDispatchDeadAndRedrive(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	if err := store.EnqueueDispatch(ctx, dispatchFixture("disp-1", "evt-1")); err != nil {
		t.Fatalf("enqueue dispatch: %v", err)
	}
	if _, err := store.LeaseDispatches(ctx, "worker-a", 10, storeNow, 30*time.Second); err != nil {
		t.Fatalf("lease: %v", err)
	}
	if err := store.MarkDispatchDead(ctx, "disp-1", "worker-a", "endpoint gone", storeNow.Add(time.Second)); err != nil {
		t.Fatalf("mark dead: %v", err)
	}

	dead, err := store.ListDeadDispatches(ctx, 10)
	if err != nil {
		t.Fatalf("list dead: %v", err)
	}
	if len(dead) != 1 || dead[0].ID != "disp-1" {
		t.Fatalf("unexpected dead list %+v", dead)
	}
	if dead[0].LastError != "endpoint gone" {
		t.Fatalf("last_error = %q", dead[0].LastError)
	}

	redriveAt := storeNow.Add(time.Minute)
	if err := store.RedriveDispatch(ctx, "disp-1", redriveAt); err != nil {
		t.Fatalf("redrive: %v", err)
	}
	got, err := store.GetDispatch(ctx, "disp-1")
	if err != nil {
		t.Fatalf("get dispatch: %v", err)
	}
	if got.Status != storage.DispatchStatusPending {
		t.Fatalf("status = %s, want pending", got.Status)
	}
	if got.AttemptCount != 0 || got.LastError != "" || got.ProcessedAt != nil {
		t.Fatalf("redrive must reset the attempt budget, got %+v", got)
	}
	if !got.NextAttemptAt.Equal(redriveAt) {
		t.Fatalf("next_attempt_at = %v, want %v", got.NextAttemptAt, redriveAt)
	}

	if err := store.RedriveDispatch(ctx, "disp-1", redriveAt); !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("redrive non-dead: expected ErrConflict, got %v", err)
	}
	if err := store.RedriveDispatch(ctx, "missing", redriveAt); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("redrive missing: expected ErrNotFound, got %v", err)
	}
}

func TestGetDispatchStats(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	for _, id := range []string{"disp-1", "disp-2", "disp-3"} {
		if err := store.EnqueueDispatch(ctx, dispatchFixture(id, "evt-"+id)); err != nil {
			t.Fatalf("enqueue %s: %v", id, err)
		}
	}
	if _, err := store.LeaseDispatches(ctx, "worker-a", 1, storeNow, 30*time.Second); err != nil {
		t.Fatalf("lease: %v", err)
	}

	stats, err := store.GetDispatchStats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Pending != 2 || stats.Leased != 1 || stats.Succeeded != 0 || stats.Dead != 0 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}
