package server

import (
	"context"
	"fmt"
	"time"

	"github.com/louisbranch/cadence.team/internal/platform/id"
	"github.com/louisbranch/cadence.team/internal/services/meeting/event"
	"github.com/louisbranch/cadence.team/internal/services/meeting/storage"
)

// journalAdapter writes emitter events into the append-only journal table.
type journalAdapter struct {
	store storage.JournalStore
}

func newJournalAdapter(store storage.JournalStore) *journalAdapter {
	return &journalAdapter{store: store}
}

func (a *journalAdapter) AppendEvent(ctx context.Context, evt event.Event) (event.Event, error) {
	if a == nil || a.store == nil {
		return event.Event{}, fmt.Errorf("journal store is not configured")
	}
	record := storage.EventRecord{
		ID:          evt.ID,
		OrgID:       evt.OrgID,
		MeetingID:   evt.MeetingID,
		EventType:   string(evt.Type),
		Timestamp:   evt.Timestamp,
		ActorID:     evt.ActorID,
		EntityType:  evt.EntityType,
		EntityID:    evt.EntityID,
		PayloadJSON: string(evt.PayloadJSON),
	}
	if err := a.store.AppendEvent(ctx, record); err != nil {
		return event.Event{}, err
	}
	return evt, nil
}

// outboxQueueAdapter copies journaled events into the dispatch outbox where
// the dispatcher picks them up.
type outboxQueueAdapter struct {
	store storage.OutboxStore
	clock func() time.Time
	newID func() (string, error)
}

func newOutboxQueueAdapter(store storage.OutboxStore, clock func() time.Time, newID func() (string, error)) *outboxQueueAdapter {
	if clock == nil {
		clock = time.Now
	}
	if newID == nil {
		newID = id.NewID
	}
	return &outboxQueueAdapter{store: store, clock: clock, newID: newID}
}

func (a *outboxQueueAdapter) EnqueueDispatch(ctx context.Context, evt event.Event) error {
	if a == nil || a.store == nil {
		return fmt.Errorf("outbox store is not configured")
	}
	dispatchID, err := a.newID()
	if err != nil {
		return fmt.Errorf("dispatch id: %w", err)
	}
	now := a.clock().UTC()
	return a.store.EnqueueDispatch(ctx, storage.DispatchRecord{
		ID:            dispatchID,
		EventID:       evt.ID,
		OrgID:         evt.OrgID,
		MeetingID:     evt.MeetingID,
		EventType:     string(evt.Type),
		PayloadJSON:   string(evt.PayloadJSON),
		Status:        storage.DispatchStatusPending,
		AttemptCount:  0,
		NextAttemptAt: now,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
}
