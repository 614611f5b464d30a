package event

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/louisbranch/cadence.team/internal/platform/id"
)

// Journal appends events to the durable audit record. The journal is the
// system of record: append failures surface to the emitting caller.
type Journal interface {
	AppendEvent(ctx context.Context, evt Event) (Event, error)
}

// Queue hands committed events to the asynchronous dispatch outbox. Enqueue
// is best effort: the emitter logs and swallows its failures so integration
// problems never reach the command caller.
type Queue interface {
	EnqueueDispatch(ctx context.Context, evt Event) error
}

// Emitter writes each event to the journal first and then offers it to the
// dispatch queue. A dispatch handoff failure never rolls back or reports
// into the journal append, so the journal may hold events that were never
// dispatched.
type Emitter struct {
	journal Journal
	queue   Queue
	log     zerolog.Logger
	clock   func() time.Time
	newID   func() (string, error)
}

// NewEmitter constructs an emitter over the given sinks. A nil queue
// disables dispatch handoff.
func NewEmitter(journal Journal, queue Queue, log zerolog.Logger, clock func() time.Time, newID func() (string, error)) *Emitter {
	if clock == nil {
		clock = time.Now
	}
	if newID == nil {
		newID = id.NewID
	}
	return &Emitter{
		journal: journal,
		queue:   queue,
		log:     log,
		clock:   clock,
		newID:   newID,
	}
}

// EmitInput describes one event to record.
type EmitInput struct {
	OrgID      string
	MeetingID  string
	Type       Type
	ActorID    string
	EntityType string
	EntityID   string
	Payload    any
}

// Emit journals the event and offers it to the dispatch queue.
func (e *Emitter) Emit(ctx context.Context, input EmitInput) (Event, error) {
	if e == nil || e.journal == nil {
		return Event{}, fmt.Errorf("event journal is not configured")
	}
	if strings.TrimSpace(input.OrgID) == "" {
		return Event{}, fmt.Errorf("event organization scope is required")
	}
	if input.Type == "" {
		return Event{}, fmt.Errorf("event type is required")
	}

	payloadJSON, err := json.Marshal(input.Payload)
	if err != nil {
		return Event{}, fmt.Errorf("marshal event payload: %w", err)
	}
	eventID, err := e.newID()
	if err != nil {
		return Event{}, fmt.Errorf("event id: %w", err)
	}

	evt := Event{
		ID:          eventID,
		OrgID:       input.OrgID,
		MeetingID:   input.MeetingID,
		Type:        input.Type,
		Timestamp:   e.clock().UTC(),
		ActorID:     input.ActorID,
		EntityType:  input.EntityType,
		EntityID:    input.EntityID,
		PayloadJSON: payloadJSON,
	}

	appended, err := e.journal.AppendEvent(ctx, evt)
	if err != nil {
		return Event{}, fmt.Errorf("append event: %w", err)
	}

	if e.queue != nil {
		if err := e.queue.EnqueueDispatch(ctx, appended); err != nil {
			e.log.Warn().
				Err(err).
				Str("event_id", appended.ID).
				Str("event_type", string(appended.Type)).
				Str("meeting_id", appended.MeetingID).
				Msg("dispatch enqueue failed")
		}
	}
	return appended, nil
}

// EmitBatch emits every input concurrently and independently: one emission
// failing leaves the others untouched. The returned slice is positional;
// entries whose emission failed are zero-valued and their errors are joined
// into the returned error.
func (e *Emitter) EmitBatch(ctx context.Context, inputs []EmitInput) ([]Event, error) {
	events := make([]Event, len(inputs))
	errs := make([]error, len(inputs))

	var wg sync.WaitGroup
	for i, input := range inputs {
		wg.Add(1)
		go func(i int, input EmitInput) {
			defer wg.Done()
			events[i], errs[i] = e.Emit(ctx, input)
		}(i, input)
	}
	wg.Wait()

	var failures []error
	for _, err := range errs {
		if err != nil {
			failures = append(failures, err)
		}
	}
	if len(failures) > 0 {
		return events, errors.Join(failures...)
	}
	return events, nil
}

// EmitMeetingCreated emits a meeting.created event.
func (e *Emitter) EmitMeetingCreated(ctx context.Context, orgID, meetingID, actorID string, payload MeetingCreatedPayload) (Event, error) {
	return e.Emit(ctx, EmitInput{
		OrgID:      orgID,
		MeetingID:  meetingID,
		Type:       TypeMeetingCreated,
		ActorID:    actorID,
		EntityType: "meeting",
		EntityID:   meetingID,
		Payload:    payload,
	})
}

// EmitMeetingConcluded emits a meeting.concluded event.
func (e *Emitter) EmitMeetingConcluded(ctx context.Context, orgID, meetingID, actorID string, payload MeetingConcludedPayload) (Event, error) {
	return e.Emit(ctx, EmitInput{
		OrgID:      orgID,
		MeetingID:  meetingID,
		Type:       TypeMeetingConcluded,
		ActorID:    actorID,
		EntityType: "meeting",
		EntityID:   meetingID,
		Payload:    payload,
	})
}

// EmitItemStarted emits an agenda.item.started event.
func (e *Emitter) EmitItemStarted(ctx context.Context, orgID, meetingID, actorID string, payload ItemTransitionPayload) (Event, error) {
	return e.emitItem(ctx, orgID, meetingID, actorID, TypeItemStarted, payload)
}

// EmitItemCompleted emits an agenda.item.completed event.
func (e *Emitter) EmitItemCompleted(ctx context.Context, orgID, meetingID, actorID string, payload ItemTransitionPayload) (Event, error) {
	return e.emitItem(ctx, orgID, meetingID, actorID, TypeItemCompleted, payload)
}

// EmitItemReopened emits an agenda.item.reopened event.
func (e *Emitter) EmitItemReopened(ctx context.Context, orgID, meetingID, actorID string, payload ItemTransitionPayload) (Event, error) {
	return e.emitItem(ctx, orgID, meetingID, actorID, TypeItemReopened, payload)
}

// EmitItemReset emits an agenda.item.reset event.
func (e *Emitter) EmitItemReset(ctx context.Context, orgID, meetingID, actorID string, payload ItemTransitionPayload) (Event, error) {
	return e.emitItem(ctx, orgID, meetingID, actorID, TypeItemReset, payload)
}

// EmitItemReactivated emits an agenda.item.reactivated event.
func (e *Emitter) EmitItemReactivated(ctx context.Context, orgID, meetingID, actorID string, payload ItemTransitionPayload) (Event, error) {
	return e.emitItem(ctx, orgID, meetingID, actorID, TypeItemReactivated, payload)
}

// EmitNotesUpdated emits an agenda.notes.updated event.
func (e *Emitter) EmitNotesUpdated(ctx context.Context, orgID, meetingID, actorID string, payload NotesUpdatedPayload) (Event, error) {
	return e.Emit(ctx, EmitInput{
		OrgID:      orgID,
		MeetingID:  meetingID,
		Type:       TypeNotesUpdated,
		ActorID:    actorID,
		EntityType: "agenda_item",
		EntityID:   payload.ItemID,
		Payload:    payload,
	})
}

func (e *Emitter) emitItem(ctx context.Context, orgID, meetingID, actorID string, eventType Type, payload ItemTransitionPayload) (Event, error) {
	return e.Emit(ctx, EmitInput{
		OrgID:      orgID,
		MeetingID:  meetingID,
		Type:       eventType,
		ActorID:    actorID,
		EntityType: "agenda_item",
		EntityID:   payload.ItemID,
		Payload:    payload,
	})
}
