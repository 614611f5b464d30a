package server

import (
	"context"

	"github.com/louisbranch/cadence.team/internal/services/meeting/domain"
	"github.com/louisbranch/cadence.team/internal/services/meeting/event"
)

// eventsRecorder translates committed facade changes into typed emitter
// calls. It implements the meeting domain's Events boundary.
type eventsRecorder struct {
	emitter *event.Emitter
}

func newEventsRecorder(emitter *event.Emitter) *eventsRecorder {
	return &eventsRecorder{emitter: emitter}
}

func (r *eventsRecorder) MeetingCreated(ctx context.Context, actor domain.Actor, meeting domain.Meeting, items []domain.Item) error {
	if r == nil || r.emitter == nil {
		return nil
	}
	_, err := r.emitter.EmitMeetingCreated(ctx, meeting.OrgID, meeting.ID, actor.ID, event.MeetingCreatedPayload{
		MeetingID:    meeting.ID,
		Title:        meeting.Title,
		ItemCount:    len(items),
		ScheduledFor: meeting.ScheduledFor,
	})
	return err
}

func (r *eventsRecorder) MeetingConcluded(ctx context.Context, actor domain.Actor, meeting domain.Meeting, forced bool) error {
	if r == nil || r.emitter == nil {
		return nil
	}
	_, err := r.emitter.EmitMeetingConcluded(ctx, meeting.OrgID, meeting.ID, actor.ID, event.MeetingConcludedPayload{
		MeetingID: meeting.ID,
		Title:     meeting.Title,
		Forced:    forced,
	})
	return err
}

func (r *eventsRecorder) AgendaTransitions(ctx context.Context, actor domain.Actor, meeting domain.Meeting, applied []domain.Applied) error {
	if r == nil || r.emitter == nil {
		return nil
	}
	inputs := make([]event.EmitInput, 0, len(applied))
	for _, change := range applied {
		eventType, ok := transitionEventType(change.Kind)
		if !ok {
			continue
		}
		inputs = append(inputs, event.EmitInput{
			OrgID:      meeting.OrgID,
			MeetingID:  meeting.ID,
			Type:       eventType,
			ActorID:    actor.ID,
			EntityType: "agenda_item",
			EntityID:   change.Item.ID,
			Payload:    transitionPayload(change),
		})
	}
	if len(inputs) == 0 {
		return nil
	}
	_, err := r.emitter.EmitBatch(ctx, inputs)
	return err
}

func (r *eventsRecorder) AgendaNotesUpdated(ctx context.Context, actor domain.Actor, meeting domain.Meeting, item domain.Item) error {
	if r == nil || r.emitter == nil {
		return nil
	}
	_, err := r.emitter.EmitNotesUpdated(ctx, meeting.OrgID, meeting.ID, actor.ID, event.NotesUpdatedPayload{
		ItemID:  item.ID,
		Section: item.Section.String(),
		Notes:   item.Notes,
	})
	return err
}

func transitionEventType(kind domain.TransitionKind) (event.Type, bool) {
	switch kind {
	case domain.TransitionStart:
		return event.TypeItemStarted, true
	case domain.TransitionComplete:
		return event.TypeItemCompleted, true
	case domain.TransitionReopen:
		return event.TypeItemReopened, true
	case domain.TransitionReset:
		return event.TypeItemReset, true
	case domain.TransitionReactivate:
		return event.TypeItemReactivated, true
	default:
		return "", false
	}
}

func transitionPayload(change domain.Applied) event.ItemTransitionPayload {
	return event.ItemTransitionPayload{
		ItemID:      change.Item.ID,
		Section:     change.Item.Section.String(),
		SortOrder:   change.Item.SortOrder,
		Transition:  string(change.Kind),
		StartedAt:   change.Item.StartedAt,
		CompletedAt: change.Item.CompletedAt,
	}
}
