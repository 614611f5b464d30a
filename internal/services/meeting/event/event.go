// Package event records committed meeting changes twice: an immutable audit
// journal append that must succeed, and a best-effort handoff to the
// dispatch outbox that must never block the meeting workflow.
package event

import "time"

// Type identifies one audit event type.
type Type string

const (
	// TypeMeetingCreated marks a meeting and its agenda being stored.
	TypeMeetingCreated Type = "meeting.created"
	// TypeMeetingConcluded marks a meeting being closed.
	TypeMeetingConcluded Type = "meeting.concluded"
	// TypeItemStarted marks an agenda item entering its first active run.
	TypeItemStarted Type = "agenda.item.started"
	// TypeItemCompleted marks an agenda item being completed.
	TypeItemCompleted Type = "agenda.item.completed"
	// TypeItemReopened marks a completed agenda item becoming active again.
	TypeItemReopened Type = "agenda.item.reopened"
	// TypeItemReset marks an agenda item returning to pending.
	TypeItemReset Type = "agenda.item.reset"
	// TypeItemReactivated marks a completed agenda item resuming its earlier
	// run after a backward navigation.
	TypeItemReactivated Type = "agenda.item.reactivated"
	// TypeNotesUpdated marks an agenda item notes replacement.
	TypeNotesUpdated Type = "agenda.notes.updated"
)

// Event is one immutable audit journal record. Every event carries the
// organization scope of the meeting it belongs to.
type Event struct {
	ID          string
	OrgID       string
	MeetingID   string
	Type        Type
	Timestamp   time.Time
	ActorID     string
	EntityType  string
	EntityID    string
	PayloadJSON []byte
}

// EventPage is a paged journal listing result.
type EventPage struct {
	Events        []Event
	NextPageToken string
}
