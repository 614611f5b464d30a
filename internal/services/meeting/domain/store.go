package domain

import (
	"context"
	"time"
)

// Store is the domain persistence boundary for meetings and their agendas.
//
// ApplyAgendaTransitions commits every transition in one write or none of
// them, and fails the batch when any item is no longer in the phase its
// transition kind asserts. That check is what keeps two racing commands
// from both advancing the same agenda.
type Store interface {
	PutMeetingWithAgenda(ctx context.Context, meeting Meeting, items []Item) error
	GetMeeting(ctx context.Context, meetingID string) (Meeting, error)
	ListMeetingsByOrg(ctx context.Context, orgID string, pageSize int, pageToken string) (MeetingPage, error)
	UpdateMeetingStatus(ctx context.Context, meetingID string, from, to Status, at time.Time) (Meeting, error)

	ListAgendaItems(ctx context.Context, meetingID string) ([]Item, error)
	GetAgendaItem(ctx context.Context, itemID string) (Item, error)
	ApplyAgendaTransitions(ctx context.Context, meetingID string, at time.Time, transitions []Transition) error
	UpdateAgendaNotes(ctx context.Context, itemID string, notes string, at time.Time) (Item, error)
}
