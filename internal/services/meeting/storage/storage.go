// Package storage defines the persistence records and store interfaces for
// the meeting service: meetings with their agendas, the audit journal, and
// the dispatch outbox.
package storage

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound indicates a requested record is missing.
	ErrNotFound = errors.New("record not found")
	// ErrConflict indicates a write conflicts with uniqueness constraints or
	// a guarded update found the row in a different state.
	ErrConflict = errors.New("record conflict")
	// ErrIntegrity indicates stored data violates an invariant the service
	// depends on. Integrity failures are bugs, not usage errors.
	ErrIntegrity = errors.New("storage integrity violation")
)

// MeetingRecord stores one meeting lifecycle row.
type MeetingRecord struct {
	ID           string
	OrgID        string
	Title        string
	Status       string
	ScheduledFor *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// MeetingPage stores a paged meeting listing result.
type MeetingPage struct {
	Meetings      []MeetingRecord
	NextPageToken string
}

// AgendaItemRecord stores one agenda item row. StartedAt and CompletedAt
// are the timing columns the progression engine derives item phase from.
type AgendaItemRecord struct {
	ID              string
	MeetingID       string
	Section         string
	SortOrder       int
	DurationMinutes int
	StartedAt       *time.Time
	CompletedAt     *time.Time
	Notes           string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TransitionKind names one guarded agenda timing update.
type TransitionKind string

const (
	// TransitionStart stamps started_at on a pending item.
	TransitionStart TransitionKind = "start"
	// TransitionComplete stamps completed_at on an active item.
	TransitionComplete TransitionKind = "complete"
	// TransitionReopen restamps started_at on a completed item.
	TransitionReopen TransitionKind = "reopen"
	// TransitionReset clears both timing columns on an active item.
	TransitionReset TransitionKind = "reset"
	// TransitionReactivate clears completed_at on a completed item, keeping
	// the original started_at.
	TransitionReactivate TransitionKind = "reactivate"
)

// AgendaTransition is one guarded timing update inside an atomic batch. The
// kind encodes the phase the row must still be in for the update to apply;
// a guard miss fails the whole batch with ErrConflict.
type AgendaTransition struct {
	ItemID string
	Kind   TransitionKind
}

// MeetingStore persists meeting lifecycle state.
type MeetingStore interface {
	PutMeetingWithAgenda(ctx context.Context, meeting MeetingRecord, items []AgendaItemRecord) error
	GetMeeting(ctx context.Context, meetingID string) (MeetingRecord, error)
	ListMeetingsByOrg(ctx context.Context, orgID string, pageSize int, pageToken string) (MeetingPage, error)
	UpdateMeetingStatus(ctx context.Context, meetingID string, fromStatus, toStatus string, at time.Time) (MeetingRecord, error)
}

// AgendaStore persists agenda items and applies navigation transitions.
type AgendaStore interface {
	ListAgendaItems(ctx context.Context, meetingID string) ([]AgendaItemRecord, error)
	GetAgendaItem(ctx context.Context, itemID string) (AgendaItemRecord, error)
	GetActiveAgendaItem(ctx context.Context, meetingID string) (AgendaItemRecord, error)
	GetAdjacentAgendaItem(ctx context.Context, meetingID string, referenceSortOrder int, forward bool) (AgendaItemRecord, error)
	ApplyAgendaTransitions(ctx context.Context, meetingID string, at time.Time, transitions []AgendaTransition) error
	UpdateAgendaNotes(ctx context.Context, itemID string, notes string, at time.Time) (AgendaItemRecord, error)
}

// EventRecord stores one audit journal row.
type EventRecord struct {
	ID          string
	OrgID       string
	MeetingID   string
	EventType   string
	Timestamp   time.Time
	ActorID     string
	EntityType  string
	EntityID    string
	PayloadJSON string
}

// EventPage stores a paged journal listing result.
type EventPage struct {
	Events        []EventRecord
	NextPageToken string
}

// ListEventsRequest configures a filtered journal listing. FilterClause is
// an optional SQL fragment with positional FilterParams, produced by the
// filter translation layer.
type ListEventsRequest struct {
	OrgID        string
	PageSize     int
	PageToken    string
	FilterClause string
	FilterParams []any
}

// JournalStore persists the append-only audit journal.
type JournalStore interface {
	AppendEvent(ctx context.Context, record EventRecord) error
	ListEvents(ctx context.Context, req ListEventsRequest) (EventPage, error)
}

const (
	// DispatchStatusPending means the dispatch is queued for delivery.
	DispatchStatusPending = "pending"
	// DispatchStatusLeased means a dispatcher instance holds the dispatch.
	DispatchStatusLeased = "leased"
	// DispatchStatusSucceeded means every sink accepted the dispatch.
	DispatchStatusSucceeded = "succeeded"
	// DispatchStatusDead means delivery exhausted its attempts.
	DispatchStatusDead = "dead"
)

// DispatchRecord stores one outbox dispatch row.
type DispatchRecord struct {
	ID             string
	EventID        string
	OrgID          string
	MeetingID      string
	EventType      string
	PayloadJSON    string
	Status         string
	AttemptCount   int
	NextAttemptAt  time.Time
	LeaseOwner     string
	LeaseExpiresAt *time.Time
	LastError      string
	ProcessedAt    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// DispatchStats aggregates outbox rows by status.
type DispatchStats struct {
	Pending   int64
	Leased    int64
	Succeeded int64
	Dead      int64
}

// OutboxStore persists dispatch outbox state and implements the lease
// protocol the dispatcher runs against.
type OutboxStore interface {
	EnqueueDispatch(ctx context.Context, record DispatchRecord) error
	GetDispatch(ctx context.Context, id string) (DispatchRecord, error)
	LeaseDispatches(ctx context.Context, consumer string, limit int, now time.Time, leaseTTL time.Duration) ([]DispatchRecord, error)
	MarkDispatchSucceeded(ctx context.Context, id string, consumer string, processedAt time.Time) error
	MarkDispatchRetry(ctx context.Context, id string, consumer string, nextAttemptAt time.Time, lastError string) error
	MarkDispatchDead(ctx context.Context, id string, consumer string, lastError string, processedAt time.Time) error
	ListDeadDispatches(ctx context.Context, limit int) ([]DispatchRecord, error)
	RedriveDispatch(ctx context.Context, id string, at time.Time) error
	GetDispatchStats(ctx context.Context) (DispatchStats, error)
}
