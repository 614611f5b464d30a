package domain

import "time"

// Item is one timed agenda entry within a meeting.
type Item struct {
	ID              string
	MeetingID       string
	Section         Section
	SortOrder       int
	DurationMinutes int
	StartedAt       *time.Time
	CompletedAt     *time.Time
	Notes           string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Phase names the derived progression phase of an agenda item.
type Phase string

const (
	// PhasePending means the item has not been started since its last reset.
	PhasePending Phase = "pending"
	// PhaseActive means the item is the one currently being worked.
	PhaseActive Phase = "active"
	// PhaseComplete means the item carries a completion marker.
	PhaseComplete Phase = "complete"
)

// State is the tagged progression state of an agenda item, constructed from
// the stored timestamps at load time. Exactly one of Pending, Active, or
// Complete implements it.
type State interface {
	Phase() Phase
}

// Pending is the state of an item that was never started or was reset.
type Pending struct{}

// Phase implements State.
func (Pending) Phase() Phase { return PhasePending }

// Active is the state of the item currently being worked. A reopened item
// keeps its earlier completion marker in CompletedAt.
type Active struct {
	StartedAt   time.Time
	CompletedAt *time.Time
}

// Phase implements State.
func (Active) Phase() Phase { return PhaseActive }

// Complete is the state of a finished item. StartedAt may be unset when the
// item was completed without ever being activated.
type Complete struct {
	StartedAt   *time.Time
	CompletedAt time.Time
}

// Phase implements State.
func (Complete) Phase() Phase { return PhaseComplete }

// State derives the tagged progression state from the item's timestamps.
//
// An item with both timestamps set is active when it was restarted after its
// completion (reopen) and complete otherwise.
func (i Item) State() State {
	switch {
	case i.StartedAt == nil && i.CompletedAt == nil:
		return Pending{}
	case i.CompletedAt == nil:
		return Active{StartedAt: *i.StartedAt}
	case i.StartedAt != nil && i.StartedAt.After(*i.CompletedAt):
		return Active{StartedAt: *i.StartedAt, CompletedAt: i.CompletedAt}
	default:
		return Complete{StartedAt: i.StartedAt, CompletedAt: *i.CompletedAt}
	}
}

// Phase returns the derived phase of the item.
func (i Item) Phase() Phase {
	return i.State().Phase()
}
