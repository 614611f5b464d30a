package domain

import "time"

// Status identifies one meeting lifecycle state.
type Status string

const (
	// StatusScheduled means the meeting exists but no section has started.
	StatusScheduled Status = "scheduled"
	// StatusInProgress means at least one agenda section has been started.
	StatusInProgress Status = "in_progress"
	// StatusConcluded means the meeting was closed.
	StatusConcluded Status = "concluded"
)

// IsValid reports whether the status is a known lifecycle state.
func (s Status) IsValid() bool {
	switch s {
	case StatusScheduled, StatusInProgress, StatusConcluded:
		return true
	}
	return false
}

// CanTransitionTo reports whether the lifecycle allows moving to the target
// status.
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusScheduled:
		return target == StatusInProgress || target == StatusConcluded
	case StatusInProgress:
		return target == StatusConcluded
	}
	return false
}

// Meeting is one scheduled Level 10 leadership meeting.
type Meeting struct {
	ID           string
	OrgID        string
	Title        string
	Status       Status
	ScheduledFor *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// MeetingPage is a paged meeting listing result.
type MeetingPage struct {
	Meetings      []Meeting
	NextPageToken string
}

// TemplateEntry describes one agenda slot in a meeting template.
type TemplateEntry struct {
	Section         Section
	DurationMinutes int
}

// DefaultTemplate returns the classic 90-minute Level 10 agenda.
func DefaultTemplate() []TemplateEntry {
	return []TemplateEntry{
		{Section: SectionSegue, DurationMinutes: 5},
		{Section: SectionScorecard, DurationMinutes: 5},
		{Section: SectionRocks, DurationMinutes: 5},
		{Section: SectionHeadlines, DurationMinutes: 5},
		{Section: SectionTodos, DurationMinutes: 5},
		{Section: SectionIDS, DurationMinutes: 60},
		{Section: SectionConclude, DurationMinutes: 5},
	}
}
