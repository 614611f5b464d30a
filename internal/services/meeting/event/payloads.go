package event

import "time"

// MeetingCreatedPayload describes a stored meeting and its agenda shape.
type MeetingCreatedPayload struct {
	MeetingID    string     `json:"meeting_id"`
	Title        string     `json:"title"`
	ItemCount    int        `json:"item_count"`
	ScheduledFor *time.Time `json:"scheduled_for,omitempty"`
}

// MeetingConcludedPayload describes a closed meeting.
type MeetingConcludedPayload struct {
	MeetingID string `json:"meeting_id"`
	Title     string `json:"title"`
	Forced    bool   `json:"forced,omitempty"`
}

// ItemTransitionPayload describes one committed agenda item transition.
type ItemTransitionPayload struct {
	ItemID      string     `json:"item_id"`
	Section     string     `json:"section"`
	SortOrder   int        `json:"sort_order"`
	Transition  string     `json:"transition"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// NotesUpdatedPayload describes an agenda item notes replacement.
type NotesUpdatedPayload struct {
	ItemID  string `json:"item_id"`
	Section string `json:"section"`
	Notes   string `json:"notes"`
}
