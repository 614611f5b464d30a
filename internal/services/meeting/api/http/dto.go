package api

import (
	"encoding/json"
	"time"

	"github.com/louisbranch/cadence.team/internal/services/meeting/domain"
	"github.com/louisbranch/cadence.team/internal/services/meeting/storage"
)

type meetingJSON struct {
	ID           string     `json:"id"`
	OrgID        string     `json:"org_id"`
	Title        string     `json:"title"`
	Status       string     `json:"status"`
	ScheduledFor *time.Time `json:"scheduled_for,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

type itemJSON struct {
	ID              string     `json:"id"`
	MeetingID       string     `json:"meeting_id"`
	Section         string     `json:"section"`
	SortOrder       int        `json:"sort_order"`
	DurationMinutes int        `json:"duration_minutes"`
	Phase           string     `json:"phase"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	Notes           string     `json:"notes,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

type appliedJSON struct {
	Transition string   `json:"transition"`
	Item       itemJSON `json:"item"`
}

type agendaViewJSON struct {
	Meeting meetingJSON   `json:"meeting"`
	Items   []itemJSON    `json:"items"`
	Applied []appliedJSON `json:"applied,omitempty"`
}

type meetingPageJSON struct {
	Meetings      []meetingJSON `json:"meetings"`
	NextPageToken string        `json:"next_page_token,omitempty"`
}

type eventJSON struct {
	ID         string          `json:"id"`
	OrgID      string          `json:"org_id"`
	MeetingID  string          `json:"meeting_id,omitempty"`
	EventType  string          `json:"event_type"`
	Timestamp  time.Time       `json:"timestamp"`
	ActorID    string          `json:"actor_id,omitempty"`
	EntityType string          `json:"entity_type,omitempty"`
	EntityID   string          `json:"entity_id,omitempty"`
	Payload    json.RawMessage `json:"payload"`
}

type eventPageJSON struct {
	Events        []eventJSON `json:"events"`
	NextPageToken string      `json:"next_page_token,omitempty"`
}

func toMeetingJSON(meeting domain.Meeting) meetingJSON {
	return meetingJSON{
		ID:           meeting.ID,
		OrgID:        meeting.OrgID,
		Title:        meeting.Title,
		Status:       string(meeting.Status),
		ScheduledFor: meeting.ScheduledFor,
		CreatedAt:    meeting.CreatedAt,
		UpdatedAt:    meeting.UpdatedAt,
	}
}

func toItemJSON(item domain.Item) itemJSON {
	return itemJSON{
		ID:              item.ID,
		MeetingID:       item.MeetingID,
		Section:         item.Section.String(),
		SortOrder:       item.SortOrder,
		DurationMinutes: item.DurationMinutes,
		Phase:           string(item.Phase()),
		StartedAt:       item.StartedAt,
		CompletedAt:     item.CompletedAt,
		Notes:           item.Notes,
		CreatedAt:       item.CreatedAt,
		UpdatedAt:       item.UpdatedAt,
	}
}

func toAgendaViewJSON(view domain.AgendaView) agendaViewJSON {
	out := agendaViewJSON{
		Meeting: toMeetingJSON(view.Meeting),
		Items:   make([]itemJSON, 0, len(view.Items)),
	}
	for _, item := range view.Items {
		out.Items = append(out.Items, toItemJSON(item))
	}
	for _, applied := range view.Applied {
		out.Applied = append(out.Applied, appliedJSON{
			Transition: string(applied.Kind),
			Item:       toItemJSON(applied.Item),
		})
	}
	return out
}

func toMeetingPageJSON(page domain.MeetingPage) meetingPageJSON {
	out := meetingPageJSON{
		Meetings:      make([]meetingJSON, 0, len(page.Meetings)),
		NextPageToken: page.NextPageToken,
	}
	for _, meeting := range page.Meetings {
		out.Meetings = append(out.Meetings, toMeetingJSON(meeting))
	}
	return out
}

func toEventPageJSON(page storage.EventPage) eventPageJSON {
	out := eventPageJSON{
		Events:        make([]eventJSON, 0, len(page.Events)),
		NextPageToken: page.NextPageToken,
	}
	for _, record := range page.Events {
		payload := json.RawMessage(record.PayloadJSON)
		if !json.Valid(payload) {
			payload = json.RawMessage("{}")
		}
		out.Events = append(out.Events, eventJSON{
			ID:         record.ID,
			OrgID:      record.OrgID,
			MeetingID:  record.MeetingID,
			EventType:  record.EventType,
			Timestamp:  record.Timestamp,
			ActorID:    record.ActorID,
			EntityType: record.EntityType,
			EntityID:   record.EntityID,
			Payload:    payload,
		})
	}
	return out
}
