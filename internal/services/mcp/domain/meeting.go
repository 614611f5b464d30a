package domain

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// TemplateEntryInput represents one agenda slot in a meeting template.
type TemplateEntryInput struct {
	Section         string `json:"section" jsonschema:"agenda section (segue, scorecard, rocks, headlines, todos, ids, conclude)"`
	DurationMinutes int    `json:"duration_minutes" jsonschema:"allotted minutes for the section"`
}

// MeetingCreateInput represents the MCP tool input for meeting creation.
type MeetingCreateInput struct {
	OrgID        string               `json:"org_id" jsonschema:"organization identifier"`
	Title        string               `json:"title" jsonschema:"meeting title"`
	ScheduledFor string               `json:"scheduled_for,omitempty" jsonschema:"optional RFC3339 scheduled start time"`
	Template     []TemplateEntryInput `json:"template,omitempty" jsonschema:"optional agenda template; defaults to the standard Level 10 agenda"`
}

// MeetingListInput represents the MCP tool input for listing meetings.
type MeetingListInput struct {
	OrgID     string `json:"org_id" jsonschema:"organization identifier"`
	PageSize  int    `json:"page_size,omitempty" jsonschema:"maximum meetings to return"`
	PageToken string `json:"page_token,omitempty" jsonschema:"continuation token from a prior listing"`
}

// MeetingAgendaInput represents the MCP tool input for reading an agenda.
type MeetingAgendaInput struct {
	MeetingID string `json:"meeting_id" jsonschema:"meeting identifier"`
}

// AgendaNavigateInput represents the MCP tool input for direct navigation.
type AgendaNavigateInput struct {
	MeetingID string `json:"meeting_id" jsonschema:"meeting identifier"`
	ItemID    string `json:"item_id" jsonschema:"agenda item to activate"`
}

// AgendaStepInput represents the MCP tool input for relative navigation.
type AgendaStepInput struct {
	MeetingID string `json:"meeting_id" jsonschema:"meeting identifier"`
}

// AgendaNotesInput represents the MCP tool input for replacing item notes.
type AgendaNotesInput struct {
	ItemID string `json:"item_id" jsonschema:"agenda item identifier"`
	Notes  string `json:"notes" jsonschema:"replacement notes text"`
}

// MeetingConcludeInput represents the MCP tool input for concluding a meeting.
type MeetingConcludeInput struct {
	MeetingID string `json:"meeting_id" jsonschema:"meeting identifier"`
	Force     bool   `json:"force,omitempty" jsonschema:"conclude even when agenda items remain open"`
}

// MeetingResult represents meeting metadata in MCP tool output.
type MeetingResult struct {
	ID           string `json:"id" jsonschema:"meeting identifier"`
	OrgID        string `json:"org_id" jsonschema:"organization identifier"`
	Title        string `json:"title" jsonschema:"meeting title"`
	Status       string `json:"status" jsonschema:"meeting status (scheduled, in_progress, concluded)"`
	ScheduledFor string `json:"scheduled_for,omitempty" jsonschema:"RFC3339 scheduled start time"`
	CreatedAt    string `json:"created_at" jsonschema:"RFC3339 timestamp when meeting was created"`
	UpdatedAt    string `json:"updated_at" jsonschema:"RFC3339 timestamp when meeting was last updated"`
}

// AgendaItemResult represents one agenda item in MCP tool output.
type AgendaItemResult struct {
	ID              string `json:"id" jsonschema:"agenda item identifier"`
	MeetingID       string `json:"meeting_id" jsonschema:"meeting identifier"`
	Section         string `json:"section" jsonschema:"agenda section"`
	SortOrder       int    `json:"sort_order" jsonschema:"position within the agenda"`
	DurationMinutes int    `json:"duration_minutes" jsonschema:"allotted minutes"`
	Phase           string `json:"phase" jsonschema:"derived phase (pending, active, complete)"`
	StartedAt       string `json:"started_at,omitempty" jsonschema:"RFC3339 timestamp when the item was last started"`
	CompletedAt     string `json:"completed_at,omitempty" jsonschema:"RFC3339 timestamp when the item was last completed"`
	Notes           string `json:"notes,omitempty" jsonschema:"item notes"`
}

// AppliedTransitionResult represents one committed transition in MCP output.
type AppliedTransitionResult struct {
	Transition string           `json:"transition" jsonschema:"transition kind (start, complete, reopen, reset, reactivate)"`
	Item       AgendaItemResult `json:"item" jsonschema:"item snapshot after the transition"`
}

// AgendaViewResult represents the MCP tool output for agenda commands.
type AgendaViewResult struct {
	Meeting MeetingResult             `json:"meeting" jsonschema:"meeting metadata"`
	Items   []AgendaItemResult        `json:"items" jsonschema:"full ordered agenda"`
	Applied []AppliedTransitionResult `json:"applied,omitempty" jsonschema:"transitions committed by this command"`
}

// MeetingListResult represents the MCP tool output for meeting listings.
type MeetingListResult struct {
	Meetings      []MeetingResult `json:"meetings" jsonschema:"meetings newest first"`
	NextPageToken string          `json:"next_page_token,omitempty" jsonschema:"continuation token for the next page"`
}

// MeetingCreateTool defines the MCP tool schema for meeting creation.
func MeetingCreateTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "meeting_create",
		Description: "Creates a meeting with an ordered timed agenda, defaulting to the standard Level 10 template.",
	}
}

// MeetingListTool defines the MCP tool schema for listing meetings.
func MeetingListTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "meeting_list",
		Description: "Lists an organization's meetings newest first with cursor pagination.",
	}
}

// MeetingAgendaTool defines the MCP tool schema for reading an agenda.
func MeetingAgendaTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "meeting_agenda",
		Description: "Returns a meeting with its full ordered agenda and derived item phases.",
	}
}

// AgendaNavigateTool defines the MCP tool schema for direct navigation.
func AgendaNavigateTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "agenda_navigate",
		Description: "Activates a specific agenda item, completing or resetting the currently active one.",
	}
}

// AgendaNextTool defines the MCP tool schema for advancing the agenda.
func AgendaNextTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "agenda_next",
		Description: "Completes the active agenda item and activates the next one in order.",
	}
}

// AgendaPreviousTool defines the MCP tool schema for stepping back.
func AgendaPreviousTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "agenda_previous",
		Description: "Steps back to the prior agenda item, reopening it.",
	}
}

// AgendaNotesTool defines the MCP tool schema for replacing item notes.
func AgendaNotesTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "agenda_update_notes",
		Description: "Replaces the notes on an agenda item. Notes stay editable after the meeting concludes.",
	}
}

// MeetingConcludeTool defines the MCP tool schema for concluding a meeting.
func MeetingConcludeTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "meeting_conclude",
		Description: "Concludes a meeting. Unless forced, every agenda item must already be complete.",
	}
}
