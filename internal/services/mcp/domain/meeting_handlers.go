package domain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	meetingdomain "github.com/louisbranch/cadence.team/internal/services/meeting/domain"
)

// MeetingService is the slice of the meeting facade the MCP tools run
// against.
type MeetingService interface {
	CreateMeeting(ctx context.Context, input meetingdomain.CreateMeetingInput) (meetingdomain.AgendaView, error)
	Agenda(ctx context.Context, credential, meetingID string) (meetingdomain.AgendaView, error)
	ListMeetings(ctx context.Context, input meetingdomain.ListMeetingsInput) (meetingdomain.MeetingPage, error)
	ConcludeMeeting(ctx context.Context, input meetingdomain.ConcludeMeetingInput) (meetingdomain.Meeting, error)
	Navigate(ctx context.Context, input meetingdomain.NavigateInput) (meetingdomain.AgendaView, error)
	Next(ctx context.Context, input meetingdomain.StepInput) (meetingdomain.AgendaView, error)
	Previous(ctx context.Context, input meetingdomain.StepInput) (meetingdomain.AgendaView, error)
	UpdateNotes(ctx context.Context, input meetingdomain.UpdateNotesInput) (meetingdomain.Item, error)
}

// CredentialSource supplies the grant token attached to every facade call.
type CredentialSource func() string

// MeetingCreateHandler executes a meeting creation request.
func MeetingCreateHandler(service MeetingService, credential CredentialSource) mcp.ToolHandlerFor[MeetingCreateInput, AgendaViewResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input MeetingCreateInput) (*mcp.CallToolResult, AgendaViewResult, error) {
		createInput := meetingdomain.CreateMeetingInput{
			Credential: credential(),
			OrgID:      input.OrgID,
			Title:      input.Title,
		}
		if strings.TrimSpace(input.ScheduledFor) != "" {
			scheduledFor, err := time.Parse(time.RFC3339, input.ScheduledFor)
			if err != nil {
				return nil, AgendaViewResult{}, fmt.Errorf("parse scheduled_for: %w", err)
			}
			createInput.ScheduledFor = &scheduledFor
		}
		for _, entry := range input.Template {
			createInput.Template = append(createInput.Template, meetingdomain.TemplateEntry{
				Section:         meetingdomain.Section(strings.ToLower(strings.TrimSpace(entry.Section))),
				DurationMinutes: entry.DurationMinutes,
			})
		}

		view, err := service.CreateMeeting(ctx, createInput)
		if err != nil {
			return nil, AgendaViewResult{}, fmt.Errorf("meeting create failed: %w", err)
		}
		return nil, agendaViewResult(view), nil
	}
}

// MeetingListHandler executes a meeting listing request.
func MeetingListHandler(service MeetingService, credential CredentialSource) mcp.ToolHandlerFor[MeetingListInput, MeetingListResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input MeetingListInput) (*mcp.CallToolResult, MeetingListResult, error) {
		page, err := service.ListMeetings(ctx, meetingdomain.ListMeetingsInput{
			Credential: credential(),
			OrgID:      input.OrgID,
			PageSize:   input.PageSize,
			PageToken:  input.PageToken,
		})
		if err != nil {
			return nil, MeetingListResult{}, fmt.Errorf("meeting list failed: %w", err)
		}
		result := MeetingListResult{
			Meetings:      make([]MeetingResult, 0, len(page.Meetings)),
			NextPageToken: page.NextPageToken,
		}
		for _, meeting := range page.Meetings {
			result.Meetings = append(result.Meetings, meetingResult(meeting))
		}
		return nil, result, nil
	}
}

// MeetingAgendaHandler executes an agenda read request.
func MeetingAgendaHandler(service MeetingService, credential CredentialSource) mcp.ToolHandlerFor[MeetingAgendaInput, AgendaViewResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input MeetingAgendaInput) (*mcp.CallToolResult, AgendaViewResult, error) {
		view, err := service.Agenda(ctx, credential(), input.MeetingID)
		if err != nil {
			return nil, AgendaViewResult{}, fmt.Errorf("meeting agenda failed: %w", err)
		}
		return nil, agendaViewResult(view), nil
	}
}

// AgendaNavigateHandler executes a direct navigation request.
func AgendaNavigateHandler(service MeetingService, credential CredentialSource) mcp.ToolHandlerFor[AgendaNavigateInput, AgendaViewResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input AgendaNavigateInput) (*mcp.CallToolResult, AgendaViewResult, error) {
		view, err := service.Navigate(ctx, meetingdomain.NavigateInput{
			Credential:   credential(),
			MeetingID:    input.MeetingID,
			TargetItemID: input.ItemID,
		})
		if err != nil {
			return nil, AgendaViewResult{}, fmt.Errorf("agenda navigate failed: %w", err)
		}
		return nil, agendaViewResult(view), nil
	}
}

// AgendaNextHandler executes an advance request.
func AgendaNextHandler(service MeetingService, credential CredentialSource) mcp.ToolHandlerFor[AgendaStepInput, AgendaViewResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input AgendaStepInput) (*mcp.CallToolResult, AgendaViewResult, error) {
		view, err := service.Next(ctx, meetingdomain.StepInput{
			Credential: credential(),
			MeetingID:  input.MeetingID,
		})
		if err != nil {
			return nil, AgendaViewResult{}, fmt.Errorf("agenda next failed: %w", err)
		}
		return nil, agendaViewResult(view), nil
	}
}

// AgendaPreviousHandler executes a step-back request.
func AgendaPreviousHandler(service MeetingService, credential CredentialSource) mcp.ToolHandlerFor[AgendaStepInput, AgendaViewResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input AgendaStepInput) (*mcp.CallToolResult, AgendaViewResult, error) {
		view, err := service.Previous(ctx, meetingdomain.StepInput{
			Credential: credential(),
			MeetingID:  input.MeetingID,
		})
		if err != nil {
			return nil, AgendaViewResult{}, fmt.Errorf("agenda previous failed: %w", err)
		}
		return nil, agendaViewResult(view), nil
	}
}

// AgendaNotesHandler executes a notes replacement request.
func AgendaNotesHandler(service MeetingService, credential CredentialSource) mcp.ToolHandlerFor[AgendaNotesInput, AgendaItemResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input AgendaNotesInput) (*mcp.CallToolResult, AgendaItemResult, error) {
		item, err := service.UpdateNotes(ctx, meetingdomain.UpdateNotesInput{
			Credential: credential(),
			ItemID:     input.ItemID,
			Notes:      input.Notes,
		})
		if err != nil {
			return nil, AgendaItemResult{}, fmt.Errorf("agenda update notes failed: %w", err)
		}
		return nil, agendaItemResult(item), nil
	}
}

// MeetingConcludeHandler executes a meeting conclusion request.
func MeetingConcludeHandler(service MeetingService, credential CredentialSource) mcp.ToolHandlerFor[MeetingConcludeInput, MeetingResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input MeetingConcludeInput) (*mcp.CallToolResult, MeetingResult, error) {
		meeting, err := service.ConcludeMeeting(ctx, meetingdomain.ConcludeMeetingInput{
			Credential: credential(),
			MeetingID:  input.MeetingID,
			Force:      input.Force,
		})
		if err != nil {
			return nil, MeetingResult{}, fmt.Errorf("meeting conclude failed: %w", err)
		}
		return nil, meetingResult(meeting), nil
	}
}

func meetingResult(meeting meetingdomain.Meeting) MeetingResult {
	return MeetingResult{
		ID:           meeting.ID,
		OrgID:        meeting.OrgID,
		Title:        meeting.Title,
		Status:       string(meeting.Status),
		ScheduledFor: formatTimestamp(meeting.ScheduledFor),
		CreatedAt:    meeting.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    meeting.UpdatedAt.Format(time.RFC3339),
	}
}

func agendaItemResult(item meetingdomain.Item) AgendaItemResult {
	return AgendaItemResult{
		ID:              item.ID,
		MeetingID:       item.MeetingID,
		Section:         item.Section.String(),
		SortOrder:       item.SortOrder,
		DurationMinutes: item.DurationMinutes,
		Phase:           string(item.Phase()),
		StartedAt:       formatTimestamp(item.StartedAt),
		CompletedAt:     formatTimestamp(item.CompletedAt),
		Notes:           item.Notes,
	}
}

func agendaViewResult(view meetingdomain.AgendaView) AgendaViewResult {
	result := AgendaViewResult{
		Meeting: meetingResult(view.Meeting),
		Items:   make([]AgendaItemResult, 0, len(view.Items)),
	}
	for _, item := range view.Items {
		result.Items = append(result.Items, agendaItemResult(item))
	}
	for _, applied := range view.Applied {
		result.Applied = append(result.Applied, AppliedTransitionResult{
			Transition: string(applied.Kind),
			Item:       agendaItemResult(applied.Item),
		})
	}
	return result
}

// formatTimestamp returns an RFC3339 timestamp or empty string.
func formatTimestamp(ts *time.Time) string {
	if ts == nil {
		return ""
	}
	return ts.Format(time.RFC3339)
}
