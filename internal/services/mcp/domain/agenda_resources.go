package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// AgendaPayload represents the MCP resource payload for a meeting agenda.
type AgendaPayload struct {
	Meeting MeetingResult      `json:"meeting"`
	Items   []AgendaItemResult `json:"items"`
}

// AgendaResourceTemplate defines the MCP resource template for agendas.
func AgendaResourceTemplate() *mcp.ResourceTemplate {
	return &mcp.ResourceTemplate{
		Name:        "meeting_agenda",
		Title:       "Meeting agenda",
		Description: "Readable meeting agenda with derived item phases. URI format: meeting://{meeting_id}/agenda",
		MIMEType:    "application/json",
		URITemplate: "meeting://{meeting_id}/agenda",
	}
}

// AgendaResourceHandler returns a readable agenda resource.
func AgendaResourceHandler(service MeetingService, credential CredentialSource) mcp.ResourceHandler {
	return func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		if service == nil {
			return nil, fmt.Errorf("meeting service is not configured")
		}
		if req == nil || req.Params == nil || req.Params.URI == "" {
			return nil, fmt.Errorf("meeting ID is required; use URI format meeting://{meeting_id}/agenda")
		}
		uri := req.Params.URI

		meetingID, err := parseMeetingIDFromAgendaURI(uri)
		if err != nil {
			return nil, fmt.Errorf("parse meeting ID from URI: %w", err)
		}

		view, err := service.Agenda(ctx, credential(), meetingID)
		if err != nil {
			return nil, fmt.Errorf("meeting agenda failed: %w", err)
		}

		payload := AgendaPayload{
			Meeting: meetingResult(view.Meeting),
			Items:   make([]AgendaItemResult, 0, len(view.Items)),
		}
		for _, item := range view.Items {
			payload.Items = append(payload.Items, agendaItemResult(item))
		}

		data, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshal agenda: %w", err)
		}

		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{
				{
					URI:      uri,
					MIMEType: "application/json",
					Text:     string(data),
				},
			},
		}, nil
	}
}

// parseMeetingIDFromAgendaURI extracts the meeting id from a
// meeting://{meeting_id}/agenda URI.
func parseMeetingIDFromAgendaURI(uri string) (string, error) {
	rest, ok := strings.CutPrefix(uri, "meeting://")
	if !ok {
		return "", fmt.Errorf("uri %q does not use the meeting:// scheme", uri)
	}
	meetingID, ok := strings.CutSuffix(rest, "/agenda")
	if !ok {
		return "", fmt.Errorf("uri %q does not address an agenda", uri)
	}
	meetingID = strings.TrimSpace(meetingID)
	if meetingID == "" || strings.Contains(meetingID, "/") {
		return "", fmt.Errorf("uri %q has no meeting id", uri)
	}
	return meetingID, nil
}
