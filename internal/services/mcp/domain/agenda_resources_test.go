package domain

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	meetingdomain "github.com/louisbranch/cadence.team/internal/services/meeting/domain"
)

func TestParseMeetingIDFromAgendaURI(t *testing.T) {
	cases := []struct {
		uri     string
		want    string
		wantErr bool
	}{
		{uri: "meeting://meet-1/agenda", want: "meet-1"},
		{uri: "meeting://abc-123/agenda", want: "abc-123"},
		{uri: "https://meet-1/agenda", wantErr: true},
		{uri: "meeting://meet-1", wantErr: true},
		{uri: "meeting:///agenda", wantErr: true},
		{uri: "meeting://a/b/agenda", wantErr: true},
	}
	for _, tc := range cases {
		got, err := parseMeetingIDFromAgendaURI(tc.uri)
		if tc.wantErr {
			if err == nil {
				t.Errorf("parseMeetingIDFromAgendaURI(%q): expected error", tc.uri)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseMeetingIDFromAgendaURI(%q): %v", tc.uri, err)
			continue
		}
		if got != tc.want {
			t.Errorf("parseMeetingIDFromAgendaURI(%q) = %q, want %q", tc.uri, got, tc.want)
		}
	}
}

func TestAgendaResourceHandler(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		completed := time.Date(2026, 3, 2, 9, 10, 0, 0, time.UTC)
		started := completed.Add(-5 * time.Minute)
		service := &fakeMeetingService{
			view: meetingdomain.AgendaView{
				Meeting: testMeeting("meet-1", "Weekly L10", meetingdomain.StatusInProgress),
				Items: []meetingdomain.Item{
					testItem("item-1", meetingdomain.SectionSegue, 10, &started, &completed),
				},
			},
		}
		handler := AgendaResourceHandler(service, staticCredential("grant-1"))
		result, err := handler(context.Background(), &mcp.ReadResourceRequest{
			Params: &mcp.ReadResourceParams{URI: "meeting://meet-1/agenda"},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if service.agendaID != "meet-1" {
			t.Errorf("agenda called with id %q", service.agendaID)
		}
		if len(result.Contents) != 1 {
			t.Fatalf("expected 1 content, got %d", len(result.Contents))
		}
		content := result.Contents[0]
		if content.URI != "meeting://meet-1/agenda" || content.MIMEType != "application/json" {
			t.Errorf("unexpected content metadata %+v", content)
		}
		var payload AgendaPayload
		if err := json.Unmarshal([]byte(content.Text), &payload); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		if payload.Meeting.ID != "meet-1" {
			t.Errorf("payload meeting = %+v", payload.Meeting)
		}
		if len(payload.Items) != 1 || payload.Items[0].Phase != "complete" {
			t.Errorf("payload items = %+v", payload.Items)
		}
	})

	t.Run("missing URI", func(t *testing.T) {
		handler := AgendaResourceHandler(&fakeMeetingService{}, staticCredential(""))
		if _, err := handler(context.Background(), &mcp.ReadResourceRequest{}); err == nil {
			t.Fatal("expected error for missing URI")
		}
	})

	t.Run("bad URI", func(t *testing.T) {
		handler := AgendaResourceHandler(&fakeMeetingService{}, staticCredential(""))
		_, err := handler(context.Background(), &mcp.ReadResourceRequest{
			Params: &mcp.ReadResourceParams{URI: "meeting://meet-1/notes"},
		})
		if err == nil {
			t.Fatal("expected error for non-agenda URI")
		}
	})

	t.Run("service error", func(t *testing.T) {
		service := &fakeMeetingService{err: meetingdomain.ErrNotFound}
		handler := AgendaResourceHandler(service, staticCredential(""))
		_, err := handler(context.Background(), &mcp.ReadResourceRequest{
			Params: &mcp.ReadResourceParams{URI: "meeting://meet-9/agenda"},
		})
		if err == nil {
			t.Fatal("expected error for unknown meeting")
		}
	})
}
