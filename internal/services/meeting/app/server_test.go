package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/louisbranch/cadence.team/internal/services/meeting/domain"
	meetingsqlite "github.com/louisbranch/cadence.team/internal/services/meeting/storage/sqlite"
)

// facilitatorAuthorizer grants facilitator access to any org as long as a
// credential is present, so handler tests can exercise the full stack
// without minting grant keys.
type facilitatorAuthorizer struct{}

func (facilitatorAuthorizer) Authorize(_ context.Context, credential string, _ string) (domain.Actor, error) {
	if credential == "" {
		return domain.Actor{}, domain.ErrUnauthorized
	}
	return domain.Actor{ID: "facilitator-1", Role: domain.RoleFacilitator}, nil
}

type meetingBody struct {
	ID           string     `json:"id"`
	OrgID        string     `json:"org_id"`
	Title        string     `json:"title"`
	Status       string     `json:"status"`
	ScheduledFor *time.Time `json:"scheduled_for"`
}

type itemBody struct {
	ID        string `json:"id"`
	Section   string `json:"section"`
	SortOrder int    `json:"sort_order"`
	Phase     string `json:"phase"`
	Notes     string `json:"notes"`
}

type agendaViewBody struct {
	Meeting meetingBody `json:"meeting"`
	Items   []itemBody  `json:"items"`
	Applied []struct {
		Transition string   `json:"transition"`
		Item       itemBody `json:"item"`
	} `json:"applied"`
}

type eventPageBody struct {
	Events []struct {
		ID        string          `json:"id"`
		OrgID     string          `json:"org_id"`
		MeetingID string          `json:"meeting_id"`
		EventType string          `json:"event_type"`
		ActorID   string          `json:"actor_id"`
		Payload   json.RawMessage `json:"payload"`
	} `json:"events"`
	NextPageToken string `json:"next_page_token"`
}

func openAppStore(t *testing.T) *meetingsqlite.Store {
	t.Helper()
	store, err := meetingsqlite.Open(filepath.Join(t.TempDir(), "meeting.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return store
}

func appHandler(store *meetingsqlite.Store) http.Handler {
	return NewHandler(Deps{
		Meetings: store,
		Agendas:  store,
		Journal:  store,
		Outbox:   store,
	}, facilitatorAuthorizer{}, zerolog.Nop())
}

func appRequest(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body == nil {
		reader = bytes.NewReader(nil)
	} else {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Authorization", "Bearer grant-1")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)
	return recorder
}

func decodeAppBody[T any](t *testing.T, recorder *httptest.ResponseRecorder) T {
	t.Helper()
	var value T
	if err := json.Unmarshal(recorder.Body.Bytes(), &value); err != nil {
		t.Fatalf("decode response body: %v", err)
	}
	return value
}

func TestHandlerMeetingLifecycle(t *testing.T) {
	store := openAppStore(t)
	handler := appHandler(store)
	ctx := context.Background()

	recorder := appRequest(t, handler, http.MethodPost, "/v1/orgs/org-42/meetings", map[string]any{
		"title": "Weekly L10",
	})
	if recorder.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", recorder.Code, recorder.Body.String())
	}
	created := decodeAppBody[agendaViewBody](t, recorder)
	if created.Meeting.OrgID != "org-42" || created.Meeting.Status != "scheduled" {
		t.Fatalf("created meeting = %+v", created.Meeting)
	}
	if len(created.Items) != 7 {
		t.Fatalf("expected 7 default agenda items, got %d", len(created.Items))
	}
	for i, item := range created.Items {
		if item.Phase != "pending" {
			t.Fatalf("items[%d].Phase = %s, want pending", i, item.Phase)
		}
	}
	meetingID := created.Meeting.ID
	firstItemID := created.Items[0].ID

	recorder = appRequest(t, handler, http.MethodPost, "/v1/meetings/"+meetingID+"/navigate", map[string]any{
		"target_item_id": firstItemID,
	})
	if recorder.Code != http.StatusOK {
		t.Fatalf("navigate status = %d, body %s", recorder.Code, recorder.Body.String())
	}
	view := decodeAppBody[agendaViewBody](t, recorder)
	if view.Meeting.Status != "in_progress" {
		t.Fatalf("status after navigate = %s, want in_progress", view.Meeting.Status)
	}
	if view.Items[0].Phase != "active" {
		t.Fatalf("items[0].Phase = %s, want active", view.Items[0].Phase)
	}
	if len(view.Applied) != 1 || view.Applied[0].Transition != "start" {
		t.Fatalf("applied = %+v", view.Applied)
	}

	recorder = appRequest(t, handler, http.MethodPost, "/v1/meetings/"+meetingID+"/next", nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("next status = %d, body %s", recorder.Code, recorder.Body.String())
	}
	view = decodeAppBody[agendaViewBody](t, recorder)
	if view.Items[0].Phase != "complete" || view.Items[1].Phase != "active" {
		t.Fatalf("phases after next = %s/%s, want complete/active", view.Items[0].Phase, view.Items[1].Phase)
	}

	recorder = appRequest(t, handler, http.MethodPatch, "/v1/agenda-items/"+firstItemID+"/notes", map[string]any{
		"notes": "Two wins shared",
	})
	if recorder.Code != http.StatusOK {
		t.Fatalf("notes status = %d, body %s", recorder.Code, recorder.Body.String())
	}
	item := decodeAppBody[itemBody](t, recorder)
	if item.Notes != "Two wins shared" {
		t.Fatalf("notes = %q", item.Notes)
	}

	recorder = appRequest(t, handler, http.MethodGet, "/v1/meetings/"+meetingID+"/agenda", nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("agenda status = %d", recorder.Code)
	}
	view = decodeAppBody[agendaViewBody](t, recorder)
	if view.Items[0].Notes != "Two wins shared" {
		t.Fatalf("persisted notes = %q", view.Items[0].Notes)
	}

	recorder = appRequest(t, handler, http.MethodPost, "/v1/meetings/"+meetingID+"/conclude", map[string]any{
		"force": true,
	})
	if recorder.Code != http.StatusOK {
		t.Fatalf("conclude status = %d, body %s", recorder.Code, recorder.Body.String())
	}
	concluded := decodeAppBody[meetingBody](t, recorder)
	if concluded.Status != "concluded" {
		t.Fatalf("concluded status = %s", concluded.Status)
	}

	recorder = appRequest(t, handler, http.MethodGet, "/v1/orgs/org-42/events?page_size=50", nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("events status = %d, body %s", recorder.Code, recorder.Body.String())
	}
	page := decodeAppBody[eventPageBody](t, recorder)
	counts := map[string]int{}
	for _, evt := range page.Events {
		counts[evt.EventType]++
		if evt.OrgID != "org-42" {
			t.Fatalf("event org = %q", evt.OrgID)
		}
		if evt.ActorID != "facilitator-1" {
			t.Fatalf("event actor = %q", evt.ActorID)
		}
	}
	want := map[string]int{
		"meeting.created":       1,
		"agenda.item.started":   2,
		"agenda.item.completed": 1,
		"agenda.notes.updated":  1,
		"meeting.concluded":     1,
	}
	for eventType, count := range want {
		if counts[eventType] != count {
			t.Fatalf("journal has %d %s events, want %d (all: %v)", counts[eventType], eventType, count, counts)
		}
	}
	if len(page.Events) != 6 {
		t.Fatalf("journal has %d events, want 6", len(page.Events))
	}

	stats, err := store.GetDispatchStats(ctx)
	if err != nil {
		t.Fatalf("dispatch stats: %v", err)
	}
	if stats.Pending != 6 {
		t.Fatalf("outbox pending = %d, want one dispatch per event", stats.Pending)
	}
}

func TestHandlerEventFilter(t *testing.T) {
	store := openAppStore(t)
	handler := appHandler(store)

	recorder := appRequest(t, handler, http.MethodPost, "/v1/orgs/org-7/meetings", map[string]any{
		"title": "Quarterly planning",
	})
	if recorder.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", recorder.Code, recorder.Body.String())
	}
	created := decodeAppBody[agendaViewBody](t, recorder)

	recorder = appRequest(t, handler, http.MethodPost, "/v1/meetings/"+created.Meeting.ID+"/navigate", map[string]any{
		"target_item_id": created.Items[0].ID,
	})
	if recorder.Code != http.StatusOK {
		t.Fatalf("navigate status = %d", recorder.Code)
	}

	filter := url.QueryEscape(`event_type = "meeting.created"`)
	recorder = appRequest(t, handler, http.MethodGet, "/v1/orgs/org-7/events?filter="+filter, nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("filtered events status = %d, body %s", recorder.Code, recorder.Body.String())
	}
	page := decodeAppBody[eventPageBody](t, recorder)
	if len(page.Events) != 1 {
		t.Fatalf("filtered events = %d, want 1", len(page.Events))
	}
	evt := page.Events[0]
	if evt.EventType != "meeting.created" || evt.MeetingID != created.Meeting.ID {
		t.Fatalf("filtered event = %+v", evt)
	}
	var payload struct {
		ItemCount int `json:"item_count"`
	}
	if err := json.Unmarshal(evt.Payload, &payload); err != nil {
		t.Fatalf("decode event payload: %v", err)
	}
	if payload.ItemCount != 7 {
		t.Fatalf("payload item_count = %d, want 7", payload.ItemCount)
	}
}

func TestHandlerRejectsMissingCredential(t *testing.T) {
	store := openAppStore(t)
	handler := appHandler(store)

	req := httptest.NewRequest(http.MethodPost, "/v1/orgs/org-42/meetings", bytes.NewReader([]byte(`{"title":"x"}`)))
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)
	if recorder.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", recorder.Code, http.StatusForbidden)
	}
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if envelope.Error.Code != "UNAUTHORIZED" {
		t.Fatalf("error code = %q", envelope.Error.Code)
	}
}
