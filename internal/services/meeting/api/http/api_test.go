package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/louisbranch/cadence.team/internal/services/meeting/domain"
	"github.com/louisbranch/cadence.team/internal/services/meeting/storage"
)

var apiNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

type fakeService struct {
	createInput   domain.CreateMeetingInput
	listInput     domain.ListMeetingsInput
	concludeInput domain.ConcludeMeetingInput
	navigateInput domain.NavigateInput
	nextInput     domain.StepInput
	previousInput domain.StepInput
	notesInput    domain.UpdateNotesInput
	agendaCred    string
	agendaID      string

	view    domain.AgendaView
	page    domain.MeetingPage
	meeting domain.Meeting
	item    domain.Item
	err     error
}

func (f *fakeService) CreateMeeting(ctx context.Context, input domain.CreateMeetingInput) (domain.AgendaView, error) {
	f.createInput = input
	return f.view, f.err
}

func (f *fakeService) Agenda(ctx context.Context, credential, meetingID string) (domain.AgendaView, error) {
	f.agendaCred = credential
	f.agendaID = meetingID
	return f.view, f.err
}

func (f *fakeService) ListMeetings(ctx context.Context, input domain.ListMeetingsInput) (domain.MeetingPage, error) {
	f.listInput = input
	return f.page, f.err
}

func (f *fakeService) ConcludeMeeting(ctx context.Context, input domain.ConcludeMeetingInput) (domain.Meeting, error) {
	f.concludeInput = input
	return f.meeting, f.err
}

func (f *fakeService) Navigate(ctx context.Context, input domain.NavigateInput) (domain.AgendaView, error) {
	f.navigateInput = input
	return f.view, f.err
}

func (f *fakeService) Next(ctx context.Context, input domain.StepInput) (domain.AgendaView, error) {
	f.nextInput = input
	return f.view, f.err
}

func (f *fakeService) Previous(ctx context.Context, input domain.StepInput) (domain.AgendaView, error) {
	f.previousInput = input
	return f.view, f.err
}

func (f *fakeService) UpdateNotes(ctx context.Context, input domain.UpdateNotesInput) (domain.Item, error) {
	f.notesInput = input
	return f.item, f.err
}

type fakeJournal struct {
	credential string
	orgID      string
	pageSize   int
	pageToken  string
	filter     string

	page storage.EventPage
	err  error
}

func (j *fakeJournal) ListEvents(ctx context.Context, credential, orgID string, pageSize int, pageToken, filter string) (storage.EventPage, error) {
	j.credential = credential
	j.orgID = orgID
	j.pageSize = pageSize
	j.pageToken = pageToken
	j.filter = filter
	return j.page, j.err
}

func apiFixture(service *fakeService, journal *fakeJournal) http.Handler {
	var eventJournal EventJournal
	if journal != nil {
		eventJournal = journal
	}
	return NewHandler(service, eventJournal, zerolog.Nop()).Router()
}

func apiMeeting(id string, status domain.Status) domain.Meeting {
	return domain.Meeting{
		ID:        id,
		OrgID:     "org-1",
		Title:     "Weekly L10",
		Status:    status,
		CreatedAt: apiNow,
		UpdatedAt: apiNow,
	}
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body == nil {
		reader = bytes.NewReader(nil)
	} else {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encode request body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Authorization", "Bearer grant-1")
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)
	return recorder
}

func TestHealthEndpoint(t *testing.T) {
	handler := apiFixture(&fakeService{}, nil)
	recorder := doJSON(t, handler, http.MethodGet, "/healthz", nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", recorder.Code, http.StatusOK)
	}
}

func TestCreateMeeting(t *testing.T) {
	service := &fakeService{
		view: domain.AgendaView{
			Meeting: apiMeeting("meet-1", domain.StatusScheduled),
			Items: []domain.Item{
				{ID: "item-1", MeetingID: "meet-1", Section: domain.SectionSegue, SortOrder: 10, DurationMinutes: 5},
			},
		},
	}
	handler := apiFixture(service, nil)

	recorder := doJSON(t, handler, http.MethodPost, "/v1/orgs/org-1/meetings", map[string]any{
		"title": "Weekly L10",
		"template": []map[string]any{
			{"section": "segue", "duration_minutes": 5},
		},
	})
	if recorder.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", recorder.Code, http.StatusCreated, recorder.Body)
	}
	if service.createInput.OrgID != "org-1" {
		t.Fatalf("org id = %q", service.createInput.OrgID)
	}
	if service.createInput.Credential != "grant-1" {
		t.Fatalf("credential = %q", service.createInput.Credential)
	}
	if len(service.createInput.Template) != 1 || service.createInput.Template[0].Section != domain.SectionSegue {
		t.Fatalf("template = %+v", service.createInput.Template)
	}

	var response struct {
		Meeting struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"meeting"`
		Items []struct {
			Phase string `json:"phase"`
		} `json:"items"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &response); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if response.Meeting.ID != "meet-1" || response.Meeting.Status != "scheduled" {
		t.Fatalf("meeting = %+v", response.Meeting)
	}
	if len(response.Items) != 1 || response.Items[0].Phase != "pending" {
		t.Fatalf("items = %+v", response.Items)
	}
}

func TestCreateMeetingRejectsUnknownFields(t *testing.T) {
	handler := apiFixture(&fakeService{}, nil)
	recorder := doJSON(t, handler, http.MethodPost, "/v1/orgs/org-1/meetings", map[string]any{
		"title":    "X",
		"duration": 90,
	})
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", recorder.Code, http.StatusBadRequest)
	}
	var response errorResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &response); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if response.Error.Code != "API_INVALID_REQUEST" {
		t.Fatalf("code = %q", response.Error.Code)
	}
}

func TestListMeetingsForwardsPagination(t *testing.T) {
	service := &fakeService{
		page: domain.MeetingPage{
			Meetings:      []domain.Meeting{apiMeeting("meet-2", domain.StatusScheduled)},
			NextPageToken: "meet-2",
		},
	}
	handler := apiFixture(service, nil)

	recorder := doJSON(t, handler, http.MethodGet, "/v1/orgs/org-1/meetings?page_size=10&page_token=meet-5", nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", recorder.Code, recorder.Body)
	}
	if service.listInput.PageSize != 10 || service.listInput.PageToken != "meet-5" {
		t.Fatalf("list input = %+v", service.listInput)
	}
	var response meetingPageJSON
	if err := json.Unmarshal(recorder.Body.Bytes(), &response); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(response.Meetings) != 1 || response.NextPageToken != "meet-2" {
		t.Fatalf("page = %+v", response)
	}
}

func TestAgendaEndpoint(t *testing.T) {
	service := &fakeService{
		view: domain.AgendaView{Meeting: apiMeeting("meet-1", domain.StatusInProgress)},
	}
	handler := apiFixture(service, nil)

	recorder := doJSON(t, handler, http.MethodGet, "/v1/meetings/meet-1/agenda", nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", recorder.Code, recorder.Body)
	}
	if service.agendaID != "meet-1" || service.agendaCred != "grant-1" {
		t.Fatalf("agenda called with id=%q cred=%q", service.agendaID, service.agendaCred)
	}
}

func TestNavigateEndpoint(t *testing.T) {
	service := &fakeService{
		view: domain.AgendaView{Meeting: apiMeeting("meet-1", domain.StatusInProgress)},
	}
	handler := apiFixture(service, nil)

	recorder := doJSON(t, handler, http.MethodPost, "/v1/meetings/meet-1/navigate", map[string]string{
		"target_item_id": "item-2",
	})
	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", recorder.Code, recorder.Body)
	}
	if service.navigateInput.MeetingID != "meet-1" || service.navigateInput.TargetItemID != "item-2" {
		t.Fatalf("navigate input = %+v", service.navigateInput)
	}
}

func TestStepEndpointsAcceptEmptyBody(t *testing.T) {
	service := &fakeService{
		view: domain.AgendaView{Meeting: apiMeeting("meet-1", domain.StatusInProgress)},
	}
	handler := apiFixture(service, nil)

	if recorder := doJSON(t, handler, http.MethodPost, "/v1/meetings/meet-1/next", nil); recorder.Code != http.StatusOK {
		t.Fatalf("next status = %d: %s", recorder.Code, recorder.Body)
	}
	if service.nextInput.MeetingID != "meet-1" {
		t.Fatalf("next input = %+v", service.nextInput)
	}

	if recorder := doJSON(t, handler, http.MethodPost, "/v1/meetings/meet-1/previous", nil); recorder.Code != http.StatusOK {
		t.Fatalf("previous status = %d: %s", recorder.Code, recorder.Body)
	}
	if service.previousInput.MeetingID != "meet-1" {
		t.Fatalf("previous input = %+v", service.previousInput)
	}
}

func TestConcludeEndpoint(t *testing.T) {
	service := &fakeService{meeting: apiMeeting("meet-1", domain.StatusConcluded)}
	handler := apiFixture(service, nil)

	recorder := doJSON(t, handler, http.MethodPost, "/v1/meetings/meet-1/conclude", map[string]bool{"force": true})
	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", recorder.Code, recorder.Body)
	}
	if !service.concludeInput.Force {
		t.Fatal("expected force flag forwarded")
	}
	var response meetingJSON
	if err := json.Unmarshal(recorder.Body.Bytes(), &response); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if response.Status != "concluded" {
		t.Fatalf("status = %q", response.Status)
	}
}

func TestUpdateNotesEndpoint(t *testing.T) {
	service := &fakeService{
		item: domain.Item{ID: "item-3", MeetingID: "meet-1", Section: domain.SectionIDS, SortOrder: 60, Notes: "issues solved"},
	}
	handler := apiFixture(service, nil)

	recorder := doJSON(t, handler, http.MethodPatch, "/v1/agenda-items/item-3/notes", map[string]string{
		"notes": "issues solved",
	})
	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", recorder.Code, recorder.Body)
	}
	if service.notesInput.ItemID != "item-3" || service.notesInput.Notes != "issues solved" {
		t.Fatalf("notes input = %+v", service.notesInput)
	}
}

func TestListEventsEndpoint(t *testing.T) {
	journal := &fakeJournal{
		page: storage.EventPage{
			Events: []storage.EventRecord{
				{
					ID:          "evt-1",
					OrgID:       "org-1",
					MeetingID:   "meet-1",
					EventType:   "agenda.item.started",
					Timestamp:   apiNow,
					PayloadJSON: `{"item_id":"item-1"}`,
				},
				{
					ID:          "evt-2",
					OrgID:       "org-1",
					EventType:   "meeting.created",
					Timestamp:   apiNow,
					PayloadJSON: "not json",
				},
			},
			NextPageToken: "evt-2",
		},
	}
	handler := apiFixture(&fakeService{}, journal)

	recorder := doJSON(t, handler, http.MethodGet, `/v1/orgs/org-1/events?page_size=5&filter=event_type%20%3D%20%22meeting.created%22`, nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", recorder.Code, recorder.Body)
	}
	if journal.orgID != "org-1" || journal.pageSize != 5 {
		t.Fatalf("journal called with org=%q size=%d", journal.orgID, journal.pageSize)
	}
	if journal.filter != `event_type = "meeting.created"` {
		t.Fatalf("filter = %q", journal.filter)
	}

	var response eventPageJSON
	if err := json.Unmarshal(recorder.Body.Bytes(), &response); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(response.Events) != 2 || response.NextPageToken != "evt-2" {
		t.Fatalf("page = %+v", response)
	}
	if string(response.Events[0].Payload) != `{"item_id":"item-1"}` {
		t.Fatalf("payload = %s", response.Events[0].Payload)
	}
	// Corrupt payloads degrade to an empty object instead of breaking the
	// response encoding.
	if string(response.Events[1].Payload) != "{}" {
		t.Fatalf("fallback payload = %s", response.Events[1].Payload)
	}
}

func TestListEventsWithoutJournal(t *testing.T) {
	handler := apiFixture(&fakeService{}, nil)
	recorder := doJSON(t, handler, http.MethodGet, "/v1/orgs/org-1/events", nil)
	if recorder.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", recorder.Code, http.StatusInternalServerError)
	}
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{name: "unauthorized", err: domain.ErrUnauthorized, wantStatus: http.StatusForbidden, wantCode: "UNAUTHORIZED"},
		{name: "not found", err: domain.ErrNotFound, wantStatus: http.StatusNotFound, wantCode: "NOT_FOUND"},
		{name: "target not found", err: domain.ErrTargetNotFound, wantStatus: http.StatusNotFound, wantCode: "AGENDA_TARGET_NOT_FOUND"},
		{name: "no active item", err: domain.ErrNoActiveItem, wantStatus: http.StatusConflict, wantCode: "AGENDA_NO_ACTIVE_ITEM"},
		{name: "agenda not exhausted", err: domain.ErrAgendaNotExhausted, wantStatus: http.StatusConflict, wantCode: "MEETING_AGENDA_NOT_EXHAUSTED"},
		{name: "conflict", err: domain.ErrConflict, wantStatus: http.StatusConflict, wantCode: "CONFLICT"},
		{name: "invalid section", err: domain.ErrInvalidSection, wantStatus: http.StatusBadRequest, wantCode: "AGENDA_INVALID_SECTION"},
		{name: "unknown", err: errors.New("disk failure"), wantStatus: http.StatusInternalServerError, wantCode: "UNKNOWN"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			service := &fakeService{err: tc.err}
			handler := apiFixture(service, nil)

			recorder := doJSON(t, handler, http.MethodPost, "/v1/meetings/meet-1/next", nil)
			if recorder.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", recorder.Code, tc.wantStatus)
			}
			var response errorResponse
			if err := json.Unmarshal(recorder.Body.Bytes(), &response); err != nil {
				t.Fatalf("decode error response: %v", err)
			}
			if response.Error.Code != tc.wantCode {
				t.Fatalf("code = %q, want %q", response.Error.Code, tc.wantCode)
			}
			if tc.wantStatus >= http.StatusInternalServerError && response.Error.Message != "internal error" {
				t.Fatalf("message = %q, want internal error", response.Error.Message)
			}
		})
	}
}

func TestBearerCredential(t *testing.T) {
	cases := []struct {
		header string
		want   string
	}{
		{header: "Bearer token-1", want: "token-1"},
		{header: "Bearer   token-2  ", want: "token-2"},
		{header: "Basic dXNlcg==", want: ""},
		{header: "", want: ""},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		if got := bearerCredential(req); got != tc.want {
			t.Errorf("bearerCredential(%q) = %q, want %q", tc.header, got, tc.want)
		}
	}
}
