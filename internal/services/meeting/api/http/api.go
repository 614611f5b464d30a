// Package api exposes the meeting service over an HTTP JSON surface. Every
// command returns the full refreshed agenda so clients always observe a
// consistent snapshot.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	apperrors "github.com/louisbranch/cadence.team/internal/platform/errors"
	"github.com/louisbranch/cadence.team/internal/services/meeting/domain"
	"github.com/louisbranch/cadence.team/internal/services/meeting/storage"
)

const maxRequestBodyBytes = 1 << 20

// Service is the meeting facade surface the HTTP API depends on.
type Service interface {
	CreateMeeting(ctx context.Context, input domain.CreateMeetingInput) (domain.AgendaView, error)
	Agenda(ctx context.Context, credential, meetingID string) (domain.AgendaView, error)
	ListMeetings(ctx context.Context, input domain.ListMeetingsInput) (domain.MeetingPage, error)
	ConcludeMeeting(ctx context.Context, input domain.ConcludeMeetingInput) (domain.Meeting, error)
	Navigate(ctx context.Context, input domain.NavigateInput) (domain.AgendaView, error)
	Next(ctx context.Context, input domain.StepInput) (domain.AgendaView, error)
	Previous(ctx context.Context, input domain.StepInput) (domain.AgendaView, error)
	UpdateNotes(ctx context.Context, input domain.UpdateNotesInput) (domain.Item, error)
}

// EventJournal lists audit journal events for an organization.
type EventJournal interface {
	ListEvents(ctx context.Context, credential, orgID string, pageSize int, pageToken, filter string) (storage.EventPage, error)
}

// Handler serves the meeting JSON API.
type Handler struct {
	service Service
	journal EventJournal
	log     zerolog.Logger
}

// NewHandler constructs the API handler.
func NewHandler(service Service, journal EventJournal, log zerolog.Logger) *Handler {
	return &Handler{service: service, journal: journal, log: log}
}

// Router builds the HTTP route table.
func (h *Handler) Router() *mux.Router {
	router := mux.NewRouter()
	router.Use(h.requestLogger)

	router.HandleFunc("/healthz", h.handleHealth).Methods(http.MethodGet)

	router.HandleFunc("/v1/orgs/{org_id}/meetings", h.handleCreateMeeting).Methods(http.MethodPost)
	router.HandleFunc("/v1/orgs/{org_id}/meetings", h.handleListMeetings).Methods(http.MethodGet)
	router.HandleFunc("/v1/orgs/{org_id}/events", h.handleListEvents).Methods(http.MethodGet)

	router.HandleFunc("/v1/meetings/{meeting_id}/agenda", h.handleAgenda).Methods(http.MethodGet)
	router.HandleFunc("/v1/meetings/{meeting_id}/navigate", h.handleNavigate).Methods(http.MethodPost)
	router.HandleFunc("/v1/meetings/{meeting_id}/next", h.handleNext).Methods(http.MethodPost)
	router.HandleFunc("/v1/meetings/{meeting_id}/previous", h.handlePrevious).Methods(http.MethodPost)
	router.HandleFunc("/v1/meetings/{meeting_id}/conclude", h.handleConclude).Methods(http.MethodPost)

	router.HandleFunc("/v1/agenda-items/{item_id}/notes", h.handleUpdateNotes).Methods(http.MethodPatch)

	return router
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type createMeetingRequest struct {
	Title        string          `json:"title"`
	ScheduledFor *time.Time      `json:"scheduled_for,omitempty"`
	Template     []templateEntry `json:"template,omitempty"`
}

type templateEntry struct {
	Section         string `json:"section"`
	DurationMinutes int    `json:"duration_minutes"`
}

func (h *Handler) handleCreateMeeting(w http.ResponseWriter, r *http.Request) {
	var req createMeetingRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	template := make([]domain.TemplateEntry, 0, len(req.Template))
	for _, entry := range req.Template {
		template = append(template, domain.TemplateEntry{
			Section:         domain.Section(entry.Section),
			DurationMinutes: entry.DurationMinutes,
		})
	}
	view, err := h.service.CreateMeeting(r.Context(), domain.CreateMeetingInput{
		Credential:   bearerCredential(r),
		OrgID:        mux.Vars(r)["org_id"],
		Title:        req.Title,
		ScheduledFor: req.ScheduledFor,
		Template:     template,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAgendaViewJSON(view))
}

func (h *Handler) handleListMeetings(w http.ResponseWriter, r *http.Request) {
	page, err := h.service.ListMeetings(r.Context(), domain.ListMeetingsInput{
		Credential: bearerCredential(r),
		OrgID:      mux.Vars(r)["org_id"],
		PageSize:   queryInt(r, "page_size"),
		PageToken:  r.URL.Query().Get("page_token"),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toMeetingPageJSON(page))
}

func (h *Handler) handleListEvents(w http.ResponseWriter, r *http.Request) {
	if h.journal == nil {
		h.writeError(w, r, apperrors.New(apperrors.CodeUnknown, "event journal is not configured"))
		return
	}
	page, err := h.journal.ListEvents(
		r.Context(),
		bearerCredential(r),
		mux.Vars(r)["org_id"],
		queryInt(r, "page_size"),
		r.URL.Query().Get("page_token"),
		r.URL.Query().Get("filter"),
	)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEventPageJSON(page))
}

func (h *Handler) handleAgenda(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Agenda(r.Context(), bearerCredential(r), mux.Vars(r)["meeting_id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAgendaViewJSON(view))
}

type navigateRequest struct {
	TargetItemID string `json:"target_item_id"`
}

func (h *Handler) handleNavigate(w http.ResponseWriter, r *http.Request) {
	var req navigateRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	view, err := h.service.Navigate(r.Context(), domain.NavigateInput{
		Credential:   bearerCredential(r),
		MeetingID:    mux.Vars(r)["meeting_id"],
		TargetItemID: req.TargetItemID,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAgendaViewJSON(view))
}

func (h *Handler) handleNext(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Next(r.Context(), domain.StepInput{
		Credential: bearerCredential(r),
		MeetingID:  mux.Vars(r)["meeting_id"],
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAgendaViewJSON(view))
}

func (h *Handler) handlePrevious(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Previous(r.Context(), domain.StepInput{
		Credential: bearerCredential(r),
		MeetingID:  mux.Vars(r)["meeting_id"],
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAgendaViewJSON(view))
}

type concludeRequest struct {
	Force bool `json:"force,omitempty"`
}

func (h *Handler) handleConclude(w http.ResponseWriter, r *http.Request) {
	var req concludeRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	meeting, err := h.service.ConcludeMeeting(r.Context(), domain.ConcludeMeetingInput{
		Credential: bearerCredential(r),
		MeetingID:  mux.Vars(r)["meeting_id"],
		Force:      req.Force,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toMeetingJSON(meeting))
}

type updateNotesRequest struct {
	Notes string `json:"notes"`
}

func (h *Handler) handleUpdateNotes(w http.ResponseWriter, r *http.Request) {
	var req updateNotesRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	item, err := h.service.UpdateNotes(r.Context(), domain.UpdateNotesInput{
		Credential: bearerCredential(r),
		ItemID:     mux.Vars(r)["item_id"],
		Notes:      req.Notes,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toItemJSON(item))
}

// decodeBody reads a JSON request body into target. An empty body leaves
// target zero-valued so commands without parameters can post nothing.
func (h *Handler) decodeBody(w http.ResponseWriter, r *http.Request, target any) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes))
	decoder.DisallowUnknownFields()
	err := decoder.Decode(target)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	h.writeError(w, r, apperrors.Wrap(apperrors.CodeAPIInvalidRequest, "invalid request body", err))
	return false
}

func bearerCredential(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return ""
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, prefix))
}

func queryInt(r *http.Request, name string) int {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return value
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// requestLogger records one structured line per request.
func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		h.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
