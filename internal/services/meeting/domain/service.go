package domain

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/louisbranch/cadence.team/internal/platform/id"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200

	// sortOrderStep leaves gaps between template slots so custom agendas can
	// interleave items later without renumbering.
	sortOrderStep = 10
)

// Events receives committed meeting changes for audit and dispatch. A
// returned error means the durable audit record could not be written; the
// facade escalates it to the caller. Best-effort side effects never surface
// here.
type Events interface {
	MeetingCreated(ctx context.Context, actor Actor, meeting Meeting, items []Item) error
	MeetingConcluded(ctx context.Context, actor Actor, meeting Meeting, forced bool) error
	AgendaTransitions(ctx context.Context, actor Actor, meeting Meeting, applied []Applied) error
	AgendaNotesUpdated(ctx context.Context, actor Actor, meeting Meeting, item Item) error
}

// Service is the meeting session facade: the single entry point that
// authorizes the caller for the meeting's organization, dispatches to the
// progression engine, records events for each committed change, and returns
// the re-fetched ordered agenda so callers always observe a full snapshot.
type Service struct {
	store  Store
	authz  Authorizer
	events Events
	engine *Engine
	clock  func() time.Time
	newID  func() (string, error)
}

// NewService constructs the meeting facade.
func NewService(store Store, authz Authorizer, events Events, clock func() time.Time, newID func() (string, error)) *Service {
	if clock == nil {
		clock = time.Now
	}
	if newID == nil {
		newID = id.NewID
	}
	return &Service{
		store:  store,
		authz:  authz,
		events: events,
		engine: NewEngine(store, clock),
		clock:  clock,
		newID:  newID,
	}
}

// AgendaView is the consistent post-command snapshot every facade command
// returns.
type AgendaView struct {
	Meeting Meeting
	Items   []Item
	Applied []Applied
}

// CreateMeetingInput describes one meeting creation request.
type CreateMeetingInput struct {
	Credential   string
	OrgID        string
	Title        string
	ScheduledFor *time.Time
	Template     []TemplateEntry
}

// ListMeetingsInput configures an organization meeting listing.
type ListMeetingsInput struct {
	Credential string
	OrgID      string
	PageSize   int
	PageToken  string
}

// ConcludeMeetingInput identifies one meeting to conclude. Force allows
// concluding while agenda items remain open.
type ConcludeMeetingInput struct {
	Credential string
	MeetingID  string
	Force      bool
}

// NavigateInput identifies one direct navigation target.
type NavigateInput struct {
	Credential   string
	MeetingID    string
	TargetItemID string
}

// StepInput identifies one meeting for a relative navigation command.
type StepInput struct {
	Credential string
	MeetingID  string
}

// UpdateNotesInput carries a notes replacement for one agenda item.
type UpdateNotesInput struct {
	Credential string
	ItemID     string
	Notes      string
}

// CreateMeeting stores a meeting with its ordered agenda built from the
// template, or from the default Level 10 template when none is given.
func (s *Service) CreateMeeting(ctx context.Context, input CreateMeetingInput) (AgendaView, error) {
	if err := s.configured(); err != nil {
		return AgendaView{}, err
	}
	orgID := strings.TrimSpace(input.OrgID)
	if orgID == "" {
		return AgendaView{}, ErrOrgIDRequired
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return AgendaView{}, ErrTitleRequired
	}
	actor, err := s.authorizeMutation(ctx, input.Credential, orgID)
	if err != nil {
		return AgendaView{}, err
	}

	template := input.Template
	if len(template) == 0 {
		template = DefaultTemplate()
	}

	meetingID, err := s.newID()
	if err != nil {
		return AgendaView{}, err
	}
	now := s.nowUTC()
	meeting := Meeting{
		ID:        meetingID,
		OrgID:     orgID,
		Title:     title,
		Status:    StatusScheduled,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if input.ScheduledFor != nil {
		scheduledFor := input.ScheduledFor.UTC()
		meeting.ScheduledFor = &scheduledFor
	}

	items := make([]Item, 0, len(template))
	for i, entry := range template {
		if !entry.Section.IsValid() {
			return AgendaView{}, ErrInvalidSection
		}
		if entry.DurationMinutes <= 0 {
			return AgendaView{}, ErrInvalidDuration
		}
		itemID, err := s.newID()
		if err != nil {
			return AgendaView{}, err
		}
		items = append(items, Item{
			ID:              itemID,
			MeetingID:       meetingID,
			Section:         entry.Section,
			SortOrder:       (i + 1) * sortOrderStep,
			DurationMinutes: entry.DurationMinutes,
			CreatedAt:       now,
			UpdatedAt:       now,
		})
	}

	if err := s.store.PutMeetingWithAgenda(ctx, meeting, items); err != nil {
		return AgendaView{}, err
	}
	if s.events != nil {
		if err := s.events.MeetingCreated(ctx, actor, meeting, items); err != nil {
			return AgendaView{}, err
		}
	}
	return AgendaView{Meeting: meeting, Items: items}, nil
}

// Agenda returns the meeting with its full ordered agenda.
func (s *Service) Agenda(ctx context.Context, credential, meetingID string) (AgendaView, error) {
	if err := s.configured(); err != nil {
		return AgendaView{}, err
	}
	meeting, _, err := s.authorizedMeeting(ctx, credential, meetingID)
	if err != nil {
		return AgendaView{}, err
	}
	return s.snapshot(ctx, meeting, nil)
}

// ListMeetings lists an organization's meetings newest first.
func (s *Service) ListMeetings(ctx context.Context, input ListMeetingsInput) (MeetingPage, error) {
	if err := s.configured(); err != nil {
		return MeetingPage{}, err
	}
	orgID := strings.TrimSpace(input.OrgID)
	if orgID == "" {
		return MeetingPage{}, ErrOrgIDRequired
	}
	if _, err := s.authz.Authorize(ctx, input.Credential, orgID); err != nil {
		return MeetingPage{}, err
	}
	pageSize := input.PageSize
	switch {
	case pageSize <= 0:
		pageSize = defaultPageSize
	case pageSize > maxPageSize:
		pageSize = maxPageSize
	}
	return s.store.ListMeetingsByOrg(ctx, orgID, pageSize, strings.TrimSpace(input.PageToken))
}

// ConcludeMeeting closes the meeting. Unless forced, every agenda item must
// already be complete.
func (s *Service) ConcludeMeeting(ctx context.Context, input ConcludeMeetingInput) (Meeting, error) {
	if err := s.configured(); err != nil {
		return Meeting{}, err
	}
	meeting, actor, err := s.authorizedMutation(ctx, input.Credential, input.MeetingID)
	if err != nil {
		return Meeting{}, err
	}
	if !meeting.Status.CanTransitionTo(StatusConcluded) {
		return Meeting{}, ErrInvalidStatusTransition
	}
	if !input.Force {
		items, err := s.store.ListAgendaItems(ctx, meeting.ID)
		if err != nil {
			return Meeting{}, err
		}
		agenda, err := NewAgenda(items)
		if err != nil {
			return Meeting{}, err
		}
		if !agenda.Exhausted() {
			return Meeting{}, ErrAgendaNotExhausted
		}
	}
	concluded, err := s.store.UpdateMeetingStatus(ctx, meeting.ID, meeting.Status, StatusConcluded, s.nowUTC())
	if err != nil {
		return Meeting{}, err
	}
	if s.events != nil {
		if err := s.events.MeetingConcluded(ctx, actor, concluded, input.Force); err != nil {
			return Meeting{}, err
		}
	}
	return concluded, nil
}

// Navigate activates the target agenda item.
func (s *Service) Navigate(ctx context.Context, input NavigateInput) (AgendaView, error) {
	if err := s.configured(); err != nil {
		return AgendaView{}, err
	}
	meeting, actor, err := s.authorizedMutation(ctx, input.Credential, input.MeetingID)
	if err != nil {
		return AgendaView{}, err
	}
	if err := allowsNavigation(meeting); err != nil {
		return AgendaView{}, err
	}
	applied, err := s.engine.Navigate(ctx, meeting.ID, input.TargetItemID)
	if err != nil {
		return AgendaView{}, err
	}
	return s.afterTransitions(ctx, actor, meeting, applied)
}

// Next completes the active item and advances to the next one.
func (s *Service) Next(ctx context.Context, input StepInput) (AgendaView, error) {
	if err := s.configured(); err != nil {
		return AgendaView{}, err
	}
	meeting, actor, err := s.authorizedMutation(ctx, input.Credential, input.MeetingID)
	if err != nil {
		return AgendaView{}, err
	}
	if err := allowsNavigation(meeting); err != nil {
		return AgendaView{}, err
	}
	applied, err := s.engine.Next(ctx, meeting.ID)
	if err != nil {
		return AgendaView{}, err
	}
	return s.afterTransitions(ctx, actor, meeting, applied)
}

// Previous steps back to the prior agenda item.
func (s *Service) Previous(ctx context.Context, input StepInput) (AgendaView, error) {
	if err := s.configured(); err != nil {
		return AgendaView{}, err
	}
	meeting, actor, err := s.authorizedMutation(ctx, input.Credential, input.MeetingID)
	if err != nil {
		return AgendaView{}, err
	}
	if err := allowsNavigation(meeting); err != nil {
		return AgendaView{}, err
	}
	applied, err := s.engine.Previous(ctx, meeting.ID)
	if err != nil {
		return AgendaView{}, err
	}
	return s.afterTransitions(ctx, actor, meeting, applied)
}

// UpdateNotes replaces the item's notes. Timing fields are never touched, so
// notes stay editable after the meeting concludes.
func (s *Service) UpdateNotes(ctx context.Context, input UpdateNotesInput) (Item, error) {
	if err := s.configured(); err != nil {
		return Item{}, err
	}
	itemID := strings.TrimSpace(input.ItemID)
	if itemID == "" {
		return Item{}, ErrItemIDRequired
	}
	current, err := s.store.GetAgendaItem(ctx, itemID)
	if err != nil {
		return Item{}, err
	}
	meeting, err := s.store.GetMeeting(ctx, current.MeetingID)
	if err != nil {
		return Item{}, err
	}
	actor, err := s.authorizeMutation(ctx, input.Credential, meeting.OrgID)
	if err != nil {
		return Item{}, err
	}
	item, err := s.engine.UpdateNotes(ctx, itemID, input.Notes)
	if err != nil {
		return Item{}, err
	}
	if s.events != nil {
		if err := s.events.AgendaNotesUpdated(ctx, actor, meeting, item); err != nil {
			return Item{}, err
		}
	}
	return item, nil
}

func (s *Service) configured() error {
	if s == nil || s.store == nil {
		return ErrStoreNotConfigured
	}
	if s.authz == nil {
		return ErrAuthorizerNotConfigured
	}
	if s.newID == nil {
		return ErrIDGeneratorNotConfigured
	}
	return nil
}

func (s *Service) authorizeMutation(ctx context.Context, credential, orgID string) (Actor, error) {
	actor, err := s.authz.Authorize(ctx, credential, orgID)
	if err != nil {
		return Actor{}, err
	}
	if !actor.Role.CanMutate() {
		return Actor{}, ErrUnauthorized
	}
	return actor, nil
}

func (s *Service) authorizedMeeting(ctx context.Context, credential, meetingID string) (Meeting, Actor, error) {
	meetingID = strings.TrimSpace(meetingID)
	if meetingID == "" {
		return Meeting{}, Actor{}, ErrMeetingIDRequired
	}
	meeting, err := s.store.GetMeeting(ctx, meetingID)
	if err != nil {
		return Meeting{}, Actor{}, err
	}
	actor, err := s.authz.Authorize(ctx, credential, meeting.OrgID)
	if err != nil {
		return Meeting{}, Actor{}, err
	}
	return meeting, actor, nil
}

func (s *Service) authorizedMutation(ctx context.Context, credential, meetingID string) (Meeting, Actor, error) {
	meeting, actor, err := s.authorizedMeeting(ctx, credential, meetingID)
	if err != nil {
		return Meeting{}, Actor{}, err
	}
	if !actor.Role.CanMutate() {
		return Meeting{}, Actor{}, ErrUnauthorized
	}
	return meeting, actor, nil
}

// afterTransitions records committed transitions, promotes a scheduled
// meeting to in progress on its first committed transition, and re-fetches
// the agenda snapshot.
func (s *Service) afterTransitions(ctx context.Context, actor Actor, meeting Meeting, applied []Applied) (AgendaView, error) {
	if len(applied) > 0 && meeting.Status == StatusScheduled {
		started, err := s.store.UpdateMeetingStatus(ctx, meeting.ID, StatusScheduled, StatusInProgress, s.nowUTC())
		switch {
		case err == nil:
			meeting = started
		case errors.Is(err, ErrConflict):
			refreshed, refreshErr := s.store.GetMeeting(ctx, meeting.ID)
			if refreshErr != nil {
				return AgendaView{}, refreshErr
			}
			meeting = refreshed
		default:
			return AgendaView{}, err
		}
	}
	if len(applied) > 0 && s.events != nil {
		if err := s.events.AgendaTransitions(ctx, actor, meeting, applied); err != nil {
			return AgendaView{}, err
		}
	}
	return s.snapshot(ctx, meeting, applied)
}

func (s *Service) snapshot(ctx context.Context, meeting Meeting, applied []Applied) (AgendaView, error) {
	items, err := s.store.ListAgendaItems(ctx, meeting.ID)
	if err != nil {
		return AgendaView{}, err
	}
	agenda, err := NewAgenda(items)
	if err != nil {
		return AgendaView{}, err
	}
	return AgendaView{Meeting: meeting, Items: agenda.Items(), Applied: applied}, nil
}

// allowsNavigation rejects agenda commands against a concluded meeting.
func allowsNavigation(meeting Meeting) error {
	if meeting.Status == StatusConcluded {
		return ErrInvalidStatusTransition
	}
	return nil
}

func (s *Service) nowUTC() time.Time {
	if s.clock == nil {
		return time.Now().UTC()
	}
	return s.clock().UTC()
}
