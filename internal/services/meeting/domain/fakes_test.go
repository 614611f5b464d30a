package domain

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// fakeStore is an in-memory Store with the same transition phase assertions
// the SQLite store enforces.
type fakeStore struct {
	mu       sync.Mutex
	meetings map[string]Meeting
	items    map[string]Item

	applyErr  error
	listErr   error
	statusErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		meetings: make(map[string]Meeting),
		items:    make(map[string]Item),
	}
}

func (s *fakeStore) PutMeetingWithAgenda(ctx context.Context, meeting Meeting, items []Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meetings[meeting.ID] = meeting
	for _, item := range items {
		s.items[item.ID] = item
	}
	return nil
}

func (s *fakeStore) GetMeeting(ctx context.Context, meetingID string) (Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	meeting, ok := s.meetings[meetingID]
	if !ok {
		return Meeting{}, ErrNotFound
	}
	return meeting, nil
}

func (s *fakeStore) ListMeetingsByOrg(ctx context.Context, orgID string, pageSize int, pageToken string) (MeetingPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var meetings []Meeting
	for _, meeting := range s.meetings {
		if meeting.OrgID == orgID {
			meetings = append(meetings, meeting)
		}
	}
	sort.Slice(meetings, func(i, j int) bool { return meetings[i].ID < meetings[j].ID })
	return MeetingPage{Meetings: meetings}, nil
}

func (s *fakeStore) UpdateMeetingStatus(ctx context.Context, meetingID string, from, to Status, at time.Time) (Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.statusErr != nil {
		return Meeting{}, s.statusErr
	}
	meeting, ok := s.meetings[meetingID]
	if !ok {
		return Meeting{}, ErrNotFound
	}
	if meeting.Status != from {
		return Meeting{}, ErrConflict
	}
	meeting.Status = to
	meeting.UpdatedAt = at
	s.meetings[meetingID] = meeting
	return meeting, nil
}

func (s *fakeStore) ListAgendaItems(ctx context.Context, meetingID string) ([]Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	var items []Item
	for _, item := range s.items {
		if item.MeetingID == meetingID {
			items = append(items, item)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].SortOrder < items[j].SortOrder })
	return items, nil
}

func (s *fakeStore) GetAgendaItem(ctx context.Context, itemID string) (Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[itemID]
	if !ok {
		return Item{}, ErrNotFound
	}
	return item, nil
}

func (s *fakeStore) ApplyAgendaTransitions(ctx context.Context, meetingID string, at time.Time, transitions []Transition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.applyErr != nil {
		return s.applyErr
	}
	updated := make(map[string]Item, len(transitions))
	for _, transition := range transitions {
		item, ok := s.items[transition.ItemID]
		if !ok || item.MeetingID != meetingID {
			return ErrNotFound
		}
		ts := at
		switch transition.Kind {
		case TransitionStart:
			if item.Phase() != PhasePending {
				return ErrConflict
			}
			item.StartedAt = &ts
		case TransitionComplete:
			if item.Phase() != PhaseActive {
				return ErrConflict
			}
			item.CompletedAt = &ts
		case TransitionReopen:
			if item.Phase() != PhaseComplete {
				return ErrConflict
			}
			item.StartedAt = &ts
		case TransitionReset:
			if item.Phase() != PhaseActive {
				return ErrConflict
			}
			item.StartedAt = nil
			item.CompletedAt = nil
		case TransitionReactivate:
			if item.Phase() != PhaseComplete {
				return ErrConflict
			}
			item.CompletedAt = nil
		default:
			return fmt.Errorf("unknown transition kind %q", transition.Kind)
		}
		item.UpdatedAt = at
		updated[item.ID] = item
	}
	for id, item := range updated {
		s.items[id] = item
	}
	return nil
}

func (s *fakeStore) UpdateAgendaNotes(ctx context.Context, itemID string, notes string, at time.Time) (Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[itemID]
	if !ok {
		return Item{}, ErrNotFound
	}
	item.Notes = notes
	item.UpdatedAt = at
	s.items[itemID] = item
	return item, nil
}

// fakeAuthorizer returns a fixed actor, or its configured error.
type fakeAuthorizer struct {
	actor Actor
	err   error

	orgIDs []string
}

func (a *fakeAuthorizer) Authorize(ctx context.Context, credential, orgID string) (Actor, error) {
	a.orgIDs = append(a.orgIDs, orgID)
	if a.err != nil {
		return Actor{}, a.err
	}
	return a.actor, nil
}

// recordingEvents records facade event callbacks, failing with err when set.
type recordingEvents struct {
	err   error
	calls []string
}

func (r *recordingEvents) MeetingCreated(ctx context.Context, actor Actor, meeting Meeting, items []Item) error {
	r.calls = append(r.calls, fmt.Sprintf("created:%s:%d", meeting.ID, len(items)))
	return r.err
}

func (r *recordingEvents) MeetingConcluded(ctx context.Context, actor Actor, meeting Meeting, forced bool) error {
	r.calls = append(r.calls, fmt.Sprintf("concluded:%s:%t", meeting.ID, forced))
	return r.err
}

func (r *recordingEvents) AgendaTransitions(ctx context.Context, actor Actor, meeting Meeting, applied []Applied) error {
	kinds := make([]string, 0, len(applied))
	for _, a := range applied {
		kinds = append(kinds, string(a.Kind))
	}
	r.calls = append(r.calls, "transitions:"+strings.Join(kinds, ","))
	return r.err
}

func (r *recordingEvents) AgendaNotesUpdated(ctx context.Context, actor Actor, meeting Meeting, item Item) error {
	r.calls = append(r.calls, "notes:"+item.ID)
	return r.err
}

// sequenceIDs returns an id generator yielding the given ids in order.
func sequenceIDs(ids ...string) func() (string, error) {
	i := 0
	return func() (string, error) {
		if i >= len(ids) {
			return "", ErrIDGeneratorExhausted
		}
		id := ids[i]
		i++
		return id, nil
	}
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func timePtr(t time.Time) *time.Time { return &t }
