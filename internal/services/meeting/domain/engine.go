package domain

import (
	"context"
	"strings"
	"time"
)

// Engine computes agenda timing transitions for navigation commands. It
// plans against the ordered agenda and hands the store an atomic transition
// list; it never retries, so transient store failures surface to the caller.
type Engine struct {
	store Store
	clock func() time.Time
}

// NewEngine constructs the agenda progression engine.
func NewEngine(store Store, clock func() time.Time) *Engine {
	if clock == nil {
		clock = time.Now
	}
	return &Engine{store: store, clock: clock}
}

// Navigate activates the target item, completing the currently active item
// when it differs from the target. Navigating to the already-active item is
// a no-op. Navigating into a completed item is the reopen transition: the
// item gets a fresh start time and keeps its completion marker.
func (e *Engine) Navigate(ctx context.Context, meetingID, targetItemID string) ([]Applied, error) {
	if e == nil || e.store == nil {
		return nil, ErrStoreNotConfigured
	}
	meetingID = strings.TrimSpace(meetingID)
	if meetingID == "" {
		return nil, ErrMeetingIDRequired
	}
	targetItemID = strings.TrimSpace(targetItemID)
	if targetItemID == "" {
		return nil, ErrItemIDRequired
	}

	agenda, err := e.loadAgenda(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	target, ok := agenda.ByID(targetItemID)
	if !ok {
		return nil, ErrTargetNotFound
	}

	active, hasActive := agenda.Active()
	if hasActive && active.ID == target.ID {
		return nil, nil
	}

	now := e.nowUTC()
	var plan []Applied
	if hasActive {
		plan = append(plan, apply(active, TransitionComplete, now))
	}
	switch target.Phase() {
	case PhaseComplete:
		plan = append(plan, apply(target, TransitionReopen, now))
	default:
		plan = append(plan, apply(target, TransitionStart, now))
	}

	if err := e.commit(ctx, meetingID, now, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// Next completes the active item and starts the item with the next-greater
// sort order. When the active item is last, the agenda is left with no
// active item: the terminal signal that it is exhausted.
func (e *Engine) Next(ctx context.Context, meetingID string) ([]Applied, error) {
	if e == nil || e.store == nil {
		return nil, ErrStoreNotConfigured
	}
	meetingID = strings.TrimSpace(meetingID)
	if meetingID == "" {
		return nil, ErrMeetingIDRequired
	}

	agenda, err := e.loadAgenda(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	active, ok := agenda.Active()
	if !ok {
		return nil, ErrNoActiveItem
	}

	now := e.nowUTC()
	plan := []Applied{apply(active, TransitionComplete, now)}
	if next, ok := agenda.After(active.SortOrder); ok {
		if next.Phase() == PhaseComplete {
			plan = append(plan, apply(next, TransitionReopen, now))
		} else {
			plan = append(plan, apply(next, TransitionStart, now))
		}
	}

	if err := e.commit(ctx, meetingID, now, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// Previous resets the active item to pending, clearing both timestamps, and
// reactivates the item with the next-lesser sort order by clearing only its
// completion time so the original start time survives. Navigating back past
// the first item leaves the meeting with no active item; a never-started
// lesser neighbor stays pending.
func (e *Engine) Previous(ctx context.Context, meetingID string) ([]Applied, error) {
	if e == nil || e.store == nil {
		return nil, ErrStoreNotConfigured
	}
	meetingID = strings.TrimSpace(meetingID)
	if meetingID == "" {
		return nil, ErrMeetingIDRequired
	}

	agenda, err := e.loadAgenda(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	active, ok := agenda.Active()
	if !ok {
		return nil, ErrNoActiveItem
	}

	now := e.nowUTC()
	plan := []Applied{apply(active, TransitionReset, now)}
	if prev, ok := agenda.Before(active.SortOrder); ok && prev.Phase() == PhaseComplete {
		plan = append(plan, apply(prev, TransitionReactivate, now))
	}

	if err := e.commit(ctx, meetingID, now, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// UpdateNotes sets the item's notes without touching its timing fields.
func (e *Engine) UpdateNotes(ctx context.Context, itemID, notes string) (Item, error) {
	if e == nil || e.store == nil {
		return Item{}, ErrStoreNotConfigured
	}
	itemID = strings.TrimSpace(itemID)
	if itemID == "" {
		return Item{}, ErrItemIDRequired
	}
	return e.store.UpdateAgendaNotes(ctx, itemID, notes, e.nowUTC())
}

func (e *Engine) loadAgenda(ctx context.Context, meetingID string) (Agenda, error) {
	items, err := e.store.ListAgendaItems(ctx, meetingID)
	if err != nil {
		return Agenda{}, err
	}
	return NewAgenda(items)
}

func (e *Engine) commit(ctx context.Context, meetingID string, at time.Time, plan []Applied) error {
	transitions := make([]Transition, 0, len(plan))
	for _, p := range plan {
		transitions = append(transitions, Transition{ItemID: p.Item.ID, Kind: p.Kind})
	}
	return e.store.ApplyAgendaTransitions(ctx, meetingID, at, transitions)
}

func (e *Engine) nowUTC() time.Time {
	if e.clock == nil {
		return time.Now().UTC()
	}
	return e.clock().UTC()
}

// apply returns the snapshot of item after the transition at the given time.
func apply(item Item, kind TransitionKind, at time.Time) Applied {
	switch kind {
	case TransitionStart, TransitionReopen:
		item.StartedAt = &at
	case TransitionComplete:
		item.CompletedAt = &at
	case TransitionReset:
		item.StartedAt = nil
		item.CompletedAt = nil
	case TransitionReactivate:
		item.CompletedAt = nil
	}
	item.UpdatedAt = at
	return Applied{Kind: kind, Item: item}
}
