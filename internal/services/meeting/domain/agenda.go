package domain

import "sort"

// Agenda is the validated, position-indexed ordered list of a meeting's
// items. Adjacency and active lookups operate on this value instead of
// ad-hoc sort-order queries.
type Agenda struct {
	items []Item
}

// NewAgenda builds an ordered agenda from stored items. It sorts by sort
// order, rejects duplicate sort orders, and rejects agendas with more than
// one active item.
func NewAgenda(items []Item) (Agenda, error) {
	ordered := make([]Item, len(items))
	copy(ordered, items)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].SortOrder < ordered[j].SortOrder
	})

	activeCount := 0
	for i, item := range ordered {
		if i > 0 && ordered[i-1].SortOrder == item.SortOrder {
			return Agenda{}, ErrDuplicateSortOrder
		}
		if item.Phase() == PhaseActive {
			activeCount++
		}
	}
	if activeCount > 1 {
		return Agenda{}, ErrMultipleActiveItems
	}
	return Agenda{items: ordered}, nil
}

// Items returns the agenda items in sort order.
func (a Agenda) Items() []Item {
	out := make([]Item, len(a.items))
	copy(out, a.items)
	return out
}

// Len returns the number of agenda items.
func (a Agenda) Len() int {
	return len(a.items)
}

// Active returns the currently active item, or false when none is active.
func (a Agenda) Active() (Item, bool) {
	for _, item := range a.items {
		if item.Phase() == PhaseActive {
			return item, true
		}
	}
	return Item{}, false
}

// ByID returns the item with the given id, or false when it is not part of
// the agenda.
func (a Agenda) ByID(itemID string) (Item, bool) {
	for _, item := range a.items {
		if item.ID == itemID {
			return item, true
		}
	}
	return Item{}, false
}

// After returns the item with the next-greater sort order, or false when the
// reference is last.
func (a Agenda) After(sortOrder int) (Item, bool) {
	for _, item := range a.items {
		if item.SortOrder > sortOrder {
			return item, true
		}
	}
	return Item{}, false
}

// Before returns the item with the next-lesser sort order, or false when the
// reference is first.
func (a Agenda) Before(sortOrder int) (Item, bool) {
	for i := len(a.items) - 1; i >= 0; i-- {
		if a.items[i].SortOrder < sortOrder {
			return a.items[i], true
		}
	}
	return Item{}, false
}

// Exhausted reports whether the agenda reached its terminal state: no item
// is active and the last item is complete. An empty agenda counts as
// exhausted.
func (a Agenda) Exhausted() bool {
	if len(a.items) == 0 {
		return true
	}
	if _, ok := a.Active(); ok {
		return false
	}
	return a.items[len(a.items)-1].Phase() == PhaseComplete
}
