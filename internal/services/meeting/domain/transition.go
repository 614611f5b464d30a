package domain

// TransitionKind identifies one agenda item timing mutation. Each kind
// asserts the item's current phase when applied, so a stale plan fails
// instead of clobbering a concurrent writer.
type TransitionKind string

const (
	// TransitionStart activates a pending item by setting its start time.
	TransitionStart TransitionKind = "start"
	// TransitionComplete finishes the active item by setting its completion
	// time.
	TransitionComplete TransitionKind = "complete"
	// TransitionReopen re-enters a completed item by setting a new start
	// time while keeping the earlier completion marker.
	TransitionReopen TransitionKind = "reopen"
	// TransitionReset returns the active item to pending by clearing both
	// timestamps.
	TransitionReset TransitionKind = "reset"
	// TransitionReactivate returns a completed item to active by clearing
	// its completion time while preserving the original start time.
	TransitionReactivate TransitionKind = "reactivate"
)

// IsValid reports whether the kind is a known transition.
func (k TransitionKind) IsValid() bool {
	switch k {
	case TransitionStart, TransitionComplete, TransitionReopen,
		TransitionReset, TransitionReactivate:
		return true
	}
	return false
}

// Transition pairs an agenda item with the timing mutation to apply.
type Transition struct {
	ItemID string
	Kind   TransitionKind
}

// Applied describes one committed transition together with the item snapshot
// after the mutation.
type Applied struct {
	Kind TransitionKind
	Item Item
}
