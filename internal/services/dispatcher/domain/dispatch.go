// Package domain holds the dispatcher's delivery contract and retry
// policy: which sinks an outbox dispatch goes to and what happens when a
// delivery attempt fails.
package domain

import (
	"context"
	"time"
)

// Dispatch is one outbox row handed to the sinks.
type Dispatch struct {
	ID           string
	EventID      string
	OrgID        string
	MeetingID    string
	EventType    string
	PayloadJSON  string
	AttemptCount int
}

// Sink delivers dispatches to one external destination. Deliver returns nil
// only when the destination accepted the event.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, dispatch Dispatch) error
}

// RetryPolicy decides when a failed dispatch dies and how long it waits
// between attempts.
type RetryPolicy struct {
	MaxAttempts int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
}

const (
	// DefaultMaxAttempts bounds delivery attempts before dead-lettering.
	DefaultMaxAttempts = 8
	// DefaultBaseBackoff is the first retry delay.
	DefaultBaseBackoff = 5 * time.Second
	// DefaultMaxBackoff caps the exponential retry delay.
	DefaultMaxBackoff = 5 * time.Minute
)

// Normalized returns the policy with zero fields replaced by defaults.
func (p RetryPolicy) Normalized() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultMaxAttempts
	}
	if p.BaseBackoff <= 0 {
		p.BaseBackoff = DefaultBaseBackoff
	}
	if p.MaxBackoff <= 0 {
		p.MaxBackoff = DefaultMaxBackoff
	}
	if p.MaxBackoff < p.BaseBackoff {
		p.MaxBackoff = p.BaseBackoff
	}
	return p
}

// Exhausted reports whether a dispatch that already failed attemptCount
// times has no attempts left.
func (p RetryPolicy) Exhausted(attemptCount int) bool {
	return attemptCount+1 >= p.Normalized().MaxAttempts
}

// Backoff returns the delay before the next attempt, doubling per failed
// attempt and capped at MaxBackoff.
func (p RetryPolicy) Backoff(attemptCount int) time.Duration {
	policy := p.Normalized()
	if attemptCount < 0 {
		attemptCount = 0
	}
	delay := policy.BaseBackoff
	for i := 0; i < attemptCount; i++ {
		delay *= 2
		if delay >= policy.MaxBackoff {
			return policy.MaxBackoff
		}
	}
	if delay > policy.MaxBackoff {
		return policy.MaxBackoff
	}
	return delay
}
