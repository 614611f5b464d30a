// Package app runs the dispatcher: it leases due dispatches from the
// meeting outbox, delivers them to every configured sink, and acks each
// one as succeeded, retried, or dead.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/louisbranch/cadence.team/internal/services/dispatcher/domain"
	"github.com/louisbranch/cadence.team/internal/services/meeting/storage"
)

const (
	defaultConsumer     = "dispatcher"
	defaultPollInterval = 2 * time.Second
	defaultLeaseTTL     = 30 * time.Second
	defaultBatchSize    = 25
)

// Config controls the dispatcher loop behavior.
type Config struct {
	Consumer     string
	PollInterval time.Duration
	LeaseTTL     time.Duration
	BatchSize    int
	Retry        domain.RetryPolicy
}

func (c Config) normalized() Config {
	if strings.TrimSpace(c.Consumer) == "" {
		c.Consumer = defaultConsumer
	}
	if c.PollInterval <= 0 {
		c.PollInterval = defaultPollInterval
	}
	if c.LeaseTTL <= 0 {
		c.LeaseTTL = defaultLeaseTTL
	}
	if c.BatchSize <= 0 {
		c.BatchSize = defaultBatchSize
	}
	c.Retry = c.Retry.Normalized()
	return c
}

// Loop polls the outbox and drives dispatch delivery.
type Loop struct {
	outbox storage.OutboxStore
	sinks  []domain.Sink
	cfg    Config
	log    zerolog.Logger
	now    func() time.Time
}

// New constructs a dispatcher loop. A nil now falls back to time.Now.
func New(outbox storage.OutboxStore, sinks []domain.Sink, cfg Config, log zerolog.Logger, now func() time.Time) *Loop {
	if now == nil {
		now = time.Now
	}
	return &Loop{
		outbox: outbox,
		sinks:  sinks,
		cfg:    cfg.normalized(),
		log:    log,
		now:    now,
	}
}

// Run processes batches until the context is cancelled. Batch failures are
// logged and do not stop the loop; only context cancellation ends it.
func (l *Loop) Run(ctx context.Context) error {
	if l == nil || l.outbox == nil {
		return fmt.Errorf("dispatcher loop is not configured")
	}
	if len(l.sinks) == 0 {
		return fmt.Errorf("dispatcher requires at least one sink")
	}

	ticker := time.NewTicker(l.cfg.PollInterval)
	defer ticker.Stop()

	for {
		if err := l.ProcessBatch(ctx); err != nil && !errors.Is(err, context.Canceled) {
			l.log.Error().Err(err).Msg("process dispatch batch")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// ProcessBatch leases one batch of due dispatches and delivers each in
// order. Exposed so tests and the redrive tool can drain without the poll
// loop.
func (l *Loop) ProcessBatch(ctx context.Context) error {
	leased, err := l.outbox.LeaseDispatches(ctx, l.cfg.Consumer, l.cfg.BatchSize, l.now().UTC(), l.cfg.LeaseTTL)
	if err != nil {
		return fmt.Errorf("lease dispatches: %w", err)
	}
	for _, record := range leased {
		if err := ctx.Err(); err != nil {
			return err
		}
		l.processDispatch(ctx, record)
	}
	return nil
}

func (l *Loop) processDispatch(ctx context.Context, record storage.DispatchRecord) {
	dispatch := domain.Dispatch{
		ID:           record.ID,
		EventID:      record.EventID,
		OrgID:        record.OrgID,
		MeetingID:    record.MeetingID,
		EventType:    record.EventType,
		PayloadJSON:  record.PayloadJSON,
		AttemptCount: record.AttemptCount,
	}

	deliverErr := l.deliver(ctx, dispatch)
	now := l.now().UTC()
	if deliverErr == nil {
		if err := l.outbox.MarkDispatchSucceeded(ctx, record.ID, l.cfg.Consumer, now); err != nil {
			l.log.Error().Err(err).Str("dispatch_id", record.ID).Msg("ack dispatch succeeded")
		}
		return
	}

	if l.cfg.Retry.Exhausted(record.AttemptCount) {
		l.log.Error().
			Err(deliverErr).
			Str("dispatch_id", record.ID).
			Str("event_type", record.EventType).
			Int("attempt_count", record.AttemptCount+1).
			Msg("dispatch dead after exhausting attempts")
		if err := l.outbox.MarkDispatchDead(ctx, record.ID, l.cfg.Consumer, deliverErr.Error(), now); err != nil {
			l.log.Error().Err(err).Str("dispatch_id", record.ID).Msg("ack dispatch dead")
		}
		return
	}

	nextAttemptAt := now.Add(l.cfg.Retry.Backoff(record.AttemptCount))
	l.log.Warn().
		Err(deliverErr).
		Str("dispatch_id", record.ID).
		Str("event_type", record.EventType).
		Int("attempt_count", record.AttemptCount+1).
		Time("next_attempt_at", nextAttemptAt).
		Msg("dispatch delivery failed, will retry")
	if err := l.outbox.MarkDispatchRetry(ctx, record.ID, l.cfg.Consumer, nextAttemptAt, deliverErr.Error()); err != nil {
		l.log.Error().Err(err).Str("dispatch_id", record.ID).Msg("ack dispatch retry")
	}
}

// deliver fans the dispatch out to every sink. Every sink is attempted
// even when an earlier one fails; any failure fails the attempt so the
// whole dispatch is retried.
func (l *Loop) deliver(ctx context.Context, dispatch domain.Dispatch) error {
	var errs []error
	for _, sink := range l.sinks {
		if err := sink.Deliver(ctx, dispatch); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", sink.Name(), err))
		}
	}
	return errors.Join(errs...)
}
