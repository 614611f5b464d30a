package sinks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/louisbranch/cadence.team/internal/services/dispatcher/domain"
)

// DefaultEventTTL bounds how long delivered events stay resident in Redis.
const DefaultEventTTL = 7 * 24 * time.Hour

// PublishChannel is the pub/sub channel live subscribers listen on.
const PublishChannel = "cadence:events"

// RedisSink stores each delivered event under its own key, indexes it on
// per-organization and per-type timelines, and publishes it for live
// subscribers.
type RedisSink struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

// NewRedisSink constructs a Redis sink. A zero ttl falls back to
// DefaultEventTTL; a nil now falls back to time.Now.
func NewRedisSink(client *redis.Client, ttl time.Duration, now func() time.Time) (*RedisSink, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if ttl <= 0 {
		ttl = DefaultEventTTL
	}
	if now == nil {
		now = time.Now
	}
	return &RedisSink{client: client, ttl: ttl, now: now}, nil
}

// Name implements domain.Sink.
func (s *RedisSink) Name() string { return "redis" }

type redisEvent struct {
	EventID   string          `json:"event_id"`
	OrgID     string          `json:"org_id"`
	MeetingID string          `json:"meeting_id,omitempty"`
	EventType string          `json:"event_type"`
	Payload   json.RawMessage `json:"payload"`
}

// Deliver implements domain.Sink. The key write, timeline updates, and
// publish run in one pipeline so a partial delivery surfaces as a failed
// attempt and gets retried whole.
func (s *RedisSink) Deliver(ctx context.Context, dispatch domain.Dispatch) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("redis sink is not configured")
	}
	payload := json.RawMessage(dispatch.PayloadJSON)
	if !json.Valid(payload) {
		payload = json.RawMessage("{}")
	}
	body, err := json.Marshal(redisEvent{
		EventID:   dispatch.EventID,
		OrgID:     dispatch.OrgID,
		MeetingID: dispatch.MeetingID,
		EventType: dispatch.EventType,
		Payload:   payload,
	})
	if err != nil {
		return fmt.Errorf("marshal redis event: %w", err)
	}

	score := float64(s.now().UTC().UnixMilli())
	pipe := s.client.Pipeline()
	pipe.Set(ctx, "event:"+dispatch.EventID, body, s.ttl)
	pipe.ZAdd(ctx, "events:org:"+dispatch.OrgID, redis.Z{Score: score, Member: dispatch.EventID})
	pipe.ZAdd(ctx, "events:type:"+dispatch.EventType, redis.Z{Score: score, Member: dispatch.EventID})
	if dispatch.MeetingID != "" {
		pipe.ZAdd(ctx, "events:meeting:"+dispatch.MeetingID, redis.Z{Score: score, Member: dispatch.EventID})
	}
	pipe.Publish(ctx, PublishChannel, body)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("write redis event: %w", err)
	}
	return nil
}
