package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/cadence.team/internal/services/meeting/storage"
)

// AppendEvent inserts one immutable audit journal row. Event ids are unique;
// a duplicate append is a conflict, never an overwrite.
func (s *Store) AppendEvent(ctx context.Context, record storage.EventRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	record.ID = strings.TrimSpace(record.ID)
	record.OrgID = strings.TrimSpace(record.OrgID)
	record.EventType = strings.TrimSpace(record.EventType)
	if record.ID == "" {
		return fmt.Errorf("event id is required")
	}
	if record.OrgID == "" {
		return fmt.Errorf("event org id is required")
	}
	if record.EventType == "" {
		return fmt.Errorf("event type is required")
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now().UTC()
	}
	if record.PayloadJSON == "" {
		record.PayloadJSON = "{}"
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO meeting_events (id, org_id, meeting_id, event_type, ts, actor_id, entity_type, entity_id, payload_json)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`,
		record.ID,
		record.OrgID,
		record.MeetingID,
		record.EventType,
		toMillis(record.Timestamp),
		record.ActorID,
		record.EntityType,
		record.EntityID,
		record.PayloadJSON,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return storage.ErrConflict
		}
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

// ListEvents lists one organization's journal newest-first with cursor
// pagination and an optional pre-translated filter condition.
func (s *Store) ListEvents(ctx context.Context, req storage.ListEventsRequest) (storage.EventPage, error) {
	if err := ctx.Err(); err != nil {
		return storage.EventPage{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.EventPage{}, fmt.Errorf("storage is not configured")
	}
	orgID := strings.TrimSpace(req.OrgID)
	pageToken := strings.TrimSpace(req.PageToken)
	if orgID == "" {
		return storage.EventPage{}, fmt.Errorf("org id is required")
	}
	if req.PageSize <= 0 {
		return storage.EventPage{}, fmt.Errorf("page size must be greater than zero")
	}

	clauses := []string{"org_id = ?"}
	params := []any{orgID}
	if strings.TrimSpace(req.FilterClause) != "" {
		clauses = append(clauses, req.FilterClause)
		params = append(params, req.FilterParams...)
	}
	if pageToken != "" {
		tokenTS, err := s.eventTimestampByID(ctx, orgID, pageToken)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return storage.EventPage{}, nil
			}
			return storage.EventPage{}, err
		}
		clauses = append(clauses, "(ts < ? OR (ts = ? AND id < ?))")
		params = append(params, toMillis(tokenTS), toMillis(tokenTS), pageToken)
	}

	limit := req.PageSize + 1
	params = append(params, limit)
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, org_id, meeting_id, event_type, ts, actor_id, entity_type, entity_id, payload_json
FROM meeting_events
WHERE `+strings.Join(clauses, " AND ")+`
ORDER BY ts DESC, id DESC
LIMIT ?
`, params...)
	if err != nil {
		return storage.EventPage{}, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	page := storage.EventPage{
		Events: make([]storage.EventRecord, 0, req.PageSize),
	}
	for rows.Next() {
		record, err := scanEvent(rows.Scan)
		if err != nil {
			return storage.EventPage{}, fmt.Errorf("scan event row: %w", err)
		}
		page.Events = append(page.Events, record)
	}
	if err := rows.Err(); err != nil {
		return storage.EventPage{}, fmt.Errorf("iterate event rows: %w", err)
	}
	if len(page.Events) > req.PageSize {
		page.NextPageToken = page.Events[req.PageSize-1].ID
		page.Events = page.Events[:req.PageSize]
	}
	return page, nil
}

func (s *Store) eventTimestampByID(ctx context.Context, orgID string, eventID string) (time.Time, error) {
	row := s.sqlDB.QueryRowContext(ctx, `
SELECT ts
FROM meeting_events
WHERE org_id = ? AND id = ?
`, orgID, eventID)
	var tsMillis int64
	if err := row.Scan(&tsMillis); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, storage.ErrNotFound
		}
		return time.Time{}, fmt.Errorf("lookup event cursor: %w", err)
	}
	return fromMillis(tsMillis), nil
}

func scanEvent(scan scanner) (storage.EventRecord, error) {
	var record storage.EventRecord
	var ts int64
	if err := scan(
		&record.ID,
		&record.OrgID,
		&record.MeetingID,
		&record.EventType,
		&ts,
		&record.ActorID,
		&record.EntityType,
		&record.EntityID,
		&record.PayloadJSON,
	); err != nil {
		return storage.EventRecord{}, err
	}
	record.Timestamp = fromMillis(ts)
	return record, nil
}
