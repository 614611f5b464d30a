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

// EnqueueDispatch inserts one pending outbox row. Each journal event gets at
// most one dispatch row; enqueueing the same event twice is a conflict.
func (s *Store) EnqueueDispatch(ctx context.Context, record storage.DispatchRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	record.ID = strings.TrimSpace(record.ID)
	record.EventID = strings.TrimSpace(record.EventID)
	record.OrgID = strings.TrimSpace(record.OrgID)
	record.EventType = strings.TrimSpace(record.EventType)
	if record.ID == "" {
		return fmt.Errorf("dispatch id is required")
	}
	if record.EventID == "" {
		return fmt.Errorf("dispatch event id is required")
	}
	if record.OrgID == "" {
		return fmt.Errorf("dispatch org id is required")
	}
	if record.EventType == "" {
		return fmt.Errorf("dispatch event type is required")
	}
	if record.Status == "" {
		record.Status = storage.DispatchStatusPending
	}
	now := time.Now().UTC()
	if record.NextAttemptAt.IsZero() {
		record.NextAttemptAt = now
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	if record.UpdatedAt.IsZero() {
		record.UpdatedAt = record.CreatedAt
	}
	if record.PayloadJSON == "" {
		record.PayloadJSON = "{}"
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO meeting_dispatches (id, event_id, org_id, meeting_id, event_type, payload_json, status, attempt_count, next_attempt_at, lease_owner, lease_expires_at, last_error, processed_at, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, '', NULL, '', NULL, ?, ?)
`,
		record.ID,
		record.EventID,
		record.OrgID,
		record.MeetingID,
		record.EventType,
		record.PayloadJSON,
		record.Status,
		record.AttemptCount,
		toMillis(record.NextAttemptAt),
		toMillis(record.CreatedAt),
		toMillis(record.UpdatedAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return storage.ErrConflict
		}
		return fmt.Errorf("enqueue dispatch: %w", err)
	}
	return nil
}

// GetDispatch returns one outbox row by id.
func (s *Store) GetDispatch(ctx context.Context, id string) (storage.DispatchRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.DispatchRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.DispatchRecord{}, fmt.Errorf("storage is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return storage.DispatchRecord{}, fmt.Errorf("dispatch id is required")
	}
	row := s.sqlDB.QueryRowContext(ctx, dispatchSelectSQL+` WHERE id = ?`, id)
	record, err := scanDispatch(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.DispatchRecord{}, storage.ErrNotFound
		}
		return storage.DispatchRecord{}, fmt.Errorf("get dispatch: %w", err)
	}
	return record, nil
}

// LeaseDispatches claims up to limit deliverable outbox rows for one
// consumer. A row is deliverable when it is pending and due, or when its
// previous lease expired. Claims are conditional per row so two dispatcher
// instances never hold the same dispatch; the claimed rows are re-read
// inside the same transaction.
func (s *Store) LeaseDispatches(ctx context.Context, consumer string, limit int, now time.Time, leaseTTL time.Duration) ([]storage.DispatchRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	consumer = strings.TrimSpace(consumer)
	if consumer == "" {
		return nil, fmt.Errorf("dispatch consumer is required")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("dispatch lease limit must be greater than zero")
	}
	if leaseTTL <= 0 {
		return nil, fmt.Errorf("dispatch lease ttl must be greater than zero")
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}
	nowMillis := toMillis(now)
	leaseExpiry := toMillis(now.Add(leaseTTL))

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin dispatch lease: %w", err)
	}
	rollbackWith := func(cause error) error {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			return fmt.Errorf("%w: rollback dispatch lease: %v", cause, rollbackErr)
		}
		return cause
	}

	rows, err := tx.QueryContext(ctx, `
SELECT id
FROM meeting_dispatches
WHERE (status = ? AND next_attempt_at <= ?)
   OR (status = ? AND lease_expires_at IS NOT NULL AND lease_expires_at <= ?)
ORDER BY next_attempt_at, created_at, id
LIMIT ?
`, storage.DispatchStatusPending, nowMillis, storage.DispatchStatusLeased, nowMillis, limit)
	if err != nil {
		return nil, rollbackWith(fmt.Errorf("select dispatch candidates: %w", err))
	}
	candidateIDs := make([]string, 0, limit)
	for rows.Next() {
		var candidateID string
		if err := rows.Scan(&candidateID); err != nil {
			rows.Close()
			return nil, rollbackWith(fmt.Errorf("scan dispatch candidate: %w", err))
		}
		candidateIDs = append(candidateIDs, candidateID)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, rollbackWith(fmt.Errorf("iterate dispatch candidates: %w", err))
	}
	rows.Close()

	claimedIDs := make([]string, 0, len(candidateIDs))
	for _, candidateID := range candidateIDs {
		result, err := tx.ExecContext(ctx, `
UPDATE meeting_dispatches
SET status = ?, lease_owner = ?, lease_expires_at = ?, updated_at = ?
WHERE id = ?
  AND ((status = ? AND next_attempt_at <= ?)
    OR (status = ? AND lease_expires_at IS NOT NULL AND lease_expires_at <= ?))
`, storage.DispatchStatusLeased, consumer, leaseExpiry, nowMillis,
			candidateID,
			storage.DispatchStatusPending, nowMillis,
			storage.DispatchStatusLeased, nowMillis)
		if err != nil {
			return nil, rollbackWith(fmt.Errorf("claim dispatch %s: %w", candidateID, err))
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return nil, rollbackWith(fmt.Errorf("claim dispatch rows affected: %w", err))
		}
		if affected > 0 {
			claimedIDs = append(claimedIDs, candidateID)
		}
	}

	leased := make([]storage.DispatchRecord, 0, len(claimedIDs))
	for _, claimedID := range claimedIDs {
		row := tx.QueryRowContext(ctx, dispatchSelectSQL+` WHERE id = ?`, claimedID)
		record, err := scanDispatch(row.Scan)
		if err != nil {
			return nil, rollbackWith(fmt.Errorf("reload leased dispatch %s: %w", claimedID, err))
		}
		leased = append(leased, record)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit dispatch lease: %w", err)
	}
	return leased, nil
}

// MarkDispatchSucceeded acks one leased dispatch as delivered.
func (s *Store) MarkDispatchSucceeded(ctx context.Context, id string, consumer string, processedAt time.Time) error {
	return s.ackDispatch(ctx, id, consumer, `
UPDATE meeting_dispatches
SET status = ?, lease_owner = '', lease_expires_at = NULL, processed_at = ?, updated_at = ?
WHERE id = ? AND status = ? AND lease_owner = ?
`, storage.DispatchStatusSucceeded, toMillis(processedAt.UTC()), toMillis(processedAt.UTC()))
}

// MarkDispatchRetry releases one leased dispatch back to pending with the
// next attempt time and failure reason recorded.
func (s *Store) MarkDispatchRetry(ctx context.Context, id string, consumer string, nextAttemptAt time.Time, lastError string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	id = strings.TrimSpace(id)
	consumer = strings.TrimSpace(consumer)
	if id == "" || consumer == "" {
		return fmt.Errorf("dispatch id and consumer are required")
	}
	now := time.Now().UTC()
	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE meeting_dispatches
SET status = ?, lease_owner = '', lease_expires_at = NULL, attempt_count = attempt_count + 1, next_attempt_at = ?, last_error = ?, updated_at = ?
WHERE id = ? AND status = ? AND lease_owner = ?
`, storage.DispatchStatusPending, toMillis(nextAttemptAt.UTC()), lastError, toMillis(now),
		id, storage.DispatchStatusLeased, consumer)
	if err != nil {
		return fmt.Errorf("mark dispatch retry: %w", err)
	}
	return dispatchAckAffected(result)
}

// MarkDispatchDead moves one leased dispatch to the dead-letter status.
func (s *Store) MarkDispatchDead(ctx context.Context, id string, consumer string, lastError string, processedAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	id = strings.TrimSpace(id)
	consumer = strings.TrimSpace(consumer)
	if id == "" || consumer == "" {
		return fmt.Errorf("dispatch id and consumer are required")
	}
	processedAt = processedAt.UTC()
	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE meeting_dispatches
SET status = ?, lease_owner = '', lease_expires_at = NULL, attempt_count = attempt_count + 1, last_error = ?, processed_at = ?, updated_at = ?
WHERE id = ? AND status = ? AND lease_owner = ?
`, storage.DispatchStatusDead, lastError, toMillis(processedAt), toMillis(processedAt),
		id, storage.DispatchStatusLeased, consumer)
	if err != nil {
		return fmt.Errorf("mark dispatch dead: %w", err)
	}
	return dispatchAckAffected(result)
}

// ListDeadDispatches lists dead-lettered dispatches oldest-first.
func (s *Store) ListDeadDispatches(ctx context.Context, limit int) ([]storage.DispatchRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("dead dispatch limit must be greater than zero")
	}
	rows, err := s.sqlDB.QueryContext(ctx, dispatchSelectSQL+`
WHERE status = ?
ORDER BY updated_at, id
LIMIT ?
`, storage.DispatchStatusDead, limit)
	if err != nil {
		return nil, fmt.Errorf("list dead dispatches: %w", err)
	}
	defer rows.Close()

	dead := make([]storage.DispatchRecord, 0, limit)
	for rows.Next() {
		record, err := scanDispatch(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan dead dispatch: %w", err)
		}
		dead = append(dead, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dead dispatches: %w", err)
	}
	return dead, nil
}

// RedriveDispatch returns one dead dispatch to pending with its attempt
// budget reset so the dispatcher retries it from scratch.
func (s *Store) RedriveDispatch(ctx context.Context, id string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("dispatch id is required")
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}
	at = at.UTC()
	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE meeting_dispatches
SET status = ?, attempt_count = 0, next_attempt_at = ?, lease_owner = '', lease_expires_at = NULL, last_error = '', processed_at = NULL, updated_at = ?
WHERE id = ? AND status = ?
`, storage.DispatchStatusPending, toMillis(at), toMillis(at), id, storage.DispatchStatusDead)
	if err != nil {
		return fmt.Errorf("redrive dispatch: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("redrive dispatch rows affected: %w", err)
	}
	if affected == 0 {
		if _, getErr := s.GetDispatch(ctx, id); getErr != nil {
			return getErr
		}
		return storage.ErrConflict
	}
	return nil
}

// GetDispatchStats counts outbox rows by status.
func (s *Store) GetDispatchStats(ctx context.Context) (storage.DispatchStats, error) {
	if err := ctx.Err(); err != nil {
		return storage.DispatchStats{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.DispatchStats{}, fmt.Errorf("storage is not configured")
	}
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT status, COUNT(*)
FROM meeting_dispatches
GROUP BY status
`)
	if err != nil {
		return storage.DispatchStats{}, fmt.Errorf("dispatch stats: %w", err)
	}
	defer rows.Close()

	var stats storage.DispatchStats
	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return storage.DispatchStats{}, fmt.Errorf("scan dispatch stats: %w", err)
		}
		switch status {
		case storage.DispatchStatusPending:
			stats.Pending = count
		case storage.DispatchStatusLeased:
			stats.Leased = count
		case storage.DispatchStatusSucceeded:
			stats.Succeeded = count
		case storage.DispatchStatusDead:
			stats.Dead = count
		}
	}
	if err := rows.Err(); err != nil {
		return storage.DispatchStats{}, fmt.Errorf("iterate dispatch stats: %w", err)
	}
	return stats, nil
}

func (s *Store) ackDispatch(ctx context.Context, id string, consumer string, query string, args ...any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	id = strings.TrimSpace(id)
	consumer = strings.TrimSpace(consumer)
	if id == "" || consumer == "" {
		return fmt.Errorf("dispatch id and consumer are required")
	}
	params := append(args, id, storage.DispatchStatusLeased, consumer)
	result, err := s.sqlDB.ExecContext(ctx, query, params...)
	if err != nil {
		return fmt.Errorf("ack dispatch: %w", err)
	}
	return dispatchAckAffected(result)
}

func dispatchAckAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("dispatch ack rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrConflict
	}
	return nil
}

const dispatchSelectSQL = `
SELECT id, event_id, org_id, meeting_id, event_type, payload_json, status, attempt_count, next_attempt_at, lease_owner, lease_expires_at, last_error, processed_at, created_at, updated_at
FROM meeting_dispatches`

func scanDispatch(scan scanner) (storage.DispatchRecord, error) {
	var record storage.DispatchRecord
	var nextAttemptAt int64
	var leaseExpiresAt sql.NullInt64
	var processedAt sql.NullInt64
	var createdAt int64
	var updatedAt int64
	if err := scan(
		&record.ID,
		&record.EventID,
		&record.OrgID,
		&record.MeetingID,
		&record.EventType,
		&record.PayloadJSON,
		&record.Status,
		&record.AttemptCount,
		&nextAttemptAt,
		&record.LeaseOwner,
		&leaseExpiresAt,
		&record.LastError,
		&processedAt,
		&createdAt,
		&updatedAt,
	); err != nil {
		return storage.DispatchRecord{}, err
	}
	record.NextAttemptAt = fromMillis(nextAttemptAt)
	record.CreatedAt = fromMillis(createdAt)
	record.UpdatedAt = fromMillis(updatedAt)
	if leaseExpiresAt.Valid {
		value := fromMillis(leaseExpiresAt.Int64)
		record.LeaseExpiresAt = &value
	}
	if processedAt.Valid {
		value := fromMillis(processedAt.Int64)
		record.ProcessedAt = &value
	}
	return record, nil
}
