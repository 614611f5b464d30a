// Package sqlite provides SQLite-backed persistence for the meeting
// service. One database file carries the meetings, their agendas, the audit
// journal, and the dispatch outbox so agenda transitions and their audit
// records live in the same WAL.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sqlitemigrate "github.com/louisbranch/cadence.team/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/cadence.team/internal/services/meeting/storage"
	"github.com/louisbranch/cadence.team/internal/services/meeting/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store provides SQLite-backed persistence for meeting state.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Derived item phase, expressed over the timing columns. An item with both
// timestamps set is active when its start postdates its completion (reopen)
// and complete otherwise.
const (
	phasePendingSQL  = "started_at IS NULL AND completed_at IS NULL"
	phaseActiveSQL   = "started_at IS NOT NULL AND (completed_at IS NULL OR started_at > completed_at)"
	phaseCompleteSQL = "completed_at IS NOT NULL AND (started_at IS NULL OR started_at <= completed_at)"
)

// Open opens a meeting SQLite store at the provided path. Transactions take
// the write lock immediately so navigation commands on the same database
// queue instead of failing halfway through.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_txlock=immediate" +
		"&_pragma=journal_mode(WAL)" +
		"&_pragma=busy_timeout(5000)" +
		"&_pragma=synchronous(NORMAL)" +
		"&_pragma=foreign_keys(ON)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := ensureForeignKeysEnabled(sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	store := &Store{sqlDB: sqlDB}
	if err := store.runMigrations(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return store, nil
}

// Close closes the underlying SQLite database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) runMigrations() error {
	return sqlitemigrate.ApplyMigrations(s.sqlDB, migrations.FS, "")
}

func ensureForeignKeysEnabled(db *sql.DB) error {
	if db == nil {
		return fmt.Errorf("sqlite db is required")
	}
	var enabled int
	if err := db.QueryRow("PRAGMA foreign_keys").Scan(&enabled); err != nil {
		return fmt.Errorf("check sqlite foreign key pragma: %w", err)
	}
	if enabled != 1 {
		return fmt.Errorf("sqlite foreign keys are disabled")
	}
	return nil
}

// PutMeetingWithAgenda atomically persists one meeting with its full agenda.
func (s *Store) PutMeetingWithAgenda(ctx context.Context, meeting storage.MeetingRecord, items []storage.AgendaItemRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	normalizedMeeting, err := normalizeMeetingRecord(meeting)
	if err != nil {
		return err
	}
	normalizedItems := make([]storage.AgendaItemRecord, 0, len(items))
	seenSortOrders := make(map[int]struct{}, len(items))
	for _, item := range items {
		normalizedItem, normalizeErr := normalizeAgendaItemRecord(item)
		if normalizeErr != nil {
			return normalizeErr
		}
		if normalizedItem.MeetingID != normalizedMeeting.ID {
			return fmt.Errorf("agenda item %s does not belong to meeting %s", normalizedItem.ID, normalizedMeeting.ID)
		}
		if _, seen := seenSortOrders[normalizedItem.SortOrder]; seen {
			return storage.ErrConflict
		}
		seenSortOrders[normalizedItem.SortOrder] = struct{}{}
		normalizedItems = append(normalizedItems, normalizedItem)
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin meeting write: %w", err)
	}
	rollbackWith := func(cause error) error {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			return fmt.Errorf("%w: rollback meeting write: %v", cause, rollbackErr)
		}
		return cause
	}

	var scheduledFor sql.NullInt64
	if normalizedMeeting.ScheduledFor != nil {
		scheduledFor = sql.NullInt64{Int64: toMillis(*normalizedMeeting.ScheduledFor), Valid: true}
	}
	if _, err := tx.ExecContext(ctx, `
INSERT INTO meetings (id, org_id, title, status, scheduled_for, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
`,
		normalizedMeeting.ID,
		normalizedMeeting.OrgID,
		normalizedMeeting.Title,
		normalizedMeeting.Status,
		scheduledFor,
		toMillis(normalizedMeeting.CreatedAt),
		toMillis(normalizedMeeting.UpdatedAt),
	); err != nil {
		if isUniqueConstraintError(err) {
			return rollbackWith(storage.ErrConflict)
		}
		return rollbackWith(fmt.Errorf("insert meeting: %w", err))
	}

	for _, item := range normalizedItems {
		if err := insertAgendaItemExec(ctx, tx, item); err != nil {
			return rollbackWith(err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit meeting write: %w", err)
	}
	return nil
}

// GetMeeting loads one meeting row by ID.
func (s *Store) GetMeeting(ctx context.Context, meetingID string) (storage.MeetingRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.MeetingRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.MeetingRecord{}, fmt.Errorf("storage is not configured")
	}
	meetingID = strings.TrimSpace(meetingID)
	if meetingID == "" {
		return storage.MeetingRecord{}, fmt.Errorf("meeting id is required")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, org_id, title, status, scheduled_for, created_at, updated_at
FROM meetings
WHERE id = ?
`, meetingID)
	record, err := scanMeeting(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.MeetingRecord{}, storage.ErrNotFound
		}
		return storage.MeetingRecord{}, fmt.Errorf("get meeting: %w", err)
	}
	return record, nil
}

// ListMeetingsByOrg lists one organization's meetings newest-first with
// cursor pagination.
func (s *Store) ListMeetingsByOrg(ctx context.Context, orgID string, pageSize int, pageToken string) (storage.MeetingPage, error) {
	if err := ctx.Err(); err != nil {
		return storage.MeetingPage{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.MeetingPage{}, fmt.Errorf("storage is not configured")
	}
	orgID = strings.TrimSpace(orgID)
	pageToken = strings.TrimSpace(pageToken)
	if orgID == "" {
		return storage.MeetingPage{}, fmt.Errorf("org id is required")
	}
	if pageSize <= 0 {
		return storage.MeetingPage{}, fmt.Errorf("page size must be greater than zero")
	}

	limit := pageSize + 1
	if pageToken == "" {
		rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, org_id, title, status, scheduled_for, created_at, updated_at
FROM meetings
WHERE org_id = ?
ORDER BY created_at DESC, id DESC
LIMIT ?
`, orgID, limit)
		if err != nil {
			return storage.MeetingPage{}, fmt.Errorf("list meetings: %w", err)
		}
		defer rows.Close()
		return collectMeetingPage(rows, pageSize)
	}

	tokenCreatedAt, err := s.meetingCreatedAtByID(ctx, orgID, pageToken)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return storage.MeetingPage{}, nil
		}
		return storage.MeetingPage{}, err
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, org_id, title, status, scheduled_for, created_at, updated_at
FROM meetings
WHERE org_id = ?
  AND (created_at < ? OR (created_at = ? AND id < ?))
ORDER BY created_at DESC, id DESC
LIMIT ?
`, orgID, toMillis(tokenCreatedAt), toMillis(tokenCreatedAt), pageToken, limit)
	if err != nil {
		return storage.MeetingPage{}, fmt.Errorf("list meetings with token: %w", err)
	}
	defer rows.Close()
	return collectMeetingPage(rows, pageSize)
}

// UpdateMeetingStatus moves one meeting between lifecycle states with a
// compare-and-swap on the current status.
func (s *Store) UpdateMeetingStatus(ctx context.Context, meetingID string, fromStatus, toStatus string, at time.Time) (storage.MeetingRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.MeetingRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.MeetingRecord{}, fmt.Errorf("storage is not configured")
	}
	meetingID = strings.TrimSpace(meetingID)
	fromStatus = strings.TrimSpace(fromStatus)
	toStatus = strings.TrimSpace(toStatus)
	if meetingID == "" {
		return storage.MeetingRecord{}, fmt.Errorf("meeting id is required")
	}
	if fromStatus == "" || toStatus == "" {
		return storage.MeetingRecord{}, fmt.Errorf("meeting status is required")
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}
	at = at.UTC()

	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE meetings
SET status = ?, updated_at = ?
WHERE id = ? AND status = ?
`, toStatus, toMillis(at), meetingID, fromStatus)
	if err != nil {
		return storage.MeetingRecord{}, fmt.Errorf("update meeting status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return storage.MeetingRecord{}, fmt.Errorf("update meeting status rows affected: %w", err)
	}
	if affected == 0 {
		if _, getErr := s.GetMeeting(ctx, meetingID); getErr != nil {
			return storage.MeetingRecord{}, getErr
		}
		return storage.MeetingRecord{}, storage.ErrConflict
	}
	return s.GetMeeting(ctx, meetingID)
}

// ListAgendaItems lists one meeting's agenda ordered by sort order.
func (s *Store) ListAgendaItems(ctx context.Context, meetingID string) ([]storage.AgendaItemRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	meetingID = strings.TrimSpace(meetingID)
	if meetingID == "" {
		return nil, fmt.Errorf("meeting id is required")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, meeting_id, section, sort_order, duration_minutes, started_at, completed_at, notes, created_at, updated_at
FROM agenda_items
WHERE meeting_id = ?
ORDER BY sort_order ASC
`, meetingID)
	if err != nil {
		return nil, fmt.Errorf("list agenda items: %w", err)
	}
	defer rows.Close()

	items := make([]storage.AgendaItemRecord, 0, 8)
	for rows.Next() {
		item, scanErr := scanAgendaItem(rows.Scan)
		if scanErr != nil {
			return nil, fmt.Errorf("scan agenda item row: %w", scanErr)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate agenda item rows: %w", err)
	}
	return items, nil
}

// GetAgendaItem loads one agenda item row by ID.
func (s *Store) GetAgendaItem(ctx context.Context, itemID string) (storage.AgendaItemRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.AgendaItemRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.AgendaItemRecord{}, fmt.Errorf("storage is not configured")
	}
	itemID = strings.TrimSpace(itemID)
	if itemID == "" {
		return storage.AgendaItemRecord{}, fmt.Errorf("agenda item id is required")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, meeting_id, section, sort_order, duration_minutes, started_at, completed_at, notes, created_at, updated_at
FROM agenda_items
WHERE id = ?
`, itemID)
	item, err := scanAgendaItem(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.AgendaItemRecord{}, storage.ErrNotFound
		}
		return storage.AgendaItemRecord{}, fmt.Errorf("get agenda item: %w", err)
	}
	return item, nil
}

// GetActiveAgendaItem returns the meeting's single active item. Finding more
// than one active item is reported as an integrity failure, not a result.
func (s *Store) GetActiveAgendaItem(ctx context.Context, meetingID string) (storage.AgendaItemRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.AgendaItemRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.AgendaItemRecord{}, fmt.Errorf("storage is not configured")
	}
	meetingID = strings.TrimSpace(meetingID)
	if meetingID == "" {
		return storage.AgendaItemRecord{}, fmt.Errorf("meeting id is required")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, meeting_id, section, sort_order, duration_minutes, started_at, completed_at, notes, created_at, updated_at
FROM agenda_items
WHERE meeting_id = ?
  AND `+phaseActiveSQL+`
ORDER BY sort_order ASC
LIMIT 2
`, meetingID)
	if err != nil {
		return storage.AgendaItemRecord{}, fmt.Errorf("get active agenda item: %w", err)
	}
	defer rows.Close()

	var active []storage.AgendaItemRecord
	for rows.Next() {
		item, scanErr := scanAgendaItem(rows.Scan)
		if scanErr != nil {
			return storage.AgendaItemRecord{}, fmt.Errorf("scan active agenda item: %w", scanErr)
		}
		active = append(active, item)
	}
	if err := rows.Err(); err != nil {
		return storage.AgendaItemRecord{}, fmt.Errorf("iterate active agenda items: %w", err)
	}
	switch len(active) {
	case 0:
		return storage.AgendaItemRecord{}, storage.ErrNotFound
	case 1:
		return active[0], nil
	default:
		return storage.AgendaItemRecord{}, storage.ErrIntegrity
	}
}

// GetAdjacentAgendaItem returns the neighboring agenda item by sort order.
func (s *Store) GetAdjacentAgendaItem(ctx context.Context, meetingID string, referenceSortOrder int, forward bool) (storage.AgendaItemRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.AgendaItemRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.AgendaItemRecord{}, fmt.Errorf("storage is not configured")
	}
	meetingID = strings.TrimSpace(meetingID)
	if meetingID == "" {
		return storage.AgendaItemRecord{}, fmt.Errorf("meeting id is required")
	}

	query := `
SELECT id, meeting_id, section, sort_order, duration_minutes, started_at, completed_at, notes, created_at, updated_at
FROM agenda_items
WHERE meeting_id = ? AND sort_order > ?
ORDER BY sort_order ASC
LIMIT 1
`
	if !forward {
		query = `
SELECT id, meeting_id, section, sort_order, duration_minutes, started_at, completed_at, notes, created_at, updated_at
FROM agenda_items
WHERE meeting_id = ? AND sort_order < ?
ORDER BY sort_order DESC
LIMIT 1
`
	}
	row := s.sqlDB.QueryRowContext(ctx, query, meetingID, referenceSortOrder)
	item, err := scanAgendaItem(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.AgendaItemRecord{}, storage.ErrNotFound
		}
		return storage.AgendaItemRecord{}, fmt.Errorf("get adjacent agenda item: %w", err)
	}
	return item, nil
}

// ApplyAgendaTransitions applies a navigation command's timing updates in
// one transaction. Every update asserts the phase its transition kind
// expects; a guard miss means the agenda changed under the command, so the
// whole batch rolls back with ErrConflict and no partial step survives.
func (s *Store) ApplyAgendaTransitions(ctx context.Context, meetingID string, at time.Time, transitions []storage.AgendaTransition) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	meetingID = strings.TrimSpace(meetingID)
	if meetingID == "" {
		return fmt.Errorf("meeting id is required")
	}
	if len(transitions) == 0 {
		return nil
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}
	atMillis := toMillis(at)

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin agenda transition write: %w", err)
	}
	rollbackWith := func(cause error) error {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			return fmt.Errorf("%w: rollback agenda transition write: %v", cause, rollbackErr)
		}
		return cause
	}

	for _, transition := range transitions {
		itemID := strings.TrimSpace(transition.ItemID)
		if itemID == "" {
			return rollbackWith(fmt.Errorf("agenda transition item id is required"))
		}

		var result sql.Result
		var execErr error
		switch transition.Kind {
		case storage.TransitionStart:
			result, execErr = tx.ExecContext(ctx, `
UPDATE agenda_items
SET started_at = ?, updated_at = ?
WHERE id = ? AND meeting_id = ? AND `+phasePendingSQL,
				atMillis, atMillis, itemID, meetingID)
		case storage.TransitionComplete:
			result, execErr = tx.ExecContext(ctx, `
UPDATE agenda_items
SET completed_at = ?, updated_at = ?
WHERE id = ? AND meeting_id = ? AND `+phaseActiveSQL,
				atMillis, atMillis, itemID, meetingID)
		case storage.TransitionReopen:
			result, execErr = tx.ExecContext(ctx, `
UPDATE agenda_items
SET started_at = ?, updated_at = ?
WHERE id = ? AND meeting_id = ? AND `+phaseCompleteSQL,
				atMillis, atMillis, itemID, meetingID)
		case storage.TransitionReset:
			result, execErr = tx.ExecContext(ctx, `
UPDATE agenda_items
SET started_at = NULL, completed_at = NULL, updated_at = ?
WHERE id = ? AND meeting_id = ? AND `+phaseActiveSQL,
				atMillis, itemID, meetingID)
		case storage.TransitionReactivate:
			result, execErr = tx.ExecContext(ctx, `
UPDATE agenda_items
SET completed_at = NULL, updated_at = ?
WHERE id = ? AND meeting_id = ? AND `+phaseCompleteSQL,
				atMillis, itemID, meetingID)
		default:
			return rollbackWith(fmt.Errorf("unknown agenda transition kind %q", transition.Kind))
		}
		if execErr != nil {
			return rollbackWith(fmt.Errorf("apply agenda transition %s %s: %w", transition.Kind, itemID, execErr))
		}
		affected, affectedErr := result.RowsAffected()
		if affectedErr != nil {
			return rollbackWith(fmt.Errorf("agenda transition rows affected: %w", affectedErr))
		}
		if affected == 0 {
			return rollbackWith(storage.ErrConflict)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit agenda transition write: %w", err)
	}
	return nil
}

// UpdateAgendaNotes replaces one item's notes, touching nothing else but
// the row's updated_at.
func (s *Store) UpdateAgendaNotes(ctx context.Context, itemID string, notes string, at time.Time) (storage.AgendaItemRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.AgendaItemRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.AgendaItemRecord{}, fmt.Errorf("storage is not configured")
	}
	itemID = strings.TrimSpace(itemID)
	if itemID == "" {
		return storage.AgendaItemRecord{}, fmt.Errorf("agenda item id is required")
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}

	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE agenda_items
SET notes = ?, updated_at = ?
WHERE id = ?
`, notes, toMillis(at), itemID)
	if err != nil {
		return storage.AgendaItemRecord{}, fmt.Errorf("update agenda notes: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return storage.AgendaItemRecord{}, fmt.Errorf("update agenda notes rows affected: %w", err)
	}
	if affected == 0 {
		return storage.AgendaItemRecord{}, storage.ErrNotFound
	}
	return s.GetAgendaItem(ctx, itemID)
}

func (s *Store) meetingCreatedAtByID(ctx context.Context, orgID string, meetingID string) (time.Time, error) {
	row := s.sqlDB.QueryRowContext(ctx, `
SELECT created_at
FROM meetings
WHERE org_id = ? AND id = ?
`, orgID, meetingID)
	var createdAtMillis int64
	if err := row.Scan(&createdAtMillis); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, storage.ErrNotFound
		}
		return time.Time{}, fmt.Errorf("lookup meeting cursor: %w", err)
	}
	return fromMillis(createdAtMillis), nil
}

type scanner func(dest ...any) error

type sqlExecer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func normalizeMeetingRecord(record storage.MeetingRecord) (storage.MeetingRecord, error) {
	record.ID = strings.TrimSpace(record.ID)
	record.OrgID = strings.TrimSpace(record.OrgID)
	record.Title = strings.TrimSpace(record.Title)
	record.Status = strings.TrimSpace(record.Status)
	if record.ID == "" {
		return storage.MeetingRecord{}, fmt.Errorf("meeting id is required")
	}
	if record.OrgID == "" {
		return storage.MeetingRecord{}, fmt.Errorf("org id is required")
	}
	if record.Title == "" {
		return storage.MeetingRecord{}, fmt.Errorf("meeting title is required")
	}
	if record.Status == "" {
		return storage.MeetingRecord{}, fmt.Errorf("meeting status is required")
	}
	if record.CreatedAt.IsZero() {
		return storage.MeetingRecord{}, fmt.Errorf("created_at is required")
	}
	if record.UpdatedAt.IsZero() {
		return storage.MeetingRecord{}, fmt.Errorf("updated_at is required")
	}
	record.CreatedAt = record.CreatedAt.UTC()
	record.UpdatedAt = record.UpdatedAt.UTC()
	if record.ScheduledFor != nil {
		scheduledFor := record.ScheduledFor.UTC()
		record.ScheduledFor = &scheduledFor
	}
	return record, nil
}

func normalizeAgendaItemRecord(record storage.AgendaItemRecord) (storage.AgendaItemRecord, error) {
	record.ID = strings.TrimSpace(record.ID)
	record.MeetingID = strings.TrimSpace(record.MeetingID)
	record.Section = strings.TrimSpace(record.Section)
	if record.ID == "" {
		return storage.AgendaItemRecord{}, fmt.Errorf("agenda item id is required")
	}
	if record.MeetingID == "" {
		return storage.AgendaItemRecord{}, fmt.Errorf("meeting id is required")
	}
	if record.Section == "" {
		return storage.AgendaItemRecord{}, fmt.Errorf("agenda section is required")
	}
	if record.DurationMinutes <= 0 {
		return storage.AgendaItemRecord{}, fmt.Errorf("duration minutes must be greater than zero")
	}
	if record.CreatedAt.IsZero() {
		return storage.AgendaItemRecord{}, fmt.Errorf("created_at is required")
	}
	if record.UpdatedAt.IsZero() {
		return storage.AgendaItemRecord{}, fmt.Errorf("updated_at is required")
	}
	record.CreatedAt = record.CreatedAt.UTC()
	record.UpdatedAt = record.UpdatedAt.UTC()
	if record.StartedAt != nil {
		startedAt := record.StartedAt.UTC()
		record.StartedAt = &startedAt
	}
	if record.CompletedAt != nil {
		completedAt := record.CompletedAt.UTC()
		record.CompletedAt = &completedAt
	}
	return record, nil
}

func insertAgendaItemExec(ctx context.Context, execer sqlExecer, record storage.AgendaItemRecord) error {
	var startedAt sql.NullInt64
	if record.StartedAt != nil {
		startedAt = sql.NullInt64{Int64: toMillis(*record.StartedAt), Valid: true}
	}
	var completedAt sql.NullInt64
	if record.CompletedAt != nil {
		completedAt = sql.NullInt64{Int64: toMillis(*record.CompletedAt), Valid: true}
	}

	_, err := execer.ExecContext(ctx, `
INSERT INTO agenda_items (
	id, meeting_id, section, sort_order, duration_minutes, started_at, completed_at, notes, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`,
		record.ID,
		record.MeetingID,
		record.Section,
		record.SortOrder,
		record.DurationMinutes,
		startedAt,
		completedAt,
		record.Notes,
		toMillis(record.CreatedAt),
		toMillis(record.UpdatedAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) || isForeignKeyConstraintError(err) {
			return storage.ErrConflict
		}
		return fmt.Errorf("insert agenda item: %w", err)
	}
	return nil
}

func scanMeeting(scan scanner) (storage.MeetingRecord, error) {
	var record storage.MeetingRecord
	var scheduledFor sql.NullInt64
	var createdAt int64
	var updatedAt int64
	if err := scan(
		&record.ID,
		&record.OrgID,
		&record.Title,
		&record.Status,
		&scheduledFor,
		&createdAt,
		&updatedAt,
	); err != nil {
		return storage.MeetingRecord{}, err
	}
	record.CreatedAt = fromMillis(createdAt)
	record.UpdatedAt = fromMillis(updatedAt)
	if scheduledFor.Valid {
		value := fromMillis(scheduledFor.Int64)
		record.ScheduledFor = &value
	}
	return record, nil
}

func collectMeetingPage(rows *sql.Rows, pageSize int) (storage.MeetingPage, error) {
	page := storage.MeetingPage{
		Meetings: make([]storage.MeetingRecord, 0, pageSize),
	}
	for rows.Next() {
		record, err := scanMeeting(rows.Scan)
		if err != nil {
			return storage.MeetingPage{}, fmt.Errorf("scan meeting row: %w", err)
		}
		page.Meetings = append(page.Meetings, record)
	}
	if err := rows.Err(); err != nil {
		return storage.MeetingPage{}, fmt.Errorf("iterate meeting rows: %w", err)
	}
	if len(page.Meetings) > pageSize {
		page.NextPageToken = page.Meetings[pageSize-1].ID
		page.Meetings = page.Meetings[:pageSize]
	}
	return page, nil
}

func scanAgendaItem(scan scanner) (storage.AgendaItemRecord, error) {
	var record storage.AgendaItemRecord
	var startedAt sql.NullInt64
	var completedAt sql.NullInt64
	var createdAt int64
	var updatedAt int64
	if err := scan(
		&record.ID,
		&record.MeetingID,
		&record.Section,
		&record.SortOrder,
		&record.DurationMinutes,
		&startedAt,
		&completedAt,
		&record.Notes,
		&createdAt,
		&updatedAt,
	); err != nil {
		return storage.AgendaItemRecord{}, err
	}
	record.CreatedAt = fromMillis(createdAt)
	record.UpdatedAt = fromMillis(updatedAt)
	if startedAt.Valid {
		value := fromMillis(startedAt.Int64)
		record.StartedAt = &value
	}
	if completedAt.Valid {
		value := fromMillis(completedAt.Int64)
		record.CompletedAt = &value
	}
	return record, nil
}

func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	value := strings.ToLower(err.Error())
	return strings.Contains(value, "unique constraint failed")
}

func isForeignKeyConstraintError(err error) bool {
	if err == nil {
		return false
	}
	value := strings.ToLower(err.Error())
	return strings.Contains(value, "foreign key constraint failed")
}
