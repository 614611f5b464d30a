package server

import (
	"context"
	"errors"
	"time"

	"github.com/louisbranch/cadence.team/internal/services/meeting/domain"
	"github.com/louisbranch/cadence.team/internal/services/meeting/storage"
)

// domainStoreAdapter exposes the storage layer through the meeting domain's
// Store boundary, translating records and storage errors both ways.
type domainStoreAdapter struct {
	meetingStore storage.MeetingStore
	agendaStore  storage.AgendaStore
}

func newDomainStoreAdapter(meetingStore storage.MeetingStore, agendaStore storage.AgendaStore) *domainStoreAdapter {
	return &domainStoreAdapter{
		meetingStore: meetingStore,
		agendaStore:  agendaStore,
	}
}

func (a *domainStoreAdapter) PutMeetingWithAgenda(ctx context.Context, meeting domain.Meeting, items []domain.Item) error {
	if a == nil || a.meetingStore == nil {
		return domain.ErrStoreNotConfigured
	}
	records := make([]storage.AgendaItemRecord, 0, len(items))
	for _, item := range items {
		records = append(records, toStorageItem(item))
	}
	return mapStorageError(a.meetingStore.PutMeetingWithAgenda(ctx, toStorageMeeting(meeting), records))
}

func (a *domainStoreAdapter) GetMeeting(ctx context.Context, meetingID string) (domain.Meeting, error) {
	if a == nil || a.meetingStore == nil {
		return domain.Meeting{}, domain.ErrStoreNotConfigured
	}
	record, err := a.meetingStore.GetMeeting(ctx, meetingID)
	if err != nil {
		return domain.Meeting{}, mapStorageError(err)
	}
	return toDomainMeeting(record), nil
}

func (a *domainStoreAdapter) ListMeetingsByOrg(ctx context.Context, orgID string, pageSize int, pageToken string) (domain.MeetingPage, error) {
	if a == nil || a.meetingStore == nil {
		return domain.MeetingPage{}, domain.ErrStoreNotConfigured
	}
	page, err := a.meetingStore.ListMeetingsByOrg(ctx, orgID, pageSize, pageToken)
	if err != nil {
		return domain.MeetingPage{}, mapStorageError(err)
	}
	result := domain.MeetingPage{
		Meetings:      make([]domain.Meeting, 0, len(page.Meetings)),
		NextPageToken: page.NextPageToken,
	}
	for _, record := range page.Meetings {
		result.Meetings = append(result.Meetings, toDomainMeeting(record))
	}
	return result, nil
}

func (a *domainStoreAdapter) UpdateMeetingStatus(ctx context.Context, meetingID string, from, to domain.Status, at time.Time) (domain.Meeting, error) {
	if a == nil || a.meetingStore == nil {
		return domain.Meeting{}, domain.ErrStoreNotConfigured
	}
	record, err := a.meetingStore.UpdateMeetingStatus(ctx, meetingID, string(from), string(to), at)
	if err != nil {
		return domain.Meeting{}, mapStorageError(err)
	}
	return toDomainMeeting(record), nil
}

func (a *domainStoreAdapter) ListAgendaItems(ctx context.Context, meetingID string) ([]domain.Item, error) {
	if a == nil || a.agendaStore == nil {
		return nil, domain.ErrStoreNotConfigured
	}
	records, err := a.agendaStore.ListAgendaItems(ctx, meetingID)
	if err != nil {
		return nil, mapStorageError(err)
	}
	items := make([]domain.Item, 0, len(records))
	for _, record := range records {
		items = append(items, toDomainItem(record))
	}
	return items, nil
}

func (a *domainStoreAdapter) GetAgendaItem(ctx context.Context, itemID string) (domain.Item, error) {
	if a == nil || a.agendaStore == nil {
		return domain.Item{}, domain.ErrStoreNotConfigured
	}
	record, err := a.agendaStore.GetAgendaItem(ctx, itemID)
	if err != nil {
		return domain.Item{}, mapStorageError(err)
	}
	return toDomainItem(record), nil
}

func (a *domainStoreAdapter) ApplyAgendaTransitions(ctx context.Context, meetingID string, at time.Time, transitions []domain.Transition) error {
	if a == nil || a.agendaStore == nil {
		return domain.ErrStoreNotConfigured
	}
	records := make([]storage.AgendaTransition, 0, len(transitions))
	for _, transition := range transitions {
		records = append(records, storage.AgendaTransition{
			ItemID: transition.ItemID,
			Kind:   storage.TransitionKind(transition.Kind),
		})
	}
	return mapStorageError(a.agendaStore.ApplyAgendaTransitions(ctx, meetingID, at, records))
}

func (a *domainStoreAdapter) UpdateAgendaNotes(ctx context.Context, itemID string, notes string, at time.Time) (domain.Item, error) {
	if a == nil || a.agendaStore == nil {
		return domain.Item{}, domain.ErrStoreNotConfigured
	}
	record, err := a.agendaStore.UpdateAgendaNotes(ctx, itemID, notes, at)
	if err != nil {
		return domain.Item{}, mapStorageError(err)
	}
	return toDomainItem(record), nil
}

func toStorageMeeting(meeting domain.Meeting) storage.MeetingRecord {
	return storage.MeetingRecord{
		ID:           meeting.ID,
		OrgID:        meeting.OrgID,
		Title:        meeting.Title,
		Status:       string(meeting.Status),
		ScheduledFor: meeting.ScheduledFor,
		CreatedAt:    meeting.CreatedAt,
		UpdatedAt:    meeting.UpdatedAt,
	}
}

func toDomainMeeting(record storage.MeetingRecord) domain.Meeting {
	return domain.Meeting{
		ID:           record.ID,
		OrgID:        record.OrgID,
		Title:        record.Title,
		Status:       domain.Status(record.Status),
		ScheduledFor: record.ScheduledFor,
		CreatedAt:    record.CreatedAt,
		UpdatedAt:    record.UpdatedAt,
	}
}

func toStorageItem(item domain.Item) storage.AgendaItemRecord {
	return storage.AgendaItemRecord{
		ID:              item.ID,
		MeetingID:       item.MeetingID,
		Section:         string(item.Section),
		SortOrder:       item.SortOrder,
		DurationMinutes: item.DurationMinutes,
		StartedAt:       item.StartedAt,
		CompletedAt:     item.CompletedAt,
		Notes:           item.Notes,
		CreatedAt:       item.CreatedAt,
		UpdatedAt:       item.UpdatedAt,
	}
}

func toDomainItem(record storage.AgendaItemRecord) domain.Item {
	return domain.Item{
		ID:              record.ID,
		MeetingID:       record.MeetingID,
		Section:         domain.Section(record.Section),
		SortOrder:       record.SortOrder,
		DurationMinutes: record.DurationMinutes,
		StartedAt:       record.StartedAt,
		CompletedAt:     record.CompletedAt,
		Notes:           record.Notes,
		CreatedAt:       record.CreatedAt,
		UpdatedAt:       record.UpdatedAt,
	}
}

func mapStorageError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, storage.ErrNotFound):
		return domain.ErrNotFound
	case errors.Is(err, storage.ErrConflict):
		return domain.ErrConflict
	case errors.Is(err, storage.ErrIntegrity):
		return domain.ErrMultipleActiveItems
	default:
		return err
	}
}
