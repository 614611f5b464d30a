package domain

import (
	"context"
	"time"

	meetingdomain "github.com/louisbranch/cadence.team/internal/services/meeting/domain"
)

// fakeMeetingService records facade calls and returns canned responses.
type fakeMeetingService struct {
	createInput   meetingdomain.CreateMeetingInput
	listInput     meetingdomain.ListMeetingsInput
	concludeInput meetingdomain.ConcludeMeetingInput
	navigateInput meetingdomain.NavigateInput
	nextInput     meetingdomain.StepInput
	previousInput meetingdomain.StepInput
	notesInput    meetingdomain.UpdateNotesInput
	agendaCred    string
	agendaID      string

	view    meetingdomain.AgendaView
	page    meetingdomain.MeetingPage
	meeting meetingdomain.Meeting
	item    meetingdomain.Item
	err     error
}

func (f *fakeMeetingService) CreateMeeting(ctx context.Context, input meetingdomain.CreateMeetingInput) (meetingdomain.AgendaView, error) {
	f.createInput = input
	return f.view, f.err
}

func (f *fakeMeetingService) Agenda(ctx context.Context, credential, meetingID string) (meetingdomain.AgendaView, error) {
	f.agendaCred = credential
	f.agendaID = meetingID
	return f.view, f.err
}

func (f *fakeMeetingService) ListMeetings(ctx context.Context, input meetingdomain.ListMeetingsInput) (meetingdomain.MeetingPage, error) {
	f.listInput = input
	return f.page, f.err
}

func (f *fakeMeetingService) ConcludeMeeting(ctx context.Context, input meetingdomain.ConcludeMeetingInput) (meetingdomain.Meeting, error) {
	f.concludeInput = input
	return f.meeting, f.err
}

func (f *fakeMeetingService) Navigate(ctx context.Context, input meetingdomain.NavigateInput) (meetingdomain.AgendaView, error) {
	f.navigateInput = input
	return f.view, f.err
}

func (f *fakeMeetingService) Next(ctx context.Context, input meetingdomain.StepInput) (meetingdomain.AgendaView, error) {
	f.nextInput = input
	return f.view, f.err
}

func (f *fakeMeetingService) Previous(ctx context.Context, input meetingdomain.StepInput) (meetingdomain.AgendaView, error) {
	f.previousInput = input
	return f.view, f.err
}

func (f *fakeMeetingService) UpdateNotes(ctx context.Context, input meetingdomain.UpdateNotesInput) (meetingdomain.Item, error) {
	f.notesInput = input
	return f.item, f.err
}

func staticCredential(grant string) CredentialSource {
	return func() string { return grant }
}

func testMeeting(id, title string, status meetingdomain.Status) meetingdomain.Meeting {
	created := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	return meetingdomain.Meeting{
		ID:        id,
		OrgID:     "org-1",
		Title:     title,
		Status:    status,
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func testItem(id string, section meetingdomain.Section, sortOrder int, startedAt, completedAt *time.Time) meetingdomain.Item {
	return meetingdomain.Item{
		ID:              id,
		MeetingID:       "meet-1",
		Section:         section,
		SortOrder:       sortOrder,
		DurationMinutes: 5,
		StartedAt:       startedAt,
		CompletedAt:     completedAt,
	}
}
