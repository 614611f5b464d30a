package domain

import "errors"

var (
	// ErrStoreNotConfigured indicates the service is missing persistence wiring.
	ErrStoreNotConfigured = errors.New("meeting store is not configured")
	// ErrAuthorizerNotConfigured indicates the service is missing an authorizer.
	ErrAuthorizerNotConfigured = errors.New("meeting authorizer is not configured")
	// ErrIDGeneratorNotConfigured indicates an ID generator is required.
	ErrIDGeneratorNotConfigured = errors.New("meeting id generator is not configured")
	// ErrIDGeneratorExhausted indicates a fixed test ID sequence was exhausted.
	ErrIDGeneratorExhausted = errors.New("meeting id generator exhausted")

	// ErrOrgIDRequired indicates an organization id is required.
	ErrOrgIDRequired = errors.New("organization id is required")
	// ErrMeetingIDRequired indicates a meeting id is required.
	ErrMeetingIDRequired = errors.New("meeting id is required")
	// ErrItemIDRequired indicates an agenda item id is required.
	ErrItemIDRequired = errors.New("agenda item id is required")
	// ErrTitleRequired indicates a meeting title is required.
	ErrTitleRequired = errors.New("meeting title is required")

	// ErrNotFound indicates a requested record was not found.
	ErrNotFound = errors.New("record not found")
	// ErrTargetNotFound indicates the navigation target is not part of the
	// meeting's agenda.
	ErrTargetNotFound = errors.New("target agenda item is not part of the meeting")
	// ErrNoActiveItem indicates a relative navigation command was issued while
	// no agenda item is active.
	ErrNoActiveItem = errors.New("no agenda item is active")
	// ErrMultipleActiveItems indicates the stored agenda violates the
	// single-active-item rule. This is a data integrity failure, not a usage
	// error.
	ErrMultipleActiveItems = errors.New("multiple agenda items are active")
	// ErrConflict indicates the agenda changed concurrently and the command
	// was not applied.
	ErrConflict = errors.New("agenda changed concurrently")

	// ErrInvalidSection indicates an unknown agenda section name.
	ErrInvalidSection = errors.New("invalid agenda section")
	// ErrInvalidDuration indicates a non-positive agenda item duration.
	ErrInvalidDuration = errors.New("agenda item duration must be positive")
	// ErrDuplicateSortOrder indicates two agenda items share a sort order
	// within one meeting.
	ErrDuplicateSortOrder = errors.New("agenda sort orders must be unique per meeting")

	// ErrInvalidStatusTransition indicates the meeting status does not allow
	// the requested operation.
	ErrInvalidStatusTransition = errors.New("meeting status does not allow this operation")
	// ErrAgendaNotExhausted indicates a meeting cannot conclude while agenda
	// items remain open.
	ErrAgendaNotExhausted = errors.New("agenda still has open items")

	// ErrUnauthorized indicates the caller may not act on the meeting.
	ErrUnauthorized = errors.New("caller is not authorized for this meeting")
)
