// Package errors provides structured error handling shared by every service.
package errors

import (
	"net/http"

	"google.golang.org/grpc/codes"
)

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Meeting errors
	CodeMeetingEmptyOrgID              Code = "MEETING_EMPTY_ORG_ID"
	CodeMeetingTitleEmpty              Code = "MEETING_TITLE_EMPTY"
	CodeMeetingInvalidStatusTransition Code = "MEETING_INVALID_STATUS_TRANSITION"
	CodeMeetingAgendaNotExhausted      Code = "MEETING_AGENDA_NOT_EXHAUSTED"

	// Agenda errors
	CodeAgendaEmptyMeetingID      Code = "AGENDA_EMPTY_MEETING_ID"
	CodeAgendaInvalidSection      Code = "AGENDA_INVALID_SECTION"
	CodeAgendaInvalidDuration     Code = "AGENDA_INVALID_DURATION"
	CodeAgendaDuplicateSortOrder  Code = "AGENDA_DUPLICATE_SORT_ORDER"
	CodeAgendaNoActiveItem        Code = "AGENDA_NO_ACTIVE_ITEM"
	CodeAgendaMultipleActiveItems Code = "AGENDA_MULTIPLE_ACTIVE_ITEMS"
	CodeAgendaTargetNotFound      Code = "AGENDA_TARGET_NOT_FOUND"

	// Grant errors
	CodeGrantInvalid         Code = "GRANT_INVALID"
	CodeGrantExpired         Code = "GRANT_EXPIRED"
	CodeGrantMismatch        Code = "GRANT_MISMATCH"
	CodeGrantRoleDisallowsOp Code = "GRANT_ROLE_DISALLOWS_OPERATION"

	// Filter errors
	CodeFilterInvalid Code = "FILTER_INVALID"

	// API errors
	CodeAPIInvalidRequest Code = "API_INVALID_REQUEST"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"
	CodeConflict Code = "CONFLICT"

	// Authorization errors
	CodeUnauthorized Code = "UNAUTHORIZED"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// InvalidArgument - validation failures, bad input
	case CodeMeetingEmptyOrgID,
		CodeMeetingTitleEmpty,
		CodeAgendaEmptyMeetingID,
		CodeAgendaInvalidSection,
		CodeAgendaInvalidDuration,
		CodeFilterInvalid,
		CodeAPIInvalidRequest:
		return codes.InvalidArgument

	// FailedPrecondition - state doesn't allow operation
	case CodeMeetingInvalidStatusTransition,
		CodeMeetingAgendaNotExhausted,
		CodeAgendaNoActiveItem:
		return codes.FailedPrecondition

	// NotFound - resource doesn't exist
	case CodeNotFound,
		CodeAgendaTargetNotFound:
		return codes.NotFound

	// AlreadyExists - unique resource constraint
	case CodeAgendaDuplicateSortOrder:
		return codes.AlreadyExists

	// Aborted - concurrent modification lost the race
	case CodeConflict:
		return codes.Aborted

	// PermissionDenied - caller is not allowed to act
	case CodeUnauthorized,
		CodeGrantInvalid,
		CodeGrantExpired,
		CodeGrantMismatch,
		CodeGrantRoleDisallowsOp:
		return codes.PermissionDenied

	default:
		return codes.Internal
	}
}

// HTTPStatus maps domain codes to HTTP status codes for the JSON API.
func (c Code) HTTPStatus() int {
	switch c.GRPCCode() {
	case codes.InvalidArgument:
		return http.StatusBadRequest
	case codes.PermissionDenied:
		return http.StatusForbidden
	case codes.NotFound:
		return http.StatusNotFound
	case codes.AlreadyExists, codes.FailedPrecondition, codes.Aborted:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
