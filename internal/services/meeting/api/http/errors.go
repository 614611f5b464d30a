package api

import (
	"errors"
	"net/http"

	apperrors "github.com/louisbranch/cadence.team/internal/platform/errors"
	"github.com/louisbranch/cadence.team/internal/services/meeting/domain"
)

type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeError maps domain and platform errors onto the JSON error envelope.
// Integrity violations log at error level: they mean a concurrency bug, not
// a bad request.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := errorCode(err)
	status := code.HTTPStatus()
	if errors.Is(err, domain.ErrMultipleActiveItems) {
		h.log.Error().
			Err(err).
			Str("path", r.URL.Path).
			Msg("agenda integrity violation")
	} else if status >= http.StatusInternalServerError {
		h.log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	writeJSON(w, status, errorResponse{Error: errorBody{
		Code:    string(code),
		Message: publicMessage(code, err),
	}})
}

func errorCode(err error) apperrors.Code {
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		return apperrors.CodeUnauthorized
	case errors.Is(err, domain.ErrNotFound):
		return apperrors.CodeNotFound
	case errors.Is(err, domain.ErrTargetNotFound):
		return apperrors.CodeAgendaTargetNotFound
	case errors.Is(err, domain.ErrNoActiveItem):
		return apperrors.CodeAgendaNoActiveItem
	case errors.Is(err, domain.ErrOrgIDRequired):
		return apperrors.CodeMeetingEmptyOrgID
	case errors.Is(err, domain.ErrTitleRequired):
		return apperrors.CodeMeetingTitleEmpty
	case errors.Is(err, domain.ErrMeetingIDRequired), errors.Is(err, domain.ErrItemIDRequired):
		return apperrors.CodeAgendaEmptyMeetingID
	case errors.Is(err, domain.ErrInvalidSection):
		return apperrors.CodeAgendaInvalidSection
	case errors.Is(err, domain.ErrInvalidDuration):
		return apperrors.CodeAgendaInvalidDuration
	case errors.Is(err, domain.ErrDuplicateSortOrder):
		return apperrors.CodeAgendaDuplicateSortOrder
	case errors.Is(err, domain.ErrInvalidStatusTransition):
		return apperrors.CodeMeetingInvalidStatusTransition
	case errors.Is(err, domain.ErrAgendaNotExhausted):
		return apperrors.CodeMeetingAgendaNotExhausted
	case errors.Is(err, domain.ErrConflict):
		return apperrors.CodeConflict
	case errors.Is(err, domain.ErrMultipleActiveItems):
		return apperrors.CodeAgendaMultipleActiveItems
	default:
		return apperrors.CodeUnknown
	}
}

// publicMessage keeps internal detail out of 5xx responses.
func publicMessage(code apperrors.Code, err error) string {
	if code.HTTPStatus() >= http.StatusInternalServerError {
		return "internal error"
	}
	return err.Error()
}
