package server

import (
	"context"
	"strings"

	"github.com/louisbranch/cadence.team/internal/services/meeting/core/filter"
	"github.com/louisbranch/cadence.team/internal/services/meeting/domain"
	"github.com/louisbranch/cadence.team/internal/services/meeting/storage"
)

const (
	defaultEventPageSize = 50
	maxEventPageSize     = 200
)

// journalReader serves authorized, filtered reads over the audit journal.
type journalReader struct {
	store storage.JournalStore
	authz domain.Authorizer
}

func newJournalReader(store storage.JournalStore, authz domain.Authorizer) *journalReader {
	return &journalReader{store: store, authz: authz}
}

// ListEvents authorizes the caller for the organization, translates the
// AIP-160 filter, and returns one journal page newest-first.
func (r *journalReader) ListEvents(ctx context.Context, credential, orgID string, pageSize int, pageToken, filterStr string) (storage.EventPage, error) {
	if r == nil || r.store == nil {
		return storage.EventPage{}, domain.ErrStoreNotConfigured
	}
	if r.authz == nil {
		return storage.EventPage{}, domain.ErrAuthorizerNotConfigured
	}
	orgID = strings.TrimSpace(orgID)
	if orgID == "" {
		return storage.EventPage{}, domain.ErrOrgIDRequired
	}
	if _, err := r.authz.Authorize(ctx, credential, orgID); err != nil {
		return storage.EventPage{}, err
	}

	condition, err := filter.ParseEventFilter(filterStr)
	if err != nil {
		return storage.EventPage{}, err
	}

	switch {
	case pageSize <= 0:
		pageSize = defaultEventPageSize
	case pageSize > maxEventPageSize:
		pageSize = maxEventPageSize
	}

	return r.store.ListEvents(ctx, storage.ListEventsRequest{
		OrgID:        orgID,
		PageSize:     pageSize,
		PageToken:    strings.TrimSpace(pageToken),
		FilterClause: condition.Clause,
		FilterParams: condition.Params,
	})
}
