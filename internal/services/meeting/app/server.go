// Package server wires the meeting service runtime: SQLite storage, the
// progression engine behind the session facade, the dual-sink event
// emitter, grant-based authorization, and the HTTP JSON API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/louisbranch/cadence.team/internal/platform/logging"
	"github.com/louisbranch/cadence.team/internal/platform/timeouts"
	api "github.com/louisbranch/cadence.team/internal/services/meeting/api/http"
	"github.com/louisbranch/cadence.team/internal/services/meeting/domain"
	"github.com/louisbranch/cadence.team/internal/services/meeting/event"
	"github.com/louisbranch/cadence.team/internal/services/meeting/grants"
	"github.com/louisbranch/cadence.team/internal/services/meeting/storage"
	meetingsqlite "github.com/louisbranch/cadence.team/internal/services/meeting/storage/sqlite"
)

// RuntimeConfig controls meeting service startup.
type RuntimeConfig struct {
	Addr     string
	DBPath   string
	LogLevel string
}

const defaultMeetingDB = "data/meeting.db"

// Run starts the meeting service and blocks until the context is cancelled.
func Run(ctx context.Context, cfg RuntimeConfig) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.TrimSpace(cfg.Addr) == "" {
		return fmt.Errorf("listen address is required")
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		cfg.DBPath = defaultMeetingDB
	}

	logger, closeLogger, err := logging.New(cfg.LogLevel, "")
	if err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	defer closeLogger()
	log := logger.With().Str("cmp", "meeting").Logger()

	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create meeting storage dir: %w", err)
		}
	}
	store, err := meetingsqlite.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open meeting sqlite store: %w", err)
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msg("close meeting sqlite store")
		}
	}()

	grantCfg, err := grants.LoadConfigFromEnv(time.Now)
	if err != nil {
		return fmt.Errorf("load grant config: %w", err)
	}
	authorizer := grants.NewVerifier(grantCfg)

	handler := NewHandler(Deps{
		Meetings: store,
		Agendas:  store,
		Journal:  store,
		Outbox:   store,
	}, authorizer, log)

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: timeouts.ReadHeader,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- httpServer.ListenAndServe()
	}()
	log.Info().Str("addr", cfg.Addr).Msg("meeting server listening")

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve meeting api: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown meeting api: %w", err)
	}
	<-serveErr
	return nil
}

// Deps is the storage surface the runtime wires the facade over.
type Deps struct {
	Meetings storage.MeetingStore
	Agendas  storage.AgendaStore
	Journal  storage.JournalStore
	Outbox   storage.OutboxStore
}

// NewService wires the meeting facade over the given stores: the store
// adapter behind the progression engine and the dual-sink event emitter
// behind the events recorder.
func NewService(deps Deps, authorizer domain.Authorizer, log zerolog.Logger) *domain.Service {
	domainStore := newDomainStoreAdapter(deps.Meetings, deps.Agendas)
	emitter := event.NewEmitter(
		newJournalAdapter(deps.Journal),
		newOutboxQueueAdapter(deps.Outbox, nil, nil),
		log.With().Str("cmp", "emitter").Logger(),
		nil,
		nil,
	)
	return domain.NewService(domainStore, authorizer, newEventsRecorder(emitter), nil, nil)
}

// NewHandler builds the fully wired HTTP handler over the given stores.
// Split from Run so tests can serve the API against fakes or a temp store.
func NewHandler(deps Deps, authorizer domain.Authorizer, log zerolog.Logger) http.Handler {
	service := NewService(deps, authorizer, log)
	journal := newJournalReader(deps.Journal, authorizer)
	return api.NewHandler(service, journal, log.With().Str("cmp", "api").Logger()).Router()
}
