// Package service hosts the MCP server for meeting coordination over stdio
// transport, wired directly onto the meeting facade and its SQLite store.
package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"

	"github.com/louisbranch/cadence.team/internal/services/mcp/domain"
	meetingapp "github.com/louisbranch/cadence.team/internal/services/meeting/app"
	"github.com/louisbranch/cadence.team/internal/services/meeting/grants"
	meetingsqlite "github.com/louisbranch/cadence.team/internal/services/meeting/storage/sqlite"
)

const (
	serverName = "cadence.team MCP"
	// serverVersion identifies the MCP server version.
	serverVersion = "0.1.0"
)

// Config configures the MCP server.
type Config struct {
	DBPath     string
	Credential string
	Log        zerolog.Logger
}

// Server hosts the MCP server over the meeting facade.
type Server struct {
	mcpServer *mcp.Server
	store     *meetingsqlite.Store
}

// New creates a configured MCP server backed by the meeting SQLite store.
// The store is shared with the meeting service process through WAL mode.
func New(cfg Config) (*Server, error) {
	if strings.TrimSpace(cfg.DBPath) == "" {
		return nil, fmt.Errorf("meeting database path is required")
	}
	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create meeting storage dir: %w", err)
		}
	}
	store, err := meetingsqlite.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open meeting sqlite store: %w", err)
	}

	grantCfg, err := grants.LoadConfigFromEnv(time.Now)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("load grant config: %w", err)
	}
	authorizer := grants.NewVerifier(grantCfg)

	service := meetingapp.NewService(meetingapp.Deps{
		Meetings: store,
		Agendas:  store,
		Journal:  store,
		Outbox:   store,
	}, authorizer, cfg.Log)

	credential := func() string { return cfg.Credential }
	mcpServer := newMCPServer(service, credential)

	return &Server{mcpServer: mcpServer, store: store}, nil
}

// newMCPServer registers the meeting tools and agenda resource on a fresh
// MCP server. Split from New so tests can register against a fake facade.
func newMCPServer(service domain.MeetingService, credential domain.CredentialSource) *mcp.Server {
	mcpServer := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil)

	mcp.AddTool(mcpServer, domain.MeetingCreateTool(), domain.MeetingCreateHandler(service, credential))
	mcp.AddTool(mcpServer, domain.MeetingListTool(), domain.MeetingListHandler(service, credential))
	mcp.AddTool(mcpServer, domain.MeetingAgendaTool(), domain.MeetingAgendaHandler(service, credential))
	mcp.AddTool(mcpServer, domain.AgendaNavigateTool(), domain.AgendaNavigateHandler(service, credential))
	mcp.AddTool(mcpServer, domain.AgendaNextTool(), domain.AgendaNextHandler(service, credential))
	mcp.AddTool(mcpServer, domain.AgendaPreviousTool(), domain.AgendaPreviousHandler(service, credential))
	mcp.AddTool(mcpServer, domain.AgendaNotesTool(), domain.AgendaNotesHandler(service, credential))
	mcp.AddTool(mcpServer, domain.MeetingConcludeTool(), domain.MeetingConcludeHandler(service, credential))

	mcpServer.AddResourceTemplate(domain.AgendaResourceTemplate(), domain.AgendaResourceHandler(service, credential))

	return mcpServer
}

// Serve starts the MCP server on stdio and blocks until it stops or the
// context ends.
func (s *Server) Serve(ctx context.Context) error {
	if s == nil || s.mcpServer == nil {
		return fmt.Errorf("MCP server is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	err := s.mcpServer.Run(ctx, &mcp.StdioTransport{})
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		err = nil
	}
	closeErr := s.Close()
	if closeErr != nil {
		if err == nil {
			return fmt.Errorf("close meeting store: %w", closeErr)
		}
		return fmt.Errorf("serve MCP: %v; close meeting store: %w", err, closeErr)
	}
	if err != nil {
		return fmt.Errorf("serve MCP: %w", err)
	}
	return nil
}

// Close releases the SQLite store held by the server.
func (s *Server) Close() error {
	if s == nil || s.store == nil {
		return nil
	}
	if err := s.store.Close(); err != nil {
		return err
	}
	s.store = nil
	return nil
}

// Run is the service entrypoint for MCP and blocks until context
// cancellation.
func Run(ctx context.Context, cfg Config) error {
	server, err := New(cfg)
	if err != nil {
		return err
	}
	return server.Serve(ctx)
}
