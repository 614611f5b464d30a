// Package mcp parses MCP command flags and launches the stdio server.
package mcp

import (
	"context"
	"flag"
	"fmt"

	entrypoint "github.com/louisbranch/cadence.team/internal/platform/cmd"
	"github.com/louisbranch/cadence.team/internal/platform/logging"
	mcpservice "github.com/louisbranch/cadence.team/internal/services/mcp/service"
)

// Config holds MCP command configuration. The grant credential is
// environment-only so tokens never land in shell history.
type Config struct {
	DBPath     string `env:"CADENCE_TEAM_MCP_DB_PATH" envDefault:"data/meeting.db"`
	Credential string `env:"CADENCE_TEAM_MCP_GRANT"`
	LogLevel   string `env:"CADENCE_TEAM_MCP_LOG_LEVEL" envDefault:"info"`
	LogFile    string `env:"CADENCE_TEAM_MCP_LOG_FILE"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "The meeting SQLite database path")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	fs.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "Log file path (stderr when empty)")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the MCP stdio server.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceMCP, func(context.Context) error {
		logger, closeLogger, err := logging.New(cfg.LogLevel, cfg.LogFile)
		if err != nil {
			return fmt.Errorf("configure logging: %w", err)
		}
		defer closeLogger()

		return mcpservice.Run(ctx, mcpservice.Config{
			DBPath:     cfg.DBPath,
			Credential: cfg.Credential,
			Log:        logger.With().Str("cmp", "mcp").Logger(),
		})
	})
}
