// Package meeting parses meeting service flags and launches the runtime.
package meeting

import (
	"context"
	"flag"

	entrypoint "github.com/louisbranch/cadence.team/internal/platform/cmd"
	meetingserver "github.com/louisbranch/cadence.team/internal/services/meeting/app"
)

// Config holds meeting service command configuration.
type Config struct {
	Addr     string `env:"CADENCE_TEAM_MEETING_ADDR"      envDefault:"localhost:8080"`
	DBPath   string `env:"CADENCE_TEAM_MEETING_DB_PATH"   envDefault:"data/meeting.db"`
	LogLevel string `env:"CADENCE_TEAM_MEETING_LOG_LEVEL" envDefault:"info"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "The meeting HTTP API listen address")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "The meeting SQLite database path")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the meeting service runtime.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceMeeting, func(context.Context) error {
		return meetingserver.Run(ctx, meetingserver.RuntimeConfig{
			Addr:     cfg.Addr,
			DBPath:   cfg.DBPath,
			LogLevel: cfg.LogLevel,
		})
	})
}
