// Package dispatcher parses dispatcher command flags and launches the
// delivery runtime.
package dispatcher

import (
	"context"
	"flag"
	"time"

	entrypoint "github.com/louisbranch/cadence.team/internal/platform/cmd"
	dispatcherserver "github.com/louisbranch/cadence.team/internal/services/dispatcher/app"
)

// Config holds dispatcher command configuration.
type Config struct {
	Port            int           `env:"CADENCE_TEAM_DISPATCHER_PORT" envDefault:"8089"`
	DBPath          string        `env:"CADENCE_TEAM_DISPATCHER_DB_PATH" envDefault:"data/meeting.db"`
	LogLevel        string        `env:"CADENCE_TEAM_DISPATCHER_LOG_LEVEL" envDefault:"info"`
	Consumer        string        `env:"CADENCE_TEAM_DISPATCHER_CONSUMER" envDefault:"dispatcher"`
	PollInterval    time.Duration `env:"CADENCE_TEAM_DISPATCHER_POLL_INTERVAL" envDefault:"2s"`
	LeaseTTL        time.Duration `env:"CADENCE_TEAM_DISPATCHER_LEASE_TTL" envDefault:"30s"`
	BatchSize       int           `env:"CADENCE_TEAM_DISPATCHER_BATCH_SIZE" envDefault:"25"`
	MaxAttempts     int           `env:"CADENCE_TEAM_DISPATCHER_MAX_ATTEMPTS" envDefault:"8"`
	RetryBackoff    time.Duration `env:"CADENCE_TEAM_DISPATCHER_RETRY_BACKOFF" envDefault:"5s"`
	RetryMaxDelay   time.Duration `env:"CADENCE_TEAM_DISPATCHER_RETRY_MAX_DELAY" envDefault:"5m"`
	WebhookEndpoint string        `env:"CADENCE_TEAM_DISPATCHER_WEBHOOK_ENDPOINT"`
	WebhookSecret   string        `env:"CADENCE_TEAM_DISPATCHER_WEBHOOK_SECRET"`
	RedisAddr       string        `env:"CADENCE_TEAM_DISPATCHER_REDIS_ADDR"`
	RedisPassword   string        `env:"CADENCE_TEAM_DISPATCHER_REDIS_PASSWORD"`
	RedisDB         int           `env:"CADENCE_TEAM_DISPATCHER_REDIS_DB" envDefault:"0"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The dispatcher health gRPC server port")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "The meeting SQLite database path")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	fs.StringVar(&cfg.Consumer, "consumer", cfg.Consumer, "Dispatch outbox consumer name")
	fs.DurationVar(&cfg.PollInterval, "poll-interval", cfg.PollInterval, "Dispatch outbox poll interval")
	fs.DurationVar(&cfg.LeaseTTL, "lease-ttl", cfg.LeaseTTL, "Dispatch outbox lease duration")
	fs.IntVar(&cfg.BatchSize, "batch-size", cfg.BatchSize, "Maximum dispatches leased per poll")
	fs.IntVar(&cfg.MaxAttempts, "max-attempts", cfg.MaxAttempts, "Maximum delivery attempts before dead-letter")
	fs.DurationVar(&cfg.RetryBackoff, "retry-backoff", cfg.RetryBackoff, "Base retry backoff delay")
	fs.DurationVar(&cfg.RetryMaxDelay, "retry-max-delay", cfg.RetryMaxDelay, "Maximum retry delay")
	fs.StringVar(&cfg.WebhookEndpoint, "webhook-endpoint", cfg.WebhookEndpoint, "Webhook sink endpoint URL")
	fs.StringVar(&cfg.RedisAddr, "redis-addr", cfg.RedisAddr, "Redis sink address")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the dispatcher runtime.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceDispatcher, func(context.Context) error {
		return dispatcherserver.Run(ctx, dispatcherserver.RuntimeConfig{
			Port:            cfg.Port,
			DBPath:          cfg.DBPath,
			LogLevel:        cfg.LogLevel,
			Consumer:        cfg.Consumer,
			PollInterval:    cfg.PollInterval,
			LeaseTTL:        cfg.LeaseTTL,
			BatchSize:       cfg.BatchSize,
			MaxAttempts:     cfg.MaxAttempts,
			RetryBackoff:    cfg.RetryBackoff,
			RetryMaxDelay:   cfg.RetryMaxDelay,
			WebhookEndpoint: cfg.WebhookEndpoint,
			WebhookSecret:   cfg.WebhookSecret,
			RedisAddr:       cfg.RedisAddr,
			RedisPassword:   cfg.RedisPassword,
			RedisDB:         cfg.RedisDB,
		})
	})
}
