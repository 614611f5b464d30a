package app

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/louisbranch/cadence.team/internal/platform/logging"
	"github.com/louisbranch/cadence.team/internal/services/dispatcher/domain"
	"github.com/louisbranch/cadence.team/internal/services/dispatcher/sinks"
	meetingsqlite "github.com/louisbranch/cadence.team/internal/services/meeting/storage/sqlite"
)

// RuntimeConfig controls dispatcher startup, sink wiring, and loop behavior.
type RuntimeConfig struct {
	Port            int
	DBPath          string
	LogLevel        string
	Consumer        string
	PollInterval    time.Duration
	LeaseTTL        time.Duration
	BatchSize       int
	MaxAttempts     int
	RetryBackoff    time.Duration
	RetryMaxDelay   time.Duration
	WebhookEndpoint string
	WebhookSecret   string
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
}

const (
	defaultDispatcherPort = 8089
	defaultDispatcherDB   = "data/meeting.db"
)

// Run starts dispatcher runtime dependencies and the delivery loop. The
// dispatcher reads the meeting service database directly; SQLite WAL mode
// lets both processes share the file.
func Run(ctx context.Context, cfg RuntimeConfig) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.Port <= 0 {
		cfg.Port = defaultDispatcherPort
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		cfg.DBPath = defaultDispatcherDB
	}

	logger, closeLogger, err := logging.New(cfg.LogLevel, "")
	if err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	defer closeLogger()
	log := logger.With().Str("cmp", "dispatcher").Logger()

	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create dispatcher storage dir: %w", err)
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

	sinkList, err := buildSinks(cfg)
	if err != nil {
		return err
	}

	loop := New(store, sinkList, Config{
		Consumer:     cfg.Consumer,
		PollInterval: cfg.PollInterval,
		LeaseTTL:     cfg.LeaseTTL,
		BatchSize:    cfg.BatchSize,
		Retry: domain.RetryPolicy{
			MaxAttempts: cfg.MaxAttempts,
			BaseBackoff: cfg.RetryBackoff,
			MaxBackoff:  cfg.RetryMaxDelay,
		},
	}, log, nil)

	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Port))
	if err != nil {
		return fmt.Errorf("listen on dispatcher port %d: %w", cfg.Port, err)
	}
	defer listener.Close()

	grpcServer := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus("dispatcher.runtime", grpc_health_v1.HealthCheckResponse_SERVING)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- grpcServer.Serve(listener)
	}()
	defer func() {
		healthServer.Shutdown()
		grpcServer.GracefulStop()
		<-serveErr
	}()

	log.Info().Stringer("addr", listener.Addr()).Msg("dispatcher listening")
	return loop.Run(ctx)
}

func buildSinks(cfg RuntimeConfig) ([]domain.Sink, error) {
	var sinkList []domain.Sink
	if strings.TrimSpace(cfg.WebhookEndpoint) != "" {
		webhook, err := sinks.NewWebhookSink(cfg.WebhookEndpoint, []byte(cfg.WebhookSecret), nil)
		if err != nil {
			return nil, fmt.Errorf("configure webhook sink: %w", err)
		}
		sinkList = append(sinkList, webhook)
	}
	if strings.TrimSpace(cfg.RedisAddr) != "" {
		client := redis.NewClient(&redis.Options{
			Addr:        cfg.RedisAddr,
			Password:    cfg.RedisPassword,
			DB:          cfg.RedisDB,
			DialTimeout: 5 * time.Second,
		})
		redisSink, err := sinks.NewRedisSink(client, 0, nil)
		if err != nil {
			return nil, fmt.Errorf("configure redis sink: %w", err)
		}
		sinkList = append(sinkList, redisSink)
	}
	if len(sinkList) == 0 {
		return nil, fmt.Errorf("dispatcher requires a webhook endpoint or a redis address")
	}
	return sinkList, nil
}
