package meeting

import (
	"flag"
	"testing"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("meeting", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Addr != "localhost:8080" {
		t.Fatalf("expected default addr localhost:8080, got %q", cfg.Addr)
	}
	if cfg.DBPath != "data/meeting.db" {
		t.Fatalf("expected default db path, got %q", cfg.DBPath)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("expected default log level info, got %q", cfg.LogLevel)
	}
}

func TestParseConfigOverrides(t *testing.T) {
	fs := flag.NewFlagSet("meeting", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-addr", "127.0.0.1:9999", "-db-path", "/tmp/m.db", "-log-level", "debug"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Addr != "127.0.0.1:9999" {
		t.Fatalf("expected addr override, got %q", cfg.Addr)
	}
	if cfg.DBPath != "/tmp/m.db" {
		t.Fatalf("expected db path override, got %q", cfg.DBPath)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("expected log level override, got %q", cfg.LogLevel)
	}
}

func TestParseConfigEnv(t *testing.T) {
	t.Setenv("CADENCE_TEAM_MEETING_ADDR", "0.0.0.0:8443")
	fs := flag.NewFlagSet("meeting", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Addr != "0.0.0.0:8443" {
		t.Fatalf("expected env addr, got %q", cfg.Addr)
	}
}
