package mcp

import (
	"flag"
	"testing"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("mcp", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.DBPath != "data/meeting.db" {
		t.Fatalf("expected default db path, got %q", cfg.DBPath)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("expected default log level info, got %q", cfg.LogLevel)
	}
	if cfg.LogFile != "" {
		t.Fatalf("expected empty log file, got %q", cfg.LogFile)
	}
}

func TestParseConfigOverrides(t *testing.T) {
	fs := flag.NewFlagSet("mcp", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-db-path", "/tmp/m.db", "-log-file", "/tmp/mcp.log"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.DBPath != "/tmp/m.db" {
		t.Fatalf("expected db path override, got %q", cfg.DBPath)
	}
	if cfg.LogFile != "/tmp/mcp.log" {
		t.Fatalf("expected log file override, got %q", cfg.LogFile)
	}
}

func TestParseConfigCredentialEnvOnly(t *testing.T) {
	t.Setenv("CADENCE_TEAM_MCP_GRANT", "grant-token")
	fs := flag.NewFlagSet("mcp", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Credential != "grant-token" {
		t.Fatalf("expected credential from env, got %q", cfg.Credential)
	}
	if fs.Lookup("credential") != nil {
		t.Fatal("credential must not be exposed as a flag")
	}
}
