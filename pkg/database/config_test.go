package database_test

import (
	"strings"
	"testing"

	"github.com/JaimeStill/promptdex/pkg/database"
)

func TestFinalizeDefaults(t *testing.T) {
	cfg := database.Config{Name: "testdb", User: "testuser"}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	tests := []struct {
		name     string
		got      any
		expected any
	}{
		{"host", cfg.Host, "localhost"},
		{"port", cfg.Port, 5432},
		{"ssl_mode", cfg.SSLMode, "disable"},
		{"application_name", cfg.ApplicationName, "promptdex"},
		{"statement_timeout", cfg.StatementTimeout, "30s"},
		{"max_open_conns", cfg.MaxOpenConns, 25},
		{"max_idle_conns", cfg.MaxIdleConns, 5},
		{"conn_max_lifetime", cfg.ConnMaxLifetime, "15m"},
		{"conn_timeout", cfg.ConnTimeout, "5s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("got %v, want %v", tt.got, tt.expected)
			}
		})
	}
}

func TestFinalizeEnvOverrides(t *testing.T) {
	t.Setenv("TEST_DB_HOST", "remotehost")
	t.Setenv("TEST_DB_PORT", "5433")
	t.Setenv("TEST_DB_NAME", "envdb")
	t.Setenv("TEST_DB_USER", "envuser")
	t.Setenv("TEST_DB_STATEMENT_TIMEOUT", "10s")
	t.Setenv("TEST_DB_MAX_OPEN", "50")

	env := &database.Env{
		Host:             "TEST_DB_HOST",
		Port:             "TEST_DB_PORT",
		Name:             "TEST_DB_NAME",
		User:             "TEST_DB_USER",
		StatementTimeout: "TEST_DB_STATEMENT_TIMEOUT",
		MaxOpenConns:     "TEST_DB_MAX_OPEN",
	}

	cfg := database.Config{}
	if err := cfg.Finalize(env); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	tests := []struct {
		name     string
		got      any
		expected any
	}{
		{"host", cfg.Host, "remotehost"},
		{"port", cfg.Port, 5433},
		{"name", cfg.Name, "envdb"},
		{"user", cfg.User, "envuser"},
		{"statement_timeout", cfg.StatementTimeout, "10s"},
		{"max_open_conns", cfg.MaxOpenConns, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("got %v, want %v", tt.got, tt.expected)
			}
		})
	}
}

func TestFinalizeValidation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     database.Config
		wantErr string
	}{
		{"missing name", database.Config{User: "u"}, "name required"},
		{"missing user", database.Config{Name: "n"}, "user required"},
		{"bad lifetime", database.Config{Name: "n", User: "u", ConnMaxLifetime: "forever"}, "conn_max_lifetime"},
		{"bad statement timeout", database.Config{Name: "n", User: "u", StatementTimeout: "soon"}, "statement_timeout"},
		{"idle over open", database.Config{Name: "n", User: "u", MaxOpenConns: 2, MaxIdleConns: 5}, "max_idle_conns"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Finalize(nil)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Finalize() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestMerge(t *testing.T) {
	base := database.Config{Host: "localhost", Port: 5432, Name: "base", User: "base"}
	base.Merge(&database.Config{Host: "db.internal", ApplicationName: "worker"})

	if base.Host != "db.internal" {
		t.Errorf("Host = %q, want db.internal", base.Host)
	}
	if base.Name != "base" {
		t.Errorf("Name = %q, want base to be preserved", base.Name)
	}
	if base.ApplicationName != "worker" {
		t.Errorf("ApplicationName = %q, want worker", base.ApplicationName)
	}
}

func TestDsn(t *testing.T) {
	cfg := database.Config{Host: "h", Port: 6543, Name: "db", User: "u", Password: "secret", SSLMode: "require"}
	dsn := cfg.Dsn()

	for _, part := range []string{"postgres://", "u:secret@", "h:6543", "/db", "sslmode=require"} {
		if !strings.Contains(dsn, part) {
			t.Errorf("Dsn() = %q, missing %q", dsn, part)
		}
	}
}
