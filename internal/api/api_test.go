package api_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/JaimeStill/promptdex/internal/api"
	"github.com/JaimeStill/promptdex/internal/config"
	"github.com/JaimeStill/promptdex/internal/identity"
	"github.com/JaimeStill/promptdex/internal/infrastructure"
	"github.com/JaimeStill/promptdex/pkg/database"
	"github.com/JaimeStill/promptdex/pkg/logging"
	"github.com/JaimeStill/promptdex/pkg/middleware"
	"github.com/JaimeStill/promptdex/pkg/pagination"
)

func validConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     "1m",
			WriteTimeout:    "30s",
			ShutdownTimeout: "30s",
		},
		Database: database.Config{
			Host:            "localhost",
			Port:            5432,
			Name:            "promptdex",
			User:            "promptdex",
			Password:        "promptdex",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: "15m",
			ConnTimeout:     "5s",
		},
		Auth: identity.Config{
			Mode:          identity.ModeHMAC,
			Secret:        "0123456789abcdef0123456789abcdef",
			UsernameClaim: "preferred_username",
		},
		Logging: logging.Config{Level: "error", Format: "text"},
		API: config.APIConfig{
			BasePath:     "/api",
			MaxBodyBytes: 1 << 20,
			CORS: middleware.CORSConfig{
				Enabled:        true,
				Origins:        []string{"http://localhost:3000"},
				AllowedMethods: []string{"GET", "POST", "PUT", "DELETE"},
				AllowedHeaders: []string{"Authorization", "Content-Type"},
			},
			Pagination: pagination.Config{
				DefaultPageSize: 20,
				MaxPageSize:     100,
			},
		},
		ShutdownTimeout: "30s",
		Version:         "0.1.0",
	}
}

func setupInfra(t *testing.T, cfg *config.Config) *infrastructure.Infrastructure {
	t.Helper()
	infra, err := infrastructure.New(cfg)
	if err != nil {
		t.Fatalf("infrastructure.New() error = %v", err)
	}
	return infra
}

func TestNewModule(t *testing.T) {
	cfg := validConfig()

	m, err := api.NewModule(cfg, setupInfra(t, cfg))
	if err != nil {
		t.Fatalf("NewModule() error = %v", err)
	}

	if m.Prefix() != "/api" {
		t.Errorf("prefix: got %s, want /api", m.Prefix())
	}
}

func TestNewRuntime(t *testing.T) {
	cfg := validConfig()
	runtime := api.NewRuntime(cfg, setupInfra(t, cfg))

	if runtime.Pagination.DefaultPageSize != 20 {
		t.Errorf("pagination default page size: got %d, want 20", runtime.Pagination.DefaultPageSize)
	}
	if runtime.Pagination.MaxPageSize != 100 {
		t.Errorf("pagination max page size: got %d, want 100", runtime.Pagination.MaxPageSize)
	}
	if runtime.MaxBodyBytes != 1<<20 {
		t.Errorf("max body bytes: got %d, want %d", runtime.MaxBodyBytes, 1<<20)
	}
	if runtime.Logger == nil {
		t.Error("runtime logger is nil")
	}
	if runtime.Database == nil {
		t.Error("runtime database is nil")
	}
	if runtime.Cache == nil {
		t.Error("runtime cache is nil")
	}
	if runtime.Verifier == nil {
		t.Error("runtime verifier is nil")
	}
	if runtime.Lifecycle == nil {
		t.Error("runtime lifecycle is nil")
	}
}

func TestNewDomain(t *testing.T) {
	cfg := validConfig()
	domain := api.NewDomain(api.NewRuntime(cfg, setupInfra(t, cfg)))

	if domain.Tags == nil || domain.Users == nil || domain.Prompts == nil {
		t.Fatalf("domain = %+v, want all systems set", domain)
	}
}

// These requests are rejected before any handler reaches the database.
func TestModuleRouting(t *testing.T) {
	cfg := validConfig()
	m, err := api.NewModule(cfg, setupInfra(t, cfg))
	if err != nil {
		t.Fatalf("NewModule() error = %v", err)
	}

	tests := []struct {
		name   string
		method string
		path   string
		auth   string
		body   string
		want   int
	}{
		{"malformed prompt id", "GET", "/api/prompts/not-a-uuid", "", "", http.StatusBadRequest},
		{"anonymous create", "POST", "/api/prompts", "", `{"title":"t","prompt_text":"x"}`, http.StatusUnauthorized},
		{"anonymous register", "POST", "/api/users", "", "", http.StatusUnauthorized},
		{"invalid bearer token", "GET", "/api/prompts", "Bearer garbage", "", http.StatusUnauthorized},
		{"non-bearer scheme", "GET", "/api/tags", "Basic dXNlcjpwYXNz", "", http.StatusUnauthorized},
		{"unknown route", "GET", "/api/unknown", "", "", http.StatusNotFound},
		{"bad page size", "GET", "/api/tags?page_size=x", "", "", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}
			rec := httptest.NewRecorder()

			m.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body.String())
			}
			if rec.Header().Get(middleware.RequestIDHeader) == "" {
				t.Error("missing request id header")
			}
		})
	}
}

func TestModulePreflight(t *testing.T) {
	cfg := validConfig()
	m, err := api.NewModule(cfg, setupInfra(t, cfg))
	if err != nil {
		t.Fatalf("NewModule() error = %v", err)
	}

	req := httptest.NewRequest("OPTIONS", "/api/prompts", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()

	m.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}
