// Package api assembles the API module with all domain systems and route registration.
package api

import (
	"net/http"

	"github.com/JaimeStill/promptdex/internal/config"
	"github.com/JaimeStill/promptdex/internal/identity"
	"github.com/JaimeStill/promptdex/internal/infrastructure"
	"github.com/JaimeStill/promptdex/pkg/middleware"
	"github.com/JaimeStill/promptdex/pkg/module"
)

// NewModule creates the API module with all domain handlers and middleware.
// The identity middleware runs innermost so CORS preflights never need a token.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	runtime := NewRuntime(cfg, infra)
	domain := NewDomain(runtime)

	mux := http.NewServeMux()
	registerRoutes(mux, domain, runtime)

	m := module.New(cfg.API.BasePath, mux)
	m.Use(middleware.RequestID())
	m.Use(middleware.Recover(runtime.Logger))
	m.Use(middleware.Logger(runtime.Logger))
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(identity.Middleware(runtime.Verifier, runtime.Logger))

	return m, nil
}
