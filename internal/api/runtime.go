package api

import (
	"github.com/JaimeStill/promptdex/internal/config"
	"github.com/JaimeStill/promptdex/internal/infrastructure"
	"github.com/JaimeStill/promptdex/pkg/pagination"
)

// Runtime extends Infrastructure with API-specific configuration.
type Runtime struct {
	*infrastructure.Infrastructure
	Pagination   pagination.Config
	MaxBodyBytes int64
}

// NewRuntime creates an API runtime with a module-scoped logger.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) *Runtime {
	return &Runtime{
		Infrastructure: &infrastructure.Infrastructure{
			Lifecycle: infra.Lifecycle,
			Logger:    infra.Logger.With("module", "api"),
			Database:  infra.Database,
			Cache:     infra.Cache,
			Verifier:  infra.Verifier,
		},
		Pagination:   cfg.API.Pagination,
		MaxBodyBytes: cfg.API.MaxBodyBytes,
	}
}
