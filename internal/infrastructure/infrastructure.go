// Package infrastructure provides core service initialization for application startup.
// It assembles the dependencies every domain system requires: logging,
// the database, the cache, and the token verifier.
package infrastructure

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/JaimeStill/promptdex/internal/config"
	"github.com/JaimeStill/promptdex/internal/identity"
	"github.com/JaimeStill/promptdex/pkg/cache"
	"github.com/JaimeStill/promptdex/pkg/database"
	"github.com/JaimeStill/promptdex/pkg/lifecycle"
	"github.com/JaimeStill/promptdex/pkg/logging"
)

// Infrastructure holds the core systems required by all domain modules.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Database  database.System
	Cache     cache.System
	Verifier  identity.Verifier

	logCloser io.Closer
}

// New creates an Infrastructure from the application configuration.
// It initializes all systems but does not start them; call Start separately.
func New(cfg *config.Config) (*Infrastructure, error) {
	logger, closer, err := logging.New(&cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("logging init failed: %w", err)
	}

	lc := lifecycle.New()

	db, err := database.New(&cfg.Database, logger)
	if err != nil {
		closer.Close()
		return nil, fmt.Errorf("database init failed: %w", err)
	}

	// Remote key sets refresh under this context for the life of the process.
	verifier, err := identity.New(lc.Context(), &cfg.Auth, logger)
	if err != nil {
		closer.Close()
		return nil, fmt.Errorf("identity init failed: %w", err)
	}

	return &Infrastructure{
		Lifecycle: lc,
		Logger:    logger,
		Database:  db,
		Cache:     cache.New(&cfg.Cache, logger),
		Verifier:  verifier,
		logCloser: closer,
	}, nil
}

// Start registers all infrastructure systems with the lifecycle coordinator.
func (i *Infrastructure) Start() error {
	if err := i.Database.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("database start failed: %w", err)
	}
	if err := i.Cache.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("cache start failed: %w", err)
	}

	if i.logCloser != nil {
		i.Lifecycle.OnShutdown(func() {
			<-i.Lifecycle.Context().Done()
			i.logCloser.Close()
		})
	}

	return nil
}
