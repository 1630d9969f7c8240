package main

import (
	"context"
	"net/http"
	"time"

	"github.com/JaimeStill/promptdex/internal/api"
	"github.com/JaimeStill/promptdex/internal/config"
	"github.com/JaimeStill/promptdex/internal/infrastructure"
	"github.com/JaimeStill/promptdex/pkg/handlers"
	"github.com/JaimeStill/promptdex/pkg/lifecycle"
	"github.com/JaimeStill/promptdex/pkg/module"
)

const readinessTimeout = 2 * time.Second

type Modules struct {
	API *module.Module
}

func NewModules(infra *infrastructure.Infrastructure, cfg *config.Config) (*Modules, error) {
	apiModule, err := api.NewModule(cfg, infra)
	if err != nil {
		return nil, err
	}

	return &Modules{API: apiModule}, nil
}

func (m *Modules) Mount(router *module.Router) {
	router.Mount(m.API)
}

type readiness struct {
	Status string                  `json:"status"`
	Checks []lifecycle.CheckResult `json:"checks"`
}

func buildRouter(infra *infrastructure.Infrastructure, version string) *module.Router {
	router := module.NewRouter()

	router.HandleNative("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		handlers.RespondJSON(w, http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})

	router.HandleNative("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		results, ok := infra.Lifecycle.Check(ctx)
		if !ok {
			handlers.RespondJSON(w, http.StatusServiceUnavailable, readiness{Status: "not ready", Checks: results})
			return
		}
		handlers.RespondJSON(w, http.StatusOK, readiness{Status: "ready", Checks: results})
	})

	return router
}
