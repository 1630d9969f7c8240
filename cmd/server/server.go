package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/JaimeStill/promptdex/internal/config"
	"github.com/JaimeStill/promptdex/internal/infrastructure"
)

type Server struct {
	infra   *infrastructure.Infrastructure
	modules *Modules
	http    *httpServer
}

func NewServer(cfg *config.Config) (*Server, error) {
	infra, err := infrastructure.New(cfg)
	if err != nil {
		return nil, err
	}

	modules, err := NewModules(infra, cfg)
	if err != nil {
		return nil, err
	}

	router := buildRouter(infra, cfg.Version)
	modules.Mount(router)

	infra.Logger.Info(
		"server initialized",
		"addr", cfg.Server.Addr(),
		"version", cfg.Version,
		"env", cfg.Env(),
		"auth", cfg.Auth.Mode,
		"cache", infra.Cache.Enabled(),
		"api", cfg.API.BasePath,
	)

	return &Server{
		infra:   infra,
		modules: modules,
		http:    newHTTPServer(&cfg.Server, router, infra.Logger),
	}, nil
}

func (s *Server) Start() error {
	s.infra.Logger.Info("starting service")

	if err := s.infra.Start(); err != nil {
		return err
	}

	if err := s.http.Start(s.infra.Lifecycle); err != nil {
		return err
	}

	go s.reportReadiness()

	return nil
}

// reportReadiness logs the first readiness result once startup hooks finish,
// naming each dependency that is not yet reachable.
func (s *Server) reportReadiness() {
	lc := s.infra.Lifecycle
	lc.WaitForStartup()

	ctx, cancel := context.WithTimeout(lc.Context(), readinessTimeout)
	defer cancel()

	results, ok := lc.Check(ctx)
	if ok {
		s.infra.Logger.Info("all subsystems ready", "checks", len(results))
		return
	}
	for _, r := range results {
		if !r.Healthy() {
			s.infra.Logger.Warn("dependency not ready", "check", r.Name, "error", r.Error)
		}
	}
}

func (s *Server) Shutdown(timeout time.Duration) error {
	s.infra.Logger.Info("initiating shutdown")
	return s.infra.Lifecycle.Shutdown(timeout)
}

func (s *Server) logger() *slog.Logger {
	return s.infra.Logger
}
