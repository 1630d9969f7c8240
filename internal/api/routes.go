package api

import (
	"net/http"

	"github.com/JaimeStill/promptdex/pkg/routes"
)

func registerRoutes(mux *http.ServeMux, domain *Domain, runtime *Runtime) {
	routes.Register(
		mux,
		domain.Tags.Handler().Routes(),
		domain.Users.Handler().Routes(),
		domain.Prompts.Handler(runtime.MaxBodyBytes).Routes(),
	)
}
