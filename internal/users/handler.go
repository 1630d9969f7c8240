package users

import (
	"log/slog"
	"net/http"

	"github.com/JaimeStill/promptdex/internal/identity"
	"github.com/JaimeStill/promptdex/pkg/handlers"
	"github.com/JaimeStill/promptdex/pkg/middleware"
	"github.com/JaimeStill/promptdex/pkg/routes"
)

// Handler provides HTTP endpoints for user operations.
type Handler struct {
	sys    System
	logger *slog.Logger
}

// NewHandler creates a user Handler.
func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "users"),
	}
}

// Routes returns the route group for user endpoints.
func (h *Handler) Routes() routes.Group {
	auth := []middleware.Func{identity.Require(h.logger)}

	return routes.Group{
		Prefix: "/users",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "", Handler: h.Register, Middleware: auth},
			{Method: "GET", Pattern: "/{username}", Handler: h.Find},
		},
	}
}

// Register creates a profile for the authenticated caller.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	u, err := h.sys.Register(r.Context(), identity.FromContext(r.Context()))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, u)
}

// Find returns the profile for a username.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	u, err := h.sys.Find(r.Context(), r.PathValue("username"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, u)
}
