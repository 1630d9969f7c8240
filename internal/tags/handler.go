package tags

import (
	"log/slog"
	"net/http"

	"github.com/JaimeStill/promptdex/pkg/handlers"
	"github.com/JaimeStill/promptdex/pkg/pagination"
	"github.com/JaimeStill/promptdex/pkg/routes"
)

// Handler provides HTTP endpoints for tag browsing.
type Handler struct {
	sys        System
	logger     *slog.Logger
	pagination pagination.Config
}

// NewHandler creates a tag Handler.
func NewHandler(sys System, logger *slog.Logger, pagination pagination.Config) *Handler {
	return &Handler{
		sys:        sys,
		logger:     logger.With("handler", "tags"),
		pagination: pagination,
	}
}

// Routes returns the route group for tag endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/tags",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
		},
	}
}

// List returns a page of tags, optionally filtered by ?search=.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, err := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	result, err := h.sys.List(r.Context(), page, r.URL.Query().Get("search"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}
