package prompts

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/JaimeStill/promptdex/internal/identity"
	"github.com/JaimeStill/promptdex/pkg/handlers"
	"github.com/JaimeStill/promptdex/pkg/middleware"
	"github.com/JaimeStill/promptdex/pkg/pagination"
	"github.com/JaimeStill/promptdex/pkg/routes"
)

// Handler provides HTTP endpoints for prompt operations.
type Handler struct {
	sys          System
	logger       *slog.Logger
	pagination   pagination.Config
	maxBodyBytes int64
}

// NewHandler creates a Handler with the given system, logger, pagination
// config, and request body limit.
func NewHandler(
	sys System,
	logger *slog.Logger,
	pagination pagination.Config,
	maxBodyBytes int64,
) *Handler {
	return &Handler{
		sys:          sys,
		logger:       logger.With("handler", "prompts"),
		pagination:   pagination,
		maxBodyBytes: maxBodyBytes,
	}
}

// Routes returns the route group definition for prompt endpoints.
func (h *Handler) Routes() routes.Group {
	auth := []middleware.Func{identity.Require(h.logger)}

	return routes.Group{
		Prefix: "/prompts",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "POST", Pattern: "/search", Handler: h.Search},
			{Method: "GET", Pattern: "/bookmarks", Handler: h.Bookmarked, Middleware: auth},
			{Method: "GET", Pattern: "/{id}", Handler: h.Find},
			{Method: "POST", Pattern: "", Handler: h.Create, Middleware: auth},
			{Method: "PUT", Pattern: "/{id}", Handler: h.Update, Middleware: auth},
			{Method: "PUT", Pattern: "/{id}/tags", Handler: h.UpdateTags, Middleware: auth},
			{Method: "DELETE", Pattern: "/{id}", Handler: h.Delete, Middleware: auth},
			{Method: "POST", Pattern: "/{id}/reviews", Handler: h.AddReview, Middleware: auth},
			{Method: "DELETE", Pattern: "/{id}/reviews/{review_id}", Handler: h.DeleteReview, Middleware: auth},
			{Method: "PUT", Pattern: "/{id}/bookmark", Handler: h.AddBookmark, Middleware: auth},
			{Method: "DELETE", Pattern: "/{id}/bookmark", Handler: h.RemoveBookmark, Middleware: auth},
		},
	}
}

// List returns a page of prompts filtered by query parameters.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, err := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	req := SearchRequest{
		PageRequest: page,
		Filters:     FiltersFromQuery(r.URL.Query()),
	}

	h.search(w, r, req)
}

// Search returns a page of prompts matching a JSON SearchRequest body.
// An omitted page_size takes the configured default.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	req := SearchRequest{
		PageRequest: pagination.PageRequest{PageSize: h.pagination.DefaultPageSize},
	}
	if err := handlers.DecodeJSON(w, r, h.maxBodyBytes, &req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	h.search(w, r, req)
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request, req SearchRequest) {
	result, err := h.sys.Search(r.Context(), req, identity.FromContext(r.Context()))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Bookmarked returns a page of the caller's bookmarked prompts.
func (h *Handler) Bookmarked(w http.ResponseWriter, r *http.Request) {
	page, err := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	caller := identity.FromContext(r.Context())
	result, err := h.sys.Bookmarked(r.Context(), caller.Username, page)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Find returns a single prompt by its UUID path parameter.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	summary, err := h.sys.Find(r.Context(), id, identity.FromContext(r.Context()))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, summary)
}

// Create adds a prompt authored by the caller.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var cmd CreateCommand
	if err := handlers.DecodeJSON(w, r, h.maxBodyBytes, &cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	summary, err := h.sys.Create(r.Context(), cmd, identity.FromContext(r.Context()))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, summary)
}

// Update replaces a prompt's fields.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	var cmd UpdateCommand
	if err := handlers.DecodeJSON(w, r, h.maxBodyBytes, &cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	summary, err := h.sys.Update(r.Context(), id, cmd, identity.FromContext(r.Context()))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, summary)
}

// UpdateTags replaces a prompt's tag set.
func (h *Handler) UpdateTags(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	var cmd TagsCommand
	if err := handlers.DecodeJSON(w, r, h.maxBodyBytes, &cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	summary, err := h.sys.UpdateTags(r.Context(), id, cmd.Tags, identity.FromContext(r.Context()))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, summary)
}

// Delete removes a prompt and its reviews.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.sys.Delete(r.Context(), id, identity.FromContext(r.Context())); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondNoContent(w)
}

// AddReview rates a prompt as the caller.
func (h *Handler) AddReview(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	var cmd ReviewCommand
	if err := handlers.DecodeJSON(w, r, h.maxBodyBytes, &cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	summary, err := h.sys.AddReview(r.Context(), id, cmd, identity.FromContext(r.Context()))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, summary)
}

// DeleteReview removes one of the caller's reviews.
func (h *Handler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	reviewID, ok := h.pathID(w, r, "review_id")
	if !ok {
		return
	}

	summary, err := h.sys.DeleteReview(r.Context(), id, reviewID, identity.FromContext(r.Context()))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, summary)
}

// AddBookmark bookmarks a prompt for the caller.
func (h *Handler) AddBookmark(w http.ResponseWriter, r *http.Request) {
	h.bookmark(w, r, h.sys.AddBookmark)
}

// RemoveBookmark removes the caller's bookmark, if any.
func (h *Handler) RemoveBookmark(w http.ResponseWriter, r *http.Request) {
	h.bookmark(w, r, h.sys.RemoveBookmark)
}

func (h *Handler) bookmark(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, id uuid.UUID, username string) error,
) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	caller := identity.FromContext(r.Context())
	if err := op(r.Context(), id, caller.Username); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondNoContent(w)
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, errors.Join(ErrInvalidArgument, err))
		return uuid.Nil, false
	}
	return id, true
}
