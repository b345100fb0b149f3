package handlers

import (
	"net/http"
	"strings"

	"catalog-cache/application/commands"
	"catalog-cache/application/commands/bus"
	"catalog-cache/application/queries"
	querybus "catalog-cache/application/queries/bus"
	"catalog-cache/pkg/common"
	apperrors "catalog-cache/pkg/errors"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// AdminHandler serves cache statistics and clearing
type AdminHandler struct {
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	errors     *apperrors.ErrorHandler
	logger     *zap.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	errorHandler *apperrors.ErrorHandler,
	logger *zap.Logger,
) *AdminHandler {
	return &AdminHandler{
		commandBus: commandBus,
		queryBus:   queryBus,
		errors:     errorHandler,
		logger:     logger,
	}
}

// DeletedResponse reports how many rows a clear removed
type DeletedResponse struct {
	Deleted int `json:"deleted"`
}

// Stats handles GET /admin/cache/stats
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	report, err := h.queryBus.Ask(r.Context(), queries.GetCacheStatsQuery{})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, r, http.StatusOK, report)
}

// ClearEntry handles DELETE /admin/cache/entries
func (h *AdminHandler) ClearEntry(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	maxResults, err := intParam(params.Get("maxResults"), "maxResults")
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	cmd := &commands.ClearCacheEntryCommand{
		SearchType: strings.TrimSpace(params.Get("type")),
		Query:      params.Get("q"),
		MaxResults: maxResults,
		Duration:   strings.ToLower(strings.TrimSpace(params.Get("duration"))),
		ChannelID:  strings.TrimSpace(params.Get("channelId")),
	}
	if err := h.commandBus.Send(r.Context(), cmd); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, r, http.StatusOK, DeletedResponse{Deleted: cmd.Deleted})
}

// ClearType handles DELETE /admin/cache
func (h *AdminHandler) ClearType(w http.ResponseWriter, r *http.Request) {
	cmd := &commands.ClearCacheCommand{SearchType: strings.TrimSpace(r.URL.Query().Get("type"))}
	if err := h.commandBus.Send(r.Context(), cmd); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, r, http.StatusOK, DeletedResponse{Deleted: cmd.Deleted})
}

// ClearReview handles DELETE /admin/reviews/{entityID}
func (h *AdminHandler) ClearReview(w http.ResponseWriter, r *http.Request) {
	cmd := &commands.ClearReviewCommand{EntityID: chi.URLParam(r, "entityID")}
	if err := h.commandBus.Send(r.Context(), cmd); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, r, http.StatusOK, DeletedResponse{Deleted: cmd.Deleted})
}

// ClearReviews handles DELETE /admin/reviews
func (h *AdminHandler) ClearReviews(w http.ResponseWriter, r *http.Request) {
	cmd := &commands.ClearReviewsCommand{}
	if err := h.commandBus.Send(r.Context(), cmd); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, r, http.StatusOK, DeletedResponse{Deleted: cmd.Deleted})
}
