package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"catalog-cache/application/queries"
	querybus "catalog-cache/application/queries/bus"
	"catalog-cache/pkg/common"
	apperrors "catalog-cache/pkg/errors"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CatalogHandler serves the cached catalog search endpoints
type CatalogHandler struct {
	queryBus *querybus.QueryBus
	errors   *apperrors.ErrorHandler
	logger   *zap.Logger
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(queryBus *querybus.QueryBus, errorHandler *apperrors.ErrorHandler, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		queryBus: queryBus,
		errors:   errorHandler,
		logger:   logger,
	}
}

// SearchChannels handles GET /catalog/channels
func (h *CatalogHandler) SearchChannels(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	maxResults, err := intParam(params.Get("maxResults"), "maxResults")
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	h.ask(w, r, queries.SearchChannelsQuery{
		Query:        strings.TrimSpace(params.Get("q")),
		MaxResults:   maxResults,
		ForceRefresh: boolParam(params.Get("refresh")),
	})
}

// SearchVideos handles GET /catalog/videos
func (h *CatalogHandler) SearchVideos(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	maxResults, err := intParam(params.Get("maxResults"), "maxResults")
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	h.ask(w, r, queries.SearchVideosQuery{
		Query:        strings.TrimSpace(params.Get("q")),
		MaxResults:   maxResults,
		Duration:     strings.ToLower(strings.TrimSpace(params.Get("duration"))),
		ChannelID:    strings.TrimSpace(params.Get("channelId")),
		ForceRefresh: boolParam(params.Get("refresh")),
	})
}

// ChannelVideos handles GET /catalog/channels/{channelID}/videos
func (h *CatalogHandler) ChannelVideos(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	maxVideos, err := intParam(params.Get("maxVideos"), "maxVideos")
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	h.ask(w, r, queries.GetChannelVideosQuery{
		ChannelID:    chi.URLParam(r, "channelID"),
		MaxVideos:    maxVideos,
		ForceRefresh: boolParam(params.Get("refresh")),
	})
}

// ask dispatches q and writes the result. Soft upstream failures arrive as
// results with Error set and are still 200s.
func (h *CatalogHandler) ask(w http.ResponseWriter, r *http.Request, q querybus.Query) {
	result, err := h.queryBus.Ask(r.Context(), q)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, r, http.StatusOK, result)
}

func intParam(raw, name string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.NewValidationError(name + " must be an integer")
	}
	return n, nil
}

func boolParam(raw string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(raw))
	return err == nil && b
}
