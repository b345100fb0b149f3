package handlers

import (
	"net/http"

	"catalog-cache/application/queries"
	querybus "catalog-cache/application/queries/bus"
	"catalog-cache/pkg/common"
	apperrors "catalog-cache/pkg/errors"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const maxReviewBody = 64 << 10

// ReviewHandler serves content reviews
type ReviewHandler struct {
	queryBus *querybus.QueryBus
	errors   *apperrors.ErrorHandler
	logger   *zap.Logger
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(queryBus *querybus.QueryBus, errorHandler *apperrors.ErrorHandler, logger *zap.Logger) *ReviewHandler {
	return &ReviewHandler{
		queryBus: queryBus,
		errors:   errorHandler,
		logger:   logger,
	}
}

// ReviewRequest is the body of POST /reviews/{entityID}
type ReviewRequest struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	ChannelTitle string `json:"channelTitle"`
	Refresh      bool   `json:"refresh"`
}

// GetReview handles POST /reviews/{entityID}
func (h *ReviewHandler) GetReview(w http.ResponseWriter, r *http.Request) {
	var req ReviewRequest
	if err := common.ParseJSONBody(w, r, &req, maxReviewBody); err != nil {
		h.errors.Handle(w, r, apperrors.NewValidationError("Invalid request body: "+err.Error()))
		return
	}

	result, err := h.queryBus.Ask(r.Context(), queries.GetContentReviewQuery{
		EntityID:     chi.URLParam(r, "entityID"),
		Title:        req.Title,
		Description:  req.Description,
		ChannelTitle: req.ChannelTitle,
		ForceRefresh: req.Refresh,
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, r, http.StatusOK, result)
}
