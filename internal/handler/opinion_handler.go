package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gacetapress/gaceta/internal/model"
)

// OpinionStoreInterface is the opinion persistence surface the handler
// needs.
type OpinionStoreInterface interface {
	List(limit int) ([]model.Opinion, error)
	Add(op model.Opinion) (model.Opinion, error)
}

// OpinionHandler serves the reader opinion endpoints.
type OpinionHandler struct {
	store     OpinionStoreInterface
	listLimit int
}

// NewOpinionHandler creates an OpinionHandler. listLimit caps how many
// opinions GET returns.
func NewOpinionHandler(store OpinionStoreInterface, listLimit int) *OpinionHandler {
	return &OpinionHandler{
		store:     store,
		listLimit: listLimit,
	}
}

// addOpinionRequest is the opinion submission body.
type addOpinionRequest struct {
	Text   string `json:"text"`
	Author string `json:"author"`
}

// ListOpinions returns the latest opinions, newest first.
// GET /api/opinion
func (h *OpinionHandler) ListOpinions(w http.ResponseWriter, r *http.Request) {
	opinions, err := h.store.List(h.listLimit)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string][]model.Opinion{
		"opinions": emptyIfNil(opinions),
	})
}

// AddOpinion stores one reader opinion.
// POST /api/opinion
func (h *OpinionHandler) AddOpinion(w http.ResponseWriter, r *http.Request) {
	var req addOpinionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     model.ErrCodeInvalidRequest,
			Message:  "failed to parse request body",
			Category: "validation",
			Action:   "Send the opinion as valid JSON.",
		})
		return
	}

	stored, err := h.store.Add(model.Opinion{
		Text:   req.Text,
		Author: req.Author,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, stored)
}
