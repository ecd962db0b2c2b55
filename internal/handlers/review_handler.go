package handlers

import (
	"net/http"

	"trusthaven/internal/models"
	"trusthaven/internal/services"
)

type ReviewHandler struct {
	Service *services.ReviewService
}

func (h *ReviewHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	auth, ok := requireUser(w, r)
	if !ok {
		return
	}
	var in models.ReviewInput
	if !decodeJSON(w, r, &in) {
		return
	}

	review, err := h.Service.CreateReview(r.Context(), auth, getParam(r, "id"), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, review)
}

func (h *ReviewHandler) GetReviewsByListingID(w http.ResponseWriter, r *http.Request) {
	var viewer *models.AuthContext
	if auth, ok := UserFromContext(r.Context()); ok {
		viewer = &auth
	}

	reviews, err := h.Service.GetReviewsByListingID(r.Context(), getParam(r, "id"), viewer)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reviews)
}

func (h *ReviewHandler) UpdateReview(w http.ResponseWriter, r *http.Request) {
	auth, ok := requireUser(w, r)
	if !ok {
		return
	}
	var in models.ReviewInput
	if !decodeJSON(w, r, &in) {
		return
	}

	review, err := h.Service.UpdateReview(r.Context(), auth, getParam(r, "id"), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, review)
}

func (h *ReviewHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	auth, ok := requireUser(w, r)
	if !ok {
		return
	}
	if err := h.Service.DeleteReview(r.Context(), auth, getParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
