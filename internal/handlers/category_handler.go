package handlers

import (
	"net/http"

	"trusthaven/internal/models"
)

type CategoryHandler struct{}

func (h *CategoryHandler) GetAllCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.Categories)
}
