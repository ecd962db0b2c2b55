package handlers

import (
	"net/http"

	"trusthaven/internal/services"
)

type FavoriteHandler struct {
	Service *services.FavoriteService
}

func (h *FavoriteHandler) Save(w http.ResponseWriter, r *http.Request) {
	auth, ok := requireUser(w, r)
	if !ok {
		return
	}
	if err := h.Service.Save(r.Context(), auth, getParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Listing saved")
}

func (h *FavoriteHandler) Remove(w http.ResponseWriter, r *http.Request) {
	auth, ok := requireUser(w, r)
	if !ok {
		return
	}
	if err := h.Service.Remove(r.Context(), auth.UserID, getParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *FavoriteHandler) List(w http.ResponseWriter, r *http.Request) {
	auth, ok := requireUser(w, r)
	if !ok {
		return
	}

	listings, err := h.Service.List(r.Context(), auth.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listings)
}
