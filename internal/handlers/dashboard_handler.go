package handlers

import (
	"net/http"

	"trusthaven/internal/services"
)

type DashboardHandler struct {
	Service *services.DashboardService
}

// Dashboard renders the caller's role dashboard.
func (h *DashboardHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	auth, ok := requireUser(w, r)
	if !ok {
		return
	}

	dashboard, err := h.Service.Dashboard(r.Context(), auth)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dashboard)
}
