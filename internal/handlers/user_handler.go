package handlers

import (
	"net/http"

	"trusthaven/internal/models"
	"trusthaven/internal/services"
)

type UserHandler struct {
	Service *services.UserService
}

// Me returns the caller's auth context with listing references.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	auth, ok := requireUser(w, r)
	if !ok {
		return
	}

	me, err := h.Service.Me(r.Context(), auth.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, me)
}

func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	auth, ok := requireUser(w, r)
	if !ok {
		return
	}
	var upd models.ProfileUpdate
	if !decodeJSON(w, r, &upd) {
		return
	}

	profile, err := h.Service.UpdateProfile(r.Context(), auth.UserID, upd)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *UserHandler) Upgrade(w http.ResponseWriter, r *http.Request) {
	auth, ok := requireUser(w, r)
	if !ok {
		return
	}

	profile, err := h.Service.Upgrade(r.Context(), auth.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Service.ListUsers(r.Context(), models.Role(r.URL.Query().Get("role")))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *UserHandler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	auth, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req models.RoleChangeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	profile, err := h.Service.ChangeRole(r.Context(), auth, getParam(r, "id"), req.Role)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *UserHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	auth, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req models.StatusChangeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	profile, err := h.Service.SetStatus(r.Context(), auth, getParam(r, "id"), req.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}
