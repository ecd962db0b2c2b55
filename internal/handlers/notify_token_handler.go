package handlers

import (
	"net/http"

	"trusthaven/internal/services"
)

type NotifyTokenHandler struct {
	Service *services.PushService
}

type notifyTokenRequest struct {
	Token string `json:"token"`
}

// Register stores a device token for push notifications.
func (h *NotifyTokenHandler) Register(w http.ResponseWriter, r *http.Request) {
	auth, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req notifyTokenRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.Service.RegisterToken(r.Context(), auth.UserID, req.Token); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusCreated, "Token registered")
}

// Remove drops the device token named in the path.
func (h *NotifyTokenHandler) Remove(w http.ResponseWriter, r *http.Request) {
	auth, ok := requireUser(w, r)
	if !ok {
		return
	}
	if err := h.Service.RemoveToken(r.Context(), auth.UserID, getParam(r, "token")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
