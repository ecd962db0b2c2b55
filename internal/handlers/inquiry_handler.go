package handlers

import (
	"net/http"

	"trusthaven/internal/models"
	"trusthaven/internal/services"
)

type InquiryHandler struct {
	Service *services.InquiryService
}

// Contact handles the public contact form. Signed-in senders are recorded.
func (h *InquiryHandler) Contact(w http.ResponseWriter, r *http.Request) {
	var req models.InquiryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	var sender *models.AuthContext
	if auth, ok := UserFromContext(r.Context()); ok {
		sender = &auth
	}

	inquiry, err := h.Service.Contact(r.Context(), sender, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, inquiry)
}

func (h *InquiryHandler) AskAboutListing(w http.ResponseWriter, r *http.Request) {
	auth, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req models.InquiryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	inquiry, err := h.Service.AskAboutListing(r.Context(), auth, getParam(r, "id"), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, inquiry)
}

func (h *InquiryHandler) Sent(w http.ResponseWriter, r *http.Request) {
	auth, ok := requireUser(w, r)
	if !ok {
		return
	}
	inquiries, err := h.Service.Sent(r.Context(), auth.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, inquiries)
}

func (h *InquiryHandler) Received(w http.ResponseWriter, r *http.Request) {
	auth, ok := requireUser(w, r)
	if !ok {
		return
	}
	inquiries, err := h.Service.Received(r.Context(), auth.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, inquiries)
}

func (h *InquiryHandler) ContactMessages(w http.ResponseWriter, r *http.Request) {
	inquiries, err := h.Service.ContactMessages(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, inquiries)
}
