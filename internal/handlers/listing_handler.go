package handlers

import (
	"net/http"

	"trusthaven/internal/models"
	"trusthaven/internal/services"
)

type ListingHandler struct {
	Service *services.ListingService
}

// Search handles GET /listings with browse filters in the query string.
func (h *ListingHandler) Search(w http.ResponseWriter, r *http.Request) {
	filters, err := parseSearchFilters(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}

	page, err := h.Service.Search(r.Context(), filters)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *ListingHandler) Featured(w http.ResponseWriter, r *http.Request) {
	listings, err := h.Service.Featured(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listings)
}

// Get returns a listing. Hidden listings are only shown to their owner or a guardian.
func (h *ListingHandler) Get(w http.ResponseWriter, r *http.Request) {
	var viewer *models.AuthContext
	if auth, ok := UserFromContext(r.Context()); ok {
		viewer = &auth
	}

	listing, err := h.Service.Get(r.Context(), getParam(r, "id"), viewer)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

func (h *ListingHandler) Create(w http.ResponseWriter, r *http.Request) {
	auth, ok := requireUser(w, r)
	if !ok {
		return
	}
	var in models.ListingInput
	if !decodeJSON(w, r, &in) {
		return
	}

	listing, err := h.Service.Create(r.Context(), auth, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, listing)
}

func (h *ListingHandler) Update(w http.ResponseWriter, r *http.Request) {
	auth, ok := requireUser(w, r)
	if !ok {
		return
	}
	var in models.ListingInput
	if !decodeJSON(w, r, &in) {
		return
	}

	listing, err := h.Service.Update(r.Context(), auth, getParam(r, "id"), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

func (h *ListingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	auth, ok := requireUser(w, r)
	if !ok {
		return
	}
	if err := h.Service.Delete(r.Context(), auth, getParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UploadImages accepts multipart files under "images" or "images[]".
func (h *ListingHandler) UploadImages(w http.ResponseWriter, r *http.Request) {
	auth, ok := requireUser(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, services.MaxImageSize*services.MaxListingImages)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	headers := collectImageFiles(r.MultipartForm, "images", "images[]")
	if len(headers) == 0 {
		writeMessage(w, http.StatusBadRequest, "No images uploaded")
		return
	}
	files, err := readImageFiles(headers, services.MaxImageSize)
	if err != nil {
		writeError(w, r, err)
		return
	}

	images, err := h.Service.AddImages(r.Context(), auth, getParam(r, "id"), files)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"images": images})
}

func (h *ListingHandler) Mine(w http.ResponseWriter, r *http.Request) {
	auth, ok := requireUser(w, r)
	if !ok {
		return
	}

	listings, err := h.Service.Mine(r.Context(), auth.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listings)
}

func (h *ListingHandler) Pending(w http.ResponseWriter, r *http.Request) {
	listings, err := h.Service.Pending(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listings)
}

func (h *ListingHandler) Moderate(w http.ResponseWriter, r *http.Request) {
	var req models.ModerationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	listing, err := h.Service.Moderate(r.Context(), getParam(r, "id"), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}
