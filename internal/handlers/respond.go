package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"trusthaven/internal/models"
)

type errorResponse struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode response: %v", err)
	}
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Message: message})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// decodeOptionalJSON is decodeJSON for endpoints whose body may be empty.
func decodeOptionalJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// writeError turns a service error into its HTTP response. Unknown errors
// are logged and reported as 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var authErr *models.AuthError
	if errors.As(err, &authErr) {
		if authErr.Status >= http.StatusInternalServerError && authErr.Err != nil {
			log.Printf("%s %s: %v", r.Method, r.URL.Path, authErr.Err)
		}
		writeJSON(w, authErr.Status, errorResponse{Code: authErr.Code, Message: authErr.Message})
		return
	}

	switch {
	case errors.Is(err, models.ErrValidation):
		writeMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrNoRecord),
		errors.Is(err, models.ErrUserNotFound),
		errors.Is(err, models.ErrListingNotFound),
		errors.Is(err, models.ErrReviewNotFound):
		writeMessage(w, http.StatusNotFound, err.Error())
	case errors.Is(err, models.ErrForbidden):
		writeMessage(w, http.StatusForbidden, err.Error())
	case errors.Is(err, models.ErrAlreadyReviewed),
		errors.Is(err, models.ErrConflict),
		errors.Is(err, models.ErrDuplicateEmail),
		errors.Is(err, models.ErrDuplicatePhone):
		writeMessage(w, http.StatusConflict, err.Error())
	case errors.Is(err, models.ErrUnavailable):
		writeMessage(w, http.StatusServiceUnavailable, err.Error())
	case isForeignKeyConstraintError(err):
		writeMessage(w, http.StatusBadRequest, "Referenced record does not exist")
	default:
		log.Printf("%s %s: %v", r.Method, r.URL.Path, err)
		writeMessage(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
	}
}
