package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"trusthaven/internal/models"
	"trusthaven/internal/services"
)

func TestRefreshWithoutToken(t *testing.T) {
	h := &AuthHandler{Service: &services.AuthService{}}

	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"empty body", "", http.StatusUnauthorized, models.CodeInvalidRefreshToken},
		{"empty object", "{}", http.StatusUnauthorized, models.CodeInvalidRefreshToken},
		{"blank token", `{"refresh_token": "  "}`, http.StatusUnauthorized, models.CodeInvalidRefreshToken},
		{"malformed body", "{", http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Refresh(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", strings.NewReader(tt.body)))
			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, rec.Code)
			}
			var body errorResponse
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Code != tt.code {
				t.Fatalf("expected code %q, got %q", tt.code, body.Code)
			}
		})
	}
}
