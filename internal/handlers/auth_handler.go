package handlers

import (
	"net"
	"net/http"
	"strings"

	"trusthaven/internal/models"
	"trusthaven/internal/services"
)

type AuthHandler struct {
	Service *services.AuthService
}

// SignUp handles POST /signup.
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req models.SignUpRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	profile, err := h.Service.SignUp(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, profile)
}

func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req models.SignInRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.Service.SignIn(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *AuthHandler) GoogleSignIn(w http.ResponseWriter, r *http.Request) {
	var req models.GoogleSignInRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.Service.GoogleSignIn(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	status := http.StatusOK
	if resp.Created {
		status = http.StatusCreated
	}
	writeJSON(w, status, resp)
}

func (h *AuthHandler) SendPhoneCode(w http.ResponseWriter, r *http.Request) {
	var req models.PhoneCodeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	id, err := h.Service.SendPhoneCode(r.Context(), req, clientIP(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"verification_id": id})
}

func (h *AuthHandler) VerifyPhoneCode(w http.ResponseWriter, r *http.Request) {
	var req models.PhoneVerifyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.Service.VerifyPhoneCode(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	status := http.StatusOK
	if resp.Created {
		status = http.StatusCreated
	}
	writeJSON(w, status, resp)
}

// Refresh accepts the token in the body or in the Refresh-Token header.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	token := r.Header.Get("Refresh-Token")
	if token == "" {
		if !decodeOptionalJSON(w, r, &req) {
			return
		}
		token = req.RefreshToken
	}

	resp, err := h.Service.Refresh(r.Context(), strings.TrimSpace(token))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	auth, ok := requireUser(w, r)
	if !ok {
		return
	}
	if err := h.Service.Logout(r.Context(), auth.UserID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
