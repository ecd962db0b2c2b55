package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"trusthaven/internal/handlers"
	"trusthaven/internal/models"
)

func secureHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("X-Frame-Options", "deny")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		next.ServeHTTP(w, r)
	})
}

func (app *application) logRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		app.infoLog.Printf("%s - %s %s %s", r.RemoteAddr, r.Proto, r.Method, r.URL.RequestURI())
		next.ServeHTTP(w, r)
	})
}

func (app *application) recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				w.Header().Set("Connection", "close")
				app.serverError(w, fmt.Errorf("%s", err))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

// authenticate resolves the caller and enforces required. A refreshed access
// token comes back in the Authorization response header.
func (app *application) authenticate(required models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth, renewed, err := app.authService.Authenticate(r.Context(), bearerToken(r), r.Header.Get("Refresh-Token"))
			if err != nil {
				app.authError(w, err)
				return
			}
			if renewed != "" {
				w.Header().Set("Authorization", "Bearer "+renewed)
			}
			if !auth.Role.Satisfies(required) {
				app.authError(w, models.NewAuthError(models.CodeInsufficientPermission))
				return
			}
			next.ServeHTTP(w, r.WithContext(handlers.ContextWithUser(r.Context(), auth)))
		})
	}
}

// optionalAuth attaches the caller when a valid token is sent and lets
// anonymous requests through.
func (app *application) optionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}
		auth, renewed, err := app.authService.Authenticate(r.Context(), token, r.Header.Get("Refresh-Token"))
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		if renewed != "" {
			w.Header().Set("Authorization", "Bearer "+renewed)
		}
		next.ServeHTTP(w, r.WithContext(handlers.ContextWithUser(r.Context(), auth)))
	})
}

func (app *application) authError(w http.ResponseWriter, err error) {
	var authErr *models.AuthError
	if !errors.As(err, &authErr) {
		app.serverError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(authErr.Status)
	json.NewEncoder(w).Encode(authErr)
}
