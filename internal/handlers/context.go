package handlers

import (
	"context"
	"net/http"

	"trusthaven/internal/models"
)

type contextKey string

const authContextKey contextKey = "auth_context"

func ContextWithUser(ctx context.Context, auth models.AuthContext) context.Context {
	return context.WithValue(ctx, authContextKey, auth)
}

func UserFromContext(ctx context.Context) (models.AuthContext, bool) {
	auth, ok := ctx.Value(authContextKey).(models.AuthContext)
	return auth, ok && auth.UserID != ""
}

// requireUser writes a 401 when the request carries no identity.
func requireUser(w http.ResponseWriter, r *http.Request) (models.AuthContext, bool) {
	auth, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, r, models.NewAuthError(models.CodeUnauthenticated))
	}
	return auth, ok
}
