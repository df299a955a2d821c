package httpapi

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"
)

type contextKey string

const userIDKey contextKey = "userId"

// UserMiddleware resolves the caller from the headers set by the auth proxy.
// devUser is assumed when no header is present; when it is empty such
// requests are rejected.
func UserMiddleware(devUser string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Traefik BasicAuth sets this header
			userID := r.Header.Get("X-Auth-User")

			if userID == "" {
				userID = r.Header.Get("X-Forwarded-User")
			}
			if userID == "" {
				userID = r.Header.Get("Remote-User")
			}

			if userID == "" && devUser != "" {
				userID = devUser
				log.Debug().Str("user", devUser).Msg("no auth header, using dev user")
			}

			if userID == "" {
				log.Warn().Str("path", r.URL.Path).Msg("authentication failed: no user header found")
				respondError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func UserID(r *http.Request) string {
	userID, ok := r.Context().Value(userIDKey).(string)
	if !ok {
		return ""
	}
	return userID
}
