package middleware

import (
	"context"
	"log"
	"net/http"
	"time"

	"hichat/internal/auth"
	"hichat/internal/store"
)

type contextKey string

const UserIDKey contextKey = "user_id"

// UserID returns the authenticated user's ID from the request context, or 0
// if the request did not pass through Auth.
func UserID(r *http.Request) int {
	id, _ := r.Context().Value(UserIDKey).(int)
	return id
}

// Auth verifies the session cookie and resolves the bound user. Requests
// with a valid signature for a deleted account are rejected the same as
// requests with no credential.
func Auth(tokens *auth.TokenManager, users store.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(auth.CookieName)
			if err != nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			userID, err := tokens.Verify(cookie.Value)
			if err != nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			exists, err := users.UserExists(userID)
			if err != nil || !exists {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %v", r.Method, r.URL.Path, time.Since(start))
	})
}
