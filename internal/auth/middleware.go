package auth

import (
	"context"
	"net/http"
	"strings"

	"kata/internal/models"

	"github.com/sirupsen/logrus"
)

type contextKey string

const (
	userKey  contextKey = "authUser"
	stateKey contextKey = "authState"
)

const sessionCookie = "kata_session"

// UserFromContext returns the user the guard resolved for this request,
// or nil for anonymous callers.
func UserFromContext(ctx context.Context) *models.AuthUser {
	if u, ok := ctx.Value(userKey).(*models.AuthUser); ok {
		return u
	}
	return nil
}

// StateFromContext returns the onboarding state the guard resolved.
func StateFromContext(ctx context.Context) State {
	if s, ok := ctx.Value(stateKey).(State); ok {
		return s
	}
	return StateAnonymous
}

// Middleware runs Classify/Decide on every request before any protected
// handler executes. Provider failures are logged and treated as anonymous
// so protected content fails closed; the bounded client timeout keeps the
// failure from hanging the request.
func Middleware(client *Client, logger *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			class := ClassifyRoute(r.URL.Path)

			var user *models.AuthUser
			if token := requestToken(r); token != "" {
				ctx, cancel := context.WithTimeout(r.Context(), lookupTimeout)
				u, err := client.CurrentUser(ctx, token)
				cancel()
				if err != nil {
					logger.WithError(err).Warn("Auth lookup failed, treating caller as anonymous")
				} else {
					user = u
				}
			}

			state := Classify(user)
			action := Decide(state, class)
			if !action.Allow {
				deny(w, r, action)
				return
			}

			ctx := context.WithValue(r.Context(), userKey, user)
			ctx = context.WithValue(ctx, stateKey, state)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireUser guards API handlers that need an onboarded caller regardless
// of how the route was classified.
func RequireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if UserFromContext(r.Context()) == nil || StateFromContext(r.Context()) != StateOnboarded {
			http.Error(w, `{"error":"authentication required"}`, http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

// deny answers API calls with a JSON 401 and everything else with the
// redirect the decision table chose.
func deny(w http.ResponseWriter, r *http.Request, action Action) {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"authentication required"}`))
		return
	}
	http.Redirect(w, r, action.Redirect, http.StatusFound)
}

// requestToken pulls the access token from the Authorization header or the
// session cookie.
func requestToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	if cookie, err := r.Cookie(sessionCookie); err == nil {
		return cookie.Value
	}
	return ""
}

// SetSessionCookie stores the provider access token after a successful
// callback exchange.
func SetSessionCookie(w http.ResponseWriter, token string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
