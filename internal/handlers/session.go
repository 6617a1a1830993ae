package handlers

import (
	"net/http"
	"net/url"
	"strings"

	"kata/internal/auth"
)

// session reports the caller's onboarding state so clients can render the
// right step without re-implementing the decision logic.
func (a *API) session(w http.ResponseWriter, r *http.Request) {
	state := auth.StateFromContext(r.Context())
	user := auth.UserFromContext(r.Context())

	payload := map[string]any{"state": state}
	if user != nil {
		payload["user"] = map[string]any{
			"id":       user.ID,
			"email":    user.Email,
			"username": user.Username(),
		}
	}
	respondJSON(w, http.StatusOK, payload)
}

// authCallback finishes the provider's redirect flow: exchange the code,
// store the session, then send the user wherever the onboarding state
// machine says they belong.
func (a *API) authCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	code := q.Get("code")
	if code == "" {
		http.Redirect(w, r, auth.PathLogin+"?error=missing_code", http.StatusFound)
		return
	}

	session, err := a.c.Auth.ExchangeCode(r.Context(), code)
	if err != nil {
		a.c.Logger.WithError(err).Warn("Auth callback exchange failed")
		http.Redirect(w, r, auth.PathLogin+"?error=exchange_failed", http.StatusFound)
		return
	}

	auth.SetSessionCookie(w, session.AccessToken, session.ExpiresIn)

	// Recovery links land on the password form regardless of state.
	if q.Get("type") == "recovery" {
		http.Redirect(w, r, auth.PathResetPassword, http.StatusFound)
		return
	}

	action := auth.Decide(auth.Classify(&session.User), auth.RouteProtected)
	if !action.Allow {
		http.Redirect(w, r, action.Redirect, http.StatusFound)
		return
	}
	http.Redirect(w, r, safeNext(q.Get("next")), http.StatusFound)
}

// safeNext only honors site-relative targets so the callback cannot be
// used as an open redirect.
func safeNext(next string) string {
	if next == "" {
		return auth.PathHome
	}
	parsed, err := url.Parse(next)
	if err != nil || parsed.Host != "" || parsed.Scheme != "" || !strings.HasPrefix(parsed.Path, "/") {
		return auth.PathHome
	}
	return next
}
