// Package auth holds the onboarding state machine and the client for the
// hosted auth provider. Every entry point (HTTP middleware, the OAuth
// callback, the session endpoint) goes through the same Classify/Decide
// pair so the redirect rules cannot drift between call sites.
package auth

import (
	"strings"

	"kata/internal/models"
)

type State string

const (
	StateAnonymous       State = "ANONYMOUS"
	StateEmailUnverified State = "EMAIL_UNVERIFIED"
	StateNoUsername      State = "NO_USERNAME"
	StateOnboarded       State = "ONBOARDED"
)

type RouteClass int

const (
	RoutePublic RouteClass = iota
	RouteProtected
	RouteAuthOnly
)

// Redirect targets used by Decide.
const (
	PathLogin          = "/login"
	PathVerifyEmail    = "/verify-email"
	PathChooseUsername = "/choose-username"
	PathResetPassword  = "/reset-password"
	PathHome           = "/home"
)

// Action is the outcome of a guard decision: either the navigation is
// allowed, or the caller must be redirected to Redirect.
type Action struct {
	Allow    bool
	Redirect string
}

var allow = Action{Allow: true}

func redirect(to string) Action {
	return Action{Redirect: to}
}

// Classify derives the onboarding state from the provider's user record.
// The unverified-email check deliberately precedes the username check so a
// user missing both is sent to verification first.
func Classify(user *models.AuthUser) State {
	switch {
	case user == nil:
		return StateAnonymous
	case user.EmailConfirmedAt == nil:
		return StateEmailUnverified
	case user.Username() == "":
		return StateNoUsername
	default:
		return StateOnboarded
	}
}

// Decide maps an onboarding state and a route class to the guard action.
func Decide(state State, class RouteClass) Action {
	switch state {
	case StateAnonymous:
		if class == RouteProtected {
			return redirect(PathLogin)
		}
		return allow
	case StateEmailUnverified:
		if class == RoutePublic {
			return allow
		}
		return redirect(PathVerifyEmail)
	case StateNoUsername:
		if class == RoutePublic {
			return allow
		}
		return redirect(PathChooseUsername)
	default:
		if class == RouteAuthOnly {
			return redirect(PathHome)
		}
		return allow
	}
}

// publicRoutes is the single canonical list of unauthenticated routes.
// The onboarding pages are public so the guard's own redirect targets never
// redirect again (a verify-email redirect landing on /verify-email must
// terminate there).
var publicRoutes = []string{
	"/",
	"/health",
	"/about",
	"/auth/callback",
	"/api/session",
	PathVerifyEmail,
	PathChooseUsername,
	PathResetPassword,
}

// authOnlyRoutes only make sense for users who are not fully onboarded.
var authOnlyRoutes = []string{
	"/login",
	"/signup",
	"/landing",
}

// ClassifyRoute buckets a request path. Anything not listed as public or
// auth-only is protected.
func ClassifyRoute(path string) RouteClass {
	for _, p := range authOnlyRoutes {
		if path == p {
			return RouteAuthOnly
		}
	}
	for _, p := range publicRoutes {
		if path == p {
			return RoutePublic
		}
	}
	if strings.HasPrefix(path, "/static/") {
		return RoutePublic
	}
	return RouteProtected
}
