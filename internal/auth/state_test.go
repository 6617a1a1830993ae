package auth

import (
	"testing"
	"time"

	"kata/internal/models"

	"github.com/stretchr/testify/assert"
)

func confirmedUser(username string) *models.AuthUser {
	confirmed := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	user := &models.AuthUser{
		ID:               "user-1",
		Email:            "a@example.com",
		EmailConfirmedAt: &confirmed,
	}
	if username != "" {
		user.UserMetadata.Username = &username
	}
	return user
}

func TestClassify(t *testing.T) {
	assert.Equal(t, StateAnonymous, Classify(nil))

	unverified := &models.AuthUser{ID: "user-1", Email: "a@example.com"}
	assert.Equal(t, StateEmailUnverified, Classify(unverified))

	assert.Equal(t, StateNoUsername, Classify(confirmedUser("")))
	assert.Equal(t, StateOnboarded, Classify(confirmedUser("ada")))
}

func TestClassify_EmailCheckedBeforeUsername(t *testing.T) {
	// A user missing both goes to email verification first.
	username := "ada"
	user := &models.AuthUser{ID: "user-1", Email: "a@example.com"}
	user.UserMetadata.Username = &username
	assert.Equal(t, StateEmailUnverified, Classify(user))
}

func TestDecide_PolicyTable(t *testing.T) {
	tests := []struct {
		name  string
		state State
		class RouteClass
		want  Action
	}{
		{"anonymous public", StateAnonymous, RoutePublic, Action{Allow: true}},
		{"anonymous protected", StateAnonymous, RouteProtected, Action{Redirect: PathLogin}},
		{"anonymous auth-only", StateAnonymous, RouteAuthOnly, Action{Allow: true}},
		{"unverified public", StateEmailUnverified, RoutePublic, Action{Allow: true}},
		{"unverified protected", StateEmailUnverified, RouteProtected, Action{Redirect: PathVerifyEmail}},
		{"unverified auth-only", StateEmailUnverified, RouteAuthOnly, Action{Redirect: PathVerifyEmail}},
		{"no username public", StateNoUsername, RoutePublic, Action{Allow: true}},
		{"no username protected", StateNoUsername, RouteProtected, Action{Redirect: PathChooseUsername}},
		{"no username auth-only", StateNoUsername, RouteAuthOnly, Action{Redirect: PathChooseUsername}},
		{"onboarded public", StateOnboarded, RoutePublic, Action{Allow: true}},
		{"onboarded protected", StateOnboarded, RouteProtected, Action{Allow: true}},
		{"onboarded auth-only", StateOnboarded, RouteAuthOnly, Action{Redirect: PathHome}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decide(tt.state, tt.class))
		})
	}
}

func TestClassifyRoute(t *testing.T) {
	assert.Equal(t, RoutePublic, ClassifyRoute("/"))
	assert.Equal(t, RoutePublic, ClassifyRoute("/health"))
	assert.Equal(t, RoutePublic, ClassifyRoute("/auth/callback"))
	assert.Equal(t, RoutePublic, ClassifyRoute("/verify-email"))
	assert.Equal(t, RouteAuthOnly, ClassifyRoute("/login"))
	assert.Equal(t, RouteAuthOnly, ClassifyRoute("/signup"))
	assert.Equal(t, RouteProtected, ClassifyRoute("/home"))
	assert.Equal(t, RouteProtected, ClassifyRoute("/api/items"))
	assert.Equal(t, RouteProtected, ClassifyRoute("/api/search/movies"))
}

func TestGuardTargetsNeverRedirectAgain(t *testing.T) {
	// Every redirect target the table can produce must terminate: the
	// state that was sent there has to be allowed on arrival.
	for _, state := range []State{StateAnonymous, StateEmailUnverified, StateNoUsername, StateOnboarded} {
		for _, class := range []RouteClass{RoutePublic, RouteProtected, RouteAuthOnly} {
			action := Decide(state, class)
			if action.Allow {
				continue
			}
			again := Decide(state, ClassifyRoute(action.Redirect))
			assert.True(t, again.Allow, "state %s redirected to %s which redirects again", state, action.Redirect)
		}
	}
}
