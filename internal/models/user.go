package models

import "time"

// AuthUser is the slice of the hosted auth provider's user record the
// service cares about. Onboarding is complete only once the email is
// confirmed and a username has been chosen.
type AuthUser struct {
	ID               string     `json:"id"`
	Email            string     `json:"email"`
	EmailConfirmedAt *time.Time `json:"email_confirmed_at"`
	UserMetadata     Metadata   `json:"user_metadata"`
}

type Metadata struct {
	Username *string `json:"username"`
}

// Username returns the chosen username, or "" when onboarding has not
// reached that step.
func (u *AuthUser) Username() string {
	if u == nil || u.UserMetadata.Username == nil {
		return ""
	}
	return *u.UserMetadata.Username
}
