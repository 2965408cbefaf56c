package auth

import (
	"context"
	"crypto/subtle"

	"churndash/internal"
	"churndash/internal/config"
	"churndash/internal/errors"
	"churndash/ports"
)

// StaticAuthenticator checks logins against the users configured in
// DASHBOARD_USERS. With no users configured every login fails.
type StaticAuthenticator struct {
	users  map[string]config.UserCredential
	logger *internal.Logger
}

var _ ports.Authenticator = (*StaticAuthenticator)(nil)

// NewStaticAuthenticator creates an authenticator over users
func NewStaticAuthenticator(users []config.UserCredential, logger *internal.Logger) *StaticAuthenticator {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	a := &StaticAuthenticator{
		users:  make(map[string]config.UserCredential, len(users)),
		logger: logger.Named("auth"),
	}
	for _, u := range users {
		a.users[u.Username] = u
	}
	if len(a.users) == 0 {
		a.logger.Warn("no dashboard users configured; every login will be rejected")
	}
	return a
}

// Authenticate implements ports.Authenticator
func (a *StaticAuthenticator) Authenticate(ctx context.Context, username, password string) (ports.Identity, error) {
	if err := ctx.Err(); err != nil {
		return ports.Identity{}, err
	}

	user, ok := a.users[username]
	// compare against a throwaway value so unknown users cost the same
	expected := user.Password
	if !ok {
		expected = password + "\x00"
	}
	if subtle.ConstantTimeCompare([]byte(expected), []byte(password)) != 1 || !ok {
		a.logger.Info("rejected login for %q", username)
		return ports.Identity{}, errors.Unauthorized("invalid username or password")
	}

	name := user.DisplayName
	if name == "" {
		name = user.Username
	}
	return ports.Identity{Username: user.Username, DisplayName: name}, nil
}
