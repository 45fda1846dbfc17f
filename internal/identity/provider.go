package identity

import (
	"context"
	"errors"
)

var (
	// ErrBadCredentials covers unknown users and wrong passwords.
	ErrBadCredentials = errors.New("invalid credentials")
	// ErrInvalidToken covers missing, malformed and expired tokens.
	ErrInvalidToken = errors.New("invalid token")
	// ErrUserExists is returned by SignUp for an already-registered email.
	ErrUserExists = errors.New("user already exists")
)

// Provider is the identity collaborator behind signup, login and per-request
// token verification. Tokens are opaque to the rest of the service; only the
// provider can mint or judge them.
type Provider interface {
	// SignUp registers a new user and returns a human-readable confirmation.
	SignUp(ctx context.Context, email, password string) (string, error)
	// SignIn exchanges credentials for an access token.
	SignIn(ctx context.Context, email, password string) (string, error)
	// Verify checks an access token and returns the user's identity.
	// Called on every protected request; results are never cached.
	Verify(ctx context.Context, token string) (string, error)
}
