package identity

import (
	"context"
	"errors"
)

var (
	ErrInvalidToken = errors.New("invalid identity token")
	ErrExpiredToken = errors.New("identity token expired")
	ErrNotSignedIn  = errors.New("no active session")
)

// Profile is the user identity delivered by the external identity provider.
type Profile struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture string `json:"picture"`
}

// Provider is the session/identity gateway. The heavy OAuth lifting happens
// in the external identity provider; this gateway only holds the delivered
// token and the profile decoded from it.
type Provider interface {
	// SignIn accepts the identity token delivered by the provider and
	// establishes a session.
	SignIn(ctx context.Context, rawToken string) (*Profile, error)

	// SignOut drops the session.
	SignOut(ctx context.Context) error

	// IsAuthenticated reports whether a session exists and its token has
	// not expired.
	IsAuthenticated(ctx context.Context) bool

	// Token returns the session token, or the empty string without one.
	// Satisfies the storage TokenSource contract.
	Token(ctx context.Context) (string, error)

	// UserProfile returns the signed-in user, or ErrNotSignedIn.
	UserProfile(ctx context.Context) (*Profile, error)
}
