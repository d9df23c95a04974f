package identity

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// googleClaims mirrors the profile claims of a Google Identity Services ID
// token.
type googleClaims struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture string `json:"picture"`
	jwt.RegisteredClaims
}

// DecodeProfile extracts the user profile and expiry from an identity
// token. The token's signature was already checked by the identity provider
// that issued it; the core only reads claims and enforces expiry.
func DecodeProfile(rawToken string) (*Profile, time.Time, error) {
	var claims googleClaims
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(rawToken, &claims); err != nil {
		return nil, time.Time{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, time.Time{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	var expiry time.Time
	if claims.ExpiresAt != nil {
		expiry = claims.ExpiresAt.Time
		if time.Now().After(expiry) {
			return nil, time.Time{}, ErrExpiredToken
		}
	}

	return &Profile{
		ID:      claims.Subject,
		Name:    claims.Name,
		Email:   claims.Email,
		Picture: claims.Picture,
	}, expiry, nil
}

// GoogleProvider keeps the session delivered by Google Identity Services.
type GoogleProvider struct {
	mu      sync.RWMutex
	token   string
	profile *Profile
	expiry  time.Time
}

// NewGoogleProvider creates an empty (signed-out) gateway.
func NewGoogleProvider() *GoogleProvider {
	return &GoogleProvider{}
}

func (p *GoogleProvider) SignIn(ctx context.Context, rawToken string) (*Profile, error) {
	profile, expiry, err := DecodeProfile(rawToken)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.token = rawToken
	p.profile = profile
	p.expiry = expiry
	p.mu.Unlock()
	return profile, nil
}

func (p *GoogleProvider) SignOut(ctx context.Context) error {
	p.mu.Lock()
	p.token = ""
	p.profile = nil
	p.expiry = time.Time{}
	p.mu.Unlock()
	return nil
}

func (p *GoogleProvider) IsAuthenticated(ctx context.Context) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.profile == nil {
		return false
	}
	return p.expiry.IsZero() || time.Now().Before(p.expiry)
}

func (p *GoogleProvider) Token(ctx context.Context) (string, error) {
	if !p.IsAuthenticated(ctx) {
		return "", nil
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.token, nil
}

func (p *GoogleProvider) UserProfile(ctx context.Context) (*Profile, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.profile == nil {
		return nil, ErrNotSignedIn
	}
	out := *p.profile
	return &out, nil
}

// StaticProvider is a development/test gateway with a fixed identity,
// mirroring the mock-auth mode of the original client.
type StaticProvider struct {
	FixedToken   string
	FixedProfile Profile
}

func (p *StaticProvider) SignIn(ctx context.Context, rawToken string) (*Profile, error) {
	out := p.FixedProfile
	return &out, nil
}

func (p *StaticProvider) SignOut(ctx context.Context) error { return nil }

func (p *StaticProvider) IsAuthenticated(ctx context.Context) bool { return true }

func (p *StaticProvider) Token(ctx context.Context) (string, error) {
	return p.FixedToken, nil
}

func (p *StaticProvider) UserProfile(ctx context.Context) (*Profile, error) {
	out := p.FixedProfile
	return &out, nil
}
