package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return raw
}

func TestDecodeProfile(t *testing.T) {
	raw := signToken(t, jwt.MapClaims{
		"sub":     "user-123",
		"name":    "Ada Lovelace",
		"email":   "ada@example.com",
		"picture": "https://example.com/ada.png",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	profile, expiry, err := DecodeProfile(raw)
	if err != nil {
		t.Fatalf("DecodeProfile: %v", err)
	}
	if profile.ID != "user-123" {
		t.Errorf("ID = %q", profile.ID)
	}
	if profile.Name != "Ada Lovelace" || profile.Email != "ada@example.com" {
		t.Errorf("profile = %+v", profile)
	}
	if expiry.IsZero() {
		t.Error("expiry should be set")
	}
}

func TestDecodeProfile_Expired(t *testing.T) {
	raw := signToken(t, jwt.MapClaims{
		"sub": "user-123",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})

	if _, _, err := DecodeProfile(raw); !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("expected ErrExpiredToken, got %v", err)
	}
}

func TestDecodeProfile_MissingSubject(t *testing.T) {
	raw := signToken(t, jwt.MapClaims{"name": "No Subject"})

	if _, _, err := DecodeProfile(raw); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestDecodeProfile_Garbage(t *testing.T) {
	if _, _, err := DecodeProfile("not.a.token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestGoogleProvider_Session(t *testing.T) {
	ctx := context.Background()
	p := NewGoogleProvider()

	if p.IsAuthenticated(ctx) {
		t.Fatal("fresh provider should not be authenticated")
	}
	if _, err := p.UserProfile(ctx); !errors.Is(err, ErrNotSignedIn) {
		t.Fatalf("expected ErrNotSignedIn, got %v", err)
	}

	raw := signToken(t, jwt.MapClaims{
		"sub":  "user-123",
		"name": "Ada Lovelace",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	if _, err := p.SignIn(ctx, raw); err != nil {
		t.Fatalf("SignIn: %v", err)
	}

	if !p.IsAuthenticated(ctx) {
		t.Fatal("expected authenticated session")
	}
	tok, err := p.Token(ctx)
	if err != nil || tok != raw {
		t.Fatalf("Token() = %q, %v", tok, err)
	}
	profile, err := p.UserProfile(ctx)
	if err != nil || profile.Name != "Ada Lovelace" {
		t.Fatalf("UserProfile() = %+v, %v", profile, err)
	}

	if err := p.SignOut(ctx); err != nil {
		t.Fatalf("SignOut: %v", err)
	}
	if p.IsAuthenticated(ctx) {
		t.Fatal("signed-out provider should not be authenticated")
	}
	if tok, _ := p.Token(ctx); tok != "" {
		t.Fatalf("signed-out Token() = %q", tok)
	}
}

func TestGoogleProvider_RejectsExpiredSignIn(t *testing.T) {
	p := NewGoogleProvider()

	raw := signToken(t, jwt.MapClaims{
		"sub": "user-123",
		"exp": time.Now().Add(-time.Minute).Unix(),
	})
	if _, err := p.SignIn(context.Background(), raw); !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("expected ErrExpiredToken, got %v", err)
	}
	if p.IsAuthenticated(context.Background()) {
		t.Fatal("failed sign-in must not establish a session")
	}
}
