package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/erazemk/resaledesk/internal/model"
)

func TestSealAndOpen(t *testing.T) {
	secret := "test-secret-key"
	now := time.Now()

	value, err := Seal(secret, model.Session{Username: "ana", Token: "backend-token"}, now)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if value == "" {
		t.Fatal("expected non-empty cookie value")
	}

	s, err := Open(secret, value)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if s.Username != "ana" {
		t.Errorf("expected username 'ana', got %q", s.Username)
	}
	if s.Token != "backend-token" {
		t.Errorf("expected backend token, got %q", s.Token)
	}

	// Should be within a few seconds of the default lifetime.
	diff := now.Add(CookieExpiry).Sub(s.ExpiresAt)
	if diff < -5*time.Second || diff > 5*time.Second {
		t.Errorf("cookie expiry too far from expected: diff=%v", diff)
	}
}

func TestSealUsesEarlierBackendExpiry(t *testing.T) {
	now := time.Now()
	backendExpiry := now.Add(time.Hour).Truncate(time.Second)

	value, _ := Seal("secret", model.Session{Username: "ana", ExpiresAt: backendExpiry}, now)
	s, err := Open("secret", value)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !s.ExpiresAt.Equal(backendExpiry) {
		t.Errorf("expected expiry %v, got %v", backendExpiry, s.ExpiresAt)
	}
}

func TestOpenWrongSecret(t *testing.T) {
	value, _ := Seal("secret1", model.Session{Username: "ana"}, time.Now())

	if _, err := Open("secret2", value); err == nil {
		t.Error("expected error for wrong secret")
	}
}

func TestOpenInvalid(t *testing.T) {
	if _, err := Open("secret", "not-a-token"); err == nil {
		t.Error("expected error for invalid cookie")
	}
}

func TestOpenExpired(t *testing.T) {
	value, _ := Seal("secret", model.Session{Username: "ana"}, time.Now().Add(-48*time.Hour))

	if _, err := Open("secret", value); err == nil {
		t.Error("expected error for expired cookie")
	}
}

func TestParseSessionFillsFromJWT(t *testing.T) {
	expiry := time.Now().Add(2 * time.Hour).Truncate(time.Second)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "marko",
		ExpiresAt: jwt.NewNumericDate(expiry),
	})
	signed, err := token.SignedString([]byte("backend-only-key"))
	if err != nil {
		t.Fatalf("signing: %v", err)
	}

	s := ParseSession(model.Session{Token: signed})
	if s.Username != "marko" {
		t.Errorf("expected username from subject, got %q", s.Username)
	}
	if !s.ExpiresAt.Equal(expiry) {
		t.Errorf("expected expiry %v, got %v", expiry, s.ExpiresAt)
	}
}

func TestParseSessionOpaqueToken(t *testing.T) {
	in := model.Session{Username: "ana", Token: "opaque"}
	if got := ParseSession(in); got != in {
		t.Errorf("expected session unchanged, got %+v", got)
	}
}
