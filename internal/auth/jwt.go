// Package auth handles the session returned by the backend's login endpoint
// and the signed cookie the dashboard keeps it in.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/erazemk/resaledesk/internal/model"
)

// CookieExpiry bounds the cookie lifetime when the backend gives no expiry.
const CookieExpiry = 24 * time.Hour

// Claims are carried in the dashboard's session cookie.
type Claims struct {
	Username     string `json:"username"`
	BackendToken string `json:"backend_token,omitempty"`
	jwt.RegisteredClaims
}

// backendClaims are the fields read from a backend-issued token.
type backendClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// ParseSession completes a session from its token. When the backend issued a
// JWT, its username and expiry fill any fields the login response left out.
// The token is not verified: only the backend holds its key, and it checks
// the token on every request anyway. Opaque tokens are returned unchanged.
func ParseSession(s model.Session) model.Session {
	if s.Token == "" {
		return s
	}
	var claims backendClaims
	if _, _, err := jwt.NewParser().ParseUnverified(s.Token, &claims); err != nil {
		return s
	}
	if s.Username == "" {
		s.Username = claims.Username
		if s.Username == "" {
			s.Username = claims.Subject
		}
	}
	if s.ExpiresAt.IsZero() && claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Time
	}
	return s
}

// Seal signs a session into a cookie value.
func Seal(secret string, s model.Session, now time.Time) (string, error) {
	jti, err := generateJTI()
	if err != nil {
		return "", fmt.Errorf("generating JTI: %w", err)
	}

	expires := now.Add(CookieExpiry)
	if !s.ExpiresAt.IsZero() && s.ExpiresAt.Before(expires) {
		expires = s.ExpiresAt
	}

	claims := Claims{
		Username:     s.Username,
		BackendToken: s.Token,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("signing session: %w", err)
	}
	return signed, nil
}

// Open validates a cookie value produced by Seal and returns the session.
func Open(secret, value string) (*model.Session, error) {
	token, err := jwt.ParseWithClaims(value, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parsing session: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid session")
	}

	s := &model.Session{ID: claims.ID, Username: claims.Username, Token: claims.BackendToken}
	if claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Time
	}
	return s, nil
}

// NewSecret returns a random signing secret for when none is configured.
func NewSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// generateJTI creates a random token ID.
func generateJTI() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
