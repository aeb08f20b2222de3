package model

import "time"

// Session is the result of a successful login. Token is forwarded to the
// backend as a bearer token; a zero ExpiresAt means the backend gave none.
// ID identifies the dashboard cookie holding the session, for revocation.
type Session struct {
	ID        string    `json:"-"`
	Username  string    `json:"username"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session has a known expiry before now.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}
