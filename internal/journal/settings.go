package journal

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"
)

// SessionSecret returns the key used to sign session cookies, generating
// and storing one on first use so sessions survive restarts.
// Uses INSERT OR IGNORE + re-SELECT so concurrent starts agree on one key.
func SessionSecret(ctx context.Context, db *sql.DB) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating session secret: %w", err)
	}
	candidate := hex.EncodeToString(buf)

	_, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO settings (key, value) VALUES ('session_secret', ?)`,
		candidate,
	)
	if err != nil {
		return "", fmt.Errorf("storing session secret: %w", err)
	}

	var secret string
	err = db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = 'session_secret'`,
	).Scan(&secret)
	if err != nil {
		return "", fmt.Errorf("querying session secret: %w", err)
	}

	return secret, nil
}

// RevokeSession adds a session cookie's ID to the revocation list.
func RevokeSession(ctx context.Context, db *sql.DB, jti string, expiresAt time.Time) error {
	_, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO revoked_sessions (jti, expires_at) VALUES (?, ?)`,
		jti, expiresAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("revoking session: %w", err)
	}

	// Expired cookies are rejected anyway; drop their revocations.
	_, _ = db.ExecContext(ctx,
		`DELETE FROM revoked_sessions WHERE expires_at < ?`, time.Now().UTC(),
	)

	return nil
}

// IsSessionRevoked checks whether a session cookie was revoked.
func IsSessionRevoked(ctx context.Context, db *sql.DB, jti string) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM revoked_sessions WHERE jti = ?`, jti,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking session revocation: %w", err)
	}
	return count > 0, nil
}
