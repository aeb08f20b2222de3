package journal

import (
	"database/sql"
	"testing"
)

// NewTestDB creates a fresh in-memory journal with migrations applied.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("opening test journal: %v", err)
	}

	t.Cleanup(func() { db.Close() })

	return db
}
