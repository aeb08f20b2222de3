package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/erazemk/resaledesk/internal/sale"
)

// Entry is a stored sale attempt.
type Entry struct {
	ID         string
	ItemName   string
	Price      string
	Outcome    sale.Outcome
	OrderID    string
	Error      string
	RecordedAt time.Time
	ResolvedAt *time.Time
}

// NeedsRepair reports whether the attempt left the backend inconsistent and
// nobody has marked it fixed.
func (e Entry) NeedsRepair() bool {
	return e.Outcome == sale.OutcomeUnreconciled && e.ResolvedAt == nil
}

// Journal records sale attempts. It satisfies sale.Recorder.
type Journal struct {
	DB *sql.DB
}

// Record stores a finished sale attempt.
func (j *Journal) Record(ctx context.Context, a sale.Attempt) error {
	return RecordAttempt(ctx, j.DB, a)
}

// RecordAttempt stores a finished sale attempt. Recording the same attempt
// again replaces the earlier outcome.
func RecordAttempt(ctx context.Context, db *sql.DB, a sale.Attempt) error {
	if a.ID == "" {
		return errors.New("recording sale attempt: missing attempt ID")
	}
	at := a.At
	if at.IsZero() {
		at = time.Now()
	}

	_, err := db.ExecContext(ctx,
		`INSERT INTO sale_attempts (id, item_name, price, outcome, order_id, error, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		     outcome = excluded.outcome,
		     order_id = excluded.order_id,
		     error = excluded.error,
		     recorded_at = excluded.recorded_at`,
		a.ID, a.ItemName, a.Price, string(a.Outcome), a.OrderID, a.Error, at.UTC(),
	)
	if err != nil {
		return fmt.Errorf("recording sale attempt: %w", err)
	}
	return nil
}

// GetAttempt returns an attempt by ID, or nil if it was never recorded.
func GetAttempt(ctx context.Context, db *sql.DB, id string) (*Entry, error) {
	var e Entry
	err := db.QueryRowContext(ctx,
		`SELECT id, item_name, price, outcome, order_id, error, recorded_at, resolved_at
		 FROM sale_attempts WHERE id = ?`, id,
	).Scan(&e.ID, &e.ItemName, &e.Price, &e.Outcome, &e.OrderID, &e.Error, &e.RecordedAt, &e.ResolvedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting sale attempt: %w", err)
	}
	return &e, nil
}

// ListAttempts returns recorded attempts, newest first. An empty outcome
// lists every outcome; a non-positive limit lists everything.
func ListAttempts(ctx context.Context, db *sql.DB, outcome sale.Outcome, limit int) ([]Entry, error) {
	query := `SELECT id, item_name, price, outcome, order_id, error, recorded_at, resolved_at
	          FROM sale_attempts`
	var args []any
	if outcome != "" {
		query += ` WHERE outcome = ?`
		args = append(args, string(outcome))
	}
	query += ` ORDER BY recorded_at DESC, rowid DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing sale attempts: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.ItemName, &e.Price, &e.Outcome, &e.OrderID, &e.Error, &e.RecordedAt, &e.ResolvedAt); err != nil {
			return nil, fmt.Errorf("scanning sale attempt: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Unresolved returns unreconciled attempts nobody has marked fixed yet.
func Unresolved(ctx context.Context, db *sql.DB) ([]Entry, error) {
	entries, err := ListAttempts(ctx, db, sale.OutcomeUnreconciled, 0)
	if err != nil {
		return nil, err
	}
	out := entries[:0]
	for _, e := range entries {
		if e.NeedsRepair() {
			out = append(out, e)
		}
	}
	return out, nil
}

// ResolveAttempt marks an unreconciled attempt as repaired.
func ResolveAttempt(ctx context.Context, db *sql.DB, id string, at time.Time) error {
	result, err := db.ExecContext(ctx,
		`UPDATE sale_attempts SET resolved_at = ?
		 WHERE id = ? AND outcome = 'unreconciled' AND resolved_at IS NULL`,
		at.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("resolving sale attempt: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("sale attempt %s not found or not awaiting repair", id)
	}
	return nil
}
