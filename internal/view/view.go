// Package view holds the state behind each dashboard page. A holder owns the
// collections fetched for its page plus the user's filter, sort and paging
// choices, and derives what the page shows through the aggregate package.
// A failed remote call leaves the state as it was and sets a Notice.
package view

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/erazemk/resaledesk/internal/client"
)

// ErrStale is returned by Load when a newer load started before it finished.
// Its result is discarded.
var ErrStale = errors.New("load superseded by a newer one")

// Notice levels.
const (
	NoticeError   = "error"
	NoticeSuccess = "success"
	NoticeInfo    = "info"
)

// Notice is a transient message shown once on the page.
type Notice struct {
	Level   string
	Message string
}

// base carries the lock, load generation and notice shared by every holder.
type base struct {
	mu     sync.Mutex
	gen    uint64
	loaded bool
	notice *Notice
}

// begin starts a load and returns its generation.
func (b *base) begin() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.gen++
	return b.gen
}

// finish applies the result of the load started as gen, unless a newer load
// has started since. The lock is held while apply runs.
func (b *base) finish(gen uint64, err error, apply func()) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if gen != b.gen {
		return ErrStale
	}
	if err != nil {
		b.failLocked(err)
		return err
	}
	apply()
	b.loaded = true
	return nil
}

func (b *base) failLocked(err error) {
	slog.Error("backend request failed", "error", err)
	b.notice = &Notice{Level: NoticeError, Message: client.Describe(err)}
}

func (b *base) fail(err error) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failLocked(err)
	return err
}

func (b *base) succeed(msg string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.notice = &Notice{Level: NoticeSuccess, Message: msg}
}

// Loaded reports whether a load has completed successfully.
func (b *base) Loaded() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.loaded
}

// Notice returns the pending notice and clears it.
func (b *base) Notice() *Notice {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := b.notice
	b.notice = nil
	return n
}

// SetNotice replaces the pending notice.
func (b *base) SetNotice(n *Notice) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.notice = n
}
