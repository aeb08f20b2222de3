// Package logging sets up the process-wide slog logger.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Options configures Setup.
type Options struct {
	// Level is the lowest level logged: debug, info, warn or error.
	Level string
	// Path, when set, receives every record in addition to the console.
	Path string
	// Out receives records below ERROR and Err receives the rest. Nil means
	// os.Stdout and os.Stderr.
	Out io.Writer
	Err io.Writer
}

// Splitter is a slog.Handler that sends records below ERROR to one handler
// and ERROR and above to another.
type Splitter struct {
	min  slog.Level
	low  slog.Handler
	high slog.Handler
}

// NewSplitter routes records at or above min, splitting at slog.LevelError.
func NewSplitter(min slog.Level, low, high slog.Handler) *Splitter {
	return &Splitter{min: min, low: low, high: high}
}

func (s *Splitter) Enabled(_ context.Context, level slog.Level) bool {
	return level >= s.min
}

func (s *Splitter) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelError {
		return s.high.Handle(ctx, r)
	}
	return s.low.Handle(ctx, r)
}

func (s *Splitter) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &Splitter{min: s.min, low: s.low.WithAttrs(attrs), high: s.high.WithAttrs(attrs)}
}

func (s *Splitter) WithGroup(name string) slog.Handler {
	return &Splitter{min: s.min, low: s.low.WithGroup(name), high: s.high.WithGroup(name)}
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(strings.TrimSpace(name)))); err != nil {
		return 0, fmt.Errorf("unknown log level %q", name)
	}
	return level, nil
}

// Setup installs the default logger and returns a function closing the log
// file, or nil when none was opened.
func Setup(opts Options) (func(), error) {
	level := slog.LevelInfo
	if opts.Level != "" {
		var err error
		if level, err = ParseLevel(opts.Level); err != nil {
			return nil, err
		}
	}

	out, errOut := opts.Out, opts.Err
	if out == nil {
		out = os.Stdout
	}
	if errOut == nil {
		errOut = os.Stderr
	}

	var cleanup func()
	if opts.Path != "" {
		f, err := os.OpenFile(opts.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		cleanup = func() { f.Close() }
		out = io.MultiWriter(out, f)
		errOut = io.MultiWriter(errOut, f)
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	slog.SetDefault(slog.New(NewSplitter(level,
		slog.NewTextHandler(out, handlerOpts),
		slog.NewTextHandler(errOut, handlerOpts),
	)))
	return cleanup, nil
}
