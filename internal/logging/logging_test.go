package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSplitterRoutesByLevel(t *testing.T) {
	var low, high bytes.Buffer
	logger := slog.New(NewSplitter(slog.LevelInfo,
		slog.NewTextHandler(&low, nil),
		slog.NewTextHandler(&high, nil),
	))

	logger.Debug("hidden")
	logger.Info("started")
	logger.Warn("slow backend")
	logger.Error("sale left inventory out of sync")

	if strings.Contains(low.String(), "hidden") || strings.Contains(high.String(), "hidden") {
		t.Error("debug record logged below the minimum level")
	}
	for _, msg := range []string{"started", "slow backend"} {
		if !strings.Contains(low.String(), msg) {
			t.Errorf("low output missing %q: %q", msg, low.String())
		}
	}
	if !strings.Contains(high.String(), "out of sync") {
		t.Errorf("high output = %q", high.String())
	}
	if strings.Contains(low.String(), "out of sync") {
		t.Error("error record also went to the low handler")
	}
}

func TestSplitterKeepsAttrsAndGroups(t *testing.T) {
	var low, high bytes.Buffer
	logger := slog.New(NewSplitter(slog.LevelInfo,
		slog.NewTextHandler(&low, nil),
		slog.NewTextHandler(&high, nil),
	)).With("component", "web").WithGroup("req")

	logger.Info("request", "path", "/orders")
	logger.Error("failed", "path", "/financial")

	if !strings.Contains(low.String(), "component=web") || !strings.Contains(low.String(), "req.path=/orders") {
		t.Errorf("low output = %q", low.String())
	}
	if !strings.Contains(high.String(), "component=web") || !strings.Contains(high.String(), "req.path=/financial") {
		t.Errorf("high output = %q", high.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name    string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{" warn ", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLevel(tt.name)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestSetupWritesLogFile(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var out, errOut bytes.Buffer
	path := filepath.Join(t.TempDir(), "resaledesk.log")
	cleanup, err := Setup(Options{Level: "warn", Path: path, Out: &out, Err: &errOut})
	if err != nil {
		t.Fatalf("Setup() error: %v", err)
	}

	slog.Info("quiet")
	slog.Warn("sale rolled back")
	slog.Error("journal unavailable")
	cleanup()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	file := string(data)
	if strings.Contains(file, "quiet") || strings.Contains(out.String(), "quiet") {
		t.Error("info record logged at warn level")
	}
	if !strings.Contains(file, "sale rolled back") || !strings.Contains(file, "journal unavailable") {
		t.Errorf("log file = %q", file)
	}
	if !strings.Contains(out.String(), "sale rolled back") || !strings.Contains(errOut.String(), "journal unavailable") {
		t.Errorf("console out = %q, err = %q", out.String(), errOut.String())
	}
}

func TestSetupRejectsUnknownLevel(t *testing.T) {
	if _, err := Setup(Options{Level: "loud"}); err == nil {
		t.Fatal("expected error")
	}
}
