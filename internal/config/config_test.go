package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		APIURL:            "http://127.0.0.1:5000",
		Timeout:           10 * time.Second,
		Addr:              ":8080",
		JournalPath:       "./test.db",
		LowStockThreshold: 5,
		PageSize:          10,
		LogLevel:          "info",
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		modify      func(*Config)
		wantErr     bool
		errorString string
	}{
		{
			name:    "valid config",
			modify:  func(*Config) {},
			wantErr: false,
		},
		{
			name:    "https backend",
			modify:  func(c *Config) { c.APIURL = "https://resale.example.com/api" },
			wantErr: false,
		},
		{
			name:        "unsupported scheme",
			modify:      func(c *Config) { c.APIURL = "ftp://127.0.0.1:5000" },
			wantErr:     true,
			errorString: "invalid API URL scheme 'ftp': must be 'http' or 'https'",
		},
		{
			name:        "missing host",
			modify:      func(c *Config) { c.APIURL = "http://" },
			wantErr:     true,
			errorString: "missing host",
		},
		{
			name:        "empty listen address",
			modify:      func(c *Config) { c.Addr = "" },
			wantErr:     true,
			errorString: "listen address cannot be empty",
		},
		{
			name:        "empty journal path",
			modify:      func(c *Config) { c.JournalPath = "" },
			wantErr:     true,
			errorString: "journal path cannot be empty",
		},
		{
			name:        "zero timeout",
			modify:      func(c *Config) { c.Timeout = 0 },
			wantErr:     true,
			errorString: "invalid timeout 0s: must be positive",
		},
		{
			name:        "zero low stock threshold",
			modify:      func(c *Config) { c.LowStockThreshold = 0 },
			wantErr:     true,
			errorString: "invalid low stock threshold 0: must be at least 1",
		},
		{
			name:        "unsupported page size",
			modify:      func(c *Config) { c.PageSize = 7 },
			wantErr:     true,
			errorString: "invalid page size 7: must be one of [5 10 25]",
		},
		{
			name:        "unknown log level",
			modify:      func(c *Config) { c.LogLevel = "loud" },
			wantErr:     true,
			errorString: "invalid log level 'loud'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(&cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Config.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !strings.Contains(err.Error(), tt.errorString) {
				t.Errorf("Config.Validate() error = %v, want it to contain %q", err, tt.errorString)
			}
		})
	}
}

func TestConfig_ValidateReportsEveryProblem(t *testing.T) {
	cfg := validConfig()
	cfg.APIURL = "ftp://x"
	cfg.PageSize = 3
	cfg.Timeout = -time.Second

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"API URL scheme", "page size 3", "timeout"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
}

func TestLoad(t *testing.T) {
	keys := []string{
		"RESALE_API_URL", "RESALE_ADDR", "RESALE_JOURNAL", "RESALE_LOG",
		"RESALE_TIMEOUT", "RESALE_LOW_STOCK", "RESALE_PAGE_SIZE", "RESALE_TOKEN", "RESALE_LOG_LEVEL",
	}

	t.Run("default values", func(t *testing.T) {
		for _, k := range keys {
			t.Setenv(k, "")
		}

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error: %v", err)
		}
		if cfg.APIURL != DefaultAPIURL {
			t.Errorf("Load() APIURL = %v, want %v", cfg.APIURL, DefaultAPIURL)
		}
		if cfg.Addr != DefaultAddr {
			t.Errorf("Load() Addr = %v, want %v", cfg.Addr, DefaultAddr)
		}
		if cfg.Timeout != DefaultTimeout {
			t.Errorf("Load() Timeout = %v, want %v", cfg.Timeout, DefaultTimeout)
		}
		if cfg.LowStockThreshold != DefaultLowStock {
			t.Errorf("Load() LowStockThreshold = %v, want %v", cfg.LowStockThreshold, DefaultLowStock)
		}
		if cfg.PageSize != DefaultPageSize {
			t.Errorf("Load() PageSize = %v, want %v", cfg.PageSize, DefaultPageSize)
		}
		if cfg.LogPath != "" {
			t.Errorf("Load() LogPath = %v, want empty", cfg.LogPath)
		}
		if cfg.Token != "" {
			t.Errorf("Load() Token = %v, want empty", cfg.Token)
		}
		if cfg.LogLevel != DefaultLogLevel {
			t.Errorf("Load() LogLevel = %v, want %v", cfg.LogLevel, DefaultLogLevel)
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("defaults do not validate: %v", err)
		}
	})

	t.Run("environment variables", func(t *testing.T) {
		t.Setenv("RESALE_API_URL", "https://api.example.com")
		t.Setenv("RESALE_ADDR", "127.0.0.1:9090")
		t.Setenv("RESALE_JOURNAL", "/tmp/journal.db")
		t.Setenv("RESALE_LOG", "/tmp/resaledesk.log")
		t.Setenv("RESALE_TIMEOUT", "3s")
		t.Setenv("RESALE_LOW_STOCK", "2")
		t.Setenv("RESALE_PAGE_SIZE", "25")
		t.Setenv("RESALE_TOKEN", "abc123")
		t.Setenv("RESALE_LOG_LEVEL", "DEBUG")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error: %v", err)
		}
		if cfg.APIURL != "https://api.example.com" {
			t.Errorf("Load() APIURL = %v", cfg.APIURL)
		}
		if cfg.Addr != "127.0.0.1:9090" {
			t.Errorf("Load() Addr = %v", cfg.Addr)
		}
		if cfg.JournalPath != "/tmp/journal.db" {
			t.Errorf("Load() JournalPath = %v", cfg.JournalPath)
		}
		if cfg.LogPath != "/tmp/resaledesk.log" {
			t.Errorf("Load() LogPath = %v", cfg.LogPath)
		}
		if cfg.Timeout != 3*time.Second {
			t.Errorf("Load() Timeout = %v, want 3s", cfg.Timeout)
		}
		if cfg.LowStockThreshold != 2 {
			t.Errorf("Load() LowStockThreshold = %v, want 2", cfg.LowStockThreshold)
		}
		if cfg.PageSize != 25 {
			t.Errorf("Load() PageSize = %v, want 25", cfg.PageSize)
		}
		if cfg.LogLevel != "debug" {
			t.Errorf("Load() LogLevel = %v, want debug", cfg.LogLevel)
		}
		if cfg.Token != "abc123" {
			t.Errorf("Load() Token = %v, want abc123", cfg.Token)
		}
	})

	t.Run("malformed numbers fall back to defaults", func(t *testing.T) {
		t.Setenv("RESALE_TIMEOUT", "soon")
		t.Setenv("RESALE_LOW_STOCK", "few")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error: %v", err)
		}
		if cfg.Timeout != DefaultTimeout {
			t.Errorf("Load() Timeout = %v, want %v", cfg.Timeout, DefaultTimeout)
		}
		if cfg.LowStockThreshold != DefaultLowStock {
			t.Errorf("Load() LowStockThreshold = %v, want %v", cfg.LowStockThreshold, DefaultLowStock)
		}
	})
}
