// Package config reads the dashboard settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Defaults used when the environment leaves a key unset.
const (
	DefaultAPIURL      = "http://127.0.0.1:5000"
	DefaultAddr        = ":8080"
	DefaultJournalPath = "resaledesk.db"
	DefaultTimeout     = 15 * time.Second
	DefaultLowStock    = 5
	DefaultPageSize    = 10
	DefaultLogLevel    = "info"
)

// LogLevels are the accepted log level names.
var LogLevels = []string{"debug", "info", "warn", "error"}

// PageSizes are the accepted financial table page sizes.
var PageSizes = []int{5, 10, 25}

type Config struct {
	// Backend
	APIURL  string
	Token   string
	Timeout time.Duration

	// Dashboard server
	Addr string

	// Sale journal
	JournalPath string

	// Log file, empty for stdout/stderr only
	LogPath  string
	LogLevel string

	// Views
	LowStockThreshold int
	PageSize          int
}

// Load reads an optional .env file and then the RESALE_* variables.
// Variables already present in the environment win over the file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg := &Config{
		APIURL:  getEnv("RESALE_API_URL", DefaultAPIURL),
		Token:   getEnv("RESALE_TOKEN", ""),
		Timeout: getEnvDuration("RESALE_TIMEOUT", DefaultTimeout),

		Addr: getEnv("RESALE_ADDR", DefaultAddr),

		JournalPath: getEnv("RESALE_JOURNAL", DefaultJournalPath),
		LogPath:     getEnv("RESALE_LOG", ""),
		LogLevel:    strings.ToLower(getEnv("RESALE_LOG_LEVEL", DefaultLogLevel)),

		LowStockThreshold: getEnvInt("RESALE_LOW_STOCK", DefaultLowStock),
		PageSize:          getEnvInt("RESALE_PAGE_SIZE", DefaultPageSize),
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []string

	if u, err := url.Parse(c.APIURL); err != nil {
		errs = append(errs, fmt.Sprintf("invalid API URL '%s': %v", c.APIURL, err))
	} else if u.Scheme != "http" && u.Scheme != "https" {
		errs = append(errs, fmt.Sprintf("invalid API URL scheme '%s': must be 'http' or 'https'", u.Scheme))
	} else if u.Host == "" {
		errs = append(errs, fmt.Sprintf("invalid API URL '%s': missing host", c.APIURL))
	}

	if c.Addr == "" {
		errs = append(errs, "listen address cannot be empty")
	}

	if c.JournalPath == "" {
		errs = append(errs, "journal path cannot be empty")
	}

	if c.Timeout <= 0 {
		errs = append(errs, fmt.Sprintf("invalid timeout %v: must be positive", c.Timeout))
	}

	if c.LowStockThreshold < 1 {
		errs = append(errs, fmt.Sprintf("invalid low stock threshold %d: must be at least 1", c.LowStockThreshold))
	}

	if !slices.Contains(PageSizes, c.PageSize) {
		errs = append(errs, fmt.Sprintf("invalid page size %d: must be one of %v", c.PageSize, PageSizes))
	}

	if !slices.Contains(LogLevels, c.LogLevel) {
		errs = append(errs, fmt.Sprintf("invalid log level '%s': must be one of %s", c.LogLevel, strings.Join(LogLevels, ", ")))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
