package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/erazemk/resaledesk/internal/auth"
	"github.com/erazemk/resaledesk/internal/client"
	"github.com/erazemk/resaledesk/internal/config"
	"github.com/erazemk/resaledesk/internal/journal"
	"github.com/erazemk/resaledesk/internal/logging"
	"github.com/erazemk/resaledesk/internal/web"
)

// shutdownTimeout bounds how long in-flight requests, including sales
// that may need compensating, get to finish.
const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	fs := flag.NewFlagSet("resaledesk", flag.ContinueOnError)

	fs.StringVar(&cfg.APIURL, "api", cfg.APIURL, "")
	fs.StringVar(&cfg.APIURL, "u", cfg.APIURL, "")

	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "")
	fs.StringVar(&cfg.Addr, "a", cfg.Addr, "")

	fs.StringVar(&cfg.JournalPath, "journal", cfg.JournalPath, "")
	fs.StringVar(&cfg.JournalPath, "j", cfg.JournalPath, "")

	fs.StringVar(&cfg.LogPath, "log", cfg.LogPath, "")
	fs.StringVar(&cfg.LogPath, "l", cfg.LogPath, "")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "")

	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "")
	fs.DurationVar(&cfg.Timeout, "t", cfg.Timeout, "")

	fs.IntVar(&cfg.LowStockThreshold, "low-stock", cfg.LowStockThreshold, "")
	fs.IntVar(&cfg.PageSize, "page-size", cfg.PageSize, "")

	fs.Usage = func() {
		fmt.Fprint(os.Stdout, `Usage: resaledesk [flags]

Serves the resale dashboard, backed by the inventory REST API.

Flags:
  -u, -api <url>          backend base URL (default: http://127.0.0.1:5000, env RESALE_API_URL)
  -a, -addr <host:port>   listen address (default: :8080, env RESALE_ADDR)
  -j, -journal <path>     sale journal SQLite path (default: resaledesk.db, env RESALE_JOURNAL)
  -l, -log <path>         log file path (default: no file, stdout/stderr only, env RESALE_LOG)
      -log-level <level>  debug, info, warn or error (default: info, env RESALE_LOG_LEVEL)
  -t, -timeout <dur>      backend request timeout (default: 15s, env RESALE_TIMEOUT)
      -low-stock <n>      low-stock threshold (default: 5, env RESALE_LOW_STOCK)
      -page-size <n>      financial rows per page: 5, 10 or 25 (default: 10, env RESALE_PAGE_SIZE)
  -h, -help               show this help and exit

Settings are also read from a .env file in the working directory.
`)
	}

	if err := fs.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if fs.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "unexpected argument: %s\n", fs.Arg(0))
		fs.Usage()
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Records below ERROR go to stdout, the rest to stderr.
	closeLog, err := logging.Setup(logging.Options{Level: cfg.LogLevel, Path: cfg.LogPath})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if closeLog != nil {
		defer closeLog()
	}

	// Open the sale journal; migrations run on open.
	journalDB, err := journal.Open(cfg.JournalPath)
	if err != nil {
		slog.Error("failed to open journal", "error", err)
		os.Exit(1)
	}
	defer journalDB.Close()

	slog.Info("journal ready", "path", cfg.JournalPath)

	ctx := context.Background()
	if pending, err := journal.Unresolved(ctx, journalDB); err != nil {
		slog.Error("failed to check unresolved sale attempts", "error", err)
	} else if len(pending) > 0 {
		slog.Warn("sale attempts need repair", "count", len(pending))
	}

	// Session cookies are signed with a key kept in the journal so they
	// survive restarts.
	secret, err := journal.SessionSecret(ctx, journalDB)
	if err != nil {
		slog.Error("failed to load session secret", "error", err)
		secret, err = auth.NewSecret()
		if err != nil {
			slog.Error("failed to generate session secret", "error", err)
			os.Exit(1)
		}
		slog.Warn("session secret auto-generated (sessions will be invalidated on restart)")
	}

	backend, err := client.New(cfg.APIURL, client.WithTimeout(cfg.Timeout))
	if err != nil {
		slog.Error("invalid backend URL", "error", err)
		os.Exit(1)
	}

	srv, err := web.NewServer(backend, journalDB, secret)
	if err != nil {
		slog.Error("failed to set up web server", "error", err)
		os.Exit(1)
	}
	srv.LowStock = cfg.LowStockThreshold
	srv.PageSize = cfg.PageSize

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       120 * time.Second,
	}

	stop, cancelSignals := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancelSignals()

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		slog.Error("failed to listen", "addr", cfg.Addr, "error", err)
		os.Exit(1)
	}

	slog.Info("dashboard listening", "addr", ln.Addr().String(), "backend", backend.BaseURL())
	if err := serve(stop, server, ln, shutdownTimeout); err != nil {
		slog.Error("dashboard stopped", "error", err)
		os.Exit(1)
	}

	slog.Info("dashboard stopped")
}

// serve runs server on ln until ctx is done, then shuts it down and returns
// only once in-flight requests have finished or grace has run out.
func serve(ctx context.Context, server *http.Server, ln net.Listener, grace time.Duration) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		slog.Info("shutting down, finishing in-flight requests")

		sctx, cancel := context.WithTimeout(context.Background(), grace)
		defer cancel()
		if err := server.Shutdown(sctx); err != nil {
			slog.Error("dashboard did not shut down cleanly", "error", err)
		}
	}()

	if err := server.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-done
	return nil
}
