package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/erazemk/resaledesk/internal/client"
	"github.com/erazemk/resaledesk/internal/config"
	"github.com/erazemk/resaledesk/internal/logging"
)

const usage = `Usage: resalectl <command> [flags] [args]

Commands:
  inventory                     list inventory (-q, -category, -sort name|category|cost|quantity)
  orders                        list orders (-status, -desc)
  orders set-status <id> <s>    change an order's shipping status
  orders delete <id>            move an order to deleted orders
  financial                     show totals and transactions (-start, -end, -per-page, -page)
  deleted                       list deleted orders
  deleted recover <id>          move a deleted order back to orders
  deleted delete <id>           permanently delete one deleted order
  deleted delete-all            permanently delete every deleted order (-yes)
  sell <item>                   sell one unit (-price, -yes)
  login                         log in and print the session token (-user)
  journal                       list sale attempts needing repair (-all, -limit)
  journal resolve <id>          mark an unreconciled sale attempt as repaired
  photos <file>...              remove backgrounds from product photos

Common flags:
  -u, -api <url>        backend base URL (env RESALE_API_URL)
      -token <token>    session token from "resalectl login" (env RESALE_TOKEN)
  -t, -timeout <dur>    backend request timeout (env RESALE_TIMEOUT)
  -j, -journal <path>   sale journal path, for sell and journal (env RESALE_JOURNAL)
`

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Command output owns stdout, so every record goes to stderr. Below
	// warn only when asked for explicitly.
	level := cfg.LogLevel
	if level == config.DefaultLogLevel {
		level = "warn"
	}
	closeLog, err := logging.Setup(logging.Options{Level: level, Path: cfg.LogPath, Out: os.Stderr, Err: os.Stderr})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	code := run(context.Background(), cfg, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	if closeLog != nil {
		closeLog()
	}
	os.Exit(code)
}

// app carries the settings and streams shared by every command.
type app struct {
	cfg    *config.Config
	in     *bufio.Reader
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

// run executes one command and returns the process exit code.
func run(ctx context.Context, cfg *config.Config, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		fmt.Fprint(stderr, usage)
		return 1
	}

	a := &app{cfg: cfg, in: bufio.NewReader(stdin), stdin: stdin, stdout: stdout, stderr: stderr}

	var err error
	switch args[0] {
	case "inventory":
		err = a.cmdInventory(ctx, args[1:])
	case "orders":
		err = a.cmdOrders(ctx, args[1:])
	case "financial":
		err = a.cmdFinancial(ctx, args[1:])
	case "deleted":
		err = a.cmdDeleted(ctx, args[1:])
	case "sell":
		err = a.cmdSell(ctx, args[1:])
	case "login":
		err = a.cmdLogin(ctx, args[1:])
	case "journal":
		err = a.cmdJournal(ctx, args[1:])
	case "photos":
		err = a.cmdPhotos(ctx, args[1:])
	case "help", "-h", "-help", "--help":
		fmt.Fprint(stdout, usage)
		return 0
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n%s", args[0], usage)
		return 1
	}

	switch {
	case err == nil:
		return 0
	case errors.Is(err, flag.ErrHelp):
		return 0
	case errors.Is(err, errUsage):
		return 2
	default:
		fmt.Fprintf(stderr, "error: %s\n", client.Describe(err))
		return 1
	}
}

// errUsage marks an error already reported to the user by the flag set.
var errUsage = errors.New("usage")

// flags creates a flag set with the backend flags every command accepts.
func (a *app) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)

	fs.StringVar(&a.cfg.APIURL, "api", a.cfg.APIURL, "backend base URL")
	fs.StringVar(&a.cfg.APIURL, "u", a.cfg.APIURL, "backend base URL")
	fs.StringVar(&a.cfg.Token, "token", a.cfg.Token, "session token")
	fs.DurationVar(&a.cfg.Timeout, "timeout", a.cfg.Timeout, "backend request timeout")
	fs.DurationVar(&a.cfg.Timeout, "t", a.cfg.Timeout, "backend request timeout")
	return fs
}

// journalFlags adds the journal path flags.
func (a *app) journalFlags(fs *flag.FlagSet) {
	fs.StringVar(&a.cfg.JournalPath, "journal", a.cfg.JournalPath, "sale journal path")
	fs.StringVar(&a.cfg.JournalPath, "j", a.cfg.JournalPath, "sale journal path")
}

// parse parses args, mapping flag errors to errUsage.
func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return errUsage
	}
	return nil
}

// client returns a REST client for the configured backend and token.
func (a *app) client() (*client.Client, error) {
	c, err := client.New(a.cfg.APIURL, client.WithTimeout(a.cfg.Timeout))
	if err != nil {
		return nil, err
	}
	if a.cfg.Token != "" {
		c = c.WithToken(a.cfg.Token)
	}
	return c, nil
}

// table returns a writer that aligns tab-separated columns.
func (a *app) table() *tabwriter.Writer {
	return tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
}

// confirm asks a yes/no question on stdout and reads the answer.
func (a *app) confirm(question string) bool {
	fmt.Fprintf(a.stdout, "%s [y/N] ", question)
	answer, _ := a.in.ReadString('\n')
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

// readLine reads one line from stdin without its newline.
func (a *app) readLine() (string, error) {
	line, err := a.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
