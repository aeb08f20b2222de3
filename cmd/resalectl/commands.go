package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/erazemk/resaledesk/internal/aggregate"
	"github.com/erazemk/resaledesk/internal/client"
	"github.com/erazemk/resaledesk/internal/format"
	"github.com/erazemk/resaledesk/internal/imaging"
	"github.com/erazemk/resaledesk/internal/journal"
	"github.com/erazemk/resaledesk/internal/model"
	"github.com/erazemk/resaledesk/internal/sale"
	"github.com/erazemk/resaledesk/internal/view"
)

func (a *app) cmdInventory(ctx context.Context, args []string) error {
	fs := a.flags("inventory")
	search := fs.String("q", "", "only items whose name contains this text")
	category := fs.String("category", "", "only items in this category")
	sortBy := fs.String("sort", "", "sort by name, category, cost or quantity")
	if err := parse(fs, args); err != nil {
		return err
	}

	c, err := a.client()
	if err != nil {
		return err
	}
	v := view.NewInventory(c, nil)
	if err := v.Load(ctx); err != nil {
		return err
	}
	v.SetSearch(*search)
	v.SetCategory(*category)
	v.SetSort(*sortBy)

	items := v.Visible()
	if len(items) == 0 {
		fmt.Fprintln(a.stdout, "No items found.")
		return nil
	}

	tw := a.table()
	fmt.Fprintln(tw, "NAME\tCATEGORY\tSIZE\tCONDITION\tCOST\tQTY")
	for _, item := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\n",
			item.Name, item.Category, item.Size, item.Condition, format.Amount(item.Cost), item.Quantity)
	}
	return tw.Flush()
}

func (a *app) cmdOrders(ctx context.Context, args []string) error {
	if len(args) > 0 {
		switch args[0] {
		case "set-status":
			return a.cmdOrderStatus(ctx, args[1:])
		case "delete":
			return a.cmdOrderDelete(ctx, args[1:])
		}
	}

	fs := a.flags("orders")
	status := fs.String("status", "", "only orders with this shipping status")
	desc := fs.Bool("desc", false, "sort by order ID, highest first")
	if err := parse(fs, args); err != nil {
		return err
	}

	c, err := a.client()
	if err != nil {
		return err
	}
	v := view.NewOrders(c)
	if err := v.Load(ctx); err != nil {
		return err
	}
	v.SetStatusFilter(*status)
	v.SetDescending(*desc)

	orders := v.Visible()
	if len(orders) == 0 {
		fmt.Fprintln(a.stdout, "No orders found.")
		return nil
	}

	tw := a.table()
	fmt.Fprintln(tw, "ID\tDATE\tBUYER\tITEMS\tCOST\tPRICE\tPROFIT\tSTATUS")
	for _, o := range orders {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			o.ID, o.OrderDate, o.BuyerName, o.ItemsPurchased,
			format.Amount(o.TotalCost), format.Amount(o.SalesPrice), format.Euro(o.Profit()), o.ShippingStatus)
	}
	return tw.Flush()
}

func (a *app) cmdOrderStatus(ctx context.Context, args []string) error {
	fs := a.flags("orders set-status")
	if err := parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		fmt.Fprintf(a.stderr, "Usage: resalectl orders set-status <id> <%s>\n", strings.Join(model.ShippingStatuses, "|"))
		return errUsage
	}

	c, err := a.client()
	if err != nil {
		return err
	}
	v := view.NewOrders(c)
	if err := v.Load(ctx); err != nil {
		return err
	}
	if err := v.UpdateStatus(ctx, fs.Arg(0), fs.Arg(1)); err != nil {
		return noticeError(v.Notice(), err)
	}
	a.report(v.Notice())
	return nil
}

func (a *app) cmdOrderDelete(ctx context.Context, args []string) error {
	fs := a.flags("orders delete")
	if err := parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(a.stderr, "Usage: resalectl orders delete <id>")
		return errUsage
	}

	c, err := a.client()
	if err != nil {
		return err
	}
	v := view.NewOrders(c)
	if err := v.Delete(ctx, fs.Arg(0)); err != nil {
		return err
	}
	a.report(v.Notice())
	return nil
}

func (a *app) cmdFinancial(ctx context.Context, args []string) error {
	fs := a.flags("financial")
	start := fs.String("start", "", "first transaction date to list (YYYY-MM-DD)")
	end := fs.String("end", "", "last transaction date to list (YYYY-MM-DD)")
	perPage := fs.Int("per-page", a.cfg.PageSize, "rows per page")
	page := fs.Int("page", 1, "page to show, starting at 1")
	if err := parse(fs, args); err != nil {
		return err
	}

	from, err := parseDay(*start)
	if err != nil {
		return err
	}
	to, err := parseDay(*end)
	if err != nil {
		return err
	}

	c, err := a.client()
	if err != nil {
		return err
	}
	v := view.NewFinancial(c)
	if err := v.SetPerPage(*perPage); err != nil {
		return err
	}
	if err := v.Load(ctx); err != nil {
		return err
	}
	if err := v.SetRange(from, to); err != nil {
		return err
	}
	v.SetPage(*page - 1)

	t := v.Totals()
	fmt.Fprintf(a.stdout, "Sales %s  Profit %s  Fees %s  Expenses %s\n\n",
		format.Euro(t.Sales), format.Euro(t.Profit), format.Euro(t.Fees), format.Euro(t.Expenses))

	rows := v.Rows()
	if len(rows) == 0 {
		fmt.Fprintln(a.stdout, "No transactions in range.")
		return nil
	}

	tw := a.table()
	fmt.Fprintln(tw, "TRANSACTION\tDATE\tORDER\tSALES\tPROFIT\tFEES\tEXPENSES")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.TransactionID, r.TransactionDate, r.OrderID,
			format.Amount(r.TotalSales), format.Amount(r.Profit), format.Amount(r.Fees), format.Amount(r.Expenses))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	current, _ := v.Page()
	fmt.Fprintf(a.stdout, "\nPage %d of %d (%d transactions)\n", current+1, v.PageCount(), len(v.Filtered()))
	return nil
}

func (a *app) cmdDeleted(ctx context.Context, args []string) error {
	sub := ""
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		sub, args = args[0], args[1:]
	}

	fs := a.flags("deleted " + sub)
	yes := fs.Bool("yes", false, "do not ask for confirmation")
	if err := parse(fs, args); err != nil {
		return err
	}

	c, err := a.client()
	if err != nil {
		return err
	}
	v := view.NewDeletedOrders(c)

	switch sub {
	case "":
		if err := v.Load(ctx); err != nil {
			return err
		}
		orders := v.Orders()
		if len(orders) == 0 {
			fmt.Fprintln(a.stdout, "No deleted orders.")
			return nil
		}
		tw := a.table()
		fmt.Fprintln(tw, "ID\tDELETED\tBUYER\tITEMS\tPRICE\tSTATUS")
		for _, o := range orders {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
				o.ID, o.DeletionDate, o.BuyerName, o.ItemsPurchased, format.Amount(o.SalesPrice), o.ShippingStatus)
		}
		return tw.Flush()

	case "recover", "delete":
		if fs.NArg() != 1 {
			fmt.Fprintf(a.stderr, "Usage: resalectl deleted %s <id>\n", sub)
			return errUsage
		}
		if sub == "recover" {
			_, err = v.Recover(ctx, fs.Arg(0))
		} else {
			err = v.Delete(ctx, fs.Arg(0))
		}
		if err != nil {
			return err
		}

	case "delete-all":
		if !*yes && !a.confirm("Permanently delete every deleted order?") {
			fmt.Fprintln(a.stdout, "Nothing deleted.")
			return nil
		}
		if err := v.DeleteAll(ctx); err != nil {
			return err
		}

	default:
		fmt.Fprintf(a.stderr, "Unknown deleted command: %s\n", sub)
		return errUsage
	}

	a.report(v.Notice())
	return nil
}

func (a *app) cmdSell(ctx context.Context, args []string) error {
	fs := a.flags("sell")
	a.journalFlags(fs)
	price := fs.String("price", "", "sales price (defaults to the item's cost)")
	yes := fs.Bool("yes", false, "do not ask for confirmation")
	if err := parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(a.stderr, "Usage: resalectl sell [-price <amount>] [-yes] <item>")
		return errUsage
	}
	name := fs.Arg(0)

	c, err := a.client()
	if err != nil {
		return err
	}
	db, err := journal.Open(a.cfg.JournalPath)
	if err != nil {
		return err
	}
	defer db.Close()

	v := view.NewInventory(c, nil)
	if err := v.Load(ctx); err != nil {
		return err
	}
	item, ok := v.Find(name)
	if !ok {
		return &model.ValidationError{Field: "item_name", Message: fmt.Sprintf("no item named %q", name)}
	}

	w := sale.New(c, sale.WithRecorder(&journal.Journal{DB: db}))
	if err := w.Begin(item); err != nil {
		return err
	}
	if *price != "" {
		if err := w.SetPrice(*price); err != nil {
			return err
		}
	}

	fmt.Fprintf(a.stdout, "%s: %d in stock, cost %s\n", item.Name, item.Quantity, format.Amount(item.Cost))
	if !*yes && !a.confirm(fmt.Sprintf("Sell one for €%s?", w.Price())) {
		if err := w.Cancel(ctx); err != nil {
			return err
		}
		fmt.Fprintln(a.stdout, "Sale cancelled.")
		return nil
	}

	order, err := w.Confirm(ctx)
	if err != nil {
		var se *sale.SaleError
		switch {
		case errors.As(err, &se) && se.Unreconciled:
			return fmt.Errorf("sale of %s failed and its stock is now one short; attempt %s was journaled for repair (see \"resalectl journal\"): %s",
				item.Name, se.AttemptID, client.Describe(se.Err))
		case errors.As(err, &se) && se.Compensated:
			return fmt.Errorf("could not create the order, so %s was left in stock: %s", item.Name, client.Describe(se.Err))
		}
		return err
	}
	fmt.Fprintf(a.stdout, "Sold %s for %s (order %s).\n", item.Name, format.Amount(order.SalesPrice), order.ID)
	return nil
}

func (a *app) cmdLogin(ctx context.Context, args []string) error {
	fs := a.flags("login")
	username := fs.String("user", "", "username")
	if err := parse(fs, args); err != nil {
		return err
	}

	if *username == "" {
		fmt.Fprint(a.stderr, "Username: ")
		line, err := a.readLine()
		if err != nil {
			return fmt.Errorf("reading username: %w", err)
		}
		*username = strings.TrimSpace(line)
	}

	password, err := a.readPassword()
	if err != nil {
		return fmt.Errorf("reading password: %w", err)
	}

	c, err := a.client()
	if err != nil {
		return err
	}
	v := view.NewLogin(c)
	session, err := v.Submit(ctx, model.Credentials{Username: *username, Password: password})
	if err != nil {
		return noticeError(v.Notice(), err)
	}

	a.report(v.Notice())
	fmt.Fprintf(a.stdout, "export RESALE_TOKEN=%s\n", session.Token)
	return nil
}

// readPassword reads a password without echo from a terminal, or as a plain
// line when stdin is redirected.
func (a *app) readPassword() (string, error) {
	fmt.Fprint(a.stderr, "Password: ")
	if f, ok := a.stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(a.stderr)
		return string(b), err
	}
	return a.readLine()
}

func (a *app) cmdJournal(ctx context.Context, args []string) error {
	resolve := len(args) > 0 && args[0] == "resolve"
	if resolve {
		args = args[1:]
	}

	fs := a.flags("journal")
	a.journalFlags(fs)
	all := fs.Bool("all", false, "list every recorded attempt, not only those needing repair")
	limit := fs.Int("limit", 50, "most attempts to list with -all")
	if err := parse(fs, args); err != nil {
		return err
	}

	db, err := journal.Open(a.cfg.JournalPath)
	if err != nil {
		return err
	}
	defer db.Close()

	if resolve {
		if fs.NArg() != 1 {
			fmt.Fprintln(a.stderr, "Usage: resalectl journal resolve <id>")
			return errUsage
		}
		if err := journal.ResolveAttempt(ctx, db, fs.Arg(0), time.Now()); err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "Marked attempt %s as repaired.\n", fs.Arg(0))
		return nil
	}

	return a.listAttempts(ctx, db, *all, *limit)
}

func (a *app) listAttempts(ctx context.Context, db *sql.DB, all bool, limit int) error {
	var (
		entries []journal.Entry
		err     error
	)
	if all {
		entries, err = journal.ListAttempts(ctx, db, "", limit)
	} else {
		entries, err = journal.Unresolved(ctx, db)
	}
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		if all {
			fmt.Fprintln(a.stdout, "No sale attempts recorded.")
		} else {
			fmt.Fprintln(a.stdout, "No sale attempts need repair.")
		}
		return nil
	}

	tw := a.table()
	fmt.Fprintln(tw, "ID\tRECORDED\tITEM\tPRICE\tOUTCOME\tORDER\tERROR")
	for _, e := range entries {
		outcome := string(e.Outcome)
		if e.ResolvedAt != nil {
			outcome += " (repaired)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			e.ID, e.RecordedAt.Local().Format(time.DateTime), e.ItemName, e.Price, outcome, e.OrderID, e.Error)
	}
	return tw.Flush()
}

func (a *app) cmdPhotos(ctx context.Context, args []string) error {
	fs := a.flags("photos")
	if err := parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(a.stderr, "Usage: resalectl photos <file>...")
		return errUsage
	}

	var uploads []client.Upload
	for _, path := range fs.Args() {
		photo, err := preparePhoto(path)
		if err != nil {
			return err
		}
		if photo.Resized {
			fmt.Fprintf(a.stderr, "%s: resized to %dx%d\n", photo.Filename, photo.Width, photo.Height)
		}
		uploads = append(uploads, client.Upload{Filename: photo.Filename, Data: photo.Data})
	}

	c, err := a.client()
	if err != nil {
		return err
	}
	result, err := c.RemoveBackground(ctx, uploads)
	if err != nil {
		return err
	}

	if result.Message != "" {
		fmt.Fprintln(a.stdout, result.Message)
	}
	for _, img := range result.Images {
		fmt.Fprintf(a.stdout, "%s\t%s\n", img.Filename, c.ResolveURL(img.URL))
	}
	if result.ZipURL != "" {
		fmt.Fprintf(a.stdout, "All images: %s\n", c.ResolveURL(result.ZipURL))
	}
	return nil
}

func preparePhoto(path string) (*imaging.Photo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening photo: %w", err)
	}
	defer f.Close()

	photo, err := imaging.Prepare(path, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return photo, nil
}

// report prints a holder's notice, if any.
func (a *app) report(n *view.Notice) {
	if n == nil {
		return
	}
	if n.Level == view.NoticeError {
		fmt.Fprintln(a.stderr, n.Message)
		return
	}
	fmt.Fprintln(a.stdout, n.Message)
}

// noticeError prefers the holder's user-facing message over the raw error.
func noticeError(n *view.Notice, err error) error {
	if n != nil && n.Level == view.NoticeError && n.Message != "" {
		return errors.New(n.Message)
	}
	return err
}

func parseDay(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := aggregate.ParseDate(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: use YYYY-MM-DD", s)
	}
	return t, nil
}
