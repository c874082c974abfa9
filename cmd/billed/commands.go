package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/peterbourgon/ff/v4"

	"github.com/zombor/billed/internal/bill"
	"github.com/zombor/billed/internal/billstore"
	"github.com/zombor/billed/internal/remote"
)

// clientConfig holds the flags shared by the employee-facing commands
type clientConfig struct {
	server   *string
	email    *string
	password *string
	timeout  *time.Duration
}

func (c clientConfig) identity() bill.Identity {
	return bill.Identity{Email: *c.email}
}

func (c clientConfig) store() (*remote.Client, error) {
	if *c.email == "" {
		return nil, fmt.Errorf("--email is required")
	}
	return remote.NewClient(*c.server, c.identity(),
		remote.WithPassword(*c.password),
		remote.WithTimeout(*c.timeout),
	)
}

func newRootCommand(stdout io.Writer) *ff.Command {
	rootFlags := ff.NewFlagSet("billed")
	cfg := clientConfig{
		server:   rootFlags.StringLong("server", "http://localhost:8080", "Bill store base URL"),
		email:    rootFlags.StringLong("email", "", "Employee email used as identity"),
		password: rootFlags.StringLong("password", "", "Shared basic auth password"),
		timeout:  rootFlags.DurationLong("timeout", 30*time.Second, "Timeout for each request to the store"),
	}

	root := &ff.Command{
		Name:  "billed",
		Usage: "billed [FLAGS] <SUBCOMMAND>",
		Flags: rootFlags,
	}
	root.Subcommands = append(root.Subcommands,
		newServeCommand(rootFlags),
		newBillsCommand(rootFlags, cfg, stdout),
		newBillCommand(rootFlags, cfg, stdout),
	)
	return root
}

func newServeCommand(parent *ff.FlagSet) *ff.Command {
	fs := ff.NewFlagSet("serve").SetParent(parent)
	var (
		port        = fs.IntLong("port", 8080, "HTTP server port")
		dbPath      = fs.StringLong("db", "billed.db", "Database file path")
		storagePath = fs.StringLong("storage", "./bills", "Receipt storage directory path")
		authPass    = fs.StringLong("auth-pass", "", "Shared basic auth password (optional)")
	)

	return &ff.Command{
		Name:      "serve",
		Usage:     "billed serve [FLAGS]",
		ShortHelp: "run the bill store",
		Flags:     fs,
		Exec: func(ctx context.Context, args []string) error {
			slog.Info("Initializing database...")
			db, err := billstore.NewBoltDB(*dbPath)
			if err != nil {
				return fmt.Errorf("initializing database: %w", err)
			}
			defer db.Close()

			slog.Info("Initializing storage...")
			store, err := billstore.NewLocalStorage(*storagePath)
			if err != nil {
				return fmt.Errorf("initializing storage: %w", err)
			}

			server := billstore.NewServer(billstore.NewService(db, store), billstore.BasicAuth{Password: *authPass})

			addr := fmt.Sprintf(":%d", *port)
			errc := make(chan error, 1)
			go func() {
				errc <- server.Start(addr)
			}()

			slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr), "version", version)
			if *authPass != "" {
				slog.Info("Basic auth enabled")
			}

			select {
			case err := <-errc:
				return fmt.Errorf("serving: %w", err)
			case <-ctx.Done():
				slog.Info("Shutting down...")
				return nil
			}
		},
	}
}

func newBillsCommand(parent *ff.FlagSet, cfg clientConfig, stdout io.Writer) *ff.Command {
	fs := ff.NewFlagSet("bills").SetParent(parent)
	preview := fs.StringLong("preview", "", "ID of the bill whose receipt to show")

	return &ff.Command{
		Name:      "bills",
		Usage:     "billed bills [FLAGS]",
		ShortHelp: "list my bills, most recent first",
		Flags:     fs,
		Exec: func(ctx context.Context, args []string) error {
			store, err := cfg.store()
			if err != nil {
				return err
			}
			return showBills(ctx, stdout, store, cfg.identity(), *preview)
		},
	}
}

func showBills(ctx context.Context, stdout io.Writer, store bill.RemoteStore, identity bill.Identity, previewID string) error {
	list := bill.NewList(store, identity, nil, bill.LogReporter{})
	defer list.Unmount()

	page, err := list.OnFetch(ctx)
	if err == nil && previewID != "" {
		for _, row := range page.Rows {
			if row.Bill.ID == previewID {
				page.Preview = list.OnPreviewRequested(row.Bill.FileURL)
			}
		}
		if !page.Preview.Open {
			return fmt.Errorf("no bill with id %q", previewID)
		}
	}
	renderBills(stdout, identity, page)
	return err
}

func newBillCommand(parent *ff.FlagSet, cfg clientConfig, stdout io.Writer) *ff.Command {
	fs := ff.NewFlagSet("new").SetParent(parent)
	var (
		expenseType = fs.StringLong("type", string(bill.TypeTransports), "Expense type")
		name        = fs.StringLong("name", "", "Expense name")
		date        = fs.StringLong("date", "", "Expense date (YYYY-MM-DD)")
		amount      = fs.StringLong("amount", "", "Amount, whole units")
		vat         = fs.StringLong("vat", "", "VAT amount")
		pct         = fs.StringLong("pct", "", "Reimbursement percentage")
		commentary  = fs.StringLong("commentary", "", "Commentary")
		file        = fs.StringLong("file", "", "Receipt image (jpg, jpeg or png)")
		contentType = fs.StringLong("content-type", "", "Receipt MIME type (default: from the file extension)")
	)

	return &ff.Command{
		Name:      "new",
		Usage:     "billed new [FLAGS]",
		ShortHelp: "submit a new bill with its receipt",
		LongHelp:  "Expense types: " + strings.Join(expenseTypeNames(), ", "),
		Flags:     fs,
		Exec: func(ctx context.Context, args []string) error {
			store, err := cfg.store()
			if err != nil {
				return err
			}

			var next bill.Route
			navigator := bill.NavigatorFunc(func(route bill.Route) { next = route })
			submission := bill.NewSubmission(store, cfg.identity(), navigator, bill.LogReporter{})
			defer submission.Unmount()

			if *file != "" {
				att, err := readAttachment(*file, *contentType)
				if err != nil {
					return err
				}
				if err := submission.OnAttachmentSelected(att); err != nil {
					renderError(stdout, bill.Present(err))
					return err
				}
			}

			draft := bill.Draft{
				Type:       bill.ExpenseType(*expenseType),
				Name:       *name,
				Date:       *date,
				VAT:        *vat,
				Commentary: *commentary,
			}
			if draft.Amount, err = optionalInt("amount", *amount); err != nil {
				return err
			}
			if draft.Pct, err = optionalInt("pct", *pct); err != nil {
				return err
			}

			if err := submission.OnSubmit(ctx, draft); err != nil {
				renderError(stdout, bill.Present(err))
				return err
			}

			if next == bill.RouteBills {
				return showBills(ctx, stdout, store, cfg.identity(), "")
			}
			return nil
		},
	}
}

// readAttachment loads a receipt. Without an explicit type the MIME type is
// guessed from the extension, as a browser file input does.
func readAttachment(path, contentType string) (bill.Attachment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return bill.Attachment{}, fmt.Errorf("reading receipt: %w", err)
	}
	if contentType == "" {
		contentType = mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	}
	return bill.Attachment{
		Name:        filepath.Base(path),
		ContentType: contentType,
		Data:        data,
	}, nil
}

func optionalInt(flag, raw string) (*int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("--%s must be a whole number: %w", flag, err)
	}
	return &v, nil
}

func expenseTypeNames() []string {
	names := make([]string, 0, len(bill.ExpenseTypes))
	for _, t := range bill.ExpenseTypes {
		names = append(names, string(t))
	}
	return names
}
