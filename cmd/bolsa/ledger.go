package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"

	"github.com/bolsamaster/bolsamaster-backend/internal/api/request"
	"github.com/bolsamaster/bolsamaster-backend/internal/app"
	"github.com/bolsamaster/bolsamaster-backend/internal/apperrors"
	"github.com/bolsamaster/bolsamaster-backend/internal/config"
	"github.com/bolsamaster/bolsamaster-backend/internal/importer"
	"github.com/bolsamaster/bolsamaster-backend/internal/report"
	"github.com/bolsamaster/bolsamaster-backend/internal/validation"
)

type addCmd struct {
	date     string
	ticker   string
	kind     string
	quantity string
	price    string
	costs    string
}

func (*addCmd) Name() string     { return "add" }
func (*addCmd) Synopsis() string { return "append a buy, sell or dividend to the ledger" }
func (*addCmd) Usage() string {
	return `bolsa add -t <ticker> -k <buy|sell|dividend> -q <quantity> -p <price> [-c <costs>] [-d <date>]

  Appends one entry. Numbers accept both 1234.56 and 1.234,56.
  For dividends -p is the gross amount and -c the withheld tax.
`
}

func (c *addCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", "", "trade date YYYY-MM-DD (defaults to today)")
	f.StringVar(&c.ticker, "t", "", "ticker")
	f.StringVar(&c.kind, "k", "buy", "entry kind: buy, sell or dividend")
	f.StringVar(&c.quantity, "q", "", "quantity (dividends default to 1)")
	f.StringVar(&c.price, "p", "", "unit price, or amount for dividends")
	f.StringVar(&c.costs, "c", "0", "brokerage costs or withheld tax")
}

// request converts the flags into a validated CreateTransactionRequest.
func (c *addCmd) request() (request.CreateTransactionRequest, error) {
	req := request.CreateTransactionRequest{
		Date:   c.date,
		Ticker: c.ticker,
		Type:   c.kind,
	}
	if req.Date == "" {
		req.Date = time.Now().Format("2006-01-02")
	}

	var err error
	parse := func(flagName, s string) decimal.Decimal {
		if s == "" || err != nil {
			return decimal.Zero
		}
		d, perr := importer.ParseNumber(s)
		if perr != nil {
			err = fmt.Errorf("invalid -%s %q: %w", flagName, s, perr)
		}
		return d
	}
	req.Quantity = parse("q", c.quantity)
	req.Price = parse("p", c.price)
	req.Costs = parse("c", c.costs)
	if err != nil {
		return req, err
	}

	return req, validation.ValidateCreateTransaction(req)
}

func (c *addCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	req, err := c.request()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	return withApp(ctx, func(ctx context.Context, a *app.App, _ *config.Config) error {
		t, err := a.Transactions.CreateTransaction(ctx, req)
		if err != nil {
			return err
		}
		fmt.Printf("%s %s %s %s x %s\n", t.ID, t.Date.Format("2006-01-02"), t.Kind, t.Ticker, t.Quantity)
		return nil
	})
}

type rmCmd struct{}

func (*rmCmd) Name() string     { return "rm" }
func (*rmCmd) Synopsis() string { return "remove ledger entries by ID" }
func (*rmCmd) Usage() string {
	return `bolsa rm <id>...

  Removes the given entries. IDs are listed by "bolsa tx".
`
}

func (*rmCmd) SetFlags(*flag.FlagSet) {}

func (*rmCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: at least one ID is required")
		return subcommands.ExitUsageError
	}
	for _, id := range f.Args() {
		if err := validation.ValidateUUID(id); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitUsageError
		}
	}

	return withApp(ctx, func(ctx context.Context, a *app.App, _ *config.Config) error {
		var errs []error
		for _, id := range f.Args() {
			if err := a.Transactions.DeleteTransaction(ctx, id); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", id, err))
				continue
			}
			fmt.Printf("removed %s\n", id)
		}
		return errors.Join(errs...)
	})
}

type importCmd struct {
	date string
	raw  bool
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "import positions from a broker export" }
func (*importCmd) Usage() string {
	return `bolsa import [-d <date>] <file>

  Records every valid row of a .csv, .txt or .xlsx export as a buy.
  Rows that fail validation are listed and skipped.
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", "", "date stamped on imported entries (defaults to today)")
	f.BoolVar(&c.raw, "raw", false, "print markdown without rendering")
}

func (c *importCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: exactly one file is required")
		return subcommands.ExitUsageError
	}
	date := time.Now()
	if c.date != "" {
		d, err := time.Parse("2006-01-02", c.date)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
			return subcommands.ExitUsageError
		}
		date = d
	}

	name := f.Arg(0)
	return withApp(ctx, func(ctx context.Context, a *app.App, cfg *config.Config) error {
		file, err := os.Open(name)
		if err != nil {
			return err
		}
		defer file.Close()

		result, err := a.Transactions.ImportTransactions(ctx, filepath.Base(name), file, date)
		for _, r := range result.Rejected {
			fmt.Fprintf(os.Stderr, "line %d (%s): %s\n", r.Candidate.Line, r.Candidate.Ticker, r.Reason)
		}
		if errors.Is(err, apperrors.ErrNoCandidates) {
			return fmt.Errorf("%s: %w", name, err)
		}
		if err != nil {
			return err
		}

		printMarkdown(report.Transactions(result.Imported, cfg.Quote.ReportingCurrency), c.raw)
		return nil
	})
}
