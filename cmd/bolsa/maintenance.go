package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/bolsamaster/bolsamaster-backend/internal/app"
	"github.com/bolsamaster/bolsamaster-backend/internal/config"
	"github.com/bolsamaster/bolsamaster-backend/internal/report"
)

type refreshCmd struct {
	raw bool
}

func (*refreshCmd) Name() string     { return "refresh" }
func (*refreshCmd) Synopsis() string { return "fetch fresh quotes for every open position" }
func (*refreshCmd) Usage() string {
	return `bolsa refresh [-raw]

  Asks the quote providers for every open position, stores the prices and
  displays the updated holdings. Tickers nobody could price are listed.
`
}

func (c *refreshCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.raw, "raw", false, "print markdown without rendering")
}

func (c *refreshCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withApp(ctx, func(ctx context.Context, a *app.App, cfg *config.Config) error {
		p, err := a.Portfolio.RefreshQuotes(ctx)
		if err != nil {
			return err
		}
		printMarkdown(report.Holdings(p, cfg.Quote.ReportingCurrency), c.raw)
		return nil
	})
}

type syncCmd struct{}

func (*syncCmd) Name() string     { return "sync" }
func (*syncCmd) Synopsis() string { return "exchange ledger entries with the remote mirror" }
func (*syncCmd) Usage() string {
	return `bolsa sync

  Restores entries missing locally from MIRROR_DATABASE_URL, then pushes
  local changes that have not reached the mirror yet.
`
}

func (*syncCmd) SetFlags(*flag.FlagSet) {}

func (*syncCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withApp(ctx, func(ctx context.Context, a *app.App, _ *config.Config) error {
		pulled, pushed, err := a.SyncNow(ctx)
		fmt.Fprintf(os.Stdout, "pulled %d, pushed %d\n", pulled, pushed)
		return err
	})
}
