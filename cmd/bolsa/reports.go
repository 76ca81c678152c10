package main

import (
	"context"
	"flag"

	"github.com/google/subcommands"

	"github.com/bolsamaster/bolsamaster-backend/internal/app"
	"github.com/bolsamaster/bolsamaster-backend/internal/config"
	"github.com/bolsamaster/bolsamaster-backend/internal/model"
	"github.com/bolsamaster/bolsamaster-backend/internal/report"
)

type holdingsCmd struct {
	refresh bool
	raw     bool
}

func (*holdingsCmd) Name() string     { return "holdings" }
func (*holdingsCmd) Synopsis() string { return "display open positions and the portfolio summary" }
func (*holdingsCmd) Usage() string {
	return `bolsa holdings [-r] [-raw]

  Displays every open position valued at its last known price.
`
}

func (c *holdingsCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.refresh, "r", false, "fetch fresh quotes first")
	f.BoolVar(&c.raw, "raw", false, "print markdown without rendering")
}

func (c *holdingsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withApp(ctx, func(ctx context.Context, a *app.App, cfg *config.Config) error {
		var (
			p   model.PortfolioResponse
			err error
		)
		if c.refresh {
			p, err = a.Portfolio.RefreshQuotes(ctx)
		} else {
			p, err = a.Portfolio.GetPortfolio(ctx)
		}
		if err != nil {
			return err
		}
		printMarkdown(report.Holdings(p, cfg.Quote.ReportingCurrency), c.raw)
		return nil
	})
}

type historyCmd struct {
	raw bool
}

func (*historyCmd) Name() string     { return "history" }
func (*historyCmd) Synopsis() string { return "display invested amount and equity per trade date" }
func (*historyCmd) Usage() string {
	return `bolsa history [-raw]

  Displays the invested-vs-equity series, one row per trade date.
`
}

func (c *historyCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.raw, "raw", false, "print markdown without rendering")
}

func (c *historyCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withApp(ctx, func(ctx context.Context, a *app.App, cfg *config.Config) error {
		points, err := a.Portfolio.GetHistory(ctx)
		if err != nil {
			return err
		}
		printMarkdown(report.History(points, cfg.Quote.ReportingCurrency), c.raw)
		return nil
	})
}

type dividendsCmd struct {
	raw bool
}

func (*dividendsCmd) Name() string     { return "dividends" }
func (*dividendsCmd) Synopsis() string { return "display dividend income per ticker" }
func (*dividendsCmd) Usage() string {
	return `bolsa dividends [-raw]

  Displays lifetime dividend income, net of withheld tax, per ticker.
`
}

func (c *dividendsCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.raw, "raw", false, "print markdown without rendering")
}

func (c *dividendsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withApp(ctx, func(ctx context.Context, a *app.App, cfg *config.Config) error {
		divs, total, err := a.Portfolio.GetDividends(ctx)
		if err != nil {
			return err
		}
		printMarkdown(report.Dividends(divs, total, cfg.Quote.ReportingCurrency), c.raw)
		return nil
	})
}

type txCmd struct {
	raw bool
}

func (*txCmd) Name() string     { return "tx" }
func (*txCmd) Synopsis() string { return "list all transactions in the ledger" }
func (*txCmd) Usage() string {
	return `bolsa tx [-raw]

  Lists every ledger entry in ledger order with its ID.
`
}

func (c *txCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.raw, "raw", false, "print markdown without rendering")
}

func (c *txCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withApp(ctx, func(ctx context.Context, a *app.App, cfg *config.Config) error {
		txs, err := a.Transactions.ListTransactions(ctx)
		if err != nil {
			return err
		}
		printMarkdown(report.Transactions(txs, cfg.Quote.ReportingCurrency), c.raw)
		return nil
	})
}
