// Package report renders portfolio views as markdown for the terminal.
package report

import (
	"fmt"
	"strings"

	"github.com/bolsamaster/bolsamaster-backend/internal/model"
)

// Holdings renders the open positions, the summary and the allocation.
func Holdings(p model.PortfolioResponse, currency string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Holdings\n\n")

	if len(p.Assets) == 0 {
		fmt.Fprintln(&b, "_No open positions._")
		return b.String()
	}

	fmt.Fprintln(&b, "| Ticker | Type | Quantity | Avg. Price | Price | Cost | Value | Gain | Updated |")
	fmt.Fprintln(&b, "|:---|:---|---:|---:|---:|---:|---:|---:|:---|")
	for _, a := range p.Assets {
		updated := "-"
		if a.LastUpdated != nil {
			updated = a.LastUpdated.Local().Format("02/01 15:04")
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s | %s | %s | %s |\n",
			a.Ticker,
			a.Type,
			Quantity(a.Quantity),
			MoneyFloat(a.AveragePrice, currency),
			MoneyFloat(a.CurrentPrice, currency),
			MoneyFloat(a.TotalCost, currency),
			MoneyFloat(a.MarketValue, currency),
			MoneyFloat(a.UnrealizedGain, currency),
			updated,
		)
	}

	s := p.Summary
	fmt.Fprintf(&b, "\n## Summary\n\n")
	fmt.Fprintf(&b, "- Equity: **%s**\n", MoneyFloat(s.TotalEquity, currency))
	fmt.Fprintf(&b, "- Invested: %s\n", MoneyFloat(s.TotalCost, currency))
	fmt.Fprintf(&b, "- Gain: %s (%s)\n", MoneyFloat(s.TotalGain, currency), Percent(s.TotalGainPercentage, currency))
	fmt.Fprintf(&b, "- Dividends: %s\n", MoneyFloat(s.TotalDividends, currency))

	if len(p.Allocation) > 0 {
		fmt.Fprintf(&b, "\n## Allocation\n\n")
		fmt.Fprintln(&b, "| Type | Value | Share |")
		fmt.Fprintln(&b, "|:---|---:|---:|")
		for _, a := range p.Allocation {
			fmt.Fprintf(&b, "| %s | %s | %s |\n", a.Type, MoneyFloat(a.Value, currency), Percent(a.Percentage, currency))
		}
	}

	if len(p.Warnings) > 0 {
		fmt.Fprintf(&b, "\n## Warnings\n\n")
		for _, w := range p.Warnings {
			fmt.Fprintf(&b, "- %s: sold %s on %s with only %s held\n", w.Ticker, Quantity(w.Requested), w.Date, Quantity(w.Held))
		}
	}
	if len(p.MissingQuotes) > 0 {
		fmt.Fprintf(&b, "\n_No quote for %s; last known price used._\n", strings.Join(p.MissingQuotes, ", "))
	}
	return b.String()
}

// History renders the invested-vs-equity series.
func History(points []model.HistoryPoint, currency string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# History\n\n")
	if len(points) == 0 {
		fmt.Fprintln(&b, "_No trades yet._")
		return b.String()
	}

	fmt.Fprintln(&b, "| Date | Invested | Equity | Gain |")
	fmt.Fprintln(&b, "|:---|---:|---:|---:|")
	for _, p := range points {
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n",
			p.Date.Format("02/01/2006"),
			MoneyFloat(float64(p.Invested), currency),
			MoneyFloat(float64(p.Equity), currency),
			MoneyFloat(float64(p.Gain), currency),
		)
	}
	return b.String()
}

// Dividends renders the dividend income per ticker.
func Dividends(divs []model.DividendResponse, total float64, currency string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Dividends\n\n")
	if len(divs) == 0 {
		fmt.Fprintln(&b, "_No dividends received._")
		return b.String()
	}

	fmt.Fprintln(&b, "| Ticker | Received |")
	fmt.Fprintln(&b, "|:---|---:|")
	for _, d := range divs {
		fmt.Fprintf(&b, "| %s | %s |\n", d.Ticker, MoneyFloat(d.Total, currency))
	}
	fmt.Fprintf(&b, "| **Total** | **%s** |\n", MoneyFloat(total, currency))
	return b.String()
}

// Transactions renders ledger entries in ledger order.
func Transactions(txs []model.Transaction, currency string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Ledger\n\n")
	if len(txs) == 0 {
		fmt.Fprintln(&b, "_Empty ledger._")
		return b.String()
	}

	fmt.Fprintln(&b, "| Date | Type | Ticker | Quantity | Price | Costs | ID |")
	fmt.Fprintln(&b, "|:---|:---|:---|---:|---:|---:|:---|")
	for _, t := range txs {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s | `%s` |\n",
			t.Date.Format("02/01/2006"),
			t.Kind,
			t.Ticker,
			t.Quantity.String(),
			Money(t.UnitPrice, currency),
			Money(t.Costs, currency),
			t.ID,
		)
	}
	return b.String()
}
