// Package report renders a portfolio summary as terminal markdown.
package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/pkg/errors"
	"github.com/vadiminshakov/paperdash/internal/domain"
	"github.com/vadiminshakov/paperdash/internal/events"
)

// Markdown builds the report body for snap.
func Markdown(snap events.Snapshot, pair domain.Pair) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s portfolio\n\n", pair.String())

	if snap.Price != nil {
		fmt.Fprintf(&b, "Price **%s** (%s, %s)", snap.PriceText, snap.Provenance, snap.Source)
		if snap.Change != nil {
			fmt.Fprintf(&b, ", %s over the window", signed(snap.Change.Percent.StringFixed(2)+"%", snap.Change.IsPositive))
		}
		b.WriteString("\n\n")
	} else {
		b.WriteString("No price data yet.\n\n")
	}

	b.WriteString("## Wallet\n\n| | Balance |\n|---|---:|\n")
	fmt.Fprintf(&b, "| %s | %s |\n", pair.From, domain.FormatAsset(snap.Wallet.Asset, pair.From))
	fmt.Fprintf(&b, "| %s | %s |\n", pair.To, domain.FormatQuote(snap.Wallet.Quote, pair.To))
	if snap.WalletValue != "" {
		fmt.Fprintf(&b, "| Total | %s |\n", snap.WalletValue)
	}
	b.WriteString("\n")

	if s := snap.Stats; s != nil {
		b.WriteString("## Performance\n\n")
		fmt.Fprintf(&b, "- Invested: %s\n", domain.FormatQuote(s.TotalInvested, pair.To))
		fmt.Fprintf(&b, "- Average buy price: %s\n", domain.FormatQuote(s.AverageBuyPrice, pair.To))
		fmt.Fprintf(&b, "- Current value: %s\n", domain.FormatQuote(s.CurrentValue, pair.To))
		fmt.Fprintf(&b, "- Unrealized P&L: %s (%s)\n",
			signed(domain.FormatQuote(s.UnrealizedProfit.Abs(), pair.To), s.IsProfit),
			domain.FormatPercent(s.ProfitPercent))
		if s.CostBasisClamped {
			b.WriteString("\n> Sells exceeded the tracked buys, the cost basis was capped.\n")
		}
		b.WriteString("\n")
	}

	b.WriteString("## Trades\n\n")
	if len(snap.Trades) == 0 {
		b.WriteString("No trades yet.\n")
		return b.String()
	}
	b.WriteString("| Time | Type | Asset | Quote | Price |\n|---|---|---:|---:|---:|\n")
	for _, row := range snap.Trades {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
			row.Timestamp.Format("2006-01-02 15:04:05"), row.Action, row.Asset, row.Quote, row.Price)
	}
	return b.String()
}

// Render formats markdown for the terminal. style is a glamour standard
// style name, empty picks one from the terminal background.
func Render(md, style string, width int) (string, error) {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	if style == "" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(style))
	}

	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", errors.Wrap(err, "create markdown renderer")
	}
	out, err := r.Render(md)
	if err != nil {
		return "", errors.Wrap(err, "render report")
	}
	return out, nil
}

func signed(s string, positive bool) string {
	if positive {
		return "+" + s
	}
	if strings.HasPrefix(s, "-") {
		return s
	}
	return "-" + s
}
