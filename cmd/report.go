package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/google/subcommands"

	"github.com/vadiminshakov/paperdash/internal"
	"github.com/vadiminshakov/paperdash/internal/domain"
	"github.com/vadiminshakov/paperdash/internal/events"
	"github.com/vadiminshakov/paperdash/internal/report"
	"github.com/vadiminshakov/paperdash/internal/services/chart"
	"github.com/vadiminshakov/paperdash/internal/services/ledger"
	"github.com/vadiminshakov/paperdash/internal/storage/tradejournal"
)

type reportCmd struct {
	conf    configFlags
	journal journalFlags
	style   string
	width   int
	raw     bool
}

func (*reportCmd) Name() string     { return "report" }
func (*reportCmd) Synopsis() string { return "render a portfolio report for a journal session" }
func (*reportCmd) Usage() string {
	return `paperdash report [-config <file>] [-dir <journal dir>] [-style dark] [-raw] [session]

  Prices the wallet of a journal session at the current series price and
  prints it as markdown.
`
}

func (c *reportCmd) SetFlags(f *flag.FlagSet) {
	c.conf.register(f)
	c.journal.register(f)
	f.StringVar(&c.style, "style", "", "glamour style (dark, light, notty...), empty detects the terminal")
	f.IntVar(&c.width, "width", 100, "word wrap width")
	f.BoolVar(&c.raw, "raw", false, "print markdown without rendering")
}

func (c *reportCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	conf, logger, err := c.conf.load()
	if err != nil {
		return fail(err)
	}
	defer logger.Sync()

	_, session, err := c.journal.load(f)
	if err != nil {
		return fail(err)
	}
	pair, err := domain.ParsePair(session.Header.Pair)
	if err != nil {
		return fail(err)
	}

	provider, err := internal.NewProvider(conf, logger)
	if err != nil {
		return fail(err)
	}
	series := provider.Fetch(ctx, pair)

	md := report.Markdown(sessionSnapshot(session, pair, series), pair)
	if c.raw {
		fmt.Print(md)
		return subcommands.ExitSuccess
	}

	out, err := report.Render(md, c.style, c.width)
	if err != nil {
		return fail(err)
	}
	fmt.Print(out)
	return subcommands.ExitSuccess
}

// sessionSnapshot prices a journaled session against series.
func sessionSnapshot(session tradejournal.Session, pair domain.Pair, series domain.PriceSeries) events.Snapshot {
	wallet := ledger.Replay(session.Header.Genesis, session.Trades)

	snap := events.Snapshot{
		Timestamp:   time.Now(),
		Pair:        pair.String(),
		Provenance:  series.Provenance,
		Source:      series.Source,
		TotalPoints: series.Len(),
		Wallet:      wallet,
	}
	for i := len(session.Trades) - 1; i >= 0; i-- {
		snap.Trades = append(snap.Trades, session.Trades[i].Row(pair))
	}

	if len(series.Points) == 0 {
		return snap
	}
	price := series.Points[len(series.Points)-1].Price
	snap.Price = &price
	snap.PriceText = domain.FormatQuote(price, pair.To)
	snap.WalletValue = domain.FormatQuote(wallet.Value(price), pair.To)
	if change, ok := chart.PeriodChange(series.Points); ok {
		snap.Change = &change
	}
	if len(session.Trades) > 0 {
		stats := ledger.CostBasis(session.Trades, wallet.Asset, price)
		snap.Stats = &stats
	}
	return snap
}
