package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"github.com/vadiminshakov/paperdash/internal"
	"github.com/vadiminshakov/paperdash/internal/domain"
	"github.com/vadiminshakov/paperdash/internal/services/chart"
)

type seriesCmd struct {
	conf      configFlags
	maxPoints int
}

func (*seriesCmd) Name() string     { return "series" }
func (*seriesCmd) Synopsis() string { return "fetch the price series once and print it" }
func (*seriesCmd) Usage() string {
	return `paperdash series [-config <file>] [-n <points>]

  Fetches the configured source (falling back to synthetic prices) and
  prints a downsampled series with its extremes and period change.
`
}

func (c *seriesCmd) SetFlags(f *flag.FlagSet) {
	c.conf.register(f)
	f.IntVar(&c.maxPoints, "n", 16, "maximum points to print, 0 prints all")
}

func (c *seriesCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	conf, logger, err := c.conf.load()
	if err != nil {
		return fail(err)
	}
	defer logger.Sync()

	provider, err := internal.NewProvider(conf, logger)
	if err != nil {
		return fail(err)
	}

	s := provider.Fetch(ctx, conf.Pair)
	fmt.Printf("%s  %d points  %s (%s)\n", conf.Pair, s.Len(), s.Provenance, s.Source)
	for _, p := range chart.Downsample(s.Points, c.maxPoints) {
		fmt.Printf("  %s  %s\n", p.Time.Format("2006-01-02 15:04"), domain.FormatQuote(p.Price, conf.Pair.To))
	}

	if ex, ok := domain.ExtremesOf(s.Points); ok {
		fmt.Printf("low %s  high %s\n", domain.FormatQuote(ex.Lowest, conf.Pair.To), domain.FormatQuote(ex.Highest, conf.Pair.To))
	}
	if ch, ok := chart.PeriodChange(s.Points); ok {
		fmt.Printf("change %s (%s)\n", domain.FormatQuote(ch.Delta, conf.Pair.To), domain.FormatPercent(ch.Percent))
	}
	return subcommands.ExitSuccess
}
