package main

import (
	"context"
	"flag"

	"github.com/google/subcommands"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vadiminshakov/paperdash/internal"
	"github.com/vadiminshakov/paperdash/internal/events"
	"github.com/vadiminshakov/paperdash/internal/services/ledger"
	"github.com/vadiminshakov/paperdash/internal/storage/tradejournal"
	"github.com/vadiminshakov/paperdash/internal/web"
)

type serveCmd struct {
	conf      configFlags
	noJournal bool
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "run the dashboard with its web UI and API" }
func (*serveCmd) Usage() string {
	return `paperdash serve [-config <file>] [-debug] [-no-journal]

  Refreshes the price series in the background and serves the dashboard.
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	c.conf.register(f)
	f.BoolVar(&c.noJournal, "no-journal", false, "do not write the trade journal")
}

func (c *serveCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	conf, logger, err := c.conf.load()
	if err != nil {
		return fail(err)
	}
	defer logger.Sync()

	provider, err := internal.NewProvider(conf, logger)
	if err != nil {
		return fail(err)
	}

	broadcaster := events.NewSnapshotBroadcaster(16)
	dashOpts := []internal.DashboardOption{
		internal.WithBroadcaster(broadcaster),
		internal.WithRefreshInterval(conf.RefreshInterval),
		internal.WithChartSettings(internal.ChartSettings{
			Labels:    conf.LabelCount,
			EMAPeriod: conf.EMAPeriod,
			RSIPeriod: conf.RSIPeriod,
			MaxPoints: conf.ChartMaxPoints,
		}),
	}

	var (
		ledgerOpts []ledger.Option
		journal    *tradejournal.WALStore
	)
	if !c.noJournal {
		journal, err = tradejournal.NewSession(conf.JournalDir)
		if err != nil {
			return fail(err)
		}
		defer journal.Close()

		if err := journal.Begin(conf.Pair, conf.Genesis()); err != nil {
			return fail(err)
		}
		ledgerOpts = append(ledgerOpts, ledger.WithRecorder(journal))
		logger.Info("trade journal session", zap.String("session", journal.SessionID()), zap.String("dir", conf.JournalDir))
	}

	l := ledger.New(conf.Pair, conf.Genesis(), logger.With(zap.String("component", "ledger")), ledgerOpts...)
	dash := internal.NewDashboard(provider, l, logger, dashOpts...)

	var reader interface {
		TradesAfter(index uint64) ([]tradejournal.Record, error)
	}
	if journal != nil {
		reader = journal
	}
	srv := web.NewServer(conf.Listen, dash, reader, broadcaster, logger.With(zap.String("component", "web")))
	srv.MaxPoints = conf.ChartMaxPoints

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return dash.Run(gctx)
	})
	g.Go(func() error {
		if len(conf.TLSDomains) > 0 {
			return srv.StartWithAutoTLS(gctx, conf.TLSDomains, conf.CertCacheDir)
		}
		return srv.Start(gctx)
	})

	logger.Info("started",
		zap.String("pair", conf.Pair.String()),
		zap.String("source", conf.Source),
		zap.Bool("live", provider.Live()))

	if err := g.Wait(); err != nil {
		logger.Error("stopped with error", zap.Error(err))
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
