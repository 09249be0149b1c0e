package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"
	"github.com/pkg/errors"

	"github.com/vadiminshakov/paperdash/internal/domain"
	"github.com/vadiminshakov/paperdash/internal/services/ledger"
	"github.com/vadiminshakov/paperdash/internal/storage/tradejournal"
)

type replayCmd struct {
	journal journalFlags
}

func (*replayCmd) Name() string     { return "replay" }
func (*replayCmd) Synopsis() string { return "verify a journal session by replaying its trades" }
func (*replayCmd) Usage() string {
	return `paperdash replay [-dir <journal dir>] [session]

  Re-executes every journaled trade against a fresh ledger and checks that
  the incremental wallet matches a replay from genesis after each trade.
`
}

func (c *replayCmd) SetFlags(f *flag.FlagSet) {
	c.journal.register(f)
}

func (c *replayCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	id, session, err := c.journal.load(f)
	if err != nil {
		return fail(err)
	}

	wallet, err := verify(session)
	if err != nil {
		return fail(errors.Wrapf(err, "session %s", id))
	}

	pair, _ := domain.ParsePair(session.Header.Pair)
	fmt.Printf("session %s: %d trades replayed, wallet %s / %s\n", id, len(session.Trades),
		domain.FormatAsset(wallet.Asset, pair.From), domain.FormatQuote(wallet.Quote, pair.To))
	return subcommands.ExitSuccess
}

// verify re-executes the session and compares both wallet derivations on every prefix.
func verify(session tradejournal.Session) (domain.WalletState, error) {
	pair, err := domain.ParsePair(session.Header.Pair)
	if err != nil {
		return domain.WalletState{}, err
	}

	l := ledger.New(pair, session.Header.Genesis, nil)
	for i, t := range session.Trades {
		if _, err := l.Execute(t.Action, t.AmountAsset, t.AmountQuote, t.Price); err != nil {
			return domain.WalletState{}, errors.Wrapf(err, "trade %d (%s) rejected on replay", i, t.ID)
		}

		replayed := ledger.Replay(session.Header.Genesis, session.Trades[:i+1])
		if !replayed.Equal(l.Wallet()) {
			return domain.WalletState{}, errors.Errorf("wallet mismatch after trade %d: incremental %s/%s, replayed %s/%s",
				i, l.Wallet().Asset, l.Wallet().Quote, replayed.Asset, replayed.Quote)
		}
	}
	return l.Wallet(), nil
}
