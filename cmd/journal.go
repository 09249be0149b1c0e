package main

import (
	"flag"

	"github.com/pkg/errors"

	"github.com/vadiminshakov/paperdash/internal/storage/tradejournal"
)

// journalFlags selects a journal session, the newest one by default.
type journalFlags struct {
	dir string
}

func (j *journalFlags) register(f *flag.FlagSet) {
	f.StringVar(&j.dir, "dir", "./wal/trades", "journal directory")
}

func (j *journalFlags) load(f *flag.FlagSet) (string, tradejournal.Session, error) {
	id := f.Arg(0)
	if id == "" {
		latest, err := tradejournal.LatestSession(j.dir)
		if err != nil {
			return "", tradejournal.Session{}, err
		}
		id = latest
	}

	store, err := tradejournal.Open(j.dir, id)
	if err != nil {
		return "", tradejournal.Session{}, err
	}
	defer store.Close()

	session, err := store.Load()
	if err != nil {
		return "", tradejournal.Session{}, errors.Wrapf(err, "load session %s", id)
	}
	return id, session, nil
}
