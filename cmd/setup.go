package main

import (
	"context"
	"flag"

	"github.com/google/subcommands"

	"github.com/vadiminshakov/paperdash/config"
	"github.com/vadiminshakov/paperdash/internal/setup"
)

type setupCmd struct {
	out string
}

func (*setupCmd) Name() string     { return "setup" }
func (*setupCmd) Synopsis() string { return "interactive configuration wizard" }
func (*setupCmd) Usage() string {
	return `paperdash setup [-o <file>]

  Walks through the settings and writes a yaml config.
`
}

func (c *setupCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.out, "o", config.DefaultFile, "output file")
}

func (c *setupCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if err := setup.RunTUI(c.out); err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}
