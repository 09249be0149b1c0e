// Command paperdash runs a paper-trading crypto dashboard: a live or
// synthetic price series, a simulated wallet and an HTTP UI.
//
// Usage:
//
//	paperdash serve  -config config.gen.yaml
//	paperdash setup
//	paperdash series -config config.gen.yaml
//	paperdash report -config config.gen.yaml
//	paperdash replay -dir ./wal/trades [session]
//
// Optional environment variables (also read from .env):
//
//	COINCAP_API_KEY, PAPERDASH_RATES_URL, HYPERLIQUID_PRIVATE_KEY
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path"
	"syscall"

	"github.com/google/subcommands"
	"github.com/vadiminshakov/paperdash/config"
	"go.uber.org/zap"
)

var commands = []subcommands.Command{
	&serveCmd{},
	&setupCmd{},
	&seriesCmd{},
	&reportCmd{},
	&replayCmd{},
}

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	for _, c := range commands {
		commander.Register(c, "")
	}

	flag.Parse()

	if err := config.LoadEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(int(subcommands.ExitFailure))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	status := commander.Execute(ctx)
	stop()
	os.Exit(int(status))
}

// configFlags is shared by the commands that read the YAML config.
type configFlags struct {
	path  string
	debug bool
}

func (c *configFlags) register(f *flag.FlagSet) {
	f.StringVar(&c.path, "config", config.DefaultFile, "path to yaml config, missing file means defaults")
	f.BoolVar(&c.debug, "debug", false, "development logging")
}

func (c *configFlags) load() (config.Config, *zap.Logger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if c.debug {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return config.Config{}, nil, err
	}

	conf, err := config.Load(c.path)
	if err != nil {
		_ = logger.Sync()
		return config.Config{}, nil, err
	}
	return conf, logger, nil
}

func fail(err error) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return subcommands.ExitFailure
}
