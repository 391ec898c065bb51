package main

import (
	"context"
	"flag"
	stdlog "log"
	"os"
	"os/signal"
	"path"
	"syscall"

	"github.com/google/subcommands"
	"github.com/username/pricefolio/src/commands"
	"github.com/username/pricefolio/src/config"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		stdlog.Println(err)
		os.Exit(int(subcommands.ExitUsageError))
	}

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	commands.Register(commander, cfg)

	flag.Parse()

	// An interrupted import stops between rows and reports what it finished.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	status := commander.Execute(ctx)
	stop()
	os.Exit(int(status))
}
