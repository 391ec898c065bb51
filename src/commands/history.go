package commands

import (
	"context"
	"flag"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/google/subcommands"
)

// historyCmd prints the stored observations of one asset.
type historyCmd struct {
	*env
	db     string
	symbol string
	last   int
}

func (*historyCmd) Name() string     { return "history" }
func (*historyCmd) Synopsis() string { return "print the stored price history of an asset" }
func (*historyCmd) Usage() string    { return "pricefolio history -symbol SYM [-last N] [-db PATH]\n" }
func (c *historyCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.db, "db", "", "database path (overrides DATABASE_PATH)")
	f.StringVar(&c.symbol, "symbol", "", "ticker symbol")
	f.IntVar(&c.last, "last", 0, "only print the N most recent days, 0 for all")
}

func (c *historyCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.symbol == "" {
		fmt.Fprintln(c.err, "-symbol is required")
		return subcommands.ExitUsageError
	}
	if c.db != "" {
		c.cfg.DatabasePath = c.db
	}
	log, closeLog, err := c.newLogger()
	if err != nil {
		fmt.Fprintln(c.err, err)
		return subcommands.ExitFailure
	}
	defer closeLog()

	store, err := c.openStore(ctx, log)
	if err != nil {
		fmt.Fprintln(c.err, err)
		return subcommands.ExitFailure
	}
	defer store.Close()

	assets, err := store.FetchAllAssets(ctx)
	if err != nil {
		fmt.Fprintln(c.err, err)
		return subcommands.ExitFailure
	}
	var assetID int64
	for _, a := range assets {
		if a.Symbol == c.symbol {
			assetID = a.AssetID
		}
	}
	if assetID == 0 {
		fmt.Fprintf(c.err, "unknown symbol %s\n", c.symbol)
		return subcommands.ExitFailure
	}

	history, err := store.PriceHistory(ctx, assetID)
	if err != nil {
		fmt.Fprintln(c.err, err)
		return subcommands.ExitFailure
	}
	if c.last > 0 && len(history) > c.last {
		history = history[len(history)-c.last:]
	}
	for _, o := range history {
		change := "-"
		if o.ChangePercent.Valid {
			change = o.ChangePercent.Decimal.StringFixed(2) + "%"
		}
		fmt.Fprintf(c.out, "%s %12s %12s %12s %12s %16s %8s\n", o.Date.Format("2006-01-02"),
			o.Price.String(), o.Open.String(), o.High.String(), o.Low.String(), humanize.Comma(o.Volume), change)
	}
	return subcommands.ExitSuccess
}
