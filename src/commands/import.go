package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/google/subcommands"
	"github.com/username/pricefolio/src/importer"
	"github.com/username/pricefolio/src/models"
)

// importCmd imports historical prices from the routed CSV files into the store.
type importCmd struct {
	*env
	assetType  string
	symbol     string
	limit      int
	db         string
	dataDir    string
	routesPath string
	commit     string
	setCurrent bool
}

func (*importCmd) Name() string { return "import" }
func (*importCmd) Synopsis() string {
	return "import historical prices from investing.com CSV exports"
}
func (*importCmd) Usage() string {
	return `pricefolio import [-asset_type stocks|crypto|commodities|indexes] [-symbol SYM] [-limit N]
    [-db PATH] [-data-dir DIR] [-routes FILE] [-commit per-row|per-file] [-set-current]
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.assetType, "asset_type", "", "only import one bucket: stocks, crypto, commodities or indexes")
	f.StringVar(&c.symbol, "symbol", "", "only import one symbol")
	f.IntVar(&c.limit, "limit", 0, "maximum data rows read per file, 0 for all")
	f.StringVar(&c.db, "db", "", "database path (overrides DATABASE_PATH)")
	f.StringVar(&c.dataDir, "data-dir", "", "CSV data directory (overrides DATA_DIR)")
	f.StringVar(&c.routesPath, "routes", "", "routing table YAML file (overrides ROUTES_PATH)")
	f.StringVar(&c.commit, "commit", "", "commit mode: per-row or per-file (overrides COMMIT_MODE)")
	f.BoolVar(&c.setCurrent, "set-current", false, "also update each asset's current price from its latest row")
}

// applyFlags overrides the environment configuration with the flags that were set.
func (c *importCmd) applyFlags() error {
	if c.db != "" {
		c.cfg.DatabasePath = c.db
	}
	if c.dataDir != "" {
		c.cfg.DataDir = c.dataDir
	}
	if c.routesPath != "" {
		c.cfg.RoutesPath = c.routesPath
	}
	if c.commit != "" {
		c.cfg.CommitMode = c.commit
	}
	if c.assetType != "" {
		if _, err := models.AssetTypeFromBucket(c.assetType); err != nil {
			return err
		}
	}
	if c.limit < 0 {
		return errors.New("-limit must not be negative")
	}
	return c.cfg.Validate()
}

func (c *importCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 0 {
		fmt.Fprintf(c.err, "unexpected arguments: %v\n", f.Args())
		return subcommands.ExitUsageError
	}
	if err := c.applyFlags(); err != nil {
		fmt.Fprintln(c.err, err)
		return subcommands.ExitUsageError
	}

	log, closeLog, err := c.newLogger()
	if err != nil {
		fmt.Fprintln(c.err, err)
		return subcommands.ExitFailure
	}
	defer closeLog()

	routes, err := c.loadRoutes()
	if err != nil {
		log.Error("Failed to load routing table", "path", c.cfg.RoutesPath, "error", err)
		return subcommands.ExitFailure
	}

	imp := importer.New(importer.Config{
		DataDir:          c.cfg.DataDir,
		Routes:           routes,
		MaxRowsPerSecond: c.cfg.MaxRowsPerSecond,
	}, c.connector(log), log)

	summary, err := imp.ImportAll(ctx, importer.Options{
		AssetType:       c.assetType,
		Symbol:          c.symbol,
		RowLimit:        c.limit,
		Commit:          importer.CommitMode(c.cfg.CommitMode),
		SetCurrentPrice: c.setCurrent,
	})
	printSummary(c.out, summary)
	if err != nil {
		fmt.Fprintln(c.err, "import failed:", err)
		return subcommands.ExitFailure
	}
	if !summary.OK() {
		if ferr := summary.Err(); ferr != nil {
			fmt.Fprintln(c.err, ferr)
		}
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func printSummary(w io.Writer, s models.RunSummary) {
	if s.Total() == 0 {
		return
	}
	for _, r := range s.Results {
		status := "ok"
		switch {
		case r.Skipped:
			status = "skipped"
		case r.Err != nil:
			status = "failed"
		}
		fmt.Fprintf(w, "%-8s %-8s %10s rows %8s errors  %s\n", r.Symbol, status,
			humanize.Comma(int64(r.SuccessCount)), humanize.Comma(int64(r.ErrorCount)), r.Path)
	}
	fmt.Fprintf(w, "%d/%d files processed successfully\n", s.Processed(), s.Total())
}
