package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/subcommands"
	"github.com/username/pricefolio/src/logger"
	"github.com/username/pricefolio/src/models"
	"github.com/username/pricefolio/src/routing"
)

// targetsCmd shows which files an import would read, without touching the store.
type targetsCmd struct {
	*env
	assetType string
	symbol    string
	dataDir   string
	routes    string
}

func (*targetsCmd) Name() string     { return "targets" }
func (*targetsCmd) Synopsis() string { return "list the routed CSV files and whether they exist" }
func (*targetsCmd) Usage() string {
	return "pricefolio targets [-asset_type BUCKET] [-symbol SYM] [-data-dir DIR] [-routes FILE]\n"
}

func (c *targetsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.assetType, "asset_type", "", "only list one bucket")
	f.StringVar(&c.symbol, "symbol", "", "only list one symbol")
	f.StringVar(&c.dataDir, "data-dir", "", "CSV data directory (overrides DATA_DIR)")
	f.StringVar(&c.routes, "routes", "", "routing table YAML file (overrides ROUTES_PATH)")
}

func (c *targetsCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.dataDir != "" {
		c.cfg.DataDir = c.dataDir
	}
	if c.routes != "" {
		c.cfg.RoutesPath = c.routes
	}
	if c.assetType != "" {
		if _, err := models.AssetTypeFromBucket(c.assetType); err != nil {
			fmt.Fprintln(c.err, err)
			return subcommands.ExitUsageError
		}
	}

	table, err := c.loadRoutes()
	if err != nil {
		fmt.Fprintln(c.err, err)
		return subcommands.ExitFailure
	}

	// Resolve only reports files that exist; list the routes it dropped as missing.
	found, err := table.Resolve(c.cfg.DataDir, c.assetType, c.symbol, logger.Discard())
	if _, routed := table.Lookup(c.symbol); routed && errors.Is(err, routing.ErrNotFound) {
		err = nil
	}
	if err != nil {
		fmt.Fprintln(c.err, err)
		return subcommands.ExitFailure
	}
	exists := make(map[string]bool, len(found))
	for _, t := range found {
		exists[t.Symbol] = true
	}

	for _, r := range table.Routes {
		if !selected(r, c.assetType, c.symbol) {
			continue
		}
		status := "missing"
		if exists[r.Symbol] {
			status = "found"
		}
		fmt.Fprintf(c.out, "%-12s %-8s %-8s %s\n", r.Type, r.Symbol, status, filepath.Join(c.cfg.DataDir, r.Path))
	}
	fmt.Fprintf(c.out, "%d file(s) to import\n", len(found))
	return subcommands.ExitSuccess
}

func selected(r routing.Route, bucket, symbol string) bool {
	if symbol != "" {
		return r.Symbol == symbol
	}
	return bucket == "" || strings.EqualFold(r.Type, bucket)
}
