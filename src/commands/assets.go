package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/google/subcommands"
	"github.com/username/pricefolio/src/models"
)

// assetsCmd lists the asset catalog.
type assetsCmd struct {
	*env
	db string
}

func (*assetsCmd) Name() string     { return "assets" }
func (*assetsCmd) Synopsis() string { return "list the asset catalog" }
func (*assetsCmd) Usage() string    { return "pricefolio assets [-db PATH]\n" }
func (c *assetsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.db, "db", "", "database path (overrides DATABASE_PATH)")
}

func (c *assetsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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
	for _, a := range assets {
		price, volume, err := store.CurrentPrice(ctx, a.AssetID)
		if err != nil {
			fmt.Fprintln(c.err, err)
			return subcommands.ExitFailure
		}
		fmt.Fprintf(c.out, "%4d  %-8s %-10s %14s %16s  %s\n", a.AssetID, a.Symbol, a.AssetType,
			price.StringFixed(2), humanize.Comma(volume), a.Name)
	}
	fmt.Fprintf(c.out, "%d asset(s)\n", len(assets))
	return subcommands.ExitSuccess
}

// addAssetCmd registers a catalog entry. Imports never create assets, so a new symbol
// has to be added here before its file can be imported.
type addAssetCmd struct {
	*env
	db        string
	symbol    string
	name      string
	assetType string
}

func (*addAssetCmd) Name() string     { return "add-asset" }
func (*addAssetCmd) Synopsis() string { return "register an asset in the catalog" }
func (*addAssetCmd) Usage() string {
	return "pricefolio add-asset -symbol SYM -name NAME -type Stock|Crypto|Commodity|Index [-db PATH]\n"
}

func (c *addAssetCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.db, "db", "", "database path (overrides DATABASE_PATH)")
	f.StringVar(&c.symbol, "symbol", "", "ticker symbol")
	f.StringVar(&c.name, "name", "", "display name, defaults to the symbol")
	f.StringVar(&c.assetType, "type", "", "asset type, e.g. Stock or stocks")
}

func (c *addAssetCmd) asset() (models.AssetRef, error) {
	symbol := strings.TrimSpace(c.symbol)
	if symbol == "" {
		return models.AssetRef{}, errors.New("-symbol is required")
	}
	t, err := models.ParseAssetType(c.assetType)
	if err != nil {
		return models.AssetRef{}, err
	}
	name := strings.TrimSpace(c.name)
	if name == "" {
		name = symbol
	}
	return models.AssetRef{Symbol: symbol, Name: name, AssetType: t}, nil
}

func (c *addAssetCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ref, err := c.asset()
	if err != nil {
		fmt.Fprintln(c.err, err)
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

	id, err := store.AddAsset(ctx, ref)
	if err != nil {
		fmt.Fprintln(c.err, err)
		return subcommands.ExitFailure
	}
	log.Info("Added asset", "assetID", id, "symbol", ref.Symbol, "assetType", ref.AssetType)
	fmt.Fprintf(c.out, "added %s (%s) as asset %d\n", ref.Symbol, ref.AssetType, id)
	return subcommands.ExitSuccess
}
