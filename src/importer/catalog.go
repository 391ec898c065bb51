package importer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/patrickmn/go-cache"
	"github.com/username/pricefolio/src/models"
)

// Catalog is the symbol to asset lookup of one run, loaded once from the store.
type Catalog struct {
	assets *cache.Cache
}

// LoadCatalog fetches every asset from the store.
func LoadCatalog(ctx context.Context, store Store, log *slog.Logger) (*Catalog, error) {
	assets, err := store.FetchAllAssets(ctx)
	if err != nil {
		return nil, fmt.Errorf("load asset catalog: %w", err)
	}

	// Entries live as long as the run; no janitor.
	c := cache.New(cache.NoExpiration, 0)
	for _, a := range assets {
		c.Set(a.Symbol, a, cache.NoExpiration)
	}
	log.Info("Loaded assets from database", "count", len(assets))
	return &Catalog{assets: c}, nil
}

// Lookup returns the catalog entry for symbol.
func (c *Catalog) Lookup(symbol string) (models.AssetRef, bool) {
	v, ok := c.assets.Get(symbol)
	if !ok {
		return models.AssetRef{}, false
	}
	return v.(models.AssetRef), true
}
