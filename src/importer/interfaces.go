package importer

import (
	"context"

	"github.com/username/pricefolio/src/models"
)

// Upserter is the external persistence operation: an idempotent insert-or-update of one
// observation keyed by (asset, date).
type Upserter interface {
	UpsertPriceObservation(ctx context.Context, obs models.PriceObservation) error
}

// Batch is a transaction spanning the upserts of one file.
type Batch interface {
	Upserter
	Commit() error
	Rollback() error
}

// Store is the external asset store the importer owns for the duration of a run.
type Store interface {
	Upserter
	FetchAllAssets(ctx context.Context) ([]models.AssetRef, error)
	Begin(ctx context.Context) (Batch, error)
	Close() error
}

// Connector establishes the store connection at the start of a run.
type Connector func(ctx context.Context) (Store, error)
