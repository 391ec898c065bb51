package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/shopspring/decimal"
	"github.com/username/pricefolio/src/models"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

const dateFormat = "2006-01-02"

// Store is the SQLite asset catalog and price history.
type Store struct {
	db  *sql.DB
	log *slog.Logger
}

// Open opens (or creates) the database at path and applies pending migrations.
// busyTimeout bounds how long a statement waits on a locked database.
func Open(ctx context.Context, path string, busyTimeout time.Duration, log *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", dsn(path, busyTimeout))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one connection for the whole run
	db.SetMaxOpenConns(1)

	pingCtx := ctx
	if busyTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, busyTimeout)
		defer cancel()
	}
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to %s: %w", path, err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := migrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info("Connected to database", "path", path)
	return &Store{db: db, log: log}, nil
}

// dsn builds a sqlite URI for path. The path is percent-escaped so '?', '#' and '%' in a
// file name reach SQLite as part of the name instead of starting the query.
func dsn(path string, busyTimeout time.Duration) string {
	u := url.URL{
		Scheme:   "file",
		Path:     path,
		OmitHost: true,
		RawQuery: fmt.Sprintf("_pragma=foreign_keys(1)&_pragma=busy_timeout(%d)", busyTimeout.Milliseconds()),
	}
	return u.String()
}

func migrateUp(db *sql.DB) error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return err
	}
	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// Close releases the connection.
func (s *Store) Close() error {
	s.log.Info("Closing database connection")
	return s.db.Close()
}

// FetchAllAssets returns the whole asset catalog.
func (s *Store) FetchAllAssets(ctx context.Context) ([]models.AssetRef, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT asset_id, symbol, name, asset_type FROM assets ORDER BY symbol`)
	if err != nil {
		return nil, fmt.Errorf("query assets: %w", err)
	}
	defer rows.Close()

	var assets []models.AssetRef
	for rows.Next() {
		var a models.AssetRef
		if err := rows.Scan(&a.AssetID, &a.Symbol, &a.Name, &a.AssetType); err != nil {
			return nil, fmt.Errorf("scan asset: %w", err)
		}
		assets = append(assets, a)
	}
	return assets, rows.Err()
}

// AddAsset registers a catalog entry and returns its id. It is the only way assets
// enter the catalog; imports never create them.
func (s *Store) AddAsset(ctx context.Context, ref models.AssetRef) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO assets (symbol, name, asset_type) VALUES (?, ?, ?)`,
		ref.Symbol, ref.Name, string(ref.AssetType))
	if err != nil {
		return 0, fmt.Errorf("insert asset %s: %w", ref.Symbol, err)
	}
	return res.LastInsertId()
}

// UpsertPriceObservation inserts or replaces the observation for (asset, date) in its own
// transaction. Calling it twice with the same observation leaves the same state.
func (s *Store) UpsertPriceObservation(ctx context.Context, obs models.PriceObservation) error {
	if !obs.UpdateCurrentPrice {
		return upsert(ctx, s.db, obs)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()
	if err := upsert(ctx, tx, obs); err != nil {
		return err
	}
	return tx.Commit()
}

// Begin starts a batch whose upserts become visible together on Commit.
func (s *Store) Begin(ctx context.Context) (*Batch, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	return &Batch{tx: tx}, nil
}

// PriceHistory returns the stored observations of an asset, oldest first.
func (s *Store) PriceHistory(ctx context.Context, assetID int64) ([]models.PriceObservation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT as_of, price, open_price, high_price, low_price, volume, change_percent
		FROM asset_prices WHERE asset_id = ? ORDER BY as_of`, assetID)
	if err != nil {
		return nil, fmt.Errorf("query prices: %w", err)
	}
	defer rows.Close()

	var history []models.PriceObservation
	for rows.Next() {
		obs := models.PriceObservation{AssetID: assetID}
		var asOf string
		if err := rows.Scan(&asOf, &obs.Price, &obs.Open, &obs.High, &obs.Low, &obs.Volume, &obs.ChangePercent); err != nil {
			return nil, fmt.Errorf("scan price: %w", err)
		}
		if obs.Date, err = time.Parse(dateFormat, asOf); err != nil {
			return nil, fmt.Errorf("stored date %q: %w", asOf, err)
		}
		history = append(history, obs)
	}
	return history, rows.Err()
}

// CurrentPrice returns the live quoted price and volume of an asset.
func (s *Store) CurrentPrice(ctx context.Context, assetID int64) (decimal.Decimal, int64, error) {
	var price decimal.Decimal
	var volume int64
	err := s.db.QueryRowContext(ctx, `SELECT price, volume FROM assets WHERE asset_id = ?`, assetID).Scan(&price, &volume)
	if err != nil {
		return decimal.Zero, 0, fmt.Errorf("query current price: %w", err)
	}
	return price, volume, nil
}

// Batch groups upserts in one transaction.
type Batch struct {
	tx *sql.Tx
}

func (b *Batch) UpsertPriceObservation(ctx context.Context, obs models.PriceObservation) error {
	return upsert(ctx, b.tx, obs)
}

func (b *Batch) Commit() error { return b.tx.Commit() }

func (b *Batch) Rollback() error { return b.tx.Rollback() }

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsert(ctx context.Context, db execer, obs models.PriceObservation) error {
	asOf := obs.Date.Format(dateFormat)
	_, err := db.ExecContext(ctx, `
		INSERT INTO asset_prices (asset_id, as_of, price, open_price, high_price, low_price, volume, change_percent)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (asset_id, as_of) DO UPDATE SET
			price = excluded.price,
			open_price = excluded.open_price,
			high_price = excluded.high_price,
			low_price = excluded.low_price,
			volume = excluded.volume,
			change_percent = excluded.change_percent`,
		obs.AssetID, asOf, obs.Price, obs.Open, obs.High, obs.Low, obs.Volume, obs.ChangePercent)
	if err != nil {
		return fmt.Errorf("upsert price %s: %w", obs.DateKey(), err)
	}
	if !obs.UpdateCurrentPrice {
		return nil
	}

	res, err := db.ExecContext(ctx,
		`UPDATE assets SET price = ?, volume = ?, last_updated = ? WHERE asset_id = ?`,
		obs.Price, obs.Volume, obs.Date, obs.AssetID)
	if err != nil {
		return fmt.Errorf("update current price of asset %d: %w", obs.AssetID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update current price: asset %d does not exist", obs.AssetID)
	}
	return nil
}
