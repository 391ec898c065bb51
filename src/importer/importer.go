package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/username/pricefolio/src/models"
	"github.com/username/pricefolio/src/parsers"
	"github.com/username/pricefolio/src/routing"
	"github.com/username/pricefolio/src/validation"
	"golang.org/x/time/rate"
)

var (
	ErrAssetNotInCatalog = errors.New("symbol not found in asset catalog")
	ErrNoTargets         = errors.New("no CSV files found to process")
)

// CommitMode selects how upserts of a file are committed.
type CommitMode string

const (
	// CommitPerRow commits every upsert on its own; a failure mid-file keeps earlier rows.
	CommitPerRow CommitMode = "per-row"
	// CommitPerFile commits all upserts of a file together after its last row.
	CommitPerFile CommitMode = "per-file"
)

const progressEvery = 10

// Run states, logged as the run advances.
const (
	StateDisconnected  = "disconnected"
	StateConnected     = "connected"
	StateCatalogLoaded = "catalog_loaded"
	StateProcessing    = "processing"
	StateDone          = "done"
)

// Config is the static setup of an Importer.
type Config struct {
	DataDir          string
	Routes           *routing.Table
	MaxRowsPerSecond int // 0 disables throttling
}

// Options select what one run imports and how.
type Options struct {
	AssetType       string // bucket filter: stocks, crypto, commodities, indexes
	Symbol          string // single symbol; takes precedence over AssetType
	RowLimit        int    // data rows read per file, 0 for all
	Commit          CommitMode
	SetCurrentPrice bool // after each file, flag the most recent observation as the live price
}

// Importer drives import runs. Per-run state lives in a Session.
type Importer struct {
	cfg     Config
	connect Connector
	log     *slog.Logger
}

func New(cfg Config, connect Connector, log *slog.Logger) *Importer {
	return &Importer{cfg: cfg, connect: connect, log: log}
}

// ImportAll connects, loads the catalog, resolves targets and imports each file.
// The returned error is set only when the run aborted before processing files;
// file-level failures are reported in the summary (see RunSummary.OK and RunSummary.Err).
func (imp *Importer) ImportAll(ctx context.Context, opts Options) (models.RunSummary, error) {
	summary := models.RunSummary{RunID: uuid.NewString()}
	log := imp.log.With("runID", summary.RunID)

	log.Info("Starting historical price import",
		"assetType", orAll(opts.AssetType), "symbol", orAll(opts.Symbol),
		"rowLimit", opts.RowLimit, "commit", opts.Commit, "state", StateDisconnected)

	store, err := imp.connect(ctx)
	if err != nil {
		log.Error("Failed to connect to database", "error", err)
		return summary, fmt.Errorf("connect: %w", err)
	}
	defer store.Close()
	log.Debug("Run state changed", "state", StateConnected)

	session, err := NewSession(ctx, store, imp.cfg, opts, log)
	if err != nil {
		log.Error("Failed to load asset mapping", "error", err)
		return summary, err
	}
	log.Debug("Run state changed", "state", StateCatalogLoaded)

	targets, err := imp.cfg.Routes.Resolve(imp.cfg.DataDir, opts.AssetType, opts.Symbol, log)
	if err != nil {
		log.Error("Failed to resolve files", "error", err)
		return summary, err
	}
	if len(targets) == 0 {
		log.Warn("No CSV files found to process")
		return summary, ErrNoTargets
	}
	log.Info("Found files to process", "count", len(targets))

	for i, target := range targets {
		if err := ctx.Err(); err != nil {
			log.Error("Import interrupted", "error", err, "processed", summary.Processed())
			return summary, err
		}
		log.Debug("Run state changed", "state", StateProcessing, "file", i+1, "of", len(targets))
		summary.Results = append(summary.Results, session.ImportFile(ctx, target, opts.RowLimit))
	}

	success, failed := summary.Rows()
	log.Info(fmt.Sprintf("Import completed: %d/%d files processed successfully", summary.Processed(), summary.Total()),
		"rows", humanize.Comma(int64(success)), "rowErrors", humanize.Comma(int64(failed)), "state", StateDone)
	return summary, nil
}

// Session is one connected run: the store, the catalog it was loaded with and the
// per-run normalizer. Nothing in it outlives the run.
type Session struct {
	store      Store
	catalog    *Catalog
	normalizer *parsers.Normalizer
	limiter    *rate.Limiter
	commit     CommitMode
	setCurrent bool
	log        *slog.Logger

	// most recent observation of the file being imported
	latest *models.PriceObservation
}

// NewSession loads the asset catalog from store.
func NewSession(ctx context.Context, store Store, cfg Config, opts Options, log *slog.Logger) (*Session, error) {
	catalog, err := LoadCatalog(ctx, store, log)
	if err != nil {
		return nil, err
	}
	s := &Session{
		store:      store,
		catalog:    catalog,
		normalizer: parsers.NewNormalizer(log),
		commit:     opts.Commit,
		setCurrent: opts.SetCurrentPrice,
		log:        log,
	}
	if s.commit == "" {
		s.commit = CommitPerRow
	}
	if cfg.MaxRowsPerSecond > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.MaxRowsPerSecond), 1)
	}
	return s, nil
}

func (s *Session) resolveAssetID(symbol string) (models.AssetRef, error) {
	asset, ok := s.catalog.Lookup(symbol)
	if !ok {
		return models.AssetRef{}, fmt.Errorf("%s: %w", symbol, ErrAssetNotInCatalog)
	}
	return asset, nil
}

// ImportFile reads one file and upserts each valid row. Row problems are counted in
// ErrorCount; anything that stops the file is reported in FileResult.Err.
func (s *Session) ImportFile(ctx context.Context, target routing.Target, rowLimit int) models.FileResult {
	result := models.FileResult{Symbol: target.Symbol, Path: target.FilePath}
	log := s.log.With("symbol", target.Symbol)
	log.Info("Processing file", "path", target.FilePath)

	asset, err := s.resolveAssetID(target.Symbol)
	if err != nil {
		log.Error("Symbol not found in database, skipping file", "path", target.FilePath)
		result.Skipped = true
		result.Err = err
		return result
	}
	if t := target.AssetType(); t != "" && t != asset.AssetType {
		log.Warn("Routing bucket does not match catalog asset type", "bucket", target.Type, "assetType", asset.AssetType)
	}

	if err := s.importRows(ctx, target, asset, rowLimit, &result, log); err != nil {
		log.Error("Failed to process file", "path", target.FilePath, "error", err)
		result.Err = err
		return result
	}

	log.Info(fmt.Sprintf("Completed %s: %s success, %s errors", target.Symbol,
		humanize.Comma(int64(result.SuccessCount)), humanize.Comma(int64(result.ErrorCount))))
	return result
}

func (s *Session) importRows(ctx context.Context, target routing.Target, asset models.AssetRef, rowLimit int, result *models.FileResult, log *slog.Logger) error {
	f, err := os.Open(target.FilePath)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	if _, err := validation.ValidateFileContentByMagicBytes(f); err != nil {
		return err
	}
	parser, err := parsers.GetParser(target.Format)
	if err != nil {
		return err
	}
	rows, err := parser.NewReader(f)
	if err != nil {
		return err
	}
	rows = parsers.LimitRows(rows, rowLimit)

	var sink Upserter = s.store
	if s.commit == CommitPerFile {
		batch, err := s.store.Begin(ctx)
		if err != nil {
			return err
		}
		committed := false
		defer func() {
			if !committed {
				batch.Rollback()
			}
		}()
		sink = batch
		if err := s.readRows(ctx, rows, sink, asset, target.Order(), result, log); err != nil {
			return err
		}
		if err := batch.Commit(); err != nil {
			return fmt.Errorf("commit: %w", err)
		}
		committed = true
	} else if err := s.readRows(ctx, rows, sink, asset, target.Order(), result, log); err != nil {
		return err
	}

	if s.setCurrent {
		return s.updateCurrentPrice(ctx, result, log)
	}
	return nil
}

func (s *Session) readRows(ctx context.Context, rows parsers.RowReader, sink Upserter, asset models.AssetRef, order parsers.DateOrder, result *models.FileResult, log *slog.Logger) error {
	s.latest = nil
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		row, err := rows.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			if errors.Is(err, parsers.ErrMalformedRow) {
				log.Warn("Skipping malformed row", "error", err)
				result.ErrorCount++
				continue
			}
			return err
		}

		obs, err := s.normalizer.Normalize(row, asset.AssetID, order)
		if err != nil {
			if errors.Is(err, parsers.ErrInvalidPrice) {
				log.Warn(fmt.Sprintf("Skipping row %d: invalid price data", row.Line), "price", row.Price, "open", row.Open)
			}
			result.ErrorCount++
			continue
		}

		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				return err
			}
		}
		if err := sink.UpsertPriceObservation(ctx, obs); err != nil {
			log.Error(fmt.Sprintf("Error importing row %d", row.Line), "error", err)
			result.ErrorCount++
			continue
		}

		result.SuccessCount++
		if s.latest == nil || obs.Date.After(s.latest.Date) {
			latest := obs
			s.latest = &latest
		}
		if result.SuccessCount%progressEvery == 0 {
			log.Info(fmt.Sprintf("Imported %s records for %s", humanize.Comma(int64(result.SuccessCount)), result.Symbol))
		}
	}
}

func (s *Session) updateCurrentPrice(ctx context.Context, result *models.FileResult, log *slog.Logger) error {
	if s.latest == nil {
		return nil
	}
	live := *s.latest
	live.UpdateCurrentPrice = true
	if err := s.store.UpsertPriceObservation(ctx, live); err != nil {
		return fmt.Errorf("set current price: %w", err)
	}
	log.Info("Updated current price", "date", live.Date.Format("2006-01-02"), "price", live.Price.String())
	return nil
}

func orAll(s string) string {
	if s == "" {
		return "All"
	}
	return s
}
