package routing

import (
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/username/pricefolio/src/models"
	"github.com/username/pricefolio/src/parsers"
	"gopkg.in/yaml.v3"
)

// ErrNotFound is returned when a requested symbol has no route or no file on disk.
var ErrNotFound = errors.New("not found")

//go:embed routes.yaml
var defaultRoutes []byte

// Route maps one ticker to the file holding its history.
type Route struct {
	Symbol    string `yaml:"symbol" validate:"required"`
	Type      string `yaml:"type" validate:"required,oneof=stocks crypto commodities indexes"`
	Path      string `yaml:"path" validate:"required"`
	Format    string `yaml:"format,omitempty" validate:"omitempty,oneof=investing positional"`
	DateOrder string `yaml:"date_order,omitempty" validate:"omitempty,oneof=mdy dmy"`
}

// Order is the date-format hint for this route's file.
func (r Route) Order() parsers.DateOrder {
	if r.DateOrder == string(parsers.DayFirst) {
		return parsers.DayFirst
	}
	return parsers.MonthFirst
}

// AssetType is the catalog type matching the route's bucket.
func (r Route) AssetType() models.AssetType {
	t, _ := models.AssetTypeFromBucket(r.Type)
	return t
}

// Target is a route resolved against a data directory.
type Target struct {
	Route
	FilePath string
}

// Table is the routing table, in file order.
type Table struct {
	Routes []Route `yaml:"routes" validate:"required,min=1,dive"`
}

// Default returns the routing table compiled into the binary.
func Default() (*Table, error) {
	return Parse(defaultRoutes)
}

// Load reads a routing table from path, or returns Default when path is empty.
func Load(path string) (*Table, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read routes: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML routing table.
func Parse(data []byte) (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse routes: %w", err)
	}
	if err := validator.New().Struct(&t); err != nil {
		return nil, fmt.Errorf("invalid routes: %w", err)
	}
	seen := make(map[string]bool, len(t.Routes))
	for _, r := range t.Routes {
		if seen[r.Symbol] {
			return nil, fmt.Errorf("invalid routes: duplicate symbol %q", r.Symbol)
		}
		seen[r.Symbol] = true
	}
	return &t, nil
}

// Lookup returns the route for symbol.
func (t *Table) Lookup(symbol string) (Route, bool) {
	for _, r := range t.Routes {
		if r.Symbol == symbol {
			return r, true
		}
	}
	return Route{}, false
}

// Resolve lists the files to import. With a symbol only that route is returned, and a
// missing route or file is ErrNotFound. Otherwise every route of the bucket (all routes
// when bucket is empty) whose file exists is returned; missing files are logged and skipped.
func (t *Table) Resolve(dataDir, bucket, symbol string, log *slog.Logger) ([]Target, error) {
	if symbol != "" {
		r, ok := t.Lookup(symbol)
		if !ok {
			return nil, fmt.Errorf("symbol %s: %w in routing table", symbol, ErrNotFound)
		}
		target := Target{Route: r, FilePath: filepath.Join(dataDir, r.Path)}
		if !fileExists(target.FilePath) {
			log.Warn("File not found for symbol", "symbol", symbol, "path", target.FilePath)
			return nil, fmt.Errorf("symbol %s: file %s %w", symbol, target.FilePath, ErrNotFound)
		}
		return []Target{target}, nil
	}

	if bucket != "" {
		if _, err := models.AssetTypeFromBucket(bucket); err != nil {
			return nil, err
		}
		bucket = strings.ToLower(bucket)
	}

	var targets []Target
	for _, r := range t.Routes {
		if bucket != "" && r.Type != bucket {
			continue
		}
		target := Target{Route: r, FilePath: filepath.Join(dataDir, r.Path)}
		if !fileExists(target.FilePath) {
			log.Warn("File not found, skipping", "symbol", r.Symbol, "path", target.FilePath)
			continue
		}
		targets = append(targets, target)
	}
	return targets, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
