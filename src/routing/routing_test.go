package routing

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/pricefolio/src/logger"
	"github.com/username/pricefolio/src/models"
	"github.com/username/pricefolio/src/parsers"
)

const testRoutes = `
routes:
  - {symbol: AAPL, type: stocks, path: stocks/APPLE.csv}
  - {symbol: META, type: stocks, path: stocks/META.csv}
  - {symbol: BTC, type: crypto, path: crypto/Bitcoin Historical Data.csv, date_order: dmy}
  - {symbol: SPX, type: indexes, path: indexes/S&P 500 Historical Data.csv, format: positional}
`

func writeFile(t *testing.T, dir, rel string) {
	t.Helper()
	p := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte("Date,Price,Open\n"), 0o644))
}

func TestDefaultTable(t *testing.T) {
	table, err := Default()
	require.NoError(t, err)
	assert.Len(t, table.Routes, 28)

	counts := map[string]int{}
	for _, r := range table.Routes {
		counts[r.Type]++
	}
	assert.Equal(t, map[string]int{"stocks": 8, "crypto": 6, "commodities": 6, "indexes": 8}, counts)

	r, ok := table.Lookup("SPX")
	require.True(t, ok)
	assert.Equal(t, "indexes/S&P 500 Historical Data.csv", r.Path)
	assert.Equal(t, models.AssetTypeIndex, r.AssetType())
	assert.Equal(t, parsers.MonthFirst, r.Order())
}

func TestParseRejectsInvalidTables(t *testing.T) {
	tests := map[string]string{
		"bad type":      "routes:\n  - {symbol: X, type: bonds, path: x.csv}\n",
		"missing path":  "routes:\n  - {symbol: X, type: stocks}\n",
		"bad order":     "routes:\n  - {symbol: X, type: stocks, path: x.csv, date_order: ymd}\n",
		"bad format":    "routes:\n  - {symbol: X, type: stocks, path: x.csv, format: xlsx}\n",
		"duplicate":     "routes:\n  - {symbol: X, type: stocks, path: x.csv}\n  - {symbol: X, type: crypto, path: y.csv}\n",
		"no routes":     "routes: []\n",
		"not yaml list": "routes: 3\n",
	}
	for name, in := range tests {
		_, err := Parse([]byte(in))
		assert.Error(t, err, name)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "routes.yaml")
	require.NoError(t, os.WriteFile(p, []byte(testRoutes), 0o644))

	table, err := Load(p)
	require.NoError(t, err)
	assert.Len(t, table.Routes, 4)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	table, err = Load("")
	require.NoError(t, err)
	assert.Len(t, table.Routes, 28)
}

func TestResolve(t *testing.T) {
	table, err := Parse([]byte(testRoutes))
	require.NoError(t, err)

	dir := t.TempDir()
	writeFile(t, dir, "stocks/APPLE.csv")
	writeFile(t, dir, "crypto/Bitcoin Historical Data.csv")
	writeFile(t, dir, "indexes/S&P 500 Historical Data.csv")
	log := logger.Discard()

	t.Run("all existing files", func(t *testing.T) {
		targets, err := table.Resolve(dir, "", "", log)
		require.NoError(t, err)
		var symbols []string
		for _, tg := range targets {
			symbols = append(symbols, tg.Symbol)
		}
		assert.Equal(t, []string{"AAPL", "BTC", "SPX"}, symbols, "META has no file")
	})

	t.Run("missing file is logged", func(t *testing.T) {
		var buf bytes.Buffer
		warnLog := slog.New(slog.NewTextHandler(&buf, nil))
		_, err := table.Resolve(dir, "", "", warnLog)
		require.NoError(t, err)
		assert.Contains(t, buf.String(), "level=WARN")
		assert.Contains(t, buf.String(), `msg="File not found, skipping"`)
		assert.Contains(t, buf.String(), "symbol=META")
	})

	t.Run("bucket filter", func(t *testing.T) {
		targets, err := table.Resolve(dir, "crypto", "", log)
		require.NoError(t, err)
		require.Len(t, targets, 1)
		assert.Equal(t, "BTC", targets[0].Symbol)
		assert.Equal(t, filepath.Join(dir, "crypto/Bitcoin Historical Data.csv"), targets[0].FilePath)
		assert.Equal(t, parsers.DayFirst, targets[0].Order())
	})

	t.Run("unknown bucket", func(t *testing.T) {
		_, err := table.Resolve(dir, "bonds", "", log)
		assert.Error(t, err)
	})

	t.Run("single symbol", func(t *testing.T) {
		targets, err := table.Resolve(dir, "", "SPX", log)
		require.NoError(t, err)
		require.Len(t, targets, 1)
		assert.Equal(t, "positional", targets[0].Format)
	})

	t.Run("symbol absent from table", func(t *testing.T) {
		_, err := table.Resolve(dir, "", "TSLA", log)
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("symbol file missing", func(t *testing.T) {
		_, err := table.Resolve(dir, "", "META", log)
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("symbol wins over bucket", func(t *testing.T) {
		targets, err := table.Resolve(dir, "crypto", "AAPL", log)
		require.NoError(t, err)
		assert.Equal(t, "AAPL", targets[0].Symbol)
	})
}
