// src/parsers/parser.go
package parsers

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/username/pricefolio/src/models"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	ErrMalformedRow  = errors.New("malformed row")
	ErrMissingColumn = errors.New("missing column")
)

// RowReader streams the data rows of one price file. Read returns io.EOF after the last row.
// An error wrapping ErrMalformedRow concerns only that row and reading may continue.
type RowReader interface {
	Read() (models.RawPriceRow, error)
}

// Parser opens a RowReader over a price file in one specific layout.
type Parser interface {
	NewReader(r io.Reader) (RowReader, error)
}

// GetParser returns the parser for a routing table format name. The empty name is "investing".
func GetParser(format string) (Parser, error) {
	switch format {
	case "", "investing":
		return InvestingParser{}, nil
	case "positional":
		return PositionalParser{}, nil
	default:
		return nil, fmt.Errorf("no parser available for format: %s", format)
	}
}

// newCSVReader drops a UTF-8 (or UTF-16) byte order mark and returns a quote-aware reader.
// Field counts are checked by the callers so a short line stays a row error.
func newCSVReader(r io.Reader) *csv.Reader {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	reader := csv.NewReader(decoded)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = true
	return reader
}

// readRecord reads the next CSV record, classifying syntax errors as row errors.
func readRecord(reader *csv.Reader, line int) ([]string, error) {
	record, err := reader.Read()
	if err == nil || err == io.EOF {
		return record, err
	}
	var parseErr *csv.ParseError
	if errors.As(err, &parseErr) {
		return nil, fmt.Errorf("row %d: %w: %v", line, ErrMalformedRow, parseErr)
	}
	return nil, fmt.Errorf("failed to read CSV record: %w", err)
}

func field(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return record[idx]
}

type limitedReader struct {
	r RowReader
	n int
}

// LimitRows returns a RowReader that stops with io.EOF after n rows have been read,
// malformed rows included. A limit <= 0 means no limit.
func LimitRows(r RowReader, n int) RowReader {
	if n <= 0 {
		return r
	}
	return &limitedReader{r: r, n: n}
}

func (l *limitedReader) Read() (models.RawPriceRow, error) {
	if l.n <= 0 {
		return models.RawPriceRow{}, io.EOF
	}
	row, err := l.r.Read()
	if err == io.EOF {
		return row, err
	}
	l.n--
	return row, err
}
