package parsers

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/username/pricefolio/src/models"
)

// Investing.com "Historical Data" column names.
const (
	ColDate          = "Date"
	ColPrice         = "Price"
	ColOpen          = "Open"
	ColHigh          = "High"
	ColLow           = "Low"
	ColVolume        = "Vol."
	ColChangePercent = "Change %"
)

var requiredColumns = []string{ColDate, ColPrice, ColOpen}

// InvestingParser reads investing.com exports, addressing columns by header name:
//
//	"Date","Price","Open","High","Low","Vol.","Change %"
//	"09/30/2022","43.84","42.82","44.62","42.81","25.89M","2.57%"
type InvestingParser struct{}

type investingReader struct {
	csv     *csv.Reader
	columns map[string]int
	line    int
}

func (InvestingParser) NewReader(r io.Reader) (RowReader, error) {
	reader := newCSVReader(r)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(name)] = i
	}
	for _, name := range requiredColumns {
		if _, ok := columns[name]; !ok {
			return nil, fmt.Errorf("%w %q in header %q", ErrMissingColumn, name, strings.Join(header, ","))
		}
	}
	return &investingReader{csv: reader, columns: columns}, nil
}

func (r *investingReader) index(name string) int {
	if i, ok := r.columns[name]; ok {
		return i
	}
	return -1
}

func (r *investingReader) Read() (models.RawPriceRow, error) {
	r.line++
	record, err := readRecord(r.csv, r.line)
	if err != nil {
		return models.RawPriceRow{Line: r.line}, err
	}
	for _, name := range requiredColumns {
		if r.index(name) >= len(record) {
			return models.RawPriceRow{Line: r.line}, fmt.Errorf("row %d: %w: %d fields, no %q", r.line, ErrMalformedRow, len(record), name)
		}
	}

	return models.RawPriceRow{
		Line:          r.line,
		Date:          field(record, r.index(ColDate)),
		Price:         field(record, r.index(ColPrice)),
		Open:          field(record, r.index(ColOpen)),
		High:          field(record, r.index(ColHigh)),
		Low:           field(record, r.index(ColLow)),
		Volume:        field(record, r.index(ColVolume)),
		ChangePercent: field(record, r.index(ColChangePercent)),
	}, nil
}
