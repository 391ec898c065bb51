package parsers

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/username/pricefolio/src/models"
)

// PositionalParser reads older exports whose header names vary. Columns are taken by
// position: Date, Price, Open, High, Low, Vol. and an optional Change %.
type PositionalParser struct{}

const positionalMinFields = 6

type positionalReader struct {
	csv  *csv.Reader
	line int
}

func (PositionalParser) NewReader(r io.Reader) (RowReader, error) {
	reader := newCSVReader(r)
	if _, err := reader.Read(); err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	return &positionalReader{csv: reader}, nil
}

func (r *positionalReader) Read() (models.RawPriceRow, error) {
	r.line++
	record, err := readRecord(r.csv, r.line)
	if err != nil {
		return models.RawPriceRow{Line: r.line}, err
	}
	if len(record) < positionalMinFields {
		return models.RawPriceRow{Line: r.line}, fmt.Errorf("row %d: %w: %d fields, want at least %d", r.line, ErrMalformedRow, len(record), positionalMinFields)
	}
	return models.RawPriceRow{
		Line:          r.line,
		Date:          record[0],
		Price:         record[1],
		Open:          record[2],
		High:          record[3],
		Low:           record[4],
		Volume:        record[5],
		ChangePercent: field(record, 6),
	}, nil
}
