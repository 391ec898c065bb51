package parsers

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/pricefolio/src/models"
	"github.com/username/pricefolio/src/validation"
)

var (
	ErrUnparseableDate = errors.New("unparseable date")
	ErrInvalidPrice    = errors.New("invalid price data")
)

// DateOrder tells ParseDate which slash format to try first.
type DateOrder string

const (
	MonthFirst DateOrder = "mdy" // MM/DD/YYYY before DD/MM/YYYY
	DayFirst   DateOrder = "dmy" // DD/MM/YYYY before MM/DD/YYYY
)

// Layouts accept one or two digit month and day.
const (
	layoutMDY = "1/2/2006"
	layoutDMY = "2/1/2006"
	layoutISO = "2006-1-2"
)

var maxVolume = decimal.NewFromInt(math.MaxInt64)

var volumeSuffixes = map[byte]decimal.Decimal{
	'K': decimal.New(1, 3),
	'M': decimal.New(1, 6),
	'B': decimal.New(1, 9),
	'T': decimal.New(1, 12),
}

// Normalizer turns raw CSV text into typed values. None of its methods fail the caller:
// bad input yields a zero/null/false result and a log line.
type Normalizer struct {
	log *slog.Logger
}

func NewNormalizer(log *slog.Logger) *Normalizer {
	return &Normalizer{log: log}
}

func (o DateOrder) layouts() []string {
	if o == DayFirst {
		return []string{layoutDMY, layoutMDY, layoutISO}
	}
	return []string{layoutMDY, layoutDMY, layoutISO}
}

// ParseDate tries MM/DD/YYYY, DD/MM/YYYY then YYYY-MM-DD (the slash formats swap under
// DayFirst) and returns the first full match as a UTC calendar date.
// A day value <= 12 is ambiguous between the slash formats and resolves by order alone.
func (n *Normalizer) ParseDate(text string, order DateOrder) (time.Time, bool) {
	s := cleanField(text)
	for _, layout := range order.layouts() {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	n.log.Error("Could not parse date", "value", text)
	return time.Time{}, false
}

// ParseDecimal parses a price such as "1,234.56" and returns zero when it cannot.
func (n *Normalizer) ParseDecimal(text string) decimal.Decimal {
	s := strings.ReplaceAll(cleanField(text), ",", "")
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		n.log.Warn("Could not parse price", "value", text)
		return decimal.Zero
	}
	return d
}

// ParseVolume parses volumes such as "70.82M" or "1,234" into a non-negative integer.
func (n *Normalizer) ParseVolume(text string) int64 {
	s := strings.ToUpper(cleanField(text))
	s = strings.NewReplacer(",", "", " ", "").Replace(s)
	if isMissing(s) {
		return 0
	}

	var v decimal.Decimal
	var err error
	if factor, ok := volumeSuffixes[s[len(s)-1]]; ok {
		v, err = decimal.NewFromString(s[:len(s)-1])
		v = v.Mul(factor)
	} else {
		v, err = decimal.NewFromString(s)
	}
	if err != nil {
		n.log.Warn("Could not parse volume", "value", text)
		return 0
	}
	if v.IsNegative() {
		n.log.Warn("Negative volume, using 0", "value", text)
		return 0
	}
	whole := v.Truncate(0)
	if whole.GreaterThan(maxVolume) {
		n.log.Warn("Volume out of range, using 0", "value", text)
		return 0
	}
	return whole.IntPart()
}

// ParseChangePercent parses "0.45%" into 0.45. Empty or bad input yields null, never zero.
func (n *Normalizer) ParseChangePercent(text string) decimal.NullDecimal {
	s := strings.TrimSpace(strings.TrimSuffix(cleanField(text), "%"))
	if isMissing(s) {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", ""))
	if err != nil {
		n.log.Warn("Could not parse change percentage", "value", text)
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

// Normalize converts a raw row into an observation for assetID. It returns ErrUnparseableDate
// or ErrInvalidPrice when the row has to be rejected.
func (n *Normalizer) Normalize(row models.RawPriceRow, assetID int64, order DateOrder) (models.PriceObservation, error) {
	on, ok := n.ParseDate(row.Date, order)
	if !ok {
		return models.PriceObservation{}, fmt.Errorf("row %d: %w: %q", row.Line, ErrUnparseableDate, row.Date)
	}

	obs := models.PriceObservation{
		AssetID:       assetID,
		Date:          on,
		Price:         n.ParseDecimal(row.Price),
		Open:          n.ParseDecimal(row.Open),
		High:          n.ParseDecimal(row.High),
		Low:           n.ParseDecimal(row.Low),
		Volume:        n.ParseVolume(row.Volume),
		ChangePercent: n.ParseChangePercent(row.ChangePercent),
	}
	if !obs.Price.IsPositive() || !obs.Open.IsPositive() {
		return models.PriceObservation{}, fmt.Errorf("row %d: %w: price=%s open=%s", row.Line, ErrInvalidPrice, obs.Price, obs.Open)
	}
	return obs, nil
}

func cleanField(text string) string {
	s := strings.TrimSpace(validation.StripUnprintable(text))
	return strings.TrimSpace(strings.Trim(s, `"'`))
}

// Investing.com writes "-" for a missing value.
func isMissing(s string) bool {
	return s == "" || s == "-"
}
