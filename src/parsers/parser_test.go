package parsers

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/pricefolio/src/models"
)

const investingCSV = "\ufeff" + `"Date","Price","Open","High","Low","Vol.","Change %"
"09/30/2022","43.84","42.82","44.62","42.81","25.89M","2.57%"
"09/29/2022","1,042.74","1,051.00","1,060.20","1,030.00","","-0.45%"
"09/28/2022","44.00","43.00","45.00","42.00","1.2K",""
`

func readAll(t *testing.T, r RowReader) (rows []models.RawPriceRow, rowErrs []error) {
	t.Helper()
	for {
		row, err := r.Read()
		if err == io.EOF {
			return rows, rowErrs
		}
		if err != nil {
			require.True(t, errors.Is(err, ErrMalformedRow), "unexpected file-level error: %v", err)
			rowErrs = append(rowErrs, err)
			continue
		}
		rows = append(rows, row)
	}
}

func TestGetParser(t *testing.T) {
	for _, format := range []string{"", "investing", "positional"} {
		p, err := GetParser(format)
		require.NoError(t, err, format)
		assert.NotNil(t, p)
	}
	_, err := GetParser("xlsx")
	assert.Error(t, err)
}

func TestInvestingReader(t *testing.T) {
	r, err := InvestingParser{}.NewReader(strings.NewReader(investingCSV))
	require.NoError(t, err)

	rows, rowErrs := readAll(t, r)
	assert.Empty(t, rowErrs)
	require.Len(t, rows, 3)

	assert.Equal(t, models.RawPriceRow{
		Line: 1, Date: "09/30/2022", Price: "43.84", Open: "42.82", High: "44.62", Low: "42.81",
		Volume: "25.89M", ChangePercent: "2.57%",
	}, rows[0])
	assert.Equal(t, "1,042.74", rows[1].Price, "quoted commas stay inside the field")
	assert.Equal(t, "", rows[1].Volume)
	assert.Equal(t, 3, rows[2].Line)
}

func TestInvestingReaderColumnsByName(t *testing.T) {
	in := "Change %,Vol.,Low,High,Open,Price,Date\n0.45%,10M,1,3,2,2.5,2024-01-02\n"
	r, err := InvestingParser{}.NewReader(strings.NewReader(in))
	require.NoError(t, err)

	rows, _ := readAll(t, r)
	require.Len(t, rows, 1)
	assert.Equal(t, "2024-01-02", rows[0].Date)
	assert.Equal(t, "2.5", rows[0].Price)
	assert.Equal(t, "2", rows[0].Open)
	assert.Equal(t, "10M", rows[0].Volume)
	assert.Equal(t, "0.45%", rows[0].ChangePercent)
}

func TestInvestingReaderOptionalColumns(t *testing.T) {
	r, err := InvestingParser{}.NewReader(strings.NewReader("Date,Price,Open\n01/02/2024,1,1\n"))
	require.NoError(t, err)
	rows, _ := readAll(t, r)
	require.Len(t, rows, 1)
	assert.Empty(t, rows[0].Volume)
	assert.Empty(t, rows[0].ChangePercent)
}

func TestInvestingReaderHeaderIsCaseSensitive(t *testing.T) {
	_, err := InvestingParser{}.NewReader(strings.NewReader("date,price,open\n"))
	assert.True(t, errors.Is(err, ErrMissingColumn))
}

func TestInvestingReaderEmptyFile(t *testing.T) {
	_, err := InvestingParser{}.NewReader(strings.NewReader(""))
	assert.Error(t, err)
}

func TestInvestingReaderShortRowIsRowError(t *testing.T) {
	in := "Date,Price,Open,High\n01/02/2024,1,1,1\n01/03/2024\n01/04/2024,2,2,2\n"
	r, err := InvestingParser{}.NewReader(strings.NewReader(in))
	require.NoError(t, err)

	rows, rowErrs := readAll(t, r)
	assert.Len(t, rows, 2)
	require.Len(t, rowErrs, 1)
	assert.Contains(t, rowErrs[0].Error(), "row 2")
}

func TestPositionalReader(t *testing.T) {
	in := "Data,Preco,Abertura,Max,Min,Vol\n" +
		"\"05/27/2025\",\"109,440.37\",\"109,004.19\",\"110,718.00\",\"107,564.32\",\"63.12K\"\n" +
		"05/26/2025,1,1\n"
	r, err := PositionalParser{}.NewReader(strings.NewReader(in))
	require.NoError(t, err)

	rows, rowErrs := readAll(t, r)
	require.Len(t, rows, 1)
	assert.Len(t, rowErrs, 1)
	assert.Equal(t, "109,440.37", rows[0].Price)
	assert.Equal(t, "63.12K", rows[0].Volume)
	assert.Empty(t, rows[0].ChangePercent)
}

func TestLimitRows(t *testing.T) {
	r, err := InvestingParser{}.NewReader(strings.NewReader(investingCSV))
	require.NoError(t, err)

	rows, _ := readAll(t, LimitRows(r, 2))
	assert.Len(t, rows, 2)

	r, err = InvestingParser{}.NewReader(strings.NewReader(investingCSV))
	require.NoError(t, err)
	rows, _ = readAll(t, LimitRows(r, 0))
	assert.Len(t, rows, 3, "zero means unlimited")

	r, err = InvestingParser{}.NewReader(strings.NewReader(investingCSV))
	require.NoError(t, err)
	rows, _ = readAll(t, LimitRows(r, 10))
	assert.Len(t, rows, 3)
}
