// src/models/price.go
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// AssetType is the catalog classification of a tradeable instrument.
type AssetType string

const (
	AssetTypeStock     AssetType = "Stock"
	AssetTypeCrypto    AssetType = "Crypto"
	AssetTypeCommodity AssetType = "Commodity"
	AssetTypeIndex     AssetType = "Index"
)

// bucketTypes maps the routing/CLI bucket names to asset types.
var bucketTypes = map[string]AssetType{
	"stocks":      AssetTypeStock,
	"crypto":      AssetTypeCrypto,
	"commodities": AssetTypeCommodity,
	"indexes":     AssetTypeIndex,
}

// AssetTypeFromBucket converts a bucket name such as "stocks" or "indexes" into an AssetType.
func AssetTypeFromBucket(bucket string) (AssetType, error) {
	t, ok := bucketTypes[strings.ToLower(strings.TrimSpace(bucket))]
	if !ok {
		return "", fmt.Errorf("unknown asset type bucket %q", bucket)
	}
	return t, nil
}

// ParseAssetType accepts either a catalog name ("Stock") or a bucket name ("stocks").
func ParseAssetType(s string) (AssetType, error) {
	for _, t := range []AssetType{AssetTypeStock, AssetTypeCrypto, AssetTypeCommodity, AssetTypeIndex} {
		if strings.EqualFold(string(t), s) {
			return t, nil
		}
	}
	return AssetTypeFromBucket(s)
}

// AssetRef is a catalog entry. It is read from the store and never created by an import run.
type AssetRef struct {
	AssetID   int64     `json:"asset_id"`
	Symbol    string    `json:"symbol"`
	Name      string    `json:"name"`
	AssetType AssetType `json:"asset_type"`
}

// RawPriceRow is one CSV data line, as text.
type RawPriceRow struct {
	Line          int    // 1-based data row number, header excluded
	Date          string // "Date"
	Price         string // "Price"
	Open          string // "Open"
	High          string // "High"
	Low           string // "Low"
	Volume        string // "Vol."
	ChangePercent string // "Change %"
}

// PriceObservation is a normalized, validated daily OHLCV record ready for the upsert.
type PriceObservation struct {
	AssetID            int64
	Date               time.Time // calendar date, midnight UTC
	Price              decimal.Decimal
	Open               decimal.Decimal
	High               decimal.Decimal
	Low                decimal.Decimal
	Volume             int64
	ChangePercent      decimal.NullDecimal // null means "no data", not zero change
	UpdateCurrentPrice bool
}

// DateKey is the (asset, date) identity used by the store to deduplicate observations.
func (o PriceObservation) DateKey() string {
	return fmt.Sprintf("%d/%s", o.AssetID, o.Date.Format("2006-01-02"))
}
