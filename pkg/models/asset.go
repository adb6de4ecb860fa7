package models

import (
	"fmt"
	"strings"
)

// --- Asset classification ---

// AssetType controls how changes are computed for an asset.
type AssetType string

const (
	AssetTypeRate         AssetType = "rate"  // quoted in percentage points, changes in bp
	AssetTypeOther        AssetType = "other" // prices and indices, changes as simple returns
	AssetTypeUnclassified AssetType = "unclassified"
)

// ParseAssetType maps a registry cell to an AssetType. Blank or unknown
// values map to AssetTypeUnclassified with ok=false.
func ParseAssetType(s string) (AssetType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "rate":
		return AssetTypeRate, true
	case "other":
		return AssetTypeOther, true
	default:
		return AssetTypeUnclassified, false
	}
}

// --- Extraction strategy ---

// Strategy identifies the page layout a source URL is scraped with.
type Strategy int

const (
	StrategyIndexTable     Strategy = iota // default: cr_dataTable body, 7 rows
	StrategyRateTable                      // alternating tabledata1/tabledata2 rows
	StrategyCommodityQuote                 // cr_dataTable body + quote_val span
	StrategyFeed                           // RSS/Atom feed, newest item first
)

var strategyNames = map[Strategy]string{
	StrategyIndexTable:     "index_table",
	StrategyRateTable:      "rate_table",
	StrategyCommodityQuote: "commodity_quote",
	StrategyFeed:           "feed",
}

func (s Strategy) String() string {
	if name, ok := strategyNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

// ParseStrategy parses a strategy name as written in the registry's
// Strategy column.
func ParseStrategy(s string) (Strategy, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for st, name := range strategyNames {
		if name == key {
			return st, nil
		}
	}
	return 0, fmt.Errorf("unknown extraction strategy %q", s)
}

// --- Asset ---

// AssetSpec describes one tracked asset. Created from the registry and
// immutable for the run.
type AssetSpec struct {
	Name         string    `json:"name"          validate:"required"`
	SourceURL    string    `json:"source_url"    validate:"required,url"`
	Type         AssetType `json:"type"`
	YearStart    float64   `json:"year_start"`
	HasYearStart bool      `json:"has_year_start"`
	Strategy     Strategy  `json:"strategy"`
}

// Extraction is the raw text pulled from a source page, before numeric
// coercion. Week is oldest-first.
type Extraction struct {
	Week   []string `json:"week"`
	Latest string   `json:"latest"`
}
