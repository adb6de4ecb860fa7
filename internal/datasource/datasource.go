// Package datasource extracts raw weekly series from fetched source pages.
// Each asset is scraped with one of a fixed set of layout strategies,
// resolved from the asset name when the registry is loaded.
package datasource

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/seenimoa/marketweek/pkg/models"
)

// Options tunes the layout offsets of the HTML strategies.
type Options struct {
	// RateTableLatestIndex is the flat-cell offset of the latest value in
	// rate tables (11 in the current page scheme, 1 in the older one).
	RateTableLatestIndex int
	// IndexTableRows is how many data rows the index-table strategy reads.
	IndexTableRows int
}

// DefaultOptions returns the offsets matching the current page layouts.
func DefaultOptions() Options {
	return Options{
		RateTableLatestIndex: 11,
		IndexTableRows:       7,
	}
}

// Parser turns source pages into text extractions. It is safe for
// concurrent use.
type Parser struct {
	opts Options
}

// NewParser creates a Parser.
func NewParser(opts Options) *Parser {
	return &Parser{opts: opts}
}

// Parse extracts the week series and the latest value from page using the
// strategy resolved for spec. The values are still text.
func (p *Parser) Parse(spec models.AssetSpec, page []byte) (models.Extraction, error) {
	if spec.Strategy == models.StrategyFeed {
		return parseFeed(page)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return models.Extraction{}, fmt.Errorf("parse HTML: %w", err)
	}

	switch spec.Strategy {
	case models.StrategyRateTable:
		return parseRateTable(doc, p.opts.RateTableLatestIndex)
	case models.StrategyCommodityQuote:
		return parseCommodityQuote(doc)
	case models.StrategyIndexTable:
		return parseIndexTable(doc, p.opts.IndexTableRows)
	default:
		return models.Extraction{}, fmt.Errorf("unsupported strategy %s", spec.Strategy)
	}
}

// --- Shared helpers ---

// stripNBSP removes non-breaking spaces and trims the result.
func stripNBSP(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\u00a0", ""))
}

// reversed returns a reversed copy of s.
func reversed(s []string) []string {
	out := make([]string, len(s))
	for i, v := range s {
		out[len(s)-1-i] = v
	}
	return out
}
