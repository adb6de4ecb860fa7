// Package change computes week-over-week and year-to-date changes from the
// current and previous price tables.
package change

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/seenimoa/marketweek/pkg/models"
)

var (
	hundred = decimal.NewFromInt(100)
	bpScale = decimal.NewFromInt(10000)
)

// Compute builds the change table in the row order of current.
//
// Rate assets are quoted in percent: the three inputs are divided by 100 and
// both changes are reported in basis points against last week and the
// year-start value respectively. Other assets keep source units and report
// simple returns; a zero base yields NaN.
//
// An asset without a usable type or year-start value is kept as a sentinel
// row (Err set, change columns NaN); the returned error then joins one
// config error per such asset alongside the full table.
func Compute(current, previous *models.Table, ytd map[string]float64, types map[string]models.AssetType) (*models.ChangeTable, error) {
	if !current.SameAssets(previous) {
		return nil, fmt.Errorf("current and previous tables have different rows: %v vs %v",
			current.Assets(), previous.Assets())
	}

	out := &models.ChangeTable{Rows: make([]models.ChangeRow, 0, current.Len())}
	var errs []error
	for _, asset := range current.Assets() {
		row := computeRow(asset, previous.First(asset), current.Last(asset), ytd, types)
		if row.Err != nil {
			errs = append(errs, row.Err)
		}
		out.Rows = append(out.Rows, row)
	}
	return out, errors.Join(errs...)
}

func computeRow(asset string, lastWeek, thisWeek float64, ytd map[string]float64, types map[string]models.AssetType) models.ChangeRow {
	ref, hasRef := ytd[asset]
	typ, hasType := types[asset]

	row := models.ChangeRow{
		Asset:        asset,
		Type:         typ,
		LastWeek:     lastWeek,
		ThisWeek:     thisWeek,
		WeeklyChange: math.NaN(),
		YearStart:    math.NaN(),
		YTDChange:    math.NaN(),
	}
	if hasRef {
		row.YearStart = ref
	}

	switch {
	case !hasType || typ == models.AssetTypeUnclassified:
		row.Type = models.AssetTypeUnclassified
		row.Err = models.NewAssetError(asset, models.ErrConfig, errors.New("asset has no rate/other classification"))
		return row
	case !hasRef:
		row.Err = models.NewAssetError(asset, models.ErrConfig, errors.New("asset has no year-start value"))
		return row
	}

	switch typ {
	case models.AssetTypeRate:
		row.LastWeek = scale(lastWeek)
		row.ThisWeek = scale(thisWeek)
		row.YearStart = scale(ref)
		row.WeeklyChange = basisPoints(lastWeek, thisWeek)
		row.YTDChange = basisPoints(ref, thisWeek)
	default:
		row.WeeklyChange = simpleReturn(lastWeek, thisWeek)
		row.YTDChange = simpleReturn(ref, thisWeek)
	}
	return row
}

// scale converts a percent quote to a decimal rate.
func scale(pct float64) float64 {
	if !finite(pct) {
		return math.NaN()
	}
	f, _ := decimal.NewFromFloat(pct).Div(hundred).Float64()
	return f
}

// basisPoints returns (to/100 - from/100) * 10000.
func basisPoints(from, to float64) float64 {
	if !finite(from) || !finite(to) {
		return math.NaN()
	}
	f := decimal.NewFromFloat(from).Div(hundred)
	t := decimal.NewFromFloat(to).Div(hundred)
	bp, _ := t.Sub(f).Mul(bpScale).Float64()
	return bp
}

// simpleReturn returns (to - from) / from, NaN for a zero base.
func simpleReturn(from, to float64) float64 {
	if !finite(from) || !finite(to) || from == 0 {
		return math.NaN()
	}
	f := decimal.NewFromFloat(from)
	r, _ := decimal.NewFromFloat(to).Sub(f).Div(f).Float64()
	return r
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
