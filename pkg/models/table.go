package models

import (
	"fmt"
	"math"
)

// Table is a row-major matrix of float64 keyed by asset name. Row order is
// fixed by the sequence passed to NewTable; rows may differ in length.
type Table struct {
	order []string
	index map[string]int
	rows  [][]float64
}

// NewTable allocates a table whose rows follow order exactly.
// Duplicate names are rejected.
func NewTable(order []string) (*Table, error) {
	t := &Table{
		order: append([]string(nil), order...),
		index: make(map[string]int, len(order)),
		rows:  make([][]float64, len(order)),
	}
	for i, name := range order {
		if _, dup := t.index[name]; dup {
			return nil, fmt.Errorf("duplicate asset %q in table order", name)
		}
		t.index[name] = i
	}
	return t, nil
}

// Set stores the row for asset. The slice is copied.
func (t *Table) Set(asset string, values []float64) error {
	i, ok := t.index[asset]
	if !ok {
		return fmt.Errorf("asset %q is not part of this table", asset)
	}
	t.rows[i] = append([]float64(nil), values...)
	return nil
}

// Row returns the row for asset.
func (t *Table) Row(asset string) ([]float64, bool) {
	i, ok := t.index[asset]
	if !ok {
		return nil, false
	}
	return t.rows[i], true
}

// Assets returns the row keys in table order.
func (t *Table) Assets() []string {
	return append([]string(nil), t.order...)
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.order) }

// Width returns the length of the longest row.
func (t *Table) Width() int {
	w := 0
	for _, r := range t.rows {
		if len(r) > w {
			w = len(r)
		}
	}
	return w
}

// First returns the first value of the asset's row, NaN when absent.
func (t *Table) First(asset string) float64 {
	r, ok := t.Row(asset)
	if !ok || len(r) == 0 {
		return math.NaN()
	}
	return r[0]
}

// Last returns the final value of the asset's row, NaN when absent.
func (t *Table) Last(asset string) float64 {
	r, ok := t.Row(asset)
	if !ok || len(r) == 0 {
		return math.NaN()
	}
	return r[len(r)-1]
}

// SameAssets reports whether both tables hold the same rows in the same order.
func (t *Table) SameAssets(other *Table) bool {
	if t.Len() != other.Len() {
		return false
	}
	for i, name := range t.order {
		if other.order[i] != name {
			return false
		}
	}
	return true
}

// --- Changes ---

// ChangeColumns is the canonical column order of the changes table.
var ChangeColumns = []string{"Last Week", "This Week", "Weekly Change", "As of Jan 1st", "YTD"}

// ChangeRow holds the computed week-over-week and year-to-date changes of
// one asset. Rate rows are in decimal units with changes in basis points;
// other rows keep source units with changes as simple returns.
// Err is set on a sentinel row for an asset that could not be computed.
type ChangeRow struct {
	Asset        string    `json:"asset"`
	Type         AssetType `json:"type"`
	LastWeek     float64   `json:"last_week"`
	ThisWeek     float64   `json:"this_week"`
	WeeklyChange float64   `json:"weekly_change"`
	YearStart    float64   `json:"year_start"`
	YTDChange    float64   `json:"ytd_change"`
	Err          error     `json:"-"`
}

// Values returns the row in ChangeColumns order.
func (r ChangeRow) Values() []float64 {
	return []float64{r.LastWeek, r.ThisWeek, r.WeeklyChange, r.YearStart, r.YTDChange}
}

// ChangeTable is the ordered result of the change calculation.
type ChangeTable struct {
	Rows []ChangeRow `json:"rows"`
}

// Assets returns the asset names in row order.
func (c *ChangeTable) Assets() []string {
	names := make([]string, len(c.Rows))
	for i, r := range c.Rows {
		names[i] = r.Asset
	}
	return names
}

// Row looks up the row for asset.
func (c *ChangeTable) Row(asset string) (ChangeRow, bool) {
	for _, r := range c.Rows {
		if r.Asset == asset {
			return r, true
		}
	}
	return ChangeRow{}, false
}
