// Package registry loads the list of tracked assets from the sources sheet
// of the input workbook.
package registry

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/xuri/excelize/v2"

	"github.com/seenimoa/marketweek/internal/datasource"
	"github.com/seenimoa/marketweek/pkg/models"
	"github.com/seenimoa/marketweek/pkg/utils"
)

// Header names of the sources sheet. The first column holds the asset name
// and has no required header.
const (
	ColSource   = "Source"
	ColInit     = "Init"
	ColType     = "Type"
	ColStrategy = "Strategy"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Registry is the ordered set of assets for one run. Its order is the
// canonical row order of every output table.
type Registry struct {
	assets   []models.AssetSpec
	index    map[string]int
	warnings []error
}

// New builds a registry from specs, validating each one. Names must be unique.
func New(specs []models.AssetSpec) (*Registry, error) {
	r := &Registry{
		assets: make([]models.AssetSpec, 0, len(specs)),
		index:  make(map[string]int, len(specs)),
	}
	var errs []error
	for _, s := range specs {
		if err := validate.Struct(s); err != nil {
			errs = append(errs, fmt.Errorf("%w: asset %q: %s", models.ErrConfig, s.Name, describe(err)))
			continue
		}
		if _, dup := r.index[s.Name]; dup {
			errs = append(errs, fmt.Errorf("%w: duplicate asset %q", models.ErrConfig, s.Name))
			continue
		}
		r.index[s.Name] = len(r.assets)
		r.assets = append(r.assets, s)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return r, nil
}

// Load reads the registry from sheet of the workbook at path.
func Load(path, sheet string) (*Registry, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open registry %s: %v", models.ErrConfig, path, err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %q of %s: %v", models.ErrConfig, sheet, path, err)
	}
	return FromRows(rows)
}

// FromRows builds a registry from sheet rows, the first being the header.
func FromRows(rows [][]string) (*Registry, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: sources sheet is empty", models.ErrConfig)
	}

	cols, err := headerColumns(rows[0])
	if err != nil {
		return nil, err
	}

	var (
		specs    []models.AssetSpec
		errs     []error
		warnings []error
	)
	for i, row := range rows[1:] {
		if blank(row) {
			continue
		}
		spec, warn, err := parseRow(row, cols)
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: row %d: %v", models.ErrConfig, i+2, err))
			continue
		}
		if warn != nil {
			warnings = append(warnings, models.NewAssetError(spec.Name, models.ErrConfig, fmt.Errorf("row %d: %w", i+2, warn)))
		}
		specs = append(specs, spec)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	reg, err := New(specs)
	if err != nil {
		return nil, err
	}
	reg.warnings = warnings
	return reg, nil
}

// --- Accessors ---

// Assets returns the asset specs in registry order.
func (r *Registry) Assets() []models.AssetSpec {
	return append([]models.AssetSpec(nil), r.assets...)
}

// Names returns the asset names in registry order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.assets))
	for i, a := range r.assets {
		names[i] = a.Name
	}
	return names
}

// Len returns the number of assets.
func (r *Registry) Len() int { return len(r.assets) }

// Lookup returns the AssetSpec for name.
func (r *Registry) Lookup(name string) (models.AssetSpec, bool) {
	i, ok := r.index[name]
	if !ok {
		return models.AssetSpec{}, false
	}
	return r.assets[i], true
}

// YTD returns the year-start reference values. Assets without one are absent.
func (r *Registry) YTD() map[string]float64 {
	out := make(map[string]float64, len(r.assets))
	for _, a := range r.assets {
		if a.HasYearStart {
			out[a.Name] = a.YearStart
		}
	}
	return out
}

// Warnings returns the per-asset problems that did not stop the load, such
// as an unreadable Init value. The affected assets are kept without a
// year-start value.
func (r *Registry) Warnings() []error {
	return append([]error(nil), r.warnings...)
}

// Types returns the asset classification of every asset.
func (r *Registry) Types() map[string]models.AssetType {
	out := make(map[string]models.AssetType, len(r.assets))
	for _, a := range r.assets {
		out[a.Name] = a.Type
	}
	return out
}

// --- Row parsing ---

type columns struct {
	source, init, typ, strategy int // -1 when absent
}

func headerColumns(header []string) (columns, error) {
	cols := columns{source: -1, init: -1, typ: -1, strategy: -1}
	for i, h := range header {
		if i == 0 {
			continue
		}
		switch strings.ToLower(utils.NormalizeAssetName(h)) {
		case strings.ToLower(ColSource):
			cols.source = i
		case strings.ToLower(ColInit):
			cols.init = i
		case strings.ToLower(ColType):
			cols.typ = i
		case strings.ToLower(ColStrategy):
			cols.strategy = i
		}
	}

	var missing []string
	if cols.source < 0 {
		missing = append(missing, ColSource)
	}
	if cols.init < 0 {
		missing = append(missing, ColInit)
	}
	if cols.typ < 0 {
		missing = append(missing, ColType)
	}
	if len(missing) > 0 {
		return cols, fmt.Errorf("%w: sources sheet is missing columns %s", models.ErrConfig, strings.Join(missing, ", "))
	}
	return cols, nil
}

// parseRow builds the spec of one sheet row. warn reports a bad Init cell,
// which leaves the asset without a year-start value instead of failing.
func parseRow(row []string, cols columns) (spec models.AssetSpec, warn, err error) {
	spec = models.AssetSpec{
		Name:      utils.NormalizeAssetName(cell(row, 0)),
		SourceURL: strings.TrimSpace(cell(row, cols.source)),
	}
	spec.Type, _ = models.ParseAssetType(cell(row, cols.typ))

	if raw := strings.TrimSpace(cell(row, cols.init)); raw != "" {
		if v, perr := utils.ParseNumber(raw); perr != nil {
			warn = fmt.Errorf("Init: %w", perr)
		} else {
			spec.YearStart, spec.HasYearStart = v, true
		}
	}

	st, err := datasource.ResolveStrategy(spec.Name, cell(row, cols.strategy))
	if err != nil {
		return spec, warn, fmt.Errorf("asset %q: %v", spec.Name, err)
	}
	spec.Strategy = st
	return spec, warn, nil
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// describe flattens validator errors into "Field (tag)" pairs.
func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, len(verrs))
	for i, fe := range verrs {
		parts[i] = fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag())
	}
	return "invalid " + strings.Join(parts, ", ")
}
