// Package report writes the run results to the output workbook and renders
// console summaries.
package report

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/seenimoa/marketweek/pkg/models"
	"github.com/seenimoa/marketweek/pkg/utils"
)

// Sheet names of the output workbook.
const (
	SheetPrices  = "prices"
	SheetChanges = "changes"
	SheetErrors  = "errors"
)

// AssetHeader labels the first column of every sheet.
const AssetHeader = "Asset"

// WriteWorkbook writes prices, changes and, when there are any, failures to
// a new workbook at path. Price rows are right-aligned under trading-day
// labels ending at asOf so the last column is always the latest value.
// Non-finite numbers are left as empty cells. The file is written to a
// temporary name first and renamed into place.
func WriteWorkbook(path string, prices *models.Table, changes *models.ChangeTable, failures []*models.AssetError, asOf time.Time) error {
	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	if err := f.SetSheetName(f.GetSheetName(0), SheetPrices); err != nil {
		return fmt.Errorf("rename default sheet: %w", err)
	}
	if err := writePrices(f, prices, asOf, bold); err != nil {
		return err
	}

	if _, err := f.NewSheet(SheetChanges); err != nil {
		return fmt.Errorf("create %s sheet: %w", SheetChanges, err)
	}
	if err := writeChanges(f, changes, bold); err != nil {
		return err
	}

	if len(failures) > 0 {
		if _, err := f.NewSheet(SheetErrors); err != nil {
			return fmt.Errorf("create %s sheet: %w", SheetErrors, err)
		}
		if err := writeFailures(f, failures, bold); err != nil {
			return err
		}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	tmp := filepath.Join(dir, "."+filepath.Base(path)+".tmp.xlsx")
	if err := f.SaveAs(tmp); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("move workbook into place: %w", err)
	}
	return nil
}

func writePrices(f *excelize.File, prices *models.Table, asOf time.Time, style int) error {
	width := prices.Width()
	header := []any{AssetHeader}
	for _, d := range utils.TradingDaysEndingAt(asOf, width) {
		header = append(header, utils.FormatDate(d))
	}
	if err := writeHeader(f, SheetPrices, header, style); err != nil {
		return err
	}

	for i, asset := range prices.Assets() {
		rowNum := i + 2
		if err := setCell(f, SheetPrices, 1, rowNum, asset); err != nil {
			return err
		}
		values, _ := prices.Row(asset)
		offset := width - len(values)
		for j, v := range values {
			if err := setNumber(f, SheetPrices, 2+offset+j, rowNum, v); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeChanges(f *excelize.File, changes *models.ChangeTable, style int) error {
	header := []any{AssetHeader}
	for _, c := range models.ChangeColumns {
		header = append(header, c)
	}
	if err := writeHeader(f, SheetChanges, header, style); err != nil {
		return err
	}

	for i, row := range changes.Rows {
		rowNum := i + 2
		if err := setCell(f, SheetChanges, 1, rowNum, row.Asset); err != nil {
			return err
		}
		for j, v := range row.Values() {
			if err := setNumber(f, SheetChanges, 2+j, rowNum, v); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeFailures(f *excelize.File, failures []*models.AssetError, style int) error {
	if err := writeHeader(f, SheetErrors, []any{AssetHeader, "Kind", "Error"}, style); err != nil {
		return err
	}
	for i, fe := range failures {
		rowNum := i + 2
		msg := ""
		if fe.Err != nil {
			msg = fe.Err.Error()
		}
		for col, v := range []any{fe.Asset, models.KindName(fe.Kind), msg} {
			if err := setCell(f, SheetErrors, col+1, rowNum, v); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeHeader(f *excelize.File, sheet string, header []any, style int) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write %s header: %w", sheet, err)
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return fmt.Errorf("style %s header: %w", sheet, err)
	}
	return nil
}

func setCell(f *excelize.File, sheet string, col, row int, v any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	if err := f.SetCellValue(sheet, cell, v); err != nil {
		return fmt.Errorf("write %s!%s: %w", sheet, cell, err)
	}
	return nil
}

// setNumber writes v, skipping NaN and infinities.
func setNumber(f *excelize.File, sheet string, col, row int, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return setCell(f, sheet, col, row, v)
}

// --- Reading back ---

// ReadChanges reads the changes sheet of a workbook written by WriteWorkbook.
// Empty cells read back as NaN; Type is not stored and stays empty.
func ReadChanges(path string) (*models.ChangeTable, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	rows, err := f.GetRows(SheetChanges, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read %s sheet: %w", SheetChanges, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s sheet is empty", SheetChanges)
	}

	want := append([]string{AssetHeader}, models.ChangeColumns...)
	if got := rows[0]; strings.Join(got, "\x00") != strings.Join(want, "\x00") {
		return nil, fmt.Errorf("unexpected %s header %q, want %q", SheetChanges, got, want)
	}

	out := &models.ChangeTable{}
	for i, r := range rows[1:] {
		if len(r) == 0 || r[0] == "" {
			continue
		}
		vals := make([]float64, len(models.ChangeColumns))
		for j := range vals {
			vals[j] = math.NaN()
			if j+1 >= len(r) || strings.TrimSpace(r[j+1]) == "" {
				continue
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(r[j+1]), 64)
			if err != nil {
				return nil, fmt.Errorf("%s row %d column %q: %w", SheetChanges, i+2, models.ChangeColumns[j], err)
			}
			vals[j] = v
		}
		out.Rows = append(out.Rows, models.ChangeRow{
			Asset:        r[0],
			LastWeek:     vals[0],
			ThisWeek:     vals[1],
			WeeklyChange: vals[2],
			YearStart:    vals[3],
			YTDChange:    vals[4],
		})
	}
	return out, nil
}
