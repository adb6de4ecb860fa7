package report

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/seenimoa/marketweek/pkg/models"
	"github.com/seenimoa/marketweek/pkg/utils"
)

// RenderChanges prints the change table. Rate levels are shown in percent
// with changes in basis points; other assets show source units with changes
// in percent.
func RenderChanges(w io.Writer, changes *models.ChangeTable) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{AssetHeader, "Type", "Last Week", "This Week", "Weekly Change", "As of Jan 1st", "YTD", "Note"})

	for _, r := range changes.Rows {
		note := ""
		if r.Err != nil {
			note = r.Err.Error()
		}
		level, delta := utils.FormatValue, utils.FormatPct
		if r.Type == models.AssetTypeRate {
			level, delta = formatRateLevel, utils.FormatBasisPoints
		}
		t.AppendRow(table.Row{
			r.Asset,
			string(r.Type),
			level(r.LastWeek),
			level(r.ThisWeek),
			delta(r.WeeklyChange),
			level(r.YearStart),
			delta(r.YTDChange),
			note,
		})
	}

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
		{Number: 7, Align: text.AlignRight},
	})
	t.SetStyle(table.StyleRounded)
	t.Render()
}

// RenderFailures prints per-asset failures. Nothing is printed when there
// are none.
func RenderFailures(w io.Writer, failures []*models.AssetError) {
	if len(failures) == 0 {
		return
	}
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("Failed assets")
	t.AppendHeader(table.Row{AssetHeader, "Kind", "Error"})
	for _, fe := range failures {
		msg := ""
		if fe.Err != nil {
			msg = fe.Err.Error()
		}
		t.AppendRow(table.Row{fe.Asset, models.KindName(fe.Kind), msg})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}

// RenderSources prints the registry with the resolved strategy of each asset.
func RenderSources(w io.Writer, assets []models.AssetSpec) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"#", AssetHeader, "Type", "Strategy", "As of Jan 1st", "Source"})
	for i, a := range assets {
		yearStart := "-"
		if a.HasYearStart {
			yearStart = utils.FormatValue(a.YearStart)
		}
		t.AppendRow(table.Row{i + 1, a.Name, string(a.Type), a.Strategy.String(), yearStart, a.SourceURL})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}

// RunSummary is the one-line footer printed after a run.
func RunSummary(runID string, ok, failed int, output string, elapsed time.Duration) string {
	return fmt.Sprintf("run %s: %d assets ok, %d failed, wrote %s in %s", runID, ok, failed, output, FormatDuration(elapsed))
}

// FormatDuration formats a duration for display.
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%.1fm", d.Minutes())
	}
	return fmt.Sprintf("%.1fh", d.Hours())
}

func formatRateLevel(v float64) string {
	s := utils.FormatValue(v * 100)
	if s == "n/a" {
		return s
	}
	return s + "%"
}
