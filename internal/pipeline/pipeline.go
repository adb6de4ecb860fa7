// Package pipeline runs one end-to-end scrape: build the price tables,
// compute changes, write the workbook and the metrics textfile.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/seenimoa/marketweek/internal/analysis/change"
	"github.com/seenimoa/marketweek/internal/infra"
	"github.com/seenimoa/marketweek/internal/registry"
	"github.com/seenimoa/marketweek/internal/report"
	"github.com/seenimoa/marketweek/internal/series"
	"github.com/seenimoa/marketweek/pkg/models"
	"github.com/seenimoa/marketweek/pkg/utils"
)

var (
	// ErrNoData is returned when no asset could be loaded.
	ErrNoData = errors.New("no asset produced data")
	// ErrFailFast is returned when fail-fast mode aborts a run with failures.
	ErrFailFast = errors.New("run aborted on first failures")
)

// Options configures a run.
type Options struct {
	OutputPath      string
	AsOf            time.Time // last price column label; zero means today
	Concurrency     int
	FetchTimeout    time.Duration
	Deadline        time.Duration // 0 disables
	FailFast        bool
	MetricsTextfile string // empty disables
}

// Result describes a finished run.
type Result struct {
	RunID    string
	Prices   *models.Table
	Changes  *models.ChangeTable
	Failures []*models.AssetError
	Output   string // empty when nothing was written
	Elapsed  time.Duration
}

// OK returns the number of assets with a complete change row.
func (r *Result) OK() int {
	if r.Changes == nil {
		return 0
	}
	n := 0
	for _, row := range r.Changes.Rows {
		if row.Err == nil {
			n++
		}
	}
	return n
}

// Pipeline wires the fetcher and parser into runs.
type Pipeline struct {
	fetcher series.Fetcher
	parser  series.Parser
	metrics *infra.Metrics
	logger  *slog.Logger
	opts    Options
}

// New creates a Pipeline. A nil metrics or logger gets a default.
func New(fetcher series.Fetcher, parser series.Parser, metrics *infra.Metrics, logger *slog.Logger, opts Options) *Pipeline {
	if metrics == nil {
		metrics = infra.NewMetrics()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{fetcher: fetcher, parser: parser, metrics: metrics, logger: logger, opts: opts}
}

// Run scrapes every registry asset and writes the output workbook.
//
// Failures are isolated per asset: the run succeeds as long as at least one
// asset produced data and the workbook was written, with failures listed in
// Result.Failures and the errors sheet. In fail-fast mode any failure aborts
// the run before anything is written.
func (p *Pipeline) Run(ctx context.Context, reg *registry.Registry) (*Result, error) {
	start := time.Now()
	res := &Result{RunID: uuid.NewString()}
	ctx = infra.WithRunID(ctx, res.RunID)
	if p.opts.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.opts.Deadline)
		defer cancel()
	}

	p.logger.InfoContext(ctx, "run started", "assets", reg.Len(), "concurrency", p.opts.Concurrency, "fail_fast", p.opts.FailFast)

	builder := series.NewBuilder(p.fetcher, p.parser, series.Options{
		Concurrency:  p.opts.Concurrency,
		FetchTimeout: p.opts.FetchTimeout,
		Logger:       p.logger,
		Recorder:     p.metrics,
	})
	tables, failures := builder.Build(ctx, reg.Assets())
	res.Prices = tables.Current
	res.Failures = failures

	defer func() {
		res.Elapsed = time.Since(start)
		p.finishMetrics(ctx, reg, res)
	}()

	if p.opts.FailFast && len(failures) > 0 {
		return res, withCauses(ErrFailFast, failures)
	}
	if tables.Current.Len() == 0 {
		return res, withCauses(ErrNoData, failures)
	}

	changes, err := change.Compute(tables.Current, tables.Previous, reg.YTD(), reg.Types())
	if changes == nil {
		return res, fmt.Errorf("compute changes: %w", err)
	}
	res.Changes = changes
	if err != nil {
		sentinels := sentinelErrors(changes)
		p.logger.WarnContext(ctx, "assets kept without changes", "count", len(sentinels), "error", err)
		if p.opts.FailFast {
			return res, fmt.Errorf("%w: %w", ErrFailFast, err)
		}
		res.Failures = append(res.Failures, sentinels...)
	}

	asOf := p.opts.AsOf
	if asOf.IsZero() {
		asOf = utils.Today()
	}
	if err := report.WriteWorkbook(p.opts.OutputPath, tables.Current, changes, res.Failures, asOf); err != nil {
		return res, fmt.Errorf("write workbook: %w", err)
	}
	res.Output = p.opts.OutputPath

	p.logger.InfoContext(ctx, "run finished",
		"ok", res.OK(), "failed", len(res.Failures), "output", res.Output, "elapsed", time.Since(start).String())
	return res, nil
}

// finishMetrics counts asset outcomes and writes the textfile when configured.
func (p *Pipeline) finishMetrics(ctx context.Context, reg *registry.Registry, res *Result) {
	failed := make(map[string]string, len(res.Failures))
	for _, f := range res.Failures {
		failed[f.Asset] = models.KindName(f.Kind)
	}
	for _, name := range reg.Names() {
		p.metrics.ObserveAsset(failed[name])
	}
	p.metrics.MarkRun(time.Now(), reg.Len()-len(failed), len(failed))

	if p.opts.MetricsTextfile == "" {
		return
	}
	if err := p.metrics.WriteTextfile(p.opts.MetricsTextfile); err != nil {
		p.logger.WarnContext(ctx, "metrics textfile not written", "path", p.opts.MetricsTextfile, "error", err)
	}
}

func sentinelErrors(changes *models.ChangeTable) []*models.AssetError {
	var out []*models.AssetError
	for _, row := range changes.Rows {
		if row.Err == nil {
			continue
		}
		var ae *models.AssetError
		if !errors.As(row.Err, &ae) {
			ae = models.NewAssetError(row.Asset, models.ErrConfig, row.Err)
		}
		out = append(out, ae)
	}
	return out
}

// withCauses wraps kind around the joined per-asset errors.
func withCauses(kind error, causes []*models.AssetError) error {
	if len(causes) == 0 {
		return kind
	}
	errs := make([]error, len(causes))
	for i, e := range causes {
		errs[i] = e
	}
	return fmt.Errorf("%w: %w", kind, errors.Join(errs...))
}
