// Package series fetches and parses every registry asset and assembles the
// current and previous price tables.
package series

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/marketweek/pkg/models"
)

// Fetcher downloads a source page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Parser extracts the text series of an asset from its page.
type Parser interface {
	Parse(spec models.AssetSpec, page []byte) (models.Extraction, error)
}

// Recorder observes fetch latency. infra.Metrics satisfies it.
type Recorder interface {
	ObserveFetch(strategy string, d time.Duration, err error)
}

// Options configures a Builder.
type Options struct {
	Concurrency  int           // parallel fetches; 1 fetches sequentially
	FetchTimeout time.Duration // per-fetch timeout; 0 disables
	Logger       *slog.Logger
	Recorder     Recorder // optional
}

// Tables holds the assembled price tables. Both have identical rows in
// registry order.
type Tables struct {
	// Current rows are the week series followed by the latest value.
	Current *models.Table
	// Previous rows are the week series.
	Previous *models.Table
}

// Builder runs fetch, parse and coercion for every asset.
type Builder struct {
	fetcher Fetcher
	parser  Parser
	opts    Options
	logger  *slog.Logger
}

// NewBuilder creates a Builder.
func NewBuilder(fetcher Fetcher, parser Parser, opts Options) *Builder {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{fetcher: fetcher, parser: parser, opts: opts, logger: logger}
}

// assetResult is one worker's slot.
type assetResult struct {
	week   []float64
	latest float64
	err    *models.AssetError
}

// Build processes assets with bounded parallelism. A failing asset is left
// out of both tables and reported in the returned failures, in registry
// order; it never affects the other assets or the row order.
func (b *Builder) Build(ctx context.Context, assets []models.AssetSpec) (*Tables, []*models.AssetError) {
	results := make([]assetResult, len(assets))
	seen := make(map[string]bool, len(assets))

	var g errgroup.Group
	g.SetLimit(b.opts.Concurrency)
	for i, a := range assets {
		if seen[a.Name] {
			results[i] = b.fail(ctx, a, models.ErrConfig, fmt.Errorf("duplicate asset"))
			continue
		}
		seen[a.Name] = true
		g.Go(func() error {
			results[i] = b.buildOne(ctx, a)
			return nil // per-asset failures are isolated
		})
	}
	_ = g.Wait()

	var (
		names    []string
		failures []*models.AssetError
	)
	for i, a := range assets {
		if results[i].err != nil {
			failures = append(failures, results[i].err)
			continue
		}
		names = append(names, a.Name)
	}

	current, _ := models.NewTable(names)
	previous, _ := models.NewTable(names)
	for i, a := range assets {
		r := results[i]
		if r.err != nil {
			continue
		}
		row := make([]float64, 0, len(r.week)+1)
		row = append(append(row, r.week...), r.latest)
		_ = current.Set(a.Name, row)
		_ = previous.Set(a.Name, r.week)
	}

	return &Tables{Current: current, Previous: previous}, failures
}

func (b *Builder) buildOne(ctx context.Context, a models.AssetSpec) assetResult {
	b.logger.InfoContext(ctx, "loading asset", "asset", a.Name, "strategy", a.Strategy.String())

	fetchCtx := ctx
	if b.opts.FetchTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, b.opts.FetchTimeout)
		defer cancel()
	}

	start := time.Now()
	page, err := b.fetcher.Fetch(fetchCtx, a.SourceURL)
	if b.opts.Recorder != nil {
		b.opts.Recorder.ObserveFetch(a.Strategy.String(), time.Since(start), err)
	}
	if err != nil {
		return b.fail(ctx, a, models.ErrNetwork, err)
	}

	ext, err := b.parser.Parse(a, page)
	if err != nil {
		return b.fail(ctx, a, models.ErrExtraction, err)
	}
	if len(ext.Week) == 0 {
		return b.fail(ctx, a, models.ErrExtraction, fmt.Errorf("empty week series"))
	}

	week, err := CoerceAll(ext.Week)
	if err != nil {
		return b.fail(ctx, a, models.ErrFormat, err)
	}
	latest, err := Coerce(ext.Latest)
	if err != nil {
		return b.fail(ctx, a, models.ErrFormat, fmt.Errorf("latest: %w", err))
	}

	b.logger.DebugContext(ctx, "asset loaded", "asset", a.Name, "points", len(week), "latest", latest)
	return assetResult{week: week, latest: latest}
}

func (b *Builder) fail(ctx context.Context, a models.AssetSpec, kind, err error) assetResult {
	ae := models.NewAssetError(a.Name, kind, err)
	b.logger.WarnContext(ctx, "asset failed", "asset", a.Name, "kind", models.KindName(kind), "error", err)
	return assetResult{err: ae}
}
