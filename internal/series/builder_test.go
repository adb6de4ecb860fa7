package series

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/marketweek/pkg/models"
)

type page struct {
	body  string
	delay time.Duration
	err   error
}

// fakeFetcher serves canned pages keyed by URL and records completion order.
type fakeFetcher struct {
	pages map[string]page

	mu   sync.Mutex
	done []string
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	p, ok := f.pages[url]
	if !ok {
		return nil, fmt.Errorf("no page for %s", url)
	}
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	f.done = append(f.done, url)
	f.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}
	return []byte(p.body), nil
}

// fakeParser reads pages of the form "w1,w2,...|latest".
type fakeParser struct{}

func (fakeParser) Parse(_ models.AssetSpec, page []byte) (models.Extraction, error) {
	week, latest, ok := strings.Cut(string(page), "|")
	if !ok {
		return models.Extraction{}, errors.New("no separator")
	}
	var w []string
	if week != "" {
		w = strings.Split(week, ",")
	}
	return models.Extraction{Week: w, Latest: latest}, nil
}

type fakeRecorder struct {
	mu    sync.Mutex
	calls int
	errs  int
}

func (r *fakeRecorder) ObserveFetch(_ string, _ time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if err != nil {
		r.errs++
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func spec(name string) models.AssetSpec {
	return models.AssetSpec{Name: name, SourceURL: "https://example.com/" + name, Type: models.AssetTypeOther}
}

func TestBuildPreservesRegistryOrder(t *testing.T) {
	// Earlier assets finish later.
	fetcher := &fakeFetcher{pages: map[string]page{
		"https://example.com/A": {body: "1,2,3,4,5|6", delay: 60 * time.Millisecond},
		"https://example.com/B": {body: "10,20,30,40,50|60", delay: 40 * time.Millisecond},
		"https://example.com/C": {body: "2.00%,2.01%,2.02%,2.03%,2.04%|2.05%", delay: 20 * time.Millisecond},
		"https://example.com/D": {body: "7,8,9,10,11|12"},
	}}
	rec := &fakeRecorder{}
	b := NewBuilder(fetcher, fakeParser{}, Options{Concurrency: 4, Logger: quietLogger(), Recorder: rec})

	tables, failures := b.Build(context.Background(), []models.AssetSpec{spec("A"), spec("B"), spec("C"), spec("D")})
	require.Empty(t, failures)

	assert.NotEqual(t, []string{
		"https://example.com/A", "https://example.com/B", "https://example.com/C", "https://example.com/D",
	}, fetcher.done, "fetches should complete out of order")

	want := []string{"A", "B", "C", "D"}
	assert.Equal(t, want, tables.Current.Assets())
	assert.Equal(t, want, tables.Previous.Assets())
	assert.True(t, tables.Current.SameAssets(tables.Previous))

	row, ok := tables.Current.Row("C")
	require.True(t, ok)
	assert.Equal(t, []float64{2.00, 2.01, 2.02, 2.03, 2.04, 2.05}, row)

	prev, _ := tables.Previous.Row("C")
	assert.Equal(t, []float64{2.00, 2.01, 2.02, 2.03, 2.04}, prev)

	assert.Equal(t, 4, rec.calls)
	assert.Equal(t, 0, rec.errs)
}

func TestBuildIsolatesFailures(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]page{
		"https://example.com/A":   {body: "1,2|3"},
		"https://example.com/Net": {err: errors.New("connection refused")},
		"https://example.com/Ext": {body: "no separator here"},
		"https://example.com/Fmt": {body: "1,abc|3"},
		"https://example.com/Z":   {body: "4,5|6"},
	}}
	rec := &fakeRecorder{}
	b := NewBuilder(fetcher, fakeParser{}, Options{Concurrency: 2, Logger: quietLogger(), Recorder: rec})

	assets := []models.AssetSpec{spec("A"), spec("Net"), spec("Ext"), spec("Fmt"), spec("Z")}
	tables, failures := b.Build(context.Background(), assets)

	assert.Equal(t, []string{"A", "Z"}, tables.Current.Assets())
	assert.Equal(t, []string{"A", "Z"}, tables.Previous.Assets())

	require.Len(t, failures, 3)
	assert.Equal(t, "Net", failures[0].Asset)
	assert.True(t, errors.Is(failures[0], models.ErrNetwork))
	assert.Equal(t, "Ext", failures[1].Asset)
	assert.True(t, errors.Is(failures[1], models.ErrExtraction))
	assert.Equal(t, "Fmt", failures[2].Asset)
	assert.True(t, errors.Is(failures[2], models.ErrFormat))

	assert.Equal(t, 5, rec.calls)
	assert.Equal(t, 1, rec.errs)
}

func TestBuildEmptyWeekIsExtractionError(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]page{"https://example.com/A": {body: "|3"}}}
	b := NewBuilder(fetcher, fakeParser{}, Options{Logger: quietLogger()})

	tables, failures := b.Build(context.Background(), []models.AssetSpec{spec("A")})
	require.Len(t, failures, 1)
	assert.True(t, errors.Is(failures[0], models.ErrExtraction))
	assert.Equal(t, 0, tables.Current.Len())
}

func TestBuildFetchTimeout(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]page{
		"https://example.com/Slow": {body: "1|2", delay: 5 * time.Second},
		"https://example.com/Fast": {body: "1|2"},
	}}
	b := NewBuilder(fetcher, fakeParser{}, Options{Concurrency: 2, FetchTimeout: 30 * time.Millisecond, Logger: quietLogger()})

	start := time.Now()
	tables, failures := b.Build(context.Background(), []models.AssetSpec{spec("Slow"), spec("Fast")})
	assert.Less(t, time.Since(start), 2*time.Second)

	require.Len(t, failures, 1)
	assert.Equal(t, "Slow", failures[0].Asset)
	assert.True(t, errors.Is(failures[0], models.ErrNetwork))
	assert.True(t, errors.Is(failures[0], context.DeadlineExceeded))
	assert.Equal(t, []string{"Fast"}, tables.Current.Assets())
}

func TestBuildDuplicateAsset(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]page{"https://example.com/A": {body: "1|2"}}}
	b := NewBuilder(fetcher, fakeParser{}, Options{Logger: quietLogger()})

	tables, failures := b.Build(context.Background(), []models.AssetSpec{spec("A"), spec("A")})
	require.Len(t, failures, 1)
	assert.True(t, errors.Is(failures[0], models.ErrConfig))
	assert.Equal(t, []string{"A"}, tables.Current.Assets())
}

func TestBuildSequential(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]page{
		"https://example.com/A": {body: "1|2", delay: 10 * time.Millisecond},
		"https://example.com/B": {body: "3|4"},
	}}
	b := NewBuilder(fetcher, fakeParser{}, Options{Concurrency: 1, Logger: quietLogger()})

	_, failures := b.Build(context.Background(), []models.AssetSpec{spec("A"), spec("B")})
	require.Empty(t, failures)
	assert.Equal(t, []string{"https://example.com/A", "https://example.com/B"}, fetcher.done)
}
