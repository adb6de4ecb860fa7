// Package infra provides shared infrastructure used across the application:
// the page fetcher, structured logging and run metrics.
package infra

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"
)

// maxErrorBody bounds the body excerpt kept on an HTTPError.
const maxErrorBody = 1024

// HTTPError wraps a non-2xx response with its status code.
type HTTPError struct {
	URL        string
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("GET %s: HTTP %s: %s", e.URL, e.Status, e.Body)
}

// FetcherOptions configures a Fetcher.
type FetcherOptions struct {
	UserAgent string
	Timeout   time.Duration
	Logger    *slog.Logger
}

// Fetcher performs plain HTTP GETs with a browser-like User-Agent.
// No retries, no caching.
type Fetcher struct {
	client *resty.Client
}

// NewFetcher creates a Fetcher.
func NewFetcher(opts FetcherOptions) *Fetcher {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	client := resty.New().
		SetHeader("User-Agent", opts.UserAgent).
		SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8").
		SetHeader("Accept-Language", "en-US,en;q=0.9").
		SetRetryCount(0).
		SetLogger(restyLogger{logger})
	if opts.Timeout > 0 {
		client.SetTimeout(opts.Timeout)
	}
	return &Fetcher{client: client}
}

// Fetch returns the raw body of url. Transport failures, timeouts and
// non-2xx responses are returned as errors; the latter as *HTTPError.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	resp, err := f.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}
	if !resp.IsSuccess() {
		body := resp.Body()
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return nil, &HTTPError{
			URL:        url,
			StatusCode: resp.StatusCode(),
			Status:     resp.Status(),
			Body:       string(body),
		}
	}
	return resp.Body(), nil
}

// restyLogger routes resty's internal messages to slog.
type restyLogger struct {
	l *slog.Logger
}

func (r restyLogger) Errorf(format string, v ...interface{}) {
	r.l.Error(fmt.Sprintf(format, v...), "component", "resty")
}

func (r restyLogger) Warnf(format string, v ...interface{}) {
	r.l.Warn(fmt.Sprintf(format, v...), "component", "resty")
}

func (r restyLogger) Debugf(format string, v ...interface{}) {
	r.l.Debug(fmt.Sprintf(format, v...), "component", "resty")
}
