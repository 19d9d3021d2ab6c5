// Package source fetches raw daily price observations from interchangeable
// data sources. It defines a closed set of source kinds (synthetic, fiat,
// crypto), normalizes each provider's payload into a common date-ordered
// observation sequence, and isolates each provider's parsing and error rules.
package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/rsviz/rsviz/internal/config"
	"github.com/rsviz/rsviz/pkg/models"
)

// Kind identifies one of the supported data sources.
type Kind string

const (
	KindSynthetic Kind = "synthetic"
	KindFiat      Kind = "fiat"
	KindCrypto    Kind = "crypto"
)

// Kinds returns the supported source kinds in display order.
func Kinds() []Kind {
	return []Kind{KindSynthetic, KindFiat, KindCrypto}
}

// ParseKind resolves a user-supplied source identifier. It does not
// validate: unknown identifiers surface later as ErrUnsupportedSource.
func ParseKind(s string) Kind {
	return Kind(strings.ToLower(strings.TrimSpace(s)))
}

// --- Sentinel and typed errors ---

// ErrUnsupportedSource is returned for an unknown source kind, before any
// network I/O is attempted.
type ErrUnsupportedSource struct {
	Kind Kind
}

func (e *ErrUnsupportedSource) Error() string {
	return fmt.Sprintf("unsupported source %q", string(e.Kind))
}

// ErrInsufficientAssets is returned when fewer than two assets are
// requested. Relative-strength views need a base asset plus at least one
// comparison asset, so the request is rejected before any fetch.
type ErrInsufficientAssets struct {
	Count int
}

func (e *ErrInsufficientAssets) Error() string {
	return fmt.Sprintf("need at least 2 assets, got %d", e.Count)
}

// ErrProvider wraps a fatal upstream failure from a provider whose errors
// abort the whole request (the fiat rate endpoint).
type ErrProvider struct {
	Source Kind
	Err    error
}

func (e *ErrProvider) Error() string {
	return fmt.Sprintf("source %s: %v", string(e.Source), e.Err)
}

func (e *ErrProvider) Unwrap() error { return e.Err }

// ErrHTTP wraps a non-success HTTP response with status code.
type ErrHTTP struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *ErrHTTP) Error() string {
	return fmt.Sprintf("HTTP %d %s: %s", e.StatusCode, e.Status, e.Body)
}

// --- Adapter ---

// fetcher is the capability every source kind implements.
type fetcher interface {
	fetch(ctx context.Context, assets []string, lookbackDays int) (models.RawSeries, error)
}

// Adapter routes fetch requests to the configured source implementations.
type Adapter struct {
	sources map[Kind]fetcher
}

// NewAdapter creates an adapter with all source kinds wired from config.
func NewAdapter(cfg config.SourcesConfig) *Adapter {
	client := &http.Client{
		Timeout: time.Duration(cfg.RequestTimeoutSec) * time.Second,
	}
	return &Adapter{
		sources: map[Kind]fetcher{
			KindSynthetic: newSynthetic(),
			KindFiat:      newFiat(cfg.FiatBaseURL, client),
			KindCrypto:    newCrypto(cfg.CryptoBaseURL, cfg.CryptoQuoteSuffix, client),
		},
	}
}

// Fetch retrieves a raw series for the requested assets over the lookback
// window. Validation happens before any I/O: an unknown kind fails with
// ErrUnsupportedSource and fewer than two assets with ErrInsufficientAssets.
func (a *Adapter) Fetch(ctx context.Context, kind Kind, assets []string, lookbackDays int) (models.RawSeries, error) {
	if len(assets) < 2 {
		return nil, &ErrInsufficientAssets{Count: len(assets)}
	}
	src, ok := a.sources[kind]
	if !ok {
		return nil, &ErrUnsupportedSource{Kind: kind}
	}

	normalized := make([]string, len(assets))
	for i, sym := range assets {
		normalized[i] = strings.ToUpper(strings.TrimSpace(sym))
	}

	return src.fetch(ctx, normalized, lookbackDays)
}

// --- Shared HTTP helpers ---

// DefaultUserAgent is the user agent string used for HTTP requests.
const DefaultUserAgent = "rsviz/1.0 (+https://github.com/rsviz/rsviz)"

// doGet performs a GET request with the given URL, returning the response body.
// The caller is responsible for closing the returned ReadCloser.
func doGet(ctx context.Context, client *http.Client, url string) (io.ReadCloser, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", DefaultUserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("HTTP GET %s: %w", url, err)
	}

	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, resp.StatusCode, &ErrHTTP{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(body),
		}
	}

	return resp.Body, resp.StatusCode, nil
}

// seriesFromTable converts a date-keyed price table into a date-ascending
// RawSeries. Dates without any price are dropped.
func seriesFromTable(table map[string]map[string]float64) models.RawSeries {
	dates := make([]string, 0, len(table))
	for d, prices := range table {
		if len(prices) == 0 {
			continue
		}
		dates = append(dates, d)
	}
	sort.Strings(dates)

	series := make(models.RawSeries, 0, len(dates))
	for _, d := range dates {
		series = append(series, models.Observation{Date: d, Prices: table[d]})
	}
	return series
}

// lookbackWindow returns [today-lookbackDays, today] as calendar days in UTC.
func lookbackWindow(lookbackDays int) (time.Time, time.Time) {
	end := time.Now().UTC().Truncate(24 * time.Hour)
	start := end.AddDate(0, 0, -lookbackDays)
	return start, end
}
