package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rsviz/rsviz/pkg/models"
)

// crypto fetches daily candles from a Binance-style klines endpoint, one
// request per asset. Requests run concurrently; a failed request yields an
// empty series for that asset instead of aborting the whole fetch.
type crypto struct {
	baseURL     string
	quoteSuffix string
	client      *http.Client
	limiter     *RateLimiter
}

func newCrypto(baseURL, quoteSuffix string, client *http.Client) *crypto {
	return &crypto{
		baseURL:     strings.TrimRight(baseURL, "/"),
		quoteSuffix: strings.ToUpper(quoteSuffix),
		client:      client,
		limiter:     NewRateLimiter(10, time.Second),
	}
}

func (c *crypto) fetch(ctx context.Context, assets []string, lookbackDays int) (models.RawSeries, error) {
	start, end := lookbackWindow(lookbackDays)
	startMs := start.UnixMilli()
	endMs := end.Add(24*time.Hour - time.Millisecond).UnixMilli()

	var mu sync.Mutex
	table := make(map[string]map[string]float64)

	g, gctx := errgroup.WithContext(ctx)
	for _, sym := range assets {
		sym := sym
		g.Go(func() error {
			closes, err := c.fetchCloses(gctx, sym, startMs, endMs)
			if err != nil {
				// Partial-failure tolerance: this asset's series stays
				// empty and the remaining assets are unaffected.
				log.Printf("crypto: %s: %v", sym, err)
				return nil
			}
			mu.Lock()
			for date, price := range closes {
				if table[date] == nil {
					table[date] = make(map[string]float64, len(assets))
				}
				table[date][sym] = price
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return seriesFromTable(table), nil
}

// fetchCloses returns close prices keyed by the UTC calendar date of each
// candle's open timestamp.
func (c *crypto) fetchCloses(ctx context.Context, sym string, startMs, endMs int64) (map[string]float64, error) {
	pair := sym
	if !strings.HasSuffix(pair, c.quoteSuffix) {
		pair += c.quoteSuffix
	}

	q := url.Values{}
	q.Set("symbol", pair)
	q.Set("interval", "1d")
	q.Set("startTime", strconv.FormatInt(startMs, 10))
	q.Set("endTime", strconv.FormatInt(endMs, 10))
	reqURL := fmt.Sprintf("%s/api/v3/klines?%s", c.baseURL, q.Encode())

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	body, _, err := doGet(ctx, c.client, reqURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read klines response: %w", err)
	}

	// Candles arrive as arrays: [openTimeMillis, open, high, low, close, ...]
	// with the price fields encoded as strings.
	var candles [][]any
	if err := json.Unmarshal(data, &candles); err != nil {
		return nil, fmt.Errorf("parse klines JSON: %w", err)
	}

	closes := make(map[string]float64, len(candles))
	for _, k := range candles {
		if len(k) < 5 {
			continue
		}
		openMs, err := candleInt(k[0])
		if err != nil {
			continue
		}
		closePrice, err := candleFloat(k[4])
		if err != nil {
			continue
		}
		date := time.UnixMilli(openMs).UTC().Format(models.DateLayout)
		closes[date] = closePrice
	}
	return closes, nil
}

// candleInt reads a kline timestamp field, which decodes as float64.
func candleInt(v any) (int64, error) {
	switch t := v.(type) {
	case float64:
		return int64(t), nil
	case string:
		return strconv.ParseInt(t, 10, 64)
	default:
		return 0, fmt.Errorf("unexpected timestamp type %T", v)
	}
}

// candleFloat reads a kline price field, which may be a JSON number or a
// numeric string depending on the endpoint.
func candleFloat(v any) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case string:
		return strconv.ParseFloat(t, 64)
	default:
		return 0, fmt.Errorf("unexpected price type %T", v)
	}
}
