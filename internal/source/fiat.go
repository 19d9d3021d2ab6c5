package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rsviz/rsviz/pkg/models"
)

// fiat fetches daily exchange rates from a frankfurter-style range endpoint.
// One request covers the whole window; a non-success response is fatal for
// the request.
type fiat struct {
	baseURL string
	client  *http.Client
}

func newFiat(baseURL string, client *http.Client) *fiat {
	return &fiat{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

// fiatRangeResponse is the upstream payload shape:
//
//	{ "rates": { "2023-01-01": { "EUR": 0.9, ... }, ... } }
type fiatRangeResponse struct {
	Rates map[string]map[string]float64 `json:"rates"`
}

func (f *fiat) fetch(ctx context.Context, assets []string, lookbackDays int) (models.RawSeries, error) {
	start, end := lookbackWindow(lookbackDays)

	// The first requested asset doubles as the reference currency: the
	// upstream quotes every other symbol against it.
	reference := assets[0]
	symbols := make([]string, 0, len(assets)-1)
	for _, sym := range assets[1:] {
		symbols = append(symbols, sym)
	}

	q := url.Values{}
	q.Set("base", reference)
	q.Set("symbols", strings.Join(symbols, ","))
	reqURL := fmt.Sprintf("%s/%s..%s?%s",
		f.baseURL,
		start.Format(models.DateLayout),
		end.Format(models.DateLayout),
		q.Encode(),
	)

	body, _, err := doGet(ctx, f.client, reqURL)
	if err != nil {
		return nil, &ErrProvider{Source: KindFiat, Err: err}
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, &ErrProvider{Source: KindFiat, Err: fmt.Errorf("read rates response: %w", err)}
	}

	var resp fiatRangeResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, &ErrProvider{Source: KindFiat, Err: fmt.Errorf("parse rates JSON: %w", err)}
	}

	// The upstream convention is "1 reference-unit = X target-currency";
	// the pipeline wants the price of the target in reference-units, so
	// every non-reference rate is inverted. The reference itself is 1.0 on
	// every date. A symbol absent from a date's rate set stays absent and
	// is forward-filled downstream.
	table := make(map[string]map[string]float64, len(resp.Rates))
	for date, rates := range resp.Rates {
		prices := map[string]float64{reference: 1.0}
		for _, sym := range assets[1:] {
			if rate, ok := rates[sym]; ok {
				prices[sym] = 1 / rate
			}
		}
		table[date] = prices
	}

	return seriesFromTable(table), nil
}
