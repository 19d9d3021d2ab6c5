// Package analytics turns a raw observation series into the derived views
// the chart renderers consume: rebased index, cumulative return, relative
// strength versus a base asset, monthly return matrix, rolling z-score, and
// per-date rank ordering.
//
// Processing is a pure function of its inputs: no I/O, no shared state, and
// no numerical clamping — degenerate inputs (zero start price, flat rolling
// window) produce well-defined degenerate floats that propagate unchanged.
package analytics

import (
	"errors"

	"github.com/rsviz/rsviz/pkg/models"
)

// ErrEmptyResult is returned when there is no data to process: the raw
// series has zero observations, or forward-filling dropped every date.
var ErrEmptyResult = errors.New("no data")

// zscoreWindow is the rolling window length for z-score computation. The
// warm-up guard is deliberately twice the window: the first non-nil value
// appears at index 2*window even though the statistics only need window
// prior points. Changing that is a product decision, not a bug fix.
const zscoreWindow = 20

// Process derives the full processed model from a raw series. assets is the
// requested symbol list; assets[0] is the base asset for relative views.
// Only requested assets are computed, whatever else the raw series carries.
func Process(raw models.RawSeries, assets []string) (*models.Processed, error) {
	if len(raw) == 0 {
		return nil, ErrEmptyResult
	}

	clean := ForwardFill(raw, assets)
	if len(clean) == 0 {
		return nil, ErrEmptyResult
	}

	base := assets[0]
	dates := make([]string, len(clean))
	prices := make(map[string][]float64, len(assets))
	for i, obs := range clean {
		dates[i] = obs.Date
	}
	for _, sym := range assets {
		col := make([]float64, len(clean))
		for i, obs := range clean {
			col[i] = obs.Prices[sym]
		}
		prices[sym] = col
	}

	p := &models.Processed{
		Dates:     dates,
		Rebased:   make(map[string][]float64, len(assets)),
		CumRet:    make(map[string][]float64, len(assets)),
		Relative:  make(map[string][]float64, len(assets)),
		ZScores:   make(map[string][]*float64, len(assets)),
		BaseAsset: base,
	}

	for _, sym := range assets {
		p.Rebased[sym] = rebase(prices[sym])
		p.CumRet[sym] = cumulativeReturn(prices[sym])
		p.ZScores[sym] = rollingZScore(prices[sym], zscoreWindow)
	}
	for _, sym := range assets {
		p.Relative[sym] = relativeStrength(p.CumRet[sym], p.CumRet[base])
	}

	p.MonthlyReturns = monthlyReturns(clean, assets)
	p.Ranks = rankByRebased(p.Rebased, assets, len(clean))

	return p, nil
}

// ForwardFill replaces each absent price with the asset's last known value,
// scanning dates in order. Dates where some asset still has no price (the
// leading run before that asset's first observation) are dropped entirely,
// so every asset is priced on every date of the result. Running ForwardFill
// on an already-filled series returns an identical series.
func ForwardFill(raw models.RawSeries, assets []string) models.RawSeries {
	last := make(map[string]float64, len(assets))
	seen := make(map[string]bool, len(assets))

	clean := make(models.RawSeries, 0, len(raw))
	for _, obs := range raw {
		filled := make(map[string]float64, len(assets))
		complete := true
		for _, sym := range assets {
			if price, ok := obs.Prices[sym]; ok {
				last[sym] = price
				seen[sym] = true
			}
			if !seen[sym] {
				complete = false
				continue
			}
			filled[sym] = last[sym]
		}
		if !complete {
			continue
		}
		clean = append(clean, models.Observation{Date: obs.Date, Prices: filled})
	}
	return clean
}
