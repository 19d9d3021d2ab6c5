package analytics

import (
	"math"
	"sort"

	"github.com/rsviz/rsviz/pkg/models"
)

// rebase scales a price series so its first value equals 100.
func rebase(prices []float64) []float64 {
	out := make([]float64, len(prices))
	first := prices[0]
	for i, p := range prices {
		out[i] = p / first * 100
	}
	return out
}

// cumulativeReturn computes the fractional return of each point versus the
// series' first value. The first value is 0.
func cumulativeReturn(prices []float64) []float64 {
	out := make([]float64, len(prices))
	first := prices[0]
	for i, p := range prices {
		out[i] = p/first - 1
	}
	return out
}

// relativeStrength is the pointwise difference of an asset's cumulative
// return against the base asset's. The base asset's own row is uniformly
// zero.
func relativeStrength(cumRet, baseCumRet []float64) []float64 {
	out := make([]float64, len(cumRet))
	for i := range cumRet {
		out[i] = cumRet[i] - baseCumRet[i]
	}
	return out
}

// monthlyReturns partitions the clean series by calendar month and computes
// each month's percentage return per asset, from the first to the last
// observation encountered in that month. Months appear in order of first
// appearance, which on a date-ascending series is chronological.
func monthlyReturns(clean models.RawSeries, assets []string) *models.MonthlyMatrix {
	type span struct {
		first map[string]float64
		last  map[string]float64
	}

	var months []string
	spans := make(map[string]*span)
	for _, obs := range clean {
		month := obs.Date[:7] // "YYYY-MM"
		sp, ok := spans[month]
		if !ok {
			sp = &span{first: obs.Prices}
			spans[month] = sp
			months = append(months, month)
		}
		sp.last = obs.Prices
	}

	matrix := &models.MonthlyMatrix{
		Months:  months,
		Assets:  assets,
		Returns: make([][]float64, len(assets)),
	}
	for ai, sym := range assets {
		row := make([]float64, len(months))
		for mi, month := range months {
			sp := spans[month]
			start := sp.first[sym]
			end := sp.last[sym]
			row[mi] = (end - start) / start * 100
		}
		matrix.Returns[ai] = row
	}
	return matrix
}

// rollingZScore computes each point's deviation from the trailing window's
// simple mean, scaled by the window's population standard deviation. Values
// before index 2*window are nil (warm-up). A flat window has zero deviation;
// the divisor falls back to 1 so the result is a plain 0 rather than a NaN.
func rollingZScore(prices []float64, window int) []*float64 {
	out := make([]*float64, len(prices))
	warmup := 2 * window
	for i := warmup; i < len(prices); i++ {
		slice := prices[i-window+1 : i+1]

		var sum float64
		for _, p := range slice {
			sum += p
		}
		mean := sum / float64(window)

		var variance float64
		for _, p := range slice {
			d := p - mean
			variance += d * d
		}
		stddev := math.Sqrt(variance / float64(window))
		if stddev == 0 {
			stddev = 1
		}

		z := (prices[i] - mean) / stddev
		out[i] = &z
	}
	return out
}

// rankByRebased assigns, per date, a 1-based rank to every asset by its
// rebased value, highest first. The sort is stable, so exactly equal values
// keep the requested-asset order; there is no further tie-break.
func rankByRebased(rebased map[string][]float64, assets []string, n int) []map[string]int {
	ranks := make([]map[string]int, n)
	order := make([]string, len(assets))
	for t := 0; t < n; t++ {
		copy(order, assets)
		sort.SliceStable(order, func(i, j int) bool {
			return rebased[order[i]][t] > rebased[order[j]][t]
		})
		byAsset := make(map[string]int, len(assets))
		for pos, sym := range order {
			byAsset[sym] = pos + 1
		}
		ranks[t] = byAsset
	}
	return ranks
}
