// Package models defines the core data structures shared by the source
// adapters, the analytics engine, and the HTTP API.
package models

// DateLayout is the calendar-day format used on every series axis.
const DateLayout = "2006-01-02"

// Observation is one calendar day of prices for some subset of the requested
// assets. A symbol missing from Prices means no quote for that asset on that
// date (non-overlapping trading calendars); forward-fill happens downstream.
type Observation struct {
	Date   string             `json:"date"` // "YYYY-MM-DD"
	Prices map[string]float64 `json:"prices"`
}

// RawSeries is a date-ascending sequence of observations with unique dates,
// as produced by a source adapter.
type RawSeries []Observation

// MonthlyMatrix holds per-month percentage returns, one row per asset and
// one column per calendar month, months in chronological order.
type MonthlyMatrix struct {
	Months  []string    `json:"months"` // "YYYY-MM"
	Assets  []string    `json:"assets"`
	Returns [][]float64 `json:"returns"` // Returns[assetIdx][monthIdx], percent
}

// Processed is the read-only view the renderers consume. All per-asset
// series share the Dates axis and its length. ZScores entries are nil during
// the warm-up run so they serialize as JSON null.
type Processed struct {
	Dates          []string             `json:"dates"`
	Rebased        map[string][]float64 `json:"rebased"`  // first value 100
	CumRet         map[string][]float64 `json:"cum_ret"`  // first value 0
	Relative       map[string][]float64 `json:"relative"` // vs. base asset
	MonthlyReturns *MonthlyMatrix       `json:"monthly_returns"`
	ZScores        map[string][]*float64 `json:"z_scores"`
	Ranks          []map[string]int     `json:"ranks"` // per date, 1-based, descending by rebased
	BaseAsset      string               `json:"base_asset"`
}
