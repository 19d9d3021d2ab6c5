package analytics

import (
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/rsviz/rsviz/pkg/models"
)

// walkSeries generates a gap-free series of n daily observations starting at
// 2023-01-01, one deterministic drifting walk per asset.
func walkSeries(n int, assets ...string) models.RawSeries {
	series := make(models.RawSeries, 0, n)
	for i := 0; i < n; i++ {
		prices := make(map[string]float64, len(assets))
		for ai, sym := range assets {
			base := 100 + float64(ai)*50
			prices[sym] = base + float64(i)*(1+float64(ai)*0.5)
		}
		series = append(series, models.Observation{Date: dateAt(i), Prices: prices})
	}
	return series
}

// dateAt maps a day offset to a "YYYY-MM-DD" string starting at 2023-01-01.
func dateAt(i int) string {
	d := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i)
	return d.Format(models.DateLayout)
}

func TestProcessEmptySeries(t *testing.T) {
	_, err := Process(models.RawSeries{}, []string{"USD", "EUR"})
	if err != ErrEmptyResult {
		t.Fatalf("expected ErrEmptyResult, got %v", err)
	}
}

func TestRebasedAndCumRetFirstValues(t *testing.T) {
	raw := walkSeries(10, "USD", "EUR", "GBP")
	p, err := Process(raw, []string{"USD", "EUR", "GBP"})
	if err != nil {
		t.Fatalf("process: %v", err)
	}

	for _, sym := range []string{"USD", "EUR", "GBP"} {
		if got := p.Rebased[sym][0]; got != 100 {
			t.Errorf("%s: rebased[0] = %v, want 100", sym, got)
		}
		if got := p.CumRet[sym][0]; got != 0 {
			t.Errorf("%s: cumRet[0] = %v, want 0", sym, got)
		}
		if len(p.Rebased[sym]) != len(p.Dates) {
			t.Errorf("%s: rebased length %d != dates length %d", sym, len(p.Rebased[sym]), len(p.Dates))
		}
	}
}

func TestRelativeBaseIsZero(t *testing.T) {
	raw := walkSeries(15, "USD", "EUR")
	p, err := Process(raw, []string{"USD", "EUR"})
	if err != nil {
		t.Fatalf("process: %v", err)
	}

	for t0, v := range p.Relative["USD"] {
		if v != 0 {
			t.Fatalf("relative[base][%d] = %v, want 0", t0, v)
		}
	}
	// The non-base asset's relative series is cumRet difference.
	for i := range p.Dates {
		want := p.CumRet["EUR"][i] - p.CumRet["USD"][i]
		if got := p.Relative["EUR"][i]; got != want {
			t.Fatalf("relative[EUR][%d] = %v, want %v", i, got, want)
		}
	}
}

func TestForwardFillGaps(t *testing.T) {
	raw := models.RawSeries{
		{Date: "2023-01-01", Prices: map[string]float64{"USD": 1}},
		{Date: "2023-01-02", Prices: map[string]float64{"USD": 1, "EUR": 1.1}},
		{Date: "2023-01-03", Prices: map[string]float64{"USD": 1.05}},
		{Date: "2023-01-04", Prices: map[string]float64{"EUR": 1.2}},
	}
	assets := []string{"USD", "EUR"}

	clean := ForwardFill(raw, assets)

	// 2023-01-01 has a leading gap for EUR and is dropped entirely.
	if len(clean) != 3 {
		t.Fatalf("expected 3 clean observations, got %d", len(clean))
	}
	if clean[0].Date != "2023-01-02" {
		t.Errorf("first clean date = %s, want 2023-01-02", clean[0].Date)
	}
	// EUR carried forward on the 3rd, USD carried forward on the 4th.
	if got := clean[1].Prices["EUR"]; got != 1.1 {
		t.Errorf("filled EUR on 01-03 = %v, want 1.1", got)
	}
	if got := clean[2].Prices["USD"]; got != 1.05 {
		t.Errorf("filled USD on 01-04 = %v, want 1.05", got)
	}
}

func TestForwardFillIdempotent(t *testing.T) {
	raw := models.RawSeries{
		{Date: "2023-01-01", Prices: map[string]float64{"USD": 1, "EUR": 1.1}},
		{Date: "2023-01-02", Prices: map[string]float64{"USD": 1.02}},
		{Date: "2023-01-03", Prices: map[string]float64{"EUR": 1.15}},
	}
	assets := []string{"USD", "EUR"}

	once := ForwardFill(raw, assets)
	twice := ForwardFill(once, assets)

	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("forward-fill not idempotent:\nonce  = %+v\ntwice = %+v", once, twice)
	}
}

func TestForwardFillNeverObservedAsset(t *testing.T) {
	// An asset absent at every date makes every date a leading gap.
	raw := models.RawSeries{
		{Date: "2023-01-01", Prices: map[string]float64{"USD": 1}},
		{Date: "2023-01-02", Prices: map[string]float64{"USD": 1.01}},
	}
	if clean := ForwardFill(raw, []string{"USD", "EUR"}); len(clean) != 0 {
		t.Fatalf("expected empty clean series, got %d observations", len(clean))
	}
	if _, err := Process(raw, []string{"USD", "EUR"}); err != ErrEmptyResult {
		t.Fatalf("expected ErrEmptyResult, got %v", err)
	}
}

func TestRankInvariant(t *testing.T) {
	assets := []string{"USD", "EUR", "GBP", "JPY"}
	raw := walkSeries(12, assets...)
	p, err := Process(raw, assets)
	if err != nil {
		t.Fatalf("process: %v", err)
	}

	for ti, byAsset := range p.Ranks {
		seen := make(map[int]bool, len(assets))
		for _, sym := range assets {
			rank, ok := byAsset[sym]
			if !ok {
				t.Fatalf("date %d: no rank for %s", ti, sym)
			}
			if rank < 1 || rank > len(assets) || seen[rank] {
				t.Fatalf("date %d: invalid or duplicate rank %d for %s", ti, rank, sym)
			}
			seen[rank] = true
		}
	}
}

func TestRankOrderingAndTies(t *testing.T) {
	raw := models.RawSeries{
		{Date: "2023-01-01", Prices: map[string]float64{"A": 100, "B": 100, "C": 100}},
		{Date: "2023-01-02", Prices: map[string]float64{"A": 100, "B": 120, "C": 110}},
	}
	assets := []string{"A", "B", "C"}
	p, err := Process(raw, assets)
	if err != nil {
		t.Fatalf("process: %v", err)
	}

	// All rebased values equal on day one: ties keep requested order.
	day0 := p.Ranks[0]
	if day0["A"] != 1 || day0["B"] != 2 || day0["C"] != 3 {
		t.Errorf("tied ranks should follow request order, got %v", day0)
	}

	day1 := p.Ranks[1]
	if day1["B"] != 1 || day1["C"] != 2 || day1["A"] != 3 {
		t.Errorf("day 2 ranks = %v, want B=1 C=2 A=3", day1)
	}
}

func TestMonthlyReturnMatrix(t *testing.T) {
	raw := models.RawSeries{
		{Date: "2023-01-02", Prices: map[string]float64{"USD": 100, "EUR": 200}},
		{Date: "2023-01-15", Prices: map[string]float64{"USD": 104, "EUR": 190}},
		{Date: "2023-01-31", Prices: map[string]float64{"USD": 110, "EUR": 180}},
		{Date: "2023-02-01", Prices: map[string]float64{"USD": 110, "EUR": 180}},
		{Date: "2023-02-28", Prices: map[string]float64{"USD": 99, "EUR": 189}},
	}
	assets := []string{"USD", "EUR"}
	p, err := Process(raw, assets)
	if err != nil {
		t.Fatalf("process: %v", err)
	}

	m := p.MonthlyReturns
	if len(m.Returns) != len(assets) {
		t.Fatalf("expected %d rows, got %d", len(assets), len(m.Returns))
	}
	wantMonths := []string{"2023-01", "2023-02"}
	if !reflect.DeepEqual(m.Months, wantMonths) {
		t.Fatalf("months = %v, want %v", m.Months, wantMonths)
	}
	for ai := range m.Returns {
		if len(m.Returns[ai]) != len(wantMonths) {
			t.Fatalf("row %d has %d columns, want %d", ai, len(m.Returns[ai]), len(wantMonths))
		}
	}

	// January: USD 100 → 110 = +10%, EUR 200 → 180 = -10%.
	if got := m.Returns[0][0]; math.Abs(got-10) > 1e-9 {
		t.Errorf("USD January return = %v, want 10", got)
	}
	if got := m.Returns[1][0]; math.Abs(got-(-10)) > 1e-9 {
		t.Errorf("EUR January return = %v, want -10", got)
	}
	// February: USD 110 → 99 = -10%, EUR 180 → 189 = +5%.
	if got := m.Returns[0][1]; math.Abs(got-(-10)) > 1e-9 {
		t.Errorf("USD February return = %v, want -10", got)
	}
	if got := m.Returns[1][1]; math.Abs(got-5) > 1e-9 {
		t.Errorf("EUR February return = %v, want 5", got)
	}
}

func TestZScoreWarmup(t *testing.T) {
	assets := []string{"USD", "EUR"}
	raw := walkSeries(50, assets...)
	p, err := Process(raw, assets)
	if err != nil {
		t.Fatalf("process: %v", err)
	}

	for _, sym := range assets {
		zs := p.ZScores[sym]
		for i := 0; i < 2*zscoreWindow; i++ {
			if zs[i] != nil {
				t.Fatalf("%s: z-score[%d] = %v, want nil during warm-up", sym, i, *zs[i])
			}
		}
		if zs[2*zscoreWindow] == nil {
			t.Fatalf("%s: z-score[%d] is nil, want first non-nil value", sym, 2*zscoreWindow)
		}
	}
}

func TestZScoreFlatWindow(t *testing.T) {
	// A constant series has zero stddev; the divisor falls back to 1 so the
	// z-score is exactly 0, not NaN.
	n := 45
	raw := make(models.RawSeries, 0, n)
	for i := 0; i < n; i++ {
		raw = append(raw, models.Observation{
			Date:   dateAt(i),
			Prices: map[string]float64{"USD": 100, "EUR": 50},
		})
	}
	p, err := Process(raw, []string{"USD", "EUR"})
	if err != nil {
		t.Fatalf("process: %v", err)
	}

	z := p.ZScores["USD"][2*zscoreWindow]
	if z == nil {
		t.Fatal("expected non-nil z-score past warm-up")
	}
	if *z != 0 {
		t.Errorf("flat-window z-score = %v, want 0", *z)
	}
}

func TestDegenerateZeroStartPrice(t *testing.T) {
	// Division by a zero start price is defined-but-degenerate: the
	// resulting NaN/Inf values propagate unchanged, nothing clamps them.
	raw := models.RawSeries{
		{Date: "2023-01-01", Prices: map[string]float64{"USD": 0, "EUR": 1}},
		{Date: "2023-01-02", Prices: map[string]float64{"USD": 2, "EUR": 1.1}},
	}
	p, err := Process(raw, []string{"USD", "EUR"})
	if err != nil {
		t.Fatalf("process: %v", err)
	}

	if !math.IsNaN(p.Rebased["USD"][0]) {
		t.Errorf("rebased[USD][0] = %v, want NaN (0/0)", p.Rebased["USD"][0])
	}
	if !math.IsInf(p.Rebased["USD"][1], 1) {
		t.Errorf("rebased[USD][1] = %v, want +Inf", p.Rebased["USD"][1])
	}
}
