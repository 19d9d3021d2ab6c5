package source

import (
	"context"
	"math/rand"

	"github.com/rsviz/rsviz/pkg/models"
)

// synthetic generates offline demo data: one random walk per asset.
// Deterministic in shape (lookbackDays+1 observations, every asset priced
// on every date) but not in value.
type synthetic struct{}

func newSynthetic() *synthetic {
	return &synthetic{}
}

func (s *synthetic) fetch(ctx context.Context, assets []string, lookbackDays int) (models.RawSeries, error) {
	start, _ := lookbackWindow(lookbackDays)

	prices := make(map[string]float64, len(assets))
	for _, sym := range assets {
		prices[sym] = 100
	}

	series := make(models.RawSeries, 0, lookbackDays+1)
	for i := 0; i <= lookbackDays; i++ {
		day := start.AddDate(0, 0, i)
		obs := models.Observation{
			Date:   day.Format(models.DateLayout),
			Prices: make(map[string]float64, len(assets)),
		}
		for _, sym := range assets {
			obs.Prices[sym] = prices[sym]
			// Independent daily multiplicative shock in [-2%, +2%].
			prices[sym] *= 1 + (rand.Float64()*0.04 - 0.02)
		}
		series = append(series, obs)
	}
	return series, nil
}
