// Package forecast computes probability-weighted pipeline value and the gap
// between projected revenue and plan targets.
package forecast

import (
	"sort"

	"github.com/sells-group/pipeline-analytics/internal/model"
)

// Gap status thresholds, in percent of target.
const (
	onTrackFloorPct = 0.0
	atRiskFloorPct  = -10.0
)

// Result is the weighted forecast over the active pipeline.
type Result struct {
	WeightedForecast float64 `json:"weighted_forecast"`
	TotalPipeline    float64 `json:"total_pipeline"`
	OpportunityCount int     `json:"opportunity_count"`
}

// Weighted sums amount × probability over active opportunities. Closed
// opportunities never contribute.
func Weighted(opps []model.Opportunity) Result {
	var r Result
	for _, o := range opps {
		if !o.IsActive() {
			continue
		}
		r.WeightedForecast += o.Weighted()
		r.TotalPipeline += o.Amount
		r.OpportunityCount++
	}
	return r
}

// GapStatus classifies projected revenue against target.
type GapStatus string

const (
	GapOnTrack GapStatus = "on-track"
	GapAtRisk  GapStatus = "at-risk"
	GapBehind  GapStatus = "behind"
)

// GapAnalysis compares current sales plus weighted forecast with a target.
type GapAnalysis struct {
	CurrentSales  float64   `json:"current_sales"`
	Forecast      float64   `json:"forecast"`
	Target        float64   `json:"aop_target"`
	Projected     float64   `json:"projected"`
	Gap           float64   `json:"gap"`
	GapPercentage float64   `json:"gap_percentage"`
	Status        GapStatus `json:"status"`
}

// Gap computes projected = sales + forecast and its distance from target.
// A target of zero or less yields a gap percentage of 0.
func Gap(currentSales, weighted, target float64) GapAnalysis {
	projected := currentSales + weighted
	gap := projected - target

	var pct float64
	if target > 0 {
		pct = gap / target * 100
	}

	return GapAnalysis{
		CurrentSales:  currentSales,
		Forecast:      weighted,
		Target:        target,
		Projected:     projected,
		Gap:           gap,
		GapPercentage: pct,
		Status:        classifyGap(pct),
	}
}

func classifyGap(pct float64) GapStatus {
	switch {
	case pct >= onTrackFloorPct:
		return GapOnTrack
	case pct >= atRiskFloorPct:
		return GapAtRisk
	default:
		return GapBehind
	}
}

// MonthComparison is one row of the actual/target/forecast comparison.
type MonthComparison struct {
	Period   string  `json:"period"`
	Actual   float64 `json:"actual"`
	Target   float64 `json:"target"`
	Forecast float64 `json:"forecast"`
	Gap      float64 `json:"gap"`
}

// MonthlyComparison emits one row per month present in either the sales or
// the targets, in ascending "YYYY-MM" order. Forecast is the weighted value
// of active opportunities closing in that month. Several target rows for the
// same month are summed.
func MonthlyComparison(salesByMonth map[string]float64, targets []model.AOPTarget, opps []model.Opportunity) []MonthComparison {
	targetByMonth := make(map[string]float64, len(targets))
	periods := make(map[string]struct{}, len(salesByMonth)+len(targets))
	for p := range salesByMonth {
		periods[model.MonthKey(p)] = struct{}{}
	}
	for _, t := range targets {
		m := t.Month()
		targetByMonth[m] += t.TargetAmount
		periods[m] = struct{}{}
	}

	forecastByMonth := make(map[string]float64)
	for _, o := range opps {
		if o.IsActive() {
			forecastByMonth[o.CloseMonth()] += o.Weighted()
		}
	}

	actualByMonth := make(map[string]float64, len(salesByMonth))
	for p, v := range salesByMonth {
		actualByMonth[model.MonthKey(p)] += v
	}

	keys := make([]string, 0, len(periods))
	for p := range periods {
		keys = append(keys, p)
	}
	sort.Strings(keys)

	rows := make([]MonthComparison, 0, len(keys))
	for _, p := range keys {
		actual := actualByMonth[p]
		target := targetByMonth[p]
		fc := forecastByMonth[p]
		rows = append(rows, MonthComparison{
			Period:   p,
			Actual:   actual,
			Target:   target,
			Forecast: fc,
			Gap:      (actual + fc) - target,
		})
	}
	return rows
}
