// Package analytics runs the forecast, risk and planning engine over one
// snapshot and collects the results into a single report.
package analytics

import (
	"strconv"
	"time"

	"github.com/sells-group/pipeline-analytics/internal/forecast"
	"github.com/sells-group/pipeline-analytics/internal/model"
	"github.com/sells-group/pipeline-analytics/internal/planner"
	"github.com/sells-group/pipeline-analytics/internal/risk"
)

// Options selects the scope of an analysis pass.
type Options struct {
	// Now is the evaluation instant. Only the staleness rule reads it.
	Now time.Time
	// Period restricts the gap analysis to one "YYYY-MM" month. Empty means
	// whole-snapshot totals.
	Period string
	// Year of the month × country matrix. Zero derives it from Period, then
	// Now, then the latest close date.
	Year           int
	IncludeStalled bool
}

// Report is the full output of one analysis pass.
type Report struct {
	Period         string                              `json:"period,omitempty"`
	Year           int                                 `json:"year"`
	Forecast       forecast.Result                     `json:"forecast"`
	Gap            forecast.GapAnalysis                `json:"gap"`
	Coverage       float64                             `json:"coverage"`
	Monthly        []forecast.MonthComparison          `json:"monthly"`
	// SalesByCountry is actual sales per account country.
	SalesByCountry map[string]float64                  `json:"sales_by_country"`
	Matrix         forecast.Matrix                     `json:"matrix"`
	AtRisk         []risk.Assessment                   `json:"at_risk"`
	Groups         map[model.RiskTag][]risk.Assessment `json:"groups"`
	Stats          risk.Stats                          `json:"stats"`
	Plan           planner.WeeklyPlan                  `json:"plan"`
}

// Analyze computes every engine output for snap. It performs no I/O and
// never reads the clock.
func Analyze(snap model.Snapshot, opts Options) Report {
	countries := snap.AccountCountry()
	resolved := risk.ResolveCountries(snap.Opportunities, countries)
	classifier := risk.NewClassifier(risk.Options{
		Now:            opts.Now,
		IncludeStalled: opts.IncludeStalled,
	})
	tagged := risk.Tagged(classifier.AssessAll(resolved))

	r := Report{
		Period:         opts.Period,
		Year:           matrixYear(opts, snap.Opportunities),
		Forecast:       forecast.Weighted(snap.Opportunities),
		Monthly:        forecast.MonthlyComparison(forecast.SalesByMonth(snap.Sales), snap.Targets, snap.Opportunities),
		SalesByCountry: forecast.SalesByCountry(snap.Sales, countries),
		AtRisk:         risk.AtRisk(snap.Opportunities, snap.Targets, countries, classifier),
		Stats:          risk.ComputeStats(tagged),
		Plan:           planner.Build(tagged),
	}
	if r.AtRisk == nil {
		r.AtRisk = []risk.Assessment{}
	}
	r.Groups = risk.GroupByRiskType(r.AtRisk)
	r.Matrix = forecast.BuildMatrix(resolved, snap.Targets, r.Year)
	r.Gap = gapFor(snap, opts.Period)
	r.Coverage = forecast.Coverage(r.Forecast.TotalPipeline, r.Gap.Gap)
	return r
}

func gapFor(snap model.Snapshot, period string) forecast.GapAnalysis {
	if period != "" {
		return forecast.Gap(
			forecast.SalesInMonth(snap.Sales, period),
			forecast.ActiveInMonth(snap.Opportunities, period).WeightedForecast,
			forecast.TargetFor(snap.Targets, period, ""),
		)
	}

	var sales, target float64
	for _, s := range snap.Sales {
		sales += s.Amount
	}
	for _, t := range snap.Targets {
		target += t.TargetAmount
	}
	return forecast.Gap(sales, forecast.Weighted(snap.Opportunities).WeightedForecast, target)
}

func matrixYear(opts Options, opps []model.Opportunity) int {
	if opts.Year != 0 {
		return opts.Year
	}
	if len(opts.Period) >= 4 {
		if y, err := strconv.Atoi(opts.Period[:4]); err == nil {
			return y
		}
	}
	if !opts.Now.IsZero() {
		return opts.Now.Year()
	}
	latest := 0
	for _, o := range opps {
		m := o.CloseMonth()
		if len(m) < 4 {
			continue
		}
		if y, err := strconv.Atoi(m[:4]); err == nil && y > latest {
			latest = y
		}
	}
	return latest
}
