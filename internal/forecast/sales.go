package forecast

import (
	"strings"
	"time"

	"github.com/sells-group/pipeline-analytics/internal/model"
)

const isoDate = "2006-01-02"

// SalesByMonth totals sales amounts per "YYYY-MM".
func SalesByMonth(records []model.SalesRecord) map[string]float64 {
	out := make(map[string]float64)
	for _, r := range records {
		if m := r.Month(); m != "" {
			out[m] += r.Amount
		}
	}
	return out
}

// SalesByCountry totals sales amounts per account country. Sales whose
// account has no known country are totalled under model.CountryUnknown.
func SalesByCountry(records []model.SalesRecord, countries model.AccountCountryMap) map[string]float64 {
	out := make(map[string]float64)
	for _, r := range records {
		country := countries[r.AccountID]
		if country == "" {
			country = model.CountryUnknown
		}
		out[country] += r.Amount
	}
	return out
}

// SalesBetween totals sales whose date falls within [start, end]. Records
// with unparseable dates are ignored.
func SalesBetween(records []model.SalesRecord, start, end time.Time) float64 {
	var sum float64
	for _, r := range records {
		d, err := time.Parse(isoDate, r.SaleDate)
		if err != nil {
			continue
		}
		if !d.Before(start) && !d.After(end) {
			sum += r.Amount
		}
	}
	return sum
}

// SalesInMonth totals sales for a single "YYYY-MM" period.
func SalesInMonth(records []model.SalesRecord, month string) float64 {
	var sum float64
	for _, r := range records {
		if r.Month() == month {
			sum += r.Amount
		}
	}
	return sum
}

// TargetFor returns the plan target for a month. An empty or "General"
// country sums every target row of the month; otherwise only rows scoped to
// that country count.
func TargetFor(targets []model.AOPTarget, month, country string) float64 {
	all := country == "" || strings.EqualFold(country, model.CountryGeneral)
	var sum float64
	for _, t := range targets {
		if t.Month() != month {
			continue
		}
		if all || strings.EqualFold(t.Country, country) {
			sum += t.TargetAmount
		}
	}
	return sum
}

// ActiveInMonth returns the weighted forecast of active opportunities closing in month.
func ActiveInMonth(opps []model.Opportunity, month string) Result {
	var scoped []model.Opportunity
	for _, o := range opps {
		if o.CloseMonth() == month {
			scoped = append(scoped, o)
		}
	}
	return Weighted(scoped)
}

// Coverage is how many times the total pipeline covers the shortfall, as a
// multiple (2.5 means 2.5x), not a percent. With no shortfall it returns the
// sentinel 100.
func Coverage(totalPipeline, gap float64) float64 {
	if gap >= 0 {
		return 100
	}
	return totalPipeline / -gap
}
