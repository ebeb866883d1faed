package forecast

import (
	"fmt"
	"sort"

	"github.com/sells-group/pipeline-analytics/internal/model"
)

// Matrix is the month × country view of the pipeline for one calendar year.
type Matrix struct {
	Year          int                           `json:"year"`
	Months        []string                      `json:"months"`
	Countries     []string                      `json:"countries"`
	Weighted      map[string]map[string]float64 `json:"weighted"`
	Gross         map[string]map[string]float64 `json:"gross"`
	CountryTotals map[string]float64            `json:"country_totals"`
	AOP           map[string]float64            `json:"aop"`
	GrandTotal    float64                       `json:"grand_total"`
}

// BuildMatrix aggregates opportunities closing in year by month and country.
// The weighted matrix uses the import-time weighted amount when present.
// The AOP line sums every target of a month; months of year without targets
// fall back to the same month of the previous year.
func BuildMatrix(opps []model.Opportunity, targets []model.AOPTarget, year int) Matrix {
	m := Matrix{
		Year:          year,
		Months:        monthsOf(year),
		Weighted:      make(map[string]map[string]float64),
		Gross:         make(map[string]map[string]float64),
		CountryTotals: make(map[string]float64),
		AOP:           make(map[string]float64),
	}

	inYear := make(map[string]bool, 12)
	for _, month := range m.Months {
		inYear[month] = true
	}

	countries := make(map[string]bool)
	for _, o := range opps {
		month := o.CloseMonth()
		if !inYear[month] {
			continue
		}
		country := o.Country
		if country == "" {
			country = model.CountryUnknown
		}
		countries[country] = true

		if m.Weighted[month] == nil {
			m.Weighted[month] = make(map[string]float64)
			m.Gross[month] = make(map[string]float64)
		}
		w := o.EffectiveWeighted()
		m.Weighted[month][country] += w
		m.Gross[month][country] += o.Amount
		m.CountryTotals[country] += w
		m.GrandTotal += w
	}

	for c := range countries {
		m.Countries = append(m.Countries, c)
	}
	sort.Strings(m.Countries)

	raw := make(map[string]float64)
	for _, t := range targets {
		raw[t.Month()] += t.TargetAmount
	}
	for _, month := range m.Months {
		v := raw[month]
		if v == 0 {
			v = raw[fmt.Sprintf("%04d-%s", year-1, month[5:])]
		}
		if v != 0 {
			m.AOP[month] = v
		}
	}

	return m
}

// Progress returns total / aop as a percentage, or 0 when there is no AOP.
func Progress(total, aop float64) float64 {
	if aop == 0 {
		return 0
	}
	return total / aop * 100
}

func monthsOf(year int) []string {
	months := make([]string, 12)
	for i := range months {
		months[i] = fmt.Sprintf("%04d-%02d", year, i+1)
	}
	return months
}
