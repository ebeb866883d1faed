package ingest

import (
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/pipeline-analytics/internal/model"
)

// Targets maps a plan (AOP) sheet onto monthly targets. The month column
// holds either a month name, dated with loc.TargetYear, or a date. Amounts
// under loc.ThousandsBelow are read as thousands. Rows without a country
// apply to every country.
func Targets(t Table, loc Locale) ([]model.AOPTarget, []Issue, error) {
	monthCol := t.Column("mes", "month", "month_period", "periodo", "period")
	amountCol := t.Column("aop", "target", "target_amount", "meta", "objetivo")
	countryCol := t.Column("country", "pais", "country name")
	if monthCol < 0 || amountCol < 0 {
		return nil, nil, eris.Errorf("ingest: target sheet needs month and AOP columns, got %v", t.Header)
	}

	var (
		out    []model.AOPTarget
		issues []Issue
	)
	for i, row := range t.Rows {
		rawMonth := cell(row, monthCol)
		if rawMonth == "" {
			continue
		}
		rowNum := sheetRow(i)

		period, ok := MonthPeriod(rawMonth, loc.TargetYear)
		if !ok {
			d, err := monthOrDate(rawMonth, loc)
			if err != nil {
				issues = append(issues, Issue{Row: rowNum, Reason: "month: " + err.Error()})
				continue
			}
			period = d
		}

		amount, err := ParseAmount(cell(row, amountCol), loc)
		if err != nil {
			issues = append(issues, Issue{Row: rowNum, Reason: "target: " + err.Error()})
			continue
		}
		if loc.ThousandsBelow > 0 && amount < loc.ThousandsBelow {
			amount *= 1000
		}

		out = append(out, model.AOPTarget{
			ID:           syntheticID("target", period, cell(row, countryCol), rowNum),
			MonthPeriod:  period,
			TargetAmount: amount,
			Country:      targetCountry(cell(row, countryCol), loc),
		})
	}
	return out, issues, nil
}

// monthOrDate accepts "YYYY-MM" or any date ParseDate reads, returning the
// first of its month.
func monthOrDate(raw string, loc Locale) (string, error) {
	if len(raw) == 7 && raw[4] == '-' {
		raw += "-01"
	}
	d, err := ParseDate(raw, loc)
	if err != nil {
		return "", err
	}
	return d[:8] + "01", nil
}

func targetCountry(raw string, loc Locale) string {
	if raw == "" || strings.EqualFold(Fold(raw), strings.ToUpper(model.CountryGeneral)) {
		return model.CountryGeneral
	}
	return NormalizeCountry(raw, loc.CountryFallback)
}
