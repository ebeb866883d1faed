package ingest

import (
	"fmt"
	"strings"
	"time"

	"github.com/sells-group/pipeline-analytics/internal/model"
	"github.com/sells-group/pipeline-analytics/pkg/salesforce"
)

// Salesforce CreatedDate layouts.
var sfTimeLayouts = []string{
	"2006-01-02T15:04:05.000-0700",
	time.RFC3339Nano,
}

// FromSalesforce maps Opportunity records onto model opportunities. The
// forecast category is used as the stage when present, since commitment
// rules read it. Records without an Id, with a negative amount, or without a
// readable close date are skipped.
func FromSalesforce(records []salesforce.Record, fields salesforce.Fields, loc Locale) ([]model.Opportunity, []Issue) {
	var (
		out    []model.Opportunity
		issues []Issue
	)
	for i, r := range records {
		id := r.String(salesforce.FieldID)
		if id == "" {
			issues = append(issues, Issue{Row: i + 1, Reason: "missing Id"})
			continue
		}
		amount := r.Float(salesforce.FieldAmount)
		if amount < 0 {
			issues = append(issues, Issue{Row: i + 1, Reason: fmt.Sprintf("%s amount: negative %v", id, amount)})
			continue
		}
		closeDate, err := ParseDate(r.String(salesforce.FieldCloseDate), loc)
		if err != nil {
			issues = append(issues, Issue{Row: i + 1, Reason: fmt.Sprintf("%s close date: %v", id, err)})
			continue
		}

		o := model.Opportunity{
			ID:            id,
			Name:          r.String(salesforce.FieldName),
			AccountID:     r.String(salesforce.FieldAccountID),
			Amount:        amount,
			Probability:   clampPercent(r.Float(salesforce.FieldProbability)),
			ProjectID:     strings.TrimSpace(r.String(fields.ProjectField)),
			PurchaseOrder: strings.TrimSpace(r.String(fields.POField)),
			CloseDate:     closeDate,
			Stage:         firstNonEmpty(r.String(salesforce.FieldForecastCategory), r.String(salesforce.FieldStageName)),
			Status:        sfStatus(r),
			CreatedAt:     sfTime(r.String(salesforce.FieldCreatedDate)),
		}
		if raw := r.String(fields.CountryField); raw != "" {
			o.Country = NormalizeCountry(raw, loc.CountryFallback)
		}
		out = append(out, o)
	}
	return out, issues
}

// AccountsFromSalesforce maps Account records onto accounts with
// normalised countries, reading the country from countryField.
func AccountsFromSalesforce(records []salesforce.Record, countryField string, loc Locale) []model.Account {
	countryField = salesforce.AccountCountryField(countryField)
	out := make([]model.Account, 0, len(records))
	for _, r := range records {
		id := r.String(salesforce.FieldID)
		if id == "" {
			continue
		}
		out = append(out, model.Account{
			ID:      id,
			Name:    r.String(salesforce.FieldName),
			Country: NormalizeCountry(r.String(countryField), loc.CountryFallback),
		})
	}
	return out
}

func sfStatus(r salesforce.Record) model.OpportunityStatus {
	switch {
	case r.Bool(salesforce.FieldIsClosed) && r.Bool(salesforce.FieldIsWon):
		return model.StatusClosedWon
	case r.Bool(salesforce.FieldIsClosed):
		return model.StatusClosedLost
	default:
		return model.StatusActive
	}
}

func sfTime(s string) time.Time {
	for _, layout := range sfTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
