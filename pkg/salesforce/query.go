package salesforce

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Fields names the org-specific custom fields that carry the project (PI)
// number, the purchase order number and the country of an opportunity.
// Empty fields are not selected.
type Fields struct {
	ProjectField string
	POField      string
	CountryField string
}

// Standard Opportunity fields, always selected.
const (
	FieldID               = "Id"
	FieldName             = "Name"
	FieldAccountID        = "AccountId"
	FieldAmount           = "Amount"
	FieldProbability      = "Probability"
	FieldCloseDate        = "CloseDate"
	FieldStageName        = "StageName"
	FieldForecastCategory = "ForecastCategoryName"
	FieldIsClosed         = "IsClosed"
	FieldIsWon            = "IsWon"
	FieldCreatedDate      = "CreatedDate"
)

var opportunityFields = []string{
	FieldID, FieldName, FieldAccountID, FieldAmount, FieldProbability,
	FieldCloseDate, FieldStageName, FieldForecastCategory,
	FieldIsClosed, FieldIsWon, FieldCreatedDate,
}

// OpportunityQuery scopes an opportunity fetch.
type OpportunityQuery struct {
	Fields Fields
	// CloseFrom limits results to close dates on or after this "YYYY-MM-DD".
	CloseFrom     string
	IncludeClosed bool
	Limit         int
}

// SOQL renders the query.
func (q OpportunityQuery) SOQL() (string, error) {
	fields := append([]string(nil), opportunityFields...)
	for _, f := range []string{q.Fields.ProjectField, q.Fields.POField, q.Fields.CountryField} {
		if f != "" {
			fields = append(fields, f)
		}
	}

	var where []string
	if !q.IncludeClosed {
		where = append(where, "IsClosed = false")
	}
	if q.CloseFrom != "" {
		// SOQL date literals are unquoted, so only accept a real date.
		if _, err := time.Parse("2006-01-02", q.CloseFrom); err != nil {
			return "", eris.Wrapf(err, "sf: invalid close date filter %q", q.CloseFrom)
		}
		where = append(where, "CloseDate >= "+q.CloseFrom)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM Opportunity", strings.Join(fields, ", "))
	if len(where) > 0 {
		b.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY CloseDate")
	if q.Limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", q.Limit)
	}
	return b.String(), nil
}

// FetchOpportunities runs the opportunity query and returns the raw records.
func FetchOpportunities(ctx context.Context, c Client, q OpportunityQuery) ([]Record, error) {
	soql, err := q.SOQL()
	if err != nil {
		return nil, err
	}
	var records []Record
	if err := c.Query(ctx, soql, &records); err != nil {
		return nil, eris.Wrap(err, "sf: fetch opportunities")
	}
	return records, nil
}

// FetchAccounts returns Id, Name and the country field of every account
// with at least one opportunity. An empty countryField selects BillingCountry.
func FetchAccounts(ctx context.Context, c Client, countryField string) ([]Record, error) {
	soql := fmt.Sprintf(
		"SELECT Id, Name, %s FROM Account WHERE Id IN (SELECT AccountId FROM Opportunity)",
		AccountCountryField(countryField),
	)
	var records []Record
	if err := c.Query(ctx, soql, &records); err != nil {
		return nil, eris.Wrap(err, "sf: fetch accounts")
	}
	return records, nil
}

// AccountCountryField returns countryField, or BillingCountry when empty.
func AccountCountryField(countryField string) string {
	if countryField == "" {
		return "BillingCountry"
	}
	return countryField
}

// ValidateFields checks that the configured custom fields exist on
// Opportunity. Relationship paths are not checked.
func ValidateFields(ctx context.Context, c Client, f Fields) error {
	desc, err := c.DescribeSObject(ctx, "Opportunity")
	if err != nil {
		return err
	}
	var missing []string
	for _, name := range []string{f.ProjectField, f.POField, f.CountryField} {
		if name == "" || strings.Contains(name, ".") {
			continue
		}
		if !desc.HasField(name) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return eris.Errorf("sf: unknown Opportunity fields: %s", strings.Join(missing, ", "))
	}
	return nil
}
