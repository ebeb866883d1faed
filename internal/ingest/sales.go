package ingest

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/pipeline-analytics/internal/model"
)

// Sales maps a booked-revenue export onto sales records and the accounts
// they reference. Revenue, date and customer columns are located by header
// fragments, so regional export variants load without configuration.
// Accounts are keyed by account number when present, else by customer name.
func Sales(t Table, loc Locale) ([]model.SalesRecord, []model.Account, []Issue, error) {
	revenueCol := t.ColumnContaining("revenue", "amt", "amount", "monto", "importe")
	dateCol := t.ColumnContaining("calendar", "date", "fecha")
	customerCol := t.ColumnContaining("customer name", "customer_name", "cliente")
	accountCol := t.ColumnContaining("account nbr", "account number", "account_id", "codigo cliente")
	countryCol := t.ColumnContaining("country", "pais")
	if revenueCol < 0 || dateCol < 0 {
		return nil, nil, nil, eris.Errorf("ingest: sales sheet needs revenue and date columns, got %v", t.Header)
	}

	var (
		sales    []model.SalesRecord
		accounts []model.Account
		issues   []Issue
	)
	seen := make(map[string]bool)
	for i, row := range t.Rows {
		if blank(row) {
			continue
		}
		rowNum := sheetRow(i)

		amount, err := ParseAmount(cell(row, revenueCol), loc)
		if err != nil {
			issues = append(issues, Issue{Row: rowNum, Reason: "revenue: " + err.Error()})
			continue
		}
		date, err := ParseDate(cell(row, dateCol), loc)
		if err != nil {
			issues = append(issues, Issue{Row: rowNum, Reason: "date: " + err.Error()})
			continue
		}

		name := cell(row, customerCol)
		key := cell(row, accountCol)
		if key == "" {
			key = name
		}
		if key != "" && !seen[key] {
			seen[key] = true
			accounts = append(accounts, model.Account{
				ID:      key,
				Name:    firstNonEmpty(name, key),
				Country: NormalizeCountry(cell(row, countryCol), loc.CountryFallback),
			})
		}

		sales = append(sales, model.SalesRecord{
			ID:        syntheticID("sale", key, date, rowNum),
			AccountID: key,
			Amount:    amount,
			SaleDate:  date,
		})
	}
	return sales, accounts, issues, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
