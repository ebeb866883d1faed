package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/pipeline-analytics/internal/model"
)

func TestSales(t *testing.T) {
	t.Parallel()
	tbl := Table{
		Header: []string{"Calendar Date", "Customer Account Nbr", "Customer Name", "Country Name", "Region", "Revenue - Reporting Currency Amt"},
		Rows: [][]string{
			{"3/4/2026", "C-1", "Andes SAC", "Perú", "LATAM", "1.372,00"},
			{"3/9/2026", "C-1", "Andes SAC", "Perú", "LATAM", "(200,00)"},
			{"25/03/2026", "", "Bogota SAS", "Colombia", "LATAM", "5,000.00"},
			{"", "C-3", "No Date", "Ecuador", "LATAM", "10"},
			{"2026-03-30", "C-4", "Bad Revenue", "Ecuador", "LATAM", "abc"},
			{"2026-03-31", "C-5", "Santiago SpA", "Chile", "LATAM", "0"},
		},
	}

	sales, accounts, issues, err := Sales(tbl, DefaultLocale())
	require.NoError(t, err)
	require.Len(t, sales, 4)
	require.Len(t, issues, 2)
	assert.Equal(t, 5, issues[0].Row)
	assert.Contains(t, issues[0].Reason, "date")
	assert.Contains(t, issues[1].Reason, "revenue")

	assert.Equal(t, "2026-03-04", sales[0].SaleDate)
	assert.InDelta(t, 1372, sales[0].Amount, 0)
	assert.Equal(t, "C-1", sales[0].AccountID)
	assert.InDelta(t, -200, sales[1].Amount, 0)
	assert.Equal(t, "Bogota SAS", sales[2].AccountID)
	assert.Equal(t, "2026-03-25", sales[2].SaleDate)
	assert.NotEqual(t, sales[0].ID, sales[1].ID)

	assert.Equal(t, []model.Account{
		{ID: "C-1", Name: "Andes SAC", Country: "PERU"},
		{ID: "Bogota SAS", Name: "Bogota SAS", Country: "COLOMBIA"},
		{ID: "C-5", Name: "Santiago SpA", Country: model.CountryUnknown},
	}, accounts)
}

func TestSales_MissingColumns(t *testing.T) {
	t.Parallel()
	_, _, _, err := Sales(Table{Header: []string{"Customer Name", "Revenue"}}, DefaultLocale())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "revenue and date")
}
