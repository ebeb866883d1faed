package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/pipeline-analytics/internal/forecast"
	"github.com/sells-group/pipeline-analytics/internal/model"
)

func TestOpportunities(t *testing.T) {
	t.Parallel()
	tbl := Table{
		Header: []string{"ID", "Nombre", "Monto", "Probabilidad", "Fecha Cierre", "Forecast Category", "Estado", "País", "PI Number", "PO Number", "Risk Tags", "Created At"},
		Rows: [][]string{
			{"opp-1", "Lima DC", "30.000,00", "40", "15/03/2026", "Pipeline", "Active", "Perú", "PI-1", "", "LARGE_LOW_PROB", "2026-01-05"},
			{"", "Quito Fiber", "12000", "", "2026-04-01", "Commit", "Closed Won", "Ecuador", "PI-2", "PO-7", "", ""},
			{"opp-3", "", "5000", "10", "2026-04-01", "", "", "", "", "", "", ""},
			{"opp-4", "Bad Amount", "lots", "10", "2026-04-01", "", "", "", "", "", "", ""},
			{"opp-5", "Bad Date", "100", "10", "someday", "", "", "", "", "", "", ""},
			{"opp-6", "Over", "100", "140", "2026-04-01", "", "", "Chile", "", "", "", ""},
			{"", "", "", "", "", "", "", "", "", "", "", ""},
		},
	}

	opps, issues, err := Opportunities(tbl, DefaultLocale())
	require.NoError(t, err)
	require.Len(t, opps, 3)
	require.Len(t, issues, 3)
	assert.Equal(t, 4, issues[0].Row)
	assert.Contains(t, issues[0].Reason, "missing name")
	assert.Contains(t, issues[1].Reason, "amount")
	assert.Contains(t, issues[2].Reason, "close date")

	first := opps[0]
	assert.Equal(t, "opp-1", first.ID)
	assert.InDelta(t, 30000, first.Amount, 0)
	assert.InDelta(t, 40, first.Probability, 0)
	assert.Equal(t, "2026-03-15", first.CloseDate)
	assert.Equal(t, "PERU", first.Country)
	assert.Equal(t, "PI-1", first.ProjectID)
	assert.Equal(t, model.StatusActive, first.Status)
	assert.Equal(t, []model.RiskTag{model.RiskLargeLowProbability}, first.RiskTags)
	assert.Equal(t, time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), first.CreatedAt)

	second := opps[1]
	assert.Len(t, second.ID, 36)
	assert.InDelta(t, 50, second.Probability, 0)
	assert.Equal(t, model.StatusClosedWon, second.Status)
	assert.Equal(t, "Commit", second.Stage)
	assert.Equal(t, "PO-7", second.PurchaseOrder)

	assert.InDelta(t, 100, opps[2].Probability, 0)
	assert.Equal(t, model.CountryUnknown, opps[2].Country)
}

func TestOpportunities_NegativeAmountSkipped(t *testing.T) {
	t.Parallel()
	tbl := Table{
		Header: []string{"name", "amount", "probability", "close_date"},
		Rows: [][]string{
			{"Refund line", "(30.000,00)", "40", "2026-03-01"},
			{"Credit note", "-5000", "40", "2026-03-01"},
			{"Deal", "10000", "50", "2026-03-01"},
		},
	}

	opps, issues, err := Opportunities(tbl, DefaultLocale())
	require.NoError(t, err)
	require.Len(t, opps, 1)
	assert.Equal(t, "Deal", opps[0].Name)
	require.Len(t, issues, 2)
	assert.Equal(t, 2, issues[0].Row)
	assert.Contains(t, issues[0].Reason, "negative")
	assert.Contains(t, issues[1].Reason, "negative")

	res := forecast.Weighted(opps)
	assert.InDelta(t, 10000, res.TotalPipeline, 0)
	assert.InDelta(t, 5000, res.WeightedForecast, 0)
}

func TestOpportunities_ProbabilityAsFraction(t *testing.T) {
	t.Parallel()
	tbl := Table{
		Header: []string{"name", "amount", "probability", "close_date"},
		Rows: [][]string{
			{"Fraction", "100", "0.4", "2026-03-01"},
			{"Percent", "100", "40", "2026-03-01"},
			{"Zero", "100", "0", "2026-03-01"},
		},
	}

	opps, issues, err := Opportunities(tbl, DefaultLocale())
	require.NoError(t, err)
	assert.Empty(t, issues)
	require.Len(t, opps, 3)
	assert.InDelta(t, 40, opps[0].Probability, 1e-9)
	assert.InDelta(t, 40, opps[1].Probability, 1e-9)
	assert.InDelta(t, 0, opps[2].Probability, 0)
}

func TestOpportunities_SyntheticIDsAreStable(t *testing.T) {
	t.Parallel()
	tbl := Table{
		Header: []string{"name", "amount", "close_date", "pi_number"},
		Rows:   [][]string{{"A", "1", "2026-01-01", "PI-9"}, {"A", "1", "2026-01-01", "PI-9"}},
	}
	first, _, err := Opportunities(tbl, DefaultLocale())
	require.NoError(t, err)
	again, _, err := Opportunities(tbl, DefaultLocale())
	require.NoError(t, err)

	assert.Equal(t, first[0].ID, again[0].ID)
	assert.NotEqual(t, first[0].ID, first[1].ID, "row number disambiguates duplicates")
}

func TestOpportunities_WinGo(t *testing.T) {
	t.Parallel()
	tbl := Table{
		Header: []string{"name", "amount", "close_date", "Win %", "Go %", "probability"},
		Rows: [][]string{
			{"A", "100000", "2026-01-01", "64", "25", "90"},
			{"B", "100000", "2026-01-01", "0.81", "1", ""},
			{"C", "100000", "2026-01-01", "x", "1", ""},
		},
	}
	opps, issues, err := Opportunities(tbl, DefaultLocale())
	require.NoError(t, err)
	require.Len(t, opps, 2)
	require.Len(t, issues, 1)

	assert.InDelta(t, 40, opps[0].Probability, 1e-9)
	assert.InDelta(t, 40000, opps[0].WeightedAmount, 1e-6)
	assert.InDelta(t, 90, opps[1].Probability, 1e-9)
	assert.InDelta(t, 90000, opps[1].WeightedAmount, 1e-6)
}

func TestOpportunities_MissingColumns(t *testing.T) {
	t.Parallel()
	_, _, err := Opportunities(Table{Header: []string{"amount", "close_date"}}, DefaultLocale())
	require.Error(t, err)

	_, _, err = Opportunities(Table{Header: []string{"name", "amount"}}, DefaultLocale())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "close date")
}
