package main

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/pipeline-analytics/internal/forecast"
	"github.com/sells-group/pipeline-analytics/internal/model"
	"github.com/sells-group/pipeline-analytics/internal/planner"
	"github.com/sells-group/pipeline-analytics/internal/risk"
)

func sampleView() view {
	rows := []forecast.MonthComparison{
		{Period: "2026-03", Actual: 20000, Target: 150000, Forecast: 92000, Gap: -38000},
	}
	return view{
		data:  rows,
		table: func(w io.Writer) { formatMonthly(w, rows) },
		csv:   func() [][]string { return monthlyRows(rows) },
	}
}

func TestValidFormat(t *testing.T) {
	for _, f := range []string{"table", "json", "yaml", "csv"} {
		assert.NoError(t, validFormat(f))
	}
	err := validFormat("xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--format")
}

func TestRender_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, render(&buf, formatJSON, sampleView()))
	assert.JSONEq(t, `[{"period":"2026-03","actual":20000,"target":150000,"forecast":92000,"gap":-38000}]`, buf.String())
}

func TestRender_YAMLKeepsJSONKeys(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, render(&buf, formatYAML, sampleView()))

	out := buf.String()
	assert.NotContains(t, out, "{")

	var rows []map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "2026-03", rows[0]["period"])
	assert.EqualValues(t, 92000, rows[0]["forecast"])
}

func TestRender_CSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, render(&buf, formatCSV, sampleView()))
	assert.Equal(t, "period,actual,target,forecast,gap\n2026-03,20000.00,150000.00,92000.00,-38000.00\n", buf.String())
}

func TestRender_Table(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, render(&buf, formatTable, sampleView()))
	assert.Contains(t, buf.String(), "PERIOD")
	assert.Contains(t, buf.String(), "150,000")
	assert.Contains(t, buf.String(), "-38,000")
}

func TestFormatSalesByCountry(t *testing.T) {
	var buf bytes.Buffer
	formatSalesByCountry(&buf, map[string]float64{"PERU": 30000, model.CountryUnknown: 10000, "ECUADOR": 60000})

	out := buf.String()
	assert.Contains(t, out, "COUNTRY")
	assert.Contains(t, out, "60,000")
	assert.Contains(t, out, "60.0%")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("ECUADOR")), bytes.Index(buf.Bytes(), []byte("PERU")))
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("PERU")), bytes.Index(buf.Bytes(), []byte(model.CountryUnknown)))
}

func TestCountryRows_TiesByName(t *testing.T) {
	rows := countryRows(map[string]float64{"PERU": 10, "COLOMBIA": 10, "ECUADOR": 20})
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"ECUADOR", "COLOMBIA", "PERU"},
		[]string{rows[0].country, rows[1].country, rows[2].country})
}

func TestMoney(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567.6, "1,234,568"},
		{-38000, "-38,000"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, money(tt.in))
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "Ampliación...", truncate("Ampliación de red Lima", 13))
	assert.Equal(t, "abcdefgh", truncateID("abcdefgh-1234"))
}

func TestPlanRows(t *testing.T) {
	p := planner.WeeklyPlan{
		Monday:   &planner.CountrySlot{Country: "PERU", Focus: planner.FocusHighRiskReview, RiskAmount: 30000},
		Thursday: planner.ListSlot{Focus: planner.FocusBestCase, Items: []model.Opportunity{{Name: "Quito", Amount: 60000, Probability: 60}}},
		Friday:   planner.ListSlot{Focus: planner.FocusCommitted, Items: []model.Opportunity{}},
	}
	rows := planRows(p)
	require.Len(t, rows, 5)
	assert.Equal(t, []string{"Monday", planner.FocusHighRiskReview, "PERU (30,000 at risk)"}, rows[0])
	assert.Equal(t, "no high-risk country", rows[1][2])
	assert.Equal(t, []string{"Thursday", planner.FocusBestCase, "Quito 60,000 (60%)"}, rows[3])
	assert.Equal(t, "-", rows[4][2])
}

func TestRiskRows(t *testing.T) {
	list := []risk.Assessment{{
		Opportunity: model.Opportunity{ID: "o1", Name: "Lima DC", Country: "PERU", Amount: 30000, Probability: 40, CloseDate: "2026-03-15"},
		RiskScore:   40,
		Reasons:     []model.RiskTag{model.RiskLargeLowProbability},
		Severity:    risk.SeverityLow,
	}}

	rows := riskRows(list, "")
	require.Len(t, rows, 2)
	assert.Equal(t, "id", rows[0][0])
	assert.Equal(t, "LargeLowProbability", rows[1][8])

	grouped := riskRows(list, "LargeLowProbability")
	assert.Equal(t, "tag", grouped[0][0])
	assert.Equal(t, "LargeLowProbability", grouped[1][0])
}
