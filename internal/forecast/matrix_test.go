package forecast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/pipeline-analytics/internal/model"
)

func TestBuildMatrix(t *testing.T) {
	t.Parallel()
	opps := []model.Opportunity{
		{Amount: 10000, Probability: 50, CloseDate: "2026-01-10", Country: "PERU"},
		{Amount: 20000, Probability: 50, WeightedAmount: 4000, CloseDate: "2026-01-20", Country: "PERU"},
		{Amount: 5000, Probability: 100, CloseDate: "2026-03-01", Country: "COLOMBIA"},
		{Amount: 7000, Probability: 100, CloseDate: "2026-03-01"},
		{Amount: 99999, Probability: 100, CloseDate: "2025-03-01", Country: "ECUADOR"},
	}
	targets := []model.AOPTarget{
		{MonthPeriod: "2025-01-01", TargetAmount: 65000},
		{MonthPeriod: "2025-02-01", TargetAmount: 72000},
		{MonthPeriod: "2026-02", TargetAmount: 80000},
	}

	m := BuildMatrix(opps, targets, 2026)

	require.Len(t, m.Months, 12)
	assert.Equal(t, "2026-01", m.Months[0])
	assert.Equal(t, "2026-12", m.Months[11])
	assert.Equal(t, []string{"COLOMBIA", "PERU", "Unknown"}, m.Countries)

	assert.InDelta(t, 9000, m.Weighted["2026-01"]["PERU"], 0.001)
	assert.InDelta(t, 30000, m.Gross["2026-01"]["PERU"], 0.001)
	assert.InDelta(t, 5000, m.Weighted["2026-03"]["COLOMBIA"], 0.001)
	assert.InDelta(t, 7000, m.CountryTotals["Unknown"], 0.001)
	assert.InDelta(t, 21000, m.GrandTotal, 0.001)

	assert.InDelta(t, 65000, m.AOP["2026-01"], 0.001, "falls back to prior year")
	assert.InDelta(t, 80000, m.AOP["2026-02"], 0.001, "current year wins")
	_, ok := m.AOP["2026-03"]
	assert.False(t, ok)
}

func TestBuildMatrix_Empty(t *testing.T) {
	t.Parallel()
	m := BuildMatrix(nil, nil, 2026)
	assert.Len(t, m.Months, 12)
	assert.Empty(t, m.Countries)
	assert.Empty(t, m.AOP)
}

func TestProgress(t *testing.T) {
	t.Parallel()
	assert.InDelta(t, 0, Progress(100, 0), 0.001)
	assert.InDelta(t, 50, Progress(50, 100), 0.001)
}
