package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseStatus(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want OpportunityStatus
	}{
		{"Active", StatusActive},
		{"", StatusActive},
		{"Closed Won", StatusClosedWon},
		{"closed won", StatusClosedWon},
		{"Ganada", StatusClosedWon},
		{"Closed Lost", StatusClosedLost},
		{"Perdida", StatusClosedLost},
		{"Negotiation", StatusActive},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseStatus(tt.in), tt.in)
	}
}

func TestOpportunity_Weighted(t *testing.T) {
	t.Parallel()
	o := Opportunity{Amount: 10000, Probability: 40}
	assert.InDelta(t, 4000, o.Weighted(), 0.0001)
	assert.InDelta(t, 4000, o.EffectiveWeighted(), 0.0001)

	o.WeightedAmount = 3500
	assert.InDelta(t, 3500, o.EffectiveWeighted(), 0.0001)
	assert.InDelta(t, 4000, o.Weighted(), 0.0001)
}

func TestOpportunity_CloseMonth(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "2026-03", Opportunity{CloseDate: "2026-03-15"}.CloseMonth())
	assert.Equal(t, "", Opportunity{}.CloseMonth())
}

func TestOpportunity_HasTag(t *testing.T) {
	t.Parallel()
	o := Opportunity{RiskTags: []RiskTag{RiskStalled}}
	assert.True(t, o.HasTag(RiskStalled))
	assert.False(t, o.HasTag(RiskLargeLowProbability))
}

func TestAOPTarget(t *testing.T) {
	t.Parallel()
	tgt := AOPTarget{MonthPeriod: "2025-01-01"}
	assert.Equal(t, "2025-01", tgt.Month())
	assert.True(t, tgt.IsGeneral())

	tgt.Country = "general"
	assert.True(t, tgt.IsGeneral())

	tgt.Country = "PERU"
	assert.False(t, tgt.IsGeneral())
}

func TestSnapshot_AccountCountry(t *testing.T) {
	t.Parallel()
	s := Snapshot{Accounts: []Account{
		{ID: "a1", Country: "PERU"},
		{ID: "a2", Country: ""},
	}}
	m := s.AccountCountry()
	assert.Equal(t, "PERU", m["a1"])
	_, ok := m["a2"]
	assert.False(t, ok)
}
