package risk

import (
	"sort"
	"strings"

	"github.com/sells-group/pipeline-analytics/internal/model"
)

// Assessment is an opportunity with its risk score and ordered tags.
type Assessment struct {
	model.Opportunity
	RiskScore   float64         `json:"risk_score"`
	Reasons     []model.RiskTag `json:"risk_reasons"`
	Severity    Severity        `json:"severity"`
	TargetShare float64         `json:"target_share"`
}

// Severity bands a risk score for display.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// SeverityOf bands a score: high at 70 and above, medium at 50 and above.
func SeverityOf(score float64) Severity {
	switch {
	case score >= 70:
		return SeverityHigh
	case score >= 50:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// AtRisk classifies every opportunity and returns those with at least one
// tag or a positive score, highest score first. Ties keep input order. An
// opportunity without a country takes it from its account. TargetShare is
// the amount over the country's plan target for the close month.
func AtRisk(opps []model.Opportunity, targets []model.AOPTarget, countries model.AccountCountryMap, c *Classifier) []Assessment {
	var out []Assessment
	for _, a := range c.AssessAll(ResolveCountries(opps, countries)) {
		if len(a.Reasons) == 0 && a.RiskScore <= 0 {
			continue
		}
		a.Severity = SeverityOf(a.RiskScore)
		a.TargetShare = targetShare(a.Opportunity, targets)
		out = append(out, a)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RiskScore > out[j].RiskScore
	})
	return out
}

// ResolveCountries returns copies of opps where a missing country is taken
// from the opportunity's account.
func ResolveCountries(opps []model.Opportunity, countries model.AccountCountryMap) []model.Opportunity {
	resolved := make([]model.Opportunity, len(opps))
	for i, o := range opps {
		if o.Country == "" {
			o.Country = countries[o.AccountID]
		}
		resolved[i] = o
	}
	return resolved
}

func targetShare(o model.Opportunity, targets []model.AOPTarget) float64 {
	if o.Country == "" {
		return 0
	}
	month := o.CloseMonth()
	for _, t := range targets {
		if t.Month() == month && strings.EqualFold(t.Country, o.Country) && t.TargetAmount > 0 {
			return o.Amount / t.TargetAmount
		}
	}
	return 0
}

// GroupByRiskType fans each assessment out into every tag bucket it holds.
// All four buckets are always present.
func GroupByRiskType(list []Assessment) map[model.RiskTag][]Assessment {
	groups := make(map[model.RiskTag][]Assessment, 4)
	for _, t := range model.AllRiskTags() {
		groups[t] = []Assessment{}
	}
	for _, a := range list {
		for _, t := range a.Reasons {
			groups[t] = append(groups[t], a)
		}
	}
	return groups
}

// Stats summarises how much of the pipeline carries risk tags.
type Stats struct {
	TotalAtRisk    int     `json:"total_at_risk"`
	HighRiskAmount float64 `json:"high_risk_amount"`
	RiskPercentage float64 `json:"risk_percentage"`
}

// ComputeStats counts tagged opportunities and compares their amount with
// the active pipeline. An empty active pipeline yields a 0 percentage.
func ComputeStats(opps []model.Opportunity) Stats {
	var s Stats
	var active float64
	for _, o := range opps {
		if len(o.RiskTags) > 0 {
			s.TotalAtRisk++
			s.HighRiskAmount += o.Amount
		}
		if o.IsActive() {
			active += o.Amount
		}
	}
	if active > 0 {
		s.RiskPercentage = s.HighRiskAmount / active * 100
	}
	return s
}

// Tagged returns the assessed opportunities with their derived tags written
// into RiskTags.
func Tagged(list []Assessment) []model.Opportunity {
	out := make([]model.Opportunity, len(list))
	for i, a := range list {
		o := a.Opportunity
		o.RiskTags = append([]model.RiskTag(nil), a.Reasons...)
		out[i] = o
	}
	return out
}
