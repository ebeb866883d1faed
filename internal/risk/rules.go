// Package risk tags opportunities with independent risk rules, scores them,
// and summarises the tagged pipeline.
package risk

import (
	"strings"
	"time"

	"github.com/sells-group/pipeline-analytics/internal/model"
)

// Rule thresholds.
const (
	largeAmountThreshold     = 25000.0
	lowProbabilityThreshold  = 50.0
	projectTotalThreshold    = 20000.0
	projectShareThreshold    = 0.6
	stalledAgeDays           = 30
	veryLowProbabilityCutoff = 30.0
	veryLowProbabilityBonus  = 10.0
	maxScore                 = 100.0
)

// Evaluation carries the inputs a rule may need beyond the opportunity itself.
type Evaluation struct {
	Now time.Time
}

// Rule is a single per-opportunity predicate and the score weight of its tag.
type Rule struct {
	Tag    model.RiskTag
	Weight float64
	Match  func(o model.Opportunity, ev Evaluation) bool
}

// Weights of every tag, including the collection-level concentration rule.
var weights = map[model.RiskTag]float64{
	model.RiskLargeLowProbability:           40,
	model.RiskProjectConcentration:          35,
	model.RiskCommittedWithoutPurchaseOrder: 30,
	model.RiskStalled:                       25,
}

// Weight returns the score contribution of tag.
func Weight(tag model.RiskTag) float64 {
	return weights[tag]
}

var (
	largeLowProbability = Rule{
		Tag:    model.RiskLargeLowProbability,
		Weight: weights[model.RiskLargeLowProbability],
		Match:  isLargeLowProbability,
	}
	committedWithoutPO = Rule{
		Tag:    model.RiskCommittedWithoutPurchaseOrder,
		Weight: weights[model.RiskCommittedWithoutPurchaseOrder],
		Match:  isCommittedWithoutPO,
	}
	stalled = Rule{
		Tag:    model.RiskStalled,
		Weight: weights[model.RiskStalled],
		Match:  isStalled,
	}
)

// DefaultRules returns the rules applied to every opportunity. Stalled is
// not among them; it is opt-in via Options.
func DefaultRules() []Rule {
	return []Rule{largeLowProbability, committedWithoutPO}
}

// StalledRule returns the time-based staleness rule.
func StalledRule() Rule {
	return stalled
}

func isLargeLowProbability(o model.Opportunity, _ Evaluation) bool {
	return o.Amount > largeAmountThreshold && o.Probability < lowProbabilityThreshold
}

func isCommittedWithoutPO(o model.Opportunity, _ Evaluation) bool {
	if !strings.Contains(strings.ToLower(o.Stage), "commit") {
		return false
	}
	po := strings.TrimSpace(o.PurchaseOrder)
	return po == "" || po == "0"
}

func isStalled(o model.Opportunity, ev Evaluation) bool {
	if o.CreatedAt.IsZero() || ev.Now.IsZero() {
		return false
	}
	return AgeDays(o.CreatedAt, ev.Now) > stalledAgeDays
}

// AgeDays is the whole number of days between created and now, truncated.
func AgeDays(created, now time.Time) int {
	return int(now.Sub(created) / (24 * time.Hour))
}

// Concentrated reports, per input position, whether the opportunity
// dominates its project group: the group shares a non-empty project ID, has
// at least two members, a combined amount above the group threshold, and
// the member's share of that total is strictly above the share threshold.
func Concentrated(opps []model.Opportunity) []bool {
	out := make([]bool, len(opps))

	groups := make(map[string][]int)
	for i, o := range opps {
		pi := strings.TrimSpace(o.ProjectID)
		if pi == "" {
			continue
		}
		groups[pi] = append(groups[pi], i)
	}

	for _, idx := range groups {
		if len(idx) < 2 {
			continue
		}
		var total float64
		for _, i := range idx {
			total += opps[i].Amount
		}
		if total <= projectTotalThreshold {
			continue
		}
		for _, i := range idx {
			if opps[i].Amount/total > projectShareThreshold {
				out[i] = true
			}
		}
	}
	return out
}

// Score sums the weights of tags, adds the very-low-probability bonus, and
// clamps the result to [0,100]. It is a severity for sorting, not a probability.
func Score(tags []model.RiskTag, probability float64) float64 {
	var score float64
	for _, t := range tags {
		score += weights[t]
	}
	if probability < veryLowProbabilityCutoff {
		score += veryLowProbabilityBonus
	}
	switch {
	case score < 0:
		return 0
	case score > maxScore:
		return maxScore
	}
	return score
}
