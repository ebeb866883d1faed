// Package planner derives the fixed five-day action plan from a tagged
// pipeline snapshot.
package planner

import (
	"sort"

	"github.com/sells-group/pipeline-analytics/internal/model"
)

// Slot focus labels.
const (
	FocusHighRiskReview = "high-risk review"
	FocusBestCase       = "Best Case (50–75%) follow-up"
	FocusCommitted      = "Committed (≥75%) closing push"
)

const (
	bestCaseFloor  = 50.0
	committedFloor = 75.0
	maxSlotItems   = 5
	countryDays    = 3
)

// CountrySlot assigns a day to reviewing one country's high-risk pipeline.
type CountrySlot struct {
	Country    string  `json:"country"`
	Focus      string  `json:"focus"`
	RiskAmount float64 `json:"risk_amount"`
}

// ListSlot assigns a day to working a short list of opportunities.
type ListSlot struct {
	Focus string              `json:"focus"`
	Items []model.Opportunity `json:"items"`
}

// WeeklyPlan is the Monday–Friday plan. Country days without a ranked
// country are nil.
type WeeklyPlan struct {
	Monday    *CountrySlot `json:"monday"`
	Tuesday   *CountrySlot `json:"tuesday"`
	Wednesday *CountrySlot `json:"wednesday"`
	Thursday  ListSlot     `json:"thursday"`
	Friday    ListSlot     `json:"friday"`
}

// Build ranks countries by the amount of their LargeLowProbability
// opportunities for Monday to Wednesday, and lists the top best-case and
// committed opportunities by amount for Thursday and Friday. Opportunities
// are expected to carry their risk tags.
func Build(opps []model.Opportunity) WeeklyPlan {
	ranked := rankCountries(opps)
	slots := make([]*CountrySlot, countryDays)
	for i := 0; i < countryDays && i < len(ranked); i++ {
		slots[i] = &CountrySlot{
			Country:    ranked[i].country,
			Focus:      FocusHighRiskReview,
			RiskAmount: ranked[i].amount,
		}
	}

	return WeeklyPlan{
		Monday:    slots[0],
		Tuesday:   slots[1],
		Wednesday: slots[2],
		Thursday: ListSlot{
			Focus: FocusBestCase,
			Items: topByAmount(opps, func(o model.Opportunity) bool {
				return o.Probability >= bestCaseFloor && o.Probability < committedFloor
			}),
		},
		Friday: ListSlot{
			Focus: FocusCommitted,
			Items: topByAmount(opps, func(o model.Opportunity) bool {
				return o.Probability >= committedFloor
			}),
		},
	}
}

type countryRisk struct {
	country string
	amount  float64
}

// rankCountries orders countries by accumulated LargeLowProbability amount,
// descending. Ties keep the order in which countries first appear.
func rankCountries(opps []model.Opportunity) []countryRisk {
	pos := make(map[string]int)
	var ranked []countryRisk
	for _, o := range opps {
		if !o.HasTag(model.RiskLargeLowProbability) {
			continue
		}
		c := o.Country
		if c == "" {
			c = model.CountryUnknown
		}
		i, ok := pos[c]
		if !ok {
			i = len(ranked)
			pos[c] = i
			ranked = append(ranked, countryRisk{country: c})
		}
		ranked[i].amount += o.Amount
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].amount > ranked[j].amount
	})
	return ranked
}

func topByAmount(opps []model.Opportunity, keep func(model.Opportunity) bool) []model.Opportunity {
	items := []model.Opportunity{}
	for _, o := range opps {
		if keep(o) {
			items = append(items, o)
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Amount > items[j].Amount
	})
	if len(items) > maxSlotItems {
		items = items[:maxSlotItems]
	}
	return items
}
