package model

import "strings"

// RiskTag identifies one risk rule that matched an opportunity.
type RiskTag string

const (
	RiskLargeLowProbability           RiskTag = "LargeLowProbability"
	RiskProjectConcentration          RiskTag = "ProjectConcentration"
	RiskCommittedWithoutPurchaseOrder RiskTag = "CommittedWithoutPurchaseOrder"
	RiskStalled                       RiskTag = "Stalled"
)

// AllRiskTags returns every tag in canonical order.
func AllRiskTags() []RiskTag {
	return []RiskTag{
		RiskLargeLowProbability,
		RiskProjectConcentration,
		RiskCommittedWithoutPurchaseOrder,
		RiskStalled,
	}
}

// legacyRiskTags folds the older alert vocabularies into the canonical set.
var legacyRiskTags = map[string]RiskTag{
	"large_low_prob":        RiskLargeLowProbability,
	"high value / low prob": RiskLargeLowProbability,
	"pi_concentration":      RiskProjectConcentration,
	"concentration":         RiskProjectConcentration,
	"committed_no_po":       RiskCommittedWithoutPurchaseOrder,
	"stalled":               RiskStalled,
}

// ParseRiskTag resolves a canonical or legacy tag name.
func ParseRiskTag(s string) (RiskTag, bool) {
	s = strings.TrimSpace(s)
	for _, t := range AllRiskTags() {
		if strings.EqualFold(s, string(t)) {
			return t, true
		}
	}
	t, ok := legacyRiskTags[strings.ToLower(s)]
	return t, ok
}

// ParseRiskTags resolves a list of tag names, dropping unknown and duplicate
// entries and returning the result in canonical order.
func ParseRiskTags(names []string) []RiskTag {
	seen := make(map[RiskTag]bool, len(names))
	for _, n := range names {
		if t, ok := ParseRiskTag(n); ok {
			seen[t] = true
		}
	}
	return orderTags(seen)
}

// SortRiskTags returns tags deduplicated and in canonical order.
func SortRiskTags(tags []RiskTag) []RiskTag {
	seen := make(map[RiskTag]bool, len(tags))
	for _, t := range tags {
		seen[t] = true
	}
	return orderTags(seen)
}

func orderTags(seen map[RiskTag]bool) []RiskTag {
	var out []RiskTag
	for _, t := range AllRiskTags() {
		if seen[t] {
			out = append(out, t)
		}
	}
	return out
}

// RiskTagStrings converts tags to their string form.
func RiskTagStrings(tags []RiskTag) []string {
	out := make([]string, len(tags))
	for i, t := range tags {
		out[i] = string(t)
	}
	return out
}
