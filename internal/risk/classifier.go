package risk

import (
	"time"

	"github.com/sells-group/pipeline-analytics/internal/model"
)

// Options configures a Classifier.
type Options struct {
	// Now is the evaluation instant for time-based rules.
	Now time.Time
	// IncludeStalled enables the staleness rule. It only applies to
	// opportunities that carry no import-time tags.
	IncludeStalled bool
}

// Classifier applies the rule registry to opportunities.
type Classifier struct {
	rules   []Rule
	stalled bool
	ev      Evaluation
}

// NewClassifier builds a classifier with the default rules.
func NewClassifier(opts Options) *Classifier {
	return &Classifier{
		rules:   DefaultRules(),
		stalled: opts.IncludeStalled,
		ev:      Evaluation{Now: opts.Now},
	}
}

// Tags returns the opportunity's precomputed tags merged with the tags of
// every matching per-opportunity rule, in canonical order.
func (c *Classifier) Tags(o model.Opportunity) []model.RiskTag {
	tags := append([]model.RiskTag(nil), o.RiskTags...)
	for _, r := range c.rules {
		if r.Match(o, c.ev) {
			tags = append(tags, r.Tag)
		}
	}
	if c.stalled && len(o.RiskTags) == 0 && stalled.Match(o, c.ev) {
		tags = append(tags, stalled.Tag)
	}
	return model.SortRiskTags(tags)
}

// Assess scores one opportunity. concentrated carries the result of the
// collection-level concentration rule for it.
func (c *Classifier) Assess(o model.Opportunity, concentrated bool) Assessment {
	tags := c.Tags(o)
	if concentrated {
		tags = model.SortRiskTags(append(tags, model.RiskProjectConcentration))
	}
	return Assessment{
		Opportunity: o,
		RiskScore:   Score(tags, o.Probability),
		Reasons:     tags,
	}
}

// AssessAll scores every opportunity, including cross-opportunity
// concentration. Output order matches input order.
func (c *Classifier) AssessAll(opps []model.Opportunity) []Assessment {
	conc := Concentrated(opps)
	out := make([]Assessment, len(opps))
	for i, o := range opps {
		out[i] = c.Assess(o, conc[i])
	}
	return out
}

// Precompute returns copies of opps with their rule tags stored in RiskTags,
// as done once at import time. Stalled is never precomputed.
func Precompute(opps []model.Opportunity) []model.Opportunity {
	c := NewClassifier(Options{})
	assessed := c.AssessAll(opps)
	return Tagged(assessed)
}
