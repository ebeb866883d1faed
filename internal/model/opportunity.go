// Package model defines the records shared by the forecast, risk, and planning engines.
package model

import (
	"strings"
	"time"
)

// OpportunityStatus is the lifecycle state of an opportunity.
type OpportunityStatus string

const (
	StatusActive     OpportunityStatus = "Active"
	StatusClosedWon  OpportunityStatus = "Closed Won"
	StatusClosedLost OpportunityStatus = "Closed Lost"
)

// ParseStatus maps free-text status values onto the lifecycle enumeration.
// Anything that is not recognisably won or lost is treated as active.
func ParseStatus(s string) OpportunityStatus {
	v := strings.ToLower(strings.TrimSpace(s))
	switch {
	case strings.Contains(v, "won"), strings.Contains(v, "ganad"):
		return StatusClosedWon
	case strings.Contains(v, "lost"), strings.Contains(v, "perdid"):
		return StatusClosedLost
	default:
		return StatusActive
	}
}

// Country scopes used by targets and unresolved opportunities.
const (
	CountryGeneral = "General"
	CountryUnknown = "Unknown"
)

// Opportunity is a single pipeline deal as materialized from the data store.
type Opportunity struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	AccountID      string            `json:"account_id"`
	Amount         float64           `json:"amount"`
	Probability    float64           `json:"probability"`
	WeightedAmount float64           `json:"weighted_amount,omitempty"` // precomputed at import, 0 = absent
	RiskTags       []RiskTag         `json:"risk_tags,omitempty"`       // precomputed at import
	ProjectID      string            `json:"pi_number,omitempty"`
	PurchaseOrder  string            `json:"po_number,omitempty"`
	CloseDate      string            `json:"close_date"` // YYYY-MM-DD
	Stage          string            `json:"stage"`
	Status         OpportunityStatus `json:"status"`
	Country        string            `json:"country,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
}

// IsActive reports whether the opportunity is still open.
func (o Opportunity) IsActive() bool {
	return o.Status == StatusActive
}

// CloseMonth returns the "YYYY-MM" period of the close date.
func (o Opportunity) CloseMonth() string {
	return MonthKey(o.CloseDate)
}

// Weighted returns amount × probability / 100.
func (o Opportunity) Weighted() float64 {
	return o.Amount * o.Probability / 100
}

// EffectiveWeighted prefers the import-time weighted amount and falls back
// to Weighted when none was stored.
func (o Opportunity) EffectiveWeighted() float64 {
	if o.WeightedAmount > 0 {
		return o.WeightedAmount
	}
	return o.Weighted()
}

// HasTag reports whether tag is among the opportunity's precomputed tags.
func (o Opportunity) HasTag(tag RiskTag) bool {
	for _, t := range o.RiskTags {
		if t == tag {
			return true
		}
	}
	return false
}

// AccountCountryMap resolves an account ID to its country code.
type AccountCountryMap map[string]string

// Account is a customer account.
type Account struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Country string `json:"country"`
}

// AOPTarget is a monthly plan target, optionally scoped to one country.
type AOPTarget struct {
	ID           string  `json:"id,omitempty"`
	MonthPeriod  string  `json:"month_period"` // YYYY-MM or YYYY-MM-01
	TargetAmount float64 `json:"target_amount"`
	Country      string  `json:"country,omitempty"`
}

// Month returns the normalised "YYYY-MM" period.
func (t AOPTarget) Month() string {
	return MonthKey(t.MonthPeriod)
}

// IsGeneral reports whether the target applies to all countries.
func (t AOPTarget) IsGeneral() bool {
	return t.Country == "" || strings.EqualFold(t.Country, CountryGeneral)
}

// SalesRecord is a booked sale.
type SalesRecord struct {
	ID        string  `json:"id,omitempty"`
	AccountID string  `json:"account_id,omitempty"`
	Amount    float64 `json:"amount"`
	SaleDate  string  `json:"sale_date"` // YYYY-MM-DD
}

// Month returns the "YYYY-MM" period of the sale.
func (s SalesRecord) Month() string {
	return MonthKey(s.SaleDate)
}

// MonthKey truncates an ISO date or month period to "YYYY-MM".
func MonthKey(date string) string {
	if len(date) < 7 {
		return date
	}
	return date[:7]
}
