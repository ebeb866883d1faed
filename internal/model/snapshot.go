package model

// Snapshot is the read-only input of a single analysis pass.
type Snapshot struct {
	Opportunities []Opportunity `json:"opportunities"`
	Sales         []SalesRecord `json:"sales"`
	Targets       []AOPTarget   `json:"targets"`
	Accounts      []Account     `json:"accounts"`
}

// AccountCountry builds the account → country lookup from the snapshot's accounts.
func (s Snapshot) AccountCountry() AccountCountryMap {
	m := make(AccountCountryMap, len(s.Accounts))
	for _, a := range s.Accounts {
		if a.Country != "" {
			m[a.ID] = a.Country
		}
	}
	return m
}
