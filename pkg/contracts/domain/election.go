package domain

import "strings"

// Party identifies one of the two parties carried by the results table
type Party string

const (
	PartyDemocrat   Party = "Democrat"
	PartyRepublican Party = "Republican"
)

// PartyA and PartyB follow the column order of the results table.
// A tied region is won by PartyB.
const (
	PartyA = PartyDemocrat
	PartyB = PartyRepublican
)

// Parties returns both parties in table order
func Parties() []Party {
	return []Party{PartyA, PartyB}
}

// Valid reports whether p is one of the tracked parties
func (p Party) Valid() bool {
	return p == PartyA || p == PartyB
}

// ShareColumn returns the geo table column holding the party's vote share
func (p Party) ShareColumn() Column {
	if p == PartyB {
		return ColumnPartyBShare
	}
	return ColumnPartyAShare
}

// ParseParty resolves a party name case-insensitively
func ParseParty(s string) (Party, bool) {
	for _, p := range Parties() {
		if strings.EqualFold(strings.TrimSpace(s), string(p)) {
			return p, true
		}
	}
	return "", false
}

// Winner applies the tie policy: PartyA wins only with a strictly greater share.
func Winner(shareA, shareB float64) Party {
	if shareA > shareB {
		return PartyA
	}
	return PartyB
}

// RawResultRow is one row lifted from an election results table, before the
// region label has been normalized.
type RawResultRow struct {
	Region    string  `json:"region"`
	ShareA    float64 `json:"share_a"`
	ShareB    float64 `json:"share_b"`
	RawShareA string  `json:"-"`
	RawShareB string  `json:"-"`
}

// ElectionRow is a result row whose region has been resolved through the lookup tables
type ElectionRow struct {
	Name         string  `json:"name"`
	Abbreviation string  `json:"abbreviation"`
	ShareA       float64 `json:"share_a"`
	ShareB       float64 `json:"share_b"`
}
