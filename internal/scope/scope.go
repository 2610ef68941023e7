// Package scope narrows data visibility for regionally assigned admins.
package scope

import (
	"strings"

	"golang.org/x/text/cases"
)

// Region is a single country + region assignment.
type Region struct {
	Country string `json:"country"`
	Region  string `json:"region"`
}

// Scope is the set of regions a regional admin may see. An empty scope
// matches nothing: an admin without assignments sees zero rows, never all.
type Scope []Region

// Address is the normalized location of a marketplace record. Repositories
// build it once at the data boundary so matching and display logic never
// re-parse raw address payloads.
type Address struct {
	Country string
	State   string
	City    string
	Zip     string
}

var folder = cases.Fold()

func norm(s string) string {
	return folder.String(strings.TrimSpace(s))
}

// Matches reports whether the address falls inside the scope. Comparison is
// case-insensitive, whitespace-trimmed equality on country plus state, or
// country plus city when the record carries no state. No fuzzy matching.
func Matches(addr Address, sc Scope) bool {
	if len(sc) == 0 {
		return false
	}
	country := norm(addr.Country)
	region := norm(addr.State)
	if region == "" {
		region = norm(addr.City)
	}
	if country == "" || region == "" {
		return false
	}
	for _, entry := range sc {
		if norm(entry.Country) == country && norm(entry.Region) == region {
			return true
		}
	}
	return false
}

// Contains reports whether the scope already carries the given region.
func (sc Scope) Contains(r Region) bool {
	for _, entry := range sc {
		if norm(entry.Country) == norm(r.Country) && norm(entry.Region) == norm(r.Region) {
			return true
		}
	}
	return false
}
