// Package countries resolves ISO 3166-1 alpha-3 codes to country names using
// the github.com/biter777/countries tables.
package countries

import (
	"github.com/biter777/countries"

	"github.com/couchcryptid/forest-climate-dashboard/internal/domain"
)

// Resolver implements domain.CountryResolver against the bundled ISO 3166
// tables. Only exact, upper-case alpha-3 codes resolve; country names and
// alpha-2 codes are rejected even though the underlying lookup accepts them.
type Resolver struct{}

// NewResolver returns a Resolver.
func NewResolver() *Resolver {
	return &Resolver{}
}

// Resolve returns the short English name for code, or Unresolved.
func (*Resolver) Resolve(code string) domain.Resolution {
	if !isAlpha3(code) {
		return domain.Unresolved()
	}
	c := countries.ByName(code)
	if !c.IsValid() || c.Alpha3() != code {
		return domain.Unresolved()
	}
	name := c.String()
	if name == "" || name == "Unknown" {
		return domain.Unresolved()
	}
	return domain.Resolved(name)
}

func isAlpha3(code string) bool {
	if len(code) != 3 {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < 'A' || code[i] > 'Z' {
			return false
		}
	}
	return true
}
