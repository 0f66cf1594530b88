package domain

// Resolution is the outcome of resolving a country code: either a resolved
// name or unresolved. The zero value is unresolved.
type Resolution struct {
	name string
	ok   bool
}

// Resolved returns a successful resolution to name.
func Resolved(name string) Resolution {
	if name == "" {
		return Resolution{}
	}
	return Resolution{name: name, ok: true}
}

// Unresolved returns a failed resolution.
func Unresolved() Resolution {
	return Resolution{}
}

// Name returns the resolved country name and whether resolution succeeded.
func (r Resolution) Name() (string, bool) {
	return r.name, r.ok
}

// IsResolved reports whether the code resolved to a name.
func (r Resolution) IsResolved() bool {
	return r.ok
}

// CountryResolver maps an ISO 3166-1 alpha-3 code to a canonical country name.
// Unknown or malformed codes yield Unresolved, never a panic.
type CountryResolver interface {
	Resolve(code string) Resolution
}

// ResolverFunc adapts a plain function to CountryResolver.
type ResolverFunc func(code string) Resolution

func (f ResolverFunc) Resolve(code string) Resolution { return f(code) }
