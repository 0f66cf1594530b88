package domain

import "math"

// Range is a closed interval [Min, Max].
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether Min <= v <= Max. NaN is never contained.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Filters holds the four dashboard controls. All four apply at once.
type Filters struct {
	Country     string `json:"country"`
	Year        int    `json:"year"`
	Temperature Range  `json:"temperature"`
	Trend       Range  `json:"trend"`
}

// MatchCountry is the exact country predicate.
func (f Filters) MatchCountry(r JoinedRecord) bool { return r.Country == f.Country }

// MatchYear is the exact year predicate.
func (f Filters) MatchYear(r JoinedRecord) bool { return r.Year == f.Year }

// MatchTemperature is the inclusive temperature range predicate.
func (f Filters) MatchTemperature(r JoinedRecord) bool { return f.Temperature.Contains(r.Temperature) }

// MatchTrend is the inclusive trend range predicate.
func (f Filters) MatchTrend(r JoinedRecord) bool { return f.Trend.Contains(r.Trend) }

// Match reports whether r satisfies all four predicates.
func (f Filters) Match(r JoinedRecord) bool {
	return f.MatchCountry(r) && f.MatchYear(r) && f.MatchTemperature(r) && f.MatchTrend(r)
}

// Apply returns the rows matching all filters as a new slice, preserving
// order. The result may be empty; rows is never modified.
func (f Filters) Apply(rows []JoinedRecord) []JoinedRecord {
	out := make([]JoinedRecord, 0)
	for _, r := range rows {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

// Bounds returns the min/max of the non-NaN values produced by value over
// rows. ok is false when there is no such value.
func Bounds(rows []JoinedRecord, value func(JoinedRecord) float64) (Range, bool) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, r := range rows {
		v := value(r)
		if math.IsNaN(v) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo > hi {
		return Range{}, false
	}
	return Range{Min: lo, Max: hi}, true
}

// Temperature and Trend extract the numeric columns for Bounds and Correlate.
func Temperature(r JoinedRecord) float64 { return r.Temperature }
func Trend(r JoinedRecord) float64       { return r.Trend }

// Countries lists the distinct countries of rows in order of first appearance.
func Countries(rows []JoinedRecord) []string {
	seen := make(map[string]bool)
	out := make([]string, 0)
	for _, r := range rows {
		if !seen[r.Country] {
			seen[r.Country] = true
			out = append(out, r.Country)
		}
	}
	return out
}

// Years lists the distinct climate years in order of first appearance.
func Years(climate []ClimateRecord) []int {
	seen := make(map[int]bool)
	out := make([]int, 0)
	for _, c := range climate {
		if !seen[c.Year] {
			seen[c.Year] = true
			out = append(out, c.Year)
		}
	}
	return out
}

// DefaultFilters returns the initial control values: the first country and
// year offered, and the widest temperature and trend ranges over joined.
// With no joined rows the ranges are zero and nothing will match.
func DefaultFilters(joined []JoinedRecord, years []int) Filters {
	var f Filters
	if countries := Countries(joined); len(countries) > 0 {
		f.Country = countries[0]
	}
	if len(years) > 0 {
		f.Year = years[0]
	}
	f.Temperature, _ = Bounds(joined, Temperature)
	f.Trend, _ = Bounds(joined, Trend)
	return f
}
