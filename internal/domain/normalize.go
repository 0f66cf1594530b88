package domain

import (
	"math"
	"slices"
	"strings"
)

// MissingMarkers are the cell texts read as a missing value.
var MissingMarkers = []string{"", "NA", "NaN", "nan", "<nil>"}

// IsMissing reports whether a raw cell holds no value.
func IsMissing(s string) bool {
	return slices.Contains(MissingMarkers, strings.TrimSpace(s))
}

// NormalizeResult is the forest table after country resolution.
type NormalizeResult struct {
	Records []ForestRecord

	// Unresolved lists the codes that did not resolve, in input order.
	Unresolved []string

	// Incomplete counts resolved rows dropped for a missing trend or a
	// missing passthrough value.
	Incomplete int
}

// NormalizeForest resolves every row's ISO3 code to a country name and keeps
// only rows that resolved and have no missing cell. Input order is preserved
// and the input slice is not modified. A nil resolver resolves nothing.
func NormalizeForest(records []ForestRecord, resolver CountryResolver) NormalizeResult {
	resolutions := make([]Resolution, len(records))
	if resolver != nil {
		for i := range records {
			resolutions[i] = resolver.Resolve(records[i].ISO3)
		}
	}

	res := NormalizeResult{Records: make([]ForestRecord, 0, len(records))}
	for i, rec := range records {
		name, ok := resolutions[i].Name()
		if !ok {
			res.Unresolved = append(res.Unresolved, rec.ISO3)
			continue
		}
		if !rec.complete() {
			res.Incomplete++
			continue
		}
		rec.Country = name
		res.Records = append(res.Records, rec)
	}
	return res
}

func (r ForestRecord) complete() bool {
	if math.IsNaN(r.Trend) {
		return false
	}
	for _, v := range r.Extra {
		if IsMissing(v) {
			return false
		}
	}
	return true
}
