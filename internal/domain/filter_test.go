package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testBrazil    = "Brazil"
	testIndonesia = "Indonesia"
)

func nan() float64 { return math.NaN() }

func sampleJoined() []JoinedRecord {
	return []JoinedRecord{
		{Country: testBrazil, Year: 2020, Temperature: 26.1, ISO3: "BRA", Trend: -1.2},
		{Country: testBrazil, Year: 2019, Temperature: 25.8, ISO3: "BRA", Trend: -1.2},
		{Country: testIndonesia, Year: 2020, Temperature: 27.4, ISO3: "IDN", Trend: -0.9},
		{Country: testIndonesia, Year: 2020, Temperature: 28.0, ISO3: "IDN", Trend: -0.9},
		{Country: testIndonesia, Year: 2020, Temperature: nan(), ISO3: "IDN", Trend: -0.9},
		{Country: testBrazil, Year: 2020, Temperature: 24.0, ISO3: "BRA", Trend: -1.2},
	}
}

func wideFilters(country string, year int) Filters {
	return Filters{
		Country:     country,
		Year:        year,
		Temperature: Range{Min: math.Inf(-1), Max: math.Inf(1)},
		Trend:       Range{Min: math.Inf(-1), Max: math.Inf(1)},
	}
}

func TestRange_Contains(t *testing.T) {
	r := Range{Min: 1, Max: 2}

	tests := []struct {
		name string
		v    float64
		want bool
	}{
		{"lower bound inclusive", 1, true},
		{"upper bound inclusive", 2, true},
		{"inside", 1.5, true},
		{"below", 0.999, false},
		{"above", 2.001, false},
		{"NaN", nan(), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Contains(tt.v))
		})
	}
}

func TestFilters_Apply_YearExample(t *testing.T) {
	rows := []JoinedRecord{
		{Country: testBrazil, Year: 2020, Temperature: 26.1, Trend: -1.2},
		{Country: testBrazil, Year: 2019, Temperature: 25.8, Trend: -1.2},
	}
	f := DefaultFilters(rows, []int{2020, 2019})

	out := f.Apply(rows)

	require.Len(t, out, 1)
	assert.Equal(t, rows[0], out[0])
}

func TestFilters_Apply(t *testing.T) {
	rows := sampleJoined()

	t.Run("country is exact, not prefix", func(t *testing.T) {
		out := wideFilters("Brazi", 2020).Apply(rows)
		assert.Empty(t, out)
	})

	t.Run("country and year", func(t *testing.T) {
		out := wideFilters(testIndonesia, 2020).Apply(rows)
		assert.Len(t, out, 2, "NaN temperature never matches a range")
	})

	t.Run("temperature bounds inclusive", func(t *testing.T) {
		f := wideFilters(testIndonesia, 2020)
		f.Temperature = Range{Min: 27.4, Max: 27.4}
		out := f.Apply(rows)
		require.Len(t, out, 1)
		assert.Equal(t, 27.4, out[0].Temperature)
	})

	t.Run("trend range excludes", func(t *testing.T) {
		f := wideFilters(testBrazil, 2020)
		f.Trend = Range{Min: -1.0, Max: 0}
		assert.Empty(t, f.Apply(rows))
	})

	t.Run("empty input", func(t *testing.T) {
		out := wideFilters(testBrazil, 2020).Apply(nil)
		require.NotNil(t, out)
		assert.Empty(t, out)
	})

	t.Run("does not mutate input", func(t *testing.T) {
		before := len(rows)
		_ = wideFilters(testBrazil, 2020).Apply(rows)
		assert.Len(t, rows, before)
		assert.Equal(t, testBrazil, rows[0].Country)
	})
}

func TestFilters_Idempotent(t *testing.T) {
	rows := sampleJoined()
	f := wideFilters(testBrazil, 2020)
	f.Temperature = Range{Min: 25, Max: 27}

	once := f.Apply(rows)
	twice := f.Apply(once)

	assert.Equal(t, once, twice)
}

func TestFilters_Conjunctive(t *testing.T) {
	rows := sampleJoined()
	f := Filters{
		Country:     testIndonesia,
		Year:        2020,
		Temperature: Range{Min: 27, Max: 27.5},
		Trend:       Range{Min: -1, Max: 0},
	}

	predicates := []func(JoinedRecord) bool{f.MatchTrend, f.MatchYear, f.MatchTemperature, f.MatchCountry}

	// Apply one predicate at a time, in reverse order, and compare.
	sequential := rows
	for _, p := range predicates {
		var next []JoinedRecord
		for _, r := range sequential {
			if p(r) {
				next = append(next, r)
			}
		}
		sequential = next
	}

	all := f.Apply(rows)
	require.Len(t, all, 1)
	assert.Equal(t, all, sequential)
}

func TestBounds(t *testing.T) {
	t.Run("ignores NaN", func(t *testing.T) {
		r, ok := Bounds(sampleJoined(), Temperature)
		require.True(t, ok)
		assert.Equal(t, Range{Min: 24.0, Max: 28.0}, r)
	})

	t.Run("empty", func(t *testing.T) {
		r, ok := Bounds(nil, Trend)
		assert.False(t, ok)
		assert.Equal(t, Range{}, r)
	})

	t.Run("all NaN", func(t *testing.T) {
		_, ok := Bounds([]JoinedRecord{{Temperature: nan()}}, Temperature)
		assert.False(t, ok)
	})
}

func TestCountriesAndYears(t *testing.T) {
	assert.Equal(t, []string{testBrazil, testIndonesia}, Countries(sampleJoined()))

	climate := []ClimateRecord{{Year: 2001}, {Year: 1999}, {Year: 2001}, {Year: 2005}}
	assert.Equal(t, []int{2001, 1999, 2005}, Years(climate))
}

func TestDefaultFilters(t *testing.T) {
	t.Run("widest ranges and first options", func(t *testing.T) {
		f := DefaultFilters(sampleJoined(), []int{2019, 2020})

		assert.Equal(t, testBrazil, f.Country)
		assert.Equal(t, 2019, f.Year)
		assert.Equal(t, Range{Min: 24.0, Max: 28.0}, f.Temperature)
		assert.Equal(t, Range{Min: -1.2, Max: -0.9}, f.Trend)
	})

	t.Run("defaults are non-restrictive on ranges", func(t *testing.T) {
		rows := sampleJoined()
		f := DefaultFilters(rows, nil)
		for _, r := range rows {
			if math.IsNaN(r.Temperature) {
				continue
			}
			assert.True(t, f.MatchTemperature(r))
			assert.True(t, f.MatchTrend(r))
		}
	})

	t.Run("empty joined table", func(t *testing.T) {
		f := DefaultFilters(nil, nil)
		assert.Equal(t, Filters{}, f)
		assert.Empty(t, f.Apply(nil))
	})
}
