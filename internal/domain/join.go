package domain

import (
	"math"
	"strconv"
)

// Join inner-joins climate and forest records on exact Country equality.
// Rows come out in climate order, and for each climate row in forest order.
// No match produces an empty, non-nil slice.
func Join(climate []ClimateRecord, forest []ForestRecord) []JoinedRecord {
	byCountry := make(map[string][]int, len(forest))
	for i, f := range forest {
		if f.Country == "" {
			continue
		}
		byCountry[f.Country] = append(byCountry[f.Country], i)
	}

	joined := make([]JoinedRecord, 0)
	for _, c := range climate {
		for _, i := range byCountry[c.Country] {
			f := forest[i]
			joined = append(joined, JoinedRecord{
				Country:      c.Country,
				Year:         c.Year,
				Temperature:  c.Temperature,
				ISO3:         f.ISO3,
				Trend:        f.Trend,
				ClimateExtra: c.Extra,
				ForestExtra:  f.Extra,
			})
		}
	}
	return joined
}

// Column names used by the source files.
const (
	ColCountry     = "Country"
	ColDate        = "Date"
	ColTemperature = "Temperature"
	ColISO3        = "iso3c"
	ColTrend       = "trend"
)

// Suffixes applied to non-key columns present on both sides of the join.
const (
	ClimateSuffix = "_x"
	ForestSuffix  = "_y"
)

type columnSide int

const (
	sideKey columnSide = iota
	sideClimate
	sideForest
)

// JoinedColumn is one column of a flattened joined table.
type JoinedColumn struct {
	Name string

	side   columnSide
	source string
}

// Value returns the display value of this column for r.
func (c JoinedColumn) Value(r JoinedRecord) string {
	switch c.side {
	case sideKey:
		return r.Country
	case sideClimate:
		switch c.source {
		case ColDate:
			return strconv.Itoa(r.Year)
		case ColTemperature:
			return FormatNumber(r.Temperature)
		default:
			return r.ClimateExtra[c.source]
		}
	default:
		switch c.source {
		case ColISO3:
			return r.ISO3
		case ColTrend:
			return FormatNumber(r.Trend)
		default:
			return r.ForestExtra[c.source]
		}
	}
}

// JoinedColumns lays out the flattened joined table: the Country key once,
// then climate columns (Date, Temperature, passthrough), then forest columns
// (iso3c, trend, passthrough). A non-key name present on both sides is kept
// twice, suffixed ClimateSuffix and ForestSuffix.
func JoinedColumns(climateExtra, forestExtra []string) []JoinedColumn {
	left := append([]string{ColDate, ColTemperature}, climateExtra...)
	right := append([]string{ColISO3, ColTrend}, forestExtra...)

	inLeft := make(map[string]bool, len(left))
	for _, n := range left {
		inLeft[n] = true
	}
	inRight := make(map[string]bool, len(right))
	for _, n := range right {
		inRight[n] = true
	}

	cols := make([]JoinedColumn, 0, 1+len(left)+len(right))
	cols = append(cols, JoinedColumn{Name: ColCountry, side: sideKey, source: ColCountry})
	for _, n := range left {
		name := n
		if inRight[n] {
			name += ClimateSuffix
		}
		cols = append(cols, JoinedColumn{Name: name, side: sideClimate, source: n})
	}
	for _, n := range right {
		name := n
		if inLeft[n] {
			name += ForestSuffix
		}
		cols = append(cols, JoinedColumn{Name: name, side: sideForest, source: n})
	}
	return cols
}

// FormatNumber renders v in its shortest exact form, or "" for NaN.
func FormatNumber(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
