package domain

import (
	"math"
	"sort"
)

// CorrelationLabels names the rows and columns of a CorrelationMatrix.
var CorrelationLabels = [2]string{ColTemperature, ColTrend}

// CorrelationMatrix is the symmetric 2x2 Pearson matrix over Temperature and
// trend. Undefined cells are NaN.
type CorrelationMatrix [2][2]float64

// Defined reports whether cell (i, j) holds a number.
func (m CorrelationMatrix) Defined(i, j int) bool {
	return !math.IsNaN(m[i][j])
}

// Correlate computes the Pearson correlation matrix of Temperature and trend
// over rows, using only rows where both values are present. A diagonal cell
// is 1 when its column has at least two observations and nonzero variance;
// the off-diagonal needs both. Everything else is NaN.
func Correlate(rows []JoinedRecord) CorrelationMatrix {
	var xs, ys []float64
	for _, r := range rows {
		if math.IsNaN(r.Temperature) || math.IsNaN(r.Trend) {
			continue
		}
		xs = append(xs, r.Temperature)
		ys = append(ys, r.Trend)
	}

	nan := math.NaN()
	m := CorrelationMatrix{{nan, nan}, {nan, nan}}
	if len(xs) < 2 {
		return m
	}

	mx, my := mean(xs), mean(ys)
	var sxx, syy, sxy float64
	for i := range xs {
		dx, dy := xs[i]-mx, ys[i]-my
		sxx += dx * dx
		syy += dy * dy
		sxy += dx * dy
	}

	if sxx > 0 {
		m[0][0] = 1
	}
	if syy > 0 {
		m[1][1] = 1
	}
	if sxx > 0 && syy > 0 {
		r := sxy / math.Sqrt(sxx*syy)
		r = math.Max(-1, math.Min(1, r))
		m[0][1], m[1][0] = r, r
	}
	return m
}

func mean(vs []float64) float64 {
	var sum float64
	for _, v := range vs {
		sum += v
	}
	return sum / float64(len(vs))
}

// RankingSize is how many countries each dashboard ranking shows.
const RankingSize = 10

// TopHighestDeforestation returns the first n forest records sorted by trend
// ascending (most loss first). Ties keep input order.
func TopHighestDeforestation(forest []ForestRecord, n int) []ForestRecord {
	return topByTrend(forest, n, func(a, b float64) bool { return a < b })
}

// TopLowestDeforestation returns the first n forest records sorted by trend
// descending. Ties keep input order.
func TopLowestDeforestation(forest []ForestRecord, n int) []ForestRecord {
	return topByTrend(forest, n, func(a, b float64) bool { return a > b })
}

func topByTrend(forest []ForestRecord, n int, less func(a, b float64) bool) []ForestRecord {
	sorted := make([]ForestRecord, len(forest))
	copy(sorted, forest)
	sort.SliceStable(sorted, func(i, j int) bool {
		return less(sorted[i].Trend, sorted[j].Trend)
	})
	if n < 0 {
		n = 0
	}
	if n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted
}
