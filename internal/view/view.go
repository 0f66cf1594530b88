// Package view shapes pipeline results into display-ready structures: the
// control definitions, tables and declarative chart specs that the HTTP
// page, JSON API, chart renderer and exporters consume. It computes nothing.
package view

import (
	"encoding/json"
	"math"
	"slices"
	"strconv"
	"time"

	"github.com/couchcryptid/forest-climate-dashboard/internal/domain"
)

// Titles and axis labels shown on the dashboard.
const (
	DashboardTitle = "Climate Change and Deforestation Dashboard"
	FilteredTitle  = "Filtered Data"
	RawTitle       = "Raw Data"

	ScatterTitle  = "Relationship Between Deforestation and Temperature Increase"
	ScatterXLabel = "Deforestation Trend (Negative = Loss)"
	ScatterYLabel = "Temperature (°C)"

	HeatmapTitle = "Correlation Heatmap: Forest Cover vs. CO2 Emissions"

	HighestTitle = "Top 10 Countries with Highest Deforestation"
	LowestTitle  = "Top 10 Countries with Lowest Deforestation"
	BarXLabel    = "Deforestation Trend"
	BarYLabel    = "Country"

	CountryLabel     = "Select Country"
	YearLabel        = "Select Year"
	TemperatureLabel = "Select Temperature Range"
	TrendLabel       = "Select Deforestation Trend Range"
)

// Undefined is how an undefined coefficient is displayed.
const Undefined = "n/a"

// Coefficient is a correlation value that may be undefined (NaN). It
// marshals to JSON null when undefined.
type Coefficient float64

// Defined reports whether c is a number.
func (c Coefficient) Defined() bool { return !math.IsNaN(float64(c)) }

// String formats c with two decimals, or Undefined.
func (c Coefficient) String() string {
	if !c.Defined() {
		return Undefined
	}
	return strconv.FormatFloat(float64(c), 'f', 2, 64)
}

func (c Coefficient) MarshalJSON() ([]byte, error) {
	if !c.Defined() {
		return []byte("null"), nil
	}
	return json.Marshal(float64(c))
}

// Table is a rectangular display table.
type Table struct {
	Title   string     `json:"title"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Empty reports whether the table has no rows.
func (t Table) Empty() bool { return len(t.Rows) == 0 }

// Select is a single-choice control.
type Select[T comparable] struct {
	Label    string `json:"label"`
	Options  []T    `json:"options"`
	Selected T      `json:"selected"`
}

// Slider is a dual-ended range control.
type Slider struct {
	Label  string       `json:"label"`
	Bounds domain.Range `json:"bounds"`
	Value  domain.Range `json:"value"`
}

// Controls describes the four sidebar controls and their current values.
type Controls struct {
	Country     Select[string] `json:"country"`
	Year        Select[int]    `json:"year"`
	Temperature Slider         `json:"temperature"`
	Trend       Slider         `json:"trend"`
}

// Point is one scatter point.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ScatterSpec is a scatter chart of trend (x) against temperature (y).
type ScatterSpec struct {
	Title  string  `json:"title"`
	XLabel string  `json:"x_label"`
	YLabel string  `json:"y_label"`
	Points []Point `json:"points"`
}

// HeatmapSpec is an annotated correlation heatmap.
type HeatmapSpec struct {
	Title       string          `json:"title"`
	Labels      []string        `json:"labels"`
	Matrix      [][]Coefficient `json:"matrix"`
	Annotations [][]string      `json:"annotations"`
}

// BarSpec is a horizontal bar chart, one bar per category.
type BarSpec struct {
	Title      string    `json:"title"`
	XLabel     string    `json:"x_label"`
	YLabel     string    `json:"y_label"`
	Categories []string  `json:"categories"`
	Values     []float64 `json:"values"`
}

// ViewModel is everything one dashboard render displays.
type ViewModel struct {
	Title       string         `json:"title"`
	Filters     domain.Filters `json:"filters"`
	Controls    Controls       `json:"controls"`
	Filtered    Table          `json:"filtered"`
	Raw         *Table         `json:"raw,omitempty"`
	Scatter     ScatterSpec    `json:"scatter"`
	Heatmap     HeatmapSpec    `json:"heatmap"`
	Highest     BarSpec        `json:"highest"`
	Lowest      BarSpec        `json:"lowest"`
	GeneratedAt time.Time      `json:"generated_at"`
}

// ControlDomain is the static part of the controls: what can be chosen.
type ControlDomain struct {
	Countries   []string
	Years       []int
	Temperature domain.Range
	Trend       domain.Range
}

// Input is one pipeline run's results, ready to be shaped.
type Input struct {
	Filters     domain.Filters
	Domain      ControlDomain
	Columns     []domain.JoinedColumn
	Filtered    []domain.JoinedRecord
	Raw         []domain.JoinedRecord // nil unless the raw table was requested
	Correlation domain.CorrelationMatrix
	Highest     []domain.ForestRecord
	Lowest      []domain.ForestRecord
	GeneratedAt time.Time
}

// Build shapes in into a ViewModel.
func Build(in Input) ViewModel {
	vm := ViewModel{
		Title:       DashboardTitle,
		Filters:     in.Filters,
		Controls:    NewControls(in.Domain, in.Filters),
		Filtered:    NewTable(FilteredTitle, in.Columns, in.Filtered),
		Scatter:     NewScatter(in.Filtered),
		Heatmap:     NewHeatmap(in.Correlation),
		Highest:     NewBar(HighestTitle, in.Highest),
		Lowest:      NewBar(LowestTitle, in.Lowest),
		GeneratedAt: in.GeneratedAt,
	}
	if in.Raw != nil {
		raw := NewTable(RawTitle, in.Columns, in.Raw)
		vm.Raw = &raw
	}
	return vm
}

// NewControls describes the controls for the given domain and current values.
func NewControls(d ControlDomain, f domain.Filters) Controls {
	return Controls{
		Country:     Select[string]{Label: CountryLabel, Options: nonNil(d.Countries), Selected: f.Country},
		Year:        Select[int]{Label: YearLabel, Options: nonNil(d.Years), Selected: f.Year},
		Temperature: Slider{Label: TemperatureLabel, Bounds: d.Temperature, Value: f.Temperature},
		Trend:       Slider{Label: TrendLabel, Bounds: d.Trend, Value: f.Trend},
	}
}

// NewTable flattens rows using the joined column layout.
func NewTable(title string, cols []domain.JoinedColumn, rows []domain.JoinedRecord) Table {
	t := Table{
		Title:   title,
		Columns: make([]string, len(cols)),
		Rows:    make([][]string, len(rows)),
	}
	for i, c := range cols {
		t.Columns[i] = c.Name
	}
	for i, r := range rows {
		row := make([]string, len(cols))
		for j, c := range cols {
			row[j] = c.Value(r)
		}
		t.Rows[i] = row
	}
	return t
}

// NewScatter plots trend against temperature for each row.
func NewScatter(rows []domain.JoinedRecord) ScatterSpec {
	s := ScatterSpec{
		Title:  ScatterTitle,
		XLabel: ScatterXLabel,
		YLabel: ScatterYLabel,
		Points: make([]Point, 0, len(rows)),
	}
	for _, r := range rows {
		if math.IsNaN(r.Trend) || math.IsNaN(r.Temperature) {
			continue
		}
		s.Points = append(s.Points, Point{X: r.Trend, Y: r.Temperature})
	}
	return s
}

// NewHeatmap annotates the correlation matrix.
func NewHeatmap(m domain.CorrelationMatrix) HeatmapSpec {
	h := HeatmapSpec{
		Title:       HeatmapTitle,
		Labels:      slices.Clone(domain.CorrelationLabels[:]),
		Matrix:      make([][]Coefficient, len(m)),
		Annotations: make([][]string, len(m)),
	}
	for i := range m {
		h.Matrix[i] = make([]Coefficient, len(m[i]))
		h.Annotations[i] = make([]string, len(m[i]))
		for j := range m[i] {
			c := Coefficient(m[i][j])
			h.Matrix[i][j] = c
			h.Annotations[i][j] = c.String()
		}
	}
	return h
}

// NewBar lists countries and trends in ranking order.
func NewBar(title string, ranked []domain.ForestRecord) BarSpec {
	b := BarSpec{
		Title:      title,
		XLabel:     BarXLabel,
		YLabel:     BarYLabel,
		Categories: make([]string, len(ranked)),
		Values:     make([]float64, len(ranked)),
	}
	for i, r := range ranked {
		b.Categories[i] = r.Country
		b.Values[i] = r.Trend
	}
	return b
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
