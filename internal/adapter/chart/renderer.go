// Package chart renders dashboard chart specs to PNG with gonum/plot.
package chart

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"slices"

	"github.com/couchcryptid/forest-climate-dashboard/internal/view"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Chart names accepted by Render.
const (
	Scatter = "scatter"
	Heatmap = "heatmap"
	Highest = "highest"
	Lowest  = "lowest"
)

// Names lists every chart Render knows, in page order.
var Names = []string{Scatter, Heatmap, Highest, Lowest}

// ErrUnknownChart is returned by Render for a name not in Names.
var ErrUnknownChart = errors.New("unknown chart")

var (
	pointColor = color.RGBA{R: 34, G: 139, B: 34, A: 255}
	barColor   = color.RGBA{R: 70, G: 130, B: 180, A: 255}
	nanColor   = color.Gray{Y: 200}
)

// Renderer draws charts at a fixed canvas size.
type Renderer struct {
	width  vg.Length
	height vg.Length
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithSize sets the canvas size.
func WithSize(width, height vg.Length) Option {
	return func(r *Renderer) {
		r.width, r.height = width, height
	}
}

// NewRenderer creates a Renderer, 8x5 inches unless overridden.
func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{width: 8 * vg.Inch, height: 5 * vg.Inch}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render writes the named chart of vm to w as PNG.
func (r *Renderer) Render(w io.Writer, name string, vm view.ViewModel) error {
	switch name {
	case Scatter:
		return r.Scatter(w, vm.Scatter)
	case Heatmap:
		return r.Heatmap(w, vm.Heatmap)
	case Highest:
		return r.Bar(w, vm.Highest)
	case Lowest:
		return r.Bar(w, vm.Lowest)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownChart, name)
	}
}

// Scatter draws trend against temperature.
func (r *Renderer) Scatter(w io.Writer, spec view.ScatterSpec) error {
	p := newPlot(spec.Title, spec.XLabel, spec.YLabel)

	if len(spec.Points) > 0 {
		xys := make(plotter.XYs, len(spec.Points))
		for i, pt := range spec.Points {
			xys[i].X = pt.X
			xys[i].Y = pt.Y
		}
		s, err := plotter.NewScatter(xys)
		if err != nil {
			return fmt.Errorf("scatter: %w", err)
		}
		s.GlyphStyle.Color = pointColor
		s.GlyphStyle.Radius = vg.Points(3)
		s.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Add(plotter.NewGrid(), s)
	}

	return r.write(w, p)
}

// Heatmap draws the correlation matrix on a blue/red scale fixed to
// [-1, 1], with undefined cells grey and every cell annotated.
func (r *Renderer) Heatmap(w io.Writer, spec view.HeatmapSpec) error {
	p := newPlot(spec.Title, "", "")
	if len(spec.Matrix) == 0 {
		return r.write(w, p)
	}

	cmap := moreland.SmoothBlueRed()
	cmap.SetMin(-1)
	cmap.SetMax(1)

	g := grid(spec.Matrix)
	hm := plotter.NewHeatMap(g, cmap.Palette(255))
	hm.Min, hm.Max = -1, 1
	hm.NaN = nanColor
	p.Add(hm)

	var (
		xys    plotter.XYs
		labels []string
	)
	for row := range spec.Annotations {
		for col, a := range spec.Annotations[row] {
			xys = append(xys, plotter.XY{X: float64(col), Y: float64(row)})
			labels = append(labels, a)
		}
	}
	if len(xys) > 0 {
		l, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: labels})
		if err != nil {
			return fmt.Errorf("heatmap labels: %w", err)
		}
		for i := range l.TextStyle {
			l.TextStyle[i].XAlign = draw.XCenter
			l.TextStyle[i].YAlign = draw.YCenter
		}
		p.Add(l)
	}

	p.NominalX(spec.Labels...)
	p.NominalY(spec.Labels...)
	return r.write(w, p)
}

// Bar draws one horizontal bar per category, the first category on top.
func (r *Renderer) Bar(w io.Writer, spec view.BarSpec) error {
	p := newPlot(spec.Title, spec.XLabel, spec.YLabel)

	if len(spec.Values) > 0 {
		// NominalY counts from the bottom.
		values := slices.Clone(spec.Values)
		categories := slices.Clone(spec.Categories)
		slices.Reverse(values)
		slices.Reverse(categories)

		bars, err := plotter.NewBarChart(plotter.Values(values), vg.Points(14))
		if err != nil {
			return fmt.Errorf("bar chart: %w", err)
		}
		bars.Horizontal = true
		bars.Color = barColor
		bars.LineStyle.Width = vg.Length(0)
		p.Add(plotter.NewGrid(), bars)
		p.NominalY(categories...)
	}

	return r.write(w, p)
}

func (r *Renderer) write(w io.Writer, p *plot.Plot) error {
	wt, err := p.WriterTo(r.width, r.height, "png")
	if err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write png: %w", err)
	}
	return nil
}

func newPlot(title, xLabel, yLabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	return p
}

// grid adapts a square coefficient matrix to plotter.GridXYZ. Column c is
// drawn at x = c and row r at y = r.
type grid [][]view.Coefficient

func (g grid) Dims() (c, r int) { return len(g[0]), len(g) }
func (g grid) Z(c, r int) float64 { return float64(g[r][c]) }
func (g grid) X(c int) float64    { return float64(c) }
func (g grid) Y(r int) float64    { return float64(r) }

// Min and Max pin the heat map's color range.
func (g grid) Min() float64 { return -1 }
func (g grid) Max() float64 { return 1 }
