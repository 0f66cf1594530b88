package http

import (
	"embed"
	"html/template"
	"io"
	"net/url"

	"github.com/couchcryptid/forest-climate-dashboard/internal/adapter/chart"
	"github.com/couchcryptid/forest-climate-dashboard/internal/view"
)

//go:embed templates/dashboard.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/dashboard.html"))

type chartRef struct {
	Name  string
	Title string
}

type pageData struct {
	VM      view.ViewModel
	ShowRaw bool
	// Query re-encodes the active filters for chart and export links.
	Query  template.URL
	Charts []chartRef
}

func newPageData(vm view.ViewModel, showRaw bool) pageData {
	return pageData{
		VM:      vm,
		ShowRaw: showRaw,
		Query:   template.URL(encodeFilters(vm, showRaw)),
		Charts: []chartRef{
			{Name: chart.Scatter, Title: vm.Scatter.Title},
			{Name: chart.Heatmap, Title: vm.Heatmap.Title},
			{Name: chart.Highest, Title: vm.Highest.Title},
			{Name: chart.Lowest, Title: vm.Lowest.Title},
		},
	}
}

func renderPage(w io.Writer, data pageData) error {
	return pageTemplate.Execute(w, data)
}

func encodeFilters(vm view.ViewModel, showRaw bool) string {
	f := vm.Filters
	v := url.Values{}
	v.Set("country", f.Country)
	v.Set("year", itoa(f.Year))
	v.Set("temp_min", ftoa(f.Temperature.Min))
	v.Set("temp_max", ftoa(f.Temperature.Max))
	v.Set("trend_min", ftoa(f.Trend.Min))
	v.Set("trend_max", ftoa(f.Trend.Max))
	if showRaw {
		v.Set("show_raw", "true")
	}
	return v.Encode()
}
