package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/couchcryptid/forest-climate-dashboard/internal/domain"
	"github.com/couchcryptid/forest-climate-dashboard/internal/observability"
	"github.com/couchcryptid/forest-climate-dashboard/internal/view"
	"github.com/jonboulle/clockwork"
)

// TableLoader supplies the base tables. Implementations cache the result.
type TableLoader interface {
	Load() (*domain.Tables, error)
}

// Pipeline builds the data context once and renders dashboards from it.
type Pipeline struct {
	loader   TableLoader
	resolver domain.CountryResolver
	logger   *slog.Logger
	metrics  *observability.Metrics
	clock    clockwork.Clock

	prepareOnce sync.Once
	prepareErr  error
	data        atomic.Pointer[DataContext]
	ready       atomic.Bool
}

// New creates a Pipeline. A nil clock uses the real clock.
func New(loader TableLoader, resolver domain.CountryResolver, logger *slog.Logger, metrics *observability.Metrics, clock clockwork.Clock) *Pipeline {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Pipeline{
		loader:   loader,
		resolver: resolver,
		logger:   logger,
		metrics:  metrics,
		clock:    clock,
	}
}

// Prepare loads, normalizes and joins the tables and stores the resulting
// data context. Only the first call does any work; later calls return the
// same error.
func (p *Pipeline) Prepare() error {
	p.prepareOnce.Do(func() {
		p.prepareErr = p.prepare()
	})
	return p.prepareErr
}

func (p *Pipeline) prepare() error {
	tables, err := p.loader.Load()
	if err != nil {
		return fmt.Errorf("load tables: %w", err)
	}
	p.metrics.DatasetRows.WithLabelValues("climate").Set(float64(len(tables.Climate)))
	p.metrics.DatasetRows.WithLabelValues("forest").Set(float64(len(tables.Forest)))
	p.logger.Info("dataset loaded",
		"climate_rows", len(tables.Climate),
		"forest_rows", len(tables.Forest),
	)

	dc := NewDataContext(tables, p.resolver)

	resolved := len(dc.Forest) + dc.Incomplete
	p.metrics.CountryLookups.WithLabelValues("resolved").Add(float64(resolved))
	p.metrics.CountryLookups.WithLabelValues("unresolved").Add(float64(len(dc.Unresolved)))
	p.metrics.DatasetRows.WithLabelValues("forest_normalized").Set(float64(len(dc.Forest)))
	p.metrics.DatasetRows.WithLabelValues("joined").Set(float64(len(dc.Joined)))

	if len(dc.Unresolved) > 0 {
		p.logger.Info("dropped forest rows with unresolved codes", "count", len(dc.Unresolved))
		p.logger.Debug("unresolved codes", "codes", dc.Unresolved)
	}
	if dc.Incomplete > 0 {
		p.logger.Info("dropped forest rows with missing trend", "count", dc.Incomplete)
	}
	p.logger.Info("data context ready",
		"forest_rows", len(dc.Forest),
		"joined_rows", len(dc.Joined),
		"countries", len(dc.Domain.Countries),
		"years", len(dc.Domain.Years),
	)

	p.data.Store(dc)
	p.ready.Store(true)
	p.metrics.DataReady.Set(1)
	return nil
}

// CheckReadiness returns nil once the data context has been built.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("data context has not been built yet")
	}
	return nil
}

// Data returns the data context, or nil before Prepare succeeds.
func (p *Pipeline) Data() *DataContext {
	return p.data.Load()
}

// Defaults returns the initial filter values. Before Prepare it returns the
// zero Filters.
func (p *Pipeline) Defaults() domain.Filters {
	dc := p.data.Load()
	if dc == nil {
		return domain.Filters{}
	}
	return dc.Defaults
}

// ErrNotReady is returned by Render before Prepare has succeeded.
var ErrNotReady = errors.New("pipeline not ready")

// Render runs one filter/aggregate/shape pass for the given surface label
// (used only for metrics).
func (p *Pipeline) Render(surface string, filters domain.Filters, showRaw bool) (view.ViewModel, error) {
	dc := p.data.Load()
	if dc == nil {
		return view.ViewModel{}, ErrNotReady
	}

	start := p.clock.Now()
	vm := Render(dc, filters, showRaw)
	vm.GeneratedAt = p.clock.Now()

	p.metrics.Renders.WithLabelValues(surface).Inc()
	p.metrics.RenderDuration.Observe(p.clock.Since(start).Seconds())
	p.metrics.FilteredRows.Observe(float64(len(vm.Filtered.Rows)))
	p.logger.Debug("dashboard rendered",
		"surface", surface,
		"country", filters.Country,
		"year", filters.Year,
		"rows", len(vm.Filtered.Rows),
	)
	return vm, nil
}

// Render is the pure dashboard function: it filters dc's joined table,
// computes the correlation matrix and rankings, and shapes the result.
// GeneratedAt is left zero.
func Render(dc *DataContext, filters domain.Filters, showRaw bool) view.ViewModel {
	filtered := filters.Apply(dc.Joined)

	in := view.Input{
		Filters:     filters,
		Domain:      dc.Domain,
		Columns:     dc.Columns,
		Filtered:    filtered,
		Correlation: domain.Correlate(filtered),
		Highest:     dc.Highest,
		Lowest:      dc.Lowest,
	}
	if showRaw {
		in.Raw = dc.Joined
	}
	return view.Build(in)
}
