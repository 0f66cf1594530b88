package pipeline_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/couchcryptid/forest-climate-dashboard/internal/dataset"
	"github.com/couchcryptid/forest-climate-dashboard/internal/domain"
	"github.com/couchcryptid/forest-climate-dashboard/internal/observability"
	"github.com/couchcryptid/forest-climate-dashboard/internal/pipeline"
	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockLoader struct {
	tables *domain.Tables
	err    error
	calls  int
}

func (m *mockLoader) Load() (*domain.Tables, error) {
	m.calls++
	return m.tables, m.err
}

var names = map[string]string{
	"BRA": "Brazil",
	"CHL": "Chile",
	"IDN": "Indonesia",
	"DEU": "Germany",
}

func mockResolver() domain.CountryResolver {
	return domain.ResolverFunc(func(code string) domain.Resolution {
		if n, ok := names[code]; ok {
			return domain.Resolved(n)
		}
		return domain.Unresolved()
	})
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleTables() *domain.Tables {
	return &domain.Tables{
		Climate: []domain.ClimateRecord{
			{Country: "Brazil", Year: 2000, Temperature: 24},
			{Country: "Brazil", Year: 2001, Temperature: 25},
			{Country: "Chile", Year: 2000, Temperature: 12},
			{Country: "Atlantis", Year: 1999, Temperature: 30},
			{Country: "Indonesia", Year: 2001, Temperature: 27},
		},
		Forest: []domain.ForestRecord{
			{ISO3: "BRA", Trend: -0.6},
			{ISO3: "CHL", Trend: 0.3},
			{ISO3: "WLD", Trend: -0.1},
			{ISO3: "IDN", Trend: -0.9},
			{ISO3: "DEU", Trend: math.NaN()},
		},
	}
}

var t0 = time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)

func newTestPipeline(l pipeline.TableLoader) (*pipeline.Pipeline, *observability.Metrics) {
	m := observability.NewMetricsForTesting()
	return pipeline.New(l, mockResolver(), discardLogger(), m, clockwork.NewFakeClockAt(t0)), m
}

// --- tests ---

func TestPipeline_Prepare(t *testing.T) {
	ldr := &mockLoader{tables: sampleTables()}
	p, m := newTestPipeline(ldr)

	require.Error(t, p.CheckReadiness(context.Background()))
	assert.Nil(t, p.Data())

	require.NoError(t, p.Prepare())
	require.NoError(t, p.Prepare())
	assert.Equal(t, 1, ldr.calls)
	require.NoError(t, p.CheckReadiness(context.Background()))

	dc := p.Data()
	require.NotNil(t, dc)
	assert.Equal(t, []string{"WLD"}, dc.Unresolved)
	assert.Equal(t, 1, dc.Incomplete)
	assert.Len(t, dc.Forest, 3)
	assert.Len(t, dc.Joined, 4)
	assert.Equal(t, []string{"Brazil", "Chile", "Indonesia"}, dc.Domain.Countries)
	assert.Equal(t, []int{2000, 2001, 1999}, dc.Domain.Years)
	assert.Equal(t, domain.Range{Min: 12, Max: 27}, dc.Domain.Temperature)
	assert.Equal(t, domain.Range{Min: -0.9, Max: 0.3}, dc.Domain.Trend)

	assert.InDelta(t, 1.0, testutil.ToFloat64(m.DataReady), 0)
	assert.InDelta(t, 4.0, testutil.ToFloat64(m.CountryLookups.WithLabelValues("resolved")), 0)
	assert.InDelta(t, 1.0, testutil.ToFloat64(m.CountryLookups.WithLabelValues("unresolved")), 0)
	assert.InDelta(t, 4.0, testutil.ToFloat64(m.DatasetRows.WithLabelValues("joined")), 0)
}

func TestPipeline_Prepare_LoadError(t *testing.T) {
	loadErr := errors.New("boom")
	p, m := newTestPipeline(&mockLoader{err: loadErr})

	err := p.Prepare()
	require.ErrorIs(t, err, loadErr)
	require.ErrorIs(t, p.Prepare(), loadErr)
	require.Error(t, p.CheckReadiness(context.Background()))
	assert.InDelta(t, 0.0, testutil.ToFloat64(m.DataReady), 0)

	_, err = p.Render("api", domain.Filters{}, false)
	require.ErrorIs(t, err, pipeline.ErrNotReady)
}

func TestPipeline_Defaults(t *testing.T) {
	p, _ := newTestPipeline(&mockLoader{tables: sampleTables()})
	assert.Equal(t, domain.Filters{}, p.Defaults())

	require.NoError(t, p.Prepare())
	want := domain.Filters{
		Country:     "Brazil",
		Year:        2000,
		Temperature: domain.Range{Min: 12, Max: 27},
		Trend:       domain.Range{Min: -0.9, Max: 0.3},
	}
	if diff := cmp.Diff(want, p.Defaults()); diff != "" {
		t.Errorf("Defaults() mismatch (-want +got):\n%s", diff)
	}
}

func TestPipeline_Render(t *testing.T) {
	p, m := newTestPipeline(&mockLoader{tables: sampleTables()})
	require.NoError(t, p.Prepare())

	vm, err := p.Render("api", p.Defaults(), false)
	require.NoError(t, err)

	assert.Equal(t, t0, vm.GeneratedAt)
	assert.Equal(t, [][]string{{"Brazil", "2000", "24", "BRA", "-0.6"}}, vm.Filtered.Rows)
	assert.Nil(t, vm.Raw)
	assert.Equal(t, []string{"Indonesia", "Brazil", "Chile"}, vm.Highest.Categories)
	assert.Equal(t, []string{"Chile", "Brazil", "Indonesia"}, vm.Lowest.Categories)

	// A single row gives no defined coefficient.
	assert.False(t, vm.Heatmap.Matrix[0][1].Defined())

	assert.InDelta(t, 1.0, testutil.ToFloat64(m.Renders.WithLabelValues("api")), 0)
}

func TestPipeline_Render_ShowRaw(t *testing.T) {
	p, _ := newTestPipeline(&mockLoader{tables: sampleTables()})
	require.NoError(t, p.Prepare())

	vm, err := p.Render("page", p.Defaults(), true)
	require.NoError(t, err)
	require.NotNil(t, vm.Raw)
	assert.Len(t, vm.Raw.Rows, 4)
}

func TestRender_RankingsIgnoreFilters(t *testing.T) {
	dc := pipeline.NewDataContext(sampleTables(), mockResolver())

	narrow := pipeline.Render(dc, domain.Filters{Country: "Nowhere"}, false)
	wide := pipeline.Render(dc, dc.Defaults, false)

	assert.True(t, narrow.Filtered.Empty())
	assert.Equal(t, wide.Highest, narrow.Highest)
	assert.Equal(t, wide.Lowest, narrow.Lowest)
}

func TestRender_Pure(t *testing.T) {
	dc := pipeline.NewDataContext(sampleTables(), mockResolver())
	f := domain.Filters{
		Country:     "Brazil",
		Year:        2001,
		Temperature: domain.Range{Min: 0, Max: 100},
		Trend:       domain.Range{Min: -1, Max: 1},
	}

	first := pipeline.Render(dc, f, true)
	second := pipeline.Render(dc, f, true)
	// Whole-model equality would trip over NaN coefficients.
	assert.Equal(t, first.Filtered, second.Filtered)
	assert.Equal(t, first.Raw, second.Raw)
	assert.Equal(t, first.Heatmap.Annotations, second.Heatmap.Annotations)
	assert.Equal(t, [][]string{{"Brazil", "2001", "25", "BRA", "-0.6"}}, first.Filtered.Rows)
	assert.Len(t, dc.Joined, 4)
}

func TestRender_CorrelationOverFilteredRows(t *testing.T) {
	tables := &domain.Tables{
		Climate: []domain.ClimateRecord{
			{Country: "Brazil", Year: 2000, Temperature: 10},
			{Country: "Brazil", Year: 2000, Temperature: 20},
		},
		Forest: []domain.ForestRecord{
			{ISO3: "BRA", Trend: -0.5},
			{ISO3: "BRA", Trend: 0.5},
		},
	}
	dc := pipeline.NewDataContext(tables, mockResolver())
	require.Len(t, dc.Joined, 4)

	vm := pipeline.Render(dc, dc.Defaults, false)
	require.Len(t, vm.Filtered.Rows, 4)
	assert.Equal(t, "1.00", vm.Heatmap.Annotations[0][0])
	assert.Equal(t, "0.00", vm.Heatmap.Annotations[0][1])
	assert.Equal(t, "1.00", vm.Heatmap.Annotations[1][1])
}

func TestNewDataContext_NothingJoins(t *testing.T) {
	tables := sampleTables()
	dc := pipeline.NewDataContext(tables, domain.ResolverFunc(func(string) domain.Resolution {
		return domain.Unresolved()
	}))

	assert.Empty(t, dc.Forest)
	assert.Empty(t, dc.Joined)
	assert.Empty(t, dc.Domain.Countries)
	assert.Equal(t, domain.Range{}, dc.Defaults.Temperature)

	vm := pipeline.Render(dc, dc.Defaults, false)
	assert.True(t, vm.Filtered.Empty())
	assert.Empty(t, vm.Highest.Categories)
}

func TestPipeline_HeaderOnlyForestFile(t *testing.T) {
	dir := t.TempDir()
	climatePath := filepath.Join(dir, "climate.csv")
	forestPath := filepath.Join(dir, "forest.csv")
	require.NoError(t, os.WriteFile(climatePath, []byte("Date,Country,Temperature\n2000-01-01,Brazil,24\n"), 0o600))
	require.NoError(t, os.WriteFile(forestPath, []byte("iso3c,forests_2000,trend\n"), 0o600))

	p, m := newTestPipeline(dataset.NewLoader(climatePath, forestPath))
	require.NoError(t, p.Prepare())
	require.NoError(t, p.CheckReadiness(context.Background()))

	dc := p.Data()
	assert.Empty(t, dc.Joined)
	assert.Empty(t, dc.Highest)
	assert.Empty(t, dc.Lowest)
	assert.Equal(t, []int{2000}, dc.Domain.Years)
	assert.InDelta(t, 0.0, testutil.ToFloat64(m.DatasetRows.WithLabelValues("joined")), 0)

	vm, err := p.Render("test", p.Defaults(), true)
	require.NoError(t, err)
	assert.True(t, vm.Filtered.Empty())
	require.NotNil(t, vm.Raw)
	assert.True(t, vm.Raw.Empty())
	assert.Empty(t, vm.Highest.Categories)
	assert.Empty(t, vm.Lowest.Categories)
}
