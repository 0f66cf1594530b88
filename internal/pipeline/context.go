package pipeline

import (
	"github.com/couchcryptid/forest-climate-dashboard/internal/domain"
	"github.com/couchcryptid/forest-climate-dashboard/internal/view"
)

// DataContext is everything derived once from the base tables. It is never
// modified after NewDataContext returns and is safe to share across
// goroutines.
type DataContext struct {
	Tables *domain.Tables

	// Forest is the normalized forest table.
	Forest     []domain.ForestRecord
	Unresolved []string
	Incomplete int

	Joined  []domain.JoinedRecord
	Columns []domain.JoinedColumn

	Domain   view.ControlDomain
	Defaults domain.Filters

	// Rankings do not depend on the filters, so they are computed here.
	Highest []domain.ForestRecord
	Lowest  []domain.ForestRecord
}

// NewDataContext normalizes and joins tables and derives the control domain,
// default filters and rankings.
func NewDataContext(tables *domain.Tables, resolver domain.CountryResolver) *DataContext {
	norm := domain.NormalizeForest(tables.Forest, resolver)
	joined := domain.Join(tables.Climate, norm.Records)

	years := domain.Years(tables.Climate)
	defaults := domain.DefaultFilters(joined, years)

	return &DataContext{
		Tables:     tables,
		Forest:     norm.Records,
		Unresolved: norm.Unresolved,
		Incomplete: norm.Incomplete,
		Joined:     joined,
		Columns:    domain.JoinedColumns(tables.ClimateColumns, tables.ForestColumns),
		Domain: view.ControlDomain{
			Countries:   domain.Countries(joined),
			Years:       years,
			Temperature: defaults.Temperature,
			Trend:       defaults.Trend,
		},
		Defaults: defaults,
		Highest:  domain.TopHighestDeforestation(norm.Records, domain.RankingSize),
		Lowest:   domain.TopLowestDeforestation(norm.Records, domain.RankingSize),
	}
}
