// Package domain models the climate and forest-cover datasets behind the
// dashboard and the pure pipeline that turns them into views.
//
// # Data Sources
//
// Two flat CSV files are loaded once at startup:
//
//	climate_change_data.csv   one row per observation
//	goal15.forest_shares.csv  one row per country (UN SDG 15.1.1 forest shares)
//
// The climate file carries at least Country, Date and Temperature. The forest
// file carries at least iso3c and trend. All other columns are passthrough and
// only appear in tables and exports.
//
// # Conventions
//
// Date:
//
//	Any calendar date; only the year survives loading ("2019-03-01" → 2019).
//
// trend:
//
//	Signed rate of change of forest cover. Negative means forest loss, so the
//	most negative values are the "highest deforestation".
//
// Country:
//
//	The climate file uses English short names. The forest file only has ISO
//	3166-1 alpha-3 codes, which are resolved to names by a CountryResolver.
//	Joining is exact, case-sensitive string equality on the resolved name;
//	"United States" and "United States of America" do not match.
//
// Missing values:
//
//	Empty, "NA" and "NaN" numeric cells load as NaN. NaN never satisfies a
//	range filter and is skipped by bounds and correlation.
//
// # Pipeline
//
//	NormalizeForest → Join → Filters.Apply ∥ Correlate / TopHighestDeforestation / TopLowestDeforestation
//
// Every function here is a pure transform over read-only input slices.
package domain
