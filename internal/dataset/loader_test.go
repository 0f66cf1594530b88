package dataset

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	climateCSV = `Date,Location,Country,Temperature,CO2 Emissions
2000-01-01 00:00:00.000000000,New Williamtown,Brazil,26.1,403.1
2000-01-02,Manaus,Brazil,25.8,410.2
2019-06-30T12:00:00Z,Jakarta,Indonesia,,390.0
`
	forestCSV = `iso3c,forests_2000,forests_2020,trend
BRA,65.9,59.4,-0.5
XYZ,10,10,0
IDN,NA,49.1,-0.9
`
)

func writeFixture(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoader_Load(t *testing.T) {
	loadedAt := time.Date(2024, time.April, 27, 6, 0, 0, 0, time.UTC)
	loader := NewLoader(
		writeFixture(t, "climate.csv", climateCSV),
		writeFixture(t, "forest.csv", forestCSV),
		WithClock(clockwork.NewFakeClockAt(loadedAt)),
	)

	tables, err := loader.Load()
	require.NoError(t, err)

	require.Len(t, tables.Climate, 3)
	assert.Equal(t, "Brazil", tables.Climate[0].Country)
	assert.Equal(t, 2000, tables.Climate[0].Year)
	assert.Equal(t, 26.1, tables.Climate[0].Temperature)
	assert.Equal(t, "New Williamtown", tables.Climate[0].Extra["Location"])
	assert.Equal(t, 2019, tables.Climate[2].Year)
	assert.True(t, math.IsNaN(tables.Climate[2].Temperature), "empty temperature is missing")
	assert.Equal(t, []string{"Location", "CO2 Emissions"}, tables.ClimateColumns)

	require.Len(t, tables.Forest, 3)
	assert.Equal(t, "BRA", tables.Forest[0].ISO3)
	assert.Equal(t, -0.5, tables.Forest[0].Trend)
	assert.Empty(t, tables.Forest[0].Country, "country is derived later")
	assert.Equal(t, []string{"forests_2000", "forests_2020"}, tables.ForestColumns)

	assert.Equal(t, loadedAt, tables.LoadedAt)
}

func TestLoader_LoadIsCached(t *testing.T) {
	climatePath := writeFixture(t, "climate.csv", climateCSV)
	loader := NewLoader(climatePath, writeFixture(t, "forest.csv", forestCSV))

	first, err := loader.Load()
	require.NoError(t, err)

	// Removing the file proves the second call does not re-read it.
	require.NoError(t, os.Remove(climatePath))

	second, err := loader.Load()
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestLoader_Errors(t *testing.T) {
	tests := []struct {
		name    string
		climate string
		forest  string
		wantMsg string
	}{
		{
			name:    "missing climate column",
			climate: "Country,Date\nBrazil,2000-01-01\n",
			forest:  forestCSV,
			wantMsg: `missing column "Temperature"`,
		},
		{
			name:    "missing forest column",
			climate: climateCSV,
			forest:  "iso3c,forests_2020\nBRA,59.4\n",
			wantMsg: `missing column "trend"`,
		},
		{
			name:    "unparsable date",
			climate: "Country,Date,Temperature\nBrazil,yesterday,20\n",
			forest:  forestCSV,
			wantMsg: "row 2: Date: invalid date",
		},
		{
			name:    "unparsable temperature",
			climate: "Country,Date,Temperature\nBrazil,2001-01-01,warm\n",
			forest:  forestCSV,
			wantMsg: `row 2: Temperature: invalid number "warm"`,
		},
		{
			name:    "unparsable trend",
			climate: climateCSV,
			forest:  "iso3c,trend\nBRA,down\n",
			wantMsg: `row 2: trend: invalid number "down"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader := NewLoader(
				writeFixture(t, "climate.csv", tt.climate),
				writeFixture(t, "forest.csv", tt.forest),
			)

			_, err := loader.Load()
			require.Error(t, err)

			var loadErr *DataLoadError
			require.ErrorAs(t, err, &loadErr)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestLoader_HeaderOnly(t *testing.T) {
	tests := []struct {
		name        string
		climate     string
		forest      string
		wantClimate int
		wantForest  int
		wantCols    []string
	}{
		{
			name:        "forest without rows",
			climate:     climateCSV,
			forest:      "iso3c,forests_2000,trend\n",
			wantClimate: 3,
			wantForest:  0,
			wantCols:    []string{"forests_2000"},
		},
		{
			name:        "climate without rows",
			climate:     "Date,Country,Temperature\n",
			forest:      forestCSV,
			wantClimate: 0,
			wantForest:  3,
			wantCols:    []string{"forests_2000", "forests_2020"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader := NewLoader(
				writeFixture(t, "climate.csv", tt.climate),
				writeFixture(t, "forest.csv", tt.forest),
			)

			tables, err := loader.Load()
			require.NoError(t, err)
			assert.Len(t, tables.Climate, tt.wantClimate)
			assert.Len(t, tables.Forest, tt.wantForest)
			assert.Equal(t, tt.wantCols, tables.ForestColumns)
		})
	}
}

func TestLoader_HeaderOnlyStillChecksColumns(t *testing.T) {
	loader := NewLoader(
		writeFixture(t, "climate.csv", climateCSV),
		writeFixture(t, "forest.csv", "iso3c,forests_2000\n"),
	)

	_, err := loader.Load()

	var loadErr *DataLoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Contains(t, err.Error(), `missing column "trend"`)
}

func TestLoader_EmptyFile(t *testing.T) {
	loader := NewLoader(
		writeFixture(t, "climate.csv", climateCSV),
		writeFixture(t, "forest.csv", ""),
	)

	_, err := loader.Load()

	var loadErr *DataLoadError
	require.ErrorAs(t, err, &loadErr)
	assert.ErrorIs(t, err, errEmptyFile)
}

func TestLoader_MissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.csv")
	loader := NewLoader(missing, writeFixture(t, "forest.csv", forestCSV))

	_, err := loader.Load()

	var loadErr *DataLoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, missing, loadErr.Path)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	// The failure is cached too.
	_, again := loader.Load()
	assert.Same(t, err, again)
}

func TestLoader_Delimiter(t *testing.T) {
	loader := NewLoader(
		writeFixture(t, "climate.csv", "Country;Date;Temperature\nBrazil;2010-05-01;25.5\n"),
		writeFixture(t, "forest.csv", "iso3c;trend\nBRA;-0.5\n"),
		WithDelimiter(';'),
	)

	tables, err := loader.Load()
	require.NoError(t, err)
	require.Len(t, tables.Climate, 1)
	assert.Equal(t, 2010, tables.Climate[0].Year)
	assert.Equal(t, 25.5, tables.Climate[0].Temperature)
	assert.Nil(t, tables.Climate[0].Extra)
}

func TestParseYear(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"2020-03-01", 2020},
		{"2000-01-01 00:00:00.000000000", 2000},
		{"2000-01-01 13:45:00", 2000},
		{"2015-07-04T10:00:00", 2015},
		{"2019-06-30T12:00:00Z", 2019},
		{"2012/12/31", 2012},
		{"12/31/1999", 1999},
		{"1987-05", 1987},
		{" 2001 ", 2001},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseYear(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := parseYear("not a date")
	require.ErrorIs(t, err, errInvalidDate)
}

func TestParseNumber(t *testing.T) {
	for _, s := range []string{"", "NA", "NaN", "  "} {
		v, err := parseNumber(s)
		require.NoError(t, err)
		assert.True(t, math.IsNaN(v), "%q should be missing", s)
	}

	v, err := parseNumber(" -1.25 ")
	require.NoError(t, err)
	assert.Equal(t, -1.25, v)
}
