// Package dataset loads the climate and forest-share CSV files into
// domain.Tables. Files are read at most once per Loader.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/couchcryptid/forest-climate-dashboard/internal/domain"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/jonboulle/clockwork"
)

// DataLoadError reports a missing or unparsable source file. It is fatal:
// the dashboard has nothing to show without both tables.
type DataLoadError struct {
	Path string
	Err  error
}

func (e *DataLoadError) Error() string {
	return fmt.Sprintf("load data %s: %v", e.Path, e.Err)
}

func (e *DataLoadError) Unwrap() error { return e.Err }

// Loader reads both source files once and caches the result, error included,
// for the lifetime of the Loader.
type Loader struct {
	climatePath string
	forestPath  string
	delimiter   rune
	clock       clockwork.Clock

	once   sync.Once
	tables *domain.Tables
	err    error
}

// Option configures a Loader.
type Option func(*Loader)

// WithDelimiter sets the CSV field delimiter. The default is ','.
func WithDelimiter(d rune) Option {
	return func(l *Loader) { l.delimiter = d }
}

// WithClock sets the clock used to stamp Tables.LoadedAt.
func WithClock(c clockwork.Clock) Option {
	return func(l *Loader) { l.clock = c }
}

// NewLoader creates a Loader for the given climate and forest CSV paths.
func NewLoader(climatePath, forestPath string, opts ...Option) *Loader {
	l := &Loader{
		climatePath: climatePath,
		forestPath:  forestPath,
		delimiter:   ',',
		clock:       clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load returns the loaded tables. The first call reads the files; later calls
// return the same *domain.Tables (or the same error) without touching disk.
func (l *Loader) Load() (*domain.Tables, error) {
	l.once.Do(func() {
		l.tables, l.err = l.load()
	})
	return l.tables, l.err
}

func (l *Loader) load() (*domain.Tables, error) {
	climateFrame, err := l.readFrame(l.climatePath, domain.ColCountry, domain.ColDate, domain.ColTemperature)
	if err != nil {
		return nil, err
	}
	forestFrame, err := l.readFrame(l.forestPath, domain.ColISO3, domain.ColTrend)
	if err != nil {
		return nil, err
	}

	climate, climateCols, err := parseClimate(climateFrame)
	if err != nil {
		return nil, &DataLoadError{Path: l.climatePath, Err: err}
	}
	forest, forestCols, err := parseForest(forestFrame)
	if err != nil {
		return nil, &DataLoadError{Path: l.forestPath, Err: err}
	}

	return &domain.Tables{
		Climate:        climate,
		Forest:         forest,
		ClimateColumns: climateCols,
		ForestColumns:  forestCols,
		LoadedAt:       l.clock.Now(),
	}, nil
}

// readFrame parses path as a headed CSV with every column kept as text and
// checks that the required columns are present. A file holding only a header
// yields a frame with those columns and no rows.
func (l *Loader) readFrame(path string, required ...string) (dataframe.DataFrame, error) {
	f, err := os.Open(path)
	if err != nil {
		return dataframe.DataFrame{}, &DataLoadError{Path: path, Err: err}
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = l.delimiter
	records, err := r.ReadAll()
	if err != nil {
		return dataframe.DataFrame{}, &DataLoadError{Path: path, Err: err}
	}
	if len(records) == 0 {
		return dataframe.DataFrame{}, &DataLoadError{Path: path, Err: errEmptyFile}
	}

	var df dataframe.DataFrame
	if len(records) == 1 {
		df = headerOnly(records[0])
	} else {
		df = dataframe.LoadRecords(records,
			dataframe.HasHeader(true),
			dataframe.DetectTypes(false),
			dataframe.DefaultType(series.String),
		)
	}
	if df.Err != nil {
		return dataframe.DataFrame{}, &DataLoadError{Path: path, Err: df.Err}
	}

	names := df.Names()
	for _, col := range required {
		if !slices.Contains(names, col) {
			return dataframe.DataFrame{}, &DataLoadError{Path: path, Err: fmt.Errorf("missing column %q", col)}
		}
	}
	return df, nil
}

// errEmptyFile is returned for a file without a header line.
var errEmptyFile = errors.New("empty file")

// headerOnly builds a zero-row frame with one string column per header name.
// LoadRecords rejects this shape, but an empty table is valid input.
func headerOnly(header []string) dataframe.DataFrame {
	cols := make([]series.Series, len(header))
	for i, name := range header {
		cols[i] = series.New([]string{}, series.String, name)
	}
	return dataframe.New(cols...)
}

func parseClimate(df dataframe.DataFrame) ([]domain.ClimateRecord, []string, error) {
	countries := df.Col(domain.ColCountry).Records()
	dates := df.Col(domain.ColDate).Records()
	temps := df.Col(domain.ColTemperature).Records()
	extraCols, extras := passthrough(df, domain.ColCountry, domain.ColDate, domain.ColTemperature)

	records := make([]domain.ClimateRecord, df.Nrow())
	for i := range records {
		year, err := parseYear(dates[i])
		if err != nil {
			return nil, nil, fmt.Errorf("row %d: %s: %w", i+2, domain.ColDate, err)
		}
		temp, err := parseNumber(temps[i])
		if err != nil {
			return nil, nil, fmt.Errorf("row %d: %s: %w", i+2, domain.ColTemperature, err)
		}
		records[i] = domain.ClimateRecord{
			Country:     countries[i],
			Year:        year,
			Temperature: temp,
			Extra:       rowExtra(extraCols, extras, i),
		}
	}
	return records, extraCols, nil
}

// parseForest reads the forest table. A Country column in the file, if any,
// is ignored: Country is always derived from iso3c.
func parseForest(df dataframe.DataFrame) ([]domain.ForestRecord, []string, error) {
	codes := df.Col(domain.ColISO3).Records()
	trends := df.Col(domain.ColTrend).Records()
	extraCols, extras := passthrough(df, domain.ColISO3, domain.ColTrend, domain.ColCountry)

	records := make([]domain.ForestRecord, df.Nrow())
	for i := range records {
		trend, err := parseNumber(trends[i])
		if err != nil {
			return nil, nil, fmt.Errorf("row %d: %s: %w", i+2, domain.ColTrend, err)
		}
		records[i] = domain.ForestRecord{
			ISO3:  strings.TrimSpace(codes[i]),
			Trend: trend,
			Extra: rowExtra(extraCols, extras, i),
		}
	}
	return records, extraCols, nil
}

// passthrough returns the names and values of every column not in skip, in
// header order.
func passthrough(df dataframe.DataFrame, skip ...string) ([]string, [][]string) {
	var cols []string
	var values [][]string
	for _, name := range df.Names() {
		if slices.Contains(skip, name) {
			continue
		}
		cols = append(cols, name)
		values = append(values, df.Col(name).Records())
	}
	return cols, values
}

func rowExtra(cols []string, values [][]string, row int) map[string]string {
	if len(cols) == 0 {
		return nil
	}
	extra := make(map[string]string, len(cols))
	for j, name := range cols {
		extra[name] = values[j][row]
	}
	return extra
}

// parseNumber parses a numeric cell. Missing markers yield NaN.
func parseNumber(s string) (float64, error) {
	if domain.IsMissing(s) {
		return math.NaN(), nil
	}
	s = strings.TrimSpace(s)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return v, nil
}

// dateLayouts are tried in order when reducing a Date cell to its year.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
	time.RFC3339Nano,
	"2006/01/02",
	"01/02/2006",
	"2006-01",
	"2006",
}

// errInvalidDate is returned for Date cells matching no known layout.
var errInvalidDate = errors.New("invalid date")

func parseYear(s string) (int, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Year(), nil
		}
	}
	return 0, fmt.Errorf("%w %q", errInvalidDate, s)
}
