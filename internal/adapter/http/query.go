package http

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/couchcryptid/forest-climate-dashboard/internal/domain"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("query")
	})
	return v
}

// filterQuery holds the dashboard query parameters. Absent parameters take
// the dashboard defaults.
type filterQuery struct {
	Country  string  `query:"country" validate:"max=200"`
	Year     int     `query:"year" validate:"gte=0"`
	TempMin  float64 `query:"temp_min" validate:"ltefield=TempMax"`
	TempMax  float64 `query:"temp_max"`
	TrendMin float64 `query:"trend_min" validate:"ltefield=TrendMax"`
	TrendMax float64 `query:"trend_max"`
	ShowRaw  bool    `query:"show_raw"`
}

func newFilterQuery(defaults domain.Filters) filterQuery {
	return filterQuery{
		Country:  defaults.Country,
		Year:     defaults.Year,
		TempMin:  defaults.Temperature.Min,
		TempMax:  defaults.Temperature.Max,
		TrendMin: defaults.Trend.Min,
		TrendMax: defaults.Trend.Max,
	}
}

func (q *filterQuery) bind(values url.Values) error {
	if values.Has("country") {
		q.Country = values.Get("country")
	}
	if s := values.Get("year"); s != "" {
		y, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return fmt.Errorf("year: invalid integer %q", s)
		}
		q.Year = y
	}
	for _, p := range []struct {
		name string
		dst  *float64
	}{
		{"temp_min", &q.TempMin},
		{"temp_max", &q.TempMax},
		{"trend_min", &q.TrendMin},
		{"trend_max", &q.TrendMax},
	} {
		s := values.Get(p.name)
		if s == "" {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%s: invalid number %q", p.name, s)
		}
		*p.dst = v
	}
	if s := values.Get("show_raw"); s != "" {
		b, err := parseCheckbox(s)
		if err != nil {
			return fmt.Errorf("show_raw: invalid boolean %q", s)
		}
		q.ShowRaw = b
	}
	return nil
}

// parseCheckbox accepts strconv booleans and the "on" an HTML checkbox sends.
func parseCheckbox(s string) (bool, error) {
	if strings.EqualFold(s, "on") {
		return true, nil
	}
	return strconv.ParseBool(s)
}

func (q filterQuery) filters() domain.Filters {
	return domain.Filters{
		Country:     q.Country,
		Year:        q.Year,
		Temperature: domain.Range{Min: q.TempMin, Max: q.TempMax},
		Trend:       domain.Range{Min: q.TrendMin, Max: q.TrendMax},
	}
}

// parseFilters binds and validates the request query on top of defaults.
func parseFilters(values url.Values, defaults domain.Filters) (domain.Filters, bool, error) {
	q := newFilterQuery(defaults)
	if err := q.bind(values); err != nil {
		return domain.Filters{}, false, err
	}
	if err := validate.Struct(q); err != nil {
		return domain.Filters{}, false, describeValidation(err)
	}
	return q.filters(), q.ShowRaw, nil
}

func describeValidation(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "ltefield":
			other := strings.Replace(fe.Field(), "_min", "_max", 1)
			msgs = append(msgs, fmt.Sprintf("%s must not exceed %s", fe.Field(), other))
		case "gte":
			msgs = append(msgs, fmt.Sprintf("%s must be >= %s", fe.Field(), fe.Param()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s is too long", fe.Field()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", fe.Field()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}
