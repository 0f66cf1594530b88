package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/couchcryptid/forest-climate-dashboard/internal/adapter/xlsx"
	"github.com/couchcryptid/forest-climate-dashboard/internal/domain"
	"github.com/couchcryptid/forest-climate-dashboard/internal/view"
	"github.com/spf13/cobra"
)

type exportOptions struct {
	out      string
	country  string
	year     int
	tempMin  float64
	tempMax  float64
	trendMin float64
	trendMax float64
	raw      bool
}

func newExportCmd(root *rootOptions) *cobra.Command {
	opts := &exportOptions{}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the filtered table (and optionally the raw table) to an XLSX file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := root.prepare(cmd)
			if err != nil {
				return err
			}

			filters, err := opts.filters(cmd, p.Defaults())
			if err != nil {
				return err
			}

			vm, err := p.Render("cli", filters, opts.raw)
			if err != nil {
				return err
			}
			if err := writeWorkbook(opts.out, vm); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d filtered rows to %s\n", len(vm.Filtered.Rows), opts.out)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.out, "out", "o", "", "output .xlsx path")
	f.StringVar(&opts.country, "country", "", "country (default: first joined country)")
	f.IntVar(&opts.year, "year", 0, "year (default: first climate year)")
	f.Float64Var(&opts.tempMin, "temp-min", 0, "minimum temperature (default: dataset minimum)")
	f.Float64Var(&opts.tempMax, "temp-max", 0, "maximum temperature (default: dataset maximum)")
	f.Float64Var(&opts.trendMin, "trend-min", 0, "minimum trend (default: dataset minimum)")
	f.Float64Var(&opts.trendMax, "trend-max", 0, "maximum trend (default: dataset maximum)")
	f.BoolVar(&opts.raw, "raw", false, "also write the raw joined table")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}

// filters overlays the flags the user set on defaults.
func (o *exportOptions) filters(cmd *cobra.Command, defaults domain.Filters) (domain.Filters, error) {
	f := defaults
	flags := cmd.Flags()
	if flags.Changed("country") {
		f.Country = o.country
	}
	if flags.Changed("year") {
		f.Year = o.year
	}
	if flags.Changed("temp-min") {
		f.Temperature.Min = o.tempMin
	}
	if flags.Changed("temp-max") {
		f.Temperature.Max = o.tempMax
	}
	if flags.Changed("trend-min") {
		f.Trend.Min = o.trendMin
	}
	if flags.Changed("trend-max") {
		f.Trend.Max = o.trendMax
	}

	if f.Temperature.Min > f.Temperature.Max {
		return domain.Filters{}, errors.New("--temp-min must not exceed --temp-max")
	}
	if f.Trend.Min > f.Trend.Max {
		return domain.Filters{}, errors.New("--trend-min must not exceed --trend-max")
	}
	return f, nil
}

func writeWorkbook(path string, vm view.ViewModel) (err error) {
	tables := []view.Table{vm.Filtered}
	if vm.Raw != nil {
		tables = append(tables, *vm.Raw)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()

	return xlsx.Write(f, tables...)
}
