package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/couchcryptid/forest-climate-dashboard/internal/adapter/countries"
	"github.com/couchcryptid/forest-climate-dashboard/internal/config"
	"github.com/couchcryptid/forest-climate-dashboard/internal/dataset"
	"github.com/couchcryptid/forest-climate-dashboard/internal/observability"
	"github.com/couchcryptid/forest-climate-dashboard/internal/pipeline"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
)

// rootOptions are the flags shared by every subcommand.
type rootOptions struct {
	climatePath string
	forestPath  string
	clock       clockwork.Clock
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{clock: clockwork.NewRealClock()}

	cmd := &cobra.Command{
		Use:           "dashctl",
		Short:         "Inspect and export the forest/climate dashboard dataset",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.climatePath, "climate", "", "climate CSV path (overrides CLIMATE_DATA_PATH)")
	cmd.PersistentFlags().StringVar(&opts.forestPath, "forest", "", "forest shares CSV path (overrides FOREST_DATA_PATH)")

	cmd.AddCommand(newReportCmd(opts), newExportCmd(opts))
	return cmd
}

// prepare loads configuration, applies the path flags, and builds the data
// context. Logs go to the command's error stream.
func (o *rootOptions) prepare(cmd *cobra.Command) (*pipeline.Pipeline, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if o.climatePath != "" {
		cfg.ClimateDataPath = o.climatePath
	}
	if o.forestPath != "" {
		cfg.ForestDataPath = o.forestPath
	}

	logger := observability.NewLoggerTo(cmd.ErrOrStderr(), cfg)
	metrics := observability.NewDetachedMetrics()

	resolver := countries.NewCachedResolver(countries.NewResolver(), cfg.CountryCacheSize, metrics)
	loader := dataset.NewLoader(cfg.ClimateDataPath, cfg.ForestDataPath,
		dataset.WithDelimiter(cfg.CSVDelimiter),
		dataset.WithClock(o.clock),
	)

	p := pipeline.New(loader, resolver, logger, metrics, o.clock)
	if err := p.Prepare(); err != nil {
		return nil, err
	}
	return p, nil
}
