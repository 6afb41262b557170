package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/xtxerr/pqbench/internal/logging"
	"github.com/xtxerr/pqbench/internal/sampler"
	"github.com/xtxerr/pqbench/internal/source"
)

func newExtractCmd(opts *globalOptions) *cobra.Command {
	var (
		year       int
		monthStart int
		monthStop  int
		sizes      []int64
		seed       int64
		sourceKind string
		sourceDir  string
	)

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Build the Parquet sample files and their manifest",
		Long: `Download the monthly trip files, union them, and write one reservoir
sample per configured size together with the sample manifest.

Nothing happens when the sample directory already exists; delete it to
regenerate the samples.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := opts.cfg
			flags := cmd.Flags()
			if flags.Changed("year") {
				cfg.Extract.Year = year
			}
			if flags.Changed("month-start") {
				cfg.Extract.MonthStart = monthStart
			}
			if flags.Changed("month-stop") {
				cfg.Extract.MonthStop = monthStop
			}
			if flags.Changed("sizes") {
				cfg.Extract.SampleSizes = sizes
			}
			if flags.Changed("seed") {
				cfg.Extract.Seed = seed
			}
			if flags.Changed("source") {
				cfg.Source.Kind = sourceKind
			}
			if flags.Changed("source-dir") {
				cfg.Source.Dir = sourceDir
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger := logging.Component("extract")

			if _, err := os.Stat(cfg.Paths.ParquetDir); err == nil {
				logger.Info("sample directory exists, skipping extract",
					"dir", cfg.Paths.ParquetDir)
				return nil
			}

			fetcher, err := source.New(cmd.Context(), cfg.Source)
			if err != nil {
				return err
			}

			entries, err := sampler.New(sampler.Config{
				Year:         cfg.Extract.Year,
				MonthStart:   cfg.Extract.MonthStart,
				MonthStop:    cfg.Extract.MonthStop,
				SampleSizes:  cfg.Extract.SampleSizes,
				Seed:         cfg.Extract.Seed,
				Compression:  cfg.Extract.Compression,
				OutputDir:    cfg.Paths.ParquetDir,
				ManifestPath: cfg.Paths.Manifest,
				Concurrency:  cfg.Source.Concurrency,
				MemoryLimit:  cfg.Benchmark.MemoryLimit,
			}, fetcher).Run(cmd.Context())
			if err != nil {
				return err
			}

			logger.Info("extract complete",
				"samples", len(entries),
				"dir", cfg.Paths.ParquetDir,
				"manifest", cfg.Paths.Manifest)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&year, "year", 0,
		"Trip-data year (overrides config)")
	flags.IntVar(&monthStart, "month-start", 0,
		"First month, 1-12 (overrides config)")
	flags.IntVar(&monthStop, "month-stop", 0,
		"Last month inclusive, 1-12 (overrides config)")
	flags.Int64SliceVar(&sizes, "sizes", nil,
		"Sample row counts, e.g. 100,1000 (overrides config)")
	flags.Int64Var(&seed, "seed", 0,
		"Sampling seed (overrides config)")
	flags.StringVar(&sourceKind, "source", "",
		"Source kind: http, s3, local (overrides config)")
	flags.StringVar(&sourceDir, "source-dir", "",
		"Directory of monthly files for --source local (overrides config)")

	return cmd
}
