package main

import (
	"math/rand"

	"github.com/spf13/cobra"
	"github.com/xtxerr/pqbench/internal/bench"
	"github.com/xtxerr/pqbench/internal/config"
	"github.com/xtxerr/pqbench/internal/convert"
	"github.com/xtxerr/pqbench/internal/logging"
	"github.com/xtxerr/pqbench/internal/report"
)

func newRunCmd(opts *globalOptions) *cobra.Command {
	var (
		adapters    []string
		chunkSize   int
		shuffleSeed int64
		verify      bool
		results     string
		summary     bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Time every adapter on every sample and write the results CSV",
		Long: `Convert each sample file to CSV once per adapter, in a shuffled sample
order, and write the elapsed seconds as one row per sample size and one
column per adapter.

Requires the sample directory and manifest produced by 'pqbench extract'.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := opts.cfg
			flags := cmd.Flags()
			if flags.Changed("adapters") {
				cfg.Benchmark.Adapters = adapters
			}
			if flags.Changed("chunk-size") {
				cfg.Benchmark.ChunkSize = chunkSize
			}
			if flags.Changed("shuffle-seed") {
				cfg.Benchmark.ShuffleSeed = shuffleSeed
			}
			if flags.Changed("verify") {
				cfg.Benchmark.Verify = verify
			}
			if flags.Changed("results") {
				cfg.Paths.Results = results
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			res, err := runBenchmark(cmd, cfg)
			if err != nil {
				return err
			}
			if !summary {
				return nil
			}

			summaries, err := report.Summarize(res)
			if err != nil {
				return err
			}
			return report.WriteSummary(cmd.OutOrStdout(), summaries)
		},
	}

	flags := cmd.Flags()
	flags.StringSliceVar(&adapters, "adapters", nil,
		"Adapters to run, in order (overrides config)")
	flags.IntVar(&chunkSize, "chunk-size", 0,
		"Chunk, partition or batch size in rows (overrides config)")
	flags.Int64Var(&shuffleSeed, "shuffle-seed", 0,
		"Seed of the sample order (0 = random; overrides config)")
	flags.BoolVar(&verify, "verify", false,
		"Check the CSV row count of every conversion (overrides config)")
	flags.StringVar(&results, "results", "",
		"Results CSV path (overrides config)")
	flags.BoolVar(&summary, "summary", true,
		"Print a summary table to stdout")

	return cmd
}

func runBenchmark(cmd *cobra.Command, cfg *config.Config) (*bench.Results, error) {
	logger := logging.Component("run")

	samples, err := bench.Prepare(cfg.Paths.ParquetDir, cfg.Paths.Manifest)
	if err != nil {
		return nil, err
	}

	layout := convert.Layout{
		InputDir:  cfg.Paths.ParquetDir,
		OutputDir: cfg.Paths.CSVDir,
	}
	convOpts := convert.Options{
		ChunkSize:   cfg.Benchmark.ChunkSize,
		MemoryLimit: cfg.Benchmark.MemoryLimit,
	}
	if cfg.Benchmark.Verify {
		convOpts.Inspect = convert.VerifyRowCount(layout)
	}

	converters, err := convert.NewAll(cfg.Benchmark.Adapters, layout, convOpts)
	if err != nil {
		return nil, err
	}

	var runnerOpts []bench.Option
	if cfg.Benchmark.ShuffleSeed != 0 {
		runnerOpts = append(runnerOpts,
			bench.WithRand(rand.New(rand.NewSource(cfg.Benchmark.ShuffleSeed))))
	}

	logger.Info("starting benchmark",
		"samples", len(samples),
		"adapters", cfg.Benchmark.Adapters,
		"chunk_size", cfg.Benchmark.ChunkSize,
		"verify", cfg.Benchmark.Verify)

	res, err := bench.NewRunner(converters, runnerOpts...).Run(cmd.Context(), samples)
	if err != nil {
		if res != nil && res.Len() > 0 {
			if xerr := report.Export(cfg.Paths.Results, res); xerr != nil {
				logger.Warn("failed to write partial results", "error", xerr)
			} else {
				logger.Warn("benchmark interrupted, partial results written",
					"path", cfg.Paths.Results, "records", res.Len())
			}
		}
		return nil, err
	}

	if err := report.Export(cfg.Paths.Results, res); err != nil {
		return nil, err
	}
	logger.Info("results written", "path", cfg.Paths.Results, "records", res.Len())

	return res, nil
}
