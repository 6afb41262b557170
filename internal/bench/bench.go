// Package bench times the conversion adapters over the sample files.
//
// Samples are visited in a random order to spread the effect of warm
// caches across sizes; within one sample the adapters run in their
// configured order. Everything runs sequentially on the calling goroutine.
package bench

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"slices"
	"time"

	"github.com/xtxerr/pqbench/internal/convert"
	"github.com/xtxerr/pqbench/internal/errors"
	"github.com/xtxerr/pqbench/internal/logging"
	"github.com/xtxerr/pqbench/internal/manifest"
)

// Prepare checks that the extract stage has run and loads the samples,
// sorted by ascending size. No timing work happens here.
func Prepare(parquetDir, manifestPath string) ([]manifest.Sample, error) {
	info, err := os.Stat(parquetDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewPrerequisite(
				fmt.Sprintf("directory %q", parquetDir),
				"run 'pqbench extract' first to generate the sample files")
		}
		return nil, fmt.Errorf("stat %s: %w", parquetDir, err)
	}
	if !info.IsDir() {
		return nil, errors.NewPrerequisite(
			fmt.Sprintf("directory %q", parquetDir),
			"it is a file; remove it and run 'pqbench extract'")
	}

	entries, err := manifest.Read(manifestPath)
	if err != nil {
		return nil, err
	}
	return manifest.Samples(entries, manifest.ParquetExt), nil
}

// Option configures a Runner.
type Option func(*Runner)

// WithRand sets the source of the execution order.
func WithRand(rng *rand.Rand) Option {
	return func(r *Runner) {
		r.rng = rng
	}
}

// WithLogger sets the runner's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// Runner times every converter once per sample.
type Runner struct {
	converters []convert.Converter
	rng        *rand.Rand
	logger     *slog.Logger
}

// NewRunner creates a runner invoking converters in the given order.
func NewRunner(converters []convert.Converter, opts ...Option) *Runner {
	r := &Runner{
		converters: converters,
		logger:     logging.Component("bench"),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.rng == nil {
		r.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return r
}

// Run shuffles samples and times each converter exactly once per sample.
//
// A failed conversion is logged and listed in Results.Failures; its elapsed
// time is recorded like any other. The context is checked between
// conversions; on cancellation the results gathered so far are returned
// together with the context error.
func (r *Runner) Run(ctx context.Context, samples []manifest.Sample) (*Results, error) {
	order := slices.Clone(samples)
	r.rng.Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})

	res := NewResults()
	start := time.Now()

	for _, s := range order {
		for _, c := range r.converters {
			if err := ctx.Err(); err != nil {
				return res, err
			}

			t0 := time.Now()
			err := c.Convert(ctx, s.Stem)
			elapsed := time.Since(t0)

			res.Record(c.Name(), s.Size, elapsed)

			if err != nil {
				input := s.Stem
				var cerr *convert.Error
				if errors.As(err, &cerr) {
					input = cerr.Input
				}
				r.logger.Error("conversion failed",
					"adapter", c.Name(),
					"input", input,
					"size", s.Size,
					"error", err)
				res.RecordFailure(c.Name(), s.Size, err)
				continue
			}

			r.logger.Debug("conversion timed",
				"adapter", c.Name(),
				"size", s.Size,
				"elapsed", elapsed)
		}
	}

	r.logger.Info("benchmark complete",
		"samples", len(order),
		"adapters", len(r.converters),
		"records", res.Len(),
		"failures", len(res.failures),
		"duration", time.Since(start))

	return res, nil
}
