// Package sampler builds the benchmark's sample files.
//
// The sampler unions a range of monthly trip-data files by column name in
// DuckDB, draws one seeded reservoir sample per requested size, writes each
// sample as a Parquet file and records it in the manifest.
package sampler

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/xtxerr/pqbench/internal/duckdb"
	"github.com/xtxerr/pqbench/internal/errors"
	"github.com/xtxerr/pqbench/internal/logging"
	"github.com/xtxerr/pqbench/internal/manifest"
	"github.com/xtxerr/pqbench/internal/parquetfile"
	"github.com/xtxerr/pqbench/internal/source"
	"github.com/xtxerr/pqbench/internal/validation"
)

// sourceTable holds the unioned months for the lifetime of one Run.
const sourceTable = "trips"

// Config configures a sampling run.
type Config struct {
	Year       int
	MonthStart int
	MonthStop  int

	// SampleSizes are the row counts to draw, written in the given order.
	SampleSizes []int64

	// Seed makes every draw reproducible.
	Seed int64

	// Compression is the sample file codec.
	Compression string

	// OutputDir receives the sample files. Created if absent.
	OutputDir string

	// ManifestPath is overwritten with the manifest.
	ManifestPath string

	// Concurrency bounds parallel source downloads.
	Concurrency int

	// MemoryLimit caps DuckDB memory. Empty keeps the default.
	MemoryLimit string
}

// Validate checks cfg without touching the filesystem.
func (c *Config) Validate() error {
	if err := validation.ValidateMonthRange(c.MonthStart, c.MonthStop); err != nil {
		return err
	}
	if err := validation.ValidateSampleSizes(c.SampleSizes); err != nil {
		return err
	}
	if _, err := parquetfile.ParseCodec(c.Compression); err != nil {
		return err
	}
	if c.OutputDir == "" {
		return errors.NewMissingField("output_dir")
	}
	if c.ManifestPath == "" {
		return errors.NewMissingField("manifest")
	}
	return nil
}

// Sampler produces sample files and their manifest.
type Sampler struct {
	cfg     Config
	fetcher source.Fetcher
	logger  *slog.Logger
}

// New creates a sampler reading source months through fetcher.
func New(cfg Config, fetcher source.Fetcher) *Sampler {
	return &Sampler{
		cfg:     cfg,
		fetcher: fetcher,
		logger:  logging.Component("sampler"),
	}
}

// Run validates the configuration, fetches the source months, writes one
// sample per size and the manifest, and returns the manifest entries in
// the order they were written.
//
// Validation happens before any download or filesystem write.
func (s *Sampler) Run(ctx context.Context) ([]manifest.Entry, error) {
	if err := s.cfg.Validate(); err != nil {
		return nil, err
	}
	codec, _ := parquetfile.ParseCodec(s.cfg.Compression)

	start := time.Now()

	paths, err := source.FetchAll(ctx, s.fetcher, s.cfg.Year, s.cfg.MonthStart, s.cfg.MonthStop, s.cfg.Concurrency)
	if err != nil {
		return nil, fmt.Errorf("fetch source: %w", err)
	}

	// One thread keeps both the union's row order and the reservoir
	// sample reproducible for a given seed.
	db, err := duckdb.Open(ctx, duckdb.Options{MemoryLimit: s.cfg.MemoryLimit, Threads: 1})
	if err != nil {
		return nil, err
	}
	defer db.Close()

	total, err := s.loadSource(ctx, db, paths)
	if err != nil {
		return nil, err
	}

	if largest := slices.Max(s.cfg.SampleSizes); largest > total {
		return nil, fmt.Errorf("sample size %d exceeds %d source rows: %w",
			largest, total, errors.ErrInsufficientRows)
	}

	// The directory's existence marks extract as done, so one created here
	// must not survive a failed run.
	_, statErr := os.Stat(s.cfg.OutputDir)
	created := os.IsNotExist(statErr)
	if err := os.MkdirAll(s.cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	entries, err := s.writeSamples(ctx, db, codec)
	if err == nil {
		err = manifest.Write(s.cfg.ManifestPath, entries)
	}
	if err != nil {
		if created {
			if rerr := os.RemoveAll(s.cfg.OutputDir); rerr != nil {
				s.logger.Warn("failed to remove output directory", "dir", s.cfg.OutputDir, "error", rerr)
			}
		}
		return nil, err
	}

	s.logger.Info("samples extracted",
		"dir", s.cfg.OutputDir,
		"manifest", s.cfg.ManifestPath,
		"samples", len(entries),
		"source_rows", total,
		"duration", time.Since(start))

	return entries, nil
}

// writeSamples writes one sample per size into the output directory.
func (s *Sampler) writeSamples(ctx context.Context, db *sql.DB, codec parquetfile.Codec) ([]manifest.Entry, error) {
	entries := make([]manifest.Entry, 0, len(s.cfg.SampleSizes))
	for _, size := range s.cfg.SampleSizes {
		name := manifest.Filename(s.cfg.Year, s.cfg.MonthStart, s.cfg.MonthStop, size)
		if err := s.writeSample(ctx, db, size, filepath.Join(s.cfg.OutputDir, name), codec); err != nil {
			return nil, err
		}
		entries = append(entries, manifest.Entry{Size: size, Filename: name})
	}
	return entries, nil
}

// loadSource unions the source files by column name into sourceTable and
// returns its row count.
func (s *Sampler) loadSource(ctx context.Context, db *sql.DB, paths []string) (int64, error) {
	query := fmt.Sprintf(
		"CREATE TEMP TABLE %s AS SELECT * FROM read_parquet(%s, union_by_name = true, filename = true)",
		sourceTable, duckdb.QuoteList(paths))
	if _, err := db.ExecContext(ctx, query); err != nil {
		return 0, fmt.Errorf("load source files: %w", err)
	}

	total, err := duckdb.CountRows(ctx, db, sourceTable)
	if err != nil {
		return 0, err
	}

	s.logger.Debug("source loaded", "files", len(paths), "rows", total)
	return total, nil
}

// writeSample draws size rows into path and checks the written row count.
func (s *Sampler) writeSample(ctx context.Context, db *sql.DB, size int64, path string, codec parquetfile.Codec) error {
	query := fmt.Sprintf(
		"COPY (SELECT * FROM %s USING SAMPLE reservoir(%d ROWS) REPEATABLE (%d)) TO %s (FORMAT parquet, COMPRESSION %s)",
		sourceTable, size, s.cfg.Seed, duckdb.Quote(path), duckdb.Quote(string(codec)))
	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("write sample %s: %w", filepath.Base(path), err)
	}

	info, err := parquetfile.Inspect(path)
	if err != nil {
		return fmt.Errorf("inspect sample: %w", err)
	}
	if info.NumRows != size {
		return fmt.Errorf("sample %s has %d rows, want %d: %w",
			filepath.Base(path), info.NumRows, size, errors.ErrRowCountMismatch)
	}

	s.logger.Info("sample written", "path", path, "rows", size, "bytes", info.Size)
	return nil
}
