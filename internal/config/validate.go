package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xtxerr/pqbench/internal/convert"
	"github.com/xtxerr/pqbench/internal/errors"
	"github.com/xtxerr/pqbench/internal/logging"
	"github.com/xtxerr/pqbench/internal/parquetfile"
	"github.com/xtxerr/pqbench/internal/validation"
)

// Source kinds.
const (
	SourceHTTP  = "http"
	SourceS3    = "s3"
	SourceLocal = "local"
)

// Validate checks the configuration for errors. All problems are collected
// so one run reports every bad field.
func (c *Config) Validate() error {
	errs := errors.NewValidationErrors()

	errs.Add(errors.Wrap(c.Paths.Validate(), "paths"))
	errs.Add(errors.Wrap(c.Extract.Validate(), "extract"))
	errs.Add(errors.Wrap(c.Source.Validate(), "source"))
	errs.Add(errors.Wrap(c.Benchmark.Validate(), "benchmark"))
	errs.Add(errors.Wrap(c.Logging.Validate(), "logging"))

	return errs.Err()
}

// Validate checks the paths configuration.
func (c *PathsConfig) Validate() error {
	errs := errors.NewValidationErrors()

	if c.ParquetDir == "" {
		errs.AddMissing("parquet_dir")
	}
	if c.CSVDir == "" {
		errs.AddMissing("csv_dir")
	}
	if c.Manifest == "" {
		errs.AddMissing("manifest")
	}
	if c.Results == "" {
		errs.AddMissing("results")
	}
	if c.CSVDir != "" {
		errs.Add(c.validateScratchDir())
	}

	return errs.Err()
}

// validateScratchDir rejects a csv_dir whose removal would take other data
// with it. The scratch directory is deleted after every conversion.
func (c *PathsConfig) validateScratchDir() error {
	scratch, err := filepath.Abs(c.CSVDir)
	if err != nil {
		return errors.NewInvalidValue("csv_dir", c.CSVDir, err.Error())
	}

	kept := []struct {
		name string
		path string
	}{
		{"parquet_dir", c.ParquetDir},
		{"source_dir", c.SourceDir},
		{"manifest", c.Manifest},
		{"results", c.Results},
		{"the working directory", "."},
	}
	for _, k := range kept {
		if k.path == "" {
			continue
		}
		abs, err := filepath.Abs(k.path)
		if err != nil {
			continue
		}
		if within(scratch, abs) {
			return errors.NewInvalidValue("csv_dir", c.CSVDir, "must not be or contain "+k.name)
		}
	}
	return nil
}

// within reports whether path is dir or lies below it. Both are absolute.
func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// Validate checks the extract configuration.
func (c *ExtractConfig) Validate() error {
	errs := errors.NewValidationErrors()

	if c.Year <= 0 {
		errs.Add(errors.NewInvalidValue("year", c.Year, "must be positive"))
	}
	errs.Add(validation.ValidateMonthRange(c.MonthStart, c.MonthStop))
	errs.Add(validation.ValidateSampleSizes(c.SampleSizes))
	if _, err := parquetfile.ParseCodec(c.Compression); err != nil {
		errs.Add(err)
	}

	return errs.Err()
}

// Validate checks the source configuration.
func (c *SourceConfig) Validate() error {
	errs := errors.NewValidationErrors()

	switch c.Kind {
	case SourceHTTP:
		if c.BaseURL == "" {
			errs.AddMissing("base_url")
		}
	case SourceS3:
		if c.Bucket == "" {
			errs.AddMissing("bucket")
		}
	case SourceLocal:
		if c.Dir == "" {
			errs.AddMissing("dir")
		}
	default:
		errs.Add(fmt.Errorf("kind %q must be one of %s, %s, %s: %w",
			c.Kind, SourceHTTP, SourceS3, SourceLocal, errors.ErrUnknownSource))
	}

	if c.Concurrency <= 0 {
		errs.Add(errors.NewInvalidValue("concurrency", c.Concurrency, "must be positive"))
	}

	return errs.Err()
}

// Validate checks the benchmark configuration.
func (c *BenchmarkConfig) Validate() error {
	errs := errors.NewValidationErrors()

	errs.Add(validation.ValidateNames("adapters", c.Adapters, convert.Names()))
	if c.ChunkSize <= 0 {
		errs.Add(errors.NewInvalidValue("chunk_size", c.ChunkSize, "must be positive"))
	}

	return errs.Err()
}

// Validate checks the logging configuration.
func (c *LoggingConfig) Validate() error {
	errs := errors.NewValidationErrors()

	if _, err := logging.ParseLevel(c.Level); err != nil {
		errs.Add(errors.NewInvalidValue("level", c.Level, "must be one of debug, info, warn, error"))
	}
	switch strings.ToLower(c.Format) {
	case "auto", "text", "json", "":
	default:
		errs.Add(errors.NewInvalidValue("format", c.Format, "must be one of auto, text, json"))
	}

	return errs.Err()
}
