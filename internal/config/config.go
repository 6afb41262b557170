// Package config loads and validates the pqbench YAML configuration.
//
// Every field has a default from the top-level config package, so an empty
// or missing file yields a runnable configuration.
package config

import (
	"fmt"
	"os"

	defaults "github.com/xtxerr/pqbench/config"
	"github.com/xtxerr/pqbench/internal/convert"
	"github.com/xtxerr/pqbench/internal/errors"
	"gopkg.in/yaml.v3"
)

// Config represents the complete pqbench configuration.
type Config struct {
	// Paths configures the filesystem layout.
	Paths PathsConfig `yaml:"paths"`

	// Extract configures sample generation.
	Extract ExtractConfig `yaml:"extract"`

	// Source configures where monthly source files come from.
	Source SourceConfig `yaml:"source"`

	// Benchmark configures the timed conversion run.
	Benchmark BenchmarkConfig `yaml:"benchmark"`

	// Logging configures the process logger.
	Logging LoggingConfig `yaml:"logging"`
}

// PathsConfig configures the filesystem layout.
type PathsConfig struct {
	// ParquetDir holds the sample files. Its existence marks extract as done.
	ParquetDir string `yaml:"parquet_dir"`

	// CSVDir is the scratch output directory, deleted after every conversion.
	CSVDir string `yaml:"csv_dir"`

	// SourceDir caches downloaded monthly files.
	SourceDir string `yaml:"source_dir"`

	// Manifest is the sample manifest path.
	Manifest string `yaml:"manifest"`

	// Results is the report path.
	Results string `yaml:"results"`
}

// ExtractConfig configures sample generation.
type ExtractConfig struct {
	// Year of the trip data.
	Year int `yaml:"year"`

	// MonthStart is the first month, 1-12.
	MonthStart int `yaml:"month_start"`

	// MonthStop is the last month (inclusive), 1-12.
	MonthStop int `yaml:"month_stop"`

	// SampleSizes lists the row counts of the generated samples.
	SampleSizes []int64 `yaml:"sample_sizes"`

	// Seed makes sampling reproducible.
	Seed int64 `yaml:"seed"`

	// Compression is the sample file codec: snappy, zstd, gzip, none.
	Compression string `yaml:"compression"`
}

// SourceConfig configures where monthly source files come from.
type SourceConfig struct {
	// Kind is http, s3 or local.
	Kind string `yaml:"kind"`

	// BaseURL is the HTTP endpoint for kind http.
	BaseURL string `yaml:"base_url"`

	// Bucket is the bucket for kind s3.
	Bucket string `yaml:"bucket"`

	// Prefix is prepended to object names for kind s3.
	Prefix string `yaml:"prefix"`

	// Region is the AWS region for kind s3. Empty uses the default chain.
	Region string `yaml:"region"`

	// Endpoint overrides the S3 endpoint for S3-compatible stores.
	Endpoint string `yaml:"endpoint"`

	// Dir holds the files for kind local.
	Dir string `yaml:"dir"`

	// CacheDir receives downloads for kinds http and s3.
	// Empty means paths.source_dir.
	CacheDir string `yaml:"cache_dir"`

	// Concurrency bounds parallel downloads.
	Concurrency int `yaml:"concurrency"`
}

// BenchmarkConfig configures the timed conversion run.
type BenchmarkConfig struct {
	// Adapters lists the adapters to run, in invocation order.
	Adapters []string `yaml:"adapters"`

	// ChunkSize is the chunk, partition or batch size in rows.
	ChunkSize int `yaml:"chunk_size"`

	// ShuffleSeed seeds the execution order. Zero picks a random order.
	ShuffleSeed int64 `yaml:"shuffle_seed"`

	// MemoryLimit is the DuckDB memory limit, e.g. "4GB". Empty keeps
	// DuckDB's default.
	MemoryLimit string `yaml:"memory_limit"`

	// Verify counts the rows of every CSV output before it is deleted.
	Verify bool `yaml:"verify"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	// Level is debug, info, warn or error.
	Level string `yaml:"level"`

	// Format is auto, text or json.
	Format string `yaml:"format"`
}

// Load loads configuration from a YAML file. Environment variables in the
// file are expanded before parsing. A missing file is reported as a
// not-found error so callers can fall back to DefaultConfig.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFound("config file", path)
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	config, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return config, nil
}

// Parse parses YAML on top of the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	config := DefaultConfig()
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), config); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	config.applyDerived()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return config, nil
}

// applyDerived fills fields whose default depends on another field.
func (c *Config) applyDerived() {
	if c.Source.CacheDir == "" {
		c.Source.CacheDir = c.Paths.SourceDir
	}
}

// DefaultConfig returns a configuration with sensible defaults.
// Derived fields such as source.cache_dir stay empty until Parse.
func DefaultConfig() *Config {
	return &Config{
		Paths: PathsConfig{
			ParquetDir: defaults.DefaultParquetDir,
			CSVDir:     defaults.DefaultCSVDir,
			SourceDir:  defaults.DefaultSourceDir,
			Manifest:   defaults.DefaultManifestPath,
			Results:    defaults.DefaultResultsPath,
		},
		Extract: ExtractConfig{
			Year:        defaults.DefaultYear,
			MonthStart:  defaults.DefaultMonthStart,
			MonthStop:   defaults.DefaultMonthStop,
			SampleSizes: defaults.DefaultSampleSizes(),
			Seed:        defaults.DefaultSeed,
			Compression: defaults.DefaultCompression,
		},
		Source: SourceConfig{
			Kind:        defaults.DefaultSourceKind,
			BaseURL:     defaults.DefaultSourceURL,
			Concurrency: defaults.DefaultFetchConcurrency,
		},
		Benchmark: BenchmarkConfig{
			Adapters:  convert.Names(),
			ChunkSize: defaults.DefaultChunkSize,
		},
		Logging: LoggingConfig{
			Level:  defaults.DefaultLogLevel,
			Format: defaults.DefaultLogFormat,
		},
	}
}
