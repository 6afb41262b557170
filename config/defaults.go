// Package config provides configuration defaults for pqbench.
//
// This package defines all configurable constants with documented defaults.
// Users can override these values via pqbench.yaml or command-line flags.
package config

// =============================================================================
// Filesystem Layout Defaults
// =============================================================================

const (
	// DefaultParquetDir holds the generated sample files.
	// Its presence marks the extract stage as done.
	// Override via config: paths.parquet_dir
	DefaultParquetDir = "./data/parquet"

	// DefaultCSVDir is the scratch directory adapters write into.
	// It is deleted after every single conversion.
	// Override via config: paths.csv_dir
	DefaultCSVDir = "./data/csv"

	// DefaultSourceDir caches downloaded monthly source files.
	// Override via config: paths.source_dir
	DefaultSourceDir = "./data/source"

	// DefaultManifestPath maps sample sizes to sample filenames.
	// Override via config: paths.manifest
	DefaultManifestPath = "./extracted_files.csv"

	// DefaultResultsPath receives the benchmark report.
	// Override via config: paths.results
	DefaultResultsPath = "./results.csv"
)

// =============================================================================
// Extract Defaults
// =============================================================================

const (
	// DefaultYear is the trip-data year that is downloaded.
	// Override via config: extract.year
	DefaultYear = 2024

	// DefaultMonthStart is the first month (1 = January) of the source range.
	// Override via config: extract.month_start
	DefaultMonthStart = 1

	// DefaultMonthStop is the last month (inclusive) of the source range.
	// Override via config: extract.month_stop
	DefaultMonthStop = 4

	// DefaultSeed makes sampling reproducible across runs.
	// Override via config: extract.seed
	DefaultSeed = 721

	// DefaultCompression is the codec used for sample files.
	// snappy is readable by every adapter.
	// Override via config: extract.compression
	DefaultCompression = "snappy"
)

// DefaultSampleSizes returns the row counts of the generated samples.
// Override via config: extract.sample_sizes
func DefaultSampleSizes() []int64 {
	return []int64{100, 1_000, 10_000, 100_000, 1_000_000, 10_000_000}
}

// =============================================================================
// Source Defaults
// =============================================================================

const (
	// DefaultSourceKind selects where monthly files come from: http, s3 or local.
	// Override via config: source.kind
	DefaultSourceKind = "http"

	// DefaultSourceURL is the public trip-data endpoint.
	// Override via config: source.base_url
	DefaultSourceURL = "https://d37ci6vzurychx.cloudfront.net/trip-data"

	// DefaultFetchConcurrency bounds parallel month downloads.
	// Downloads are not timed, so they may overlap.
	// Override via config: source.concurrency
	DefaultFetchConcurrency = 2
)

// =============================================================================
// Benchmark Defaults
// =============================================================================

const (
	// DefaultChunkSize is the row chunk, batch or partition size for the
	// adapters that accept one.
	// Override via config: benchmark.chunk_size
	DefaultChunkSize = 500_000
)

// =============================================================================
// Logging Defaults
// =============================================================================

const (
	// DefaultLogLevel is the minimum level that is emitted.
	// Override via config: logging.level
	DefaultLogLevel = "info"

	// DefaultLogFormat selects text on a terminal and JSON otherwise.
	// Override via config: logging.format
	DefaultLogFormat = "auto"
)
