// Package convert implements the Parquet-to-CSV conversion adapters that
// the benchmark times.
//
// Every adapter reads <InputDir>/<stem>.parquet, writes CSV under OutputDir
// and removes OutputDir before returning, whether the conversion succeeded
// or not. Adapters differ only in the engine and the read/write strategy.
package convert

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xtxerr/pqbench/internal/errors"
	"github.com/xtxerr/pqbench/internal/logging"
)

// Adapter names in canonical invocation order.
const (
	DuckDB        = "duckdb"
	Fraugster     = "fraugster"
	ParquetGo     = "parquetgo"
	ParquetGoLazy = "parquetgo_lazy"
	Arrow         = "arrow"
)

// Names returns every adapter name in canonical order.
func Names() []string {
	return []string{DuckDB, Fraugster, ParquetGo, ParquetGoLazy, Arrow}
}

// Converter converts one sample file to CSV.
type Converter interface {
	// Name returns the adapter name used as the results column.
	Name() string

	// Convert converts the sample identified by stem. The output directory
	// no longer exists when Convert returns.
	Convert(ctx context.Context, stem string) error
}

// Layout locates inputs and outputs.
type Layout struct {
	InputDir  string
	OutputDir string
}

// Input returns the sample path for stem.
func (l Layout) Input(stem string) string {
	return filepath.Join(l.InputDir, stem+".parquet")
}

// Output returns the single-file CSV path for stem.
func (l Layout) Output(stem string) string {
	return filepath.Join(l.OutputDir, stem+".csv")
}

// PartitionDir returns the directory partitioned output for stem goes to.
func (l Layout) PartitionDir(stem string) string {
	return filepath.Join(l.OutputDir, stem)
}

// Options tunes the adapters.
type Options struct {
	// ChunkSize is the row chunk (fraugster), partition (parquetgo_lazy)
	// or batch (arrow) size.
	ChunkSize int

	// MemoryLimit caps DuckDB memory, e.g. "4GB". Empty keeps the default.
	MemoryLimit string

	// Inspect, when set, is called with the output directory after a
	// successful conversion and before cleanup. Its error fails the
	// conversion.
	Inspect func(dir string) error
}

// Error reports a failed conversion.
type Error struct {
	Adapter string
	Input   string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: convert %s: %v", e.Adapter, e.Input, e.Err)
}

// Unwrap exposes both ErrConversion and the engine error.
func (e *Error) Unwrap() []error {
	return []error{errors.ErrConversion, e.Err}
}

// New creates the adapter called name.
func New(name string, layout Layout, opts Options) (Converter, error) {
	if opts.ChunkSize <= 0 {
		return nil, errors.NewInvalidValue("chunk_size", opts.ChunkSize, "must be positive")
	}

	b := base{
		name:   name,
		layout: layout,
		opts:   opts,
		logger: logging.Component("convert").With("adapter", name),
	}

	switch name {
	case DuckDB:
		return &duckDBConverter{base: b}, nil
	case Fraugster:
		return &fraugsterConverter{base: b}, nil
	case ParquetGo:
		return &parquetGoConverter{base: b}, nil
	case ParquetGoLazy:
		return &parquetGoLazyConverter{base: b}, nil
	case Arrow:
		return &arrowConverter{base: b}, nil
	default:
		return nil, fmt.Errorf("adapter %q (known: %v): %w", name, Names(), errors.ErrUnknownAdapter)
	}
}

// NewAll creates the adapters called names, in order.
func NewAll(names []string, layout Layout, opts Options) ([]Converter, error) {
	converters := make([]Converter, 0, len(names))
	for _, name := range names {
		c, err := New(name, layout, opts)
		if err != nil {
			return nil, err
		}
		converters = append(converters, c)
	}
	return converters, nil
}

// base carries what every adapter shares.
type base struct {
	name   string
	layout Layout
	opts   Options
	logger *slog.Logger
}

func (b *base) Name() string {
	return b.name
}

// execute runs fn between output directory creation and removal and wraps
// any failure in *Error.
func (b *base) execute(stem string, fn func(input string) error) error {
	input := b.layout.Input(stem)

	defer func() {
		if err := os.RemoveAll(b.layout.OutputDir); err != nil {
			b.logger.Warn("failed to remove output directory", "dir", b.layout.OutputDir, "error", err)
		}
	}()

	if err := os.MkdirAll(b.layout.OutputDir, 0o755); err != nil {
		return b.fail(input, fmt.Errorf("create output directory: %w", err))
	}

	if err := fn(input); err != nil {
		return b.fail(input, err)
	}

	if b.opts.Inspect != nil {
		if err := b.opts.Inspect(b.layout.OutputDir); err != nil {
			return b.fail(input, fmt.Errorf("inspect output: %w", err))
		}
	}
	return nil
}

func (b *base) fail(input string, err error) *Error {
	return &Error{Adapter: b.name, Input: input, Err: err}
}
