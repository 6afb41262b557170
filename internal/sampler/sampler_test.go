package sampler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/xtxerr/pqbench/internal/duckdb"
	"github.com/xtxerr/pqbench/internal/errors"
	"github.com/xtxerr/pqbench/internal/manifest"
	"github.com/xtxerr/pqbench/internal/parquetfile"
	"github.com/xtxerr/pqbench/internal/source"
	"github.com/xtxerr/pqbench/internal/testutil"
)

// countingFetcher records how often Fetch was called.
type countingFetcher struct {
	source.Fetcher
	calls int
}

func (c *countingFetcher) Fetch(ctx context.Context, year, month int) (string, error) {
	c.calls++
	return c.Fetcher.Fetch(ctx, year, month)
}

func testConfig(dir string) Config {
	return Config{
		Year:         2024,
		MonthStart:   1,
		MonthStop:    3,
		SampleSizes:  []int64{10, 50, 100},
		Seed:         721,
		Compression:  "snappy",
		OutputDir:    filepath.Join(dir, "parquet"),
		ManifestPath: filepath.Join(dir, "extracted_files.csv"),
		Concurrency:  2,
	}
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	srcDir := filepath.Join(dir, "source")
	testutil.WriteSourceMonths(t, srcDir, 2024, 1, 3, 60)

	cfg := testConfig(dir)
	entries, err := New(cfg, &source.LocalFetcher{Dir: srcDir}).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(entries) != len(cfg.SampleSizes) {
		t.Fatalf("got %d entries, want %d", len(entries), len(cfg.SampleSizes))
	}

	for i, e := range entries {
		if e.Size != cfg.SampleSizes[i] {
			t.Errorf("entry %d size = %d, want %d", i, e.Size, cfg.SampleSizes[i])
		}
		if want := manifest.Filename(2024, 1, 3, e.Size); e.Filename != want {
			t.Errorf("entry %d filename = %q, want %q", i, e.Filename, want)
		}

		info, err := parquetfile.Inspect(filepath.Join(cfg.OutputDir, e.Filename))
		if err != nil {
			t.Fatalf("Inspect: %v", err)
		}
		if info.NumRows != e.Size {
			t.Errorf("%s has %d rows, want %d", e.Filename, info.NumRows, e.Size)
		}
		if !slices.Contains(info.Columns, "congestion_surcharge") || !slices.Contains(info.Columns, "filename") {
			t.Errorf("%s columns %v lack union or filename column", e.Filename, info.Columns)
		}
	}

	read, err := manifest.Read(cfg.ManifestPath)
	if err != nil {
		t.Fatalf("manifest.Read: %v", err)
	}
	if len(read) != len(entries) {
		t.Errorf("manifest has %d entries, want %d", len(read), len(entries))
	}
}

func TestRunIsReproducible(t *testing.T) {
	dir := t.TempDir()
	srcDir := filepath.Join(dir, "source")
	testutil.WriteSourceMonths(t, srcDir, 2024, 1, 2, 200)

	run := func(name string) string {
		cfg := testConfig(filepath.Join(dir, name))
		cfg.MonthStop = 2
		cfg.SampleSizes = []int64{25}
		if err := os.MkdirAll(filepath.Join(dir, name), 0o755); err != nil {
			t.Fatal(err)
		}
		entries, err := New(cfg, &source.LocalFetcher{Dir: srcDir}).Run(context.Background())
		if err != nil {
			t.Fatalf("Run %s: %v", name, err)
		}
		return filepath.Join(cfg.OutputDir, entries[0].Filename)
	}

	a, b := run("a"), run("b")

	ctx := context.Background()
	db, err := duckdb.Open(ctx, duckdb.Options{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	diff, err := duckdb.CountRows(ctx, db, fmt.Sprintf(
		"(SELECT * FROM read_parquet(%s) EXCEPT ALL SELECT * FROM read_parquet(%s))",
		duckdb.Quote(a), duckdb.Quote(b)))
	if err != nil {
		t.Fatalf("compare samples: %v", err)
	}
	if diff != 0 {
		t.Errorf("samples drawn with the same seed differ in %d rows", diff)
	}
}

func TestRunValidatesBeforeSideEffects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"inverted months", func(c *Config) { c.MonthStart, c.MonthStop = 4, 1 }},
		{"month zero", func(c *Config) { c.MonthStart = 0 }},
		{"month thirteen", func(c *Config) { c.MonthStop = 13 }},
		{"no sizes", func(c *Config) { c.SampleSizes = nil }},
		{"duplicate size", func(c *Config) { c.SampleSizes = []int64{10, 10} }},
		{"zero size", func(c *Config) { c.SampleSizes = []int64{0} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			cfg := testConfig(dir)
			tt.mutate(&cfg)

			fetcher := &countingFetcher{Fetcher: &source.LocalFetcher{Dir: dir}}
			_, err := New(cfg, fetcher).Run(context.Background())
			if !errors.IsValidation(err) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if fetcher.calls != 0 {
				t.Errorf("fetched %d months before validation failed", fetcher.calls)
			}
			testutil.AssertNotExist(t, cfg.OutputDir)
			testutil.AssertNotExist(t, cfg.ManifestPath)
		})
	}
}

func TestRunInsufficientRows(t *testing.T) {
	dir := t.TempDir()
	srcDir := filepath.Join(dir, "source")
	testutil.WriteSourceMonths(t, srcDir, 2024, 1, 1, 20)

	cfg := testConfig(dir)
	cfg.MonthStop = 1
	cfg.SampleSizes = []int64{10, 21}

	_, err := New(cfg, &source.LocalFetcher{Dir: srcDir}).Run(context.Background())
	if !errors.Is(err, errors.ErrInsufficientRows) {
		t.Fatalf("expected ErrInsufficientRows, got %v", err)
	}
	testutil.AssertNotExist(t, cfg.OutputDir)
	testutil.AssertNotExist(t, cfg.ManifestPath)
}

func TestRunMissingSource(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)

	_, err := New(cfg, &source.LocalFetcher{Dir: filepath.Join(dir, "nothing")}).Run(context.Background())
	if !errors.IsNotFound(err) {
		t.Fatalf("expected not-found error, got %v", err)
	}
	testutil.AssertNotExist(t, cfg.ManifestPath)
}

func TestRunRemovesOutputOnFailure(t *testing.T) {
	dir := t.TempDir()
	srcDir := filepath.Join(dir, "source")
	testutil.WriteSourceMonths(t, srcDir, 2024, 1, 3, 60)

	cfg := testConfig(dir)
	// The samples are written, then the manifest cannot be created.
	cfg.ManifestPath = filepath.Join(dir, "missing", "extracted_files.csv")

	_, err := New(cfg, &source.LocalFetcher{Dir: srcDir}).Run(context.Background())
	if err == nil {
		t.Fatal("expected manifest write error")
	}
	testutil.AssertNotExist(t, cfg.OutputDir)
	testutil.AssertNotExist(t, cfg.ManifestPath)
}

func TestRunKeepsExistingOutputOnFailure(t *testing.T) {
	dir := t.TempDir()
	srcDir := filepath.Join(dir, "source")
	testutil.WriteSourceMonths(t, srcDir, 2024, 1, 3, 60)

	cfg := testConfig(dir)
	cfg.ManifestPath = filepath.Join(dir, "missing", "extracted_files.csv")

	keep := filepath.Join(cfg.OutputDir, "keep.parquet")
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(keep, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := New(cfg, &source.LocalFetcher{Dir: srcDir}).Run(context.Background())
	if err == nil {
		t.Fatal("expected manifest write error")
	}
	if _, err := os.Stat(keep); err != nil {
		t.Errorf("existing file removed: %v", err)
	}
}
