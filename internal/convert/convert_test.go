package convert

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xtxerr/pqbench/internal/errors"
	"github.com/xtxerr/pqbench/internal/testutil"
)

const testStem = "taxi_data_2024-0104_25"

func testLayout(t *testing.T, rows int) Layout {
	t.Helper()

	dir := t.TempDir()
	layout := Layout{
		InputDir:  filepath.Join(dir, "parquet"),
		OutputDir: filepath.Join(dir, "csv"),
	}
	testutil.WriteTrips(t, layout.Input(testStem), rows)
	return layout
}

func TestLayout(t *testing.T) {
	l := Layout{InputDir: "in", OutputDir: "out"}

	assert.Equal(t, filepath.Join("in", "a.parquet"), l.Input("a"))
	assert.Equal(t, filepath.Join("out", "a.csv"), l.Output("a"))
	assert.Equal(t, filepath.Join("out", "a"), l.PartitionDir("a"))
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"duckdb", "fraugster", "parquetgo", "parquetgo_lazy", "arrow"}, Names())
}

func TestConvert_AllAdapters(t *testing.T) {
	const rows = 25

	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			layout := testLayout(t, rows)

			var stats CSVStats
			var inspected bool
			opts := Options{
				ChunkSize: 10,
				Inspect: func(dir string) error {
					inspected = true
					var err error
					stats, err = CountCSV(dir)
					return err
				},
			}

			c, err := New(name, layout, opts)
			require.NoError(t, err)
			assert.Equal(t, name, c.Name())

			require.NoError(t, c.Convert(context.Background(), testStem))

			require.True(t, inspected, "Inspect hook not called")
			assert.Equal(t, int64(rows), stats.Rows)
			assert.Equal(t, testutil.TripColumns, stats.Header)
			if name == ParquetGoLazy {
				assert.Equal(t, 3, stats.Files, "25 rows in partitions of 10")
			} else {
				assert.Equal(t, 1, stats.Files)
			}

			testutil.AssertNotExist(t, layout.OutputDir)

			_, err = os.Stat(layout.Input(testStem))
			assert.NoError(t, err, "input must survive the conversion")
		})
	}
}

func TestConvert_MissingInput(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			layout := Layout{
				InputDir:  filepath.Join(dir, "parquet"),
				OutputDir: filepath.Join(dir, "csv"),
			}

			called := false
			c, err := New(name, layout, Options{
				ChunkSize: 10,
				Inspect:   func(string) error { called = true; return nil },
			})
			require.NoError(t, err)

			err = c.Convert(context.Background(), "missing")
			require.Error(t, err)

			var cerr *Error
			require.True(t, errors.As(err, &cerr), "got %T", err)
			assert.Equal(t, name, cerr.Adapter)
			assert.Equal(t, layout.Input("missing"), cerr.Input)
			assert.True(t, errors.IsConversion(err))
			assert.False(t, called, "Inspect must not run after a failure")

			testutil.AssertNotExist(t, layout.OutputDir)
		})
	}
}

func TestConvert_InspectFailure(t *testing.T) {
	layout := testLayout(t, 5)

	c, err := New(DuckDB, layout, Options{
		ChunkSize: 10,
		Inspect:   func(string) error { return errors.ErrRowCountMismatch },
	})
	require.NoError(t, err)

	err = c.Convert(context.Background(), testStem)
	assert.ErrorIs(t, err, errors.ErrRowCountMismatch)
	assert.ErrorIs(t, err, errors.ErrConversion)
	testutil.AssertNotExist(t, layout.OutputDir)
}

func TestConvert_VerifyRowCount(t *testing.T) {
	layout := testLayout(t, 12)

	for _, name := range []string{DuckDB, ParquetGoLazy} {
		c, err := New(name, layout, Options{ChunkSize: 5, Inspect: VerifyRowCount(layout)})
		require.NoError(t, err)
		assert.NoError(t, c.Convert(context.Background(), testStem), name)
	}
}

func TestNew_Errors(t *testing.T) {
	_, err := New("polars", Layout{}, Options{ChunkSize: 1})
	assert.ErrorIs(t, err, errors.ErrUnknownAdapter)

	_, err = New(DuckDB, Layout{}, Options{})
	assert.True(t, errors.IsValidation(err))
}

func TestNewAll(t *testing.T) {
	cs, err := NewAll([]string{Arrow, DuckDB}, Layout{}, Options{ChunkSize: 1})
	require.NoError(t, err)
	require.Len(t, cs, 2)
	assert.Equal(t, Arrow, cs[0].Name())
	assert.Equal(t, DuckDB, cs[1].Name())

	_, err = NewAll([]string{DuckDB, "nope"}, Layout{}, Options{ChunkSize: 1})
	assert.ErrorIs(t, err, errors.ErrUnknownAdapter)
}
