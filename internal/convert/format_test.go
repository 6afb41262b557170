package convert

import (
	"context"
	"encoding/csv"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xtxerr/pqbench/internal/duckdb"
)

// writeTypedSample writes a two-row sample with DuckDB, the way extract
// does, covering the logical types the taxi data carries.
func writeTypedSample(t *testing.T, path string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))

	ctx := context.Background()
	db, err := duckdb.Open(ctx, duckdb.Options{})
	require.NoError(t, err)
	defer db.Close()

	query := fmt.Sprintf(`COPY (SELECT * FROM (
		SELECT 0::INTEGER AS VendorID,
		       TIMESTAMP '2024-01-01 00:57:55' AS tpep_pickup_datetime,
		       NULL::DOUBLE AS congestion_surcharge,
		       'f0' AS store_and_fwd_flag,
		       1.50::DECIMAL(10,2) AS fare_amount,
		       2.25::DOUBLE AS trip_distance,
		       DATE '2024-01-02' AS pickup_date,
		       (-0.005)::DECIMAL(20,3) AS adjustment,
		       true AS airport
		UNION ALL
		SELECT 1, TIMESTAMP '2024-01-01 01:02:03.25', 3.5, 'f1',
		       12.00::DECIMAL(10,2), 0.5, DATE '1999-12-31',
		       123456789012.345::DECIMAL(20,3), false
	) ORDER BY VendorID) TO %s (FORMAT parquet)`, duckdb.Quote(path))
	_, err = db.ExecContext(ctx, query)
	require.NoError(t, err)
}

// readCSVDir returns the header and data rows of every CSV file under dir,
// in path order.
func readCSVDir(dir string) ([]string, [][]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err == nil && !d.IsDir() {
			paths = append(paths, path)
		}
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	sort.Strings(paths)

	var header []string
	var rows [][]string
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			return nil, nil, err
		}
		records, err := csv.NewReader(f).ReadAll()
		f.Close()
		if err != nil {
			return nil, nil, err
		}
		if len(records) == 0 {
			continue
		}
		header = records[0]
		rows = append(rows, records[1:]...)
	}
	return header, rows, nil
}

func TestConvert_SameOutputForLogicalTypes(t *testing.T) {
	dir := t.TempDir()
	layout := Layout{
		InputDir:  filepath.Join(dir, "parquet"),
		OutputDir: filepath.Join(dir, "csv"),
	}
	const stem = "typed_sample"
	writeTypedSample(t, layout.Input(stem))

	wantHeader := []string{
		"VendorID", "tpep_pickup_datetime", "congestion_surcharge", "store_and_fwd_flag",
		"fare_amount", "trip_distance", "pickup_date", "adjustment", "airport",
	}
	wantRows := [][]string{
		{"0", "2024-01-01 00:57:55", "", "f0", "1.50", "2.25", "2024-01-02", "-0.005", "true"},
		{"1", "2024-01-01 01:02:03.25", "3.5", "f1", "12.00", "0.5", "1999-12-31", "123456789012.345", "false"},
	}

	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			var header []string
			var rows [][]string
			c, err := New(name, layout, Options{
				ChunkSize: 10,
				Inspect: func(dir string) error {
					var err error
					header, rows, err = readCSVDir(dir)
					return err
				},
			})
			require.NoError(t, err)
			require.NoError(t, c.Convert(context.Background(), stem))

			assert.Equal(t, wantHeader, header)
			assert.Equal(t, wantRows, rows)
		})
	}
}

func TestFormatDecimal(t *testing.T) {
	tests := []struct {
		unscaled int64
		scale    int32
		want     string
	}{
		{150, 2, "1.50"},
		{-5, 3, "-0.005"},
		{0, 2, "0.00"},
		{42, 0, "42"},
		{-1200, 2, "-12.00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatDecimal(big.NewInt(tt.unscaled), tt.scale), "%d scale %d", tt.unscaled, tt.scale)
	}
}

func TestBigEndianInt(t *testing.T) {
	assert.Equal(t, int64(150), bigEndianInt([]byte{0x00, 0x96}).Int64())
	assert.Equal(t, int64(-5), bigEndianInt([]byte{0xff, 0xff, 0xfb}).Int64())
	assert.Equal(t, int64(0), bigEndianInt(nil).Int64())
}

func TestFormatTimestamp(t *testing.T) {
	const micros = 1704070675250000 // 2024-01-01 00:57:55.25 UTC
	assert.Equal(t, "2024-01-01 00:57:55.25", formatTimestamp(micros, 0))
	assert.Equal(t, "2024-01-01 00:57:55.25", formatTimestamp(micros/1000, 1e6))
	assert.Equal(t, "2024-01-01 00:57:55.25", formatTimestamp(micros*1000, 1))
	assert.Equal(t, "2024-01-02", formatDate(19724))
}
