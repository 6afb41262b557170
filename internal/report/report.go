// Package report turns benchmark timings into the results CSV and a
// human-readable summary.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"

	"github.com/xtxerr/pqbench/internal/bench"
)

// Cell is one timing in seconds. OK is false when no timing was recorded.
type Cell struct {
	Seconds float64
	OK      bool
}

// Row holds the timings of one sample size, one cell per adapter.
type Row struct {
	Size  int64
	Cells []Cell
}

// Table is the wide results layout: one row per size, one column per adapter.
type Table struct {
	Adapters []string
	Rows     []Row
}

// Pivot reshapes records into a Table. Sizes are unique and ascending;
// adapter columns follow the order adapters first appear in records.
func Pivot(records []bench.Record) Table {
	var t Table
	column := make(map[string]int)
	for _, r := range records {
		if _, ok := column[r.Adapter]; !ok {
			column[r.Adapter] = len(t.Adapters)
			t.Adapters = append(t.Adapters, r.Adapter)
		}
	}

	sizes := make([]int64, 0, len(records))
	for _, r := range records {
		sizes = append(sizes, r.Size)
	}
	slices.Sort(sizes)
	sizes = slices.Compact(sizes)

	row := make(map[int64]int, len(sizes))
	t.Rows = make([]Row, len(sizes))
	for i, size := range sizes {
		row[size] = i
		t.Rows[i] = Row{Size: size, Cells: make([]Cell, len(t.Adapters))}
	}

	for _, r := range records {
		t.Rows[row[r.Size]].Cells[column[r.Adapter]] = Cell{Seconds: r.Seconds(), OK: true}
	}
	return t
}

// WriteCSV writes t with the header size,<adapters...>. Missing cells are
// written as empty fields.
func WriteCSV(w io.Writer, t Table) error {
	cw := csv.NewWriter(w)

	header := append([]string{"size"}, t.Adapters...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	record := make([]string, len(header))
	for _, r := range t.Rows {
		record[0] = strconv.FormatInt(r.Size, 10)
		for i, c := range r.Cells {
			record[i+1] = ""
			if c.OK {
				record[i+1] = strconv.FormatFloat(c.Seconds, 'f', -1, 64)
			}
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	return nil
}

// Export writes the pivoted results to path, replacing any existing file.
func Export(path string, res *bench.Results) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create results file: %w", err)
	}

	if err := WriteCSV(f, Pivot(res.Records())); err != nil {
		f.Close()
		return fmt.Errorf("write results: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("close results file: %w", err)
	}
	return nil
}
