package convert

import (
	"context"
	"fmt"

	"github.com/xtxerr/pqbench/internal/duckdb"
)

// duckDBConverter hands the whole conversion to a single DuckDB COPY
// statement on a fresh in-memory database. DuckDB streams internally.
type duckDBConverter struct {
	base
}

func (c *duckDBConverter) Convert(ctx context.Context, stem string) error {
	output := c.layout.Output(stem)

	return c.execute(stem, func(input string) error {
		db, err := duckdb.Open(ctx, duckdb.Options{MemoryLimit: c.opts.MemoryLimit})
		if err != nil {
			return err
		}
		defer db.Close()

		query := fmt.Sprintf("COPY (SELECT * FROM read_parquet(%s)) TO %s (FORMAT csv, HEADER)",
			duckdb.Quote(input), duckdb.Quote(output))
		if _, err := db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("copy to csv: %w", err)
		}
		return nil
	})
}
