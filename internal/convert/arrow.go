package convert

import (
	"context"
	"fmt"
	"os"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/csv"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
)

// arrowConverter reads the whole file into an Arrow table and writes it
// with the Arrow CSV writer in record batches of ChunkSize rows. Decimal
// columns are rendered to text first; the writer would drop the trailing
// zeros of their scale.
type arrowConverter struct {
	base
}

func (c *arrowConverter) Convert(ctx context.Context, stem string) error {
	output := c.layout.Output(stem)

	return c.execute(stem, func(input string) error {
		in, err := os.Open(input)
		if err != nil {
			return fmt.Errorf("open input: %w", err)
		}
		defer in.Close()

		pr, err := file.NewParquetReader(in)
		if err != nil {
			return fmt.Errorf("open parquet: %w", err)
		}
		defer pr.Close()

		fr, err := pqarrow.NewFileReader(pr, pqarrow.ArrowReadProperties{}, memory.DefaultAllocator)
		if err != nil {
			return fmt.Errorf("create arrow reader: %w", err)
		}

		table, err := fr.ReadTable(ctx)
		if err != nil {
			return fmt.Errorf("read table: %w", err)
		}
		defer table.Release()

		out, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer out.Close()

		schema := textSchema(table.Schema())
		w := csv.NewWriter(out, schema, csv.WithHeader(true), csv.WithNullWriter(""))

		batches := array.NewTableReader(table, int64(c.opts.ChunkSize))
		defer batches.Release()

		for batches.Next() {
			rec := decimalsAsText(batches.Record(), schema)
			err := w.Write(rec)
			rec.Release()
			if err != nil {
				return fmt.Errorf("write batch: %w", err)
			}
		}
		if err := batches.Err(); err != nil {
			return fmt.Errorf("read batch: %w", err)
		}

		if err := w.Flush(); err != nil {
			return fmt.Errorf("flush: %w", err)
		}
		if err := w.Error(); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
		return out.Close()
	})
}

// textSchema replaces decimal fields with string fields.
func textSchema(schema *arrow.Schema) *arrow.Schema {
	fields := schema.Fields()
	for i, f := range fields {
		if _, ok := f.Type.(arrow.DecimalType); ok {
			fields[i] = arrow.Field{Name: f.Name, Type: arrow.BinaryTypes.String, Nullable: f.Nullable, Metadata: f.Metadata}
		}
	}
	meta := schema.Metadata()
	return arrow.NewSchema(fields, &meta)
}

// decimalsAsText returns rec with its decimal columns rendered by
// formatDecimal. The caller releases the result.
func decimalsAsText(rec arrow.Record, schema *arrow.Schema) arrow.Record {
	cols := make([]arrow.Array, rec.NumCols())
	for i, col := range rec.Columns() {
		switch arr := col.(type) {
		case *array.Decimal128:
			scale := arr.DataType().(*arrow.Decimal128Type).Scale
			cols[i] = decimalStrings(arr.Len(), arr.IsNull, func(j int) string {
				return formatDecimal(arr.Value(j).BigInt(), scale)
			})
		case *array.Decimal256:
			scale := arr.DataType().(*arrow.Decimal256Type).Scale
			cols[i] = decimalStrings(arr.Len(), arr.IsNull, func(j int) string {
				return formatDecimal(arr.Value(j).BigInt(), scale)
			})
		default:
			col.Retain()
			cols[i] = col
		}
	}

	out := array.NewRecord(schema, cols, rec.NumRows())
	for _, col := range cols {
		col.Release()
	}
	return out
}

func decimalStrings(n int, isNull func(int) bool, text func(int) string) arrow.Array {
	b := array.NewStringBuilder(memory.DefaultAllocator)
	defer b.Release()

	b.Reserve(n)
	for i := 0; i < n; i++ {
		if isNull(i) {
			b.AppendNull()
			continue
		}
		b.Append(text(i))
	}
	return b.NewArray()
}
