package report

import (
	"fmt"
	"io"
	"time"

	"github.com/DataDog/sketches-go/ddsketch"
	"github.com/xtxerr/pqbench/internal/bench"
)

// sketchAccuracy is the relative accuracy of throughput quantiles.
const sketchAccuracy = 0.01

// Summary condenses one adapter's timings.
type Summary struct {
	Adapter string

	// Samples counts successful conversions. Failed ones only count in
	// Failures and are left out of Total and the quantiles.
	Samples  int
	Failures int

	// Total is the sum of elapsed times over successful sizes.
	Total time.Duration

	// Slowdown is Total relative to the fastest adapter's Total, zero when
	// nothing succeeded.
	Slowdown float64

	// RowsPerSecP50 and RowsPerSecP90 are throughput quantiles across sizes.
	RowsPerSecP50 float64
	RowsPerSecP90 float64
}

// Summarize computes one Summary per adapter, in adapter order.
func Summarize(res *bench.Results) ([]Summary, error) {
	type pair struct {
		adapter string
		size    int64
	}
	failures := make(map[string]int)
	failed := make(map[pair]bool)
	for _, f := range res.Failures() {
		failures[f.Adapter]++
		failed[pair{f.Adapter, f.Size}] = true
	}

	sizes := res.Sizes()
	summaries := make([]Summary, 0, len(res.Adapters()))
	var fastest time.Duration

	for _, adapter := range res.Adapters() {
		sketch, err := ddsketch.NewDefaultDDSketch(sketchAccuracy)
		if err != nil {
			return nil, fmt.Errorf("create sketch: %w", err)
		}

		s := Summary{Adapter: adapter, Failures: failures[adapter]}
		for _, size := range sizes {
			d, ok := res.Elapsed(adapter, size)
			if !ok || failed[pair{adapter, size}] {
				continue
			}
			s.Samples++
			s.Total += d
			if d > 0 {
				if err := sketch.Add(float64(size) / d.Seconds()); err != nil {
					return nil, fmt.Errorf("add throughput: %w", err)
				}
			}
		}

		if !sketch.IsEmpty() {
			s.RowsPerSecP50, _ = sketch.GetValueAtQuantile(0.50)
			s.RowsPerSecP90, _ = sketch.GetValueAtQuantile(0.90)
		}

		if fastest == 0 || (s.Total > 0 && s.Total < fastest) {
			fastest = s.Total
		}
		summaries = append(summaries, s)
	}

	for i := range summaries {
		switch {
		case summaries[i].Total == 0:
			// Nothing succeeded, there is no time to compare.
		case fastest > 0:
			summaries[i].Slowdown = float64(summaries[i].Total) / float64(fastest)
		default:
			summaries[i].Slowdown = 1
		}
	}
	return summaries, nil
}

// WriteSummary writes summaries as a markdown table.
func WriteSummary(w io.Writer, summaries []Summary) error {
	if len(summaries) == 0 {
		return fmt.Errorf("no results to summarize")
	}

	fmt.Fprintln(w, "## Benchmark Summary")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "| Adapter | Samples | Failures | Total | Rows/s p50 | Rows/s p90 | Slowdown |")
	fmt.Fprintln(w, "|---------|---------|----------|-------|------------|------------|----------|")

	for _, s := range summaries {
		_, err := fmt.Fprintf(w, "| %s | %d | %d | %s | %s | %s | %s |\n",
			s.Adapter,
			s.Samples,
			s.Failures,
			s.Total.Round(time.Millisecond),
			formatRate(s.RowsPerSecP50),
			formatRate(s.RowsPerSecP90),
			formatSlowdown(s.Slowdown),
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func formatSlowdown(x float64) string {
	if x == 0 {
		return "-"
	}
	return fmt.Sprintf("%.2fx", x)
}

func formatRate(r float64) string {
	switch {
	case r == 0:
		return "-"
	case r >= 1e6:
		return fmt.Sprintf("%.2fM", r/1e6)
	case r >= 1e3:
		return fmt.Sprintf("%.2fK", r/1e3)
	default:
		return fmt.Sprintf("%.0f", r)
	}
}
