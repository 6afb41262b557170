package bench

import (
	"slices"
	"time"
)

// Record is the elapsed wall-clock time of one adapter on one sample size.
type Record struct {
	Adapter string
	Size    int64
	Elapsed time.Duration
}

// Seconds returns the elapsed time in seconds.
func (r Record) Seconds() float64 {
	return r.Elapsed.Seconds()
}

// Failure is a conversion that returned an error. Its time is still
// recorded in Results.
type Failure struct {
	Adapter string
	Size    int64
	Err     error
}

// Results accumulates timings as adapter -> size -> elapsed.
// Not safe for concurrent use; the runner is sequential.
type Results struct {
	adapters []string
	elapsed  map[string]map[int64]time.Duration
	failures []Failure
}

// NewResults creates an empty accumulator.
func NewResults() *Results {
	return &Results{elapsed: make(map[string]map[int64]time.Duration)}
}

// Record stores the elapsed time of adapter on size. A later record for
// the same pair replaces the earlier one.
func (r *Results) Record(adapter string, size int64, elapsed time.Duration) {
	bySize, ok := r.elapsed[adapter]
	if !ok {
		bySize = make(map[int64]time.Duration)
		r.elapsed[adapter] = bySize
		r.adapters = append(r.adapters, adapter)
	}
	bySize[size] = elapsed
}

// RecordFailure notes that adapter failed on size. The elapsed time is
// recorded separately with Record.
func (r *Results) RecordFailure(adapter string, size int64, err error) {
	r.failures = append(r.failures, Failure{Adapter: adapter, Size: size, Err: err})
}

// Adapters returns adapter names in first-recorded order.
func (r *Results) Adapters() []string {
	return slices.Clone(r.adapters)
}

// Sizes returns every recorded size once, ascending.
func (r *Results) Sizes() []int64 {
	var sizes []int64
	for _, bySize := range r.elapsed {
		for size := range bySize {
			sizes = append(sizes, size)
		}
	}
	slices.Sort(sizes)
	return slices.Compact(sizes)
}

// Elapsed returns the time recorded for adapter on size.
func (r *Results) Elapsed(adapter string, size int64) (time.Duration, bool) {
	d, ok := r.elapsed[adapter][size]
	return d, ok
}

// Records flattens the results in adapter order, then ascending size.
func (r *Results) Records() []Record {
	records := make([]Record, 0, r.Len())
	for _, adapter := range r.adapters {
		sizes := make([]int64, 0, len(r.elapsed[adapter]))
		for size := range r.elapsed[adapter] {
			sizes = append(sizes, size)
		}
		slices.Sort(sizes)

		for _, size := range sizes {
			records = append(records, Record{
				Adapter: adapter,
				Size:    size,
				Elapsed: r.elapsed[adapter][size],
			})
		}
	}
	return records
}

// Len returns the number of recorded (adapter, size) pairs.
func (r *Results) Len() int {
	n := 0
	for _, bySize := range r.elapsed {
		n += len(bySize)
	}
	return n
}

// Failures returns the failed conversions in execution order.
func (r *Results) Failures() []Failure {
	return slices.Clone(r.failures)
}
