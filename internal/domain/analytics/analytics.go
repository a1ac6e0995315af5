// Package analytics derives chart-ready summaries from a raw event sequence.
//
// Everything here is a pure function: no I/O, no shared state, deterministic
// for identical input. The presentation layer feeds the output straight into
// its chart components.
package analytics

import (
	"math"
	"sort"

	"github.com/okian/roadlens/internal/domain/model"
)

// BucketWidth is the fixed width of the event timeline buckets, in seconds.
const BucketWidth = 10

// TypeCount is one histogram entry: an event type and how often it occurred.
type TypeCount struct {
	Type  string
	Count int
}

// Bucket is one timeline entry: a bucket start time and the number of
// events whose timestamp falls inside [Start, Start+BucketWidth).
type Bucket struct {
	Start int64
	Count int
}

// HistogramByType groups events by type. Output order is the insertion
// order of each type's first occurrence in the input, not sorted.
func HistogramByType(events []model.Event) []TypeCount {
	counts := make(map[string]int, len(events))
	order := make([]string, 0, len(events))
	for _, e := range events {
		if _, seen := counts[e.Type]; !seen {
			order = append(order, e.Type)
		}
		counts[e.Type]++
	}
	out := make([]TypeCount, 0, len(order))
	for _, t := range order {
		out = append(out, TypeCount{Type: t, Count: counts[t]})
	}
	return out
}

// TimeBuckets accumulates events into fixed-width timeline buckets, sorted
// ascending by bucket start. An event with an unusable timestamp counts
// toward bucket zero.
func TimeBuckets(events []model.Event) []Bucket {
	counts := make(map[int64]int, len(events))
	for _, e := range events {
		ts := float64(e.Timestamp)
		if math.IsNaN(ts) || math.IsInf(ts, 0) {
			ts = 0
		}
		bucket := int64(math.Floor(ts/BucketWidth)) * BucketWidth
		counts[bucket]++
	}
	out := make([]Bucket, 0, len(counts))
	for start, n := range counts {
		out = append(out, Bucket{Start: start, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}
