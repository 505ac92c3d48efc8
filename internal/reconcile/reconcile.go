// Package reconcile updates a list of rendered guide annotations to match a
// freshly built descriptor list while keeping every annotation whose range
// and shape did not change.
package reconcile

import (
	"slices"
	"sort"

	"github.com/jward/treeguides/internal/guide"
	"github.com/jward/treeguides/internal/track"
)

// DefaultBulkThreshold is the number of pairs above which trailing
// creations are handed to the host as a single bulk operation.
const DefaultBulkThreshold = 10000

// Pair is a descriptor together with the range it covers in this frame.
type Pair struct {
	Range      track.Interval
	Descriptor *guide.Descriptor
}

// Annotation is a rendered guide owned by the host.
type Annotation interface {
	Range() track.Interval
	Valid() bool
	Descriptor() *guide.Descriptor
}

// Host creates and disposes annotations.
type Host interface {
	Create(p Pair) Annotation
	Dispose(a Annotation)
}

// BulkHost is a Host that can create many annotations as one operation.
type BulkHost interface {
	Host
	CreateAll(pairs []Pair) []Annotation
}

// Stats counts what a reconciliation did.
type Stats struct {
	Created  int
	Disposed int
	Reused   int
	// Invalid counts old annotations that had drifted; they are included in
	// Disposed.
	Invalid  int
	Bulk     bool
}

// Options tunes Reconcile.
type Options struct {
	// BulkThreshold overrides DefaultBulkThreshold when positive.
	BulkThreshold int
}

// SortPairs orders pairs by range start then end.
func SortPairs(pairs []Pair) {
	sort.SliceStable(pairs, func(i, j int) bool {
		return pairs[i].Range.Compare(pairs[j].Range) < 0
	})
}

// SortAnnotations orders annotations by range start then end.
func SortAnnotations(anns []Annotation) {
	sort.SliceStable(anns, func(i, j int) bool {
		return anns[i].Range().Compare(anns[j].Range()) < 0
	})
}

// Compare orders a pair against an annotation by range, then by descriptor
// shape.
func Compare(p Pair, a Annotation) int {
	if c := p.Range.Compare(a.Range()); c != 0 {
		return c
	}
	return p.Descriptor.Compare(a.Descriptor())
}

// Reconcile merges pairs into old and returns the new annotation list.
//
// Pairs are sorted in place; old is sorted as a copy and the caller's slice
// keeps its order. Every invalid annotation is disposed. Only the old
// annotations before the first invalid one in range order take part in the
// merge: the ones after it are disposed and their pairs created fresh.
// Pairs judged equal to an old annotation keep that annotation and their own
// descriptor is not used.
func Reconcile(old []Annotation, pairs []Pair, host Host, opts Options) ([]Annotation, Stats) {
	threshold := opts.BulkThreshold
	if threshold <= 0 {
		threshold = DefaultBulkThreshold
	}
	SortPairs(pairs)
	sorted := slices.Clone(old)
	SortAnnotations(sorted)

	var stats Stats
	firstInvalid := len(sorted)
	for k, a := range sorted {
		if a.Valid() {
			continue
		}
		firstInvalid = min(firstInvalid, k)
		host.Dispose(a)
		stats.Disposed++
		stats.Invalid++
	}
	matchable := sorted[:firstInvalid]

	out := make([]Annotation, 0, len(pairs))
	i, j := 0, 0
	for i < len(pairs) && j < len(matchable) {
		a := matchable[j]
		switch c := Compare(pairs[i], a); {
		case c < 0:
			out = append(out, host.Create(pairs[i]))
			stats.Created++
			i++
		case c > 0:
			host.Dispose(a)
			stats.Disposed++
			j++
		default:
			out = append(out, a)
			stats.Reused++
			i++
			j++
		}
	}

	for _, a := range sorted[j:] {
		if a.Valid() {
			host.Dispose(a)
			stats.Disposed++
		}
	}

	rest := pairs[i:]
	if bulk, ok := host.(BulkHost); ok && len(pairs) > threshold && len(rest) > 0 {
		out = append(out, bulk.CreateAll(rest)...)
		stats.Bulk = true
	} else {
		for _, p := range rest {
			out = append(out, host.Create(p))
		}
	}
	stats.Created += len(rest)
	return out, stats
}
