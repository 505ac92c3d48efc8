// Package hittest answers whether a range of lines overlaps any guide of a
// built descriptor set.
package hittest

import (
	"sort"

	"github.com/jward/treeguides/internal/guide"
)

// LineRange is an inclusive range of zero-based lines.
type LineRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Tester is an immutable index over the line spans of a descriptor list.
type Tester struct {
	descriptors []*guide.Descriptor
	// spans are disjoint and sorted by Start.
	spans       []LineRange
}

// New indexes descriptors. Each guide covers the lines from its start line
// to its end line inclusive.
func New(descriptors []*guide.Descriptor) *Tester {
	t := &Tester{descriptors: append([]*guide.Descriptor(nil), descriptors...)}
	if len(descriptors) == 0 {
		return t
	}

	spans := make([]LineRange, 0, len(descriptors))
	for _, d := range descriptors {
		spans = append(spans, LineRange{Start: d.StartLine, End: max(d.StartLine, d.EndLine)})
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].Start < spans[j].Start })

	merged := spans[:1]
	for _, s := range spans[1:] {
		last := &merged[len(merged)-1]
		if s.Start <= last.End+1 {
			last.End = max(last.End, s.End)
			continue
		}
		merged = append(merged, s)
	}
	t.spans = merged
	return t
}

// Intersects reports whether r shares at least one line with a guide. A nil
// Tester intersects nothing.
func (t *Tester) Intersects(r LineRange) bool {
	if t == nil || len(t.spans) == 0 || r.End < r.Start {
		return false
	}
	// First span that ends at or after r.Start.
	i := sort.Search(len(t.spans), func(i int) bool { return t.spans[i].End >= r.Start })
	return i < len(t.spans) && t.spans[i].Start <= r.End
}

// Spans returns the merged line spans in order.
func (t *Tester) Spans() []LineRange {
	if t == nil {
		return nil
	}
	return append([]LineRange(nil), t.spans...)
}

// Equal reports whether t and o were built from structurally equal
// descriptor lists.
func (t *Tester) Equal(o *Tester) bool {
	if t == o {
		return true
	}
	if t == nil || o == nil || len(t.descriptors) != len(o.descriptors) {
		return false
	}
	for i, d := range t.descriptors {
		if !d.Equal(o.descriptors[i]) {
			return false
		}
	}
	return true
}
