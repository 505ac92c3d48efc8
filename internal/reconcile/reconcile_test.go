package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/treeguides/internal/guide"
	"github.com/jward/treeguides/internal/text"
	"github.com/jward/treeguides/internal/track"
)

type fakeAnnotation struct {
	rng   track.Interval
	valid bool
	desc  *guide.Descriptor
}

func (a *fakeAnnotation) Range() track.Interval         { return a.rng }
func (a *fakeAnnotation) Valid() bool                   { return a.valid }
func (a *fakeAnnotation) Descriptor() *guide.Descriptor { return a.desc }

type fakeHost struct {
	created  []Pair
	disposed []Annotation
	bulk     int
}

func (h *fakeHost) Create(p Pair) Annotation {
	h.created = append(h.created, p)
	return &fakeAnnotation{rng: p.Range, valid: true, desc: p.Descriptor}
}

func (h *fakeHost) Dispose(a Annotation) { h.disposed = append(h.disposed, a) }

type fakeBulkHost struct {
	fakeHost
}

func (h *fakeBulkHost) CreateAll(pairs []Pair) []Annotation {
	h.bulk++
	out := make([]Annotation, len(pairs))
	for i, p := range pairs {
		out[i] = h.Create(p)
	}
	return out
}

func desc(line int) *guide.Descriptor {
	return &guide.Descriptor{IndentLevel: 2, StartLine: line, EndLine: line + 1}
}

func pair(start, end int) Pair {
	return Pair{Range: track.Interval{Start: start, End: end}, Descriptor: desc(start)}
}

func TestReconcile_FromEmpty(t *testing.T) {
	t.Parallel()
	host := &fakeHost{}
	out, stats := Reconcile(nil, []Pair{pair(20, 30), pair(0, 10)}, host, Options{})

	require.Len(t, out, 2)
	assert.Equal(t, 0, out[0].Range().Start)
	assert.Equal(t, 20, out[1].Range().Start)
	assert.Equal(t, Stats{Created: 2}, stats)
}

func TestReconcile_SamePairsAreReused(t *testing.T) {
	t.Parallel()
	host := &fakeHost{}
	first, _ := Reconcile(nil, []Pair{pair(0, 10), pair(20, 30), pair(40, 50)}, host, Options{})
	kept := append([]Annotation(nil), first...)

	host = &fakeHost{}
	second, stats := Reconcile(first, []Pair{pair(40, 50), pair(0, 10), pair(20, 30)}, host, Options{})

	assert.Equal(t, Stats{Reused: 3}, stats)
	assert.Empty(t, host.created)
	assert.Empty(t, host.disposed)
	require.Len(t, second, 3)
	for i := range kept {
		assert.Same(t, kept[i], second[i])
	}
}

func TestReconcile_MergeCounts(t *testing.T) {
	t.Parallel()
	host := &fakeHost{}
	old, _ := Reconcile(nil, []Pair{pair(0, 10), pair(20, 30), pair(40, 50)}, host, Options{})
	a0, a20, a40 := old[0], old[1], old[2]

	host = &fakeHost{}
	out, stats := Reconcile(old, []Pair{pair(0, 10), pair(25, 30), pair(40, 50), pair(60, 70)}, host, Options{})

	assert.Equal(t, Stats{Created: 2, Disposed: 1, Reused: 2}, stats)
	require.Len(t, out, 4)
	assert.Same(t, a0, out[0])
	assert.Equal(t, 25, out[1].Range().Start)
	assert.Same(t, a40, out[2])
	assert.Equal(t, 60, out[3].Range().Start)
	assert.Equal(t, []Annotation{a20}, host.disposed)
}

func TestReconcile_ChangedShapeIsReplaced(t *testing.T) {
	t.Parallel()
	host := &fakeHost{}
	old, _ := Reconcile(nil, []Pair{pair(0, 10)}, host, Options{})

	changed := pair(0, 10)
	changed.Descriptor.EndLine += 3
	host = &fakeHost{}
	out, stats := Reconcile(old, []Pair{changed}, host, Options{})

	assert.Equal(t, Stats{Created: 1, Disposed: 1}, stats)
	require.Len(t, out, 1)
	assert.Same(t, changed.Descriptor, out[0].Descriptor())
}

func TestReconcile_InvalidAnnotationsAreNeverReused(t *testing.T) {
	t.Parallel()
	valid := &fakeAnnotation{rng: track.Interval{Start: 0, End: 10}, valid: true, desc: desc(0)}
	stale := &fakeAnnotation{rng: track.Interval{Start: 20, End: 30}, valid: false, desc: desc(20)}

	host := &fakeHost{}
	out, stats := Reconcile([]Annotation{valid, stale}, []Pair{pair(0, 10), pair(20, 30)}, host, Options{})

	assert.Equal(t, Stats{Created: 1, Disposed: 1, Reused: 1, Invalid: 1}, stats)
	assert.Equal(t, []Annotation{stale}, host.disposed)
	require.Len(t, out, 2)
	assert.Same(t, valid, out[0])
	assert.NotSame(t, stale, out[1])
}

func TestReconcile_MatchingStopsAtFirstInvalid(t *testing.T) {
	t.Parallel()
	a := &fakeAnnotation{rng: track.Interval{Start: 0, End: 10}, valid: true, desc: desc(0)}
	b := &fakeAnnotation{rng: track.Interval{Start: 20, End: 30}, valid: false, desc: desc(20)}
	c := &fakeAnnotation{rng: track.Interval{Start: 40, End: 50}, valid: true, desc: desc(40)}

	host := &fakeHost{}
	out, stats := Reconcile([]Annotation{a, b, c}, []Pair{pair(0, 10), pair(20, 30), pair(40, 50)}, host, Options{})

	assert.Equal(t, Stats{Created: 2, Disposed: 2, Reused: 1, Invalid: 1}, stats)
	assert.ElementsMatch(t, []Annotation{b, c}, host.disposed)
	require.Len(t, out, 3)
	assert.Same(t, a, out[0])
	assert.NotSame(t, b, out[1])
	assert.NotSame(t, c, out[2])
	assert.Equal(t, 40, out[2].Range().Start)
}

func TestReconcile_LeavesCallerSliceOrder(t *testing.T) {
	t.Parallel()
	late := &fakeAnnotation{rng: track.Interval{Start: 20, End: 30}, valid: true, desc: desc(20)}
	early := &fakeAnnotation{rng: track.Interval{Start: 0, End: 10}, valid: false, desc: desc(0)}
	old := []Annotation{late, early}

	Reconcile(old, []Pair{pair(20, 30)}, &fakeHost{}, Options{})
	assert.Same(t, late, old[0])
	assert.Same(t, early, old[1])
}

func TestReconcile_DisposesEverythingForEmptyPairs(t *testing.T) {
	t.Parallel()
	host := &fakeHost{}
	old, _ := Reconcile(nil, []Pair{pair(0, 10), pair(20, 30)}, host, Options{})

	host = &fakeHost{}
	out, stats := Reconcile(old, nil, host, Options{})
	assert.Empty(t, out)
	assert.Equal(t, Stats{Disposed: 2}, stats)
}

func TestReconcile_BulkCreation(t *testing.T) {
	t.Parallel()
	pairs := func() []Pair { return []Pair{pair(0, 1), pair(2, 3), pair(4, 5)} }

	host := &fakeBulkHost{}
	out, stats := Reconcile(nil, pairs(), host, Options{BulkThreshold: 2})
	assert.Len(t, out, 3)
	assert.True(t, stats.Bulk)
	assert.Equal(t, 3, stats.Created)
	assert.Equal(t, 1, host.bulk)

	host = &fakeBulkHost{}
	_, stats = Reconcile(nil, pairs(), host, Options{})
	assert.False(t, stats.Bulk)
	assert.Equal(t, 0, host.bulk)
	assert.Len(t, host.created, 3)
}

func TestDocumentHost_FollowsEdits(t *testing.T) {
	t.Parallel()
	doc := text.NewDocument("alpha\nbeta\ngamma\n")
	host := NewDocumentHost(doc)

	out, stats := Reconcile(nil, []Pair{pair(6, 10), pair(0, 5), pair(11, 16)}, host, Options{BulkThreshold: 1})
	require.Len(t, out, 3)
	assert.True(t, stats.Bulk)
	assert.Equal(t, 3, doc.MarkerCount())

	require.NoError(t, doc.Insert(0, "\n"))
	assert.Equal(t, track.Interval{Start: 1, End: 6}, out[0].Range())
	assert.Equal(t, track.Interval{Start: 7, End: 11}, out[1].Range())

	// Removing "beta\n" entirely invalidates the second highlight.
	require.NoError(t, doc.Delete(7, 12))
	assert.False(t, out[1].Valid())
	assert.Equal(t, track.Interval{Start: 7, End: 11}, out[1].Range())

	// gamma follows the invalid highlight, so only alpha is matched.
	alpha := Pair{Range: track.Interval{Start: 1, End: 6}, Descriptor: desc(0)}
	next, stats := Reconcile(out, []Pair{alpha}, host, Options{})
	assert.Equal(t, Stats{Disposed: 2, Reused: 1, Invalid: 1}, stats)
	require.Len(t, next, 1)
	assert.Same(t, out[0], next[0])
	assert.Equal(t, 1, doc.MarkerCount())
}
