// Package track keeps a text interval valid across document edits and
// detects when the interval has drifted away from the text it was created
// for.
package track

import (
	"unicode"
	"unicode/utf8"

	"github.com/jward/treeguides/internal/assert"
	"github.com/jward/treeguides/internal/text"
)

// MaxAnchorWord bounds the length, in runes, of the cached anchor word.
const MaxAnchorWord = 20

// Interval is a half-open range [Start, End).
type Interval struct {
	Start int
	End   int
}

// Len returns End - Start.
func (iv Interval) Len() int { return iv.End - iv.Start }

// Compare orders intervals by start then end.
func (iv Interval) Compare(o Interval) int {
	switch {
	case iv.Start < o.Start:
		return -1
	case iv.Start > o.Start:
		return 1
	case iv.End < o.End:
		return -1
	case iv.End > o.End:
		return 1
	}
	return 0
}

// Tracker wraps one interval. Before Track it reports the raw interval;
// afterwards it reports the live range of a document marker.
type Tracker struct {
	raw      Interval
	marker   *text.Marker
	word     string
	disposed bool
}

// New returns an untracked Tracker over [start, end). A reversed interval is
// collapsed to its start.
func New(start, end int) *Tracker {
	if end < start {
		end = start
	}
	return &Tracker{raw: Interval{Start: start, End: end}}
}

// Raw returns the interval the tracker was created with.
func (t *Tracker) Raw() Interval { return t.raw }

// Tracking reports whether Track has been called.
func (t *Tracker) Tracking() bool { return t.marker != nil }

// Track starts following doc. Calling Track twice, or after Dispose, is a
// programming error and leaves the tracker unchanged.
func (t *Tracker) Track(doc *text.Document) {
	if !assert.That(!t.disposed, "track called on disposed tracker %v", t.raw) {
		return
	}
	if !assert.That(t.marker == nil, "track called twice for %v", t.raw) {
		return
	}
	t.word = AnchorWord(doc, t.raw.End)
	t.marker = doc.NewMarker(t.raw.Start, t.raw.End)
}

// Current returns the live interval. ok is false when the tracker is not
// tracking or its marker was invalidated.
func (t *Tracker) Current() (Interval, bool) {
	if t.marker == nil || !t.marker.Valid() {
		return Interval{}, false
	}
	return Interval{Start: t.marker.Start(), End: t.marker.End()}, true
}

// Interval returns the live interval while tracking and the raw interval
// otherwise. An invalid tracker reports its raw interval.
func (t *Tracker) Interval() Interval {
	if iv, ok := t.Current(); ok {
		return iv
	}
	return t.raw
}

// Consistent reports whether the tracked range still sits on the text it
// was created for. Untracked trackers are always consistent.
func (t *Tracker) Consistent() bool {
	if t.marker == nil {
		return true
	}
	if !t.marker.Valid() {
		return false
	}
	return AnchorWord(t.marker.Document(), t.marker.End()) == t.word
}

// Word returns the anchor word captured by Track.
func (t *Tracker) Word() string { return t.word }

// Dispose releases the marker. It is safe to call more than once.
func (t *Tracker) Dispose() {
	if t.disposed {
		return
	}
	t.disposed = true
	if t.marker != nil {
		t.marker.Release()
	}
}

// Disposed reports whether Dispose has been called.
func (t *Tracker) Disposed() bool { return t.disposed }

// AnchorWord returns the run of letters starting at offset, at most
// MaxAnchorWord runes long.
func AnchorWord(doc *text.Document, offset int) string {
	src := doc.Text()
	if offset < 0 || offset >= len(src) {
		return ""
	}
	end := offset
	for n := 0; n < MaxAnchorWord && end < len(src); n++ {
		r, size := utf8.DecodeRuneInString(src[end:])
		if !unicode.IsLetter(r) {
			break
		}
		end += size
	}
	return src[offset:end]
}
