package reconcile

import (
	"github.com/jward/treeguides/internal/guide"
	"github.com/jward/treeguides/internal/text"
	"github.com/jward/treeguides/internal/track"
)

// Highlight is an annotation backed by a marker on a text document.
type Highlight struct {
	marker     *text.Marker
	descriptor *guide.Descriptor
	last       track.Interval
}

// Range returns the live range of the highlight. Once the marker has been
// invalidated it reports the last range it covered.
func (h *Highlight) Range() track.Interval {
	if h.marker.Valid() {
		h.last = track.Interval{Start: h.marker.Start(), End: h.marker.End()}
	}
	return h.last
}

// Valid reports whether both the marker and its guide still match the text.
func (h *Highlight) Valid() bool {
	return h.marker.Valid() && (h.descriptor == nil || h.descriptor.Valid())
}

// Descriptor returns the guide drawn by the highlight.
func (h *Highlight) Descriptor() *guide.Descriptor { return h.descriptor }

// DocumentHost creates Highlights on one document.
type DocumentHost struct {
	doc *text.Document
}

// NewDocumentHost returns a host that places highlights on doc.
func NewDocumentHost(doc *text.Document) *DocumentHost {
	return &DocumentHost{doc: doc}
}

// Create places a highlight over p.Range and starts tracking the
// descriptor's locations.
func (h *DocumentHost) Create(p Pair) Annotation {
	if d := p.Descriptor; d != nil && !d.Tracked() && !d.Disposed() {
		d.TrackLocations(h.doc)
	}
	return &Highlight{
		marker:     h.doc.NewMarker(p.Range.Start, p.Range.End),
		descriptor: p.Descriptor,
		last:       p.Range,
	}
}

// CreateAll places one highlight per pair with marker sorting deferred
// until the last one is added.
func (h *DocumentHost) CreateAll(pairs []Pair) []Annotation {
	out := make([]Annotation, 0, len(pairs))
	h.doc.Bulk(func() {
		for _, p := range pairs {
			out = append(out, h.Create(p))
		}
	})
	return out
}

// Dispose releases the highlight's marker and the descriptor it owns.
func (h *DocumentHost) Dispose(a Annotation) {
	hl, ok := a.(*Highlight)
	if !ok {
		return
	}
	hl.marker.Release()
	if d := hl.descriptor; d != nil && !d.Disposed() {
		d.Dispose()
	}
}
