package guide

import (
	"cmp"
	"hash/fnv"
	"strconv"

	"github.com/jward/treeguides/internal/assert"
	"github.com/jward/treeguides/internal/outline"
	"github.com/jward/treeguides/internal/text"
	"github.com/jward/treeguides/internal/track"
)

// NoIndex marks a missing parent or sibling.
const NoIndex = -1

// Property is one tracked attribute of a guide's node.
type Property struct {
	Name    string
	Literal string
	tracker *track.Tracker
}

// Range returns the live range of the attribute value.
func (p *Property) Range() track.Interval { return p.tracker.Interval() }

// Valid reports whether the attribute value is still where it was.
func (p *Property) Valid() bool { return p.tracker.Consistent() }

// Descriptor describes one guide. Descriptors live in a Set and refer to
// their parent and next sibling by index into it.
type Descriptor struct {
	set         *Set
	index       int
	parent      int
	nextSibling int

	IndentLevel int
	StartLine   int
	EndLine     int

	// Widget is the location of the node that opens the guide.
	Widget     *Location
	// Children holds the locations of the node's children on later lines.
	Children   []*Location
	Properties []*Property
	Node       *outline.Node

	tracked  bool
	disposed bool
}

// Index returns the position of d in its Set.
func (d *Descriptor) Index() int { return d.index }

// ParentIndex returns the index of the enclosing guide, or NoIndex.
func (d *Descriptor) ParentIndex() int { return d.parent }

// Parent returns the enclosing guide, or nil for a root guide.
func (d *Descriptor) Parent() *Descriptor {
	if d.parent == NoIndex || d.set == nil {
		return nil
	}
	return d.set.At(d.parent)
}

// NextSibling returns the next descriptor in build order, or nil.
func (d *Descriptor) NextSibling() *Descriptor {
	if d.nextSibling == NoIndex || d.set == nil {
		return nil
	}
	return d.set.At(d.nextSibling)
}

// IsRoot reports whether d has no enclosing guide. Root guides mark the
// outermost constructor of a build function.
func (d *Descriptor) IsRoot() bool { return d.parent == NoIndex }

// ChildLines returns the construction-time lines of the children.
func (d *Descriptor) ChildLines() []int {
	lines := make([]int, len(d.Children))
	for i, c := range d.Children {
		lines[i] = c.ConstructionLine()
	}
	return lines
}

// TrackLocations starts tracking every location and property of d. It may be
// called once.
func (d *Descriptor) TrackLocations(doc *text.Document) {
	if !assert.That(!d.disposed, "track locations on disposed descriptor %d", d.index) {
		return
	}
	if !assert.That(!d.tracked, "track locations twice on descriptor %d", d.index) {
		return
	}
	d.tracked = true
	if d.Widget != nil {
		d.Widget.Track(doc)
	}
	for _, c := range d.Children {
		c.Track(doc)
	}
	for _, p := range d.Properties {
		p.tracker.Track(doc)
	}
}

// Tracked reports whether TrackLocations has been called.
func (d *Descriptor) Tracked() bool { return d.tracked }

// Disposed reports whether Dispose has been called.
func (d *Descriptor) Disposed() bool { return d.disposed }

// Valid reports whether the opening location is still consistent with the
// document.
func (d *Descriptor) Valid() bool {
	return !d.disposed && (d.Widget == nil || d.Widget.Valid())
}

// Dispose releases all trackers owned by d.
func (d *Descriptor) Dispose() {
	if !assert.That(!d.disposed, "dispose called twice on descriptor %d", d.index) {
		return
	}
	d.disposed = true
	if d.Widget != nil {
		d.Widget.Dispose()
	}
	for _, c := range d.Children {
		c.Dispose()
	}
	for _, p := range d.Properties {
		p.tracker.Dispose()
	}
}

// Equal reports whether d and o describe the same shape. Live positions are
// ignored.
func (d *Descriptor) Equal(o *Descriptor) bool {
	if d == o {
		return true
	}
	if d == nil || o == nil {
		return false
	}
	if d.IndentLevel != o.IndentLevel || d.StartLine != o.StartLine || d.EndLine != o.EndLine {
		return false
	}
	if len(d.Children) != len(o.Children) {
		return false
	}
	for i := range d.Children {
		if d.Children[i].Compare(o.Children[i]) != 0 {
			return false
		}
	}
	return true
}

// Hash returns a hash consistent with Equal.
func (d *Descriptor) Hash() uint64 {
	h := fnv.New64a()
	write := func(v int) {
		h.Write(strconv.AppendInt(nil, int64(v), 10))
		h.Write([]byte{','})
	}
	write(d.IndentLevel)
	write(d.StartLine)
	write(d.EndLine)
	for _, c := range d.Children {
		write(c.line)
		write(c.column)
		write(c.indent)
	}
	return h.Sum64()
}

// Compare orders descriptors by end line, indent level, start line, number
// of children, and then the children themselves.
func (d *Descriptor) Compare(o *Descriptor) int {
	if c := cmp.Compare(d.EndLine, o.EndLine); c != 0 {
		return c
	}
	if c := cmp.Compare(d.IndentLevel, o.IndentLevel); c != 0 {
		return c
	}
	if c := cmp.Compare(d.StartLine, o.StartLine); c != 0 {
		return c
	}
	if c := cmp.Compare(len(d.Children), len(o.Children)); c != 0 {
		return c
	}
	for i := range d.Children {
		if c := d.Children[i].Compare(o.Children[i]); c != 0 {
			return c
		}
	}
	return 0
}

// Set is one generation of descriptors in build order.
type Set struct {
	items []*Descriptor
}

// Len returns the number of descriptors.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.items)
}

// At returns the descriptor at index i.
func (s *Set) At(i int) *Descriptor { return s.items[i] }

// All returns the descriptors in build order. The slice must not be
// modified.
func (s *Set) All() []*Descriptor {
	if s == nil {
		return nil
	}
	return s.items
}

// Children returns the descriptors whose parent is d, in build order.
func (s *Set) Children(d *Descriptor) []*Descriptor {
	var out []*Descriptor
	for _, c := range s.items[d.index+1:] {
		if c.parent == d.index {
			out = append(out, c)
		}
	}
	return out
}

// Dispose disposes every descriptor that has not been disposed yet.
func (s *Set) Dispose() {
	for _, d := range s.All() {
		if !d.disposed {
			d.Dispose()
		}
	}
}

func (s *Set) add(d *Descriptor, parent int) {
	d.set = s
	d.index = len(s.items)
	d.parent = parent
	d.nextSibling = NoIndex
	s.items = append(s.items, d)
}

// link sets each descriptor's next sibling to the one built after it.
func (s *Set) link() {
	for i := 0; i+1 < len(s.items); i++ {
		s.items[i].nextSibling = i + 1
	}
}
