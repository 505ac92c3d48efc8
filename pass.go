package treeguides

import (
	"fmt"

	"github.com/tliron/commonlog"

	"github.com/jward/treeguides/internal/guide"
	"github.com/jward/treeguides/internal/hittest"
	"github.com/jward/treeguides/internal/outline"
	"github.com/jward/treeguides/internal/reconcile"
	"github.com/jward/treeguides/internal/text"
	"github.com/jward/treeguides/internal/track"
)

var log = commonlog.GetLogger("treeguides")

// Pass keeps the guides of one document in step with its outline.
type Pass struct {
	doc           *text.Document
	host          reconcile.Host
	convert       guide.OffsetConverter
	bulkThreshold int
	onHitTester   func(old, new *hittest.Tester)

	outline     *outline.Outline
	set         *guide.Set
	annotations []reconcile.Annotation
	tester      *hittest.Tester
	stats       reconcile.Stats
	rejected    int
	disposed    bool
}

// NewPass creates a Pass drawing on doc.
func NewPass(doc *text.Document, opts ...Option) *Pass {
	p := &Pass{doc: doc}
	for _, opt := range opts {
		opt(p)
	}
	if p.host == nil {
		p.host = reconcile.NewDocumentHost(doc)
	}
	return p
}

// Document returns the document the Pass draws on.
func (p *Pass) Document() *text.Document { return p.doc }

// SetOutline rebuilds the guides from o and reconciles them with the
// current annotations. Applying the outline already in use does nothing.
// A stale outline is rejected with ErrStaleOutline and the previous guides
// stay in place.
func (p *Pass) SetOutline(o *outline.Outline) error {
	if p.disposed {
		return ErrDisposed
	}
	if o == nil || o.Root == nil {
		return fmt.Errorf("treeguides: set outline: %w", outline.ErrNoRoot)
	}
	if o == p.outline {
		return nil
	}
	convert, err := p.converterFor(o)
	if err != nil {
		log.Warningf("discarding outline for %s: %s", o.Path, err)
		return err
	}

	builder := guide.NewBuilder(p.doc, guide.WithConverter(convert))
	set := builder.Build(o.Root)
	p.updateHitTester(hittest.New(set.All()))

	pairs := make([]reconcile.Pair, 0, set.Len())
	for _, d := range set.All() {
		pairs = append(pairs, reconcile.Pair{Range: p.rangeOf(d), Descriptor: d})
	}
	anns, stats := reconcile.Reconcile(p.annotations, pairs, p.host, reconcile.Options{BulkThreshold: p.bulkThreshold})

	p.outline = o
	p.set = set
	p.annotations = anns
	p.stats = stats
	p.rejected = builder.Rejected
	log.Debugf("%s v%d: %d guides, created %d, disposed %d, reused %d",
		o.Path, o.Version, len(anns), stats.Created, stats.Disposed, stats.Reused)
	return nil
}

func (p *Pass) converterFor(o *outline.Outline) (guide.OffsetConverter, error) {
	if o.Length == p.doc.Len() {
		return guide.Identity, nil
	}
	if p.convert != nil && p.convert(o.Length) == p.doc.Len() {
		return p.convert, nil
	}
	return nil, fmt.Errorf("treeguides: outline length %d, document length %d: %w", o.Length, p.doc.Len(), ErrStaleOutline)
}

func (p *Pass) updateHitTester(t *hittest.Tester) {
	old := p.tester
	p.tester = t
	if p.onHitTester != nil && !old.Equal(t) {
		p.onHitTester(old, t)
	}
}

// rangeOf returns the text a guide is anchored to. Guides without an
// opening location cover their lines.
func (p *Pass) rangeOf(d *guide.Descriptor) track.Interval {
	if d.Widget != nil {
		return d.Widget.TextRange()
	}
	end := p.doc.Len()
	if d.EndLine < p.doc.LineCount() {
		end = p.doc.LineStart(d.EndLine)
	}
	start := p.doc.LineStart(d.StartLine)
	return track.Interval{Start: start, End: max(start, end)}
}

// Cleanup disposes every annotation. The next outline starts from scratch.
func (p *Pass) Cleanup() {
	for _, a := range p.annotations {
		p.host.Dispose(a)
	}
	p.annotations = nil
	p.outline = nil
	p.set = nil
}

// Dispose cleans up and makes every later SetOutline fail.
func (p *Pass) Dispose() {
	if p.disposed {
		return
	}
	p.Cleanup()
	p.tester = nil
	p.disposed = true
}

// Disposed reports whether Dispose has been called.
func (p *Pass) Disposed() bool { return p.disposed }

// Outline returns the outline last applied, or nil.
func (p *Pass) Outline() *outline.Outline { return p.outline }

// Descriptors returns the descriptors built from the last outline. Guides
// kept from an earlier refresh are drawn with their original descriptor,
// see Annotations.
func (p *Pass) Descriptors() []*guide.Descriptor { return p.set.All() }

// Annotations returns the current annotations ordered by range.
func (p *Pass) Annotations() []reconcile.Annotation { return p.annotations }

// HitTester returns the index of lines covered by guides, or nil before the
// first outline.
func (p *Pass) HitTester() *hittest.Tester { return p.tester }

// IsGuideHidden reports whether lines overlaps a guide, in which case the
// editor's own indent guide for those lines should not be drawn.
func (p *Pass) IsGuideHidden(lines hittest.LineRange) bool {
	return p.tester.Intersects(lines)
}

// Stats returns the counts of the last reconciliation.
func (p *Pass) Stats() reconcile.Stats { return p.stats }

// Rejected returns the number of outline nodes the last build skipped.
func (p *Pass) Rejected() int { return p.rejected }

// Guide is the live state of one drawn guide.
type Guide struct {
	StartOffset int    `json:"startOffset"`
	EndOffset   int    `json:"endOffset"`
	StartLine   int    `json:"startLine"`
	EndLine     int    `json:"endLine"`
	Indent      int    `json:"indent"`
	ChildLines  []int  `json:"childLines"`
	Parent      int    `json:"parent"`
	BuildMethod bool   `json:"buildMethod"`
	Valid       bool   `json:"valid"`
	ClassName   string `json:"className,omitempty"`
}

// Guides returns the guides in annotation order. Lines and offsets follow
// the edits made since the outline was applied. Parent is the position of
// the enclosing guide in the returned list, or -1.
func (p *Pass) Guides() []Guide {
	pos := make(map[*guide.Descriptor]int, len(p.annotations))
	byShape := make(map[uint64][]int, len(p.annotations))
	for i, a := range p.annotations {
		if d := a.Descriptor(); d != nil {
			pos[d] = i
			byShape[d.Hash()] = append(byShape[d.Hash()], i)
		}
	}
	// A guide kept from an earlier refresh may be the parent of one built
	// now, so parents are matched by shape when identity fails.
	parentOf := func(d *guide.Descriptor) int {
		parent := d.Parent()
		if parent == nil {
			return guide.NoIndex
		}
		if i, ok := pos[parent]; ok {
			return i
		}
		for _, i := range byShape[parent.Hash()] {
			if p.annotations[i].Descriptor().Equal(parent) {
				return i
			}
		}
		return guide.NoIndex
	}

	out := make([]Guide, 0, len(p.annotations))
	for _, a := range p.annotations {
		d := a.Descriptor()
		if d == nil {
			continue
		}
		r := a.Range()
		g := Guide{
			StartOffset: r.Start,
			EndOffset:   r.End,
			StartLine:   d.StartLine,
			EndLine:     d.EndLine,
			Indent:      d.IndentLevel,
			ChildLines:  make([]int, 0, len(d.Children)),
			Parent:      parentOf(d),
			BuildMethod: d.IsRoot(),
			Valid:       a.Valid(),
		}
		if d.Node != nil {
			g.ClassName = d.Node.ClassName
		}
		if d.Widget != nil && d.Widget.Tracking() && d.Widget.Valid() {
			g.StartLine = d.Widget.Line()
			g.Indent = d.Widget.Indent()
			g.EndLine = g.StartLine
		}
		for _, c := range d.Children {
			line := c.Line()
			g.ChildLines = append(g.ChildLines, line)
			g.EndLine = max(g.EndLine, line)
		}
		out = append(out, g)
	}
	return out
}
