package guide

import (
	"github.com/tliron/commonlog"

	"github.com/jward/treeguides/internal/outline"
	"github.com/jward/treeguides/internal/text"
	"github.com/jward/treeguides/internal/track"
)

var log = commonlog.GetLogger("treeguides.guide")

// Locator returns the construction-time line, column and indent of a node.
type Locator func(node *outline.Node) (line, column, indent int)

// Builder flattens an outline into a Set of descriptors.
type Builder struct {
	doc     *text.Document
	convert OffsetConverter
	locate  Locator

	// Rejected counts nodes dropped because their position was inconsistent
	// with the document.
	Rejected int
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithConverter sets the offset converter. The default is Identity.
func WithConverter(convert OffsetConverter) BuilderOption {
	return func(b *Builder) {
		if convert != nil {
			b.convert = convert
		}
	}
}

// WithLocator overrides how node positions are derived from the document.
func WithLocator(locate Locator) BuilderOption {
	return func(b *Builder) {
		b.locate = locate
	}
}

// NewBuilder creates a Builder for doc.
func NewBuilder(doc *text.Document, opts ...BuilderOption) *Builder {
	b := &Builder{doc: doc, convert: Identity}
	for _, opt := range opts {
		opt(b)
	}
	if b.locate == nil {
		b.locate = func(n *outline.Node) (int, int, int) {
			return Position(b.doc, b.convert(n.Offset))
		}
	}
	return b
}

// Build walks root in pre-order and returns one descriptor per node that
// opens a guide. Nodes whose position is inconsistent with the document are
// skipped; their descendants are still visited.
func (b *Builder) Build(root *outline.Node) *Set {
	set := &Set{}
	b.visit(set, root, NoIndex)
	set.link()
	return set
}

func (b *Builder) visit(set *Set, node *outline.Node, parent int) {
	if node == nil {
		return
	}
	if node.OpensGuide() {
		if d := b.describe(node); d != nil {
			set.add(d, parent)
			parent = d.index
		}
	}
	for _, c := range node.Children {
		b.visit(set, c, parent)
	}
}

func (b *Builder) describe(node *outline.Node) *Descriptor {
	loc, err := b.location(node)
	if err != nil {
		b.Rejected++
		log.Debugf("rejecting %s at offset %d: %s", node.Kind, node.Offset, err)
		return nil
	}

	endLine := loc.line
	var children []*Location
	for _, c := range node.Children {
		if c == nil {
			continue
		}
		cl, err := b.location(c)
		if err != nil {
			b.Rejected++
			log.Debugf("rejecting child %s at offset %d: %s", c.Kind, c.Offset, err)
			continue
		}
		if cl.line <= loc.line {
			// Same-line children cannot hang off a descending guide.
			continue
		}
		endLine = max(endLine, cl.line)
		children = append(children, cl)
	}

	var props []*Property
	for _, a := range node.Attributes {
		if a.Value == nil {
			continue
		}
		start := b.convert(a.Value.Offset)
		end := b.convert(a.Value.End())
		props = append(props, &Property{
			Name:    a.Name,
			Literal: a.Literal,
			tracker: track.New(start, end),
		})
	}

	return &Descriptor{
		IndentLevel: loc.indent,
		StartLine:   loc.line,
		EndLine:     endLine,
		Widget:      loc,
		Children:    children,
		Properties:  props,
		Node:        node,
	}
}

func (b *Builder) location(node *outline.Node) (*Location, error) {
	line, column, indent := b.locate(node)
	return NewLocation(node, line, column, indent, b.doc, b.convert)
}
