package guide

import (
	"cmp"
	"fmt"
	"unicode"
	"unicode/utf8"

	"github.com/jward/treeguides/internal/outline"
	"github.com/jward/treeguides/internal/text"
	"github.com/jward/treeguides/internal/track"
)

// OffsetConverter translates an offset reported by the analysis backend into
// an offset in the live document.
type OffsetConverter func(raw int) int

// Identity returns raw unchanged.
func Identity(raw int) int { return raw }

// Location is the tracked position of one outline node. Line, column and
// indent are captured at construction and fix the ordering of the location
// for its whole life; the accessors follow edits once Track is called.
type Location struct {
	line   int
	column int
	indent int
	offset int

	node *outline.Node
	doc  *text.Document

	// guide covers the leading whitespace up to and including the first
	// character of the node. full covers the node's whole text.
	guide *track.Tracker
	full  *track.Tracker
}

// NewLocation builds a Location for node at the given construction-time
// position. It fails with ErrInvalidLocation when indent > column or any
// coordinate is negative.
func NewLocation(node *outline.Node, line, column, indent int, doc *text.Document, convert OffsetConverter) (*Location, error) {
	if line < 0 || column < 0 || indent < 0 || indent > column {
		return nil, fmt.Errorf("guide: location line=%d column=%d indent=%d: %w", line, column, indent, ErrInvalidLocation)
	}
	if convert == nil {
		convert = Identity
	}
	offset := convert(node.Offset)
	end := convert(node.Offset + node.Length)
	return &Location{
		line:   line,
		column: column,
		indent: indent,
		offset: offset,
		node:   node,
		doc:    doc,
		guide:  track.New(offset-(column-indent), offset+1),
		full:   track.New(offset, end),
	}, nil
}

// ComputeLocation derives the construction-time position of node from doc
// and builds its Location.
func ComputeLocation(node *outline.Node, doc *text.Document, convert OffsetConverter) (*Location, error) {
	if convert == nil {
		convert = Identity
	}
	line, column, indent := Position(doc, convert(node.Offset))
	return NewLocation(node, line, column, indent, doc, convert)
}

// Position returns the line, column and indent of offset in doc. Offsets
// past the end are clamped to the document length. The indent is the width
// of the leading whitespace of the line, capped at the column.
func Position(doc *text.Document, offset int) (line, column, indent int) {
	if offset > doc.Len() {
		offset = doc.Len()
	}
	line = doc.LineOf(offset)
	start := doc.LineStart(line)
	column = offset - start

	src := doc.Text()
	for indent < column {
		r, size := utf8.DecodeRuneInString(src[start+indent:])
		if !unicode.IsSpace(r) {
			break
		}
		indent += size
	}
	if indent > column {
		indent = column
	}
	return line, column, indent
}

// Node returns the outline node the location was built from.
func (l *Location) Node() *outline.Node { return l.node }

// Offset returns the converted construction-time offset of the node.
func (l *Location) Offset() int { return l.offset }

// Track starts following edits to doc.
func (l *Location) Track(doc *text.Document) {
	l.doc = doc
	l.guide.Track(doc)
	l.full.Track(doc)
}

// Tracking reports whether Track has been called.
func (l *Location) Tracking() bool { return l.guide.Tracking() }

// GuideOffset returns the live start of the guide range, or the node offset
// before tracking starts.
func (l *Location) GuideOffset() int {
	if !l.guide.Tracking() {
		return l.offset
	}
	return l.guide.Interval().Start
}

// Valid reports whether the location still reflects the text it was built
// for. Untracked locations are valid.
func (l *Location) Valid() bool {
	return !l.guide.Tracking() || l.guide.Consistent()
}

// Line returns the current line of the node.
func (l *Location) Line() int {
	if !l.guide.Tracking() {
		return l.line
	}
	return l.doc.LineOf(l.guide.Interval().Start)
}

// Indent returns the column where the guide range currently starts.
func (l *Location) Indent() int {
	if !l.guide.Tracking() {
		return l.indent
	}
	return l.doc.ColumnOf(l.guide.Interval().Start)
}

// Column returns the current column of the first character of the node.
func (l *Location) Column() int {
	if !l.guide.Tracking() {
		return l.column
	}
	iv := l.guide.Interval()
	return l.doc.ColumnOf(max(iv.Start, iv.End-1))
}

// TextRange returns the live extent of the whole node, or the converted
// construction-time extent before tracking starts.
func (l *Location) TextRange() track.Interval {
	return l.full.Interval()
}

// GuideRange returns the live guide range.
func (l *Location) GuideRange() track.Interval {
	return l.guide.Interval()
}

// ConstructionLine returns the line captured at construction.
func (l *Location) ConstructionLine() int { return l.line }

// Compare orders locations by construction-time line, column and indent.
func (l *Location) Compare(o *Location) int {
	if c := cmp.Compare(l.line, o.line); c != 0 {
		return c
	}
	if c := cmp.Compare(l.column, o.column); c != 0 {
		return c
	}
	return cmp.Compare(l.indent, o.indent)
}

// Dispose releases both trackers.
func (l *Location) Dispose() {
	l.guide.Dispose()
	l.full.Dispose()
}

func (l *Location) String() string {
	return fmt.Sprintf("%d:%d(indent %d)", l.line, l.column, l.indent)
}
