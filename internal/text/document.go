// Package text provides an in-memory document with a line index and range
// markers that follow edits.
package text

import (
	"fmt"
	"sort"
	"strings"
)

// Document holds the full text of one file. Offsets are byte offsets into
// the UTF-8 text. A Document is not safe for concurrent use; callers
// serialise access on a single owner goroutine.
type Document struct {
	text       string
	lineStarts []int
	version    int

	// markers is kept sorted by start offset so release can binary search.
	// Edits preserve that order, so only bulk creation needs a re-sort.
	markers []*Marker
	bulk    int
	dirty   bool
}

// NewDocument creates a Document holding src.
func NewDocument(src string) *Document {
	d := &Document{text: src}
	d.reindex()
	return d
}

// Text returns the current contents.
func (d *Document) Text() string { return d.text }

// Len returns the length of the document in bytes.
func (d *Document) Len() int { return len(d.text) }

// Version increases by one for every applied edit.
func (d *Document) Version() int { return d.version }

// Slice returns the text in [start, end), clamped to the document bounds.
func (d *Document) Slice(start, end int) string {
	start = clamp(start, 0, len(d.text))
	end = clamp(end, start, len(d.text))
	return d.text[start:end]
}

// ByteAt returns the byte at offset and false when offset is out of range.
func (d *Document) ByteAt(offset int) (byte, bool) {
	if offset < 0 || offset >= len(d.text) {
		return 0, false
	}
	return d.text[offset], true
}

// LineCount returns the number of lines. An empty document has one line.
func (d *Document) LineCount() int { return len(d.lineStarts) }

// LineOf returns the zero-based line containing offset. Offsets past the end
// map to the last line.
func (d *Document) LineOf(offset int) int {
	offset = clamp(offset, 0, len(d.text))
	// First line start strictly greater than offset, minus one.
	return sort.SearchInts(d.lineStarts, offset+1) - 1
}

// LineStart returns the offset of the first byte of line.
func (d *Document) LineStart(line int) int {
	line = clamp(line, 0, len(d.lineStarts)-1)
	return d.lineStarts[line]
}

// LineEnd returns the offset of the line terminator of line, or the document
// length for the last line.
func (d *Document) LineEnd(line int) int {
	line = clamp(line, 0, len(d.lineStarts)-1)
	if line+1 < len(d.lineStarts) {
		return d.lineStarts[line+1] - 1
	}
	return len(d.text)
}

// ColumnOf returns the byte column of offset within its line.
func (d *Document) ColumnOf(offset int) int {
	offset = clamp(offset, 0, len(d.text))
	return offset - d.LineStart(d.LineOf(offset))
}

// Insert inserts s at offset.
func (d *Document) Insert(offset int, s string) error {
	return d.Replace(offset, offset, s)
}

// Delete removes [start, end).
func (d *Document) Delete(start, end int) error {
	return d.Replace(start, end, "")
}

// Replace replaces [start, end) with s and updates every live marker.
func (d *Document) Replace(start, end int, s string) error {
	if start < 0 || end < start || end > len(d.text) {
		return fmt.Errorf("text: replace [%d, %d) in document of length %d: %w", start, end, len(d.text), ErrOutOfRange)
	}
	if start == end && s == "" {
		return nil
	}

	var b strings.Builder
	b.Grow(len(d.text) - (end - start) + len(s))
	b.WriteString(d.text[:start])
	b.WriteString(s)
	b.WriteString(d.text[end:])
	d.text = b.String()
	d.version++
	d.reindex()

	kept := d.markers[:0]
	for _, m := range d.markers {
		m.adjust(start, end, len(s))
		if m.valid {
			kept = append(kept, m)
		}
	}
	for i := len(kept); i < len(d.markers); i++ {
		d.markers[i] = nil
	}
	d.markers = kept
	return nil
}

// Bulk runs fn with marker bookkeeping deferred. Markers created inside fn
// are appended unsorted and the index is rebuilt once when the outermost
// Bulk call returns.
func (d *Document) Bulk(fn func()) {
	d.bulk++
	defer func() {
		d.bulk--
		if d.bulk == 0 && d.dirty {
			sort.SliceStable(d.markers, func(i, j int) bool {
				return d.markers[i].start < d.markers[j].start
			})
			d.dirty = false
		}
	}()
	fn()
}

// InBulk reports whether a Bulk call is in progress.
func (d *Document) InBulk() bool { return d.bulk > 0 }

// MarkerCount returns the number of live markers.
func (d *Document) MarkerCount() int { return len(d.markers) }

// NewMarker creates a marker over [start, end). The bounds are clamped to
// the document.
func (d *Document) NewMarker(start, end int) *Marker {
	start = clamp(start, 0, len(d.text))
	end = clamp(end, start, len(d.text))
	m := &Marker{doc: d, start: start, end: end, valid: true}

	if d.bulk > 0 {
		d.markers = append(d.markers, m)
		d.dirty = true
		return m
	}
	i := sort.Search(len(d.markers), func(i int) bool {
		return d.markers[i].start > start
	})
	d.markers = append(d.markers, nil)
	copy(d.markers[i+1:], d.markers[i:])
	d.markers[i] = m
	return m
}

func (d *Document) release(m *Marker) {
	i := 0
	if !d.dirty {
		// Skip every marker that starts before m.
		i = sort.Search(len(d.markers), func(i int) bool {
			return d.markers[i].start >= m.start
		})
	}
	for ; i < len(d.markers); i++ {
		if d.markers[i] == m {
			d.markers = append(d.markers[:i], d.markers[i+1:]...)
			return
		}
	}
}

func (d *Document) reindex() {
	d.lineStarts = d.lineStarts[:0]
	d.lineStarts = append(d.lineStarts, 0)
	for i := 0; i < len(d.text); i++ {
		if d.text[i] == '\n' {
			d.lineStarts = append(d.lineStarts, i+1)
		}
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
