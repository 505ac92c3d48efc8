package text

// Marker is a half-open range [Start, End) that follows edits to its
// Document. A marker becomes permanently invalid when an edit removes the
// whole range.
type Marker struct {
	doc      *Document
	start    int
	end      int
	valid    bool
	released bool
}

// Document returns the document the marker was created on.
func (m *Marker) Document() *Document { return m.doc }

// Start returns the current start offset.
func (m *Marker) Start() int { return m.start }

// End returns the current end offset.
func (m *Marker) End() int { return m.end }

// Valid reports whether the marker still tracks live text.
func (m *Marker) Valid() bool { return m.valid && !m.released }

// Release detaches the marker from its document. Releasing twice is a no-op.
func (m *Marker) Release() {
	if m.released {
		return
	}
	m.released = true
	if m.valid {
		m.doc.release(m)
	}
	m.valid = false
}

// adjust applies the edit that replaced [s, e) with n bytes.
//
// An insertion at the start shifts the range; an insertion at the end
// leaves it alone. A replacement that covers the whole range invalidates it.
func (m *Marker) adjust(s, e, n int) {
	delta := n - (e - s)

	if s == e {
		switch {
		case s <= m.start:
			m.start += n
			m.end += n
		case s < m.end:
			m.end += n
		}
		return
	}

	switch {
	case e <= m.start:
		m.start += delta
		m.end += delta
	case s >= m.end:
	case s <= m.start && e >= m.end:
		m.valid = false
	case s < m.start:
		// Edit overlaps the head of the range.
		m.start = s
		m.end += delta
	case e <= m.end:
		m.end += delta
	default:
		// Edit overlaps the tail of the range.
		m.end = s + n
	}
}
