package text

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocument_LineIndex(t *testing.T) {
	t.Parallel()
	d := NewDocument("ab\ncde\n\nf")

	assert.Equal(t, 4, d.LineCount())
	assert.Equal(t, 0, d.LineOf(0))
	assert.Equal(t, 0, d.LineOf(2))
	assert.Equal(t, 1, d.LineOf(3))
	assert.Equal(t, 2, d.LineOf(7))
	assert.Equal(t, 3, d.LineOf(8))
	assert.Equal(t, 3, d.LineOf(100))

	assert.Equal(t, 3, d.LineStart(1))
	assert.Equal(t, 6, d.LineEnd(1))
	assert.Equal(t, 9, d.LineEnd(3))
	assert.Equal(t, 2, d.ColumnOf(5))
}

func TestDocument_EmptyHasOneLine(t *testing.T) {
	t.Parallel()
	d := NewDocument("")
	assert.Equal(t, 1, d.LineCount())
	assert.Equal(t, 0, d.LineOf(0))
	assert.Equal(t, 0, d.LineEnd(0))
}

func TestDocument_ReplaceUpdatesText(t *testing.T) {
	t.Parallel()
	d := NewDocument("hello world")

	require.NoError(t, d.Replace(6, 11, "there"))
	assert.Equal(t, "hello there", d.Text())
	require.NoError(t, d.Insert(0, ">> "))
	assert.Equal(t, ">> hello there", d.Text())
	require.NoError(t, d.Delete(0, 3))
	assert.Equal(t, "hello there", d.Text())
	assert.Equal(t, 3, d.Version())
}

func TestDocument_ReplaceOutOfRange(t *testing.T) {
	t.Parallel()
	d := NewDocument("abc")

	err := d.Replace(2, 9, "x")
	require.ErrorIs(t, err, ErrOutOfRange)
	err = d.Replace(2, 1, "x")
	require.ErrorIs(t, err, ErrOutOfRange)
	assert.Equal(t, "abc", d.Text())
	assert.Equal(t, 0, d.Version())
}

func TestDocument_SliceClamps(t *testing.T) {
	t.Parallel()
	d := NewDocument("abcdef")
	assert.Equal(t, "cd", d.Slice(2, 4))
	assert.Equal(t, "ef", d.Slice(4, 40))
	assert.Equal(t, "", d.Slice(5, 2))
}

func TestMarker_EditRules(t *testing.T) {
	t.Parallel()

	// Marker over "cdef" in "abcdefgh" is [2, 6).
	tests := []struct {
		name      string
		s, e      int
		repl      string
		wantStart int
		wantEnd   int
		wantValid bool
	}{
		{"insert before", 0, 0, "xx", 4, 8, true},
		{"insert at start shifts", 2, 2, "xx", 4, 8, true},
		{"insert inside grows", 4, 4, "xx", 2, 8, true},
		{"insert at end is outside", 6, 6, "xx", 2, 6, true},
		{"insert after", 7, 7, "xx", 2, 6, true},
		{"replace before", 0, 2, "x", 1, 5, true},
		{"replace after", 6, 8, "", 2, 6, true},
		{"replace inside shrinks", 3, 5, "", 2, 4, true},
		{"replace inside grows", 3, 4, "xyz", 2, 8, true},
		{"replace whole range", 2, 6, "zz", 2, 6, false},
		{"replace covering range", 1, 7, "", 2, 6, false},
		{"replace over head", 1, 4, "x", 1, 4, true},
		{"replace over tail", 4, 8, "xyz", 2, 7, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			d := NewDocument("abcdefgh")
			m := d.NewMarker(2, 6)
			require.NoError(t, d.Replace(tt.s, tt.e, tt.repl))

			assert.Equal(t, tt.wantValid, m.Valid())
			if tt.wantValid {
				assert.Equal(t, tt.wantStart, m.Start())
				assert.Equal(t, tt.wantEnd, m.End())
				assert.Equal(t, 1, d.MarkerCount())
			} else {
				assert.Equal(t, 0, d.MarkerCount())
			}
		})
	}
}

func TestMarker_InvalidStaysInvalid(t *testing.T) {
	t.Parallel()
	d := NewDocument("abcdef")
	m := d.NewMarker(1, 3)

	require.NoError(t, d.Delete(0, 4))
	require.False(t, m.Valid())
	require.NoError(t, d.Insert(0, "abcd"))
	assert.False(t, m.Valid())
}

func TestMarker_ReleaseIsIdempotent(t *testing.T) {
	t.Parallel()
	d := NewDocument("abcdef")
	m := d.NewMarker(1, 3)
	other := d.NewMarker(2, 4)

	m.Release()
	m.Release()
	assert.False(t, m.Valid())
	assert.True(t, other.Valid())
	assert.Equal(t, 1, d.MarkerCount())
}

func TestMarker_NewMarkerClamps(t *testing.T) {
	t.Parallel()
	d := NewDocument("abc")
	m := d.NewMarker(-4, 40)
	assert.Equal(t, 0, m.Start())
	assert.Equal(t, 3, m.End())
	assert.Same(t, d, m.Document())
}

func TestDocument_BulkSortsOnce(t *testing.T) {
	t.Parallel()
	d := NewDocument("0123456789")

	var created []*Marker
	d.Bulk(func() {
		assert.True(t, d.InBulk())
		for _, start := range []int{7, 1, 4} {
			created = append(created, d.NewMarker(start, start+1))
		}
	})
	assert.False(t, d.InBulk())
	require.Len(t, d.markers, 3)
	assert.Equal(t, 1, d.markers[0].Start())
	assert.Equal(t, 4, d.markers[1].Start())
	assert.Equal(t, 7, d.markers[2].Start())

	// Edits still reach every marker created in bulk.
	require.NoError(t, d.Insert(0, "--"))
	assert.Equal(t, 9, created[0].Start())
	assert.Equal(t, 3, created[1].Start())
}

func TestMarker_ReleaseFindsSharedStart(t *testing.T) {
	t.Parallel()
	d := NewDocument("0123456789")
	a := d.NewMarker(2, 3)
	b := d.NewMarker(2, 5)
	c := d.NewMarker(6, 8)
	first := d.NewMarker(0, 1)

	b.Release()
	require.Len(t, d.markers, 3)
	assert.Equal(t, []*Marker{first, a, c}, d.markers)

	// Release inside Bulk works on the unsorted slice.
	d.Bulk(func() {
		late := d.NewMarker(9, 10)
		early := d.NewMarker(1, 2)
		first.Release()
		late.Release()
		assert.Equal(t, []*Marker{a, c, early}, d.markers)
	})
	assert.Equal(t, 1, d.markers[0].Start())
	assert.Equal(t, 3, d.MarkerCount())
}
