package hittest

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jward/treeguides/internal/guide"
)

func span(start, end int) *guide.Descriptor {
	return &guide.Descriptor{StartLine: start, EndLine: end}
}

func TestTester_Intersects(t *testing.T) {
	t.Parallel()
	ht := New([]*guide.Descriptor{span(10, 12), span(2, 4), span(3, 6), span(20, 20)})
	assert.Equal(t, []LineRange{{2, 6}, {10, 12}, {20, 20}}, ht.Spans())

	tests := []struct {
		name string
		r    LineRange
		want bool
	}{
		{"before everything", LineRange{0, 1}, false},
		{"touches start", LineRange{0, 2}, true},
		{"inside", LineRange{4, 4}, true},
		{"gap", LineRange{7, 9}, false},
		{"covers span", LineRange{8, 14}, true},
		{"single line guide", LineRange{20, 25}, true},
		{"after everything", LineRange{21, 30}, false},
		{"reversed", LineRange{5, 3}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ht.Intersects(tt.r))
		})
	}
}

func TestTester_AdjacentSpansMerge(t *testing.T) {
	t.Parallel()
	ht := New([]*guide.Descriptor{span(1, 2), span(3, 4)})
	assert.Equal(t, []LineRange{{1, 4}}, ht.Spans())
}

func TestTester_Empty(t *testing.T) {
	t.Parallel()
	var nilTester *Tester
	assert.False(t, nilTester.Intersects(LineRange{0, 100}))
	assert.False(t, New(nil).Intersects(LineRange{0, 100}))
	assert.Empty(t, New(nil).Spans())
}

func TestTester_Equal(t *testing.T) {
	t.Parallel()
	a := New([]*guide.Descriptor{span(1, 3), span(2, 2)})
	b := New([]*guide.Descriptor{span(1, 3), span(2, 2)})
	c := New([]*guide.Descriptor{span(1, 3), span(2, 3)})

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(New(nil)))
	assert.False(t, a.Equal(nil))
	assert.True(t, New(nil).Equal(New(nil)))
}
