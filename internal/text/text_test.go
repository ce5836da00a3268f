package text

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpanOverlaps(t *testing.T) {
	a := NewSpan(5, 10)

	assert.True(t, a.Overlaps(NewSpan(9, 12)))
	assert.True(t, a.Overlaps(NewSpan(0, 6)))
	assert.True(t, a.Overlaps(NewSpan(6, 8)))
	assert.False(t, a.Overlaps(NewSpan(10, 15)), "adjacent spans do not overlap")
	assert.False(t, a.Overlaps(NewSpan(0, 5)))

	// Insert points (empty spans) never conflict.
	assert.False(t, a.Overlaps(NewSpan(7, 7)))
	assert.False(t, NewSpan(7, 7).Overlaps(a))
}

func TestSpanContainsSpan(t *testing.T) {
	outer := NewSpan(0, 20)
	assert.True(t, outer.ContainsSpan(NewSpan(5, 10)))
	assert.True(t, outer.ContainsSpan(outer))
	assert.False(t, outer.ContainsSpan(NewSpan(15, 25)))
}

func TestBufferPositions(t *testing.T) {
	b := NewBuffer([]byte("abc\ndef\n\nxyz"))

	assert.Equal(t, 4, b.LineCount())
	assert.Equal(t, Position{Line: 0, Col: 0}, b.PositionFor(0))
	assert.Equal(t, Position{Line: 0, Col: 2}, b.PositionFor(2))
	assert.Equal(t, Position{Line: 1, Col: 0}, b.PositionFor(4))
	assert.Equal(t, Position{Line: 2, Col: 0}, b.PositionFor(8))
	assert.Equal(t, Position{Line: 3, Col: 2}, b.PositionFor(11))

	// Round trip.
	for _, off := range []int{0, 3, 4, 7, 8, 9, 12} {
		pos := b.PositionFor(off)
		assert.Equal(t, off, b.OffsetFor(pos), "offset %d", off)
	}

	assert.Equal(t, -1, b.OffsetFor(Position{Line: 9, Col: 0}))
}

func TestBufferLineSpan(t *testing.T) {
	b := NewBuffer([]byte("abc\ndef\n"))

	require.Equal(t, "abc", b.Slice(b.LineSpan(0)))
	require.Equal(t, "def", b.Slice(b.LineSpan(1)))
	assert.True(t, b.LineSpan(5).Empty())
}

func TestBufferIndexAll(t *testing.T) {
	b := NewBuffer([]byte("foo bar foo"))

	spans := b.IndexAll("foo")
	require.Len(t, spans, 2)
	assert.Equal(t, NewSpan(0, 3), spans[0])
	assert.Equal(t, NewSpan(8, 11), spans[1])

	assert.Empty(t, b.IndexAll("missing"))
	assert.Empty(t, b.IndexAll(""))
}
