package text

import (
	"bytes"
	"sort"
)

// Buffer holds one file's source bytes together with a line-offset index,
// so spans can be reported as line/column positions without rescanning.
type Buffer struct {
	src        []byte
	lineStarts []int // byte offset of each line start; lineStarts[0] == 0
}

// NewBuffer indexes src. The buffer does not copy src; callers must not
// mutate it afterwards.
func NewBuffer(src []byte) *Buffer {
	starts := []int{0}
	for i, b := range src {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &Buffer{src: src, lineStarts: starts}
}

// Bytes returns the underlying source bytes.
func (b *Buffer) Bytes() []byte {
	return b.src
}

// Len returns the source length in bytes.
func (b *Buffer) Len() int {
	return len(b.src)
}

// LineCount returns the number of lines, counting a trailing newline's
// empty last line.
func (b *Buffer) LineCount() int {
	return len(b.lineStarts)
}

// Slice returns the text covered by span. Out-of-range spans are clamped.
func (b *Buffer) Slice(span Span) string {
	start, end := span.Start, span.End
	if start < 0 {
		start = 0
	}
	if end > len(b.src) {
		end = len(b.src)
	}
	if start >= end {
		return ""
	}
	return string(b.src[start:end])
}

// PositionFor converts a byte offset to a zero-based line/column position.
// Offsets past the end clamp to the final position.
func (b *Buffer) PositionFor(offset int) Position {
	if offset < 0 {
		offset = 0
	}
	if offset > len(b.src) {
		offset = len(b.src)
	}
	// First line start strictly greater than offset; the line is the one before.
	line := sort.Search(len(b.lineStarts), func(i int) bool {
		return b.lineStarts[i] > offset
	}) - 1
	return Position{Line: line, Col: offset - b.lineStarts[line]}
}

// OffsetFor converts a zero-based line/column position to a byte offset.
// Returns -1 if the position does not exist in the buffer.
func (b *Buffer) OffsetFor(pos Position) int {
	if pos.Line < 0 || pos.Line >= len(b.lineStarts) {
		return -1
	}
	off := b.lineStarts[pos.Line] + pos.Col
	lineEnd := len(b.src)
	if pos.Line+1 < len(b.lineStarts) {
		lineEnd = b.lineStarts[pos.Line+1]
	}
	if off > lineEnd {
		return -1
	}
	return off
}

// LineSpan returns the span of the given zero-based line, excluding the
// trailing newline. Returns an empty span for out-of-range lines.
func (b *Buffer) LineSpan(line int) Span {
	if line < 0 || line >= len(b.lineStarts) {
		return Span{}
	}
	start := b.lineStarts[line]
	end := len(b.src)
	if line+1 < len(b.lineStarts) {
		end = b.lineStarts[line+1]
	}
	if end > start && b.src[end-1] == '\n' {
		end--
	}
	return Span{Start: start, End: end}
}

// IndexAll returns the spans of every occurrence of needle in the source.
func (b *Buffer) IndexAll(needle string) []Span {
	if needle == "" {
		return nil
	}
	var spans []Span
	target := []byte(needle)
	for off := 0; ; {
		i := bytes.Index(b.src[off:], target)
		if i < 0 {
			break
		}
		start := off + i
		spans = append(spans, Span{Start: start, End: start + len(target)})
		off = start + len(target)
	}
	return spans
}
