// Package text provides the byte-span layer every higher layer addresses
// source through. A Span is a half-open byte range [Start, End) in one
// file's current text; Buffer maps between byte offsets and line/column
// positions.
package text

import "fmt"

// Span is a half-open byte range [Start, End) in a file's text.
type Span struct {
	Start int
	End   int
}

// NewSpan returns a Span covering [start, end).
func NewSpan(start, end int) Span {
	return Span{Start: start, End: end}
}

// Len returns the number of bytes the span covers.
func (s Span) Len() int {
	return s.End - s.Start
}

// Empty reports whether the span covers zero bytes.
func (s Span) Empty() bool {
	return s.End <= s.Start
}

// Contains reports whether offset falls inside the span.
func (s Span) Contains(offset int) bool {
	return offset >= s.Start && offset < s.End
}

// ContainsSpan reports whether other lies entirely within s.
func (s Span) ContainsSpan(other Span) bool {
	return other.Start >= s.Start && other.End <= s.End
}

// Overlaps reports whether the two spans share at least one byte.
// Empty spans (insert points) never overlap anything.
func (s Span) Overlaps(other Span) bool {
	if s.Empty() || other.Empty() {
		return false
	}
	return s.Start < other.End && other.Start < s.End
}

// Union returns the smallest span covering both s and other.
func (s Span) Union(other Span) Span {
	u := s
	if other.Start < u.Start {
		u.Start = other.Start
	}
	if other.End > u.End {
		u.End = other.End
	}
	return u
}

func (s Span) String() string {
	return fmt.Sprintf("[%d,%d)", s.Start, s.End)
}

// Position is a zero-based line/column pair.
type Position struct {
	Line int
	Col  int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// Before reports whether p precedes other in source order.
func (p Position) Before(other Position) bool {
	if p.Line != other.Line {
		return p.Line < other.Line
	}
	return p.Col < other.Col
}
