package tree

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/jward/graft/internal/text"
)

// Match is one search hit: the span it covers and the matched text.
type Match struct {
	Span text.Span
	Text string
}

// Find performs a literal search for each needle across the file. When
// exact is true, a hit must stand alone as an identifier-like token
// (neither neighbor is a word character).
func (f *SourceFile) Find(needles []string, exact bool) []Match {
	var out []Match
	for _, needle := range needles {
		for _, span := range f.Buf.IndexAll(needle) {
			if exact && !f.isWholeToken(span) {
				continue
			}
			out = append(out, Match{Span: span, Text: f.Buf.Slice(span)})
		}
	}
	sortMatches(out)
	return out
}

// Search performs a regex search over the file's text. String and comment
// hits are filtered out after matching by classifying each hit's span
// against the syntax tree, so the toggles change the output set only.
func (f *SourceFile) Search(pattern string, includeStrings, includeComments bool) ([]Match, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", f.Path, err)
	}

	var out []Match
	for _, loc := range re.FindAllIndex(f.Buf.Bytes(), -1) {
		span := text.NewSpan(loc[0], loc[1])
		switch f.Classify(span) {
		case SpanString:
			if !includeStrings {
				continue
			}
		case SpanComment:
			if !includeComments {
				continue
			}
		}
		out = append(out, Match{Span: span, Text: f.Buf.Slice(span)})
	}
	return out, nil
}

// SpanClass labels what kind of source text a span falls inside.
type SpanClass int

const (
	SpanCode SpanClass = iota
	SpanString
	SpanComment
)

// Classify reports whether the span falls inside a string literal, a
// comment, or plain code, by checking the enclosing node chain.
func (f *SourceFile) Classify(span text.Span) SpanClass {
	end := span.End
	if end > span.Start {
		end-- // classify by the bytes covered, not the open boundary
	}
	n := f.NodeAt(span.Start, end+1)
	for cur := n; cur != nil; cur = cur.Parent() {
		t := cur.Type()
		if f.Lang.CommentTypes[t] {
			return SpanComment
		}
		if f.Lang.StringTypes[t] {
			return SpanString
		}
	}
	return SpanCode
}

func (f *SourceFile) isWholeToken(span text.Span) bool {
	src := f.Buf.Bytes()
	if span.Start > 0 && isWordByte(src[span.Start-1]) {
		return false
	}
	if span.End < len(src) && isWordByte(src[span.End]) {
		return false
	}
	return true
}

func isWordByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

func sortMatches(ms []Match) {
	sort.Slice(ms, func(i, j int) bool { return ms[i].Span.Start < ms[j].Span.Start })
}
