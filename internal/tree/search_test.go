package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const searchSrc = `# helper lives here
def helper():
    return "helper"

value = helper()
`

func TestFindLiteral(t *testing.T) {
	f := parseTestFile(t, "s.py", searchSrc)

	// Substring search sees all occurrences, including comment and string.
	hits := f.Find([]string{"helper"}, false)
	assert.Len(t, hits, 4)

	// Results are sorted by position and freshly materialized.
	for i := 1; i < len(hits); i++ {
		assert.Less(t, hits[i-1].Span.Start, hits[i].Span.Start)
	}
}

func TestFindExact(t *testing.T) {
	f := parseTestFile(t, "s.py", "helper = 1\nhelpers = 2\n")

	hits := f.Find([]string{"helper"}, true)
	require.Len(t, hits, 1)
	assert.Equal(t, 0, hits[0].Span.Start)
}

func TestSearchFiltersStringsAndComments(t *testing.T) {
	f := parseTestFile(t, "s.py", searchSrc)

	all, err := f.Search("helper", true, true)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	code, err := f.Search("helper", false, false)
	require.NoError(t, err)
	assert.Len(t, code, 2, "def site and call site only")

	noComments, err := f.Search("helper", true, false)
	require.NoError(t, err)
	assert.Len(t, noComments, 3)

	noStrings, err := f.Search("helper", false, true)
	require.NoError(t, err)
	assert.Len(t, noStrings, 3)
}

func TestSearchBadPattern(t *testing.T) {
	f := parseTestFile(t, "s.py", searchSrc)

	_, err := f.Search("(", true, true)
	assert.Error(t, err)
}

func TestBlockScopedQueries(t *testing.T) {
	src := `top = 1

def outer():
    x = 2
    if x:
        y = helper()
    def inner():
        z = 3
        return z
    return x
`
	f := parseTestFile(t, "b.py", src)

	mod := NewBlock(f.Root())
	require.NotNil(t, mod)
	assert.Len(t, mod.Statements(), 2)

	// Module-level assignments exclude those inside functions.
	assert.Len(t, mod.Assignments(), 1)
	assert.Empty(t, mod.Calls())

	res := Extract(f)
	outer := declByName(t, res, "outer", "function")
	node := f.NodeAt(outer.Span.Start, outer.Span.End)
	body := BodyBlock(node)
	require.NotNil(t, body)

	// outer's own depth: x and y assignments, the if, one call, one
	// return. inner's body is a nested scope and stays out.
	assert.Len(t, body.Assignments(), 2)
	assert.Len(t, body.Ifs(), 1)
	assert.Len(t, body.Calls(), 1)
	assert.Len(t, body.Returns(), 1)
}
