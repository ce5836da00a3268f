package transact

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/graft/internal/text"
)

func tx(op Op, start, end int, body string, priority int) Transaction {
	return Transaction{Path: "a.py", Op: op, Span: text.NewSpan(start, end), Text: body, Priority: priority}
}

func TestApplyNoTransactions(t *testing.T) {
	src := []byte("def foo():\n    pass\n")
	out, res, err := Apply(src, nil)
	require.NoError(t, err)
	assert.Equal(t, src, out)
	assert.Empty(t, res.Applied)
	assert.Empty(t, res.Deduped)
	assert.Empty(t, res.Conflicted)
}

func TestApplyReplacesInPriorityOrder(t *testing.T) {
	//             0123456789
	src := []byte("aaa bbb ccc")

	out, res, err := Apply(src, []Transaction{
		tx(OpEdit, 8, 11, "CCC", 1),
		tx(OpEdit, 0, 3, "AAA", 5),
	})
	require.NoError(t, err)
	assert.Equal(t, "AAA bbb CCC", string(out))
	require.Len(t, res.Applied, 2)
	assert.Equal(t, 0, res.Applied[0].Span.Start)
	assert.Equal(t, 8, res.Applied[1].Span.Start)
}

func TestSortAndDedupeKeepsHighestPriority(t *testing.T) {
	kept, deduped := SortAndDedupe([]Transaction{
		tx(OpEdit, 4, 7, "low", 1),
		tx(OpEdit, 4, 7, "high", 9),
		tx(OpEdit, 0, 3, "other", 5),
	})
	require.Len(t, kept, 2)
	assert.Equal(t, "high", kept[0].Text)
	assert.Equal(t, "other", kept[1].Text)
	require.Len(t, deduped, 1)
	assert.Equal(t, "low", deduped[0].Text)
}

func TestSortAndDedupeDistinguishesOps(t *testing.T) {
	// Same span, different operation kinds: both survive.
	kept, deduped := SortAndDedupe([]Transaction{
		tx(OpInsertBefore, 4, 7, "# note\n", 2),
		tx(OpEdit, 4, 7, "bar", 2),
	})
	assert.Len(t, kept, 2)
	assert.Empty(t, deduped)
}

func TestApplySameSpanHigherPriorityWins(t *testing.T) {
	src := []byte("aaa bbb ccc")

	out, res, err := Apply(src, []Transaction{
		tx(OpEdit, 4, 7, "LOSER", 1),
		tx(OpEdit, 4, 7, "WINNER", 9),
	})
	require.NoError(t, err)
	assert.Equal(t, "aaa WINNER ccc", string(out))
	require.Len(t, res.Deduped, 1)
	assert.Equal(t, "LOSER", res.Deduped[0].Text)
	assert.NotContains(t, string(out), "LOSER")
}

func TestApplyOverlapConflictReportsLoser(t *testing.T) {
	//             0123456789
	src := []byte("aaa bbb ccc")

	out, res, err := Apply(src, []Transaction{
		tx(OpEdit, 0, 7, "WIDE", 5),
		tx(OpEdit, 4, 11, "narrow", 2),
	})
	require.NoError(t, err)
	assert.Equal(t, "WIDE ccc", string(out))
	require.Len(t, res.Conflicted, 1)
	assert.Equal(t, "narrow", res.Conflicted[0].Text)
}

func TestApplyInsertions(t *testing.T) {
	src := []byte("def foo():\n    pass\n")

	out, _, err := Apply(src, []Transaction{
		{Path: "a.py", Op: OpInsertBefore, Span: text.NewSpan(0, 19), Text: "@deco\n", Priority: 0},
		{Path: "a.py", Op: OpInsertAfter, Span: text.NewSpan(0, 20), Text: "\nfoo()\n", Priority: 0},
	})
	require.NoError(t, err)
	assert.Equal(t, "@deco\ndef foo():\n    pass\n\nfoo()\n", string(out))
}

func TestApplyInsertionInsideReplacementConflicts(t *testing.T) {
	src := []byte("aaa bbb ccc")

	out, res, err := Apply(src, []Transaction{
		tx(OpEdit, 0, 11, "REWRITTEN", 5),
		{Path: "a.py", Op: OpInsertBefore, Span: text.NewSpan(4, 7), Text: "x", Priority: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, "REWRITTEN", string(out))
	require.Len(t, res.Conflicted, 1)
	assert.Equal(t, OpInsertBefore, res.Conflicted[0].Op)
}

func TestApplyRemove(t *testing.T) {
	src := []byte("keep drop keep")

	out, _, err := Apply(src, []Transaction{
		tx(OpRemove, 4, 9, "", 0),
	})
	require.NoError(t, err)
	assert.Equal(t, "keep keep", string(out))
}

func TestApplyAdjacentSpansDoNotConflict(t *testing.T) {
	//             0123456
	src := []byte("ab cd e")

	out, res, err := Apply(src, []Transaction{
		tx(OpEdit, 0, 2, "AB", 1),
		tx(OpEdit, 3, 5, "CD", 1),
	})
	require.NoError(t, err)
	assert.Equal(t, "AB CD e", string(out))
	assert.Empty(t, res.Conflicted)
}

func TestApplyOutOfBounds(t *testing.T) {
	src := []byte("short")

	_, _, err := Apply(src, []Transaction{
		tx(OpEdit, 0, 99, "x", 0),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of bounds")
}

func TestQueueGroupsAndOrdersFiles(t *testing.T) {
	q := NewQueue()
	q.Add(Transaction{Path: "b.py", Op: OpEdit, Span: text.NewSpan(0, 1)})
	q.Add(Transaction{Path: "a.py", Op: OpEdit, Span: text.NewSpan(0, 1)})
	q.Add(Transaction{Path: "b.py", Op: OpRemove, Span: text.NewSpan(2, 3)})

	assert.Equal(t, 3, q.Len())
	assert.Equal(t, []string{"a.py", "b.py"}, q.Files())
	byFile := q.ByFile()
	assert.Len(t, byFile["b.py"], 2)
	assert.Len(t, byFile["a.py"], 1)

	q.Discard()
	assert.Equal(t, 0, q.Len())
}
