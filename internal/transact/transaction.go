// Package transact stages structural edits against source text and
// applies them deterministically. Transactions accumulate in a Queue
// until the owning session commits or discards them; ordering is
// decided by priority and span position, never by submission order.
package transact

import (
	"fmt"
	"sort"

	"github.com/jward/graft/internal/text"
)

// Op is the kind of edit a transaction performs.
type Op string

const (
	// OpEdit replaces the target span with new text.
	OpEdit Op = "edit"
	// OpInsertBefore inserts text immediately before the target span.
	OpInsertBefore Op = "insert-before"
	// OpInsertAfter inserts text immediately after the target span.
	OpInsertAfter Op = "insert-after"
	// OpRemove deletes the target span.
	OpRemove Op = "remove"
)

// Transaction is a staged, not-yet-applied edit against one file.
type Transaction struct {
	Path     string
	Op       Op
	Span     text.Span
	Text     string
	Priority int
}

// Key is the dedupe key. Transactions with the same key at the same
// location collapse to one, keeping the highest priority.
func (t Transaction) Key() string {
	return fmt.Sprintf("%d:%d:%s", t.Span.Start, t.Span.End, t.Op)
}

// editSpan is the region of source text the transaction rewrites.
// Insertions rewrite an empty span at the insertion point.
func (t Transaction) editSpan() text.Span {
	switch t.Op {
	case OpInsertBefore:
		return text.NewSpan(t.Span.Start, t.Span.Start)
	case OpInsertAfter:
		return text.NewSpan(t.Span.End, t.Span.End)
	default:
		return t.Span
	}
}

// replacement is the text the edit span is rewritten to.
func (t Transaction) replacement() string {
	if t.Op == OpRemove {
		return ""
	}
	return t.Text
}

func (t Transaction) String() string {
	return fmt.Sprintf("%s %s %s prio=%d", t.Path, t.Op, t.Span, t.Priority)
}

// Queue collects staged transactions for one editing session.
type Queue struct {
	txs []Transaction
}

func NewQueue() *Queue {
	return &Queue{}
}

func (q *Queue) Add(tx Transaction) {
	q.txs = append(q.txs, tx)
}

func (q *Queue) Len() int {
	return len(q.txs)
}

// ByFile groups staged transactions by target path.
func (q *Queue) ByFile() map[string][]Transaction {
	out := make(map[string][]Transaction)
	for _, tx := range q.txs {
		out[tx.Path] = append(out[tx.Path], tx)
	}
	return out
}

// Files returns the affected paths in lexicographic order. Commits
// walk files in this order so results are reproducible.
func (q *Queue) Files() []string {
	seen := make(map[string]bool)
	var paths []string
	for _, tx := range q.txs {
		if !seen[tx.Path] {
			seen[tx.Path] = true
			paths = append(paths, tx.Path)
		}
	}
	sort.Strings(paths)
	return paths
}

// Discard drops all staged transactions with no partial effect.
func (q *Queue) Discard() {
	q.txs = nil
}
