package transact

import (
	"fmt"
	"sort"

	"github.com/jward/graft/internal/text"
)

// Result reports what happened to each transaction in one file's batch.
type Result struct {
	// Applied transactions made it into the rewritten text, in
	// application order.
	Applied []Transaction
	// Deduped transactions shared a (span, op) key with a
	// higher-priority winner and were collapsed into it.
	Deduped []Transaction
	// Conflicted transactions overlapped an applied transaction with
	// a different key and lost on priority.
	Conflicted []Transaction
}

// SortAndDedupe orders one file's transactions by priority descending,
// ties broken by ascending span start, then collapses entries sharing
// a dedupe key down to the first (highest-priority) one. It is pure:
// the input slice is not modified.
func SortAndDedupe(txs []Transaction) (kept, deduped []Transaction) {
	sorted := make([]Transaction, len(txs))
	copy(sorted, txs)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Priority != sorted[j].Priority {
			return sorted[i].Priority > sorted[j].Priority
		}
		return sorted[i].Span.Start < sorted[j].Span.Start
	})

	seen := make(map[string]bool)
	for _, tx := range sorted {
		key := tx.Key()
		if seen[key] {
			deduped = append(deduped, tx)
			continue
		}
		seen[key] = true
		kept = append(kept, tx)
	}
	return kept, deduped
}

// resolveConflicts walks transactions in priority order and accepts
// each one whose edit region does not touch an already accepted edit.
// Losers are reported, never silently dropped.
func resolveConflicts(sorted []Transaction) (accepted, conflicted []Transaction) {
	for _, tx := range sorted {
		if conflictsWithAny(tx, accepted) {
			conflicted = append(conflicted, tx)
			continue
		}
		accepted = append(accepted, tx)
	}
	return accepted, conflicted
}

func conflictsWithAny(tx Transaction, accepted []Transaction) bool {
	span := tx.editSpan()
	for _, other := range accepted {
		if spansCollide(span, other.editSpan()) {
			return true
		}
	}
	return false
}

// spansCollide reports whether two edit regions cannot both be applied.
// Replacement spans collide when they overlap. An insertion point
// collides with a replacement span when it falls strictly inside it;
// insertions at span boundaries, and at the same point as another
// insertion, coexist.
func spansCollide(a, b text.Span) bool {
	if a.Overlaps(b) {
		return true
	}
	if a.Empty() && !b.Empty() {
		return b.Start < a.Start && a.Start < b.End
	}
	if b.Empty() && !a.Empty() {
		return a.Start < b.Start && b.Start < a.End
	}
	return false
}

// Apply rewrites src with one file's staged transactions. The batch is
// sorted and deduped, overlap conflicts are resolved by priority, and
// the surviving edits are spliced left to right. Apply never touches
// disk; the caller decides what to do with the new text.
func Apply(src []byte, txs []Transaction) ([]byte, *Result, error) {
	kept, deduped := SortAndDedupe(txs)
	accepted, conflicted := resolveConflicts(kept)
	res := &Result{Deduped: deduped, Conflicted: conflicted}

	for _, tx := range accepted {
		if tx.Span.Start < 0 || tx.Span.End > len(src) {
			return nil, res, fmt.Errorf("transaction out of bounds: %s (file is %d bytes)", tx, len(src))
		}
	}

	// Splice order: ascending position, with insertions after a span
	// placed ahead of insertions before the next one at the same
	// offset, then priority as the final tiebreak.
	order := make([]Transaction, len(accepted))
	copy(order, accepted)
	sort.SliceStable(order, func(i, j int) bool {
		si, sj := order[i].editSpan(), order[j].editSpan()
		if si.Start != sj.Start {
			return si.Start < sj.Start
		}
		ri, rj := spliceRank(order[i].Op), spliceRank(order[j].Op)
		if ri != rj {
			return ri < rj
		}
		return order[i].Priority > order[j].Priority
	})

	var out []byte
	cursor := 0
	for _, tx := range order {
		span := tx.editSpan()
		out = append(out, src[cursor:span.Start]...)
		out = append(out, tx.replacement()...)
		cursor = span.End
	}
	out = append(out, src[cursor:]...)

	res.Applied = order
	return out, res, nil
}

func spliceRank(op Op) int {
	switch op {
	case OpInsertAfter:
		return 0
	case OpInsertBefore:
		return 1
	default:
		return 2
	}
}
