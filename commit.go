package graft

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/jward/graft/internal/transact"
	"github.com/jward/graft/internal/tree"
)

// FileCommit reports one file's outcome within a commit. On failure
// Err is set, Attempted lists the transactions that could not be
// applied, and the file on disk is untouched.
type FileCommit struct {
	Path       string
	Applied    []Transaction
	Deduped    []Transaction
	Conflicted []Transaction
	Attempted  []Transaction
	Err        error
}

// CommitResult summarizes a commit across all affected files.
type CommitResult struct {
	SessionID string
	Files     []FileCommit
	Created   []string
	Deleted   []string
}

// Failed returns the per-file failures, if any.
func (r *CommitResult) Failed() []FileCommit {
	var out []FileCommit
	for _, fc := range r.Files {
		if fc.Err != nil {
			out = append(out, fc)
		}
	}
	return out
}

// Commit flushes every staged transaction to the working tree. Files
// are processed in lexicographic path order; each file's batch applies
// atomically or not at all, and one file's failure never blocks the
// others. Session limits are enforced up front and fail the whole
// commit with nothing applied. With syncGraph the entire graph is
// rebuilt from disk afterwards instead of updating incrementally.
func (c *Codebase) Commit(ctx context.Context, syncGraph bool) (*CommitResult, error) {
	if err := c.session.checkLimits(); err != nil {
		return nil, err
	}

	res := &CommitResult{SessionID: c.session.ID()}
	byFile := c.session.queue.ByFile()
	written := make(map[string]bool)

	for _, path := range c.session.queue.Files() {
		txs := byFile[path]
		fc := FileCommit{Path: path}
		f := c.graph.File(path)
		if f == nil {
			fc.Err = fmt.Errorf("commit %s: %w", path, ErrNotFound)
			fc.Attempted = txs
			res.Files = append(res.Files, fc)
			continue
		}

		newText, applied, err := transact.Apply(f.Buf.Bytes(), txs)
		if applied != nil {
			fc.Deduped = applied.Deduped
			fc.Conflicted = applied.Conflicted
		}
		if err != nil {
			fc.Err = err
			fc.Attempted = txs
			res.Files = append(res.Files, fc)
			continue
		}

		// The rewritten text must still parse; a malformed result
		// aborts this file's batch only.
		nf, perr := tree.Parse(ctx, path, newText, f.Lang)
		if perr != nil || (nf.HadError && !f.HadError) {
			if nf != nil {
				nf.Close()
			}
			fc.Err = fmt.Errorf("%s does not parse after edits: %w", path, ErrCommitFailed)
			fc.Attempted = txs
			res.Files = append(res.Files, fc)
			continue
		}

		if err := c.writeFile(path, newText); err != nil {
			nf.Close()
			fc.Err = err
			fc.Attempted = txs
			res.Files = append(res.Files, fc)
			continue
		}
		if err := c.graph.AddParsed(nf); err != nil {
			fc.Err = err
			fc.Attempted = txs
			res.Files = append(res.Files, fc)
			continue
		}
		fc.Applied = applied.Applied
		written[path] = true
		res.Files = append(res.Files, fc)
	}

	// Files created this session reach disk even without staged edits.
	for _, path := range sortedKeys(c.created) {
		if !written[path] {
			f := c.graph.File(path)
			if f == nil {
				continue
			}
			if err := c.writeFile(path, f.Buf.Bytes()); err != nil {
				return res, err
			}
		}
		res.Created = append(res.Created, path)
	}
	for _, path := range sortedKeys(c.deleted) {
		if err := os.Remove(c.absPath(path)); err != nil && !os.IsNotExist(err) {
			return res, err
		}
		res.Deleted = append(res.Deleted, path)
	}
	c.created = make(map[string]bool)
	c.deleted = make(map[string]bool)
	c.session.reset()

	if syncGraph {
		if err := c.graph.Reset(); err != nil {
			return res, err
		}
		if err := c.sync(ctx); err != nil {
			return res, err
		}
	}
	return res, nil
}

func (c *Codebase) writeFile(path string, content []byte) error {
	abs := c.absPath(path)
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return fmt.Errorf("commit %s: %w", path, err)
	}
	if err := os.WriteFile(abs, content, 0o644); err != nil {
		return fmt.Errorf("commit %s: %w", path, err)
	}
	return nil
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
