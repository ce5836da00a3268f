package graft

import (
	"bytes"
	"strings"

	"github.com/sourcegraph/go-diff/diff"

	"github.com/jward/graft/internal/transact"
)

// Diff renders the staged transactions as a unified diff without
// touching the working tree or the queue. Files whose batch cannot be
// applied are skipped; Commit reports those failures.
func (c *Codebase) Diff() (string, error) {
	var buf bytes.Buffer
	byFile := c.session.queue.ByFile()

	for _, path := range c.session.queue.Files() {
		f := c.graph.File(path)
		if f == nil {
			continue
		}
		newText, _, err := transact.Apply(f.Buf.Bytes(), byFile[path])
		if err != nil {
			continue
		}
		fd := unifiedDiff(path, f.Buf.Bytes(), newText)
		if fd == nil {
			continue
		}
		out, err := diff.PrintFileDiff(fd)
		if err != nil {
			return "", err
		}
		buf.Write(out)
	}

	// Created files show as additions from empty.
	for _, path := range sortedKeys(c.created) {
		if _, staged := byFile[path]; staged {
			continue
		}
		f := c.graph.File(path)
		if f == nil {
			continue
		}
		fd := unifiedDiff(path, nil, f.Buf.Bytes())
		if fd == nil {
			continue
		}
		out, err := diff.PrintFileDiff(fd)
		if err != nil {
			return "", err
		}
		buf.Write(out)
	}
	return buf.String(), nil
}

// unifiedDiff builds a single-hunk file diff between two versions of
// one file, or nil when they are identical.
func unifiedDiff(path string, old, new []byte) *diff.FileDiff {
	if bytes.Equal(old, new) {
		return nil
	}
	oldLines := splitLines(old)
	newLines := splitLines(new)
	body := diffLines(oldLines, newLines)

	hunk := &diff.Hunk{
		OrigStartLine: 1,
		OrigLines:     int32(len(oldLines)),
		NewStartLine:  1,
		NewLines:      int32(len(newLines)),
		Body:          []byte(strings.Join(body, "\n") + "\n"),
	}
	return &diff.FileDiff{
		OrigName: "a/" + path,
		NewName:  "b/" + path,
		Hunks:    []*diff.Hunk{hunk},
	}
}

func splitLines(b []byte) []string {
	if len(b) == 0 {
		return nil
	}
	s := strings.TrimSuffix(string(b), "\n")
	return strings.Split(s, "\n")
}

// diffLines computes a line-level diff body via longest common
// subsequence, each line prefixed with ' ', '-', or '+'.
func diffLines(old, new []string) []string {
	n, m := len(old), len(new)
	lcs := make([][]int, n+1)
	for i := range lcs {
		lcs[i] = make([]int, m+1)
	}
	for i := n - 1; i >= 0; i-- {
		for j := m - 1; j >= 0; j-- {
			if old[i] == new[j] {
				lcs[i][j] = lcs[i+1][j+1] + 1
			} else if lcs[i+1][j] >= lcs[i][j+1] {
				lcs[i][j] = lcs[i+1][j]
			} else {
				lcs[i][j] = lcs[i][j+1]
			}
		}
	}

	var out []string
	i, j := 0, 0
	for i < n && j < m {
		switch {
		case old[i] == new[j]:
			out = append(out, " "+old[i])
			i++
			j++
		case lcs[i+1][j] >= lcs[i][j+1]:
			out = append(out, "-"+old[i])
			i++
		default:
			out = append(out, "+"+new[j])
			j++
		}
	}
	for ; i < n; i++ {
		out = append(out, "-"+old[i])
	}
	for ; j < m; j++ {
		out = append(out, "+"+new[j])
	}
	return out
}
