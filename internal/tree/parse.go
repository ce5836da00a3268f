// Package tree wraps tree-sitter concrete syntax trees into a uniform,
// language-independent node hierarchy. Every construct is addressed by a
// byte span in its file's current text; queries are read-only and return
// freshly built slices.
package tree

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/graft/internal/lang"
	"github.com/jward/graft/internal/text"
)

// SourceFile owns one parsed file: its text buffer, its syntax tree, and
// the language strategy it was parsed with.
type SourceFile struct {
	Path string // repository-relative, slash-separated
	Lang *lang.Spec
	Buf  *text.Buffer

	tree *sitter.Tree
	root *Node

	// HadError records whether the parse produced ERROR nodes. Commits
	// compare against this so a file that was already malformed does not
	// fail every batch.
	HadError bool
}

// Parse parses src with the given language strategy.
func Parse(ctx context.Context, path string, src []byte, spec *lang.Spec) (*SourceFile, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(spec.Grammar)

	t, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	f := &SourceFile{
		Path:     path,
		Lang:     spec,
		Buf:      text.NewBuffer(src),
		tree:     t,
		HadError: t.RootNode().HasError(),
	}
	f.root = &Node{file: f, ts: t.RootNode()}
	return f, nil
}

// Root returns the root node of the file's syntax tree.
func (f *SourceFile) Root() *Node {
	return f.root
}

// Close releases the underlying tree-sitter tree.
func (f *SourceFile) Close() {
	if f.tree != nil {
		f.tree.Close()
		f.tree = nil
	}
}

// Text returns the file's full source text.
func (f *SourceFile) Text() string {
	return string(f.Buf.Bytes())
}

// NodeAt returns the smallest named node whose span contains the byte
// range [start, end). Returns the root when nothing smaller matches.
func (f *SourceFile) NodeAt(start, end int) *Node {
	n := f.root.ts
	for {
		descended := false
		for i := 0; i < int(n.NamedChildCount()); i++ {
			c := n.NamedChild(i)
			if int(c.StartByte()) <= start && end <= int(c.EndByte()) {
				n = c
				descended = true
				break
			}
		}
		if !descended {
			return &Node{file: f, ts: n}
		}
	}
}
