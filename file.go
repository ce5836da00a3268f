package graft

import (
	"fmt"

	"github.com/jward/graft/internal/store"
	"github.com/jward/graft/internal/tree"
)

// File is the public view over one parsed source file. Its text is
// mutable only through staged transactions.
type File struct {
	c   *Codebase
	src *tree.SourceFile
}

func (f *File) Path() string {
	return f.src.Path
}

func (f *File) Language() string {
	return f.src.Lang.Name
}

// Source returns the file's current text. Staged, uncommitted
// transactions are not reflected.
func (f *File) Source() string {
	return f.src.Text()
}

func (f *File) LineCount() int {
	return f.src.Buf.LineCount()
}

// Root returns the file's syntax tree root.
func (f *File) Root() *Node {
	return f.src.Root()
}

// Body returns the file's top-level statement block.
func (f *File) Body() *Block {
	return tree.NewBlock(f.src.Root())
}

func (f *File) row() (*store.File, error) {
	row, err := f.c.graph.Store().FileByPath(f.src.Path)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, fmt.Errorf("file %s: %w", f.src.Path, ErrNotFound)
	}
	return row, nil
}

// Symbols returns the file's declarations in source order.
func (f *File) Symbols() ([]*Symbol, error) {
	row, err := f.row()
	if err != nil {
		return nil, err
	}
	rows, err := f.c.graph.Store().SymbolsByFile(row.ID)
	if err != nil {
		return nil, err
	}
	out := make([]*Symbol, 0, len(rows))
	for _, r := range rows {
		out = append(out, &Symbol{c: f.c, row: r})
	}
	return out, nil
}

// GetSymbol returns the file's declaration with the given name.
func (f *File) GetSymbol(name string, optional bool) (*Symbol, error) {
	syms, err := f.Symbols()
	if err != nil {
		return nil, err
	}
	var matches []*Symbol
	for _, s := range syms {
		if s.row.Name == name && !s.row.IsImport() {
			matches = append(matches, s)
		}
	}
	switch len(matches) {
	case 0:
		if optional {
			return nil, nil
		}
		return nil, fmt.Errorf("symbol %s in %s: %w", name, f.src.Path, ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("symbol %s in %s: %w", name, f.src.Path, ErrAmbiguous)
	}
}

// Imports returns the file's import declarations in source order.
func (f *File) Imports() ([]*Import, error) {
	row, err := f.row()
	if err != nil {
		return nil, err
	}
	rows, err := f.c.graph.Store().ImportsByFile(row.ID)
	if err != nil {
		return nil, err
	}
	out := make([]*Import, 0, len(rows))
	for _, r := range rows {
		out = append(out, &Import{c: f.c, row: r})
	}
	return out, nil
}

// PositionAt converts a byte offset into a zero-based line/column
// position.
func (f *File) PositionAt(offset int) Position {
	return f.src.Buf.PositionFor(offset)
}

// Find performs literal search within this file.
func (f *File) Find(needles []string, exact bool) []SearchMatch {
	var out []SearchMatch
	for _, m := range f.src.Find(needles, exact) {
		out = append(out, searchMatch(f.src, m))
	}
	return out
}

// Search performs regex search within this file.
func (f *File) Search(pattern string, includeStrings, includeComments bool) ([]SearchMatch, error) {
	matches, err := f.src.Search(pattern, includeStrings, includeComments)
	if err != nil {
		return nil, err
	}
	var out []SearchMatch
	for _, m := range matches {
		out = append(out, searchMatch(f.src, m))
	}
	return out, nil
}

// --- Editable surface ---

// Edit stages a replacement of the whole file text.
func (f *File) Edit(newText string, priority int) {
	f.c.session.Stage(Transaction{
		Path:     f.src.Path,
		Op:       OpEdit,
		Span:     Span{Start: 0, End: f.src.Buf.Len()},
		Text:     newText,
		Priority: priority,
	})
}

// Append stages an insertion at the end of the file.
func (f *File) Append(text string, priority int) {
	end := f.src.Buf.Len()
	f.c.session.Stage(Transaction{
		Path:     f.src.Path,
		Op:       OpInsertAfter,
		Span:     Span{Start: end, End: end},
		Text:     text,
		Priority: priority,
	})
}

// Prepend stages an insertion at the start of the file.
func (f *File) Prepend(text string, priority int) {
	f.c.session.Stage(Transaction{
		Path:     f.src.Path,
		Op:       OpInsertBefore,
		Span:     Span{Start: 0, End: 0},
		Text:     text,
		Priority: priority,
	})
}
