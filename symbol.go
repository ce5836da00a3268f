package graft

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jward/graft/internal/lang"
	"github.com/jward/graft/internal/store"
	"github.com/jward/graft/internal/tree"
)

// Symbol is a declaration in the graph: a function, class, variable,
// or import. Structural edits on it are staged as transactions and
// applied at commit.
type Symbol struct {
	c   *Codebase
	row *store.Symbol
}

func (s *Symbol) Name() string {
	return s.row.Name
}

// Kind is one of function, method, class, interface, enum, type,
// variable, constant, import.
func (s *Symbol) Kind() string {
	return s.row.Kind
}

func (s *Symbol) FilePath() string {
	return s.row.Path
}

func (s *Symbol) Exported() bool {
	return s.row.Exported
}

func (s *Symbol) Span() Span {
	return s.row.Span
}

func (s *Symbol) NameSpan() Span {
	return s.row.NameSpan
}

// Position returns the zero-based line/column of the declaration name.
func (s *Symbol) Position() Position {
	f := s.file()
	if f == nil {
		return Position{}
	}
	return f.Buf.PositionFor(s.row.NameSpan.Start)
}

// fullSpan covers the declaration plus its extended prefix: leading
// comments and decorators belong to the symbol when it moves or is
// removed.
func (s *Symbol) fullSpan() Span {
	span := s.row.Span
	for _, ext := range s.row.Extended {
		span = span.Union(ext)
	}
	return span
}

func (s *Symbol) file() *tree.SourceFile {
	return s.c.graph.File(s.row.Path)
}

// Source returns the declaration's text without its extended prefix.
func (s *Symbol) Source() string {
	f := s.file()
	if f == nil {
		return ""
	}
	return string(f.Buf.Slice(s.row.Span))
}

// ExtendedSource returns the declaration's text including leading
// comments and decorators.
func (s *Symbol) ExtendedSource() string {
	f := s.file()
	if f == nil {
		return ""
	}
	return string(f.Buf.Slice(s.fullSpan()))
}

// Parent returns the enclosing declaration, or nil at top level.
func (s *Symbol) Parent() (*Symbol, error) {
	if s.row.ParentSymbolID == nil {
		return nil, nil
	}
	row, err := s.c.graph.Store().SymbolByID(*s.row.ParentSymbolID)
	if err != nil || row == nil {
		return nil, err
	}
	return &Symbol{c: s.c, row: row}, nil
}

// Children returns the declarations nested directly inside this one.
func (s *Symbol) Children() ([]*Symbol, error) {
	rows, err := s.c.graph.Store().SymbolChildren(s.row.ID)
	if err != nil {
		return nil, err
	}
	out := make([]*Symbol, 0, len(rows))
	for _, r := range rows {
		out = append(out, &Symbol{c: s.c, row: r})
	}
	return out, nil
}

// node locates the declaration's syntax node in the current tree.
func (s *Symbol) node() *Node {
	f := s.file()
	if f == nil {
		return nil
	}
	return f.NodeAt(s.row.Span.Start, s.row.Span.End)
}

// Body returns the declaration's statement block, or nil for
// declarations without one.
func (s *Symbol) Body() *Block {
	n := s.node()
	if n == nil {
		return nil
	}
	return tree.BodyBlock(n)
}

// Parameters returns a function or method declaration's parameters.
func (s *Symbol) Parameters() []Param {
	f := s.file()
	if f == nil {
		return nil
	}
	for _, d := range tree.Extract(f).Decls {
		if d.Span == s.row.Span && d.Name == s.row.Name {
			return d.Params
		}
	}
	return nil
}

// Usages returns every known site referencing this symbol, in reverse
// source order.
func (s *Symbol) Usages() ([]Usage, error) {
	return s.c.graph.Usages(s.row)
}

// Dependencies returns the symbols this declaration references,
// transitively up to maxDepth hops. usageTypes filters by reference
// context (call, attribute, ident); empty means all.
func (s *Symbol) Dependencies(usageTypes []string, maxDepth int) ([]*Symbol, error) {
	rows, err := s.c.graph.Dependencies(s.row, usageTypes, maxDepth)
	if err != nil {
		return nil, err
	}
	out := make([]*Symbol, 0, len(rows))
	for _, r := range rows {
		out = append(out, &Symbol{c: s.c, row: r})
	}
	return out, nil
}

// --- Editable surface ---

// Edit stages a replacement of the declaration's text.
func (s *Symbol) Edit(newText string, priority int) {
	s.c.session.Stage(Transaction{
		Path:     s.row.Path,
		Op:       OpEdit,
		Span:     s.row.Span,
		Text:     newText,
		Priority: priority,
	})
}

// InsertBefore stages an insertion ahead of the declaration and its
// extended prefix.
func (s *Symbol) InsertBefore(text string, priority int) {
	s.c.session.Stage(Transaction{
		Path:     s.row.Path,
		Op:       OpInsertBefore,
		Span:     s.fullSpan(),
		Text:     text,
		Priority: priority,
	})
}

// InsertAfter stages an insertion following the declaration.
func (s *Symbol) InsertAfter(text string, priority int) {
	s.c.session.Stage(Transaction{
		Path:     s.row.Path,
		Op:       OpInsertAfter,
		Span:     s.row.Span,
		Text:     text,
		Priority: priority,
	})
}

// Remove stages deletion of the declaration, including its extended
// prefix.
func (s *Symbol) Remove(priority int) {
	s.c.session.Stage(Transaction{
		Path:     s.row.Path,
		Op:       OpRemove,
		Span:     s.fullSpan(),
		Priority: priority,
	})
}

// Rename stages edits of the declaration site and every known usage
// and import site, as one priority group. Renaming a symbol to its
// current name stages nothing.
func (s *Symbol) Rename(newName string, priority int) error {
	if newName == s.row.Name {
		return nil
	}
	if newName == "" {
		return fmt.Errorf("rename %s: empty name", s.row.Name)
	}

	s.c.session.Stage(Transaction{
		Path:     s.row.Path,
		Op:       OpEdit,
		Span:     s.row.NameSpan,
		Text:     newName,
		Priority: priority,
	})

	usages, err := s.Usages()
	if err != nil {
		return err
	}
	for _, u := range usages {
		// Sites that read through an alias spell the alias, not the
		// symbol's name; the alias binding survives the rename untouched.
		if f := s.c.graph.File(u.Path); f == nil || string(f.Buf.Slice(u.Span)) != s.row.Name {
			continue
		}
		s.c.session.Stage(Transaction{
			Path:     u.Path,
			Op:       OpEdit,
			Span:     u.Span,
			Text:     newName,
			Priority: priority,
		})
	}
	return nil
}

// MoveToFile stages relocation of the declaration into another file.
// The target is created when missing and must share the source file's
// language. With includeDependencies, same-file declarations the
// symbol references move along. The strategy decides what happens to
// import sites: MoveUpdateAllImports rewrites them to the new module,
// MoveAddBackEdge re-exports the symbol from the old one.
func (s *Symbol) MoveToFile(ctx context.Context, targetPath string, includeDependencies bool, strategy MoveStrategy, priority int) error {
	srcFile := s.file()
	if srcFile == nil {
		return fmt.Errorf("move %s: source file %s: %w", s.row.Name, s.row.Path, ErrNotFound)
	}
	if targetPath == s.row.Path {
		return nil
	}

	target := s.c.graph.File(targetPath)
	if target == nil {
		if _, err := s.c.CreateFile(ctx, targetPath, ""); err != nil {
			return err
		}
		target = s.c.graph.File(targetPath)
	}
	if target.Lang.Name != srcFile.Lang.Name {
		return fmt.Errorf("move %s: cannot move %s code into %s file %s",
			s.row.Name, srcFile.Lang.Name, target.Lang.Name, targetPath)
	}

	// Gather the spans leaving the source file: the symbol itself and,
	// optionally, its same-file dependencies.
	movedSpans := []Span{s.fullSpan()}
	if includeDependencies {
		deps, err := s.Dependencies(nil, 1)
		if err != nil {
			return err
		}
		for _, d := range deps {
			if d.row.FileID == s.row.FileID && !d.row.IsImport() {
				movedSpans = append(movedSpans, d.fullSpan())
			}
		}
	}
	sort.Slice(movedSpans, func(i, j int) bool { return movedSpans[i].Start < movedSpans[j].Start })

	var pieces []string
	for _, span := range movedSpans {
		pieces = append(pieces, string(srcFile.Buf.Slice(span)))
		s.c.session.Stage(Transaction{
			Path:     s.row.Path,
			Op:       OpRemove,
			Span:     span,
			Priority: priority,
		})
	}
	moved := strings.Join(pieces, "\n\n")
	if !strings.HasSuffix(moved, "\n") {
		moved += "\n"
	}
	if target.Buf.Len() > 0 {
		moved = "\n\n" + moved
	}
	end := target.Buf.Len()
	s.c.session.Stage(Transaction{
		Path:     targetPath,
		Op:       OpInsertAfter,
		Span:     Span{Start: end, End: end},
		Text:     moved,
		Priority: priority,
	})

	switch strategy {
	case MoveAddBackEdge:
		return s.stageBackEdge(targetPath, priority)
	default:
		return s.stageImportUpdates(srcFile, targetPath, movedSpans, priority)
	}
}

// stageBackEdge re-exports the moved symbol from its old module so
// existing importers keep working.
func (s *Symbol) stageBackEdge(targetPath string, priority int) error {
	spec, ok := lang.ForName(s.c.graph.File(targetPath).Lang.Name)
	if !ok || spec.RenderImport == nil {
		return nil
	}
	module := moduleSpecifier(spec.Name, s.row.Path, targetPath)
	s.c.session.Stage(Transaction{
		Path:     s.row.Path,
		Op:       OpInsertBefore,
		Span:     Span{Start: 0, End: 0},
		Text:     spec.RenderImport(module, s.row.Name, "") + "\n",
		Priority: priority,
	})
	return nil
}

// stageImportUpdates rewrites every import of the moved symbol to its
// new module, and imports it back into the old file when code left
// behind still uses it.
func (s *Symbol) stageImportUpdates(srcFile *tree.SourceFile, targetPath string, movedSpans []Span, priority int) error {
	bindings, err := s.c.graph.ImportBindings(s.row)
	if err != nil {
		return err
	}
	st := s.c.graph.Store()
	for _, imp := range bindings {
		f, err := st.FileByID(imp.FileID)
		if err != nil {
			return err
		}
		if f == nil || imp.ModuleSpan.Empty() {
			continue
		}
		s.c.session.Stage(Transaction{
			Path:     f.Path,
			Op:       OpEdit,
			Span:     imp.ModuleSpan,
			Text:     moduleSpecifier(f.Language, f.Path, targetPath),
			Priority: priority,
		})
	}

	stillUsed, err := s.usedOutside(movedSpans)
	if err != nil {
		return err
	}
	if stillUsed {
		spec := srcFile.Lang
		if spec.RenderImport != nil {
			module := moduleSpecifier(spec.Name, s.row.Path, targetPath)
			s.c.session.Stage(Transaction{
				Path:     s.row.Path,
				Op:       OpInsertBefore,
				Span:     Span{Start: 0, End: 0},
				Text:     spec.RenderImport(module, s.row.Name, "") + "\n",
				Priority: priority,
			})
		}
	}
	return nil
}

// usedOutside reports whether the source file references the symbol
// outside the spans leaving with it.
func (s *Symbol) usedOutside(movedSpans []Span) (bool, error) {
	refs, err := s.c.graph.Store().RefsByFile(s.row.FileID)
	if err != nil {
		return false, err
	}
	for _, r := range refs {
		if r.Name != s.row.Name {
			continue
		}
		inside := false
		for _, span := range movedSpans {
			if span.ContainsSpan(r.Span) {
				inside = true
				break
			}
		}
		if !inside {
			return true, nil
		}
	}
	return false, nil
}
