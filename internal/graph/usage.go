package graph

import (
	"path"
	"sort"

	"github.com/jward/graft/internal/lang"
	"github.com/jward/graft/internal/store"
	"github.com/jward/graft/internal/text"
)

// Usage is one site that references a symbol: a name reference, a
// qualified member access, a call, or an import binding.
type Usage struct {
	Path    string
	FileID  int64
	Span    text.Span
	Context string // call, attribute, ident, import
	// SymbolID is set when the usage site is itself a symbol row, as
	// import bindings are.
	SymbolID int64
}

// binding is an import edge that resolves to a particular definition.
type binding struct {
	imp   *store.Import
	sym   *store.Symbol // the import's own symbol row
	local string        // name the import binds in its file
}

// Usages returns every known site referencing sym, in reverse source
// order: later files first, and within a file later positions first.
func (g *Graph) Usages(sym *store.Symbol) ([]Usage, error) {
	var out []Usage
	seen := make(map[string]map[int]bool)
	add := func(u Usage) {
		spans := seen[u.Path]
		if spans == nil {
			spans = make(map[int]bool)
			seen[u.Path] = spans
		}
		if spans[u.Span.Start] {
			return
		}
		spans[u.Span.Start] = true
		out = append(out, u)
	}

	named, moduleLevel, wildcards, err := g.bindingsFor(sym)
	if err != nil {
		return nil, err
	}

	// Import sites are usages in their own right. The reported span is
	// the imported-name token, not the alias: `from a import helper as h`
	// references helper there and binds h separately.
	for _, b := range named {
		f, err := g.store.FileByID(b.imp.FileID)
		if err != nil {
			return nil, err
		}
		if f == nil {
			continue
		}
		span := b.sym.NameSpan
		if !b.imp.NameSpan.Empty() {
			span = b.imp.NameSpan
		}
		add(Usage{Path: f.Path, FileID: f.ID, Span: span, Context: "import", SymbolID: b.sym.ID})
	}

	// References in the defining file bind to the local declaration.
	localRefs, err := g.store.RefsByFile(sym.FileID)
	if err != nil {
		return nil, err
	}
	for _, r := range localRefs {
		if r.Name == sym.Name && r.Qualifier == "" {
			add(Usage{Path: r.Path, FileID: r.FileID, Span: r.Span, Context: r.Context})
		}
	}

	// References in importing files use the import's local name.
	for _, b := range named {
		refs, err := g.store.RefsByFile(b.imp.FileID)
		if err != nil {
			return nil, err
		}
		for _, r := range refs {
			if r.Name == b.local && r.Qualifier == "" {
				add(Usage{Path: r.Path, FileID: r.FileID, Span: r.Span, Context: r.Context})
			}
		}
	}

	// Qualified references through module-level imports of the
	// defining file, e.g. `mod.name` after `import mod`.
	for _, b := range moduleLevel {
		refs, err := g.store.RefsByFile(b.imp.FileID)
		if err != nil {
			return nil, err
		}
		for _, r := range refs {
			if r.Name == sym.Name && r.Qualifier == b.local {
				add(Usage{Path: r.Path, FileID: r.FileID, Span: r.Span, Context: r.Context})
			}
		}
	}

	// Unaliased wildcard imports inject the defining file's exported
	// names unqualified, so bare references by name count too.
	if sym.Exported {
		for _, b := range wildcards {
			refs, err := g.store.RefsByFile(b.imp.FileID)
			if err != nil {
				return nil, err
			}
			for _, r := range refs {
				if r.Name == sym.Name && r.Qualifier == "" {
					add(Usage{Path: r.Path, FileID: r.FileID, Span: r.Span, Context: r.Context})
				}
			}
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Path != out[j].Path {
			return out[i].Path > out[j].Path
		}
		return out[i].Span.Start > out[j].Span.Start
	})
	return out, nil
}

// ImportBindings returns the named imports across the graph that
// resolve to sym, for rewriting when the symbol moves.
func (g *Graph) ImportBindings(sym *store.Symbol) ([]*store.Import, error) {
	named, _, _, err := g.bindingsFor(sym)
	if err != nil {
		return nil, err
	}
	out := make([]*store.Import, 0, len(named))
	for _, b := range named {
		out = append(out, b.imp)
	}
	return out, nil
}

// bindingsFor finds the import edges across the graph that bind sym:
// named imports of it, module-level imports of its file, and unaliased
// wildcard imports of its file. An aliased wildcard (`import * as ns`)
// binds one name, so it counts as module-level.
func (g *Graph) bindingsFor(sym *store.Symbol) (named, moduleLevel, wildcards []binding, err error) {
	target, err := g.store.FileByID(sym.FileID)
	if err != nil {
		return nil, nil, nil, err
	}
	if target == nil {
		return nil, nil, nil, nil
	}

	files, err := g.store.Files()
	if err != nil {
		return nil, nil, nil, err
	}
	for _, f := range files {
		if f.ID == sym.FileID {
			continue
		}
		imports, err := g.store.ImportsByFile(f.ID)
		if err != nil {
			return nil, nil, nil, err
		}
		for _, imp := range imports {
			switch imp.Kind {
			case "module", "wildcard":
				res, err := g.ResolveImport(imp)
				if err != nil {
					return nil, nil, nil, err
				}
				if !resolvesToFile(res, target) {
					continue
				}
				impSym, err := g.store.SymbolByID(imp.SymbolID)
				if err != nil {
					return nil, nil, nil, err
				}
				if impSym == nil {
					continue
				}
				b := binding{imp: imp, sym: impSym, local: imp.LocalName()}
				if imp.Kind == "wildcard" && imp.Alias == "" {
					wildcards = append(wildcards, b)
				} else {
					moduleLevel = append(moduleLevel, b)
				}
			case "named", "type-only":
				if imp.Name != sym.Name {
					continue
				}
				res, err := g.ResolveImport(imp)
				if err != nil {
					return nil, nil, nil, err
				}
				if res.Symbol == nil || res.Symbol.ID != sym.ID {
					continue
				}
				impSym, err := g.store.SymbolByID(imp.SymbolID)
				if err != nil {
					return nil, nil, nil, err
				}
				if impSym != nil {
					named = append(named, binding{imp: imp, sym: impSym, local: imp.LocalName()})
				}
			}
		}
	}
	return named, moduleLevel, wildcards, nil
}

// resolvesToFile reports whether a module resolution lands on the
// target file. A Go package import resolves to one file of its
// directory; any same-language sibling belongs to that package too.
func resolvesToFile(res *Resolution, target *store.File) bool {
	if res.External || res.File == nil {
		return false
	}
	if res.File.ID == target.ID {
		return true
	}
	return res.File.Language == lang.Go &&
		target.Language == lang.Go &&
		path.Dir(res.File.Path) == path.Dir(target.Path)
}

// Dependencies returns the symbols referenced inside sym's body,
// optionally following references transitively up to maxDepth hops.
// usageTypes filters by reference context (call, attribute, ident);
// empty means all. Results are de-duplicated and sorted by file path
// then position.
func (g *Graph) Dependencies(sym *store.Symbol, usageTypes []string, maxDepth int) ([]*store.Symbol, error) {
	if maxDepth < 1 {
		maxDepth = 1
	}
	wanted := make(map[string]bool, len(usageTypes))
	for _, t := range usageTypes {
		wanted[t] = true
	}

	seen := map[int64]bool{sym.ID: true}
	var out []*store.Symbol

	frontier := []*store.Symbol{sym}
	for depth := 0; depth < maxDepth && len(frontier) > 0; depth++ {
		var next []*store.Symbol
		for _, cur := range frontier {
			deps, err := g.directDependencies(cur, wanted)
			if err != nil {
				return nil, err
			}
			for _, d := range deps {
				if seen[d.ID] {
					continue
				}
				seen[d.ID] = true
				out = append(out, d)
				next = append(next, d)
			}
		}
		frontier = next
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Path != out[j].Path {
			return out[i].Path < out[j].Path
		}
		return out[i].Span.Start < out[j].Span.Start
	})
	return out, nil
}

// directDependencies resolves the references inside sym's span to
// symbols, consulting local declarations first and import bindings
// second. External resolutions are skipped.
func (g *Graph) directDependencies(sym *store.Symbol, wanted map[string]bool) ([]*store.Symbol, error) {
	refs, err := g.store.RefsByFile(sym.FileID)
	if err != nil {
		return nil, err
	}
	locals, err := g.store.SymbolsByFile(sym.FileID)
	if err != nil {
		return nil, err
	}
	imports, err := g.store.ImportsByFile(sym.FileID)
	if err != nil {
		return nil, err
	}

	byLocalName := make(map[string]*store.Import)
	for _, imp := range imports {
		byLocalName[imp.LocalName()] = imp
	}

	var out []*store.Symbol
	for _, r := range refs {
		if !sym.Span.ContainsSpan(r.Span) {
			continue
		}
		if len(wanted) > 0 && !wanted[r.Context] {
			continue
		}

		if target := localDecl(locals, r.Name, sym.ID); target != nil {
			out = append(out, target)
			continue
		}
		name := r.Name
		if r.Qualifier != "" {
			name = r.Qualifier
		}
		imp, ok := byLocalName[name]
		if !ok {
			continue
		}
		res, err := g.ResolveImport(imp)
		if err != nil {
			return nil, err
		}
		if res.External {
			continue
		}
		if res.Symbol != nil {
			out = append(out, res.Symbol)
		} else if res.File != nil && r.Qualifier != "" {
			// Qualified access through a module import: look the
			// member up in the resolved file.
			member, err := g.store.ExportedSymbol(res.File.ID, r.Name)
			if err != nil {
				return nil, err
			}
			if member != nil {
				out = append(out, member)
			}
		}
	}
	return out, nil
}

func localDecl(locals []*store.Symbol, name string, excludeID int64) *store.Symbol {
	for _, s := range locals {
		if s.ID != excludeID && s.Name == name && !s.IsImport() {
			return s
		}
	}
	return nil
}
