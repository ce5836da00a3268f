package graph

import (
	"path"
	"sort"

	"github.com/jward/graft/internal/lang"
	"github.com/jward/graft/internal/store"
)

// Resolution is the terminal value of following an import edge. When
// External is true the module lies outside the known file set and is
// treated as opaque. Module-level and wildcard imports resolve to a
// File with no Symbol; named imports resolve to the exported Symbol.
type Resolution struct {
	External bool
	Module   string
	File     *store.File
	Symbol   *store.Symbol
}

type resCacheKey struct {
	symbolID   int64
	generation uint64
}

func external(module string) *Resolution {
	return &Resolution{External: true, Module: module}
}

// ResolveImport follows an import edge to its definition, continuing
// through re-exporting imports. Cycles and modules outside the known
// file set resolve to the external marker, never an error. Results are
// cached until the next graph mutation.
func (g *Graph) ResolveImport(imp *store.Import) (*Resolution, error) {
	return g.resolveImport(imp, make(map[int64]bool))
}

func (g *Graph) resolveImport(imp *store.Import, visiting map[int64]bool) (*Resolution, error) {
	key := resCacheKey{symbolID: imp.SymbolID, generation: g.generation}
	if res, ok := g.resCache[key]; ok {
		return res, nil
	}
	if visiting[imp.SymbolID] {
		return external(imp.Module), nil
	}
	visiting[imp.SymbolID] = true

	res, err := g.resolveUncached(imp, visiting)
	if err != nil {
		return nil, err
	}
	g.resCache[key] = res
	return res, nil
}

func (g *Graph) resolveUncached(imp *store.Import, visiting map[int64]bool) (*Resolution, error) {
	candidates, err := g.moduleFiles(imp)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return external(imp.Module), nil
	}

	switch imp.Kind {
	case "module", "side-effect", "wildcard":
		return &Resolution{File: candidates[0]}, nil
	}

	for _, target := range candidates {
		sym, err := g.store.ExportedSymbol(target.ID, imp.Name)
		if err != nil {
			return nil, err
		}
		if sym == nil {
			continue
		}
		if sym.IsImport() {
			next, err := g.store.ImportBySymbol(sym.ID)
			if err != nil {
				return nil, err
			}
			if next != nil {
				return g.resolveImport(next, visiting)
			}
		}
		return &Resolution{File: target, Symbol: sym}, nil
	}
	return external(imp.Module), nil
}

// moduleFiles locates the files inside the graph that an import's
// module specifier can refer to, ordered by path.
func (g *Graph) moduleFiles(imp *store.Import) ([]*store.File, error) {
	from, err := g.store.FileByID(imp.FileID)
	if err != nil {
		return nil, err
	}
	if from == nil {
		return nil, nil
	}
	spec, ok := lang.ForName(from.Language)
	if !ok {
		return nil, nil
	}

	if spec.CandidatePaths != nil {
		fromDir := path.Dir(from.Path)
		for _, cand := range spec.CandidatePaths(imp.Module, fromDir) {
			f, err := g.store.FileByPath(cand)
			if err != nil {
				return nil, err
			}
			if f != nil {
				return []*store.File{f}, nil
			}
		}
		// No candidate file; the module may still name a directory.
	}

	if spec.MatchDir != nil {
		all, err := g.store.Files()
		if err != nil {
			return nil, err
		}
		var out []*store.File
		for _, f := range all {
			if f.Language != from.Language {
				continue
			}
			if spec.MatchDir(imp.Module, path.Dir(f.Path)) {
				out = append(out, f)
			}
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
		return out, nil
	}
	return nil, nil
}

// fileModule returns the module specifier other files of the same
// language would use to import the given file.
func fileModule(f *store.File) string {
	spec, ok := lang.ForName(f.Language)
	if !ok || spec.ModuleName == nil {
		return f.Path
	}
	return spec.ModuleName(f.Path)
}
