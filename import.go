package graft

import "github.com/jward/graft/internal/store"

// Import is an import declaration edge. Resolution is lazy and cached
// per graph generation.
type Import struct {
	c   *Codebase
	row *store.Import
}

func (i *Import) Module() string {
	return i.row.Module
}

func (i *Import) Name() string {
	return i.row.Name
}

func (i *Import) Alias() string {
	return i.row.Alias
}

// Kind is one of module, named, wildcard, type-only, side-effect.
func (i *Import) Kind() string {
	return i.row.Kind
}

// LocalName is the name the import binds in its file.
func (i *Import) LocalName() string {
	return i.row.LocalName()
}

// ReExported reports whether the import is itself exported again.
func (i *Import) ReExported() bool {
	return i.row.ReExported
}

// IsExternal reports whether the module lies outside the known file
// set. External modules are opaque; resolution never fails on them.
func (i *Import) IsExternal() (bool, error) {
	res, err := i.c.graph.ResolveImport(i.row)
	if err != nil {
		return false, err
	}
	return res.External, nil
}

// ResolvedSymbol follows the import to its ultimate definition,
// continuing through re-exports. It is nil for external modules and
// for module-level imports, which resolve to a file instead.
func (i *Import) ResolvedSymbol() (*Symbol, error) {
	res, err := i.c.graph.ResolveImport(i.row)
	if err != nil {
		return nil, err
	}
	if res.External || res.Symbol == nil {
		return nil, nil
	}
	return &Symbol{c: i.c, row: res.Symbol}, nil
}

// ResolvedFile returns the file the import's module resolves to, or
// nil for external modules.
func (i *Import) ResolvedFile() (*File, error) {
	res, err := i.c.graph.ResolveImport(i.row)
	if err != nil {
		return nil, err
	}
	switch {
	case res.External:
		return nil, nil
	case res.File != nil:
		return i.c.GetFile(res.File.Path, true)
	case res.Symbol != nil:
		return i.c.GetFile(res.Symbol.Path, true)
	}
	return nil, nil
}
