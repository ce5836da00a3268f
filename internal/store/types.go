package store

import (
	"time"

	"github.com/jward/graft/internal/text"
)

// File is one indexed source file.
type File struct {
	ID          int64
	Path        string
	Language    string
	Hash        string
	LineCount   int
	LastIndexed time.Time
}

// Symbol is one indexed declaration. Path is denormalized from the files
// table on reads that join it; it is never written back.
type Symbol struct {
	ID             int64
	FileID         int64
	Path           string
	Name           string
	Kind           string
	Exported       bool
	Span           text.Span
	NameSpan       text.Span
	ParentSymbolID *int64
	Recv           string

	// Extended spans (decorators, leading comments) owned by the symbol.
	Extended []text.Span
}

// IsImport reports whether the symbol is an import declaration.
func (s *Symbol) IsImport() bool {
	return s.Kind == "import"
}

// Import is the import-specific row attached to an import Symbol.
type Import struct {
	ID         int64
	SymbolID   int64
	FileID     int64
	Module     string
	ModuleSpan text.Span
	Name       string // imported symbol name; "" for module-level
	// NameSpan covers the imported-name token. Under an alias it differs
	// from the import symbol's NameSpan, which covers the alias token.
	NameSpan   text.Span
	Alias      string
	Kind       string // module, named, wildcard, type-only, side-effect
	ReExported bool
}

// LocalName returns the name the import binds in its file.
func (i *Import) LocalName() string {
	if i.Alias != "" {
		return i.Alias
	}
	if i.Name != "" {
		return i.Name
	}
	m := i.Module
	for idx := len(m) - 1; idx >= 0; idx-- {
		if m[idx] == '.' || m[idx] == '/' {
			return m[idx+1:]
		}
	}
	return m
}

// Ref is one identifier reference site.
type Ref struct {
	ID        int64
	FileID    int64
	Path      string
	Name      string
	Qualifier string
	Context   string
	Span      text.Span
}
