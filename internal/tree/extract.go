package tree

import (
	"strings"

	"github.com/jward/graft/internal/lang"
	"github.com/jward/graft/internal/text"
)

// Decl is one extracted declaration: a function, class, method, variable,
// or import. Spans address the file's current text.
type Decl struct {
	Name     string
	Kind     string // function, method, class, interface, enum, type, variable, constant, import
	Span     text.Span
	NameSpan text.Span
	Parent   int // index of the enclosing declaration in the result slice, -1 for top level

	// Extended holds spans of attached decorators and leading comments.
	// They are owned by the declaration and travel with it on move/remove.
	Extended []text.Span

	Exported bool
	Params   []Param
	Recv     string      // receiver type name for Go methods
	Import   *ImportDecl // non-nil when Kind == "import"
}

// Param is one function/method parameter.
type Param struct {
	Name    string
	Type    string
	Default string
	Span    text.Span
}

// ImportDecl carries the import-specific fields of a Decl.
type ImportDecl struct {
	Module     string
	ModuleSpan text.Span // span of the module path text, for rewrites
	Name       string    // imported symbol name; "" for module-level imports
	// NameSpan is the span of the imported-name token. For an aliased
	// import it differs from the Decl's NameSpan, which covers the alias;
	// renames rewrite this token and leave the alias binding alone. Zero
	// for module-level imports.
	NameSpan   text.Span
	Alias      string
	Kind       string // module, named, wildcard, type-only, side-effect
	ReExported bool
}

// LocalName returns the name the import binds in its file.
func (i *ImportDecl) LocalName() string {
	if i.Alias != "" {
		return i.Alias
	}
	if i.Name != "" {
		return i.Name
	}
	// Module-level import binds the last path segment.
	m := i.Module
	if idx := strings.LastIndexAny(m, "./"); idx >= 0 {
		m = m[idx+1:]
	}
	return m
}

// Ref is one identifier reference in a file body.
type Ref struct {
	Name      string
	Span      text.Span
	Qualifier string // for qualified references like pkg.Name
	Context   string // call, attribute, ident
}

// Result is the full extraction output for one file.
type Result struct {
	Decls []Decl
	Refs  []Ref
}

// Extract walks the file's syntax tree and produces its declarations and
// references, dispatching on the file's language strategy.
func Extract(f *SourceFile) *Result {
	res := &Result{}
	switch f.Lang.Name {
	case lang.Python:
		extractPython(f, res)
	case lang.Go:
		extractGo(f, res)
	case lang.JavaScript, lang.TypeScript:
		extractScript(f, res)
	}
	res.Refs = filterRefs(res)
	return res
}

// filterRefs drops references that are really declaration names or parts
// of import statements; those sites are addressed through their Decls.
func filterRefs(res *Result) []Ref {
	type spanKey struct{ start, end int }
	nameSpans := make(map[spanKey]bool, len(res.Decls))
	var importSpans []text.Span
	for _, d := range res.Decls {
		nameSpans[spanKey{d.NameSpan.Start, d.NameSpan.End}] = true
		if d.Import != nil {
			importSpans = append(importSpans, d.Span)
		}
	}

	out := res.Refs[:0]
outer:
	for _, r := range res.Refs {
		if nameSpans[spanKey{r.Span.Start, r.Span.End}] {
			continue
		}
		for _, is := range importSpans {
			if is.ContainsSpan(r.Span) {
				continue outer
			}
		}
		out = append(out, r)
	}
	return out
}

// leadingComments collects the contiguous run of comment siblings directly
// above a declaration node, stopping at the first blank line.
func leadingComments(f *SourceFile, n *Node) []text.Span {
	var spans []text.Span
	cur := n.PrevSibling()
	prevStart := n.StartPosition().Line
	for cur != nil && f.Lang.CommentTypes[cur.Type()] {
		if prevStart-cur.EndPosition().Line > 1 {
			break // blank line separates the comment from the declaration
		}
		spans = append(spans, cur.Span())
		prevStart = cur.StartPosition().Line
		cur = cur.PrevSibling()
	}
	// Reverse into source order.
	for i, j := 0, len(spans)-1; i < j; i, j = i+1, j-1 {
		spans[i], spans[j] = spans[j], spans[i]
	}
	return spans
}

// isConstName reports whether a variable name follows the SCREAMING_CASE
// constant convention.
func isConstName(name string) bool {
	hasAlpha := false
	for _, r := range name {
		if r >= 'a' && r <= 'z' {
			return false
		}
		if r >= 'A' && r <= 'Z' {
			hasAlpha = true
		}
	}
	return hasAlpha
}

// refConfig parameterizes the shared reference walker per language.
type refConfig struct {
	identTypes  map[string]bool
	memberType  string // attribute / selector_expression / member_expression
	objectField string
	propField   string
	callTypes   map[string]bool
	funcField   string
}

// collectRefs gathers identifier references from the whole tree using the
// language's node-type vocabulary.
func collectRefs(f *SourceFile, cfg refConfig, res *Result) {
	f.Root().Walk(func(n *Node) bool {
		t := n.Type()
		if !cfg.identTypes[t] {
			return true
		}
		ref := Ref{Name: n.Text(), Span: n.Span(), Context: "ident"}

		parent := n.Parent()
		if parent != nil {
			pt := parent.Type()
			switch {
			case pt == cfg.memberType:
				prop := parent.ChildByField(cfg.propField)
				obj := parent.ChildByField(cfg.objectField)
				if prop != nil && prop.Span() == n.Span() {
					ref.Context = "attribute"
					if obj != nil && cfg.identTypes[obj.Type()] {
						ref.Qualifier = obj.Text()
					}
				}
			case cfg.callTypes[pt]:
				fn := parent.ChildByField(cfg.funcField)
				if fn != nil && fn.Span() == n.Span() {
					ref.Context = "call"
				}
			}
		}
		res.Refs = append(res.Refs, ref)
		return true
	})
}
