package tree

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// extractGo walks a Go source file: functions, methods, type declarations,
// package-level vars/consts, and imports. Doc comments become extended
// spans, matching how they travel with a declaration in gofmt output.
func extractGo(f *SourceFile, res *Result) {
	for _, stmt := range f.Root().NamedChildren() {
		switch stmt.Type() {
		case "function_declaration":
			goFunc(f, stmt, "function", res)
		case "method_declaration":
			goFunc(f, stmt, "method", res)
		case "type_declaration":
			for _, spec := range stmt.NamedChildren() {
				if spec.Type() != "type_spec" && spec.Type() != "type_alias" {
					continue
				}
				name := spec.ChildByField("name")
				if name == nil {
					continue
				}
				kind := "type"
				if t := spec.ChildByField("type"); t != nil {
					switch t.Type() {
					case "struct_type":
						kind = "class"
					case "interface_type":
						kind = "interface"
					}
				}
				res.Decls = append(res.Decls, Decl{
					Name:     name.Text(),
					Kind:     kind,
					Span:     stmt.Span(),
					NameSpan: name.Span(),
					Parent:   -1,
					Extended: leadingComments(f, stmt),
					Exported: goExported(name.Text()),
				})
			}
		case "var_declaration", "const_declaration":
			kind := "variable"
			if stmt.Type() == "const_declaration" {
				kind = "constant"
			}
			for _, spec := range stmt.NamedChildren() {
				if spec.Type() != "var_spec" && spec.Type() != "const_spec" {
					continue
				}
				for _, name := range spec.NamedChildren() {
					if name.Type() != "identifier" {
						continue
					}
					res.Decls = append(res.Decls, Decl{
						Name:     name.Text(),
						Kind:     kind,
						Span:     stmt.Span(),
						NameSpan: name.Span(),
						Parent:   -1,
						Extended: leadingComments(f, stmt),
						Exported: goExported(name.Text()),
					})
				}
			}
		case "import_declaration":
			goImports(f, stmt, res)
		}
	}

	collectRefs(f, refConfig{
		identTypes:  map[string]bool{"identifier": true, "type_identifier": true, "field_identifier": true},
		memberType:  "selector_expression",
		objectField: "operand",
		propField:   "field",
		callTypes:   map[string]bool{"call_expression": true},
		funcField:   "function",
	}, res)
}

func goFunc(f *SourceFile, stmt *Node, kind string, res *Result) {
	name := stmt.ChildByField("name")
	if name == nil {
		return
	}
	d := Decl{
		Name:     name.Text(),
		Kind:     kind,
		Span:     stmt.Span(),
		NameSpan: name.Span(),
		Parent:   -1,
		Extended: leadingComments(f, stmt),
		Exported: goExported(name.Text()),
		Params:   goParams(stmt.ChildByField("parameters")),
	}
	if kind == "method" {
		if recv := stmt.ChildByField("receiver"); recv != nil {
			recv.Walk(func(n *Node) bool {
				if n.Type() == "type_identifier" && d.Recv == "" {
					d.Recv = n.Text()
				}
				return d.Recv == ""
			})
		}
	}
	res.Decls = append(res.Decls, d)
}

// goImports handles single and grouped import declarations. Every Go
// import is a module-level (package) import; dot imports are wildcards
// and blank imports are side-effect only.
func goImports(f *SourceFile, stmt *Node, res *Result) {
	add := func(spec *Node) {
		pathNode := spec.ChildByField("path")
		if pathNode == nil {
			return
		}
		module := strings.Trim(pathNode.Text(), "`\"")
		imp := &ImportDecl{
			Module:     module,
			ModuleSpan: shrinkQuotes(pathNode.Span()),
			Kind:       "module",
		}
		nameNode := pathNode
		if n := spec.ChildByField("name"); n != nil {
			switch n.Type() {
			case "dot":
				imp.Kind = "wildcard"
			case "blank_identifier":
				imp.Kind = "side-effect"
			default:
				imp.Alias = n.Text()
				nameNode = n
			}
		}
		res.Decls = append(res.Decls, importDecl(stmt, nameNode, imp))
	}

	for _, c := range stmt.NamedChildren() {
		switch c.Type() {
		case "import_spec":
			add(c)
		case "import_spec_list":
			for _, spec := range c.NamedChildren() {
				if spec.Type() == "import_spec" {
					add(spec)
				}
			}
		}
	}
}

func goParams(params *Node) []Param {
	if params == nil {
		return nil
	}
	var out []Param
	for _, p := range params.NamedChildren() {
		if p.Type() != "parameter_declaration" && p.Type() != "variadic_parameter_declaration" {
			continue
		}
		typ := ""
		if t := p.ChildByField("type"); t != nil {
			typ = t.Text()
		}
		named := false
		for _, c := range p.NamedChildren() {
			if c.Type() == "identifier" {
				out = append(out, Param{Name: c.Text(), Type: typ, Span: p.Span()})
				named = true
			}
		}
		if !named {
			out = append(out, Param{Type: typ, Span: p.Span()})
		}
	}
	return out
}

func goExported(name string) bool {
	r, _ := utf8.DecodeRuneInString(name)
	return unicode.IsUpper(r)
}
