package tree

import (
	"strings"

	"github.com/jward/graft/internal/text"
)

// extractScript walks a JavaScript or TypeScript program: functions,
// classes, methods, lexical declarations, imports, exports, and
// re-exports. TypeScript adds interfaces, enums, and type aliases.
func extractScript(f *SourceFile, res *Result) {
	exported := map[int]bool{} // span start of exported declaration nodes

	var walkStatements func(nodes []*Node, parent int, inClass bool)

	addDecl := func(n *Node, parent int, inClass bool, extra []text.Span) {
		switch n.Type() {
		case "function_declaration", "generator_function_declaration":
			if name := n.ChildByField("name"); name != nil {
				res.Decls = append(res.Decls, Decl{
					Name:     name.Text(),
					Kind:     "function",
					Span:     n.Span(),
					NameSpan: name.Span(),
					Parent:   parent,
					Extended: append(leadingComments(f, n), extra...),
					Exported: exported[n.Span().Start],
					Params:   scriptParams(n.ChildByField("parameters")),
				})
			}
		case "class_declaration":
			name := n.ChildByField("name")
			if name == nil {
				return
			}
			res.Decls = append(res.Decls, Decl{
				Name:     name.Text(),
				Kind:     "class",
				Span:     n.Span(),
				NameSpan: name.Span(),
				Parent:   parent,
				Extended: append(leadingComments(f, n), extra...),
				Exported: exported[n.Span().Start],
			})
			idx := len(res.Decls) - 1
			if body := n.ChildByField("body"); body != nil {
				walkStatements(body.NamedChildren(), idx, true)
			}
		case "method_definition":
			if name := n.ChildByField("name"); name != nil {
				res.Decls = append(res.Decls, Decl{
					Name:     name.Text(),
					Kind:     "method",
					Span:     n.Span(),
					NameSpan: name.Span(),
					Parent:   parent,
					Extended: leadingComments(f, n),
					Exported: true,
					Params:   scriptParams(n.ChildByField("parameters")),
				})
			}
		case "lexical_declaration", "variable_declaration":
			kind := "variable"
			if strings.HasPrefix(n.Text(), "const") {
				kind = "constant"
			}
			for _, d := range n.NamedChildren() {
				if d.Type() != "variable_declarator" {
					continue
				}
				name := d.ChildByField("name")
				if name == nil || name.Type() != "identifier" {
					continue
				}
				declKind := kind
				if v := d.ChildByField("value"); v != nil &&
					(v.Type() == "arrow_function" || v.Type() == "function_expression" || v.Type() == "function") {
					declKind = "function"
				}
				res.Decls = append(res.Decls, Decl{
					Name:     name.Text(),
					Kind:     declKind,
					Span:     n.Span(),
					NameSpan: name.Span(),
					Parent:   parent,
					Extended: append(leadingComments(f, n), extra...),
					Exported: exported[n.Span().Start],
				})
			}
		case "interface_declaration", "enum_declaration", "type_alias_declaration":
			name := n.ChildByField("name")
			if name == nil {
				return
			}
			kind := map[string]string{
				"interface_declaration":  "interface",
				"enum_declaration":       "enum",
				"type_alias_declaration": "type",
			}[n.Type()]
			res.Decls = append(res.Decls, Decl{
				Name:     name.Text(),
				Kind:     kind,
				Span:     n.Span(),
				NameSpan: name.Span(),
				Parent:   parent,
				Extended: append(leadingComments(f, n), extra...),
				Exported: exported[n.Span().Start],
			})
		}
	}

	walkStatements = func(nodes []*Node, parent int, inClass bool) {
		for _, stmt := range nodes {
			switch stmt.Type() {
			case "import_statement":
				scriptImport(f, stmt, res)
			case "export_statement":
				scriptExport(f, stmt, res, func(decl *Node, ext []text.Span) {
					exported[decl.Span().Start] = true
					addDecl(decl, parent, inClass, ext)
				})
			default:
				addDecl(stmt, parent, inClass, nil)
			}
		}
	}

	walkStatements(f.Root().NamedChildren(), -1, false)

	collectRefs(f, refConfig{
		identTypes:  map[string]bool{"identifier": true, "type_identifier": true},
		memberType:  "member_expression",
		objectField: "object",
		propField:   "property",
		callTypes:   map[string]bool{"call_expression": true, "new_expression": true},
		funcField:   "function",
	}, res)
}

// scriptImport handles the ES import statement forms: default, namespace,
// named (with aliases), side-effect, and TypeScript type-only imports.
func scriptImport(f *SourceFile, stmt *Node, res *Result) {
	srcNode := stmt.ChildByField("source")
	if srcNode == nil {
		return
	}
	module := strings.Trim(srcNode.Text(), "'\"`")
	modSpan := shrinkQuotes(srcNode.Span())
	typeOnly := strings.HasPrefix(stmt.Text(), "import type")

	kindOr := func(k string) string {
		if typeOnly {
			return "type-only"
		}
		return k
	}

	var clause *Node
	for _, c := range stmt.NamedChildren() {
		if c.Type() == "import_clause" {
			clause = c
			break
		}
	}
	if clause == nil {
		res.Decls = append(res.Decls, importDecl(stmt, srcNode, &ImportDecl{
			Module: module, ModuleSpan: modSpan, Kind: "side-effect",
		}))
		return
	}

	for _, c := range clause.NamedChildren() {
		switch c.Type() {
		case "identifier": // default import
			res.Decls = append(res.Decls, importDecl(stmt, c, &ImportDecl{
				Module: module, ModuleSpan: modSpan,
				Name: "default", Alias: c.Text(), Kind: kindOr("named"),
			}))
		case "namespace_import":
			for _, id := range c.NamedChildren() {
				if id.Type() == "identifier" {
					res.Decls = append(res.Decls, importDecl(stmt, id, &ImportDecl{
						Module: module, ModuleSpan: modSpan,
						Alias: id.Text(), Kind: kindOr("wildcard"),
					}))
				}
			}
		case "named_imports":
			for _, spec := range c.NamedChildren() {
				if spec.Type() != "import_specifier" {
					continue
				}
				name := spec.ChildByField("name")
				if name == nil {
					continue
				}
				imp := &ImportDecl{
					Module: module, ModuleSpan: modSpan,
					Name: name.Text(), NameSpan: name.Span(), Kind: kindOr("named"),
				}
				nameNode := name
				if alias := spec.ChildByField("alias"); alias != nil {
					imp.Alias = alias.Text()
					nameNode = alias
				}
				res.Decls = append(res.Decls, importDecl(stmt, nameNode, imp))
			}
		}
	}
}

// scriptExport handles export statements. `export { x } from './y'` is a
// re-exporting import; `export <declaration>` marks the declaration
// exported and delegates back to addDecl.
func scriptExport(f *SourceFile, stmt *Node, res *Result, addExported func(*Node, []text.Span)) {
	srcNode := stmt.ChildByField("source")
	if srcNode != nil {
		// Re-export: both an import and an export.
		module := strings.Trim(srcNode.Text(), "'\"`")
		modSpan := shrinkQuotes(srcNode.Span())
		for _, c := range stmt.NamedChildren() {
			if c.Type() != "export_clause" {
				continue
			}
			for _, spec := range c.NamedChildren() {
				if spec.Type() != "export_specifier" {
					continue
				}
				name := spec.ChildByField("name")
				if name == nil {
					continue
				}
				imp := &ImportDecl{
					Module: module, ModuleSpan: modSpan,
					Name: name.Text(), NameSpan: name.Span(), Kind: "named", ReExported: true,
				}
				nameNode := name
				if alias := spec.ChildByField("alias"); alias != nil {
					imp.Alias = alias.Text()
					nameNode = alias
				}
				res.Decls = append(res.Decls, importDecl(stmt, nameNode, imp))
			}
		}
		return
	}

	ext := leadingComments(f, stmt)
	if decl := stmt.ChildByField("declaration"); decl != nil {
		addExported(decl, ext)
		return
	}
	for _, c := range stmt.NamedChildren() {
		switch c.Type() {
		case "function_declaration", "class_declaration", "lexical_declaration",
			"variable_declaration", "interface_declaration", "enum_declaration",
			"type_alias_declaration":
			addExported(c, ext)
		}
	}
}

func scriptParams(params *Node) []Param {
	if params == nil {
		return nil
	}
	var out []Param
	for _, p := range params.NamedChildren() {
		switch p.Type() {
		case "identifier":
			out = append(out, Param{Name: p.Text(), Span: p.Span()})
		case "assignment_pattern":
			var param Param
			if l := p.ChildByField("left"); l != nil {
				param.Name = l.Text()
			}
			if r := p.ChildByField("right"); r != nil {
				param.Default = r.Text()
			}
			param.Span = p.Span()
			out = append(out, param)
		case "required_parameter", "optional_parameter": // typescript
			var param Param
			if pat := p.ChildByField("pattern"); pat != nil {
				param.Name = pat.Text()
			}
			if t := p.ChildByField("type"); t != nil {
				param.Type = strings.TrimPrefix(t.Text(), ": ")
			}
			if v := p.ChildByField("value"); v != nil {
				param.Default = v.Text()
			}
			param.Span = p.Span()
			out = append(out, param)
		case "rest_pattern":
			out = append(out, Param{Name: p.Text(), Span: p.Span()})
		}
	}
	return out
}

// shrinkQuotes narrows a quoted string node's span to its inner text.
func shrinkQuotes(s text.Span) text.Span {
	if s.Len() >= 2 {
		return text.NewSpan(s.Start+1, s.End-1)
	}
	return s
}
