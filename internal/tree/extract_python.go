package tree

import (
	"path"
	"strings"

	"github.com/jward/graft/internal/text"
)

// extractPython walks a python module: functions, classes, methods,
// module-level assignments, imports, and identifier references. Decorators
// and leading comments become the declaration's extended spans.
func extractPython(f *SourceFile, res *Result) {
	isInit := path.Base(f.Path) == "__init__.py"

	var walkBody func(body *Node, parent int, inClass bool)

	addDef := func(n *Node, parent int, inClass bool, extended []text.Span) int {
		name := n.ChildByField("name")
		if name == nil {
			return -1
		}
		kind := ""
		switch n.Type() {
		case "function_definition":
			kind = "function"
			if inClass {
				kind = "method"
			}
		case "class_definition":
			kind = "class"
		default:
			return -1
		}
		d := Decl{
			Name:     name.Text(),
			Kind:     kind,
			Span:     n.Span(),
			NameSpan: name.Span(),
			Parent:   parent,
			Extended: extended,
			Exported: !strings.HasPrefix(name.Text(), "_"),
		}
		if kind != "class" {
			d.Params = pythonParams(n.ChildByField("parameters"))
		}
		res.Decls = append(res.Decls, d)
		idx := len(res.Decls) - 1

		if body := n.ChildByField("body"); body != nil {
			walkBody(body, idx, kind == "class")
		}
		return idx
	}

	walkBody = func(body *Node, parent int, inClass bool) {
		for _, stmt := range body.NamedChildren() {
			switch stmt.Type() {
			case "decorated_definition":
				var ext []text.Span
				for _, c := range stmt.NamedChildren() {
					if c.Type() == "decorator" {
						ext = append(ext, c.Span())
					}
				}
				ext = append(leadingComments(f, stmt), ext...)
				if def := stmt.ChildByField("definition"); def != nil {
					addDef(def, parent, inClass, ext)
				}
			case "function_definition", "class_definition":
				addDef(stmt, parent, inClass, leadingComments(f, stmt))
			case "expression_statement":
				for _, expr := range stmt.NamedChildren() {
					if expr.Type() != "assignment" {
						continue
					}
					left := expr.ChildByField("left")
					if left == nil || left.Type() != "identifier" {
						continue
					}
					kind := "variable"
					if isConstName(left.Text()) {
						kind = "constant"
					}
					res.Decls = append(res.Decls, Decl{
						Name:     left.Text(),
						Kind:     kind,
						Span:     stmt.Span(),
						NameSpan: left.Span(),
						Parent:   parent,
						Extended: leadingComments(f, stmt),
						Exported: !strings.HasPrefix(left.Text(), "_"),
					})
				}
			case "import_statement":
				pythonImportStatement(f, stmt, isInit, res)
			case "import_from_statement":
				pythonFromImport(f, stmt, isInit, res)
			}
		}
	}

	walkBody(f.Root(), -1, false)

	collectRefs(f, refConfig{
		identTypes:  map[string]bool{"identifier": true},
		memberType:  "attribute",
		objectField: "object",
		propField:   "attribute",
		callTypes:   map[string]bool{"call": true},
		funcField:   "function",
	}, res)
}

// pythonImportStatement handles `import a.b` and `import a.b as c`.
func pythonImportStatement(f *SourceFile, stmt *Node, isInit bool, res *Result) {
	for _, c := range stmt.NamedChildren() {
		switch c.Type() {
		case "dotted_name":
			res.Decls = append(res.Decls, importDecl(stmt, c, &ImportDecl{
				Module:     c.Text(),
				ModuleSpan: c.Span(),
				Kind:       "module",
				ReExported: isInit,
			}))
		case "aliased_import":
			mod := c.ChildByField("name")
			alias := c.ChildByField("alias")
			if mod == nil || alias == nil {
				continue
			}
			res.Decls = append(res.Decls, importDecl(stmt, alias, &ImportDecl{
				Module:     mod.Text(),
				ModuleSpan: mod.Span(),
				Alias:      alias.Text(),
				Kind:       "module",
				ReExported: isInit,
			}))
		}
	}
}

// pythonFromImport handles `from m import a, b as c` and
// `from m import *`.
func pythonFromImport(f *SourceFile, stmt *Node, isInit bool, res *Result) {
	modNode := stmt.ChildByField("module_name")
	if modNode == nil {
		return
	}
	module := modNode.Text()

	for _, c := range stmt.NamedChildren() {
		if c.Span() == modNode.Span() {
			continue
		}
		switch c.Type() {
		case "wildcard_import":
			res.Decls = append(res.Decls, importDecl(stmt, c, &ImportDecl{
				Module:     module,
				ModuleSpan: modNode.Span(),
				Kind:       "wildcard",
				ReExported: isInit,
			}))
		case "dotted_name":
			res.Decls = append(res.Decls, importDecl(stmt, c, &ImportDecl{
				Module:     module,
				ModuleSpan: modNode.Span(),
				Name:       c.Text(),
				NameSpan:   c.Span(),
				Kind:       "named",
				ReExported: isInit,
			}))
		case "aliased_import":
			name := c.ChildByField("name")
			alias := c.ChildByField("alias")
			if name == nil || alias == nil {
				continue
			}
			res.Decls = append(res.Decls, importDecl(stmt, alias, &ImportDecl{
				Module:     module,
				ModuleSpan: modNode.Span(),
				Name:       name.Text(),
				NameSpan:   name.Span(),
				Alias:      alias.Text(),
				Kind:       "named",
				ReExported: isInit,
			}))
		}
	}
}

// importDecl builds the Decl wrapper shared by all import forms. nameNode
// is the node whose text is the bound local name.
func importDecl(stmt, nameNode *Node, imp *ImportDecl) Decl {
	return Decl{
		Name:     imp.LocalName(),
		Kind:     "import",
		Span:     stmt.Span(),
		NameSpan: nameNode.Span(),
		Parent:   -1,
		Exported: imp.ReExported,
		Import:   imp,
	}
}

// pythonParams extracts a parameters node's entries.
func pythonParams(params *Node) []Param {
	if params == nil {
		return nil
	}
	var out []Param
	for _, p := range params.NamedChildren() {
		switch p.Type() {
		case "identifier":
			out = append(out, Param{Name: p.Text(), Span: p.Span()})
		case "typed_parameter":
			var name, typ string
			for _, c := range p.NamedChildren() {
				if c.Type() == "identifier" && name == "" {
					name = c.Text()
				}
			}
			if t := p.ChildByField("type"); t != nil {
				typ = t.Text()
			}
			out = append(out, Param{Name: name, Type: typ, Span: p.Span()})
		case "default_parameter", "typed_default_parameter":
			var param Param
			if n := p.ChildByField("name"); n != nil {
				param.Name = n.Text()
			}
			if t := p.ChildByField("type"); t != nil {
				param.Type = t.Text()
			}
			if v := p.ChildByField("value"); v != nil {
				param.Default = v.Text()
			}
			param.Span = p.Span()
			out = append(out, param)
		case "list_splat_pattern", "dictionary_splat_pattern":
			out = append(out, Param{Name: p.Text(), Span: p.Span()})
		}
	}
	return out
}
