package tree

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/graft/internal/text"
)

// Node is a thin wrapper over a tree-sitter node, carrying a back-pointer
// to its SourceFile so text and positions are always available. Wrappers
// are materialized on demand; identity is not stable across a reparse.
type Node struct {
	file *SourceFile
	ts   *sitter.Node
}

// File returns the SourceFile the node belongs to.
func (n *Node) File() *SourceFile {
	return n.file
}

// Type returns the grammar node type (e.g. "function_definition").
func (n *Node) Type() string {
	return n.ts.Type()
}

// Span returns the node's byte range in its file's current text.
func (n *Node) Span() text.Span {
	return text.NewSpan(int(n.ts.StartByte()), int(n.ts.EndByte()))
}

// StartPosition returns the node's zero-based start line/column.
func (n *Node) StartPosition() text.Position {
	p := n.ts.StartPoint()
	return text.Position{Line: int(p.Row), Col: int(p.Column)}
}

// EndPosition returns the node's zero-based end line/column.
func (n *Node) EndPosition() text.Position {
	p := n.ts.EndPoint()
	return text.Position{Line: int(p.Row), Col: int(p.Column)}
}

// Text returns the source text the node spans.
func (n *Node) Text() string {
	return n.file.Buf.Slice(n.Span())
}

// IsNamed reports whether the node is a named grammar node.
func (n *Node) IsNamed() bool {
	return n.ts.IsNamed()
}

// Parent returns the node's parent, or nil at the root.
func (n *Node) Parent() *Node {
	p := n.ts.Parent()
	if p == nil {
		return nil
	}
	return &Node{file: n.file, ts: p}
}

// NamedChildren returns the node's named children in order.
func (n *Node) NamedChildren() []*Node {
	count := int(n.ts.NamedChildCount())
	out := make([]*Node, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, &Node{file: n.file, ts: n.ts.NamedChild(i)})
	}
	return out
}

// Children returns all children, named and anonymous.
func (n *Node) Children() []*Node {
	count := int(n.ts.ChildCount())
	out := make([]*Node, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, &Node{file: n.file, ts: n.ts.Child(i)})
	}
	return out
}

// ChildByField returns the child bound to a grammar field name, or nil.
func (n *Node) ChildByField(field string) *Node {
	c := n.ts.ChildByFieldName(field)
	if c == nil {
		return nil
	}
	return &Node{file: n.file, ts: c}
}

// PrevSibling returns the preceding sibling (named or not), or nil.
func (n *Node) PrevSibling() *Node {
	s := n.ts.PrevSibling()
	if s == nil {
		return nil
	}
	return &Node{file: n.file, ts: s}
}

// NextSibling returns the following sibling (named or not), or nil.
func (n *Node) NextSibling() *Node {
	s := n.ts.NextSibling()
	if s == nil {
		return nil
	}
	return &Node{file: n.file, ts: s}
}

// Walk visits the node and every descendant in source order. The visitor
// returns false to skip a node's children.
func (n *Node) Walk(visit func(*Node) bool) {
	if !visit(n) {
		return
	}
	for _, c := range n.NamedChildren() {
		c.Walk(visit)
	}
}

// FindAll returns every descendant (including n) of a given type.
func (n *Node) FindAll(nodeType string) []*Node {
	var out []*Node
	n.Walk(func(c *Node) bool {
		if c.Type() == nodeType {
			out = append(out, c)
		}
		return true
	})
	return out
}
