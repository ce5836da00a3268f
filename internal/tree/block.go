package tree

// Block is an ordered sequence of statements sharing one nesting level:
// a module top level, a function body, or a class body. Scoped queries
// are bounded to the block's own depth; they do not descend into nested
// function or class bodies.
type Block struct {
	node *Node
}

// blockBodyTypes are node types that act as statement containers.
var blockBodyTypes = map[string]bool{
	// python
	"module": true,
	"block":  true,
	// go
	"source_file": true,
	// js/ts
	"program":         true,
	"statement_block": true,
	"class_body":      true,
}

// nestedScopeTypes open a new nesting level; scoped queries stop at them.
var nestedScopeTypes = map[string]bool{
	"function_definition":  true, // python
	"class_definition":     true,
	"function_declaration": true, // go, js
	"method_declaration":   true, // go
	"func_literal":         true, // go
	"method_definition":    true, // js/ts
	"class_declaration":    true,
	"arrow_function":       true,
	"function_expression":  true,
}

// NewBlock wraps a statement-container node. Returns nil if the node is
// not a container.
func NewBlock(n *Node) *Block {
	if n == nil || !blockBodyTypes[n.Type()] {
		return nil
	}
	return &Block{node: n}
}

// BodyBlock returns the Block for a declaration-like node (function,
// class, method), or nil when it has no body.
func BodyBlock(decl *Node) *Block {
	if decl == nil {
		return nil
	}
	if body := decl.ChildByField("body"); body != nil {
		return NewBlock(body)
	}
	return nil
}

// Node returns the underlying container node.
func (b *Block) Node() *Node {
	return b.node
}

// Statements returns the block's direct statements in order, skipping
// comments.
func (b *Block) Statements() []*Node {
	var out []*Node
	for _, c := range b.node.NamedChildren() {
		if b.node.file.Lang.CommentTypes[c.Type()] {
			continue
		}
		out = append(out, c)
	}
	return out
}

// collect walks the block's subtree, gathering nodes of the wanted types,
// without crossing into nested scopes.
func (b *Block) collect(want map[string]bool) []*Node {
	var out []*Node
	var walk func(n *Node, top bool)
	walk = func(n *Node, top bool) {
		if !top && nestedScopeTypes[n.Type()] {
			return
		}
		if want[n.Type()] {
			out = append(out, n)
		}
		for _, c := range n.NamedChildren() {
			walk(c, false)
		}
	}
	walk(b.node, true)
	return out
}

// Assignments returns assignment statements at this block's level.
func (b *Block) Assignments() []*Node {
	return b.collect(map[string]bool{
		"assignment":            true, // python
		"augmented_assignment":  true,
		"short_var_declaration": true, // go
		"assignment_statement":  true,
		"assignment_expression": true, // js/ts
		"variable_declarator":   true,
	})
}

// Calls returns call expressions at this block's level.
func (b *Block) Calls() []*Node {
	return b.collect(map[string]bool{
		"call":            true, // python
		"call_expression": true, // go, js/ts
	})
}

// Ifs returns if statements at this block's level, including nested ifs
// within the same function or class body.
func (b *Block) Ifs() []*Node {
	return b.collect(map[string]bool{
		"if_statement": true,
	})
}

// Returns returns return statements at this block's level.
func (b *Block) Returns() []*Node {
	return b.collect(map[string]bool{
		"return_statement": true,
	})
}
