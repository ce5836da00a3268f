package graft

import (
	"github.com/jward/graft/internal/graph"
	"github.com/jward/graft/internal/text"
	"github.com/jward/graft/internal/transact"
	"github.com/jward/graft/internal/tree"
	"github.com/jward/graft/internal/vcs"
)

// Re-exported so callers never import internal packages directly.
type (
	Span           = text.Span
	Position       = text.Position
	Transaction    = transact.Transaction
	CheckoutResult = vcs.CheckoutResult
	CheckoutStatus = vcs.CheckoutStatus
	Node           = tree.Node
	Block          = tree.Block
	Param          = tree.Param
	Usage          = graph.Usage
)

const (
	CheckoutSuccess  = vcs.CheckoutSuccess
	CheckoutConflict = vcs.CheckoutConflict
	CheckoutNotFound = vcs.CheckoutNotFound
)

const (
	OpEdit         = transact.OpEdit
	OpInsertBefore = transact.OpInsertBefore
	OpInsertAfter  = transact.OpInsertAfter
	OpRemove       = transact.OpRemove
)

// MoveStrategy selects how import sites are handled when a symbol
// moves to another file.
type MoveStrategy string

const (
	// MoveUpdateAllImports rewrites every import of the symbol to
	// point at its new module.
	MoveUpdateAllImports MoveStrategy = "update-all-imports"
	// MoveAddBackEdge leaves importers alone and re-exports the symbol
	// from its old module.
	MoveAddBackEdge MoveStrategy = "add-back-edge"
)

// SearchMatch is one hit from Find or Search.
type SearchMatch struct {
	Path string
	Span Span
	Text string
	Line int
}
