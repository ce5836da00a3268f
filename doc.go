// Package graft parses a working tree into a queryable graph of files,
// symbols, and imports, and rewrites it through a transactional commit
// pipeline. It supports Go, Python, JavaScript, and TypeScript via
// tree-sitter.
//
// # Pipeline
//
// Opening a codebase parses every supported file and indexes its
// declarations, imports, and references into an in-memory SQLite
// store. Queries (lookup, usages, dependencies, search) read that
// index; import resolution runs lazily and is memoized per graph
// generation. Edits never touch text directly: they are staged as
// transactions on a session and flushed by [Codebase.Commit], which
// applies each file's batch atomically, reparses the result, and
// updates the graph.
//
// # Usage
//
// Open a codebase, query it, stage edits, and commit:
//
//	cb, err := graft.Open(ctx, "path/to/project")
//	if err != nil { ... }
//	defer cb.Close()
//
//	sym, err := cb.GetSymbol("helper", false)
//	usages, err := sym.Usages()
//	err = sym.Rename("fetchHelper", 0)
//	res, err := cb.Commit(ctx, false)
//
// # Transactions
//
// Each staged [Transaction] targets a byte span with an operation,
// a priority, and an implicit dedupe key. At commit, a file's
// transactions are sorted by priority descending then span start
// ascending; identical transactions collapse to the highest-priority
// one, and overlapping transactions are resolved by priority with the
// losers reported. A file whose rewritten text fails to reparse is
// left untouched and reported; other files commit independently.
//
// # Refactors
//
// [Symbol.Rename] and [Symbol.MoveToFile] are composite operations:
// they stage one transaction at the declaration and one at every
// known usage and import site as a single priority group. Move can
// carry same-file dependencies along and either rewrite importers to
// the new module or leave a re-exporting import behind.
//
// # Sessions
//
// All staged edits belong to one [Session] per codebase. Limits on
// transaction count, session age, and model-request count are checked
// at commit time and fail the commit whole, distinct from per-file
// commit failures. [Session.Discard] drops everything staged with no
// partial effect.
//
// # Scripts
//
// The internal/codemod package runs Risor scripts against a codebase
// through host functions (get_symbol, usages, rename, move_to_file,
// commit), exposed by the graft codemod CLI command.
package graft
