// Package codemod embeds a Risor VM and exposes the codebase facade to
// codemod scripts: query the graph, stage structural edits, and commit
// them, all from script code.
package codemod

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/risor-io/risor"
	"github.com/risor-io/risor/object"

	"github.com/jward/graft"
)

// Runtime wires one Codebase into a Risor evaluation environment.
type Runtime struct {
	cb *graft.Codebase
}

func NewRuntime(cb *graft.Codebase) *Runtime {
	return &Runtime{cb: cb}
}

// RunScript loads and executes a .risor codemod from disk.
func (r *Runtime) RunScript(ctx context.Context, path string) error {
	full := path
	if !filepath.IsAbs(path) {
		full = filepath.Join(r.cb.Root(), path)
	}
	src, err := os.ReadFile(full)
	if err != nil {
		return fmt.Errorf("codemod: loading script %s: %w", full, err)
	}
	return r.eval(ctx, string(src), path)
}

// RunSource executes codemod source directly. Useful for testing
// without script files.
func (r *Runtime) RunSource(ctx context.Context, source string) error {
	return r.eval(ctx, source, "<inline>")
}

func (r *Runtime) eval(ctx context.Context, source, label string) error {
	var opts []risor.Option
	for name, val := range r.buildGlobals() {
		opts = append(opts, risor.WithGlobal(name, val))
	}
	if _, err := risor.Eval(ctx, source, opts...); err != nil {
		return fmt.Errorf("codemod: script %s: %w", label, err)
	}
	return nil
}

// buildGlobals constructs the host functions exposed to codemods.
// Risor cannot construct Go struct pointers, so symbols and usages
// cross the boundary as maps.
func (r *Runtime) buildGlobals() map[string]any {
	return map[string]any{
		"codebase": mustProxy(r.cb),
		"log":      mustProxy(&logObject{prefix: "graft"}),

		"get_symbol":   makeGetSymbolFn(r.cb),
		"get_symbols":  makeGetSymbolsFn(r.cb),
		"usages":       makeUsagesFn(r.cb),
		"dependencies": makeDependenciesFn(r.cb),
		"find":         makeFindFn(r.cb),
		"search":       makeSearchFn(r.cb),

		"rename":       makeRenameFn(r.cb),
		"move_to_file": makeMoveToFileFn(r.cb),
		"remove":       makeRemoveFn(r.cb),
		"create_file":  makeCreateFileFn(r.cb),
		"delete_file":  makeDeleteFileFn(r.cb),

		"staged": makeStagedFn(r.cb),
		"diff":   makeDiffFn(r.cb),
		"commit": makeCommitFn(r.cb),
	}
}

func mustProxy(v any) object.Object {
	p, err := object.NewProxy(v)
	if err != nil {
		panic(fmt.Sprintf("codemod: proxy error: %v", err))
	}
	return p
}

// logObject provides log.info/warn/error methods for codemod scripts.
type logObject struct {
	prefix string
}

func (l *logObject) Info(msg string) {
	fmt.Printf("[%s] INFO: %s\n", l.prefix, msg)
}

func (l *logObject) Warn(msg string) {
	fmt.Printf("[%s] WARN: %s\n", l.prefix, msg)
}

func (l *logObject) Error(msg string) {
	fmt.Printf("[%s] ERROR: %s\n", l.prefix, msg)
}
