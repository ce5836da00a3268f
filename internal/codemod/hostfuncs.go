package codemod

import (
	"context"
	"fmt"

	"github.com/risor-io/risor/object"

	"github.com/jward/graft"
)

func symbolToMap(s *graft.Symbol) object.Object {
	return object.NewMap(map[string]object.Object{
		"name":     object.NewString(s.Name()),
		"kind":     object.NewString(s.Kind()),
		"path":     object.NewString(s.FilePath()),
		"exported": object.NewBool(s.Exported()),
		"start":    object.NewInt(int64(s.Span().Start)),
		"end":      object.NewInt(int64(s.Span().End)),
	})
}

func usageToMap(u graft.Usage) object.Object {
	return object.NewMap(map[string]object.Object{
		"path":    object.NewString(u.Path),
		"context": object.NewString(u.Context),
		"start":   object.NewInt(int64(u.Span.Start)),
		"end":     object.NewInt(int64(u.Span.End)),
	})
}

func matchToMap(m graft.SearchMatch) object.Object {
	return object.NewMap(map[string]object.Object{
		"path":  object.NewString(m.Path),
		"text":  object.NewString(m.Text),
		"line":  object.NewInt(int64(m.Line)),
		"start": object.NewInt(int64(m.Span.Start)),
		"end":   object.NewInt(int64(m.Span.End)),
	})
}

func toString(name string, arg object.Object) (string, error) {
	s, ok := arg.(*object.String)
	if !ok {
		return "", fmt.Errorf("%s: expected string, got %s", name, arg.Type())
	}
	return s.Value(), nil
}

func toInt(name string, arg object.Object) (int, error) {
	i, ok := arg.(*object.Int)
	if !ok {
		return 0, fmt.Errorf("%s: expected int, got %s", name, arg.Type())
	}
	return int(i.Value()), nil
}

func toBool(name string, arg object.Object) (bool, error) {
	b, ok := arg.(*object.Bool)
	if !ok {
		return false, fmt.Errorf("%s: expected bool, got %s", name, arg.Type())
	}
	return b.Value(), nil
}

// get_symbol(name) → map | nil
func makeGetSymbolFn(cb *graft.Codebase) *object.Builtin {
	return object.NewBuiltin("get_symbol", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("get_symbol", 1, len(args))
		}
		name, err := toString("get_symbol", args[0])
		if err != nil {
			return object.Errorf("%v", err)
		}
		sym, err := cb.GetSymbol(name, true)
		if err != nil {
			return object.Errorf("get_symbol: %v", err)
		}
		if sym == nil {
			return object.Nil
		}
		return symbolToMap(sym)
	})
}

// get_symbols(name) → list of maps
func makeGetSymbolsFn(cb *graft.Codebase) *object.Builtin {
	return object.NewBuiltin("get_symbols", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("get_symbols", 1, len(args))
		}
		name, err := toString("get_symbols", args[0])
		if err != nil {
			return object.Errorf("%v", err)
		}
		syms, err := cb.GetSymbols(name)
		if err != nil {
			return object.Errorf("get_symbols: %v", err)
		}
		results := []object.Object{}
		for _, s := range syms {
			results = append(results, symbolToMap(s))
		}
		return object.NewList(results)
	})
}

// usages(name) → list of maps
func makeUsagesFn(cb *graft.Codebase) *object.Builtin {
	return object.NewBuiltin("usages", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("usages", 1, len(args))
		}
		name, err := toString("usages", args[0])
		if err != nil {
			return object.Errorf("%v", err)
		}
		sym, err := cb.GetSymbol(name, false)
		if err != nil {
			return object.Errorf("usages: %v", err)
		}
		usages, err := sym.Usages()
		if err != nil {
			return object.Errorf("usages: %v", err)
		}
		results := []object.Object{}
		for _, u := range usages {
			results = append(results, usageToMap(u))
		}
		return object.NewList(results)
	})
}

// dependencies(name, max_depth) → list of maps
func makeDependenciesFn(cb *graft.Codebase) *object.Builtin {
	return object.NewBuiltin("dependencies", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 2 {
			return object.NewArgsError("dependencies", 2, len(args))
		}
		name, err := toString("dependencies", args[0])
		if err != nil {
			return object.Errorf("%v", err)
		}
		depth, err := toInt("dependencies", args[1])
		if err != nil {
			return object.Errorf("%v", err)
		}
		sym, err := cb.GetSymbol(name, false)
		if err != nil {
			return object.Errorf("dependencies: %v", err)
		}
		deps, err := sym.Dependencies(nil, depth)
		if err != nil {
			return object.Errorf("dependencies: %v", err)
		}
		results := []object.Object{}
		for _, d := range deps {
			results = append(results, symbolToMap(d))
		}
		return object.NewList(results)
	})
}

// find(needle, exact) → list of maps
func makeFindFn(cb *graft.Codebase) *object.Builtin {
	return object.NewBuiltin("find", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 2 {
			return object.NewArgsError("find", 2, len(args))
		}
		needle, err := toString("find", args[0])
		if err != nil {
			return object.Errorf("%v", err)
		}
		exact, err := toBool("find", args[1])
		if err != nil {
			return object.Errorf("%v", err)
		}
		results := []object.Object{}
		for _, m := range cb.Find([]string{needle}, exact) {
			results = append(results, matchToMap(m))
		}
		return object.NewList(results)
	})
}

// search(pattern, include_strings, include_comments) → list of maps
func makeSearchFn(cb *graft.Codebase) *object.Builtin {
	return object.NewBuiltin("search", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 3 {
			return object.NewArgsError("search", 3, len(args))
		}
		pattern, err := toString("search", args[0])
		if err != nil {
			return object.Errorf("%v", err)
		}
		strs, err := toBool("search", args[1])
		if err != nil {
			return object.Errorf("%v", err)
		}
		comments, err := toBool("search", args[2])
		if err != nil {
			return object.Errorf("%v", err)
		}
		matches, err := cb.Search(pattern, strs, comments)
		if err != nil {
			return object.Errorf("search: %v", err)
		}
		results := []object.Object{}
		for _, m := range matches {
			results = append(results, matchToMap(m))
		}
		return object.NewList(results)
	})
}

// rename(name, new_name, priority)
func makeRenameFn(cb *graft.Codebase) *object.Builtin {
	return object.NewBuiltin("rename", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 3 {
			return object.NewArgsError("rename", 3, len(args))
		}
		name, err := toString("rename", args[0])
		if err != nil {
			return object.Errorf("%v", err)
		}
		newName, err := toString("rename", args[1])
		if err != nil {
			return object.Errorf("%v", err)
		}
		priority, err := toInt("rename", args[2])
		if err != nil {
			return object.Errorf("%v", err)
		}
		sym, err := cb.GetSymbol(name, false)
		if err != nil {
			return object.Errorf("rename: %v", err)
		}
		if err := sym.Rename(newName, priority); err != nil {
			return object.Errorf("rename: %v", err)
		}
		return object.Nil
	})
}

// move_to_file(name, target, include_dependencies, strategy, priority)
func makeMoveToFileFn(cb *graft.Codebase) *object.Builtin {
	return object.NewBuiltin("move_to_file", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 5 {
			return object.NewArgsError("move_to_file", 5, len(args))
		}
		name, err := toString("move_to_file", args[0])
		if err != nil {
			return object.Errorf("%v", err)
		}
		target, err := toString("move_to_file", args[1])
		if err != nil {
			return object.Errorf("%v", err)
		}
		includeDeps, err := toBool("move_to_file", args[2])
		if err != nil {
			return object.Errorf("%v", err)
		}
		strategy, err := toString("move_to_file", args[3])
		if err != nil {
			return object.Errorf("%v", err)
		}
		priority, err := toInt("move_to_file", args[4])
		if err != nil {
			return object.Errorf("%v", err)
		}
		sym, err := cb.GetSymbol(name, false)
		if err != nil {
			return object.Errorf("move_to_file: %v", err)
		}
		if err := sym.MoveToFile(ctx, target, includeDeps, graft.MoveStrategy(strategy), priority); err != nil {
			return object.Errorf("move_to_file: %v", err)
		}
		return object.Nil
	})
}

// remove(name, priority)
func makeRemoveFn(cb *graft.Codebase) *object.Builtin {
	return object.NewBuiltin("remove", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 2 {
			return object.NewArgsError("remove", 2, len(args))
		}
		name, err := toString("remove", args[0])
		if err != nil {
			return object.Errorf("%v", err)
		}
		priority, err := toInt("remove", args[1])
		if err != nil {
			return object.Errorf("%v", err)
		}
		sym, err := cb.GetSymbol(name, false)
		if err != nil {
			return object.Errorf("remove: %v", err)
		}
		sym.Remove(priority)
		return object.Nil
	})
}

// create_file(path, content)
func makeCreateFileFn(cb *graft.Codebase) *object.Builtin {
	return object.NewBuiltin("create_file", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 2 {
			return object.NewArgsError("create_file", 2, len(args))
		}
		path, err := toString("create_file", args[0])
		if err != nil {
			return object.Errorf("%v", err)
		}
		content, err := toString("create_file", args[1])
		if err != nil {
			return object.Errorf("%v", err)
		}
		if _, err := cb.CreateFile(ctx, path, content); err != nil {
			return object.Errorf("create_file: %v", err)
		}
		return object.Nil
	})
}

// delete_file(path)
func makeDeleteFileFn(cb *graft.Codebase) *object.Builtin {
	return object.NewBuiltin("delete_file", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("delete_file", 1, len(args))
		}
		path, err := toString("delete_file", args[0])
		if err != nil {
			return object.Errorf("%v", err)
		}
		if err := cb.DeleteFile(path); err != nil {
			return object.Errorf("delete_file: %v", err)
		}
		return object.Nil
	})
}

// staged() → int
func makeStagedFn(cb *graft.Codebase) *object.Builtin {
	return object.NewBuiltin("staged", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 0 {
			return object.NewArgsError("staged", 0, len(args))
		}
		return object.NewInt(int64(cb.Session().Staged()))
	})
}

// diff() → string
func makeDiffFn(cb *graft.Codebase) *object.Builtin {
	return object.NewBuiltin("diff", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 0 {
			return object.NewArgsError("diff", 0, len(args))
		}
		out, err := cb.Diff()
		if err != nil {
			return object.Errorf("diff: %v", err)
		}
		return object.NewString(out)
	})
}

// commit(sync_graph) → map with applied/failed file lists
func makeCommitFn(cb *graft.Codebase) *object.Builtin {
	return object.NewBuiltin("commit", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("commit", 1, len(args))
		}
		syncGraph, err := toBool("commit", args[0])
		if err != nil {
			return object.Errorf("%v", err)
		}
		res, err := cb.Commit(ctx, syncGraph)
		if err != nil {
			return object.Errorf("commit: %v", err)
		}
		applied := []object.Object{}
		failed := []object.Object{}
		for _, fc := range res.Files {
			if fc.Err != nil {
				failed = append(failed, object.NewString(fc.Path))
			} else {
				applied = append(applied, object.NewString(fc.Path))
			}
		}
		return object.NewMap(map[string]object.Object{
			"session": object.NewString(res.SessionID),
			"applied": object.NewList(applied),
			"failed":  object.NewList(failed),
		})
	})
}
