package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/graft/internal/store"
)

func newTestGraph(t *testing.T) *Graph {
	t.Helper()
	g, err := New()
	require.NoError(t, err)
	t.Cleanup(func() { g.Close() })
	return g
}

func add(t *testing.T, g *Graph, path, src string) {
	t.Helper()
	require.NoError(t, g.AddFile(context.Background(), path, []byte(src)))
}

func symbolNamed(t *testing.T, g *Graph, name string) *store.Symbol {
	t.Helper()
	syms, err := g.Store().SymbolsByName(name)
	require.NoError(t, err)
	require.NotEmpty(t, syms, "no symbol named %q", name)
	return syms[0]
}

func declNamed(t *testing.T, g *Graph, name string) *store.Symbol {
	t.Helper()
	syms, err := g.Store().SymbolsByName(name)
	require.NoError(t, err)
	for _, s := range syms {
		if !s.IsImport() {
			return s
		}
	}
	t.Fatalf("no declaration named %q", name)
	return nil
}

func importsOf(t *testing.T, g *Graph, path string) []*store.Import {
	t.Helper()
	f, err := g.Store().FileByPath(path)
	require.NoError(t, err)
	require.NotNil(t, f)
	imports, err := g.Store().ImportsByFile(f.ID)
	require.NoError(t, err)
	return imports
}

func TestIndexAndReindex(t *testing.T) {
	g := newTestGraph(t)

	add(t, g, "a.py", "def helper():\n    pass\n")
	gen := g.Generation()
	assert.Equal(t, []string{"a.py"}, g.Paths())

	sym := symbolNamed(t, g, "helper")
	assert.Equal(t, "function", sym.Kind)
	assert.Equal(t, "a.py", sym.Path)

	add(t, g, "a.py", "def renamed():\n    pass\n")
	assert.Greater(t, g.Generation(), gen)

	syms, err := g.Store().SymbolsByName("helper")
	require.NoError(t, err)
	assert.Empty(t, syms)
	symbolNamed(t, g, "renamed")
}

func TestRemoveFile(t *testing.T) {
	g := newTestGraph(t)

	add(t, g, "a.py", "def helper():\n    pass\n")
	require.NoError(t, g.RemoveFile("a.py"))

	assert.Nil(t, g.File("a.py"))
	f, err := g.Store().FileByPath("a.py")
	require.NoError(t, err)
	assert.Nil(t, f)
}

func TestResolveNamedImport(t *testing.T) {
	g := newTestGraph(t)

	add(t, g, "a.py", "def helper():\n    pass\n")
	add(t, g, "b.py", "from a import helper\n\nhelper()\n")

	imports := importsOf(t, g, "b.py")
	require.Len(t, imports, 1)

	res, err := g.ResolveImport(imports[0])
	require.NoError(t, err)
	assert.False(t, res.External)
	require.NotNil(t, res.Symbol)
	assert.Equal(t, "helper", res.Symbol.Name)
	assert.Equal(t, "a.py", res.Symbol.Path)
}

func TestResolveModuleImport(t *testing.T) {
	g := newTestGraph(t)

	add(t, g, "a.py", "def helper():\n    pass\n")
	add(t, g, "c.py", "import a\n\na.helper()\n")

	imports := importsOf(t, g, "c.py")
	require.Len(t, imports, 1)

	res, err := g.ResolveImport(imports[0])
	require.NoError(t, err)
	assert.False(t, res.External)
	require.NotNil(t, res.File)
	assert.Equal(t, "a.py", res.File.Path)
	assert.Nil(t, res.Symbol)
}

func TestResolveExternalModule(t *testing.T) {
	g := newTestGraph(t)

	add(t, g, "b.py", "from requests import get\n")

	imports := importsOf(t, g, "b.py")
	require.Len(t, imports, 1)

	res, err := g.ResolveImport(imports[0])
	require.NoError(t, err)
	assert.True(t, res.External)
	assert.Equal(t, "requests", res.Module)
}

func TestResolveThroughReExport(t *testing.T) {
	g := newTestGraph(t)

	add(t, g, "pkg/impl.py", "def helper():\n    pass\n")
	add(t, g, "pkg/__init__.py", "from .impl import helper\n")
	add(t, g, "main.py", "from pkg import helper\n\nhelper()\n")

	imports := importsOf(t, g, "main.py")
	require.Len(t, imports, 1)

	res, err := g.ResolveImport(imports[0])
	require.NoError(t, err)
	assert.False(t, res.External)
	require.NotNil(t, res.Symbol)
	assert.Equal(t, "pkg/impl.py", res.Symbol.Path)
	assert.Equal(t, "function", res.Symbol.Kind)
}

func TestCircularImportTerminates(t *testing.T) {
	g := newTestGraph(t)

	add(t, g, "pkg_a/__init__.py", "from pkg_b import thing\n")
	add(t, g, "pkg_b/__init__.py", "from pkg_a import thing\n")

	imports := importsOf(t, g, "pkg_a/__init__.py")
	require.Len(t, imports, 1)

	res, err := g.ResolveImport(imports[0])
	require.NoError(t, err)
	assert.True(t, res.External)
}

func TestResolutionReflectsUpdates(t *testing.T) {
	g := newTestGraph(t)

	add(t, g, "a.py", "def helper():\n    pass\n")
	add(t, g, "b.py", "from a import helper\n")

	imports := importsOf(t, g, "b.py")
	res, err := g.ResolveImport(imports[0])
	require.NoError(t, err)
	require.NotNil(t, res.Symbol)

	// Removing the definition invalidates the cached resolution.
	add(t, g, "a.py", "def other():\n    pass\n")

	res, err = g.ResolveImport(imports[0])
	require.NoError(t, err)
	assert.True(t, res.External)
}

func TestUsages(t *testing.T) {
	g := newTestGraph(t)

	add(t, g, "a.py", "def helper():\n    pass\n")
	add(t, g, "b.py", "from a import helper\n\nhelper()\n")

	sym := symbolNamed(t, g, "helper")
	usages, err := g.Usages(sym)
	require.NoError(t, err)
	require.Len(t, usages, 2)

	// Reverse source order: the call site precedes the import binding.
	assert.Equal(t, "b.py", usages[0].Path)
	assert.Equal(t, "call", usages[0].Context)
	assert.Equal(t, "b.py", usages[1].Path)
	assert.Equal(t, "import", usages[1].Context)
	assert.Greater(t, usages[0].Span.Start, usages[1].Span.Start)
}

func TestUsagesThroughModuleImport(t *testing.T) {
	g := newTestGraph(t)

	add(t, g, "a.py", "def helper():\n    pass\n")
	add(t, g, "c.py", "import a\n\na.helper()\n")

	sym := symbolNamed(t, g, "helper")
	usages, err := g.Usages(sym)
	require.NoError(t, err)
	require.Len(t, usages, 1)
	assert.Equal(t, "c.py", usages[0].Path)
	assert.Equal(t, "call", usages[0].Context)
}

func TestUsagesWithAlias(t *testing.T) {
	g := newTestGraph(t)

	add(t, g, "a.py", "def helper():\n    pass\n")
	add(t, g, "b.py", "from a import helper as h\n\nh()\n")

	sym := symbolNamed(t, g, "helper")
	usages, err := g.Usages(sym)
	require.NoError(t, err)
	require.Len(t, usages, 2)
	assert.Equal(t, "call", usages[0].Context)
	assert.Equal(t, "h", g.File("b.py").Buf.Slice(usages[0].Span))
	// The import-site usage covers the imported-name token, not the
	// alias that binds it locally.
	assert.Equal(t, "import", usages[1].Context)
	assert.Equal(t, "helper", g.File("b.py").Buf.Slice(usages[1].Span))
}

func TestUsagesThroughWildcardImport(t *testing.T) {
	g := newTestGraph(t)

	add(t, g, "a.py", "def helper():\n    pass\n")
	add(t, g, "w.py", "from a import *\n\nhelper()\n")

	sym := symbolNamed(t, g, "helper")
	usages, err := g.Usages(sym)
	require.NoError(t, err)
	require.Len(t, usages, 1)
	assert.Equal(t, "w.py", usages[0].Path)
	assert.Equal(t, "call", usages[0].Context)
}

func TestResolveGoPackageImport(t *testing.T) {
	g := newTestGraph(t)

	add(t, g, "util/helpers.go", "package util\n\nfunc Helper() int {\n\treturn 1\n}\n")
	add(t, g, "main.go", "package main\n\nimport \"example.com/app/util\"\n\nfunc main() {\n\tutil.Helper()\n}\n")

	imports := importsOf(t, g, "main.go")
	require.Len(t, imports, 1)
	assert.Equal(t, "module", imports[0].Kind)

	res, err := g.ResolveImport(imports[0])
	require.NoError(t, err)
	assert.False(t, res.External)
	require.NotNil(t, res.File)
	assert.Equal(t, "util/helpers.go", res.File.Path)
}

func TestUsagesAcrossGoPackages(t *testing.T) {
	g := newTestGraph(t)

	add(t, g, "util/helpers.go", "package util\n\nfunc Helper() int {\n\treturn 1\n}\n")
	add(t, g, "util/strings.go", "package util\n\nfunc Title(s string) string {\n\treturn s\n}\n")
	add(t, g, "main.go", "package main\n\nimport \"example.com/app/util\"\n\nfunc main() {\n\tutil.Helper()\n\tutil.Title(\"x\")\n}\n")

	usages, err := g.Usages(symbolNamed(t, g, "Helper"))
	require.NoError(t, err)
	require.Len(t, usages, 1)
	assert.Equal(t, "main.go", usages[0].Path)
	assert.Equal(t, "attribute", usages[0].Context)
	assert.Equal(t, "Helper", g.File("main.go").Buf.Slice(usages[0].Span))

	// Title lives in a sibling file of the same package; resolution
	// lands on the package's first file but the usage still counts.
	usages, err = g.Usages(symbolNamed(t, g, "Title"))
	require.NoError(t, err)
	require.Len(t, usages, 1)
	assert.Equal(t, "main.go", usages[0].Path)
}

func TestUsagesThroughAliasedGoImport(t *testing.T) {
	g := newTestGraph(t)

	add(t, g, "util/helpers.go", "package util\n\nfunc Helper() int {\n\treturn 1\n}\n")
	add(t, g, "main.go", "package main\n\nimport u \"example.com/app/util\"\n\nfunc main() {\n\tu.Helper()\n}\n")

	usages, err := g.Usages(symbolNamed(t, g, "Helper"))
	require.NoError(t, err)
	require.Len(t, usages, 1)
	assert.Equal(t, "Helper", g.File("main.go").Buf.Slice(usages[0].Span))
}

func TestResolveRelativeScriptImport(t *testing.T) {
	g := newTestGraph(t)

	add(t, g, "lib.js", "export function helper() {}\n")
	add(t, g, "app.js", "import { helper } from './lib';\n\nhelper();\n")

	imports := importsOf(t, g, "app.js")
	require.Len(t, imports, 1)

	res, err := g.ResolveImport(imports[0])
	require.NoError(t, err)
	assert.False(t, res.External)
	require.NotNil(t, res.Symbol)
	assert.Equal(t, "lib.js", res.Symbol.Path)

	usages, err := g.Usages(declNamed(t, g, "helper"))
	require.NoError(t, err)
	require.Len(t, usages, 2)
	assert.Equal(t, "call", usages[0].Context)
	assert.Equal(t, "import", usages[1].Context)
}

func TestResolveTypeScriptImport(t *testing.T) {
	g := newTestGraph(t)

	add(t, g, "lib.ts", "export function helper(): number {\n  return 1;\n}\n")
	add(t, g, "app.ts", "import { helper } from './lib';\n\nhelper();\n")

	imports := importsOf(t, g, "app.ts")
	require.Len(t, imports, 1)

	res, err := g.ResolveImport(imports[0])
	require.NoError(t, err)
	assert.False(t, res.External)
	require.NotNil(t, res.Symbol)
	assert.Equal(t, "lib.ts", res.Symbol.Path)

	usages, err := g.Usages(declNamed(t, g, "helper"))
	require.NoError(t, err)
	require.Len(t, usages, 2)
}

func TestDependencies(t *testing.T) {
	g := newTestGraph(t)

	add(t, g, "a.py", "def base():\n    pass\n\ndef helper():\n    base()\n")
	add(t, g, "b.py", "from a import helper\n\ndef run():\n    helper()\n")

	run := symbolNamed(t, g, "run")

	direct, err := g.Dependencies(run, nil, 1)
	require.NoError(t, err)
	require.Len(t, direct, 1)
	assert.Equal(t, "helper", direct[0].Name)
	assert.Equal(t, "a.py", direct[0].Path)

	transitive, err := g.Dependencies(run, nil, 2)
	require.NoError(t, err)
	require.Len(t, transitive, 2)
	assert.Equal(t, "base", transitive[0].Name)
	assert.Equal(t, "helper", transitive[1].Name)
}

func TestDependenciesFiltersByUsageType(t *testing.T) {
	g := newTestGraph(t)

	add(t, g, "a.py", "def helper():\n    pass\n")
	add(t, g, "b.py", "from a import helper\n\ndef run():\n    helper()\n")

	run := symbolNamed(t, g, "run")
	deps, err := g.Dependencies(run, []string{"attribute"}, 1)
	require.NoError(t, err)
	assert.Empty(t, deps)
}
