package tree

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/graft/internal/lang"
)

func parseTestFile(t *testing.T, path, src string) *SourceFile {
	t.Helper()
	spec, ok := lang.ForFile(path)
	require.True(t, ok, "no language for %s", path)
	f, err := Parse(context.Background(), path, []byte(src), spec)
	require.NoError(t, err)
	t.Cleanup(f.Close)
	return f
}

func declByName(t *testing.T, res *Result, name, kind string) Decl {
	t.Helper()
	for _, d := range res.Decls {
		if d.Name == name && d.Kind == kind {
			return d
		}
	}
	t.Fatalf("no %s declaration named %q", kind, name)
	return Decl{}
}

func TestExtractPython(t *testing.T) {
	src := `# greets the world
def helper():
    pass


@app.route("/")
def index():
    return helper()

class Greeter:
    def greet(self, name="world"):
        return helper()

MAX_RETRIES = 10
`
	f := parseTestFile(t, "app.py", src)
	res := Extract(f)

	helper := declByName(t, res, "helper", "function")
	assert.True(t, helper.Exported)
	require.Len(t, helper.Extended, 1)
	assert.Equal(t, "# greets the world", f.Buf.Slice(helper.Extended[0]))

	index := declByName(t, res, "index", "function")
	require.Len(t, index.Extended, 1)
	assert.Equal(t, `@app.route("/")`, f.Buf.Slice(index.Extended[0]))

	greeter := declByName(t, res, "Greeter", "class")
	greet := declByName(t, res, "greet", "method")
	assert.Equal(t, greeter, res.Decls[greet.Parent])
	require.Len(t, greet.Params, 2)
	assert.Equal(t, "self", greet.Params[0].Name)
	assert.Equal(t, "name", greet.Params[1].Name)
	assert.Equal(t, `"world"`, greet.Params[1].Default)

	declByName(t, res, "MAX_RETRIES", "constant")

	// helper is referenced twice in bodies; the def site is not a ref.
	var helperRefs int
	for _, r := range res.Refs {
		if r.Name == "helper" {
			helperRefs++
			assert.Equal(t, "call", r.Context)
		}
	}
	assert.Equal(t, 2, helperRefs)
}

func TestExtractPythonImports(t *testing.T) {
	src := `import os.path as osp
from a import helper
from b import greet as hello
from c import *
`
	f := parseTestFile(t, "m.py", src)
	res := Extract(f)

	require.Len(t, res.Decls, 4)

	osp := declByName(t, res, "osp", "import")
	assert.Equal(t, "os.path", osp.Import.Module)
	assert.Equal(t, "module", osp.Import.Kind)
	assert.Equal(t, "osp", osp.Import.Alias)

	helper := declByName(t, res, "helper", "import")
	assert.Equal(t, "a", helper.Import.Module)
	assert.Equal(t, "named", helper.Import.Kind)
	assert.Equal(t, "a", f.Buf.Slice(helper.Import.ModuleSpan))
	assert.False(t, helper.Import.ReExported)

	hello := declByName(t, res, "hello", "import")
	assert.Equal(t, "greet", hello.Import.Name)
	assert.Equal(t, "hello", hello.Import.Alias)

	star := declByName(t, res, "c", "import")
	assert.Equal(t, "wildcard", star.Import.Kind)
}

func TestExtractPythonInitReExports(t *testing.T) {
	f := parseTestFile(t, "pkg/__init__.py", "from .core import helper\n")
	res := Extract(f)

	require.Len(t, res.Decls, 1)
	assert.True(t, res.Decls[0].Import.ReExported)
	assert.Equal(t, ".core", res.Decls[0].Import.Module)
}

func TestExtractGo(t *testing.T) {
	src := `package demo

import (
	"fmt"
	other "strings"
	_ "embed"
)

// Greeter greets.
type Greeter struct{}

// Greet says hello.
func (g *Greeter) Greet(name string) string {
	return fmt.Sprintf("hello %s", other.ToUpper(name))
}

const maxRetries = 3

var Registry = map[string]*Greeter{}
`
	f := parseTestFile(t, "demo.go", src)
	res := Extract(f)

	greeter := declByName(t, res, "Greeter", "class")
	assert.True(t, greeter.Exported)
	require.Len(t, greeter.Extended, 1)
	assert.Equal(t, "// Greeter greets.", f.Buf.Slice(greeter.Extended[0]))

	greet := declByName(t, res, "Greet", "method")
	assert.Equal(t, "Greeter", greet.Recv)
	require.Len(t, greet.Params, 1)
	assert.Equal(t, "name", greet.Params[0].Name)
	assert.Equal(t, "string", greet.Params[0].Type)

	mr := declByName(t, res, "maxRetries", "constant")
	assert.False(t, mr.Exported)
	declByName(t, res, "Registry", "variable")

	fmtImp := declByName(t, res, "fmt", "import")
	assert.Equal(t, "module", fmtImp.Import.Kind)
	assert.Equal(t, "fmt", f.Buf.Slice(fmtImp.Import.ModuleSpan))

	other := declByName(t, res, "other", "import")
	assert.Equal(t, "strings", other.Import.Module)
	assert.Equal(t, "other", other.Import.Alias)

	embed := declByName(t, res, "embed", "import")
	assert.Equal(t, "side-effect", embed.Import.Kind)
}

func TestExtractScript(t *testing.T) {
	src := `import { helper, format as fmt } from './util';
import * as path from 'path';
import 'polyfill';
export { legacy } from './old';

// Greets a user.
export function greet(name, punct = '!') {
  return helper(name) + punct;
}

export class Greeter {
  greet(name) {
    return greet(name);
  }
}

const internal = () => helper('x');
`
	f := parseTestFile(t, "app.js", src)
	res := Extract(f)

	helper := declByName(t, res, "helper", "import")
	assert.Equal(t, "./util", helper.Import.Module)
	assert.Equal(t, "named", helper.Import.Kind)
	assert.Equal(t, "./util", f.Buf.Slice(helper.Import.ModuleSpan))

	fmtImp := declByName(t, res, "fmt", "import")
	assert.Equal(t, "format", fmtImp.Import.Name)
	assert.Equal(t, "fmt", fmtImp.Import.Alias)

	pathImp := declByName(t, res, "path", "import")
	assert.Equal(t, "wildcard", pathImp.Import.Kind)

	poly := declByName(t, res, "polyfill", "import")
	assert.Equal(t, "side-effect", poly.Import.Kind)

	legacy := declByName(t, res, "legacy", "import")
	assert.True(t, legacy.Import.ReExported)
	assert.Equal(t, "./old", legacy.Import.Module)

	greet := declByName(t, res, "greet", "function")
	assert.True(t, greet.Exported)
	require.Len(t, greet.Params, 2)
	assert.Equal(t, "punct", greet.Params[1].Name)
	assert.Equal(t, "'!'", greet.Params[1].Default)
	require.Len(t, greet.Extended, 1)
	assert.Equal(t, "// Greets a user.", f.Buf.Slice(greet.Extended[0]))

	greeter := declByName(t, res, "Greeter", "class")
	assert.True(t, greeter.Exported)
	method := declByName(t, res, "greet", "method")
	assert.Equal(t, greeter, res.Decls[method.Parent])

	internal := declByName(t, res, "internal", "function")
	assert.False(t, internal.Exported)
}

func TestExtractTypeScript(t *testing.T) {
	src := `import type { Config } from './config';

export interface Shape {
  area(): number;
}

export type Alias = Shape;

enum Color { Red, Green }
`
	f := parseTestFile(t, "shapes.ts", src)
	res := Extract(f)

	cfg := declByName(t, res, "Config", "import")
	assert.Equal(t, "type-only", cfg.Import.Kind)

	shape := declByName(t, res, "Shape", "interface")
	assert.True(t, shape.Exported)
	declByName(t, res, "Alias", "type")
	color := declByName(t, res, "Color", "enum")
	assert.False(t, color.Exported)
}
