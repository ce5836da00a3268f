package graft_test

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/graft"
)

func newTestCodebase(t *testing.T, files map[string]string, opts ...graft.Option) (*graft.Codebase, string) {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		full := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(body), 0o644))
	}
	cb, err := graft.Open(context.Background(), dir, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { cb.Close() })
	return cb, dir
}

func readFile(t *testing.T, dir, name string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(name)))
	require.NoError(t, err)
	return string(b)
}

func TestOpenAndLookup(t *testing.T) {
	cb, _ := newTestCodebase(t, map[string]string{
		"a.py":       "def helper():\n    pass\n",
		"lib/b.py":   "from a import helper\n",
		"README.md":  "not source\n",
		"lib/c.json": "{}\n",
	})

	assert.True(t, cb.HasFile("a.py"))
	assert.True(t, cb.HasFile("lib/b.py"))
	assert.False(t, cb.HasFile("README.md"))

	f, err := cb.GetFile("a.py", false)
	require.NoError(t, err)
	assert.Equal(t, "python", f.Language())

	_, err = cb.GetFile("missing.py", false)
	assert.ErrorIs(t, err, graft.ErrNotFound)

	opt, err := cb.GetFile("missing.py", true)
	require.NoError(t, err)
	assert.Nil(t, opt)

	dir, err := cb.GetDirectory("lib", false)
	require.NoError(t, err)
	files := dir.Files()
	require.Len(t, files, 1)
	assert.Equal(t, "lib/b.py", files[0].Path())
}

func TestGetSymbolAmbiguity(t *testing.T) {
	cb, _ := newTestCodebase(t, map[string]string{
		"a.py": "def helper():\n    pass\n",
		"b.py": "def helper():\n    pass\n",
	})

	_, err := cb.GetSymbol("helper", false)
	assert.ErrorIs(t, err, graft.ErrAmbiguous)

	syms, err := cb.GetSymbols("helper")
	require.NoError(t, err)
	assert.Len(t, syms, 2)

	_, err = cb.GetSymbol("nope", false)
	assert.ErrorIs(t, err, graft.ErrNotFound)
	assert.True(t, cb.HasSymbol("helper"))
	assert.False(t, cb.HasSymbol("nope"))
}

func TestNoOpCommitLeavesFilesIdentical(t *testing.T) {
	src := "def helper():\n    pass\n"
	cb, dir := newTestCodebase(t, map[string]string{"a.py": src})

	res, err := cb.Commit(context.Background(), false)
	require.NoError(t, err)
	assert.Empty(t, res.Files)

	assert.Equal(t, src, readFile(t, dir, "a.py"))
	f, err := cb.GetFile("a.py", false)
	require.NoError(t, err)
	assert.Equal(t, src, f.Source())
}

func TestRenameAcrossFiles(t *testing.T) {
	cb, dir := newTestCodebase(t, map[string]string{
		"a.py": "def foo():\n    pass\n",
		"b.py": "from a import foo\n\nfoo()\n",
	})

	sym, err := cb.GetSymbol("foo", false)
	require.NoError(t, err)
	require.NoError(t, sym.Rename("bar", 0))
	assert.Greater(t, cb.Session().Staged(), 0)

	res, err := cb.Commit(context.Background(), false)
	require.NoError(t, err)
	assert.Empty(t, res.Failed())

	assert.Equal(t, "def bar():\n    pass\n", readFile(t, dir, "a.py"))
	assert.Equal(t, "from a import bar\n\nbar()\n", readFile(t, dir, "b.py"))

	renamed, err := cb.GetSymbol("bar", false)
	require.NoError(t, err)
	assert.Equal(t, "a.py", renamed.FilePath())
	_, err = cb.GetSymbol("foo", false)
	assert.ErrorIs(t, err, graft.ErrNotFound)
}

func TestRenameKeepsImportAlias(t *testing.T) {
	cb, dir := newTestCodebase(t, map[string]string{
		"a.py": "def helper():\n    pass\n",
		"b.py": "from a import helper as h\n\nh()\n",
	})

	sym, err := cb.GetSymbol("helper", false)
	require.NoError(t, err)
	require.NoError(t, sym.Rename("fetch", 0))

	res, err := cb.Commit(context.Background(), false)
	require.NoError(t, err)
	assert.Empty(t, res.Failed())

	// The imported name follows the definition; the alias and its local
	// references keep their own spelling.
	assert.Equal(t, "def fetch():\n    pass\n", readFile(t, dir, "a.py"))
	assert.Equal(t, "from a import fetch as h\n\nh()\n", readFile(t, dir, "b.py"))
}

func TestRenameAcrossGoPackages(t *testing.T) {
	cb, dir := newTestCodebase(t, map[string]string{
		"util/helpers.go": "package util\n\nfunc Helper() int {\n\treturn 1\n}\n",
		"main.go":         "package main\n\nimport \"example.com/app/util\"\n\nfunc main() {\n\tutil.Helper()\n}\n",
	})

	sym, err := cb.GetSymbol("Helper", false)
	require.NoError(t, err)

	usages, err := sym.Usages()
	require.NoError(t, err)
	require.Len(t, usages, 1)

	require.NoError(t, sym.Rename("Fetch", 0))
	res, err := cb.Commit(context.Background(), false)
	require.NoError(t, err)
	assert.Empty(t, res.Failed())

	assert.Contains(t, readFile(t, dir, "util/helpers.go"), "func Fetch()")
	assert.Contains(t, readFile(t, dir, "main.go"), "util.Fetch()")
}

func TestRenameIsIdempotent(t *testing.T) {
	cb, _ := newTestCodebase(t, map[string]string{
		"a.py": "def bar():\n    pass\n",
	})

	sym, err := cb.GetSymbol("bar", false)
	require.NoError(t, err)
	require.NoError(t, sym.Rename("bar", 0))
	assert.Equal(t, 0, cb.Session().Staged())
}

func TestSameSpanHigherPriorityWins(t *testing.T) {
	cb, dir := newTestCodebase(t, map[string]string{
		"a.py": "value = 1\n",
	})

	span := graft.Span{Start: 8, End: 9}
	cb.Session().Stage(graft.Transaction{Path: "a.py", Op: graft.OpEdit, Span: span, Text: "3", Priority: 1})
	cb.Session().Stage(graft.Transaction{Path: "a.py", Op: graft.OpEdit, Span: span, Text: "2", Priority: 9})

	res, err := cb.Commit(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, res.Files, 1)
	assert.Len(t, res.Files[0].Deduped, 1)

	assert.Equal(t, "value = 2\n", readFile(t, dir, "a.py"))
}

func TestCommitFailureIsolatedPerFile(t *testing.T) {
	cb, dir := newTestCodebase(t, map[string]string{
		"a.py": "def foo():\n    pass\n",
		"b.py": "x = 1\n",
	})

	// a.py gets a valid edit, b.py gets one that cannot parse.
	fa, err := cb.GetFile("a.py", false)
	require.NoError(t, err)
	fa.Edit("def foo():\n    return 1\n", 0)
	fb, err := cb.GetFile("b.py", false)
	require.NoError(t, err)
	fb.Edit("def (\n", 0)

	res, err := cb.Commit(context.Background(), false)
	require.NoError(t, err)

	failed := res.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, "b.py", failed[0].Path)
	assert.ErrorIs(t, failed[0].Err, graft.ErrCommitFailed)
	assert.NotEmpty(t, failed[0].Attempted)

	assert.Equal(t, "def foo():\n    return 1\n", readFile(t, dir, "a.py"))
	assert.Equal(t, "x = 1\n", readFile(t, dir, "b.py"))
}

func TestSessionLimitFailsCommit(t *testing.T) {
	cb, dir := newTestCodebase(t, map[string]string{
		"a.py": "def foo():\n    pass\n",
		"b.py": "from a import foo\n\nfoo()\n",
	}, graft.WithSessionLimits(graft.SessionLimits{MaxTransactions: 1}))

	sym, err := cb.GetSymbol("foo", false)
	require.NoError(t, err)
	require.NoError(t, sym.Rename("bar", 0))

	_, err = cb.Commit(context.Background(), false)
	assert.True(t, errors.Is(err, graft.ErrSessionLimit))

	// Nothing applied.
	assert.Equal(t, "def foo():\n    pass\n", readFile(t, dir, "a.py"))
}

func TestMoveToFile(t *testing.T) {
	cb, dir := newTestCodebase(t, map[string]string{
		"a.py": "def helper():\n    pass\n",
		"b.py": "from a import helper\n\nhelper()\n",
	})

	sym, err := cb.GetSymbol("helper", false)
	require.NoError(t, err)

	usages, err := sym.Usages()
	require.NoError(t, err)
	require.Len(t, usages, 2)

	require.NoError(t, sym.MoveToFile(context.Background(), "c.py", false, graft.MoveUpdateAllImports, 0))

	res, err := cb.Commit(context.Background(), false)
	require.NoError(t, err)
	assert.Empty(t, res.Failed())
	assert.Contains(t, res.Created, "c.py")

	assert.Equal(t, "from c import helper\n\nhelper()\n", readFile(t, dir, "b.py"))
	assert.Equal(t, "def helper():\n    pass\n", readFile(t, dir, "c.py"))
	assert.NotContains(t, readFile(t, dir, "a.py"), "def helper")

	moved, err := cb.GetSymbol("helper", false)
	require.NoError(t, err)
	assert.Equal(t, "c.py", moved.FilePath())
}

func TestMoveToFileAddBackEdge(t *testing.T) {
	cb, dir := newTestCodebase(t, map[string]string{
		"a.py": "def helper():\n    pass\n",
		"b.py": "from a import helper\n\nhelper()\n",
	})

	sym, err := cb.GetSymbol("helper", false)
	require.NoError(t, err)
	require.NoError(t, sym.MoveToFile(context.Background(), "c.py", false, graft.MoveAddBackEdge, 0))

	res, err := cb.Commit(context.Background(), false)
	require.NoError(t, err)
	assert.Empty(t, res.Failed())

	// Importers untouched; the old module re-exports the symbol.
	assert.Equal(t, "from a import helper\n\nhelper()\n", readFile(t, dir, "b.py"))
	assert.Contains(t, readFile(t, dir, "a.py"), "from c import helper")
}

func TestExternalImportResolvesAsExternal(t *testing.T) {
	cb, _ := newTestCodebase(t, map[string]string{
		"a.py": "import requests\n",
	})

	f, err := cb.GetFile("a.py", false)
	require.NoError(t, err)
	imps, err := f.Imports()
	require.NoError(t, err)
	require.Len(t, imps, 1)

	ext, err := imps[0].IsExternal()
	require.NoError(t, err)
	assert.True(t, ext)

	sym, err := imps[0].ResolvedSymbol()
	require.NoError(t, err)
	assert.Nil(t, sym)
	file, err := imps[0].ResolvedFile()
	require.NoError(t, err)
	assert.Nil(t, file)
}

func TestDiffDryRun(t *testing.T) {
	cb, dir := newTestCodebase(t, map[string]string{
		"a.py": "def foo():\n    pass\n",
	})

	sym, err := cb.GetSymbol("foo", false)
	require.NoError(t, err)
	require.NoError(t, sym.Rename("bar", 0))

	out, err := cb.Diff()
	require.NoError(t, err)
	assert.Contains(t, out, "a/a.py")
	assert.Contains(t, out, "-def foo():")
	assert.Contains(t, out, "+def bar():")

	// Dry run does not touch disk or the queue.
	assert.Equal(t, "def foo():\n    pass\n", readFile(t, dir, "a.py"))
	assert.Greater(t, cb.Session().Staged(), 0)
}

func TestCreateAndDeleteFile(t *testing.T) {
	cb, dir := newTestCodebase(t, map[string]string{
		"a.py": "x = 1\n",
	})

	_, err := cb.CreateFile(context.Background(), "fresh.py", "y = 2\n")
	require.NoError(t, err)
	assert.True(t, cb.HasFile("fresh.py"))
	require.NoError(t, cb.DeleteFile("a.py"))
	assert.False(t, cb.HasFile("a.py"))

	res, err := cb.Commit(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, []string{"fresh.py"}, res.Created)
	assert.Equal(t, []string{"a.py"}, res.Deleted)

	assert.Equal(t, "y = 2\n", readFile(t, dir, "fresh.py"))
	_, statErr := os.Stat(filepath.Join(dir, "a.py"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestRenameFileRewritesImports(t *testing.T) {
	cb, dir := newTestCodebase(t, map[string]string{
		"a.py": "def helper():\n    pass\n",
		"b.py": "from a import helper\n\nhelper()\n",
	})

	require.NoError(t, cb.RenameFile(context.Background(), "a.py", "util.py"))

	res, err := cb.Commit(context.Background(), false)
	require.NoError(t, err)
	assert.Empty(t, res.Failed())

	assert.Equal(t, "from util import helper\n\nhelper()\n", readFile(t, dir, "b.py"))
	assert.Equal(t, "def helper():\n    pass\n", readFile(t, dir, "util.py"))
	_, statErr := os.Stat(filepath.Join(dir, "a.py"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestDiscardDropsStagedEdits(t *testing.T) {
	cb, dir := newTestCodebase(t, map[string]string{
		"a.py": "def foo():\n    pass\n",
	})

	sym, err := cb.GetSymbol("foo", false)
	require.NoError(t, err)
	require.NoError(t, sym.Rename("bar", 0))
	cb.Session().Discard()
	assert.Equal(t, 0, cb.Session().Staged())

	_, err = cb.Commit(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, "def foo():\n    pass\n", readFile(t, dir, "a.py"))
}

func TestFindAndSearch(t *testing.T) {
	cb, _ := newTestCodebase(t, map[string]string{
		"a.py": "helper = 1  # helper comment\ns = \"helper\"\n",
	})

	hits := cb.Find([]string{"helper"}, true)
	assert.Len(t, hits, 3)

	code, err := cb.Search("helper", false, false)
	require.NoError(t, err)
	assert.Len(t, code, 1)

	all, err := cb.Search("helper", true, true)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestCodeOwners(t *testing.T) {
	cb, _ := newTestCodebase(t, map[string]string{
		"CODEOWNERS": "*.py @backend\nlib/ @platform\n",
		"a.py":       "x = 1\n",
		"lib/b.py":   "y = 2\n",
	})

	owners, err := cb.CodeOwners()
	require.NoError(t, err)
	require.Len(t, owners, 2)
	assert.Equal(t, "@backend", owners[0].Name())
	assert.Equal(t, "@platform", owners[1].Name())

	// The last matching rule wins.
	libOwners, err := cb.OwnersOf("lib/b.py")
	require.NoError(t, err)
	assert.Equal(t, []string{"@platform"}, libOwners)

	backendFiles, err := owners[0].Files()
	require.NoError(t, err)
	require.Len(t, backendFiles, 1)
	assert.Equal(t, "a.py", backendFiles[0].Path())
}

func TestCheckout(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	dir := t.TempDir()
	run := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, "git %v: %s", args, out)
	}
	run("init", "-b", "main")
	run("config", "user.email", "test@example.com")
	run("config", "user.name", "test")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.py"), []byte("def foo():\n    pass\n"), 0o644))
	run("add", "-A")
	run("commit", "-m", "initial")

	cb, err := graft.Open(context.Background(), dir)
	require.NoError(t, err)
	defer cb.Close()

	res, err := cb.Checkout(context.Background(), "feature", true, "")
	require.NoError(t, err)
	assert.Equal(t, graft.CheckoutSuccess, res.Status)
	assert.True(t, cb.HasFile("a.py"))

	res, err = cb.Checkout(context.Background(), "does-not-exist", false, "")
	require.NoError(t, err)
	assert.Equal(t, graft.CheckoutNotFound, res.Status)
}
