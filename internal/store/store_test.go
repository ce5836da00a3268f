package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/graft/internal/text"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore()
	require.NoError(t, err)
	require.NoError(t, s.Migrate())
	t.Cleanup(func() { s.Close() })
	return s
}

func insertTestFile(t *testing.T, s *Store, path string) int64 {
	t.Helper()
	id, err := s.InsertFile(&File{
		Path: path, Language: "python", Hash: "h", LineCount: 1, LastIndexed: time.Now(),
	})
	require.NoError(t, err)
	return id
}

func TestFileRoundTrip(t *testing.T) {
	s := newTestStore(t)

	id := insertTestFile(t, s, "a.py")

	f, err := s.FileByPath("a.py")
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.Equal(t, id, f.ID)

	missing, err := s.FileByPath("nope.py")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestFilesUnder(t *testing.T) {
	s := newTestStore(t)

	insertTestFile(t, s, "pkg/a.py")
	insertTestFile(t, s, "pkg/sub/b.py")
	insertTestFile(t, s, "other/c.py")

	files, err := s.FilesUnder("pkg")
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "pkg/a.py", files[0].Path)
	assert.Equal(t, "pkg/sub/b.py", files[1].Path)

	all, err := s.FilesUnder("")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	// Prefix matching is by path segment, not by string prefix.
	none, err := s.FilesUnder("pk")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSymbolsByNameOrdering(t *testing.T) {
	s := newTestStore(t)

	bID := insertTestFile(t, s, "b.py")
	aID := insertTestFile(t, s, "a.py")

	_, err := s.InsertSymbol(&Symbol{
		FileID: bID, Name: "helper", Kind: "function",
		Span: text.NewSpan(0, 20), NameSpan: text.NewSpan(4, 10),
	})
	require.NoError(t, err)
	_, err = s.InsertSymbol(&Symbol{
		FileID: aID, Name: "helper", Kind: "function",
		Span: text.NewSpan(30, 50), NameSpan: text.NewSpan(34, 40),
	})
	require.NoError(t, err)
	_, err = s.InsertSymbol(&Symbol{
		FileID: aID, Name: "helper", Kind: "variable",
		Span: text.NewSpan(0, 10), NameSpan: text.NewSpan(0, 6),
	})
	require.NoError(t, err)

	syms, err := s.SymbolsByName("helper")
	require.NoError(t, err)
	require.Len(t, syms, 3)
	assert.Equal(t, "a.py", syms[0].Path)
	assert.Equal(t, 0, syms[0].Span.Start)
	assert.Equal(t, "a.py", syms[1].Path)
	assert.Equal(t, 30, syms[1].Span.Start)
	assert.Equal(t, "b.py", syms[2].Path)
}

func TestExtendedSpansRoundTrip(t *testing.T) {
	s := newTestStore(t)

	fID := insertTestFile(t, s, "a.py")
	id, err := s.InsertSymbol(&Symbol{
		FileID: fID, Name: "x", Kind: "function",
		Span:     text.NewSpan(40, 90),
		NameSpan: text.NewSpan(44, 45),
		Extended: []text.Span{text.NewSpan(0, 18), text.NewSpan(20, 39)},
	})
	require.NoError(t, err)

	sym, err := s.SymbolByID(id)
	require.NoError(t, err)
	require.NotNil(t, sym)
	require.Len(t, sym.Extended, 2)
	assert.Equal(t, text.NewSpan(0, 18), sym.Extended[0])
	assert.Equal(t, text.NewSpan(20, 39), sym.Extended[1])
}

func TestExportedSymbolPrefersDeclaration(t *testing.T) {
	s := newTestStore(t)

	fID := insertTestFile(t, s, "a.py")

	impSymID, err := s.InsertSymbol(&Symbol{
		FileID: fID, Name: "helper", Kind: "import", Exported: true,
		Span: text.NewSpan(0, 20), NameSpan: text.NewSpan(14, 20),
	})
	require.NoError(t, err)
	_, err = s.InsertImport(&Import{
		SymbolID: impSymID, FileID: fID, Module: "m", Name: "helper", Kind: "named", ReExported: true,
	})
	require.NoError(t, err)

	declID, err := s.InsertSymbol(&Symbol{
		FileID: fID, Name: "helper", Kind: "function", Exported: true,
		Span: text.NewSpan(30, 60), NameSpan: text.NewSpan(34, 40),
	})
	require.NoError(t, err)

	sym, err := s.ExportedSymbol(fID, "helper")
	require.NoError(t, err)
	require.NotNil(t, sym)
	assert.Equal(t, declID, sym.ID)

	missing, err := s.ExportedSymbol(fID, "absent")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestImportsOfModule(t *testing.T) {
	s := newTestStore(t)

	fID := insertTestFile(t, s, "b.py")
	symID, err := s.InsertSymbol(&Symbol{
		FileID: fID, Name: "helper", Kind: "import",
		Span: text.NewSpan(0, 25), NameSpan: text.NewSpan(19, 25),
	})
	require.NoError(t, err)
	_, err = s.InsertImport(&Import{
		SymbolID: symID, FileID: fID, Module: "a",
		ModuleSpan: text.NewSpan(5, 6), Name: "helper", Kind: "named",
	})
	require.NoError(t, err)

	imports, err := s.ImportsOfModule("a")
	require.NoError(t, err)
	require.Len(t, imports, 1)
	assert.Equal(t, "helper", imports[0].Name)
	assert.Equal(t, "helper", imports[0].LocalName())

	imp, err := s.ImportBySymbol(symID)
	require.NoError(t, err)
	require.NotNil(t, imp)
	assert.Equal(t, "a", imp.Module)
}

func TestDeleteFileData(t *testing.T) {
	s := newTestStore(t)

	fID := insertTestFile(t, s, "a.py")
	symID, err := s.InsertSymbol(&Symbol{
		FileID: fID, Name: "x", Kind: "import",
		Span: text.NewSpan(0, 10), NameSpan: text.NewSpan(7, 8),
	})
	require.NoError(t, err)
	_, err = s.InsertImport(&Import{SymbolID: symID, FileID: fID, Module: "m", Kind: "module"})
	require.NoError(t, err)
	_, err = s.InsertRef(&Ref{FileID: fID, Name: "x", Context: "ident", Span: text.NewSpan(12, 13)})
	require.NoError(t, err)

	require.NoError(t, s.DeleteFileData(fID))

	f, err := s.FileByPath("a.py")
	require.NoError(t, err)
	assert.Nil(t, f)

	syms, err := s.SymbolsByName("x")
	require.NoError(t, err)
	assert.Empty(t, syms)

	refs, err := s.RefsByName("x")
	require.NoError(t, err)
	assert.Empty(t, refs)
}
