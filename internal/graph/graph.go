// Package graph maintains the codebase-wide symbol and import index.
// Each file's syntax tree is parsed once and re-indexed whenever its
// text changes; cross-file resolution is computed lazily on top of the
// indexed edges and cached per graph generation.
package graph

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"time"

	"github.com/jward/graft/internal/lang"
	"github.com/jward/graft/internal/store"
	"github.com/jward/graft/internal/tree"
)

type Graph struct {
	store *store.Store
	files map[string]*tree.SourceFile

	// generation counts graph mutations. Resolution results are cached
	// against the generation they were computed at, so any mutation
	// implicitly invalidates every cached resolution.
	generation uint64
	resCache   map[resCacheKey]*Resolution
}

func New() (*Graph, error) {
	s, err := store.NewStore()
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(); err != nil {
		s.Close()
		return nil, err
	}
	return &Graph{
		store:    s,
		files:    make(map[string]*tree.SourceFile),
		resCache: make(map[resCacheKey]*Resolution),
	}, nil
}

func (g *Graph) Store() *store.Store {
	return g.store
}

func (g *Graph) Generation() uint64 {
	return g.generation
}

// File returns the parsed syntax tree for a path, or nil if the path
// is not in the graph.
func (g *Graph) File(path string) *tree.SourceFile {
	return g.files[path]
}

// Paths returns every indexed path in lexicographic order.
func (g *Graph) Paths() []string {
	paths := make([]string, 0, len(g.files))
	for p := range g.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// AddFile parses src and indexes its declarations, imports, and
// references. Re-adding a path replaces its previous index entries.
func (g *Graph) AddFile(ctx context.Context, path string, src []byte) error {
	spec, ok := lang.ForFile(path)
	if !ok {
		return fmt.Errorf("unsupported file type: %s", path)
	}
	f, err := tree.Parse(ctx, path, src, spec)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	if err := g.indexFile(f); err != nil {
		f.Close()
		return err
	}
	if old := g.files[path]; old != nil {
		old.Close()
	}
	g.files[path] = f
	g.bump()
	return nil
}

// UpdateFile reparses a path with new text and re-indexes it.
func (g *Graph) UpdateFile(ctx context.Context, path string, src []byte) error {
	return g.AddFile(ctx, path, src)
}

// AddParsed indexes an already parsed file. Parsing is CPU bound and
// can run concurrently; indexing serializes through here because the
// store rides a single connection.
func (g *Graph) AddParsed(f *tree.SourceFile) error {
	if err := g.indexFile(f); err != nil {
		f.Close()
		return err
	}
	if old := g.files[f.Path]; old != nil {
		old.Close()
	}
	g.files[f.Path] = f
	g.bump()
	return nil
}

// RemoveFile drops a path and all its index entries from the graph.
func (g *Graph) RemoveFile(path string) error {
	f := g.files[path]
	if f == nil {
		return nil
	}
	row, err := g.store.FileByPath(path)
	if err != nil {
		return err
	}
	if row != nil {
		if err := g.store.DeleteFileData(row.ID); err != nil {
			return err
		}
	}
	f.Close()
	delete(g.files, path)
	g.bump()
	return nil
}

// Reset empties the graph entirely. Used after a checkout replaces the
// working tree.
func (g *Graph) Reset() error {
	if err := g.store.Reset(); err != nil {
		return err
	}
	for _, f := range g.files {
		f.Close()
	}
	g.files = make(map[string]*tree.SourceFile)
	g.bump()
	return nil
}

func (g *Graph) Close() error {
	for _, f := range g.files {
		f.Close()
	}
	g.files = make(map[string]*tree.SourceFile)
	return g.store.Close()
}

func (g *Graph) bump() {
	g.generation++
	g.resCache = make(map[resCacheKey]*Resolution)
}

func contentHash(src []byte) string {
	sum := sha256.Sum256(src)
	return hex.EncodeToString(sum[:])
}

// indexFile writes one file's extraction result into the store,
// replacing any previous rows for the same path.
func (g *Graph) indexFile(f *tree.SourceFile) error {
	prev, err := g.store.FileByPath(f.Path)
	if err != nil {
		return err
	}
	if prev != nil {
		if err := g.store.DeleteFileData(prev.ID); err != nil {
			return err
		}
	}

	fileID, err := g.store.InsertFile(&store.File{
		Path:        f.Path,
		Language:    f.Lang.Name,
		Hash:        contentHash(f.Buf.Bytes()),
		LineCount:   f.Buf.LineCount(),
		LastIndexed: time.Now(),
	})
	if err != nil {
		return fmt.Errorf("index %s: %w", f.Path, err)
	}

	res := tree.Extract(f)

	// Declarations are extracted parent before child, so the parent's
	// row ID is always known by the time a nested declaration lands.
	symbolIDs := make([]int64, len(res.Decls))
	for i, d := range res.Decls {
		sym := &store.Symbol{
			FileID:   fileID,
			Name:     d.Name,
			Kind:     d.Kind,
			Exported: d.Exported,
			Span:     d.Span,
			NameSpan: d.NameSpan,
			Recv:     d.Recv,
			Extended: d.Extended,
		}
		if d.Parent >= 0 {
			parentID := symbolIDs[d.Parent]
			sym.ParentSymbolID = &parentID
		}
		id, err := g.store.InsertSymbol(sym)
		if err != nil {
			return fmt.Errorf("index %s: %w", f.Path, err)
		}
		symbolIDs[i] = id

		if d.Import != nil {
			_, err := g.store.InsertImport(&store.Import{
				SymbolID:   id,
				FileID:     fileID,
				Module:     d.Import.Module,
				ModuleSpan: d.Import.ModuleSpan,
				Name:       d.Import.Name,
				NameSpan:   d.Import.NameSpan,
				Alias:      d.Import.Alias,
				Kind:       d.Import.Kind,
				ReExported: d.Import.ReExported,
			})
			if err != nil {
				return fmt.Errorf("index %s: %w", f.Path, err)
			}
		}
	}

	for _, r := range res.Refs {
		_, err := g.store.InsertRef(&store.Ref{
			FileID:    fileID,
			Name:      r.Name,
			Qualifier: r.Qualifier,
			Context:   r.Context,
			Span:      r.Span,
		})
		if err != nil {
			return fmt.Errorf("index %s: %w", f.Path, err)
		}
	}
	return nil
}
