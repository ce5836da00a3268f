package graft

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"
	"golang.org/x/sync/errgroup"

	"github.com/jward/graft/internal/graph"
	"github.com/jward/graft/internal/lang"
	"github.com/jward/graft/internal/tree"
	"github.com/jward/graft/internal/vcs"
)

// Codebase is the facade over one working tree. It exclusively owns
// the graph; all mutation funnels through staged transactions and the
// explicit Commit and Checkout points.
type Codebase struct {
	root  string
	graph *graph.Graph
	repo  *vcs.Repo

	session *Session

	languages  map[string]bool // nil means all supported languages
	maxWorkers int

	// Files created or deleted in this session; reconciled with the
	// working tree at commit time.
	created map[string]bool
	deleted map[string]bool
}

// Option configures a Codebase.
type Option func(*Codebase)

// WithLanguages restricts which languages are parsed into the graph.
func WithLanguages(languages ...string) Option {
	return func(c *Codebase) {
		c.languages = make(map[string]bool, len(languages))
		for _, l := range languages {
			c.languages[l] = true
		}
	}
}

// WithMaxWorkers bounds the parse worker pool used by Open and resync.
func WithMaxWorkers(n int) Option {
	return func(c *Codebase) {
		if n > 0 {
			c.maxWorkers = n
		}
	}
}

// WithSessionLimits sets the soft bounds enforced at commit time.
func WithSessionLimits(limits SessionLimits) Option {
	return func(c *Codebase) {
		c.session.limits = limits
	}
}

// Open parses every supported file under root into a new graph.
func Open(ctx context.Context, root string, opts ...Option) (*Codebase, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("graft: resolve root: %w", err)
	}
	g, err := graph.New()
	if err != nil {
		return nil, fmt.Errorf("graft: create graph: %w", err)
	}
	c := &Codebase{
		root:       abs,
		graph:      g,
		repo:       vcs.Open(abs),
		session:    newSession(SessionLimits{}),
		maxWorkers: runtime.NumCPU(),
		created:    make(map[string]bool),
		deleted:    make(map[string]bool),
	}
	for _, opt := range opts {
		opt(c)
	}
	if err := c.sync(ctx); err != nil {
		g.Close()
		return nil, err
	}
	return c, nil
}

// Close releases the graph and every parsed tree.
func (c *Codebase) Close() error {
	return c.graph.Close()
}

// Root returns the absolute working-tree root.
func (c *Codebase) Root() string {
	return c.root
}

// Session returns the active editing session.
func (c *Codebase) Session() *Session {
	return c.session
}

func (c *Codebase) absPath(rel string) string {
	return filepath.Join(c.root, filepath.FromSlash(rel))
}

// sync discovers files and (re)parses them into the graph. Parsing
// runs on a bounded worker pool; indexing is serial.
func (c *Codebase) sync(ctx context.Context) error {
	paths, err := c.discover(ctx)
	if err != nil {
		return err
	}

	parsed := make([]*tree.SourceFile, len(paths))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(c.maxWorkers)
	for i, p := range paths {
		i, p := i, p
		eg.Go(func() error {
			spec, ok := lang.ForFile(p)
			if !ok {
				return nil
			}
			src, err := os.ReadFile(c.absPath(p))
			if err != nil {
				return fmt.Errorf("read %s: %w", p, err)
			}
			f, err := tree.Parse(ctx, p, src, spec)
			if err != nil {
				return fmt.Errorf("parse %s: %w", p, err)
			}
			parsed[i] = f
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		for _, f := range parsed {
			if f != nil {
				f.Close()
			}
		}
		return err
	}

	for _, f := range parsed {
		if f == nil {
			continue
		}
		if err := c.graph.AddParsed(f); err != nil {
			return err
		}
	}
	return nil
}

var skipDirs = map[string]bool{
	"node_modules": true,
	"vendor":       true,
	"__pycache__":  true,
}

// discover lists the supported source files under root, repo-relative.
// Inside a git repository it defers to git's view of tracked and
// untracked files; otherwise it walks the tree honoring .gitignore.
func (c *Codebase) discover(ctx context.Context) ([]string, error) {
	if c.repo.IsRepo(ctx) {
		files, err := c.repo.ListFiles(ctx)
		if err == nil {
			return c.filterSupported(files), nil
		}
	}
	return c.walk()
}

func (c *Codebase) filterSupported(files []string) []string {
	var out []string
	for _, f := range files {
		if !lang.Supported(f) {
			continue
		}
		if c.languages != nil {
			spec, _ := lang.ForFile(f)
			if spec == nil || !c.languages[spec.Name] {
				continue
			}
		}
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

func (c *Codebase) walk() ([]string, error) {
	var ignore *gitignore.GitIgnore
	if ig, err := gitignore.CompileIgnoreFile(filepath.Join(c.root, ".gitignore")); err == nil {
		ignore = ig
	}

	var paths []string
	err := filepath.WalkDir(c.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(c.root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			name := d.Name()
			if rel != "." && (strings.HasPrefix(name, ".") || skipDirs[name]) {
				return filepath.SkipDir
			}
			if ignore != nil && rel != "." && ignore.MatchesPath(rel+"/") {
				return filepath.SkipDir
			}
			return nil
		}
		if ignore != nil && ignore.MatchesPath(rel) {
			return nil
		}
		paths = append(paths, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", c.root, err)
	}
	return c.filterSupported(paths), nil
}

// --- Lookup surface ---
// All lookups are pure graph queries with no parsing side effects.

// HasFile reports whether a repo-relative path is in the graph.
func (c *Codebase) HasFile(path string) bool {
	return c.graph.File(path) != nil
}

// GetFile returns the file at a repo-relative path. A missing path is
// ErrNotFound unless optional, in which case the result is nil.
func (c *Codebase) GetFile(path string, optional bool) (*File, error) {
	f := c.graph.File(path)
	if f == nil {
		if optional {
			return nil, nil
		}
		return nil, fmt.Errorf("file %s: %w", path, ErrNotFound)
	}
	return &File{c: c, src: f}, nil
}

// Files returns every file in the graph, ordered by path.
func (c *Codebase) Files() []*File {
	paths := c.graph.Paths()
	out := make([]*File, 0, len(paths))
	for _, p := range paths {
		out = append(out, &File{c: c, src: c.graph.File(p)})
	}
	return out
}

// GetDirectory returns a view over the files under a repo-relative
// directory path.
func (c *Codebase) GetDirectory(dir string, optional bool) (*Directory, error) {
	dir = strings.Trim(path.Clean(dir), "/")
	d := &Directory{c: c, path: dir}
	if len(d.filePaths()) == 0 {
		if optional {
			return nil, nil
		}
		return nil, fmt.Errorf("directory %s: %w", dir, ErrNotFound)
	}
	return d, nil
}

// GetSymbols returns every symbol with the given name, sorted by file
// path then position.
func (c *Codebase) GetSymbols(name string) ([]*Symbol, error) {
	rows, err := c.graph.Store().SymbolsByName(name)
	if err != nil {
		return nil, err
	}
	out := make([]*Symbol, 0, len(rows))
	for _, row := range rows {
		out = append(out, &Symbol{c: c, row: row})
	}
	return out, nil
}

// GetSymbol is the single-result lookup. No match is ErrNotFound
// unless optional; more than one match is ErrAmbiguous, pushing
// disambiguation to GetSymbols.
func (c *Codebase) GetSymbol(name string, optional bool) (*Symbol, error) {
	return c.getSymbolKind(name, "", optional)
}

// GetClass looks up a single class by name.
func (c *Codebase) GetClass(name string, optional bool) (*Symbol, error) {
	return c.getSymbolKind(name, "class", optional)
}

// GetFunction looks up a single function by name.
func (c *Codebase) GetFunction(name string, optional bool) (*Symbol, error) {
	return c.getSymbolKind(name, "function", optional)
}

func (c *Codebase) getSymbolKind(name, kind string, optional bool) (*Symbol, error) {
	all, err := c.GetSymbols(name)
	if err != nil {
		return nil, err
	}
	var matches []*Symbol
	for _, s := range all {
		if s.row.IsImport() {
			continue
		}
		if kind != "" && s.row.Kind != kind {
			continue
		}
		matches = append(matches, s)
	}
	switch len(matches) {
	case 0:
		if optional {
			return nil, nil
		}
		return nil, fmt.Errorf("symbol %s: %w", name, ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("symbol %s has %d definitions: %w", name, len(matches), ErrAmbiguous)
	}
}

// HasSymbol reports whether any declaration with the name exists.
func (c *Codebase) HasSymbol(name string) bool {
	s, err := c.GetSymbol(name, true)
	if err != nil {
		// Ambiguous still means present.
		return true
	}
	return s != nil
}

// Symbols returns every non-import declaration in the graph.
func (c *Codebase) Symbols() ([]*Symbol, error) {
	return c.symbolsOfKind("")
}

// Functions returns every function declaration in the graph.
func (c *Codebase) Functions() ([]*Symbol, error) {
	return c.symbolsOfKind("function")
}

// Classes returns every class declaration in the graph.
func (c *Codebase) Classes() ([]*Symbol, error) {
	return c.symbolsOfKind("class")
}

func (c *Codebase) symbolsOfKind(kind string) ([]*Symbol, error) {
	var out []*Symbol
	for _, p := range c.graph.Paths() {
		f, err := c.GetFile(p, false)
		if err != nil {
			return nil, err
		}
		syms, err := f.Symbols()
		if err != nil {
			return nil, err
		}
		for _, s := range syms {
			if s.row.IsImport() {
				continue
			}
			if kind != "" && s.row.Kind != kind {
				continue
			}
			out = append(out, s)
		}
	}
	return out, nil
}

// Find performs literal search across every file in the graph. With
// exact, hits must be whole tokens.
func (c *Codebase) Find(needles []string, exact bool) []SearchMatch {
	var out []SearchMatch
	for _, p := range c.graph.Paths() {
		f := c.graph.File(p)
		for _, m := range f.Find(needles, exact) {
			out = append(out, searchMatch(f, m))
		}
	}
	return out
}

// Search performs regex search across every file in the graph,
// optionally excluding matches inside string or comment spans.
func (c *Codebase) Search(pattern string, includeStrings, includeComments bool) ([]SearchMatch, error) {
	var out []SearchMatch
	for _, p := range c.graph.Paths() {
		f := c.graph.File(p)
		matches, err := f.Search(pattern, includeStrings, includeComments)
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			out = append(out, searchMatch(f, m))
		}
	}
	return out, nil
}

func searchMatch(f *tree.SourceFile, m tree.Match) SearchMatch {
	return SearchMatch{
		Path: f.Path,
		Span: m.Span,
		Text: m.Text,
		Line: f.Buf.PositionFor(m.Span.Start).Line,
	}
}

// Checkout switches the working tree to another commit or branch. On
// success the graph is fully invalidated and rebuilt, and any staged
// transactions are discarded.
func (c *Codebase) Checkout(ctx context.Context, ref string, createIfMissing bool, remote string) (*CheckoutResult, error) {
	res, err := c.repo.Checkout(ctx, ref, createIfMissing, remote)
	if err != nil {
		return nil, err
	}
	if res.Status != CheckoutSuccess {
		return res, nil
	}
	c.session.Discard()
	c.created = make(map[string]bool)
	c.deleted = make(map[string]bool)
	if err := c.graph.Reset(); err != nil {
		return res, err
	}
	if err := c.sync(ctx); err != nil {
		return res, err
	}
	return res, nil
}

// CommitToGit stages every working-tree change and records a git
// commit. The graph is unaffected.
func (c *Codebase) CommitToGit(ctx context.Context, message string) error {
	return c.repo.CommitAll(ctx, message)
}

// Refresh re-reads one path from disk and updates the graph: changed
// files are reparsed, vanished files are dropped.
func (c *Codebase) Refresh(ctx context.Context, path string) error {
	src, err := os.ReadFile(c.absPath(path))
	if os.IsNotExist(err) {
		if c.graph.File(path) == nil {
			return nil
		}
		return c.graph.RemoveFile(path)
	}
	if err != nil {
		return fmt.Errorf("refresh %s: %w", path, err)
	}
	if !lang.Supported(path) {
		return nil
	}
	return c.graph.UpdateFile(ctx, path, src)
}

// CreateFile adds a new file to the graph. The file reaches disk at
// the next commit.
func (c *Codebase) CreateFile(ctx context.Context, path string, content string) (*File, error) {
	if c.graph.File(path) != nil {
		return nil, fmt.Errorf("create %s: file already in graph", path)
	}
	if !lang.Supported(path) {
		return nil, fmt.Errorf("create %s: unsupported file type", path)
	}
	if err := c.graph.AddFile(ctx, path, []byte(content)); err != nil {
		return nil, err
	}
	delete(c.deleted, path)
	c.created[path] = true
	return c.GetFile(path, false)
}

// DeleteFile removes a file from the graph. The on-disk file is
// removed at the next commit. Imports that resolved into the file
// resolve to the external marker afterwards.
func (c *Codebase) DeleteFile(path string) error {
	if c.graph.File(path) == nil {
		return fmt.Errorf("delete %s: %w", path, ErrNotFound)
	}
	if err := c.graph.RemoveFile(path); err != nil {
		return err
	}
	if c.created[path] {
		delete(c.created, path)
	} else {
		c.deleted[path] = true
	}
	return nil
}

// RenameFile moves a file to a new path and stages rewrites of every
// import specifier that resolved into it.
func (c *Codebase) RenameFile(ctx context.Context, oldPath, newPath string) error {
	f := c.graph.File(oldPath)
	if f == nil {
		return fmt.Errorf("rename %s: %w", oldPath, ErrNotFound)
	}
	if c.graph.File(newPath) != nil {
		return fmt.Errorf("rename %s: %s already in graph", oldPath, newPath)
	}

	if err := c.stageImportRewrites(oldPath, newPath, 0); err != nil {
		return err
	}

	content := string(f.Buf.Bytes())
	if _, err := c.CreateFile(ctx, newPath, content); err != nil {
		return err
	}
	return c.DeleteFile(oldPath)
}

// stageImportRewrites stages one module-specifier edit for every
// import in the graph that resolves into oldPath, pointing it at
// newPath instead.
func (c *Codebase) stageImportRewrites(oldPath, newPath string, priority int) error {
	st := c.graph.Store()
	old, err := st.FileByPath(oldPath)
	if err != nil {
		return err
	}
	if old == nil {
		return nil
	}
	files, err := st.Files()
	if err != nil {
		return err
	}
	for _, f := range files {
		if f.ID == old.ID {
			continue
		}
		imports, err := st.ImportsByFile(f.ID)
		if err != nil {
			return err
		}
		for _, imp := range imports {
			res, err := c.graph.ResolveImport(imp)
			if err != nil {
				return err
			}
			targets := res.File != nil && res.File.ID == old.ID
			if !targets && res.Symbol != nil {
				targets = res.Symbol.FileID == old.ID
			}
			if !targets || imp.ModuleSpan.Empty() {
				continue
			}
			c.session.Stage(Transaction{
				Path:     f.Path,
				Op:       OpEdit,
				Span:     imp.ModuleSpan,
				Text:     moduleSpecifier(f.Language, f.Path, newPath),
				Priority: priority,
			})
		}
	}
	return nil
}

// moduleSpecifier renders the module path one file uses to import
// another, in the importing file's language.
func moduleSpecifier(language, fromPath, targetPath string) string {
	spec, ok := lang.ForName(language)
	if !ok || spec.ModuleName == nil {
		return targetPath
	}
	switch language {
	case lang.JavaScript, lang.TypeScript:
		rel, err := filepath.Rel(path.Dir(fromPath), targetPath)
		if err != nil {
			return spec.ModuleName(targetPath)
		}
		rel = filepath.ToSlash(rel)
		rel = strings.TrimSuffix(rel, path.Ext(rel))
		if !strings.HasPrefix(rel, ".") {
			rel = "./" + rel
		}
		return rel
	default:
		return spec.ModuleName(targetPath)
	}
}
