// Package lang maps files to tree-sitter grammars and carries the small
// per-language strategy values the rest of the engine dispatches on:
// span classification for search filtering, module-path resolution rules,
// and import rendering for rewrites.
package lang

import (
	"path/filepath"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	ts "github.com/smacker/go-tree-sitter/typescript/typescript"
)

// Language names are canonical strings used throughout the engine.
const (
	Go         = "go"
	Python     = "python"
	JavaScript = "javascript"
	TypeScript = "typescript"
)

// extToLanguage maps file extensions to canonical language names.
var extToLanguage = map[string]string{
	".go":  Go,
	".py":  Python,
	".js":  JavaScript,
	".jsx": JavaScript,
	".mjs": JavaScript,
	".ts":  TypeScript,
	".tsx": TypeScript,
}

var (
	specs     map[string]*Spec
	specsOnce sync.Once
)

// Spec is the per-language strategy: everything outside the shared CST
// walking that differs between grammars.
type Spec struct {
	Name    string
	Grammar *sitter.Language

	// CST node types classified as comments or string literals, used by
	// Search to filter matches by span classification.
	CommentTypes map[string]bool
	StringTypes  map[string]bool

	// ModuleName converts a repository-relative file path to the module
	// string an import statement would use to reach it.
	ModuleName func(relPath string) string

	// CandidatePaths lists repository-relative file paths that could back
	// the given module string when imported from fromDir. Nil for
	// languages whose imports never name a single file; when no candidate
	// matches, resolution falls through to MatchDir.
	CandidatePaths func(module, fromDir string) []string

	// MatchDir reports whether a repository-relative directory backs the
	// given module string (package-directory imports).
	MatchDir func(module, dir string) bool

	// RenderImport produces source text importing name (optionally aliased)
	// from module; name "" renders a module-level import.
	RenderImport func(module, name, alias string) string
}

func initSpecs() {
	specsOnce.Do(func() {
		specs = map[string]*Spec{
			Go:         goSpec(),
			Python:     pythonSpec(),
			JavaScript: javascriptSpec(),
			TypeScript: typescriptSpec(),
		}
	})
}

// ForFile returns the Spec for a file path based on its extension.
func ForFile(path string) (*Spec, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	name, ok := extToLanguage[ext]
	if !ok {
		return nil, false
	}
	return ForName(name)
}

// ForName returns the Spec for a canonical language name.
func ForName(name string) (*Spec, bool) {
	initSpecs()
	s, ok := specs[name]
	return s, ok
}

// Supported reports whether the path has a recognized source extension.
func Supported(path string) bool {
	_, ok := extToLanguage[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Names returns all supported canonical language names.
func Names() []string {
	return []string{Go, Python, JavaScript, TypeScript}
}

func goSpec() *Spec {
	return &Spec{
		Name:         Go,
		Grammar:      golang.GetLanguage(),
		CommentTypes: map[string]bool{"comment": true},
		StringTypes: map[string]bool{
			"interpreted_string_literal": true,
			"raw_string_literal":         true,
			"rune_literal":               true,
		},
		ModuleName: func(relPath string) string {
			return filepath.ToSlash(filepath.Dir(relPath))
		},
		// Go imports name package directories, never files, so there is
		// no CandidatePaths; resolution goes straight to MatchDir.
		MatchDir: func(module, dir string) bool {
			if dir == "." || dir == "" {
				return false
			}
			dir = filepath.ToSlash(dir)
			return module == dir || strings.HasSuffix(module, "/"+dir)
		},
		RenderImport: func(module, name, alias string) string {
			if alias != "" {
				return "import " + alias + " \"" + module + "\""
			}
			return "import \"" + module + "\""
		},
	}
}

func pythonSpec() *Spec {
	return &Spec{
		Name:         Python,
		Grammar:      python.GetLanguage(),
		CommentTypes: map[string]bool{"comment": true},
		StringTypes: map[string]bool{
			"string":              true,
			"string_start":        true,
			"string_content":      true,
			"string_end":          true,
			"escape_sequence":     true,
			"concatenated_string": true,
		},
		ModuleName: func(relPath string) string {
			p := strings.TrimSuffix(filepath.ToSlash(relPath), ".py")
			p = strings.TrimSuffix(p, "/__init__")
			return strings.ReplaceAll(p, "/", ".")
		},
		CandidatePaths: pythonCandidates,
		MatchDir: func(module, dir string) bool {
			return strings.ReplaceAll(filepath.ToSlash(dir), "/", ".") == strings.TrimLeft(module, ".")
		},
		RenderImport: func(module, name, alias string) string {
			if name == "" {
				if alias != "" {
					return "import " + module + " as " + alias
				}
				return "import " + module
			}
			if alias != "" {
				return "from " + module + " import " + name + " as " + alias
			}
			return "from " + module + " import " + name
		},
	}
}

// pythonCandidates maps a python module string to candidate source paths.
// Relative modules (leading dots) resolve against fromDir; absolute ones
// against both the repository root and fromDir.
func pythonCandidates(module, fromDir string) []string {
	base := ""
	rest := module
	if strings.HasPrefix(module, ".") {
		dots := 0
		for dots < len(module) && module[dots] == '.' {
			dots++
		}
		rest = module[dots:]
		base = fromDir
		for i := 1; i < dots; i++ {
			base = filepath.ToSlash(filepath.Dir(base))
		}
	}
	relPath := strings.ReplaceAll(rest, ".", "/")

	var roots []string
	if base != "" {
		roots = []string{base}
	} else {
		roots = []string{"", fromDir}
	}

	var out []string
	for _, root := range roots {
		p := relPath
		if root != "" && root != "." {
			p = filepath.ToSlash(filepath.Join(root, relPath))
		}
		if p == "" {
			continue
		}
		out = append(out, p+".py", p+"/__init__.py")
	}
	return out
}

func javascriptSpec() *Spec {
	s := &Spec{
		Name:         JavaScript,
		Grammar:      javascript.GetLanguage(),
		CommentTypes: map[string]bool{"comment": true},
		StringTypes: map[string]bool{
			"string":          true,
			"template_string": true,
			"string_fragment": true,
			"escape_sequence": true,
		},
		ModuleName: func(relPath string) string {
			p := filepath.ToSlash(relPath)
			for _, ext := range []string{".js", ".jsx", ".mjs", ".ts", ".tsx"} {
				if strings.HasSuffix(p, ext) {
					p = strings.TrimSuffix(p, ext)
					break
				}
			}
			return "./" + p
		},
		CandidatePaths: scriptCandidates,
		MatchDir: func(module, dir string) bool {
			return false // js module imports point at files, not directories
		},
		RenderImport: func(module, name, alias string) string {
			switch {
			case name == "" && alias == "":
				return "import '" + module + "';"
			case name == "":
				return "import * as " + alias + " from '" + module + "';"
			case alias != "":
				return "import { " + name + " as " + alias + " } from '" + module + "';"
			default:
				return "import { " + name + " } from '" + module + "';"
			}
		},
	}
	return s
}

func typescriptSpec() *Spec {
	s := javascriptSpec()
	s.Name = TypeScript
	s.Grammar = ts.GetLanguage()
	return s
}

// scriptCandidates resolves a JS/TS module specifier. Only relative
// specifiers can live inside the file set; bare specifiers are external.
func scriptCandidates(module, fromDir string) []string {
	if !strings.HasPrefix(module, "./") && !strings.HasPrefix(module, "../") {
		return nil
	}
	p := filepath.ToSlash(filepath.Join(fromDir, module))
	exts := []string{"", ".ts", ".tsx", ".js", ".jsx", ".mjs"}
	var out []string
	for _, ext := range exts {
		if ext == "" && filepath.Ext(p) == "" {
			continue
		}
		out = append(out, p+ext)
	}
	for _, ext := range []string{".ts", ".js"} {
		out = append(out, p+"/index"+ext)
	}
	return out
}
