package graft

import (
	"sort"
	"strings"
)

// Directory is a read-only aggregation over the files under one
// repo-relative directory path. It has no lifecycle of its own.
type Directory struct {
	c    *Codebase
	path string
}

func (d *Directory) Path() string {
	return d.path
}

func (d *Directory) contains(p string) bool {
	if d.path == "" || d.path == "." {
		return true
	}
	return p == d.path || strings.HasPrefix(p, d.path+"/")
}

func (d *Directory) filePaths() []string {
	var out []string
	for _, p := range d.c.graph.Paths() {
		if d.contains(p) {
			out = append(out, p)
		}
	}
	return out
}

// Files returns the files under the directory, ordered by path.
func (d *Directory) Files() []*File {
	var out []*File
	for _, p := range d.filePaths() {
		out = append(out, &File{c: d.c, src: d.c.graph.File(p)})
	}
	return out
}

// GetFile returns the directory's file with the given base name.
func (d *Directory) GetFile(name string, optional bool) (*File, error) {
	p := name
	if d.path != "" && d.path != "." {
		p = d.path + "/" + name
	}
	return d.c.GetFile(p, optional)
}

// Subdirectories returns the immediate child directories that contain
// at least one indexed file.
func (d *Directory) Subdirectories() []string {
	prefix := ""
	if d.path != "" && d.path != "." {
		prefix = d.path + "/"
	}
	seen := make(map[string]bool)
	var out []string
	for _, p := range d.filePaths() {
		rest := strings.TrimPrefix(p, prefix)
		idx := strings.IndexByte(rest, '/')
		if idx < 0 {
			continue
		}
		child := prefix + rest[:idx]
		if !seen[child] {
			seen[child] = true
			out = append(out, child)
		}
	}
	sort.Strings(out)
	return out
}

// Symbols returns every declaration in files under the directory,
// ordered by path then position.
func (d *Directory) Symbols() ([]*Symbol, error) {
	var out []*Symbol
	for _, f := range d.Files() {
		syms, err := f.Symbols()
		if err != nil {
			return nil, err
		}
		out = append(out, syms...)
	}
	return out, nil
}

// Imports returns every import in files under the directory, ordered
// by path then position.
func (d *Directory) Imports() ([]*Import, error) {
	var out []*Import
	for _, f := range d.Files() {
		imps, err := f.Imports()
		if err != nil {
			return nil, err
		}
		out = append(out, imps...)
	}
	return out, nil
}

// Functions returns the function declarations under the directory.
func (d *Directory) Functions() ([]*Symbol, error) {
	return d.symbolsOfKind("function")
}

// Classes returns the class declarations under the directory.
func (d *Directory) Classes() ([]*Symbol, error) {
	return d.symbolsOfKind("class")
}

func (d *Directory) symbolsOfKind(kind string) ([]*Symbol, error) {
	all, err := d.Symbols()
	if err != nil {
		return nil, err
	}
	var out []*Symbol
	for _, s := range all {
		if s.row.Kind == kind {
			out = append(out, s)
		}
	}
	return out, nil
}
