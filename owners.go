package graft

import (
	"bufio"
	"os"
	"path/filepath"
	"sort"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"
)

// codeownersLocations are searched in order; the first file found is
// used, matching GitHub's lookup.
var codeownersLocations = []string{
	".github/CODEOWNERS",
	"CODEOWNERS",
	"docs/CODEOWNERS",
}

type ownerRule struct {
	pattern string
	matcher *gitignore.GitIgnore
	owners  []string
}

// CodeOwner is a read-only filter view over the file set: the files a
// CODEOWNERS entry assigns to one owner.
type CodeOwner struct {
	c     *Codebase
	owner string
}

func (o *CodeOwner) Name() string {
	return o.owner
}

// Files returns the files owned by this owner, ordered by path.
func (o *CodeOwner) Files() ([]*File, error) {
	rules, err := o.c.ownerRules()
	if err != nil {
		return nil, err
	}
	var out []*File
	for _, p := range o.c.graph.Paths() {
		for _, owner := range ownersFor(rules, p) {
			if owner == o.owner {
				out = append(out, &File{c: o.c, src: o.c.graph.File(p)})
				break
			}
		}
	}
	return out, nil
}

// CodeOwners returns a view per distinct owner mentioned in the
// CODEOWNERS file, sorted by name. No file means no owners.
func (c *Codebase) CodeOwners() ([]*CodeOwner, error) {
	rules, err := c.ownerRules()
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var names []string
	for _, r := range rules {
		for _, o := range r.owners {
			if !seen[o] {
				seen[o] = true
				names = append(names, o)
			}
		}
	}
	sort.Strings(names)
	out := make([]*CodeOwner, 0, len(names))
	for _, n := range names {
		out = append(out, &CodeOwner{c: c, owner: n})
	}
	return out, nil
}

// OwnersOf returns the owners of a repo-relative path. CODEOWNERS
// semantics: the last matching rule wins outright.
func (c *Codebase) OwnersOf(path string) ([]string, error) {
	rules, err := c.ownerRules()
	if err != nil {
		return nil, err
	}
	return ownersFor(rules, path), nil
}

func ownersFor(rules []ownerRule, path string) []string {
	var owners []string
	for _, r := range rules {
		if r.matcher.MatchesPath(path) {
			owners = r.owners
		}
	}
	return owners
}

func (c *Codebase) ownerRules() ([]ownerRule, error) {
	for _, loc := range codeownersLocations {
		f, err := os.Open(filepath.Join(c.root, filepath.FromSlash(loc)))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		defer f.Close()
		return parseCodeowners(f)
	}
	return nil, nil
}

func parseCodeowners(f *os.File) ([]ownerRule, error) {
	var rules []ownerRule
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		rules = append(rules, ownerRule{
			pattern: fields[0],
			matcher: gitignore.CompileIgnoreLines(fields[0]),
			owners:  fields[1:],
		})
	}
	return rules, scanner.Err()
}
