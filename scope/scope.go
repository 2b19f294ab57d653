// Package scope decides which paths belong to the workspace.
//
// A path is in scope when it lies under the workspace root and matches no
// ignore rule. Ignore rules come in two forms: glob patterns and compiled
// boolean expressions evaluated against a RuleEnv.
package scope

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"go.lsp.dev/uri"

	"github.com/scribe-ls/scribe/debug"
)

type Scope struct {
	root     string
	globs    []string
	programs []*vm.Program
}

// RuleEnv is the environment an ignore expression is evaluated against.
type RuleEnv struct {
	Path string `expr:"path"` // absolute path
	Rel  string `expr:"rel"`  // slash-separated path relative to the root
	Base string `expr:"base"` // final path element
	Ext  string `expr:"ext"`  // extension including the dot, if any
}

// New builds a Scope rooted at root. Expression rules are compiled once
// here; a rule that does not compile to a boolean is a configuration error.
func New(root string, globs, exprs []string) (*Scope, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("workspace root %q: %w", root, err)
	}
	s := &Scope{root: filepath.Clean(abs), globs: globs}
	for _, src := range exprs {
		prog, err := expr.Compile(src, expr.Env(RuleEnv{}), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("ignore expression %q: %w", src, err)
		}
		s.programs = append(s.programs, prog)
	}
	return s, nil
}

func (s *Scope) Root() string {
	return s.root
}

// FromURI resolves a document URI to a local path inside the workspace.
// ok is false for non-file URIs and for paths that Localize rejects.
func (s *Scope) FromURI(u uri.URI) (string, bool) {
	if !strings.HasPrefix(string(u), "file://") {
		if debug.Scope() {
			debug.Logf("scope: non-file uri %s", u)
		}
		return "", false
	}
	return s.Localize(u.Filename())
}

// Localize makes p absolute against the root and reports whether it is in
// scope: under the root and not ignored.
func (s *Scope) Localize(p string) (string, bool) {
	if !filepath.IsAbs(p) {
		p = filepath.Join(s.root, p)
	}
	p = filepath.Clean(p)
	if p != s.root && !strings.HasPrefix(p, s.root+string(filepath.Separator)) {
		if debug.Scope() {
			debug.Logf("scope: %s outside root %s", p, s.root)
		}
		return "", false
	}
	if s.Ignored(p) {
		if debug.Scope() {
			debug.Logf("scope: %s ignored", p)
		}
		return "", false
	}
	return p, true
}

// Ignored reports whether an absolute in-root path matches an ignore rule.
func (s *Scope) Ignored(p string) bool {
	rel, err := filepath.Rel(s.root, p)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	base := filepath.Base(p)
	for _, g := range s.globs {
		if matchGlob(g, rel, base) {
			return true
		}
	}
	if len(s.programs) == 0 {
		return false
	}
	env := RuleEnv{Path: p, Rel: rel, Base: base, Ext: filepath.Ext(p)}
	for _, prog := range s.programs {
		out, err := expr.Run(prog, env)
		if err != nil {
			if debug.Scope() {
				debug.Logf("scope: rule error on %s: %v", p, err)
			}
			continue
		}
		if b, ok := out.(bool); ok && b {
			return true
		}
	}
	return false
}

// matchGlob matches one glob rule. A rule containing a slash matches the
// root-relative path, and as a directory rule covers everything below it.
// A bare rule matches the base name or any single path segment.
func matchGlob(g, rel, base string) bool {
	if strings.Contains(g, "/") {
		g = strings.TrimSuffix(g, "/")
		if ok, _ := path.Match(g, rel); ok {
			return true
		}
		if ok, _ := path.Match(g, path.Dir(rel)); ok {
			return true
		}
		return strings.HasPrefix(rel, g+"/")
	}
	if ok, _ := path.Match(g, base); ok {
		return true
	}
	for _, seg := range strings.Split(rel, "/") {
		if ok, _ := path.Match(g, seg); ok {
			return true
		}
	}
	return false
}
