// Package vfsys implements the sandboxed virtual filesystem commands run
// against: path containment against the sandbox root, glob expansion with
// brace groups, and specificity-scored permission rules (read-write,
// read-only, excluded). It never touches the host filesystem directly —
// reads come from a caller-supplied fs.FS, writes land in an in-memory
// overlay.
package vfsys

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/moby/patternmatcher"
)

// Permission is the access level a rule grants over a path.
type Permission int

const (
	Excluded Permission = iota
	ReadOnly
	ReadWrite
)

func (p Permission) String() string {
	switch p {
	case Excluded:
		return "excluded"
	case ReadOnly:
		return "read-only"
	case ReadWrite:
		return "read-write"
	default:
		return fmt.Sprintf("Permission(%d)", int(p))
	}
}

// Rule grants Permission to every path matching Pattern. When multiple
// rules match the same path, the most specific one wins (see specificityOf).
type Rule struct {
	Pattern    string
	Permission Permission
}

type compiledRule struct {
	pattern     string
	matcher     *patternmatcher.PatternMatcher
	permission  Permission
	specificity int
}

// ErrPathEscapesRoot is the sentinel wrapped by PathError when a path's
// ".." segments would walk above the sandbox root.
var ErrPathEscapesRoot = errors.New("path escapes sandbox root")

// PathError reports a failure resolving or reading a virtual path.
type PathError struct {
	Op   string
	Path string
	Err  error
}

func (e *PathError) Error() string { return fmt.Sprintf("vfsys: %s %s: %v", e.Op, e.Path, e.Err) }
func (e *PathError) Unwrap() error { return e.Err }

// PermissionError reports an operation denied by the active permission
// rules.
type PermissionError struct {
	Op         string
	Path       string
	Permission Permission
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("vfsys: %s denied on %s (permission=%s)", e.Op, e.Path, e.Permission)
}

type store struct {
	mu     sync.RWMutex
	writes map[string][]byte
}

// FS is a sandboxed view over a read-only root filesystem plus an
// in-memory write overlay, gated by permission rules.
type FS struct {
	root              fs.FS
	cwd               string
	rules             []compiledRule
	defaultPermission Permission
	store             *store
}

// New builds an FS rooted at root, with cwd as the initial working
// directory (an absolute virtual path) and defaultPermission applied to any
// path no rule matches.
func New(root fs.FS, cwd string, defaultPermission Permission, rules []Rule) (*FS, error) {
	compiled, err := compileRules(rules)
	if err != nil {
		return nil, err
	}
	if cwd == "" {
		cwd = "/"
	}
	return &FS{
		root:              root,
		cwd:               path.Clean("/" + strings.TrimPrefix(cwd, "/")),
		rules:             compiled,
		defaultPermission: defaultPermission,
		store:             &store{writes: make(map[string][]byte)},
	}, nil
}

func compileRules(rules []Rule) ([]compiledRule, error) {
	out := make([]compiledRule, 0, len(rules))
	for _, r := range rules {
		pm, err := patternmatcher.New([]string{strings.TrimPrefix(r.Pattern, "/")})
		if err != nil {
			return nil, fmt.Errorf("vfsys: compiling rule %q: %w", r.Pattern, err)
		}
		out = append(out, compiledRule{
			pattern:     r.Pattern,
			matcher:     pm,
			permission:  r.Permission,
			specificity: specificityOf(r.Pattern),
		})
	}
	return out, nil
}

// specificityOf scores a pattern so the most specific matching rule wins:
// segment count dominates (more segments is always more specific), and
// within that, each segment contributes a bonus — 10 for a literal
// segment, 1 for a wildcard segment that isn't a bare "**", 0 for "**" —
// so "/src/secret/*" outranks "/src/**" and both outrank "/**".
func specificityOf(pattern string) int {
	segments := strings.Split(strings.Trim(pattern, "/"), "/")
	score := len(segments) * 1000
	for _, seg := range segments {
		switch {
		case seg == "**":
		case strings.ContainsAny(seg, "*?["):
			score += 1
		default:
			score += 10
		}
	}
	return score
}

// Cwd returns the current virtual working directory.
func (f *FS) Cwd() string { return f.cwd }

// Chdir returns a new FS (sharing the same root and write overlay) with its
// working directory changed to p.
func (f *FS) Chdir(p string) (*FS, error) {
	resolved, err := f.Resolve(p)
	if err != nil {
		return nil, err
	}
	clone := *f
	clone.cwd = resolved
	return &clone, nil
}

// Resolve cleans p against the current working directory, rejecting any
// ".." that would walk above the sandbox root.
func (f *FS) Resolve(p string) (string, error) {
	var segments []string
	if path.IsAbs(p) {
		segments = strings.Split(p, "/")
	} else {
		segments = append(strings.Split(f.cwd, "/"), strings.Split(p, "/")...)
	}

	var stack []string
	for _, seg := range segments {
		switch seg {
		case "", ".":
			continue
		case "..":
			if len(stack) == 0 {
				return "", &PathError{Op: "resolve", Path: p, Err: ErrPathEscapesRoot}
			}
			stack = stack[:len(stack)-1]
		default:
			stack = append(stack, seg)
		}
	}
	return "/" + strings.Join(stack, "/"), nil
}

// Permission reports the access level granted to virtualPath: the
// permission of the highest-specificity matching rule, or the FS's default
// if none match.
func (f *FS) Permission(virtualPath string) Permission {
	best := f.defaultPermission
	bestSpecificity := -1
	rel := strings.TrimPrefix(virtualPath, "/")
	for _, r := range f.rules {
		ok, err := r.matcher.Matches(rel)
		if err != nil || !ok {
			continue
		}
		if r.specificity > bestSpecificity {
			bestSpecificity = r.specificity
			best = r.permission
		}
	}
	return best
}

// ReadFile reads virtualPath, preferring the write overlay over the root
// filesystem, denying the read if the path is Excluded.
func (f *FS) ReadFile(virtualPath string) ([]byte, error) {
	resolved, err := f.Resolve(virtualPath)
	if err != nil {
		return nil, err
	}
	if p := f.Permission(resolved); p == Excluded {
		return nil, &PermissionError{Op: "read", Path: resolved, Permission: p}
	}

	f.store.mu.RLock()
	if data, ok := f.store.writes[resolved]; ok {
		f.store.mu.RUnlock()
		return data, nil
	}
	f.store.mu.RUnlock()

	data, err := fs.ReadFile(f.root, strings.TrimPrefix(resolved, "/"))
	if err != nil {
		return nil, &PathError{Op: "read", Path: resolved, Err: err}
	}
	return data, nil
}

// WriteFile writes (or, with append=true, appends to) virtualPath in the
// write overlay. Requires ReadWrite permission.
func (f *FS) WriteFile(virtualPath string, data []byte, appendMode bool) error {
	resolved, err := f.Resolve(virtualPath)
	if err != nil {
		return err
	}
	if p := f.Permission(resolved); p != ReadWrite {
		return &PermissionError{Op: "write", Path: resolved, Permission: p}
	}

	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	if appendMode {
		existing := f.store.writes[resolved]
		buf := make([]byte, len(existing), len(existing)+len(data))
		copy(buf, existing)
		f.store.writes[resolved] = append(buf, data...)
		return nil
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	f.store.writes[resolved] = buf
	return nil
}

// Glob expands brace groups in pattern and returns every matching,
// non-excluded path under root or the write overlay, sorted.
func (f *FS) Glob(pattern string) ([]string, error) {
	resolved, err := f.Resolve(pattern)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var matches []string
	for _, expanded := range expandBraces(resolved) {
		pm, err := patternmatcher.New([]string{strings.TrimPrefix(expanded, "/")})
		if err != nil {
			return nil, fmt.Errorf("vfsys: glob pattern %q: %w", expanded, err)
		}
		for _, candidate := range f.allPaths() {
			if seen[candidate] {
				continue
			}
			ok, err := pm.Matches(strings.TrimPrefix(candidate, "/"))
			if err != nil {
				return nil, err
			}
			if ok && f.Permission(candidate) != Excluded {
				seen[candidate] = true
				matches = append(matches, candidate)
			}
		}
	}
	sort.Strings(matches)
	return matches, nil
}

func (f *FS) allPaths() []string {
	var out []string
	_ = fs.WalkDir(f.root, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d == nil || d.IsDir() {
			return nil
		}
		out = append(out, "/"+p)
		return nil
	})

	f.store.mu.RLock()
	for p := range f.store.writes {
		out = append(out, p)
	}
	f.store.mu.RUnlock()
	return out
}

// expandBraces expands the first (and, recursively, every) top-level
// {a,b,c} group in pattern into the full cross-product of literal
// alternatives.
func expandBraces(pattern string) []string {
	start := strings.IndexByte(pattern, '{')
	if start < 0 {
		return []string{pattern}
	}
	end := matchingBrace(pattern, start)
	if end < 0 {
		return []string{pattern}
	}

	prefix := pattern[:start]
	inner := pattern[start+1 : end]
	suffix := pattern[end+1:]

	var out []string
	for _, opt := range splitTopLevelCommas(inner) {
		out = append(out, expandBraces(prefix+opt+suffix)...)
	}
	return out
}

func matchingBrace(s string, start int) int {
	depth := 0
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func splitTopLevelCommas(s string) []string {
	var parts []string
	depth := 0
	last := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, s[last:i])
				last = i + 1
			}
		}
	}
	parts = append(parts, s[last:])
	return parts
}
