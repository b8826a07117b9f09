package discovery

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// IgnoreFileName is the certguard-specific ignore file read next to
// .gitignore.
const IgnoreFileName = ".certguardignore"

// LoadIgnorePatterns reads .gitignore and then .certguardignore from root.
// Missing files contribute no patterns. Blank lines and # comments are
// dropped.
func LoadIgnorePatterns(root string) ([]string, error) {
	var patterns []string
	for _, name := range []string{".gitignore", IgnoreFileName} {
		f, err := os.Open(filepath.Join(root, name))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			if line := strings.TrimSpace(scanner.Text()); line != "" && !strings.HasPrefix(line, "#") {
				patterns = append(patterns, line)
			}
		}
		err = scanner.Err()
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}
	}
	return patterns, nil
}

// ignoreRule is one compiled pattern.
type ignoreRule struct {
	glob     string
	negate   bool
	dirOnly  bool
	anchored bool // matched against the whole path, not a single segment
	fold     bool // certificate or key extension: matched case-insensitively
}

// Ignore is a compiled list of gitignore-style patterns. The last matching
// pattern wins.
type Ignore struct {
	rules []ignoreRule
}

// CompileIgnore compiles patterns: exact names ("expired"), wildcards
// ("*.old.pem"), directory-only patterns ("archive/"), root-anchored
// patterns ("/top.pem", "certs/tmp/") and "!" negations. Patterns whose
// extension is a certificate or key extension match regardless of case,
// the same way files are classified.
func CompileIgnore(patterns []string) *Ignore {
	ig := &Ignore{}
	for _, p := range patterns {
		r := ignoreRule{}
		p = filepath.ToSlash(p)
		if rest, ok := strings.CutPrefix(p, "!"); ok {
			r.negate, p = true, rest
		}
		if rest, ok := strings.CutSuffix(p, "/"); ok {
			r.dirOnly, p = true, rest
		}
		if rest, ok := strings.CutPrefix(p, "/"); ok {
			r.anchored, p = true, rest
		}
		if strings.Contains(p, "/") {
			r.anchored = true
		}
		if ext := strings.ToLower(path.Ext(p)); certificateExtensions[ext] || keyExtensions[ext] {
			r.fold, p = true, strings.ToLower(p)
		}
		if p == "" {
			continue
		}
		r.glob = p
		ig.rules = append(ig.rules, r)
	}
	return ig
}

// Match reports whether rel, a path relative to the walk root, is ignored.
// isDir tells directory-only patterns whether rel itself is a directory.
// Anything inside .git is always ignored.
func (ig *Ignore) Match(rel string, isDir bool) bool {
	rel = filepath.ToSlash(rel)
	parts := strings.Split(rel, "/")
	for _, p := range parts {
		if p == ".git" {
			return true
		}
	}
	if ig == nil {
		return false
	}

	ignored := false
	for _, r := range ig.rules {
		if r.matches(rel, parts, isDir) {
			ignored = !r.negate
		}
	}
	return ignored
}

func (r ignoreRule) matches(rel string, parts []string, isDir bool) bool {
	name := func(s string) string {
		if r.fold {
			return strings.ToLower(s)
		}
		return s
	}

	if r.anchored {
		if r.dirOnly {
			return strings.HasPrefix(rel, r.glob+"/") || (isDir && rel == r.glob)
		}
		ok, _ := path.Match(r.glob, name(rel))
		return ok
	}

	for i, part := range parts {
		ok, _ := path.Match(r.glob, name(part))
		if !ok {
			continue
		}
		// A directory-only pattern matches the last segment only when it
		// is a directory.
		if r.dirOnly && i == len(parts)-1 && !isDir {
			continue
		}
		return true
	}
	return false
}

// IsIgnored reports whether the file rel matches patterns. It compiles
// patterns on every call; walkers use CompileIgnore once instead.
func IsIgnored(rel string, patterns []string) bool {
	return CompileIgnore(patterns).Match(rel, false)
}
