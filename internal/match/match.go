// Package match expands doublestar glob patterns against a repository root.
package match

import (
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/nazahex/rigra/pkg/logger"
)

// Files expands the patterns relative to root and returns the deduplicated,
// sorted root-relative matches with forward slashes. Bad patterns are
// logged and skipped.
func Files(root string, patterns []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, pat := range patterns {
		matches, err := doublestar.FilepathGlob(filepath.Join(root, filepath.FromSlash(pat)))
		if err != nil {
			logger.Warn("Bad glob pattern", logger.String("pattern", pat), logger.Err(err))
			continue
		}
		for _, m := range matches {
			rel, err := filepath.Rel(root, m)
			if err != nil {
				continue
			}
			rel = filepath.ToSlash(rel)
			if !seen[rel] {
				seen[rel] = true
				out = append(out, rel)
			}
		}
	}
	sort.Strings(out)
	return out
}

// RulePatterns picks the override patterns for a rule id when configured,
// falling back to the declared ones.
func RulePatterns(declared []string, overrides map[string][]string, id string) []string {
	if ov, ok := overrides[id]; ok && len(ov) > 0 {
		return ov
	}
	return declared
}
