// Package index defines the convention index: lint/format rules mapping glob
// patterns to policy files, plus sync rule declarations.
package index

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/nazahex/rigra/internal/schema"
)

//go:embed schemas/index.schema.json
var indexSchema string

// Index is the top-level index document.
type Index struct {
	Rules []Rule     `toml:"rules"`
	Sync  []SyncRule `toml:"sync"`
}

// Rule maps document glob patterns to a policy file.
type Rule struct {
	ID       string   `toml:"id"`
	Patterns []string `toml:"patterns"`
	Policy   string   `toml:"policy"`
}

// SyncRule declares one template synchronization from source to target.
// Message and Level feed the drift issue lint emits when the target is
// behind; Format selects the structural merge path when set to "json".
type SyncRule struct {
	ID      string `toml:"id"`
	Source  string `toml:"source"`
	Target  string `toml:"target"`
	When    string `toml:"when"`
	Format  string `toml:"format"`
	Message string `toml:"message"`
	Level   string `toml:"level"`
}

// Load reads, validates, and decodes an index file.
func Load(path string) (*Index, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- index path comes from resolved configuration
	if err != nil {
		return nil, fmt.Errorf("read index: %w", err)
	}
	if err := schema.ValidateTOML(data, indexSchema); err != nil {
		return nil, fmt.Errorf("invalid index %s: %w", path, err)
	}
	var ix Index
	if err := toml.Unmarshal(data, &ix); err != nil {
		return nil, fmt.Errorf("parse index %s: %w", path, err)
	}
	return &ix, nil
}

// ScopeEnabled reports whether a rule's when predicate fires for scope.
// Empty, "*", "any", and "all" always fire; otherwise when is a comma or
// pipe separated token list matched case-insensitively.
func ScopeEnabled(when, scope string) bool {
	w := strings.TrimSpace(when)
	if w == "" || w == "*" || strings.EqualFold(w, "any") || strings.EqualFold(w, "all") {
		return true
	}
	for _, tok := range strings.FieldsFunc(w, func(r rune) bool { return r == ',' || r == '|' }) {
		tok = strings.TrimSpace(tok)
		if tok != "" && strings.EqualFold(tok, scope) {
			return true
		}
	}
	return false
}
