// Package policy defines the TOML policy schema used by the lint and format
// passes: validation checks, key-order groups, and line-break rules.
package policy

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Rule is a line-break rule value: keep an existing blank line or force none.
type Rule string

const (
	RuleKeep Rule = "keep"
	RuleNone Rule = "none"
)

// Policy is the root document loaded from a TOML policy file.
type Policy struct {
	Checks    []Check        `toml:"checks"`
	Order     *OrderSpec     `toml:"order"`
	LineBreak *LineBreakSpec `toml:"linebreak"`
}

// OrderSpec declares top-level key groups, named sub-orders, and the lint
// message/level used when a document's key order does not conform.
type OrderSpec struct {
	Top     [][]string          `toml:"top"`
	Sub     map[string][]string `toml:"sub"`
	Message string              `toml:"message"`
	Level   string              `toml:"level"`
}

// LineBreakSpec controls blank lines between top-level groups and inside
// specific object fields.
type LineBreakSpec struct {
	BetweenGroups *bool           `toml:"between_groups"`
	BeforeFields  map[string]Rule `toml:"before_fields"`
	InFields      map[string]Rule `toml:"in_fields"`
}

// Check is one validation predicate. Kind selects which of the remaining
// fields apply; `fields` is a string list for required and a path→kind table
// for type, so it stays untyped until the evaluator narrows it.
type Check struct {
	Kind    string        `toml:"kind"`
	Field   string        `toml:"field"`
	Fields  interface{}   `toml:"fields"`
	Value   interface{}   `toml:"value"`
	Regex   string        `toml:"regex"`
	Values  []interface{} `toml:"values"`
	Min     int           `toml:"min"`
	Max     int           `toml:"max"`
	Message string        `toml:"message"`
	Level   string        `toml:"level"`
}

// FieldList narrows the untyped fields member for required checks.
func (c *Check) FieldList() []string {
	raw, ok := c.Fields.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, f := range raw {
		if s, ok := f.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// FieldKinds narrows the untyped fields member for type checks.
func (c *Check) FieldKinds() map[string]string {
	raw, ok := c.Fields.(map[string]interface{})
	if !ok {
		return nil
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}

// EffectiveLevel resolves a declared severity, defaulting to error.
func EffectiveLevel(level string) string {
	if level == "" {
		return "error"
	}
	return level
}

// Load reads, validates, and decodes a policy file.
func Load(path string) (*Policy, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- policy paths come from the index
	if err != nil {
		return nil, fmt.Errorf("read policy: %w", err)
	}
	if err := validatePolicy(data); err != nil {
		return nil, fmt.Errorf("invalid policy %s: %w", path, err)
	}
	var p Policy
	if err := toml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse policy %s: %w", path, err)
	}
	return &p, nil
}
