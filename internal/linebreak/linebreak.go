// Package linebreak restores blank-line placement in pretty-printed JSON.
//
// Pretty-printing from a parsed tree discards source formatting, so these
// passes work on the rendered text: one inserts or removes blank lines
// between top-level key groups, the other mirrors the blank lines that
// existed inside specific object fields in the original source. Both assume
// the fixed two-space, one-member-per-line shape document.EncodePretty
// produces.
package linebreak

import (
	"strings"

	"github.com/nazahex/rigra/internal/policy"
)

// lineKey extracts the quoted key that starts a trimmed line.
func lineKey(trimmed string) (string, bool) {
	if !strings.HasPrefix(trimmed, `"`) {
		return "", false
	}
	rest := trimmed[1:]
	end := strings.Index(rest, `"`)
	if end < 0 {
		return "", false
	}
	return rest[:end], true
}

// braceDelta counts opening minus closing braces on a line.
func braceDelta(trimmed string) int {
	delta := 0
	for _, ch := range trimmed {
		switch ch {
		case '{':
			delta++
		case '}':
			delta--
		}
	}
	return delta
}

// ApplyGroupBreaks adjusts blank lines before the first key of each
// top-level group. Only lines at object depth 1 are considered, and the
// first group encountered never gets a leading blank. A before_fields rule
// of none removes an existing blank; keep or no rule ensures exactly one.
func ApplyGroupBreaks(pretty string, groups [][]string, betweenGroups bool, fieldRules map[string]policy.Rule) string {
	if !betweenGroups || len(groups) == 0 {
		return pretty
	}

	groupFirstKeys := make(map[string]bool)
	for _, grp := range groups {
		if len(grp) > 0 {
			groupFirstKeys[grp[0]] = true
		}
	}

	var out []string
	seenFirst := false
	depth := 0 // top-level keys sit at depth 1
	for _, line := range strings.Split(pretty, "\n") {
		trimmed := strings.TrimLeft(line, " \t")
		if depth == 1 {
			if key, ok := lineKey(trimmed); ok && groupFirstKeys[key] {
				if seenFirst {
					if fieldRules[key] == policy.RuleNone {
						if len(out) > 0 && out[len(out)-1] == "" {
							out = out[:len(out)-1]
						}
					} else {
						// Ensure exactly one blank line before the group-first key.
						if len(out) > 0 {
							if out[len(out)-1] == "" {
								if len(out) >= 2 && out[len(out)-2] == "" {
									out = out[:len(out)-1]
								}
							} else {
								out = append(out, "")
							}
						}
					}
				} else {
					seenFirst = true
				}
			}
		}
		out = append(out, line)
		depth += braceDelta(trimmed)
	}
	return strings.Join(out, "\n")
}

// KeepMap scans the original, pre-normalization source and records, for each
// in_fields entry with rule keep, the direct children that had a blank line
// immediately before them. Depth is a running brace count while inside the
// named field; multi-brace lines are scanned character by character.
func KeepMap(original string, inFieldRules map[string]policy.Rule) map[string]map[string]bool {
	result := make(map[string]map[string]bool)
	targets := make(map[string]bool)
	for field, rule := range inFieldRules {
		if rule == policy.RuleKeep {
			targets[field] = true
		}
	}
	if len(targets) == 0 {
		return result
	}

	active := ""
	inField := false
	depth := 0
	prevBlank := false
	for _, line := range strings.Split(original, "\n") {
		trimmed := strings.TrimLeft(line, " \t")
		if !inField {
			if key, ok := lineKey(trimmed); ok && targets[key] && strings.Contains(trimmed, ": {") {
				active = key
				inField = true
				depth = 0
				prevBlank = false
			}
		}
		if inField {
			depth += braceDelta(trimmed)
			if depth == 1 && strings.HasPrefix(trimmed, `"`) && !strings.Contains(trimmed, `": {`) {
				if prevBlank {
					if child, ok := lineKey(trimmed); ok {
						if result[active] == nil {
							result[active] = make(map[string]bool)
						}
						result[active][child] = true
					}
				}
			}
			if depth <= 0 && strings.Contains(trimmed, "}") {
				inField = false
				active = ""
			}
		}
		prevBlank = trimmed == ""
	}
	return result
}

// ApplyInFieldBreaks enforces in_fields rules on the pretty text. For keep,
// a direct child gets exactly one leading blank line iff the original had
// one (per keepMap); for none, blanks between children are stripped. The
// first child of a field never gets a blank line.
func ApplyInFieldBreaks(pretty string, inFieldRules map[string]policy.Rule, keepMap map[string]map[string]bool) string {
	if len(inFieldRules) == 0 {
		return pretty
	}

	var out []string
	active := ""
	inField := false
	seenFirst := false
	depth := 0
	for _, line := range strings.Split(pretty, "\n") {
		trimmed := strings.TrimLeft(line, " \t")

		if !inField {
			if key, ok := lineKey(trimmed); ok && strings.Contains(trimmed, ": {") {
				if _, ruled := inFieldRules[key]; ruled {
					active = key
					inField = true
					seenFirst = false
					depth = 0
				}
			}
		}

		if inField {
			depth += braceDelta(trimmed)
			if depth == 1 && strings.HasPrefix(trimmed, `"`) && !strings.Contains(trimmed, `": {`) {
				if !seenFirst {
					seenFirst = true
					if len(out) > 0 && out[len(out)-1] == "" {
						out = out[:len(out)-1]
					}
				} else {
					rule := inFieldRules[active]
					shouldHaveBlank := false
					if rule == policy.RuleKeep {
						if child, ok := lineKey(trimmed); ok {
							shouldHaveBlank = keepMap[active][child]
						}
					}
					if shouldHaveBlank {
						if len(out) > 0 {
							if out[len(out)-1] == "" {
								if len(out) >= 2 && out[len(out)-2] == "" {
									out = out[:len(out)-1]
								}
							} else {
								out = append(out, "")
							}
						}
					} else {
						if len(out) > 0 && out[len(out)-1] == "" {
							out = out[:len(out)-1]
						}
					}
				}
			}
		}

		out = append(out, line)

		if inField && depth <= 0 && (trimmed == "}" || trimmed == "}," || strings.HasSuffix(trimmed, "}")) {
			inField = false
			active = ""
		}
	}
	return strings.Join(out, "\n")
}

// MergeFieldRules overlays config-supplied overrides ("keep" or anything
// else meaning none) on top of policy-declared field rules.
func MergeFieldRules(policyRules map[string]policy.Rule, overrides map[string]string) map[string]policy.Rule {
	out := make(map[string]policy.Rule, len(policyRules)+len(overrides))
	for k, v := range policyRules {
		out[k] = v
	}
	for k, v := range overrides {
		if v == "keep" {
			out[k] = policy.RuleKeep
		} else {
			out[k] = policy.RuleNone
		}
	}
	return out
}
