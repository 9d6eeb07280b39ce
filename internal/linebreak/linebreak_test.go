package linebreak

import (
	"strings"
	"testing"

	"github.com/nazahex/rigra/internal/policy"
)

const flat = `{
  "name": "demo",
  "version": "1.0.0",
  "scripts": {
    "build": "make",
    "test": "make test"
  },
  "dependencies": {
    "a": "1"
  }
}`

var groups = [][]string{{"name", "version"}, {"scripts"}, {"dependencies"}}

func TestApplyGroupBreaksInsertsBlankLines(t *testing.T) {
	got := ApplyGroupBreaks(flat, groups, true, nil)

	if !strings.Contains(got, "},\n\n  \"dependencies\"") {
		t.Errorf("no blank line before dependencies:\n%s", got)
	}
	if !strings.Contains(got, "\"version\": \"1.0.0\",\n\n  \"scripts\"") {
		t.Errorf("no blank line before scripts:\n%s", got)
	}
	if strings.HasPrefix(got, "{\n\n") {
		t.Errorf("blank line before the first group:\n%s", got)
	}
}

func TestApplyGroupBreaksIsIdempotent(t *testing.T) {
	once := ApplyGroupBreaks(flat, groups, true, nil)
	twice := ApplyGroupBreaks(once, groups, true, nil)
	if once != twice {
		t.Errorf("second pass changed output:\n%s\nvs\n%s", once, twice)
	}
}

func TestApplyGroupBreaksDisabled(t *testing.T) {
	if got := ApplyGroupBreaks(flat, groups, false, nil); got != flat {
		t.Errorf("between_groups=false still modified text:\n%s", got)
	}
	if got := ApplyGroupBreaks(flat, nil, true, nil); got != flat {
		t.Errorf("empty groups still modified text:\n%s", got)
	}
}

func TestApplyGroupBreaksNoneRuleRemovesBlank(t *testing.T) {
	spaced := ApplyGroupBreaks(flat, groups, true, nil)
	rules := map[string]policy.Rule{"dependencies": policy.RuleNone}

	got := ApplyGroupBreaks(spaced, groups, true, rules)
	if strings.Contains(got, "\n\n  \"dependencies\"") {
		t.Errorf("none rule left a blank line before dependencies:\n%s", got)
	}
	// scripts keeps its blank
	if !strings.Contains(got, "\n\n  \"scripts\"") {
		t.Errorf("blank before scripts was lost:\n%s", got)
	}
}

func TestApplyGroupBreaksCollapsesDoubles(t *testing.T) {
	doubled := strings.Replace(flat, "  \"scripts\"", "\n  \"scripts\"", 1)
	got := ApplyGroupBreaks(doubled, groups, true, nil)
	if strings.Contains(got, "\n\n\n") {
		t.Errorf("double blank survived:\n%s", got)
	}
}

func TestApplyGroupBreaksIgnoresNestedKeys(t *testing.T) {
	// "scripts" also appears as a nested key; only depth 1 counts.
	src := `{
  "name": "demo",
  "wrap": {
    "scripts": "inner"
  },
  "scripts": {
    "build": "make"
  }
}`
	got := ApplyGroupBreaks(src, [][]string{{"name"}, {"scripts"}}, true, nil)
	if strings.Contains(got, "\n\n    \"scripts\"") {
		t.Errorf("nested scripts key got a blank line:\n%s", got)
	}
	if !strings.Contains(got, "\n\n  \"scripts\"") {
		t.Errorf("top-level scripts key did not get a blank line:\n%s", got)
	}
}

const withInFieldBlank = `{
  "name": "demo",
  "scripts": {
    "build": "make",

    "test": "make test"
  }
}`

func TestKeepMapRecordsOriginalBlanks(t *testing.T) {
	rules := map[string]policy.Rule{"scripts": policy.RuleKeep}
	km := KeepMap(withInFieldBlank, rules)

	if !km["scripts"]["test"] {
		t.Errorf("blank before scripts.test not recorded: %v", km)
	}
	if km["scripts"]["build"] {
		t.Errorf("scripts.build recorded without a preceding blank: %v", km)
	}
}

func TestKeepMapIgnoresNoneFields(t *testing.T) {
	km := KeepMap(withInFieldBlank, map[string]policy.Rule{"scripts": policy.RuleNone})
	if len(km) != 0 {
		t.Errorf("none-ruled field produced entries: %v", km)
	}
}

func TestApplyInFieldBreaksRestoresBlanks(t *testing.T) {
	rules := map[string]policy.Rule{"scripts": policy.RuleKeep}
	km := KeepMap(withInFieldBlank, rules)

	flat := strings.ReplaceAll(withInFieldBlank, "\"make\",\n\n", "\"make\",\n")
	got := ApplyInFieldBreaks(flat, rules, km)
	if got != withInFieldBlank {
		t.Errorf("blank not restored:\ngot:\n%s\nwant:\n%s", got, withInFieldBlank)
	}
}

func TestApplyInFieldBreaksNoneStripsBlanks(t *testing.T) {
	rules := map[string]policy.Rule{"scripts": policy.RuleNone}
	got := ApplyInFieldBreaks(withInFieldBlank, rules, nil)
	if strings.Contains(got, "\n\n") {
		t.Errorf("blank survived a none rule:\n%s", got)
	}
}

func TestApplyInFieldBreaksFirstChildNeverBlank(t *testing.T) {
	src := `{
  "scripts": {

    "build": "make"
  }
}`
	rules := map[string]policy.Rule{"scripts": policy.RuleKeep}
	km := map[string]map[string]bool{"scripts": {"build": true}}
	got := ApplyInFieldBreaks(src, rules, km)
	if strings.Contains(got, "{\n\n") {
		t.Errorf("first child kept a leading blank:\n%s", got)
	}
}

func TestMergeFieldRules(t *testing.T) {
	base := map[string]policy.Rule{"a": policy.RuleKeep, "b": policy.RuleNone}
	overrides := map[string]string{"b": "keep", "c": "none", "d": "bogus"}

	got := MergeFieldRules(base, overrides)
	want := map[string]policy.Rule{
		"a": policy.RuleKeep,
		"b": policy.RuleKeep,
		"c": policy.RuleNone,
		"d": policy.RuleNone,
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("rule[%s] = %q, want %q", k, got[k], v)
		}
	}
}
