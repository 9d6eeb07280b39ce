package policy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePolicy(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "policy.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writePolicy(t, `
[[checks]]
kind = "required"
fields = ["name", "version"]

[[checks]]
kind = "type"
level = "warning"
[checks.fields]
name = "string"
private = "boolean"

[[checks]]
kind = "const"
field = "license"
value = "MIT"
message = "Use MIT in {{file}}"

[order]
top = [["name", "version"], ["scripts"]]
message = "Keys out of order"
level = "warning"
[order.sub]
deps = ["dependencies", "devDependencies"]

[linebreak]
between_groups = true
[linebreak.before_fields]
scripts = "keep"
[linebreak.in_fields]
scripts = "none"
`)

	p, err := Load(path)
	require.NoError(t, err)

	require.Len(t, p.Checks, 3)
	assert.Equal(t, []string{"name", "version"}, p.Checks[0].FieldList())
	assert.Equal(t, map[string]string{"name": "string", "private": "boolean"}, p.Checks[1].FieldKinds())
	assert.Equal(t, "MIT", p.Checks[2].Value)
	assert.Equal(t, "Use MIT in {{file}}", p.Checks[2].Message)

	require.NotNil(t, p.Order)
	assert.Equal(t, [][]string{{"name", "version"}, {"scripts"}}, p.Order.Top)
	assert.Equal(t, []string{"dependencies", "devDependencies"}, p.Order.Sub["deps"])
	assert.Equal(t, "warning", p.Order.Level)

	require.NotNil(t, p.LineBreak)
	require.NotNil(t, p.LineBreak.BetweenGroups)
	assert.True(t, *p.LineBreak.BetweenGroups)
	assert.Equal(t, RuleKeep, p.LineBreak.BeforeFields["scripts"])
	assert.Equal(t, RuleNone, p.LineBreak.InFields["scripts"])
}

func TestLoadRejectsUnknownCheckKind(t *testing.T) {
	_, err := Load(writePolicy(t, "[[checks]]\nkind = \"maximum\"\n"))
	assert.Error(t, err)
}

func TestLoadRejectsBadLineBreakRule(t *testing.T) {
	_, err := Load(writePolicy(t, "[linebreak.before_fields]\nscripts = \"always\"\n"))
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestFieldNarrowing(t *testing.T) {
	c := Check{Fields: []interface{}{"a", 1, "b"}}
	assert.Equal(t, []string{"a", "b"}, c.FieldList())
	assert.Nil(t, c.FieldKinds())

	c = Check{Fields: map[string]interface{}{"a": "string", "b": 2}}
	assert.Nil(t, c.FieldList())
	assert.Equal(t, map[string]string{"a": "string"}, c.FieldKinds())

	c = Check{}
	assert.Nil(t, c.FieldList())
	assert.Nil(t, c.FieldKinds())
}

func TestEffectiveLevel(t *testing.T) {
	assert.Equal(t, "error", EffectiveLevel(""))
	assert.Equal(t, "warning", EffectiveLevel("warning"))
	assert.Equal(t, "info", EffectiveLevel("info"))
}
