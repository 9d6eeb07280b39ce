package sync

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nazahex/rigra/internal/config"
	"github.com/nazahex/rigra/internal/document"
)

func parse(t *testing.T, src string) interface{} {
	t.Helper()
	v, err := document.Parse([]byte(src))
	require.NoError(t, err)
	return v
}

func get(t *testing.T, v interface{}, path string) interface{} {
	t.Helper()
	got, ok := document.GetPath(v, path)
	require.True(t, ok, "path %s missing", path)
	return got
}

func TestMergeStartsFromSource(t *testing.T) {
	src := parse(t, `{"a": 1, "b": 2}`)
	dst := parse(t, `{"a": 99, "local": true}`)

	out := Merge(src, dst, &config.MergeConfig{})

	// Without categories, the template wins wholesale.
	assert.True(t, document.Equal(src, out))
	_, ok := document.GetPath(out, "local")
	assert.False(t, ok, "unmanaged target member leaked into result")
}

func TestMergeKeepPreservesTarget(t *testing.T) {
	src := parse(t, `{"name": "template", "scripts": {"build": "tpl"}}`)
	dst := parse(t, `{"name": "mine", "scripts": {"build": "local"}}`)

	out := Merge(src, dst, &config.MergeConfig{Keep: []string{"name"}})
	assert.Equal(t, "mine", get(t, out, "name"))
	assert.Equal(t, "tpl", get(t, out, "scripts.build"))
}

func TestMergeKeepRemovesWhenTargetLacksPath(t *testing.T) {
	src := parse(t, `{"name": "template", "extra": 1}`)
	dst := parse(t, `{}`)

	out := Merge(src, dst, &config.MergeConfig{Keep: []string{"name"}})
	_, ok := document.GetPath(out, "name")
	assert.False(t, ok, "keep path absent from target should not come from the template")
	assert.NotNil(t, get(t, out, "extra"))
}

func TestMergeKeepAppliesAfterOverride(t *testing.T) {
	src := parse(t, `{"version": "2.0.0"}`)
	dst := parse(t, `{"version": "1.0.0"}`)

	cfg := &config.MergeConfig{
		Override: []string{"version"},
		Keep:     []string{"version"},
	}
	// Keep applies after override, so the target value ends up winning; the
	// categories are order-applied, not priority-ranked. Declaring a path in
	// both is a policy mistake and keep is the later pass.
	out := Merge(src, dst, cfg)
	assert.Equal(t, "1.0.0", get(t, out, "version"))
}

func TestMergeNoSyncBehavesLikeKeep(t *testing.T) {
	src := parse(t, `{"private": false}`)
	dst := parse(t, `{"private": true}`)

	out := Merge(src, dst, &config.MergeConfig{NoSync: []string{"private"}})
	assert.Equal(t, true, get(t, out, "private"))
}

func TestMergeArrayUnionKeepsTargetOrderFirst(t *testing.T) {
	src := parse(t, `{"tags": ["a", "b"]}`)
	dst := parse(t, `{"tags": ["b", "c"]}`)

	out := Merge(src, dst, &config.MergeConfig{Array: map[string]string{"tags": "union"}})

	arr := get(t, out, "tags").([]interface{})
	require.Len(t, arr, 3)
	assert.Equal(t, "b", arr[0])
	assert.Equal(t, "c", arr[1])
	assert.Equal(t, "a", arr[2])
}

func TestMergeArrayUnionWithMissingTarget(t *testing.T) {
	src := parse(t, `{"tags": ["a", "b"]}`)
	dst := parse(t, `{}`)

	out := Merge(src, dst, &config.MergeConfig{Array: map[string]string{"tags": "union"}})
	arr := get(t, out, "tags").([]interface{})
	assert.Equal(t, []interface{}{"a", "b"}, arr)
}

func TestMergeArrayReplace(t *testing.T) {
	src := parse(t, `{"tags": ["a"]}`)
	dst := parse(t, `{"tags": ["x", "y"]}`)

	out := Merge(src, dst, &config.MergeConfig{Array: map[string]string{"tags": "replace"}})
	arr := get(t, out, "tags").([]interface{})
	assert.Equal(t, []interface{}{"a"}, arr)
}

func TestMergeAppliesEveryArrayStrategy(t *testing.T) {
	src := parse(t, `{"tags": ["a"], "owners": ["x"], "files": ["f"]}`)
	dst := parse(t, `{"tags": ["b"], "owners": ["y"], "files": ["g"]}`)

	out := Merge(src, dst, &config.MergeConfig{Array: map[string]string{
		"tags":   "union",
		"owners": "replace",
		"files":  "union",
	}})

	assert.Equal(t, []interface{}{"b", "a"}, get(t, out, "tags"))
	assert.Equal(t, []interface{}{"x"}, get(t, out, "owners"))
	assert.Equal(t, []interface{}{"g", "f"}, get(t, out, "files"))
}

func TestMergeUnionDeduplicatesStructurally(t *testing.T) {
	src := parse(t, `{"owners": [{"name": "a"}, {"name": "b"}]}`)
	dst := parse(t, `{"owners": [{"name": "b"}]}`)

	out := Merge(src, dst, &config.MergeConfig{Array: map[string]string{"owners": "union"}})
	arr := get(t, out, "owners").([]interface{})
	require.Len(t, arr, 2)
}

func TestMergeDoesNotMutateInputs(t *testing.T) {
	src := parse(t, `{"a": {"b": 1}}`)
	dst := parse(t, `{"a": {"b": 2}}`)

	out := Merge(src, dst, &config.MergeConfig{Keep: []string{"a.b"}})
	document.SetPath(out, "a.b", "mutated")

	assert.True(t, document.Equal(parse(t, `{"a": {"b": 1}}`), src))
	assert.True(t, document.Equal(parse(t, `{"a": {"b": 2}}`), dst))
}

func TestFingerprint(t *testing.T) {
	fp := Fingerprint("hello")
	parts := strings.SplitN(fp, "-", 2)
	require.Len(t, parts, 2)
	assert.Len(t, parts[0], 16)
	assert.Equal(t, "5", parts[1])

	assert.Equal(t, fp, Fingerprint("hello"))
	assert.NotEqual(t, fp, Fingerprint("hello "))
	assert.Equal(t, "-0", Fingerprint("")[16:])
}
