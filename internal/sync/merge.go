package sync

import (
	"fmt"
	"hash/fnv"
	"sort"

	"github.com/nazahex/rigra/internal/config"
	"github.com/nazahex/rigra/internal/document"
)

// Merge combines a template document and an existing target under the
// per-path merge config. The result starts as a deep copy of the source;
// categories apply in fixed order (override, keep, noSync, then array
// strategies) so overlapping paths resolve by application order rather
// than validation. A path that fails to resolve through object contexts
// aborts only that path.
func Merge(src, dst interface{}, cfg *config.MergeConfig) interface{} {
	result := document.Clone(src)

	for _, p := range cfg.Override {
		if v, ok := document.GetPath(src, p); ok {
			document.SetPath(result, p, document.Clone(v))
		}
	}
	for _, p := range cfg.Keep {
		applyPreserve(result, dst, p)
	}
	for _, p := range cfg.NoSync {
		applyPreserve(result, dst, p)
	}

	// Sorted-path walk keeps the visitation order deterministic.
	arrayPaths := make([]string, 0, len(cfg.Array))
	for p := range cfg.Array {
		arrayPaths = append(arrayPaths, p)
	}
	sort.Strings(arrayPaths)

	for _, p := range arrayPaths {
		if cfg.Array[p] == "union" {
			sv, ok := document.GetPath(src, p)
			if !ok {
				continue
			}
			sa, ok := sv.([]interface{})
			if !ok {
				continue
			}
			var merged []interface{}
			if dv, ok := document.GetPath(dst, p); ok {
				if da, ok := dv.([]interface{}); ok {
					for _, e := range da {
						merged = append(merged, document.Clone(e))
					}
				}
			}
			for _, e := range sa {
				present := false
				for _, m := range merged {
					if document.Equal(m, e) {
						present = true
						break
					}
				}
				if !present {
					merged = append(merged, document.Clone(e))
				}
			}
			document.SetPath(result, p, merged)
		} else { // replace
			if v, ok := document.GetPath(src, p); ok {
				document.SetPath(result, p, document.Clone(v))
			}
		}
	}

	return result
}

// applyPreserve keeps the target's value at path when present, and clears
// the path from the result when the target lacks it.
func applyPreserve(result, dst interface{}, path string) {
	if v, ok := document.GetPath(dst, path); ok {
		document.SetPath(result, path, document.Clone(v))
	} else {
		document.RemovePath(result, path)
	}
}

// Fingerprint digests serialized document text for idempotent-write
// detection. It is never consulted as a cache; every run recomputes it
// from the actual documents.
func Fingerprint(s string) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return fmt.Sprintf("%016x-%d", h.Sum64(), len(s))
}
