// Package sync applies template synchronization rules: structural JSON
// merges for rules declared format=json with a merge config, byte copies
// for everything else. Decisions always come from comparing the actual
// documents; checksum markers only record what a write produced.
package sync

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/nazahex/rigra/internal/config"
	"github.com/nazahex/rigra/internal/document"
	"github.com/nazahex/rigra/internal/index"
	"github.com/nazahex/rigra/internal/model"
	"github.com/nazahex/rigra/pkg/logger"
)

// ChecksumPath returns the marker file recording the last written
// fingerprint for a target, keyed by its root-relative path.
func ChecksumPath(root, target string) string {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		rel = target
	}
	key := strings.ReplaceAll(filepath.ToSlash(rel), "/", "__")
	return filepath.Join(root, ".rigra", "sync", "checksums", key+".chk")
}

func writeMarker(root, target, fp string) {
	marker := ChecksumPath(root, target)
	if err := os.MkdirAll(filepath.Dir(marker), 0o755); err != nil {
		logger.Warn("Could not create checksum dir", logger.Err(err))
		return
	}
	if err := os.WriteFile(marker, []byte(fp+"\n"), 0o644); err != nil {
		logger.Warn("Could not write checksum marker", logger.String("marker", marker), logger.Err(err))
	}
}

// clientFor returns the client-side override block for a rule id, or nil.
func clientFor(eff *config.Effective, id string) *config.SyncClientConfig {
	if cc, ok := eff.SyncRules[id]; ok {
		return &cc
	}
	return nil
}

// resolveTarget applies the client target override and anchors the result
// at the repository root.
func resolveTarget(eff *config.Effective, rule index.SyncRule) string {
	target := rule.Target
	if cc := clientFor(eff, rule.ID); cc != nil && cc.Target != "" {
		target = cc.Target
	}
	return filepath.Join(eff.RepoRoot, filepath.FromSlash(target))
}

// errSourceNotJSON marks a merge source that failed to parse; the rule
// degrades to a byte copy instead of failing.
var errSourceNotJSON = errors.New("sync source is not valid JSON")

// mergedText renders the merge of source template and current target as
// the canonical pretty text that a write would produce.
func mergedText(source, target string, mc *config.MergeConfig) (string, error) {
	srcData, err := os.ReadFile(source) // #nosec G304 -- source comes from the resolved index
	if err != nil {
		return "", fmt.Errorf("read sync source: %w", err)
	}
	srcDoc, err := document.Parse(srcData)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", errSourceNotJSON, source, err)
	}

	var dstDoc interface{} = document.NewObject()
	if dstData, err := os.ReadFile(target); err == nil { // #nosec G304
		if parsed, err := document.Parse(dstData); err == nil {
			dstDoc = parsed
		}
	}

	merged := Merge(srcDoc, dstDoc, mc)
	return document.EncodePretty(merged) + "\n", nil
}

// ApplyRule evaluates one sync rule against the working tree. With write
// false it only reports whether a write would happen.
func ApplyRule(eff *config.Effective, rule index.SyncRule, indexDir string, write bool) (model.SyncAction, error) {
	source := filepath.Join(indexDir, filepath.FromSlash(rule.Source))
	target := resolveTarget(eff, rule)

	action := model.SyncAction{
		RuleID: rule.ID,
		Source: rule.Source,
		Target: rule.Target,
		Format: rule.Format,
	}
	if cc := clientFor(eff, rule.ID); cc != nil && cc.Target != "" {
		action.Target = cc.Target
	}

	cc := clientFor(eff, rule.ID)
	if rule.Format == "json" && cc != nil && cc.Merge != nil {
		merged, err := mergedText(source, target, cc.Merge)
		switch {
		case err == nil:
			fp := Fingerprint(merged)
			if current, err := os.ReadFile(target); err == nil && Fingerprint(string(current)) == fp { // #nosec G304
				return action, nil
			}
			action.WouldWrite = true
			if write {
				if err := writeFile(target, []byte(merged)); err != nil {
					return action, err
				}
				writeMarker(eff.RepoRoot, target, fp)
				action.Wrote = true
			}
			return action, nil
		case errors.Is(err, errSourceNotJSON):
			// A template that is not valid JSON still syncs as bytes.
			logger.Warn("Falling back to byte copy",
				logger.String("rule", rule.ID),
				logger.Err(err))
		default:
			return action, err
		}
	}

	pending, err := copyRule(source, target, write)
	if err != nil {
		return action, err
	}
	action.WouldWrite = pending
	action.Wrote = pending && write
	return action, nil
}

// copyRule mirrors a plain file or directory source onto the target. A
// present source always counts as a pending write; the copy path carries
// no skip-if-exists semantics, so every invocation re-copies.
func copyRule(source, target string, write bool) (bool, error) {
	info, err := os.Stat(source)
	if err != nil {
		return false, fmt.Errorf("stat sync source %s: %w", source, err)
	}
	if !info.IsDir() {
		return true, copyFile(source, target, write)
	}

	err = filepath.WalkDir(source, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(source, path)
		if err != nil {
			return err
		}
		return copyFile(path, filepath.Join(target, rel), write)
	})
	return err == nil, err
}

func copyFile(source, target string, write bool) error {
	if !write {
		return nil
	}
	srcData, err := os.ReadFile(source) // #nosec G304 -- source comes from the resolved index
	if err != nil {
		return fmt.Errorf("read sync source: %w", err)
	}
	return writeFile(target, srcData)
}

func writeFile(target string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create target dir: %w", err)
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return fmt.Errorf("write sync target %s: %w", target, err)
	}
	return nil
}

// Drifted reports whether a sync rule's target is behind its source. Used
// by lint to surface drift without touching the tree.
func Drifted(eff *config.Effective, rule index.SyncRule, indexDir string) bool {
	action, err := ApplyRule(eff, rule, indexDir, false)
	if err != nil {
		// An unevaluable rule is a skipped unit, not a finding.
		logger.Debug("Skipping drift evaluation", logger.String("rule", rule.ID), logger.Err(err))
		return false
	}
	return action.WouldWrite
}

// Run applies every enabled sync rule and fires post hooks for the rules
// that wrote. A failing rule degrades to a no-op action; hook failures are
// logged, never fatal.
func Run(eff *config.Effective, idx *index.Index, indexPath string, write bool) []model.SyncAction {
	indexDir := filepath.Dir(indexPath)
	ignored := make(map[string]bool, len(eff.SyncIgnore))
	for _, id := range eff.SyncIgnore {
		ignored[id] = true
	}

	var actions []model.SyncAction
	for _, rule := range idx.Sync {
		if ignored[rule.ID] || !index.ScopeEnabled(rule.When, eff.Scope) {
			continue
		}
		action, err := ApplyRule(eff, rule, indexDir, write)
		if err != nil {
			// One broken rule degrades itself only; siblings still run.
			logger.Warn("Sync rule failed", logger.String("rule", rule.ID), logger.Err(err))
			actions = append(actions, action)
			continue
		}
		actions = append(actions, action)
		if action.Wrote {
			runPostHooks(eff, rule.ID, os.Stderr)
		}
	}
	return actions
}

// runPostHooks executes the configured post commands for a rule through
// the shell, with the repository root as working directory.
func runPostHooks(eff *config.Effective, ruleID string, stderr io.Writer) {
	cmds := eff.PostHooks[ruleID]
	for _, cmdline := range cmds {
		logger.Debug("Running post-sync hook", logger.String("rule", ruleID), logger.String("cmd", cmdline))
		cmd := exec.Command("sh", "-c", cmdline) // #nosec G204 -- hooks are operator-supplied configuration
		cmd.Dir = eff.RepoRoot
		cmd.Stdout = stderr
		cmd.Stderr = stderr
		if err := cmd.Run(); err != nil {
			logger.Warn("Post-sync hook failed",
				logger.String("rule", ruleID),
				logger.String("cmd", cmdline),
				logger.Err(err))
		}
	}
}
