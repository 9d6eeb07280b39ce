// Package lint evaluates the convention index against the working tree:
// policy checks and key-order conformance per matched file, plus sync
// drift findings. Lint never modifies anything.
package lint

import (
	"path/filepath"
	"runtime"
	"sort"
	gosync "sync"

	"golang.org/x/sync/errgroup"

	"github.com/nazahex/rigra/internal/checks"
	"github.com/nazahex/rigra/internal/config"
	"github.com/nazahex/rigra/internal/document"
	"github.com/nazahex/rigra/internal/index"
	"github.com/nazahex/rigra/internal/match"
	"github.com/nazahex/rigra/internal/model"
	"github.com/nazahex/rigra/internal/order"
	"github.com/nazahex/rigra/internal/policy"
	syncengine "github.com/nazahex/rigra/internal/sync"
	"github.com/nazahex/rigra/pkg/logger"
	"github.com/nazahex/rigra/pkg/safeio"
)

// Run lints the repository under eff. Index or policy load failures become
// issues rather than hard errors so a misconfigured repo still reports.
func Run(eff *config.Effective) *model.LintResult {
	indexPath := eff.IndexPath()
	idx, err := index.Load(indexPath)
	if err != nil {
		return &model.LintResult{
			Issues: []model.Issue{{
				File:     eff.Index,
				Rule:     "load-index",
				Severity: "error",
				Message:  err.Error(),
			}},
			Summary: model.Summary{Errors: 1},
		}
	}

	var issues []model.Issue
	files := 0
	indexDir := filepath.Dir(indexPath)
	policies := make(map[string]*policy.Policy)

	for _, rule := range idx.Rules {
		pol, err := loadPolicy(policies, filepath.Join(indexDir, filepath.FromSlash(rule.Policy)))
		if err != nil {
			issues = append(issues, model.Issue{
				File:     rule.Policy,
				Rule:     rule.ID,
				Severity: "error",
				Message:  err.Error(),
			})
			continue
		}

		matched := match.Files(eff.RepoRoot, match.RulePatterns(rule.Patterns, eff.PatternOverride, rule.ID))
		found, evaluated := lintFiles(eff, rule.ID, pol, matched)
		files += evaluated
		issues = append(issues, found...)
	}

	issues = append(issues, driftIssues(eff, idx, indexDir)...)

	sort.Slice(issues, func(i, j int) bool {
		if issues[i].File != issues[j].File {
			return issues[i].File < issues[j].File
		}
		return issues[i].Message < issues[j].Message
	})

	return &model.LintResult{
		Issues:  issues,
		Summary: model.CountSeverities(issues, files),
	}
}

// loadPolicy caches policy loads across rules pointing at the same file.
func loadPolicy(cache map[string]*policy.Policy, path string) (*policy.Policy, error) {
	if pol, ok := cache[path]; ok {
		return pol, nil
	}
	pol, err := policy.Load(path)
	if err != nil {
		return nil, err
	}
	cache[path] = pol
	return pol, nil
}

// lintFiles checks the matched files in parallel, returning the issues and
// the count of documents actually evaluated. Results are re-sorted by the
// caller, so per-file goroutines only need a mutex around the shared state.
func lintFiles(eff *config.Effective, ruleID string, pol *policy.Policy, files []string) ([]model.Issue, int) {
	var mu gosync.Mutex
	var issues []model.Issue
	evaluated := 0

	g := errgroup.Group{}
	g.SetLimit(runtime.NumCPU())
	for _, file := range files {
		g.Go(func() error {
			found, ok := lintFile(eff, ruleID, pol, file)
			mu.Lock()
			if ok {
				evaluated++
			}
			issues = append(issues, found...)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // workers report through issues, never errors
	return issues, evaluated
}

// lintFile evaluates one document. A file that cannot be read or parsed is
// a skipped unit: no issues, not counted, logged at debug.
func lintFile(eff *config.Effective, ruleID string, pol *policy.Policy, file string) ([]model.Issue, bool) {
	data, err := safeio.ReadFileContained(eff.RepoRoot, filepath.Join(eff.RepoRoot, filepath.FromSlash(file)))
	if err != nil {
		logger.Debug("Skipping unreadable file", logger.String("file", file), logger.Err(err))
		return nil, false
	}
	obj, err := document.ParseObject(data)
	if err != nil {
		logger.Debug("Skipping file that is not a JSON object", logger.String("file", file), logger.Err(err))
		return nil, false
	}

	issues := checks.Run(pol.Checks, obj, file, ruleID)

	if pol.Order != nil && !order.Conforms(obj, pol.Order) {
		msg := pol.Order.Message
		if msg == "" {
			msg = "Object key order does not match policy"
		}
		issues = append(issues, model.Issue{
			File:     file,
			Rule:     ruleID,
			Severity: policy.EffectiveLevel(pol.Order.Level),
			Message:  msg,
		})
	}
	return issues, true
}

// driftIssues reports sync targets that are behind their sources.
func driftIssues(eff *config.Effective, idx *index.Index, indexDir string) []model.Issue {
	ignored := make(map[string]bool, len(eff.SyncIgnore))
	for _, id := range eff.SyncIgnore {
		ignored[id] = true
	}

	var issues []model.Issue
	for _, rule := range idx.Sync {
		if ignored[rule.ID] || !index.ScopeEnabled(rule.When, eff.Scope) {
			continue
		}
		if !syncengine.Drifted(eff, rule, indexDir) {
			continue
		}
		msg := rule.Message
		if msg == "" {
			msg = "Not synced yet. Please run rigra sync."
		}
		level := rule.Level
		if level == "" {
			level = "info"
		}
		issues = append(issues, model.Issue{
			File:     rule.Target,
			Rule:     "sync:" + rule.ID,
			Severity: level,
			Message:  msg,
		})
	}
	return issues
}
