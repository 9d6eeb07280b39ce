// Package format rewrites matched files into canonical form: key order
// normalized per policy, then blank-line placement restored by the
// line-break passes. Without --write it only reports what would change.
package format

import (
	"fmt"
	"path/filepath"
	"runtime"
	"sort"
	gosync "sync"

	"golang.org/x/sync/errgroup"

	"github.com/nazahex/rigra/internal/config"
	"github.com/nazahex/rigra/internal/document"
	"github.com/nazahex/rigra/internal/index"
	"github.com/nazahex/rigra/internal/linebreak"
	"github.com/nazahex/rigra/internal/match"
	"github.com/nazahex/rigra/internal/model"
	"github.com/nazahex/rigra/internal/order"
	"github.com/nazahex/rigra/internal/policy"
	"github.com/nazahex/rigra/pkg/logger"
	"github.com/nazahex/rigra/pkg/safeio"
)

// Run formats every file matched by the index rules. Returned results are
// sorted by file within each rule's batch.
func Run(eff *config.Effective) ([]model.FormatResult, error) {
	indexPath := eff.IndexPath()
	idx, err := index.Load(indexPath)
	if err != nil {
		return nil, err
	}
	indexDir := filepath.Dir(indexPath)

	var results []model.FormatResult
	for _, rule := range idx.Rules {
		pol, err := policy.Load(filepath.Join(indexDir, filepath.FromSlash(rule.Policy)))
		if err != nil {
			// A broken policy degrades its own rule; later rules still run.
			logger.Warn("Skipping rule", logger.String("rule", rule.ID), logger.Err(err))
			continue
		}
		if pol.Order == nil {
			continue // nothing to format without an order spec
		}

		batch := formatFiles(eff, pol, match.Files(eff.RepoRoot, match.RulePatterns(rule.Patterns, eff.PatternOverride, rule.ID)))
		sort.Slice(batch, func(i, j int) bool { return batch[i].File < batch[j].File })
		results = append(results, batch...)
	}
	return results, nil
}

func formatFiles(eff *config.Effective, pol *policy.Policy, files []string) []model.FormatResult {
	var mu gosync.Mutex
	var results []model.FormatResult

	g := errgroup.Group{}
	g.SetLimit(runtime.NumCPU())
	for _, file := range files {
		g.Go(func() error {
			res, err := formatFile(eff, pol, file)
			if err != nil {
				logger.Warn("Skipping file", logger.String("file", file), logger.Err(err))
				return nil
			}
			mu.Lock()
			results = append(results, res)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func formatFile(eff *config.Effective, pol *policy.Policy, file string) (model.FormatResult, error) {
	res := model.FormatResult{File: file}
	abs := filepath.Join(eff.RepoRoot, filepath.FromSlash(file))

	data, err := safeio.ReadFileContained(eff.RepoRoot, abs)
	if err != nil {
		return res, fmt.Errorf("read: %w", err)
	}
	obj, err := document.ParseObject(data)
	if err != nil {
		return res, fmt.Errorf("invalid JSON: %w", err)
	}

	normalized, _ := order.Normalize(obj, pol.Order)
	rendered := render(eff, pol, normalized, string(data))

	if rendered == string(data) {
		return res, nil
	}
	res.Changed = true

	if eff.Write && !eff.Diff && !eff.Check {
		if err := safeio.WriteFilePreservePerms(abs, []byte(rendered)); err != nil {
			return res, fmt.Errorf("write: %w", err)
		}
	} else {
		res.Preview = rendered
		res.Original = string(data)
	}
	return res, nil
}

// render produces the canonical text for a normalized document, applying
// the line-break passes when strict mode is on. Config overrides sit on
// top of whatever the policy declares.
func render(eff *config.Effective, pol *policy.Policy, normalized *document.Object, original string) string {
	rendered := document.EncodePretty(normalized) + "\n"
	if !eff.StrictLineBreak {
		return rendered
	}

	var lb policy.LineBreakSpec
	if pol.LineBreak != nil {
		lb = *pol.LineBreak
	}

	between := false
	if lb.BetweenGroups != nil {
		between = *lb.BetweenGroups
	}
	if eff.LBBetweenGroups != nil {
		between = *eff.LBBetweenGroups
	}

	beforeRules := linebreak.MergeFieldRules(lb.BeforeFields, eff.LBBeforeFields)
	inRules := linebreak.MergeFieldRules(lb.InFields, eff.LBInFields)

	rendered = linebreak.ApplyGroupBreaks(rendered, pol.Order.Top, between, beforeRules)
	keepMap := linebreak.KeepMap(original, inRules)
	rendered = linebreak.ApplyInFieldBreaks(rendered, inRules, keepMap)
	return rendered
}
