// Package output renders lint, format, and sync results in human, json,
// or yaml form. The json and yaml shapes are stable interfaces for CI
// consumers; human output is free to evolve.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"path"
	"sort"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
	"gopkg.in/yaml.v3"

	"github.com/nazahex/rigra/internal/model"
)

var (
	errColor  = color.New(color.FgRed, color.Bold)
	warnColor = color.New(color.FgYellow)
	infoColor = color.New(color.FgCyan)
	okColor   = color.New(color.FgGreen)
	dimColor  = color.New(color.Faint)
)

func severityColor(sev string) *color.Color {
	switch sev {
	case "error":
		return errColor
	case "warning", "warn":
		return warnColor
	default:
		return infoColor
	}
}

func renderStructured(w io.Writer, mode string, v interface{}) error {
	switch mode {
	case "json":
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unknown output mode %q", mode)
}

// PrintLint renders a lint result. Human mode groups issues by directory.
func PrintLint(w io.Writer, mode string, res *model.LintResult) error {
	if mode != "human" {
		return renderStructured(w, mode, res)
	}

	if len(res.Issues) == 0 {
		okColor.Fprintln(w, "✓ No issues found")
		fmt.Fprintf(w, "  %d files checked\n", res.Summary.Files)
		return nil
	}

	byDir := make(map[string][]model.Issue)
	var dirs []string
	for _, is := range res.Issues {
		dir := path.Dir(is.File)
		if _, seen := byDir[dir]; !seen {
			dirs = append(dirs, dir)
		}
		byDir[dir] = append(byDir[dir], is)
	}
	sort.Strings(dirs)

	for _, dir := range dirs {
		dimColor.Fprintf(w, "%s/\n", dir)
		width := 0
		for _, is := range byDir[dir] {
			if n := runewidth.StringWidth(path.Base(is.File)); n > width {
				width = n
			}
		}
		for _, is := range byDir[dir] {
			name := runewidth.FillRight(path.Base(is.File), width)
			fmt.Fprintf(w, "  %s  %s  %s",
				name,
				severityColor(is.Severity).Sprintf("%-7s", is.Severity),
				is.Message)
			if is.Path != "" {
				dimColor.Fprintf(w, "  (%s)", is.Path)
			}
			fmt.Fprintln(w)
		}
	}

	fmt.Fprintf(w, "\n%d errors, %d warnings, %d infos across %d files\n",
		res.Summary.Errors, res.Summary.Warnings, res.Summary.Infos, res.Summary.Files)
	return nil
}

type formatReport struct {
	Results []model.FormatResult `json:"results" yaml:"results"`
	Summary formatSummary        `json:"summary" yaml:"summary"`
}

type formatSummary struct {
	Changed int `json:"changed" yaml:"changed"`
	Total   int `json:"total" yaml:"total"`
}

// PrintFormat renders format results. With showDiff, human mode prints a
// minimal line diff for each changed file instead of a one-liner.
func PrintFormat(w io.Writer, mode string, results []model.FormatResult, showDiff bool) error {
	changed := 0
	for _, r := range results {
		if r.Changed {
			changed++
		}
	}

	if mode != "human" {
		return renderStructured(w, mode, formatReport{
			Results: results,
			Summary: formatSummary{Changed: changed, Total: len(results)},
		})
	}

	for _, r := range results {
		if !r.Changed {
			continue
		}
		warnColor.Fprintf(w, "~ %s\n", r.File)
		if showDiff && r.Preview != "" {
			printDiff(w, r.Original, r.Preview)
		}
	}
	if changed == 0 {
		okColor.Fprintln(w, "✓ All files formatted")
	}
	fmt.Fprintf(w, "%d of %d files changed\n", changed, len(results))
	return nil
}

// printDiff emits removed-then-added lines without context pairing; enough
// to see what moved, not a real patch.
func printDiff(w io.Writer, before, after string) {
	beforeSet := lineSet(before)
	afterSet := lineSet(after)
	for _, l := range splitLines(before) {
		if !afterSet[l] {
			errColor.Fprintf(w, "  - %s\n", l)
		}
	}
	for _, l := range splitLines(after) {
		if !beforeSet[l] {
			okColor.Fprintf(w, "  + %s\n", l)
		}
	}
}

func splitLines(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	if start < len(s) {
		out = append(out, s[start:])
	}
	return out
}

func lineSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, l := range splitLines(s) {
		set[l] = true
	}
	return set
}

type syncReport struct {
	Actions []model.SyncAction `json:"actions" yaml:"actions"`
	Summary syncSummary        `json:"summary" yaml:"summary"`
}

type syncSummary struct {
	Wrote   int `json:"wrote" yaml:"wrote"`
	Pending int `json:"pending" yaml:"pending"`
	Total   int `json:"total" yaml:"total"`
}

// PrintSync renders sync actions.
func PrintSync(w io.Writer, mode string, actions []model.SyncAction) error {
	wrote, pending := 0, 0
	for _, a := range actions {
		if a.Wrote {
			wrote++
		} else if a.WouldWrite {
			pending++
		}
	}

	if mode != "human" {
		return renderStructured(w, mode, syncReport{
			Actions: actions,
			Summary: syncSummary{Wrote: wrote, Pending: pending, Total: len(actions)},
		})
	}

	width := 0
	for _, a := range actions {
		if n := runewidth.StringWidth(a.RuleID); n > width {
			width = n
		}
	}
	for _, a := range actions {
		id := runewidth.FillRight(a.RuleID, width)
		switch {
		case a.Wrote:
			okColor.Fprintf(w, "✓ %s  %s\n", id, a.Target)
		case a.WouldWrite:
			warnColor.Fprintf(w, "~ %s  %s (pending; run with --write)\n", id, a.Target)
		default:
			dimColor.Fprintf(w, "= %s  %s up to date\n", id, a.Target)
		}
	}
	fmt.Fprintf(w, "%d written, %d pending, %d total\n", wrote, pending, len(actions))
	return nil
}
