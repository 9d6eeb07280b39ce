// Package model holds the result shapes shared by the lint, format, and sync
// runners and consumed by the output renderers.
package model

// Issue is a single lint finding with severity and location.
type Issue struct {
	File     string `json:"file" yaml:"file"`
	Rule     string `json:"rule" yaml:"rule"`
	Severity string `json:"severity" yaml:"severity"`
	Path     string `json:"path" yaml:"path"`
	Message  string `json:"message" yaml:"message"`
}

// Summary aggregates lint issue counts.
type Summary struct {
	Errors   int `json:"errors" yaml:"errors"`
	Warnings int `json:"warnings" yaml:"warnings"`
	Infos    int `json:"infos" yaml:"infos"`
	Files    int `json:"files" yaml:"files"`
}

// LintResult is the complete lint outcome.
type LintResult struct {
	Issues  []Issue `json:"issues" yaml:"issues"`
	Summary Summary `json:"summary" yaml:"summary"`
}

// FormatResult describes one file's formatting outcome.
type FormatResult struct {
	File     string `json:"file" yaml:"file"`
	Changed  bool   `json:"changed" yaml:"changed"`
	Preview  string `json:"preview,omitempty" yaml:"preview,omitempty"`
	Original string `json:"-" yaml:"-"`
}

// SyncAction describes one sync rule's outcome.
type SyncAction struct {
	RuleID     string `json:"rule" yaml:"rule"`
	Source     string `json:"source" yaml:"source"`
	Target     string `json:"target" yaml:"target"`
	Wrote      bool   `json:"wrote" yaml:"wrote"`
	WouldWrite bool   `json:"wouldWrite" yaml:"wouldWrite"`
	Format     string `json:"format,omitempty" yaml:"format,omitempty"`
}

// CountSeverities tallies issues into a summary, leaving Files untouched.
func CountSeverities(issues []Issue, files int) Summary {
	s := Summary{Files: files}
	for _, is := range issues {
		switch is.Severity {
		case "error":
			s.Errors++
		case "warning", "warn":
			s.Warnings++
		default:
			s.Infos++
		}
	}
	return s
}
