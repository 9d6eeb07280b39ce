// Package config discovers the repository root, loads the client
// rigra.{toml,yaml,yml} file, and resolves the effective settings with
// precedence CLI > config file > defaults.
package config

import (
	"os"
	"path/filepath"
	"strings"

	git "github.com/go-git/go-git/v5"
	"github.com/spf13/viper"

	"github.com/nazahex/rigra/internal/conv"
	"github.com/nazahex/rigra/pkg/logger"
)

// MergeConfig declares per-path merge behavior for one sync rule.
type MergeConfig struct {
	Keep     []string          `mapstructure:"keep"`
	Override []string          `mapstructure:"override"`
	NoSync   []string          `mapstructure:"noSync"`
	Array    map[string]string `mapstructure:"array"` // path -> union|replace
}

// SyncClientConfig is the client-side override block for one sync rule id.
type SyncClientConfig struct {
	Target string       `mapstructure:"target"`
	Merge  *MergeConfig `mapstructure:"merge"`
}

// ConvConfig configures convention bundle resolution and installation.
type ConvConfig struct {
	AutoInstall bool   `mapstructure:"autoInstall"`
	Package     string `mapstructure:"package"`
	Source      string `mapstructure:"source"`
	Subpath     string `mapstructure:"subpath"`
}

type lineBreakFile struct {
	BetweenGroups *bool             `mapstructure:"between_groups"`
	BeforeFields  map[string]string `mapstructure:"before_fields"`
	InFields      map[string]string `mapstructure:"in_fields"`
}

type formatFile struct {
	Write           *bool         `mapstructure:"write"`
	Diff            *bool         `mapstructure:"diff"`
	Check           *bool         `mapstructure:"check"`
	StrictLineBreak *bool         `mapstructure:"strictLineBreak"`
	LineBreak       lineBreakFile `mapstructure:"linebreak"`
}

type rulePatterns struct {
	Patterns []string `mapstructure:"patterns"`
}

type syncHooks struct {
	Post map[string][]string `mapstructure:"post"`
}

type syncFile struct {
	Write  *bool                       `mapstructure:"write"`
	Ignore []string                    `mapstructure:"ignore"`
	Config map[string]SyncClientConfig `mapstructure:"config"`
	Hooks  syncHooks                   `mapstructure:"hooks"`
}

// FileConfig mirrors the rigra.{toml,yaml,yml} client file.
type FileConfig struct {
	Index  string                  `mapstructure:"index"`
	Scope  string                  `mapstructure:"scope"`
	Output string                  `mapstructure:"output"`
	Format formatFile              `mapstructure:"format"`
	Rules  map[string]rulePatterns `mapstructure:"rules"`
	Conv   ConvConfig              `mapstructure:"conv"`
	Sync   syncFile                `mapstructure:"sync"`
}

// Options carries CLI-provided values. Nil/empty means "not given".
type Options struct {
	RepoRoot string
	Index    string
	Scope    string
	Output   string
	Write    *bool
	Diff     *bool
	Check    *bool
}

// Effective is the fully-resolved configuration commands run with.
type Effective struct {
	RepoRoot        string
	Index           string
	IndexConfigured bool
	Scope           string
	Output          string
	Write           bool
	Diff            bool
	Check           bool
	StrictLineBreak bool
	LBBetweenGroups *bool
	LBBeforeFields  map[string]string
	LBInFields      map[string]string
	PatternOverride map[string][]string
	SyncWrite       bool
	SyncIgnore      []string
	SyncRules       map[string]SyncClientConfig
	PostHooks       map[string][]string
	Conv            ConvConfig
}

// IndexPath returns the absolute path of the resolved index file. The
// index setting is usually root-relative but may come back absolute when a
// conv cache entry sits outside the root.
func (e *Effective) IndexPath() string {
	if filepath.IsAbs(e.Index) {
		return e.Index
	}
	return filepath.Join(e.RepoRoot, filepath.FromSlash(e.Index))
}

var configNames = []string{"rigra.toml", "rigra.yaml", "rigra.yml"}

// DetectRepoRoot walks upward from start until it finds a rigra config
// file; failing that it asks go-git for the enclosing work tree, and
// finally falls back to start itself.
func DetectRepoRoot(start string) string {
	cur, err := filepath.Abs(start)
	if err != nil {
		cur = start
	}
	for dir := cur; ; {
		for _, name := range configNames {
			if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
				return dir
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	if repo, err := git.PlainOpenWithOptions(cur, &git.PlainOpenOptions{DetectDotGit: true}); err == nil {
		if wt, err := repo.Worktree(); err == nil {
			return wt.Filesystem.Root()
		}
	}
	return cur
}

// LoadFile loads the client config from root. The second return is false
// when no config file exists or it cannot be decoded.
func LoadFile(root string) (*FileConfig, bool) {
	v := viper.New()
	v.SetConfigName("rigra")
	v.AddConfigPath(root)
	if err := v.ReadInConfig(); err != nil {
		return nil, false
	}
	var fc FileConfig
	if err := v.Unmarshal(&fc); err != nil {
		logger.Warn("Could not decode rigra config", logger.Err(err))
		return nil, false
	}
	return &fc, true
}

// Resolve merges CLI options, the discovered config file, and defaults.
func Resolve(opts Options) *Effective {
	start := opts.RepoRoot
	if start == "" {
		start = "."
	}
	root := DetectRepoRoot(start)
	fc, _ := LoadFile(root)
	if fc == nil {
		fc = &FileConfig{}
	}

	eff := &Effective{
		RepoRoot:        root,
		Scope:           firstNonEmpty(opts.Scope, fc.Scope, "repo"),
		Output:          firstNonEmpty(opts.Output, fc.Output, "human"),
		Write:           resolveBool(opts.Write, fc.Format.Write, false),
		Diff:            resolveBool(opts.Diff, fc.Format.Diff, false),
		Check:           resolveBool(opts.Check, fc.Format.Check, false),
		StrictLineBreak: resolveBool(nil, fc.Format.StrictLineBreak, true),
		LBBetweenGroups: fc.Format.LineBreak.BetweenGroups,
		LBBeforeFields:  orEmpty(fc.Format.LineBreak.BeforeFields),
		LBInFields:      orEmpty(fc.Format.LineBreak.InFields),
		PatternOverride: make(map[string][]string),
		SyncWrite:       resolveBool(nil, fc.Sync.Write, false),
		SyncIgnore:      fc.Sync.Ignore,
		SyncRules:       fc.Sync.Config,
		PostHooks:       fc.Sync.Hooks.Post,
		Conv:            fc.Conv,
	}
	if eff.SyncRules == nil {
		eff.SyncRules = make(map[string]SyncClientConfig)
	}
	for id, ov := range fc.Rules {
		eff.PatternOverride[id] = ov.Patterns
	}

	index := firstNonEmpty(opts.Index, fc.Index)
	eff.Index = index
	eff.IndexConfigured = index != ""

	// A conv: index reference resolves through the bundle cache; install on
	// demand when the entry is missing and autoInstall is on.
	if ref, ok := conv.ParseRef(index); ok {
		resolved := conv.ResolvePath(root, ref)
		if _, err := os.Stat(resolved); err != nil && fc.Conv.AutoInstall && fc.Conv.Source != "" {
			nameVer := ref.Name + "@" + ref.Ver
			if _, err := conv.Install(root, nameVer, expandSource(fc.Conv.Source, nameVer)); err != nil {
				logger.Warn("Auto-install failed", logger.String("bundle", nameVer), logger.Err(err))
			}
		}
		eff.Index = relToRoot(root, resolved)
		eff.IndexConfigured = true
	}

	// No index configured but a conv package declared: derive the index from
	// the package's cache entry.
	if !eff.IndexConfigured && fc.Conv.Package != "" {
		if name, ver, ok := conv.SplitNameVer(fc.Conv.Package); ok {
			subpath := fc.Conv.Subpath
			if subpath == "" {
				subpath = "index.toml"
			}
			ref := &conv.Ref{Name: name, Ver: ver, Subpath: subpath}
			resolved := conv.ResolvePath(root, ref)
			if _, err := os.Stat(resolved); err != nil && fc.Conv.AutoInstall && fc.Conv.Source != "" {
				if _, err := conv.Install(root, fc.Conv.Package, expandSource(fc.Conv.Source, fc.Conv.Package)); err != nil {
					logger.Warn("Auto-install failed", logger.String("bundle", fc.Conv.Package), logger.Err(err))
				}
			}
			eff.Index = relToRoot(root, resolved)
			eff.IndexConfigured = true
		}
	}

	return eff
}

// expandSource turns the "github" shorthand into a concrete gh: source
// derived from the package name.
func expandSource(source, nameVer string) string {
	if source != "github" {
		return source
	}
	name, ver, ok := conv.SplitNameVer(nameVer)
	if !ok {
		return source
	}
	owner, repo, ok := conv.OwnerRepo(name)
	if !ok {
		return source
	}
	return "gh:" + owner + "/" + repo + "@" + ver
}

func relToRoot(root, path string) string {
	if rel, err := filepath.Rel(root, path); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return path
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func resolveBool(cli *bool, file *bool, def bool) bool {
	if cli != nil {
		return *cli
	}
	if file != nil {
		return *file
	}
	return def
}

func orEmpty(m map[string]string) map[string]string {
	if m == nil {
		return make(map[string]string)
	}
	return m
}
