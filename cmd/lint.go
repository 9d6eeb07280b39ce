package cmd

import (
	"errors"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/nazahex/rigra/internal/config"
	"github.com/nazahex/rigra/internal/lint"
	"github.com/nazahex/rigra/internal/output"
	"github.com/nazahex/rigra/pkg/exitcode"
	"github.com/nazahex/rigra/pkg/logger"
)

// lintCmd represents the lint command
var lintCmd = &cobra.Command{
	Use:   "lint",
	Short: "Report convention violations without modifying files",
	Long: `Lint evaluates every index rule against the repository: policy checks,
key-order conformance, and sync drift. Exit status is non-zero when any
error-severity issue is found.`,
	RunE: runLint,
}

func init() {
	addCommonFlags(lintCmd)
}

// addCommonFlags registers the resolution flags shared by lint, format,
// and sync.
func addCommonFlags(cmd *cobra.Command) {
	cmd.Flags().String("repo-root", "", "Repository root (default: auto-detect)")
	cmd.Flags().String("index", "", "Path to the convention index (overrides config)")
	cmd.Flags().String("scope", "", "Repository scope for sync rule gating (default: repo)")
	cmd.Flags().StringP("output", "o", "", "Output mode: human, json, or yaml")
}

// resolveCommon builds config options from the shared flags.
func resolveCommon(cmd *cobra.Command) config.Options {
	opts := config.Options{}
	opts.RepoRoot, _ = cmd.Flags().GetString("repo-root")
	opts.Index, _ = cmd.Flags().GetString("index")
	opts.Scope, _ = cmd.Flags().GetString("scope")
	opts.Output, _ = cmd.Flags().GetString("output")
	return opts
}

// boolFlag returns a pointer only when the flag was explicitly set, so the
// config layer can tell "absent" from "false".
func boolFlag(fs *pflag.FlagSet, name string) *bool {
	if !fs.Changed(name) {
		return nil
	}
	v, _ := fs.GetBool(name)
	return &v
}

// requireIndex fails with a config error when no index could be resolved.
func requireIndex(eff *config.Effective) error {
	if eff.IndexConfigured {
		return nil
	}
	return &codedError{
		err:  errors.New("no convention index configured: set index in rigra.toml or pass --index"),
		code: exitcode.ConfigError,
	}
}

func runLint(cmd *cobra.Command, _ []string) error {
	eff := config.Resolve(resolveCommon(cmd))
	if err := requireIndex(eff); err != nil {
		return err
	}
	logger.Debug("Linting repository",
		logger.String("root", eff.RepoRoot),
		logger.String("index", eff.Index),
		logger.String("scope", eff.Scope))

	res := lint.Run(eff)
	if err := output.PrintLint(cmd.OutOrStdout(), eff.Output, res); err != nil {
		return err
	}
	if res.Summary.Errors > 0 {
		os.Exit(exitcode.GeneralError)
	}
	return nil
}
