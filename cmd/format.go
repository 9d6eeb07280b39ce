package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/nazahex/rigra/internal/config"
	"github.com/nazahex/rigra/internal/format"
	"github.com/nazahex/rigra/internal/output"
	"github.com/nazahex/rigra/pkg/exitcode"
	"github.com/nazahex/rigra/pkg/logger"
)

// formatCmd represents the format command
var formatCmd = &cobra.Command{
	Use:   "format",
	Short: "Rewrite matched files into canonical form",
	Long: `Format normalizes key order and blank-line placement for every file the
index rules match. The default is a dry run; pass --write to apply,
--diff to preview changes, or --check for a CI gate that exits non-zero
when anything would change.`,
	RunE: runFormat,
}

func init() {
	addCommonFlags(formatCmd)
	formatCmd.Flags().BoolP("write", "w", false, "Write changes to disk")
	formatCmd.Flags().Bool("diff", false, "Show a line diff instead of writing")
	formatCmd.Flags().Bool("check", false, "Exit non-zero if any file would change")
}

func runFormat(cmd *cobra.Command, _ []string) error {
	opts := resolveCommon(cmd)
	opts.Write = boolFlag(cmd.Flags(), "write")
	opts.Diff = boolFlag(cmd.Flags(), "diff")
	opts.Check = boolFlag(cmd.Flags(), "check")

	eff := config.Resolve(opts)
	if err := requireIndex(eff); err != nil {
		return err
	}
	logger.Debug("Formatting repository",
		logger.String("root", eff.RepoRoot),
		logger.String("index", eff.Index))

	results, err := format.Run(eff)
	if err != nil {
		return &codedError{err: err, code: exitcode.ConfigError}
	}
	if err := output.PrintFormat(cmd.OutOrStdout(), eff.Output, results, eff.Diff); err != nil {
		return err
	}

	if eff.Check {
		for _, r := range results {
			if r.Changed {
				os.Exit(exitcode.GeneralError)
			}
		}
	}
	return nil
}
