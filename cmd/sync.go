package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nazahex/rigra/internal/config"
	"github.com/nazahex/rigra/internal/index"
	"github.com/nazahex/rigra/internal/output"
	syncengine "github.com/nazahex/rigra/internal/sync"
	"github.com/nazahex/rigra/pkg/exitcode"
	"github.com/nazahex/rigra/pkg/logger"
)

// syncCmd represents the sync command
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Apply template synchronization rules",
	Long: `Sync brings declared targets up to date with their template sources:
structural merges for json rules with a merge config, byte copies for the
rest. The default is a dry run; pass --write (or set sync.write in
rigra.toml) to apply, or --check for a CI gate.`,
	RunE: runSync,
}

func init() {
	addCommonFlags(syncCmd)
	syncCmd.Flags().BoolP("write", "w", false, "Write changes to disk")
	syncCmd.Flags().Bool("dry-run", false, "Report pending writes without applying them")
	syncCmd.Flags().Bool("check", false, "Exit non-zero if any target is behind")
}

func runSync(cmd *cobra.Command, _ []string) error {
	eff := config.Resolve(resolveCommon(cmd))
	if err := requireIndex(eff); err != nil {
		return err
	}

	cliWrite := boolFlag(cmd.Flags(), "write")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	check, _ := cmd.Flags().GetBool("check")

	write := eff.SyncWrite
	if cliWrite != nil {
		write = *cliWrite
	}
	if dryRun || check {
		write = false
	}

	indexPath := eff.IndexPath()
	idx, err := index.Load(indexPath)
	if err != nil {
		return &codedError{err: err, code: exitcode.ConfigError}
	}
	logger.Debug("Syncing repository",
		logger.String("root", eff.RepoRoot),
		logger.String("index", filepath.ToSlash(eff.Index)),
		logger.String("scope", eff.Scope),
		logger.Bool("write", write))

	actions := syncengine.Run(eff, idx, indexPath, write)
	if err := output.PrintSync(cmd.OutOrStdout(), eff.Output, actions); err != nil {
		return err
	}

	if check {
		for _, a := range actions {
			if a.WouldWrite {
				os.Exit(exitcode.GeneralError)
			}
		}
	}
	return nil
}
