package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nazahex/rigra/internal/config"
	"github.com/nazahex/rigra/internal/conv"
	"github.com/nazahex/rigra/pkg/exitcode"
	"github.com/nazahex/rigra/pkg/logger"
)

// convCmd groups convention bundle management.
var convCmd = &cobra.Command{
	Use:   "conv",
	Short: "Manage convention bundles",
	Long: `Convention bundles package an index and its policy files as a tar.gz
archive. Bundles install into .rigra/conv/ and are addressed by
conv:name@ver[:subpath] references.`,
}

var convInstallCmd = &cobra.Command{
	Use:   "install <name@ver>",
	Short: "Install a convention bundle into the cache",
	Args:  cobra.ExactArgs(1),
	RunE:  runConvInstall,
}

var convLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List installed convention bundles",
	RunE:  runConvLs,
}

var convPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove the whole bundle cache",
	RunE:  runConvPrune,
}

var convPathCmd = &cobra.Command{
	Use:   "path <conv:name@ver[:subpath]>",
	Short: "Print the on-disk path of a bundle reference",
	Args:  cobra.ExactArgs(1),
	RunE:  runConvPath,
}

func init() {
	convInstallCmd.Flags().String("source", "", "Bundle source (gh:owner/repo@tag or file:/path.tar.gz)")
	convCmd.AddCommand(convInstallCmd)
	convCmd.AddCommand(convLsCmd)
	convCmd.AddCommand(convPruneCmd)
	convCmd.AddCommand(convPathCmd)
}

func runConvInstall(cmd *cobra.Command, args []string) error {
	eff := config.Resolve(config.Options{})
	nameVer := args[0]

	source, _ := cmd.Flags().GetString("source")
	if source == "" {
		source = eff.Conv.Source
	}
	if source == "" {
		return &codedError{
			err:  errors.New("no source given: pass --source or set conv.source in rigra.toml"),
			code: exitcode.ConfigError,
		}
	}

	dir, err := conv.Install(eff.RepoRoot, nameVer, source)
	if err != nil {
		return &codedError{err: err, code: exitcode.NetworkError}
	}
	logger.Info("Installed convention bundle", logger.String("bundle", nameVer))
	cmd.Println(dir)
	return nil
}

func runConvLs(cmd *cobra.Command, _ []string) error {
	eff := config.Resolve(config.Options{})
	bundles := conv.List(eff.RepoRoot)
	if len(bundles) == 0 {
		cmd.Println("No bundles installed")
		return nil
	}
	for _, b := range bundles {
		cmd.Println(b)
	}
	return nil
}

func runConvPrune(cmd *cobra.Command, _ []string) error {
	eff := config.Resolve(config.Options{})
	if err := conv.Prune(eff.RepoRoot); err != nil {
		return &codedError{err: err, code: exitcode.FileSystemError}
	}
	cmd.Println("Pruned", conv.CacheDir(eff.RepoRoot))
	return nil
}

func runConvPath(cmd *cobra.Command, args []string) error {
	eff := config.Resolve(config.Options{})
	ref, ok := conv.ParseRef(args[0])
	if !ok {
		return &codedError{
			err:  fmt.Errorf("invalid reference %q (want conv:name@ver[:subpath])", args[0]),
			code: exitcode.ConfigError,
		}
	}
	cmd.Println(conv.ResolvePath(eff.RepoRoot, ref))
	return nil
}
