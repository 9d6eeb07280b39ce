package cmd

import (
	"encoding/json"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/nazahex/rigra/internal/config"
	"github.com/nazahex/rigra/internal/conv"
	"github.com/nazahex/rigra/pkg/buildinfo"
)

// envinfoCmd reports the environment rigra resolved for the current
// directory: repository root, index, scope, and installed bundles. Useful
// when a CI run behaves differently from a local one.
var envinfoCmd = &cobra.Command{
	Use:   "envinfo",
	Short: "Show resolved environment and configuration",
	RunE:  runEnvinfo,
}

func init() {
	envinfoCmd.Flags().Bool("json", false, "Output environment information in JSON format")
}

type envData struct {
	Version   string   `json:"version"`
	Platform  string   `json:"platform"`
	WorkDir   string   `json:"workDir"`
	RepoRoot  string   `json:"repoRoot"`
	Index     string   `json:"index"`
	HasIndex  bool     `json:"hasIndex"`
	Scope     string   `json:"scope"`
	Output    string   `json:"output"`
	Bundles   []string `json:"bundles"`
	CacheDir  string   `json:"cacheDir"`
	GoVersion string   `json:"goVersion"`
}

func runEnvinfo(cmd *cobra.Command, _ []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")

	wd, _ := os.Getwd()
	eff := config.Resolve(config.Options{})

	data := envData{
		Version:   buildinfo.BinaryVersion,
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
		WorkDir:   wd,
		RepoRoot:  eff.RepoRoot,
		Index:     eff.Index,
		HasIndex:  eff.IndexConfigured,
		Scope:     eff.Scope,
		Output:    eff.Output,
		Bundles:   conv.List(eff.RepoRoot),
		CacheDir:  conv.CacheDir(eff.RepoRoot),
		GoVersion: runtime.Version(),
	}

	if asJSON {
		out, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return err
		}
		cmd.Println(string(out))
		return nil
	}

	cmd.Printf("rigra %s (%s)\n", data.Version, data.Platform)
	cmd.Printf("  workdir:  %s\n", data.WorkDir)
	cmd.Printf("  root:     %s\n", data.RepoRoot)
	if data.HasIndex {
		cmd.Printf("  index:    %s\n", data.Index)
	} else {
		cmd.Printf("  index:    (none configured)\n")
	}
	cmd.Printf("  scope:    %s\n", data.Scope)
	cmd.Printf("  output:   %s\n", data.Output)
	cmd.Printf("  cache:    %s\n", data.CacheDir)
	if len(data.Bundles) > 0 {
		cmd.Printf("  bundles:\n")
		for _, b := range data.Bundles {
			cmd.Printf("    %s\n", b)
		}
	}
	return nil
}
