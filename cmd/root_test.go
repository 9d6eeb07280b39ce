package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/nazahex/rigra/pkg/exitcode"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	registerSubcommands(cmd)
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.Contains(out, "rigra dev") {
		t.Errorf("output = %q", out)
	}
}

func TestVersionCommandJSON(t *testing.T) {
	out, err := execute(t, "version", "--json", "--extended")
	if err != nil {
		t.Fatalf("version --json failed: %v", err)
	}
	var decoded struct {
		Version   string `json:"version"`
		GoVersion string `json:"goVersion"`
		Platform  string `json:"platform"`
	}
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if decoded.Version != "dev" || decoded.Platform == "" {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestNoColorFlagDisablesRenderers(t *testing.T) {
	prev := color.NoColor
	t.Cleanup(func() { color.NoColor = prev })
	color.NoColor = false

	if _, err := execute(t, "--no-color", "version"); err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !color.NoColor {
		t.Error("--no-color left the color package enabled")
	}
}

func TestConvPathCommand(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "rigra.toml"), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	t.Chdir(root)

	out, err := execute(t, "conv", "path", "conv:acme@1.0.0")
	if err != nil {
		t.Fatalf("conv path failed: %v", err)
	}
	want := filepath.Join(".rigra", "conv", "acme@1.0.0", "index.toml")
	if !strings.Contains(out, want) {
		t.Errorf("output = %q, want suffix %q", out, want)
	}
}

func TestConvPathRejectsBadRef(t *testing.T) {
	if _, err := execute(t, "conv", "path", "not-a-ref"); err == nil {
		t.Fatal("bad reference accepted")
	}
}

func TestConvInstallRequiresSource(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "rigra.toml"), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	t.Chdir(root)

	_, err := execute(t, "conv", "install", "acme@1.0.0")
	if err == nil {
		t.Fatal("install without source accepted")
	}
	if exitCodeFor(err) != exitcode.ConfigError {
		t.Errorf("exit code = %d, want %d", exitCodeFor(err), exitcode.ConfigError)
	}
}

func TestLintRequiresIndex(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "rigra.toml"), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	t.Chdir(root)

	_, err := execute(t, "lint")
	if err == nil {
		t.Fatal("lint without index succeeded")
	}
	if exitCodeFor(err) != exitcode.ConfigError {
		t.Errorf("exit code = %d, want %d", exitCodeFor(err), exitcode.ConfigError)
	}
}

func TestExitCodeFor(t *testing.T) {
	plain := errors.New("boom")
	if got := exitCodeFor(plain); got != exitcode.GeneralError {
		t.Errorf("plain error code = %d", got)
	}
	coded := &codedError{err: plain, code: exitcode.NetworkError}
	if got := exitCodeFor(coded); got != exitcode.NetworkError {
		t.Errorf("coded error code = %d", got)
	}
	if coded.Error() != "boom" {
		t.Errorf("Error() = %q", coded.Error())
	}
	if !errors.Is(coded, plain) {
		t.Error("Unwrap chain broken")
	}
}
