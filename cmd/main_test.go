package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/spf13/pflag"
)

// inTempDir moves the test into a fresh directory and restores the CLI
// state afterwards (flag values stick to the command between runs).
func inTempDir(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(tmp); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		os.Chdir(wd)
		exitCode = 0
		rootCmd.Flags().VisitAll(func(f *pflag.Flag) {
			f.Value.Set(f.DefValue)
			f.Changed = false
		})
	})
	return tmp
}

func TestListExitsCleanly(t *testing.T) {
	tmp := inTempDir(t)

	rootCmd.SetArgs([]string{"--list"})
	code := Execute()
	if code != 0 {
		t.Errorf("expected exit code 0, got %d", code)
	}

	if _, err := os.Stat(filepath.Join(tmp, "build")); !eris.Is(err, os.ErrNotExist) {
		t.Error("--list must not create the build directory")
	}
}

func TestInvalidPlatformFails(t *testing.T) {
	tmp := inTempDir(t)

	rootCmd.SetArgs([]string{"--platform", "bogus/os"})
	code := Execute()
	if code == 0 {
		t.Error("expected a non-zero exit code")
	}

	if _, err := os.Stat(filepath.Join(tmp, "build")); !eris.Is(err, os.ErrNotExist) {
		t.Error("a validation error must not create the build directory")
	}
}

func TestUnknownFlagFails(t *testing.T) {
	inTempDir(t)

	// cobra sends the error and the usage text through different writers
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})

	rootCmd.SetArgs([]string{"--definitely-not-a-flag"})
	code := Execute()
	if code == 0 {
		t.Error("expected a non-zero exit code")
	}

	if !strings.Contains(out.String(), "unknown flag") {
		t.Errorf("expected an error message, got %q", out.String())
	}
	if !strings.Contains(out.String(), "Usage:") {
		t.Errorf("expected the usage text, got %q", out.String())
	}
}

func TestPlatformFlagWithoutValueFails(t *testing.T) {
	tmp := inTempDir(t)

	rootCmd.SetArgs([]string{"--platform"})
	code := Execute()
	if code == 0 {
		t.Error("expected a non-zero exit code")
	}

	if _, err := os.Stat(filepath.Join(tmp, "build")); !eris.Is(err, os.ErrNotExist) {
		t.Error("a missing flag value must not create the build directory")
	}
}
