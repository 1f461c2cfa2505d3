package dist

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"

	"github.com/rotisserie/eris"
)

// CommandRunner executes one external command with the given extra
// environment variables appended to the process environment. The default
// implementation shells out to the Go toolchain; tests swap in a fake.
type CommandRunner func(ctx context.Context, name string, args []string, env []string) error

func defaultRunner(ctx context.Context, name string, args []string, env []string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = append(os.Environ(), env...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// Summary accumulates the per-cell results of one build run. Attempted and
// Failed cover build cells only; archive errors are tracked separately so
// the build counts stay meaningful when an archive cannot be written.
type Summary struct {
	Attempted     int
	Failed        int
	ArchiveFailed int
}

// Succeeded returns the number of build cells that completed without error.
func (s Summary) Succeeded() int {
	return s.Attempted - s.Failed
}

// FailureCount returns the total number of failures, which doubles as the
// process exit status.
func (s Summary) FailureCount() int {
	return s.Failed + s.ArchiveFailed
}

// Run executes the full build matrix described by cfg: optional clean,
// one compiler invocation per (platform, binary) cell in matrix order and,
// if requested, one archive per platform afterwards. A failed cell never
// aborts the run; it only shows up in the summary. The returned error is
// reserved for failures that happen before any cell runs.
func Run(ctx context.Context, cfg Config) (Summary, error) {
	var summary Summary

	if err := cfg.Validate(); err != nil {
		return summary, err
	}

	if cfg.Clean {
		PrintTask(fmt.Sprintf("Cleaning %s", cfg.BuildDir))
		err := os.RemoveAll(cfg.BuildDir)
		if err != nil {
			return summary, eris.Wrapf(err, "Failed to remove %s", cfg.BuildDir)
		}
	}

	platforms := cfg.SelectedPlatforms()
	binaries := cfg.SelectedBinaries()

	PrintTask(fmt.Sprintf("Building %d binaries for %d platforms (version %s)",
		len(binaries), len(platforms), cfg.Version))

	for _, platform := range platforms {
		for _, binary := range binaries {
			summary.Attempted++

			err := buildCell(ctx, cfg, platform, binary)
			if err != nil {
				summary.Failed++
				log(ctx).Error().
					Err(err).
					Str("platform", platform.String()).
					Str("binary", binary).
					Msg("build failed")
			} else {
				log(ctx).Info().
					Str("platform", platform.String()).
					Str("binary", binary).
					Msg("build ok")
			}
		}
	}

	if cfg.Archives {
		PrintTask("Creating archives")
		for _, platform := range platforms {
			err := archivePlatform(ctx, cfg, platform)
			if err != nil {
				summary.ArchiveFailed++
				log(ctx).Error().
					Err(err).
					Str("platform", platform.String()).
					Msg("archive failed")
			}
		}
	}

	return summary, nil
}

// buildCell compiles one binary for one platform into
// <buildDir>/<os>_<arch>/<binary>.
func buildCell(ctx context.Context, cfg Config, platform Platform, binary string) error {
	outDir := filepath.Join(cfg.BuildDir, platform.Dir())
	err := os.MkdirAll(outDir, 0770)
	if err != nil {
		return eris.Wrapf(err, "Failed to create %s", outDir)
	}

	outPath := filepath.Join(outDir, platform.Exe(binary))

	ldflags := "-X main.version=" + cfg.Version
	if !cfg.NoCompress {
		ldflags += " -s -w"
	}

	env := []string{
		"GOOS=" + platform.OS,
		"GOARCH=" + platform.Arch,
		"CGO_ENABLED=0",
	}
	extra := make([]string, 0, len(cfg.Env))
	for name, value := range cfg.Env {
		extra = append(extra, name+"="+value)
	}
	sort.Strings(extra)
	env = append(env, extra...)

	args := []string{"build", "-o", outPath, "-ldflags", ldflags, "./cmd/" + binary}

	PrintSubtask(fmt.Sprintf("%s: %s", platform, outPath))

	runner := cfg.Runner
	if runner == nil {
		runner = defaultRunner
	}

	err = runner(ctx, "go", args, env)
	if err != nil {
		return eris.Wrapf(err, "Failed to build %s for %s", binary, platform)
	}

	return nil
}
