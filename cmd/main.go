package cmd

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/gllvm/build-tools/pkg/dist"
)

var exitCode int

var rootCmd = &cobra.Command{
	Use:   "dist",
	Short: "Builds gllvm release binaries for all supported platforms",
	Long: `This command cross-compiles the gllvm binaries for every supported
OS/architecture combination and can optionally pack the results into one
archive per platform.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := cmd.Flags().GetBool("list")
		if err != nil {
			return err
		}
		if list {
			printCatalogs()
			return nil
		}

		manifest, err := dist.LoadManifest(dist.ManifestName)
		if err != nil {
			return err
		}

		cfg := dist.DefaultConfig(manifest)
		cfg.Clean, err = cmd.Flags().GetBool("clean")
		if err != nil {
			return err
		}
		cfg.Archives, err = cmd.Flags().GetBool("archives")
		if err != nil {
			return err
		}
		cfg.NoCompress, err = cmd.Flags().GetBool("no-compress")
		if err != nil {
			return err
		}
		cfg.Platform, err = cmd.Flags().GetString("platform")
		if err != nil {
			return err
		}
		cfg.Binary, err = cmd.Flags().GetString("binary")
		if err != nil {
			return err
		}

		err = cfg.Validate()
		if err != nil {
			return err
		}

		logger := zerolog.New(NewConsoleWriter())
		ctx := dist.WithLogger(context.Background(), &logger)

		summary, err := dist.Run(ctx, cfg)
		if err != nil {
			return err
		}

		dist.PrintSummary(cfg, summary)
		exitCode = summary.FailureCount()
		return nil
	},
}

func init() {
	rootCmd.Flags().BoolP("list", "l", false, "list the supported platforms and binaries")
	rootCmd.Flags().BoolP("clean", "c", false, "remove the build directory before building")
	rootCmd.Flags().BoolP("archives", "a", false, "create one archive per platform after building")
	rootCmd.Flags().StringP("platform", "p", "", "build only for the given os/arch pair")
	rootCmd.Flags().StringP("binary", "b", "", "build only the given binary")
	rootCmd.Flags().Bool("no-compress", false, "keep symbols and debug info (skip -s -w)")
}

// Execute runs the CLI and returns the process exit status. After a build
// run that status is the number of failed matrix cells.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		return 1
	}
	return exitCode
}
