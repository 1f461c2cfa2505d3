package dist

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/mitchellh/colorstring"
	"github.com/rotisserie/eris"
)

// PrintSummary renders the final report: attempted/succeeded/failed counts
// followed by every regular file below the build directory with its size.
func PrintSummary(cfg Config, summary Summary) {
	colorstring.Println("[blue][bold]========================================")
	colorstring.Println("[blue][bold] Build summary")
	colorstring.Println("[blue][bold]========================================")

	colorstring.Printf("  attempted: %d\n", summary.Attempted)
	colorstring.Printf("  [green]succeeded: %d\n", summary.Succeeded())
	if summary.Failed > 0 {
		colorstring.Printf("  [red]failed:    %d\n", summary.Failed)
	} else {
		colorstring.Printf("  failed:    %d\n", summary.Failed)
	}
	if summary.ArchiveFailed > 0 {
		colorstring.Printf("  [red]archives failed: %d\n", summary.ArchiveFailed)
	}

	files, err := collectOutputFiles(cfg.BuildDir)
	if err != nil {
		PrintWarning(fmt.Sprintf("Could not list %s: %s", cfg.BuildDir, err))
		return
	}

	if len(files) > 0 {
		fmt.Println()
		colorstring.Println("[blue][bold] Artifacts")
		for _, item := range files {
			fmt.Printf("  %-50s %s\n", item.path, humanize.Bytes(uint64(item.size)))
		}
	}
}

type outputFile struct {
	path string
	size int64
}

func collectOutputFiles(buildDir string) ([]outputFile, error) {
	var files []outputFile

	err := filepath.Walk(buildDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(buildDir, path)
		if err != nil {
			rel = path
		}

		files = append(files, outputFile{path: rel, size: info.Size()})
		return nil
	})
	if err != nil {
		if eris.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	return files, nil
}
