package dist

import (
	"archive/tar"
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/klauspost/compress/gzip"
	"github.com/rotisserie/eris"
	"github.com/schollz/progressbar/v3"
	"github.com/ulikunitz/xz"
)

func getProgressBar(length int64, desc string) *progressbar.ProgressBar {
	if os.Getenv("CI") == "true" {
		return progressbar.NewOptions64(length, progressbar.OptionSetVisibility(false))
	}

	return progressbar.DefaultBytes(length, desc)
}

// archivePlatform packs every regular file in the platform's output
// directory into <buildDir>/gllvm_<version>_<os>_<arch>.<ext>. A platform
// that was never built (its output directory is missing) is skipped with a
// warning; that is not an error. Anything else that goes wrong is.
func archivePlatform(ctx context.Context, cfg Config, platform Platform) error {
	srcDir := filepath.Join(cfg.BuildDir, platform.Dir())
	_, err := os.Stat(srcDir)
	if err != nil {
		if eris.Is(err, os.ErrNotExist) {
			log(ctx).Warn().
				Str("platform", platform.String()).
				Msgf("no output directory %s, skipping archive", srcDir)
			return nil
		}
		return eris.Wrapf(err, "Failed to check %s", srcDir)
	}

	ext := cfg.TarFormat
	if platform.OS == "windows" {
		ext = "zip"
	}

	name := fmt.Sprintf("gllvm_%s_%s.%s", cfg.Version, platform.Dir(), ext)
	dest := filepath.Join(cfg.BuildDir, name)

	entries, total, err := listArchiveFiles(srcDir)
	if err != nil {
		return err
	}

	PrintSubtask(fmt.Sprintf("%s: %s", platform, dest))
	bar := getProgressBar(total, "      archive")
	defer bar.Finish()

	switch ext {
	case "zip":
		err = writeZip(dest, srcDir, entries, bar)
	default:
		err = writeTar(dest, srcDir, entries, ext, bar)
	}
	if err != nil {
		// don't leave a half-written archive behind
		os.Remove(dest)
		return eris.Wrapf(err, "Failed to create archive %s", dest)
	}

	return nil
}

// listArchiveFiles collects the regular files directly inside dir along
// with their combined size.
func listArchiveFiles(dir string) ([]os.FileInfo, int64, error) {
	hdl, err := os.Open(dir)
	if err != nil {
		return nil, 0, eris.Wrapf(err, "Failed to open dir %s", dir)
	}

	infos, err := hdl.Readdir(0)
	hdl.Close()
	if err != nil {
		return nil, 0, eris.Wrapf(err, "Failed to read dir %s", dir)
	}

	files := make([]os.FileInfo, 0, len(infos))
	var total int64
	for _, info := range infos {
		if !info.Mode().IsRegular() {
			continue
		}
		files = append(files, info)
		total += info.Size()
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name() < files[j].Name() })
	return files, total, nil
}

func writeZip(dest, srcDir string, files []os.FileInfo, bar *progressbar.ProgressBar) error {
	hdl, err := os.Create(dest)
	if err != nil {
		return eris.Wrapf(err, "Failed to create %s", dest)
	}

	archive := zip.NewWriter(hdl)
	for _, info := range files {
		header, err := zip.FileInfoHeader(info)
		if err != nil {
			hdl.Close()
			return eris.Wrapf(err, "Failed to build header for %s", info.Name())
		}
		header.Method = zip.Deflate

		entry, err := archive.CreateHeader(header)
		if err != nil {
			hdl.Close()
			return eris.Wrapf(err, "Failed to add %s", info.Name())
		}

		err = copyFileInto(entry, filepath.Join(srcDir, info.Name()), bar)
		if err != nil {
			hdl.Close()
			return err
		}
	}

	err = archive.Close()
	if err != nil {
		hdl.Close()
		return eris.Wrapf(err, "Failed to finish %s", dest)
	}
	return hdl.Close()
}

func writeTar(dest, srcDir string, files []os.FileInfo, format string, bar *progressbar.ProgressBar) error {
	hdl, err := os.Create(dest)
	if err != nil {
		return eris.Wrapf(err, "Failed to create %s", dest)
	}

	var compressor io.WriteCloser
	switch format {
	case "tar.xz":
		compressor, err = xz.NewWriter(hdl)
		if err != nil {
			hdl.Close()
			return eris.Wrap(err, "Failed to initialize xz writer")
		}
	default:
		compressor = gzip.NewWriter(hdl)
	}

	archive := tar.NewWriter(compressor)
	for _, info := range files {
		header, err := tar.FileInfoHeader(info, "")
		if err != nil {
			hdl.Close()
			return eris.Wrapf(err, "Failed to build header for %s", info.Name())
		}

		err = archive.WriteHeader(header)
		if err != nil {
			hdl.Close()
			return eris.Wrapf(err, "Failed to add %s", info.Name())
		}

		err = copyFileInto(archive, filepath.Join(srcDir, info.Name()), bar)
		if err != nil {
			hdl.Close()
			return err
		}
	}

	err = archive.Close()
	if err != nil {
		hdl.Close()
		return eris.Wrapf(err, "Failed to finish %s", dest)
	}

	err = compressor.Close()
	if err != nil {
		hdl.Close()
		return eris.Wrapf(err, "Failed to flush %s", dest)
	}
	return hdl.Close()
}

func copyFileInto(w io.Writer, path string, bar *progressbar.ProgressBar) error {
	hdl, err := os.Open(path)
	if err != nil {
		return eris.Wrapf(err, "Failed to open %s", path)
	}
	defer hdl.Close()

	_, err = io.Copy(io.MultiWriter(w, bar), hdl)
	if err != nil {
		return eris.Wrapf(err, "Failed to pack %s", path)
	}

	return nil
}
