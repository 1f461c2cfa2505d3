package dist

import (
	"io/ioutil"
	"os"
	"os/exec"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Config carries everything a build run needs. The build invoker never
// reads the process environment directly; whatever influences a build has
// to end up in here first.
type Config struct {
	// BuildDir is the root directory for all build output.
	BuildDir string
	// Version is embedded into every binary and into archive names.
	Version string

	Clean      bool
	Archives   bool
	NoCompress bool

	// TarFormat selects the archive encoding for non-Windows platforms,
	// either "tar.gz" or "tar.xz". Windows always gets a zip.
	TarFormat string

	// Platform and Binary narrow the build matrix to a single row or
	// column when non-empty.
	Platform string
	Binary   string

	// Env holds additional environment variables for every compiler
	// invocation, typically from the manifest.
	Env map[string]string

	// Runner executes external commands. Defaults to the real toolchain
	// when nil; tests inject their own.
	Runner CommandRunner
}

// Manifest is the optional dist.yml file next to the working directory.
// All fields override the built-in defaults but lose against explicit
// environment variables and flags.
type Manifest struct {
	BuildDir  string            `yaml:"buildDir,omitempty"`
	Version   string            `yaml:"version,omitempty"`
	TarFormat string            `yaml:"tarFormat,omitempty"`
	Env       map[string]string `yaml:"env,omitempty"`
}

// ManifestName is the file LoadManifest looks for in the working directory.
const ManifestName = "dist.yml"

// LoadManifest reads and parses the manifest at path. A missing file is not
// an error and yields a nil manifest.
func LoadManifest(path string) (*Manifest, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		if eris.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "Could not open file %s.", path)
	}

	var m Manifest
	err = yaml.Unmarshal(data, &m)
	if err != nil {
		return nil, eris.Wrapf(err, "Failed to parse %s.", path)
	}

	if m.TarFormat != "" && m.TarFormat != "tar.gz" && m.TarFormat != "tar.xz" {
		return nil, eris.Errorf("%s: tarFormat must be tar.gz or tar.xz, not %s", path, m.TarFormat)
	}

	return &m, nil
}

// DefaultConfig assembles a Config from the built-in defaults, the given
// manifest (may be nil) and the VERSION / BUILD_DIR environment variables.
func DefaultConfig(manifest *Manifest) Config {
	cfg := Config{
		BuildDir:  "./build",
		Version:   "",
		TarFormat: "tar.gz",
		Env:       map[string]string{},
	}

	if manifest != nil {
		if manifest.BuildDir != "" {
			cfg.BuildDir = manifest.BuildDir
		}
		if manifest.Version != "" {
			cfg.Version = manifest.Version
		}
		if manifest.TarFormat != "" {
			cfg.TarFormat = manifest.TarFormat
		}
		for name, value := range manifest.Env {
			cfg.Env[name] = value
		}
	}

	if dir := os.Getenv("BUILD_DIR"); dir != "" {
		cfg.BuildDir = dir
	}
	if version := os.Getenv("VERSION"); version != "" {
		cfg.Version = version
	}
	if cfg.Version == "" {
		cfg.Version = describeVersion()
	}

	return cfg
}

// describeVersion asks Git for a human-readable description of the current
// checkout and falls back to "dev" if that fails (no repo, no git binary).
func describeVersion() string {
	out, err := exec.Command("git", "describe", "--tags", "--always", "--dirty").Output()
	if err != nil {
		return "dev"
	}

	version := strings.TrimSpace(string(out))
	if version == "" {
		return "dev"
	}
	return version
}

// Validate checks the platform and binary selections against the static
// catalogs. It has to run before anything touches the filesystem.
func (cfg *Config) Validate() error {
	if cfg.Platform != "" {
		if _, ok := FindPlatform(cfg.Platform); !ok {
			return eris.Errorf("unknown platform %s (run with --list to see all supported platforms)", cfg.Platform)
		}
	}

	if cfg.Binary != "" && !ValidBinary(cfg.Binary) {
		return eris.Errorf("unknown binary %s (run with --list to see all supported binaries)", cfg.Binary)
	}

	if cfg.TarFormat != "tar.gz" && cfg.TarFormat != "tar.xz" {
		return eris.Errorf("unsupported tar format %s", cfg.TarFormat)
	}

	return nil
}

// SelectedPlatforms returns the platforms this run builds for, in catalog
// order, narrowed to one entry if a platform was selected.
func (cfg *Config) SelectedPlatforms() []Platform {
	if cfg.Platform != "" {
		p, ok := FindPlatform(cfg.Platform)
		if ok {
			return []Platform{p}
		}
		return nil
	}
	return Platforms
}

// SelectedBinaries returns the binaries this run builds, in catalog order,
// narrowed to one entry if a binary was selected.
func (cfg *Config) SelectedBinaries() []string {
	if cfg.Binary != "" {
		if ValidBinary(cfg.Binary) {
			return []string{cfg.Binary}
		}
		return nil
	}
	return Binaries
}
