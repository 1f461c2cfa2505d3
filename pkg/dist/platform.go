package dist

// Platform identifies one cross-compilation target as an OS/arch pair.
type Platform struct {
	OS   string
	Arch string
}

// String returns the "<os>/<arch>" form used on the CLI and in log output.
func (p Platform) String() string {
	return p.OS + "/" + p.Arch
}

// Dir returns the "<os>_<arch>" form used for output directories and
// archive names.
func (p Platform) Dir() string {
	return p.OS + "_" + p.Arch
}

// Exe appends the Windows executable suffix to name if this platform
// needs one.
func (p Platform) Exe(name string) string {
	if p.OS == "windows" {
		return name + ".exe"
	}
	return name
}

// Platforms lists every supported cross-compilation target in build order.
var Platforms = []Platform{
	{"linux", "amd64"},
	{"linux", "arm64"},
	{"linux", "386"},
	{"darwin", "amd64"},
	{"darwin", "arm64"},
	{"windows", "amd64"},
	{"freebsd", "amd64"},
}

// Binaries lists the commands this tool can build, in build order. Each
// entry corresponds to one command package in the source tree.
var Binaries = []string{
	"gclang",
	"gclang++",
	"gflang",
	"get-bc",
	"gparse",
	"gsanity-check",
}

// FindPlatform looks up a "<os>/<arch>" spec in the platform catalog.
// The match is exact and case-sensitive.
func FindPlatform(spec string) (Platform, bool) {
	for _, p := range Platforms {
		if p.String() == spec {
			return p, true
		}
	}
	return Platform{}, false
}

// ValidBinary reports whether name appears in the binary catalog.
func ValidBinary(name string) bool {
	for _, b := range Binaries {
		if b == name {
			return true
		}
	}
	return false
}
