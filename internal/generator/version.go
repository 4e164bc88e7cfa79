package generator

import (
	"fmt"
	"os"
	"regexp"

	"github.com/Masterminds/semver/v3"

	"github.com/gazebo-tooling/gz-vendor/internal/models"
)

// Version is the numeric part of an upstream version, split for the
// build descriptor's satisfied-version check.
type Version struct {
	Major uint64
	Minor uint64
	Patch uint64
}

// SplitVersion splits a bare MAJOR.MINOR.PATCH version into its
// numeric components. Prerelease and build metadata are rejected; the
// suffix rides in separately (see SuffixFromCMake).
func SplitVersion(version string) (Version, error) {
	v, err := semver.StrictNewVersion(version)
	if err != nil {
		return Version{}, fmt.Errorf("invalid version %q: %w", version, err)
	}
	if v.Prerelease() != "" || v.Metadata() != "" {
		return Version{}, fmt.Errorf("invalid version %q: expected MAJOR.MINOR.PATCH", version)
	}
	return Version{Major: v.Major(), Minor: v.Minor(), Patch: v.Patch()}, nil
}

// suffixRe finds a prerelease marker on the VERSION_SUFFIX line of an
// upstream CMakeLists.txt, e.g. `set (PROJECT_VERSION_SUFFIX pre1)`.
var suffixRe = regexp.MustCompile(`VERSION_SUFFIX.* (pre\d*)`)

// SuffixFromCMake extracts the prerelease suffix declared in the
// upstream CMakeLists.txt next to the manifest. The suffix is returned
// with a leading hyphen, ready to append to a version; packages without
// one yield an empty string.
func SuffixFromCMake(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", &models.VendorError{
			Type: models.ErrNotFound,
			Path: path,
			Err:  err,
		}
	}
	return SuffixFromData(data), nil
}

// SuffixFromData is SuffixFromCMake for content already in memory,
// e.g. a CMakeLists.txt pulled out of a source archive.
func SuffixFromData(data []byte) string {
	if m := suffixRe.FindSubmatch(data); m != nil {
		return "-" + string(m[1])
	}
	return ""
}
