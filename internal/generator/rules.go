package generator

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/gazebo-tooling/gz-vendor/internal/config"
	"github.com/gazebo-tooling/gz-vendor/internal/models"
)

// baseNameRe splits a package name like "gz-math7" into the base name
// and the trailing major version digits.
var baseNameRe = regexp.MustCompile(`^([-_a-z]*)(\d*)`)

// BaseName strips the trailing major version from an upstream package
// name: "gz-math7" -> ("gz-math", "7"), "sdformat14" -> ("sdformat", "14").
// Names without a trailing version return an empty major.
func BaseName(name string) (base, major string) {
	m := baseNameRe.FindStringSubmatch(name)
	return m[1], m[2]
}

// CMakeName maps a base name to the name its CMake config is exported
// under. gz-fuel-tools is the one library whose CMake package name
// differs from its deb package name.
func CMakeName(base string) string {
	if base == "gz-fuel-tools" {
		return "gz-fuel_tools"
	}
	return base
}

// GithubName maps a base name to its repository name on GitHub.
// gz-fuel_tools is hosted as gz-fuel-tools.
func GithubName(base string) string {
	if base == "gz-fuel_tools" {
		return "gz-fuel-tools"
	}
	return base
}

var designatorRe = regexp.MustCompile(`^gz-(.*)`)

// Designator extracts the short library designator used in environment
// hook names: "gz-math" -> "math", "sdformat" -> "sdformat".
func Designator(base string) (string, error) {
	if m := designatorRe.FindStringSubmatch(base); m != nil {
		return m[1], nil
	}
	if base == "sdformat" {
		return "sdformat", nil
	}
	return "", fmt.Errorf("could not extract designator from package name %q", base)
}

// HasExtraCMake reports whether the vendor package installs an extras
// cmake file. gz-tools and gz-cmake have none.
func HasExtraCMake(base string) bool {
	return base != "gz-tools" && base != "gz-cmake"
}

// HasDsv reports whether the vendor package installs dsv/sh environment
// hooks. gz-tools and gz-cmake have none.
func HasDsv(base string) bool {
	return base != "gz-tools" && base != "gz-cmake"
}

// HasPatches reports whether the vendor package carries a patches
// directory applied on top of the upstream sources.
func HasPatches(base, major string) bool {
	if base == "gz-cmake" && atoi(major) < 4 {
		return true
	}
	return base == "gz-rendering"
}

// HasSwig reports whether the upstream build has SWIG bindings that the
// vendor package must skip.
func HasSwig(base string) bool {
	return base == "gz-math"
}

// HasPybind11 reports whether the upstream build has pybind11 bindings
// that the vendor package must skip.
func HasPybind11(base string) bool {
	switch base {
	case "gz-math", "sdformat", "gz-transport", "gz-sim":
		return true
	}
	return false
}

// HasDocs reports whether the upstream build understands BUILD_DOCS.
func HasDocs(base string) bool {
	return base != "sdformat"
}

// BuildDocsDeprecated reports whether the upstream dropped the
// BUILD_DOCS CMake option, which happened with gz-cmake4. True when the
// package is gz-cmake4+ itself or build-depends on it.
func BuildDocsDeprecated(m *models.Manifest) bool {
	if isGzCmake4(m.Name) {
		return true
	}
	for _, dep := range m.BuildDepends {
		if isGzCmake4(dep.Name) {
			return true
		}
	}
	for _, dep := range m.Depends {
		if isGzCmake4(dep.Name) {
			return true
		}
	}
	return false
}

func isGzCmake4(name string) bool {
	base, major := BaseName(name)
	return base == "gz-cmake" && atoi(major) >= 4
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

// Classifier applies the configured naming and vendoring rules to
// dependencies. It never mutates the manifests it is given.
type Classifier struct {
	suffix     string
	vendored   map[string]struct{}
	extra      map[string]string
	disallowed map[string]struct{}
}

// NewClassifier builds a Classifier from the loaded rules.
func NewClassifier(cfg *config.Rules) *Classifier {
	c := &Classifier{
		suffix:     cfg.VendorSuffix,
		vendored:   make(map[string]struct{}, len(cfg.VendoredLibraries)),
		extra:      make(map[string]string, len(cfg.ExtraVendored)),
		disallowed: make(map[string]struct{}, len(cfg.DisallowedDependencies)),
	}
	for _, lib := range cfg.VendoredLibraries {
		c.vendored[lib] = struct{}{}
	}
	for name, vendor := range cfg.ExtraVendored {
		c.extra[name] = vendor
	}
	for _, name := range cfg.DisallowedDependencies {
		c.disallowed[name] = struct{}{}
	}
	return c
}

// VendorName derives the vendor package name from a base name:
// hyphens become underscores and the configured suffix is appended,
// e.g. "gz-math" -> "gz_math_vendor".
func (c *Classifier) VendorName(base string) string {
	out := make([]byte, 0, len(base)+len(c.suffix))
	for i := 0; i < len(base); i++ {
		if base[i] == '-' {
			out = append(out, '_')
			continue
		}
		out = append(out, base[i])
	}
	return string(out) + c.suffix
}

// IsVendored reports whether a dependency name refers to a library that
// is replaced by its vendor package.
func (c *Classifier) IsVendored(name string) bool {
	if _, ok := c.extra[name]; ok {
		return true
	}
	base, _ := BaseName(name)
	_, ok := c.vendored[base]
	return ok
}

// Vendorize returns the dependency renamed to its vendor package,
// keeping condition and version attributes.
func (c *Classifier) Vendorize(dep models.Dependency) models.Dependency {
	out := dep
	if vendor, ok := c.extra[dep.Name]; ok {
		out.Name = vendor
		return out
	}
	base, _ := BaseName(dep.Name)
	out.Name = c.VendorName(base)
	return out
}

// IsDisallowed reports whether a dependency is on the disallow list.
func (c *Classifier) IsDisallowed(name string) bool {
	_, ok := c.disallowed[name]
	return ok
}

// FilterDisallowed returns a copy of the manifest with disallowed
// dependencies removed from every group.
func (c *Classifier) FilterDisallowed(m *models.Manifest) *models.Manifest {
	out := *m
	filter := func(deps []models.Dependency) []models.Dependency {
		var kept []models.Dependency
		for _, dep := range deps {
			if !c.IsDisallowed(dep.Name) {
				kept = append(kept, dep)
			}
		}
		return kept
	}
	out.Depends = filter(m.Depends)
	out.BuildDepends = filter(m.BuildDepends)
	out.BuildtoolDepends = filter(m.BuildtoolDepends)
	out.BuildExportDepends = filter(m.BuildExportDepends)
	out.BuildtoolExportDepends = filter(m.BuildtoolExportDepends)
	out.ExecDepends = filter(m.ExecDepends)
	out.TestDepends = filter(m.TestDepends)
	out.DocDepends = filter(m.DocDepends)
	return &out
}

// SplitVendored separates the vendored dependencies out of the groups
// that can carry them (depend, build, exec, test, doc) and returns them
// as one renamed list for the vendor manifest's <depend> block, first
// occurrence order, duplicates collapsed. The returned manifest copy
// keeps only the non-vendored dependencies, in their original groups
// and order, duplicates preserved.
func (c *Classifier) SplitVendored(m *models.Manifest) ([]models.Dependency, *models.Manifest) {
	out := *m

	var vendored []models.Dependency
	split := func(deps []models.Dependency) []models.Dependency {
		var rest []models.Dependency
		for _, dep := range deps {
			if c.IsVendored(dep.Name) {
				vendored = append(vendored, c.Vendorize(dep))
				continue
			}
			rest = append(rest, dep)
		}
		return rest
	}

	out.Depends = split(m.Depends)
	out.BuildDepends = split(m.BuildDepends)
	out.ExecDepends = split(m.ExecDepends)
	out.TestDepends = split(m.TestDepends)
	out.DocDepends = split(m.DocDepends)

	return stableUnique(vendored), &out
}

// stableUnique drops exact duplicates, keeping first occurrence order.
// Dependencies that differ only in condition or version constraints are
// both kept.
func stableUnique(deps []models.Dependency) []models.Dependency {
	seen := make(map[models.Dependency]struct{}, len(deps))
	var unique []models.Dependency
	for _, dep := range deps {
		if _, ok := seen[dep]; ok {
			continue
		}
		seen[dep] = struct{}{}
		unique = append(unique, dep)
	}
	return unique
}
