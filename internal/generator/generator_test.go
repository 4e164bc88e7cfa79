package generator

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gazebo-tooling/gz-vendor/internal/config"
	"github.com/gazebo-tooling/gz-vendor/internal/manifest"
	"github.com/gazebo-tooling/gz-vendor/internal/models"
)

const gzMathManifest = `<?xml version="1.0"?>
<package format="3">
  <name>gz-math7</name>
  <version>7.2.0</version>
  <description>Gazebo Math</description>
  <maintainer email="maintainer@example.org">Aditya Pande</maintainer>
  <license>Apache License 2.0</license>
  <url type="repository">https://github.com/gazebosim/gz-math</url>
  <author>Nate Koenig</author>
  <buildtool_depend>cmake</buildtool_depend>
  <build_depend version_gte="3.2.0">gz-cmake3</build_depend>
  <build_depend>gz-utils2</build_depend>
  <depend>libeigen3-dev</depend>
  <exec_depend>ruby</exec_depend>
  <test_depend condition="$GZ_ENABLE_TESTS == 1">gtest</test_depend>
  <doc_depend>doxygen</doc_depend>
  <export>
    <build_type>cmake</build_type>
  </export>
</package>
`

func mustParse(t *testing.T, doc string) *models.Manifest {
	t.Helper()
	m, err := manifest.Parse([]byte(doc), "package.xml")
	require.NoError(t, err)
	return m
}

func newGenerator() *Generator {
	return New(config.Default())
}

// TestRenderFileSet checks which files a full render produces and that
// the gated aux files follow the per-package rules.
func TestRenderFileSet(t *testing.T) {
	t.Parallel()

	m := mustParse(t, gzMathManifest)
	files, err := newGenerator().Render(m, models.VendorSpec{})
	require.NoError(t, err)

	require.Equal(t, []string{
		"package.xml",
		"CMakeLists.txt",
		"LICENSE",
		"CONTRIBUTING.md",
		"gz-math-config.cmake.in",
		"gz_math_vendor-extras.cmake.in",
		"gz_math_vendor.dsv.in",
		"gz_math_vendor.sh.in",
	}, files.Paths())
}

// TestRenderVendorManifest checks the generated package.xml: vendor
// naming, verbatim upstream metadata, vendored dependency rewriting and
// the constraint attributes riding along.
func TestRenderVendorManifest(t *testing.T) {
	t.Parallel()

	m := mustParse(t, gzMathManifest)
	files, err := newGenerator().Render(m, models.VendorSpec{})
	require.NoError(t, err)

	pkgXML := string(files.Find("package.xml").Data)

	require.Contains(t, pkgXML, "<name>gz_math_vendor</name>")
	require.Contains(t, pkgXML, "<version>7.2.0</version>")
	require.Contains(t, pkgXML, "Vendor package for: gz-math7 7.2.0")
	require.Contains(t, pkgXML, "<license>Apache License 2.0</license>")
	require.Contains(t, pkgXML, `<maintainer email="maintainer@example.org">Aditya Pande</maintainer>`)
	require.Contains(t, pkgXML, `<url type="repository">https://github.com/gazebosim/gz-math</url>`)
	require.Contains(t, pkgXML, "<author>Nate Koenig</author>")

	// Vendored deps collapse into <depend>, constraints carried along.
	require.Contains(t, pkgXML, `<depend version_gte="3.2.0">gz_cmake_vendor</depend>`)
	require.Contains(t, pkgXML, "<depend>gz_utils_vendor</depend>")
	require.NotContains(t, pkgXML, "gz-cmake3")
	require.NotContains(t, pkgXML, "gz-utils2")

	// Non-vendored deps stay in their original groups.
	require.Contains(t, pkgXML, "<depend>libeigen3-dev</depend>")
	require.Contains(t, pkgXML, "<exec_depend>ruby</exec_depend>")
	require.Contains(t, pkgXML, `<test_depend condition="$GZ_ENABLE_TESTS == 1">gtest</test_depend>`)
	require.Contains(t, pkgXML, "<doc_depend>doxygen</doc_depend>")

	// Wrapper scaffolding.
	require.Contains(t, pkgXML, "<buildtool_depend>ament_cmake</buildtool_depend>")
	require.Contains(t, pkgXML, "<buildtool_depend>ament_cmake_vendor_package</buildtool_depend>")
	require.Contains(t, pkgXML, `<build_depend condition="$GZ_BUILD_FROM_SOURCE == ''">gz-math7</build_depend>`)
	require.Contains(t, pkgXML, "<build_type>ament_cmake</build_type>")
}

// TestRenderedManifestParses feeds the generated vendor package.xml
// back through the reader.
func TestRenderedManifestParses(t *testing.T) {
	t.Parallel()

	m := mustParse(t, gzMathManifest)
	files, err := newGenerator().Render(m, models.VendorSpec{})
	require.NoError(t, err)

	vendor, err := manifest.Parse(files.Find("package.xml").Data, "generated package.xml")
	require.NoError(t, err)
	require.Equal(t, "gz_math_vendor", vendor.Name)
	require.Equal(t, "7.2.0", vendor.Version)
	require.Equal(t, "ament_cmake", vendor.BuildType)
}

// TestRenderBuildDescriptor checks the generated CMakeLists.txt:
// vendor invocation, VCS pin, cmake args and vendored find_package
// lines in first-seen order.
func TestRenderBuildDescriptor(t *testing.T) {
	t.Parallel()

	m := mustParse(t, gzMathManifest)
	files, err := newGenerator().Render(m, models.VendorSpec{})
	require.NoError(t, err)

	cmake := string(files.Find("CMakeLists.txt").Data)

	require.Contains(t, cmake, "project(gz_math_vendor)")
	require.Contains(t, cmake, "ament_vendor(gz_math_vendor")
	require.Contains(t, cmake, "VCS_URL https://github.com/gazebosim/gz-math.git")
	require.Contains(t, cmake, "VCS_VERSION gz-math7_7.2.0")
	require.Contains(t, cmake, "set(LIB_NAME gz-math7)")
	require.Contains(t, cmake, "set(LIB_VERSION 7.2.0)")

	// gz-math skips docs, pybind11 and swig, in that argument order.
	docs := strings.Index(cmake, "-DBUILD_DOCS:BOOL=OFF")
	pybind := strings.Index(cmake, "-DSKIP_PYBIND11:BOOL=ON")
	swig := strings.Index(cmake, "-DSKIP_SWIG:BOOL=ON")
	require.True(t, docs >= 0 && pybind >= 0 && swig >= 0)
	require.Less(t, docs, pybind)
	require.Less(t, pybind, swig)

	// find_package per vendored dep, input order.
	cmakeDep := strings.Index(cmake, "find_package(gz_cmake_vendor QUIET)")
	utilsDep := strings.Index(cmake, "find_package(gz_utils_vendor QUIET)")
	require.True(t, cmakeDep >= 0 && utilsDep >= 0)
	require.Less(t, cmakeDep, utilsDep)

	// gz-math has no patches.
	require.NotContains(t, cmake, "PATCHES")
}

// TestRenderGolden renders a package with the minimal aux file set
// (gz-tools has no extras and no env hooks) and compares both owned
// files byte for byte.
func TestRenderGolden(t *testing.T) {
	t.Parallel()

	doc := `<package format="3">
  <name>gz-tools2</name>
  <version>2.0.1</version>
  <description>Tools</description>
  <maintainer email="j@example.org">Jane</maintainer>
  <license>Apache-2.0</license>
  <buildtool_depend>cmake</buildtool_depend>
  <build_depend>gz-cmake3</build_depend>
</package>`

	files, err := newGenerator().Render(mustParse(t, doc), models.VendorSpec{})
	require.NoError(t, err)

	require.Equal(t, []string{
		"package.xml",
		"CMakeLists.txt",
		"LICENSE",
		"CONTRIBUTING.md",
		"gz-tools-config.cmake.in",
	}, files.Paths())

	wantManifest := `<?xml version="1.0"?>
<?xml-model href="http://download.ros.org/schema/package_format3.xsd" schematypens="http://www.w3.org/2001/XMLSchema"?>
<package format="3">
  <name>gz_tools_vendor</name>
  <version>2.0.1</version>
  <description>Vendor package for: gz-tools2 2.0.1
    Tools</description>
  <maintainer email="j@example.org">Jane</maintainer>
  <license>Apache-2.0</license>

  <buildtool_depend>ament_cmake</buildtool_depend>
  <buildtool_depend>ament_cmake_vendor_package</buildtool_depend>
  <buildtool_depend>cmake</buildtool_depend>

  <build_depend condition="$GZ_BUILD_FROM_SOURCE == ''">gz-tools2</build_depend>
  <depend>gz_cmake_vendor</depend>
  <test_depend>ament_lint_auto</test_depend>
  <test_depend>ament_lint_common</test_depend>

  <export>
    <build_type>ament_cmake</build_type>
  </export>
</package>
`
	require.Equal(t, wantManifest, string(files.Find("package.xml").Data))

	wantCMake := `cmake_minimum_required(VERSION 3.10)
project(gz_tools_vendor)

find_package(ament_cmake REQUIRED)
find_package(ament_cmake_vendor_package REQUIRED)
find_package(gz_cmake_vendor QUIET)

set(LIB_NAME gz-tools2)
set(LIB_VERSION 2.0.1)

find_package(${LIB_NAME} ${LIB_VERSION} QUIET)

ament_vendor(gz_tools_vendor
  VCS_URL https://github.com/gazebosim/gz-tools.git
  VCS_VERSION gz-tools2_2.0.1
  SATISFIED ${${LIB_NAME}_FOUND}
  CMAKE_ARGS
    -DBUILD_DOCS:BOOL=OFF
  GLOBAL_HOOK
)

if(BUILD_TESTING)
  find_package(ament_lint_auto REQUIRED)
  ament_lint_auto_find_test_dependencies()
endif()

ament_package()
`
	require.Equal(t, wantCMake, string(files.Find("CMakeLists.txt").Data))
}

// TestRenderDependencyOrderRoundTrip checks that non-vendored groups
// keep their order and duplicates exactly, and vendored deps keep
// first-seen order across groups.
func TestRenderDependencyOrderRoundTrip(t *testing.T) {
	t.Parallel()

	doc := `<package format="3">
  <name>gz-sim8</name>
  <version>8.0.0</version>
  <build_depend>zlib</build_depend>
  <build_depend>gz-utils2</build_depend>
  <build_depend>abseil</build_depend>
  <build_depend>zlib</build_depend>
  <exec_depend>gz-cmake3</exec_depend>
  <test_depend>gz-utils2</test_depend>
</package>`

	files, err := newGenerator().Render(mustParse(t, doc), models.VendorSpec{})
	require.NoError(t, err)

	pkgXML := string(files.Find("package.xml").Data)

	// zlib, abseil, zlib again: order kept, duplicate kept.
	first := strings.Index(pkgXML, "<build_depend>zlib</build_depend>")
	abseil := strings.Index(pkgXML, "<build_depend>abseil</build_depend>")
	last := strings.LastIndex(pkgXML, "<build_depend>zlib</build_depend>")
	require.True(t, first >= 0 && abseil >= 0)
	require.Less(t, first, abseil)
	require.Less(t, abseil, last)

	// Vendored: gz-utils2 seen before gz-cmake3; duplicate collapsed.
	utilsDep := strings.Index(pkgXML, "<depend>gz_utils_vendor</depend>")
	cmakeDep := strings.Index(pkgXML, "<depend>gz_cmake_vendor</depend>")
	require.True(t, utilsDep >= 0 && cmakeDep >= 0)
	require.Less(t, utilsDep, cmakeDep)
	require.Equal(t, utilsDep, strings.LastIndex(pkgXML, "<depend>gz_utils_vendor</depend>"))
}

// TestRenderExtraVendoredAndDisallowed checks the extra-vendored map
// (dartsim/DART collapse to one vendor package) and the disallow list.
func TestRenderExtraVendoredAndDisallowed(t *testing.T) {
	t.Parallel()

	doc := `<package format="3">
  <name>gz-physics7</name>
  <version>7.0.0</version>
  <build_depend>dartsim</build_depend>
  <build_depend>python3-distutils</build_depend>
  <test_depend>DART</test_depend>
</package>`

	files, err := newGenerator().Render(mustParse(t, doc), models.VendorSpec{})
	require.NoError(t, err)

	pkgXML := string(files.Find("package.xml").Data)
	require.Contains(t, pkgXML, "<depend>gz_dartsim_vendor</depend>")
	require.Equal(t,
		strings.Index(pkgXML, "<depend>gz_dartsim_vendor</depend>"),
		strings.LastIndex(pkgXML, "<depend>gz_dartsim_vendor</depend>"))
	require.NotContains(t, pkgXML, "python3-distutils")
}

// TestRenderPatchesAndPlainPackage checks the gz-cmake special cases:
// patches below major 4, no env hooks, no extras, no BUILD_DOCS once
// gz-cmake4 is involved.
func TestRenderPatchesAndPlainPackage(t *testing.T) {
	t.Parallel()

	doc := `<package format="3">
  <name>gz-cmake3</name>
  <version>3.5.0</version>
</package>`

	files, err := newGenerator().Render(mustParse(t, doc), models.VendorSpec{})
	require.NoError(t, err)
	require.Equal(t, []string{
		"package.xml",
		"CMakeLists.txt",
		"LICENSE",
		"CONTRIBUTING.md",
		"gz-cmake-config.cmake.in",
	}, files.Paths())

	cmake := string(files.Find("CMakeLists.txt").Data)
	require.Contains(t, cmake, "PATCHES patches")
	require.Contains(t, cmake, "-DBUILD_DOCS:BOOL=OFF")
	require.NotContains(t, cmake, "ament_environment_hooks")
	require.Contains(t, cmake, "ament_package()")
	require.NotContains(t, cmake, "CONFIG_EXTRAS")

	doc4 := `<package format="3">
  <name>gz-cmake4</name>
  <version>4.0.0</version>
</package>`

	files, err = newGenerator().Render(mustParse(t, doc4), models.VendorSpec{})
	require.NoError(t, err)
	cmake = string(files.Find("CMakeLists.txt").Data)
	require.NotContains(t, cmake, "PATCHES")
	require.NotContains(t, cmake, "-DBUILD_DOCS")
}

// TestRenderVersionSuffix checks the prerelease suffix lands in the VCS
// pin and the description, not in the version field.
func TestRenderVersionSuffix(t *testing.T) {
	t.Parallel()

	m := mustParse(t, gzMathManifest)
	files, err := newGenerator().Render(m, models.VendorSpec{VersionSuffix: "-pre1"})
	require.NoError(t, err)

	cmake := string(files.Find("CMakeLists.txt").Data)
	require.Contains(t, cmake, "VCS_VERSION gz-math7_7.2.0-pre1")

	pkgXML := string(files.Find("package.xml").Data)
	require.Contains(t, pkgXML, "Vendor package for: gz-math7 7.2.0-pre1")
	require.Contains(t, pkgXML, "<version>7.2.0</version>")
}

// TestGenerateCreate writes a new vendor package and verifies the
// on-disk result records the upstream version.
func TestGenerateCreate(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "gz_math_vendor")
	m := mustParse(t, gzMathManifest)

	files, err := newGenerator().Generate(m, models.VendorSpec{
		OutputDir: dir,
		Mode:      models.ModeCreate,
	})
	require.NoError(t, err)
	require.Len(t, files, 8)

	for _, rel := range files.Paths() {
		_, err := os.Stat(filepath.Join(dir, rel))
		require.NoError(t, err, rel)
	}

	data, err := os.ReadFile(filepath.Join(dir, "package.xml"))
	require.NoError(t, err)
	require.Contains(t, string(data), "<version>7.2.0</version>")
}

// TestGenerateCreateRefusesForeignDir checks the TargetExists guard:
// a non-empty directory that is not a previous generation stays
// untouched.
func TestGenerateCreateRefusesForeignDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("mine"), 0644))

	_, err := newGenerator().Generate(mustParse(t, gzMathManifest), models.VendorSpec{
		OutputDir: dir,
		Mode:      models.ModeCreate,
	})
	requireErrType(t, err, models.ErrTargetExists)

	// Nothing was written.
	entries, readErr := os.ReadDir(dir)
	require.NoError(t, readErr)
	require.Len(t, entries, 1)
}

// TestGenerateCreateOverPriorGeneration allows re-running create on a
// directory this tool produced for the same package.
func TestGenerateCreateOverPriorGeneration(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "gz_math_vendor")
	m := mustParse(t, gzMathManifest)
	spec := models.VendorSpec{OutputDir: dir, Mode: models.ModeCreate}

	_, err := newGenerator().Generate(m, spec)
	require.NoError(t, err)

	_, err = newGenerator().Generate(m, spec)
	require.NoError(t, err)
}

// TestGenerateUpdate bumps the upstream version and checks that owned
// files change while hand-placed files survive.
func TestGenerateUpdate(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "gz_math_vendor")
	gen := newGenerator()

	_, err := gen.Generate(mustParse(t, gzMathManifest), models.VendorSpec{
		OutputDir: dir,
		Mode:      models.ModeCreate,
	})
	require.NoError(t, err)

	// A file a human placed in the vendor package.
	handFile := filepath.Join(dir, "patches", "0001-fix.patch")
	require.NoError(t, os.MkdirAll(filepath.Dir(handFile), 0755))
	require.NoError(t, os.WriteFile(handFile, []byte("--- a\n+++ b\n"), 0644))

	bumped := strings.ReplaceAll(gzMathManifest, "7.2.0", "7.3.0")
	files, err := gen.Generate(mustParse(t, bumped), models.VendorSpec{
		OutputDir: dir,
		Mode:      models.ModeUpdate,
	})
	require.NoError(t, err)

	// Update owns the generated text files, not the cmake .in configs.
	require.Equal(t, []string{
		"package.xml", "CMakeLists.txt", "LICENSE", "CONTRIBUTING.md",
	}, files.Paths())

	data, err := os.ReadFile(filepath.Join(dir, "package.xml"))
	require.NoError(t, err)
	require.Contains(t, string(data), "<version>7.3.0</version>")

	cmake, err := os.ReadFile(filepath.Join(dir, "CMakeLists.txt"))
	require.NoError(t, err)
	require.Contains(t, string(cmake), "VCS_VERSION gz-math7_7.3.0")

	kept, err := os.ReadFile(handFile)
	require.NoError(t, err)
	require.Equal(t, "--- a\n+++ b\n", string(kept))
}

// TestGenerateUpdateIdempotent runs update twice with the same manifest
// and requires byte-identical owned files.
func TestGenerateUpdateIdempotent(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "gz_math_vendor")
	gen := newGenerator()
	m := mustParse(t, gzMathManifest)

	_, err := gen.Generate(m, models.VendorSpec{OutputDir: dir, Mode: models.ModeCreate})
	require.NoError(t, err)

	update := models.VendorSpec{OutputDir: dir, Mode: models.ModeUpdate}
	first, err := gen.Generate(m, update)
	require.NoError(t, err)

	snapshot := map[string][]byte{}
	for _, rel := range first.Paths() {
		data, err := os.ReadFile(filepath.Join(dir, rel))
		require.NoError(t, err)
		snapshot[rel] = data
	}

	second, err := gen.Generate(m, update)
	require.NoError(t, err)

	for _, rel := range second.Paths() {
		data, err := os.ReadFile(filepath.Join(dir, rel))
		require.NoError(t, err)
		require.Equal(t, snapshot[rel], data, rel)
	}
}

// TestGenerateUpdateMissingTarget checks the TargetMissing guard for a
// directory that does not exist and for one that is not a vendor
// package.
func TestGenerateUpdateMissingTarget(t *testing.T) {
	t.Parallel()

	gen := newGenerator()
	m := mustParse(t, gzMathManifest)

	_, err := gen.Generate(m, models.VendorSpec{
		OutputDir: filepath.Join(t.TempDir(), "nope"),
		Mode:      models.ModeUpdate,
	})
	requireErrType(t, err, models.ErrTargetMissing)

	foreign := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(foreign, "README"), []byte("x"), 0644))
	_, err = gen.Generate(m, models.VendorSpec{OutputDir: foreign, Mode: models.ModeUpdate})
	requireErrType(t, err, models.ErrTargetMissing)
}

// TestGenerateUpdateOverwriteCMakeConfigs checks the opt-in rewrite of
// the .in files during update.
func TestGenerateUpdateOverwriteCMakeConfigs(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "gz_math_vendor")
	gen := newGenerator()
	m := mustParse(t, gzMathManifest)

	_, err := gen.Generate(m, models.VendorSpec{OutputDir: dir, Mode: models.ModeCreate})
	require.NoError(t, err)

	// Locally modified config; the flag takes it back.
	configPath := filepath.Join(dir, "gz-math-config.cmake.in")
	require.NoError(t, os.WriteFile(configPath, []byte("# local edit\n"), 0644))

	files, err := gen.Generate(m, models.VendorSpec{
		OutputDir:             dir,
		Mode:                  models.ModeUpdate,
		OverwriteCMakeConfigs: true,
	})
	require.NoError(t, err)
	require.Contains(t, files.Paths(), "gz-math-config.cmake.in")

	data, err := os.ReadFile(configPath)
	require.NoError(t, err)
	require.NotEqual(t, "# local edit\n", string(data))
}

// TestRenderCustomBundle points the rules at a template directory and
// checks both the override and the copy-extra-files-by-name behavior.
func TestRenderCustomBundle(t *testing.T) {
	t.Parallel()

	bundleDir := t.TempDir()
	write := func(name, content string) {
		require.NoError(t, os.WriteFile(filepath.Join(bundleDir, name), []byte(content), 0644))
	}
	write("package.xml.tmpl", "<package><name>{{ .VendorName }}</name></package>\n")
	write("CMakeLists.txt.tmpl", "project({{ .VendorName }})\n")
	write("LICENSE", "license text\n")
	write("CONTRIBUTING.md", "contributing\n")
	write("config.cmake.in", "# config\n")
	write("extras.cmake.in", "# extras\n")
	write("vendor.dsv.in", "dsv\n")
	write("vendor.sh.in", "sh\n")
	write("NOTICE", "notice\n")

	cfg := config.Default()
	cfg.TemplatesDir = bundleDir

	files, err := New(cfg).Render(mustParse(t, gzMathManifest), models.VendorSpec{})
	require.NoError(t, err)

	require.Equal(t, "<package><name>gz_math_vendor</name></package>\n",
		string(files.Find("package.xml").Data))
	require.NotNil(t, files.Find("NOTICE"))
	require.Equal(t, "notice\n", string(files.Find("NOTICE").Data))
}

func requireErrType(t *testing.T, err error, want models.ErrorType) {
	t.Helper()
	require.Error(t, err)

	var verr *models.VendorError
	require.True(t, errors.As(err, &verr), "error %v is not a VendorError", err)
	require.Equal(t, want, verr.Type)
}
