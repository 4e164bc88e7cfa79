// Package generator renders vendor packages for upstream Gazebo
// libraries: it turns a parsed upstream manifest into the wrapper
// package.xml, CMakeLists.txt and auxiliary files that let the library
// be built and released inside a ROS 2 workspace.
package generator

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/gazebo-tooling/gz-vendor/internal/config"
	"github.com/gazebo-tooling/gz-vendor/internal/manifest"
	"github.com/gazebo-tooling/gz-vendor/internal/models"
	"github.com/gazebo-tooling/gz-vendor/internal/utils"
)

// Params binds the template variables for one vendor package. Package
// holds the upstream manifest with disallowed dependencies removed and
// the vendored dependencies split out into VendorDeps.
type Params struct {
	Package       *models.Manifest
	VendorDeps    []models.Dependency
	VendorName    string
	VersionSuffix string
	Version       Version
	CMakePackage  string
	GithubOrg     string
	GithubName    string
	HasPatches    bool
	HasExtraCMake bool
	HasDsv        bool
	CMakeArgs     []string
}

// Generator renders and writes vendor packages according to the
// configured rules. It is stateless across invocations; every call is
// a single read-render-write pass.
type Generator struct {
	cfg        *config.Rules
	classifier *Classifier
	bundle     *Bundle
}

// New creates a Generator for the given rules.
func New(cfg *config.Rules) *Generator {
	return &Generator{
		cfg:        cfg,
		classifier: NewClassifier(cfg),
		bundle:     BundleFor(cfg),
	}
}

// Classifier exposes the naming rules, for callers that need vendor
// names without rendering anything (the batch walker does).
func (g *Generator) Classifier() *Classifier {
	return g.classifier
}

// resolveSpec fills the derivable spec fields: the vendor name from
// the upstream name, and the output directory from the vendor name.
func (g *Generator) resolveSpec(m *models.Manifest, spec models.VendorSpec) models.VendorSpec {
	if spec.VendorName == "" {
		base, _ := BaseName(m.Name)
		spec.VendorName = g.classifier.VendorName(base)
	}
	if spec.OutputDir == "" {
		spec.OutputDir = spec.VendorName
	}
	return spec
}

// params computes the template bindings from the manifest and spec.
func (g *Generator) params(m *models.Manifest, spec models.VendorSpec) (*Params, error) {
	version, err := SplitVersion(m.Version)
	if err != nil {
		return nil, &models.VendorError{
			Type: models.ErrParse,
			Path: m.Name,
			Err:  err,
		}
	}

	filtered := g.classifier.FilterDisallowed(m)
	vendorDeps, rest := g.classifier.SplitVendored(filtered)

	base, major := BaseName(m.Name)
	p := &Params{
		Package:       rest,
		VendorDeps:    vendorDeps,
		VendorName:    spec.VendorName,
		VersionSuffix: spec.VersionSuffix,
		Version:       version,
		CMakePackage:  CMakeName(base) + major,
		GithubOrg:     g.cfg.GithubOrg,
		GithubName:    GithubName(base),
		HasPatches:    HasPatches(base, major),
		HasExtraCMake: HasExtraCMake(base),
		HasDsv:        HasDsv(base),
	}

	// Argument order keeps regenerated files stable: docs, pybind11,
	// swig.
	if HasDocs(base) && !BuildDocsDeprecated(m) {
		p.CMakeArgs = append(p.CMakeArgs, "-DBUILD_DOCS:BOOL=OFF")
	}
	if HasPybind11(base) {
		p.CMakeArgs = append(p.CMakeArgs, "-DSKIP_PYBIND11:BOOL=ON")
	}
	if HasSwig(base) {
		p.CMakeArgs = append(p.CMakeArgs, "-DSKIP_SWIG:BOOL=ON")
	}

	return p, nil
}

// Render produces the complete vendor package file set in memory.
// Nothing is written; Generate filters this set by mode and commits it
// to disk.
func (g *Generator) Render(m *models.Manifest, spec models.VendorSpec) (models.FileSet, error) {
	spec = g.resolveSpec(m, spec)

	p, err := g.params(m, spec)
	if err != nil {
		return nil, err
	}

	var files models.FileSet

	pkgXML, err := g.renderTemplate(tmplPackageXML, p)
	if err != nil {
		return nil, err
	}
	files = append(files, models.GeneratedFile{RelPath: "package.xml", Data: pkgXML, Mode: 0644})

	cmake, err := g.renderTemplate(tmplCMakeLists, p)
	if err != nil {
		return nil, err
	}
	files = append(files, models.GeneratedFile{RelPath: "CMakeLists.txt", Data: cmake, Mode: 0644})

	copyStatic := func(src, dst string, mode os.FileMode) error {
		data, err := g.bundle.File(src)
		if err != nil {
			return err
		}
		files = append(files, models.GeneratedFile{RelPath: dst, Data: data, Mode: mode})
		return nil
	}

	if err := copyStatic(fileLicense, "LICENSE", 0644); err != nil {
		return nil, err
	}
	if err := copyStatic(fileContributing, "CONTRIBUTING.md", 0644); err != nil {
		return nil, err
	}

	base, _ := BaseName(m.Name)
	if err := copyStatic(fileCMakeConfig, CMakeName(base)+"-config.cmake.in", 0644); err != nil {
		return nil, err
	}
	if p.HasExtraCMake {
		if err := copyStatic(fileExtrasCMake, spec.VendorName+"-extras.cmake.in", 0644); err != nil {
			return nil, err
		}
	}
	if p.HasDsv {
		if err := copyStatic(fileDsv, spec.VendorName+".dsv.in", 0644); err != nil {
			return nil, err
		}
		if err := copyStatic(fileShell, spec.VendorName+".sh.in", 0644); err != nil {
			return nil, err
		}
	}

	// Anything else a bundle ships is copied under its own name.
	extras, err := g.bundle.Extras()
	if err != nil {
		return nil, err
	}
	for _, name := range extras {
		if err := copyStatic(name, name, 0644); err != nil {
			return nil, err
		}
	}

	return files, nil
}

func (g *Generator) renderTemplate(name string, p *Params) ([]byte, error) {
	t, err := g.bundle.Template(name)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, p); err != nil {
		return nil, fmt.Errorf("rendering %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// Generate runs the full pass: render everything, check the target
// directory precondition for the requested mode, then write the files
// the mode owns. Unchanged files are detected by checksum and left
// untouched. The returned set lists the files considered, written or
// not; after a write failure, earlier files stay on disk (best effort,
// no rollback).
func (g *Generator) Generate(m *models.Manifest, spec models.VendorSpec) (models.FileSet, error) {
	spec = g.resolveSpec(m, spec)

	logrus.Infof("Generating vendor package %s (%s mode)", spec.VendorName, spec.Mode)

	files, err := g.Render(m, spec)
	if err != nil {
		return nil, err
	}

	switch spec.Mode {
	case models.ModeCreate:
		if err := checkCreateTarget(spec.OutputDir, spec.VendorName); err != nil {
			return nil, err
		}
	case models.ModeUpdate:
		if err := checkUpdateTarget(spec.OutputDir, spec.VendorName); err != nil {
			return nil, err
		}
		files = ownedSubset(files, spec)
	default:
		return nil, fmt.Errorf("unknown generate mode %d", spec.Mode)
	}

	for _, f := range files {
		path := filepath.Join(spec.OutputDir, f.RelPath)

		needed, err := utils.ShouldWriteFile(path, f.Data)
		if err != nil {
			return nil, &models.VendorError{Type: models.ErrWrite, Path: path, Err: err}
		}
		if !needed {
			logrus.Debugf("Unchanged: %s", path)
			continue
		}

		if err := utils.WriteFile(path, f.Data, f.Mode); err != nil {
			return nil, &models.VendorError{Type: models.ErrWrite, Path: path, Err: err}
		}
		logrus.Debugf("Wrote %s", path)
	}

	logrus.Infof("Vendor package %s up to date (%d files)", spec.VendorName, len(files))
	return files, nil
}

// ownedSubset filters the rendered set down to what Update mode may
// rewrite: the generated manifest and build descriptor plus the other
// tool-owned text files, and the cmake .in files only when explicitly
// requested. Hand-placed files are never in the set.
func ownedSubset(files models.FileSet, spec models.VendorSpec) models.FileSet {
	var owned models.FileSet
	for _, f := range files {
		switch {
		case f.RelPath == "package.xml" || f.RelPath == "CMakeLists.txt",
			f.RelPath == "LICENSE" || f.RelPath == "CONTRIBUTING.md":
			owned = append(owned, f)
		case spec.OverwriteCMakeConfigs:
			owned = append(owned, f)
		}
	}
	return owned
}

// checkCreateTarget enforces the Create precondition: the target may
// not exist yet, may be empty, or may be a previous generation of the
// same vendor package. Anything else is refused so a foreign directory
// is never overwritten.
func checkCreateTarget(dir, vendorName string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return &models.VendorError{Type: models.ErrWrite, Path: dir, Err: err}
	}
	if len(entries) == 0 {
		return nil
	}
	if recognizedVendorDir(dir, vendorName) {
		return nil
	}
	return &models.VendorError{
		Type: models.ErrTargetExists,
		Path: dir,
		Err:  fmt.Errorf("directory is not empty and does not contain the %s vendor package", vendorName),
	}
}

// checkUpdateTarget enforces the Update precondition: the target must
// exist and hold a previous generation of the same vendor package.
func checkUpdateTarget(dir, vendorName string) error {
	if _, err := os.Stat(dir); err != nil {
		return &models.VendorError{Type: models.ErrTargetMissing, Path: dir, Err: err}
	}
	if !recognizedVendorDir(dir, vendorName) {
		return &models.VendorError{
			Type: models.ErrTargetMissing,
			Path: dir,
			Err:  fmt.Errorf("directory does not contain the %s vendor package", vendorName),
		}
	}
	return nil
}

// recognizedVendorDir reports whether dir holds a package.xml declaring
// the given vendor package name.
func recognizedVendorDir(dir, vendorName string) bool {
	m, err := manifest.Read(filepath.Join(dir, "package.xml"))
	if err != nil {
		return false
	}
	return m.Name == vendorName
}
