package manifest

import (
	"encoding/xml"
	"fmt"
	"os"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/gazebo-tooling/gz-vendor/internal/models"
)

// xmlPackage mirrors the package.xml schema (package format 3). Only the
// fields the generator consumes are mapped; everything else is ignored.
type xmlPackage struct {
	XMLName     xml.Name    `xml:"package"`
	Format      string      `xml:"format,attr"`
	Name        string      `xml:"name"`
	Version     string      `xml:"version"`
	Description string      `xml:"description"`
	Maintainers []xmlPerson `xml:"maintainer"`
	Licenses    []string    `xml:"license"`
	URLs        []xmlURL    `xml:"url"`
	Authors     []xmlPerson `xml:"author"`

	Depends                []xmlDependency `xml:"depend"`
	BuildDepends           []xmlDependency `xml:"build_depend"`
	BuildtoolDepends       []xmlDependency `xml:"buildtool_depend"`
	BuildExportDepends     []xmlDependency `xml:"build_export_depend"`
	BuildtoolExportDepends []xmlDependency `xml:"buildtool_export_depend"`
	ExecDepends            []xmlDependency `xml:"exec_depend"`
	TestDepends            []xmlDependency `xml:"test_depend"`
	DocDepends             []xmlDependency `xml:"doc_depend"`

	Export xmlExport `xml:"export"`
}

type xmlPerson struct {
	Email string `xml:"email,attr"`
	Name  string `xml:",chardata"`
}

type xmlURL struct {
	Type string `xml:"type,attr"`
	URL  string `xml:",chardata"`
}

type xmlDependency struct {
	Name       string `xml:",chardata"`
	Condition  string `xml:"condition,attr"`
	VersionLT  string `xml:"version_lt,attr"`
	VersionLTE string `xml:"version_lte,attr"`
	VersionEQ  string `xml:"version_eq,attr"`
	VersionGTE string `xml:"version_gte,attr"`
	VersionGT  string `xml:"version_gt,attr"`
}

type xmlExport struct {
	BuildType string `xml:"build_type"`
}

// Read parses the package manifest at path. It fails with NotFound when
// the file cannot be read and with ParseError when the content is not a
// well-formed manifest with the required name and version fields.
func Read(path string) (*models.Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &models.VendorError{
			Type: models.ErrNotFound,
			Path: path,
			Err:  err,
		}
	}

	return Parse(data, path)
}

// Parse parses raw manifest bytes. source names the origin in error
// messages (a file path, or an archive member for batch input).
func Parse(data []byte, source string) (*models.Manifest, error) {
	var pkg xmlPackage
	if err := xml.Unmarshal(data, &pkg); err != nil {
		return nil, &models.VendorError{
			Type: models.ErrParse,
			Path: source,
			Err:  fmt.Errorf("invalid manifest XML: %w", err),
		}
	}

	m := convert(&pkg)

	if err := validate(m); err != nil {
		return nil, &models.VendorError{
			Type: models.ErrParse,
			Path: source,
			Err:  err,
		}
	}

	return m, nil
}

// convert maps the XML representation onto the manifest model, trimming
// the whitespace encoding/xml keeps around character data.
func convert(pkg *xmlPackage) *models.Manifest {
	m := &models.Manifest{
		Name:        strings.TrimSpace(pkg.Name),
		Version:     strings.TrimSpace(pkg.Version),
		Description: strings.TrimSpace(pkg.Description),
		BuildType:   strings.TrimSpace(pkg.Export.BuildType),
	}

	for _, p := range pkg.Maintainers {
		m.Maintainers = append(m.Maintainers, models.Person{
			Name:  strings.TrimSpace(p.Name),
			Email: strings.TrimSpace(p.Email),
		})
	}

	for _, l := range pkg.Licenses {
		m.Licenses = append(m.Licenses, strings.TrimSpace(l))
	}

	for _, u := range pkg.URLs {
		m.URLs = append(m.URLs, models.URL{
			Type: strings.TrimSpace(u.Type),
			URL:  strings.TrimSpace(u.URL),
		})
	}

	for _, p := range pkg.Authors {
		m.Authors = append(m.Authors, models.Person{
			Name:  strings.TrimSpace(p.Name),
			Email: strings.TrimSpace(p.Email),
		})
	}

	m.Depends = convertDeps(pkg.Depends)
	m.BuildDepends = convertDeps(pkg.BuildDepends)
	m.BuildtoolDepends = convertDeps(pkg.BuildtoolDepends)
	m.BuildExportDepends = convertDeps(pkg.BuildExportDepends)
	m.BuildtoolExportDepends = convertDeps(pkg.BuildtoolExportDepends)
	m.ExecDepends = convertDeps(pkg.ExecDepends)
	m.TestDepends = convertDeps(pkg.TestDepends)
	m.DocDepends = convertDeps(pkg.DocDepends)

	return m
}

func convertDeps(deps []xmlDependency) []models.Dependency {
	var out []models.Dependency
	for _, d := range deps {
		out = append(out, models.Dependency{
			Name:       strings.TrimSpace(d.Name),
			Condition:  strings.TrimSpace(d.Condition),
			VersionLT:  d.VersionLT,
			VersionLTE: d.VersionLTE,
			VersionEQ:  d.VersionEQ,
			VersionGTE: d.VersionGTE,
			VersionGT:  d.VersionGT,
		})
	}
	return out
}

// validate rejects incomplete manifests before any generation happens.
// Only name and version are hard requirements; version must be a strict
// MAJOR.MINOR.PATCH so the build descriptor can split it.
func validate(m *models.Manifest) error {
	if m.Name == "" {
		return fmt.Errorf("manifest missing required field: name")
	}
	if m.Version == "" {
		return fmt.Errorf("manifest missing required field: version")
	}
	v, err := semver.StrictNewVersion(m.Version)
	if err != nil {
		return fmt.Errorf("invalid version %q: %w", m.Version, err)
	}
	// Prerelease markers live in VERSION_SUFFIX, never in the manifest.
	if v.Prerelease() != "" || v.Metadata() != "" {
		return fmt.Errorf("invalid version %q: expected MAJOR.MINOR.PATCH", m.Version)
	}

	for _, group := range [][]models.Dependency{
		m.Depends, m.BuildDepends, m.BuildtoolDepends,
		m.BuildExportDepends, m.BuildtoolExportDepends,
		m.ExecDepends, m.TestDepends, m.DocDepends,
	} {
		for _, dep := range group {
			if dep.Name == "" {
				return fmt.Errorf("manifest declares a dependency with an empty name")
			}
		}
	}

	return nil
}
