package models

import (
	"fmt"
	"strings"
)

// Person identifies a maintainer or author entry in a package manifest.
type Person struct {
	Name  string
	Email string
}

// URL is a typed project link (website, repository, bugtracker).
type URL struct {
	Type string
	URL  string
}

// Dependency is a single dependency declaration from a package manifest.
// Version constraints and conditions are carried into the generated files
// verbatim; the tool renders conditions, it never evaluates them.
type Dependency struct {
	Name      string
	Condition string

	// Version constraint attributes (package format 3)
	VersionLT  string
	VersionLTE string
	VersionEQ  string
	VersionGTE string
	VersionGT  string
}

// Attrs renders the dependency's version constraints and condition as
// package.xml attributes, in the order catkin emits them.
func (d Dependency) Attrs() string {
	var sb strings.Builder

	write := func(name, value string) {
		if value != "" {
			fmt.Fprintf(&sb, " %s=%q", name, value)
		}
	}

	write("version_lt", d.VersionLT)
	write("version_lte", d.VersionLTE)
	write("version_eq", d.VersionEQ)
	write("version_gte", d.VersionGTE)
	write("version_gt", d.VersionGT)
	write("condition", d.Condition)

	return sb.String()
}

// Manifest represents a parsed upstream package.xml (package format 3)
type Manifest struct {
	// Core metadata
	Name        string
	Version     string
	Description string
	Maintainers []Person
	Licenses    []string
	URLs        []URL
	Authors     []Person

	// Dependency groups, each preserving declaration order
	Depends                []Dependency
	BuildDepends           []Dependency
	BuildtoolDepends       []Dependency
	BuildExportDepends     []Dependency
	BuildtoolExportDepends []Dependency
	ExecDepends            []Dependency
	TestDepends            []Dependency
	DocDepends             []Dependency

	// BuildType is the <export><build_type> value, if declared
	BuildType string
}
