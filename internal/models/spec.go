package models

import "io/fs"

// GenerateMode selects how the generator treats the target directory
type GenerateMode int

const (
	// ModeCreate produces a brand-new vendor package directory
	ModeCreate GenerateMode = iota
	// ModeUpdate refreshes only tool-owned files in an existing directory
	ModeUpdate
)

// String returns the string representation of GenerateMode
func (m GenerateMode) String() string {
	switch m {
	case ModeCreate:
		return "create"
	case ModeUpdate:
		return "update"
	default:
		return "unknown"
	}
}

// VendorSpec describes the vendor package to produce from a manifest
type VendorSpec struct {
	// VendorName is the output package name, e.g. gz_math_vendor
	VendorName string

	// OutputDir is the vendor package directory
	OutputDir string

	// Mode selects create vs update semantics
	Mode GenerateMode

	// VersionSuffix is appended to the VCS tag, e.g. "-pre1"
	VersionSuffix string

	// OverwriteCMakeConfigs rewrites the cmake .in files even in update mode
	OverwriteCMakeConfigs bool
}

// GeneratedFile is a single rendered output file
type GeneratedFile struct {
	// RelPath is the path relative to the vendor package directory
	RelPath string

	// Data is the fully rendered content
	Data []byte

	// Mode is the permission set applied when the file is written
	Mode fs.FileMode
}

// FileSet is the complete output of one generation pass. It is rendered
// in memory before anything is written, and discarded afterwards.
type FileSet []GeneratedFile

// Paths returns the relative paths in render order
func (s FileSet) Paths() []string {
	paths := make([]string, len(s))
	for i, f := range s {
		paths[i] = f.RelPath
	}
	return paths
}

// Find returns the entry for a relative path, or nil
func (s FileSet) Find(relPath string) *GeneratedFile {
	for i := range s {
		if s[i].RelPath == relPath {
			return &s[i]
		}
	}
	return nil
}
