package generator

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"text/template"

	"github.com/gazebo-tooling/gz-vendor/internal/config"
)

//go:embed templates/*
var embeddedTemplates embed.FS

const (
	tmplPackageXML   = "package.xml.tmpl"
	tmplCMakeLists   = "CMakeLists.txt.tmpl"
	fileLicense      = "LICENSE"
	fileContributing = "CONTRIBUTING.md"
	fileCMakeConfig  = "config.cmake.in"
	fileExtrasCMake  = "extras.cmake.in"
	fileDsv          = "vendor.dsv.in"
	fileShell        = "vendor.sh.in"
)

// fixedBundleFiles are the bundle members the generator knows by name.
// Anything else in a bundle is an extra static file, copied into the
// vendor package under its own name.
var fixedBundleFiles = map[string]struct{}{
	tmplPackageXML:   {},
	tmplCMakeLists:   {},
	fileLicense:      {},
	fileContributing: {},
	fileCMakeConfig:  {},
	fileExtrasCMake:  {},
	fileDsv:          {},
	fileShell:        {},
}

// Bundle is a template set: the two rendered templates plus the static
// files placed into every vendor package. The default bundle is
// embedded in the binary; tests and users can point the rules config at
// a directory instead.
type Bundle struct {
	fsys fs.FS
}

// DefaultBundle returns the embedded bundle.
func DefaultBundle() *Bundle {
	sub, err := fs.Sub(embeddedTemplates, "templates")
	if err != nil {
		// The embed directive guarantees the directory exists.
		panic(err)
	}
	return &Bundle{fsys: sub}
}

// DirBundle returns a bundle backed by a directory on disk.
func DirBundle(dir string) *Bundle {
	return &Bundle{fsys: os.DirFS(dir)}
}

// BundleFor picks the directory bundle when the rules name one and the
// embedded bundle otherwise.
func BundleFor(cfg *config.Rules) *Bundle {
	if cfg.TemplatesDir != "" {
		return DirBundle(cfg.TemplatesDir)
	}
	return DefaultBundle()
}

// Template parses the named template from the bundle.
func (b *Bundle) Template(name string) (*template.Template, error) {
	data, err := fs.ReadFile(b.fsys, name)
	if err != nil {
		return nil, fmt.Errorf("loading template %s: %w", name, err)
	}
	t, err := template.New(name).Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("parsing template %s: %w", name, err)
	}
	return t, nil
}

// File reads a static bundle member.
func (b *Bundle) File(name string) ([]byte, error) {
	data, err := fs.ReadFile(b.fsys, name)
	if err != nil {
		return nil, fmt.Errorf("loading bundle file %s: %w", name, err)
	}
	return data, nil
}

// Extras lists bundle files outside the fixed set, in name order.
func (b *Bundle) Extras() ([]string, error) {
	entries, err := fs.ReadDir(b.fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("listing bundle: %w", err)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, ok := fixedBundleFiles[entry.Name()]; ok {
			continue
		}
		names = append(names, entry.Name())
	}
	return names, nil
}
