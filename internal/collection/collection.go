// Package collection reads gazebodistro-style collection files: the
// YAML listing of every library in a Gazebo release, used to refresh
// all vendor packages in one pass.
package collection

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/gazebo-tooling/gz-vendor/internal/models"
)

// Repository is one collection entry: where a library lives and which
// branch or tag the release tracks.
type Repository struct {
	Type    string `yaml:"type"`
	URL     string `yaml:"url"`
	Version string `yaml:"version"`
}

// Collection is a parsed collection file.
type Collection struct {
	Repositories map[string]Repository `yaml:"repositories"`
}

// Names returns the library names in sorted order, so batch runs are
// deterministic.
func (c *Collection) Names() []string {
	names := make([]string, 0, len(c.Repositories))
	for name := range c.Repositories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Load reads and validates a collection file. It fails with NotFound
// when the file cannot be read and with ParseError when the YAML is
// malformed or lists no repositories.
func Load(path string) (*Collection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &models.VendorError{
			Type: models.ErrNotFound,
			Path: path,
			Err:  err,
		}
	}

	var col Collection
	if err := yaml.Unmarshal(data, &col); err != nil {
		return nil, &models.VendorError{
			Type: models.ErrParse,
			Path: path,
			Err:  fmt.Errorf("invalid collection YAML: %w", err),
		}
	}

	if len(col.Repositories) == 0 {
		return nil, &models.VendorError{
			Type: models.ErrParse,
			Path: path,
			Err:  fmt.Errorf("collection lists no repositories"),
		}
	}

	return &col, nil
}
