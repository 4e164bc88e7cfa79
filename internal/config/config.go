package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"

	"github.com/gazebo-tooling/gz-vendor/internal/models"
)

const (
	// FileName is the rules file viper looks for in the working
	// directory (without extension).
	FileName = ".gz-vendor"
	// EnvPrefix prefixes environment overrides, e.g. GZ_VENDOR_GITHUB_ORG.
	EnvPrefix = "GZ_VENDOR"
)

// Rules is the generation configuration: which dependencies are
// replaced by vendor packages, how vendor packages are named, and where
// templates come from. It is loaded once in the CLI layer and passed
// down by value; tests construct it directly.
type Rules struct {
	// VendorSuffix is appended to the underscored base name,
	// e.g. gz-math -> gz_math_vendor.
	VendorSuffix string `mapstructure:"vendor_suffix"`
	// GithubOrg is the organization in generated VCS URLs.
	GithubOrg string `mapstructure:"github_org"`
	// TemplatesDir overrides the embedded template bundle when set.
	TemplatesDir string `mapstructure:"templates_dir"`
	// VendoredLibraries lists base names (major version stripped) that
	// get vendor equivalents.
	VendoredLibraries []string `mapstructure:"vendored_libraries"`
	// ExtraVendored maps dependency names that do not follow the
	// base-name convention straight to their vendor package name.
	ExtraVendored map[string]string `mapstructure:"extra_vendored"`
	// DisallowedDependencies are dropped from every dependency group
	// before rendering.
	DisallowedDependencies []string `mapstructure:"disallowed_dependencies"`
}

// Default returns the built-in rules matching the Gazebo vendor
// package conventions.
func Default() *Rules {
	return &Rules{
		VendorSuffix: "_vendor",
		GithubOrg:    "gazebosim",
		VendoredLibraries: []string{
			"gz-cmake",
			"gz-common",
			"gz-fuel_tools",
			"gz-gui",
			"gz-launch",
			"gz-math",
			"gz-msgs",
			"gz-physics",
			"gz-plugin",
			"gz-rendering",
			"gz-sensors",
			"gz-sim",
			"gz-tools",
			"gz-transport",
			"gz-utils",
			"sdformat",
		},
		ExtraVendored: map[string]string{
			"dartsim":              "gz_dartsim_vendor",
			"DART":                 "gz_dartsim_vendor",
			"libogre-next-2.3-dev": "gz_ogre_next_vendor",
			"libogre-next-2.3":     "gz_ogre_next_vendor",
			"spdlog":               "spdlog_vendor",
		},
		DisallowedDependencies: []string{
			// Not needed for CMake > 3.12 and no longer installable
			// on current Ubuntu releases.
			"python3-distutils",
		},
	}
}

// Load reads the rules from an optional config file, environment
// overrides and built-in defaults, in that precedence order. path may
// be empty, in which case ".gz-vendor.yaml" in the working directory is
// used when present; a missing implicit file is not an error, a missing
// explicit one is.
func Load(path string) (*Rules, error) {
	v := viper.New()

	defaults := Default()
	v.SetDefault("vendor_suffix", defaults.VendorSuffix)
	v.SetDefault("github_org", defaults.GithubOrg)
	v.SetDefault("templates_dir", defaults.TemplatesDir)
	v.SetDefault("vendored_libraries", defaults.VendoredLibraries)
	v.SetDefault("extra_vendored", defaults.ExtraVendored)
	v.SetDefault("disallowed_dependencies", defaults.DisallowedDependencies)

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, &models.VendorError{
				Type: models.ErrInvalidConfig,
				Path: path,
				Err:  err,
			}
		}
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, &models.VendorError{
					Type: models.ErrInvalidConfig,
					Path: FileName + ".yaml",
					Err:  err,
				}
			}
		}
	}

	var rules Rules
	if err := v.Unmarshal(&rules); err != nil {
		return nil, &models.VendorError{
			Type: models.ErrInvalidConfig,
			Path: v.ConfigFileUsed(),
			Err:  fmt.Errorf("decoding rules: %w", err),
		}
	}

	if err := rules.Validate(); err != nil {
		return nil, &models.VendorError{
			Type: models.ErrInvalidConfig,
			Path: v.ConfigFileUsed(),
			Err:  err,
		}
	}

	return &rules, nil
}

// Validate rejects rule sets the generator cannot work with.
func (r *Rules) Validate() error {
	if r.VendorSuffix == "" {
		return fmt.Errorf("vendor_suffix must not be empty")
	}
	if r.GithubOrg == "" {
		return fmt.Errorf("github_org must not be empty")
	}
	for name, vendor := range r.ExtraVendored {
		if vendor == "" {
			return fmt.Errorf("extra_vendored entry %q maps to an empty vendor name", name)
		}
	}
	return nil
}
