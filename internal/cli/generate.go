package cli

import (
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/gazebo-tooling/gz-vendor/internal/generator"
	"github.com/gazebo-tooling/gz-vendor/internal/manifest"
	"github.com/gazebo-tooling/gz-vendor/internal/models"
)

// runGenerate is the shared body of the create and update commands:
// load the rules, read the upstream manifest, resolve the version
// suffix and hand everything to the generator.
func runGenerate(cmd *cobra.Command, args []string, mode models.GenerateMode) error {
	rules, err := loadRules(cmd)
	if err != nil {
		return err
	}

	manifestPath := args[0]
	m, err := manifest.Read(manifestPath)
	if err != nil {
		return err
	}

	logrus.Infof("Read manifest for %s %s", m.Name, m.Version)

	spec := models.VendorSpec{Mode: mode}
	if len(args) > 1 {
		spec.OutputDir = args[1]
	}

	if suffixFromCMake, _ := cmd.Flags().GetBool("suffix-from-cmake"); suffixFromCMake {
		cmakePath := filepath.Join(filepath.Dir(manifestPath), "CMakeLists.txt")
		spec.VersionSuffix, err = generator.SuffixFromCMake(cmakePath)
		if err != nil {
			return err
		}
	}

	if mode == models.ModeUpdate {
		spec.OverwriteCMakeConfigs, _ = cmd.Flags().GetBool("overwrite-cmake-configs")
	}

	gen := generator.New(rules)
	files, err := gen.Generate(m, spec)
	if err != nil {
		return err
	}

	logrus.Debugf("Generated files: %v", files.Paths())
	return nil
}

// NewCreateCmd creates the create command
func NewCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <package.xml> [target-dir]",
		Short: "Generate a new vendor package directory",
		Long: `Reads the upstream package.xml and writes a complete vendor
package into the target directory, which defaults to the derived
vendor name (e.g. gz_math_vendor for gz-math7). The target must not
exist, be empty, or hold a previous generation of the same vendor
package.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, args, models.ModeCreate)
		},
	}

	cmd.Flags().Bool("suffix-from-cmake", false, "Read the prerelease suffix from the upstream CMakeLists.txt")

	return cmd
}

// NewUpdateCmd creates the update command
func NewUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <package.xml> [target-dir]",
		Short: "Refresh the tool-owned files of an existing vendor package",
		Long: `Reads the upstream package.xml and rewrites only the generated
files of an existing vendor package (package.xml, CMakeLists.txt,
LICENSE, CONTRIBUTING.md). Hand-placed files are left untouched; the
cmake .in files are only rewritten with --overwrite-cmake-configs.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, args, models.ModeUpdate)
		},
	}

	cmd.Flags().Bool("suffix-from-cmake", false, "Read the prerelease suffix from the upstream CMakeLists.txt")
	cmd.Flags().Bool("overwrite-cmake-configs", false, "Also rewrite the generated cmake .in files")

	return cmd
}

// NewRenderCmd creates the render command
func NewRenderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render <package.xml>",
		Short: "Print the generated package.xml and CMakeLists.txt",
		Long: `Renders the vendor package for the given upstream manifest and
prints the package.xml and CMakeLists.txt to stdout without writing
anything to disk.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rules, err := loadRules(cmd)
			if err != nil {
				return err
			}

			m, err := manifest.Read(args[0])
			if err != nil {
				return err
			}

			files, err := generator.New(rules).Render(m, models.VendorSpec{})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, name := range []string{"package.xml", "CMakeLists.txt"} {
				if f := files.Find(name); f != nil {
					if _, err := out.Write(f.Data); err != nil {
						return err
					}
				}
			}

			return nil
		},
	}

	return cmd
}
