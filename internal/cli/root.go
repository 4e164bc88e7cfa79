package cli

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/gazebo-tooling/gz-vendor/internal/config"
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "gz-vendor",
		Short: "Generate ROS 2 vendor packages for Gazebo libraries",
		Long: `gz-vendor reads an upstream Gazebo library's package.xml and
generates the vendor package that builds it inside a ROS 2 workspace:
a wrapper package.xml, the ament_vendor CMakeLists.txt and the
auxiliary cmake and environment-hook files.

Commands:
  create  - generate a new vendor package directory
  update  - refresh the tool-owned files of an existing one
  render  - print the generated files without writing anything
  batch   - refresh every vendor package listed in a collection file`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Setup logging
			verbose, _ := cmd.Flags().GetBool("verbose")
			if verbose {
				logrus.SetLevel(logrus.DebugLevel)
			} else {
				logrus.SetLevel(logrus.InfoLevel)
			}
		},
	}

	// Global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to a rules file (default: .gz-vendor.yaml if present)")

	// Add subcommands
	rootCmd.AddCommand(NewCreateCmd())
	rootCmd.AddCommand(NewUpdateCmd())
	rootCmd.AddCommand(NewRenderCmd())
	rootCmd.AddCommand(NewBatchCmd())

	return rootCmd
}

// loadRules reads the generation rules named by the --config flag.
func loadRules(cmd *cobra.Command) (*config.Rules, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(path)
}
