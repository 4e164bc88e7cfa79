package cli

import (
	"github.com/spf13/cobra"

	"github.com/gazebo-tooling/gz-vendor/internal/batch"
	"github.com/gazebo-tooling/gz-vendor/internal/collection"
	"github.com/gazebo-tooling/gz-vendor/internal/generator"
)

// NewBatchCmd creates the batch command
func NewBatchCmd() *cobra.Command {
	var opts batch.Options

	cmd := &cobra.Command{
		Use:   "batch <collection.yaml>",
		Short: "Refresh every vendor package listed in a collection file",
		Long: `Walks a gazebodistro-style collection file and generates or
updates the vendor package for each listed library. Upstream sources
are read from --src-dir, one checked-out directory or source archive
(.tar, .tar.gz, .tar.xz, .tar.zst) per library. A library that fails
is logged and skipped; the command exits non-zero if any failed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rules, err := loadRules(cmd)
			if err != nil {
				return err
			}

			col, err := collection.Load(args[0])
			if err != nil {
				return err
			}

			gen := generator.New(rules)
			return batch.Run(cmd.Context(), gen, col, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.SrcDir, "src-dir", "s", ".", "Directory holding the upstream sources")
	cmd.Flags().StringVarP(&opts.OutputDir, "output-dir", "o", ".", "Directory receiving the vendor packages")
	cmd.Flags().BoolVar(&opts.SuffixFromCMake, "suffix-from-cmake", false, "Read the prerelease suffix from each upstream CMakeLists.txt")

	return cmd
}
