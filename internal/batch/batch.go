// Package batch refreshes every vendor package named by a collection
// file in one pass, reading upstream sources from a local directory of
// checkouts and release tarballs.
package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/gazebo-tooling/gz-vendor/internal/collection"
	"github.com/gazebo-tooling/gz-vendor/internal/generator"
	"github.com/gazebo-tooling/gz-vendor/internal/manifest"
	"github.com/gazebo-tooling/gz-vendor/internal/models"
	"github.com/gazebo-tooling/gz-vendor/internal/scanner"
)

// Options configures one batch run.
type Options struct {
	// SrcDir holds the upstream sources, one directory or archive per
	// collection entry.
	SrcDir string

	// OutputDir receives one vendor package directory per entry.
	OutputDir string

	// SuffixFromCMake reads the prerelease suffix out of each
	// upstream CMakeLists.txt.
	SuffixFromCMake bool
}

// Run walks the collection in name order and generates or updates the
// vendor package for each library. A failing library is logged and
// skipped; the error returned at the end reports how many failed. The
// walk itself never runs libraries concurrently, so two entries can
// safely share an output directory tree.
func Run(ctx context.Context, gen *generator.Generator, col *collection.Collection, opts Options) error {
	targets, err := resolveTargets(gen, col)
	if err != nil {
		return err
	}

	names := col.Names()
	var failed int
	for _, name := range names {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := runOne(gen, name, targets[name], opts); err != nil {
			logrus.Errorf("%s: %v", name, err)
			failed++
		}
	}

	warnUnclaimed(ctx, opts.SrcDir, targets)

	if failed > 0 {
		return fmt.Errorf("%d of %d libraries failed", failed, len(names))
	}

	logrus.Infof("All %d vendor packages up to date", len(names))
	return nil
}

// resolveTargets maps each collection entry to its vendor package
// name, refusing collections where two entries collapse onto the same
// vendor package (e.g. gz-math7 and gz-math8 in one file).
func resolveTargets(gen *generator.Generator, col *collection.Collection) (map[string]string, error) {
	targets := make(map[string]string, len(col.Repositories))
	owners := make(map[string]string, len(col.Repositories))

	for _, name := range col.Names() {
		base, _ := generator.BaseName(name)
		vendorName := gen.Classifier().VendorName(base)

		if prev, ok := owners[vendorName]; ok {
			return nil, &models.VendorError{
				Type: models.ErrInvalidConfig,
				Path: name,
				Err:  fmt.Errorf("collides with %s: both map to vendor package %s", prev, vendorName),
			}
		}
		owners[vendorName] = name
		targets[name] = vendorName
	}

	return targets, nil
}

// warnUnclaimed flags sources under srcDir that no collection entry
// claimed, which usually means a stale checkout or a typoed entry.
func warnUnclaimed(ctx context.Context, srcDir string, targets map[string]string) {
	sources, err := scanner.Scan(ctx, srcDir)
	if err != nil {
		logrus.Debugf("Could not scan %s for unclaimed sources: %v", srcDir, err)
		return
	}
	for _, src := range sources {
		if _, ok := targets[src.Name]; !ok {
			logrus.Warnf("Source %s is not claimed by any collection entry", src.Path)
		}
	}
}

func runOne(gen *generator.Generator, name, vendorName string, opts Options) error {
	src, err := scanner.Locate(opts.SrcDir, name)
	if err != nil {
		return err
	}

	data, from, err := scanner.ManifestBytes(src)
	if err != nil {
		return err
	}

	m, err := manifest.Parse(data, from)
	if err != nil {
		return err
	}

	var suffix string
	if opts.SuffixFromCMake {
		cmake, _, err := scanner.ReadSourceFile(src, "CMakeLists.txt")
		if err != nil {
			logrus.Warnf("%s: no CMakeLists.txt in source, assuming no version suffix", name)
		} else {
			suffix = generator.SuffixFromData(cmake)
		}
	}

	outputDir := filepath.Join(opts.OutputDir, vendorName)
	mode := models.ModeCreate
	if _, err := os.Stat(outputDir); err == nil {
		mode = models.ModeUpdate
	}

	_, err = gen.Generate(m, models.VendorSpec{
		VendorName:    vendorName,
		OutputDir:     outputDir,
		Mode:          mode,
		VersionSuffix: suffix,
	})
	return err
}
