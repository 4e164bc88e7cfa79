// Package scanner locates upstream library sources for batch
// generation: checked-out source trees or source archives sitting
// under a common directory, one per collection entry.
package scanner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/gazebo-tooling/gz-vendor/internal/models"
)

// SourceKind represents how an upstream source is stored
type SourceKind int

const (
	KindUnknown SourceKind = iota
	KindDir
	KindTar
	KindTarGz
	KindTarXz
	KindTarZst
)

// String returns the string representation of SourceKind
func (k SourceKind) String() string {
	switch k {
	case KindDir:
		return "dir"
	case KindTar:
		return "tar"
	case KindTarGz:
		return "tar.gz"
	case KindTarXz:
		return "tar.xz"
	case KindTarZst:
		return "tar.zst"
	default:
		return "unknown"
	}
}

// Source is one upstream library source found under the source
// directory.
type Source struct {
	Name string
	Path string
	Kind SourceKind
}

// archiveSuffixes are tried, in order, when a library has no
// checked-out directory.
var archiveSuffixes = []string{".tar.gz", ".tgz", ".tar.xz", ".tar.zst", ".tar"}

// Locate finds the source for one library under srcDir: a directory
// named after it, or an archive next to it. A directory wins over an
// archive of the same name.
func Locate(srcDir, name string) (*Source, error) {
	candidates := []string{name}
	for _, suffix := range archiveSuffixes {
		candidates = append(candidates, name+suffix)
	}

	for _, candidate := range candidates {
		path := filepath.Join(srcDir, candidate)

		kind, err := DetectSourceKind(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("probing %s: %w", path, err)
		}
		if kind == KindUnknown {
			continue
		}

		logrus.Debugf("Found %s source: %s", kind, path)
		return &Source{Name: name, Path: path, Kind: kind}, nil
	}

	return nil, &models.VendorError{
		Type: models.ErrNotFound,
		Path: filepath.Join(srcDir, name),
		Err:  fmt.Errorf("no source directory or archive for %s", name),
	}
}

// Scan lists every recognizable source under dir, in name order. The
// batch walker uses it to flag sources that no collection entry
// claimed.
func Scan(ctx context.Context, dir string) ([]Source, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to scan directory: %w", err)
	}

	var sources []Source
	for _, entry := range entries {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		path := filepath.Join(dir, entry.Name())
		kind, err := DetectSourceKind(path)
		if err != nil {
			logrus.Warnf("Failed to probe %s: %v", path, err)
			continue
		}
		if kind == KindUnknown {
			continue
		}

		name := entry.Name()
		for _, suffix := range archiveSuffixes {
			if kind != KindDir && len(name) > len(suffix) && name[len(name)-len(suffix):] == suffix {
				name = name[:len(name)-len(suffix)]
				break
			}
		}

		sources = append(sources, Source{Name: name, Path: path, Kind: kind})
	}

	logrus.Debugf("Found %d sources in %s", len(sources), dir)
	return sources, nil
}
