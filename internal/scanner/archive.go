package scanner

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gazebo-tooling/gz-vendor/internal/models"
	"github.com/gazebo-tooling/gz-vendor/internal/utils"
)

// compressionFor maps a source kind to its archive compression.
func compressionFor(kind SourceKind) (utils.Compression, error) {
	switch kind {
	case KindTar:
		return utils.CompressionNone, nil
	case KindTarGz:
		return utils.CompressionGzip, nil
	case KindTarXz:
		return utils.CompressionXz, nil
	case KindTarZst:
		return utils.CompressionZstd, nil
	default:
		return utils.CompressionNone, fmt.Errorf("source kind %s is not an archive", kind)
	}
}

// ReadSourceFile pulls one named file out of a source: for a directory
// source it reads the file at the top of the tree, for an archive it
// scans the tar stream for the member, either at the root or directly
// under the single top-level directory release tarballs carry. Returns
// the content and the path it was found at (for error messages).
func ReadSourceFile(src *Source, name string) ([]byte, string, error) {
	if src.Kind == KindDir {
		p := filepath.Join(src.Path, name)
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, "", &models.VendorError{
				Type: models.ErrNotFound,
				Path: p,
				Err:  err,
			}
		}
		return data, p, nil
	}

	data, member, err := readArchiveMember(src, name)
	if err != nil {
		return nil, "", err
	}
	return data, src.Path + ":" + member, nil
}

// ManifestBytes extracts the package manifest from a source.
func ManifestBytes(src *Source) ([]byte, string, error) {
	return ReadSourceFile(src, "package.xml")
}

func readArchiveMember(src *Source, name string) ([]byte, string, error) {
	compression, err := compressionFor(src.Kind)
	if err != nil {
		return nil, "", err
	}

	f, err := os.Open(src.Path)
	if err != nil {
		return nil, "", &models.VendorError{
			Type: models.ErrNotFound,
			Path: src.Path,
			Err:  err,
		}
	}
	defer f.Close()

	dec, err := utils.Decompress(f, compression)
	if err != nil {
		return nil, "", fmt.Errorf("reading %s: %w", src.Path, err)
	}
	defer dec.Close()

	tr := tar.NewReader(dec)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, "", fmt.Errorf("reading %s: %w", src.Path, err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		if !memberMatches(hdr.Name, name) {
			continue
		}

		data, err := io.ReadAll(tr)
		if err != nil {
			return nil, "", fmt.Errorf("reading %s from %s: %w", hdr.Name, src.Path, err)
		}
		return data, hdr.Name, nil
	}

	return nil, "", &models.VendorError{
		Type: models.ErrNotFound,
		Path: src.Path,
		Err:  fmt.Errorf("archive has no %s member", name),
	}
}

// memberMatches accepts the file at the archive root or one level
// down, which covers both raw tars and GitHub-style release tarballs
// with a <name>-<version>/ prefix.
func memberMatches(member, name string) bool {
	clean := path.Clean(strings.TrimPrefix(member, "./"))
	if clean == name {
		return true
	}
	dir, base := path.Split(clean)
	return base == name && strings.Count(strings.Trim(dir, "/"), "/") == 0 && dir != ""
}
