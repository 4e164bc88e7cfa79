package scanner

import (
	"bytes"
	"os"
	"strings"
)

// Magic bytes for archive detection
var (
	// Gzip streams start with 0x1F 0x8B
	gzipMagic = []byte{0x1F, 0x8B}

	// XZ streams start with 0xFD "7zXZ" 0x00
	xzMagic = []byte{0xFD, 0x37, 0x7A, 0x58, 0x5A, 0x00}

	// Zstandard streams start with 0x28 0xB5 0x2F 0xFD
	zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}

	// Plain tar has "ustar" at offset 257
	tarMagic = []byte("ustar")
)

// DetectSourceKind determines how an upstream source is stored based
// on magic bytes, falling back to the file extension for truncated or
// unusual files. Directories are sources in their own right.
func DetectSourceKind(path string) (SourceKind, error) {
	info, err := os.Stat(path)
	if err != nil {
		return KindUnknown, err
	}
	if info.IsDir() {
		return KindDir, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return KindUnknown, err
	}
	defer f.Close()

	// Read first 512 bytes for magic byte detection
	header := make([]byte, 512)
	n, err := f.Read(header)
	if err != nil && n == 0 {
		return KindUnknown, err
	}
	header = header[:n]

	name := strings.ToLower(info.Name())

	if bytes.HasPrefix(header, gzipMagic) ||
		strings.HasSuffix(name, ".tar.gz") || strings.HasSuffix(name, ".tgz") {
		return KindTarGz, nil
	}
	if bytes.HasPrefix(header, xzMagic) || strings.HasSuffix(name, ".tar.xz") {
		return KindTarXz, nil
	}
	if bytes.HasPrefix(header, zstdMagic) || strings.HasSuffix(name, ".tar.zst") {
		return KindTarZst, nil
	}
	if (len(header) > 262 && bytes.Equal(header[257:262], tarMagic)) ||
		strings.HasSuffix(name, ".tar") {
		return KindTar, nil
	}

	return KindUnknown, nil
}
