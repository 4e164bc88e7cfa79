package utils

import (
	"fmt"
	"os"
	"path/filepath"
)

// WriteFile writes data to a file, creating directories as needed
func WriteFile(path string, data []byte, perm os.FileMode) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	return os.WriteFile(path, data, perm)
}

// ShouldWriteFile determines whether path must be (re)written to hold
// data: true when the file is missing or its content differs. Matching
// files are skipped so their timestamps survive a no-op regeneration.
func ShouldWriteFile(path string, data []byte) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return true, nil
		}
		return false, fmt.Errorf("cannot stat %s: %w", path, err)
	}

	// Different sizes = rewrite without hashing
	if info.Size() != int64(len(data)) {
		return true, nil
	}

	sum, err := FileSHA256(path)
	if err != nil {
		// Can't hash the existing file, write to be safe
		return true, nil
	}

	return sum != DataSHA256(data), nil
}
