package utils

import (
	"path/filepath"
	"strings"
)

// GetPathInfo resolves relPath and returns its absolute path, the directory
// containing it and the file name without extension.
func GetPathInfo(relPath string) (fullPath string, parentDir string, stem string, err error) {
	// Convert to absolute path (resolves ../../ and cleans the path)
	fullPath, err = filepath.Abs(relPath)
	if err != nil {
		return "", "", "", err
	}

	parentDir = filepath.Dir(fullPath)
	base := filepath.Base(fullPath)
	stem = strings.TrimSuffix(base, filepath.Ext(base))
	return fullPath, parentDir, stem, nil
}

// OutputPath returns where the artifact with extension ext built from src
// goes: into outDir when it is set, next to src otherwise.
func OutputPath(src, outDir, ext string) string {
	dir := filepath.Dir(src)
	if outDir != "" {
		dir = outDir
	}
	base := filepath.Base(src)
	return filepath.Join(dir, strings.TrimSuffix(base, filepath.Ext(base))+ext)
}
