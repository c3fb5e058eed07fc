package assets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// extensionRank orders acceptable extensions; lower wins.
var extensionRank = map[string]int{
	"png":  0,
	"jpg":  1,
	"jpeg": 2,
	"pdf":  3,
}

// FilesystemLoader finds assets in a directory on the filesystem.
// The directory is rescanned on every Find so files dropped in while a
// server runs are picked up.
type FilesystemLoader struct {
	basePath string
}

// NewFilesystemLoader creates a FilesystemLoader for the given base path.
// Returns ErrInvalidBasePath if the path is not a valid, readable directory.
func NewFilesystemLoader(basePath string) (*FilesystemLoader, error) {
	if basePath == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidBasePath)
	}

	absPath, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBasePath, err)
	}
	// Resolve symlinks so containment checks compare real paths.
	if realPath, err := filepath.EvalSymlinks(absPath); err == nil {
		absPath = realPath
	}

	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: directory does not exist: %s", ErrInvalidBasePath, absPath)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidBasePath, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: not a directory: %s", ErrInvalidBasePath, absPath)
	}
	if _, err := os.ReadDir(absPath); err != nil {
		return nil, fmt.Errorf("%w: cannot read directory: %v", ErrInvalidBasePath, err)
	}

	return &FilesystemLoader{basePath: absPath}, nil
}

// BasePath returns the resolved directory.
func (f *FilesystemLoader) BasePath() string {
	return f.basePath
}

// Find scans the directory for files whose normalized base name equals the
// normalized name and returns the one with the preferred extension.
func (f *FilesystemLoader) Find(name string) (Asset, error) {
	if err := ValidateAssetName(name); err != nil {
		return Asset{}, err
	}
	key := NormalizeKey(name)

	entries, err := os.ReadDir(f.basePath)
	if err != nil {
		return Asset{}, fmt.Errorf("%w: %v", ErrAssetRead, err)
	}

	best := Asset{}
	bestRank := len(extensionRank)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		fileName := entry.Name()
		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(fileName), "."))
		rank, ok := extensionRank[ext]
		if !ok || rank >= bestRank {
			continue
		}
		if NormalizeKey(strings.TrimSuffix(fileName, filepath.Ext(fileName))) != key {
			continue
		}
		path := filepath.Join(f.basePath, fileName)
		resolved, err := f.verifyPathContainment(path)
		if err != nil {
			continue
		}
		best = Asset{Name: key, Path: resolved, Ext: ext}
		bestRank = rank
	}

	switch {
	case best.Path == "":
		return Asset{}, fmt.Errorf("%w: %q in %s", ErrAssetNotFound, name, f.basePath)
	case best.Ext == "pdf":
		return Asset{}, fmt.Errorf("%w: %w: %s", ErrAssetNotFound, ErrUnsupportedFormat, filepath.Base(best.Path))
	}
	return best, nil
}

// verifyPathContainment resolves symlinks and ensures the real path is a
// regular file within basePath. Returns the resolved path.
func (f *FilesystemLoader) verifyPathContainment(filePath string) (string, error) {
	absFilePath, err := filepath.Abs(filePath)
	if err != nil {
		return "", fmt.Errorf("%w: cannot resolve path", ErrPathTraversal)
	}
	if realPath, err := filepath.EvalSymlinks(absFilePath); err == nil {
		absFilePath = realPath
	}

	// Separator suffix rejects sibling prefixes (/base/path vs /base/pathevil).
	if !strings.HasPrefix(absFilePath, f.basePath+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: path escapes base directory", ErrPathTraversal)
	}
	info, err := os.Stat(absFilePath)
	if err != nil || !info.Mode().IsRegular() {
		return "", fmt.Errorf("%w: not a regular file: %s", ErrAssetRead, absFilePath)
	}
	return absFilePath, nil
}

// Compile-time interface check.
var _ Loader = (*FilesystemLoader)(nil)
