package issuecache

import (
	"path/filepath"
	"strings"
)

// NormalizePath converts a path to use forward slashes consistently
// regardless of the operating system and cleans the path.
// Empty paths remain empty.
func NormalizePath(path string) string {
	if path == "" {
		return ""
	}

	cleaned := filepath.Clean(path)
	return strings.ReplaceAll(cleaned, "\\", "/")
}

// JoinPaths joins path elements and normalizes the result.
func JoinPaths(elem ...string) string {
	return NormalizePath(filepath.Join(elem...))
}

// IsSubPath checks if childPath is parentPath or lies below it.
// Both paths are normalized before comparison.
func IsSubPath(parentPath, childPath string) bool {
	normalizedParent := NormalizePath(parentPath)
	normalizedChild := NormalizePath(childPath)

	if normalizedParent == "" || normalizedParent == "." {
		return true // Empty parent means any path is a subpath
	}

	if normalizedParent == normalizedChild {
		return true
	}

	if !strings.HasSuffix(normalizedParent, "/") {
		normalizedParent += "/"
	}

	return strings.HasPrefix(normalizedChild, normalizedParent)
}

// RelPath returns childPath relative to parentPath using forward slashes.
// The second result is false when childPath does not lie strictly below
// parentPath.
func RelPath(parentPath, childPath string) (string, bool) {
	normalizedParent := NormalizePath(parentPath)
	normalizedChild := NormalizePath(childPath)

	if normalizedChild == "" || normalizedParent == normalizedChild {
		return "", false
	}
	if normalizedParent == "" || normalizedParent == "." {
		if IsAbsPath(normalizedChild) || strings.HasPrefix(normalizedChild, "../") || normalizedChild == ".." {
			return "", false
		}
		return normalizedChild, true
	}
	if !IsSubPath(normalizedParent, normalizedChild) {
		return "", false
	}

	rel := strings.TrimPrefix(normalizedChild, strings.TrimSuffix(normalizedParent, "/")+"/")
	if rel == "" {
		return "", false
	}
	return rel, true
}

// IsAbsPath checks if a path is absolute
func IsAbsPath(path string) bool {
	return filepath.IsAbs(path) || strings.HasPrefix(path, "/")
}

// DirPath returns the directory portion of a path
func DirPath(path string) string {
	return NormalizePath(filepath.Dir(NormalizePath(path)))
}
