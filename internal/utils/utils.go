// Package utils contains general helpers shared by the loctree packages.
package utils

import (
	"path/filepath"
	"strings"
)

// Ignore file constants used across the project.
const (
	// IgnoreFileName is the name of the project's ignore file.
	IgnoreFileName = ".ignore"
	// GitIgnoreFileName is the name of the Git ignore file.
	GitIgnoreFileName = ".gitignore"
	// GitDirectoryName is the name of the Git repository directory.
	GitDirectoryName = ".git"
)

const (
	pathSegmentSeparator   = "/"
	currentDirectoryMarker = "."
	parentDirectoryStep    = ".."
)

// DeduplicatePatterns removes duplicate and blank patterns while preserving order.
// The first occurrence of each unique pattern is kept.
func DeduplicatePatterns(patterns []string) []string {
	encounteredPatterns := make(map[string]struct{})
	result := make([]string, 0, len(patterns))
	for _, pattern := range patterns {
		trimmedPattern := strings.TrimSpace(pattern)
		if trimmedPattern == "" {
			continue
		}
		if _, exists := encounteredPatterns[trimmedPattern]; !exists {
			encounteredPatterns[trimmedPattern] = struct{}{}
			result = append(result, trimmedPattern)
		}
	}
	return result
}

// RelativePathOrSelf calculates the slash-separated relative path from root to fullPath.
// Returns the cleaned fullPath if relative calculation fails.
// Returns "." if fullPath and root resolve to the same directory.
func RelativePathOrSelf(fullPath, root string) string {
	cleanPath := filepath.Clean(fullPath)
	absoluteRoot, err := filepath.Abs(root)
	if err != nil {
		return cleanPath
	}
	cleanAbsoluteRoot := filepath.Clean(absoluteRoot)

	if cleanPath == cleanAbsoluteRoot {
		return currentDirectoryMarker
	}

	relativePath, relErr := filepath.Rel(cleanAbsoluteRoot, cleanPath)
	if relErr != nil {
		return cleanPath
	}
	return filepath.ToSlash(relativePath)
}

// IsOutsideRoot reports whether a relative path produced by RelativePathOrSelf
// escapes its root.
func IsOutsideRoot(relativePath string) bool {
	if filepath.IsAbs(relativePath) {
		return true
	}
	return relativePath == parentDirectoryStep || strings.HasPrefix(relativePath, parentDirectoryStep+pathSegmentSeparator)
}

// SplitRelativePath breaks a slash-separated relative path into its segments.
func SplitRelativePath(relativePath string) []string {
	if relativePath == "" || relativePath == currentDirectoryMarker {
		return nil
	}
	return strings.Split(relativePath, pathSegmentSeparator)
}
