package exclude

import (
	"bufio"
	"errors"
	"io/fs"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	"github.com/spf13/afero"
)

const (
	commentPrefix = "#"
	// binarySectionHeader opens the section of an .ignore file listing binary
	// content patterns; those lines do not hide anything from a tree.
	binarySectionHeader = "[binary]"
	// ignoreSectionHeader opens the section listing ignore patterns.
	ignoreSectionHeader = "[ignore]"
)

// readIgnoreFile parses an ignore file into gitignore patterns scoped to domain.
// A missing file yields no patterns. Section headers are honoured only when
// sectioned is true.
//
// #nosec G304
func readIgnoreFile(filesystem afero.Fs, path string, domain []string, sectioned bool) ([]gitignore.Pattern, error) {
	file, openError := filesystem.Open(path)
	if openError != nil {
		if errors.Is(openError, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, openError
	}
	defer file.Close()

	var patterns []gitignore.Pattern
	currentSectionHeader := ignoreSectionHeader
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		trimmedLine := strings.TrimSpace(line)
		if trimmedLine == "" || strings.HasPrefix(trimmedLine, commentPrefix) {
			continue
		}
		if sectioned {
			if strings.EqualFold(trimmedLine, binarySectionHeader) {
				currentSectionHeader = binarySectionHeader
				continue
			}
			if strings.EqualFold(trimmedLine, ignoreSectionHeader) {
				currentSectionHeader = ignoreSectionHeader
				continue
			}
			if currentSectionHeader == binarySectionHeader {
				continue
			}
		}
		patterns = append(patterns, gitignore.ParsePattern(line, domain))
	}
	if scanError := scanner.Err(); scanError != nil {
		return nil, scanError
	}
	return patterns, nil
}
