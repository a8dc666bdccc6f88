// Package tree renders directory trees annotated with per-file line counts.
package tree

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"
)

const (
	// BranchConnector marks an entry that has following siblings.
	BranchConnector = "├─"
	// LastConnector marks the final entry of a level.
	LastConnector = "└─"
	// BranchIndent extends the prefix below a non-final entry.
	BranchIndent = "│   "
	// LastIndent extends the prefix below a final entry.
	LastIndent = "    "

	// FolderIcon precedes every directory name.
	FolderIcon = "📂"
	// LockIcon precedes the permission denied marker.
	LockIcon = "🔒"
	// LoopIcon precedes the symlink loop marker.
	LoopIcon = "🔁"

	fileLineFormat       = "%s%s %s %s (%d lines)%s"
	directoryLineFormat  = "%s%s %s %s"
	permissionLineFormat = "%s%s %s Permission Denied: %s"
	loopLineFormat       = "%s%s %s Symlink Loop: %s"

	errorReadDirectoryFormat = "reading directory %s: %w"
)

// Excluder decides whether a path is hidden from rendering entirely.
type Excluder interface {
	ShouldExclude(path string) bool
}

// EntryExcluder is an Excluder that can reuse the directory classification
// the builder already resolved for an entry.
type EntryExcluder interface {
	ShouldExcludeEntry(path string, isDirectory bool) bool
}

// IconProvider returns the icon displayed before a file name.
type IconProvider interface {
	Emoji(name string) string
}

// LineCounter returns the number of lines in a file. It never fails.
type LineCounter interface {
	CountLines(path string) int
}

// IndicatorFormatter returns a warning suffix for oversized files or an empty string.
type IndicatorFormatter interface {
	LineCountIndicator(path string, lineCount int) string
}

// Builder renders directory listings using the configured collaborators.
// A Builder holds no mutable state and may be shared between goroutines
// as long as its collaborators can.
type Builder struct {
	Fs        afero.Fs
	Excluder  Excluder
	Icons     IconProvider
	Counter   LineCounter
	Indicator IndicatorFormatter
}

type directoryEntry struct {
	name  string
	path  string
	isDir bool
	// regular is false for entries that could not be resolved with stat.
	regular bool
	info    os.FileInfo
}

func (builder *Builder) filesystem() afero.Fs {
	if builder.Fs == nil {
		return afero.NewOsFs()
	}
	return builder.Fs
}

func (builder *Builder) isExcluded(path string) bool {
	return builder.Excluder != nil && builder.Excluder.ShouldExclude(path)
}

func (builder *Builder) isExcludedEntry(entry directoryEntry) bool {
	if entryExcluder, ok := builder.Excluder.(EntryExcluder); ok {
		return entryExcluder.ShouldExcludeEntry(entry.path, entry.isDir)
	}
	return builder.isExcluded(entry.path)
}

// listDirectory returns the non-excluded entries of directory classified by stat.
func (builder *Builder) listDirectory(directory string) ([]directoryEntry, error) {
	filesystem := builder.filesystem()
	infos, readError := afero.ReadDir(filesystem, directory)
	if readError != nil {
		return nil, fmt.Errorf(errorReadDirectoryFormat, directory, readError)
	}

	entries := make([]directoryEntry, 0, len(infos))
	for _, info := range infos {
		entryPath := filepath.Join(directory, info.Name())
		entry := directoryEntry{name: info.Name(), path: entryPath}
		resolvedInfo, statError := filesystem.Stat(entryPath)
		if statError == nil {
			entry.info = resolvedInfo
			entry.isDir = resolvedInfo.IsDir()
			entry.regular = resolvedInfo.Mode().IsRegular()
		}
		if builder.isExcludedEntry(entry) {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// orderEntries places sorted files ahead of sorted directories.
func orderEntries(entries []directoryEntry) []directoryEntry {
	var files, directories []directoryEntry
	for _, entry := range entries {
		if entry.isDir {
			directories = append(directories, entry)
		} else {
			files = append(files, entry)
		}
	}
	sort.Slice(files, func(left, right int) bool { return files[left].name < files[right].name })
	sort.Slice(directories, func(left, right int) bool { return directories[left].name < directories[right].name })
	return append(files, directories...)
}

func connectorFor(isLast bool) string {
	if isLast {
		return LastConnector
	}
	return BranchConnector
}

func childPrefix(prefix string, isLast bool) string {
	if isLast {
		return prefix + LastIndent
	}
	return prefix + BranchIndent
}

func (builder *Builder) fileLine(prefix string, connector string, entry directoryEntry) string {
	lineCount := 0
	if builder.Counter != nil {
		lineCount = builder.Counter.CountLines(entry.path)
	}
	warning := ""
	if builder.Indicator != nil {
		warning = builder.Indicator.LineCountIndicator(entry.path, lineCount)
	}
	icon := ""
	if builder.Icons != nil {
		icon = builder.Icons.Emoji(entry.name)
	}
	return fmt.Sprintf(fileLineFormat, prefix, connector, icon, entry.name, lineCount, warning)
}

func directoryLine(prefix string, connector string, name string) string {
	return fmt.Sprintf(directoryLineFormat, prefix, connector, FolderIcon, name)
}

func permissionLine(prefix string, directory string) string {
	return fmt.Sprintf(permissionLineFormat, prefix, LastConnector, LockIcon, filepath.Base(directory))
}

func loopLine(prefix string, name string) string {
	return fmt.Sprintf(loopLineFormat, prefix, LastConnector, LoopIcon, name)
}

func isPermissionError(err error) bool {
	return errors.Is(err, fs.ErrPermission)
}
