// Package exclude decides which paths are hidden from rendered trees. Rules come
// from built-in names, user glob patterns, and .gitignore / .ignore files found
// under the root.
package exclude

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	"github.com/gobwas/glob"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/tyemirov/loctree/internal/utils"
)

const (
	pathSeparator     = '/'
	slash             = "/"
	filesystemRootDir = "/"

	errorCompilePatternFormat = "compile exclusion pattern %q: %w"
	errorLoadIgnoreFormat     = "loading %s from %s: %w"
	errorWalkRootFormat       = "collecting ignore files under %s: %w"
	errorGlobalPatternsFormat = "loading global gitignore patterns: %w"

	debugSkipUnreadable           = "skipping unreadable directory while collecting ignore files"
	debugSkipUnreadableIgnoreFile = "skipping unreadable ignore file"
)

// DefaultNames lists entry names hidden at any depth.
var DefaultNames = []string{
	utils.GitDirectoryName,
	"node_modules",
	"__pycache__",
	".venv",
	".idea",
	".DS_Store",
}

// Options configures a Matcher.
type Options struct {
	// Patterns are glob patterns matched against root-relative slash paths and,
	// for patterns without a slash, against base names. A leading slash anchors
	// a pattern to the root and a trailing slash limits it to directories.
	Patterns []string
	// UseGitignore reads .gitignore files.
	UseGitignore bool
	// UseGlobalGitignore also applies the user's core.excludesfile.
	UseGlobalGitignore bool
	// UseIgnoreFile reads .ignore files.
	UseIgnoreFile bool
	// IncludeGit keeps the .git directory visible.
	IncludeGit bool
	// Recursive collects ignore files from every directory instead of the root only.
	Recursive bool

	Fs     afero.Fs
	Logger *zap.Logger
}

type globPattern struct {
	matcher       glob.Glob
	directoryOnly bool
	baseNameOnly  bool
}

// Matcher evaluates exclusion rules for paths under one root.
type Matcher struct {
	root          string
	filesystem    afero.Fs
	names         map[string]struct{}
	globs         []globPattern
	ignoreMatcher gitignore.Matcher
}

// NewMatcher compiles options into a Matcher for root.
func NewMatcher(root string, options Options) (*Matcher, error) {
	absoluteRoot, absoluteError := filepath.Abs(root)
	if absoluteError != nil {
		return nil, absoluteError
	}
	filesystem := options.Fs
	if filesystem == nil {
		filesystem = afero.NewOsFs()
	}
	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	matcher := &Matcher{
		root:       absoluteRoot,
		filesystem: filesystem,
		names:      make(map[string]struct{}, len(DefaultNames)),
	}
	for _, name := range DefaultNames {
		if options.IncludeGit && name == utils.GitDirectoryName {
			continue
		}
		matcher.names[name] = struct{}{}
	}

	for _, pattern := range utils.DeduplicatePatterns(options.Patterns) {
		compiled, compileError := compileGlob(pattern)
		if compileError != nil {
			return nil, compileError
		}
		matcher.globs = append(matcher.globs, compiled)
	}

	var patterns []gitignore.Pattern
	if options.UseGitignore && options.UseGlobalGitignore {
		globalPatterns, globalError := gitignore.LoadGlobalPatterns(osfs.New(filesystemRootDir))
		if globalError != nil {
			return nil, fmt.Errorf(errorGlobalPatternsFormat, globalError)
		}
		patterns = append(patterns, globalPatterns...)
	}
	if options.UseGitignore || options.UseIgnoreFile {
		filePatterns, collectError := matcher.collectIgnoreFiles(options, logger, patterns)
		if collectError != nil {
			return nil, collectError
		}
		patterns = append(patterns, filePatterns...)
	}
	if len(patterns) > 0 {
		matcher.ignoreMatcher = gitignore.NewMatcher(patterns)
	}
	return matcher, nil
}

func compileGlob(pattern string) (globPattern, error) {
	normalized := filepath.ToSlash(pattern)
	directoryOnly := strings.HasSuffix(normalized, slash)
	anchored := strings.HasPrefix(normalized, slash)
	normalized = strings.Trim(normalized, slash)
	compiled, compileError := glob.Compile(normalized, pathSeparator)
	if compileError != nil {
		return globPattern{}, fmt.Errorf(errorCompilePatternFormat, pattern, compileError)
	}
	return globPattern{
		matcher:       compiled,
		directoryOnly: directoryOnly,
		baseNameOnly:  !anchored && !strings.Contains(normalized, slash),
	}, nil
}

type ignoreFileKind struct {
	name      string
	sectioned bool
}

// collectIgnoreFiles walks the root in pre-order so patterns from ancestors are
// known before descending, which lets ignored directories be skipped.
func (matcher *Matcher) collectIgnoreFiles(options Options, logger *zap.Logger, inherited []gitignore.Pattern) ([]gitignore.Pattern, error) {
	var ignoreFiles []ignoreFileKind
	if options.UseGitignore {
		ignoreFiles = append(ignoreFiles, ignoreFileKind{name: utils.GitIgnoreFileName})
	}
	if options.UseIgnoreFile {
		ignoreFiles = append(ignoreFiles, ignoreFileKind{name: utils.IgnoreFileName, sectioned: true})
	}

	var collected []gitignore.Pattern
	walkFunction := func(path string, info os.FileInfo, walkError error) error {
		if walkError != nil {
			if errors.Is(walkError, fs.ErrPermission) {
				logger.Debug(debugSkipUnreadable, zap.String("path", path), zap.Error(walkError))
				return nil
			}
			return walkError
		}
		if info == nil || !info.IsDir() {
			return nil
		}

		segments := utils.SplitRelativePath(utils.RelativePathOrSelf(path, matcher.root))
		if len(segments) > 0 {
			if !options.Recursive {
				return filepath.SkipDir
			}
			if matcher.matchesStaticRules(segments, true) {
				return filepath.SkipDir
			}
			known := append(append([]gitignore.Pattern{}, inherited...), collected...)
			if len(known) > 0 && gitignore.NewMatcher(known).Match(segments, true) {
				return filepath.SkipDir
			}
		}

		for _, ignoreFile := range ignoreFiles {
			filePatterns, loadError := readIgnoreFile(matcher.filesystem, filepath.Join(path, ignoreFile.name), segments, ignoreFile.sectioned)
			if loadError != nil {
				// Locked directories are marked by the renderer, not here.
				if errors.Is(loadError, fs.ErrPermission) {
					logger.Debug(debugSkipUnreadableIgnoreFile, zap.String("path", path), zap.String("file", ignoreFile.name), zap.Error(loadError))
					continue
				}
				return fmt.Errorf(errorLoadIgnoreFormat, ignoreFile.name, path, loadError)
			}
			collected = append(collected, filePatterns...)
		}
		return nil
	}

	if walkError := afero.Walk(matcher.filesystem, matcher.root, walkFunction); walkError != nil {
		return nil, fmt.Errorf(errorWalkRootFormat, matcher.root, walkError)
	}
	return collected, nil
}

// ShouldExclude reports whether path is hidden. The root itself and paths
// outside the root are never excluded.
func (matcher *Matcher) ShouldExclude(path string) bool {
	segments, inside := matcher.relativeSegments(path)
	if !inside {
		return false
	}
	isDirectory := false
	if info, statError := matcher.filesystem.Stat(path); statError == nil {
		isDirectory = info.IsDir()
	}
	return matcher.matches(segments, isDirectory)
}

// ShouldExcludeEntry is ShouldExclude for a caller that already resolved
// whether path is a directory.
func (matcher *Matcher) ShouldExcludeEntry(path string, isDirectory bool) bool {
	segments, inside := matcher.relativeSegments(path)
	return inside && matcher.matches(segments, isDirectory)
}

// relativeSegments splits path relative to the root. It reports false for the
// root itself and for paths outside it.
func (matcher *Matcher) relativeSegments(path string) ([]string, bool) {
	relativePath := utils.RelativePathOrSelf(path, matcher.root)
	if utils.IsOutsideRoot(relativePath) {
		return nil, false
	}
	segments := utils.SplitRelativePath(relativePath)
	return segments, len(segments) > 0
}

func (matcher *Matcher) matches(segments []string, isDirectory bool) bool {
	if matcher.matchesStaticRules(segments, isDirectory) {
		return true
	}
	return matcher.ignoreMatcher != nil && matcher.ignoreMatcher.Match(segments, isDirectory)
}

func (matcher *Matcher) matchesStaticRules(segments []string, isDirectory bool) bool {
	baseName := segments[len(segments)-1]
	if _, hidden := matcher.names[baseName]; hidden {
		return true
	}
	relativePath := strings.Join(segments, slash)
	for _, pattern := range matcher.globs {
		if pattern.directoryOnly && !isDirectory {
			continue
		}
		if pattern.matcher.Match(relativePath) {
			return true
		}
		if pattern.baseNameOnly && pattern.matcher.Match(baseName) {
			return true
		}
	}
	return false
}
