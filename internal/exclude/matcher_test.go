package exclude

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

const projectRoot = "/proj"

func newProject(t *testing.T, files map[string]string, directories ...string) afero.Fs {
	t.Helper()
	filesystem := afero.NewMemMapFs()
	require.NoError(t, filesystem.MkdirAll(projectRoot, 0o755))
	for _, directory := range directories {
		require.NoError(t, filesystem.MkdirAll(filepath.Join(projectRoot, directory), 0o755))
	}
	for path, content := range files {
		fullPath := filepath.Join(projectRoot, path)
		require.NoError(t, filesystem.MkdirAll(filepath.Dir(fullPath), 0o755))
		require.NoError(t, afero.WriteFile(filesystem, fullPath, []byte(content), 0o644))
	}
	return filesystem
}

// deniedFilesystem treats the listed paths like unreadable ones: a denied
// directory can be stat'ed from its parent, but neither it nor anything below
// it can be opened, and nothing below it can be stat'ed.
type deniedFilesystem struct {
	afero.Fs
	denied []string
}

func (filesystem deniedFilesystem) locate(name string) (inside bool, below bool) {
	cleaned := filepath.Clean(name)
	for _, deniedPath := range filesystem.denied {
		if cleaned == deniedPath {
			inside = true
		} else if strings.HasPrefix(cleaned, deniedPath+string(filepath.Separator)) {
			return true, true
		}
	}
	return inside, false
}

func (filesystem deniedFilesystem) Open(name string) (afero.File, error) {
	if inside, _ := filesystem.locate(name); inside {
		return nil, &os.PathError{Op: "open", Path: name, Err: os.ErrPermission}
	}
	return filesystem.Fs.Open(name)
}

func (filesystem deniedFilesystem) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	if inside, _ := filesystem.locate(name); inside {
		return nil, &os.PathError{Op: "open", Path: name, Err: os.ErrPermission}
	}
	return filesystem.Fs.OpenFile(name, flag, perm)
}

func (filesystem deniedFilesystem) Stat(name string) (os.FileInfo, error) {
	if _, below := filesystem.locate(name); below {
		return nil, &os.PathError{Op: "stat", Path: name, Err: os.ErrPermission}
	}
	return filesystem.Fs.Stat(name)
}

type exclusionCase struct {
	path     string
	excluded bool
}

func assertExclusions(t *testing.T, matcher *Matcher, cases []exclusionCase) {
	t.Helper()
	for _, testCase := range cases {
		fullPath := filepath.Join(projectRoot, testCase.path)
		require.Equal(t, testCase.excluded, matcher.ShouldExclude(fullPath), testCase.path)
	}
}

func TestMatcherDefaultNames(t *testing.T) {
	filesystem := newProject(t, map[string]string{"main.go": ""}, ".git", "node_modules", "web/node_modules", "src")

	matcher, matcherError := NewMatcher(projectRoot, Options{Fs: filesystem})
	require.NoError(t, matcherError)
	assertExclusions(t, matcher, []exclusionCase{
		{path: ".git", excluded: true},
		{path: "node_modules", excluded: true},
		{path: "web/node_modules", excluded: true},
		{path: "src", excluded: false},
		{path: "main.go", excluded: false},
	})

	withGit, withGitError := NewMatcher(projectRoot, Options{Fs: filesystem, IncludeGit: true})
	require.NoError(t, withGitError)
	require.False(t, withGit.ShouldExclude(filepath.Join(projectRoot, ".git")))
}

func TestMatcherGlobPatterns(t *testing.T) {
	filesystem := newProject(t, map[string]string{
		"app.log":         "",
		"sub/deep.log":    "",
		"docs/guide.md":   "",
		"notes.md":        "",
		"sub/vendor/x.go": "",
		"dist":            "",
	}, "vendor", "build", "sub/build")

	matcher, matcherError := NewMatcher(projectRoot, Options{
		Fs:       filesystem,
		Patterns: []string{"*.log", "docs/*.md", "/vendor", "build/", "dist/", " "},
	})
	require.NoError(t, matcherError)
	assertExclusions(t, matcher, []exclusionCase{
		{path: "app.log", excluded: true},
		{path: "sub/deep.log", excluded: true},
		{path: "docs/guide.md", excluded: true},
		{path: "notes.md", excluded: false},
		{path: "vendor", excluded: true},
		{path: "sub/vendor", excluded: false},
		{path: "build", excluded: true},
		{path: "sub/build", excluded: true},
		{path: "dist", excluded: false},
	})
}

func TestMatcherRejectsInvalidGlob(t *testing.T) {
	_, matcherError := NewMatcher(projectRoot, Options{Fs: newProject(t, nil), Patterns: []string{"[abc"}})
	require.Error(t, matcherError)
}

func TestMatcherGitignoreFiles(t *testing.T) {
	filesystem := newProject(t, map[string]string{
		".gitignore":     "# build output\n*.tmp\n!keep.tmp\nout/\n",
		"a.tmp":          "",
		"keep.tmp":       "",
		"local.txt":      "",
		"sub/.gitignore": "local.txt\n",
		"sub/local.txt":  "",
		"sub/other.txt":  "",
	}, "out")

	testCases := []struct {
		name     string
		options  Options
		expected []exclusionCase
	}{
		{
			name:    "recursive",
			options: Options{UseGitignore: true, Recursive: true},
			expected: []exclusionCase{
				{path: "a.tmp", excluded: true},
				{path: "keep.tmp", excluded: false},
				{path: "out", excluded: true},
				{path: "local.txt", excluded: false},
				{path: "sub/local.txt", excluded: true},
				{path: "sub/other.txt", excluded: false},
			},
		},
		{
			name:    "root_only",
			options: Options{UseGitignore: true},
			expected: []exclusionCase{
				{path: "a.tmp", excluded: true},
				{path: "sub/local.txt", excluded: false},
			},
		},
		{
			name:    "disabled",
			options: Options{Recursive: true},
			expected: []exclusionCase{
				{path: "a.tmp", excluded: false},
				{path: "out", excluded: false},
			},
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			options := testCase.options
			options.Fs = filesystem
			matcher, matcherError := NewMatcher(projectRoot, options)
			require.NoError(t, matcherError)
			assertExclusions(t, matcher, testCase.expected)
		})
	}
}

func TestMatcherIgnoreFileSections(t *testing.T) {
	filesystem := newProject(t, map[string]string{
		".ignore":    "secret.txt\n[binary]\nimage.png\n[ignore]\ndrafts/\n",
		"secret.txt": "",
		"image.png":  "",
	}, "drafts")

	matcher, matcherError := NewMatcher(projectRoot, Options{Fs: filesystem, UseIgnoreFile: true, Recursive: true})
	require.NoError(t, matcherError)
	assertExclusions(t, matcher, []exclusionCase{
		{path: "secret.txt", excluded: true},
		{path: "image.png", excluded: false},
		{path: "drafts", excluded: true},
	})
}

func TestMatcherNeverExcludesRootOrOutsidePaths(t *testing.T) {
	filesystem := newProject(t, map[string]string{".gitignore": "*\n"})

	matcher, matcherError := NewMatcher(projectRoot, Options{Fs: filesystem, UseGitignore: true, Patterns: []string{"*"}})
	require.NoError(t, matcherError)
	require.False(t, matcher.ShouldExclude(projectRoot))
	require.False(t, matcher.ShouldExclude("/elsewhere/file.txt"))
	require.True(t, matcher.ShouldExclude(filepath.Join(projectRoot, "anything")))
}

func TestMatcherMissingRoot(t *testing.T) {
	_, matcherError := NewMatcher("/missing", Options{Fs: afero.NewMemMapFs(), UseGitignore: true})
	require.Error(t, matcherError)
}

func TestMatcherSkipsUnreadableIgnoreSources(t *testing.T) {
	memory := newProject(t, map[string]string{
		".gitignore":        "*.tmp\n",
		".ignore":           "*.bak\n",
		"locked/.gitignore": "*\n",
		"locked/inner.txt":  "",
		"sub/.gitignore":    "local.txt\n",
		"sub/local.txt":     "",
		"a.tmp":             "",
		"a.bak":             "",
	})
	filesystem := deniedFilesystem{Fs: memory, denied: []string{
		filepath.Join(projectRoot, "locked"),
		filepath.Join(projectRoot, ".ignore"),
	}}

	matcher, matcherError := NewMatcher(projectRoot, Options{
		Fs:            filesystem,
		UseGitignore:  true,
		UseIgnoreFile: true,
		Recursive:     true,
	})
	require.NoError(t, matcherError)
	assertExclusions(t, matcher, []exclusionCase{
		{path: "locked", excluded: false},
		{path: "a.tmp", excluded: true},
		{path: "a.bak", excluded: false},
		{path: "sub/local.txt", excluded: true},
	})
}

func TestMatcherOnUnreadableRoot(t *testing.T) {
	memory := newProject(t, map[string]string{".gitignore": "*\n"})
	filesystem := deniedFilesystem{Fs: memory, denied: []string{projectRoot}}

	for _, recursive := range []bool{true, false} {
		matcher, matcherError := NewMatcher(projectRoot, Options{
			Fs:            filesystem,
			UseGitignore:  true,
			UseIgnoreFile: true,
			Recursive:     recursive,
		})
		require.NoError(t, matcherError)
		require.False(t, matcher.ShouldExclude(projectRoot))
	}
}

func TestMatcherUsesDirectoryHint(t *testing.T) {
	matcher, matcherError := NewMatcher(projectRoot, Options{
		Fs:       newProject(t, nil),
		Patterns: []string{"build/"},
	})
	require.NoError(t, matcherError)
	require.True(t, matcher.ShouldExcludeEntry(filepath.Join(projectRoot, "build"), true))
	require.False(t, matcher.ShouldExcludeEntry(filepath.Join(projectRoot, "build"), false))
	require.False(t, matcher.ShouldExcludeEntry(projectRoot, true))
	require.False(t, matcher.ShouldExcludeEntry("/elsewhere/build", true))
}
