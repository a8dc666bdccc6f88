package report

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/tyemirov/loctree/internal/exclude"
	"github.com/tyemirov/loctree/internal/thresholds"
	"github.com/tyemirov/loctree/internal/types"
)

type runeCounter struct{}

func (runeCounter) Name() string { return "runes" }

func (runeCounter) CountString(input string) (int, error) { return len([]rune(input)), nil }

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

func newProject(t *testing.T) afero.Fs {
	t.Helper()
	filesystem := afero.NewMemMapFs()
	files := map[string]string{
		"/proj/a.txt":             "one\n",
		"/proj/b.txt":             "1\n2\n3\n",
		"/proj/x.log":             "noise\n",
		"/proj/sub/c.go":          "package sub\n",
		"/proj/node_modules/m.js": "module\n",
	}
	for path, content := range files {
		require.NoError(t, filesystem.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, afero.WriteFile(filesystem, path, []byte(content), 0o644))
	}
	return filesystem
}

func baseOptions(filesystem afero.Fs, mode string) Options {
	return Options{
		Mode:      mode,
		Exclusion: exclude.Options{Patterns: []string{"*.log"}},
		Limits:    thresholds.Limits{Warning: 2, Critical: 10},
		Fs:        filesystem,
	}
}

func TestGenerateTree(t *testing.T) {
	report, generateError := Generate("/proj", baseOptions(newProject(t), types.ModeTree))
	require.NoError(t, generateError)

	require.Equal(t, "/proj", report.Root)
	require.Equal(t, "proj", report.Name)
	require.Equal(t, types.ModeTree, report.Mode)
	require.Equal(t, []string{
		"├─ 📄 a.txt (1 lines)",
		"├─ 📄 b.txt (3 lines) ⚠️ [WARNING: exceeds 2 lines]",
		"└─ 📂 sub",
		"    └─ 🐹 c.go (1 lines)",
	}, report.Lines)
	require.Equal(t, &types.Summary{
		Files:     3,
		Lines:     5,
		Size:      "22b",
		SizeBytes: 22,
		Flagged:   1,
	}, report.Summary)
}

func TestGenerateFilesMode(t *testing.T) {
	report, generateError := Generate("/proj", baseOptions(newProject(t), types.ModeFiles))
	require.NoError(t, generateError)

	require.Equal(t, types.ModeFiles, report.Mode)
	require.Equal(t, []string{
		"├─ 📄 a.txt (1 lines)",
		"└─ 📄 b.txt (3 lines) ⚠️ [WARNING: exceeds 2 lines]",
	}, report.Lines)
	require.Equal(t, 2, report.Summary.Files)
	require.Equal(t, 4, report.Summary.Lines)
}

func TestGenerateDefaultsToTreeMode(t *testing.T) {
	report, generateError := Generate("/proj", baseOptions(newProject(t), ""))
	require.NoError(t, generateError)
	require.Equal(t, types.ModeTree, report.Mode)
	require.Len(t, report.Lines, 4)
}

func TestGenerateCountsTokens(t *testing.T) {
	options := baseOptions(newProject(t), types.ModeTree)
	options.TokenCounter = runeCounter{}
	options.Model = "runes"

	report, generateError := Generate("/proj", options)
	require.NoError(t, generateError)
	require.Equal(t, 22, report.Summary.Tokens)
	require.Equal(t, "runes", report.Summary.Model)
}

func TestGenerateHonoursExtensionLimits(t *testing.T) {
	options := baseOptions(newProject(t), types.ModeTree)
	options.ExtensionLimits = map[string]thresholds.Limits{"txt": {Warning: 0, Critical: 2}}

	report, generateError := Generate("/proj", options)
	require.NoError(t, generateError)
	require.Equal(t, "├─ 📄 b.txt (3 lines) 🔴 [CRITICAL: exceeds 2 lines]", report.Lines[1])
	require.Equal(t, 1, report.Summary.Flagged)
}

func TestGenerateRejectsUnknownMode(t *testing.T) {
	_, generateError := Generate("/proj", baseOptions(newProject(t), "forest"))
	require.Error(t, generateError)
}

func TestGenerateMissingRoot(t *testing.T) {
	_, generateError := Generate("/missing", baseOptions(afero.NewMemMapFs(), types.ModeTree))
	require.ErrorIs(t, generateError, fs.ErrNotExist)
}

func newLockedProject(t *testing.T) afero.Fs {
	t.Helper()
	memory := newProject(t)
	require.NoError(t, afero.WriteFile(memory, "/proj/.gitignore", []byte("x.log\n"), 0o644))
	require.NoError(t, memory.MkdirAll("/proj/locked", 0o755))
	require.NoError(t, afero.WriteFile(memory, "/proj/locked/secret.txt", []byte("secret\n"), 0o644))
	require.NoError(t, afero.WriteFile(memory, "/proj/locked/.gitignore", []byte("*\n"), 0o644))
	return deniedFilesystem{Fs: memory, denied: []string{"/proj/locked"}}
}

func TestGenerateMarksLockedDirectoriesWithIgnoreFilesEnabled(t *testing.T) {
	options := baseOptions(newLockedProject(t), types.ModeTree)
	options.Exclusion = exclude.Options{UseGitignore: true, UseIgnoreFile: true}

	report, generateError := Generate("/proj", options)
	require.NoError(t, generateError)
	require.Equal(t, []string{
		"├─ 🙈 .gitignore (1 lines)",
		"├─ 📄 a.txt (1 lines)",
		"├─ 📄 b.txt (3 lines) ⚠️ [WARNING: exceeds 2 lines]",
		"├─ 📂 locked",
		"│   └─ 🔒 Permission Denied: locked",
		"└─ 📂 sub",
		"    └─ 🐹 c.go (1 lines)",
	}, report.Lines)
	require.Equal(t, 4, report.Summary.Files)
}

func TestGenerateLockedRoot(t *testing.T) {
	for _, mode := range []string{types.ModeTree, types.ModeFiles} {
		mode := mode
		t.Run(mode, func(t *testing.T) {
			options := baseOptions(newLockedProject(t), mode)
			options.Exclusion = exclude.Options{UseGitignore: true, UseIgnoreFile: true}

			report, generateError := Generate("/proj/locked", options)
			require.NoError(t, generateError)
			require.Equal(t, []string{"└─ 🔒 Permission Denied: locked"}, report.Lines)
			require.Equal(t, 0, report.Summary.Files)
		})
	}
}
