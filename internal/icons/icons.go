// Package icons maps file names to the emoji shown beside them in rendered trees.
package icons

import (
	"path/filepath"
	"strings"
)

// DefaultIcon is shown for files matching no rule.
const DefaultIcon = "📄"

var nameIcons = map[string]string{
	"dockerfile":         "🐳",
	"docker-compose.yml": "🐳",
	"makefile":           "🛠️",
	"license":            "📜",
	"readme.md":          "📖",
	"go.mod":             "📦",
	"go.sum":             "🔐",
	"package.json":       "📦",
	"package-lock.json":  "🔐",
	"requirements.txt":   "📦",
	"pyproject.toml":     "📦",
	"cargo.toml":         "📦",
	".gitignore":         "🙈",
	".env":               "🔑",
}

var extensionIcons = map[string]string{
	".go":    "🐹",
	".py":    "🐍",
	".js":    "📜",
	".jsx":   "⚛️",
	".ts":    "📘",
	".tsx":   "⚛️",
	".rs":    "🦀",
	".java":  "☕",
	".rb":    "💎",
	".php":   "🐘",
	".c":     "🔧",
	".h":     "🔧",
	".cpp":   "🔧",
	".sh":    "🐚",
	".md":    "📝",
	".txt":   "📄",
	".json":  "📋",
	".yaml":  "⚙️",
	".yml":   "⚙️",
	".toml":  "⚙️",
	".ini":   "⚙️",
	".xml":   "📰",
	".html":  "🌐",
	".css":   "🎨",
	".scss":  "🎨",
	".sql":   "🗃️",
	".png":   "🖼️",
	".jpg":   "🖼️",
	".jpeg":  "🖼️",
	".gif":   "🖼️",
	".svg":   "🖼️",
	".pdf":   "📕",
	".zip":   "🗜️",
	".gz":    "🗜️",
	".lock":  "🔐",
	".log":   "🪵",
	".csv":   "📊",
	".proto": "📡",
}

// Table resolves icons by exact file name first, then by extension.
type Table struct {
	names      map[string]string
	extensions map[string]string
}

// NewTable returns the built-in icon table extended by overrides. Override keys
// starting with "." are extensions; any other key is an exact file name. Keys are
// case-insensitive and overrides win over built-in entries.
func NewTable(overrides map[string]string) *Table {
	table := &Table{
		names:      make(map[string]string, len(nameIcons)),
		extensions: make(map[string]string, len(extensionIcons)),
	}
	for name, icon := range nameIcons {
		table.names[name] = icon
	}
	for extension, icon := range extensionIcons {
		table.extensions[extension] = icon
	}
	for key, icon := range overrides {
		normalizedKey := strings.ToLower(strings.TrimSpace(key))
		if normalizedKey == "" || strings.TrimSpace(icon) == "" {
			continue
		}
		if strings.HasPrefix(normalizedKey, ".") {
			table.extensions[normalizedKey] = icon
			// ".env"-style dotfiles are names as well as extensions.
			table.names[normalizedKey] = icon
			continue
		}
		table.names[normalizedKey] = icon
	}
	return table
}

// Emoji returns the icon for a file name.
func (table *Table) Emoji(name string) string {
	lowerName := strings.ToLower(filepath.Base(name))
	if icon, found := table.names[lowerName]; found {
		return icon
	}
	if icon, found := table.extensions[filepath.Ext(lowerName)]; found {
		return icon
	}
	return DefaultIcon
}
