// Package thresholds flags files whose line counts exceed configured limits.
package thresholds

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

const (
	// DefaultWarning is the line count above which a file gets a warning suffix.
	DefaultWarning = 300
	// DefaultCritical is the line count above which a file gets a critical suffix.
	DefaultCritical = 500

	warningIcon    = "⚠️"
	criticalIcon   = "🔴"
	warningFormat  = "[WARNING: exceeds %d lines]"
	criticalFormat = "[CRITICAL: exceeds %d lines]"
	suffixFormat   = " %s %s"
)

// Limits holds the warning and critical line counts. A zero limit is disabled.
type Limits struct {
	Warning  int
	Critical int
}

// DefaultLimits returns the built-in limits.
func DefaultLimits() Limits {
	return Limits{Warning: DefaultWarning, Critical: DefaultCritical}
}

var (
	warningStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	criticalStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

// Indicator formats warning suffixes from default limits and per-extension overrides.
type Indicator struct {
	defaults   Limits
	extensions map[string]Limits
	styled     bool
}

// NewIndicator builds an Indicator. Extension keys are matched case-insensitively
// with or without the leading dot. When styled is true the bracketed text is coloured
// for terminal display.
func NewIndicator(defaults Limits, extensions map[string]Limits, styled bool) *Indicator {
	normalized := make(map[string]Limits, len(extensions))
	for extension, limits := range extensions {
		key := strings.ToLower(strings.TrimSpace(extension))
		if key == "" {
			continue
		}
		if !strings.HasPrefix(key, ".") {
			key = "." + key
		}
		normalized[key] = limits
	}
	return &Indicator{defaults: defaults, extensions: normalized, styled: styled}
}

// LimitsFor returns the limits applying to path.
func (indicator *Indicator) LimitsFor(path string) Limits {
	if limits, found := indicator.extensions[strings.ToLower(filepath.Ext(path))]; found {
		return limits
	}
	return indicator.defaults
}

// LineCountIndicator returns the suffix for a file with lineCount lines, or an
// empty string when the file is within its limits.
func (indicator *Indicator) LineCountIndicator(path string, lineCount int) string {
	limits := indicator.LimitsFor(path)
	switch {
	case limits.Critical > 0 && lineCount > limits.Critical:
		return indicator.suffix(criticalIcon, fmt.Sprintf(criticalFormat, limits.Critical), criticalStyle)
	case limits.Warning > 0 && lineCount > limits.Warning:
		return indicator.suffix(warningIcon, fmt.Sprintf(warningFormat, limits.Warning), warningStyle)
	default:
		return ""
	}
}

func (indicator *Indicator) suffix(icon string, text string, style lipgloss.Style) string {
	if indicator.styled {
		text = style.Render(text)
	}
	return fmt.Sprintf(suffixFormat, icon, text)
}

// LineCountFormatter is the contract wrapped by Flagged.
type LineCountFormatter interface {
	LineCountIndicator(path string, lineCount int) string
}

// Flagged counts how many files received a non-empty suffix. It is safe for
// concurrent use.
type Flagged struct {
	formatter LineCountFormatter

	mutex sync.Mutex
	count int
}

// NewFlagged wraps formatter.
func NewFlagged(formatter LineCountFormatter) *Flagged {
	return &Flagged{formatter: formatter}
}

// LineCountIndicator delegates to the wrapped formatter and records flagged files.
func (flagged *Flagged) LineCountIndicator(path string, lineCount int) string {
	suffix := flagged.formatter.LineCountIndicator(path, lineCount)
	if suffix != "" {
		flagged.mutex.Lock()
		flagged.count++
		flagged.mutex.Unlock()
	}
	return suffix
}

// Count returns the number of flagged files so far.
func (flagged *Flagged) Count() int {
	flagged.mutex.Lock()
	defer flagged.mutex.Unlock()
	return flagged.count
}
