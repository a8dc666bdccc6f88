// Package report renders one root directory into a types.Report with totals.
package report

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/tyemirov/loctree/internal/exclude"
	"github.com/tyemirov/loctree/internal/icons"
	"github.com/tyemirov/loctree/internal/linecount"
	"github.com/tyemirov/loctree/internal/thresholds"
	"github.com/tyemirov/loctree/internal/tokenizer"
	"github.com/tyemirov/loctree/internal/tree"
	"github.com/tyemirov/loctree/internal/types"
	"github.com/tyemirov/loctree/internal/utils"
)

const (
	errorAbsolutePathFormat = "getting absolute path for %s: %w"
	errorExclusionFormat    = "preparing exclusions for %s: %w"
	errorRenderFormat       = "rendering %s: %w"
	errorUnknownModeFormat  = "unknown mode %q"
)

// Options selects the rendering mode and configures every collaborator.
type Options struct {
	// Mode is types.ModeTree or types.ModeFiles. Empty means types.ModeTree.
	Mode      string
	Exclusion exclude.Options

	Limits          thresholds.Limits
	ExtensionLimits map[string]thresholds.Limits
	Styled          bool

	IconOverrides map[string]string

	// TokenCounter enables token totals when non-nil.
	TokenCounter tokenizer.Counter
	Model        string

	Fs     afero.Fs
	Logger *zap.Logger
}

// Generate renders root according to options.
func Generate(root string, options Options) (types.Report, error) {
	absoluteRoot, absoluteError := filepath.Abs(root)
	if absoluteError != nil {
		return types.Report{}, fmt.Errorf(errorAbsolutePathFormat, root, absoluteError)
	}
	mode := options.Mode
	if mode == "" {
		mode = types.ModeTree
	}
	if mode != types.ModeTree && mode != types.ModeFiles {
		return types.Report{}, fmt.Errorf(errorUnknownModeFormat, mode)
	}

	filesystem := options.Fs
	if filesystem == nil {
		filesystem = afero.NewOsFs()
	}
	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	exclusionOptions := options.Exclusion
	exclusionOptions.Fs = filesystem
	exclusionOptions.Logger = logger
	exclusionOptions.Recursive = mode == types.ModeTree
	matcher, matcherError := exclude.NewMatcher(absoluteRoot, exclusionOptions)
	if matcherError != nil {
		return types.Report{}, fmt.Errorf(errorExclusionFormat, absoluteRoot, matcherError)
	}

	tally := linecount.NewTally(linecount.NewCounter(filesystem, logger), options.TokenCounter)
	flagged := thresholds.NewFlagged(thresholds.NewIndicator(options.Limits, options.ExtensionLimits, options.Styled))
	builder := &tree.Builder{
		Fs:        filesystem,
		Excluder:  matcher,
		Icons:     icons.NewTable(options.IconOverrides),
		Counter:   tally,
		Indicator: flagged,
	}

	var lines []string
	var buildError error
	if mode == types.ModeFiles {
		lines, buildError = builder.BuildCurrentLevel(absoluteRoot, "")
	} else {
		lines, buildError = builder.BuildTree(absoluteRoot, "")
	}
	if buildError != nil {
		return types.Report{}, fmt.Errorf(errorRenderFormat, absoluteRoot, buildError)
	}

	totals := tally.Totals()
	summary := &types.Summary{
		Files:       totals.Files,
		Lines:       totals.Lines,
		Size:        utils.FormatFileSize(totals.Bytes),
		SizeBytes:   totals.Bytes,
		BinaryFiles: totals.BinaryFiles,
		Flagged:     flagged.Count(),
	}
	if options.TokenCounter != nil {
		summary.Tokens = totals.Tokens
		summary.Model = options.Model
	}

	return types.Report{
		Root:    absoluteRoot,
		Name:    filepath.Base(absoluteRoot),
		Mode:    mode,
		Lines:   lines,
		Summary: summary,
	}, nil
}
