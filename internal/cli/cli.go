// Package cli provides the command line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tyemirov/loctree/internal/config"
	"github.com/tyemirov/loctree/internal/exclude"
	"github.com/tyemirov/loctree/internal/output"
	"github.com/tyemirov/loctree/internal/report"
	"github.com/tyemirov/loctree/internal/services/clipboard"
	"github.com/tyemirov/loctree/internal/thresholds"
	"github.com/tyemirov/loctree/internal/tokenizer"
	"github.com/tyemirov/loctree/internal/types"
	"github.com/tyemirov/loctree/internal/utils"
)

const (
	exclusionFlagName      = "exclude"
	exclusionFlagShorthand = "e"
	noGitignoreFlagName    = "no-gitignore"
	noIgnoreFlagName       = "no-ignore"
	includeGitFlagName     = "git"
	formatFlagName         = "format"
	summaryFlagName        = "summary"
	tokensFlagName         = "tokens"
	modelFlagName          = "model"
	colorFlagName          = "color"
	warningFlagName        = "warning"
	criticalFlagName       = "critical"
	copyFlagName           = "copy"
	configFlagName         = "config"
	verboseFlagName        = "verbose"
	versionFlagName        = "version"
	globalFlagName         = "global"
	forceFlagName          = "force"

	versionTemplate      = "loctree version: %s\n"
	defaultPath          = "."
	rootUse              = "loctree"
	rootShortDescription = "directory trees annotated with line counts"
	rootLongDescription  = `loctree renders directory trees where every file shows its line count.
Files above the warning or critical line limits are flagged.
Use tree for the full hierarchy and files for the files of a single directory.`

	treeUse               = "tree [paths...]"
	filesUse              = "files [paths...]"
	initUse               = "init"
	treeAlias             = "t"
	filesAlias            = "f"
	treeShortDescription  = "render the full directory tree (" + treeAlias + ")"
	filesShortDescription = "list the files of each directory (" + filesAlias + ")"
	initShortDescription  = "write a default configuration file"

	treeLongDescription = `Render every file and directory below each path.
Files are listed before directories at each level, both sorted by name.`
	treeUsageExample = `  # Render the current directory
  loctree tree

  # Exclude generated code and flag files over 200 lines
  loctree tree -e 'gen/' --warning 200 ./cmd ./internal`
	filesLongDescription = `List only the files directly inside each path. Subdirectories are omitted.`
	filesUsageExample    = `  # Show files of the current directory as JSON
  loctree files --format json`
	initLongDescription = `Write the default configuration to ./` + utils.ConfigFileName + ` or, with --global,
to ~/` + utils.GlobalConfigDirectoryName + `/` + utils.GlobalConfigFileName + `.`

	exclusionFlagDescription        = "exclude paths matching a glob pattern"
	disableGitignoreFlagDescription = "do not use .gitignore"
	disableIgnoreFlagDescription    = "do not use .ignore"
	includeGitFlagDescription       = "include git directory"
	formatFlagDescription           = "output format (raw, json, xml)"
	summaryFlagDescription          = "append a summary of files, lines and flagged files"
	tokensFlagDescription           = "include token counts in the summary"
	modelFlagDescription            = "tokenizer model to use for token counting"
	colorFlagDescription            = "colour warning suffixes in raw output"
	warningFlagDescription          = "line count above which files get a warning"
	criticalFlagDescription         = "line count above which files are critical"
	copyFlagDescription             = "copy the output to the clipboard"
	configFlagDescription           = "path to a configuration file"
	verboseFlagDescription          = "enable debug logging"
	versionFlagDescription          = "display application version"
	globalFlagDescription           = "write the global configuration"
	forceFlagDescription            = "overwrite an existing configuration file"

	initWrittenFormat           = "Configuration written to %s\n"
	invalidFormatMessage        = "invalid format value '%s'"
	invalidLimitFormat          = "--%s must not be negative, got %d"
	workingDirectoryErrorFormat = "unable to determine working directory: %w"
	errorAbsolutePathFormat     = "abs failed for '%s': %w"
	errorPathMissingFormat      = "path '%s' does not exist"
	errorStatFormat             = "stat failed for '%s': %w"
	errorNotDirectoryFormat     = "path '%s' is not a directory"
	errorNoValidPaths           = "no valid paths"
	warningClipboardFailed      = "clipboard copy failed"
	debugRenderedRoot           = "rendered root"
)

// dependencies are the collaborators commands run with.
type dependencies struct {
	logger           *zap.Logger
	level            *zap.AtomicLevel
	stdout           io.Writer
	copier           clipboard.Copier
	filesystem       afero.Fs
	workingDirectory string
	newTokenCounter  func(tokenizer.Config) (tokenizer.Counter, string, error)
}

// Execute runs the loctree application.
func Execute(logger *zap.Logger, level zap.AtomicLevel) error {
	rootCommand := createRootCommand(dependencies{
		logger:          logger,
		level:           &level,
		stdout:          os.Stdout,
		copier:          clipboard.NewService(),
		filesystem:      afero.NewOsFs(),
		newTokenCounter: tokenizer.NewCounter,
	})
	return executeWithArguments(rootCommand, os.Args[1:])
}

func executeWithArguments(rootCommand *cobra.Command, arguments []string) error {
	normalized := normalizeCopyFlagArguments(arguments)
	normalized = normalizeBooleanFlagArguments(rootCommand, normalized)
	rootCommand.SetArgs(normalized)
	return rootCommand.Execute()
}

func (deps dependencies) resolveWorkingDirectory() (string, error) {
	if deps.workingDirectory != "" {
		return deps.workingDirectory, nil
	}
	workingDirectory, workingDirectoryError := os.Getwd()
	if workingDirectoryError != nil {
		return "", fmt.Errorf(workingDirectoryErrorFormat, workingDirectoryError)
	}
	return workingDirectory, nil
}

// createRootCommand builds the root Cobra command.
func createRootCommand(deps dependencies) *cobra.Command {
	if deps.logger == nil {
		deps.logger = zap.NewNop()
	}
	var showVersion bool
	var verbose bool
	var configurationPath string

	rootCommand := &cobra.Command{
		Use:          rootUse,
		Short:        rootShortDescription,
		Long:         rootLongDescription,
		SilenceUsage: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			if showVersion {
				_, printError := fmt.Fprintf(command.OutOrStdout(), versionTemplate, utils.GetApplicationVersion())
				return printError
			}
			return command.Help()
		},
		PersistentPreRun: func(command *cobra.Command, arguments []string) {
			if verbose && deps.level != nil {
				deps.level.SetLevel(zap.DebugLevel)
			}
		},
	}
	if deps.stdout != nil {
		rootCommand.SetOut(deps.stdout)
	}
	rootCommand.Flags().BoolVar(&showVersion, versionFlagName, false, versionFlagDescription)
	rootCommand.PersistentFlags().StringVar(&configurationPath, configFlagName, "", configFlagDescription)
	registerBooleanFlag(rootCommand.PersistentFlags(), &verbose, verboseFlagName, false, verboseFlagDescription)

	rootCommand.AddCommand(
		createListingCommand(deps, &configurationPath, listingCommandDefinition{
			mode:    types.ModeTree,
			use:     treeUse,
			alias:   treeAlias,
			short:   treeShortDescription,
			long:    treeLongDescription,
			example: treeUsageExample,
		}),
		createListingCommand(deps, &configurationPath, listingCommandDefinition{
			mode:    types.ModeFiles,
			use:     filesUse,
			alias:   filesAlias,
			short:   filesShortDescription,
			long:    filesLongDescription,
			example: filesUsageExample,
		}),
		createInitCommand(deps),
	)
	rootCommand.InitDefaultHelpCmd()
	rootCommand.InitDefaultCompletionCmd()
	return rootCommand
}

type listingCommandDefinition struct {
	mode    string
	use     string
	alias   string
	short   string
	long    string
	example string
}

// listingOptions stores the flag values of the tree and files commands.
type listingOptions struct {
	exclusionPatterns []string
	disableGitignore  bool
	disableIgnoreFile bool
	includeGit        bool
	format            string
	summary           bool
	tokens            bool
	model             string
	color             bool
	copy              bool
	warning           int
	critical          int
}

func addListingFlags(command *cobra.Command, options *listingOptions) {
	flagSet := command.Flags()
	flagSet.StringArrayVarP(&options.exclusionPatterns, exclusionFlagName, exclusionFlagShorthand, nil, exclusionFlagDescription)
	registerBooleanFlag(flagSet, &options.disableGitignore, noGitignoreFlagName, false, disableGitignoreFlagDescription)
	registerBooleanFlag(flagSet, &options.disableIgnoreFile, noIgnoreFlagName, false, disableIgnoreFlagDescription)
	registerBooleanFlag(flagSet, &options.includeGit, includeGitFlagName, false, includeGitFlagDescription)
	flagSet.StringVar(&options.format, formatFlagName, types.FormatRaw, formatFlagDescription)
	registerBooleanFlag(flagSet, &options.summary, summaryFlagName, false, summaryFlagDescription)
	registerBooleanFlag(flagSet, &options.tokens, tokensFlagName, false, tokensFlagDescription)
	flagSet.StringVar(&options.model, modelFlagName, tokenizer.DefaultModel, modelFlagDescription)
	registerBooleanFlag(flagSet, &options.color, colorFlagName, false, colorFlagDescription)
	registerCopyFlag(flagSet, &options.copy)
	flagSet.IntVar(&options.warning, warningFlagName, thresholds.DefaultWarning, warningFlagDescription)
	flagSet.IntVar(&options.critical, criticalFlagName, thresholds.DefaultCritical, criticalFlagDescription)
}

// createListingCommand returns the tree or files subcommand.
func createListingCommand(deps dependencies, configurationPath *string, definition listingCommandDefinition) *cobra.Command {
	var options listingOptions

	listingCommand := &cobra.Command{
		Use:     definition.use,
		Aliases: []string{definition.alias},
		Short:   definition.short,
		Long:    definition.long,
		Example: definition.example,
		Args:    cobra.ArbitraryArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			if len(arguments) == 0 {
				arguments = []string{defaultPath}
			}
			workingDirectory, workingDirectoryError := deps.resolveWorkingDirectory()
			if workingDirectoryError != nil {
				return workingDirectoryError
			}
			applicationConfiguration, loadError := config.LoadApplicationConfiguration(config.LoadOptions{
				WorkingDirectory: workingDirectory,
				ExplicitFilePath: *configurationPath,
			})
			if loadError != nil {
				return loadError
			}
			request, requestError := buildListingRequest(command, definition.mode, options, applicationConfiguration)
			if requestError != nil {
				return requestError
			}
			return runListing(command.Context(), deps, workingDirectory, arguments, request)
		},
	}
	addListingFlags(listingCommand, &options)
	return listingCommand
}

// listingRequest is the fully resolved input of one tree or files run.
type listingRequest struct {
	format  string
	summary bool
	tokens  bool
	model   string
	copy    bool
	report  report.Options
}

// buildListingRequest applies configuration values for every flag the user did not set.
func buildListingRequest(command *cobra.Command, mode string, options listingOptions, applicationConfiguration config.ApplicationConfiguration) (listingRequest, error) {
	flags := command.Flags()
	commandConfiguration := applicationConfiguration.Command(mode)

	if !flags.Changed(formatFlagName) && commandConfiguration.Format != "" {
		options.format = commandConfiguration.Format
	}
	applyBool(flags.Changed(summaryFlagName), &options.summary, commandConfiguration.Summary)
	applyBool(flags.Changed(colorFlagName), &options.color, commandConfiguration.Color)
	applyBool(flags.Changed(copyFlagName), &options.copy, commandConfiguration.Clipboard)
	applyBool(flags.Changed(tokensFlagName), &options.tokens, commandConfiguration.Tokens.Enabled)
	if !flags.Changed(modelFlagName) && commandConfiguration.Tokens.Model != "" {
		options.model = commandConfiguration.Tokens.Model
	}
	applyBool(flags.Changed(includeGitFlagName), &options.includeGit, commandConfiguration.Paths.IncludeGit)
	applyNegatedBool(flags.Changed(noGitignoreFlagName), &options.disableGitignore, commandConfiguration.Paths.UseGitignore)
	applyNegatedBool(flags.Changed(noIgnoreFlagName), &options.disableIgnoreFile, commandConfiguration.Paths.UseIgnoreFile)
	useGlobalGitignore := commandConfiguration.Paths.UseGlobalGitignore != nil && *commandConfiguration.Paths.UseGlobalGitignore

	format := strings.ToLower(strings.TrimSpace(options.format))
	if !isSupportedFormat(format) {
		return listingRequest{}, fmt.Errorf(invalidFormatMessage, options.format)
	}

	thresholdConfiguration := applicationConfiguration.Thresholds
	if flags.Changed(warningFlagName) {
		thresholdConfiguration.Warning = &options.warning
	}
	if flags.Changed(criticalFlagName) {
		thresholdConfiguration.Critical = &options.critical
	}
	limits, extensionLimits := thresholdConfiguration.Limits()
	if limits.Warning < 0 {
		return listingRequest{}, fmt.Errorf(invalidLimitFormat, warningFlagName, limits.Warning)
	}
	if limits.Critical < 0 {
		return listingRequest{}, fmt.Errorf(invalidLimitFormat, criticalFlagName, limits.Critical)
	}

	patterns := append(append([]string{}, commandConfiguration.Paths.Exclude...), options.exclusionPatterns...)

	return listingRequest{
		format:  format,
		summary: options.summary,
		tokens:  options.tokens,
		model:   options.model,
		copy:    options.copy,
		report: report.Options{
			Mode: mode,
			Exclusion: exclude.Options{
				Patterns:           utils.DeduplicatePatterns(patterns),
				UseGitignore:       !options.disableGitignore,
				UseGlobalGitignore: useGlobalGitignore,
				UseIgnoreFile:      !options.disableIgnoreFile,
				IncludeGit:         options.includeGit,
			},
			Limits:          limits,
			ExtensionLimits: extensionLimits,
			Styled:          options.color && format == types.FormatRaw,
			IconOverrides:   applicationConfiguration.Icons,
		},
	}, nil
}

func applyBool(changed bool, target *bool, configured *bool) {
	if !changed && configured != nil {
		*target = *configured
	}
}

func applyNegatedBool(changed bool, target *bool, configured *bool) {
	if !changed && configured != nil {
		*target = !*configured
	}
}

// isSupportedFormat reports whether the provided format is recognized.
func isSupportedFormat(format string) bool {
	switch format {
	case types.FormatRaw, types.FormatJSON, types.FormatXML:
		return true
	default:
		return false
	}
}

// runListing renders every path concurrently and writes the reports in argument order.
func runListing(ctx context.Context, deps dependencies, workingDirectory string, paths []string, request listingRequest) error {
	filesystem := deps.filesystem
	if filesystem == nil {
		filesystem = afero.NewOsFs()
	}
	validatedPaths, pathValidationError := resolveAndValidatePaths(filesystem, workingDirectory, paths)
	if pathValidationError != nil {
		return pathValidationError
	}

	reportOptions := request.report
	reportOptions.Fs = filesystem
	reportOptions.Logger = deps.logger
	if request.tokens {
		newTokenCounter := deps.newTokenCounter
		if newTokenCounter == nil {
			newTokenCounter = tokenizer.NewCounter
		}
		tokenCounter, resolvedModel, counterError := newTokenCounter(tokenizer.Config{Model: request.model})
		if counterError != nil {
			return counterError
		}
		reportOptions.TokenCounter = tokenCounter
		reportOptions.Model = resolvedModel
	}

	if ctx == nil {
		ctx = context.Background()
	}
	reports := make([]types.Report, len(validatedPaths))
	group, groupContext := errgroup.WithContext(ctx)
	group.SetLimit(runtime.NumCPU())
	for index, validatedPath := range validatedPaths {
		index, validatedPath := index, validatedPath
		group.Go(func() error {
			if contextError := groupContext.Err(); contextError != nil {
				return contextError
			}
			generated, generateError := report.Generate(validatedPath.AbsolutePath, reportOptions)
			if generateError != nil {
				return generateError
			}
			reports[index] = generated
			deps.logger.Debug(debugRenderedRoot,
				zap.String("root", generated.Root),
				zap.Int("files", generated.Summary.Files),
				zap.Int("lines", generated.Summary.Lines))
			return nil
		})
	}
	if waitError := group.Wait(); waitError != nil {
		return waitError
	}

	rendered, renderError := output.RenderString(request.format, reports, request.summary)
	if renderError != nil {
		return renderError
	}
	stdout := deps.stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	if _, writeError := io.WriteString(stdout, rendered); writeError != nil {
		return writeError
	}
	if request.copy && deps.copier != nil {
		if copyError := deps.copier.Copy(rendered); copyError != nil {
			deps.logger.Warn(warningClipboardFailed, zap.Error(copyError))
		}
	}
	return nil
}

// createInitCommand returns the init subcommand.
func createInitCommand(deps dependencies) *cobra.Command {
	var global bool
	var force bool

	initCommand := &cobra.Command{
		Use:   initUse,
		Short: initShortDescription,
		Long:  initLongDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			initOptions := config.InitOptions{Target: config.InitTargetLocal, Force: force}
			if global {
				initOptions.Target = config.InitTargetGlobal
			} else {
				workingDirectory, workingDirectoryError := deps.resolveWorkingDirectory()
				if workingDirectoryError != nil {
					return workingDirectoryError
				}
				initOptions.WorkingDirectory = workingDirectory
			}
			destinationPath, initError := config.InitializeConfiguration(initOptions)
			if initError != nil {
				return initError
			}
			_, printError := fmt.Fprintf(command.OutOrStdout(), initWrittenFormat, destinationPath)
			return printError
		},
	}
	registerBooleanFlag(initCommand.Flags(), &global, globalFlagName, false, globalFlagDescription)
	registerBooleanFlag(initCommand.Flags(), &force, forceFlagName, false, forceFlagDescription)
	return initCommand
}

// resolveAndValidatePaths converts input paths to absolute form and checks that each is a directory.
func resolveAndValidatePaths(filesystem afero.Fs, workingDirectory string, inputs []string) ([]types.ValidatedPath, error) {
	seen := make(map[string]struct{})
	var result []types.ValidatedPath
	for _, inputPath := range inputs {
		candidate := inputPath
		if !filepath.IsAbs(candidate) && workingDirectory != "" {
			candidate = filepath.Join(workingDirectory, candidate)
		}
		absolutePath, absolutePathError := filepath.Abs(candidate)
		if absolutePathError != nil {
			return nil, fmt.Errorf(errorAbsolutePathFormat, inputPath, absolutePathError)
		}
		cleanPath := filepath.Clean(absolutePath)
		if _, ok := seen[cleanPath]; ok {
			continue
		}
		info, fileStatusError := filesystem.Stat(cleanPath)
		if fileStatusError != nil {
			if os.IsNotExist(fileStatusError) {
				return nil, fmt.Errorf(errorPathMissingFormat, inputPath)
			}
			return nil, fmt.Errorf(errorStatFormat, inputPath, fileStatusError)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf(errorNotDirectoryFormat, inputPath)
		}
		seen[cleanPath] = struct{}{}
		result = append(result, types.ValidatedPath{AbsolutePath: cleanPath})
	}
	if len(result) == 0 {
		return nil, fmt.Errorf(errorNoValidPaths)
	}
	return result, nil
}
