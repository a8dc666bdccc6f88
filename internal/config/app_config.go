package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/tyemirov/loctree/internal/thresholds"
	"github.com/tyemirov/loctree/internal/utils"
)

// keyDelimiter replaces viper's default "." so extension keys such as ".md"
// survive decoding.
const keyDelimiter = "::"

// LoadOptions controls how application configuration is discovered.
type LoadOptions struct {
	WorkingDirectory string
	ExplicitFilePath string
}

// ApplicationConfiguration holds command defaults, line limits, and icon overrides.
type ApplicationConfiguration struct {
	Tree       CommandConfiguration   `mapstructure:"tree"`
	Files      CommandConfiguration   `mapstructure:"files"`
	Thresholds ThresholdConfiguration `mapstructure:"thresholds"`
	Icons      map[string]string      `mapstructure:"icons"`
}

// CommandConfiguration defines options shared by the tree and files commands.
type CommandConfiguration struct {
	Format    string             `mapstructure:"format"`
	Summary   *bool              `mapstructure:"summary"`
	Color     *bool              `mapstructure:"color"`
	Clipboard *bool              `mapstructure:"clipboard"`
	Tokens    TokenConfiguration `mapstructure:"tokens"`
	Paths     PathConfiguration  `mapstructure:"paths"`
}

// TokenConfiguration controls token counting defaults.
type TokenConfiguration struct {
	Enabled *bool  `mapstructure:"enabled"`
	Model   string `mapstructure:"model"`
}

// PathConfiguration configures exclusion rules for traversal.
type PathConfiguration struct {
	Exclude            []string `mapstructure:"exclude"`
	UseGitignore       *bool    `mapstructure:"use_gitignore"`
	UseGlobalGitignore *bool    `mapstructure:"use_global_gitignore"`
	UseIgnoreFile      *bool    `mapstructure:"use_ignore"`
	IncludeGit         *bool    `mapstructure:"include_git"`
}

// ThresholdConfiguration sets line limits, optionally per extension.
type ThresholdConfiguration struct {
	Warning    *int                          `mapstructure:"warning"`
	Critical   *int                          `mapstructure:"critical"`
	Extensions map[string]LimitConfiguration `mapstructure:"extensions"`
}

// LimitConfiguration overrides the limits for one extension. Unset values
// fall back to the global limits.
type LimitConfiguration struct {
	Warning  *int `mapstructure:"warning"`
	Critical *int `mapstructure:"critical"`
}

// LoadApplicationConfiguration loads configuration from global and local files.
func LoadApplicationConfiguration(options LoadOptions) (ApplicationConfiguration, error) {
	workingDirectory := options.WorkingDirectory
	if workingDirectory == "" {
		currentDirectory, err := os.Getwd()
		if err != nil {
			return ApplicationConfiguration{}, fmt.Errorf("determine working directory: %w", err)
		}
		workingDirectory = currentDirectory
	}

	var merged ApplicationConfiguration

	if homeDirectory, err := os.UserHomeDir(); err == nil && homeDirectory != "" {
		globalPath := filepath.Join(homeDirectory, utils.GlobalConfigDirectoryName, utils.GlobalConfigFileName)
		globalConfig, loadErr := loadConfigurationFromPath(globalPath)
		if loadErr != nil {
			return ApplicationConfiguration{}, loadErr
		}
		merged = merged.Merge(globalConfig)
	}

	localPath := resolveLocalConfigPath(workingDirectory, options.ExplicitFilePath)
	localConfig, loadErr := loadConfigurationFromPath(localPath)
	if loadErr != nil {
		return ApplicationConfiguration{}, loadErr
	}
	merged = merged.Merge(localConfig)

	merged.Tree.Paths.Exclude = utils.DeduplicatePatterns(merged.Tree.Paths.Exclude)
	merged.Files.Paths.Exclude = utils.DeduplicatePatterns(merged.Files.Paths.Exclude)

	return merged, nil
}

func resolveLocalConfigPath(workingDirectory, explicitPath string) string {
	if explicitPath == "" {
		return filepath.Join(workingDirectory, utils.ConfigFileName)
	}
	if filepath.IsAbs(explicitPath) {
		return explicitPath
	}
	return filepath.Join(workingDirectory, explicitPath)
}

func loadConfigurationFromPath(path string) (ApplicationConfiguration, error) {
	info, statErr := os.Stat(path)
	if statErr != nil {
		if os.IsNotExist(statErr) {
			return ApplicationConfiguration{}, nil
		}
		return ApplicationConfiguration{}, fmt.Errorf("stat configuration %s: %w", path, statErr)
	}
	if info.IsDir() {
		return ApplicationConfiguration{}, fmt.Errorf("configuration path %s is a directory", path)
	}

	reader := viper.NewWithOptions(viper.KeyDelimiter(keyDelimiter))
	reader.SetConfigFile(path)
	reader.SetConfigType("yaml")
	if readErr := reader.ReadInConfig(); readErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf("read configuration from %s: %w", path, readErr)
	}
	var config ApplicationConfiguration
	if decodeErr := reader.Unmarshal(&config); decodeErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf("decode configuration from %s: %w", path, decodeErr)
	}
	return config, nil
}

// Command returns the configuration of the named command.
func (config ApplicationConfiguration) Command(name string) CommandConfiguration {
	if name == "files" {
		return config.Files
	}
	return config.Tree
}

// Merge overlays override onto the receiver returning the combined configuration.
func (config ApplicationConfiguration) Merge(override ApplicationConfiguration) ApplicationConfiguration {
	result := config
	result.Tree = result.Tree.merge(override.Tree)
	result.Files = result.Files.merge(override.Files)
	result.Thresholds = result.Thresholds.merge(override.Thresholds)
	result.Icons = mergeMaps(result.Icons, override.Icons)
	return result
}

func (config CommandConfiguration) merge(override CommandConfiguration) CommandConfiguration {
	result := config
	if override.Format != "" {
		result.Format = override.Format
	}
	if override.Summary != nil {
		result.Summary = cloneBool(override.Summary)
	}
	if override.Color != nil {
		result.Color = cloneBool(override.Color)
	}
	if override.Clipboard != nil {
		result.Clipboard = cloneBool(override.Clipboard)
	}
	result.Tokens = result.Tokens.merge(override.Tokens)
	result.Paths = result.Paths.merge(override.Paths)
	return result
}

func (config TokenConfiguration) merge(override TokenConfiguration) TokenConfiguration {
	result := config
	if override.Enabled != nil {
		result.Enabled = cloneBool(override.Enabled)
	}
	if override.Model != "" {
		result.Model = override.Model
	}
	return result
}

func (config PathConfiguration) merge(override PathConfiguration) PathConfiguration {
	result := config
	if len(override.Exclude) > 0 {
		result.Exclude = append([]string{}, utils.DeduplicatePatterns(override.Exclude)...)
	}
	if override.UseGitignore != nil {
		result.UseGitignore = cloneBool(override.UseGitignore)
	}
	if override.UseGlobalGitignore != nil {
		result.UseGlobalGitignore = cloneBool(override.UseGlobalGitignore)
	}
	if override.UseIgnoreFile != nil {
		result.UseIgnoreFile = cloneBool(override.UseIgnoreFile)
	}
	if override.IncludeGit != nil {
		result.IncludeGit = cloneBool(override.IncludeGit)
	}
	return result
}

func (config ThresholdConfiguration) merge(override ThresholdConfiguration) ThresholdConfiguration {
	result := config
	if override.Warning != nil {
		result.Warning = cloneInt(override.Warning)
	}
	if override.Critical != nil {
		result.Critical = cloneInt(override.Critical)
	}
	result.Extensions = mergeMaps(result.Extensions, override.Extensions)
	return result
}

// Limits resolves the configured limits over the built-in defaults. Extension
// entries inherit any value they leave unset from the resolved global limits.
func (config ThresholdConfiguration) Limits() (thresholds.Limits, map[string]thresholds.Limits) {
	limits := thresholds.DefaultLimits()
	if config.Warning != nil {
		limits.Warning = *config.Warning
	}
	if config.Critical != nil {
		limits.Critical = *config.Critical
	}
	extensions := make(map[string]thresholds.Limits, len(config.Extensions))
	for extension, override := range config.Extensions {
		extensionLimits := limits
		if override.Warning != nil {
			extensionLimits.Warning = *override.Warning
		}
		if override.Critical != nil {
			extensionLimits.Critical = *override.Critical
		}
		extensions[extension] = extensionLimits
	}
	return limits, extensions
}

func mergeMaps[Value any](base map[string]Value, override map[string]Value) map[string]Value {
	if len(base) == 0 && len(override) == 0 {
		return base
	}
	merged := make(map[string]Value, len(base)+len(override))
	for key, value := range base {
		merged[key] = value
	}
	for key, value := range override {
		merged[key] = value
	}
	return merged
}

func cloneBool(value *bool) *bool {
	if value == nil {
		return nil
	}
	cloned := *value
	return &cloned
}

func cloneInt(value *int) *int {
	if value == nil {
		return nil
	}
	cloned := *value
	return &cloned
}
