package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/lumen-lang/lumen/internal/constants"
)

// Default diagnostics settings
const (
	// DefaultDiagnosticsSortBy defines the default sorting criteria
	DefaultDiagnosticsSortBy = "line"

	// DefaultMaxDiagnostics defines no upper limit on reported diagnostics
	DefaultMaxDiagnostics = 0
)

// Config represents the main configuration structure
type Config struct {
	// Lowering holds IR lowering configuration
	Lowering LoweringConfig `json:"lowering" mapstructure:"lowering" yaml:"lowering"`

	// Diagnostics holds unreachable-code reporting configuration
	Diagnostics DiagnosticsConfig `json:"diagnostics" mapstructure:"diagnostics" yaml:"diagnostics"`

	// Output holds output formatting configuration
	Output OutputConfig `json:"output" mapstructure:"output" yaml:"output"`

	// Analysis holds file collection configuration
	Analysis AnalysisConfig `json:"analysis,omitempty" mapstructure:"analysis" yaml:"analysis"`

	// Performance holds parallel execution configuration
	Performance PerformanceConfig `json:"performance,omitempty" mapstructure:"performance" yaml:"performance"`
}

// LoweringConfig holds configuration for the lowering stage
type LoweringConfig struct {
	// EmitIR controls whether printed IR is included in reports
	EmitIR bool `json:"emit_ir" mapstructure:"emit_ir" yaml:"emit_ir"`

	// VerifyIR runs the structural verifier over every lowered function
	VerifyIR bool `json:"verify_ir" mapstructure:"verify_ir" yaml:"verify_ir"`
}

// DiagnosticsConfig holds configuration for diagnostic reporting
type DiagnosticsConfig struct {
	// Enabled controls whether unreachable-code diagnostics are reported
	Enabled bool `json:"enabled" mapstructure:"enabled" yaml:"enabled"`

	// SortBy specifies how to sort diagnostics: line, file, kind
	SortBy string `json:"sort_by" mapstructure:"sort_by" yaml:"sort_by"`

	// MaxDiagnostics fails a check when exceeded (0 means no limit)
	MaxDiagnostics int `json:"max_diagnostics" mapstructure:"max_diagnostics" yaml:"max_diagnostics"`

	// Reporting options per diagnostic kind
	ReportAfterReturn   bool `json:"report_after_return" mapstructure:"report_after_return" yaml:"report_after_return"`
	ReportAfterBreak    bool `json:"report_after_break" mapstructure:"report_after_break" yaml:"report_after_break"`
	ReportAfterContinue bool `json:"report_after_continue" mapstructure:"report_after_continue" yaml:"report_after_continue"`
}

// OutputConfig holds configuration for output formatting
type OutputConfig struct {
	// Format specifies the output format: text, json, yaml, dot
	Format string `json:"format" mapstructure:"format" yaml:"format"`

	// ShowDetails controls whether to show per-function breakdown
	ShowDetails bool `json:"show_details" mapstructure:"show_details" yaml:"show_details"`

	// SortBy specifies how to sort results: name, location, size
	SortBy string `json:"sort_by" mapstructure:"sort_by" yaml:"sort_by"`

	// Directory specifies the output directory for reports
	Directory string `json:"directory" mapstructure:"directory" yaml:"directory"`
}

// AnalysisConfig holds file collection configuration
type AnalysisConfig struct {
	// IncludePatterns specifies file patterns to include
	IncludePatterns []string `json:"include_patterns" mapstructure:"include_patterns" yaml:"include_patterns"`

	// ExcludePatterns specifies file patterns to exclude
	ExcludePatterns []string `json:"exclude_patterns" mapstructure:"exclude_patterns" yaml:"exclude_patterns"`

	// Recursive controls whether to collect from directories recursively
	Recursive bool `json:"recursive" mapstructure:"recursive" yaml:"recursive"`

	// FollowSymlinks controls whether to follow symbolic links
	FollowSymlinks bool `json:"follow_symlinks" mapstructure:"follow_symlinks" yaml:"follow_symlinks"`
}

// PerformanceConfig holds parallel execution configuration
type PerformanceConfig struct {
	// MaxGoroutines caps concurrent file compilations (0 = CPU count)
	MaxGoroutines int `json:"max_goroutines" mapstructure:"max_goroutines" yaml:"max_goroutines"`

	// TimeoutSeconds bounds a whole batch compilation (0 = default)
	TimeoutSeconds int `json:"timeout_seconds" mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Lowering: LoweringConfig{
			EmitIR:   false,
			VerifyIR: true,
		},
		Diagnostics: DiagnosticsConfig{
			Enabled:             true,
			SortBy:              DefaultDiagnosticsSortBy,
			MaxDiagnostics:      DefaultMaxDiagnostics,
			ReportAfterReturn:   true,
			ReportAfterBreak:    true,
			ReportAfterContinue: true,
		},
		Output: OutputConfig{
			Format:      "text",
			ShowDetails: false,
			SortBy:      "location",
		},
		Analysis: AnalysisConfig{
			IncludePatterns: []string{
				"**/*.lm", "**/*.js", "**/*.ts", "**/*.mjs", "**/*.cjs",
				"**/*.mts", "**/*.cts",
			},
			ExcludePatterns: []string{
				"node_modules",
				"vendor",
				"dist",
				"build",
				"out",
				".cache",
				"coverage",
				".git",
				"*.min.js",
				"*.map",
			},
			Recursive:      true,
			FollowSymlinks: false,
		},
		Performance: PerformanceConfig{
			MaxGoroutines:  0,
			TimeoutSeconds: 0,
		},
	}
}

// LoadConfig loads configuration from file or returns default config
func LoadConfig(configPath string) (*Config, error) {
	return LoadConfigWithTarget(configPath, "")
}

// discoverConfigFile finds the appropriate config file path
func discoverConfigFile(targetPath string) string {
	return findDefaultConfig(targetPath)
}

// loadConfigFromFile reads and parses a configuration file
func loadConfigFromFile(configPath string) (*Config, error) {
	if configPath == "" {
		return DefaultConfig(), nil
	}

	// Create a new viper instance to avoid race conditions
	v := viper.New()
	config := DefaultConfig()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// LoadConfigWithTarget loads configuration with target path context
func LoadConfigWithTarget(configPath string, targetPath string) (*Config, error) {
	if configPath == "" {
		configPath = discoverConfigFile(targetPath)
	}
	return loadConfigFromFile(configPath)
}

// searchConfigInDirectory searches for configuration files in a specific directory
func searchConfigInDirectory(dir string, candidates []string) string {
	for _, candidate := range candidates {
		path := filepath.Join(dir, candidate)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// findDefaultConfig looks for default configuration files in common locations.
// targetPath is the path being compiled (a source file or directory).
func findDefaultConfig(targetPath string) string {
	candidates := []string{
		constants.ToolName + ".yaml",
		constants.ToolName + ".yml",
		constants.ConfigFileName,
		"." + constants.ToolName + ".yml",
		constants.ToolName + ".json",
		"." + constants.ToolName + ".json",
	}

	// If targetPath is provided, search from there upward
	if targetPath != "" {
		absPath, err := filepath.Abs(targetPath)
		if err == nil {
			info, err := os.Stat(absPath)
			if err == nil && !info.IsDir() {
				absPath = filepath.Dir(absPath)
			}

			// Search from target directory up to the filesystem root.
			// Volume handling covers Windows roots (C:\) and UNC paths.
			volume := filepath.VolumeName(absPath)
			for dir := absPath; ; dir = filepath.Dir(dir) {
				if config := searchConfigInDirectory(dir, candidates); config != "" {
					return config
				}

				parent := filepath.Dir(dir)
				if parent == dir ||
					dir == volume ||
					(volume != "" && dir == volume+string(filepath.Separator)) {
					break
				}
			}
		}
	}

	// Fallback to current directory
	if config := searchConfigInDirectory(".", candidates); config != "" {
		return config
	}

	// Check XDG config directory (Linux/Mac standard)
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		if config := searchConfigInDirectory(filepath.Join(xdgConfig, constants.ToolName), candidates); config != "" {
			return config
		}
	}

	// Check ~/.config/lumen/ (XDG default)
	if home, err := os.UserHomeDir(); err == nil {
		configDir := filepath.Join(home, ".config", constants.ToolName)
		if config := searchConfigInDirectory(configDir, candidates); config != "" {
			return config
		}

		// Check home directory (backward compatibility)
		if config := searchConfigInDirectory(home, candidates); config != "" {
			return config
		}
	}

	// Check LUMEN_CONFIG environment variable as fallback
	if envConfig := os.Getenv(constants.EnvVarPrefix + "_CONFIG"); envConfig != "" {
		if _, err := os.Stat(envConfig); err == nil {
			return envConfig
		}
	}

	return ""
}

// Validate validates the configuration values
func (c *Config) Validate() error {
	// Validate output format
	validFormats := map[string]bool{
		"text": true,
		"json": true,
		"yaml": true,
		"dot":  true,
	}

	if !validFormats[c.Output.Format] {
		return fmt.Errorf("invalid output.format '%s', must be one of: text, json, yaml, dot", c.Output.Format)
	}

	// Validate sort options
	validSortBy := map[string]bool{
		"name":     true,
		"location": true,
		"size":     true,
	}

	if !validSortBy[c.Output.SortBy] {
		return fmt.Errorf("invalid output.sort_by '%s', must be one of: name, location, size", c.Output.SortBy)
	}

	// Validate include patterns (at least one must be specified)
	if len(c.Analysis.IncludePatterns) == 0 {
		return fmt.Errorf("analysis.include_patterns cannot be empty")
	}

	// Validate diagnostics configuration
	if err := c.validateDiagnosticsConfig(); err != nil {
		return err
	}

	if c.Performance.MaxGoroutines < 0 {
		return fmt.Errorf("performance.max_goroutines must be >= 0, got %d", c.Performance.MaxGoroutines)
	}
	if c.Performance.TimeoutSeconds < 0 {
		return fmt.Errorf("performance.timeout_seconds must be >= 0, got %d", c.Performance.TimeoutSeconds)
	}

	return nil
}

// validateDiagnosticsConfig validates the diagnostics configuration
func (c *Config) validateDiagnosticsConfig() error {
	validSortBy := map[string]bool{
		"line": true,
		"file": true,
		"kind": true,
	}

	if !validSortBy[c.Diagnostics.SortBy] {
		return fmt.Errorf("invalid diagnostics.sort_by '%s', must be one of: line, file, kind", c.Diagnostics.SortBy)
	}

	if c.Diagnostics.MaxDiagnostics < 0 {
		return fmt.Errorf("diagnostics.max_diagnostics must be >= 0, got %d", c.Diagnostics.MaxDiagnostics)
	}

	return nil
}

// ShouldReportDiagnostics determines if diagnostic reporting is enabled
func (c *DiagnosticsConfig) ShouldReportDiagnostics() bool {
	return c.Enabled
}

// HasAnyReportingEnabled checks if any diagnostic kind is enabled
func (c *DiagnosticsConfig) HasAnyReportingEnabled() bool {
	return c.ReportAfterReturn ||
		c.ReportAfterBreak ||
		c.ReportAfterContinue
}

// ShouldReportKind maps a diagnostic kind to its reporting switch.
// Unknown kinds are reported.
func (c *DiagnosticsConfig) ShouldReportKind(kind string) bool {
	switch kind {
	case "unreachable_after_return":
		return c.ReportAfterReturn
	case "unreachable_after_break":
		return c.ReportAfterBreak
	case "unreachable_after_continue":
		return c.ReportAfterContinue
	default:
		return true
	}
}

// SaveConfig saves configuration to a YAML file
func SaveConfig(config *Config, path string) error {
	// Create a new viper instance to avoid race conditions
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("lowering", config.Lowering)
	v.Set("diagnostics", config.Diagnostics)
	v.Set("output", config.Output)
	v.Set("analysis", config.Analysis)
	v.Set("performance", config.Performance)

	return v.WriteConfig()
}
