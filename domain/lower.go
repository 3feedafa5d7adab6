package domain

import (
	"context"
	"io"
)

// OutputFormat represents the supported output formats
type OutputFormat string

const (
	OutputFormatText OutputFormat = "text"
	OutputFormatJSON OutputFormat = "json"
	OutputFormatYAML OutputFormat = "yaml"
	OutputFormatDOT  OutputFormat = "dot"
)

// SortCriteria represents the criteria for sorting results
type SortCriteria string

const (
	SortByName     SortCriteria = "name"
	SortByLocation SortCriteria = "location"
	SortBySize     SortCriteria = "size"
)

// LowerRequest represents a request to lower source files to IR
type LowerRequest struct {
	// Input files or directories to compile
	Paths []string

	// Output configuration
	OutputFormat OutputFormat
	OutputWriter io.Writer
	OutputPath   string // Path to save output file (for DOT format)

	// EmitIR includes the printed IR of every function in the response
	EmitIR bool

	// Sorting
	SortBy SortCriteria

	// Configuration
	ConfigPath string

	// Compilation options
	Recursive       bool
	IncludePatterns []string
	ExcludePatterns []string
}

// Validate checks the request for basic consistency
func (r *LowerRequest) Validate() error {
	if len(r.Paths) == 0 {
		return NewInvalidInputError("no input paths specified", nil)
	}
	switch r.OutputFormat {
	case OutputFormatText, OutputFormatJSON, OutputFormatYAML, OutputFormatDOT:
	default:
		return NewUnsupportedFormatError(r.OutputFormat)
	}
	switch r.SortBy {
	case SortByName, SortByLocation, SortBySize:
	default:
		return NewInvalidInputError("invalid sort criteria: "+string(r.SortBy), nil)
	}
	return nil
}

// Diagnostic represents a single compiler finding surfaced to the user
type Diagnostic struct {
	FilePath string `json:"file_path" yaml:"file_path"`
	Line     int    `json:"line" yaml:"line"`
	Column   int    `json:"column" yaml:"column"`
	Kind     string `json:"kind" yaml:"kind"`
	Message  string `json:"message" yaml:"message"`
}

// IRMetrics represents size metrics for one lowered function
type IRMetrics struct {
	// Basic block count after pruning
	Blocks int `json:"blocks" yaml:"blocks"`

	// Instruction count including terminators
	Instructions int `json:"instructions" yaml:"instructions"`

	// Entry block parameter count
	Params int `json:"params" yaml:"params"`
}

// FunctionIR represents the lowering result for a single function
type FunctionIR struct {
	// Function identification
	Name        string `json:"name" yaml:"name"`
	FilePath    string `json:"file_path" yaml:"file_path"`
	StartLine   int    `json:"start_line" yaml:"start_line"`
	StartColumn int    `json:"start_column" yaml:"start_column"`

	// IR size metrics
	Metrics IRMetrics `json:"metrics" yaml:"metrics"`

	// Text is the printed IR, present when the request asked for it
	Text string `json:"text,omitempty" yaml:"text,omitempty"`

	// Diagnostics reported while lowering this function
	Diagnostics []Diagnostic `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
}

// LowerSummary represents aggregate statistics
type LowerSummary struct {
	TotalFunctions    int `json:"total_functions" yaml:"total_functions"`
	TotalBlocks       int `json:"total_blocks" yaml:"total_blocks"`
	TotalInstructions int `json:"total_instructions" yaml:"total_instructions"`
	FilesCompiled     int `json:"files_compiled" yaml:"files_compiled"`
	TotalDiagnostics  int `json:"total_diagnostics" yaml:"total_diagnostics"`
}

// LowerResponse represents the complete lowering result
type LowerResponse struct {
	// Lowering results
	Functions []FunctionIR `json:"functions" yaml:"functions"`
	Summary   LowerSummary `json:"summary" yaml:"summary"`

	// Warnings and issues
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Errors   []string `json:"errors,omitempty" yaml:"errors,omitempty"`

	// Metadata
	GeneratedAt string      `json:"generated_at" yaml:"generated_at"`
	Version     string      `json:"version" yaml:"version"`
	Config      interface{} `json:"config,omitempty" yaml:"config,omitempty"`
}

// LowerService defines the core business logic for lowering
type LowerService interface {
	// Lower compiles every source file named by the request
	Lower(ctx context.Context, req LowerRequest) (*LowerResponse, error)

	// LowerFile compiles a single Lumen source file
	LowerFile(ctx context.Context, filePath string, req LowerRequest) (*LowerResponse, error)
}

// SourceFileReader defines file collection and reading for Lumen sources
type SourceFileReader interface {
	// CollectSourceFiles recursively finds all Lumen source files in the given paths
	CollectSourceFiles(paths []string, recursive bool, includePatterns, excludePatterns []string) ([]string, error)

	// ReadFile reads the content of a file
	ReadFile(path string) ([]byte, error)

	// IsValidSourceFile checks if a file is a Lumen source file
	IsValidSourceFile(path string) bool

	// FileExists checks if a file exists and returns an error if not
	FileExists(path string) (bool, error)
}

// OutputFormatter defines the interface for formatting lowering results
type OutputFormatter interface {
	// Format formats the response according to the specified format
	Format(response *LowerResponse, format OutputFormat) (string, error)

	// Write writes the formatted output to the writer
	Write(response *LowerResponse, format OutputFormat, writer io.Writer) error
}

// ConfigurationLoader defines the interface for loading configuration
type ConfigurationLoader interface {
	// LoadConfig loads configuration from the specified path
	LoadConfig(path string) (*LowerRequest, error)

	// LoadDefaultConfig loads the default configuration
	LoadDefaultConfig() *LowerRequest

	// MergeConfig merges CLI flags with configuration file
	MergeConfig(base *LowerRequest, override *LowerRequest) *LowerRequest
}
