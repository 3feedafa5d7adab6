package domain

import (
	"context"
	"io"
)

// CheckRequest represents a request for a compile check
type CheckRequest struct {
	// Input files or directories to check
	Paths []string

	// Output configuration
	OutputFormat OutputFormat
	OutputWriter io.Writer

	// FailOnUnreachable turns unreachable-code diagnostics into violations
	FailOnUnreachable bool

	// MaxDiagnostics fails the check when exceeded (0 means no limit)
	MaxDiagnostics int

	// Configuration
	ConfigPath string

	// Collection options
	Recursive       bool
	IncludePatterns []string
	ExcludePatterns []string
}

// Validate checks the request for basic consistency
func (r *CheckRequest) Validate() error {
	if len(r.Paths) == 0 {
		return NewInvalidInputError("no input paths specified", nil)
	}
	if r.MaxDiagnostics < 0 {
		return NewInvalidInputError("max diagnostics must not be negative", nil)
	}
	return nil
}

// CheckResult represents the result of a compile check
type CheckResult struct {
	Passed      bool             `json:"passed"`
	ExitCode    int              `json:"exit_code"`
	Violations  []CheckViolation `json:"violations"`
	Summary     CheckSummary     `json:"summary"`
	Duration    int64            `json:"duration_ms"`
	GeneratedAt string           `json:"generated_at"`
	Version     string           `json:"version"`
}

// CheckViolation represents a single check violation
type CheckViolation struct {
	Category  string `json:"category"`            // parse, unreachable
	Rule      string `json:"rule"`                // no-parse-errors, no-unreachable-code
	Severity  string `json:"severity"`            // error, warning
	Message   string `json:"message"`             // Human-readable description
	Location  string `json:"location,omitempty"`  // File:line if applicable
	Actual    string `json:"actual"`              // Actual value
	Threshold string `json:"threshold,omitempty"` // Configured threshold
}

// CheckSummary provides aggregate statistics
type CheckSummary struct {
	FilesChecked        int  `json:"files_checked"`
	FunctionsLowered    int  `json:"functions_lowered"`
	TotalViolations     int  `json:"total_violations"`
	UnreachableChecked  bool `json:"unreachable_checked"`
	ParseErrors         int  `json:"parse_errors"`
	UnreachableFindings int  `json:"unreachable_findings"`
}

// CheckService defines the core business logic for compile checks
type CheckService interface {
	// Check lowers every requested file and evaluates the diagnostics
	Check(ctx context.Context, req CheckRequest) (*CheckResult, error)
}
