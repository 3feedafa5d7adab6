package service

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lumen-lang/lumen/domain"
	"github.com/lumen-lang/lumen/internal/version"
)

// OutputFormatterImpl implements the OutputFormatter interface
type OutputFormatterImpl struct{}

// NewOutputFormatter creates a new output formatter
func NewOutputFormatter() *OutputFormatterImpl {
	return &OutputFormatterImpl{}
}

// WriteJSON writes data as JSON to the writer
func WriteJSON(writer io.Writer, data interface{}) error {
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// WriteYAML writes data as YAML to the writer
func WriteYAML(writer io.Writer, data interface{}) error {
	encoder := yaml.NewEncoder(writer)
	encoder.SetIndent(2)
	defer encoder.Close()
	return encoder.Encode(data)
}

// LowerResponseJSON wraps LowerResponse with JSON metadata
type LowerResponseJSON struct {
	Version     string              `json:"version" yaml:"version"`
	GeneratedAt string              `json:"generated_at" yaml:"generated_at"`
	DurationMs  int64               `json:"duration_ms,omitempty" yaml:"duration_ms,omitempty"`
	Functions   []domain.FunctionIR `json:"functions" yaml:"functions"`
	Summary     domain.LowerSummary `json:"summary" yaml:"summary"`
	Warnings    []string            `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Errors      []string            `json:"errors,omitempty" yaml:"errors,omitempty"`
	Config      interface{}         `json:"config,omitempty" yaml:"config,omitempty"`
}

// Format formats the response according to the specified format
func (f *OutputFormatterImpl) Format(response *domain.LowerResponse, format domain.OutputFormat) (string, error) {
	var sb strings.Builder
	if err := f.Write(response, format, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// Write writes the lowering response in the specified format
func (f *OutputFormatterImpl) Write(response *domain.LowerResponse, format domain.OutputFormat, writer io.Writer) error {
	switch format {
	case domain.OutputFormatJSON:
		return f.writeLowerJSON(response, writer)
	case domain.OutputFormatYAML:
		return f.writeLowerYAML(response, writer)
	case domain.OutputFormatText:
		return f.writeLowerText(response, writer)
	default:
		return domain.NewUnsupportedFormatError(format)
	}
}

// WriteCheck writes the check result in the specified format
func (f *OutputFormatterImpl) WriteCheck(result *domain.CheckResult, format domain.OutputFormat, writer io.Writer) error {
	switch format {
	case domain.OutputFormatJSON:
		return WriteJSON(writer, result)
	case domain.OutputFormatYAML:
		return WriteYAML(writer, result)
	case domain.OutputFormatText:
		return f.writeCheckText(result, writer)
	default:
		return domain.NewUnsupportedFormatError(format)
	}
}

// writeLowerJSON writes the lowering response as JSON
func (f *OutputFormatterImpl) writeLowerJSON(response *domain.LowerResponse, writer io.Writer) error {
	return WriteJSON(writer, f.wrapResponse(response))
}

// writeLowerYAML writes the lowering response as YAML
func (f *OutputFormatterImpl) writeLowerYAML(response *domain.LowerResponse, writer io.Writer) error {
	return WriteYAML(writer, f.wrapResponse(response))
}

func (f *OutputFormatterImpl) wrapResponse(response *domain.LowerResponse) LowerResponseJSON {
	return LowerResponseJSON{
		Version:     version.Version,
		GeneratedAt: response.GeneratedAt,
		Functions:   response.Functions,
		Summary:     response.Summary,
		Warnings:    response.Warnings,
		Errors:      response.Errors,
		Config:      response.Config,
	}
}

// writeLowerText writes the lowering response as plain text
func (f *OutputFormatterImpl) writeLowerText(response *domain.LowerResponse, writer io.Writer) error {
	fmt.Fprintf(writer, "\n=== Lowering Report ===\n\n")
	fmt.Fprintf(writer, "Generated: %s\n", response.GeneratedAt)
	fmt.Fprintf(writer, "Version: %s\n\n", response.Version)

	// Summary
	fmt.Fprintf(writer, "Summary:\n")
	fmt.Fprintf(writer, "  Files compiled: %d\n", response.Summary.FilesCompiled)
	fmt.Fprintf(writer, "  Total functions: %d\n", response.Summary.TotalFunctions)
	fmt.Fprintf(writer, "  Total blocks: %d\n", response.Summary.TotalBlocks)
	fmt.Fprintf(writer, "  Total instructions: %d\n", response.Summary.TotalInstructions)
	fmt.Fprintf(writer, "  Diagnostics: %d\n", response.Summary.TotalDiagnostics)
	fmt.Fprintf(writer, "\n")

	// Function details
	if len(response.Functions) > 0 {
		fmt.Fprintf(writer, "Functions:\n")
		for _, fn := range response.Functions {
			fmt.Fprintf(writer, "  %s: %d blocks, %d instructions\n",
				fn.Name, fn.Metrics.Blocks, fn.Metrics.Instructions)
			fmt.Fprintf(writer, "    File: %s:%d\n", fn.FilePath, fn.StartLine)
			for _, d := range fn.Diagnostics {
				fmt.Fprintf(writer, "    %s:%d:%d: warning: %s\n", d.FilePath, d.Line, d.Column, d.Message)
			}
			if fn.Text != "" {
				fmt.Fprintln(writer)
				for _, line := range strings.Split(strings.TrimRight(fn.Text, "\n"), "\n") {
					fmt.Fprintf(writer, "    %s\n", line)
				}
				fmt.Fprintln(writer)
			}
		}
	}

	// Warnings
	if len(response.Warnings) > 0 {
		fmt.Fprintf(writer, "\nWarnings:\n")
		for _, w := range response.Warnings {
			fmt.Fprintf(writer, "  - %s\n", w)
		}
	}

	// Errors
	if len(response.Errors) > 0 {
		fmt.Fprintf(writer, "\nErrors:\n")
		for _, e := range response.Errors {
			fmt.Fprintf(writer, "  - %s\n", e)
		}
	}

	return nil
}

// writeCheckText writes the check result as plain text
func (f *OutputFormatterImpl) writeCheckText(result *domain.CheckResult, writer io.Writer) error {
	fmt.Fprintf(writer, "\n=== Compile Check ===\n\n")
	fmt.Fprintf(writer, "Generated: %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(writer, "Version: %s\n\n", result.Version)

	fmt.Fprintf(writer, "Summary:\n")
	fmt.Fprintf(writer, "  Files checked: %d\n", result.Summary.FilesChecked)
	fmt.Fprintf(writer, "  Functions lowered: %d\n", result.Summary.FunctionsLowered)
	fmt.Fprintf(writer, "  Parse errors: %d\n", result.Summary.ParseErrors)
	fmt.Fprintf(writer, "  Unreachable findings: %d\n", result.Summary.UnreachableFindings)
	fmt.Fprintf(writer, "\n")

	if len(result.Violations) > 0 {
		fmt.Fprintf(writer, "Violations:\n")
		for _, v := range result.Violations {
			severityIndicator := ""
			switch v.Severity {
			case "error":
				severityIndicator = " [ERROR]"
			case "warning":
				severityIndicator = " [WARNING]"
			}
			fmt.Fprintf(writer, "  %s%s\n", v.Message, severityIndicator)
			if v.Location != "" {
				fmt.Fprintf(writer, "    Location: %s\n", v.Location)
			}
		}
		fmt.Fprintln(writer)
	}

	if result.Passed {
		fmt.Fprintf(writer, "Check passed.\n")
	} else {
		fmt.Fprintf(writer, "Check failed with %d violation(s).\n", result.Summary.TotalViolations)
	}

	return nil
}
