package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/lumen-lang/lumen/app"
	"github.com/lumen-lang/lumen/domain"
	"github.com/lumen-lang/lumen/internal/config"
	"github.com/spf13/cobra"
)

// CheckExitError is a custom error type for check command exit codes
type CheckExitError struct {
	Code    int
	Message string
}

func (e *CheckExitError) Error() string {
	return e.Message
}

var (
	checkAllowUnreachable bool
	checkMaxDiagnostics   int
	checkVerbose          bool
	checkJSON             bool
	checkConfigPath       string
)

func checkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [path...]",
		Short: "Fast compile check for CI/CD pipelines",
		Long: `Compile every Lumen source file and fail on problems.

Exit codes:
  0 - All files compile cleanly
  1 - Violations found (parse errors, unreachable code)
  2 - Check could not run (file not found, bad config, etc.)

Examples:
  # Basic check with defaults
  lumen check src/

  # Tolerate unreachable code, fail only on parse errors
  lumen check --allow-unreachable src/

  # Cap the number of unreachable-code diagnostics
  lumen check --max-diagnostics 5 src/

  # JSON output for machine parsing
  lumen check --json src/`,
		RunE:          runCheck,
		SilenceUsage:  true, // Don't print usage on errors (we handle our own output)
		SilenceErrors: true, // Don't print error messages (we handle our own output)
	}

	cmd.Flags().BoolVar(&checkAllowUnreachable, "allow-unreachable", false,
		"Allow unreachable-code diagnostics without failing")
	cmd.Flags().IntVar(&checkMaxDiagnostics, "max-diagnostics", 0,
		"Maximum allowed unreachable-code diagnostics (0 = no limit)")
	cmd.Flags().BoolVarP(&checkVerbose, "verbose", "v", false,
		"Show detailed output")
	cmd.Flags().BoolVar(&checkJSON, "json", false,
		"Output results as JSON")
	cmd.Flags().StringVarP(&checkConfigPath, "config", "c", "",
		"Path to config file")

	return cmd
}

func runCheck(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return &CheckExitError{Code: 2, Message: "no paths specified"}
	}

	// Load configuration
	cfg, err := config.LoadConfigWithTarget(checkConfigPath, args[0])
	if err != nil {
		return &CheckExitError{Code: 2, Message: fmt.Sprintf("failed to load configuration: %v", err)}
	}

	// Apply config values for flags not explicitly set on CLI
	if !cmd.Flags().Changed("max-diagnostics") && cfg.Diagnostics.MaxDiagnostics > 0 {
		checkMaxDiagnostics = cfg.Diagnostics.MaxDiagnostics
	}

	req := domain.CheckRequest{
		Paths:             args,
		FailOnUnreachable: !checkAllowUnreachable && cfg.Diagnostics.Enabled,
		MaxDiagnostics:    checkMaxDiagnostics,
		ConfigPath:        checkConfigPath,
		Recursive:         cfg.Analysis.Recursive,
		IncludePatterns:   cfg.Analysis.IncludePatterns,
		ExcludePatterns:   cfg.Analysis.ExcludePatterns,
	}

	uc := app.NewCheckUseCase()
	result, err := uc.Execute(context.Background(), req)
	if err != nil {
		return &CheckExitError{Code: 2, Message: err.Error()}
	}

	if checkJSON {
		return outputCheckJSON(result)
	}
	return outputCheckText(result)
}

func outputCheckText(result *domain.CheckResult) error {
	if result.Passed {
		fmt.Println("PASS: All files compile cleanly")
		if checkVerbose {
			fmt.Printf("  Files checked: %d\n", result.Summary.FilesChecked)
			fmt.Printf("  Functions lowered: %d\n", result.Summary.FunctionsLowered)
			fmt.Printf("  Duration: %dms\n", result.Duration)
		}
		return nil
	}

	fmt.Println("FAIL: Compile check failed")
	fmt.Printf("  Violations: %d\n", result.Summary.TotalViolations)

	// Print violations
	for _, v := range result.Violations {
		severity := "ERROR"
		if v.Severity == "warning" {
			severity = "WARN"
		}
		fmt.Printf("  [%s] %s: %s\n", severity, v.Category, v.Message)
		if checkVerbose && v.Location != "" {
			fmt.Printf("         at %s\n", v.Location)
		}
	}

	if checkVerbose {
		fmt.Printf("\nSummary:\n")
		fmt.Printf("  Files checked: %d\n", result.Summary.FilesChecked)
		fmt.Printf("  Functions lowered: %d\n", result.Summary.FunctionsLowered)
		fmt.Printf("  Parse errors: %d\n", result.Summary.ParseErrors)
		fmt.Printf("  Unreachable findings: %d\n", result.Summary.UnreachableFindings)
		fmt.Printf("  Duration: %dms\n", result.Duration)
	}

	return &CheckExitError{Code: result.ExitCode, Message: ""}
}

func outputCheckJSON(result *domain.CheckResult) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(result); err != nil {
		return &CheckExitError{Code: 2, Message: fmt.Sprintf("failed to encode JSON: %v", err)}
	}

	if !result.Passed {
		return &CheckExitError{Code: result.ExitCode, Message: ""}
	}
	return nil
}
