package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lumen-lang/lumen/app"
	"github.com/lumen-lang/lumen/domain"
	"github.com/lumen-lang/lumen/internal/config"
	"github.com/lumen-lang/lumen/internal/ir"
	"github.com/lumen-lang/lumen/service"
	"github.com/spf13/cobra"
)

var (
	buildFormat     string
	buildJSON       bool
	buildEmitIR     bool
	buildSortBy     string
	buildOutputPath string
	buildConfigPath string
	buildNoVerify   bool
)

func buildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "build [path...]",
		Aliases: []string{"lower"},
		Short:   "Lower Lumen source files to IR",
		Long: `Lower Lumen source files to control flow graph IR.

Every function is compiled to basic blocks, unreachable blocks are
pruned, and unreachable statements are reported as diagnostics.

Examples:
  lumen build src/
  lumen build --emit-ir main.lm
  lumen build --format json src/
  lumen build --format dot -o cfg.dot main.lm`,
		RunE: runBuild,
	}

	cmd.Flags().StringVarP(&buildFormat, "format", "f", "text",
		"Output format: text, json, yaml, dot")
	cmd.Flags().BoolVar(&buildJSON, "json", false,
		"Output results as JSON (shorthand for --format json)")
	cmd.Flags().BoolVar(&buildEmitIR, "emit-ir", false,
		"Include the printed IR of every function")
	cmd.Flags().StringVar(&buildSortBy, "sort", "",
		"Sort functions by: name, location, size")
	cmd.Flags().StringVarP(&buildOutputPath, "output", "o", "",
		"Output file path (default: stdout)")
	cmd.Flags().StringVarP(&buildConfigPath, "config", "c", "",
		"Path to config file")
	cmd.Flags().BoolVar(&buildNoVerify, "no-verify", false,
		"Skip the structural IR verifier")

	return cmd
}

func runBuild(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("no paths specified")
	}

	// Determine output format
	format := domain.OutputFormat(buildFormat)
	if buildJSON {
		format = domain.OutputFormatJSON
	}

	// Load configuration
	cfg, err := config.LoadConfigWithTarget(buildConfigPath, args[0])
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Apply config values for flags not explicitly set on CLI
	if !cmd.Flags().Changed("format") && !buildJSON && cfg.Output.Format != "" {
		format = domain.OutputFormat(cfg.Output.Format)
	}
	if !cmd.Flags().Changed("emit-ir") {
		buildEmitIR = cfg.Lowering.EmitIR
	}
	if buildSortBy == "" {
		buildSortBy = cfg.Output.SortBy
	}

	req := domain.LowerRequest{
		Paths:           args,
		OutputFormat:    format,
		OutputPath:      buildOutputPath,
		EmitIR:          buildEmitIR,
		SortBy:          domain.SortCriteria(buildSortBy),
		ConfigPath:      buildConfigPath,
		Recursive:       cfg.Analysis.Recursive,
		IncludePatterns: cfg.Analysis.IncludePatterns,
		ExcludePatterns: cfg.Analysis.ExcludePatterns,
	}

	// DOT output works on the control flow graphs directly
	if format == domain.OutputFormatDOT {
		return runBuildDOT(req, cfg)
	}

	// Create progress manager (auto-disabled for machine-readable output)
	pm := service.NewProgressManager(format == domain.OutputFormatText)
	defer pm.Close()

	svc := service.NewLowerServiceWithProgress(pm)
	svc.VerifyIR = cfg.Lowering.VerifyIR && !buildNoVerify

	uc, err := app.NewLowerUseCaseBuilder().WithService(svc).Build()
	if err != nil {
		return err
	}

	resp, err := uc.Execute(context.Background(), req)
	if err != nil {
		return err
	}

	writer, closeWriter, err := openOutput(buildOutputPath)
	if err != nil {
		return err
	}
	defer closeWriter()

	return service.NewOutputFormatter().Write(resp, format, writer)
}

// runBuildDOT lowers the requested files and renders their control flow
// graphs in Graphviz DOT format.
func runBuildDOT(req domain.LowerRequest, cfg *config.Config) error {
	files, err := app.ResolveFilePaths(
		app.NewFileHelper(),
		req.Paths,
		req.Recursive,
		req.IncludePatterns,
		req.ExcludePatterns,
	)
	if err != nil {
		return fmt.Errorf("failed to collect files: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no Lumen source files found")
	}

	svc := service.NewLowerService()
	svc.VerifyIR = cfg.Lowering.VerifyIR && !buildNoVerify

	fns, err := lowerAllToIR(svc, files)
	if err != nil {
		return err
	}

	writer, closeWriter, err := openOutput(req.OutputPath)
	if err != nil {
		return err
	}
	defer closeWriter()

	formatter := service.NewDOTFormatter(nil)
	if err := formatter.WriteFunctions(fns, writer); err != nil {
		return err
	}

	if req.OutputPath != "" {
		absPath, _ := filepath.Abs(req.OutputPath)
		fmt.Printf("DOT graph saved to: %s\n", absPath)
	}

	return nil
}

// lowerAllToIR lowers every file and collects the raw IR functions.
func lowerAllToIR(svc *service.LowerServiceImpl, files []string) ([]*ir.Function, error) {
	var fns []*ir.Function
	for _, filePath := range files {
		content, err := os.ReadFile(filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", filePath, err)
		}
		fileFns, _, err := svc.LowerToIR(filePath, content)
		if err != nil {
			return nil, err
		}
		fns = append(fns, fileFns...)
	}
	return fns, nil
}

// openOutput returns the writer for the requested output path, defaulting
// to stdout when the path is empty.
func openOutput(path string) (*os.File, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return file, func() { file.Close() }, nil
}
