package service

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/lumen-lang/lumen/domain"
	"github.com/lumen-lang/lumen/internal/diag"
	"github.com/lumen-lang/lumen/internal/ir"
	"github.com/lumen-lang/lumen/internal/lower"
	"github.com/lumen-lang/lumen/internal/parser"
	"github.com/lumen-lang/lumen/internal/version"
)

// LowerServiceImpl implements the LowerService interface
type LowerServiceImpl struct {
	// VerifyIR runs the structural verifier over every lowered function
	VerifyIR bool

	progress domain.ProgressManager
}

// NewLowerService creates a new lowering service implementation
func NewLowerService() *LowerServiceImpl {
	return &LowerServiceImpl{VerifyIR: true}
}

// NewLowerServiceWithProgress creates a lowering service that reports
// per-file progress through the given manager
func NewLowerServiceWithProgress(pm domain.ProgressManager) *LowerServiceImpl {
	return &LowerServiceImpl{VerifyIR: true, progress: pm}
}

// Lower compiles every source file named by the request
func (s *LowerServiceImpl) Lower(ctx context.Context, req domain.LowerRequest) (*domain.LowerResponse, error) {
	var allFunctions []domain.FunctionIR
	var warnings []string
	var errors []string
	filesCompiled := 0

	var task domain.TaskProgress
	if s.progress != nil {
		task = s.progress.StartTask("Lowering functions", len(req.Paths))
		defer task.Complete()
	}

	for _, filePath := range req.Paths {
		// Check context cancellation
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("lowering cancelled: %w", ctx.Err())
		default:
		}

		functions, fileWarnings, fileErrors := s.lowerFile(filePath, req)

		if len(fileErrors) > 0 {
			errors = append(errors, fileErrors...)
			continue // Skip this file but continue with others
		}

		allFunctions = append(allFunctions, functions...)
		warnings = append(warnings, fileWarnings...)
		filesCompiled++

		if task != nil {
			task.Increment(1)
		}
	}

	sorted := s.sortFunctions(allFunctions, req.SortBy)
	summary := s.generateSummary(sorted, filesCompiled)

	return &domain.LowerResponse{
		Functions:   sorted,
		Summary:     summary,
		Warnings:    warnings,
		Errors:      errors,
		GeneratedAt: time.Now().Format(time.RFC3339),
		Version:     version.Version,
		Config:      s.buildConfigForResponse(req),
	}, nil
}

// LowerFile compiles a single Lumen source file
func (s *LowerServiceImpl) LowerFile(ctx context.Context, filePath string, req domain.LowerRequest) (*domain.LowerResponse, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("lowering cancelled: %w", ctx.Err())
	default:
	}

	functions, warnings, fileErrors := s.lowerFile(filePath, req)
	if len(fileErrors) > 0 {
		return nil, domain.NewLoweringError(fmt.Sprintf("failed to compile file %s", filePath), fmt.Errorf("%v", fileErrors))
	}

	sorted := s.sortFunctions(functions, req.SortBy)
	return &domain.LowerResponse{
		Functions:   sorted,
		Summary:     s.generateSummary(sorted, 1),
		Warnings:    warnings,
		GeneratedAt: time.Now().Format(time.RFC3339),
		Version:     version.Version,
		Config:      s.buildConfigForResponse(req),
	}, nil
}

// LowerToIR compiles one file and returns the raw IR functions, for callers
// that need the control flow graphs themselves (DOT export, verification).
func (s *LowerServiceImpl) LowerToIR(filePath string, source []byte) ([]*ir.Function, *diag.Bag, error) {
	file, err := parser.ParseForLanguage(filePath, source)
	if err != nil {
		return nil, nil, domain.NewParseError(filePath, err)
	}

	bag := diag.NewBag()
	functions := make([]*ir.Function, 0, len(file.Funcs))
	for _, fn := range file.Funcs {
		irFn := lower.Function(fn, bag)
		if s.VerifyIR {
			if err := ir.Verify(irFn); err != nil {
				return nil, nil, domain.NewLoweringError(fmt.Sprintf("malformed IR for %s", fn.Name), err)
			}
		}
		functions = append(functions, irFn)
	}
	return functions, bag, nil
}

// lowerFile compiles a single file into domain results
func (s *LowerServiceImpl) lowerFile(filePath string, req domain.LowerRequest) ([]domain.FunctionIR, []string, []string) {
	var warnings []string
	var errors []string

	content, err := s.readFile(filePath)
	if err != nil {
		errors = append(errors, fmt.Sprintf("[%s] Failed to read file: %v", filePath, err))
		return nil, warnings, errors
	}

	file, err := parser.ParseForLanguage(filePath, content)
	if err != nil {
		errors = append(errors, fmt.Sprintf("[%s] Parse error: %v", filePath, err))
		return nil, warnings, errors
	}

	if len(file.Funcs) == 0 {
		warnings = append(warnings, fmt.Sprintf("[%s] No functions found in file", filePath))
		return nil, warnings, errors
	}

	var functions []domain.FunctionIR
	for _, fn := range file.Funcs {
		bag := diag.NewBag()
		irFn := lower.Function(fn, bag)

		if s.VerifyIR {
			if err := ir.Verify(irFn); err != nil {
				errors = append(errors, fmt.Sprintf("[%s] Malformed IR for %s: %v", filePath, fn.Name, err))
				return nil, warnings, errors
			}
		}

		functions = append(functions, s.convertToFunctionIR(irFn, fn.Loc.Line, fn.Loc.Col, filePath, bag, req))
	}

	return functions, warnings, errors
}

// convertToFunctionIR converts one lowered function to the domain model
func (s *LowerServiceImpl) convertToFunctionIR(irFn *ir.Function, line, col int, filePath string, bag *diag.Bag, req domain.LowerRequest) domain.FunctionIR {
	instructions := 0
	for _, blk := range irFn.Blocks {
		instructions += len(blk.Instrs)
		if blk.Term != nil {
			instructions++
		}
	}

	result := domain.FunctionIR{
		Name:        irFn.Name,
		FilePath:    filePath,
		StartLine:   line,
		StartColumn: col,
		Metrics: domain.IRMetrics{
			Blocks:       len(irFn.Blocks),
			Instructions: instructions,
			Params:       len(irFn.Params),
		},
	}

	if req.EmitIR {
		result.Text = irFn.String()
	}

	for _, d := range bag.All() {
		result.Diagnostics = append(result.Diagnostics, domain.Diagnostic{
			FilePath: filePath,
			Line:     d.Loc.Line,
			Column:   d.Loc.Col,
			Kind:     string(d.Kind),
			Message:  d.Msg,
		})
	}

	return result
}

// sortFunctions sorts results based on the specified criteria
func (s *LowerServiceImpl) sortFunctions(functions []domain.FunctionIR, sortBy domain.SortCriteria) []domain.FunctionIR {
	sorted := make([]domain.FunctionIR, len(functions))
	copy(sorted, functions)

	switch sortBy {
	case domain.SortByName:
		sort.Slice(sorted, func(i, j int) bool {
			return sorted[i].Name < sorted[j].Name
		})
	case domain.SortBySize:
		sort.Slice(sorted, func(i, j int) bool {
			return sorted[i].Metrics.Instructions > sorted[j].Metrics.Instructions
		})
	default:
		// Default: sort by location
		sort.Slice(sorted, func(i, j int) bool {
			if sorted[i].FilePath != sorted[j].FilePath {
				return sorted[i].FilePath < sorted[j].FilePath
			}
			return sorted[i].StartLine < sorted[j].StartLine
		})
	}

	return sorted
}

// generateSummary generates aggregate statistics
func (s *LowerServiceImpl) generateSummary(functions []domain.FunctionIR, filesCompiled int) domain.LowerSummary {
	summary := domain.LowerSummary{
		TotalFunctions: len(functions),
		FilesCompiled:  filesCompiled,
	}

	for _, fn := range functions {
		summary.TotalBlocks += fn.Metrics.Blocks
		summary.TotalInstructions += fn.Metrics.Instructions
		summary.TotalDiagnostics += len(fn.Diagnostics)
	}

	return summary
}

// buildConfigForResponse builds the configuration section for the response
func (s *LowerServiceImpl) buildConfigForResponse(req domain.LowerRequest) map[string]interface{} {
	return map[string]interface{}{
		"emit_ir":   req.EmitIR,
		"verify_ir": s.VerifyIR,
		"sort_by":   req.SortBy,
	}
}

// readFile reads the contents of a file
func (s *LowerServiceImpl) readFile(filePath string) ([]byte, error) {
	return os.ReadFile(filePath)
}
