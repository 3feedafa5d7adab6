package service

import (
	"context"
	"fmt"
	"time"

	"github.com/lumen-lang/lumen/domain"
	"github.com/lumen-lang/lumen/internal/version"
)

// CheckServiceImpl implements the CheckService interface by lowering every
// requested file and turning the collected problems into check violations.
// Files compile independently, so they are checked in parallel.
type CheckServiceImpl struct {
	lowerService *LowerServiceImpl
	executor     *ParallelExecutorImpl
}

// NewCheckService creates a new check service implementation
func NewCheckService() *CheckServiceImpl {
	return &CheckServiceImpl{
		lowerService: NewLowerService(),
		executor:     NewParallelExecutor(),
	}
}

// fileCheckTask compiles one file and keeps its results for aggregation
type fileCheckTask struct {
	path    string
	service *LowerServiceImpl
	req     domain.LowerRequest
	funcs   []domain.FunctionIR
	errors  []string
}

func (t *fileCheckTask) Name() string    { return t.path }
func (t *fileCheckTask) IsEnabled() bool { return true }

func (t *fileCheckTask) Execute(_ context.Context) (interface{}, error) {
	// A file with no functions only yields warnings; the check verdict
	// cares about errors and per-function diagnostics.
	t.funcs, _, t.errors = t.service.lowerFile(t.path, t.req)
	return nil, nil
}

// Check lowers every requested file and evaluates the diagnostics
func (s *CheckServiceImpl) Check(ctx context.Context, req domain.CheckRequest) (*domain.CheckResult, error) {
	start := time.Now()

	lowerReq := domain.LowerRequest{
		Paths:           req.Paths,
		SortBy:          domain.SortByLocation,
		ConfigPath:      req.ConfigPath,
		Recursive:       req.Recursive,
		IncludePatterns: req.IncludePatterns,
		ExcludePatterns: req.ExcludePatterns,
	}

	tasks := make([]*fileCheckTask, len(req.Paths))
	executable := make([]domain.ExecutableTask, len(req.Paths))
	for i, path := range req.Paths {
		tasks[i] = &fileCheckTask{path: path, service: s.lowerService, req: lowerReq}
		executable[i] = tasks[i]
	}
	if err := s.executor.Execute(ctx, executable); err != nil {
		return nil, err
	}

	// Aggregate in request order so output is stable regardless of which
	// file finished first.
	var allFunctions []domain.FunctionIR
	var parseErrors []string
	filesCompiled := 0
	for _, t := range tasks {
		if len(t.errors) > 0 {
			parseErrors = append(parseErrors, t.errors...)
			continue
		}
		allFunctions = append(allFunctions, t.funcs...)
		filesCompiled++
	}
	functions := s.lowerService.sortFunctions(allFunctions, lowerReq.SortBy)

	var violations []domain.CheckViolation

	// Parse and lowering failures are always errors
	for _, e := range parseErrors {
		violations = append(violations, domain.CheckViolation{
			Category: "parse",
			Rule:     "no-parse-errors",
			Severity: "error",
			Message:  e,
			Actual:   "1 error",
		})
	}

	// Unreachable-code diagnostics become violations when requested
	unreachable := 0
	for _, fn := range functions {
		for _, d := range fn.Diagnostics {
			unreachable++
			if !req.FailOnUnreachable {
				continue
			}
			violations = append(violations, domain.CheckViolation{
				Category: "unreachable",
				Rule:     "no-unreachable-code",
				Severity: "warning",
				Message:  fmt.Sprintf("%s: %s", fn.Name, d.Message),
				Location: fmt.Sprintf("%s:%d:%d", d.FilePath, d.Line, d.Column),
				Actual:   d.Kind,
			})
		}
	}

	if req.MaxDiagnostics > 0 && unreachable > req.MaxDiagnostics {
		violations = append(violations, domain.CheckViolation{
			Category:  "unreachable",
			Rule:      "max-diagnostics",
			Severity:  "error",
			Message:   "too many unreachable-code diagnostics",
			Actual:    fmt.Sprintf("%d", unreachable),
			Threshold: fmt.Sprintf("%d", req.MaxDiagnostics),
		})
	}

	passed := true
	for _, v := range violations {
		if v.Severity == "error" || req.FailOnUnreachable {
			passed = false
			break
		}
	}

	exitCode := 0
	if !passed {
		exitCode = 1
	}

	return &domain.CheckResult{
		Passed:     passed,
		ExitCode:   exitCode,
		Violations: violations,
		Summary: domain.CheckSummary{
			FilesChecked:        filesCompiled,
			FunctionsLowered:    len(functions),
			TotalViolations:     len(violations),
			UnreachableChecked:  req.FailOnUnreachable,
			ParseErrors:         len(parseErrors),
			UnreachableFindings: unreachable,
		},
		Duration:    time.Since(start).Milliseconds(),
		GeneratedAt: time.Now().Format(time.RFC3339),
		Version:     version.Version,
	}, nil
}
