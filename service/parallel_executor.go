package service

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/lumen-lang/lumen/domain"
	"github.com/lumen-lang/lumen/internal/config"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultMaxConcurrency bounds the compile fan-out when the configured
	// goroutine count is unusable. NewParallelExecutor sizes to the machine
	// instead.
	DefaultMaxConcurrency = 4

	// DefaultTimeout caps one whole batch of file compilations.
	DefaultTimeout = 5 * time.Minute
)

// TaskError is the failure of a single compile task, tagged with the task
// name (for file tasks, the source path).
type TaskError struct {
	TaskName string
	Err      error
}

func (e TaskError) Error() string {
	return fmt.Sprintf("[%s] %v", e.TaskName, e.Err)
}

func (e TaskError) Unwrap() error {
	return e.Err
}

// AggregatedError carries every failure of a batch. One broken file must not
// hide the others, so the executor finishes the batch and reports them all.
type AggregatedError struct {
	Errors []TaskError
}

func (e *AggregatedError) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d tasks failed:\n", len(e.Errors))
	for i, err := range e.Errors {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

// Unwrap exposes the first failure to errors.Is and errors.As.
func (e *AggregatedError) Unwrap() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e.Errors[0].Err
}

// ParallelExecutorImpl fans independent compile tasks out over a bounded
// number of goroutines. Lumen files share no state during lowering, so each
// file is one task and the batch is embarrassingly parallel.
type ParallelExecutorImpl struct {
	maxConcurrency int
	timeout        time.Duration
	progress       domain.ProgressManager
	mu             sync.RWMutex
}

// NewParallelExecutor sizes the executor to the machine: one compile slot
// per CPU, with the default batch timeout.
func NewParallelExecutor() *ParallelExecutorImpl {
	return &ParallelExecutorImpl{
		maxConcurrency: runtime.NumCPU(),
		timeout:        DefaultTimeout,
	}
}

// NewParallelExecutorFromConfig takes concurrency and timeout from the
// performance section of the loaded config, falling back to the defaults
// when a value is zero or negative.
func NewParallelExecutorFromConfig(cfg *config.PerformanceConfig) *ParallelExecutorImpl {
	maxConcurrency := cfg.MaxGoroutines
	if maxConcurrency <= 0 {
		maxConcurrency = DefaultMaxConcurrency
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &ParallelExecutorImpl{
		maxConcurrency: maxConcurrency,
		timeout:        timeout,
	}
}

// NewParallelExecutorWithProgress additionally reports per-file completion
// through the given progress manager.
func NewParallelExecutorWithProgress(cfg *config.PerformanceConfig, pm domain.ProgressManager) *ParallelExecutorImpl {
	executor := NewParallelExecutorFromConfig(cfg)
	executor.progress = pm
	return executor
}

// Execute compiles the enabled tasks concurrently and returns nil, or an
// *AggregatedError listing every task that failed, in request order.
func (e *ParallelExecutorImpl) Execute(ctx context.Context, tasks []domain.ExecutableTask) error {
	runnable := enabledOnly(tasks)
	if len(runnable) == 0 {
		return nil
	}

	e.mu.RLock()
	maxConcurrency := e.maxConcurrency
	timeout := e.timeout
	e.mu.RUnlock()

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var progress domain.TaskProgress = &NoOpTaskProgress{}
	if e.progress != nil {
		progress = e.progress.StartTask("Compiling files", len(runnable))
	}
	defer progress.Complete()

	g, gCtx := errgroup.WithContext(runCtx)
	g.SetLimit(maxConcurrency)

	// One result slot per task keeps failures in request order without a
	// lock, and lets every file finish instead of aborting the batch on the
	// first error.
	errs := make([]error, len(runnable))
	for i, t := range runnable {
		i, t := i, t
		g.Go(func() error {
			select {
			case <-gCtx.Done():
				errs[i] = gCtx.Err()
				return nil
			default:
			}
			_, errs[i] = t.Execute(gCtx)
			progress.Increment(1)
			return nil
		})
	}
	_ = g.Wait()

	var failed []TaskError
	for i, err := range errs {
		if err != nil {
			failed = append(failed, TaskError{TaskName: runnable[i].Name(), Err: err})
		}
	}
	if len(failed) > 0 {
		return &AggregatedError{Errors: failed}
	}
	return nil
}

// SetMaxConcurrency overrides the compile fan-out. Non-positive values are
// ignored.
func (e *ParallelExecutorImpl) SetMaxConcurrency(max int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if max > 0 {
		e.maxConcurrency = max
	}
}

// SetTimeout overrides the batch timeout. Non-positive values are ignored.
func (e *ParallelExecutorImpl) SetTimeout(timeout time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if timeout > 0 {
		e.timeout = timeout
	}
}

func enabledOnly(tasks []domain.ExecutableTask) []domain.ExecutableTask {
	enabled := make([]domain.ExecutableTask, 0, len(tasks))
	for _, t := range tasks {
		if t.IsEnabled() {
			enabled = append(enabled, t)
		}
	}
	return enabled
}
