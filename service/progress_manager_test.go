package service

import (
	"testing"

	"github.com/lumen-lang/lumen/domain"
)

func TestNewProgressManagerDisabled(t *testing.T) {
	pm := NewProgressManager(false)
	if pm.IsInteractive() {
		t.Error("Disabled progress should fall back to the no-op manager")
	}

	// The no-op manager must still satisfy the full protocol the lowering
	// services drive: start, describe, increment, complete, close.
	task := pm.StartTask("Lowering functions", 10)
	if task == nil {
		t.Fatal("StartTask should hand out a task even when progress is off")
	}
	task.Describe("main.lm")
	task.Increment(3)
	task.Complete()
	pm.Close()
}

func TestNewProgressManagerInCI(t *testing.T) {
	// CI output is not a terminal; a batch run must never render bars even
	// when progress was requested.
	t.Setenv("CI", "true")
	pm := NewProgressManager(true)
	if pm.IsInteractive() {
		t.Error("CI environment should disable interactive progress")
	}
}

func TestNoOpTaskProgress(t *testing.T) {
	tp := &NoOpTaskProgress{}
	tp.Increment(10)
	tp.Describe("dead.lm")
	tp.Complete()
}

func TestProgressManagerInterfaces(t *testing.T) {
	var _ domain.ProgressManager = &ProgressManagerImpl{}
	var _ domain.ProgressManager = &NoOpProgressManager{}
	var _ domain.TaskProgress = &TaskProgressImpl{}
	var _ domain.TaskProgress = &NoOpTaskProgress{}
}
