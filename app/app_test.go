package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/lumen-lang/lumen/domain"
)

func TestFileHelperCollectSourceFiles(t *testing.T) {
	// Create temp directory with test files
	tempDir := t.TempDir()

	// Create test files
	testFiles := []string{"main.lm", "test.js", "test.ts", "test.tsx", "notes.txt"}
	for _, f := range testFiles {
		path := filepath.Join(tempDir, f)
		if err := os.WriteFile(path, []byte("// test"), 0644); err != nil {
			t.Fatalf("Failed to create test file: %v", err)
		}
	}

	helper := NewFileHelper()

	files, err := helper.CollectSourceFiles([]string{tempDir}, true, nil, nil)
	if err != nil {
		t.Fatalf("CollectSourceFiles failed: %v", err)
	}

	// Should find 4 source files
	if len(files) != 4 {
		t.Errorf("Expected 4 source files, got %d", len(files))
	}
}

func TestFileHelperCollectSourceFiles_Excludes(t *testing.T) {
	tempDir := t.TempDir()

	modDir := filepath.Join(tempDir, "node_modules")
	if err := os.MkdirAll(modDir, 0755); err != nil {
		t.Fatalf("Failed to create dir: %v", err)
	}
	for _, path := range []string{
		filepath.Join(tempDir, "main.lm"),
		filepath.Join(modDir, "dep.js"),
	} {
		if err := os.WriteFile(path, []byte("// test"), 0644); err != nil {
			t.Fatalf("Failed to create test file: %v", err)
		}
	}

	helper := NewFileHelper()

	files, err := helper.CollectSourceFiles([]string{tempDir}, true, nil, []string{"node_modules"})
	if err != nil {
		t.Fatalf("CollectSourceFiles failed: %v", err)
	}

	if len(files) != 1 {
		t.Fatalf("Expected 1 file after exclusion, got %d: %v", len(files), files)
	}
	if filepath.Base(files[0]) != "main.lm" {
		t.Errorf("Expected main.lm, got %s", files[0])
	}
}

func TestFileHelperIsValidSourceFile(t *testing.T) {
	helper := NewFileHelper()

	tests := []struct {
		path     string
		expected bool
	}{
		{"main.lm", true},
		{"test.js", true},
		{"test.ts", true},
		{"test.jsx", true},
		{"test.tsx", true},
		{"test.mjs", true},
		{"test.cjs", true},
		{"test.py", false},
		{"test.go", false},
		{"test.txt", false},
	}

	for _, tt := range tests {
		result := helper.IsValidSourceFile(tt.path)
		if result != tt.expected {
			t.Errorf("IsValidSourceFile(%s) = %v, expected %v", tt.path, result, tt.expected)
		}
	}
}

func TestFileHelperFileExists(t *testing.T) {
	helper := NewFileHelper()

	tempFile, err := os.CreateTemp("", "test*.lm")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	tempFile.Close()
	defer os.Remove(tempFile.Name())

	exists, err := helper.FileExists(tempFile.Name())
	if err != nil {
		t.Fatalf("FileExists failed: %v", err)
	}
	if !exists {
		t.Error("Expected file to exist")
	}

	exists, err = helper.FileExists("/nonexistent/missing.lm")
	if err != nil {
		t.Fatalf("FileExists failed: %v", err)
	}
	if exists {
		t.Error("Expected file to not exist")
	}
}

func TestResolveFilePaths_DirectFiles(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "main.lm")
	if err := os.WriteFile(path, []byte("// test"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	files, err := ResolveFilePaths(NewFileHelper(), []string{path}, true, nil, nil)
	if err != nil {
		t.Fatalf("ResolveFilePaths failed: %v", err)
	}
	if len(files) != 1 || files[0] != path {
		t.Errorf("Expected the file itself, got %v", files)
	}
}

func TestLowerUseCase_Execute(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "main.ts")
	source := `
function add(a: number, b: number): number {
	return a + b;
}
`
	if err := os.WriteFile(path, []byte(source), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	uc := NewLowerUseCase()
	resp, err := uc.Execute(context.Background(), domain.LowerRequest{
		Paths:     []string{tempDir},
		Recursive: true,
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if resp.Summary.TotalFunctions != 1 {
		t.Errorf("Expected 1 function, got %d", resp.Summary.TotalFunctions)
	}
}

func TestLowerUseCase_Execute_NoFiles(t *testing.T) {
	uc := NewLowerUseCase()
	_, err := uc.Execute(context.Background(), domain.LowerRequest{
		Paths: []string{t.TempDir()},
	})
	if err == nil {
		t.Error("Expected error for empty directory")
	}
}

func TestLowerUseCase_Execute_InvalidRequest(t *testing.T) {
	uc := NewLowerUseCase()
	_, err := uc.Execute(context.Background(), domain.LowerRequest{})
	if err == nil {
		t.Error("Expected error for empty request")
	}
}

func TestLowerUseCase_LowerFile_NotSource(t *testing.T) {
	uc := NewLowerUseCase()
	_, err := uc.LowerFile(context.Background(), "notes.txt", domain.LowerRequest{})
	if err == nil {
		t.Error("Expected error for non-source file")
	}
}

func TestCheckUseCase_Execute(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "dead.ts")
	source := `
function shout(msg: string): void {
	return;
	log(msg);
}
`
	if err := os.WriteFile(path, []byte(source), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	uc := NewCheckUseCase()
	result, err := uc.Execute(context.Background(), domain.CheckRequest{
		Paths:             []string{tempDir},
		Recursive:         true,
		FailOnUnreachable: true,
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result.Passed {
		t.Error("Unreachable code should fail the check")
	}
}

func TestUseCaseBuilders(t *testing.T) {
	lowerUC, err := NewLowerUseCaseBuilder().Build()
	if err != nil {
		t.Fatalf("LowerUseCase build failed: %v", err)
	}
	if lowerUC == nil {
		t.Fatal("Expected a use case")
	}

	checkUC, err := NewCheckUseCaseBuilder().WithFileHelper(NewFileHelper()).Build()
	if err != nil {
		t.Fatalf("CheckUseCase build failed: %v", err)
	}
	if checkUC == nil {
		t.Fatal("Expected a use case")
	}
}
