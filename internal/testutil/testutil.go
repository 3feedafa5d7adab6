// Package testutil provides helper functions for testing lumen components
package testutil

import (
	"testing"

	"github.com/lumen-lang/lumen/internal/ast"
	"github.com/lumen-lang/lumen/internal/parser"
)

// ParseTestSource parses typed Lumen source into a resolved AST
func ParseTestSource(t *testing.T, source string) *ast.File {
	t.Helper()
	p := parser.NewTypedParser()
	defer p.Close()

	file, err := p.ParseString("test.lm", source)
	if err != nil {
		t.Fatalf("Failed to parse test code: %v", err)
	}
	return file
}

// ParseTestFunc parses source expected to hold exactly one function
func ParseTestFunc(t *testing.T, source string) *ast.FuncDecl {
	t.Helper()
	file := ParseTestSource(t, source)
	if len(file.Funcs) != 1 {
		t.Fatalf("Expected 1 function, got %d", len(file.Funcs))
	}
	return file.Funcs[0]
}

// ParseTestSourceNoFail parses source, returning the error instead of failing
func ParseTestSourceNoFail(source string) (*ast.File, error) {
	p := parser.NewTypedParser()
	defer p.Close()
	return p.ParseString("test.lm", source)
}

// AssertNoError fails the test if err is not nil
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("Expected error but got nil")
	}
}

// AssertEqual fails the test if expected != actual
func AssertEqual(t *testing.T, expected, actual any) {
	t.Helper()
	if expected != actual {
		t.Errorf("Expected %v, got %v", expected, actual)
	}
}

// AssertTrue fails the test if condition is false
func AssertTrue(t *testing.T, condition bool, msg string) {
	t.Helper()
	if !condition {
		t.Error(msg)
	}
}

// AssertFalse fails the test if condition is true
func AssertFalse(t *testing.T, condition bool, msg string) {
	t.Helper()
	if condition {
		t.Error(msg)
	}
}

// AssertNotNil fails the test if value is nil
func AssertNotNil(t *testing.T, value any) {
	t.Helper()
	if value == nil {
		t.Error("Expected non-nil value")
	}
}

// FindFunc finds a function declaration by name
func FindFunc(file *ast.File, name string) *ast.FuncDecl {
	for _, fn := range file.Funcs {
		if fn.Name == name {
			return fn
		}
	}
	return nil
}
