package service

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/lumen-lang/lumen/domain"
)

func TestNewConfigurationLoader(t *testing.T) {
	loader := NewConfigurationLoader()

	if loader == nil {
		t.Fatal("NewConfigurationLoader should not return nil")
	}
}

func TestConfigurationLoader_LoadConfig_NonExistent(t *testing.T) {
	loader := NewConfigurationLoader()

	_, err := loader.LoadConfig("/nonexistent/config.json")
	if err == nil {
		t.Error("LoadConfig should return error for nonexistent file")
	}
}

func TestConfigurationLoader_LoadConfig_InvalidJSON(t *testing.T) {
	tempDir := t.TempDir()
	configFile := filepath.Join(tempDir, "config.json")
	if err := os.WriteFile(configFile, []byte("invalid json"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	loader := NewConfigurationLoader()

	_, err := loader.LoadConfig(configFile)
	if err == nil {
		t.Error("LoadConfig should return error for invalid JSON")
	}
}

func TestConfigurationLoader_LoadConfig_Valid(t *testing.T) {
	tempDir := t.TempDir()
	configFile := filepath.Join(tempDir, "config.json")
	content := `{
		"lowering": {
			"emit_ir": true
		},
		"output": {
			"format": "json",
			"sort_by": "name"
		},
		"analysis": {
			"recursive": true
		}
	}`
	if err := os.WriteFile(configFile, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	loader := NewConfigurationLoader()

	req, err := loader.LoadConfig(configFile)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if req.OutputFormat != domain.OutputFormatJSON {
		t.Errorf("Expected format json, got %s", req.OutputFormat)
	}
	if req.SortBy != domain.SortByName {
		t.Errorf("Expected sort_by name, got %s", req.SortBy)
	}
	if !req.EmitIR {
		t.Error("Expected emit_ir true")
	}
	if !req.Recursive {
		t.Error("Expected recursive true")
	}
}

func TestConfigurationLoader_LoadDefaultConfig(t *testing.T) {
	loader := NewConfigurationLoader()

	req := loader.LoadDefaultConfig()
	if req == nil {
		t.Fatal("LoadDefaultConfig should not return nil")
	}
	if req.OutputFormat == "" {
		t.Error("Default config should have an output format")
	}
	if len(req.IncludePatterns) == 0 {
		t.Error("Default config should have include patterns")
	}
}

func TestConfigurationLoader_MergeConfig(t *testing.T) {
	loader := NewConfigurationLoader()

	base := &domain.LowerRequest{
		OutputFormat: domain.OutputFormatText,
		SortBy:       domain.SortByLocation,
		Recursive:    true,
	}
	override := &domain.LowerRequest{
		Paths:        []string{"main.lm"},
		OutputFormat: domain.OutputFormatJSON,
		EmitIR:       true,
		ConfigPath:   "custom.yaml",
	}

	merged := loader.MergeConfig(base, override)

	if len(merged.Paths) != 1 || merged.Paths[0] != "main.lm" {
		t.Errorf("Paths should come from override, got %v", merged.Paths)
	}
	if merged.OutputFormat != domain.OutputFormatJSON {
		t.Errorf("OutputFormat should be overridden, got %s", merged.OutputFormat)
	}
	if !merged.EmitIR {
		t.Error("EmitIR should be overridden")
	}
	if merged.ConfigPath != "custom.yaml" {
		t.Errorf("ConfigPath should be overridden, got %s", merged.ConfigPath)
	}
	if !merged.Recursive {
		t.Error("Recursive should be preserved from base")
	}
}

func TestConfigurationLoader_MergeConfig_EmptyOverride(t *testing.T) {
	loader := NewConfigurationLoader()

	base := &domain.LowerRequest{
		Paths:        []string{"a.lm"},
		OutputFormat: domain.OutputFormatYAML,
		SortBy:       domain.SortByName,
	}
	override := &domain.LowerRequest{}

	merged := loader.MergeConfig(base, override)

	if merged.OutputFormat != domain.OutputFormatYAML {
		t.Errorf("OutputFormat should be preserved, got %s", merged.OutputFormat)
	}
	if merged.SortBy != domain.SortByName {
		t.Errorf("SortBy should be preserved, got %s", merged.SortBy)
	}
	if len(merged.Paths) != 1 {
		t.Errorf("Paths should be preserved, got %v", merged.Paths)
	}
}

func TestConfigurationLoader_ValidateConfig(t *testing.T) {
	loader := NewConfigurationLoader()

	valid := &domain.LowerRequest{
		Paths:        []string{"main.lm"},
		OutputFormat: domain.OutputFormatText,
	}
	if err := loader.ValidateConfig(valid); err != nil {
		t.Errorf("Valid config should pass, got: %v", err)
	}

	noPaths := &domain.LowerRequest{
		OutputFormat: domain.OutputFormatText,
	}
	if err := loader.ValidateConfig(noPaths); err == nil {
		t.Error("Expected error for empty paths")
	}

	badFormat := &domain.LowerRequest{
		Paths:        []string{"main.lm"},
		OutputFormat: "xml",
	}
	if err := loader.ValidateConfig(badFormat); err == nil {
		t.Error("Expected error for invalid format")
	}
}
