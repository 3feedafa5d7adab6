package config

import "strconv"

// ProjectType represents the flavor of Lumen project being configured
type ProjectType string

const (
	ProjectTypeGeneric ProjectType = "generic"
	ProjectTypeTyped   ProjectType = "typed"
	ProjectTypeMixed   ProjectType = "mixed"
)

// Strictness represents the diagnostic strictness level
type Strictness string

const (
	StrictnessRelaxed  Strictness = "relaxed"
	StrictnessStandard Strictness = "standard"
	StrictnessStrict   Strictness = "strict"
)

// ProjectPreset holds file patterns for different project types
type ProjectPreset struct {
	IncludePatterns []string
	ExcludePatterns []string
}

// StrictnessPreset holds diagnostic settings for different strictness levels
type StrictnessPreset struct {
	ReportAfterBreak    bool
	ReportAfterContinue bool
	MaxDiagnostics      int
}

// GetProjectPresets returns presets for different project types
func GetProjectPresets() map[ProjectType]ProjectPreset {
	return map[ProjectType]ProjectPreset{
		ProjectTypeGeneric: {
			IncludePatterns: []string{
				"**/*.lm",
				"**/*.js",
				"**/*.mjs",
			},
			ExcludePatterns: []string{
				"**/node_modules/**",
				"**/dist/**",
				"**/build/**",
				"**/*.min.js",
			},
		},
		ProjectTypeTyped: {
			IncludePatterns: []string{
				"**/*.lm",
				"**/*.ts",
				"**/*.mts",
			},
			ExcludePatterns: []string{
				"**/node_modules/**",
				"**/dist/**",
				"**/build/**",
				"**/*.d.ts",
			},
		},
		ProjectTypeMixed: {
			IncludePatterns: []string{
				"**/*.lm",
				"**/*.js",
				"**/*.ts",
				"**/*.mjs",
				"**/*.mts",
			},
			ExcludePatterns: []string{
				"**/node_modules/**",
				"**/dist/**",
				"**/build/**",
				"**/*.min.js",
				"**/*.d.ts",
			},
		},
	}
}

// GetStrictnessPresets returns presets for different strictness levels
func GetStrictnessPresets() map[Strictness]StrictnessPreset {
	return map[Strictness]StrictnessPreset{
		StrictnessRelaxed: {
			ReportAfterBreak:    false,
			ReportAfterContinue: false,
			MaxDiagnostics:      0, // No limit
		},
		StrictnessStandard: {
			ReportAfterBreak:    true,
			ReportAfterContinue: true,
			MaxDiagnostics:      0, // No limit
		},
		StrictnessStrict: {
			ReportAfterBreak:    true,
			ReportAfterContinue: true,
			MaxDiagnostics:      1,
		},
	}
}

// GetFullConfigTemplate returns the documented config template as JSONC
func GetFullConfigTemplate(projectType ProjectType, strictness Strictness) string {
	projectPresets := GetProjectPresets()
	strictnessPresets := GetStrictnessPresets()

	preset := projectPresets[projectType]
	strict := strictnessPresets[strictness]

	includePatterns := formatJSONArray(preset.IncludePatterns)
	excludePatterns := formatJSONArray(preset.ExcludePatterns)

	return `{
  // Lumen Configuration
  // Documentation: https://github.com/lumen-lang/lumen

  // ============================================================================
  // LOWERING
  // ============================================================================
  // Controls the statement-to-IR lowering stage
  "lowering": {
    // Include printed IR for every function in reports
    "emitIr": false,

    // Run the structural verifier over every lowered function
    "verifyIr": true
  },

  // ============================================================================
  // DIAGNOSTICS
  // ============================================================================
  // Unreachable code detected while lowering
  "diagnostics": {
    // Enable/disable diagnostic reporting
    "enabled": true,

    // Reporting options per diagnostic kind
    "reportAfterReturn": true,
    "reportAfterBreak": ` + strconv.FormatBool(strict.ReportAfterBreak) + `,
    "reportAfterContinue": ` + strconv.FormatBool(strict.ReportAfterContinue) + `,

    // Fail checks when this many diagnostics are reported (0 = no limit)
    "maxDiagnostics": ` + strconv.Itoa(strict.MaxDiagnostics) + `
  },

  // ============================================================================
  // OUTPUT SETTINGS
  // ============================================================================
  "output": {
    // Output format: "text", "json", "yaml", "dot"
    "format": "text",

    // Show per-function breakdown of results
    "showDetails": true
  },

  // ============================================================================
  // COMPILATION SCOPE
  // ============================================================================
  // Controls which files are compiled
  "analysis": {
    // File patterns to include (glob patterns)
    "include": ` + includePatterns + `,

    // File patterns to exclude (glob patterns)
    "exclude": ` + excludePatterns + `,

    // Number of parallel workers (0 = auto-detect based on CPU)
    "workers": 0
  }
}
`
}

// GetMinimalConfigTemplate returns a minimal config template
func GetMinimalConfigTemplate() string {
	return `{
  // Lumen Configuration (minimal)
  // See full options: https://github.com/lumen-lang/lumen

  "lowering": {
    "verifyIr": true
  },

  "diagnostics": {
    "enabled": true
  },

  "analysis": {
    "include": ["**/*.lm", "**/*.js", "**/*.ts"],
    "exclude": ["**/node_modules/**", "**/dist/**"]
  }
}
`
}

// formatJSONArray formats a string slice as a JSON array with proper indentation
func formatJSONArray(items []string) string {
	if len(items) == 0 {
		return "[]"
	}

	result := "[\n"
	for i, item := range items {
		result += `      "` + item + `"`
		if i < len(items)-1 {
			result += ","
		}
		result += "\n"
	}
	result += "    ]"
	return result
}
