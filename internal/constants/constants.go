package constants

// Tool name and related constants
const (
	// ToolName is the name of this tool
	ToolName = "lumen"

	// ConfigFileName is the default config file name
	ConfigFileName = ".lumen.toml"

	// EnvVarPrefix is the prefix for environment variables
	EnvVarPrefix = "LUMEN"
)
