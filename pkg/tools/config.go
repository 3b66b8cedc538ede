package tools

import (
	"time"

	"github.com/mb0/glob"
	"github.com/rs/zerolog/log"
)

// ToolConfig controls how the RegistryAdapter exposes and runs tools.
type ToolConfig struct {
	// AllowedTools holds glob patterns (e.g. "fs_*"). nil allows every tool.
	AllowedTools      []string      `json:"allowed_tools" yaml:"allowed_tools" mapstructure:"allowed-tools"`
	ExecutionTimeout  time.Duration `json:"execution_timeout" yaml:"execution_timeout" mapstructure:"execution-timeout"`
	ValidateArguments bool          `json:"validate_arguments" yaml:"validate_arguments" mapstructure:"validate-arguments"`
}

func DefaultToolConfig() ToolConfig {
	return ToolConfig{
		AllowedTools:      nil,
		ExecutionTimeout:  30 * time.Second,
		ValidateArguments: true,
	}
}

func (tc ToolConfig) WithAllowedTools(patterns []string) ToolConfig {
	tc.AllowedTools = patterns
	return tc
}

func (tc ToolConfig) WithExecutionTimeout(timeout time.Duration) ToolConfig {
	tc.ExecutionTimeout = timeout
	return tc
}

func (tc ToolConfig) WithValidateArguments(validate bool) ToolConfig {
	tc.ValidateArguments = validate
	return tc
}

// IsToolAllowed reports whether toolName matches one of the AllowedTools patterns.
func (tc *ToolConfig) IsToolAllowed(toolName string) bool {
	if tc.AllowedTools == nil {
		return true
	}

	for _, pattern := range tc.AllowedTools {
		if pattern == toolName {
			return true
		}
		matched, err := glob.Match(pattern, toolName)
		if err != nil {
			log.Warn().Err(err).Str("pattern", pattern).Msg("tools: invalid allowed-tools pattern")
			continue
		}
		if matched {
			return true
		}
	}

	return false
}

// FilterTools returns only the tools that are allowed by this configuration
func (tc *ToolConfig) FilterTools(tools []ToolDefinition) []ToolDefinition {
	if tc.AllowedTools == nil {
		return tools
	}

	filtered := make([]ToolDefinition, 0, len(tools))
	for _, tool := range tools {
		if tc.IsToolAllowed(tool.Name) {
			filtered = append(filtered, tool)
		}
	}

	return filtered
}
