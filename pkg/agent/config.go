package agent

import (
	"text/template"

	"github.com/Masterminds/sprig"
	"github.com/huandu/go-clone"
	"github.com/pkg/errors"
)

const (
	LengthUnitBytes  = "bytes"
	LengthUnitTokens = "tokens"
)

// DefaultSummaryPromptTemplate renders the compression request. .Context is
// the flattened conversation.
const DefaultSummaryPromptTemplate = "Please summarize the following conversation concisely while preserving all important information:\n{{ .Context }}\n"

// Config is the manager's policy bundle. It is copied at construction and
// never mutated afterwards.
type Config struct {
	MaxContextLength       int    `yaml:"max_context_length" mapstructure:"max-context-length"`
	AutoCompressContext    bool   `yaml:"auto_compress_context" mapstructure:"auto-compress-context"`
	UseFastModelForContext bool   `yaml:"use_fast_model_for_context" mapstructure:"use-fast-model-for-context"`
	ContextLengthUnit      string `yaml:"context_length_unit" mapstructure:"context-length-unit"`
	SummaryPromptTemplate  string `yaml:"summary_prompt_template" mapstructure:"summary-prompt-template"`

	// ParseEmbeddedToolCalls enables reading a {"tool_calls": [...]} envelope
	// out of the response text when the backend returned no structured calls.
	ParseEmbeddedToolCalls bool `yaml:"parse_embedded_tool_calls" mapstructure:"parse-embedded-tool-calls"`

	// backend connection
	Region  string `yaml:"region" mapstructure:"region"`
	Profile string `yaml:"profile,omitempty" mapstructure:"profile"`
}

func DefaultConfig() Config {
	return Config{
		MaxContextLength:       32000,
		AutoCompressContext:    true,
		UseFastModelForContext: true,
		ContextLengthUnit:      LengthUnitBytes,
		SummaryPromptTemplate:  DefaultSummaryPromptTemplate,
		ParseEmbeddedToolCalls: true,
		Region:                 "us-east-1",
	}
}

func (c *Config) Clone() *Config {
	return clone.Clone(c).(*Config)
}

func (c *Config) Validate() error {
	if c.MaxContextLength <= 0 {
		return errors.Errorf("max-context-length must be positive, got %d", c.MaxContextLength)
	}
	switch c.ContextLengthUnit {
	case "", LengthUnitBytes, LengthUnitTokens:
	default:
		return errors.Errorf("unknown context-length-unit %q", c.ContextLengthUnit)
	}
	if c.Region == "" {
		return errors.New("region must be set")
	}
	if _, err := c.summaryTemplate(); err != nil {
		return err
	}
	return nil
}

func (c *Config) summaryTemplate() (*template.Template, error) {
	text := c.SummaryPromptTemplate
	if text == "" {
		text = DefaultSummaryPromptTemplate
	}
	t, err := template.New("summary-prompt").Funcs(sprig.TxtFuncMap()).Parse(text)
	if err != nil {
		return nil, errors.Wrap(err, "parse summary-prompt-template")
	}
	return t, nil
}
