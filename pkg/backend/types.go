package backend

import (
	"context"
	"encoding/json"

	"github.com/go-go-golems/gamecode/pkg/tools"
)

// ToolCall is a tool invocation requested by the model. ID is opaque and
// must be echoed unchanged in the matching tools.Result.
type ToolCall struct {
	ID        string                 `json:"id,omitempty" yaml:"id,omitempty"`
	Name      string                 `json:"name" yaml:"name"`
	Arguments map[string]interface{} `json:"arguments" yaml:"arguments"`
}

// ArgumentsJSON encodes the arguments for the tool adapter. A nil map encodes as {}.
func (tc ToolCall) ArgumentsJSON() (json.RawMessage, error) {
	if tc.Arguments == nil {
		return json.RawMessage("{}"), nil
	}
	b, err := json.Marshal(tc.Arguments)
	if err != nil {
		return nil, err
	}
	return b, nil
}

type Usage struct {
	InputTokens  int `json:"input_tokens" yaml:"input_tokens"`
	OutputTokens int `json:"output_tokens" yaml:"output_tokens"`
}

type Request struct {
	Context   string
	Tools     []tools.Schema
	SessionID string
}

type Response struct {
	Text      string     `json:"text" yaml:"text"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty" yaml:"tool_calls,omitempty"`
	Model     string     `json:"model,omitempty" yaml:"model,omitempty"`
	Usage     *Usage     `json:"usage,omitempty" yaml:"usage,omitempty"`
}

// Client generates a model response for a flattened context. Retries, if
// any, happen inside the client.
type Client interface {
	Generate(ctx context.Context, req Request) (*Response, error)
}

// Describer is implemented by clients that can report what they talk to.
type Describer interface {
	Name() string
	ContextWindow() int
}
