package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// Schema is one entry of the tool catalog handed to the backend. It is passed
// through verbatim.
type Schema struct {
	Name        string             `json:"name" yaml:"name"`
	Description string             `json:"description" yaml:"description"`
	Parameters  *jsonschema.Schema `json:"parameters" yaml:"-"`
}

// Adapter forwards tool invocations to whatever actually runs the tools.
//
// Execute returns the result text. A tool that ran and reported a failure is
// still a result (the failure is described in the text); a non-nil error
// means the invocation itself could not be carried out.
type Adapter interface {
	ListToolSchemas() []Schema
	Execute(ctx context.Context, name string, arguments json.RawMessage) (string, error)
}

// Result is the textual outcome of one tool call.
//
// ToolCallID is the identifier the backend assigned to the originating call,
// copied byte-for-byte. It is empty when the backend did not supply one.
type Result struct {
	ToolName   string `json:"tool_name" yaml:"tool_name"`
	Result     string `json:"result" yaml:"result"`
	ToolCallID string `json:"tool_call_id,omitempty" yaml:"tool_call_id,omitempty"`
}

func (r Result) HasToolCallID() bool {
	return r.ToolCallID != ""
}

// Error types carried by ToolError.
const (
	ErrorTypeValidation = "validation"
	ErrorTypeExecution  = "execution"
	ErrorTypeTimeout    = "timeout"
	ErrorTypeNotFound   = "not_found"
	ErrorTypeNotAllowed = "not_allowed"
	ErrorTypeCancelled  = "cancelled"
	ErrorTypePanic      = "panic"
)

// ToolError represents an error that occurred while invoking a tool.
type ToolError struct {
	ToolName string      `json:"tool_name"`
	ToolID   string      `json:"tool_id,omitempty"`
	Type     string      `json:"type"`
	Message  string      `json:"message"`
	Details  interface{} `json:"details,omitempty"`
}

func (e *ToolError) Error() string {
	if e.ToolName == "" {
		return fmt.Sprintf("tool error [%s]: %s", e.Type, e.Message)
	}
	return fmt.Sprintf("tool error [%s] %s: %s", e.Type, e.ToolName, e.Message)
}
