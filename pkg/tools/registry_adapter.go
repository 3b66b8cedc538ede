package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/xeipuuv/gojsonschema"
)

// RegistryAdapter is the Adapter backed by an in-process ToolRegistry.
//
// Failures reported by a tool function, and arguments that do not decode or
// do not validate against the tool's schema, come back as result text so the
// model can react to them. Unknown or disallowed tools, cancellation,
// timeouts and panics are returned as *ToolError.
type RegistryAdapter struct {
	registry ToolRegistry
	config   ToolConfig
}

var _ Adapter = (*RegistryAdapter)(nil)

type RegistryAdapterOption func(*RegistryAdapter)

func WithToolConfig(cfg ToolConfig) RegistryAdapterOption {
	return func(a *RegistryAdapter) { a.config = cfg }
}

func NewRegistryAdapter(registry ToolRegistry, opts ...RegistryAdapterOption) *RegistryAdapter {
	if registry == nil {
		registry = NewInMemoryToolRegistry()
	}
	a := &RegistryAdapter{
		registry: registry,
		config:   DefaultToolConfig(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a
}

func (a *RegistryAdapter) Registry() ToolRegistry {
	return a.registry
}

// ListToolSchemas returns the catalog of allowed tools, ordered by name.
func (a *RegistryAdapter) ListToolSchemas() []Schema {
	defs := a.config.FilterTools(a.registry.ListTools())
	schemas := make([]Schema, 0, len(defs))
	for _, def := range defs {
		schemas = append(schemas, def.Schema())
	}
	return schemas
}

func (a *RegistryAdapter) Execute(ctx context.Context, name string, arguments json.RawMessage) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	log.Trace().Str("tool", name).Str("arguments", string(arguments)).Msg("tools: executing tool")

	def, err := a.registry.GetTool(name)
	if err != nil {
		return "", &ToolError{ToolName: name, Type: ErrorTypeNotFound, Message: err.Error()}
	}
	if !a.config.IsToolAllowed(name) {
		return "", &ToolError{ToolName: name, Type: ErrorTypeNotAllowed, Message: fmt.Sprintf("tool not allowed: %s", name)}
	}
	if err := ctx.Err(); err != nil {
		return "", &ToolError{ToolName: name, Type: ErrorTypeCancelled, Message: err.Error()}
	}

	if a.config.ValidateArguments && def.Parameters != nil {
		if msg, err := validateArguments(def, arguments); err != nil {
			return "", errors.Wrapf(err, "validate arguments for %s", name)
		} else if msg != "" {
			log.Debug().Str("tool", name).Str("validation", msg).Msg("tools: arguments rejected by schema")
			return msg, nil
		}
	}

	out, err := a.run(ctx, def, arguments)
	if err != nil {
		var te *ToolError
		if errors.As(err, &te) {
			if te.ToolName == "" {
				te.ToolName = name
			}
			if te.Type == ErrorTypeValidation {
				return fmt.Sprintf("Error: %s", te.Message), nil
			}
			return "", te
		}
		log.Info().Str("tool", name).Err(err).Msg("tools: tool reported failure")
		return fmt.Sprintf("Error: %s", err.Error()), nil
	}

	log.Debug().Str("tool", name).Msg("tools: tool executed successfully")
	return formatResult(out), nil
}

type runOutcome struct {
	value interface{}
	err   error
}

func (a *RegistryAdapter) run(ctx context.Context, def *ToolDefinition, arguments json.RawMessage) (interface{}, error) {
	if a.config.ExecutionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.config.ExecutionTimeout)
		defer cancel()
	}

	done := make(chan runOutcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- runOutcome{err: &ToolError{ToolName: def.Name, Type: ErrorTypePanic, Message: fmt.Sprintf("%v", r)}}
			}
		}()
		v, err := def.Function.ExecuteWithContext(ctx, arguments)
		done <- runOutcome{value: v, err: err}
	}()

	select {
	case res := <-done:
		return res.value, res.err
	case <-ctx.Done():
		errType := ErrorTypeCancelled
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			errType = ErrorTypeTimeout
		}
		return nil, &ToolError{ToolName: def.Name, Type: errType, Message: ctx.Err().Error()}
	}
}

// validateArguments returns a non-empty message when the arguments do not
// satisfy the tool's parameter schema.
func validateArguments(def *ToolDefinition, arguments json.RawMessage) (string, error) {
	// validated by draft-independent keywords only
	schema := *def.Parameters
	schema.Version = ""
	schema.ID = ""
	schemaBytes, err := json.Marshal(&schema)
	if err != nil {
		return "", errors.Wrap(err, "marshal parameter schema")
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaBytes),
		gojsonschema.NewBytesLoader(nonEmptyJSON(arguments)),
	)
	if err != nil {
		return fmt.Sprintf("Error: invalid arguments for %s: %v", def.Name, err), nil
	}
	if result.Valid() {
		return "", nil
	}

	descriptions := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		descriptions = append(descriptions, desc.String())
	}
	return fmt.Sprintf("Error: invalid arguments for %s: %s", def.Name, strings.Join(descriptions, "; ")), nil
}

func nonEmptyJSON(arguments json.RawMessage) []byte {
	if len(strings.TrimSpace(string(arguments))) == 0 {
		return []byte("{}")
	}
	return arguments
}

// formatResult renders a tool's return value as result text. Strings are
// passed through untouched.
func formatResult(v interface{}) string {
	switch r := v.(type) {
	case nil:
		return ""
	case string:
		return r
	case []byte:
		return string(r)
	case fmt.Stringer:
		return r.String()
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
