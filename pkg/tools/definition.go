package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/invopop/jsonschema"
	"github.com/rs/zerolog/log"
)

var contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
var errorType = reflect.TypeOf((*error)(nil)).Elem()

// ToolDefinition represents a tool that can be requested by the backend.
type ToolDefinition struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Parameters  *jsonschema.Schema `json:"parameters"`
	Function    ToolFunc           `json:"-"`
	Tags        []string           `json:"tags,omitempty"`
	Version     string             `json:"version,omitempty"`
}

// Schema returns the catalog entry for this definition.
func (td ToolDefinition) Schema() Schema {
	return Schema{
		Name:        td.Name,
		Description: td.Description,
		Parameters:  td.Parameters,
	}
}

// ToolFunc wraps the Go function backing a tool. Arguments are decoded from
// JSON into the function's input struct before the call.
type ToolFunc struct {
	Fn         interface{} `json:"-"`
	executor   func(context.Context, []byte) (interface{}, error)
	inputType  reflect.Type
	outputType reflect.Type
}

// NewToolFromFunc creates a ToolDefinition from a Go function. Supported signatures:
//
//	func() R
//	func(In) (R, error)
//	func(context.Context) (R, error)
//	func(context.Context, In) (R, error)
//
// The parameter schema is reflected from In.
func NewToolFromFunc(name, description string, fn interface{}) (*ToolDefinition, error) {
	funcType := reflect.TypeOf(fn)
	if funcType == nil || funcType.Kind() != reflect.Func {
		return nil, fmt.Errorf("provided value is not a function")
	}

	if funcType.NumOut() == 0 || funcType.NumOut() > 2 {
		return nil, fmt.Errorf("function must return (result) or (result, error)")
	}
	if funcType.NumOut() == 2 && !funcType.Out(1).Implements(errorType) {
		return nil, fmt.Errorf("second return value must be an error")
	}

	inType, err := inputTypeOf(funcType)
	if err != nil {
		return nil, err
	}

	return &ToolDefinition{
		Name:        name,
		Description: description,
		Parameters:  schemaForInput(inType),
		Function: ToolFunc{
			Fn:         fn,
			executor:   createExecutor(fn, funcType, inType),
			inputType:  inType,
			outputType: funcType.Out(0),
		},
	}, nil
}

// Execute calls the tool function with a background context.
func (tf *ToolFunc) Execute(args []byte) (interface{}, error) {
	return tf.ExecuteWithContext(context.Background(), args)
}

// ExecuteWithContext calls the tool function, passing ctx when the function accepts one.
func (tf *ToolFunc) ExecuteWithContext(ctx context.Context, args []byte) (interface{}, error) {
	if tf.executor == nil {
		return nil, fmt.Errorf("tool function not properly initialized")
	}
	return tf.executor(ctx, args)
}

// inputTypeOf returns the JSON-decoded input type, or nil when the function takes none.
func inputTypeOf(funcType reflect.Type) (reflect.Type, error) {
	switch funcType.NumIn() {
	case 0:
		return nil, nil
	case 1:
		if funcType.In(0) == contextType {
			return nil, nil
		}
		return funcType.In(0), nil
	case 2:
		if funcType.In(0) != contextType {
			return nil, fmt.Errorf("two-arg tool function must be (context.Context, Input)")
		}
		return funcType.In(1), nil
	default:
		return nil, fmt.Errorf("function must take exactly one parameter (Input) or (context.Context, Input)")
	}
}

func schemaForInput(inType reflect.Type) *jsonschema.Schema {
	if inType == nil {
		return &jsonschema.Schema{Type: "object"}
	}

	reflector := jsonschema.Reflector{
		// inline definitions, providers reject $refs
		DoNotReference: true,
	}
	schema := reflector.Reflect(reflect.New(inType).Elem().Interface())
	if schema.Type == "" && schema.Ref == "" {
		schema.Type = "object"
	}
	return schema
}

func createExecutor(fn interface{}, funcType reflect.Type, inType reflect.Type) func(context.Context, []byte) (interface{}, error) {
	funcValue := reflect.ValueOf(fn)
	takesContext := funcType.NumIn() > 0 && funcType.In(0) == contextType

	return func(ctx context.Context, args []byte) (interface{}, error) {
		log.Trace().
			Str("func_type", funcType.String()).
			Int("args_len", len(args)).
			Msg("tools: executing tool function")

		in := make([]reflect.Value, 0, 2)
		if takesContext {
			if ctx == nil {
				ctx = context.Background()
			}
			in = append(in, reflect.ValueOf(ctx))
		}
		if inType != nil {
			input := reflect.New(inType)
			if len(args) > 0 {
				if err := json.Unmarshal(args, input.Interface()); err != nil {
					return nil, &ToolError{
						Type:    ErrorTypeValidation,
						Message: fmt.Sprintf("failed to unmarshal arguments: %v", err),
					}
				}
			}
			in = append(in, input.Elem())
		}

		return extractResults(funcValue.Call(in))
	}
}

func extractResults(results []reflect.Value) (interface{}, error) {
	switch len(results) {
	case 1:
		return results[0].Interface(), nil
	case 2:
		result := results[0].Interface()
		if results[1].IsNil() {
			return result, nil
		}
		err, ok := results[1].Interface().(error)
		if !ok {
			return result, fmt.Errorf("unexpected error type: %T", results[1].Interface())
		}
		return result, err
	default:
		return nil, fmt.Errorf("unexpected number of return values: %d", len(results))
	}
}
