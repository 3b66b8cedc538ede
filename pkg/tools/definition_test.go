package tools

import (
	"context"
	"testing"
)

type testContextKey string

type testInput struct {
	Value int `json:"value"`
}

func TestToolFuncExecute_SupportsContextAndInputSignature(t *testing.T) {
	def, err := NewToolFromFunc(
		"ctx_input_tool",
		"test",
		func(ctx context.Context, in testInput) (int, error) {
			if ctx == nil {
				t.Fatalf("ctx should not be nil")
			}
			return in.Value + 1, nil
		},
	)
	if err != nil {
		t.Fatalf("NewToolFromFunc failed: %v", err)
	}

	out, err := def.Function.Execute([]byte(`{"value":41}`))
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	v, ok := out.(int)
	if !ok {
		t.Fatalf("expected int result, got %T", out)
	}
	if v != 42 {
		t.Fatalf("expected 42, got %d", v)
	}
}

func TestToolFuncExecuteWithContext_PassesProvidedContext(t *testing.T) {
	key := testContextKey("tool-test-key")
	def, err := NewToolFromFunc(
		"ctx_passthrough_tool",
		"test",
		func(ctx context.Context, in testInput) (bool, error) {
			v, _ := ctx.Value(key).(string)
			return v == "ok" && in.Value == 7, nil
		},
	)
	if err != nil {
		t.Fatalf("NewToolFromFunc failed: %v", err)
	}

	ctx := context.WithValue(context.Background(), key, "ok")
	out, err := def.Function.ExecuteWithContext(ctx, []byte(`{"value":7}`))
	if err != nil {
		t.Fatalf("ExecuteWithContext failed: %v", err)
	}
	if v, ok := out.(bool); !ok || !v {
		t.Fatalf("expected true result, got %v", out)
	}
}

func TestNewToolFromFunc_RejectsInvalidSignatures(t *testing.T) {
	cases := map[string]interface{}{
		"not a function":      42,
		"no return values":    func(in testInput) {},
		"second not error":    func(in testInput) (int, int) { return 0, 0 },
		"two args no context": func(a testInput, b testInput) (int, error) { return 0, nil },
		"three args":          func(ctx context.Context, a testInput, b testInput) (int, error) { return 0, nil },
	}
	for name, fn := range cases {
		if _, err := NewToolFromFunc("bad", "bad", fn); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestNewToolFromFunc_ReflectsInputSchema(t *testing.T) {
	type readFileInput struct {
		Path string `json:"path" jsonschema:"description=Path of the file to read"`
	}
	def, err := NewToolFromFunc("read_file", "Read a file", func(in readFileInput) (string, error) {
		return in.Path, nil
	})
	if err != nil {
		t.Fatalf("NewToolFromFunc failed: %v", err)
	}
	if def.Parameters == nil || def.Parameters.Type != "object" {
		t.Fatalf("expected object schema, got %+v", def.Parameters)
	}
	if _, ok := def.Parameters.Properties.Get("path"); !ok {
		t.Fatalf("expected path property in schema")
	}

	s := def.Schema()
	if s.Name != "read_file" || s.Description != "Read a file" || s.Parameters != def.Parameters {
		t.Fatalf("schema does not mirror definition: %+v", s)
	}
}

func TestToolFuncExecute_InvalidJSONIsValidationError(t *testing.T) {
	def, err := NewToolFromFunc("t", "t", func(in testInput) (int, error) { return in.Value, nil })
	if err != nil {
		t.Fatalf("NewToolFromFunc failed: %v", err)
	}
	_, err = def.Function.Execute([]byte(`{not json`))
	te, ok := err.(*ToolError)
	if !ok {
		t.Fatalf("expected *ToolError, got %T", err)
	}
	if te.Type != ErrorTypeValidation {
		t.Fatalf("expected validation error, got %s", te.Type)
	}
}
