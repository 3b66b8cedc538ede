package tools

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoInput struct {
	Text string `json:"text"`
}

type sumInput struct {
	A int `json:"a"`
	B int `json:"b"`
}

type sumOutput struct {
	Sum int `json:"sum"`
}

func newTestAdapter(t *testing.T, opts ...RegistryAdapterOption) *RegistryAdapter {
	t.Helper()
	reg := NewInMemoryToolRegistry()
	require.NoError(t, reg.RegisterFunc("echo", "Echo the input", func(in echoInput) (string, error) {
		return in.Text, nil
	}))
	require.NoError(t, reg.RegisterFunc("sum", "Add two numbers", func(in sumInput) (sumOutput, error) {
		return sumOutput{Sum: in.A + in.B}, nil
	}))
	require.NoError(t, reg.RegisterFunc("fail", "Always fails", func(in echoInput) (string, error) {
		return "", errors.New("disk full")
	}))
	require.NoError(t, reg.RegisterFunc("boom", "Panics", func(in echoInput) (string, error) {
		panic("kaboom")
	}))
	require.NoError(t, reg.RegisterFunc("slow", "Waits for cancellation", func(ctx context.Context, in echoInput) (string, error) {
		<-ctx.Done()
		time.Sleep(10 * time.Millisecond)
		return "late", nil
	}))
	return NewRegistryAdapter(reg, opts...)
}

func TestRegistryAdapter_ExecutePassesStringsThrough(t *testing.T) {
	a := newTestAdapter(t)
	out, err := a.Execute(context.Background(), "echo", json.RawMessage(`{"text":"  hello\n"}`))
	require.NoError(t, err)
	assert.Equal(t, "  hello\n", out)
}

func TestRegistryAdapter_ExecuteMarshalsStructuredResults(t *testing.T) {
	a := newTestAdapter(t)
	out, err := a.Execute(context.Background(), "sum", json.RawMessage(`{"a":2,"b":3}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"sum":5}`, out)
}

func TestRegistryAdapter_ToolFailureBecomesResultText(t *testing.T) {
	a := newTestAdapter(t)
	out, err := a.Execute(context.Background(), "fail", json.RawMessage(`{"text":"x"}`))
	require.NoError(t, err)
	assert.Equal(t, "Error: disk full", out)
}

func TestRegistryAdapter_SchemaViolationBecomesResultText(t *testing.T) {
	a := newTestAdapter(t)
	out, err := a.Execute(context.Background(), "sum", json.RawMessage(`{"a":"two","b":3}`))
	require.NoError(t, err)
	assert.Contains(t, out, "Error: invalid arguments for sum")
}

func TestRegistryAdapter_UndecodableArgumentsWithoutValidation(t *testing.T) {
	a := newTestAdapter(t, WithToolConfig(DefaultToolConfig().WithValidateArguments(false)))
	out, err := a.Execute(context.Background(), "sum", json.RawMessage(`{"a":"two"}`))
	require.NoError(t, err)
	assert.Contains(t, out, "Error: failed to unmarshal arguments")
}

func TestRegistryAdapter_UnknownToolIsHardError(t *testing.T) {
	a := newTestAdapter(t)
	_, err := a.Execute(context.Background(), "nope", json.RawMessage(`{}`))
	require.Error(t, err)

	var te *ToolError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, ErrorTypeNotFound, te.Type)
	assert.Equal(t, "nope", te.ToolName)
}

func TestRegistryAdapter_PanicIsHardError(t *testing.T) {
	a := newTestAdapter(t)
	_, err := a.Execute(context.Background(), "boom", json.RawMessage(`{"text":"x"}`))
	require.Error(t, err)

	var te *ToolError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, ErrorTypePanic, te.Type)
	assert.Contains(t, te.Message, "kaboom")
}

func TestRegistryAdapter_TimeoutIsHardError(t *testing.T) {
	a := newTestAdapter(t, WithToolConfig(DefaultToolConfig().WithExecutionTimeout(20*time.Millisecond)))
	_, err := a.Execute(context.Background(), "slow", json.RawMessage(`{"text":"x"}`))
	require.Error(t, err)

	var te *ToolError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, ErrorTypeTimeout, te.Type)
}

func TestRegistryAdapter_CancelledContextIsHardError(t *testing.T) {
	a := newTestAdapter(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.Execute(ctx, "echo", json.RawMessage(`{"text":"x"}`))
	var te *ToolError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, ErrorTypeCancelled, te.Type)
}

func TestRegistryAdapter_AllowListFiltersCatalogAndExecution(t *testing.T) {
	a := newTestAdapter(t, WithToolConfig(DefaultToolConfig().WithAllowedTools([]string{"e*", "sum"})))

	var names []string
	for _, s := range a.ListToolSchemas() {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"echo", "sum"}, names)

	_, err := a.Execute(context.Background(), "fail", json.RawMessage(`{"text":"x"}`))
	var te *ToolError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, ErrorTypeNotAllowed, te.Type)
}

func TestRegistryAdapter_EmptyArgumentsAreAnEmptyObject(t *testing.T) {
	reg := NewInMemoryToolRegistry()
	require.NoError(t, reg.RegisterFunc("now", "Constant clock", func() string { return "noon" }))
	a := NewRegistryAdapter(reg)

	out, err := a.Execute(context.Background(), "now", nil)
	require.NoError(t, err)
	assert.Equal(t, "noon", out)
}
