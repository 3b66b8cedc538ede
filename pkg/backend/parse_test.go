package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseToolCalls_ExtractsEnvelope(t *testing.T) {
	content := `{
		"tool_calls": [
			{"name": "read_file", "arguments": {"path": "a.txt"}, "id": "tc-1"},
			{"name": "list_dir", "arguments": {"path": ".", "depth": 2}}
		]
	}`

	calls := ParseToolCalls(content)
	require.Len(t, calls, 2)
	assert.Equal(t, "read_file", calls[0].Name)
	assert.Equal(t, "tc-1", calls[0].ID)
	assert.Equal(t, map[string]interface{}{"path": "a.txt"}, calls[0].Arguments)
	assert.Equal(t, "list_dir", calls[1].Name)
	assert.Empty(t, calls[1].ID)
	assert.Equal(t, float64(2), calls[1].Arguments["depth"])
}

func TestParseToolCalls_ToleratesGarbage(t *testing.T) {
	for _, content := range []string{
		"",
		"Hi there",
		"{not json",
		`{"tool_calls": "nope"}`,
		`{"other": []}`,
		`[{"name": "x", "arguments": {}}]`,
	} {
		calls := ParseToolCalls(content)
		assert.NotNil(t, calls, content)
		assert.Empty(t, calls, content)
	}
}

func TestParseToolCalls_SkipsEntriesWithoutName(t *testing.T) {
	content := `{"tool_calls": [
		{"arguments": {"a": 1}},
		{"name": 7, "arguments": {}},
		{"name": "no_args", "id": "tc-9"},
		{"name": "null_args", "arguments": null},
		{"name": "scalar_args", "arguments": "x", "id": 42},
		{"name": "ok", "arguments": {}}
	]}`

	calls := ParseToolCalls(content)
	require.Len(t, calls, 4)

	assert.Equal(t, "no_args", calls[0].Name)
	assert.Equal(t, "tc-9", calls[0].ID)
	assert.NotNil(t, calls[0].Arguments)
	assert.Empty(t, calls[0].Arguments)

	assert.Equal(t, "null_args", calls[1].Name)
	assert.NotNil(t, calls[1].Arguments)
	assert.Empty(t, calls[1].Arguments)

	assert.Equal(t, "scalar_args", calls[2].Name)
	assert.Empty(t, calls[2].Arguments)
	assert.Empty(t, calls[2].ID)

	assert.Equal(t, "ok", calls[3].Name)
}

func TestToolCall_ArgumentsJSON(t *testing.T) {
	raw, err := ToolCall{Name: "x"}.ArgumentsJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(raw))

	raw, err = ToolCall{Name: "x", Arguments: map[string]interface{}{"path": "a.txt"}}.ArgumentsJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"path":"a.txt"}`, string(raw))
}
