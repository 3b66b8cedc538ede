package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryToolRegistry_RegisterAndGet(t *testing.T) {
	reg := NewInMemoryToolRegistry()
	require.Error(t, reg.RegisterTool("", ToolDefinition{}))
	require.Error(t, reg.RegisterTool("a", ToolDefinition{Name: "b"}))

	require.NoError(t, reg.RegisterTool("echo", ToolDefinition{Description: "echo"}))
	def, err := reg.GetTool("echo")
	require.NoError(t, err)
	assert.Equal(t, "echo", def.Name)

	def.Description = "mutated"
	again, err := reg.GetTool("echo")
	require.NoError(t, err)
	assert.Equal(t, "echo", again.Description)

	_, err = reg.GetTool("missing")
	require.Error(t, err)
}

func TestInMemoryToolRegistry_ListToolsIsSortedByName(t *testing.T) {
	reg := NewInMemoryToolRegistry()
	for _, name := range []string{"write_file", "list_dir", "read_file"} {
		require.NoError(t, reg.RegisterTool(name, ToolDefinition{}))
	}

	var names []string
	for _, def := range reg.ListTools() {
		names = append(names, def.Name)
	}
	assert.Equal(t, []string{"list_dir", "read_file", "write_file"}, names)
	assert.Len(t, reg.ListTools(), 3)
}

func TestInMemoryToolRegistry_ReRegisterReplaces(t *testing.T) {
	reg := NewInMemoryToolRegistry()
	require.NoError(t, reg.RegisterTool("a", ToolDefinition{Description: "first"}))
	require.NoError(t, reg.RegisterTool("a", ToolDefinition{Name: "a", Description: "second"}))

	require.Len(t, reg.ListTools(), 1)
	a, err := reg.GetTool("a")
	require.NoError(t, err)
	assert.Equal(t, "second", a.Description)
}

func TestToolConfig_IsToolAllowedMatchesGlobs(t *testing.T) {
	cfg := DefaultToolConfig()
	assert.True(t, cfg.IsToolAllowed("anything"))

	cfg = cfg.WithAllowedTools([]string{"fs_*", "echo"})
	assert.True(t, cfg.IsToolAllowed("fs_read"))
	assert.True(t, cfg.IsToolAllowed("echo"))
	assert.False(t, cfg.IsToolAllowed("shell"))

	cfg = cfg.WithAllowedTools([]string{})
	assert.False(t, cfg.IsToolAllowed("echo"))
}
