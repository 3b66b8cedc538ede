package tools

import (
	"fmt"
	"sort"
	"sync"
)

// ToolRegistry is the lookup surface RegistryAdapter dispatches through.
type ToolRegistry interface {
	RegisterTool(name string, def ToolDefinition) error
	GetTool(name string) (*ToolDefinition, error)
	ListTools() []ToolDefinition
}

// InMemoryToolRegistry is safe for concurrent registration and lookup.
type InMemoryToolRegistry struct {
	mu    sync.RWMutex
	byKey map[string]ToolDefinition
}

var _ ToolRegistry = (*InMemoryToolRegistry)(nil)

func NewInMemoryToolRegistry() *InMemoryToolRegistry {
	return &InMemoryToolRegistry{byKey: map[string]ToolDefinition{}}
}

// RegisterTool stores def under name. A later registration with the same
// name replaces the earlier one.
func (r *InMemoryToolRegistry) RegisterTool(name string, def ToolDefinition) error {
	switch {
	case name == "":
		return fmt.Errorf("tool name cannot be empty")
	case def.Name != "" && def.Name != name:
		return fmt.Errorf("tool %q registered under name %q", def.Name, name)
	}
	def.Name = name

	r.mu.Lock()
	r.byKey[name] = def
	r.mu.Unlock()
	return nil
}

// RegisterFunc derives the schema from fn's single struct argument.
func (r *InMemoryToolRegistry) RegisterFunc(name, description string, fn interface{}) error {
	def, err := NewToolFromFunc(name, description, fn)
	if err != nil {
		return fmt.Errorf("tool %s: %w", name, err)
	}
	return r.RegisterTool(name, *def)
}

// GetTool returns a copy, so callers cannot mutate the registered definition.
func (r *InMemoryToolRegistry) GetTool(name string) (*ToolDefinition, error) {
	r.mu.RLock()
	def, ok := r.byKey[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("tool not found: %s", name)
	}
	return &def, nil
}

// ListTools is ordered by name so the schemas sent to the backend are stable.
func (r *InMemoryToolRegistry) ListTools() []ToolDefinition {
	r.mu.RLock()
	ret := make([]ToolDefinition, 0, len(r.byKey))
	for _, def := range r.byKey {
		ret = append(ret, def)
	}
	r.mu.RUnlock()

	sort.Slice(ret, func(i, j int) bool { return ret[i].Name < ret[j].Name })
	return ret
}
