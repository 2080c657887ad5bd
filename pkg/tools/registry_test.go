package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubTool - инструмент с фиксированным ответом.
type stubTool struct {
	def    ToolDefinition
	output string
	err    error
	calls  int
}

func newStubTool(name string) *stubTool {
	return &stubTool{
		def: ToolDefinition{
			Name:        name,
			Description: "stub " + name,
			Parameters: JSONSchema{
				"type":       "object",
				"properties": map[string]any{},
			},
		},
		output: name + " ok",
	}
}

func (s *stubTool) Definition() ToolDefinition { return s.def }

func (s *stubTool) Execute(ctx context.Context, args Arguments) (string, error) {
	s.calls++
	return s.output, s.err
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	reg, err := NewRegistry(newStubTool("b_tool"), newStubTool("a_tool"))
	require.NoError(t, err)

	tool, err := reg.Get("a_tool")
	require.NoError(t, err)
	assert.Equal(t, "a_tool", tool.Definition().Name)

	_, err = reg.Get("missing")
	assert.ErrorIs(t, err, ErrToolNotFound)

	// порядок регистрации сохраняется
	defs := reg.GetDefinitions()
	require.Len(t, defs, 2)
	assert.Equal(t, "b_tool", defs[0].Name)
	assert.Equal(t, "a_tool", defs[1].Name)
	assert.Equal(t, 2, reg.Len())
}

func TestRegistry_RejectsDuplicate(t *testing.T) {
	reg, err := NewRegistry(newStubTool("dup"))
	require.NoError(t, err)

	err = reg.Register(newStubTool("dup"))
	assert.ErrorIs(t, err, ErrInvalidDefinition)
}

func TestValidateToolDefinition(t *testing.T) {
	tests := []struct {
		name    string
		def     ToolDefinition
		wantErr bool
	}{
		{
			name: "valid with required strings",
			def: ToolDefinition{Name: "ok", Parameters: JSONSchema{
				"type":     "object",
				"required": []string{"thread_id"},
			}},
		},
		{name: "empty name", def: ToolDefinition{Parameters: JSONSchema{"type": "object"}}, wantErr: true},
		{name: "nil parameters", def: ToolDefinition{Name: "x"}, wantErr: true},
		{name: "missing type", def: ToolDefinition{Name: "x", Parameters: JSONSchema{}}, wantErr: true},
		{name: "not object", def: ToolDefinition{Name: "x", Parameters: JSONSchema{"type": "string"}}, wantErr: true},
		{
			name: "required not array",
			def: ToolDefinition{Name: "x", Parameters: JSONSchema{
				"type":     "object",
				"required": "thread_id",
			}},
			wantErr: true,
		},
		{
			name: "required with number",
			def: ToolDefinition{Name: "x", Parameters: JSONSchema{
				"type":     "object",
				"required": []any{"a", 1},
			}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateToolDefinition(tt.def)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidDefinition)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
