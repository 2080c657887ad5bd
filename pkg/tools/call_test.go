package tools

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilkoid/poncho-toolcall/pkg/llm"
)

func TestParseToolCalls(t *testing.T) {
	tests := []struct {
		name    string
		calls   []llm.ToolCall
		want    []Call
		wantErr bool
	}{
		{
			name: "no calls",
		},
		{
			name:  "plain arguments",
			calls: []llm.ToolCall{{ID: "1", Name: "create_draft", Args: `{"thread_id":"t1"}`}},
			want:  []Call{{ID: "1", Name: "create_draft", Args: Arguments{"thread_id": "t1"}}},
		},
		{
			name:  "markdown wrapped and empty arguments",
			calls: []llm.ToolCall{{ID: "1", Name: "a", Args: "```json\n{\"x\": 1}\n```"}, {ID: "2", Name: "b", Args: ""}},
			want:  []Call{{ID: "1", Name: "a", Args: Arguments{"x": float64(1)}}, {ID: "2", Name: "b", Args: Arguments{}}},
		},
		{
			name:  "null arguments",
			calls: []llm.ToolCall{{ID: "1", Name: "a", Args: "null"}},
			want:  []Call{{ID: "1", Name: "a", Args: Arguments{}}},
		},
		{
			name:    "broken json",
			calls:   []llm.ToolCall{{ID: "1", Name: "a", Args: `{"x": `}},
			wantErr: true,
		},
		{
			name:    "missing name",
			calls:   []llm.ToolCall{{ID: "1", Name: "ok", Args: `{}`}, {ID: "2", Name: " ", Args: `{}`}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseToolCalls(llm.Message{Role: llm.RoleAssistant, ToolCalls: tt.calls})
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMalformedToolCall)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseToolCalls_GeneratesMissingID(t *testing.T) {
	got, err := ParseToolCalls(llm.Message{ToolCalls: []llm.ToolCall{{Name: "a", Args: "{}"}}})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, strings.HasPrefix(got[0].ID, "call_"))
}
