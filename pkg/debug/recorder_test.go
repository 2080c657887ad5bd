package debug

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilkoid/poncho-toolcall/pkg/conversation"
	"github.com/ilkoid/poncho-toolcall/pkg/events"
	"github.com/ilkoid/poncho-toolcall/pkg/llm"
	"github.com/ilkoid/poncho-toolcall/pkg/tools"
)

type echoArgs struct {
	Text string `json:"text"`
}

func readLog(t *testing.T, path string) DebugLog {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var log DebugLog
	require.NoError(t, json.Unmarshal(data, &log))
	return log
}

func TestRecorder_RecordsConversation(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "debug_logs")
	rec, err := NewRecorder(RecorderConfig{LogsDir: dir, IncludeToolArgs: true, IncludeToolResults: true, MaxResultSize: 10})
	require.NoError(t, err)

	echo, err := tools.NewFunc("echo", "echoes text", func(ctx context.Context, a echoArgs) (string, error) {
		return strings.Repeat(a.Text, 5), nil
	})
	require.NoError(t, err)

	round := 0
	provider := llm.ProviderFunc(func(ctx context.Context, messages []llm.Message, specs []llm.ToolSpec, opts ...llm.GenerateOption) (llm.Message, error) {
		round++
		if round == 1 {
			return llm.Message{Role: llm.RoleAssistant, ToolCalls: []llm.ToolCall{
				{ID: "a", Name: "echo", Args: `{"text":"hello"}`},
				{ID: "b", Name: "missing", Args: `{}`},
			}}, nil
		}
		return llm.Message{Role: llm.RoleAssistant, Content: "done"}, nil
	})

	loop, err := conversation.New(provider, []tools.Tool{echo}, conversation.WithEmitter(rec))
	require.NoError(t, err)

	res, err := loop.Run(context.Background(), "say hello")
	require.NoError(t, err)

	saved := rec.Saved()
	require.Len(t, saved, 1)
	assert.Equal(t, filepath.Join(dir, res.RunID+".json"), saved[0])

	log := readLog(t, saved[0])
	assert.Equal(t, res.RunID, log.RunID)
	assert.Equal(t, "say hello", log.UserQuery)
	assert.Equal(t, "done", log.FinalResult)
	assert.Empty(t, log.Error)

	require.Len(t, log.Rounds, 2)
	first := log.Rounds[0]
	assert.Equal(t, 1, first.Number)
	require.Len(t, first.ToolCalls, 2)
	require.Len(t, first.ToolsExecuted, 2)
	assert.Equal(t, `{"text":"hello"}`, first.ToolsExecuted[0].Args)
	assert.True(t, first.ToolsExecuted[0].ResultTruncated)
	assert.Equal(t, "hellohello... (truncated)", first.ToolsExecuted[0].Result)
	assert.False(t, first.ToolsExecuted[1].Success)
	assert.True(t, log.Rounds[1].IsFinal)

	assert.Equal(t, 2, log.Summary.TotalLLMCalls)
	assert.Equal(t, 2, log.Summary.TotalToolsExecuted)
	assert.Equal(t, 1, log.Summary.FailedTools)
	assert.Equal(t, []string{"echo", "missing"}, log.Summary.VisitedTools)
}

func TestRecorder_FailedRunAndPrivacy(t *testing.T) {
	dir := t.TempDir()
	rec, err := NewRecorder(RecorderConfig{LogsDir: dir})
	require.NoError(t, err)

	start := time.Now()
	emit := func(typ events.EventType, round int, data events.EventData) {
		rec.Emit(context.Background(), events.Event{Type: typ, Data: data, RunID: "run-1", Round: round, Timestamp: start.Add(time.Duration(round) * time.Second)})
	}
	emit(events.EventStart, 0, events.StartData{Input: "secret task"})
	emit(events.EventThinking, 1, events.ThinkingData{Messages: 2})
	emit(events.EventToolCall, 1, events.ToolCallData{CallID: "c", ToolName: "read_file", Args: `{"path":"secret.txt"}`})
	emit(events.EventToolResult, 1, events.ToolResultData{CallID: "c", ToolName: "read_file", Result: "top secret", Success: true})
	emit(events.EventThinking, 2, events.ThinkingData{Messages: 4})
	emit(events.EventError, 2, events.ErrorData{Err: errors.New("model call failed on round 2: 503")})
	emit(events.EventDone, 2, events.MessageData{})

	require.Len(t, rec.Saved(), 1)
	log := readLog(t, filepath.Join(dir, "run-1.json"))
	assert.Equal(t, "model call failed on round 2: 503", log.Error)
	require.Len(t, log.Rounds, 2)
	assert.Empty(t, log.Rounds[0].ToolCalls[0].Args)
	assert.Empty(t, log.Rounds[0].ToolsExecuted[0].Result)
	assert.Equal(t, int64(1000), log.Rounds[0].Duration)
	assert.Equal(t, int64(2000), log.Duration)
}
