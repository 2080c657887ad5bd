package tools

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilkoid/poncho-toolcall/pkg/llm"
)

// funcTool - инструмент поверх замыкания, для сценариев dispatch.
type funcTool struct {
	name string
	fn   func(ctx context.Context, args Arguments) (string, error)
}

func (f funcTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        f.name,
		Description: "test tool",
		Parameters:  JSONSchema{"type": "object", "properties": map[string]any{}},
	}
}

func (f funcTool) Execute(ctx context.Context, args Arguments) (string, error) {
	return f.fn(ctx, args)
}

func newTestDispatcher(t *testing.T, set []Tool, opts ...DispatcherOption) *Dispatcher {
	t.Helper()
	reg, err := NewRegistry(set...)
	require.NoError(t, err)
	return NewDispatcher(reg, opts...)
}

func TestDispatch_UnknownToolNeverInvokes(t *testing.T) {
	known := newStubTool("known")
	d := newTestDispatcher(t, []Tool{known})

	results := d.Dispatch(context.Background(), []Call{{ID: "c1", Name: "send_email", Args: Arguments{}}})

	require.Len(t, results, 1)
	assert.Equal(t, "Tool send_email does not exist", results[0].Content)
	assert.False(t, results[0].Success)
	assert.ErrorIs(t, results[0].Err, ErrToolNotFound)
	assert.Equal(t, "c1", results[0].CallID)
	assert.Equal(t, 0, known.calls)
}

func TestDispatch_ToolErrorIsRecovered(t *testing.T) {
	failing := newStubTool("failing")
	failing.err = errors.New("quota exceeded")
	d := newTestDispatcher(t, []Tool{failing})

	results := d.Dispatch(context.Background(), []Call{{ID: "c1", Name: "failing"}})

	require.Len(t, results, 1)
	assert.Equal(t, "Encountered error in tool call: quota exceeded", results[0].Content)
	assert.False(t, results[0].Success)
}

func TestDispatch_PanicIsRecovered(t *testing.T) {
	panicky := funcTool{name: "panicky", fn: func(ctx context.Context, args Arguments) (string, error) {
		panic("nil map")
	}}
	d := newTestDispatcher(t, []Tool{panicky})

	results := d.Dispatch(context.Background(), []Call{{ID: "c1", Name: "panicky"}})

	require.Len(t, results, 1)
	assert.False(t, results[0].Success)
	assert.Equal(t, "Encountered error in tool call: tool panicked: nil map", results[0].Content)
}

func TestDispatch_Timeout(t *testing.T) {
	slow := funcTool{name: "slow", fn: func(ctx context.Context, args Arguments) (string, error) {
		time.Sleep(2 * time.Second)
		return "late", nil
	}}
	d := newTestDispatcher(t, []Tool{slow}, WithToolTimeout(5*time.Second), WithToolTimeoutFor("slow", 50*time.Millisecond))

	start := time.Now()
	results := d.Dispatch(context.Background(), []Call{{ID: "c1", Name: "slow"}})

	assert.Less(t, time.Since(start), time.Second)
	require.Len(t, results, 1)
	assert.False(t, results[0].Success)
	assert.True(t, strings.HasPrefix(results[0].Content, "Encountered error in tool call: tool \"slow\" exceeded timeout"))
}

func TestDispatch_ParallelKeepsCallOrder(t *testing.T) {
	var running, peak int32
	sleepy := funcTool{name: "sleepy", fn: func(ctx context.Context, args Arguments) (string, error) {
		n := atomic.AddInt32(&running, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		defer atomic.AddInt32(&running, -1)

		var a struct {
			Delay int    `json:"delay"`
			Label string `json:"label"`
		}
		if err := args.Decode(&a); err != nil {
			return "", err
		}
		time.Sleep(time.Duration(a.Delay) * time.Millisecond)
		return a.Label, nil
	}}
	d := newTestDispatcher(t, []Tool{sleepy}, WithParallel(0))

	calls := []Call{
		{ID: "1", Name: "sleepy", Args: Arguments{"delay": 120, "label": "first"}},
		{ID: "2", Name: "missing"},
		{ID: "3", Name: "sleepy", Args: Arguments{"delay": 10, "label": "third"}},
		{ID: "4", Name: "sleepy", Args: Arguments{"delay": 60, "label": "fourth"}},
	}
	results := d.Dispatch(context.Background(), calls)

	require.Len(t, results, 4)
	for i, r := range results {
		assert.Equal(t, calls[i].ID, r.CallID)
	}
	assert.Equal(t, "first", results[0].Content)
	assert.Equal(t, "Tool missing does not exist", results[1].Content)
	assert.Equal(t, "third", results[2].Content)
	assert.Equal(t, "fourth", results[3].Content)
	assert.Greater(t, atomic.LoadInt32(&peak), int32(1))
}

func TestDispatch_ParallelLimit(t *testing.T) {
	var running, peak int32
	counted := funcTool{name: "counted", fn: func(ctx context.Context, args Arguments) (string, error) {
		n := atomic.AddInt32(&running, 1)
		if n > atomic.LoadInt32(&peak) {
			atomic.StoreInt32(&peak, n)
		}
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt32(&running, -1)
		return "ok", nil
	}}
	d := newTestDispatcher(t, []Tool{counted}, WithParallel(1))

	calls := make([]Call, 5)
	for i := range calls {
		calls[i] = Call{ID: string(rune('a' + i)), Name: "counted"}
	}
	results := d.Dispatch(context.Background(), calls)

	require.Len(t, results, 5)
	assert.Equal(t, int32(1), atomic.LoadInt32(&peak))
}

func TestDispatcher_HandleToolCalls(t *testing.T) {
	d := newTestDispatcher(t, []Tool{newStubTool("create_draft")})

	results, err := d.HandleToolCalls(context.Background(), llm.Message{
		Role: llm.RoleAssistant,
		ToolCalls: []llm.ToolCall{
			{ID: "call_1", Name: "create_draft", Args: `{"thread_id":"193b052522a739c9","message_body":"Sure"}`},
		},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Success)
	assert.Equal(t, "create_draft ok", results[0].Content)
	assert.Equal(t, "193b052522a739c9", results[0].Args["thread_id"])

	msg := results[0].Message()
	assert.Equal(t, llm.RoleTool, msg.Role)
	assert.Equal(t, "call_1", msg.ToolCallID)
	assert.Equal(t, "create_draft", msg.Name)

	_, err = d.HandleToolCalls(context.Background(), llm.Message{
		ToolCalls: []llm.ToolCall{{ID: "x", Name: "create_draft", Args: `[1,2]`}},
	})
	assert.ErrorIs(t, err, ErrMalformedToolCall)
}

func TestDispatcher_SpecsFollowRegistrationOrder(t *testing.T) {
	d := newTestDispatcher(t, []Tool{newStubTool("read_file"), newStubTool("list_dir")})

	specs := d.Specs()
	require.Len(t, specs, 2)
	assert.Equal(t, "read_file", specs[0].Name)
	assert.Equal(t, "list_dir", specs[1].Name)
	assert.True(t, d.Has("list_dir"))
	assert.False(t, d.Has("shell"))
}
