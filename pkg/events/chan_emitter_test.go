package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChanEmitter_DeliversInOrder(t *testing.T) {
	e := NewChanEmitter(4)
	sub := e.Subscribe()

	e.Emit(context.Background(), Event{Type: EventThinking, Round: 1})
	e.Emit(context.Background(), Event{Type: EventToolCall, Data: ToolCallData{ToolName: "create_draft"}})
	e.Close()

	var got []EventType
	for ev := range sub.Events() {
		got = append(got, ev.Type)
	}
	assert.Equal(t, []EventType{EventThinking, EventToolCall}, got)
}

func TestChanEmitter_EmitAfterCloseIsNoop(t *testing.T) {
	e := NewChanEmitter(1)
	e.Close()
	e.Close()

	assert.NotPanics(t, func() {
		e.Emit(context.Background(), Event{Type: EventDone})
	})
}

func TestChanEmitter_CancelledContextDropsEvent(t *testing.T) {
	e := NewChanEmitter(0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		e.Emit(ctx, Event{Type: EventMessage})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		require.Fail(t, "Emit blocked on cancelled context")
	}
}

func TestEmitterFunc(t *testing.T) {
	var got Event
	var em Emitter = EmitterFunc(func(ctx context.Context, ev Event) { got = ev })
	em.Emit(context.Background(), Event{Type: EventError, Data: ErrorData{}})
	assert.Equal(t, EventError, got.Type)

	assert.NotPanics(t, func() { Nop{}.Emit(context.Background(), Event{}) })
}

func TestMulti(t *testing.T) {
	var a, b []EventType
	em := Multi(
		EmitterFunc(func(ctx context.Context, ev Event) { a = append(a, ev.Type) }),
		nil,
		EmitterFunc(func(ctx context.Context, ev Event) { b = append(b, ev.Type) }),
	)

	em.Emit(context.Background(), Event{Type: EventStart, Data: StartData{Input: "hi"}})
	em.Emit(context.Background(), Event{Type: EventDone, Data: MessageData{}})

	assert.Equal(t, []EventType{EventStart, EventDone}, a)
	assert.Equal(t, a, b)
}
