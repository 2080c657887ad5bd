// Package events предоставляет Port & Adapter для наблюдения за диалогом.
//
// Conversation Loop отправляет события через Emitter и ничего не знает о том,
// кто их читает: CLI, лог или тест.
//
//	emitter := events.NewChanEmitter(64)
//	loop, _ := conversation.New(provider, toolset, conversation.WithEmitter(emitter))
//	go func() {
//		for ev := range emitter.Subscribe().Events() {
//			switch ev.Type {
//			case events.EventToolCall:
//				...
//			}
//		}
//	}()
//
// Все реализации Emitter должны быть thread-safe: инструменты одного раунда
// могут выполняться параллельно.
package events

import (
	"context"
	"time"
)

// EventType представляет тип события диалога.
type EventType string

const (
	// EventStart отправляется в начале Run, до первого вызова модели.
	EventStart EventType = "start"

	// EventThinking отправляется перед каждым вызовом модели.
	EventThinking EventType = "thinking"

	// EventToolCall отправляется для каждого tool call, запрошенного моделью.
	EventToolCall EventType = "tool_call"

	// EventToolResult отправляется для каждого результата инструмента.
	EventToolResult EventType = "tool_result"

	// EventMessage отправляется когда модель ответила без tool calls.
	EventMessage EventType = "message"

	// EventError отправляется при ошибке вызова модели.
	EventError EventType = "error"

	// EventDone отправляется при завершении Run, в том числе неудачном.
	EventDone EventType = "done"
)

// EventData - sealed interface для данных события.
//
// Только типы из пакета events могут реализовать этот интерфейс.
type EventData interface {
	eventData()
}

// StartData содержит данные для EventStart.
type StartData struct {
	Input string
}

func (StartData) eventData() {}

// ThinkingData содержит данные для EventThinking.
type ThinkingData struct {
	Messages int // размер истории, отправляемой модели
}

func (ThinkingData) eventData() {}

// ToolCallData содержит данные о вызове инструмента.
type ToolCallData struct {
	CallID   string
	ToolName string
	Args     string
}

func (ToolCallData) eventData() {}

// ToolResultData содержит результат выполнения инструмента.
type ToolResultData struct {
	CallID   string
	ToolName string
	Result   string
	Success  bool
	Duration time.Duration
}

func (ToolResultData) eventData() {}

// MessageData содержит данные для EventMessage и EventDone.
type MessageData struct {
	Content string
	Sources int
}

func (MessageData) eventData() {}

// ErrorData содержит данные для EventError: ошибку, с которой завершился Run.
type ErrorData struct {
	Err error
}

func (ErrorData) eventData() {}

// Event представляет событие одного Run.
type Event struct {
	Type      EventType
	Data      EventData
	RunID     string
	Round     int
	Timestamp time.Time
}

// Emitter - это Port для отправки событий.
type Emitter interface {
	// Emit отправляет событие. Если context отменён, событие отбрасывается.
	Emit(ctx context.Context, event Event)
}

// Subscriber позволяет читать события из канала.
type Subscriber interface {
	// Events возвращает read-only канал событий.
	Events() <-chan Event

	// Close освобождает подписчика.
	Close()
}

// Nop - Emitter, который ничего не делает.
type Nop struct{}

// Emit ничего не делает.
func (Nop) Emit(context.Context, Event) {}

// EmitterFunc позволяет использовать функцию как Emitter.
type EmitterFunc func(ctx context.Context, event Event)

// Emit вызывает f.
func (f EmitterFunc) Emit(ctx context.Context, event Event) {
	f(ctx, event)
}

// Multi рассылает каждое событие всем emitters по порядку. nil пропускаются.
func Multi(emitters ...Emitter) Emitter {
	out := make(multi, 0, len(emitters))
	for _, e := range emitters {
		if e != nil {
			out = append(out, e)
		}
	}
	return out
}

type multi []Emitter

func (m multi) Emit(ctx context.Context, event Event) {
	for _, e := range m {
		e.Emit(ctx, event)
	}
}
