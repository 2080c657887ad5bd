// Package conversation реализует Conversation Loop: раунды
// "спросить модель → выполнить инструменты → вернуть результаты модели",
// пока модель не ответит без tool calls.
//
// Loop владеет историей диалога и фиксированным набором инструментов.
// Ошибки инструментов превращаются в сообщения роли tool, чтобы модель
// могла на них отреагировать; наружу из Run выходит только ошибка вызова модели.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/ilkoid/poncho-toolcall/pkg/events"
	"github.com/ilkoid/poncho-toolcall/pkg/llm"
	"github.com/ilkoid/poncho-toolcall/pkg/tools"
	"github.com/ilkoid/poncho-toolcall/pkg/utils"
)

// Result - итог одного Run.
type Result struct {
	// Response - последнее сообщение ассистента (без tool calls).
	Response llm.Message

	// Sources - результаты всех tool calls этого Run в порядке вызова,
	// включая неуспешные.
	Sources []tools.Result

	// Rounds - количество вызовов модели.
	Rounds int

	RunID    string
	Duration time.Duration
}

// Loop - Conversation Loop.
//
// Run на одном Loop выполняются последовательно: история принадлежит Loop.
// Разные Loop ничего не разделяют и могут работать параллельно.
type Loop struct {
	provider   llm.Provider
	dispatcher *tools.Dispatcher
	specs      []llm.ToolSpec
	generate   []llm.GenerateOption
	maxRounds  int
	emitter    events.Emitter
	log        logr.Logger

	runMu   sync.Mutex
	history *History
	prefix  int // сообщения, которые Reset оставляет в истории
}

// New создаёт Loop. Набор инструментов фиксируется здесь и не меняется.
func New(provider llm.Provider, toolset []tools.Tool, opts ...Option) (*Loop, error) {
	if provider == nil {
		return nil, errors.New("provider is required")
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.maxRounds < 0 {
		return nil, fmt.Errorf("max rounds must be >= 0, got %d", o.maxRounds)
	}

	log := utils.Logr().WithName("conversation")
	if o.logger != nil {
		log = *o.logger
	}

	registry, err := tools.NewRegistry(toolset...)
	if err != nil {
		return nil, fmt.Errorf("register tools: %w", err)
	}

	dispatchOpts := []tools.DispatcherOption{
		tools.WithDispatchLogger(log.WithName("tools")),
		tools.WithToolTimeout(o.toolTimeout),
	}
	if o.parallelTools {
		dispatchOpts = append(dispatchOpts, tools.WithParallel(o.maxParallel))
	}
	for name, d := range o.toolTimeouts {
		dispatchOpts = append(dispatchOpts, tools.WithToolTimeoutFor(name, d))
	}
	dispatcher := tools.NewDispatcher(registry, dispatchOpts...)

	history := NewHistory()
	if o.systemPrompt != "" {
		history.Append(llm.NewSystemMessage(o.systemPrompt))
	}
	prefix := history.Len()
	history.Append(o.history...)

	emitter := o.emitter
	if emitter == nil {
		emitter = events.Nop{}
	}

	return &Loop{
		provider:   provider,
		dispatcher: dispatcher,
		specs:      dispatcher.Specs(),
		generate:   o.generate,
		maxRounds:  o.maxRounds,
		emitter:    emitter,
		log:        log,
		history:    history,
		prefix:     prefix,
	}, nil
}

// History возвращает копию истории диалога.
func (l *Loop) History() []llm.Message {
	return l.history.Messages()
}

// Tools возвращает определения инструментов в порядке регистрации.
func (l *Loop) Tools() []tools.ToolDefinition {
	return l.dispatcher.Definitions()
}

// Reset очищает диалог, оставляя системный промпт.
func (l *Loop) Reset() {
	l.runMu.Lock()
	defer l.runMu.Unlock()
	l.history.Truncate(l.prefix)
}

// Run обрабатывает один запрос пользователя.
//
// Возвращает ошибку только если userInput пустой, вызов модели не удался
// (*ModelCallError) или превышен MaxRounds (ErrMaxRounds, вместе с частичным
// результатом). Тайм-аут на весь Run задаётся через ctx.
func (l *Loop) Run(ctx context.Context, userInput string) (Result, error) {
	if strings.TrimSpace(userInput) == "" {
		return Result{}, ErrEmptyInput
	}

	l.runMu.Lock()
	defer l.runMu.Unlock()

	run := &runState{
		id:    uuid.NewString(),
		start: time.Now(),
	}
	run.log = l.log.WithValues("run_id", run.id)
	run.log.Info("run started", "input_length", len(userInput), "history", l.history.Len())

	l.emit(ctx, run, events.EventStart, events.StartData{Input: userInput})
	l.history.Append(llm.NewUserMessage(userInput))

	result, err := l.drive(ctx, run)
	result.RunID = run.id
	result.Duration = time.Since(run.start)

	// завершающие события доходят и после отмены ctx
	doneCtx := context.WithoutCancel(ctx)
	if err != nil {
		run.log.Error(err, "run failed", "rounds", result.Rounds, "sources", len(result.Sources))
		l.emit(doneCtx, run, events.EventError, events.ErrorData{Err: err})
	} else {
		run.log.Info("run completed",
			"rounds", result.Rounds,
			"sources", len(result.Sources),
			"duration_ms", result.Duration.Milliseconds())
	}
	l.emit(doneCtx, run, events.EventDone, events.MessageData{Content: result.Response.Content, Sources: len(result.Sources)})
	return result, err
}

// runState - данные одного Run. Не разделяется между goroutine.
type runState struct {
	id    string
	start time.Time
	log   logr.Logger
	round int
}

// drive крутит машину состояний до Done.
//
// sources передаётся через раунды явно и не хранится в Loop.
func (l *Loop) drive(ctx context.Context, run *runState) (Result, error) {
	var (
		state    = StateAwaitingModel
		sources  []tools.Result
		pending  []tools.Call
		response llm.Message
	)

	for state != StateDone {
		switch state {
		case StateAwaitingModel:
			if l.maxRounds > 0 && run.round >= l.maxRounds {
				return Result{Response: response, Sources: sources, Rounds: run.round}, ErrMaxRounds
			}
			run.round++

			msg, calls, err := l.callModel(ctx, run)
			if err != nil {
				return Result{Response: response, Sources: sources, Rounds: run.round}, err
			}
			response = msg

			if len(calls) == 0 {
				l.emit(ctx, run, events.EventMessage, events.MessageData{Content: msg.Content, Sources: len(sources)})
				state = StateDone
				continue
			}
			pending = calls
			state = StateHandlingTools

		case StateHandlingTools:
			sources = append(sources, l.handleTools(ctx, run, pending)...)
			pending = nil
			state = StateAwaitingModel
		}
	}

	return Result{Response: response, Sources: sources, Rounds: run.round}, nil
}

// callModel отправляет историю модели, сохраняет ответ и извлекает tool calls.
//
// Если tool calls не удалось разобрать, раунд считается раундом без вызовов.
func (l *Loop) callModel(ctx context.Context, run *runState) (llm.Message, []tools.Call, error) {
	messages := l.history.Messages()
	l.emit(ctx, run, events.EventThinking, events.ThinkingData{Messages: len(messages)})
	run.log.V(1).Info("model request", "round", run.round, "messages", len(messages), "tools", len(l.specs))

	started := time.Now()
	msg, err := l.provider.Generate(ctx, messages, l.specs, l.generate...)
	if err != nil {
		return llm.Message{}, nil, &ModelCallError{Round: run.round, Err: err}
	}
	if msg.Role == "" {
		msg.Role = llm.RoleAssistant
	}

	calls, err := tools.ParseToolCalls(msg)
	if err != nil {
		run.log.Info("ignoring malformed tool calls", "round", run.round, "error", err)
		calls = nil
	}
	msg = withParsedCalls(msg, calls)
	l.history.Append(msg)

	run.log.V(1).Info("model response",
		"round", run.round,
		"tool_calls", len(calls),
		"content_length", len(msg.Content),
		"duration_ms", time.Since(started).Milliseconds())
	return msg, calls, nil
}

// withParsedCalls приводит tool calls сообщения к разобранным calls:
// на каждый tool call в истории должен прийти ответ роли tool с тем же ID.
// Раунд без вызовов (в том числе неразобранный) сохраняется без tool calls.
func withParsedCalls(msg llm.Message, calls []tools.Call) llm.Message {
	if len(calls) == 0 {
		msg.ToolCalls = nil
		return msg
	}
	tcs := make([]llm.ToolCall, len(msg.ToolCalls))
	copy(tcs, msg.ToolCalls)
	for i := range tcs {
		tcs[i].ID = calls[i].ID
		tcs[i].Name = calls[i].Name
	}
	msg.ToolCalls = tcs
	return msg
}

// handleTools выполняет вызовы раунда и добавляет по одному сообщению
// роли tool на каждый вызов, в порядке вызовов.
func (l *Loop) handleTools(ctx context.Context, run *runState, calls []tools.Call) []tools.Result {
	for _, c := range calls {
		l.emit(ctx, run, events.EventToolCall, events.ToolCallData{CallID: c.ID, ToolName: c.Name, Args: c.Args.String()})
	}

	results := l.dispatcher.Dispatch(ctx, calls)

	msgs := make([]llm.Message, 0, len(results))
	for _, r := range results {
		msgs = append(msgs, r.Message())
		l.emit(ctx, run, events.EventToolResult, events.ToolResultData{
			CallID:   r.CallID,
			ToolName: r.Name,
			Result:   r.Content,
			Success:  r.Success,
			Duration: r.Duration,
		})
	}
	l.history.Append(msgs...)

	return results
}

func (l *Loop) emit(ctx context.Context, run *runState, typ events.EventType, data events.EventData) {
	l.emitter.Emit(ctx, events.Event{
		Type:      typ,
		Data:      data,
		RunID:     run.id,
		Round:     run.round,
		Timestamp: time.Now(),
	})
}
