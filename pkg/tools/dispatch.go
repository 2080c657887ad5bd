package tools

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"golang.org/x/sync/errgroup"

	"github.com/ilkoid/poncho-toolcall/pkg/llm"
	"github.com/ilkoid/poncho-toolcall/pkg/utils"
)

// MaxDescriptionLength - длина описания, после которой провайдеры обычно отказывают.
const MaxDescriptionLength = 1024

// Dispatcher превращает tool calls модели в Result.
//
// Набор инструментов фиксируется при создании и дальше не меняется,
// поэтому Dispatcher безопасно использовать из нескольких goroutine.
//
// Ошибки инструментов никогда не возвращаются наружу: неизвестное имя,
// ошибка, panic или timeout превращаются в Result с Success == false.
type Dispatcher struct {
	tools map[string]Tool
	defs  []ToolDefinition

	parallel     bool
	maxParallel  int
	timeout      time.Duration
	toolTimeouts map[string]time.Duration

	log logr.Logger
}

// DispatcherOption настраивает Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithParallel разрешает параллельное выполнение вызовов одного раунда.
// limit <= 0 означает без ограничения.
func WithParallel(limit int) DispatcherOption {
	return func(d *Dispatcher) {
		d.parallel = true
		d.maxParallel = limit
	}
}

// WithToolTimeout задаёт timeout для всех инструментов (0 - без timeout).
func WithToolTimeout(timeout time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		d.timeout = timeout
	}
}

// WithToolTimeoutFor переопределяет timeout для конкретного инструмента.
func WithToolTimeoutFor(name string, timeout time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		d.toolTimeouts[name] = timeout
	}
}

// WithDispatchLogger задаёт логгер.
func WithDispatchLogger(l logr.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		d.log = l
	}
}

// NewDispatcher создаёт Dispatcher со снимком инструментов реестра.
func NewDispatcher(registry *Registry, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		tools:        make(map[string]Tool),
		toolTimeouts: make(map[string]time.Duration),
		log:          utils.Logr().WithName("tools"),
	}
	for _, opt := range opts {
		opt(d)
	}

	if registry != nil {
		for _, t := range registry.All() {
			def := t.Definition()
			if len(def.Description) > MaxDescriptionLength {
				d.log.Info("tool description is too long", "tool", def.Name, "length", len(def.Description))
			}
			d.tools[def.Name] = t
			d.defs = append(d.defs, def)
		}
	}
	return d
}

// Definitions возвращает определения инструментов в порядке регистрации.
func (d *Dispatcher) Definitions() []ToolDefinition {
	out := make([]ToolDefinition, len(d.defs))
	copy(out, d.defs)
	return out
}

// Specs возвращает описания инструментов для провайдера.
func (d *Dispatcher) Specs() []llm.ToolSpec {
	specs := make([]llm.ToolSpec, 0, len(d.defs))
	for _, def := range d.defs {
		specs = append(specs, def.Spec())
	}
	return specs
}

// Has сообщает, известен ли инструмент.
func (d *Dispatcher) Has(name string) bool {
	_, ok := d.tools[name]
	return ok
}

// Dispatch выполняет calls и возвращает результаты в том же порядке.
//
// При WithParallel вызовы выполняются конкурентно, но результаты
// собираются по индексу вызова, а не по времени завершения.
func (d *Dispatcher) Dispatch(ctx context.Context, calls []Call) []Result {
	results := make([]Result, len(calls))

	if !d.parallel || len(calls) < 2 {
		for i, call := range calls {
			results[i] = d.invoke(ctx, call)
		}
		return results
	}

	var g errgroup.Group
	if d.maxParallel > 0 {
		g.SetLimit(d.maxParallel)
	}
	for i, call := range calls {
		g.Go(func() error {
			results[i] = d.invoke(ctx, call)
			return nil
		})
	}
	_ = g.Wait() // invoke не возвращает ошибок

	return results
}

// HandleToolCalls разбирает tool calls сообщения и выполняет их.
//
// Используется в одноразовом режиме: один ответ модели, одна диспетчеризация.
func (d *Dispatcher) HandleToolCalls(ctx context.Context, msg llm.Message) ([]Result, error) {
	calls, err := ParseToolCalls(msg)
	if err != nil {
		return nil, err
	}
	return d.Dispatch(ctx, calls), nil
}

// invoke выполняет один вызов. Всегда возвращает Result.
func (d *Dispatcher) invoke(ctx context.Context, call Call) Result {
	start := time.Now()
	result := Result{
		CallID: call.ID,
		Name:   call.Name,
		Args:   call.Args,
	}

	tool, ok := d.tools[call.Name]
	if !ok {
		result.Err = fmt.Errorf("%w: '%s'", ErrToolNotFound, call.Name)
		result.Content = fmt.Sprintf("Tool %s does not exist", call.Name)
		d.log.Info("unknown tool requested", "tool", call.Name, "call_id", call.ID)
		return result
	}

	output, err := d.execute(ctx, tool, call)
	result.Duration = time.Since(start)

	if err != nil {
		result.Err = err
		result.Content = fmt.Sprintf("Encountered error in tool call: %v", err)
		d.log.Info("tool call failed",
			"tool", call.Name,
			"call_id", call.ID,
			"error", err,
			"duration_ms", result.Duration.Milliseconds())
		return result
	}

	result.Success = true
	result.Content = output
	d.log.V(1).Info("tool call completed",
		"tool", call.Name,
		"call_id", call.ID,
		"result_length", len(output),
		"duration_ms", result.Duration.Milliseconds())
	return result
}

// execute запускает инструмент в отдельной goroutine, чтобы timeout
// срабатывал даже если инструмент не смотрит на ctx. Panic инструмента
// превращается в ошибку.
func (d *Dispatcher) execute(ctx context.Context, tool Tool, call Call) (string, error) {
	timeout := d.timeout
	if custom, exists := d.toolTimeouts[call.Name]; exists {
		timeout = custom
	}

	toolCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		toolCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	type execResult struct {
		output string
		err    error
	}
	resultChan := make(chan execResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				resultChan <- execResult{err: fmt.Errorf("tool panicked: %v", r)}
			}
		}()
		output, err := tool.Execute(toolCtx, call.Args)
		resultChan <- execResult{output, err}
	}()

	select {
	case res := <-resultChan:
		return res.output, res.err
	case <-toolCtx.Done():
		if timeout > 0 && errors.Is(toolCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return "", fmt.Errorf("tool %q exceeded timeout of %v", call.Name, timeout)
		}
		return "", fmt.Errorf("tool execution cancelled: %w", toolCtx.Err())
	}
}
