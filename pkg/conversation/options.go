package conversation

import (
	"time"

	"github.com/go-logr/logr"

	"github.com/ilkoid/poncho-toolcall/pkg/events"
	"github.com/ilkoid/poncho-toolcall/pkg/llm"
)

// options - настройки Loop, заполняются через Option.
type options struct {
	systemPrompt string
	history      []llm.Message
	maxRounds    int

	parallelTools bool
	maxParallel   int
	toolTimeout   time.Duration
	toolTimeouts  map[string]time.Duration

	generate []llm.GenerateOption
	emitter  events.Emitter
	logger   *logr.Logger
}

// Option настраивает Loop.
type Option func(*options)

// WithSystemPrompt кладёт системное сообщение первым в историю.
func WithSystemPrompt(prompt string) Option {
	return func(o *options) {
		o.systemPrompt = prompt
	}
}

// WithHistory продолжает ранее сохранённый диалог.
// Сообщения идут после системного промпта.
func WithHistory(msgs []llm.Message) Option {
	return func(o *options) {
		o.history = append([]llm.Message(nil), msgs...)
	}
}

// WithMaxRounds ограничивает количество вызовов модели в одном Run.
// 0 - без ограничения.
func WithMaxRounds(n int) Option {
	return func(o *options) {
		o.maxRounds = n
	}
}

// WithParallelTools выполняет tool calls одного раунда конкурентно.
// limit <= 0 - без ограничения.
func WithParallelTools(limit int) Option {
	return func(o *options) {
		o.parallelTools = true
		o.maxParallel = limit
	}
}

// WithToolTimeout задаёт timeout одного вызова инструмента (0 - без timeout).
func WithToolTimeout(d time.Duration) Option {
	return func(o *options) {
		o.toolTimeout = d
	}
}

// WithToolTimeoutFor переопределяет timeout для одного инструмента.
func WithToolTimeoutFor(name string, d time.Duration) Option {
	return func(o *options) {
		if o.toolTimeouts == nil {
			o.toolTimeouts = make(map[string]time.Duration)
		}
		o.toolTimeouts[name] = d
	}
}

// WithGenerateOptions передаёт параметры генерации в каждый вызов модели.
func WithGenerateOptions(opts ...llm.GenerateOption) Option {
	return func(o *options) {
		o.generate = append(o.generate, opts...)
	}
}

// WithEmitter подключает получателя событий.
func WithEmitter(e events.Emitter) Option {
	return func(o *options) {
		o.emitter = e
	}
}

// WithLogger задаёт логгер. По умолчанию используется utils.Logr().
func WithLogger(l logr.Logger) Option {
	return func(o *options) {
		o.logger = &l
	}
}
