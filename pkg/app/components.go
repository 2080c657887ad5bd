// Package app собирает компоненты приложения из config.yaml:
// LLM провайдер, инструменты, системный промпт и Conversation Loop.
//
// Используется cmd/toolcall, но не зависит от CLI и может быть
// переиспользован в других entry points.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ilkoid/poncho-toolcall/pkg/config"
	"github.com/ilkoid/poncho-toolcall/pkg/conversation"
	"github.com/ilkoid/poncho-toolcall/pkg/debug"
	"github.com/ilkoid/poncho-toolcall/pkg/events"
	"github.com/ilkoid/poncho-toolcall/pkg/factory"
	"github.com/ilkoid/poncho-toolcall/pkg/llm"
	"github.com/ilkoid/poncho-toolcall/pkg/prompt"
	"github.com/ilkoid/poncho-toolcall/pkg/tools"
	"github.com/ilkoid/poncho-toolcall/pkg/utils"
)

// Components содержит все компоненты приложения для переиспользования.
type Components struct {
	Config       *config.AppConfig
	LLM          llm.Provider
	Tools        []tools.Tool
	Prompt       *prompt.PromptFile
	SystemPrompt string
	Loop         *conversation.Loop

	// Recorder - JSON трейсы Run, если включён app.debug_logs.
	Recorder *debug.Recorder
}

// ConfigPathFinder определяет стратегию поиска пути к config.yaml.
//
// По умолчанию используется DefaultConfigPathFinder, но можно
// реализовать свою стратегию для тестов или специальных случаев.
type ConfigPathFinder interface {
	FindConfigPath() string
}

// DefaultConfigPathFinder реализует стандартную стратегию поиска config.yaml.
//
// Порядок поиска:
// 1. Флаг --config (если указан)
// 2. Текущая директория (./config.yaml)
// 3. Директория бинарника
// 4. Родительская директория (для запуска из cmd/)
type DefaultConfigPathFinder struct {
	// ConfigFlag - значение флага --config, если указан
	ConfigFlag string
}

// FindConfigPath находит путь к config.yaml.
func (f *DefaultConfigPathFinder) FindConfigPath() string {
	// 1. Флаг имеет приоритет
	if f.ConfigFlag != "" {
		return resolveAbsPath(f.ConfigFlag)
	}

	// 2. Текущая директория
	if _, err := os.Stat("config.yaml"); err == nil {
		return resolveAbsPath("config.yaml")
	}

	// 3. Директория бинарника
	if execPath, err := os.Executable(); err == nil {
		cfgPath := filepath.Join(filepath.Dir(execPath), "config.yaml")
		if _, err := os.Stat(cfgPath); err == nil {
			return cfgPath
		}
	}

	// 4. Родительские директории
	for _, cfgPath := range []string{
		filepath.Join("..", "..", "config.yaml"),
		filepath.Join("..", "config.yaml"),
	} {
		if _, err := os.Stat(cfgPath); err == nil {
			return resolveAbsPath(cfgPath)
		}
	}

	// Возвращаем дефолтный путь (даже если не существует)
	return resolveAbsPath("config.yaml")
}

// InitializeConfig находит и загружает конфигурацию.
func InitializeConfig(finder ConfigPathFinder) (*config.AppConfig, string, error) {
	cfgPath := finder.FindConfigPath()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config from %s: %w", cfgPath, err)
	}

	return cfg, cfgPath, nil
}

// Options - параметры сборки, которые не живут в config.yaml.
type Options struct {
	// Model переопределяет models.default_chat.
	Model string

	// Emitter получает события Conversation Loop.
	Emitter events.Emitter
}

// Initialize создаёт провайдера через factory и собирает остальные компоненты.
func Initialize(cfg *config.AppConfig, opts Options) (*Components, error) {
	modelDef, err := cfg.GetChatModel(opts.Model)
	if err != nil {
		return nil, err
	}

	provider, err := factory.NewLLMProvider(modelDef)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM provider: %w", err)
	}
	utils.Info("LLM provider initialized", "provider", modelDef.Provider, "model", modelDef.ModelName)

	return InitializeWithProvider(cfg, provider, opts)
}

// InitializeWithProvider собирает компоненты вокруг готового провайдера.
func InitializeWithProvider(cfg *config.AppConfig, provider llm.Provider, opts Options) (*Components, error) {
	toolset, err := SetupTools(cfg)
	if err != nil {
		return nil, err
	}

	pf, err := prompt.FromConfig(cfg.Persona)
	if err != nil {
		return nil, fmt.Errorf("failed to load persona: %w", err)
	}
	systemPrompt, err := pf.SystemPrompt()
	if err != nil {
		return nil, fmt.Errorf("failed to render persona: %w", err)
	}

	var recorder *debug.Recorder
	if dl := cfg.App.DebugLogs; dl.Enabled {
		recorder, err = debug.NewRecorder(debug.RecorderConfig{
			LogsDir:            dl.LogsDir,
			IncludeToolArgs:    dl.IncludeToolArgs,
			IncludeToolResults: dl.IncludeToolResults,
			MaxResultSize:      dl.MaxResultSize,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create debug recorder: %w", err)
		}
		opts.Emitter = events.Multi(opts.Emitter, recorder)
	}

	loop, err := conversation.New(provider, toolset, loopOptions(cfg, pf, systemPrompt, opts)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create conversation loop: %w", err)
	}

	utils.Info("Components initialized",
		"tools", len(toolset),
		"max_rounds", cfg.Loop.MaxRounds,
		"parallel_tools", cfg.Loop.ParallelTools,
		"system_prompt", systemPrompt != "")

	return &Components{
		Config:       cfg,
		LLM:          provider,
		Tools:        toolset,
		Prompt:       pf,
		SystemPrompt: systemPrompt,
		Loop:         loop,
		Recorder:     recorder,
	}, nil
}

// loopOptions переводит config.yaml в опции conversation.Loop.
func loopOptions(cfg *config.AppConfig, pf *prompt.PromptFile, systemPrompt string, opts Options) []conversation.Option {
	loopCfg := cfg.Loop.GetDefaults()

	out := []conversation.Option{
		conversation.WithSystemPrompt(systemPrompt),
		conversation.WithMaxRounds(loopCfg.MaxRounds),
		conversation.WithToolTimeout(loopCfg.ToolTimeout),
		conversation.WithGenerateOptions(pf.Options()...),
	}
	if loopCfg.ParallelTools {
		out = append(out, conversation.WithParallelTools(loopCfg.MaxParallel))
	}
	for name, tc := range cfg.Tools {
		if tc.Timeout > 0 {
			out = append(out, conversation.WithToolTimeoutFor(name, tc.Timeout))
		}
	}
	if opts.Emitter != nil {
		out = append(out, conversation.WithEmitter(opts.Emitter))
	}
	return out
}

// Execute выполняет один запрос через Conversation Loop
// с ограничением loop.run_timeout на весь Run.
func (c *Components) Execute(ctx context.Context, query string) (conversation.Result, error) {
	timeout := c.Config.Loop.GetDefaults().RunTimeout
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return c.Loop.Run(ctx, query)
}

// OneShotResult - итог одноразового вызова.
type OneShotResult struct {
	Response llm.Message
	Results  []tools.Result
	Duration time.Duration
}

// OneShot делает один вызов модели (system + user) и выполняет
// запрошенные в ответе инструменты, не возвращая результаты модели.
func (c *Components) OneShot(ctx context.Context, query string) (OneShotResult, error) {
	start := time.Now()
	timeout := c.Config.Loop.GetDefaults().RunTimeout
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var messages []llm.Message
	if c.SystemPrompt != "" {
		messages = append(messages, llm.NewSystemMessage(c.SystemPrompt))
	}
	messages = append(messages, llm.NewUserMessage(query))

	dispatcher, err := c.dispatcher()
	if err != nil {
		return OneShotResult{}, err
	}

	resp, err := c.LLM.Generate(ctx, messages, dispatcher.Specs(), c.Prompt.Options()...)
	if err != nil {
		return OneShotResult{}, fmt.Errorf("model call failed: %w", err)
	}

	results, err := dispatcher.HandleToolCalls(ctx, resp)
	if err != nil {
		return OneShotResult{Response: resp, Duration: time.Since(start)}, err
	}

	return OneShotResult{Response: resp, Results: results, Duration: time.Since(start)}, nil
}

func (c *Components) dispatcher() (*tools.Dispatcher, error) {
	registry, err := tools.NewRegistry(c.Tools...)
	if err != nil {
		return nil, err
	}
	loopCfg := c.Config.Loop.GetDefaults()
	opts := []tools.DispatcherOption{
		tools.WithToolTimeout(loopCfg.ToolTimeout),
		tools.WithDispatchLogger(utils.Logr().WithName("oneshot")),
	}
	if loopCfg.ParallelTools {
		opts = append(opts, tools.WithParallel(loopCfg.MaxParallel))
	}
	return tools.NewDispatcher(registry, opts...), nil
}

// resolveAbsPath возвращает абсолютный путь или исходный, если это невозможно.
func resolveAbsPath(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return p
	}
	return abs
}
