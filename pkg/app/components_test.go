package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilkoid/poncho-toolcall/pkg/config"
	"github.com/ilkoid/poncho-toolcall/pkg/llm"
)

// replayProvider возвращает ответы по очереди и запоминает запросы.
type replayProvider struct {
	responses []llm.Message
	requests  [][]llm.Message
	specs     []llm.ToolSpec
}

func (p *replayProvider) Generate(ctx context.Context, messages []llm.Message, specs []llm.ToolSpec, opts ...llm.GenerateOption) (llm.Message, error) {
	p.requests = append(p.requests, messages)
	p.specs = specs
	next := p.responses[0]
	p.responses = p.responses[1:]
	return next, nil
}

func testConfig(t *testing.T) *config.AppConfig {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("buy milk"), 0o644))

	return &config.AppConfig{
		Models: config.ModelsConfig{
			DefaultChat: "gpt",
			Definitions: map[string]config.ModelDef{"gpt": {Provider: "openai", ModelName: "gpt-4o-mini"}},
		},
		Tools:   map[string]config.ToolConfig{ToolFetchURL: {Enabled: false}},
		Files:   config.FilesConfig{Root: root},
		Persona: config.PersonaConfig{Role: "File assistant", Backstory: "Knows the workspace", Goal: "Answer from files"},
	}
}

func TestSetupTools(t *testing.T) {
	cfg := testConfig(t)

	toolset, err := SetupTools(cfg)
	require.NoError(t, err)
	var names []string
	for _, tool := range toolset {
		names = append(names, tool.Definition().Name)
	}
	assert.Equal(t, []string{ToolListDir, ToolReadFile}, names)

	cfg.Files.Root = ""
	cfg.Tools = nil
	toolset, err = SetupTools(cfg)
	require.NoError(t, err)
	require.Len(t, toolset, 1)
	assert.Equal(t, ToolFetchURL, toolset[0].Definition().Name)
}

func TestExecute_ReadsFileThroughLoop(t *testing.T) {
	provider := &replayProvider{responses: []llm.Message{
		{Role: llm.RoleAssistant, ToolCalls: []llm.ToolCall{{ID: "c1", Name: ToolReadFile, Args: `{"path":"notes.txt"}`}}},
		{Role: llm.RoleAssistant, Content: "You need to buy milk."},
	}}

	comps, err := InitializeWithProvider(testConfig(t), provider, Options{})
	require.NoError(t, err)
	assert.Equal(t, "Your role is File assistant\n Your backstory: Knows the workspace\n Your goal is: Answer from files", comps.SystemPrompt)

	res, err := comps.Execute(context.Background(), "What is in my notes?")
	require.NoError(t, err)
	assert.Equal(t, "You need to buy milk.", res.Response.Content)
	require.Len(t, res.Sources, 1)
	assert.True(t, res.Sources[0].Success)
	assert.Equal(t, "buy milk", res.Sources[0].Content)

	first := provider.requests[0]
	require.Len(t, first, 2)
	assert.Equal(t, llm.RoleSystem, first[0].Role)
	assert.Len(t, provider.specs, 2)
}

func TestInitialize_DebugLogs(t *testing.T) {
	cfg := testConfig(t)
	cfg.App.DebugLogs = config.DebugLogsConfig{Enabled: true, LogsDir: filepath.Join(t.TempDir(), "traces"), IncludeToolArgs: true}

	provider := &replayProvider{responses: []llm.Message{{Role: llm.RoleAssistant, Content: "hi"}}}
	comps, err := InitializeWithProvider(cfg, provider, Options{})
	require.NoError(t, err)
	require.NotNil(t, comps.Recorder)

	res, err := comps.Execute(context.Background(), "hello")
	require.NoError(t, err)

	saved := comps.Recorder.Saved()
	require.Len(t, saved, 1)
	assert.Equal(t, res.RunID+".json", filepath.Base(saved[0]))
}

func TestSetupTools_S3(t *testing.T) {
	cfg := testConfig(t)
	cfg.Files.Root = ""
	cfg.S3 = config.S3Config{Endpoint: "localhost:9000", Bucket: "docs", Region: "us-east-1"}
	cfg.Tools[ToolS3Read] = config.ToolConfig{Enabled: false}

	toolset, err := SetupTools(cfg)
	require.NoError(t, err)
	require.Len(t, toolset, 1)
	assert.Equal(t, ToolS3List, toolset[0].Definition().Name)
}

func TestOneShot_DispatchesWithoutFollowUp(t *testing.T) {
	provider := &replayProvider{responses: []llm.Message{
		{Role: llm.RoleAssistant, ToolCalls: []llm.ToolCall{
			{ID: "c1", Name: ToolListDir, Args: `{"path":"."}`},
			{ID: "c2", Name: "create_draft", Args: `{}`},
		}},
	}}

	comps, err := InitializeWithProvider(testConfig(t), provider, Options{})
	require.NoError(t, err)

	res, err := comps.OneShot(context.Background(), "list my files")
	require.NoError(t, err)

	assert.Len(t, provider.requests, 1)
	require.Len(t, res.Results, 2)
	assert.Contains(t, res.Results[0].Content, "notes.txt")
	assert.Equal(t, "Tool create_draft does not exist", res.Results[1].Content)
}

func TestInitialize_UnknownModel(t *testing.T) {
	_, err := Initialize(testConfig(t), Options{Model: "missing"})
	assert.ErrorIs(t, err, config.ErrModelNotDefined)
}

func TestFindConfigPath_Flag(t *testing.T) {
	finder := &DefaultConfigPathFinder{ConfigFlag: "custom.yaml"}
	assert.True(t, filepath.IsAbs(finder.FindConfigPath()))
	assert.Equal(t, "custom.yaml", filepath.Base(finder.FindConfigPath()))
}
