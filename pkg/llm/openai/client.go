// Package openai реализует адаптер LLM провайдера для OpenAI-совместимых API.
//
// Поддерживает Function Calling (tools): определения инструментов уходят
// в запрос, tool calls из ответа возвращаются в llm.Message.ToolCalls.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/ilkoid/poncho-toolcall/pkg/config"
	"github.com/ilkoid/poncho-toolcall/pkg/llm"
	"github.com/ilkoid/poncho-toolcall/pkg/utils"
)

// ErrNoChoices - API вернул ответ без вариантов.
var ErrNoChoices = errors.New("no choices in response")

// Client реализует интерфейс llm.Provider для OpenAI-совместимых API.
type Client struct {
	api      *openai.Client
	defaults llm.GenerateOptions
}

// NewClient создает OpenAI клиент на основе конфигурации модели.
//
// ModelName, MaxTokens и Temperature из ModelDef становятся значениями
// по умолчанию, которые можно переопределить опциями в Generate.
func NewClient(modelDef config.ModelDef) *Client {
	// Поддержка custom BaseURL для non-OpenAI провайдеров (Zai, DeepSeek и т.д.)
	cfg := openai.DefaultConfig(modelDef.APIKey)
	if modelDef.BaseURL != "" {
		cfg.BaseURL = modelDef.BaseURL
	}
	if modelDef.Timeout > 0 {
		cfg.HTTPClient = &http.Client{Timeout: modelDef.Timeout}
	}

	return &Client{
		api: openai.NewClientWithConfig(cfg),
		defaults: llm.GenerateOptions{
			Model:       modelDef.ModelName,
			Temperature: modelDef.Temperature,
			MaxTokens:   modelDef.MaxTokens,
		},
	}
}

// Generate выполняет запрос к API и возвращает ответ модели.
//
// Алгоритм:
//  1. Конвертирует сообщения в формат OpenAI SDK
//  2. Если переданы tools - добавляет их в запрос с tool_choice=auto
//  3. Вызывает API
//  4. Конвертирует ответ обратно, вместе с ToolCalls
func (c *Client) Generate(ctx context.Context, messages []llm.Message, specs []llm.ToolSpec, opts ...llm.GenerateOption) (llm.Message, error) {
	startTime := time.Now()
	o := llm.ApplyOptions(c.defaults, opts...)

	utils.Debug("LLM request started",
		"model", o.Model,
		"messages_count", len(messages),
		"tools_count", len(specs))

	req := buildRequest(o, messages, specs)

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		utils.Error("LLM API request failed",
			"error", err,
			"model", o.Model,
			"duration_ms", time.Since(startTime).Milliseconds())
		return llm.Message{}, fmt.Errorf("openai api error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return llm.Message{}, ErrNoChoices
	}

	result := mapFromOpenAI(resp.Choices[0].Message)

	utils.Info("LLM response received",
		"model", o.Model,
		"finish_reason", resp.Choices[0].FinishReason,
		"tool_calls_count", len(result.ToolCalls),
		"content_length", len(result.Content),
		"total_tokens", resp.Usage.TotalTokens,
		"duration_ms", time.Since(startTime).Milliseconds())

	return result, nil
}

// buildRequest собирает ChatCompletionRequest из опций, истории и инструментов.
func buildRequest(o llm.GenerateOptions, messages []llm.Message, specs []llm.ToolSpec) openai.ChatCompletionRequest {
	req := openai.ChatCompletionRequest{
		Model:       o.Model,
		Messages:    make([]openai.ChatCompletionMessage, len(messages)),
		MaxTokens:   o.MaxTokens,
		Temperature: float32(o.Temperature),
	}
	for i, m := range messages {
		req.Messages[i] = mapToOpenAI(m)
	}

	if o.Format == "json_object" {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	if len(specs) > 0 {
		req.Tools = convertToolsToOpenAI(specs)
		// LLM сама решает когда вызывать tools
		req.ToolChoice = "auto"
		if o.ParallelToolCalls != nil {
			req.ParallelToolCalls = *o.ParallelToolCalls
		}
	}

	return req
}

// mapToOpenAI конвертирует наше внутреннее сообщение в формат SDK.
func mapToOpenAI(m llm.Message) openai.ChatCompletionMessage {
	msg := openai.ChatCompletionMessage{
		Role:       string(m.Role),
		Content:    m.Content,
		ToolCallID: m.ToolCallID,
	}
	// name у tool-сообщений понимают не все провайдеры, у остальных ролей он опционален
	if m.Role != llm.RoleTool {
		msg.Name = m.Name
	}

	if len(m.ToolCalls) > 0 {
		msg.ToolCalls = make([]openai.ToolCall, len(m.ToolCalls))
		for i, tc := range m.ToolCalls {
			msg.ToolCalls[i] = openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Name,
					Arguments: tc.Args,
				},
			}
		}
	}

	return msg
}

// mapFromOpenAI конвертирует ответ модели в llm.Message.
func mapFromOpenAI(choice openai.ChatCompletionMessage) llm.Message {
	result := llm.Message{
		Role:    llm.Role(choice.Role),
		Content: choice.Content,
	}
	if result.Role == "" {
		result.Role = llm.RoleAssistant
	}

	if len(choice.ToolCalls) > 0 {
		result.ToolCalls = make([]llm.ToolCall, len(choice.ToolCalls))
		for i, tc := range choice.ToolCalls {
			result.ToolCalls[i] = llm.ToolCall{
				ID:   tc.ID,
				Name: tc.Function.Name,
				Args: tc.Function.Arguments,
			}
		}
	}

	return result
}

// convertToolsToOpenAI конвертирует определения инструментов
// в формат OpenAI Function Calling.
//
// Parameters уже является JSON Schema объектом и передаётся в SDK как есть.
func convertToolsToOpenAI(specs []llm.ToolSpec) []openai.Tool {
	result := make([]openai.Tool, len(specs))

	for i, spec := range specs {
		result[i] = openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        spec.Name,
				Description: spec.Description,
				Parameters:  spec.Parameters,
			},
		}
	}

	return result
}
