// Интерфейс Tool и структуры определений.

package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ilkoid/poncho-toolcall/pkg/llm"
)

// JSONSchema представляет JSON Schema для параметров инструмента.
//
// Формат соответствует JSON Schema для Function Calling API.
type JSONSchema map[string]any

// ToolDefinition описывает инструмент для LLM (Function Calling API format).
type ToolDefinition struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Parameters  JSONSchema `json:"parameters"` // JSON Schema объекта аргументов
}

// Spec конвертирует определение в формат провайдера.
func (d ToolDefinition) Spec() llm.ToolSpec {
	return llm.ToolSpec{
		Name:        d.Name,
		Description: d.Description,
		Parameters:  d.Parameters,
	}
}

// Arguments - разобранные аргументы tool call.
type Arguments map[string]any

// Decode раскладывает аргументы в структуру v через JSON.
func (a Arguments) Decode(v any) error {
	raw, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal arguments: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode arguments: %w", err)
	}
	return nil
}

// String возвращает аргументы в виде JSON (для логов и событий).
func (a Arguments) String() string {
	raw, err := json.Marshal(a)
	if err != nil {
		return fmt.Sprintf("%v", map[string]any(a))
	}
	return string(raw)
}

// Tool - контракт, который должен реализовать любой инструмент.
type Tool interface {
	// Definition возвращает описание инструмента для LLM.
	Definition() ToolDefinition

	// Execute выполняет логику инструмента с разобранными аргументами.
	// Возвращает текстовый результат (обычно JSON) или ошибку.
	Execute(ctx context.Context, args Arguments) (string, error)
}
