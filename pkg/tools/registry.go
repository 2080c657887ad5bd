// Реестр для хранения и поиска инструментов.
package tools

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrToolNotFound возвращается Registry.Get для незарегистрированного имени.
	ErrToolNotFound = errors.New("tool not found")

	// ErrInvalidDefinition возвращается Register для невалидного ToolDefinition.
	ErrInvalidDefinition = errors.New("invalid tool definition")
)

// Registry - потокобезопасное хранилище инструментов.
//
// Порядок Definitions совпадает с порядком регистрации.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
	order []string
}

// NewRegistry создает реестр и регистрирует в нём переданные инструменты.
func NewRegistry(initial ...Tool) (*Registry, error) {
	r := &Registry{
		tools: make(map[string]Tool),
	}
	for _, t := range initial {
		if err := r.Register(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// validateToolDefinition проверяет что ToolDefinition соответствует JSON Schema.
//
// Валидирует:
//   - Name не пустой
//   - Parameters является JSON объектом с type == "object"
//   - Parameters.required (если есть) является массивом строк
func validateToolDefinition(def ToolDefinition) error {
	if def.Name == "" {
		return fmt.Errorf("%w: tool name cannot be empty", ErrInvalidDefinition)
	}

	if def.Parameters == nil {
		return fmt.Errorf("%w: tool '%s': parameters cannot be nil", ErrInvalidDefinition, def.Name)
	}

	// Нормализуем через JSON: []string и []any после этого выглядят одинаково
	paramsJSON, err := json.Marshal(def.Parameters)
	if err != nil {
		return fmt.Errorf("%w: tool '%s': failed to marshal parameters: %v", ErrInvalidDefinition, def.Name, err)
	}

	var params map[string]any
	if err := json.Unmarshal(paramsJSON, &params); err != nil {
		return fmt.Errorf("%w: tool '%s': parameters must be a JSON object, got: %s", ErrInvalidDefinition, def.Name, string(paramsJSON))
	}

	typeStr, ok := params["type"].(string)
	if !ok {
		return fmt.Errorf("%w: tool '%s': parameters must have string 'type' field", ErrInvalidDefinition, def.Name)
	}
	if typeStr != "object" {
		return fmt.Errorf("%w: tool '%s': parameters.type must be 'object', got: '%s'", ErrInvalidDefinition, def.Name, typeStr)
	}

	if requiredVal, exists := params["required"]; exists && requiredVal != nil {
		required, ok := requiredVal.([]any)
		if !ok {
			return fmt.Errorf("%w: tool '%s': parameters.required must be an array", ErrInvalidDefinition, def.Name)
		}
		for i, item := range required {
			if _, ok := item.(string); !ok {
				return fmt.Errorf("%w: tool '%s': parameters.required[%d] must be a string, got: %T", ErrInvalidDefinition, def.Name, i, item)
			}
		}
	}

	return nil
}

// Register добавляет инструмент в реестр с валидацией схемы.
//
// Повторная регистрация того же имени - ошибка.
func (r *Registry) Register(tool Tool) error {
	if tool == nil {
		return fmt.Errorf("%w: nil tool", ErrInvalidDefinition)
	}
	def := tool.Definition()

	if err := validateToolDefinition(def); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[def.Name]; exists {
		return fmt.Errorf("%w: tool '%s' is already registered", ErrInvalidDefinition, def.Name)
	}
	r.tools[def.Name] = tool
	r.order = append(r.order, def.Name)
	return nil
}

// Get ищет инструмент по имени.
func (r *Registry) Get(name string) (Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tool, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("%w: '%s'", ErrToolNotFound, name)
	}
	return tool, nil
}

// Len возвращает количество зарегистрированных инструментов.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// All возвращает инструменты в порядке регистрации.
func (r *Registry) All() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}

// GetDefinitions возвращает список всех определений для отправки в LLM.
func (r *Registry) GetDefinitions() []ToolDefinition {
	all := r.All()
	defs := make([]ToolDefinition, 0, len(all))
	for _, t := range all {
		defs = append(defs, t.Definition())
	}
	return defs
}
