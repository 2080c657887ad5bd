package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// Func - инструмент поверх обычной Go функции с типизированными аргументами.
//
// JSON Schema параметров строится рефлексией по типу A (теги json и jsonschema).
// Результат типа string возвращается как есть, остальные типы сериализуются в JSON.
//
//	type draftArgs struct {
//		ThreadID    string `json:"thread_id" jsonschema:"description=The ID of the thread"`
//		MessageBody string `json:"message_body"`
//	}
//	tool, err := tools.NewFunc("create_draft", "Create a draft reply", createDraft)
type Func[A, R any] struct {
	name        string
	description string
	parameters  JSONSchema
	fn          func(ctx context.Context, args A) (R, error)
}

// NewFunc создаёт Func и вычисляет схему параметров.
func NewFunc[A, R any](name, description string, fn func(context.Context, A) (R, error)) (*Func[A, R], error) {
	if fn == nil {
		return nil, fmt.Errorf("%w: tool '%s': nil function", ErrInvalidDefinition, name)
	}
	params, err := SchemaFor[A]()
	if err != nil {
		return nil, fmt.Errorf("tool '%s': %w", name, err)
	}
	return &Func[A, R]{
		name:        name,
		description: description,
		parameters:  params,
		fn:          fn,
	}, nil
}

// Definition возвращает описание инструмента для LLM.
func (f *Func[A, R]) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        f.name,
		Description: f.description,
		Parameters:  f.parameters,
	}
}

// Execute раскладывает аргументы в A и вызывает функцию.
func (f *Func[A, R]) Execute(ctx context.Context, args Arguments) (string, error) {
	var a A
	if err := args.Decode(&a); err != nil {
		return "", err
	}

	r, err := f.fn(ctx, a)
	if err != nil {
		return "", err
	}

	if s, ok := any(r).(string); ok {
		return s, nil
	}
	raw, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("marshal result: %w", err)
	}
	return string(raw), nil
}

// SchemaFor строит JSON Schema объекта аргументов для типа A.
//
// A должен быть структурой (или указателем на структуру).
func SchemaFor[A any]() (JSONSchema, error) {
	reflector := &jsonschema.Reflector{
		DoNotReference: true,
		ExpandedStruct: true,
	}
	schema := reflector.Reflect(new(A))

	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}

	var out JSONSchema
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("unmarshal schema: %w", err)
	}
	delete(out, "$schema")
	delete(out, "$id")

	if out["type"] != "object" {
		return nil, fmt.Errorf("%w: arguments type must be a struct, got schema type %v", ErrInvalidDefinition, out["type"])
	}
	if _, ok := out["properties"]; !ok {
		out["properties"] = map[string]any{}
	}
	return out, nil
}
