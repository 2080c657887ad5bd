// Интерфейс Провайдера через который работает всё приложение.

package llm

import "context"

// ToolSpec - описание инструмента в том виде, в котором его видит модель.
//
// Parameters - JSON Schema объекта аргументов.
type ToolSpec struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// Provider - контракт для любого AI-сервиса с поддержкой Function Calling.
type Provider interface {
	// Generate отправляет полную историю и набор инструментов,
	// возвращает сообщение ассистента (возможно, с ToolCalls).
	//
	// Ошибка означает, что сам вызов модели не удался.
	Generate(ctx context.Context, messages []Message, tools []ToolSpec, opts ...GenerateOption) (Message, error)
}

// ProviderFunc позволяет использовать функцию как Provider.
type ProviderFunc func(ctx context.Context, messages []Message, tools []ToolSpec, opts ...GenerateOption) (Message, error)

// Generate вызывает f.
func (f ProviderFunc) Generate(ctx context.Context, messages []Message, tools []ToolSpec, opts ...GenerateOption) (Message, error) {
	return f(ctx, messages, tools, opts...)
}
