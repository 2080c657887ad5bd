// Базовые типы - универсальный язык общения с моделями.
package llm

// Role - роль автора сообщения в истории диалога.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message - одно сообщение истории.
//
// Для RoleTool заполняются ToolCallID и Name (имя вызванного инструмента).
// Для RoleAssistant могут быть заполнены ToolCalls.
type Message struct {
	Role       Role
	Content    string
	ToolCallID string
	Name       string
	ToolCalls  []ToolCall
}

// ToolCall - запрос модели на вызов инструмента.
//
// Args - сырой JSON объект аргументов в том виде, в котором его прислала модель.
// Разбор аргументов выполняет tools.Dispatcher.
type ToolCall struct {
	ID   string
	Name string
	Args string
}

// HasToolCalls сообщает, запросила ли модель вызов инструментов.
func (m Message) HasToolCalls() bool {
	return len(m.ToolCalls) > 0
}

// NewSystemMessage создаёт системное сообщение.
func NewSystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// NewUserMessage создаёт сообщение пользователя.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// NewToolMessage создаёт сообщение с результатом инструмента.
func NewToolMessage(callID, name, content string) Message {
	return Message{
		Role:       RoleTool,
		Content:    content,
		ToolCallID: callID,
		Name:       name,
	}
}
