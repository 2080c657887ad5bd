package tools

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ilkoid/poncho-toolcall/pkg/llm"
	"github.com/ilkoid/poncho-toolcall/pkg/utils"
)

// ErrMalformedToolCall - структуру tool calls из ответа модели не удалось разобрать.
var ErrMalformedToolCall = errors.New("malformed tool call")

// Call - разобранный tool call, готовый к диспетчеризации.
type Call struct {
	ID   string
	Name string
	Args Arguments
}

// Result - результат одного tool call.
//
// Для каждого Call всегда создаётся ровно один Result, в том числе для
// неизвестного инструмента и для ошибки выполнения (Success == false).
type Result struct {
	CallID   string
	Name     string
	Args     Arguments
	Content  string
	Success  bool
	Err      error
	Duration time.Duration
}

// Message возвращает сообщение роли tool для истории диалога.
func (r Result) Message() llm.Message {
	return llm.NewToolMessage(r.CallID, r.Name, r.Content)
}

// ParseToolCalls извлекает tool calls из ответа модели.
//
// Ошибка в любом из вызовов (пустое имя, аргументы не JSON объект)
// делает невалидным весь ответ. Пустой ID заменяется сгенерированным.
func ParseToolCalls(msg llm.Message) ([]Call, error) {
	if len(msg.ToolCalls) == 0 {
		return nil, nil
	}

	calls := make([]Call, 0, len(msg.ToolCalls))
	for i, tc := range msg.ToolCalls {
		name := strings.TrimSpace(tc.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: call #%d has no tool name", ErrMalformedToolCall, i)
		}

		var args Arguments
		if err := json.Unmarshal([]byte(utils.CleanJsonBlock(tc.Args)), &args); err != nil {
			return nil, fmt.Errorf("%w: call #%d (%s): arguments are not a JSON object: %v", ErrMalformedToolCall, i, name, err)
		}
		if args == nil {
			args = Arguments{}
		}

		id := tc.ID
		if id == "" {
			id = "call_" + uuid.NewString()
		}

		calls = append(calls, Call{ID: id, Name: name, Args: args})
	}
	return calls, nil
}
