// Package debug записывает трейсы диалогов в JSON файлы.
//
// Один файл на Run: запрос пользователя, раунды с tool calls и их результатами,
// финальный ответ и агрегированная статистика. Используется для отладки
// и анализа того, какие инструменты модель вызывала и почему.
package debug

import "time"

// DebugLog представляет полный трейс одного Run.
type DebugLog struct {
	// RunID - идентификатор Run (используется в имени файла)
	RunID string `json:"run_id"`

	// Timestamp - время начала выполнения
	Timestamp time.Time `json:"timestamp"`

	// UserQuery - исходный запрос пользователя
	UserQuery string `json:"user_query"`

	// Duration - общая длительность выполнения в миллисекундах
	Duration int64 `json:"duration_ms"`

	// Rounds - раунды "вызов модели → инструменты"
	Rounds []Round `json:"rounds"`

	// Summary - агрегированная статистика выполнения
	Summary Summary `json:"summary"`

	// FinalResult - финальный ответ модели
	FinalResult string `json:"final_result,omitempty"`

	// Error - ошибка если выполнение завершилось неудачно
	Error string `json:"error,omitempty"`
}

// Round представляет один вызов модели и инструменты, которые она запросила.
type Round struct {
	// Number - номер раунда (начиная с 1)
	Number int `json:"round"`

	// Duration - длительность раунда в миллисекундах
	Duration int64 `json:"duration_ms"`

	// MessagesCount - размер истории, отправленной модели
	MessagesCount int `json:"messages_count"`

	// ToolCalls - вызовы, запрошенные моделью
	ToolCalls []ToolCallInfo `json:"tool_calls,omitempty"`

	// ToolsExecuted - результаты выполнения в порядке вызовов
	ToolsExecuted []ToolExecution `json:"tools_executed,omitempty"`

	// IsFinal - true если модель ответила без tool calls
	IsFinal bool `json:"is_final,omitempty"`

	start time.Time
}

// ToolCallInfo описывает вызов инструмента от LLM.
type ToolCallInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Args string `json:"args,omitempty"`
}

// ToolExecution описывает выполнение одного инструмента.
type ToolExecution struct {
	CallID string `json:"call_id"`
	Name   string `json:"name"`

	// Args - аргументы (только при IncludeToolArgs)
	Args string `json:"args,omitempty"`

	// Result - результат (только при IncludeToolResults, может быть обрезан)
	Result string `json:"result,omitempty"`

	// ResultTruncated - true если результат был обрезан
	ResultTruncated bool `json:"result_truncated,omitempty"`

	Duration int64 `json:"duration_ms"`
	Success  bool  `json:"success"`
}

// Summary содержит агрегированную статистику выполнения.
type Summary struct {
	TotalLLMCalls      int      `json:"total_llm_calls"`
	TotalToolsExecuted int      `json:"total_tools_executed"`
	FailedTools        int      `json:"failed_tools"`
	TotalToolDuration  int64    `json:"total_tool_duration_ms"`
	Errors             []string `json:"errors,omitempty"`

	// VisitedTools - уникальные инструменты в порядке первого вызова
	VisitedTools []string `json:"visited_tools,omitempty"`
}
