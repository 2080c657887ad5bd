package debug

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ilkoid/poncho-toolcall/pkg/events"
	"github.com/ilkoid/poncho-toolcall/pkg/utils"
)

// Recorder собирает события Conversation Loop и сохраняет трейс
// каждого Run в {LogsDir}/{RunID}.json по событию EventDone.
//
// Реализует events.Emitter. Потокобезопасен.
type Recorder struct {
	mu     sync.Mutex
	config RecorderConfig
	runs   map[string]*trace
	saved  []string
}

// RecorderConfig конфигурация для создания Recorder.
type RecorderConfig struct {
	// LogsDir - директория для сохранения логов
	LogsDir string

	// IncludeToolArgs - включать аргументы инструментов в лог
	IncludeToolArgs bool

	// IncludeToolResults - включать результаты инструментов в лог
	IncludeToolResults bool

	// MaxResultSize - максимальный размер результата (превышение обрезается)
	// 0 означает без ограничений
	MaxResultSize int
}

// trace - незавершённый трейс одного Run.
type trace struct {
	log     DebugLog
	current *Round
	visited map[string]struct{}
	args    map[string]string // call id → args
}

// NewRecorder создает новый Recorder с заданной конфигурацией.
//
// Если LogsDir не существует, пытается создать её.
func NewRecorder(cfg RecorderConfig) (*Recorder, error) {
	if cfg.LogsDir != "" {
		if err := os.MkdirAll(cfg.LogsDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create logs directory: %w", err)
		}
	}

	return &Recorder{
		config: cfg,
		runs:   make(map[string]*trace),
	}, nil
}

// Emit реализует events.Emitter.
func (r *Recorder) Emit(ctx context.Context, ev events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := r.runs[ev.RunID]
	if t == nil {
		t = &trace{
			log:     DebugLog{RunID: ev.RunID, Timestamp: ev.Timestamp},
			visited: make(map[string]struct{}),
			args:    make(map[string]string),
		}
		r.runs[ev.RunID] = t
	}

	switch data := ev.Data.(type) {
	case events.StartData:
		t.log.UserQuery = data.Input
		t.log.Timestamp = ev.Timestamp

	case events.ThinkingData:
		t.endRound(ev.Timestamp)
		t.current = &Round{Number: ev.Round, MessagesCount: data.Messages, start: ev.Timestamp}

	case events.ToolCallData:
		t.args[data.CallID] = data.Args
		if t.current != nil {
			info := ToolCallInfo{ID: data.CallID, Name: data.ToolName}
			if r.config.IncludeToolArgs {
				info.Args = data.Args
			}
			t.current.ToolCalls = append(t.current.ToolCalls, info)
		}

	case events.ToolResultData:
		r.recordToolResult(t, data)

	case events.ErrorData:
		t.log.Error = data.Err.Error()
		t.log.Summary.Errors = append(t.log.Summary.Errors, data.Err.Error())

	case events.MessageData:
		if ev.Type == events.EventDone {
			t.endRound(ev.Timestamp)
			t.log.Duration = ev.Timestamp.Sub(t.log.Timestamp).Milliseconds()
			delete(r.runs, ev.RunID)

			path, err := r.save(t)
			if err != nil {
				utils.Warn("debug log was not saved", "run_id", ev.RunID, "error", err)
				return
			}
			r.saved = append(r.saved, path)
			utils.Debug("debug log saved", "run_id", ev.RunID, "path", path)
			return
		}
		t.log.FinalResult = data.Content
		if t.current != nil {
			t.current.IsFinal = true
		}
	}
}

// Saved возвращает пути сохранённых файлов в порядке сохранения.
func (r *Recorder) Saved() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.saved...)
}

func (r *Recorder) recordToolResult(t *trace, data events.ToolResultData) {
	exec := ToolExecution{
		CallID:   data.CallID,
		Name:     data.ToolName,
		Duration: data.Duration.Milliseconds(),
		Success:  data.Success,
	}

	// Применяем конфигурацию включения/обрезки данных
	if r.config.IncludeToolArgs {
		exec.Args = t.args[data.CallID]
	}
	if r.config.IncludeToolResults {
		exec.Result = data.Result
		if r.config.MaxResultSize > 0 && len(exec.Result) > r.config.MaxResultSize {
			exec.Result = utils.Truncate(exec.Result, r.config.MaxResultSize) + " (truncated)"
			exec.ResultTruncated = true
		}
	}

	if t.current != nil {
		t.current.ToolsExecuted = append(t.current.ToolsExecuted, exec)
	}

	s := &t.log.Summary
	s.TotalToolsExecuted++
	s.TotalToolDuration += exec.Duration
	if !data.Success {
		s.FailedTools++
		s.Errors = append(s.Errors, fmt.Sprintf("Tool %s: %s", data.ToolName, utils.Truncate(data.Result, 200)))
	}
	if _, ok := t.visited[data.ToolName]; !ok {
		t.visited[data.ToolName] = struct{}{}
		s.VisitedTools = append(s.VisitedTools, data.ToolName)
	}
}

// endRound закрывает текущий раунд.
func (t *trace) endRound(at time.Time) {
	if t.current == nil {
		return
	}
	t.current.Duration = at.Sub(t.current.start).Milliseconds()
	t.log.Rounds = append(t.log.Rounds, *t.current)
	t.log.Summary.TotalLLMCalls++
	t.current = nil
}

// save сериализует трейс и пишет его в файл.
func (r *Recorder) save(t *trace) (string, error) {
	data, err := json.MarshalIndent(t.log, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal debug log: %w", err)
	}

	filePath := t.log.RunID + ".json"
	if r.config.LogsDir != "" {
		filePath = filepath.Join(r.config.LogsDir, filePath)
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write debug log: %w", err)
	}
	return filePath, nil
}

var _ events.Emitter = (*Recorder)(nil)
