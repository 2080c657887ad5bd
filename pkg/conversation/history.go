package conversation

import (
	"sync"

	"github.com/ilkoid/poncho-toolcall/pkg/llm"
)

// History - упорядоченная история диалога, принадлежащая одному Loop.
//
// Thread-safe: читать историю можно во время Run.
type History struct {
	mu       sync.RWMutex
	messages []llm.Message
}

// NewHistory создаёт историю с начальными сообщениями.
func NewHistory(initial ...llm.Message) *History {
	h := &History{messages: make([]llm.Message, 0, len(initial)+8)}
	h.messages = append(h.messages, initial...)
	return h
}

// Append добавляет сообщения в конец истории.
func (h *History) Append(msgs ...llm.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, msgs...)
}

// Messages возвращает копию истории.
func (h *History) Messages() []llm.Message {
	h.mu.RLock()
	defer h.mu.RUnlock()

	result := make([]llm.Message, len(h.messages))
	copy(result, h.messages)
	return result
}

// Len возвращает количество сообщений.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.messages)
}

// Truncate оставляет первые n сообщений.
func (h *History) Truncate(n int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if n < 0 {
		n = 0
	}
	if n < len(h.messages) {
		h.messages = h.messages[:n]
	}
}
